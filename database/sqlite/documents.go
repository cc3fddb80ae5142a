package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/pagerag/database"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
)

const documentColumns = `id, rid, title, description, source_type, total_chunks, active, metadata, created_at, updated_at`

// DocumentsDBHandler handles document-related operations on an embedded SQLite database.
type DocumentsDBHandler struct {
	db *helper.Database
}

var _ database.DocumentsDBHandlerFunctions = (*DocumentsDBHandler)(nil)

// NewDocumentsDBHandler creates the schema if needed and returns the handler.
func NewDocumentsDBHandler(db *helper.Database) (*DocumentsDBHandler, error) {
	err := CreateSchema(db)
	if err != nil {
		return nil, err
	}

	db.Logger.Info("Initialized DocumentsDBHandler", "driver", db.Driver)

	return &DocumentsDBHandler{db: db}, nil
}

// InsertDocument inserts a new document and fills its generated fields.
// A title that already exists yields model.ErrDuplicateTitle.
func (h *DocumentsDBHandler) InsertDocument(doc *model.Document) error {
	metadata, err := doc.Metadata.Marshal()
	if err != nil {
		return helper.NewError("marshal metadata", err)
	}

	now := time.Now().UTC()
	rid := uuid.New()
	result, err := h.db.Instance.Exec(
		`INSERT INTO documents (rid, title, description, source_type, metadata, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rid.String(),
		doc.Title,
		doc.Description,
		string(doc.SourceType),
		string(metadata),
		now,
		now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return helper.NewError("insert document", fmt.Errorf("%w: %s", model.ErrDuplicateTitle, doc.Title))
		}
		return helper.NewError("insert", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return helper.NewError("last insert id", err)
	}

	doc.ID = id
	doc.RID = rid
	doc.TotalChunks = 0
	doc.Active = true
	doc.CreatedAt = now
	doc.UpdatedAt = now
	if doc.Metadata == nil {
		doc.Metadata = model.Metadata{}
	}

	return nil
}

// SelectDocument retrieves a document by RID
func (h *DocumentsDBHandler) SelectDocument(rid uuid.UUID) (*model.Document, error) {
	row := h.db.Instance.QueryRow(
		`SELECT `+documentColumns+` FROM documents WHERE rid = ?`,
		rid.String(),
	)
	return scanDocumentOrNotFound(row)
}

// SelectDocumentByTitle retrieves a document by its unique title
func (h *DocumentsDBHandler) SelectDocumentByTitle(title string) (*model.Document, error) {
	row := h.db.Instance.QueryRow(
		`SELECT `+documentColumns+` FROM documents WHERE title = ?`,
		title,
	)
	return scanDocumentOrNotFound(row)
}

// SelectAllDocuments retrieves all documents, newest first
func (h *DocumentsDBHandler) SelectAllDocuments() ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(
		`SELECT ` + documentColumns + ` FROM documents ORDER BY created_at DESC, id DESC`,
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	documents := []*model.Document{}
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		documents = append(documents, doc)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return documents, nil
}

// UpdateDocumentActive sets the active flag of the document with the given title.
func (h *DocumentsDBHandler) UpdateDocumentActive(title string, active bool) (*model.Document, error) {
	result, err := h.db.Instance.Exec(
		`UPDATE documents SET active = ?, updated_at = ? WHERE title = ?`,
		active,
		time.Now().UTC(),
		title,
	)
	if err != nil {
		return nil, helper.NewError("update", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return nil, helper.NewError("rows affected", err)
	}
	if affected == 0 {
		return nil, helper.NewError("update", fmt.Errorf("%w: %s", model.ErrDocumentNotFound, title))
	}

	return h.SelectDocumentByTitle(title)
}

// UpdateDocumentTotalChunks recounts the chunk rows of a document and stores the count.
func (h *DocumentsDBHandler) UpdateDocumentTotalChunks(id int64) (int, error) {
	result, err := h.db.Instance.Exec(
		`UPDATE documents
		SET total_chunks = (SELECT COUNT(*) FROM chunks WHERE chunks.document_id = documents.id),
			updated_at = ?
		WHERE id = ?`,
		time.Now().UTC(),
		id,
	)
	if err != nil {
		return 0, helper.NewError("update", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, helper.NewError("rows affected", err)
	}
	if affected == 0 {
		return 0, helper.NewError("update total chunks", model.ErrDocumentNotFound)
	}

	var total int
	err = h.db.Instance.QueryRow(`SELECT total_chunks FROM documents WHERE id = ?`, id).Scan(&total)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return total, nil
}

// DeleteDocumentByTitle deletes a document together with its chunks in one
// transaction and returns the number of deleted chunks.
func (h *DocumentsDBHandler) DeleteDocumentByTitle(title string) (int, error) {
	tx, err := h.db.Instance.Begin()
	if err != nil {
		return 0, helper.NewError("begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var id int64
	err = tx.QueryRow(`SELECT id FROM documents WHERE title = ?`, title).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, helper.NewError("delete document", fmt.Errorf("%w: %s", model.ErrDocumentNotFound, title))
		}
		return 0, helper.NewError("scan", err)
	}

	var deleted int
	err = tx.QueryRow(`SELECT COUNT(*) FROM chunks WHERE document_id = ?`, id).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	_, err = tx.Exec(`DELETE FROM documents WHERE id = ?`, id)
	if err != nil {
		return 0, helper.NewError("delete", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, helper.NewError("commit", err)
	}

	return deleted, nil
}

func scanDocument(row rowScanner) (*model.Document, error) {
	doc := &model.Document{}
	var rid string
	var sourceType string
	var metadata string
	err := row.Scan(
		&doc.ID,
		&rid,
		&doc.Title,
		&doc.Description,
		&sourceType,
		&doc.TotalChunks,
		&doc.Active,
		&metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	doc.RID, err = uuid.Parse(rid)
	if err != nil {
		return nil, helper.NewError("parse rid", err)
	}
	doc.SourceType = model.SourceType(sourceType)
	err = doc.Metadata.Unmarshal(metadata)
	if err != nil {
		return nil, helper.NewError("unmarshal metadata", err)
	}

	return doc, nil
}

func scanDocumentOrNotFound(row *sql.Row) (*model.Document, error) {
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, helper.NewError("scan", model.ErrDocumentNotFound)
		}
		return nil, helper.NewError("scan", err)
	}
	return doc, nil
}
