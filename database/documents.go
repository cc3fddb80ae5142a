package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
	loadSql "github.com/siherrmann/pagerag/sql"
)

// uniqueViolation is the Postgres error code for a unique constraint violation.
const uniqueViolation = "23505"

// DocumentsDBHandlerFunctions defines the interface for Documents database operations.
type DocumentsDBHandlerFunctions interface {
	InsertDocument(doc *model.Document) error
	SelectDocument(rid uuid.UUID) (*model.Document, error)
	SelectDocumentByTitle(title string) (*model.Document, error)
	SelectAllDocuments() ([]*model.Document, error)
	UpdateDocumentActive(title string, active bool) (*model.Document, error)
	UpdateDocumentTotalChunks(id int64) (int, error)
	DeleteDocumentByTitle(title string) (int, error)
}

// DocumentsDBHandler handles document-related database operations
type DocumentsDBHandler struct {
	db *helper.Database
}

// NewDocumentsDBHandler creates a new documents database handler.
// It loads the document-related SQL functions and creates the table.
// If force is true, it will reload the SQL functions even if they already exist.
func NewDocumentsDBHandler(db *helper.Database, force bool) (*DocumentsDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	documentsDbHandler := &DocumentsDBHandler{
		db: db,
	}

	err := loadSql.LoadDocumentsSql(documentsDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load documents sql", err)
	}

	err = documentsDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized DocumentsDBHandler")

	return documentsDbHandler, nil
}

// CreateTable creates the 'documents' table in the database.
// If the table already exists, it does not create it again.
func (h *DocumentsDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_documents();`)
	if err != nil {
		log.Panicf("error initializing documents table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table documents")

	return nil
}

// InsertDocument inserts a new document and fills its generated fields.
// A title that already exists yields model.ErrDuplicateTitle.
func (h *DocumentsDBHandler) InsertDocument(doc *model.Document) error {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM insert_document($1, $2, $3, $4)`,
		doc.Title,
		doc.Description,
		doc.SourceType,
		doc.Metadata,
	)

	err := scanDocument(row, doc)
	if err != nil {
		if isUniqueViolation(err) {
			return helper.NewError("insert document", fmt.Errorf("%w: %s", model.ErrDuplicateTitle, doc.Title))
		}
		return helper.NewError("scan", err)
	}

	return nil
}

// SelectDocument retrieves a document by RID
func (h *DocumentsDBHandler) SelectDocument(rid uuid.UUID) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document($1)`,
		rid,
	)

	err := scanDocument(row, doc)
	if err != nil {
		return nil, notFoundOr("scan", err)
	}

	return doc, nil
}

// SelectDocumentByTitle retrieves a document by its unique title
func (h *DocumentsDBHandler) SelectDocumentByTitle(title string) (*model.Document, error) {
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_document_by_title($1)`,
		title,
	)

	err := scanDocument(row, doc)
	if err != nil {
		return nil, notFoundOr("scan", err)
	}

	return doc, nil
}

// SelectAllDocuments retrieves all documents, newest first
func (h *DocumentsDBHandler) SelectAllDocuments() ([]*model.Document, error) {
	rows, err := h.db.Instance.Query(`SELECT * FROM select_all_documents()`)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	documents := []*model.Document{}
	for rows.Next() {
		doc := &model.Document{}
		err := scanDocument(rows, doc)
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
	doc := &model.Document{}
	row := h.db.Instance.QueryRow(
		`SELECT * FROM update_document_active($1, $2)`,
		title,
		active,
	)

	err := scanDocument(row, doc)
	if err != nil {
		return nil, notFoundOr("scan", err)
	}

	return doc, nil
}

// UpdateDocumentTotalChunks recounts the chunk rows of a document and stores the count.
func (h *DocumentsDBHandler) UpdateDocumentTotalChunks(id int64) (int, error) {
	var total sql.NullInt64
	err := h.db.Instance.QueryRow(
		`SELECT update_document_total_chunks($1)`,
		id,
	).Scan(&total)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	if !total.Valid {
		return 0, helper.NewError("update total chunks", model.ErrDocumentNotFound)
	}

	return int(total.Int64), nil
}

// DeleteDocumentByTitle deletes a document together with its chunks
// and returns the number of deleted chunks.
func (h *DocumentsDBHandler) DeleteDocumentByTitle(title string) (int, error) {
	var deleted sql.NullInt64
	err := h.db.Instance.QueryRow(
		`SELECT delete_document_by_title($1)`,
		title,
	).Scan(&deleted)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}
	if !deleted.Valid {
		return 0, helper.NewError("delete document", fmt.Errorf("%w: %s", model.ErrDocumentNotFound, title))
	}

	return int(deleted.Int64), nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(row rowScanner, doc *model.Document) error {
	return row.Scan(
		&doc.ID,
		&doc.RID,
		&doc.Title,
		&doc.Description,
		&doc.SourceType,
		&doc.TotalChunks,
		&doc.Active,
		&doc.Metadata,
		&doc.CreatedAt,
		&doc.UpdatedAt,
	)
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}

// notFoundOr maps an empty result to model.ErrDocumentNotFound.
func notFoundOr(operation string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return helper.NewError(operation, model.ErrDocumentNotFound)
	}
	return helper.NewError(operation, err)
}
