package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/siherrmann/pagerag/database"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
)

const chunkColumns = `c.id, c.document_id, d.rid, c.content, c.embedding, c.start_unit, c.end_unit,
	c.chunk_number, c.unit_name, c.split_part, c.created_at`

// ChunksDBHandler handles chunk-related operations on an embedded SQLite database.
type ChunksDBHandler struct {
	db *helper.Database
}

var _ database.ChunksDBHandlerFunctions = (*ChunksDBHandler)(nil)

// NewChunksDBHandler creates the schema if needed and returns the handler.
func NewChunksDBHandler(db *helper.Database) (*ChunksDBHandler, error) {
	err := CreateSchema(db)
	if err != nil {
		return nil, err
	}

	db.Logger.Info("Initialized ChunksDBHandler", "driver", db.Driver)

	return &ChunksDBHandler{db: db}, nil
}

// InsertChunks inserts all chunks in one transaction and fills their ids.
func (h *ChunksDBHandler) InsertChunks(chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.Prepare(
		`INSERT INTO chunks (document_id, content, embedding, start_unit, end_unit, chunk_number, unit_name, split_part, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
	)
	if err != nil {
		return helper.NewError("prepare", err)
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for _, chunk := range chunks {
		result, err := stmt.Exec(
			chunk.DocumentID,
			chunk.Content,
			float32SliceToBytes(chunk.Embedding),
			chunk.StartUnit,
			chunk.EndUnit,
			chunk.ChunkNumber,
			chunk.UnitName,
			nullableString(chunk.SplitPart),
			now,
		)
		if err != nil {
			return helper.NewError("insert", err)
		}

		id, err := result.LastInsertId()
		if err != nil {
			return helper.NewError("last insert id", err)
		}
		chunk.ID = int(id)
		chunk.CreatedAt = now
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectChunk retrieves a chunk by ID
func (h *ChunksDBHandler) SelectChunk(id int) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT `+chunkColumns+`
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE c.id = ?`,
		id,
	)

	chunk, err := scanChunk(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, helper.NewError("scan", fmt.Errorf("chunk %d not found: %w", id, err))
		}
		return nil, helper.NewError("scan", err)
	}

	return chunk, nil
}

// SelectChunksByDocument retrieves all chunks of a document in insertion order
func (h *ChunksDBHandler) SelectChunksByDocument(documentRID uuid.UUID) ([]*model.Chunk, error) {
	rows, err := h.db.Instance.Query(
		`SELECT `+chunkColumns+`
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE d.rid = ?
		ORDER BY c.id`,
		documentRID.String(),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	chunks := []*model.Chunk{}
	for rows.Next() {
		chunk, err := scanChunk(rows)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunks = append(chunks, chunk)
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return chunks, nil
}

// SelectCandidates retrieves the chunks of all active documents together with
// their document. A nil documentRIDs selects every active document, otherwise
// only the listed ones.
func (h *ChunksDBHandler) SelectCandidates(documentRIDs []uuid.UUID) ([]*model.Candidate, error) {
	query := `SELECT ` + chunkColumns + `, d.title, d.description, d.source_type, d.total_chunks
		FROM chunks c JOIN documents d ON d.id = c.document_id
		WHERE d.active = 1`
	args := []any{}
	if documentRIDs != nil {
		if len(documentRIDs) == 0 {
			return []*model.Candidate{}, nil
		}
		placeholders := make([]string, len(documentRIDs))
		for i, rid := range documentRIDs {
			placeholders[i] = "?"
			args = append(args, rid.String())
		}
		query += ` AND d.rid IN (` + strings.Join(placeholders, ", ") + `)`
	}
	query += ` ORDER BY c.id`

	rows, err := h.db.Instance.Query(query, args...)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	candidates := []*model.Candidate{}
	for rows.Next() {
		chunk := &model.Chunk{}
		doc := &model.Document{Active: true}
		var rid string
		var embedding []byte
		var sourceType string
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&rid,
			&chunk.Content,
			&embedding,
			&chunk.StartUnit,
			&chunk.EndUnit,
			&chunk.ChunkNumber,
			&chunk.UnitName,
			&chunk.SplitPart,
			&chunk.CreatedAt,
			&doc.Title,
			&doc.Description,
			&sourceType,
			&doc.TotalChunks,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.DocumentRID, err = uuid.Parse(rid)
		if err != nil {
			return nil, helper.NewError("parse rid", err)
		}
		chunk.Embedding = bytesToFloat32Slice(embedding)
		doc.ID = chunk.DocumentID
		doc.RID = chunk.DocumentRID
		doc.SourceType = model.SourceType(sourceType)

		candidates = append(candidates, &model.Candidate{Chunk: chunk, Document: doc})
	}

	if err = rows.Err(); err != nil {
		return nil, helper.NewError("rows error", err)
	}

	return candidates, nil
}

// CountChunksByDocument counts the stored chunk rows of a document
func (h *ChunksDBHandler) CountChunksByDocument(documentID int64) (int, error) {
	var count int
	err := h.db.Instance.QueryRow(
		`SELECT COUNT(*) FROM chunks WHERE document_id = ?`,
		documentID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}

func scanChunk(row rowScanner) (*model.Chunk, error) {
	chunk := &model.Chunk{}
	var rid string
	var embedding []byte
	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&rid,
		&chunk.Content,
		&embedding,
		&chunk.StartUnit,
		&chunk.EndUnit,
		&chunk.ChunkNumber,
		&chunk.UnitName,
		&chunk.SplitPart,
		&chunk.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	chunk.DocumentRID, err = uuid.Parse(rid)
	if err != nil {
		return nil, helper.NewError("parse rid", err)
	}
	chunk.Embedding = bytesToFloat32Slice(embedding)

	return chunk, nil
}

func nullableString(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}
