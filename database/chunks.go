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
	"github.com/pgvector/pgvector-go"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
	loadSql "github.com/siherrmann/pagerag/sql"
)

// ChunksDBHandlerFunctions defines the interface for Chunks database operations.
type ChunksDBHandlerFunctions interface {
	InsertChunks(chunks []*model.Chunk) error
	SelectChunk(id int) (*model.Chunk, error)
	SelectChunksByDocument(documentRID uuid.UUID) ([]*model.Chunk, error)
	SelectCandidates(documentRIDs []uuid.UUID) ([]*model.Candidate, error)
	CountChunksByDocument(documentID int64) (int, error)
}

// ChunksDBHandler handles chunk-related database operations
type ChunksDBHandler struct {
	db *helper.Database
}

// NewChunksDBHandler creates a new chunks database handler.
// The documents table has to exist, chunks reference it.
// If force is true, it will reload the SQL functions even if they already exist.
func NewChunksDBHandler(db *helper.Database, force bool) (*ChunksDBHandler, error) {
	if db == nil {
		return nil, helper.NewError("database connection validation", fmt.Errorf("database connection is nil"))
	}

	chunksDbHandler := &ChunksDBHandler{
		db: db,
	}

	err := loadSql.LoadChunksSql(chunksDbHandler.db.Instance, force)
	if err != nil {
		return nil, helper.NewError("load chunks sql", err)
	}

	err = chunksDbHandler.CreateTable()
	if err != nil {
		return nil, helper.NewError("create table", err)
	}

	db.Logger.Info("Initialized ChunksDBHandler")

	return chunksDbHandler, nil
}

// CreateTable creates the 'chunks' table in the database.
// If the table already exists, it does not create it again.
func (h *ChunksDBHandler) CreateTable() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	_, err := h.db.Instance.ExecContext(ctx, `SELECT init_chunks();`)
	if err != nil {
		log.Panicf("error initializing chunks table: %#v", err)
	}

	h.db.Logger.Info("Checked/created table chunks")

	return nil
}

// InsertChunks inserts all chunks in one transaction and fills their ids.
// Either every chunk is stored or none is.
func (h *ChunksDBHandler) InsertChunks(chunks []*model.Chunk) error {
	if len(chunks) == 0 {
		return nil
	}

	tx, err := h.db.Instance.Begin()
	if err != nil {
		return helper.NewError("begin", err)
	}
	defer tx.Rollback() //nolint:errcheck

	for _, chunk := range chunks {
		row := tx.QueryRow(
			`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6, $7, $8)`,
			chunk.DocumentID,
			chunk.Content,
			pgvector.NewVector(chunk.Embedding),
			chunk.StartUnit,
			chunk.EndUnit,
			chunk.ChunkNumber,
			chunk.UnitName,
			chunk.SplitPart,
		)

		err := row.Scan(&chunk.ID, &chunk.CreatedAt)
		if err != nil {
			return helper.NewError("scan", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return helper.NewError("commit", err)
	}

	return nil
}

// SelectChunk retrieves a chunk by ID
func (h *ChunksDBHandler) SelectChunk(id int) (*model.Chunk, error) {
	row := h.db.Instance.QueryRow(
		`SELECT * FROM select_chunk($1)`,
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
		`SELECT * FROM select_chunks_by_document($1)`,
		documentRID,
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
	var rids []string
	if documentRIDs != nil {
		rids = make([]string, 0, len(documentRIDs))
		for _, rid := range documentRIDs {
			rids = append(rids, rid.String())
		}
	}

	rows, err := h.db.Instance.Query(
		`SELECT * FROM select_candidates($1::uuid[])`,
		pq.Array(rids),
	)
	if err != nil {
		return nil, helper.NewError("query", err)
	}
	defer rows.Close()

	candidates := []*model.Candidate{}
	for rows.Next() {
		chunk := &model.Chunk{}
		doc := &model.Document{Active: true}
		var embedding pgvector.Vector
		err := rows.Scan(
			&chunk.ID,
			&chunk.DocumentID,
			&chunk.DocumentRID,
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
			&doc.SourceType,
			&doc.TotalChunks,
		)
		if err != nil {
			return nil, helper.NewError("scan", err)
		}
		chunk.Embedding = embedding.Slice()
		doc.ID = chunk.DocumentID
		doc.RID = chunk.DocumentRID

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
		`SELECT count_chunks_by_document($1)`,
		documentID,
	).Scan(&count)
	if err != nil {
		return 0, helper.NewError("scan", err)
	}

	return count, nil
}

func scanChunk(row rowScanner) (*model.Chunk, error) {
	chunk := &model.Chunk{}
	var embedding pgvector.Vector
	err := row.Scan(
		&chunk.ID,
		&chunk.DocumentID,
		&chunk.DocumentRID,
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
	chunk.Embedding = embedding.Slice()

	return chunk, nil
}
