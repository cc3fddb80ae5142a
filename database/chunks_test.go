package database

import (
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestChunk(doc *model.Document, chunkNumber int, embedding []float32) *model.Chunk {
	return &model.Chunk{
		DocumentID:  doc.ID,
		DocumentRID: doc.RID,
		Content:     "chunk content",
		Embedding:   embedding,
		StartUnit:   chunkNumber,
		EndUnit:     chunkNumber,
		ChunkNumber: chunkNumber,
		UnitName:    "page",
	}
}

func TestChunksNewChunksDBHandler(t *testing.T) {
	database := initDB(t)

	t.Run("Valid call NewChunksDBHandler", func(t *testing.T) {
		_, err := NewDocumentsDBHandler(database, true)
		require.NoError(t, err)

		chunksDbHandler, err := NewChunksDBHandler(database, true)
		assert.NoError(t, err, "Expected NewChunksDBHandler to not return an error")
		require.NotNil(t, chunksDbHandler, "Expected NewChunksDBHandler to return a non-nil instance")
		require.NotNil(t, chunksDbHandler.db.Instance, "Expected NewChunksDBHandler to have a non-nil database connection instance")
	})

	t.Run("Invalid call NewChunksDBHandler with nil database", func(t *testing.T) {
		_, err := NewChunksDBHandler(nil, false)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "database connection is nil")
	})
}

func TestChunksInsertAndSelect(t *testing.T) {
	documentsDbHandler, chunksDbHandler := initHandlers(t)

	doc := newTestDocument("Chunked Document")
	require.NoError(t, documentsDbHandler.InsertDocument(doc))
	defer documentsDbHandler.DeleteDocumentByTitle(doc.Title)

	first := newTestChunk(doc, 1, []float32{0.1, 0.2, 0.3})
	part := "1/2"
	first.SplitPart = &part
	second := newTestChunk(doc, 1, []float32{0.4, 0.5})
	otherPart := "2/2"
	second.SplitPart = &otherPart
	third := newTestChunk(doc, 2, []float32{1, 0, 0})

	t.Run("Insert chunks fills ids", func(t *testing.T) {
		err := chunksDbHandler.InsertChunks([]*model.Chunk{first, second, third})
		require.NoError(t, err)

		assert.NotZero(t, first.ID)
		assert.Greater(t, second.ID, first.ID, "Expected ids in insertion order")
		assert.Greater(t, third.ID, second.ID, "Expected ids in insertion order")
		assert.False(t, first.CreatedAt.IsZero())
	})

	t.Run("Insert no chunks is a no-op", func(t *testing.T) {
		err := chunksDbHandler.InsertChunks(nil)
		assert.NoError(t, err)
	})

	t.Run("Select chunk keeps embedding and split part", func(t *testing.T) {
		chunk, err := chunksDbHandler.SelectChunk(first.ID)
		require.NoError(t, err)
		assert.Equal(t, doc.RID, chunk.DocumentRID)
		assert.Equal(t, []float32{0.1, 0.2, 0.3}, chunk.Embedding)
		require.NotNil(t, chunk.SplitPart)
		assert.Equal(t, "1/2", *chunk.SplitPart)

		chunk, err = chunksDbHandler.SelectChunk(third.ID)
		require.NoError(t, err)
		assert.Nil(t, chunk.SplitPart, "Expected unsplit chunks to have no split part")
	})

	t.Run("Select unknown chunk", func(t *testing.T) {
		_, err := chunksDbHandler.SelectChunk(-1)
		assert.Error(t, err)
	})

	t.Run("Select chunks by document in insertion order", func(t *testing.T) {
		chunks, err := chunksDbHandler.SelectChunksByDocument(doc.RID)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, []int{first.ID, second.ID, third.ID}, []int{chunks[0].ID, chunks[1].ID, chunks[2].ID})
	})

	t.Run("Count chunks by document", func(t *testing.T) {
		count, err := chunksDbHandler.CountChunksByDocument(doc.ID)
		require.NoError(t, err)
		assert.Equal(t, 3, count)
	})
}

func TestChunksInsertIsAtomic(t *testing.T) {
	documentsDbHandler, chunksDbHandler := initHandlers(t)

	doc := newTestDocument("Atomic Document")
	require.NoError(t, documentsDbHandler.InsertDocument(doc))
	defer documentsDbHandler.DeleteDocumentByTitle(doc.Title)

	t.Run("Failing chunk rolls back the whole batch", func(t *testing.T) {
		valid := newTestChunk(doc, 1, []float32{1, 2})
		orphan := newTestChunk(doc, 2, []float32{1, 2})
		orphan.DocumentID = -1

		err := chunksDbHandler.InsertChunks([]*model.Chunk{valid, orphan})
		assert.Error(t, err, "Expected foreign key violation")

		count, err := chunksDbHandler.CountChunksByDocument(doc.ID)
		require.NoError(t, err)
		assert.Equal(t, 0, count, "Expected no chunk to be stored")
	})
}

func TestChunksSelectCandidates(t *testing.T) {
	documentsDbHandler, chunksDbHandler := initHandlers(t)

	active := newTestDocument("Candidate Active")
	require.NoError(t, documentsDbHandler.InsertDocument(active))
	defer documentsDbHandler.DeleteDocumentByTitle(active.Title)
	other := newTestDocument("Candidate Other")
	require.NoError(t, documentsDbHandler.InsertDocument(other))
	defer documentsDbHandler.DeleteDocumentByTitle(other.Title)
	inactive := newTestDocument("Candidate Inactive")
	require.NoError(t, documentsDbHandler.InsertDocument(inactive))
	defer documentsDbHandler.DeleteDocumentByTitle(inactive.Title)

	require.NoError(t, chunksDbHandler.InsertChunks([]*model.Chunk{
		newTestChunk(active, 1, []float32{1, 0}),
		newTestChunk(active, 2, []float32{0, 1, 0}),
	}))
	require.NoError(t, chunksDbHandler.InsertChunks([]*model.Chunk{newTestChunk(other, 1, []float32{1, 1})}))
	require.NoError(t, chunksDbHandler.InsertChunks([]*model.Chunk{newTestChunk(inactive, 1, []float32{1, 1})}))
	_, err := documentsDbHandler.UpdateDocumentActive(inactive.Title, false)
	require.NoError(t, err)

	candidatesOf := func(candidates []*model.Candidate, rids ...uuid.UUID) []*model.Candidate {
		var filtered []*model.Candidate
		for _, c := range candidates {
			for _, rid := range rids {
				if c.Document.RID == rid {
					filtered = append(filtered, c)
				}
			}
		}
		return filtered
	}

	t.Run("Select candidates of all active documents", func(t *testing.T) {
		candidates, err := chunksDbHandler.SelectCandidates(nil)
		require.NoError(t, err)

		assert.Len(t, candidatesOf(candidates, active.RID), 2)
		assert.Len(t, candidatesOf(candidates, other.RID), 1)
		assert.Empty(t, candidatesOf(candidates, inactive.RID), "Expected inactive documents to be filtered")
	})

	t.Run("Select candidates restricted to allow-list", func(t *testing.T) {
		candidates, err := chunksDbHandler.SelectCandidates([]uuid.UUID{other.RID, inactive.RID})
		require.NoError(t, err)
		require.Len(t, candidates, 1)

		candidate := candidates[0]
		assert.Equal(t, other.RID, candidate.Document.RID)
		assert.Equal(t, other.Title, candidate.Document.Title)
		assert.Equal(t, model.SourceTypeText, candidate.Document.SourceType)
		assert.Equal(t, []float32{1, 1}, candidate.Chunk.Embedding)
	})

	t.Run("Candidates keep mixed dimensions in id order", func(t *testing.T) {
		candidates, err := chunksDbHandler.SelectCandidates([]uuid.UUID{active.RID})
		require.NoError(t, err)
		require.Len(t, candidates, 2)
		assert.Less(t, candidates[0].Chunk.ID, candidates[1].Chunk.ID)
		assert.Len(t, candidates[0].Chunk.Embedding, 2)
		assert.Len(t, candidates[1].Chunk.Embedding, 3)
	})
}

func TestChunksErrorMapping(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	chunksDbHandler := &ChunksDBHandler{
		db: &helper.Database{Name: "mock", Driver: "postgres", Instance: db, Logger: testLogger()},
	}

	t.Run("Begin error is wrapped", func(t *testing.T) {
		mock.ExpectBegin().WillReturnError(assert.AnError)

		err := chunksDbHandler.InsertChunks([]*model.Chunk{{Embedding: []float32{1}}})
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "begin")
	})

	t.Run("Insert error rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM insert_chunk($1, $2, $3, $4, $5, $6, $7, $8)`)).
			WillReturnError(assert.AnError)
		mock.ExpectRollback()

		err := chunksDbHandler.InsertChunks([]*model.Chunk{{Embedding: []float32{1}, UnitName: "page"}})
		assert.ErrorIs(t, err, assert.AnError)
	})

	t.Run("Candidate query error is wrapped", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM select_candidates($1::uuid[])`)).
			WillReturnError(assert.AnError)

		_, err := chunksDbHandler.SelectCandidates(nil)
		assert.ErrorIs(t, err, assert.AnError)
		assert.Contains(t, err.Error(), "query")
	})

	assert.NoError(t, mock.ExpectationsWereMet())
}
