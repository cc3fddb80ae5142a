package pagerag

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// keywordEmbedder embeds text as the counts of "apple" and "banana".
// Texts longer than limit are rejected as oversized, texts containing
// "poison" fail with a provider error.
type keywordEmbedder struct {
	mu    sync.Mutex
	limit int
	calls int
}

func (k *keywordEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	k.mu.Lock()
	k.calls++
	k.mu.Unlock()

	if k.limit > 0 && len(text) > k.limit {
		return nil, model.NewSizeLimitError(fmt.Errorf("input of %d characters exceeds %d", len(text), k.limit))
	}
	if strings.Contains(text, "poison") {
		return nil, errors.New("provider unavailable")
	}
	return []float32{
		float32(strings.Count(text, "apple")),
		float32(strings.Count(text, "banana")),
		0.001,
	}, nil
}

func (k *keywordEmbedder) Calls() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return k.calls
}

func words(word string, n int) string {
	return strings.TrimSpace(strings.Repeat(word+" ", n))
}

func textRequest(title string, text string, wordsPerPage int, pagesPerChunk int) *model.IngestRequest {
	config := model.DefaultIngestConfig()
	config.WordsPerPage = wordsPerPage
	config.PagesPerChunk = pagesPerChunk
	return &model.IngestRequest{
		Title:       title,
		Description: "test description",
		SourceType:  model.SourceTypeText,
		Data:        []byte(text),
		Config:      config,
	}
}

func initSQLitePagerag(t *testing.T, embedder *keywordEmbedder) *Pagerag {
	p, err := NewPageragSQLite(filepath.Join(t.TempDir(), "pagerag.db"), embedder.Embed)
	require.NoError(t, err, "failed to create pagerag")
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func TestNewPagerag(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	t.Run("Valid call NewPagerag", func(t *testing.T) {
		p, err := NewPagerag(dbConfig, (&keywordEmbedder{}).Embed)
		require.NoError(t, err, "Expected NewPagerag to not return an error")
		require.NotNil(t, p)
		assert.NotNil(t, p.DB, "Expected pagerag to have a database instance")
		assert.NotNil(t, p.Documents, "Expected pagerag to have documents handler")
		assert.NotNil(t, p.Chunks, "Expected pagerag to have chunks handler")
		assert.NotNil(t, p.Engine, "Expected pagerag to have a retrieval engine")

		err = p.Close()
		assert.NoError(t, err, "Expected Close to not return an error")
	})

	t.Run("Missing stores or embedder are rejected", func(t *testing.T) {
		_, err := NewPageragWithStores(nil, nil, (&keywordEmbedder{}).Embed, nil)
		assert.Error(t, err)

		p := initSQLitePagerag(t, &keywordEmbedder{})
		_, err = NewPageragWithStores(p.Documents, p.Chunks, nil, nil)
		assert.Error(t, err)
	})

	t.Run("Pagerag without database handles Close gracefully", func(t *testing.T) {
		p := &Pagerag{}
		assert.NoError(t, p.Close())
	})
}

func TestIngestAndSearchPostgres(t *testing.T) {
	helper.SetTestDatabaseConfigEnvs(t, dbPort)
	dbConfig, err := helper.NewDatabaseConfiguration()
	require.NoError(t, err)

	embedder := &keywordEmbedder{}
	p, err := NewPagerag(dbConfig, embedder.Embed)
	require.NoError(t, err)
	defer p.Close()

	ctx := context.Background()
	result, err := p.Ingest(ctx, textRequest("Postgres Apples", words("apple", 650), 300, 1))
	require.NoError(t, err)
	defer p.Delete("Postgres Apples")

	t.Run("Ingest stores one chunk per page", func(t *testing.T) {
		assert.True(t, result.Success)
		assert.Equal(t, 3, result.TotalPages)
		assert.Equal(t, 3, result.TotalChunks)
		assert.Equal(t, 3, result.SuccessfulChunks)
		assert.Empty(t, result.Note)
	})

	t.Run("Search returns the stored chunks", func(t *testing.T) {
		results, err := p.SearchDocuments(ctx, "apple", []uuid.UUID{result.DocumentRID}, &model.QueryConfig{TopK: 2})
		require.NoError(t, err)
		require.Len(t, results, 2)
		assert.Equal(t, "Postgres Apples", results[0].Metadata.Title)
		assert.Equal(t, 3, results[0].Metadata.TotalChunks)
	})
}

func TestIngest(t *testing.T) {
	ctx := context.Background()

	t.Run("Ingest paginates and chunks plain text", func(t *testing.T) {
		p := initSQLitePagerag(t, &keywordEmbedder{})

		result, err := p.Ingest(ctx, textRequest("Apples", words("apple", 650), 300, 1))
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, "Apples", result.SourceName)
		assert.Equal(t, model.SourceTypeText, result.SourceType)
		assert.Equal(t, 3, result.TotalPages)
		assert.Equal(t, 3, result.TotalChunks)
		assert.Equal(t, 3, result.SuccessfulChunks)
		assert.Equal(t, 0, result.FailedCount)
		assert.Equal(t, "page", result.UnitName)
		require.Len(t, result.Processed, 3)
		assert.Equal(t, "3-3", result.Processed[2].Pages)

		doc, err := p.Documents.SelectDocument(result.DocumentRID)
		require.NoError(t, err)
		assert.Equal(t, 3, doc.TotalChunks)
		assert.Equal(t, 300, doc.Metadata.Int("words_per_page"))
		assert.Equal(t, 3, doc.Metadata.Int("total_pages"))

		chunks, err := p.Chunks.SelectChunksByDocument(result.DocumentRID)
		require.NoError(t, err)
		require.Len(t, chunks, 3)
		assert.Equal(t, words("apple", 50), chunks[2].Content, "Expected stored content without prefix")
	})

	t.Run("Ingest splits oversized chunks", func(t *testing.T) {
		embedder := &keywordEmbedder{limit: 200}
		p := initSQLitePagerag(t, embedder)

		req := textRequest("Split", words("apple", 60), 100, 1)
		req.Config.PrependMetadata = false
		req.Config.SplitWindow = 10

		result, err := p.Ingest(ctx, req)
		require.NoError(t, err)

		assert.True(t, result.Success)
		require.Len(t, result.Processed, 1)
		assert.Equal(t, 1, result.Processed[0].Splits)
		assert.Equal(t, 2, result.SuccessfulChunks)
		assert.Equal(t, "1 chunk(s) were automatically split due to size", result.Note)
		assert.Equal(t, 3, embedder.Calls())

		chunks, err := p.Chunks.SelectChunksByDocument(result.DocumentRID)
		require.NoError(t, err)
		require.Len(t, chunks, 2)
		assert.Equal(t, "1/2", *chunks[0].SplitPart)
		assert.Equal(t, "2/2", *chunks[1].SplitPart)
		assert.Equal(t, words("apple", 60), chunks[0].Content+" "+chunks[1].Content)
	})

	t.Run("Ingest isolates failing chunks", func(t *testing.T) {
		p := initSQLitePagerag(t, &keywordEmbedder{})

		text := words("apple", 5) + " " + words("poison", 5) + " " + words("apple", 5)
		result, err := p.Ingest(ctx, textRequest("Partial", text, 5, 1))
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, 3, result.TotalChunks)
		assert.Equal(t, 2, result.SuccessfulChunks)
		assert.Equal(t, 1, result.FailedCount)
		require.Len(t, result.Failed, 1)
		assert.Equal(t, 2, result.Failed[0].ChunkNumber)
		assert.Equal(t, "2-2", result.Failed[0].Pages)
		assert.Contains(t, result.Failed[0].Error, "provider unavailable")
		assert.Equal(t, "1 chunk(s) failed to process and were skipped", result.Note)

		doc, err := p.Documents.SelectDocument(result.DocumentRID)
		require.NoError(t, err)
		assert.Equal(t, 2, doc.TotalChunks, "Expected total chunks to match stored rows")
	})

	t.Run("Ingest records exhausted splits as chunk failure", func(t *testing.T) {
		p := initSQLitePagerag(t, &keywordEmbedder{limit: 10})

		req := textRequest("Exhausted", words("apple", 40), 100, 1)
		req.Config.MaxSplitDepth = 1

		result, err := p.Ingest(ctx, req)
		require.NoError(t, err)

		assert.True(t, result.Success)
		assert.Equal(t, 0, result.SuccessfulChunks)
		require.Len(t, result.Failed, 1)
		assert.Contains(t, result.Failed[0].Error, model.ErrSplitExhausted.Error())

		chunks, err := p.Chunks.SelectChunksByDocument(result.DocumentRID)
		require.NoError(t, err)
		assert.Empty(t, chunks, "Expected no orphan fragments")
	})

	t.Run("Ingest rejects a duplicate title", func(t *testing.T) {
		p := initSQLitePagerag(t, &keywordEmbedder{})

		_, err := p.Ingest(ctx, textRequest("Twice", words("apple", 10), 300, 3))
		require.NoError(t, err)

		result, err := p.Ingest(ctx, textRequest("Twice", words("apple", 10), 300, 3))
		assert.ErrorIs(t, err, model.ErrDuplicateTitle)
		require.NotNil(t, result)
		assert.False(t, result.Success)
		assert.NotEmpty(t, result.Error)

		documents, err := p.ListDocuments()
		require.NoError(t, err)
		assert.Len(t, documents, 1)
	})

	t.Run("Ingest fails on extraction errors before storing", func(t *testing.T) {
		embedder := &keywordEmbedder{}
		p := initSQLitePagerag(t, embedder)

		result, err := p.Ingest(ctx, textRequest("Blank", "   \n\t ", 300, 3))
		assert.ErrorIs(t, err, model.ErrEmpty)
		assert.False(t, result.Success)

		req := textRequest("Broken", "not a pdf", 300, 3)
		req.SourceType = model.SourceTypePDF
		_, err = p.Ingest(ctx, req)
		assert.ErrorIs(t, err, model.ErrCorrupt)

		documents, err := p.ListDocuments()
		require.NoError(t, err)
		assert.Empty(t, documents)
		assert.Equal(t, 0, embedder.Calls())
	})

	t.Run("Ingest detects the source type when missing", func(t *testing.T) {
		p := initSQLitePagerag(t, &keywordEmbedder{})

		req := textRequest("Detected", words("apple", 10), 300, 3)
		req.SourceType = ""

		result, err := p.Ingest(ctx, req)
		require.NoError(t, err)
		assert.Equal(t, model.SourceTypeText, result.SourceType)

		doc, err := p.Documents.SelectDocument(result.DocumentRID)
		require.NoError(t, err)
		assert.Contains(t, doc.Metadata["mime_type"], "text/plain")
	})

	t.Run("Ingest validates the request", func(t *testing.T) {
		p := initSQLitePagerag(t, &keywordEmbedder{})

		result, err := p.Ingest(ctx, textRequest("Invalid", words("apple", 10), 300, 11))
		assert.ErrorIs(t, err, model.ErrInvalidPagesPerChunk)
		assert.False(t, result.Success)

		result, err = p.Ingest(ctx, nil)
		assert.Error(t, err)
		require.NotNil(t, result)
		assert.False(t, result.Success)

		_, err = p.Ingest(ctx, textRequest("  ", words("apple", 10), 300, 3))
		assert.Error(t, err)
	})
}

func TestSearch(t *testing.T) {
	ctx := context.Background()
	embedder := &keywordEmbedder{}
	p := initSQLitePagerag(t, embedder)

	apples, err := p.Ingest(ctx, textRequest("Fruit A", words("apple", 20), 10, 1))
	require.NoError(t, err)
	bananas, err := p.Ingest(ctx, textRequest("Fruit B", words("banana", 20), 10, 1))
	require.NoError(t, err)

	t.Run("Search ranks the closest chunks first", func(t *testing.T) {
		results, err := p.Search(ctx, "apple", &model.QueryConfig{TopK: 3})
		require.NoError(t, err)
		require.Len(t, results, 3)
		assert.Equal(t, "Fruit A", results[0].Metadata.Title)
		assert.Equal(t, "Fruit A", results[1].Metadata.Title)
		assert.Equal(t, "Fruit B", results[2].Metadata.Title)
		assert.Greater(t, results[0].Similarity, results[2].Similarity)
	})

	t.Run("Search uses the default top k", func(t *testing.T) {
		results, err := p.Search(ctx, "banana", nil)
		require.NoError(t, err)
		assert.Len(t, results, 3)
	})

	t.Run("Search documents restricts to the allow-list", func(t *testing.T) {
		results, err := p.SearchDocuments(ctx, "apple", []uuid.UUID{bananas.DocumentRID}, nil)
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, bananas.DocumentRID, r.Metadata.DocumentRID)
		}
	})

	t.Run("Inactive documents are excluded", func(t *testing.T) {
		doc, err := p.ToggleActive("Fruit A", false)
		require.NoError(t, err)
		assert.False(t, doc.Active)

		results, err := p.Search(ctx, "apple", &model.QueryConfig{TopK: 10})
		require.NoError(t, err)
		require.Len(t, results, 2)
		for _, r := range results {
			assert.Equal(t, "Fruit B", r.Metadata.Title)
		}

		results, err = p.SearchDocuments(ctx, "apple", []uuid.UUID{apples.DocumentRID}, nil)
		require.NoError(t, err)
		assert.Empty(t, results)

		_, err = p.ToggleActive("Fruit A", true)
		require.NoError(t, err)
	})

	t.Run("Validation errors come before any embedding call", func(t *testing.T) {
		calls := embedder.Calls()

		_, err := p.Search(ctx, "   ", nil)
		assert.ErrorIs(t, err, model.ErrEmptyQuery)

		_, err = p.SearchDocuments(ctx, "apple", []uuid.UUID{}, nil)
		assert.ErrorIs(t, err, model.ErrEmptyDocumentIDList)

		_, err = p.Search(ctx, "apple", &model.QueryConfig{TopK: 0})
		assert.ErrorIs(t, err, model.ErrInvalidTopK)

		assert.Equal(t, calls, embedder.Calls())
	})
}

func TestDocumentLifecycle(t *testing.T) {
	ctx := context.Background()
	p := initSQLitePagerag(t, &keywordEmbedder{})

	result, err := p.Ingest(ctx, textRequest("Five Pages", words("apple", 50), 10, 1))
	require.NoError(t, err)
	require.Equal(t, 5, result.SuccessfulChunks)

	t.Run("List documents", func(t *testing.T) {
		documents, err := p.ListDocuments()
		require.NoError(t, err)
		require.Len(t, documents, 1)
		assert.Equal(t, "Five Pages", documents[0].Title)
		assert.Equal(t, 5, documents[0].TotalChunks)
	})

	t.Run("Toggle unknown document", func(t *testing.T) {
		_, err := p.ToggleActive("Unknown", false)
		assert.ErrorIs(t, err, model.ErrDocumentNotFound)
	})

	t.Run("Delete cascades to all chunks", func(t *testing.T) {
		deleted, err := p.Delete("Five Pages")
		require.NoError(t, err)
		assert.Equal(t, 5, deleted)

		chunks, err := p.Chunks.SelectChunksByDocument(result.DocumentRID)
		require.NoError(t, err)
		assert.Empty(t, chunks)
	})

	t.Run("Delete unknown document", func(t *testing.T) {
		_, err := p.Delete("Five Pages")
		assert.ErrorIs(t, err, model.ErrDocumentNotFound)
	})
}
