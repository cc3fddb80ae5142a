package pagerag

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/pagerag/core/extract"
	"github.com/siherrmann/pagerag/core/pipeline"
	"github.com/siherrmann/pagerag/core/retrieval"
	"github.com/siherrmann/pagerag/database"
	"github.com/siherrmann/pagerag/database/sqlite"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
	loadSql "github.com/siherrmann/pagerag/sql"
)

// Pagerag ingests documents page by page and answers similarity queries over their chunks.
type Pagerag struct {
	DB        *helper.Database
	Documents database.DocumentsDBHandlerFunctions
	Chunks    database.ChunksDBHandlerFunctions
	Pipeline  *pipeline.Pipeline
	Engine    *retrieval.Engine
	// Adaptive embedding of oversized chunks
	embedder *pipeline.AdaptiveEmbedder
	// Logging
	log *slog.Logger
}

// NewPagerag creates a Postgres backed instance with all handlers initialized.
func NewPagerag(config *helper.DatabaseConfiguration, embed pipeline.EmbedFunc) (*Pagerag, error) {
	logger := newLogger()

	db, err := helper.NewDatabase("pagerag", config, logger)
	if err != nil {
		return nil, helper.NewError("connect database", err)
	}
	err = loadSql.Init(db.Instance)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("initialize database extensions", err)
	}

	// Documents first, chunks reference them.
	documents, err := database.NewDocumentsDBHandler(db, false)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := database.NewChunksDBHandler(db, false)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create chunks handler", err)
	}

	p, err := NewPageragWithStores(documents, chunks, embed, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	p.DB = db

	return p, nil
}

// NewPageragSQLite creates an instance backed by an embedded SQLite file.
func NewPageragSQLite(path string, embed pipeline.EmbedFunc) (*Pagerag, error) {
	logger := newLogger()

	db, err := helper.NewSQLiteDatabase("pagerag", path, logger)
	if err != nil {
		return nil, helper.NewError("open database", err)
	}

	documents, err := sqlite.NewDocumentsDBHandler(db)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create documents handler", err)
	}

	chunks, err := sqlite.NewChunksDBHandler(db)
	if err != nil {
		_ = db.Close()
		return nil, helper.NewError("create chunks handler", err)
	}

	p, err := NewPageragWithStores(documents, chunks, embed, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	p.DB = db

	return p, nil
}

// NewPageragWithStores creates an instance on top of existing stores.
// A nil logger falls back to the pretty handler on stdout.
func NewPageragWithStores(documents database.DocumentsDBHandlerFunctions, chunks database.ChunksDBHandlerFunctions, embed pipeline.EmbedFunc, logger *slog.Logger) (*Pagerag, error) {
	if documents == nil || chunks == nil {
		return nil, helper.NewError("store validation", fmt.Errorf("documents and chunks stores are required"))
	}
	if embed == nil {
		return nil, helper.NewError("embedder validation", fmt.Errorf("embed function is nil"))
	}
	if logger == nil {
		logger = newLogger()
	}

	return &Pagerag{
		Documents: documents,
		Chunks:    chunks,
		Pipeline:  pipeline.NewPipeline(pipeline.DefaultChunker(), embed),
		Engine:    retrieval.NewEngine(chunks, logger),
		embedder:  pipeline.NewAdaptiveEmbedder(embed, logger),
		log:       logger,
	}, nil
}

func newLogger() *slog.Logger {
	opts := helper.PrettyHandlerOptions{
		SlogOpts: slog.HandlerOptions{
			Level: slog.LevelInfo,
		},
	}
	return slog.New(helper.NewPrettyHandler(os.Stdout, opts))
}

// Close closes the database connection
func (p *Pagerag) Close() error {
	return p.DB.Close()
}

// Ingest extracts, chunks, embeds and stores one document.
// The returned result is never nil. Document level failures (invalid request,
// extraction, duplicate title) set Success to false and are returned as error too.
// Failing chunks are recorded in the result and do not fail the document.
func (p *Pagerag) Ingest(ctx context.Context, req *model.IngestRequest) (*model.IngestResult, error) {
	result := &model.IngestResult{
		UnitName:  pipeline.DefaultUnitName,
		Processed: []model.ChunkSuccess{},
		Failed:    []model.ChunkFailure{},
	}
	if req == nil {
		return p.fail(result, helper.NewError("ingest validation", fmt.Errorf("ingest request is nil")))
	}
	result.SourceName = req.Title
	result.SourceType = req.SourceType
	result.PagesPerChunk = req.Config.PagesPerChunk

	if strings.TrimSpace(req.Title) == "" {
		return p.fail(result, helper.NewError("ingest validation", fmt.Errorf("title cannot be empty")))
	}
	err := req.Config.Validate()
	if err != nil {
		return p.fail(result, helper.NewError("ingest validation", err))
	}

	sourceType, mimeType, err := extract.DetectSourceType(req.Data, "")
	if req.SourceType != "" {
		sourceType = req.SourceType
	} else if err != nil {
		return p.fail(result, helper.NewError("detect source type", err))
	}
	result.SourceType = sourceType

	pages, err := extract.NewExtractor(req.Config.WordsPerPage).Extract(req.Data, sourceType)
	if err != nil {
		return p.fail(result, helper.NewError("extract", err))
	}
	result.TotalPages = len(pages)

	chunks, err := p.Pipeline.Chunker(pages, req.Config.PagesPerChunk, pipeline.DefaultUnitName)
	if err != nil {
		return p.fail(result, helper.NewError("chunk", err))
	}
	result.TotalChunks = len(chunks)

	metadata := model.Metadata{
		"mime_type":       mimeType,
		"total_pages":     len(pages),
		"pages_per_chunk": req.Config.PagesPerChunk,
		"unit_name":       pipeline.DefaultUnitName,
	}
	if !sourceType.Paged() {
		metadata["words_per_page"] = req.Config.WordsPerPage
	}
	doc := &model.Document{
		Title:       req.Title,
		Description: req.Description,
		SourceType:  sourceType,
		Metadata:    metadata,
	}
	err = p.Documents.InsertDocument(doc)
	if err != nil {
		return p.fail(result, helper.NewError("insert document", err))
	}
	result.DocumentRID = doc.RID

	p.log.Info(
		"Inserted document",
		slog.String("document_id", doc.RID.String()),
		slog.String("title", doc.Title),
		slog.Int("pages", len(pages)),
		slog.Int("chunks", len(chunks)),
	)

	result.Processed, result.Failed = p.embedder.ProcessChunks(ctx, p.Chunks, doc, chunks, pipeline.NewEmbedOptions(req))

	total, err := p.Documents.UpdateDocumentTotalChunks(doc.ID)
	if err != nil {
		return p.fail(result, helper.NewError("update total chunks", err))
	}

	result.Success = true
	result.Finalize()

	p.log.Info(
		"Ingested document",
		slog.String("title", doc.Title),
		slog.Int("stored_chunks", total),
		slog.Int("failed_chunks", result.FailedCount),
	)

	return result, nil
}

func (p *Pagerag) fail(result *model.IngestResult, err error) (*model.IngestResult, error) {
	result.Success = false
	result.Error = err.Error()
	result.Finalize()
	p.log.Error("Ingestion failed", slog.String("title", result.SourceName), slog.Any("error", err))
	return result, err
}

// Search ranks the chunks of all active documents against query.
func (p *Pagerag) Search(ctx context.Context, query string, config *model.QueryConfig) ([]*model.SearchResult, error) {
	return p.search(ctx, query, nil, config)
}

// SearchDocuments ranks the chunks of the listed active documents against query.
// At least one document RID is required.
func (p *Pagerag) SearchDocuments(ctx context.Context, query string, documentRIDs []uuid.UUID, config *model.QueryConfig) ([]*model.SearchResult, error) {
	if len(documentRIDs) == 0 {
		return nil, helper.NewError("document search", model.ErrEmptyDocumentIDList)
	}
	return p.search(ctx, query, documentRIDs, config)
}

func (p *Pagerag) search(ctx context.Context, query string, documentRIDs []uuid.UUID, config *model.QueryConfig) ([]*model.SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, helper.NewError("search", model.ErrEmptyQuery)
	}
	if config != nil {
		if err := config.Validate(); err != nil {
			return nil, helper.NewError("search", err)
		}
	}

	embedding, err := p.Pipeline.Embedder(ctx, query)
	if err != nil {
		return nil, helper.NewError("generate embedding", err)
	}

	return p.Engine.VectorRetrieve(ctx, embedding, documentRIDs, config)
}

// ListDocuments returns all documents, newest first
func (p *Pagerag) ListDocuments() ([]*model.Document, error) {
	return p.Documents.SelectAllDocuments()
}

// ToggleActive includes (active) or excludes a document from search.
func (p *Pagerag) ToggleActive(title string, active bool) (*model.Document, error) {
	doc, err := p.Documents.UpdateDocumentActive(title, active)
	if err != nil {
		return nil, helper.NewError("toggle active", err)
	}

	p.log.Info("Toggled document", slog.String("title", title), slog.Bool("active", active))

	return doc, nil
}

// Delete removes a document and all of its chunks and returns the number of deleted chunks.
func (p *Pagerag) Delete(title string) (int, error) {
	deleted, err := p.Documents.DeleteDocumentByTitle(title)
	if err != nil {
		return 0, helper.NewError("delete", err)
	}

	p.log.Info("Deleted document", slog.String("title", title), slog.Int("chunks", deleted))

	return deleted, nil
}
