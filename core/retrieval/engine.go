package retrieval

import (
	"context"
	"log/slog"
	"math"
	"sort"

	"github.com/google/uuid"
	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
)

// CandidateSelector reads the chunks eligible for ranking: chunks of active
// documents, restricted to documentRIDs when it is non-nil.
type CandidateSelector interface {
	SelectCandidates(documentRIDs []uuid.UUID) ([]*model.Candidate, error)
}

// Engine ranks stored chunk embeddings against a query embedding by exact
// cosine similarity over the full candidate set.
type Engine struct {
	chunks CandidateSelector
	log    *slog.Logger
}

// NewEngine creates a new retrieval engine
func NewEngine(chunks CandidateSelector, logger *slog.Logger) *Engine {
	return &Engine{
		chunks: chunks,
		log:    logger,
	}
}

type scored struct {
	candidate  *model.Candidate
	similarity float64
}

// VectorRetrieve returns up to config.TopK candidates ordered by descending
// similarity. Ties keep the candidate order of the store. Candidates whose
// embedding length differs from the query are skipped; if that leaves
// nothing of a non-empty candidate set the call fails with
// model.ErrAllIncompatible.
func (e *Engine) VectorRetrieve(ctx context.Context, embedding []float32, documentRIDs []uuid.UUID, config *model.QueryConfig) ([]*model.SearchResult, error) {
	if config == nil {
		defaultConfig := model.DefaultQueryConfig()
		config = &defaultConfig
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if documentRIDs != nil && len(documentRIDs) == 0 {
		return nil, model.ErrEmptyDocumentIDList
	}

	candidates, err := e.chunks.SelectCandidates(documentRIDs)
	if err != nil {
		return nil, helper.NewError("select candidates", err)
	}
	if len(candidates) == 0 {
		return []*model.SearchResult{}, nil
	}

	ranked := make([]scored, 0, len(candidates))
	skipped := 0
	for _, c := range candidates {
		if len(c.Chunk.Embedding) != len(embedding) {
			skipped++
			e.log.Warn(
				"Skipping chunk with mismatched embedding dimension",
				slog.Int("chunk_id", c.Chunk.ID),
				slog.String("document", c.Document.Title),
				slog.Int("expected", len(embedding)),
				slog.Int("actual", len(c.Chunk.Embedding)),
			)
			continue
		}
		ranked = append(ranked, scored{candidate: c, similarity: cosineSimilarity(embedding, c.Chunk.Embedding)})
	}

	if len(ranked) == 0 {
		return nil, model.ErrAllIncompatible
	}
	if skipped > 0 {
		e.log.Info("Ranked with skipped candidates", slog.Int("ranked", len(ranked)), slog.Int("skipped", skipped))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].similarity > ranked[j].similarity
	})

	n := min(config.TopK, len(ranked))
	results := make([]*model.SearchResult, n)
	for i := 0; i < n; i++ {
		results[i] = model.NewSearchResult(ranked[i].candidate, ranked[i].similarity)
	}
	return results, nil
}

// cosineSimilarity of two equal length vectors; 0 if either has zero norm.
func cosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
