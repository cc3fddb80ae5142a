package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/siherrmann/pagerag/helper"
	"github.com/siherrmann/pagerag/model"
)

// ChunkInserter persists the fragments of one chunk together.
type ChunkInserter interface {
	InsertChunks(chunks []*model.Chunk) error
}

// EmbedOptions are the per document parameters of adaptive embedding.
type EmbedOptions struct {
	SourceName      string
	Description     string
	PrependMetadata bool
	MaxSplitDepth   int
	SplitWindow     int
}

// NewEmbedOptions derives the embedding options of an ingest request.
func NewEmbedOptions(req *model.IngestRequest) EmbedOptions {
	return EmbedOptions{
		SourceName:      req.Title,
		Description:     req.Description,
		PrependMetadata: req.Config.PrependMetadata,
		MaxSplitDepth:   req.Config.MaxSplitDepth,
		SplitWindow:     req.Config.SplitWindow,
	}
}

// AdaptiveEmbedder embeds chunks and bisects those the provider rejects as too large.
type AdaptiveEmbedder struct {
	embed EmbedFunc
	log   *slog.Logger
}

func NewAdaptiveEmbedder(embed EmbedFunc, logger *slog.Logger) *AdaptiveEmbedder {
	return &AdaptiveEmbedder{
		embed: embed,
		log:   logger,
	}
}

type splitItem struct {
	chunk PageChunk
	depth int
}

// EmbedChunk embeds chunk, splitting it on size limit errors until every
// fragment fits or MaxSplitDepth is used up. Fragments are returned in
// text order. Nothing is returned on failure.
func (a *AdaptiveEmbedder) EmbedChunk(ctx context.Context, chunk PageChunk, opts EmbedOptions) ([]*model.Chunk, error) {
	var fragments []*model.Chunk

	// LIFO worklist; the second half is pushed first so the first half
	// and all its own splits complete before the second half starts.
	stack := []splitItem{{chunk: chunk, depth: opts.MaxSplitDepth}}
	for len(stack) > 0 {
		item := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		embedding, err := a.embed(ctx, embeddingText(item.chunk.Content, opts))
		if err == nil {
			fragments = append(fragments, &model.Chunk{
				Content:     item.chunk.Content,
				Embedding:   embedding,
				StartUnit:   item.chunk.StartUnit,
				EndUnit:     item.chunk.EndUnit,
				ChunkNumber: item.chunk.ChunkNumber,
				UnitName:    item.chunk.UnitName,
				SplitPart:   item.chunk.SplitPart,
			})
			continue
		}

		if !errors.Is(err, model.ErrSizeLimitExceeded) {
			return nil, helper.NewError("embed", err)
		}
		if item.depth <= 0 {
			return nil, fmt.Errorf("%w (pages %s): %v", model.ErrSplitExhausted, item.chunk.Pages(), err)
		}

		first, second := bisect(item.chunk.Content, opts.SplitWindow)
		if first == "" && second == "" {
			return nil, fmt.Errorf("%w (pages %s): no text left to split: %v", model.ErrSplitExhausted, item.chunk.Pages(), err)
		}
		a.log.Debug(
			"Splitting oversized chunk",
			slog.Int("chunk_number", item.chunk.ChunkNumber),
			slog.String("pages", item.chunk.Pages()),
			slog.Int("depth", item.depth),
			slog.Int("length", len(item.chunk.Content)),
		)

		if second != "" {
			stack = append(stack, splitItem{chunk: withSplit(item.chunk, second, "2/2"), depth: item.depth - 1})
		}
		if first != "" {
			stack = append(stack, splitItem{chunk: withSplit(item.chunk, first, "1/2"), depth: item.depth - 1})
		}
	}

	return fragments, nil
}

// ProcessChunk embeds chunk and stores its fragments under doc.
// It returns the ids of the stored fragments in text order.
func (a *AdaptiveEmbedder) ProcessChunk(ctx context.Context, store ChunkInserter, doc *model.Document, chunk PageChunk, opts EmbedOptions) ([]int, error) {
	fragments, err := a.EmbedChunk(ctx, chunk, opts)
	if err != nil {
		return nil, err
	}
	if len(fragments) == 0 {
		return nil, helper.NewError("embed", fmt.Errorf("chunk %d (pages %s) produced no fragments", chunk.ChunkNumber, chunk.Pages()))
	}

	for _, f := range fragments {
		f.DocumentID = doc.ID
		f.DocumentRID = doc.RID
	}

	err = store.InsertChunks(fragments)
	if err != nil {
		return nil, helper.NewError("insert chunks", err)
	}

	ids := make([]int, len(fragments))
	for i, f := range fragments {
		ids[i] = f.ID
	}
	return ids, nil
}

// ProcessChunks runs ProcessChunk for every chunk in order. A failing chunk
// is recorded and skipped; it never stops the remaining chunks.
func (a *AdaptiveEmbedder) ProcessChunks(ctx context.Context, store ChunkInserter, doc *model.Document, chunks []PageChunk, opts EmbedOptions) ([]model.ChunkSuccess, []model.ChunkFailure) {
	successes := []model.ChunkSuccess{}
	failures := []model.ChunkFailure{}

	for _, chunk := range chunks {
		ids, err := a.ProcessChunk(ctx, store, doc, chunk, opts)
		if err != nil {
			a.log.Error(
				"Failed to process chunk",
				slog.String("document", doc.Title),
				slog.Int("chunk_number", chunk.ChunkNumber),
				slog.String("pages", chunk.Pages()),
				slog.Any("error", err),
			)
			failures = append(failures, model.ChunkFailure{
				ChunkNumber: chunk.ChunkNumber,
				Pages:       chunk.Pages(),
				Error:       err.Error(),
			})
			continue
		}

		successes = append(successes, model.ChunkSuccess{
			ChunkNumber: chunk.ChunkNumber,
			Pages:       chunk.Pages(),
			ChunkIDs:    ids,
			Splits:      len(ids) - 1,
		})
	}

	return successes, failures
}

// embeddingText is the text sent to the provider. The prefix is never stored.
func embeddingText(content string, opts EmbedOptions) string {
	if !opts.PrependMetadata {
		return content
	}
	return fmt.Sprintf("%s\n%s\n\n%s", opts.SourceName, opts.Description, content)
}

func withSplit(parent PageChunk, content string, part string) PageChunk {
	child := parent
	child.Content = content
	child.SplitPart = &part
	return child
}
