package main

import (
	"encoding/json"
	"fmt"

	"github.com/siherrmann/pagerag/model"
	"github.com/spf13/cobra"
)

type ingestOptions struct {
	title         string
	description   string
	pagesPerChunk int
	wordsPerPage  int
	maxSplitDepth int
	noPrefix      bool
	json          bool
}

func newIngestCmd(root *rootOptions) *cobra.Command {
	opts := &ingestOptions{}
	defaults := model.DefaultIngestConfig()

	cmd := &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a PDF, EPUB or text file",
		Long: `Extracts the pages of a file, groups them into chunks and stores the
embedded chunks. Oversized chunks are split automatically. Chunks that still
fail are reported and skipped.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := model.NewIngestRequestFromFile(args[0], opts.description)
			if err != nil {
				return err
			}
			if opts.title != "" {
				req.Title = opts.title
			}
			req.Config.PagesPerChunk = opts.pagesPerChunk
			req.Config.WordsPerPage = opts.wordsPerPage
			req.Config.MaxSplitDepth = opts.maxSplitDepth
			req.Config.PrependMetadata = !opts.noPrefix

			p, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			result, err := p.Ingest(cmd.Context(), req)
			if result != nil {
				if opts.json {
					if jsonErr := printJSON(cmd, result); jsonErr != nil {
						return jsonErr
					}
				} else {
					printIngestResult(cmd, result)
				}
			}
			return err
		},
	}

	cmd.Flags().StringVar(&opts.title, "title", "", "document title (defaults to the file name)")
	cmd.Flags().StringVarP(&opts.description, "description", "d", "", "document description")
	cmd.Flags().IntVarP(&opts.pagesPerChunk, "pages-per-chunk", "p", defaults.PagesPerChunk, fmt.Sprintf("pages per chunk (%d-%d)", model.MinPagesPerChunk, model.MaxPagesPerChunk))
	cmd.Flags().IntVar(&opts.wordsPerPage, "words-per-page", defaults.WordsPerPage, "words per page of EPUB and text files")
	cmd.Flags().IntVar(&opts.maxSplitDepth, "max-split-depth", defaults.MaxSplitDepth, "how often an oversized chunk may be split")
	cmd.Flags().BoolVar(&opts.noPrefix, "no-prefix", false, "do not prepend the document title and description to the embedded text")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output the result as JSON")

	return cmd
}

func printIngestResult(cmd *cobra.Command, result *model.IngestResult) {
	if !result.Success {
		cmd.Printf("Failed to ingest %s: %s\n", result.SourceName, result.Error)
		return
	}

	cmd.Printf("Ingested %s (%s)\n", result.SourceName, result.SourceType)
	cmd.Printf("  Document: %s\n", result.DocumentRID)
	cmd.Printf("  %ss: %d, chunks: %d, stored: %d, failed: %d\n",
		result.UnitName, result.TotalPages, result.TotalChunks, result.SuccessfulChunks, result.FailedCount)
	for _, f := range result.Failed {
		cmd.Printf("  Chunk %d (%ss %s) skipped: %s\n", f.ChunkNumber, result.UnitName, f.Pages, f.Error)
	}
	if result.Note != "" {
		cmd.Printf("  Note: %s\n", result.Note)
	}
}

func printJSON(cmd *cobra.Command, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal output: %w", err)
	}
	cmd.Println(string(data))
	return nil
}
