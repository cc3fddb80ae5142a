package main

import (
	"context"

	"github.com/siherrmann/pagerag"
	"github.com/siherrmann/pagerag/core/pipeline"
	"github.com/siherrmann/pagerag/helper"
	"github.com/spf13/cobra"
)

// newEmbedder is replaced in tests.
var newEmbedder = pipeline.NewEmbedder

type rootOptions struct {
	sqlitePath string
	provider   string
	model      string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "pagerag",
		Short: "Page aware document ingestion and semantic search",
		Long: `Ingests PDF, EPUB and text documents page by page, embeds their chunks
and answers similarity queries over all active documents.

The database defaults to Postgres configured through DB_* environment variables.
Use --sqlite to work on a local database file instead.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.PersistentFlags().StringVar(&opts.sqlitePath, "sqlite", "", "path of a SQLite database file instead of Postgres")
	cmd.PersistentFlags().StringVar(&opts.provider, "provider", "", "embedding provider (openai, ollama, gemini or local)")
	cmd.PersistentFlags().StringVar(&opts.model, "model", "", "embedding model name")

	cmd.AddCommand(
		newIngestCmd(opts),
		newSearchCmd(opts),
		newListCmd(opts),
		newActivateCmd(opts, true),
		newActivateCmd(opts, false),
		newDeleteCmd(opts),
	)

	return cmd
}

// open connects to the configured database with the configured embedder.
// Flags override the EMBEDDER_* environment.
func (o *rootOptions) open(ctx context.Context) (*pagerag.Pagerag, error) {
	embedConfig, err := helper.NewEmbedderConfiguration()
	if err != nil {
		return nil, err
	}
	if o.provider != "" {
		embedConfig.Provider = o.provider
	}
	if o.model != "" {
		embedConfig.Model = o.model
	}

	embed, err := newEmbedder(ctx, embedConfig)
	if err != nil {
		return nil, helper.NewError("create embedder", err)
	}

	if o.sqlitePath != "" {
		return pagerag.NewPageragSQLite(o.sqlitePath, embed)
	}

	dbConfig, err := helper.NewDatabaseConfiguration()
	if err != nil {
		return nil, err
	}
	return pagerag.NewPagerag(dbConfig, embed)
}
