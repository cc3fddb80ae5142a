package main

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/siherrmann/pagerag/model"
	"github.com/spf13/cobra"
)

type searchOptions struct {
	topK      int
	documents []string
	json      bool
}

func newSearchCmd(root *rootOptions) *cobra.Command {
	opts := &searchOptions{}

	cmd := &cobra.Command{
		Use:   "search [query]",
		Short: "Search the chunks of all active documents",
		Long: `Embeds the query and ranks the stored chunks by cosine similarity.
Use --doc to restrict the search to specific documents.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rids := make([]uuid.UUID, 0, len(opts.documents))
			for _, d := range opts.documents {
				rid, err := uuid.Parse(d)
				if err != nil {
					return fmt.Errorf("invalid document id %q: %w", d, err)
				}
				rids = append(rids, rid)
			}

			p, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			config := model.QueryConfig{TopK: opts.topK}
			var results []*model.SearchResult
			if len(rids) > 0 {
				results, err = p.SearchDocuments(cmd.Context(), args[0], rids, &config)
			} else {
				results, err = p.Search(cmd.Context(), args[0], &config)
			}
			if err != nil {
				return fmt.Errorf("search failed: %w", err)
			}

			if opts.json {
				return printJSON(cmd, results)
			}
			printSearchResults(cmd, results)
			return nil
		},
	}

	cmd.Flags().IntVarP(&opts.topK, "top-k", "k", model.DefaultQueryConfig().TopK, "maximum number of results")
	cmd.Flags().StringSliceVar(&opts.documents, "doc", nil, "restrict the search to these document ids")
	cmd.Flags().BoolVar(&opts.json, "json", false, "output results as JSON")

	return cmd
}

func printSearchResults(cmd *cobra.Command, results []*model.SearchResult) {
	if len(results) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	for i, r := range results {
		cmd.Printf("\n  [%d] %s, %ss %d-%d (%.4f)\n", i+1, r.Metadata.Title, r.Metadata.UnitName, r.Metadata.StartUnit, r.Metadata.EndUnit, r.Similarity)
		if r.Metadata.SplitPart != nil {
			cmd.Printf("      Part %s\n", *r.Metadata.SplitPart)
		}
		cmd.Printf("      %s\n", snippet(r.Content, 200))
	}
}

// snippet collapses whitespace and cuts content to at most limit characters.
func snippet(content string, limit int) string {
	runes := []rune(strings.Join(strings.Fields(content), " "))
	if len(runes) <= limit {
		return string(runes)
	}
	return string(runes[:limit]) + "..."
}
