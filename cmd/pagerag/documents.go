package main

import (
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newListCmd(root *rootOptions) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List all documents, newest first",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			docs, err := p.ListDocuments()
			if err != nil {
				return err
			}
			if asJSON {
				return printJSON(cmd, docs)
			}

			if len(docs) == 0 {
				cmd.Println("No documents found.")
				return nil
			}
			for _, d := range docs {
				state := color.GreenString("active")
				if !d.Active {
					state = color.YellowString("inactive")
				}
				cmd.Printf("%s  %-4s %-8s %4d chunks  %s\n", d.RID, d.SourceType, state, d.TotalChunks, d.Title)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "output documents as JSON")

	return cmd
}

// newActivateCmd builds the activate or deactivate command.
func newActivateCmd(root *rootOptions, active bool) *cobra.Command {
	use, short := "activate [title]", "Include a document in search"
	if !active {
		use, short = "deactivate [title]", "Exclude a document from search"
	}

	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			doc, err := p.ToggleActive(args[0], active)
			if err != nil {
				return err
			}
			if doc.Active {
				cmd.Printf("Activated %s\n", doc.Title)
			} else {
				cmd.Printf("Deactivated %s\n", doc.Title)
			}
			return nil
		},
	}
}

func newDeleteCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "delete [title]",
		Short: "Delete a document and all of its chunks",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := root.open(cmd.Context())
			if err != nil {
				return err
			}
			defer p.Close()

			deleted, err := p.Delete(args[0])
			if err != nil {
				return err
			}
			cmd.Printf("Deleted %s (%d chunks)\n", args[0], deleted)
			return nil
		},
	}
}
