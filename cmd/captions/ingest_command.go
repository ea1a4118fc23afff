package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_captions/internal/engine/records"
	"github.com/anatolykoptev/go_captions/internal/toolutil"
)

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var (
		title string
		from  string
	)
	cmd := &cobra.Command{
		Use:   "ingest [url...]",
		Short: "Merge discovered videos into the store",
		Long: `Merge discovered videos into the store.

Each positional argument is a video or playlist URL. --title labels a single
URL; --from merges every record of another store document. Existing entries
are never overwritten.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			items, err := ingestItems(args, title, from)
			if err != nil {
				return err
			}
			if len(items) == 0 {
				return fmt.Errorf("nothing to ingest: pass URLs or --from")
			}
			p, err := ctx.ensurePipeline(cmd.Context())
			if err != nil {
				return err
			}
			res, err := p.Ingest(items)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Added %d of %d to %s\n", res.Added, len(items), p.Store.Path())
			for _, u := range res.Rejected {
				fmt.Fprintf(out, "Rejected (not a YouTube video): %s\n", u)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&title, "title", "t", "", "Title for a single URL argument")
	cmd.Flags().StringVar(&from, "from", "", "Merge records from another store document")
	return cmd
}

func ingestItems(args []string, title, from string) ([]toolutil.IngestItem, error) {
	if title != "" && len(args) != 1 {
		return nil, fmt.Errorf("--title needs exactly one URL, got %d", len(args))
	}
	items := make([]toolutil.IngestItem, 0, len(args))
	for _, a := range args {
		a = strings.TrimSpace(a)
		if a == "" {
			continue
		}
		items = append(items, toolutil.IngestItem{Title: title, URL: a})
	}
	if from != "" {
		recs, err := records.NewStore(from).Load()
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", from, err)
		}
		for _, r := range recs {
			items = append(items, toolutil.IngestItem{Title: r.Title, URL: r.URL})
		}
	}
	return items, nil
}
