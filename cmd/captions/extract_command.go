package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

func newExtractCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "extract",
		Short: "Fetch transcripts for every record that lacks one",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			p, err := ctx.ensurePipeline(runCtx)
			if err != nil {
				return err
			}
			res, err := p.Extract(runCtx)
			interrupted := errors.Is(err, context.Canceled)
			if err != nil && !interrupted {
				return err
			}

			s := res.Summary
			out := cmd.OutOrStdout()
			rows := [][]string{
				{"Total", fmt.Sprint(s.Total)},
				{"Skipped", fmt.Sprint(s.Skipped)},
				{"Succeeded", fmt.Sprint(s.Succeeded)},
				{"No subtitles", fmt.Sprint(s.NoSubtitles)},
				{"Failed", fmt.Sprint(s.Failed)},
			}
			if p.Publisher != nil {
				rows = append(rows, []string{"Published", fmt.Sprint(res.Published)})
			}
			fmt.Fprintln(out, renderTable([]string{"Records", "Count"}, rows, []columnAlignment{alignLeft, alignRight}))
			if interrupted {
				fmt.Fprintln(out, "Interrupted: finished records were saved, the rest stay pending.")
				return err
			}
			return nil
		},
	}
}
