package main

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/anatolykoptev/go_captions/internal/engine/history"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history [run-id]",
		Short: "Show recent extraction runs, or the outcomes of one run",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.ensurePipeline(cmd.Context())
			if err != nil {
				return err
			}
			if p.Ledger == nil {
				return errors.New("run history is disabled (set HISTORY_DB)")
			}
			out := cmd.OutOrStdout()
			if len(args) == 1 {
				outs, err := p.Ledger.Outcomes(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				fmt.Fprintln(out, renderOutcomes(outs))
				return nil
			}
			runs, err := p.Ledger.Recent(cmd.Context(), limit)
			if err != nil {
				return err
			}
			if len(runs) == 0 {
				fmt.Fprintln(out, "No runs recorded.")
				return nil
			}
			fmt.Fprintln(out, renderRuns(runs))
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to show")
	return cmd
}

func renderRuns(runs []history.Run) string {
	rows := make([][]string, 0, len(runs))
	for _, r := range runs {
		started := r.StartedAt
		if len(started) > 19 {
			started = started[:19]
		}
		state := "done"
		if r.Interrupted {
			state = "interrupted"
		}
		rows = append(rows, []string{
			r.ID,
			started,
			state,
			strconv.Itoa(r.Summary.Total),
			strconv.Itoa(r.Summary.Succeeded),
			strconv.Itoa(r.Summary.NoSubtitles),
			strconv.Itoa(r.Summary.Failed),
		})
	}
	return renderTable(
		[]string{"Run", "Started (UTC)", "State", "Total", "OK", "No subs", "Failed"},
		rows,
		[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight},
	)
}

func renderOutcomes(outs []history.Outcome) string {
	rows := make([][]string, 0, len(outs))
	for _, o := range outs {
		detail := o.Reason
		if o.Words > 0 {
			detail = strconv.Itoa(o.Words) + " words"
		}
		rows = append(rows, []string{
			strconv.Itoa(o.Index + 1),
			engine.TruncateRunes(o.Title, titleColumnRunes, "…"),
			o.Status,
			strconv.Itoa(o.Attempts),
			detail,
		})
	}
	return renderTable(
		[]string{"#", "Title", "Status", "Attempts", "Detail"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft},
	)
}
