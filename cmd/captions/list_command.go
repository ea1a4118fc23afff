package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/anatolykoptev/go_captions/internal/engine"
)

const titleColumnRunes = 60

func newListCommand(ctx *commandContext) *cobra.Command {
	var status string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show stored records and their transcript status",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := ctx.ensurePipeline(cmd.Context())
			if err != nil {
				return err
			}
			views, err := p.List()
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(views))
			for _, v := range views {
				if status != "" && v.Status != status {
					continue
				}
				detail := v.Reason
				if v.Words > 0 {
					detail = strconv.Itoa(v.Words) + " words"
				}
				rows = append(rows, []string{
					strconv.Itoa(v.Index),
					engine.TruncateRunes(v.Title, titleColumnRunes, "…"),
					v.Status,
					detail,
					v.URL,
				})
			}
			out := cmd.OutOrStdout()
			if len(rows) == 0 {
				fmt.Fprintln(out, "No records.")
				return nil
			}
			fmt.Fprintln(out, renderTable(
				[]string{"#", "Title", "Status", "Detail", "URL"},
				rows,
				[]columnAlignment{alignRight, alignLeft, alignLeft, alignLeft, alignLeft},
			))
			return nil
		},
	}
	cmd.Flags().StringVar(&status, "status", "", "Only show records with this status (pending, success, no_subtitles, failed)")
	return cmd
}
