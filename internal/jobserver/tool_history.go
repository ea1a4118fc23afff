package jobserver

import (
	"context"
	"errors"

	"github.com/anatolykoptev/go_captions/internal/engine/history"
	"github.com/anatolykoptev/go_captions/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// HistoryInput is the input for transcripts_history.
type HistoryInput struct {
	Limit int    `json:"limit,omitempty" jsonschema:"Max runs to return (default 20, max 100)"`
	RunID string `json:"run_id,omitempty" jsonschema:"Return per-video outcomes of this run instead of the run list"`
}

// HistoryOutput is the output for transcripts_history.
type HistoryOutput struct {
	Runs     []history.Run     `json:"runs,omitempty"`
	Outcomes []history.Outcome `json:"outcomes,omitempty"`
}

func registerHistory(server *mcp.Server, p *toolutil.Pipeline) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcripts_history",
		Description: "List recent extraction runs (SQLite ledger) with their counts, newest first. Pass run_id to get the per-video outcomes of one run.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input HistoryInput) (*mcp.CallToolResult, HistoryOutput, error) {
		if p.Ledger == nil {
			return nil, HistoryOutput{}, errors.New("run history is disabled (HISTORY_DB)")
		}
		if input.RunID != "" {
			outs, err := p.Ledger.Outcomes(ctx, input.RunID)
			if err != nil {
				return nil, HistoryOutput{}, err
			}
			return nil, HistoryOutput{Outcomes: outs}, nil
		}
		runs, err := p.Ledger.Recent(ctx, input.Limit)
		if err != nil {
			return nil, HistoryOutput{}, err
		}
		return nil, HistoryOutput{Runs: runs}, nil
	})
}
