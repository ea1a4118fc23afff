package jobserver

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_captions/internal/engine/extract"
	"github.com/anatolykoptev/go_captions/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ToolCount is the number of tools RegisterTools adds.
const ToolCount = 6

// RegisterTools registers the transcript tools on the given MCP server:
// transcripts_ingest, transcripts_extract, transcripts_list, transcripts_clear,
// transcripts_export, transcripts_history.
func RegisterTools(server *mcp.Server, p *toolutil.Pipeline) {
	registerIngest(server, p)
	registerExtract(server, p)
	registerList(server, p)
	registerClear(server, p)
	registerExport(server, p)
	registerHistory(server, p)
}

// IngestInput is the input for transcripts_ingest.
type IngestInput struct {
	Items []toolutil.IngestItem `json:"items" jsonschema:"Discovered videos as {title, url} pairs; youtu.be and youtube.com watch/playlist links are accepted"`
}

func registerIngest(server *mcp.Server, p *toolutil.Pipeline) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcripts_ingest",
		Description: "Merge discovered YouTube videos into the transcript store. Titles are cleaned, URLs canonicalized, non-YouTube links rejected. Existing entries are never overwritten; returns how many were added.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, toolutil.IngestResult, error) {
		if len(input.Items) == 0 {
			return nil, toolutil.IngestResult{}, errors.New("items is required")
		}
		res, err := p.Ingest(input.Items)
		if err != nil {
			return nil, toolutil.IngestResult{}, err
		}
		slog.Info("transcripts_ingest", slog.Int("added", res.Added), slog.Int("rejected", len(res.Rejected)))
		return nil, res, nil
	})
}

// ExtractInput is the input for transcripts_extract.
type ExtractInput struct{}

func registerExtract(server *mcp.Server, p *toolutil.Pipeline) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcripts_extract",
		Description: "Fetch transcripts for every stored video that lacks one (captions index first, watch page second, 3 attempts each). Entries with a transcript are skipped. Returns total/skipped/succeeded/no_subtitles/failed counts.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, _ ExtractInput) (*mcp.CallToolResult, toolutil.ExtractResult, error) {
		res, err := p.Extract(ctx)
		if err != nil && !errors.Is(err, context.Canceled) {
			return nil, toolutil.ExtractResult{}, err
		}
		slog.Info("transcripts_extract", slog.String("summary", summaryLine(res.Summary)), slog.Int("published", res.Published))
		return nil, res, nil
	})
}

// ListInput is the input for transcripts_list.
type ListInput struct {
	Status string `json:"status,omitempty" jsonschema:"Filter by status: pending, success, no_subtitles, failed"`
}

// ListOutput is the output for transcripts_list.
type ListOutput struct {
	Records []toolutil.RecordView `json:"records"`
	Total   int                   `json:"total"`
}

func registerList(server *mcp.Server, p *toolutil.Pipeline) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcripts_list",
		Description: "List stored videos with their transcript status and word count, in store order.",
		Annotations: &mcp.ToolAnnotations{ReadOnlyHint: true},
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ListInput) (*mcp.CallToolResult, ListOutput, error) {
		views, err := p.List()
		if err != nil {
			return nil, ListOutput{}, err
		}
		out := ListOutput{Records: views, Total: len(views)}
		if input.Status != "" {
			filtered := make([]toolutil.RecordView, 0, len(views))
			for _, v := range views {
				if v.Status == input.Status {
					filtered = append(filtered, v)
				}
			}
			out.Records = filtered
		}
		return nil, out, nil
	})
}

// ClearInput is the input for transcripts_clear.
type ClearInput struct {
	Confirm bool `json:"confirm" jsonschema:"Must be true; clearing removes every stored video and transcript"`
}

// MessageOutput is a plain acknowledgement.
type MessageOutput struct {
	Message string `json:"message"`
}

func registerClear(server *mcp.Server, p *toolutil.Pipeline) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcripts_clear",
		Description: "Remove every stored video and transcript. Requires confirm=true.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ClearInput) (*mcp.CallToolResult, MessageOutput, error) {
		if !input.Confirm {
			return nil, MessageOutput{}, errors.New("confirm must be true")
		}
		if err := p.Clear(); err != nil {
			return nil, MessageOutput{}, err
		}
		return nil, MessageOutput{Message: "store cleared: " + p.Store.Path()}, nil
	})
}

// ExportInput is the input for transcripts_export.
type ExportInput struct {
	Dir string `json:"dir,omitempty" jsonschema:"Parent directory for the youtubeRag/ hand-off folder (default: configured export dir)"`
}

// ExportOutput is the output for transcripts_export.
type ExportOutput struct {
	Path string `json:"path"`
}

func registerExport(server *mcp.Server, p *toolutil.Pipeline) {
	mcp.AddTool(server, &mcp.Tool{
		Name:        "transcripts_export",
		Description: "Write the transcript store document into <dir>/youtubeRag/ for the indexing pipeline. Returns the written path.",
	}, func(ctx context.Context, _ *mcp.CallToolRequest, input ExportInput) (*mcp.CallToolResult, ExportOutput, error) {
		path, err := p.Export(input.Dir)
		if err != nil {
			return nil, ExportOutput{}, fmt.Errorf("export: %w", err)
		}
		return nil, ExportOutput{Path: path}, nil
	})
}

// summaryLine renders a summary for log lines and CLI output.
func summaryLine(s extract.Summary) string {
	return fmt.Sprintf("total=%d skipped=%d succeeded=%d no_subtitles=%d failed=%d",
		s.Total, s.Skipped, s.Succeeded, s.NoSubtitles, s.Failed)
}
