package jobserver

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"

	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/anatolykoptev/go_captions/internal/engine/extract"
	"github.com/anatolykoptev/go_captions/internal/toolutil"
)

func newSession(t *testing.T) *mcp.ClientSession {
	t.Helper()
	ctx := context.Background()
	dir := t.TempDir()
	p, err := toolutil.NewPipeline(ctx, &engine.Config{
		StorePath:   filepath.Join(dir, "youtube_urls.txt"),
		MaxAttempts: 1,
		CacheTTL:    time.Minute,
		HistoryPath: filepath.Join(dir, "history.db"),
	})
	require.NoError(t, err)
	t.Cleanup(p.Close)

	server := mcp.NewServer(&mcp.Implementation{Name: "go_captions", Version: "test"}, nil)
	RegisterTools(server, p)

	ct, st := mcp.NewInMemoryTransports()
	ss, err := server.Connect(ctx, st, nil)
	require.NoError(t, err)
	t.Cleanup(func() { ss.Close() }) //nolint:errcheck

	client := mcp.NewClient(&mcp.Implementation{Name: "test", Version: "test"}, nil)
	cs, err := client.Connect(ctx, ct, nil)
	require.NoError(t, err)
	t.Cleanup(func() { cs.Close() }) //nolint:errcheck
	return cs
}

func callTool(t *testing.T, cs *mcp.ClientSession, name string, args map[string]any, out any) *mcp.CallToolResult {
	t.Helper()
	res, err := cs.CallTool(context.Background(), &mcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err)
	if out != nil && !res.IsError {
		data, err := json.Marshal(res.StructuredContent)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(data, out))
	}
	return res
}

func TestToolsRegistered(t *testing.T) {
	cs := newSession(t)
	res, err := cs.ListTools(context.Background(), nil)
	require.NoError(t, err)
	require.Len(t, res.Tools, ToolCount)
}

func TestIngestThenList(t *testing.T) {
	cs := newSession(t)

	var ing toolutil.IngestResult
	res := callTool(t, cs, "transcripts_ingest", map[string]any{
		"items": []map[string]any{
			{"title": "Intro", "url": "https://youtu.be/abc123?t=5"},
			{"title": "Other", "url": "https://example.com/x"},
		},
	}, &ing)
	require.False(t, res.IsError)
	require.Equal(t, 1, ing.Added)
	require.Equal(t, []string{"https://example.com/x"}, ing.Rejected)

	var list ListOutput
	res = callTool(t, cs, "transcripts_list", map[string]any{"status": "pending"}, &list)
	require.False(t, res.IsError)
	require.Equal(t, 1, list.Total)
	require.Len(t, list.Records, 1)
	require.Equal(t, "https://www.youtube.com/watch?v=abc123", list.Records[0].URL)

	res = callTool(t, cs, "transcripts_list", map[string]any{"status": "success"}, &list)
	require.False(t, res.IsError)
	require.Empty(t, list.Records)
}

func TestClearRequiresConfirm(t *testing.T) {
	cs := newSession(t)
	res := callTool(t, cs, "transcripts_clear", map[string]any{"confirm": false}, nil)
	require.True(t, res.IsError)
}

func TestHistoryEmpty(t *testing.T) {
	cs := newSession(t)
	var out HistoryOutput
	res := callTool(t, cs, "transcripts_history", map[string]any{}, &out)
	require.False(t, res.IsError)
	require.Empty(t, out.Runs)
}

func TestSummaryLine(t *testing.T) {
	got := summaryLine(extract.Summary{Total: 5, Skipped: 1, Succeeded: 2, NoSubtitles: 1, Failed: 1})
	require.Equal(t, "total=5 skipped=1 succeeded=2 no_subtitles=1 failed=1", got)
}
