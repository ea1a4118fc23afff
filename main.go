// go_captions: YouTube transcript collection MCP server.
//
// Exposes the transcript store tools: transcripts_ingest, transcripts_extract,
// transcripts_list, transcripts_clear, transcripts_export, transcripts_history.
// The same pipeline is available as a batch CLI in cmd/captions.
package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	"github.com/anatolykoptev/go-mcpserver"
	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/anatolykoptev/go_captions/internal/jobserver"
	"github.com/anatolykoptev/go_captions/internal/toolutil"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	version = "dev"
	mcpPort = env.Str("MCP_PORT", "8893")
)

func main() {
	engine.Init(toolutil.ConfigFromEnv())

	slog.Info("starting go_captions",
		slog.String("port", mcpPort),
		slog.String("store", engine.Cfg.StorePath),
	)

	pipeline, err := toolutil.NewPipeline(context.Background(), engine.Cfg)
	if err != nil {
		slog.Error("pipeline init failed", slog.Any("error", err))
		return
	}
	defer pipeline.Close()

	server := mcp.NewServer(&mcp.Implementation{
		Name:    "go_captions",
		Version: version,
	}, nil)

	jobserver.RegisterTools(server, pipeline)
	slog.Info("tools registered", slog.Int("count", jobserver.ToolCount))

	if err := mcpserver.Run(server, mcpserver.Config{
		Name:         "go_captions",
		Version:      version,
		Port:         mcpPort,
		WriteTimeout: 600 * time.Second,
		Metrics:      engine.FormatMetrics,
	}); err != nil {
		slog.Error("server failed", slog.Any("error", err))
	}
}
