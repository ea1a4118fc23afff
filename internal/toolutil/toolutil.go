// Package toolutil wires the engine configuration into a ready extraction
// pipeline shared by the MCP server and the CLI.
package toolutil

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/anatolykoptev/go-kit/env"
	stealth "github.com/anatolykoptev/go-stealth"
	"github.com/anatolykoptev/go-stealth/proxypool"

	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/anatolykoptev/go_captions/internal/engine/extract"
	"github.com/anatolykoptev/go_captions/internal/engine/history"
	"github.com/anatolykoptev/go_captions/internal/engine/publish"
	"github.com/anatolykoptev/go_captions/internal/engine/records"
	"github.com/anatolykoptev/go_captions/internal/engine/refs"
	"github.com/anatolykoptev/go_captions/internal/engine/sources"
)

// stealthTimeout is the browser client timeout in seconds.
const stealthTimeout = 15

// ConfigFromEnv reads the engine configuration from the environment.
func ConfigFromEnv() engine.Config {
	home, _ := os.UserHomeDir()
	return engine.Config{
		StorePath:            env.Str("CAPTIONS_STORE", "youtube_urls.txt"),
		ExportDir:            env.Str("CAPTIONS_EXPORT_DIR", ""),
		MaxAttempts:          env.Int("CAPTIONS_MAX_ATTEMPTS", 3),
		RetryDelay:           env.Duration("CAPTIONS_RETRY_DELAY", 2*time.Second),
		Languages:            env.List("CAPTIONS_LANGS", "en"),
		FetchTimeout:         env.Duration("FETCH_TIMEOUT", 15*time.Second),
		RequestsPerSecond:    env.Float("FETCH_RPS", 2),
		CacheTTL:             env.Duration("CACHE_TTL", 24*time.Hour),
		CacheMaxEntries:      env.Int("CACHE_MAX_ENTRIES", 1000),
		CacheCleanupInterval: env.Duration("CACHE_CLEANUP_INTERVAL", 300*time.Second),
		RedisURL:             env.Str("REDIS_URL", ""),
		HistoryPath:          env.Str("HISTORY_DB", filepath.Join(home, ".go_captions", "history.db")),
		DatabaseURL:          env.Str("DATABASE_URL", ""),
		Stealth:              env.Str("FETCH_STEALTH", "true") != "false",
		WebshareAPIKey:       env.Str("WEBSHARE_API_KEY", ""),
		HTTPClient: &http.Client{
			Timeout: env.Duration("FETCH_TIMEOUT", 15*time.Second),
			Transport: &http.Transport{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 4,
				IdleConnTimeout:     60 * time.Second,
			},
		},
	}
}

// Pipeline bundles everything one store needs: the store itself, the
// strategy chain, and the optional ledger, cache and publisher.
type Pipeline struct {
	Store     *records.Store
	Chain     *sources.Chain
	Cache     *engine.TranscriptCache
	Ledger    *history.Ledger    // nil = history disabled
	Publisher *publish.Publisher // nil = publishing disabled
	ExportDir string
	policy    extract.Policy
}

// NewPipeline builds a pipeline from c. Optional backends that fail to
// initialize are logged and disabled.
func NewPipeline(ctx context.Context, c *engine.Config) (*Pipeline, error) {
	if c.StorePath == "" {
		return nil, fmt.Errorf("store path is required")
	}

	client := engine.NewClient(c.HTTPClient, c.RequestsPerSecond, engine.DefaultRetryConfig)
	if c.Stealth {
		if bc := newBrowserClient(c.WebshareAPIKey); bc != nil {
			client.WithBrowser(bc)
		}
	}

	langs := make([]string, 0, len(c.Languages))
	for _, l := range c.Languages {
		if l = strings.TrimSpace(l); l != "" {
			langs = append(langs, l)
		}
	}
	if len(langs) == 0 {
		langs = []string{"en"}
	}

	p := &Pipeline{
		Store:     records.NewStore(c.StorePath),
		Cache:     engine.NewTranscriptCache(c.RedisURL, c.CacheTTL, c.CacheMaxEntries, c.CacheCleanupInterval),
		ExportDir: c.ExportDir,
		policy:    extract.Policy{MaxAttempts: c.MaxAttempts, Delay: c.RetryDelay},
	}
	p.Chain = sources.NewYouTubeChain(client, langs, p.Cache)

	if c.HistoryPath != "" {
		l, err := history.Open(c.HistoryPath)
		if err != nil {
			slog.Warn("history ledger disabled", slog.Any("error", err))
		} else {
			p.Ledger = l
		}
	}
	if c.DatabaseURL != "" {
		pub, err := publish.Connect(ctx, c.DatabaseURL)
		if err != nil {
			slog.Warn("postgres publisher disabled", slog.Any("error", err))
		} else {
			p.Publisher = pub
		}
	}
	return p, nil
}

// newBrowserClient creates the Chrome-fingerprinted client, with a Webshare
// proxy pool when apiKey is set. Returns nil if the client cannot be built.
func newBrowserClient(apiKey string) *engine.BrowserClient {
	var opts []stealth.ClientOption
	opts = append(opts, stealth.WithTimeout(stealthTimeout))

	if apiKey != "" {
		pool, err := proxypool.NewWebshare(apiKey)
		if err != nil {
			slog.Warn("proxy pool init failed, running without proxy", slog.Any("error", err))
		} else {
			opts = append(opts, stealth.WithProxyPool(pool))
			slog.Info("proxy pool initialized", slog.Int("proxies", pool.Len()))
		}
	}

	bc, err := stealth.NewClient(opts...)
	if err != nil {
		slog.Warn("stealth client init failed, using net/http", slog.Any("error", err))
		return nil
	}
	slog.Debug("stealth browser client initialized")
	return bc
}

// Close releases every backend.
func (p *Pipeline) Close() {
	if p.Cache != nil {
		p.Cache.Close() //nolint:errcheck
	}
	if p.Ledger != nil {
		p.Ledger.Close() //nolint:errcheck
	}
	if p.Publisher != nil {
		p.Publisher.Close()
	}
}

// Orchestrator returns an orchestrator over the pipeline's store and chain.
func (p *Pipeline) Orchestrator(opts ...extract.Option) *extract.Orchestrator {
	if p.Ledger != nil {
		opts = append([]extract.Option{extract.WithLedger(p.Ledger)}, opts...)
	}
	return extract.New(p.Store, p.Chain, p.policy, opts...)
}

// ExtractResult is the outcome of Extract.
type ExtractResult struct {
	Summary   extract.Summary `json:"summary"`
	Published int             `json:"published"`
}

// Extract requires the store to exist, runs the orchestrator and, when a
// publisher is configured, mirrors succeeded transcripts to Postgres.
// A publishing failure is logged; it never fails a completed run.
func (p *Pipeline) Extract(ctx context.Context) (ExtractResult, error) {
	if err := p.Store.Require(); err != nil {
		return ExtractResult{}, err
	}
	sum, err := p.Orchestrator().Run(ctx)
	res := ExtractResult{Summary: sum}
	if err != nil || p.Publisher == nil {
		return res, err
	}

	recs, err := p.Store.Load()
	if err != nil {
		return res, err
	}
	n, err := p.Publisher.Publish(ctx, recs)
	if err != nil {
		slog.Warn("publish transcripts", slog.Any("error", err))
	}
	res.Published = n
	return res, nil
}

// IngestItem is a discovered {title, url} pair.
type IngestItem struct {
	Title string `json:"title"`
	URL   string `json:"url"`
}

// IngestResult reports what Ingest did.
type IngestResult struct {
	Added    int      `json:"added"`
	Rejected []string `json:"rejected,omitempty"`
}

// Ingest cleans titles, canonicalizes URLs, drops anything that is not a
// YouTube watch or playlist reference and merges the rest into the store.
func (p *Pipeline) Ingest(items []IngestItem) (IngestResult, error) {
	var (
		res      IngestResult
		incoming []records.Record
	)
	for _, it := range items {
		u := refs.Canonicalize(it.URL)
		if !refs.IsVideoURL(u) {
			res.Rejected = append(res.Rejected, strings.TrimSpace(it.URL))
			continue
		}
		incoming = append(incoming, records.Record{Title: refs.CleanLabel(it.Title), URL: u})
	}
	if len(incoming) == 0 {
		return res, nil
	}

	unlock, err := p.Store.Lock()
	if err != nil {
		return res, err
	}
	defer unlock() //nolint:errcheck

	res.Added, err = p.Store.Ingest(incoming)
	return res, err
}

// Clear empties the store under the store lock.
func (p *Pipeline) Clear() error {
	unlock, err := p.Store.Lock()
	if err != nil {
		return err
	}
	defer unlock() //nolint:errcheck
	return p.Store.Clear()
}

// Export writes the store document into the hand-off directory. dir overrides
// the configured export directory; both empty means the store's own directory.
func (p *Pipeline) Export(dir string) (string, error) {
	if dir == "" {
		dir = p.ExportDir
	}
	if dir == "" {
		dir = filepath.Dir(p.Store.Path())
	}
	if err := p.Store.Require(); err != nil {
		return "", err
	}
	return p.Store.Export(dir)
}

// RecordView is a display row for one record.
type RecordView struct {
	Index  int    `json:"index"`
	Title  string `json:"title"`
	URL    string `json:"url"`
	Status string `json:"status"`
	Words  int    `json:"words,omitempty"`
	Reason string `json:"reason,omitempty"`
}

// List returns display rows for every record in store order.
func (p *Pipeline) List() ([]RecordView, error) {
	recs, err := p.Store.Load()
	if err != nil {
		return nil, err
	}
	views := make([]RecordView, 0, len(recs))
	for i, r := range recs {
		v := RecordView{Index: i + 1, Title: r.Title, URL: r.URL, Status: r.Transcript.Status().String()}
		switch r.Transcript.Status() {
		case records.StatusSuccess:
			v.Words = engine.WordCount(r.Transcript.Text())
		case records.StatusFailed:
			v.Reason = r.Transcript.Text()
		}
		views = append(views, v)
	}
	return views, nil
}
