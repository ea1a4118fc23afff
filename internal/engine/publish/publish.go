// Package publish mirrors succeeded transcripts into Postgres for the indexing side.
package publish

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/anatolykoptev/go_captions/internal/engine/records"
	"github.com/anatolykoptev/go_captions/internal/engine/refs"
)

//go:embed schema/*.sql
var schemaFS embed.FS

const upsertSQL = `INSERT INTO transcripts (url, video_id, title, transcript, words, updated_at)
VALUES ($1, $2, $3, $4, $5, now())
ON CONFLICT (url) DO UPDATE SET
    video_id = EXCLUDED.video_id,
    title = EXCLUDED.title,
    transcript = EXCLUDED.transcript,
    words = EXCLUDED.words,
    updated_at = now()`

// Row is one transcript as written to Postgres.
type Row struct {
	URL        string
	VideoID    string
	Title      string
	Transcript string
	Words      int
}

// Publisher holds the pgx pool.
type Publisher struct {
	pool *pgxpool.Pool
}

// Connect creates a pgx pool and applies the embedded schema.
func Connect(ctx context.Context, databaseURL string) (*Publisher, error) {
	if databaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse DATABASE_URL: %w", err)
	}
	config.MaxConns = 4
	config.MinConns = 1

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create pgx pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}

	p := &Publisher{pool: pool}
	if err := p.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	slog.Info("publish: postgres connected", slog.String("addr", config.ConnConfig.Host))
	return p, nil
}

func (p *Publisher) Close() {
	p.pool.Close()
}

func (p *Publisher) runMigrations(ctx context.Context) error {
	entries, err := schemaFS.ReadDir("schema")
	if err != nil {
		return fmt.Errorf("read schema dir: %w", err)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Name() < entries[j].Name()
	})
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".sql") {
			continue
		}
		data, err := schemaFS.ReadFile("schema/" + entry.Name())
		if err != nil {
			return fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		if _, err := p.pool.Exec(ctx, string(data)); err != nil {
			return fmt.Errorf("execute %s: %w", entry.Name(), err)
		}
	}
	return nil
}

// Rows selects the records holding a real transcript and keys them by canonical URL.
// Later duplicates of the same canonical URL are dropped.
func Rows(recs []records.Record) []Row {
	seen := make(map[string]bool, len(recs))
	var rows []Row
	for _, r := range recs {
		if !r.Transcript.Valid() {
			continue
		}
		key := refs.DedupKey(r.URL)
		if seen[key] {
			continue
		}
		seen[key] = true
		rows = append(rows, Row{
			URL:        key,
			VideoID:    refs.ExtractID(r.URL),
			Title:      r.Title,
			Transcript: r.Transcript.Text(),
			Words:      engine.WordCount(r.Transcript.Text()),
		})
	}
	return rows
}

// Publish upserts every succeeded record in one batch and returns the row count.
func (p *Publisher) Publish(ctx context.Context, recs []records.Record) (int, error) {
	rows := Rows(recs)
	if len(rows) == 0 {
		return 0, nil
	}

	batch := &pgx.Batch{}
	for _, r := range rows {
		batch.Queue(upsertSQL, r.URL, r.VideoID, r.Title, r.Transcript, r.Words)
	}
	br := p.pool.SendBatch(ctx, batch)
	defer br.Close()

	for i := range rows {
		if _, err := br.Exec(); err != nil {
			return i, fmt.Errorf("upsert %s: %w", rows[i].URL, err)
		}
	}
	slog.Info("publish: transcripts upserted", slog.Int("count", len(rows)))
	return len(rows), nil
}
