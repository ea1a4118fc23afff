// Package extract drives transcript retrieval over every record in a store:
// a bounded retry loop per record, outcome classification and one save per run.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/anatolykoptev/go_captions/internal/engine"
	"github.com/anatolykoptev/go_captions/internal/engine/records"
	"github.com/anatolykoptev/go_captions/internal/engine/refs"
)

var (
	// ErrInvalidIdentifier means no video ID could be derived from a record's URL.
	ErrInvalidIdentifier = errors.New("invalid identifier")
	// ErrMissingURL means the record has no URL at all.
	ErrMissingURL = errors.New("missing url")
)

const logTitleRunes = 70

// Fetcher runs one attempt of the strategy chain. A miss is ("", nil);
// a fault is ("", err).
type Fetcher interface {
	Fetch(ctx context.Context, videoID string) (string, error)
}

// Ledger persists a finished run. Optional.
type Ledger interface {
	RecordRun(ctx context.Context, r Report) error
}

// Policy bounds the per-record retry loop.
type Policy struct {
	MaxAttempts int
	Delay       time.Duration
}

// DefaultPolicy is three attempts two seconds apart.
func DefaultPolicy() Policy {
	return Policy{MaxAttempts: 3, Delay: 2 * time.Second}
}

// Summary holds aggregate counts for one run.
type Summary struct {
	Total       int `json:"total"`
	Skipped     int `json:"skipped"`
	Succeeded   int `json:"succeeded"`
	NoSubtitles int `json:"no_subtitles"`
	Failed      int `json:"failed"`
}

// Outcome describes what happened to one record during a run.
type Outcome struct {
	Index    int            `json:"index"`
	Title    string         `json:"title"`
	URL      string         `json:"url"`
	Status   records.Status `json:"-"`
	Skipped  bool           `json:"skipped"`
	Attempts int            `json:"attempts"`
	Words    int            `json:"words,omitempty"`
	Reason   string         `json:"reason,omitempty"`
}

// Report is the full account of a run, handed to the Ledger.
type Report struct {
	StorePath   string    `json:"store"`
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	Interrupted bool      `json:"interrupted"`
	Summary     Summary   `json:"summary"`
	Outcomes    []Outcome `json:"outcomes"`
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch {
	case o.Skipped:
		r.Summary.Skipped++
		engine.IncrRecordSkipped()
	case o.Status == records.StatusSuccess:
		r.Summary.Succeeded++
		engine.IncrRecordSucceeded()
	case o.Status == records.StatusNoContent:
		r.Summary.NoSubtitles++
		engine.IncrRecordNoSubs()
	default:
		r.Summary.Failed++
		engine.IncrRecordFailed()
	}
}

// Orchestrator owns the record sequence of a store for the duration of a run.
type Orchestrator struct {
	store   *records.Store
	fetcher Fetcher
	policy  Policy
	ledger  Ledger
	sleep   func(time.Duration)
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithLedger records every finished run in l.
func WithLedger(l Ledger) Option {
	return func(o *Orchestrator) { o.ledger = l }
}

// WithSleep replaces the inter-attempt wait (time.Sleep by default).
func WithSleep(fn func(time.Duration)) Option {
	return func(o *Orchestrator) { o.sleep = fn }
}

// New builds an Orchestrator. A policy with MaxAttempts < 1 is treated as one attempt.
func New(store *records.Store, fetcher Fetcher, policy Policy, opts ...Option) *Orchestrator {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	if policy.Delay < 0 {
		policy.Delay = 0
	}
	o := &Orchestrator{
		store:   store,
		fetcher: fetcher,
		policy:  policy,
		sleep:   time.Sleep,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Run processes every record in store order and saves the sequence once.
// Cancellation of ctx is honored between records only: the record in flight
// completes, later records are left untouched, and the partial result is saved
// before ctx.Err() is returned. Only store I/O errors abort the run.
func (o *Orchestrator) Run(ctx context.Context) (Summary, error) {
	unlock, err := o.store.Lock()
	if err != nil {
		return Summary{}, err
	}
	defer func() {
		if err := unlock(); err != nil {
			slog.Warn("extract: unlock store", slog.Any("error", err))
		}
	}()

	recs, err := o.store.Load()
	if err != nil {
		return Summary{}, err
	}
	if len(recs) == 0 {
		slog.Info("extract: store is empty", slog.String("store", o.store.Path()))
		return Summary{}, nil
	}

	engine.IncrExtractRuns()
	report := Report{StorePath: o.store.Path(), StartedAt: time.Now()}
	report.Summary.Total = len(recs)

	var runErr error
	for i := range recs {
		if err := ctx.Err(); err != nil {
			runErr = err
			report.Interrupted = true
			slog.Warn("extract: interrupted", slog.Int("processed", i), slog.Int("total", len(recs)))
			break
		}
		report.add(o.process(ctx, i, len(recs), &recs[i]))
	}

	if err := o.store.Save(recs); err != nil {
		return report.Summary, fmt.Errorf("save store: %w", err)
	}
	report.FinishedAt = time.Now()

	s := report.Summary
	slog.Info("extract: done",
		slog.Int("total", s.Total),
		slog.Int("skipped", s.Skipped),
		slog.Int("succeeded", s.Succeeded),
		slog.Int("no_subtitles", s.NoSubtitles),
		slog.Int("failed", s.Failed),
		slog.Duration("elapsed", report.FinishedAt.Sub(report.StartedAt).Round(time.Millisecond)),
	)

	if o.ledger != nil {
		if err := o.ledger.RecordRun(context.WithoutCancel(ctx), report); err != nil {
			slog.Warn("extract: record run", slog.Any("error", err))
		}
	}
	return s, runErr
}

// process classifies one record and mutates it in place.
func (o *Orchestrator) process(ctx context.Context, i, total int, rec *records.Record) Outcome {
	out := Outcome{Index: i, Title: rec.Title, URL: rec.URL}
	log := slog.With(
		slog.String("progress", fmt.Sprintf("%d/%d", i+1, total)),
		slog.String("title", engine.TruncateRunes(rec.Title, logTitleRunes, "...")),
	)

	if rec.Transcript.Valid() {
		out.Skipped = true
		out.Status = records.StatusSuccess
		log.Debug("extract: already has transcript, skipping")
		return out
	}

	var t records.Transcript
	switch {
	case strings.TrimSpace(rec.URL) == "":
		t = records.Failed(records.ReasonNoURL)
		out.Reason = ErrMissingURL.Error()
	default:
		id := refs.ExtractID(rec.URL)
		if id == "" {
			t = records.Failed(records.ReasonInvalidURL)
			out.Reason = fmt.Errorf("%w: %s", ErrInvalidIdentifier, rec.URL).Error()
			break
		}
		t, out.Attempts = o.retrieve(ctx, id)
		if t.Status() == records.StatusFailed {
			out.Reason = t.Text()
		}
	}

	rec.Transcript = t
	out.Status = t.Status()
	switch t.Status() {
	case records.StatusSuccess:
		out.Words = engine.WordCount(t.Text())
		log.Info("extract: transcript saved", slog.Int("words", out.Words), slog.Int("attempts", out.Attempts))
	case records.StatusNoContent:
		log.Info("extract: no subtitles available", slog.Int("attempts", out.Attempts))
	default:
		log.Warn("extract: failed", slog.String("reason", out.Reason), slog.Int("attempts", out.Attempts))
	}
	return out
}

// retrieve runs the bounded attempt loop for one video ID and reports the
// terminal transcript and the number of attempts consumed. Attempts are not
// cancelable; they run under a context detached from ctx's cancellation.
func (o *Orchestrator) retrieve(ctx context.Context, id string) (records.Transcript, int) {
	fetchCtx := context.WithoutCancel(ctx)
	for attempt := 1; ; attempt++ {
		engine.IncrExtractAttempt()
		text, err := o.fetcher.Fetch(fetchCtx, id)
		if text != "" {
			return records.Succeeded(text), attempt
		}
		if attempt >= o.policy.MaxAttempts {
			if err != nil {
				return records.Failed(err.Error()), attempt
			}
			return records.NoContent(), attempt
		}
		slog.Info("extract: retrying",
			slog.String("id", id),
			slog.Int("attempt", attempt),
			slog.Int("max", o.policy.MaxAttempts),
			slog.Duration("delay", o.policy.Delay),
		)
		o.sleep(o.policy.Delay)
	}
}
