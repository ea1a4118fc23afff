package sources

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/anatolykoptev/go_captions/internal/engine"
)

// ErrNoCaptions marks a strategy miss: the video exposes no usable transcript
// through that strategy. Any other error from a strategy is a fault.
var ErrNoCaptions = errors.New("no captions")

// Strategy is one independent transcript-retrieval method.
type Strategy interface {
	Name() string
	Fetch(ctx context.Context, videoID string) (string, error)
}

// Cache stores successful transcripts by video ID.
type Cache interface {
	Get(ctx context.Context, videoID string) (string, bool)
	Set(ctx context.Context, videoID, text string)
}

// Chain tries its strategies in order within a single attempt.
type Chain struct {
	strategies []Strategy
	cache      Cache
}

// NewChain returns a chain over strategies in priority order. cache may be nil.
func NewChain(cache Cache, strategies ...Strategy) *Chain {
	return &Chain{strategies: strategies, cache: cache}
}

// Fetch runs one attempt. The first strategy returning non-empty text wins.
// When every strategy comes back empty it returns ("", nil) if all of them
// missed, or ("", err) joining the faults if any strategy faulted.
func (c *Chain) Fetch(ctx context.Context, videoID string) (string, error) {
	if c.cache != nil {
		if text, ok := c.cache.Get(ctx, videoID); ok {
			return text, nil
		}
	}

	var faults []error
	for _, s := range c.strategies {
		text, err := s.Fetch(ctx, videoID)
		if err == nil && text != "" {
			engine.IncrStrategyHit(s.Name())
			if c.cache != nil {
				c.cache.Set(ctx, videoID, text)
			}
			return text, nil
		}
		switch {
		case err == nil:
			slog.Debug("strategy: empty result", slog.String("strategy", s.Name()), slog.String("id", videoID))
		case isMiss(err):
			slog.Debug("strategy: miss", slog.String("strategy", s.Name()), slog.String("id", videoID), slog.Any("reason", err))
		default:
			engine.IncrStrategyFault()
			slog.Warn("strategy: fault", slog.String("strategy", s.Name()), slog.String("id", videoID), slog.Any("error", err))
			faults = append(faults, fmt.Errorf("%s: %w", s.Name(), err))
		}
	}
	return "", errors.Join(faults...)
}
