package engine

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestCacheKey(t *testing.T) {
	t.Run("deterministic", func(t *testing.T) {
		k1 := CacheKey("transcript", "abc123")
		k2 := CacheKey("transcript", "abc123")
		if k1 != k2 {
			t.Errorf("CacheKey not deterministic: %q != %q", k1, k2)
		}
	})

	t.Run("different inputs differ", func(t *testing.T) {
		k1 := CacheKey("transcript", "abc123")
		k2 := CacheKey("transcript", "def456")
		if k1 == k2 {
			t.Errorf("different inputs produced same key: %q", k1)
		}
	})

	t.Run("has prefix", func(t *testing.T) {
		k := CacheKey("test")
		if k[:3] != "gc:" {
			t.Errorf("expected gc: prefix, got %q", k[:3])
		}
	})
}

func TestCacheGetSet(t *testing.T) {
	c := NewTranscriptCache("", time.Minute, 100, 5*time.Minute)
	defer c.Close()
	ctx := context.Background()

	if _, ok := c.Get(ctx, "abc123"); ok {
		t.Error("expected cache miss on empty cache")
	}

	c.Set(ctx, "abc123", "hello world")

	got, ok := c.Get(ctx, "abc123")
	if !ok {
		t.Fatal("expected cache hit after set")
	}
	if got != "hello world" {
		t.Errorf("got %q, want %q", got, "hello world")
	}
}

func TestCacheIgnoresEmpty(t *testing.T) {
	c := NewTranscriptCache("", time.Minute, 100, 5*time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "abc123", "")
	if _, ok := c.Get(ctx, "abc123"); ok {
		t.Error("empty transcripts must not be cached")
	}
}

func TestCacheNil(t *testing.T) {
	var c *TranscriptCache
	c.Set(context.Background(), "abc", "x")
	if _, ok := c.Get(context.Background(), "abc"); ok {
		t.Error("nil cache must always miss")
	}
	if err := c.Close(); err != nil {
		t.Errorf("Close() on nil cache = %v", err)
	}
}

func TestCacheExpiration(t *testing.T) {
	c := NewTranscriptCache("", time.Millisecond, 100, 5*time.Minute)
	defer c.Close()
	ctx := context.Background()

	c.Set(ctx, "expiry", "temp")
	time.Sleep(5 * time.Millisecond)

	if _, ok := c.Get(ctx, "expiry"); ok {
		t.Error("expected cache miss after TTL expiry")
	}
}

func TestCacheEviction(t *testing.T) {
	c := NewTranscriptCache("", time.Minute, 3, 5*time.Minute)
	defer c.Close()
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		c.Set(ctx, fmt.Sprintf("item-%d", i), fmt.Sprintf("v%d", i))
	}

	count := 0
	c.l1.Range(func(_, _ any) bool {
		count++
		return true
	})
	if count > 3 {
		t.Errorf("expected at most 3 entries after eviction, got %d", count)
	}
}

func TestCacheStats(t *testing.T) {
	c := NewTranscriptCache("", time.Minute, 100, 5*time.Minute)
	defer c.Close()
	cacheHits.Store(0)
	cacheMisses.Store(0)
	ctx := context.Background()

	c.Get(ctx, "stats")
	if _, misses := CacheStats(); misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}

	c.Set(ctx, "stats", "x")
	c.Get(ctx, "stats")

	hits, misses := CacheStats()
	if hits != 1 {
		t.Errorf("hits = %d, want 1", hits)
	}
	if misses != 1 {
		t.Errorf("misses = %d, want 1", misses)
	}
}
