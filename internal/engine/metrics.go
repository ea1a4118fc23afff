package engine

import (
	"fmt"
	"strings"
	"sync/atomic"
)

// Metrics tracks operational counters across the engine.
var metrics struct {
	FetchRequests    atomic.Int64
	FetchErrors      atomic.Int64
	ExtractRuns      atomic.Int64
	ExtractAttempts  atomic.Int64
	CaptionsHits     atomic.Int64
	PageHits         atomic.Int64
	StrategyFaults   atomic.Int64
	RecordsSucceeded atomic.Int64
	RecordsNoSubs    atomic.Int64
	RecordsFailed    atomic.Int64
	RecordsSkipped   atomic.Int64
}

// metricKeys fixes the output order of FormatMetrics.
var metricKeys = []string{
	"fetch_requests", "fetch_errors",
	"extract_runs", "extract_attempts",
	"captions_strategy_hits", "page_strategy_hits", "strategy_faults",
	"records_succeeded", "records_no_subtitles", "records_failed", "records_skipped",
	"cache_hits", "cache_misses",
}

// GetMetrics returns a snapshot of all metrics including cache stats.
func GetMetrics() map[string]int64 {
	hits, misses := CacheStats()
	return map[string]int64{
		"fetch_requests":         metrics.FetchRequests.Load(),
		"fetch_errors":           metrics.FetchErrors.Load(),
		"extract_runs":           metrics.ExtractRuns.Load(),
		"extract_attempts":       metrics.ExtractAttempts.Load(),
		"captions_strategy_hits": metrics.CaptionsHits.Load(),
		"page_strategy_hits":     metrics.PageHits.Load(),
		"strategy_faults":        metrics.StrategyFaults.Load(),
		"records_succeeded":      metrics.RecordsSucceeded.Load(),
		"records_no_subtitles":   metrics.RecordsNoSubs.Load(),
		"records_failed":         metrics.RecordsFailed.Load(),
		"records_skipped":        metrics.RecordsSkipped.Load(),
		"cache_hits":             hits,
		"cache_misses":           misses,
	}
}

// FormatMetrics returns metrics as a simple text format for HTTP endpoint.
func FormatMetrics() string {
	m := GetMetrics()
	var sb strings.Builder
	for _, k := range metricKeys {
		fmt.Fprintf(&sb, "%s %d\n", k, m[k])
	}
	return sb.String()
}

func IncrFetchRequests()  { metrics.FetchRequests.Add(1) }
func IncrFetchErrors()    { metrics.FetchErrors.Add(1) }
func IncrExtractRuns()    { metrics.ExtractRuns.Add(1) }
func IncrExtractAttempt() { metrics.ExtractAttempts.Add(1) }
func IncrStrategyFault()  { metrics.StrategyFaults.Add(1) }

// IncrStrategyHit counts a non-empty result by strategy name.
func IncrStrategyHit(name string) {
	switch name {
	case "captions":
		metrics.CaptionsHits.Add(1)
	case "page":
		metrics.PageHits.Add(1)
	}
}

// Incrementors for per-record outcomes.
func IncrRecordSucceeded() { metrics.RecordsSucceeded.Add(1) }
func IncrRecordNoSubs()    { metrics.RecordsNoSubs.Add(1) }
func IncrRecordFailed()    { metrics.RecordsFailed.Add(1) }
func IncrRecordSkipped()   { metrics.RecordsSkipped.Add(1) }
