package engine

import (
	"net/http"
	"time"
)

// Config holds all engine configuration, injected from main.
type Config struct {
	StorePath            string        // flat record store
	ExportDir            string        // parent of the youtubeRag/ hand-off directory; "" = store dir
	MaxAttempts          int           // strategy chain attempts per record
	RetryDelay           time.Duration // fixed wait between attempts
	Languages            []string      // preferred caption languages, primary first
	FetchTimeout         time.Duration
	RequestsPerSecond    float64 // 0 = unpaced
	CacheTTL             time.Duration
	CacheMaxEntries      int
	CacheCleanupInterval time.Duration
	RedisURL             string // "" = L1 only
	HistoryPath          string // sqlite run ledger; "" = disabled
	DatabaseURL          string // postgres publisher; "" = disabled
	Stealth              bool   // fetch watch pages through a Chrome-fingerprinted client
	WebshareAPIKey       string // proxy pool for the stealth client; "" = direct
	HTTPClient           *http.Client
}

var cfg Config

// Cfg exposes the engine configuration for sub-packages and entrypoints.
// Always points to the current cfg value.
var Cfg = &cfg

// Init initializes the engine with the given configuration.
func Init(c Config) {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.RetryDelay < 0 {
		c.RetryDelay = 0
	}
	if len(c.Languages) == 0 {
		c.Languages = []string{"en"}
	}
	if c.FetchTimeout <= 0 {
		c.FetchTimeout = 15 * time.Second
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{Timeout: c.FetchTimeout}
	}
	cfg = c
	Cfg = &cfg
}
