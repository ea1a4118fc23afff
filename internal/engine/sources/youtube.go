// Package sources retrieves YouTube transcripts through an ordered chain of
// independent strategies.
//
// The implementation is split across files by responsibility:
//
//	chain.go             : Strategy interface, miss/fault classification, the Chain
//	youtube_innertube.go : Innertube payload types and the captions-index strategy
//	youtube_transcript.go: watch-page strategy and the shared timed-text decoder
package sources

import "github.com/anatolykoptev/go_captions/internal/engine"

// NewYouTubeChain builds the default chain: captions index first, watch page second.
// langs lists preferred caption languages, primary first. cache may be nil.
func NewYouTubeChain(client *engine.Client, langs []string, cache Cache) *Chain {
	return NewChain(cache,
		NewCaptionsStrategy(client, langs),
		NewPageStrategy(client, langs),
	)
}
