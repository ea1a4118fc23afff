package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/anatolykoptev/go_captions/internal/engine"
)

// YouTube Innertube API: constants, payload types and the captions-index strategy.

const (
	ytBaseURL        = "https://www.youtube.com"
	ytPlayerPath     = "/youtubei/v1/player"
	ytAndroidVersion = "20.10.38"
	ytAndroidUA      = "com.google.android.youtube/" + ytAndroidVersion + " (Linux; U; Android 11) gzip"
)

// --- ANDROID client types (/player endpoint) ---

type innertubeReq struct {
	VideoID        string       `json:"videoId"`
	Context        innertubeCtx `json:"context"`
	RacyCheckOk    bool         `json:"racyCheckOk"`
	ContentCheckOk bool         `json:"contentCheckOk"`
}

type innertubeCtx struct {
	Client innertubeClient `json:"client"`
}

type innertubeClient struct {
	ClientName        string `json:"clientName"`
	ClientVersion     string `json:"clientVersion"`
	AndroidSdkVersion int    `json:"androidSdkVersion,omitempty"`
	Hl                string `json:"hl,omitempty"`
	Gl                string `json:"gl,omitempty"`
}

type innertubePlayerResp struct {
	Captions *struct {
		PlayerCaptionsTracklistRenderer struct {
			CaptionTracks []captionTrack `json:"captionTracks"`
		} `json:"playerCaptionsTracklistRenderer"`
	} `json:"captions"`
	PlayabilityStatus *struct {
		Status string `json:"status"`
		Reason string `json:"reason"`
	} `json:"playabilityStatus"`
}

type captionTrack struct {
	BaseURL      string `json:"baseUrl"`
	LanguageCode string `json:"languageCode"`
	Kind         string `json:"kind"` // "asr" = auto-generated
}

// needsPoToken reports whether a caption track URL requires a PoToken (browser-only).
// Tracks with &exp=xpe cannot be fetched server-side.
func needsPoToken(baseURL string) bool {
	return strings.Contains(baseURL, "&exp=xpe")
}

// pickTrack selects a usable caption track: a manual track in a preferred
// language, then an auto-generated one, then the first usable track.
// Tracks that need a PoToken are never picked.
func pickTrack(tracks []captionTrack, langs []string) (captionTrack, bool) {
	usable := make([]captionTrack, 0, len(tracks))
	for _, t := range tracks {
		if t.BaseURL != "" && !needsPoToken(t.BaseURL) {
			usable = append(usable, t)
		}
	}
	if len(usable) == 0 {
		return captionTrack{}, false
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang && t.Kind != "asr" {
				return t, true
			}
		}
	}
	for _, lang := range langs {
		for _, t := range usable {
			if t.LanguageCode == lang {
				return t, true
			}
		}
	}
	return usable[0], true
}

// CaptionsStrategy queries the Innertube ANDROID /player endpoint for the
// caption index, picks a track and decodes its timed text.
type CaptionsStrategy struct {
	Client   *engine.Client
	Languages []string // preferred languages, primary first
	BaseURL  string // "" = https://www.youtube.com
}

// NewCaptionsStrategy builds the structured-caption strategy.
func NewCaptionsStrategy(client *engine.Client, langs []string) *CaptionsStrategy {
	return &CaptionsStrategy{Client: client, Languages: langs}
}

func (s *CaptionsStrategy) Name() string { return "captions" }

// Fetch returns the decoded transcript, ErrNoCaptions on a miss, or a fault.
func (s *CaptionsStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	base := s.BaseURL
	if base == "" {
		base = ytBaseURL
	}
	body, err := s.Client.PostJSON(ctx, base+ytPlayerPath+"?prettyPrint=false", innertubeReq{
		VideoID: videoID,
		Context: innertubeCtx{
			Client: innertubeClient{
				ClientName:        "ANDROID",
				ClientVersion:     ytAndroidVersion,
				AndroidSdkVersion: 30,
				Hl:                "en",
				Gl:                "US",
			},
		},
		RacyCheckOk:    true,
		ContentCheckOk: true,
	}, map[string]string{
		"user-agent":               ytAndroidUA,
		"x-youtube-client-name":    "3",
		"x-youtube-client-version": ytAndroidVersion,
	})
	if err != nil {
		return "", fmt.Errorf("android innertube: %w", err)
	}

	var playerResp innertubePlayerResp
	if err := json.Unmarshal(body, &playerResp); err != nil {
		return "", fmt.Errorf("%w: undecodable player response", ErrNoCaptions)
	}
	if playerResp.Captions == nil {
		if ps := playerResp.PlayabilityStatus; ps != nil && ps.Reason != "" {
			return "", fmt.Errorf("%w: %s", ErrNoCaptions, strings.TrimSpace(ps.Reason))
		}
		return "", fmt.Errorf("%w: no captions in player response", ErrNoCaptions)
	}
	track, ok := pickTrack(playerResp.Captions.PlayerCaptionsTracklistRenderer.CaptionTracks, s.Languages)
	if !ok {
		return "", fmt.Errorf("%w: no usable caption tracks", ErrNoCaptions)
	}
	return fetchTimedText(ctx, s.Client, track.BaseURL)
}
