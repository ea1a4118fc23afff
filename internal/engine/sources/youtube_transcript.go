package sources

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/anatolykoptev/go_captions/internal/engine"
)

// captionTracksKey marks the caption-track descriptor array in watch page HTML.
const captionTracksKey = `"captionTracks"`

var (
	baseURLRe  = regexp.MustCompile(`"baseUrl":\s*"([^"]*)"`)
	langCodeRe = regexp.MustCompile(`"languageCode":\s*"([^"]*)"`)

	jsonUnescaper = strings.NewReplacer(`\u0026`, "&", `\u003d`, "=", `\/`, "/")
)

// DecodeTimedText converts timed-text XML into plain text: the content of every
// <text> element, entity-unescaped and joined with single spaces. Timing
// attributes are discarded. Any parse failure yields "".
func DecodeTimedText(data []byte) string {
	dec := xml.NewDecoder(bytes.NewReader(data))
	var (
		pieces []string
		cur    strings.Builder
		depth  int // nesting inside <text>
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return ""
		}
		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local == "text" && depth == 0 {
				cur.Reset()
				depth = 1
			} else if depth > 0 {
				depth++
			}
		case xml.EndElement:
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 {
				// Caption bodies are often double-escaped (&amp;#39;).
				if s := strings.TrimSpace(html.UnescapeString(cur.String())); s != "" {
					pieces = append(pieces, s)
				}
			}
		case xml.CharData:
			if depth > 0 {
				cur.Write(t)
			}
		}
	}
	return strings.Join(pieces, " ")
}

// fetchTimedText downloads a caption track and decodes it.
// Transport errors are faults; an empty decode is a miss.
func fetchTimedText(ctx context.Context, client *engine.Client, trackURL string) (string, error) {
	body, err := client.Get(ctx, trackURL, map[string]string{"user-agent": engine.UserAgentChrome})
	if err != nil {
		return "", fmt.Errorf("fetch timedtext: %w", err)
	}
	text := DecodeTimedText(body)
	if text == "" {
		return "", fmt.Errorf("%w: empty or undecodable timed text", ErrNoCaptions)
	}
	return text, nil
}

// PageStrategy fetches the watch page with a browser identity, locates the
// embedded caption-track descriptor by pattern search and decodes the chosen track.
type PageStrategy struct {
	Client   *engine.Client
	Languages []string
	BaseURL   string // "" = https://www.youtube.com
}

// NewPageStrategy builds the raw-fetch strategy.
func NewPageStrategy(client *engine.Client, langs []string) *PageStrategy {
	return &PageStrategy{Client: client, Languages: langs}
}

func (s *PageStrategy) Name() string { return "page" }

// Fetch returns the decoded transcript, ErrNoCaptions on a miss, or a fault.
func (s *PageStrategy) Fetch(ctx context.Context, videoID string) (string, error) {
	base := s.BaseURL
	if base == "" {
		base = ytBaseURL
	}
	page, err := s.Client.Get(ctx, base+"/watch?v="+url.QueryEscape(videoID), engine.BrowserHeaders())
	if err != nil {
		return "", fmt.Errorf("watch page: %w", err)
	}

	tracks := findCaptionTracks(page)
	if tracks == "" {
		return "", fmt.Errorf("%w: captionTracks not found in watch page", ErrNoCaptions)
	}
	trackURL := pickTrackURL(jsonUnescaper.Replace(tracks), s.Languages)
	if trackURL == "" {
		return "", fmt.Errorf("%w: no usable baseUrl in captionTracks", ErrNoCaptions)
	}
	return fetchTimedText(ctx, s.Client, trackURL)
}

// findCaptionTracks returns the raw captionTracks JSON array from a watch page.
// The <script> carrying it is searched first; the whole payload is the fallback.
func findCaptionTracks(page []byte) string {
	src := ""
	if doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page)); err == nil {
		doc.Find("script").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
			if txt := sel.Text(); strings.Contains(txt, captionTracksKey) {
				src = txt
				return false
			}
			return true
		})
	}
	if src == "" {
		src = string(page)
	}

	idx := strings.Index(src, captionTracksKey)
	if idx < 0 {
		return ""
	}
	rest := strings.TrimLeft(src[idx+len(captionTracksKey):], " \t\r\n")
	if !strings.HasPrefix(rest, ":") {
		return ""
	}
	rest = strings.TrimLeft(rest[1:], " \t\r\n")
	return string(extractBalanced([]byte(rest), '[', ']'))
}

// pickTrackURL returns the baseUrl of the first usable track in a preferred
// language, else the first usable baseUrl. Each track's languageCode is read
// from the text between its baseUrl and the next one.
func pickTrackURL(tracks string, langs []string) string {
	matches := baseURLRe.FindAllStringSubmatchIndex(tracks, -1)
	var (
		urls  []string
		codes []string
	)
	for i, m := range matches {
		u := tracks[m[2]:m[3]]
		if u == "" || needsPoToken(u) {
			continue
		}
		end := len(tracks)
		if i+1 < len(matches) {
			end = matches[i+1][0]
		}
		code := ""
		if lm := langCodeRe.FindStringSubmatch(tracks[m[1]:end]); lm != nil {
			code = lm[1]
		}
		urls = append(urls, u)
		codes = append(codes, code)
	}
	if len(urls) == 0 {
		return ""
	}
	for _, lang := range langs {
		for i, code := range codes {
			if code == lang {
				return urls[i]
			}
		}
	}
	return urls[0]
}

// extractBalanced extracts a complete JSON value starting at b[0] == open by tracking depth.
func extractBalanced(b []byte, open, closing byte) []byte {
	if len(b) == 0 || b[0] != open {
		return nil
	}
	depth := 0
	inStr := false
	var prev byte
	for i, c := range b {
		if inStr {
			if c == '"' && prev != '\\' {
				inStr = false
			}
		} else {
			switch c {
			case '"':
				inStr = true
			case open:
				depth++
			case closing:
				depth--
				if depth == 0 {
					return b[:i+1]
				}
			}
		}
		prev = c
	}
	return nil
}

// isMiss reports whether err marks an absent transcript rather than a fault.
func isMiss(err error) bool {
	return errors.Is(err, ErrNoCaptions)
}
