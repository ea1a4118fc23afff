// Package refs canonicalizes YouTube references and derives fetch identifiers.
package refs

import (
	"net/url"
	"regexp"
	"strings"
)

const (
	canonicalHost     = "www.youtube.com"
	canonicalWatchURL = "https://" + canonicalHost + "/watch"
)

// ExtractID returns the video identifier of a watch URL (?v=<id>) or a short
// link (youtu.be/<id>). Any other shape yields "".
func ExtractID(raw string) string {
	u, err := parseRef(raw)
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Hostname())
	switch {
	case host == "youtu.be":
		id, _, _ := strings.Cut(strings.TrimPrefix(u.Path, "/"), "/")
		return id
	case host == "youtube.com" || strings.HasSuffix(host, ".youtube.com"):
		return u.Query().Get("v")
	}
	return ""
}

// Canonicalize keeps only what identifies the reference: scheme, host, path,
// the video id and the playlist id. Scheme and host are lowercased. Video
// references collapse onto https://www.youtube.com/watch so short links and
// watch links agree; any other youtube.com page moves to www.youtube.com.
// Unparseable input is returned trimmed.
func Canonicalize(raw string) string {
	raw = strings.TrimSpace(raw)
	u, err := parseRef(raw)
	if err != nil || u.Host == "" {
		return raw
	}
	q := u.Query()
	list := q.Get("list")

	if id := ExtractID(raw); id != "" {
		return canonicalWatchURL + "?" + essentialQuery(id, list)
	}
	scheme, host := strings.ToLower(u.Scheme), strings.ToLower(u.Host)
	if isYouTubeHost(host) {
		scheme, host = "https", canonicalHost
	}
	base := scheme + "://" + host + u.Path
	if !q.Has("v") && !q.Has("list") {
		return base
	}
	return base + "?" + essentialQuery(q.Get("v"), list)
}

// isYouTubeHost reports whether host is youtube.com, www.youtube.com or m.youtube.com.
func isYouTubeHost(host string) bool {
	switch host {
	case "youtube.com", canonicalHost, "m.youtube.com":
		return true
	}
	return false
}

// parseRef parses raw, assuming https for scheme-less references such as
// "youtu.be/abc".
func parseRef(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if !strings.Contains(raw, "://") &&
		(strings.HasPrefix(raw, "youtu.be/") || strings.Contains(raw, "youtube.com/")) {
		raw = "https://" + raw
	}
	return url.Parse(raw)
}

// essentialQuery encodes v first and list second.
func essentialQuery(v, list string) string {
	s := "v=" + url.QueryEscape(v)
	if list != "" {
		s += "&list=" + url.QueryEscape(list)
	}
	return s
}

// DedupKey is the store's identity for a reference.
func DedupKey(raw string) string {
	return Canonicalize(raw)
}

// IsVideoURL reports whether raw is a youtube.com watch or playlist page that
// names a video or a playlist.
func IsVideoURL(raw string) bool {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return false
	}
	switch strings.ToLower(u.Host) {
	case "www.youtube.com", "youtube.com":
	default:
		return false
	}
	if u.Path != "/watch" && u.Path != "/playlist" {
		return false
	}
	q := u.Query()
	return q.Has("v") || q.Has("list")
}

var ordinalRe = regexp.MustCompile(`\d+\.`)

// CleanLabel collapses whitespace runs and drops an ordinal token repeated
// back to back ("1. 1. Intro" becomes "1. Intro").
func CleanLabel(text string) string {
	locs := ordinalRe.FindAllStringIndex(text, -1)
	if len(locs) > 1 {
		var sb strings.Builder
		last := 0
		for i := 1; i < len(locs); i++ {
			prev, cur := locs[i-1], locs[i]
			if text[prev[0]:prev[1]] != text[cur[0]:cur[1]] {
				continue
			}
			if strings.TrimSpace(text[prev[1]:cur[0]]) != "" {
				continue
			}
			if prev[0] < last {
				// prev was already dropped as a duplicate
				continue
			}
			sb.WriteString(text[last:prev[1]])
			last = cur[1]
		}
		sb.WriteString(text[last:])
		text = sb.String()
	}
	return strings.Join(strings.Fields(text), " ")
}
