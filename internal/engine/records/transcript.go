package records

import "strings"

// Legacy flat-text sentinels stored in the Transcript field.
const (
	NoSubtitlesSentinel = "NO_SUBTITLES_AVAILABLE"
	ErrorPrefix         = "ERROR_"
	noPrefix            = "NO_"
)

// Well-known failure reasons written after ErrorPrefix.
const (
	ReasonInvalidURL = "INVALID_URL"
	ReasonNoURL      = "NO_URL"
)

// Status is the outcome class of a transcript.
type Status int

const (
	StatusPending Status = iota
	StatusSuccess
	StatusNoContent
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusSuccess:
		return "success"
	case StatusNoContent:
		return "no_subtitles"
	case StatusFailed:
		return "failed"
	}
	return "unknown"
}

// Transcript is a tagged value: Pending | Success(text) | NoContent | Failed(reason).
// The zero value is Pending.
type Transcript struct {
	status Status
	text   string // payload for Success, reason for Failed, raw marker for NoContent
}

// Pending returns a transcript that has not been attempted yet.
func Pending() Transcript { return Transcript{} }

// Succeeded wraps a retrieved transcript payload. An empty payload is Pending.
func Succeeded(text string) Transcript {
	if text == "" {
		return Pending()
	}
	return Transcript{status: StatusSuccess, text: text}
}

// NoContent marks an entity for which no captions exist.
func NoContent() Transcript { return Transcript{status: StatusNoContent} }

// Failed marks a failed attempt. The reason is flattened to a single trimmed
// line so it survives a save/load round trip unchanged.
func Failed(reason string) Transcript {
	return Transcript{status: StatusFailed, text: strings.TrimSpace(Flatten(reason))}
}

// Status reports the outcome class.
func (t Transcript) Status() Status { return t.status }

// Text returns the payload for Success and the reason for Failed.
func (t Transcript) Text() string {
	if t.status == StatusNoContent {
		return ""
	}
	return t.text
}

// Valid reports whether t holds a real transcript that should never be re-fetched.
func (t Transcript) Valid() bool { return t.status == StatusSuccess }

// String renders the legacy flat-text form.
func (t Transcript) String() string {
	switch t.status {
	case StatusSuccess:
		return t.text
	case StatusNoContent:
		if t.text != "" {
			return t.text
		}
		return NoSubtitlesSentinel
	case StatusFailed:
		return ErrorPrefix + t.text
	}
	return ""
}

// ParseTranscript maps the legacy flat-text form onto the tagged value.
// Any value starting with "NO_" is treated as NoContent and its marker is kept verbatim.
func ParseTranscript(raw string) Transcript {
	switch {
	case raw == "":
		return Pending()
	case strings.HasPrefix(raw, ErrorPrefix):
		return Transcript{status: StatusFailed, text: raw[len(ErrorPrefix):]}
	case raw == NoSubtitlesSentinel:
		return NoContent()
	case strings.HasPrefix(raw, noPrefix):
		return Transcript{status: StatusNoContent, text: raw}
	}
	return Transcript{status: StatusSuccess, text: raw}
}

// Flatten replaces line breaks with spaces so a value fits on one line of the store.
func Flatten(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.ReplaceAll(s, "\r", " ")
}
