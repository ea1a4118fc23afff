package records

import (
	"strings"
)

// Record is one title/url/transcript entity in the store.
type Record struct {
	Title      string     `json:"title"`
	URL        string     `json:"url"`
	Transcript Transcript `json:"-"`
}

// Line prefixes of a serialized block.
const (
	titlePrefix      = "Title: "
	urlPrefix        = "URL: "
	transcriptPrefix = "Transcript: "

	blockSeparator = "\n---\n"
)

// Encode serializes records into the block format:
//
//	Title: <title>
//	URL: <url>
//	Transcript: <transcript>
//
//	---
//
// Field values are flattened so every field stays on its own line.
func Encode(recs []Record) []byte {
	var sb strings.Builder
	for _, r := range recs {
		sb.WriteString(titlePrefix)
		sb.WriteString(Flatten(r.Title))
		sb.WriteByte('\n')
		sb.WriteString(urlPrefix)
		sb.WriteString(Flatten(r.URL))
		sb.WriteByte('\n')
		sb.WriteString(transcriptPrefix)
		sb.WriteString(Flatten(r.Transcript.String()))
		sb.WriteString("\n\n---\n\n")
	}
	return []byte(sb.String())
}

// Decode parses the block format. Unknown lines are dropped and blocks without any
// recognized field are skipped. Decode never fails: garbage decodes to no records.
func Decode(data []byte) []Record {
	content := strings.ReplaceAll(string(data), "\r\n", "\n")
	var out []Record
	for _, section := range strings.Split(content, blockSeparator) {
		section = strings.TrimSpace(section)
		if section == "" {
			continue
		}
		var (
			r     Record
			found bool
		)
		for _, line := range strings.Split(section, "\n") {
			switch {
			case strings.HasPrefix(line, titlePrefix):
				r.Title = line[len(titlePrefix):]
				found = true
			case strings.HasPrefix(line, urlPrefix):
				r.URL = line[len(urlPrefix):]
				found = true
			case strings.HasPrefix(line, transcriptPrefix):
				r.Transcript = ParseTranscript(line[len(transcriptPrefix):])
				found = true
			case line == strings.TrimSpace(transcriptPrefix):
				// "Transcript:" with nothing after it once trailing space was trimmed.
				found = true
			}
		}
		if found {
			out = append(out, r)
		}
	}
	return out
}
