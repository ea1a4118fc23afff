package records

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func sampleRecords() []Record {
	return []Record{
		{Title: "Intro", URL: "https://www.youtube.com/watch?v=a1", Transcript: Succeeded("hello world")},
		{Title: "Pending", URL: "https://www.youtube.com/watch?v=b2"},
		{Title: "None", URL: "https://www.youtube.com/watch?v=c3", Transcript: NoContent()},
		{Title: "Broken", URL: "https://www.youtube.com/watch?v=d4", Transcript: Failed("dial tcp: timeout")},
	}
}

func TestEncodeFormat(t *testing.T) {
	got := string(Encode([]Record{{Title: "T", URL: "https://youtube.com/watch?v=abc123"}}))
	want := "Title: T\nURL: https://youtube.com/watch?v=abc123\nTranscript: \n\n---\n\n"
	if got != want {
		t.Fatalf("Encode() = %q, want %q", got, want)
	}
}

func TestRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "youtube_urls.txt")
	s := NewStore(path)

	in := sampleRecords()
	require.NoError(t, s.Save(in))

	out, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, in, out)
}

func TestDecodeTolerance(t *testing.T) {
	doc := "\n\n  Title: First\nURL: https://youtu.be/x1\nRating: 5\nTranscript: NO_SUBTITLES_AVAILABLE\n\n---\n\n" +
		"\n---\n" + // empty block
		"URL: https://youtu.be/x2\nTitle: Second\nTranscript: ERROR_INVALID_URL\n\n---\n\n   "

	got := Decode([]byte(doc))
	require.Len(t, got, 2)

	require.Equal(t, "First", got[0].Title)
	require.Equal(t, StatusNoContent, got[0].Transcript.Status())

	require.Equal(t, "Second", got[1].Title)
	require.Equal(t, "https://youtu.be/x2", got[1].URL)
	require.Equal(t, StatusFailed, got[1].Transcript.Status())
	require.Equal(t, ReasonInvalidURL, got[1].Transcript.Text())

	// Unknown fields are dropped and canonical order is restored on write.
	re := string(Encode(got))
	require.NotContains(t, re, "Rating")
	require.True(t, strings.HasPrefix(re, "Title: First\nURL: https://youtu.be/x1\nTranscript: NO_SUBTITLES_AVAILABLE\n"))
}

func TestDecodeLegacyClearedFile(t *testing.T) {
	// Older tooling cleared the store by writing an empty JSON list.
	if got := Decode([]byte("[]")); len(got) != 0 {
		t.Fatalf("Decode([]) = %v, want empty", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "missing.txt"))
	recs, err := s.Load()
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("Load() = %v, want empty", recs)
	}
	if err := s.Require(); !errors.Is(err, ErrStoreNotFound) {
		t.Fatalf("Require() = %v, want ErrStoreNotFound", err)
	}
}

func TestClear(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "store.txt"))
	require.NoError(t, s.Save(sampleRecords()))
	require.NoError(t, s.Clear())

	require.NoError(t, s.Require())
	recs, err := s.Load()
	require.NoError(t, err)
	require.Empty(t, recs)
}

func TestMerge(t *testing.T) {
	existing := []Record{
		{Title: "T", URL: "https://youtube.com/watch?v=abc123", Transcript: Failed("boom")},
		{Title: "U", URL: "https://youtube.com/watch?v=def456"},
	}

	t.Run("empty incoming", func(t *testing.T) {
		require.Equal(t, existing, Merge(existing, nil))
	})

	t.Run("first write wins", func(t *testing.T) {
		got := Merge(existing, []Record{
			{Title: "T2", URL: "https://youtu.be/abc123?extra=1", Transcript: Succeeded("fresh")},
		})
		require.Len(t, got, 2)
		require.Equal(t, "T", got[0].Title)
		require.Equal(t, StatusFailed, got[0].Transcript.Status())
	})

	t.Run("appends in order and is idempotent", func(t *testing.T) {
		incoming := []Record{
			{Title: "V", URL: "https://youtube.com/watch?v=ghi789"},
			{Title: "W", URL: "https://youtube.com/watch?v=jkl000"},
			{Title: "V again", URL: "https://www.youtube.com/watch?v=ghi789&pp=1"},
		}
		once := Merge(existing, incoming)
		twice := Merge(once, incoming)
		require.Equal(t, once, twice)
		require.Len(t, once, 4)
		require.Equal(t, "V", once[2].Title)
		require.Equal(t, "W", once[3].Title)
	})

	t.Run("does not alias existing", func(t *testing.T) {
		got := Merge(existing, []Record{{Title: "X", URL: "https://youtu.be/xyz"}})
		got[0].Title = "changed"
		require.Equal(t, "T", existing[0].Title)
	})
}

func TestIngest(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "store.txt"))
	added, err := s.Ingest([]Record{{Title: "T", URL: "https://youtube.com/watch?v=abc123"}})
	require.NoError(t, err)
	require.Equal(t, 1, added)

	added, err = s.Ingest([]Record{{Title: "T2", URL: "https://youtu.be/abc123?extra=1"}})
	require.NoError(t, err)
	require.Equal(t, 0, added)

	recs, err := s.Load()
	require.NoError(t, err)
	require.Len(t, recs, 1)
	require.Equal(t, "T", recs[0].Title)
}

func TestExport(t *testing.T) {
	dir := t.TempDir()
	s := NewStore(filepath.Join(dir, "youtube_urls.txt"))
	require.NoError(t, s.Save(sampleRecords()))

	out := t.TempDir()
	path, err := s.Export(out)
	require.NoError(t, err)
	require.Equal(t, filepath.Join(out, ExportDirName, "youtube_urls.txt"), path)

	exported, err := os.ReadFile(path)
	require.NoError(t, err)
	original, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	require.Equal(t, original, exported)
}

func TestLock(t *testing.T) {
	s := NewStore(filepath.Join(t.TempDir(), "store.txt"))
	unlock, err := s.Lock()
	require.NoError(t, err)

	_, err = s.Lock()
	require.ErrorIs(t, err, ErrStoreLocked)

	require.NoError(t, unlock())
	unlock, err = s.Lock()
	require.NoError(t, err)
	require.NoError(t, unlock())
}

func TestTranscriptSentinels(t *testing.T) {
	tests := []struct {
		raw    string
		status Status
		valid  bool
	}{
		{"", StatusPending, false},
		{"NO_SUBTITLES_AVAILABLE", StatusNoContent, false},
		{"NO_TRANSCRIPT", StatusNoContent, false},
		{"ERROR_INVALID_URL", StatusFailed, false},
		{"ERROR_", StatusFailed, false},
		{"hello world", StatusSuccess, true},
	}
	for _, tt := range tests {
		tr := ParseTranscript(tt.raw)
		if tr.Status() != tt.status {
			t.Errorf("ParseTranscript(%q).Status() = %v, want %v", tt.raw, tr.Status(), tt.status)
		}
		if tr.Valid() != tt.valid {
			t.Errorf("ParseTranscript(%q).Valid() = %v, want %v", tt.raw, tr.Valid(), tt.valid)
		}
		if tr.String() != tt.raw {
			t.Errorf("ParseTranscript(%q).String() = %q, want lossless", tt.raw, tr.String())
		}
	}

	if got := Failed("line one\nline two").String(); got != "ERROR_line one line two" {
		t.Errorf("Failed() flattened = %q", got)
	}
}

func TestFailedReasonRoundTrip(t *testing.T) {
	reason := errors.Join(errors.New("captions: HTTP 403"), errors.New("page: body\n")).Error()
	in := []Record{{Title: "T", URL: "https://youtu.be/x", Transcript: Failed(reason)}}
	require.Equal(t, "ERROR_captions: HTTP 403 page: body", in[0].Transcript.String())

	s := NewStore(filepath.Join(t.TempDir(), "youtube_urls.txt"))
	require.NoError(t, s.Save(in))
	out, err := s.Load()
	require.NoError(t, err)
	require.Equal(t, in, out)
}
