package publish

import (
	"testing"

	"github.com/anatolykoptev/go_captions/internal/engine/records"
)

func TestRows(t *testing.T) {
	recs := []records.Record{
		{Title: "A", URL: "https://youtu.be/aaa", Transcript: records.Succeeded("one two three")},
		{Title: "A again", URL: "https://www.youtube.com/watch?v=aaa&t=10", Transcript: records.Succeeded("dup")},
		{Title: "Pending", URL: "https://youtu.be/bbb"},
		{Title: "None", URL: "https://youtu.be/ccc", Transcript: records.NoContent()},
		{Title: "Broken", URL: "https://youtu.be/ddd", Transcript: records.Failed("timeout")},
		{Title: "List", URL: "https://www.youtube.com/watch?v=eee&list=PL1", Transcript: records.Succeeded("x")},
	}

	rows := Rows(recs)
	if len(rows) != 2 {
		t.Fatalf("Rows() returned %d rows, want 2: %+v", len(rows), rows)
	}

	want := []Row{
		{URL: "https://www.youtube.com/watch?v=aaa", VideoID: "aaa", Title: "A", Transcript: "one two three", Words: 3},
		{URL: "https://www.youtube.com/watch?v=eee&list=PL1", VideoID: "eee", Title: "List", Transcript: "x", Words: 1},
	}
	for i := range want {
		if rows[i] != want[i] {
			t.Errorf("rows[%d] = %+v, want %+v", i, rows[i], want[i])
		}
	}
}

func TestRowsEmpty(t *testing.T) {
	if rows := Rows(nil); len(rows) != 0 {
		t.Errorf("Rows(nil) = %+v", rows)
	}
}
