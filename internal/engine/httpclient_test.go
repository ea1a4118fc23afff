package engine

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestBrowserHeaders(t *testing.T) {
	h := BrowserHeaders()

	required := []string{"accept", "accept-language", "user-agent"}
	for _, key := range required {
		if _, ok := h[key]; !ok {
			t.Errorf("BrowserHeaders() missing key %q", key)
		}
	}
	if _, ok := h["accept-encoding"]; ok {
		t.Error("BrowserHeaders() must leave accept-encoding to net/http")
	}
	if ua := h["user-agent"]; len(ua) < 20 || !strings.HasPrefix(ua, "Mozilla/") {
		t.Errorf("user-agent = %q, want a browser identity", ua)
	}
}

func TestClientGet(t *testing.T) {
	var gotUA string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		io.WriteString(w, "ok") //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), 0, NoRetry)
	body, err := c.Get(context.Background(), srv.URL, map[string]string{"user-agent": UserAgentChrome})
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if string(body) != "ok" {
		t.Errorf("Get() = %q, want %q", body, "ok")
	}
	if gotUA != UserAgentChrome {
		t.Errorf("User-Agent = %q, want %q", gotUA, UserAgentChrome)
	}
}

func TestClientStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), 0, NoRetry)
	_, err := c.Get(context.Background(), srv.URL, nil)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("Get() error = %v, want *StatusError", err)
	}
	if se.StatusCode != http.StatusNotFound {
		t.Errorf("StatusCode = %d, want 404", se.StatusCode)
	}
}

func TestClientPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s, want POST", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		b, _ := io.ReadAll(r.Body)
		w.Write(b) //nolint:errcheck
	}))
	defer srv.Close()

	c := NewClient(srv.Client(), 100, NoRetry)
	body, err := c.PostJSON(context.Background(), srv.URL, map[string]string{"videoId": "abc"}, nil)
	if err != nil {
		t.Fatalf("PostJSON() error = %v", err)
	}
	if string(body) != `{"videoId":"abc"}` {
		t.Errorf("PostJSON() echoed %q", body)
	}
}
