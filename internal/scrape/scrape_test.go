package scrape

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

const samplePage = `<!DOCTYPE html>
<html>
<head><title>Test Page</title><script>var x = "noise";</script></head>
<body>
  <style>.hidden { display: none }</style>
  <h1>Welcome</h1>
  <p>Useful paragraph text.</p>
  <a href="/relative">Relative</a>
  <a href="https://example.org/abs">Absolute</a>
  <a href="#fragment">Fragment</a>
  <a href="javascript:void(0)">JS</a>
</body>
</html>`

func TestFetchExtractsContent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	s := New(time.Second, 1, time.Millisecond)
	content, err := s.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v", err)
	}

	if content.Title != "Test Page" {
		t.Errorf("title = %q", content.Title)
	}
	if !strings.Contains(content.Text, "Useful paragraph text.") {
		t.Errorf("text missing paragraph: %q", content.Text)
	}
	if strings.Contains(content.Text, "noise") || strings.Contains(content.Text, "hidden") {
		t.Errorf("script/style text leaked: %q", content.Text)
	}
	if len(content.Links) != 2 {
		t.Fatalf("links = %v, want relative+absolute only", content.Links)
	}
	if content.Links[0] != srv.URL+"/relative" {
		t.Errorf("relative link not resolved: %q", content.Links[0])
	}
}

func TestFetchInvalidURL(t *testing.T) {
	s := New(time.Second, 1, time.Millisecond)
	content, err := s.Fetch(context.Background(), "not a url")
	if err != nil {
		t.Fatalf("invalid URL should not error, got %v", err)
	}
	if content.Note == "" || content.Text != "" {
		t.Errorf("invalid URL content = %+v, want empty with note", content)
	}
}

// Not-found is a recorded condition, not an error, and is not retried.
func TestFetchNotFound(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt64(&calls, 1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	s := New(time.Second, 3, time.Millisecond)
	content, err := s.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("404 should not error, got %v", err)
	}
	if !strings.Contains(content.Note, "not found") {
		t.Errorf("note = %q", content.Note)
	}
	if got := atomic.LoadInt64(&calls); got != 1 {
		t.Errorf("404 retried %d times, want 1 attempt", got)
	}
}

func TestFetchRetriesServerErrors(t *testing.T) {
	var calls int64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt64(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	s := New(time.Second, 3, time.Millisecond)
	content, err := s.Fetch(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("Fetch() error = %v after recoverable failures", err)
	}
	if content.Title != "Test Page" {
		t.Errorf("title = %q", content.Title)
	}
	if got := atomic.LoadInt64(&calls); got != 3 {
		t.Errorf("server called %d times, want 3", got)
	}
}

func TestFetchExhaustsRetries(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	s := New(time.Second, 2, time.Millisecond)
	if _, err := s.Fetch(context.Background(), srv.URL); err == nil {
		t.Error("persistent 500 should surface an error")
	}
}
