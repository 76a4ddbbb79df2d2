package search

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Balogunolalere/Thoughbot/internal/flow"
)

const sampleResponse = `{
  "status": "success",
  "data": {
    "result": {
      "items": {
        "mainline": [
          {"type": "ads", "items": [{"title": "ad", "url": "http://ad", "desc": "x"}]},
          {"type": "web", "items": [
            {"title": "Capital of France", "url": "https://example.org/paris", "desc": "Paris is the capital."},
            {"title": "France facts", "url": "https://example.org/france", "desc": "Facts about France."}
          ]}
        ]
      }
    }
  }
}`

func TestSearchParsesWebResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "capital of france" {
			t.Errorf("query param = %q", got)
		}
		if got := r.URL.Query().Get("count"); got != "10" {
			t.Errorf("count param = %q, want 10", got)
		}
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(time.Second, 1, nil)
	c.SetEndpoint(srv.URL)

	results, err := c.Search(context.Background(), "capital of france", Options{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("got %d results, want 2 (ads filtered)", len(results))
	}
	if results[0].Title != "Capital of France" {
		t.Errorf("results[0] = %+v", results[0])
	}
}

func TestSearchValidatesOptions(t *testing.T) {
	c := New(time.Second, 1, nil)
	cases := []Options{
		{Count: 5},
		{Offset: 7},
		{Offset: 50},
		{SafeSearch: 9},
	}
	for _, opts := range cases {
		if _, err := c.Search(context.Background(), "q", opts); err == nil {
			t.Errorf("Search with opts %+v should fail validation", opts)
		}
	}
}

func TestSearchServerErrorIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := New(time.Second, 1, nil)
	c.SetEndpoint(srv.URL)

	_, err := c.Search(context.Background(), "q", Options{})
	if err == nil {
		t.Fatal("expected error from 503")
	}
	if !flow.IsTransient(err) {
		t.Errorf("503 should be transient, got %v", err)
	}
}

func TestSearchRetriesServerErrors(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(sampleResponse))
	}))
	defer srv.Close()

	c := New(time.Second, 3, nil)
	c.SetEndpoint(srv.URL)
	c.SetDelay(time.Millisecond)

	results, err := c.Search(context.Background(), "capital of france", Options{})
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if calls != 3 {
		t.Errorf("server saw %d attempts, want 3", calls)
	}
	if len(results) != 2 {
		t.Errorf("got %d results after recovery, want 2", len(results))
	}
}

func TestSearchExhaustsRetries(t *testing.T) {
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(time.Second, 3, nil)
	c.SetEndpoint(srv.URL)
	c.SetDelay(time.Millisecond)

	_, err := c.Search(context.Background(), "q", Options{})
	if err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if calls != 3 {
		t.Errorf("server saw %d attempts, want 3", calls)
	}
	if !flow.IsTransient(err) {
		t.Errorf("exhausted retries should stay transient, got %v", err)
	}
}

func TestSearchAPIErrorIsPermanent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"status": "error", "data": {"message": "rejected"}}`))
	}))
	defer srv.Close()

	c := New(time.Second, 1, nil)
	c.SetEndpoint(srv.URL)

	_, err := c.Search(context.Background(), "q", Options{})
	if err == nil {
		t.Fatal("expected API error")
	}
	if flow.IsTransient(err) {
		t.Errorf("API rejection should not be transient: %v", err)
	}
}

func TestFormat(t *testing.T) {
	out := Format([]Result{{Title: "T", URL: "https://u", Description: "D"}})
	for _, want := range []string{"1. T", "https://u", "D"} {
		if !strings.Contains(out, want) {
			t.Errorf("Format output missing %q:\n%s", want, out)
		}
	}
	if Format(nil) != "No results found." {
		t.Errorf("empty Format = %q", Format(nil))
	}
}
