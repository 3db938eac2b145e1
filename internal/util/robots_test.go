package util

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ppiankov/factcheck/internal/cache"
)

func robotsServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/robots.txt" {
			w.WriteHeader(http.StatusOK)
			return
		}
		atomic.AddInt32(&hits, 1)
		w.WriteHeader(status)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)
	return server, &hits
}

func TestRobotsChecker_CanFetch(t *testing.T) {
	server, hits := robotsServer(t, http.StatusOK, "User-agent: factcheck\nDisallow: /private\nCrawl-delay: 2\n")
	checker := NewRobotsChecker(server.Client(), "factcheck/0.1 (+https://example.com)", nil, time.Hour)

	tests := []struct {
		path    string
		allowed bool
	}{
		{"/news/article", true},
		{"/private/page", false},
		{"/", true},
	}

	for _, tt := range tests {
		allowed, delay, err := checker.CanFetch(context.Background(), server.URL+tt.path)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", tt.path, err)
		}
		if allowed != tt.allowed {
			t.Errorf("%s: expected allowed=%v, got %v", tt.path, tt.allowed, allowed)
		}
		if delay != 2*time.Second {
			t.Errorf("%s: expected crawl delay 2s, got %v", tt.path, delay)
		}
	}

	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("expected robots.txt fetched once, got %d", n)
	}
}

func TestRobotsChecker_NotFoundAllowsAll(t *testing.T) {
	server, _ := robotsServer(t, http.StatusNotFound, "")
	checker := NewRobotsChecker(server.Client(), "factcheck", nil, time.Hour)

	allowed, _, err := checker.CanFetch(context.Background(), server.URL+"/anything")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("expected missing robots.txt to allow fetching")
	}
}

func TestRobotsChecker_UnreachableAllows(t *testing.T) {
	server, _ := robotsServer(t, http.StatusOK, "")
	url := server.URL
	server.Close()

	checker := NewRobotsChecker(&http.Client{Timeout: time.Second}, "factcheck", nil, time.Hour)
	allowed, _, err := checker.CanFetch(context.Background(), url+"/page")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !allowed {
		t.Error("expected unreachable robots.txt to allow fetching")
	}
}

func TestRobotsChecker_InvalidURL(t *testing.T) {
	checker := NewRobotsChecker(nil, "factcheck", nil, time.Hour)
	if _, _, err := checker.CanFetch(context.Background(), "not a url"); err == nil {
		t.Error("expected error for URL without host")
	}
}

func TestRobotsChecker_SharedCache(t *testing.T) {
	server, hits := robotsServer(t, http.StatusOK, "User-agent: *\nDisallow: /blocked\n")
	store := cache.NewMemoryCache(time.Hour, time.Minute)

	first := NewRobotsChecker(server.Client(), "factcheck", store, time.Hour)
	if allowed, _, _ := first.CanFetch(context.Background(), server.URL+"/blocked"); allowed {
		t.Error("expected /blocked to be disallowed")
	}

	second := NewRobotsChecker(server.Client(), "factcheck", store, time.Hour)
	if allowed, _, _ := second.CanFetch(context.Background(), server.URL+"/blocked"); allowed {
		t.Error("expected cached robots.txt to disallow /blocked")
	}

	if n := atomic.LoadInt32(hits); n != 1 {
		t.Errorf("expected one robots.txt request across checkers, got %d", n)
	}
}

func TestNormalizeUserAgent(t *testing.T) {
	tests := map[string]string{
		"factcheck/0.1 (+https://example.com)": "factcheck",
		"Mozilla/5.0":                          "Mozilla",
		"":                                     "",
	}
	for in, want := range tests {
		if got := NormalizeUserAgent(in); got != want {
			t.Errorf("NormalizeUserAgent(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestEncodeDecodeRobots(t *testing.T) {
	status, body, err := decodeRobots(encodeRobots(404, []byte("line1\nline2")))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != 404 || string(body) != "line1\nline2" {
		t.Errorf("unexpected decode: %d %q", status, body)
	}

	if _, _, err := decodeRobots([]byte("garbage")); err == nil {
		t.Error("expected error for malformed entry")
	}
}
