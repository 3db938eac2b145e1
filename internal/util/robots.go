package util

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/temoto/robotstxt"

	"github.com/ppiankov/factcheck/internal/cache"
)

// RobotsChecker checks robots.txt compliance.
// Parsed files are kept per host; raw bodies go to the shared cache when one is set.
type RobotsChecker struct {
	parsed     map[string]*robotstxt.RobotsData
	mu         sync.RWMutex
	httpClient *http.Client
	userAgent  string
	agent      string
	store      cache.Cache
	ttl        time.Duration
}

// NewRobotsChecker creates a new robots.txt checker. store may be nil.
func NewRobotsChecker(httpClient *http.Client, userAgent string, store cache.Cache, ttl time.Duration) *RobotsChecker {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &RobotsChecker{
		parsed:     make(map[string]*robotstxt.RobotsData),
		httpClient: httpClient,
		userAgent:  userAgent,
		agent:      NormalizeUserAgent(userAgent),
		store:      store,
		ttl:        ttl,
	}
}

// CanFetch checks if the URL can be fetched according to robots.txt
// Returns (allowed, crawlDelay, error)
func (r *RobotsChecker) CanFetch(ctx context.Context, rawURL string) (bool, time.Duration, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return false, 0, fmt.Errorf("parse URL: %w", err)
	}
	if parsed.Host == "" {
		return false, 0, fmt.Errorf("parse URL: missing host in %q", rawURL)
	}

	data, err := r.robotsData(ctx, parsed)
	if err != nil {
		// Unreachable robots.txt does not block fetching
		return true, 0, nil
	}

	path := parsed.EscapedPath()
	if path == "" {
		path = "/"
	}
	if parsed.RawQuery != "" {
		path += "?" + parsed.RawQuery
	}

	var crawlDelay time.Duration
	if group := data.FindGroup(r.agent); group != nil {
		crawlDelay = group.CrawlDelay
	}

	return data.TestAgent(path, r.agent), crawlDelay, nil
}

// robotsData returns parsed robots.txt for the URL's host, fetching it at most once
func (r *RobotsChecker) robotsData(ctx context.Context, target *url.URL) (*robotstxt.RobotsData, error) {
	host := target.Host

	r.mu.RLock()
	data, ok := r.parsed[host]
	r.mu.RUnlock()
	if ok {
		return data, nil
	}

	robotsURL := fmt.Sprintf("%s://%s/robots.txt", target.Scheme, host)
	key := cache.Key("robots", robotsURL)

	status, body, err := r.cached(key)
	if err != nil {
		status, body, err = r.fetch(ctx, robotsURL)
		if err != nil {
			return nil, err
		}
		if r.store != nil && status < 500 {
			_ = r.store.Set(key, encodeRobots(status, body), r.ttl)
		}
	}

	data, err = robotstxt.FromStatusAndBytes(status, body)
	if err != nil {
		return nil, fmt.Errorf("parse robots.txt: %w", err)
	}

	r.mu.Lock()
	r.parsed[host] = data
	r.mu.Unlock()

	return data, nil
}

func (r *RobotsChecker) cached(key string) (int, []byte, error) {
	if r.store == nil {
		return 0, nil, fmt.Errorf("no cache")
	}
	raw, ok := r.store.Get(key)
	if !ok {
		return 0, nil, fmt.Errorf("cache miss")
	}
	return decodeRobots(raw)
}

func (r *RobotsChecker) fetch(ctx context.Context, robotsURL string) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, robotsURL, nil)
	if err != nil {
		return 0, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("fetch robots.txt: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 512*1024))
	if err != nil {
		return 0, nil, fmt.Errorf("read robots.txt: %w", err)
	}
	return resp.StatusCode, body, nil
}

// encodeRobots stores the status code on the first line followed by the body
func encodeRobots(status int, body []byte) []byte {
	return append([]byte(strconv.Itoa(status)+"\n"), body...)
}

func decodeRobots(raw []byte) (int, []byte, error) {
	head, body, ok := strings.Cut(string(raw), "\n")
	if !ok {
		return 0, nil, fmt.Errorf("malformed cached robots.txt")
	}
	status, err := strconv.Atoi(head)
	if err != nil {
		return 0, nil, fmt.Errorf("malformed cached robots.txt status: %w", err)
	}
	return status, []byte(body), nil
}

// Clear drops the parsed robots.txt files
func (r *RobotsChecker) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.parsed = make(map[string]*robotstxt.RobotsData)
}

// NormalizeUserAgent normalizes the user agent string for robots.txt matching
func NormalizeUserAgent(ua string) string {
	// Extract the product name (first token)
	parts := strings.Fields(ua)
	if len(parts) > 0 {
		// Remove version if present
		return strings.Split(parts[0], "/")[0]
	}
	return ua
}
