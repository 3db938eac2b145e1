package source

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/ppiankov/factcheck/internal/cache"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/util"
	"github.com/ppiankov/factcheck/internal/worker"
)

// ErrDisallowed is returned when robots.txt forbids fetching a URL
var ErrDisallowed = errors.New("disallowed by robots.txt")

// ErrNoText is returned when a page has no readable text
var ErrNoText = errors.New("no readable text")

// StatusError reports a non-2xx response
type StatusError struct {
	Code   int
	Status string
}

func (e *StatusError) Error() string {
	return "unexpected status: " + e.Status
}

// transient reports whether the status is worth another attempt
func (e *StatusError) transient() bool {
	return e.Code == http.StatusTooManyRequests || e.Code >= 500
}

// newFetchBackOff is replaced in tests
var newFetchBackOff = func() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 500 * time.Millisecond
	b.MaxElapsedTime = 10 * time.Second
	return backoff.WithMaxRetries(b, 2)
}

// Document is the readable text of a fetched page
type Document struct {
	URL         string    `json:"url"`
	FinalURL    string    `json:"final_url"`
	Title       string    `json:"title,omitempty"`
	Subject     string    `json:"subject"`
	ContentType string    `json:"content_type,omitempty"`
	Text        string    `json:"text"`
	FetchedAt   time.Time `json:"fetched_at"`
	FromCache   bool      `json:"-"`
}

// Fetcher downloads articles, honoring robots.txt and per-host rate limits
type Fetcher struct {
	httpClient *http.Client
	userAgent  string
	maxBytes   int64
	robots     *util.RobotsChecker // nil when robots.txt is ignored
	limiter    *worker.Limiter
	store      cache.Cache // nil disables caching
	ttl        time.Duration
	logger     *slog.Logger
}

// NewFetcher creates a fetcher. store may be nil.
func NewFetcher(config model.HTTPConfig, store cache.Cache, ttl time.Duration, logger *slog.Logger) *Fetcher {
	if logger == nil {
		logger = slog.Default()
	}
	if config.Timeout <= 0 {
		config.Timeout = 30 * time.Second
	}
	if config.MaxBodyBytes <= 0 {
		config.MaxBodyBytes = 2_000_000
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)

	httpClient := &http.Client{
		Timeout:   config.Timeout,
		Transport: transport,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= 3 {
				return fmt.Errorf("stopped after 3 redirects")
			}
			return nil
		},
	}

	f := &Fetcher{
		httpClient: httpClient,
		userAgent:  config.UserAgent,
		maxBytes:   config.MaxBodyBytes,
		limiter:    worker.NewLimiter(1, 1),
		store:      store,
		ttl:        ttl,
		logger:     logger,
	}
	if config.RespectRobots {
		f.robots = util.NewRobotsChecker(httpClient, config.UserAgent, store, ttl)
	}
	return f
}

// Fetch returns the readable text of rawURL, from the cache when possible
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Document, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return nil, fmt.Errorf("invalid URL %q", rawURL)
	}

	key := cache.Key("source", rawURL)
	if doc, ok := f.cached(key); ok {
		f.logger.Debug("source cache hit", "url", rawURL)
		return doc, nil
	}

	var crawlDelay time.Duration
	if f.robots != nil {
		allowed, delay, err := f.robots.CanFetch(ctx, rawURL)
		if err != nil {
			return nil, fmt.Errorf("check robots.txt: %w", err)
		}
		if !allowed {
			return nil, fmt.Errorf("%s: %w", rawURL, ErrDisallowed)
		}
		crawlDelay = delay
	}

	if err := f.limiter.WaitWithDelay(ctx, parsed.Host, crawlDelay); err != nil {
		return nil, err
	}

	var doc *Document
	operation := func() error {
		d, err := f.fetchOnce(ctx, rawURL)
		if err != nil {
			var statusErr *StatusError
			if ctx.Err() != nil || (errors.As(err, &statusErr) && !statusErr.transient()) || errors.Is(err, ErrNoText) {
				return backoff.Permanent(err)
			}
			f.logger.Debug("fetch attempt failed", "url", rawURL, "error", err)
			return err
		}
		doc = d
		return nil
	}
	if err := backoff.Retry(operation, backoff.WithContext(newFetchBackOff(), ctx)); err != nil {
		return nil, err
	}

	if f.store != nil {
		if data, err := json.Marshal(doc); err == nil {
			if err := f.store.Set(key, data, f.ttl); err != nil {
				f.logger.Warn("cache source document", "url", rawURL, "error", err)
			}
		}
	}

	return doc, nil
}

func (f *Fetcher) cached(key string) (*Document, bool) {
	if f.store == nil {
		return nil, false
	}
	data, ok := f.store.Get(key)
	if !ok {
		return nil, false
	}
	var doc Document
	if err := json.Unmarshal(data, &doc); err != nil {
		_ = f.store.Delete(key)
		return nil, false
	}
	doc.FromCache = true
	return &doc, true
}

func (f *Fetcher) fetchOnce(ctx context.Context, rawURL string) (*Document, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,text/plain;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	resp, err := f.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &StatusError{Code: resp.StatusCode, Status: resp.Status}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	finalURL := resp.Request.URL.String()
	doc := &Document{
		URL:         rawURL,
		FinalURL:    finalURL,
		Subject:     extractSubject(finalURL),
		ContentType: resp.Header.Get("Content-Type"),
		FetchedAt:   time.Now().UTC(),
	}

	if mediaType, _, _ := mime.ParseMediaType(doc.ContentType); mediaType == "text/plain" {
		doc.Text = strings.TrimSpace(string(body))
	} else {
		doc.Title, doc.Text, err = VisibleText(bytes.NewReader(body))
		if err != nil {
			return nil, fmt.Errorf("parse html: %w", err)
		}
	}

	if doc.Text == "" {
		return nil, fmt.Errorf("%s: %w", rawURL, ErrNoText)
	}
	return doc, nil
}

// extractSubject extracts a human-readable subject from the URL
func extractSubject(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	path := strings.Trim(parsed.Path, "/")
	if path == "" {
		return parsed.Host
	}

	segments := strings.Split(path, "/")
	last := segments[len(segments)-1]

	// De-slugify and drop the extension
	last = strings.NewReplacer("_", " ", "-", " ").Replace(last)
	if idx := strings.LastIndex(last, "."); idx > 0 {
		last = last[:idx]
	}

	return last
}
