package search

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"github.com/ppiankov/factcheck/internal/metrics"
	"github.com/ppiankov/factcheck/internal/worker"
)

const defaultDuckDuckGoEndpoint = "https://html.duckduckgo.com/html/"

// DuckDuckGoConfig configures the DuckDuckGo HTML backend
type DuckDuckGoConfig struct {
	Endpoint          string // Defaults to the public HTML endpoint
	MaxResults        int
	Region            string // kl parameter, e.g. wt-wt
	Timeout           time.Duration
	RequestsPerSecond float64
	UserAgent         string
	Proxy             func(*http.Request) (*url.URL, error) // nil uses the environment
}

// Result is a single search hit
type Result struct {
	Title   string
	Link    string
	Snippet string
}

// String renders the hit the way it is placed into prompts
func (r Result) String() string {
	return fmt.Sprintf("snippet: %s, title: %s, link: %s", r.Snippet, r.Title, r.Link)
}

// DuckDuckGo queries the DuckDuckGo HTML endpoint and scrapes its result list
type DuckDuckGo struct {
	config     DuckDuckGoConfig
	httpClient *http.Client
	limiter    *worker.Limiter
}

// NewDuckDuckGo creates a DuckDuckGo backend
func NewDuckDuckGo(config DuckDuckGoConfig) *DuckDuckGo {
	if config.Endpoint == "" {
		config.Endpoint = defaultDuckDuckGoEndpoint
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 5
	}
	if config.Timeout <= 0 {
		config.Timeout = 20 * time.Second
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	if config.Proxy != nil {
		transport.Proxy = config.Proxy
	}

	return &DuckDuckGo{
		config:     config,
		httpClient: &http.Client{Timeout: config.Timeout, Transport: transport},
		limiter:    worker.NewLimiter(config.RequestsPerSecond, 1),
	}
}

// Name returns the backend name
func (d *DuckDuckGo) Name() string {
	return "duckduckgo"
}

// Search runs the query and returns up to MaxResults hits joined into one string
func (d *DuckDuckGo) Search(ctx context.Context, query string) (string, error) {
	results, err := d.Results(ctx, query)
	metrics.SearchCalls.WithLabelValues(d.Name(), metrics.Outcome(err)).Inc()
	if err != nil {
		return "", err
	}

	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = r.String()
	}
	return strings.Join(parts, ", "), nil
}

// Results runs the query and returns the parsed hits
func (d *DuckDuckGo) Results(ctx context.Context, query string) ([]Result, error) {
	if err := d.limiter.WaitURL(ctx, d.config.Endpoint); err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	if d.config.Region != "" {
		params.Set("kl", d.config.Region)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, d.config.Endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if d.config.UserAgent != "" {
		req.Header.Set("User-Agent", d.config.UserAgent)
	}
	req.Header.Set("Accept", "text/html")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse results page: %w", err)
	}

	return parseResults(doc, d.config.MaxResults), nil
}

// parseResults walks the result list: each result__a link opens a hit and
// the following result__snippet element fills in its snippet
func parseResults(doc *html.Node, limit int) []Result {
	var results []Result

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if len(results) > limit {
			return
		}
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__a"):
				results = append(results, Result{
					Title: collapse(textContent(n)),
					Link:  unwrapLink(attr(n, "href")),
				})
				return
			case hasClass(n, "result__snippet"):
				if len(results) > 0 && results[len(results)-1].Snippet == "" {
					results[len(results)-1].Snippet = collapse(textContent(n))
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	if len(results) > limit {
		results = results[:limit]
	}
	return results
}

// unwrapLink resolves DuckDuckGo redirect links (/l/?uddg=<target>)
func unwrapLink(href string) string {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	parsed, err := url.Parse(href)
	if err != nil {
		return href
	}
	if target := parsed.Query().Get("uddg"); target != "" {
		return target
	}
	return href
}

func hasClass(n *html.Node, class string) bool {
	for _, field := range strings.Fields(attr(n, "class")) {
		if field == class {
			return true
		}
	}
	return false
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func textContent(n *html.Node) string {
	var buf strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			buf.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return buf.String()
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
