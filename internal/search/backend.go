package search

import (
	"context"
	"fmt"
	"strings"

	"github.com/ppiankov/factcheck/internal/metrics"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/util"
)

// Backend is a keyword-query service returning free text
type Backend interface {
	Name() string
	Search(ctx context.Context, query string) (string, error)
}

// Static always answers with the same text
type Static struct {
	Text string
}

// Name returns the backend name
func (s *Static) Name() string {
	return "static"
}

// Search returns the fixed text regardless of the query
func (s *Static) Search(ctx context.Context, query string) (string, error) {
	metrics.SearchCalls.WithLabelValues(s.Name(), metrics.Outcome(nil)).Inc()
	return s.Text, nil
}

// NewBackend creates the backend selected by config
func NewBackend(config model.SearchConfig, httpConfig model.HTTPConfig) (Backend, error) {
	switch strings.ToLower(config.Backend) {
	case "duckduckgo", "ddg", "":
		return NewDuckDuckGo(DuckDuckGoConfig{
			MaxResults:        config.MaxResults,
			Region:            config.Region,
			Timeout:           config.Timeout,
			RequestsPerSecond: config.RequestsPerSecond,
			UserAgent:         httpConfig.UserAgent,
			Proxy:             util.NewProxyFunc(httpConfig.HTTPProxy, httpConfig.HTTPSProxy, httpConfig.NoProxy),
		}), nil

	case "static":
		return &Static{Text: config.StaticText}, nil

	default:
		return nil, fmt.Errorf("unknown search backend: %s (supported: duckduckgo, static)", config.Backend)
	}
}
