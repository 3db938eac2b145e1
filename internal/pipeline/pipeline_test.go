package pipeline

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/logging"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/search"
)

const article = "The unemployment rate is the lowest it's been in 50 years. In contrast, the stock market is bad."

const (
	claimsResponse   = `[{"statement": "The unemployment rate is the lowest it's been in 50 years.", "tags": ["Verifiable"]}, {"statement": "In contrast, the stock market is bad.", "tags": ["Misleading", "Curiosity"]}]`
	keywordsResponse = "unemployment rate history, stock market 2019"
	graphResponse    = "```json\n" + `{"United States": {"lowest unemployment rate": {"value": "3.4 percent in 1969", "source": "The unemployment rate was 3.4 percent in 1969."}}}` + "\n```"
	verdictResponse  = `{"Rating": "FALSE", "confidence": 0.9, "explanation": "The rate was lower in 1969."}`
	annotatedText    = "The unemployment rate is the lowest it's been in 50 years. [Fact: FALSE (Confidence: 0.9) - Lower in 1969.]"
	searchContext    = "The unemployment rate was 3.4 percent in 1969."
)

// routedCompleter answers each stage by recognising its prompt
type routedCompleter struct {
	mu        sync.Mutex
	responses map[string]string
	errs      map[string]error
	calls     map[string]int
}

func newRoutedCompleter() *routedCompleter {
	return &routedCompleter{
		responses: map[string]string{
			"extract":  claimsResponse,
			"keywords": keywordsResponse,
			"graph":    graphResponse,
			"verify":   verdictResponse,
			"annotate": annotatedText,
		},
		errs:  make(map[string]error),
		calls: make(map[string]int),
	}
}

func (r *routedCompleter) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	route := routeOf(prompt)

	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls[route]++
	if err := r.errs[route]; err != nil {
		return "", err
	}
	return r.responses[route], nil
}

func (r *routedCompleter) count(route string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[route]
}

func routeOf(prompt llm.Prompt) string {
	switch {
	case strings.HasPrefix(prompt.System, "Extract statements"):
		return "extract"
	case strings.Contains(prompt.System, "search keywords"):
		return "keywords"
	case strings.Contains(prompt.System, "knowledge graphs"):
		return "graph"
	case strings.Contains(prompt.System, "Truth-O-Meter rating for a given claim"):
		return "verify"
	case strings.Contains(prompt.System, "fact-check annotations"):
		return "annotate"
	}
	return "unknown"
}

// recordingBackend returns fixed text and records queries
type recordingBackend struct {
	text    string
	err     error
	queries []string
}

func (b *recordingBackend) Name() string { return "recording" }

func (b *recordingBackend) Search(ctx context.Context, query string) (string, error) {
	b.queries = append(b.queries, query)
	return b.text, b.err
}

var _ search.Backend = (*recordingBackend)(nil)

func newPipeline(client llm.Completer, backend search.Backend) *Pipeline {
	return New(Deps{Client: client, Search: backend, Logger: logging.Discard()}, model.DefaultConfig())
}

func TestRun_UnemploymentScenario(t *testing.T) {
	client := newRoutedCompleter()
	backend := &recordingBackend{text: searchContext}

	report, err := newPipeline(client, backend).Run(context.Background(), Input{Text: article})
	require.NoError(t, err)

	require.Len(t, report.Claims, 2)
	assert.Equal(t, searchContext, report.Context)
	assert.Equal(t, model.SourceGenerated, report.ContextSource)
	assert.Equal(t, model.SourceGenerated, report.GraphSource)
	assert.Contains(t, report.Graph, "United States")

	require.Len(t, report.Facts, 2)
	first := report.Facts["0"]
	assert.Equal(t, "The unemployment rate is the lowest it's been in 50 years.", first.Claimed)
	assert.Equal(t, model.RatingFalse, first.Rating)
	assert.Equal(t, 0.9, first.Confidence)

	assert.Equal(t, annotatedText, report.AnnotatedText)
	require.Equal(t, []string{"unemployment rate history stock market 2019"}, backend.queries)

	assert.Equal(t, 1, client.count("extract"))
	assert.Equal(t, 1, client.count("keywords"))
	assert.Equal(t, 1, client.count("graph"))
	assert.Equal(t, 2, client.count("verify"))
	assert.Equal(t, 1, client.count("annotate"))

	var labels []string
	for _, s := range report.Segments {
		if s.Label != "" {
			labels = append(labels, s.Label)
		}
	}
	assert.Equal(t, []string{"FALSE", "FALSE"}, labels)
	assert.Equal(t, 2, report.Summary.Facts)
	assert.Equal(t, 2, report.Summary.RatingCounts[model.RatingFalse])

	for _, stage := range []string{StageExtract, StageSearch, StageGraph, StageVerify, StageAnnotate} {
		assert.Contains(t, report.Meta.Stages, stage)
	}
	assert.False(t, report.Meta.FinishedAt.Before(report.Meta.StartedAt))
}

func TestRun_SuppliedContextSkipsSearch(t *testing.T) {
	client := newRoutedCompleter()
	backend := &recordingBackend{text: "unused"}
	supplied := "Supplied context."

	report, err := newPipeline(client, backend).Run(context.Background(), Input{Text: article, Context: &supplied})
	require.NoError(t, err)

	assert.Equal(t, supplied, report.Context)
	assert.Equal(t, model.SourceSupplied, report.ContextSource)
	assert.Empty(t, backend.queries)
	assert.Equal(t, 0, client.count("keywords"))
	assert.NotContains(t, report.Meta.Stages, StageSearch)
}

func TestRun_SuppliedEmptyContextSkipsSearch(t *testing.T) {
	client := newRoutedCompleter()
	empty := ""

	report, err := newPipeline(client, nil).Run(context.Background(), Input{Text: article, Context: &empty})
	require.NoError(t, err)

	assert.Empty(t, report.Context)
	assert.Equal(t, model.SourceSupplied, report.ContextSource)
}

func TestRun_SuppliedGraphSkipsBuild(t *testing.T) {
	client := newRoutedCompleter()
	supplied := "Context."
	kg := model.KnowledgeGraph{"Markets": {"trend": {Value: "up", Source: "Context."}}}

	report, err := newPipeline(client, nil).Run(context.Background(), Input{Text: article, Context: &supplied, Graph: kg})
	require.NoError(t, err)

	assert.Equal(t, kg, report.Graph)
	assert.Equal(t, model.SourceSupplied, report.GraphSource)
	assert.Equal(t, 0, client.count("graph"))
	assert.Equal(t, 2, client.count("verify"))
}

func TestRun_NoSearchBackend(t *testing.T) {
	_, err := newPipeline(newRoutedCompleter(), nil).Run(context.Background(), Input{Text: article})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSearchBackend)
	assert.Contains(t, err.Error(), "search context")
}

func TestRun_StageErrors(t *testing.T) {
	tests := []struct {
		route string
		label string
	}{
		{"extract", "extract claims"},
		{"keywords", "search context"},
		{"graph", "build knowledge graph"},
		{"verify", "verify facts"},
		{"annotate", "annotate text"},
	}

	for _, tt := range tests {
		t.Run(tt.route, func(t *testing.T) {
			boom := errors.New(tt.route + " unavailable")
			client := newRoutedCompleter()
			client.errs[tt.route] = boom

			report, err := newPipeline(client, &recordingBackend{text: searchContext}).
				Run(context.Background(), Input{Text: article})
			require.Error(t, err)
			assert.Nil(t, report)
			assert.ErrorIs(t, err, boom)
			assert.True(t, strings.HasPrefix(err.Error(), tt.label+": "), "got %q", err.Error())
		})
	}
}

func TestRun_GraphRetriedThenFails(t *testing.T) {
	client := newRoutedCompleter()
	client.responses["graph"] = "not a graph"

	_, err := newPipeline(client, &recordingBackend{text: searchContext}).Run(context.Background(), Input{Text: article})
	require.Error(t, err)

	var parseErr *llm.ParseError
	assert.ErrorAs(t, err, &parseErr)
	assert.Equal(t, 3, client.count("graph"))
	assert.Equal(t, 0, client.count("verify"))
}

func TestRun_BackendError(t *testing.T) {
	boom := errors.New("search offline")
	_, err := newPipeline(newRoutedCompleter(), &recordingBackend{err: boom}).Run(context.Background(), Input{Text: article})
	assert.ErrorIs(t, err, boom)
}

func TestRun_NoClaims(t *testing.T) {
	client := newRoutedCompleter()
	client.responses["extract"] = "[]"
	supplied := "Context."

	report, err := newPipeline(client, nil).Run(context.Background(), Input{Text: article, Context: &supplied})
	require.NoError(t, err)

	assert.Empty(t, report.Facts)
	assert.Equal(t, article, report.AnnotatedText, "annotation without facts returns the text")
	assert.Equal(t, 0, client.count("annotate"))
	assert.Equal(t, 0, report.Summary.Index)
}

func TestCheck(t *testing.T) {
	facts, annotated, err := newPipeline(newRoutedCompleter(), &recordingBackend{text: searchContext}).
		Check(context.Background(), article)
	require.NoError(t, err)
	assert.Len(t, facts, 2)
	assert.Equal(t, annotatedText, annotated)
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 100))
	assert.Equal(t, "abc...", preview("abcdef", 3))
	assert.Equal(t, "ééé...", preview("éééé", 3))
}
