package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factcheck/internal/logging"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/pipeline"
)

// fakeRunner records the input and returns a canned report
type fakeRunner struct {
	report *model.Report
	err    error
	inputs []pipeline.Input
}

func (f *fakeRunner) Run(ctx context.Context, in pipeline.Input) (*model.Report, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	report := *f.report
	report.Text = in.Text
	return &report, nil
}

func newTestServer(t *testing.T, runner *fakeRunner, samplesDir string) http.Handler {
	t.Helper()
	return New(func() Runner { return runner }, samplesDir, logging.Discard()).Handler()
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body), rec.Body.String())
	return body
}

func cannedReport() *model.Report {
	return &model.Report{
		Facts: model.VerifiedFacts{
			"0": {Claimed: "The unemployment rate is the lowest it's been in 50 years.", Rating: model.RatingFalse, Confidence: 0.9},
		},
		AnnotatedText: "annotated",
	}
}

func TestHealth(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeRunner{}, t.TempDir()), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", decode(t, rec)["status"])
}

func TestFactCheck(t *testing.T) {
	runner := &fakeRunner{report: cannedReport()}
	h := newTestServer(t, runner, t.TempDir())

	rec := do(t, h, http.MethodPost, "/api/v1/factcheck", `{"text": "The unemployment rate is the lowest it's been in 50 years."}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	body := decode(t, rec)
	facts, ok := body["verified_facts"].(map[string]any)
	require.True(t, ok)
	first, ok := facts["0"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "FALSE", first["Rating"])
	assert.Equal(t, "annotated", body["annotated_text"])

	require.Len(t, runner.inputs, 1)
	assert.Nil(t, runner.inputs[0].Context)
	assert.Nil(t, runner.inputs[0].Graph)
}

func TestFactCheck_SuppliedArtifacts(t *testing.T) {
	runner := &fakeRunner{report: cannedReport()}
	h := newTestServer(t, runner, t.TempDir())

	rec := do(t, h, http.MethodPost, "/api/v1/factcheck", `{
		"text": "Stocks are up.",
		"context": "",
		"knowledge_graph": {"Stocks": {"trend": {"value": "up", "source": "Stocks rose."}}}
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	require.Len(t, runner.inputs, 1)
	in := runner.inputs[0]
	require.NotNil(t, in.Context, "an empty context string is still supplied")
	assert.Equal(t, "", *in.Context)
	assert.Equal(t, "up", in.Graph["Stocks"]["trend"].Value)
}

func TestFactCheck_BadRequests(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"malformed", `{"text": `},
		{"empty text", `{"text": "   "}`},
		{"unknown field", `{"text": "x", "extra": true}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			runner := &fakeRunner{report: cannedReport()}
			rec := do(t, newTestServer(t, runner, t.TempDir()), http.MethodPost, "/api/v1/factcheck", tt.body)

			assert.Equal(t, http.StatusBadRequest, rec.Code)
			body := decode(t, rec)
			assert.Equal(t, "error", body["status"])
			assert.NotEmpty(t, body["error"])
			assert.Empty(t, runner.inputs)
		})
	}
}

func TestFactCheck_PipelineError(t *testing.T) {
	runner := &fakeRunner{err: errors.New("build knowledge graph: model unavailable")}
	rec := do(t, newTestServer(t, runner, t.TempDir()), http.MethodPost, "/api/v1/factcheck", `{"text": "Some claim."}`)

	assert.Equal(t, http.StatusBadGateway, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "error", body["status"])
	assert.Contains(t, body["error"], "model unavailable")
}

func TestAPI_MethodNotAllowed(t *testing.T) {
	h := newTestServer(t, &fakeRunner{}, t.TempDir())

	tests := []struct {
		method string
		path   string
	}{
		{method: http.MethodGet, path: "/api/v1/factcheck"},
		{method: http.MethodPut, path: "/api/v1/factcheck"},
		{method: http.MethodGet, path: "/api/v1/highlight"},
		{method: http.MethodPost, path: "/api/v1/samples"},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, h, tt.method, tt.path, "")
			assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
			assert.Equal(t, "error", decode(t, rec)["status"])
		})
	}
}

func TestHighlight(t *testing.T) {
	h := newTestServer(t, &fakeRunner{}, t.TempDir())

	rec := do(t, h, http.MethodPost, "/api/v1/highlight", `{
		"article": "Upstage is South Korea's most successful AI company. It was founded in 2020.",
		"claims": [
			{"claim": "It was founded in 2020.", "fact_rating": "TRUE", "reference": "company site"},
			{"claim": "Upstage is South Korea's most successful AI company", "fact_rating": "HALF TRUE"},
			{"claim": "Not present", "fact_rating": "FALSE"}
		]
	}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp HighlightResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, []model.Segment{
		{Text: "Upstage is South Korea's most successful AI company", Label: "HALF TRUE"},
		{Text: ". "},
		{Text: "It was founded in 2020.", Label: "TRUE"},
	}, resp.Segments)
}

func TestHighlight_EmptyArticle(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeRunner{}, t.TempDir()), http.MethodPost, "/api/v1/highlight", `{"article": "", "claims": []}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"segments": []}`, rec.Body.String())
}

func TestSamples(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "upstage.txt"), []byte("Upstage is an AI company."), 0o644))

	rec := do(t, newTestServer(t, &fakeRunner{}, dir), http.MethodGet, "/api/v1/samples", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"samples": [{"label": "upstage", "text": "Upstage is an AI company."}]}`, rec.Body.String())
}

func TestMetrics(t *testing.T) {
	h := newTestServer(t, &fakeRunner{}, t.TempDir())
	do(t, h, http.MethodGet, "/healthz", "")

	rec := do(t, h, http.MethodGet, "/metrics", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "factcheck_http_requests_total")
}

func TestNotFound(t *testing.T) {
	rec := do(t, newTestServer(t, &fakeRunner{}, t.TempDir()), http.MethodGet, "/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "error", decode(t, rec)["status"])
}
