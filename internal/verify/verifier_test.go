package verify

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/logging"
	"github.com/ppiankov/factcheck/internal/model"
)

// scriptedCompleter replays responses in order; an error entry fails that call
type scriptedCompleter struct {
	steps   []step
	calls   int
	prompts []llm.Prompt
}

type step struct {
	response string
	err      error
}

func (s *scriptedCompleter) Complete(ctx context.Context, prompt llm.Prompt) (string, error) {
	s.prompts = append(s.prompts, prompt)
	idx := s.calls
	s.calls++
	if idx >= len(s.steps) {
		idx = len(s.steps) - 1
	}
	return s.steps[idx].response, s.steps[idx].err
}

func repeat(st step, n int) []step {
	steps := make([]step, n)
	for i := range steps {
		steps[i] = st
	}
	return steps
}

const falseVerdict = `{"Rating":"FALSE","confidence":0.9,"explanation":"The rate was lower in 1969."}`

var (
	unemploymentClaims = []model.Claim{
		{ID: "c-0", Index: 0, Statement: "The unemployment rate is the lowest it's been in 50 years.", Tags: []model.Tag{model.TagVerifiable}},
		{ID: "c-1", Index: 1, Statement: "In contrast, the stock market is bad.", Tags: []model.Tag{model.TagMisleading, model.TagCuriosity}},
	}
	unemploymentContext = "The unemployment rate was 3.4 percent in 1969."
	unemploymentGraph   = model.KnowledgeGraph{
		"United States": {
			"lowest unemployment rate": {Value: "3.4 percent in 1969", Source: "The unemployment rate was 3.4 percent in 1969."},
		},
	}
)

func defaultOptions() Options {
	return OptionsFromConfig(model.DefaultConfig().Pipeline, model.DefaultConfig().Verify)
}

func TestVerify_UnemploymentScenario(t *testing.T) {
	stub := &scriptedCompleter{steps: []step{{response: falseVerdict}}}

	facts, err := NewVerifier(stub, defaultOptions(), logging.Discard()).
		Verify(context.Background(), unemploymentClaims, unemploymentGraph, unemploymentContext)
	require.NoError(t, err)
	require.Len(t, facts, 2)

	first, ok := facts["0"]
	require.True(t, ok, "first claim is keyed \"0\"")
	assert.Equal(t, unemploymentClaims[0].Statement, first.Claimed)
	assert.Equal(t, model.RatingFalse, first.Rating)
	assert.Equal(t, 0.9, first.Confidence)
	assert.Equal(t, "c-0", first.ClaimID)

	assert.Equal(t, unemploymentClaims[1].Statement, facts["1"].Claimed)
	assert.Equal(t, []string{"0", "1"}, facts.Keys())
}

func TestVerify_Sequential(t *testing.T) {
	stub := &scriptedCompleter{steps: []step{
		{response: `{"Rating":"TRUE","confidence":0.8,"explanation":"a"}`},
		{response: `{"Rating":"half-true","confidence":0.5,"explanation":"b"}`},
	}}

	facts, err := NewVerifier(stub, defaultOptions(), nil).
		Verify(context.Background(), unemploymentClaims, unemploymentGraph, unemploymentContext)
	require.NoError(t, err)

	assert.Equal(t, model.RatingTrue, facts["0"].Rating)
	assert.Equal(t, model.RatingHalfTrue, facts["1"].Rating)
	require.Len(t, stub.prompts, 2)
	assert.Contains(t, stub.prompts[0].User, "Claimed Fact: "+unemploymentClaims[0].Statement)
	assert.Contains(t, stub.prompts[1].User, "Claimed Fact: "+unemploymentClaims[1].Statement)
}

func TestVerify_NoClaims(t *testing.T) {
	stub := &scriptedCompleter{steps: []step{{response: falseVerdict}}}

	facts, err := NewVerifier(stub, defaultOptions(), nil).Verify(context.Background(), nil, nil, "")
	require.NoError(t, err)
	assert.Empty(t, facts)
	assert.Zero(t, stub.calls)
}

func TestVerifyOne_SucceedsOnThirdAttempt(t *testing.T) {
	boom := errors.New("temporary failure")
	stub := &scriptedCompleter{steps: []step{{err: boom}, {err: boom}, {response: falseVerdict}}}

	verification, err := NewVerifier(stub, defaultOptions(), nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, unemploymentContext)
	require.NoError(t, err)
	assert.Equal(t, 3, stub.calls)
	assert.Equal(t, model.RatingFalse, verification.Rating)
}

func TestVerifyOne_ExhaustsAfterThreeAttempts(t *testing.T) {
	boom := errors.New("model unavailable")
	stub := &scriptedCompleter{steps: repeat(step{err: boom}, 5)}

	_, err := NewVerifier(stub, defaultOptions(), nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, unemploymentContext)
	assert.Same(t, boom, err)
	assert.Equal(t, 3, stub.calls)
}

func TestVerify_AbortsOnExhaustedClaim(t *testing.T) {
	boom := errors.New("model unavailable")
	stub := &scriptedCompleter{steps: append([]step{{response: falseVerdict}}, repeat(step{err: boom}, 3)...)}

	facts, err := NewVerifier(stub, defaultOptions(), nil).
		Verify(context.Background(), unemploymentClaims, unemploymentGraph, unemploymentContext)
	assert.Nil(t, facts)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "claim 1")
	assert.Equal(t, 4, stub.calls)
}

func TestVerifyOne_InvalidRatingIsRetried(t *testing.T) {
	stub := &scriptedCompleter{steps: []step{
		{response: `{"Rating":"NOT SURE","confidence":0.2,"explanation":"?"}`},
		{response: `{"confidence":0.2,"explanation":"no rating"}`},
		{response: "```json\n" + falseVerdict + "\n```"},
	}}

	verification, err := NewVerifier(stub, defaultOptions(), nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, unemploymentContext)
	require.NoError(t, err)
	assert.Equal(t, 3, stub.calls)
	assert.Equal(t, model.RatingFalse, verification.Rating)
}

func TestVerifyOne_InvalidRatingExhausted(t *testing.T) {
	stub := &scriptedCompleter{steps: repeat(step{response: `{"confidence":0.2}`}, 3)}

	_, err := NewVerifier(stub, defaultOptions(), nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, unemploymentContext)

	var parseErr *llm.ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.ErrorIs(t, err, errMissingRating)
}

func TestVerifyOne_ContextInPrompt(t *testing.T) {
	stub := &scriptedCompleter{steps: []step{{response: falseVerdict}}}

	_, err := NewVerifier(stub, Options{IncludeContext: true}, nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, unemploymentContext)
	require.NoError(t, err)
	assert.Contains(t, stub.prompts[0].User, "Knowledge Graph:\n"+unemploymentGraph.String())
	assert.Contains(t, stub.prompts[0].User, "Context:\n"+unemploymentContext)

	stub = &scriptedCompleter{steps: []step{{response: falseVerdict}}}
	_, err = NewVerifier(stub, Options{IncludeContext: false}, nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, unemploymentContext)
	require.NoError(t, err)
	assert.Contains(t, stub.prompts[0].User, "Knowledge Graph:\n"+unemploymentGraph.String())
	assert.NotContains(t, stub.prompts[0].User, "\nContext:\n")

	// context text that is not a graph source must only reach the prompt through the context block
	const extra = "Payroll growth averaged 180,000 jobs a month."
	stub = &scriptedCompleter{steps: []step{{response: falseVerdict}}}
	_, err = NewVerifier(stub, Options{IncludeContext: false}, nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, unemploymentContext+" "+extra)
	require.NoError(t, err)
	assert.NotContains(t, stub.prompts[0].User, extra)
}

func TestVerifyOne_Confidence(t *testing.T) {
	response := `{"Rating":"TRUE","confidence":1.4,"explanation":"overconfident"}`

	stub := &scriptedCompleter{steps: []step{{response: response}}}
	verification, err := NewVerifier(stub, Options{}, nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, "")
	require.NoError(t, err)
	assert.Equal(t, 1.4, verification.Confidence, "reported as-is by default")

	stub = &scriptedCompleter{steps: []step{{response: response}}}
	verification, err = NewVerifier(stub, Options{ClampConfidence: true}, nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, "")
	require.NoError(t, err)
	assert.Equal(t, 1.0, verification.Confidence)
}

func TestVerifyOne_LowConfidenceKeepsRating(t *testing.T) {
	stub := &scriptedCompleter{steps: []step{{response: `{"Rating":"MOSTLY FALSE","confidence":0.1,"explanation":"unsure"}`}}}

	verification, err := NewVerifier(stub, defaultOptions(), nil).
		VerifyOne(context.Background(), unemploymentClaims[0], unemploymentGraph, "")
	require.NoError(t, err)
	assert.Equal(t, model.RatingMostlyFalse, verification.Rating)
}

func TestClamp(t *testing.T) {
	assert.Equal(t, 0.0, clamp(-0.5))
	assert.Equal(t, 0.5, clamp(0.5))
	assert.Equal(t, 1.0, clamp(2))
}
