// Package annotate marks verified facts in the original text.
package annotate

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
)

const systemPrompt = `You are an AI assistant tasked with adding fact-check annotations to a given text.
For each fact in the text that has been verified, add an inline annotation
right after the fact, using the following format:
[Fact: <STATUS> (Confidence: <CONFIDENCE>) - <BRIEF_EXPLANATION>]
Where <STATUS> is the Truth-O-Meter rating of the fact, <CONFIDENCE> is the confidence score,
and <BRIEF_EXPLANATION> is a very short explanation.`

const userPrompt = `Original text:
%s

Verified facts:
%s

Please add fact-check annotations to the original text based on the verified facts.`

// Annotator rewrites text with inline verdict annotations
type Annotator struct {
	client llm.Completer
	logger *slog.Logger
}

// NewAnnotator creates an annotator
func NewAnnotator(client llm.Completer, logger *slog.Logger) *Annotator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Annotator{
		client: client,
		logger: logger,
	}
}

// Annotate issues one model call and returns its text untouched.
// Without facts the original text is returned and no call is made.
func (a *Annotator) Annotate(ctx context.Context, text string, facts model.VerifiedFacts) (string, error) {
	if len(facts) == 0 {
		return text, nil
	}

	factMap, err := json.MarshalIndent(FactMap(facts), "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode facts: %w", err)
	}

	annotated, err := a.client.Complete(ctx, llm.Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf(userPrompt, text, factMap),
	})
	if err != nil {
		return "", err
	}

	a.logger.Debug("annotated text generated", "length", len(annotated))
	return annotated, nil
}

// FactMap keys each verified fact by its claimed statement.
// A statement verified twice keeps the verdict with the highest key.
func FactMap(facts model.VerifiedFacts) map[string]model.VerifiedFact {
	byStatement := make(map[string]model.VerifiedFact, len(facts))
	for _, f := range facts.Ordered() {
		byStatement[f.Claimed] = f
	}
	return byStatement
}
