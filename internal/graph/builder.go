// Package graph builds a knowledge graph whose facts are grounded in search context.
package graph

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
)

const systemPrompt = `You are an expert in building knowledge graphs.
Your task is to analyze the given context and construct a knowledge graph, using the claimed facts only as inspiration for the schema without assuming their truth.
Include source information for each fact.`

const userPrompt = `Given the following context and claimed facts, construct a knowledge graph.
Assume all information in the context is true, but use the claimed facts only as hints for the types of relations to look for.

Context:
%s

Claimed Facts (use only as schema hints):
%s

Construct the knowledge graph as a JSON object where keys are entities and values are dictionaries of relations. Each relation should have a "value" and a "source" (a relevant quote from the context).

Example format:
{
  "Entity1": {
    "relation1": {
      "value": "Value1",
      "source": "Relevant quote from context"
    },
    "relation2": {
      "value": "Value2",
      "source": "Another relevant quote"
    }
  },
  "Entity2": {
    ...
  }
}

Ensure that:
1. All information comes from the context, not the claimed facts.
2. Each fact has a source quote from the context.
3. The schema is inspired by, but not limited to, the relations in the claimed facts.

Construct the knowledge graph:`

// Builder constructs knowledge graphs with a language model
type Builder struct {
	client      llm.Completer
	maxAttempts int
	logger      *slog.Logger
}

// NewBuilder creates a graph builder. maxAttempts <= 0 uses llm.DefaultMaxAttempts.
func NewBuilder(client llm.Completer, maxAttempts int, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = slog.Default()
	}
	if maxAttempts <= 0 {
		maxAttempts = llm.DefaultMaxAttempts
	}
	return &Builder{
		client:      client,
		maxAttempts: maxAttempts,
		logger:      logger,
	}
}

// Build asks the model for a graph of the context, retrying any failure.
// Source quotes missing from the context are logged, never rejected.
func (b *Builder) Build(ctx context.Context, claims []model.Claim, contextText string) (model.KnowledgeGraph, error) {
	prompt := llm.Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf(userPrompt, contextText, strings.Join(model.Statements(claims), "\n")),
	}

	kg, err := llm.Retry(ctx, "graph", b.maxAttempts, func(ctx context.Context) (model.KnowledgeGraph, error) {
		response, err := b.client.Complete(ctx, prompt)
		if err != nil {
			return nil, err
		}

		var kg model.KnowledgeGraph
		if err := llm.ParseJSON(response, &kg); err != nil {
			b.logger.Debug("knowledge graph response rejected", "error", err)
			return nil, err
		}
		if kg == nil {
			kg = model.KnowledgeGraph{}
		}
		return kg, nil
	})
	if err != nil {
		return nil, err
	}

	for _, src := range kg.UngroundedSources(contextText) {
		b.logger.Warn("knowledge graph source not found in context", "source", src)
	}
	return kg, nil
}
