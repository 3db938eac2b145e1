// Package search derives search keywords from a passage and gathers context text.
package search

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
)

const systemPrompt = "You are an expert at generating concise and relevant search keywords. Your task is to analyze the given text and extracted facts, then produce a list of 3-5 search keywords or short phrases that would be most effective for finding additional context and verification information."

const userPrompt = `Given the following text and extracted facts, generate a list of 3-5 search keywords or short phrases:

Text: %s

Extracted Facts:
%s

Provide only the keywords or short phrases, separated by commas.`

// ContextSearcher turns a passage and its claims into one search query
type ContextSearcher struct {
	client  llm.Completer
	backend Backend
	logger  *slog.Logger
}

// NewContextSearcher creates a searcher around a model handle and a search backend
func NewContextSearcher(client llm.Completer, backend Backend, logger *slog.Logger) *ContextSearcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &ContextSearcher{
		client:  client,
		backend: backend,
		logger:  logger,
	}
}

// Search asks the model for keywords, issues exactly one backend query and
// returns the backend text verbatim. An empty keyword list yields an empty query.
func (s *ContextSearcher) Search(ctx context.Context, text string, claims []model.Claim) (string, error) {
	facts := strings.Join(model.Statements(claims), "\n")

	response, err := s.client.Complete(ctx, llm.Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf(userPrompt, text, facts),
	})
	if err != nil {
		return "", fmt.Errorf("generate keywords: %w", err)
	}

	keywords := ParseKeywords(response)
	query := strings.Join(keywords, " ")
	s.logger.Debug("search keywords", "keywords", keywords, "backend", s.backend.Name())

	result, err := s.backend.Search(ctx, query)
	if err != nil {
		return "", fmt.Errorf("%s search: %w", s.backend.Name(), err)
	}
	return result, nil
}

// ParseKeywords splits a comma-separated model answer, dropping blanks
func ParseKeywords(response string) []string {
	var keywords []string
	for _, kw := range strings.Split(response, ",") {
		if kw = strings.TrimSpace(kw); kw != "" {
			keywords = append(keywords, kw)
		}
	}
	return keywords
}
