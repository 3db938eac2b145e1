// Package extract pulls fact-checkable claims out of a passage of text.
package extract

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
)

// ErrNoText is returned when there is nothing to extract claims from
var ErrNoText = errors.New("no text to extract claims from")

const systemPrompt = `Extract statements to fact-check based on specific criteria and assign them a tag indicating their suitability for fact-checking.

Consider the following criteria for each statement:
1. **Verifiable**: Is the statement rooted in a fact that can be verified? Avoid statements that are opinions, hyperboles, or exaggerated rhetorical statements.
2. **Misleading**: Does the statement seem misleading or sound incorrect in any way?
3. **Curiosity**: Would a typical person hear or read the statement and wonder or question if it's true?

# Steps

1. **Extract Statements**: Carefully identify and extract verbatim statements eligible for fact-checking.
2. **Assess and Tag**: Evaluate each extracted statement against the above criteria and assign tags.

# Output Format

- Each extracted statement should be followed by its assigned tag in JSON format.
- Give tags from ["Verifiable", "Misleading", "Curiosity"]
- Json structure: array of objects with keys "statement" and "tags" like below
` + "```json" + `
[
    {
        "statement": #YOUR_STATEMENT#,
        "tags": #YOUR_TAGS#
    },
    {
        "statement": #YOUR_STATEMENT#,
        "tags": #YOUR_TAGS#
    }
]
` + "```" + `

# Examples

**Input:**
"The unemployment rate is the lowest it's been in 50 years. In contrast, the stock market is bad."

**Output:**
[{"statement": "The unemployment rate is the lowest it's been in 50 years.", "tags": ["Verifiable"]}, {"statement": "In contrast, the stock market is bad.", "tags": ["Misleading", "Curiosity"]}]

# Notes

- Focus on statements that fulfill multiple criteria for a more robust fact-checking process.
- Ensure that opinion-based statements are not extracted for fact-checking purposes.`

const userPrompt = `Extract as many claims as possible from the following text:

# Passage
%s`

// rawClaim is the shape the model is asked to return
type rawClaim struct {
	Statement string   `json:"statement"`
	Tags      []string `json:"tags"`
}

// ClaimExtractor extracts tagged claims from text with a language model
type ClaimExtractor struct {
	client llm.Completer
	logger *slog.Logger
	newID  func() string
}

// NewClaimExtractor creates a new claim extractor
func NewClaimExtractor(client llm.Completer, logger *slog.Logger) *ClaimExtractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &ClaimExtractor{
		client: client,
		logger: logger,
		newID:  uuid.NewString,
	}
}

// Extract asks the model for claims and returns the valid ones in order.
// A response that cannot be parsed is returned as an error without retrying.
func (e *ClaimExtractor) Extract(ctx context.Context, text string) ([]model.Claim, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoText
	}

	response, err := e.client.Complete(ctx, llm.Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf(userPrompt, text),
	})
	if err != nil {
		return nil, err
	}

	var raw []rawClaim
	if err := llm.ParseJSON(response, &raw); err != nil {
		return nil, err
	}

	return e.toClaims(raw), nil
}

// toClaims keeps entries with a statement and at least one known tag
func (e *ClaimExtractor) toClaims(raw []rawClaim) []model.Claim {
	claims := make([]model.Claim, 0, len(raw))

	for _, r := range raw {
		if strings.TrimSpace(r.Statement) == "" {
			e.logger.Debug("dropping claim without statement")
			continue
		}

		tags := make([]model.Tag, 0, len(r.Tags))
		seen := make(map[model.Tag]bool)
		for _, s := range r.Tags {
			tag, err := model.ParseTag(s)
			if err != nil {
				e.logger.Debug("dropping unknown claim tag", "tag", s)
				continue
			}
			if !seen[tag] {
				seen[tag] = true
				tags = append(tags, tag)
			}
		}
		if len(tags) == 0 {
			e.logger.Debug("dropping claim without valid tags", "statement", r.Statement)
			continue
		}

		claims = append(claims, model.Claim{
			ID:        e.newID(),
			Index:     len(claims),
			Statement: r.Statement,
			Tags:      tags,
		})
	}

	return claims
}
