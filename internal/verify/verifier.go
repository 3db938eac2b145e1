// Package verify rates claims on the Truth-O-Meter scale against a knowledge graph.
package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
)

const systemPrompt = `Determine the Truth-O-Meter rating for a given claim based on its alignment with a provided knowledge graph, reflecting the statement's accuracy level.

Utilize the following rating system to classify the claim:

- **TRUE**: The statement is accurate with no significant information omitted.
- **MOSTLY TRUE**: The statement is accurate, but requires clarification or additional context.
- **HALF TRUE**: The statement is partially accurate, omitting vital details or context.
- **MOSTLY FALSE**: The statement contains some truth, but overlooks critical facts that change the overall impression.
- **FALSE**: The statement is inaccurate.
- **PANTS ON FIRE**: The statement is not only inaccurate but also makes a ridiculous claim.

# Steps
1. **Analyze the Claim**: Review the statement to understand its assertions.
2. **Reasoning**: Evaluate how the statement's details align with or diverge from the facts. Consider any missing context or overlooked information.
3. **Assign a Rating**: Based on the comparison and reasoning, choose the most appropriate Truth-O-Meter rating.

# Examples

**Example 1:**

- **Claim**: "X is the largest producer of Y."
- **Reasoning**: While X produces a significant amount, Z is verified as the largest, contradicting the claim.
- **Rating**: FALSE

**Example 2:**

- **Claim**: "A supports B according to government statistics."
- **Reasoning**: The claim is accurate but omits critical conditions attached to A's support.
- **Rating**: MOSTLY TRUE

# Notes

- Pay attention to the potential for missing context or partial truths.
- Use reasoning to substantiate the chosen rating before making a conclusion.
- Consider any relevant factual elements that exist outside the explicit nodes present in the knowledge graph.`

const userPrompt = `Verify the following claimed fact using the provided knowledge graph and context.
Claimed Fact: %s

Knowledge Graph:
%s
%s
Additionally, assign a confidence score between 0.0 and 1.0 that reflects the certainty of the categorization.
Provide the result in a JSON object with the following structure:
{
  "Rating": <Rating>,
  "confidence": <Confidence>,
  "explanation": "<BRIEF_EXPLANATION>"
}

Ensure that:
1. The categorization is based on the information in the knowledge graph and context.
2. The confidence score accurately reflects the certainty of the categorization.
3. The explanation briefly justifies the verification decision and confidence score.`

var errMissingRating = errors.New("missing Rating")

// Options tunes verification
type Options struct {
	MaxAttempts     int  // Attempts per claim (<= 0 uses llm.DefaultMaxAttempts)
	IncludeContext  bool // Embed the search context after the knowledge graph
	ClampConfidence bool // Clamp reported confidence into [0, 1]
}

// OptionsFromConfig builds Options from configuration
func OptionsFromConfig(pipeline model.PipelineConfig, verify model.VerifyConfig) Options {
	return Options{
		MaxAttempts:     pipeline.MaxAttempts,
		IncludeContext:  verify.IncludeContext,
		ClampConfidence: verify.ClampConfidence,
	}
}

// Verifier assigns ratings to claims with a language model
type Verifier struct {
	client  llm.Completer
	options Options
	logger  *slog.Logger
}

// NewVerifier creates a verifier
func NewVerifier(client llm.Completer, options Options, logger *slog.Logger) *Verifier {
	if logger == nil {
		logger = slog.Default()
	}
	if options.MaxAttempts <= 0 {
		options.MaxAttempts = llm.DefaultMaxAttempts
	}
	return &Verifier{
		client:  client,
		options: options,
		logger:  logger,
	}
}

// Verify rates each claim in order and keys the results by enumeration index.
// The first claim whose attempts are exhausted aborts with its error.
func (v *Verifier) Verify(ctx context.Context, claims []model.Claim, kg model.KnowledgeGraph, contextText string) (model.VerifiedFacts, error) {
	kgText := kg.String()
	facts := make(model.VerifiedFacts, len(claims))

	for i, claim := range claims {
		verification, err := v.verify(ctx, claim.Statement, kgText, contextText)
		if err != nil {
			return nil, fmt.Errorf("claim %d: %w", i, err)
		}

		facts[model.FactKey(i)] = model.VerifiedFact{
			ClaimID:     claim.ID,
			Claimed:     claim.Statement,
			Rating:      verification.Rating,
			Confidence:  verification.Confidence,
			Explanation: verification.Explanation,
		}
	}

	return facts, nil
}

// VerifyOne rates a single claim, retrying any failure
func (v *Verifier) VerifyOne(ctx context.Context, claim model.Claim, kg model.KnowledgeGraph, contextText string) (model.Verification, error) {
	return v.verify(ctx, claim.Statement, kg.String(), contextText)
}

func (v *Verifier) verify(ctx context.Context, statement, kgText, contextText string) (model.Verification, error) {
	contextBlock := ""
	if v.options.IncludeContext && contextText != "" {
		contextBlock = "\nContext:\n" + contextText + "\n"
	}

	prompt := llm.Prompt{
		System: systemPrompt,
		User:   fmt.Sprintf(userPrompt, statement, kgText, contextBlock),
	}

	return llm.Retry(ctx, "verify", v.options.MaxAttempts, func(ctx context.Context) (model.Verification, error) {
		response, err := v.client.Complete(ctx, prompt)
		if err != nil {
			return model.Verification{}, err
		}

		var verification model.Verification
		if err := llm.ParseJSON(response, &verification); err != nil {
			v.logger.Debug("verification response rejected", "error", err)
			return model.Verification{}, err
		}
		if !verification.Rating.IsValid() {
			return model.Verification{}, &llm.ParseError{
				Response: response,
				Err:      errMissingRating,
			}
		}

		if v.options.ClampConfidence {
			verification.Confidence = clamp(verification.Confidence)
		}
		return verification, nil
	})
}

func clamp(confidence float64) float64 {
	switch {
	case confidence < 0:
		return 0
	case confidence > 1:
		return 1
	default:
		return confidence
	}
}
