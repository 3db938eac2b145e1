package score

import (
	"fmt"
	"math"

	"github.com/ppiankov/factcheck/internal/model"
)

// Scorer aggregates verdicts into a summary and diagnostic signals.
// It never changes a verdict.
type Scorer struct {
	threshold float64
}

// NewScorer creates a scorer that flags facts below the confidence threshold
func NewScorer(threshold float64) *Scorer {
	return &Scorer{threshold: threshold}
}

// Summarize is shorthand for NewScorer(threshold) applied to facts alone
func Summarize(facts model.VerifiedFacts, threshold float64) model.Summary {
	return NewScorer(threshold).Calculate(&model.Report{Facts: facts})
}

// Calculate builds the summary for a report
func (s *Scorer) Calculate(report *model.Report) model.Summary {
	facts := report.Facts.Ordered()
	keys := report.Facts.Keys()

	summary := model.Summary{
		Facts:               len(facts),
		RatingCounts:        make(map[model.Rating]int, len(model.AllRatings)),
		ConfidenceThreshold: s.threshold,
	}
	for _, r := range model.AllRatings {
		summary.RatingCounts[r] = 0
	}

	if len(facts) == 0 {
		summary.Signals = append(summary.Signals, model.Signal{
			Type:        model.SignalNoClaims,
			Severity:    model.SeverityWarning,
			Description: "No verifiable claims were found",
			Data:        map[string]any{"claims": len(report.Claims)},
		})
		return summary
	}

	// 1. Rating distribution and truth index
	severitySum := 0
	confidenceSum := 0.0
	falseLeaning := 0
	for _, f := range facts {
		summary.RatingCounts[f.Rating]++
		severitySum += f.Rating.Severity()
		confidenceSum += f.Confidence
		if f.Rating.Severity() >= model.RatingMostlyFalse.Severity() {
			falseLeaning++
		}
	}
	summary.Index = truthIndex(severitySum, len(facts))
	summary.MeanConfidence = confidenceSum / float64(len(facts))

	// 2. Per-fact signals
	for i, f := range facts {
		if f.Confidence < s.threshold {
			summary.LowConfidence++
			summary.Signals = append(summary.Signals, s.lowConfidenceSignal(keys[i], f))
		}
		if f.Rating == model.RatingPantsOnFire {
			summary.Signals = append(summary.Signals, model.Signal{
				Type:        model.SignalPantsOnFire,
				Severity:    model.SeverityCritical,
				Description: fmt.Sprintf("Fact %s is false and ridiculous", keys[i]),
				Data: map[string]any{
					"key":     keys[i],
					"claimed": f.Claimed,
				},
			})
		}
	}

	// 3. Misleading claims confirmed by their verdict
	for _, claim := range report.Claims {
		if !claim.HasTag(model.TagMisleading) {
			continue
		}
		f, ok := report.Facts.ByClaimID(claim.ID)
		if !ok || f.Rating.Severity() < model.RatingMostlyFalse.Severity() {
			continue
		}
		summary.Signals = append(summary.Signals, model.Signal{
			Type:        model.SignalMisleading,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("Claim %d was flagged as misleading and rated %s", claim.Index, f.Rating),
			Data: map[string]any{
				"claim_id": claim.ID,
				"claimed":  f.Claimed,
				"rating":   string(f.Rating),
			},
		})
	}

	// 4. Overall lean
	if falseLeaning*2 > len(facts) {
		summary.Signals = append(summary.Signals, model.Signal{
			Type:        model.SignalMostlyFalse,
			Severity:    model.SeverityWarning,
			Description: fmt.Sprintf("%d of %d facts rated MOSTLY FALSE or worse", falseLeaning, len(facts)),
			Data: map[string]any{
				"false_leaning": falseLeaning,
				"facts":         len(facts),
			},
		})
	}

	// 5. Graph grounding
	if signal, ok := ungroundedSignal(report.Graph, report.Context); ok {
		summary.Signals = append(summary.Signals, signal)
	}

	return summary
}

func (s *Scorer) lowConfidenceSignal(key string, f model.VerifiedFact) model.Signal {
	return model.Signal{
		Type:        model.SignalLowConfidence,
		Severity:    model.SeverityWarning,
		Description: fmt.Sprintf("Fact %s rated %s with confidence %.2f (threshold %.2f)", key, f.Rating, f.Confidence, s.threshold),
		Data: map[string]any{
			"key":        key,
			"claimed":    f.Claimed,
			"confidence": f.Confidence,
			"threshold":  s.threshold,
		},
	}
}

// truthIndex maps the mean severity (0 TRUE .. 5 PANTS ON FIRE) onto 100..0
func truthIndex(severitySum, count int) int {
	mean := float64(severitySum) / float64(count)
	index := int(math.Round(100 - mean*20))
	return max(0, min(100, index))
}

func ungroundedSignal(kg model.KnowledgeGraph, contextText string) (model.Signal, bool) {
	if len(kg) == 0 || contextText == "" {
		return model.Signal{}, false
	}

	missing := kg.UngroundedSources(contextText)
	if len(missing) == 0 {
		return model.Signal{}, false
	}

	return model.Signal{
		Type:        model.SignalUngroundedSource,
		Severity:    model.SeverityInfo,
		Description: fmt.Sprintf("%d of %d knowledge graph sources not found verbatim in the context", len(missing), len(kg.Sources())),
		Data: map[string]any{
			"missing": missing,
			"sources": len(kg.Sources()),
		},
	}, true
}
