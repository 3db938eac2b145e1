package model

import "time"

// Report represents the complete result of one fact-check invocation
type Report struct {
	Text          string         `json:"text"`                   // Input text as supplied
	Claims        []Claim        `json:"claims"`                 // Extracted claims
	Context       string         `json:"context"`                // Search context (retrieved or supplied)
	ContextSource StageSource    `json:"context_source"`         // Whether context was searched or supplied
	Graph         KnowledgeGraph `json:"knowledge_graph"`        // Knowledge graph (built or supplied)
	GraphSource   StageSource    `json:"knowledge_graph_source"` // Whether the graph was built or supplied
	Facts         VerifiedFacts  `json:"verified_facts"`         // Verdicts keyed by claim index
	AnnotatedText string         `json:"annotated_text"`         // Text with inline annotations
	Segments      []Segment      `json:"highlights"`             // Highlighted article spans
	Summary       Summary        `json:"summary"`                // Aggregate view, never alters verdicts
	Meta          RunMeta        `json:"meta"`                   // Provider and timing metadata
}

// StageSource records where a stage's artifact came from
type StageSource string

const (
	SourceGenerated StageSource = "generated" // Produced by the pipeline stage
	SourceSupplied  StageSource = "supplied"  // Passed in by the caller, stage skipped
)

// Segment is a contiguous span of the article, optionally labelled with a rating
type Segment struct {
	Text  string `json:"text"`
	Label string `json:"label,omitempty"` // Empty for unmarked text
}

// RunMeta contains provider and timing metadata for a run
type RunMeta struct {
	Provider   string                   `json:"provider,omitempty"`
	Model      string                   `json:"model,omitempty"`
	StartedAt  time.Time                `json:"started_at"`
	FinishedAt time.Time                `json:"finished_at"`
	Stages     map[string]time.Duration `json:"stage_durations,omitempty"`
}

// Summary aggregates verdicts for display
type Summary struct {
	Index               int            `json:"truth_index"`          // 0 (all PANTS ON FIRE) to 100 (all TRUE)
	Facts               int            `json:"facts"`                // Number of verified facts
	RatingCounts        map[Rating]int `json:"rating_counts"`        // Facts per rating
	MeanConfidence      float64        `json:"mean_confidence"`      // Average reported confidence
	ConfidenceThreshold float64        `json:"confidence_threshold"` // Threshold used for LowConfidence
	LowConfidence       int            `json:"low_confidence"`       // Facts below the threshold
	Signals             []Signal       `json:"signals,omitempty"`    // Notable findings
}

// Signal represents a notable finding about the verdicts
type Signal struct {
	Type        SignalType     `json:"type"`
	Severity    SignalSeverity `json:"severity"`
	Description string         `json:"description"`
	Data        map[string]any `json:"data,omitempty"`
}

// SignalType classifies the type of signal
type SignalType string

const (
	SignalNoClaims         SignalType = "no_claims"            // Nothing was extracted
	SignalLowConfidence    SignalType = "low_confidence"       // Verdict below the confidence threshold
	SignalPantsOnFire      SignalType = "pants_on_fire"        // False and ridiculous statement
	SignalMostlyFalse      SignalType = "mostly_false_text"    // Majority of verdicts lean false
	SignalUngroundedSource SignalType = "ungrounded_source"    // Graph quote missing from the context
	SignalMisleading       SignalType = "misleading_confirmed" // Claim tagged Misleading and rated false-leaning
)

// SignalSeverity indicates the importance of the signal
type SignalSeverity string

const (
	SeverityInfo     SignalSeverity = "info"
	SeverityWarning  SignalSeverity = "warning"
	SeverityCritical SignalSeverity = "critical"
)
