// Package pipeline sequences the fact-check stages for one invocation.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ppiankov/factcheck/internal/annotate"
	"github.com/ppiankov/factcheck/internal/extract"
	"github.com/ppiankov/factcheck/internal/graph"
	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/metrics"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/score"
	"github.com/ppiankov/factcheck/internal/search"
	"github.com/ppiankov/factcheck/internal/verify"
)

// ErrNoSearchBackend is returned when context must be searched but no backend was provided
var ErrNoSearchBackend = errors.New("no search backend configured")

// Stage names used for timings and metrics
const (
	StageExtract  = "extract"
	StageSearch   = "search"
	StageGraph    = "graph"
	StageVerify   = "verify"
	StageAnnotate = "annotate"
)

// Deps are the collaborators of one invocation
type Deps struct {
	Client llm.Completer  // Model handle shared by every stage
	Search search.Backend // May be nil when context is always supplied
	Logger *slog.Logger   // nil means slog.Default()
}

// modelInfo is implemented by *llm.Client
type modelInfo interface {
	ProviderName() string
	Model() string
}

// Input is the text to check plus optional precomputed artifacts
type Input struct {
	Text    string
	Context *string              // Skips the search stage when set
	Graph   model.KnowledgeGraph // Skips the graph stage when non-nil
}

// Pipeline runs Extract -> Search -> Build -> Verify -> Annotate
type Pipeline struct {
	extractor *extract.ClaimExtractor
	searcher  *search.ContextSearcher
	builder   *graph.Builder
	verifier  *verify.Verifier
	annotator *annotate.Annotator
	scorer    *score.Scorer
	deps      Deps
	logger    *slog.Logger
}

// New builds the stage set around the given model handle
func New(deps Deps, cfg *model.Config) *Pipeline {
	if cfg == nil {
		cfg = model.DefaultConfig()
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}

	p := &Pipeline{
		extractor: extract.NewClaimExtractor(deps.Client, logger),
		builder:   graph.NewBuilder(deps.Client, cfg.Pipeline.MaxAttempts, logger),
		verifier:  verify.NewVerifier(deps.Client, verify.OptionsFromConfig(cfg.Pipeline, cfg.Verify), logger),
		annotator: annotate.NewAnnotator(deps.Client, logger),
		scorer:    score.NewScorer(cfg.Verify.ConfidenceThreshold),
		deps:      deps,
		logger:    logger,
	}
	if deps.Search != nil {
		p.searcher = search.NewContextSearcher(deps.Client, deps.Search, logger)
	}
	return p
}

// Check runs the pipeline on text alone and returns the verified facts and annotated text
func (p *Pipeline) Check(ctx context.Context, text string) (model.VerifiedFacts, string, error) {
	report, err := p.Run(ctx, Input{Text: text})
	if err != nil {
		return nil, "", err
	}
	return report.Facts, report.AnnotatedText, nil
}

// Run executes every stage in order and assembles the report
func (p *Pipeline) Run(ctx context.Context, in Input) (*model.Report, error) {
	report, err := p.run(ctx, in)
	metrics.Runs.WithLabelValues(metrics.Outcome(err)).Inc()
	return report, err
}

func (p *Pipeline) run(ctx context.Context, in Input) (*model.Report, error) {
	report := &model.Report{
		Text: in.Text,
		Meta: model.RunMeta{
			StartedAt: time.Now().UTC(),
			Stages:    make(map[string]time.Duration),
		},
	}
	if info, ok := p.deps.Client.(modelInfo); ok {
		report.Meta.Provider = info.ProviderName()
		report.Meta.Model = info.Model()
	}

	p.logger.Info("Starting fact checking process", "length", len(in.Text))

	p.logger.Info("Step 1: Extracting claimed facts")
	err := p.stage(report, StageExtract, "extract claims", func() (err error) {
		report.Claims, err = p.extractor.Extract(ctx, in.Text)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("Extracted %d claimed facts", len(report.Claims)))

	if in.Context == nil {
		p.logger.Info("Step 2: Searching for relevant context")
		err := p.stage(report, StageSearch, "search context", func() (err error) {
			if p.searcher == nil {
				return ErrNoSearchBackend
			}
			report.Context, err = p.searcher.Search(ctx, in.Text, report.Claims)
			return err
		})
		if err != nil {
			return nil, err
		}
		report.ContextSource = model.SourceGenerated
		p.logger.Info("Retrieved context (first 100 characters)", "context", preview(report.Context, 100))
	} else {
		p.logger.Info("Step 2: Using provided context")
		report.Context = *in.Context
		report.ContextSource = model.SourceSupplied
	}

	if in.Graph == nil {
		p.logger.Info("Step 3: Building knowledge graph")
		err := p.stage(report, StageGraph, "build knowledge graph", func() (err error) {
			report.Graph, err = p.builder.Build(ctx, report.Claims, report.Context)
			return err
		})
		if err != nil {
			return nil, err
		}
		report.GraphSource = model.SourceGenerated
		p.logger.Info(fmt.Sprintf("Built knowledge graph with %d entities and %d relations", len(report.Graph), report.Graph.RelationCount()))
	} else {
		p.logger.Info("Step 3: Using provided knowledge graph")
		report.Graph = in.Graph
		report.GraphSource = model.SourceSupplied
	}

	p.logger.Info("Step 4: Verifying facts")
	err = p.stage(report, StageVerify, "verify facts", func() (err error) {
		report.Facts, err = p.verifier.Verify(ctx, report.Claims, report.Graph, report.Context)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info(fmt.Sprintf("Verified %d facts", len(report.Facts)))
	for _, key := range report.Facts.Keys() {
		f := report.Facts[key]
		metrics.Verdicts.WithLabelValues(string(f.Rating)).Inc()
		p.logger.Info("Fact "+key,
			"claimed", f.Claimed,
			"rating", string(f.Rating),
			"confidence", f.Confidence,
			"explanation", preview(f.Explanation, 100),
		)
	}
	p.logger.Info("Fact checking process completed")

	p.logger.Info("Step 5: Adding fact-check annotations to the original text")
	err = p.stage(report, StageAnnotate, "annotate text", func() (err error) {
		report.AnnotatedText, err = p.annotator.Annotate(ctx, in.Text, report.Facts)
		return err
	})
	if err != nil {
		return nil, err
	}
	p.logger.Info("Fact-checked text generated")

	report.Segments = annotate.Highlight(in.Text, annotate.MarksFromFacts(report.Facts))
	report.Summary = p.scorer.Calculate(report)
	report.Meta.FinishedAt = time.Now().UTC()

	return report, nil
}

// stage times fn, records it and wraps its error with label
func (p *Pipeline) stage(report *model.Report, name, label string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	report.Meta.Stages[name] = elapsed
	metrics.StageDuration.WithLabelValues(name).Observe(elapsed.Seconds())

	if err != nil {
		p.logger.Error("stage failed", "stage", name, "error", err)
		return fmt.Errorf("%s: %w", label, err)
	}
	return nil
}

// preview truncates s to n runes and marks the cut
func preview(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
