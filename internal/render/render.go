// Package render writes fact-check reports as JSON, Markdown and a terminal summary.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"

	"github.com/ppiankov/factcheck/internal/model"
)

// Renderer renders reports
type Renderer struct {
	includeFooter bool
}

// NewRenderer creates a renderer
func NewRenderer(includeFooter bool) *Renderer {
	return &Renderer{includeFooter: includeFooter}
}

// RenderJSON writes the report as indented JSON to path
func (r *Renderer) RenderJSON(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		return r.WriteJSON(w, report)
	})
}

// WriteJSON encodes the report as indented JSON
func (r *Renderer) WriteJSON(w io.Writer, report *model.Report) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(report)
}

// RenderMarkdown writes the Markdown report to path
func (r *Renderer) RenderMarkdown(report *model.Report, path string) error {
	return writeFile(path, func(w io.Writer) error {
		_, err := io.WriteString(w, r.Markdown(report))
		return err
	})
}

// Markdown builds the Markdown report
func (r *Renderer) Markdown(report *model.Report) string {
	var b strings.Builder

	b.WriteString("# Fact-check report\n\n")
	if report.Meta.Provider != "" {
		fmt.Fprintf(&b, "_Model: %s / %s, generated %s_\n\n",
			report.Meta.Provider, report.Meta.Model, report.Meta.FinishedAt.Format(time.RFC3339))
	}

	// Summary
	s := report.Summary
	b.WriteString("## Summary\n\n")
	fmt.Fprintf(&b, "- **Truth index:** %d/100\n", s.Index)
	fmt.Fprintf(&b, "- **Facts checked:** %d\n", s.Facts)
	if s.Facts > 0 {
		fmt.Fprintf(&b, "- **Mean confidence:** %.2f\n", s.MeanConfidence)
		fmt.Fprintf(&b, "- **Below confidence threshold (%.2f):** %d\n", s.ConfidenceThreshold, s.LowConfidence)
		b.WriteString("- **Ratings:**")
		for _, rating := range model.AllRatings {
			if n := s.RatingCounts[rating]; n > 0 {
				fmt.Fprintf(&b, " %s %d;", rating, n)
			}
		}
		b.WriteString("\n")
	}
	if len(s.Signals) > 0 {
		b.WriteString("\n### Signals\n\n")
		for _, sig := range s.Signals {
			fmt.Fprintf(&b, "- `%s` (%s): %s\n", sig.Type, sig.Severity, sig.Description)
		}
	}
	b.WriteString("\n")

	// Highlighted article
	if len(report.Segments) > 0 {
		b.WriteString("## Highlighted text\n\n")
		b.WriteString(HighlightMarkdown(report.Segments))
		b.WriteString("\n\n")
	}

	// Facts table
	if len(report.Facts) > 0 {
		b.WriteString("## Verified facts\n\n")
		b.WriteString("| # | Claim | Rating | Confidence | Explanation |\n")
		b.WriteString("|---|-------|--------|------------|-------------|\n")
		for _, key := range report.Facts.Keys() {
			f := report.Facts[key]
			fmt.Fprintf(&b, "| %s | %s | %s | %.2f | %s |\n",
				key, escapeCell(f.Claimed), f.Rating, f.Confidence, escapeCell(f.Explanation))
		}
		b.WriteString("\n")
	}

	if report.AnnotatedText != "" {
		b.WriteString("## Annotated text\n\n")
		b.WriteString(report.AnnotatedText)
		b.WriteString("\n\n")
	}

	if report.Context != "" {
		fmt.Fprintf(&b, "## Context (%s)\n\n", report.ContextSource)
		b.WriteString(quote(report.Context))
		b.WriteString("\n\n")
	}

	if r.includeFooter {
		b.WriteString("---\n\n")
		b.WriteString("_Ratings follow the Truth-O-Meter scale and are produced by a language model. ")
		b.WriteString("They reflect the retrieved context and knowledge graph, not an authoritative ruling._\n")
	}

	return b.String()
}

// HighlightMarkdown renders segments with labelled spans in bold followed by their label
func HighlightMarkdown(segments []model.Segment) string {
	var b strings.Builder
	for _, seg := range segments {
		if seg.Label == "" {
			b.WriteString(seg.Text)
			continue
		}
		fmt.Fprintf(&b, "**%s** _[%s]_", seg.Text, seg.Label)
	}
	return b.String()
}

// RenderSummary prints a coloured summary to w
func (r *Renderer) RenderSummary(w io.Writer, report *model.Report) {
	s := report.Summary

	fmt.Fprintln(w)
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w, "  Fact-check Summary")
	fmt.Fprintln(w, "═══════════════════════════════════════════════════════════")
	fmt.Fprintln(w)
	fmt.Fprintf(w, "  Truth index:  %s\n", indexColor(s.Index).Sprintf("%d/100", s.Index))
	fmt.Fprintf(w, "  Facts:        %d\n", s.Facts)
	if s.Facts > 0 {
		fmt.Fprintf(w, "  Confidence:   %.2f mean, %d below %.2f\n", s.MeanConfidence, s.LowConfidence, s.ConfidenceThreshold)
	}
	fmt.Fprintln(w)

	for _, key := range report.Facts.Keys() {
		f := report.Facts[key]
		fmt.Fprintf(w, "  [%s] %s (%.2f)\n", ratingColor(f.Rating).Sprint(f.Rating), f.Claimed, f.Confidence)
	}
	if len(report.Facts) > 0 {
		fmt.Fprintln(w)
	}

	for _, sig := range s.Signals {
		fmt.Fprintf(w, "  %s %s\n", severityColor(sig.Severity).Sprintf("%-8s", sig.Severity), sig.Description)
	}
	if len(s.Signals) > 0 {
		fmt.Fprintln(w)
	}
}

func indexColor(index int) *color.Color {
	switch {
	case index >= 70:
		return color.New(color.FgGreen, color.Bold)
	case index >= 40:
		return color.New(color.FgYellow, color.Bold)
	default:
		return color.New(color.FgRed, color.Bold)
	}
}

func ratingColor(rating model.Rating) *color.Color {
	switch rating {
	case model.RatingTrue, model.RatingMostlyTrue:
		return color.New(color.FgGreen)
	case model.RatingHalfTrue:
		return color.New(color.FgYellow)
	case model.RatingMostlyFalse, model.RatingFalse:
		return color.New(color.FgRed)
	default:
		return color.New(color.FgHiRed, color.Bold)
	}
}

func severityColor(severity model.SignalSeverity) *color.Color {
	switch severity {
	case model.SeverityCritical:
		return color.New(color.FgRed)
	case model.SeverityWarning:
		return color.New(color.FgYellow)
	default:
		return color.New(color.FgCyan)
	}
}

// escapeCell keeps table cells on one line
func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", `\|`)
	return strings.Join(strings.Fields(s), " ")
}

func quote(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, line := range lines {
		lines[i] = "> " + line
	}
	return strings.Join(lines, "\n")
}

func writeFile(path string, write func(io.Writer) error) (err error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory: %w", err)
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = closeErr
		}
	}()

	return write(f)
}
