package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/pipeline"
	"github.com/ppiankov/factcheck/internal/render"
)

var (
	checkText    string
	checkFile    string
	checkURL     string
	contextFile  string
	kgFile       string
	outJSON      string
	outMD        string
	checkTimeout time.Duration
	noFooter     bool
)

// checkCmd represents the check command
var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Fact-check a passage of text",
	Long: `Check runs the full pipeline on one passage:
- Extract checkable claims and tag them
- Generate search keywords and retrieve context
- Build a knowledge graph from the context
- Rate each claim on the Truth-O-Meter scale
- Annotate the original text with the verdicts

Input comes from --text, --file, --url or standard input.

Example:
  factcheck check --text "The unemployment rate is the lowest it's been in 50 years."
  factcheck check --url https://example.com/article --md report.md
  cat speech.txt | factcheck check --json report.json
  factcheck check --file speech.txt --context-file context.txt --kg-file kg.json`,
	Args: cobra.NoArgs,
	RunE: runCheck,
}

func init() {
	rootCmd.AddCommand(checkCmd)

	// Input flags
	checkCmd.Flags().StringVar(&checkText, "text", "", "text to fact-check")
	checkCmd.Flags().StringVar(&checkFile, "file", "", "read text from a file")
	checkCmd.Flags().StringVar(&checkURL, "url", "", "fetch the article text from a URL")
	checkCmd.MarkFlagsMutuallyExclusive("text", "file", "url")

	// Precomputed artifacts
	checkCmd.Flags().StringVar(&contextFile, "context-file", "", "use this context instead of searching")
	checkCmd.Flags().StringVar(&kgFile, "kg-file", "", "use this knowledge graph (JSON) instead of building one")

	// Output flags
	checkCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	checkCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path")
	checkCmd.Flags().DurationVar(&checkTimeout, "timeout", 10*time.Minute, "overall check timeout")
	checkCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

func runCheck(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), checkTimeout)
	defer cancel()

	text, err := resolveInput(ctx, a)
	if err != nil {
		return err
	}

	in := pipeline.Input{Text: text}
	if in.Context, err = readFileIf(contextFile); err != nil {
		return fmt.Errorf("read context file: %w", err)
	}
	if in.Graph, err = readGraph(kgFile); err != nil {
		return err
	}

	report, err := a.newPipeline().Run(ctx, in)
	if err != nil {
		return fmt.Errorf("check failed: %w", err)
	}

	return writeReport(cmd, cfg, report, outJSON, outMD)
}

// resolveInput picks the text source from the flags, falling back to stdin
func resolveInput(ctx context.Context, a *app) (string, error) {
	switch {
	case checkText != "":
		return checkText, nil
	case checkFile != "":
		return a.loadText(ctx, checkFile)
	case checkURL != "":
		return a.loadText(ctx, checkURL)
	}

	if stat, err := os.Stdin.Stat(); err == nil && stat.Mode()&os.ModeCharDevice != 0 {
		return "", fmt.Errorf("no input: use --text, --file, --url or pipe text on stdin")
	}
	return a.loadText(ctx, "-")
}

// readGraph decodes a knowledge graph file, or returns nil when path is empty
func readGraph(path string) (model.KnowledgeGraph, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read knowledge graph: %w", err)
	}

	var kg model.KnowledgeGraph
	if err := json.Unmarshal(data, &kg); err != nil {
		return nil, fmt.Errorf("decode knowledge graph %s: %w", path, err)
	}
	if kg == nil {
		kg = model.KnowledgeGraph{}
	}
	return kg, nil
}

// writeReport writes the requested files and prints the summary
func writeReport(cmd *cobra.Command, cfg *model.Config, report *model.Report, jsonPath, mdPath string) error {
	renderer := render.NewRenderer(cfg.Output.IncludeFooter)

	if jsonPath != "" {
		if err := renderer.RenderJSON(report, jsonPath); err != nil {
			return fmt.Errorf("render JSON: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote JSON: %s\n", jsonPath)
		}
	}

	if mdPath != "" {
		if err := renderer.RenderMarkdown(report, mdPath); err != nil {
			return fmt.Errorf("render markdown: %w", err)
		}
		if cfg.Output.Verbose {
			fmt.Fprintf(os.Stderr, "✓ Wrote Markdown: %s\n", mdPath)
		}
	}

	out := cmd.OutOrStdout()
	if report.AnnotatedText != "" {
		fmt.Fprintln(out, report.AnnotatedText)
	}
	renderer.RenderSummary(out, report)
	return nil
}
