package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/pipeline"
	"github.com/ppiankov/factcheck/internal/render"
	"github.com/ppiankov/factcheck/internal/source"
	"github.com/ppiankov/factcheck/internal/worker"
)

var (
	concurrency  int
	outputDir    string
	batchTimeout time.Duration
	// noFooter is defined in check.go and shared here
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch <file>",
	Short: "Fact-check many inputs from a file in parallel",
	Long: `Batch checks several passages concurrently:
- Read inputs from a file (one file path or URL per line, # for comments)
- Run one independent pipeline per input on a worker pool
- Write a JSON and Markdown report for each input

Example:
  factcheck batch inputs.txt
  factcheck batch inputs.txt --concurrency 4 --output-dir ./reports`,
	Args: cobra.ExactArgs(1),
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", 0, "number of concurrent workers (default: concurrency.workers)")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./factcheck-reports", "output directory for reports")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 30*time.Minute, "total timeout for batch processing")
	batchCmd.Flags().BoolVar(&noFooter, "no-footer", false, "disable footer in Markdown reports")
}

// batchChecker loads one input and runs a fresh pipeline on it
type batchChecker struct {
	app *app
}

// Check implements worker.Checker
func (c *batchChecker) Check(ctx context.Context, input string) (*model.Report, error) {
	text, err := c.app.loadText(ctx, input)
	if err != nil {
		return nil, err
	}
	return c.app.newPipeline().Run(ctx, pipeline.Input{Text: text})
}

func runBatch(cmd *cobra.Command, args []string) error {
	file := args[0]

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if concurrency > 0 {
		cfg.Concurrency.Workers = concurrency
	}
	if noFooter {
		cfg.Output.IncludeFooter = false
	}

	a, err := newApp(cfg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "  factcheck batch\n")
	fmt.Fprintf(os.Stderr, "═══════════════════════════════════════════════════════════\n")
	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Input file:   %s\n", file)
	fmt.Fprintf(os.Stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(os.Stderr, "  Model:        %s/%s\n", a.client.ProviderName(), a.client.Model())
	fmt.Fprintf(os.Stderr, "  Output dir:   %s\n", outputDir)
	fmt.Fprintf(os.Stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	processor := worker.NewBatchProcessor(&batchChecker{app: a}, cfg.Concurrency.Workers)
	results, err := processor.ProcessFile(ctx, file)
	if err != nil {
		return fmt.Errorf("process file: %w", err)
	}

	renderer := render.NewRenderer(cfg.Output.IncludeFooter)
	successCount := 0
	failureCount := 0

	for _, result := range results {
		if result.Error != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: %v\n", result.Input, result.Error)
			continue
		}

		base := filepath.Join(outputDir, fmt.Sprintf("%03d-%s", result.Index+1, reportSlug(result.Input)))
		if err := renderer.RenderJSON(result.Report, base+".json"); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write JSON: %v\n", result.Input, err)
			continue
		}
		if err := renderer.RenderMarkdown(result.Report, base+".md"); err != nil {
			failureCount++
			fmt.Fprintf(os.Stderr, "✗ %s: failed to write Markdown: %v\n", result.Input, err)
			continue
		}

		successCount++
		fmt.Fprintf(os.Stderr, "✓ %s (%d facts, truth index %d/100)\n",
			result.Input, result.Report.Summary.Facts, result.Report.Summary.Index)
	}

	fmt.Fprintf(os.Stderr, "\n")
	fmt.Fprintf(os.Stderr, "  Total:     %d\n", len(results))
	fmt.Fprintf(os.Stderr, "  Success:   %d\n", successCount)
	fmt.Fprintf(os.Stderr, "  Failures:  %d\n", failureCount)
	fmt.Fprintf(os.Stderr, "\n")

	if err := ctx.Err(); err != nil {
		return fmt.Errorf("batch interrupted after %d of %d inputs: %w", successCount, len(results), err)
	}
	if failureCount > 0 && successCount == 0 {
		return fmt.Errorf("all %d inputs failed", failureCount)
	}
	return nil
}

// reportSlug derives a filesystem-safe name from a file path or URL
func reportSlug(input string) string {
	name := input
	if source.IsURL(input) {
		name = strings.TrimRight(input, "/")
	}
	name = filepath.Base(name)
	name = strings.TrimSuffix(name, filepath.Ext(name))

	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		case b.Len() > 0 && !strings.HasSuffix(b.String(), "-"):
			b.WriteByte('-')
		}
	}

	slug := strings.Trim(b.String(), "-")
	if len(slug) > 60 {
		slug = strings.Trim(slug[:60], "-")
	}
	if slug == "" {
		slug = "input"
	}
	return slug
}
