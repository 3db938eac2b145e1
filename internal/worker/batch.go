package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/factcheck/internal/model"
)

// ErrNotProcessed marks a batch input that never reached its checker
var ErrNotProcessed = errors.New("input not processed")

// Checker runs one fact-check invocation for a batch input (a file path or URL)
type Checker interface {
	Check(ctx context.Context, input string) (*model.Report, error)
}

// CheckResult is the outcome of one batch input
type CheckResult struct {
	Index  int
	Input  string
	Report *model.Report
	Error  error
}

// BatchProcessor runs independent fact-check invocations concurrently
type BatchProcessor struct {
	checker     Checker
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(checker Checker, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		checker:     checker,
		concurrency: concurrency,
	}
}

// ProcessInputs checks every input and returns exactly one result per input, in input order
func (b *BatchProcessor) ProcessInputs(ctx context.Context, inputs []string) []*CheckResult {
	if len(inputs) == 0 {
		return []*CheckResult{}
	}

	pool := NewPool[*CheckResult](ctx, b.concurrency)
	pool.Start()

	for i, input := range inputs {
		if !pool.Submit(b.task(i, input)) {
			break
		}
	}

	results := pool.Wait()
	results = backfill(ctx, inputs, results)
	sort.Slice(results, func(i, j int) bool {
		return results[i].Index < results[j].Index
	})

	return results
}

func (b *BatchProcessor) task(index int, input string) Task[*CheckResult] {
	return func(ctx context.Context) *CheckResult {
		report, err := b.checker.Check(ctx, input)
		return &CheckResult{
			Index:  index,
			Input:  input,
			Report: report,
			Error:  err,
		}
	}
}

// backfill adds a failed result for every input the pool dropped after cancellation
func backfill(ctx context.Context, inputs []string, results []*CheckResult) []*CheckResult {
	if len(results) == len(inputs) {
		return results
	}

	done := make(map[int]bool, len(results))
	for _, r := range results {
		done[r.Index] = true
	}

	cause := ctx.Err()
	for i, input := range inputs {
		if done[i] {
			continue
		}
		err := ErrNotProcessed
		if cause != nil {
			err = fmt.Errorf("%w: %w", ErrNotProcessed, cause)
		}
		results = append(results, &CheckResult{Index: i, Input: input, Error: err})
	}
	return results
}

// ProcessFile reads inputs from a file and processes them concurrently
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*CheckResult, error) {
	inputs, err := ReadInputsFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read inputs: %w", err)
	}

	return b.ProcessInputs(ctx, inputs), nil
}

// ReadInputsFromFile reads inputs from a file (one per line)
func ReadInputsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var inputs []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			inputs = append(inputs, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return inputs, nil
}
