package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/ppiankov/factcheck/internal/cache"
	"github.com/ppiankov/factcheck/internal/llm"
	"github.com/ppiankov/factcheck/internal/model"
	"github.com/ppiankov/factcheck/internal/pipeline"
	"github.com/ppiankov/factcheck/internal/search"
	"github.com/ppiankov/factcheck/internal/source"
)

// app holds the process-wide collaborators shared by every invocation
type app struct {
	cfg     *model.Config
	logger  *slog.Logger
	client  *llm.Client
	backend search.Backend
	fetcher *source.Fetcher
}

// newApp builds the model client, search backend and article fetcher from cfg
func newApp(cfg *model.Config) (*app, error) {
	logger := newLogger(cfg)

	llmConfig := llm.ConfigFromModel(cfg.LLM)
	llmConfig.HTTPProxy = cfg.HTTP.HTTPProxy
	llmConfig.HTTPSProxy = cfg.HTTP.HTTPSProxy
	llmConfig.NoProxy = cfg.HTTP.NoProxy

	client, err := llm.NewClientFromConfig(llmConfig, logger)
	if err != nil {
		if env := llm.APIKeyEnv(cfg.LLM.Provider); env != "" && cfg.LLM.APIKey == "" {
			return nil, fmt.Errorf("create LLM client: %w (set %s or llm.api_key)", err, env)
		}
		return nil, fmt.Errorf("create LLM client: %w", err)
	}

	backend, err := search.NewBackend(cfg.Search, cfg.HTTP)
	if err != nil {
		return nil, err
	}

	store := cache.New(cfg.Cache)
	fetcher := source.NewFetcher(cfg.HTTP, store, cfg.Cache.DiskTTL, logger)

	return &app{
		cfg:     cfg,
		logger:  logger,
		client:  client,
		backend: backend,
		fetcher: fetcher,
	}, nil
}

// newPipeline builds the stage set for one invocation
func (a *app) newPipeline() *pipeline.Pipeline {
	return pipeline.New(pipeline.Deps{
		Client: a.client,
		Search: a.backend,
		Logger: a.logger,
	}, a.cfg)
}

// loadText reads input from a URL, a file path, or stdin when input is "-"
func (a *app) loadText(ctx context.Context, input string) (string, error) {
	switch {
	case input == "-":
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", fmt.Errorf("read stdin: %w", err)
		}
		return string(data), nil

	case source.IsURL(input):
		doc, err := a.fetcher.Fetch(ctx, input)
		if err != nil {
			return "", fmt.Errorf("fetch %s: %w", input, err)
		}
		a.logger.Debug("fetched article", "url", doc.FinalURL, "title", doc.Title, "cached", doc.FromCache)
		return doc.Text, nil

	default:
		data, err := os.ReadFile(input)
		if err != nil {
			return "", fmt.Errorf("read %s: %w", input, err)
		}
		return string(data), nil
	}
}

// readFileIf returns the file content, or nil when path is empty
func readFileIf(path string) (*string, error) {
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	text := string(data)
	return &text, nil
}
