package llm

import (
	"fmt"
	"os"
	"strings"

	"github.com/ppiankov/factcheck/internal/model"
)

// NewProvider creates a new LLM provider based on configuration
func NewProvider(config Config) (Provider, error) {
	switch strings.ToLower(config.Provider) {
	case "upstage", "solar":
		return NewUpstageProvider(config)

	case "openai":
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		return NewAnthropicProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, fmt.Errorf("no LLM provider configured (supported: upstage, openai, anthropic, ollama)")

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: upstage, openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:          modelConfig.Provider,
		Model:             modelConfig.Model,
		APIKey:            modelConfig.APIKey,
		BaseURL:           modelConfig.BaseURL,
		Timeout:           modelConfig.Timeout,
		MaxTokens:         modelConfig.MaxTokens,
		Temperature:       modelConfig.Temperature,
		RequestsPerSecond: modelConfig.RequestsPerSecond,
	}
}

// APIKeyEnv returns the environment variable holding the provider's API key
func APIKeyEnv(provider string) string {
	switch strings.ToLower(provider) {
	case "upstage", "solar":
		return "UPSTAGE_API_KEY"
	case "openai":
		return "OPENAI_API_KEY"
	case "anthropic", "claude":
		return "ANTHROPIC_API_KEY"
	default:
		return ""
	}
}

// ApplyEnv fills missing credentials and endpoints from well-known environment variables
func ApplyEnv(config Config) Config {
	if config.APIKey == "" {
		if env := APIKeyEnv(config.Provider); env != "" {
			config.APIKey = os.Getenv(env)
		}
	}
	if strings.EqualFold(config.Provider, "ollama") && config.BaseURL == "" {
		config.BaseURL = os.Getenv("OLLAMA_BASE_URL")
	}
	return config
}
