package llm

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/ppiankov/factcheck/internal/util"
)

// ErrNoChoices is returned when a provider answers without any content
var ErrNoChoices = errors.New("no content in model response")

// Provider defines the interface for LLM providers
type Provider interface {
	// Name returns the provider name
	Name() string

	// Complete sends a system + human message pair and returns the model text
	Complete(ctx context.Context, prompt Prompt) (*Completion, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Completer is the model handle consumed by pipeline stages.
// *Client implements it.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// Prompt is a structured prompt: one system message and one human message
type Prompt struct {
	// System instructs the model about its task and output format
	System string

	// User carries the input text for this call
	User string

	// Model overrides the configured model (provider-specific)
	Model string

	// MaxTokens limits the response length (0 = provider default)
	MaxTokens int

	// Temperature for sampling (nil = provider default)
	Temperature *float32
}

// Completion contains the model's reply
type Completion struct {
	// Text is the raw response text
	Text string

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "upstage", "openai", "anthropic", "ollama"
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for hosted providers
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Temperature for sampling
	Temperature float32

	// RequestsPerSecond throttles calls to the provider (0 = unlimited)
	RequestsPerSecond float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "upstage",
		Model:     "solar-pro",
		Timeout:   60,
		MaxTokens: 2048,
	}
}

func (c Config) maxTokens(req Prompt) int {
	if req.MaxTokens > 0 {
		return req.MaxTokens
	}
	if c.MaxTokens > 0 {
		return c.MaxTokens
	}
	return 2048
}

func (c Config) temperature(req Prompt) float32 {
	if req.Temperature != nil {
		return *req.Temperature
	}
	return c.Temperature
}

// newHTTPClient builds a provider HTTP client with the configured timeout and proxies
func newHTTPClient(config Config, defaultTimeout time.Duration) *http.Client {
	timeout := time.Duration(config.Timeout) * time.Second
	if timeout == 0 {
		timeout = defaultTimeout
	}

	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.Proxy = util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy)

	return &http.Client{
		Timeout:   timeout,
		Transport: transport,
	}
}
