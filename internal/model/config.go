package model

import "time"

// Config holds the complete factcheck configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Search      SearchConfig      `yaml:"search" mapstructure:"search"`
	Pipeline    PipelineConfig    `yaml:"pipeline" mapstructure:"pipeline"`
	Verify      VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
}

// LLMConfig selects and tunes the model service
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // upstage, openai, anthropic, ollama
	Model             string  `yaml:"model" mapstructure:"model"`       // Model identifier (e.g. solar-pro)
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float32 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerSecond float64 `yaml:"requests_per_second" mapstructure:"requests_per_second"`
}

// SearchConfig configures the web search collaborator
type SearchConfig struct {
	Backend           string        `yaml:"backend" mapstructure:"backend"` // duckduckgo, static
	MaxResults        int           `yaml:"max_results" mapstructure:"max_results"`
	Region            string        `yaml:"region" mapstructure:"region"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second"`
	StaticText        string        `yaml:"static_text,omitempty" mapstructure:"static_text"`
}

// PipelineConfig controls stage behaviour shared by all stages
type PipelineConfig struct {
	MaxAttempts int `yaml:"max_attempts" mapstructure:"max_attempts"` // Attempts for graph and verify stages
}

// VerifyConfig controls optional verdict post-processing
type VerifyConfig struct {
	IncludeContext      bool    `yaml:"include_context" mapstructure:"include_context"`
	ConfidenceThreshold float64 `yaml:"confidence_threshold" mapstructure:"confidence_threshold"`
	ClampConfidence     bool    `yaml:"clamp_confidence" mapstructure:"clamp_confidence"`
}

// HTTPConfig configures article fetching and outbound proxies
type HTTPConfig struct {
	Timeout       time.Duration `yaml:"timeout" mapstructure:"timeout"`
	UserAgent     string        `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes  int64         `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots bool          `yaml:"respect_robots" mapstructure:"respect_robots"`
	HTTPProxy     string        `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy    string        `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy       string        `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig configures the fetched-article cache
type CacheConfig struct {
	Enabled   bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir       string        `yaml:"dir" mapstructure:"dir"`
	MemoryTTL time.Duration `yaml:"memory_ttl" mapstructure:"memory_ttl"`
	DiskTTL   time.Duration `yaml:"disk_ttl" mapstructure:"disk_ttl"`
}

// ConcurrencyConfig configures batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// ServerConfig configures the HTTP API
type ServerConfig struct {
	Addr       string `yaml:"addr" mapstructure:"addr"`
	SamplesDir string `yaml:"samples_dir" mapstructure:"samples_dir"`
}

// OutputConfig controls console and report output
type OutputConfig struct {
	Verbose       bool `yaml:"verbose" mapstructure:"verbose"`
	Color         bool `yaml:"color" mapstructure:"color"`
	IncludeFooter bool `yaml:"include_footer" mapstructure:"include_footer"`
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "upstage",
			Model:             "solar-pro",
			Timeout:           60,
			MaxTokens:         2048,
			Temperature:       0,
			RequestsPerSecond: 2,
		},
		Search: SearchConfig{
			Backend:           "duckduckgo",
			MaxResults:        5,
			Region:            "wt-wt",
			Timeout:           20 * time.Second,
			RequestsPerSecond: 0.5,
		},
		Pipeline: PipelineConfig{
			MaxAttempts: 3,
		},
		Verify: VerifyConfig{
			IncludeContext:      true,
			ConfidenceThreshold: 0.7,
			ClampConfidence:     false,
		},
		HTTP: HTTPConfig{
			Timeout:       30 * time.Second,
			UserAgent:     "factcheck/0.1 (+https://github.com/ppiankov/factcheck)",
			MaxBodyBytes:  2_000_000,
			RespectRobots: true,
		},
		Cache: CacheConfig{
			Enabled:   true,
			Dir:       ".factcheck-cache",
			MemoryTTL: 15 * time.Minute,
			DiskTTL:   24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 2,
		},
		Server: ServerConfig{
			Addr:       ":30626",
			SamplesDir: "sample",
		},
		Output: OutputConfig{
			Verbose:       false,
			Color:         true,
			IncludeFooter: true,
		},
	}
}
