// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"time"
)

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "essay-engine/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the reference fetch stage.
type SearchConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// Limit is the maximum number of records fetched per run (default 5).
	Limit int `json:"limit" yaml:"limit" mapstructure:"limit"`

	// PageSize is the number of records requested per upstream call
	// (default: Limit).
	PageSize int `json:"page_size" yaml:"page_size" mapstructure:"page_size"`

	// ScholarAPIKey is an optional Semantic Scholar key for higher rate limits.
	ScholarAPIKey string `json:"scholar_api_key,omitempty" yaml:"scholar_api_key,omitempty" mapstructure:"scholar_api_key"`

	// NCBIAPIKey is an optional NCBI E-utilities key.
	NCBIAPIKey string `json:"ncbi_api_key,omitempty" yaml:"ncbi_api_key,omitempty" mapstructure:"ncbi_api_key"`
}

// PDFBackend identifies the PDF text extraction tool.
type PDFBackend string

const (
	PDFNative     PDFBackend = "native"
	PDFMarkitdown PDFBackend = "markitdown"
)

// RetrievalConfig holds settings for the full-text retrieval stage.
type RetrievalConfig struct {
	HTTPConfig `yaml:",inline" mapstructure:",squash"`

	// PDFBackend selects the extractor used for PDF documents.
	PDFBackend PDFBackend `json:"pdf_backend" yaml:"pdf_backend" mapstructure:"pdf_backend"`

	// MaxDocumentBytes caps the size of a downloaded document (default 50 MiB).
	MaxDocumentBytes int64 `json:"max_document_bytes" yaml:"max_document_bytes" mapstructure:"max_document_bytes"`

	// ContainerRuntime pins the markitdown runtime to docker or podman.
	// Empty means docker with podman fallback.
	ContainerRuntime string `json:"container_runtime,omitempty" yaml:"container_runtime,omitempty" mapstructure:"container_runtime"`

	// MarkitdownImage is the container image used by the markitdown backend.
	MarkitdownImage string `json:"markitdown_image,omitempty" yaml:"markitdown_image,omitempty" mapstructure:"markitdown_image"`
}

// Provider identifies the text-generation API.
type Provider string

const (
	ProviderOpenAI    Provider = "openai"
	ProviderAnthropic Provider = "anthropic"
)

// AIConfig holds shared settings for stages that call a Generative AI API.
type AIConfig struct {
	// Provider selects the generation API: openai or anthropic.
	Provider Provider `json:"provider" yaml:"provider" mapstructure:"provider"`

	// Model is the AI model identifier (e.g. "gpt-3.5-turbo").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key for the AI API.
	APIKey string `json:"-" yaml:"-" mapstructure:"api_key"`

	// BaseURL overrides the provider endpoint (proxies, tests).
	BaseURL string `json:"base_url,omitempty" yaml:"base_url,omitempty" mapstructure:"base_url"`

	// MaxRetries is the number of retry attempts for failed API calls
	// (default 2). A negative value disables retries.
	MaxRetries int `json:"max_retries" yaml:"max_retries" mapstructure:"max_retries"`
}

// GenerationConfig holds settings for the summarize and compose stages.
type GenerationConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// SummaryMaxTokens bounds each summary (default 2000).
	SummaryMaxTokens int `json:"summary_max_tokens" yaml:"summary_max_tokens" mapstructure:"summary_max_tokens"`

	// EssayMaxTokens bounds the composed essay (default 3000).
	EssayMaxTokens int `json:"essay_max_tokens" yaml:"essay_max_tokens" mapstructure:"essay_max_tokens"`

	// Temperature is the sampling temperature for both stages (default 0.5).
	// Nil means unset; an explicit 0 is kept.
	Temperature *float64 `json:"temperature,omitempty" yaml:"temperature,omitempty" mapstructure:"temperature"`

	// WordCount is the target essay length in words (1000-1500, default 1000).
	WordCount int `json:"word_count" yaml:"word_count" mapstructure:"word_count"`

	// MaxInputTokens caps the document text sent for summarization
	// (default 12000, approximated as 4 characters per token).
	MaxInputTokens int `json:"max_input_tokens" yaml:"max_input_tokens" mapstructure:"max_input_tokens"`
}

// HistoryConfig holds settings for the run history store.
type HistoryConfig struct {
	// Enabled controls whether completed runs are recorded.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// Dir is the directory containing history.db.
	Dir string `json:"dir" yaml:"dir" mapstructure:"dir"`
}

// ServerConfig holds settings for the web front end.
type ServerConfig struct {
	// Addr is the listen address (default ":8080").
	Addr string `json:"addr" yaml:"addr" mapstructure:"addr"`
}

// PipelineConfig groups all stage configurations for the pipeline.
type PipelineConfig struct {
	Search     SearchConfig     `json:"search" yaml:"search" mapstructure:"search"`
	Retrieval  RetrievalConfig  `json:"retrieval" yaml:"retrieval" mapstructure:"retrieval"`
	Generation GenerationConfig `json:"generation" yaml:"generation" mapstructure:"generation"`
	History    HistoryConfig    `json:"history" yaml:"history" mapstructure:"history"`
	Server     ServerConfig     `json:"server" yaml:"server" mapstructure:"server"`
}

// Default values applied by ApplyDefaults.
const (
	DefaultLimit            = 5
	DefaultTimeout          = 60 * time.Second
	DefaultUserAgent        = "essay-engine/0.1"
	DefaultModel            = "gpt-3.5-turbo"
	DefaultAnthropicModel   = "claude-sonnet-4-5-20250929"
	DefaultSummaryMaxTokens = 2000
	DefaultEssayMaxTokens   = 3000
	DefaultTemperature      = 0.5
	DefaultWordCount        = 1000
	DefaultMaxInputTokens   = 12000
	DefaultMaxRetries       = 2
	DefaultMaxDocumentBytes = 50 << 20
	DefaultMarkitdownImage  = "markitdown:latest"
	DefaultAddr             = ":8080"
	DefaultHistoryDir       = "history"
)

// ApplyDefaults fills zero-valued fields with their defaults.
func (c *PipelineConfig) ApplyDefaults() {
	for _, h := range []*HTTPConfig{&c.Search.HTTPConfig, &c.Retrieval.HTTPConfig} {
		if h.Timeout == 0 {
			h.Timeout = DefaultTimeout
		}
		if h.UserAgent == "" {
			h.UserAgent = DefaultUserAgent
		}
	}
	if c.Search.Limit <= 0 {
		c.Search.Limit = DefaultLimit
	}
	if c.Search.PageSize <= 0 {
		c.Search.PageSize = c.Search.Limit
	}
	if c.Retrieval.PDFBackend == "" {
		c.Retrieval.PDFBackend = PDFNative
	}
	if c.Retrieval.MaxDocumentBytes <= 0 {
		c.Retrieval.MaxDocumentBytes = DefaultMaxDocumentBytes
	}
	if c.Retrieval.MarkitdownImage == "" {
		c.Retrieval.MarkitdownImage = DefaultMarkitdownImage
	}

	g := &c.Generation
	if g.Provider == "" {
		g.Provider = ProviderOpenAI
	}
	if g.Model == "" {
		g.Model = DefaultModel
		if g.Provider == ProviderAnthropic {
			g.Model = DefaultAnthropicModel
		}
	}
	if g.MaxRetries == 0 {
		g.MaxRetries = DefaultMaxRetries
	}
	if g.SummaryMaxTokens <= 0 {
		g.SummaryMaxTokens = DefaultSummaryMaxTokens
	}
	if g.EssayMaxTokens <= 0 {
		g.EssayMaxTokens = DefaultEssayMaxTokens
	}
	if g.Temperature == nil {
		t := DefaultTemperature
		g.Temperature = &t
	}
	if g.WordCount == 0 {
		g.WordCount = DefaultWordCount
	}
	if g.MaxInputTokens <= 0 {
		g.MaxInputTokens = DefaultMaxInputTokens
	}

	if c.History.Dir == "" {
		c.History.Dir = DefaultHistoryDir
	}
	if c.Server.Addr == "" {
		c.Server.Addr = DefaultAddr
	}
}

// SamplingTemperature returns the configured temperature, or the default
// when none was set.
func (g GenerationConfig) SamplingTemperature() float64 {
	if g.Temperature == nil {
		return DefaultTemperature
	}
	return *g.Temperature
}

// MaxTemperature is the highest sampling temperature p accepts.
func MaxTemperature(p Provider) float64 {
	if p == ProviderAnthropic {
		return 1
	}
	return 2
}

// Validate checks settings that have no usable default. The generation
// credential is required: a pipeline without it cannot produce essays.
func (c *PipelineConfig) Validate() error {
	g := c.Generation
	switch g.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return fmt.Errorf("unsupported generation provider %q: use openai or anthropic", g.Provider)
	}
	if g.APIKey == "" {
		return fmt.Errorf("generation API key is required for provider %s", g.Provider)
	}
	if g.WordCount < 1000 || g.WordCount > 1500 {
		return fmt.Errorf("word_count %d out of range [1000,1500]", g.WordCount)
	}
	if t, hi := g.SamplingTemperature(), MaxTemperature(g.Provider); t < 0 || t > hi {
		return fmt.Errorf("temperature %.2f out of range [0,%g] for provider %s", t, hi, g.Provider)
	}
	switch c.Retrieval.PDFBackend {
	case PDFNative, PDFMarkitdown:
	default:
		return fmt.Errorf("unsupported pdf_backend %q: use native or markitdown", c.Retrieval.PDFBackend)
	}
	return nil
}
