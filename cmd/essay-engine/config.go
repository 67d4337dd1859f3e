// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/essay-engine/internal/secrets"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// setDefaults registers every configuration key so AutomaticEnv can
// override keys absent from the config file.
func setDefaults(v *viper.Viper) {
	v.SetDefault("search.limit", types.DefaultLimit)
	v.SetDefault("search.timeout", types.DefaultTimeout)
	v.SetDefault("search.user_agent", types.DefaultUserAgent)
	v.SetDefault("search.page_size", 0)
	v.SetDefault("search.scholar_api_key", "")
	v.SetDefault("search.ncbi_api_key", "")

	v.SetDefault("retrieval.timeout", types.DefaultTimeout)
	v.SetDefault("retrieval.user_agent", types.DefaultUserAgent)
	v.SetDefault("retrieval.pdf_backend", string(types.PDFNative))
	v.SetDefault("retrieval.max_document_bytes", types.DefaultMaxDocumentBytes)
	v.SetDefault("retrieval.container_runtime", "")
	v.SetDefault("retrieval.markitdown_image", types.DefaultMarkitdownImage)

	v.SetDefault("generation.provider", string(types.ProviderOpenAI))
	v.SetDefault("generation.model", "")
	v.SetDefault("generation.api_key", "")
	v.SetDefault("generation.base_url", "")
	v.SetDefault("generation.max_retries", types.DefaultMaxRetries)
	v.SetDefault("generation.summary_max_tokens", types.DefaultSummaryMaxTokens)
	v.SetDefault("generation.essay_max_tokens", types.DefaultEssayMaxTokens)
	v.SetDefault("generation.temperature", types.DefaultTemperature)
	v.SetDefault("generation.word_count", types.DefaultWordCount)
	v.SetDefault("generation.max_input_tokens", types.DefaultMaxInputTokens)

	v.SetDefault("history.enabled", true)
	v.SetDefault("history.dir", types.DefaultHistoryDir)
	v.SetDefault("server.addr", types.DefaultAddr)
}

// loadConfig builds the pipeline configuration from viper, resolves API
// keys against the environment and the secrets directory, and applies the
// command's flag overrides.
func loadConfig(v *viper.Viper, s secrets.Secrets, cmd *cobra.Command) (types.PipelineConfig, error) {
	var cfg types.PipelineConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding configuration: %w", err)
	}

	if cmd != nil {
		applyFlags(cmd, &cfg)
	}

	g := &cfg.Generation
	keyName := secrets.OpenAIKey
	if g.Provider == types.ProviderAnthropic {
		keyName = secrets.AnthropicKey
	}
	g.APIKey = s.Resolve(keyName, g.APIKey)
	cfg.Search.ScholarAPIKey = s.Resolve(secrets.ScholarKey, cfg.Search.ScholarAPIKey)
	cfg.Search.NCBIAPIKey = s.Resolve(secrets.NCBIKey, cfg.Search.NCBIAPIKey)

	cfg.ApplyDefaults()
	return cfg, nil
}

// applyFlags copies explicitly set flags over the configured values.
func applyFlags(cmd *cobra.Command, cfg *types.PipelineConfig) {
	flags := cmd.Flags()
	if flags.Changed("limit") {
		cfg.Search.Limit, _ = flags.GetInt("limit")
	}
	if flags.Changed("provider") {
		p, _ := flags.GetString("provider")
		cfg.Generation.Provider = types.Provider(p)
	}
	if flags.Changed("model") {
		cfg.Generation.Model, _ = flags.GetString("model")
	}
	if flags.Changed("words") {
		cfg.Generation.WordCount, _ = flags.GetInt("words")
	}
	if flags.Changed("pdf-backend") {
		b, _ := flags.GetString("pdf-backend")
		cfg.Retrieval.PDFBackend = types.PDFBackend(b)
	}
	if flags.Changed("addr") {
		cfg.Server.Addr, _ = flags.GetString("addr")
	}
	if flags.Changed("no-history") {
		off, _ := flags.GetBool("no-history")
		cfg.History.Enabled = !off
	}
}
