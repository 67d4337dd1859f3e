// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// Composer writes an essay from an ordered list of summaries.
type Composer struct {
	gen Generator
	cfg types.GenerationConfig
}

// NewComposer returns a Composer using gen. Zero-valued settings in cfg
// take their defaults.
func NewComposer(gen Generator, cfg types.GenerationConfig) *Composer {
	if cfg.EssayMaxTokens <= 0 {
		cfg.EssayMaxTokens = types.DefaultEssayMaxTokens
	}
	if cfg.WordCount == 0 {
		cfg.WordCount = types.DefaultWordCount
	}
	return &Composer{gen: gen, cfg: cfg}
}

// Compose makes one generation call for the essay. The caller guarantees
// summaries is non-empty; Compose does not check.
func (c *Composer) Compose(ctx context.Context, topic string, summaries []string) (string, error) {
	prompt, err := renderEssayPrompt(topic, c.cfg.WordCount, summaries)
	if err != nil {
		return "", fmt.Errorf("rendering essay prompt: %w", err)
	}
	req := Request{
		System:      essaySystem,
		Prompt:      prompt,
		MaxTokens:   c.cfg.EssayMaxTokens,
		Temperature: c.cfg.SamplingTemperature(),
	}
	out, err := completeWithRetry(ctx, c.gen, req, c.cfg.MaxRetries)
	if err != nil {
		return "", &GenerationError{Stage: StageCompose, Err: err}
	}
	return out, nil
}
