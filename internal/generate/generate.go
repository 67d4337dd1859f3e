// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package generate turns retrieved document text into summaries and
// summaries into an essay through a text-generation API. The Generator
// interface hides the provider; OpenAI and Anthropic implementations are
// provided.
package generate

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// Request is one completion call: a system instruction and a user prompt.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Generator abstracts the text-generation API so tests can supply a fake.
// Implementations return the text of the first completion choice.
type Generator interface {
	Complete(ctx context.Context, req Request) (string, error)
}

// Stage names the generation step that failed.
type Stage string

const (
	StageSummarize Stage = "summarize"
	StageCompose   Stage = "compose"
)

// GenerationError reports a generation call that still failed after retries.
// It invalidates the whole run.
type GenerationError struct {
	Stage Stage
	Err   error
}

func (e *GenerationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// ErrEmptyCompletion is returned when the API answers with no text.
var ErrEmptyCompletion = errors.New("completion contained no text")

// NewGenerator returns the Generator selected by cfg.Provider.
func NewGenerator(cfg types.AIConfig) (Generator, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", providerOrDefault(cfg.Provider))
	}
	switch providerOrDefault(cfg.Provider) {
	case types.ProviderOpenAI:
		return NewOpenAIGenerator(cfg), nil
	case types.ProviderAnthropic:
		return NewAnthropicGenerator(cfg), nil
	}
	return nil, fmt.Errorf("unsupported generation provider %q", cfg.Provider)
}

func providerOrDefault(p types.Provider) types.Provider {
	if p == "" {
		return types.ProviderOpenAI
	}
	return p
}

// backoffBase controls the base duration for exponential backoff. Tests
// override this to avoid real sleeps.
var backoffBase = 2 * time.Second

// completeWithRetry calls g, retrying failed calls up to maxRetries times
// with exponential backoff. Context cancellation is not retried.
func completeWithRetry(ctx context.Context, g Generator, req Request, maxRetries int) (string, error) {
	if maxRetries < 0 {
		maxRetries = 0
	}
	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * backoffBase
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(backoff):
			}
		}

		text, err := g.Complete(ctx, req)
		if err == nil {
			return text, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		lastErr = err
	}
	return "", fmt.Errorf("after %d retries: %w", maxRetries, lastErr)
}
