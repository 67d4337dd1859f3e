// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package generate

import (
	"context"
	"fmt"
	"io"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// charsPerToken approximates token counts for input truncation.
const charsPerToken = 4

// Summarizer condenses one document's text with a single generation call.
type Summarizer struct {
	gen Generator
	cfg types.GenerationConfig
}

// NewSummarizer returns a Summarizer using gen. Zero-valued settings in cfg
// take their defaults.
func NewSummarizer(gen Generator, cfg types.GenerationConfig) *Summarizer {
	if cfg.SummaryMaxTokens <= 0 {
		cfg.SummaryMaxTokens = types.DefaultSummaryMaxTokens
	}
	if cfg.MaxInputTokens <= 0 {
		cfg.MaxInputTokens = types.DefaultMaxInputTokens
	}
	return &Summarizer{gen: gen, cfg: cfg}
}

// Summarize returns a summary emphasizing findings, methodology,
// conclusions and implications. Text longer than the input budget is cut.
// A call that still fails after retries returns *GenerationError.
func (s *Summarizer) Summarize(ctx context.Context, text string) (string, error) {
	req := Request{
		System:      summarySystem,
		Prompt:      summaryPrompt + truncateInput(text, s.cfg.MaxInputTokens*charsPerToken),
		MaxTokens:   s.cfg.SummaryMaxTokens,
		Temperature: s.cfg.SamplingTemperature(),
	}
	out, err := completeWithRetry(ctx, s.gen, req, s.cfg.MaxRetries)
	if err != nil {
		return "", &GenerationError{Stage: StageSummarize, Err: err}
	}
	return out, nil
}

// SummarizeAll summarizes texts in order, one call per text, writing a
// progress line per summary to w. The first failure aborts the batch.
func (s *Summarizer) SummarizeAll(ctx context.Context, texts []string, w io.Writer) ([]string, error) {
	summaries := make([]string, 0, len(texts))
	for i, text := range texts {
		sum, err := s.Summarize(ctx, text)
		if err != nil {
			return nil, fmt.Errorf("text %d of %d: %w", i+1, len(texts), err)
		}
		fmt.Fprintf(w, "summarized: %d/%d (%d chars)\n", i+1, len(texts), len(sum))
		summaries = append(summaries, sum)
	}
	return summaries, nil
}

// truncateInput cuts text to at most limit bytes on a rune boundary and
// appends an ellipsis.
func truncateInput(text string, limit int) string {
	if limit <= 0 || len(text) <= limit {
		return text
	}
	cut := limit
	for cut > 0 && !runeStart(text[cut]) {
		cut--
	}
	return text[:cut] + "..."
}

func runeStart(b byte) bool { return b&0xC0 != 0x80 }
