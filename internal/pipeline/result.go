// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"github.com/pdiddy/essay-engine/internal/history"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// Result is the outcome of one run. Essay is empty when State is
// StateEmpty. References hold one entry per formattable record in fetch
// order, whether or not its text was retrieved.
type Result struct {
	Topic  string
	Source types.Source
	Style  types.Style
	State  State

	Essay      string
	References []string

	Records  []types.PaperRecord
	Outcomes []types.RetrievalOutcome
	FetchErr error

	// RunID is set by Run once the result is recorded.
	RunID string
}

// HasEssay reports whether the run produced an essay.
func (r *Result) HasEssay() bool {
	return r.State == StateDone
}

// EssayText returns the essay, or the no-essay message for an empty run.
func (r *Result) EssayText() string {
	if !r.HasEssay() {
		return types.NoEssayMessage
	}
	return r.Essay
}

// Retrieved counts the records whose text was retrieved.
func (r *Result) Retrieved() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

// Failures returns the outcomes whose retrieval failed, in fetch order.
func (r *Result) Failures() []types.RetrievalOutcome {
	var failed []types.RetrievalOutcome
	for _, o := range r.Outcomes {
		if !o.Succeeded() {
			failed = append(failed, o)
		}
	}
	return failed
}

// HistoryRun converts the result into a history record.
func (r *Result) HistoryRun() *history.Run {
	return &history.Run{
		Topic:      r.Topic,
		Source:     r.Source,
		Style:      r.Style,
		State:      string(r.State),
		Essay:      r.Essay,
		References: r.References,
		Records:    r.Records,
	}
}
