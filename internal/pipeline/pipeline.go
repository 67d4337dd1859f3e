// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pipeline sequences one essay run: fetch references, retrieve
// their full text, summarize each document, compose the essay and format
// the reference list. A Pipeline holds only configuration and clients, so
// one value can serve concurrent requests.
package pipeline

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/pdiddy/essay-engine/internal/cite"
	"github.com/pdiddy/essay-engine/internal/generate"
	"github.com/pdiddy/essay-engine/internal/history"
	"github.com/pdiddy/essay-engine/internal/retrieve"
	"github.com/pdiddy/essay-engine/internal/search"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// State is a step of the run state machine. StateDone and StateEmpty are
// terminal.
type State string

const (
	StateFetching    State = "fetching"
	StateRetrieving  State = "retrieving"
	StateSummarizing State = "summarizing"
	StateComposing   State = "composing"
	StateFormatting  State = "formatting"
	StateDone        State = "done"
	StateEmpty       State = "empty"
)

// BackendFunc returns the search backend serving source.
type BackendFunc func(source types.Source) (search.Backend, error)

// Retriever obtains full text for every record, keeping one outcome per
// record in input order.
type Retriever interface {
	RetrieveAll(ctx context.Context, records []types.PaperRecord, w io.Writer) []types.RetrievalOutcome
}

// Recorder persists finished runs.
type Recorder interface {
	Save(ctx context.Context, run *history.Run) error
}

// Deps are the collaborators of a Pipeline. Nil fields are built from the
// configuration passed to New, except History, which stays disabled.
type Deps struct {
	Backends  BackendFunc
	Retriever Retriever
	Generator generate.Generator
	History   Recorder
	// Out receives progress lines. Nil discards them.
	Out io.Writer
}

// Pipeline runs essay generations.
type Pipeline struct {
	cfg        types.PipelineConfig
	backends   BackendFunc
	retriever  Retriever
	summarizer *generate.Summarizer
	composer   *generate.Composer
	history    Recorder
	out        io.Writer
}

// New validates cfg and wires the collaborators. It fails when the
// generation API key is empty.
func New(cfg types.PipelineConfig, deps Deps) (*Pipeline, error) {
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	p := &Pipeline{
		cfg:       cfg,
		backends:  deps.Backends,
		retriever: deps.Retriever,
		history:   deps.History,
		out:       deps.Out,
	}
	if p.out == nil {
		p.out = io.Discard
	}
	if p.backends == nil {
		client := &http.Client{Timeout: cfg.Search.Timeout}
		p.backends = func(source types.Source) (search.Backend, error) {
			return search.NewBackend(source, client, cfg.Search)
		}
	}
	if p.retriever == nil {
		extractor, err := retrieve.NewExtractor(context.Background(), cfg.Retrieval)
		if err != nil {
			return nil, fmt.Errorf("creating PDF extractor: %w", err)
		}
		p.retriever = retrieve.New(&http.Client{Timeout: cfg.Retrieval.Timeout}, cfg.Retrieval, extractor)
	}
	gen := deps.Generator
	if gen == nil {
		var err error
		if gen, err = generate.NewGenerator(cfg.Generation.AIConfig); err != nil {
			return nil, fmt.Errorf("creating generator: %w", err)
		}
	}
	p.summarizer = generate.NewSummarizer(gen, cfg.Generation)
	p.composer = generate.NewComposer(gen, cfg.Generation)
	return p, nil
}

// Generate runs the pipeline once. A fetch failure is recorded in
// Result.FetchErr and the run continues with whatever records were
// collected. When no text could be retrieved the run ends in StateEmpty
// with the references still formatted. A summarize or compose failure
// aborts the run and is returned as *generate.GenerationError.
func (p *Pipeline) Generate(ctx context.Context, topic string, source types.Source, style types.Style) (*Result, error) {
	res := &Result{Topic: topic, Source: source, Style: style}

	p.enter(res, StateFetching)
	backend, err := p.backends(source)
	if err != nil {
		return nil, fmt.Errorf("selecting backend: %w", err)
	}
	fmt.Fprintf(p.out, "fetching: %q from %s (limit %d)\n", topic, backend.Name(), p.cfg.Search.Limit)
	records, err := search.FetchPaged(ctx, backend, topic, p.cfg.Search.Limit, p.cfg.Search.PageSize)
	if err != nil {
		res.FetchErr = err
		fmt.Fprintf(p.out, "fetch error: %v (continuing with %d records)\n", err, len(records))
	}
	res.Records = records

	p.enter(res, StateRetrieving)
	res.Outcomes = p.retriever.RetrieveAll(ctx, records, p.out)
	var texts []string
	for _, o := range res.Outcomes {
		if o.Succeeded() {
			texts = append(texts, o.Text)
		}
	}

	if len(texts) == 0 {
		res.References = cite.Format(records, style, p.out)
		p.enter(res, StateEmpty)
		return res, nil
	}

	p.enter(res, StateSummarizing)
	summaries, err := p.summarizer.SummarizeAll(ctx, texts, p.out)
	if err != nil {
		return nil, err
	}

	p.enter(res, StateComposing)
	essay, err := p.composer.Compose(ctx, topic, summaries)
	if err != nil {
		return nil, err
	}
	res.Essay = essay

	p.enter(res, StateFormatting)
	res.References = cite.Format(records, style, p.out)

	p.enter(res, StateDone)
	return res, nil
}

// Run calls Generate and records the result in the history store when one
// is configured. A history failure is reported on the progress writer and
// does not fail the run.
func (p *Pipeline) Run(ctx context.Context, topic string, source types.Source, style types.Style) (*Result, error) {
	res, err := p.Generate(ctx, topic, source, style)
	if err != nil {
		return nil, err
	}
	if p.history != nil {
		run := res.HistoryRun()
		if err := p.history.Save(ctx, run); err != nil {
			fmt.Fprintf(p.out, "warning: recording run: %v\n", err)
		} else {
			res.RunID = run.ID
		}
	}
	return res, nil
}

func (p *Pipeline) enter(res *Result, s State) {
	res.State = s
	switch s {
	case StateDone, StateEmpty:
		fmt.Fprintf(p.out, "run %s: %d records, %d retrieved\n", s, len(res.Records), res.Retrieved())
	}
}
