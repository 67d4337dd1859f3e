// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pipeline

import (
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// RunFile is the YAML form of a Result written by generate --output.
type RunFile struct {
	Topic      string         `yaml:"topic"`
	Source     types.Source   `yaml:"source"`
	Style      types.Style    `yaml:"style"`
	State      State          `yaml:"state"`
	Essay      string         `yaml:"essay"`
	References []string       `yaml:"references"`
	Outcomes   []OutcomeEntry `yaml:"outcomes"`
	FetchError string         `yaml:"fetch_error,omitempty"`
	Timestamp  string         `yaml:"timestamp"`
}

// OutcomeEntry records the retrieval result for one fetched record.
type OutcomeEntry struct {
	Record    types.PaperRecord `yaml:"record"`
	Retrieved bool              `yaml:"retrieved"`
	Chars     int               `yaml:"chars,omitempty"`
	Error     string            `yaml:"error,omitempty"`
}

// NewRunFile builds the serializable form of res.
func NewRunFile(res *Result) RunFile {
	f := RunFile{
		Topic:      res.Topic,
		Source:     res.Source,
		Style:      res.Style,
		State:      res.State,
		Essay:      res.Essay,
		References: res.References,
		Outcomes:   make([]OutcomeEntry, len(res.Outcomes)),
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
	}
	if f.References == nil {
		f.References = []string{}
	}
	if res.FetchErr != nil {
		f.FetchError = res.FetchErr.Error()
	}
	for i, o := range res.Outcomes {
		e := OutcomeEntry{Record: o.Record, Retrieved: o.Succeeded()}
		if o.Succeeded() {
			e.Chars = len(o.Text)
		} else {
			e.Error = o.Err.Error()
		}
		f.Outcomes[i] = e
	}
	return f
}

// WriteRunFile writes res as YAML to path.
func WriteRunFile(path string, res *Result) error {
	data, err := yaml.Marshal(NewRunFile(res))
	if err != nil {
		return fmt.Errorf("marshaling run file: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing run file: %w", err)
	}
	return nil
}

// ReadRunFile parses a run file written by WriteRunFile.
func ReadRunFile(path string) (*RunFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading run file: %w", err)
	}
	var f RunFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, fmt.Errorf("parsing run file: %w", err)
	}
	return &f, nil
}
