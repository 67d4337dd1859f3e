// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"os"
	"time"

	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// ResultFile is the on-disk form of a fetch: the topic, the provider and the
// records it returned. Saving a fetch lets a later generate run reuse the
// same references without querying the provider again.
type ResultFile struct {
	Topic   string              `yaml:"topic"`
	Source  types.Source        `yaml:"source"`
	Limit   int                 `yaml:"limit"`
	Records []types.PaperRecord `yaml:"records"`
	Summary ResultSummary       `yaml:"summary"`
}

// ResultSummary stores record counts, any fetch failure and a timestamp.
type ResultSummary struct {
	Total      int       `yaml:"total"`
	FetchError string    `yaml:"fetch_error,omitempty"`
	Timestamp  time.Time `yaml:"timestamp"`
}

// WriteResultFile saves a fetch to a YAML file.
func WriteResultFile(path, topic string, source types.Source, limit int, records []types.PaperRecord, fetchErr error) error {
	rf := ResultFile{
		Topic:   topic,
		Source:  source,
		Limit:   limit,
		Records: records,
		Summary: ResultSummary{
			Total:     len(records),
			Timestamp: time.Now().UTC(),
		},
	}
	if fetchErr != nil {
		rf.Summary.FetchError = fetchErr.Error()
	}

	data, err := yaml.Marshal(&rf)
	if err != nil {
		return fmt.Errorf("marshaling result file: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

// ReadResultFile loads a previously saved result file from disk.
func ReadResultFile(path string) (*ResultFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading result file: %w", err)
	}
	var rf ResultFile
	if err := yaml.Unmarshal(data, &rf); err != nil {
		return nil, fmt.Errorf("parsing result file: %w", err)
	}
	return &rf, nil
}

// FileBackend replays the records of a saved result file. It ignores the
// topic so a saved fetch can drive a generate run unchanged.
type FileBackend struct {
	File *ResultFile
}

// Name returns the backend identifier.
func (b *FileBackend) Name() string { return "file" }

// Source returns the provider recorded in the file.
func (b *FileBackend) Source() types.Source { return b.File.Source }

// Page returns stored records in saved order.
func (b *FileBackend) Page(_ context.Context, _ string, offset, count int) ([]types.PaperRecord, error) {
	recs := b.File.Records
	if offset >= len(recs) {
		return nil, nil
	}
	end := offset + count
	if end > len(recs) {
		end = len(recs)
	}
	return recs[offset:end], nil
}
