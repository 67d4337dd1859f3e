// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"go.yaml.in/yaml/v3"
)

const exportLimit = 100000

// ExportYAML writes every recorded run, newest first, as a YAML list.
func (s *Store) ExportYAML(ctx context.Context, w io.Writer) error {
	runs, err := s.List(ctx, exportLimit)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	enc := yaml.NewEncoder(w)
	defer enc.Close()
	if err := enc.Encode(nonNilRuns(runs)); err != nil {
		return fmt.Errorf("marshaling YAML: %w", err)
	}
	return nil
}

// ExportJSON writes every recorded run, newest first, as an indented JSON
// array.
func (s *Store) ExportJSON(ctx context.Context, w io.Writer) error {
	runs, err := s.List(ctx, exportLimit)
	if err != nil {
		return fmt.Errorf("querying for export: %w", err)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(nonNilRuns(runs)); err != nil {
		return fmt.Errorf("marshaling JSON: %w", err)
	}
	return nil
}

func nonNilRuns(runs []Run) []Run {
	if runs == nil {
		return []Run{}
	}
	return runs
}
