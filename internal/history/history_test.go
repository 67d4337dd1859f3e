// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package history

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/essay-engine/pkg/types"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(types.HistoryConfig{Enabled: true, Dir: filepath.Join(t.TempDir(), "history")})
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })

	// Deterministic, strictly increasing timestamps.
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	n := 0
	s.now = func() time.Time {
		n++
		return base.Add(time.Duration(n) * time.Minute)
	}
	return s
}

func sampleRun(topic string) *Run {
	return &Run{
		Topic:      topic,
		Source:     types.SourceArxiv,
		Style:      types.StyleMLA,
		State:      "done",
		Essay:      "An essay about " + topic + ".",
		References: []string{`A. Smith. "Graph Theory." 2020, http://x.`},
		Records: []types.PaperRecord{
			{Title: "Graph Theory", Authors: []string{"A. Smith"}, Year: "2020", URL: "http://x", Source: types.SourceArxiv},
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()

	run := sampleRun("graph theory")
	require.NoError(t, s.Save(ctx, run))
	require.NotEmpty(t, run.ID)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 1, 0, 0, time.UTC), run.CreatedAt)

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, run, got)
}

func TestSaveKeepsGivenID(t *testing.T) {
	s := testStore(t)
	run := sampleRun("t")
	run.ID = "fixed-id"
	require.NoError(t, s.Save(context.Background(), run))
	assert.Equal(t, "fixed-id", run.ID)

	err := s.Save(context.Background(), run)
	assert.Error(t, err, "duplicate IDs are rejected")
}

func TestSaveEmptyRun(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	run := &Run{Topic: "nothing found", Source: types.SourcePubMed, Style: types.StyleAPA, State: "empty"}
	require.NoError(t, s.Save(ctx, run))

	got, err := s.Get(ctx, run.ID)
	require.NoError(t, err)
	assert.Equal(t, "", got.Essay)
	assert.Equal(t, []string{}, got.References)
	assert.Nil(t, got.Records)
}

func TestGetNotFound(t *testing.T) {
	s := testStore(t)
	_, err := s.Get(context.Background(), "missing")
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestListNewestFirst(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	for _, topic := range []string{"first", "second", "third"} {
		require.NoError(t, s.Save(ctx, sampleRun(topic)))
	}

	runs, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, runs, 3)
	assert.Equal(t, "third", runs[0].Topic)
	assert.Equal(t, "first", runs[2].Topic)

	runs, err = s.List(ctx, 2)
	require.NoError(t, err)
	assert.Len(t, runs, 2)
}

func TestSearch(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleRun("Graph Theory")))
	require.NoError(t, s.Save(ctx, sampleRun("protein folding")))
	other := sampleRun("misc")
	other.Essay = "Mentions 100% coverage of graphs."
	require.NoError(t, s.Save(ctx, other))

	tests := []struct {
		query string
		want  []string
	}{
		{"graph", []string{"misc", "Graph Theory"}},
		{"PROTEIN", []string{"protein folding"}},
		{"100%", []string{"misc"}},
		{"quantum", nil},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			runs, err := s.Search(ctx, tt.query, 10)
			require.NoError(t, err)
			var topics []string
			for _, r := range runs {
				topics = append(topics, r.Topic)
			}
			assert.Equal(t, tt.want, topics)
		})
	}
}

func TestExportYAML(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	require.NoError(t, s.Save(ctx, sampleRun("a")))
	require.NoError(t, s.Save(ctx, sampleRun("b")))

	var buf bytes.Buffer
	require.NoError(t, s.ExportYAML(ctx, &buf))

	var runs []Run
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &runs))
	require.Len(t, runs, 2)
	assert.Equal(t, "b", runs[0].Topic)
	assert.Equal(t, "Graph Theory", runs[1].Records[0].Title)
}

func TestExportJSONEmpty(t *testing.T) {
	s := testStore(t)
	var buf bytes.Buffer
	require.NoError(t, s.ExportJSON(context.Background(), &buf))
	assert.JSONEq(t, `[]`, buf.String())
}

func TestExportJSON(t *testing.T) {
	s := testStore(t)
	ctx := context.Background()
	run := sampleRun("a")
	require.NoError(t, s.Save(ctx, run))

	var buf bytes.Buffer
	require.NoError(t, s.ExportJSON(ctx, &buf))
	var runs []Run
	require.NoError(t, json.Unmarshal(buf.Bytes(), &runs))
	require.Len(t, runs, 1)
	assert.Equal(t, run.ID, runs[0].ID)
	assert.Equal(t, run.References, runs[0].References)
}

func TestOpenIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "h")
	s1, err := Open(types.HistoryConfig{Dir: dir})
	require.NoError(t, err)
	require.NoError(t, s1.Save(context.Background(), sampleRun("kept")))
	require.NoError(t, s1.Close())

	s2, err := Open(types.HistoryConfig{Dir: dir})
	require.NoError(t, err)
	defer s2.Close()
	runs, err := s2.List(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, "kept", runs[0].Topic)
}
