// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fetches candidate papers for a topic from a bibliographic
// provider (arXiv, PubMed or Semantic Scholar) and normalizes them into
// types.PaperRecord values.
package search

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// DefaultLimit is the number of records fetched when callers pass limit <= 0.
const DefaultLimit = types.DefaultLimit

// Backend pages through one provider's search results. Each provider
// implements this interface per the Strategy pattern.
type Backend interface {
	Name() string
	Source() types.Source

	// Page returns up to count records starting at offset. An empty page
	// means the upstream search is exhausted.
	Page(ctx context.Context, topic string, offset, count int) ([]types.PaperRecord, error)
}

// FetchError reports a provider failure part way through a fetch. Collected
// is the number of records gathered before the failure; those records are
// still returned by Fetch.
type FetchError struct {
	Backend   string
	Collected int
	Err       error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching from %s (after %d records): %v", e.Backend, e.Collected, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Fetch returns at most limit records for topic, in upstream relevance
// order. It pages through b until limit records are collected or the
// provider is exhausted. When a page request fails Fetch stops and returns
// the records collected so far together with a *FetchError.
//
// Duplicates are not removed.
func Fetch(ctx context.Context, b Backend, topic string, limit int) ([]types.PaperRecord, error) {
	return FetchPaged(ctx, b, topic, limit, 0)
}

// FetchPaged is Fetch with each upstream call asking for at most pageSize
// records. A pageSize <= 0 asks for all remaining records in every call.
func FetchPaged(ctx context.Context, b Backend, topic string, limit, pageSize int) ([]types.PaperRecord, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return nil, fmt.Errorf("topic is empty: provide a research topic")
	}
	if limit <= 0 {
		limit = DefaultLimit
	}

	var records []types.PaperRecord
	for len(records) < limit {
		count := limit - len(records)
		if pageSize > 0 && pageSize < count {
			count = pageSize
		}
		page, err := b.Page(ctx, topic, len(records), count)
		records = append(records, page...)
		if err != nil {
			if len(records) > limit {
				records = records[:limit]
			}
			return records, &FetchError{Backend: b.Name(), Collected: len(records), Err: err}
		}
		if len(page) == 0 {
			break
		}
	}
	if len(records) > limit {
		records = records[:limit]
	}
	return records, nil
}

// NewBackend returns the backend for source. client is shared by all
// requests the backend makes.
func NewBackend(source types.Source, client *http.Client, cfg types.SearchConfig) (Backend, error) {
	switch source {
	case types.SourceArxiv:
		return &ArxivBackend{Client: client, UserAgent: cfg.UserAgent}, nil
	case types.SourcePubMed:
		return &PubMedBackend{Client: client, UserAgent: cfg.UserAgent, APIKey: cfg.NCBIAPIKey}, nil
	case types.SourceScholar:
		return &ScholarBackend{Client: client, UserAgent: cfg.UserAgent, APIKey: cfg.ScholarAPIKey}, nil
	}
	return nil, fmt.Errorf("no search backend for source %q", source)
}

// FormatTable writes records as a human-readable table to w.
func FormatTable(records []types.PaperRecord, w io.Writer) {
	if len(records) == 0 {
		fmt.Fprintln(w, "No results found.")
		return
	}

	fmt.Fprintf(w, "%-4s  %-60s  %-20s  %-4s  %s\n", "#", "Title", "Authors", "Year", "URL")
	fmt.Fprintln(w, strings.Repeat("-", 120))
	for i, r := range records {
		fmt.Fprintf(w, "%-4d  %-60s  %-20s  %-4s  %s\n",
			i+1, truncate(r.Title, 60), formatAuthors(r.Authors), r.Year, r.URL)
	}
	fmt.Fprintf(w, "\n%d results\n", len(records))
}

// FormatJSON writes records as indented JSON to w.
func FormatJSON(records []types.PaperRecord, w io.Writer) error {
	if records == nil {
		records = []types.PaperRecord{}
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(records)
}

func formatAuthors(authors []string) string {
	switch len(authors) {
	case 0:
		return ""
	case 1:
		return truncate(authors[0], 20)
	default:
		return truncate(authors[0], 14) + " et al."
	}
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
