// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/essay-engine/internal/httputil"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// arxivAPIBase is the arXiv search endpoint. Declared as a var so tests
// can substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// ArxivBackend queries the arXiv Atom API.
type ArxivBackend struct {
	Client    *http.Client
	UserAgent string
}

// Name returns the backend identifier.
func (b *ArxivBackend) Name() string { return "arxiv" }

// Source returns types.SourceArxiv.
func (b *ArxivBackend) Source() types.Source { return types.SourceArxiv }

// Page requests count entries starting at offset, sorted by relevance. The
// record URL is the entry's abstract page and the year comes from the
// publication timestamp.
func (b *ArxivBackend) Page(ctx context.Context, topic string, offset, count int) ([]types.PaperRecord, error) {
	q := buildArxivQuery(topic)
	if q == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}

	reqURL := fmt.Sprintf("%s?search_query=%s&start=%d&max_results=%d&sortBy=relevance&sortOrder=descending",
		arxivAPIBase, q, offset, count)

	resp, err := httputil.Get(ctx, b.Client, reqURL, b.UserAgent, nil)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(feed.Entries))
	for _, entry := range feed.Entries {
		r := types.PaperRecord{
			Title:  collapseSpace(entry.Title),
			URL:    strings.TrimSpace(entry.ID),
			Year:   yearPrefix(entry.Published),
			Source: types.SourceArxiv,
		}
		for _, a := range entry.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				r.Authors = append(r.Authors, name)
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// buildArxivQuery turns free text into an all: field query with terms
// joined by '+', escaping each term for the query string.
func buildArxivQuery(topic string) string {
	terms := strings.Fields(topic)
	if len(terms) == 0 {
		return ""
	}
	for i, t := range terms {
		terms[i] = url.QueryEscape(t)
	}
	return "all:" + strings.Join(terms, "+")
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// yearPrefix returns the leading four-digit year of a date string such as
// "2023-01-17T18:58:00Z" or "2021 Mar 5". Strings that do not start with a
// year are returned trimmed but otherwise unchanged.
func yearPrefix(date string) string {
	date = strings.TrimSpace(date)
	if len(date) >= 4 {
		if _, err := strconv.Atoi(date[:4]); err == nil {
			return date[:4]
		}
	}
	return date
}

// collapseSpace folds the line breaks and runs of spaces the Atom feed
// leaves in long titles.
func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
