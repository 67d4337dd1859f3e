// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/essay-engine/internal/httputil"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// scholarAPIBase is the Semantic Scholar paper search endpoint. Declared
// as a var so tests can substitute an httptest server.
var scholarAPIBase = "https://api.semanticscholar.org/graph/v1/paper/search"

const scholarFields = "title,authors,year,url,openAccessPdf"

// ScholarBackend serves the scholar source through the Semantic Scholar
// Graph API.
type ScholarBackend struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the backend identifier.
func (b *ScholarBackend) Name() string { return "scholar" }

// Source returns types.SourceScholar.
func (b *ScholarBackend) Source() types.Source { return types.SourceScholar }

// Page returns up to count papers starting at offset. The record URL is the
// open-access PDF when Semantic Scholar knows one, otherwise the paper page.
func (b *ScholarBackend) Page(ctx context.Context, topic string, offset, count int) ([]types.PaperRecord, error) {
	params := url.Values{
		"query":  {topic},
		"offset": {strconv.Itoa(offset)},
		"limit":  {strconv.Itoa(count)},
		"fields": {scholarFields},
	}

	var header http.Header
	if b.APIKey != "" {
		header = http.Header{}
		header.Set("x-api-key", b.APIKey)
	}

	resp, err := httputil.Get(ctx, b.Client, scholarAPIBase+"?"+params.Encode(), b.UserAgent, header)
	if err != nil {
		// Semantic Scholar rejects offsets past the result window with 400.
		if httputil.IsStatus(err, http.StatusBadRequest) && offset > 0 {
			return nil, nil
		}
		return nil, fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	var sr scholarResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}

	records := make([]types.PaperRecord, 0, len(sr.Data))
	for _, p := range sr.Data {
		r := types.PaperRecord{
			Title:  strings.TrimSpace(p.Title),
			URL:    p.URL,
			Source: types.SourceScholar,
		}
		if p.OpenAccessPDF != nil && p.OpenAccessPDF.URL != "" {
			r.URL = p.OpenAccessPDF.URL
		}
		if p.Year > 0 {
			r.Year = strconv.Itoa(p.Year)
		}
		for _, a := range p.Authors {
			if name := strings.TrimSpace(a.Name); name != "" {
				r.Authors = append(r.Authors, name)
			}
		}
		records = append(records, r)
	}
	return records, nil
}

// Semantic Scholar API JSON structures.
type scholarResponse struct {
	Total  int            `json:"total"`
	Offset int            `json:"offset"`
	Data   []scholarPaper `json:"data"`
}

type scholarPaper struct {
	PaperID       string          `json:"paperId"`
	Title         string          `json:"title"`
	Year          int             `json:"year"`
	URL           string          `json:"url"`
	Authors       []scholarAuthor `json:"authors"`
	OpenAccessPDF *struct {
		URL string `json:"url"`
	} `json:"openAccessPdf"`
}

type scholarAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}
