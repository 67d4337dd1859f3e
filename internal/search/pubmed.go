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

// pubmedAPIBase is the NCBI E-utilities root. Declared as a var so tests
// can substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// pubmedArticleBase is the landing page prefix for a PubMed ID.
const pubmedArticleBase = "https://pubmed.ncbi.nlm.nih.gov/"

// PubMedBackend queries PubMed through NCBI E-utilities: one esearch call
// for the ID page, then one esummary call per ID.
type PubMedBackend struct {
	Client    *http.Client
	UserAgent string
	APIKey    string
}

// Name returns the backend identifier.
func (b *PubMedBackend) Name() string { return "pubmed" }

// Source returns types.SourcePubMed.
func (b *PubMedBackend) Source() types.Source { return types.SourcePubMed }

// Page returns summaries for up to count PubMed IDs starting at offset. If an
// esummary call fails, the records summarized so far are returned together
// with the error.
func (b *PubMedBackend) Page(ctx context.Context, topic string, offset, count int) ([]types.PaperRecord, error) {
	ids, err := b.search(ctx, topic, offset, count)
	if err != nil {
		return nil, err
	}

	records := make([]types.PaperRecord, 0, len(ids))
	for _, id := range ids {
		r, err := b.summary(ctx, id)
		if err != nil {
			return records, fmt.Errorf("PubMed summary for %s: %w", id, err)
		}
		records = append(records, r)
	}
	return records, nil
}

func (b *PubMedBackend) search(ctx context.Context, topic string, offset, count int) ([]string, error) {
	params := b.params()
	params.Set("db", "pubmed")
	params.Set("term", topic)
	params.Set("retmode", "json")
	params.Set("retstart", strconv.Itoa(offset))
	params.Set("retmax", strconv.Itoa(count))

	resp, err := httputil.Get(ctx, b.Client, pubmedAPIBase+"/esearch.fcgi?"+params.Encode(), b.UserAgent, nil)
	if err != nil {
		return nil, fmt.Errorf("PubMed search request: %w", err)
	}
	defer resp.Body.Close()

	var sr pubmedSearchResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return nil, fmt.Errorf("parsing PubMed search response: %w", err)
	}
	return sr.Result.IDList, nil
}

func (b *PubMedBackend) summary(ctx context.Context, id string) (types.PaperRecord, error) {
	params := b.params()
	params.Set("db", "pubmed")
	params.Set("id", id)
	params.Set("retmode", "json")

	resp, err := httputil.Get(ctx, b.Client, pubmedAPIBase+"/esummary.fcgi?"+params.Encode(), b.UserAgent, nil)
	if err != nil {
		return types.PaperRecord{}, err
	}
	defer resp.Body.Close()

	var sr pubmedSummaryResponse
	if err := json.NewDecoder(resp.Body).Decode(&sr); err != nil {
		return types.PaperRecord{}, fmt.Errorf("parsing PubMed summary: %w", err)
	}

	r := types.PaperRecord{
		URL:    pubmedArticleBase + id + "/",
		Source: types.SourcePubMed,
	}
	raw, ok := sr.Result[id]
	if !ok {
		// Missing document summary: keep the record with only its URL.
		return r, nil
	}
	var doc pubmedDocSummary
	if err := json.Unmarshal(raw, &doc); err != nil {
		return types.PaperRecord{}, fmt.Errorf("parsing PubMed document %s: %w", id, err)
	}

	r.Title = strings.TrimSpace(doc.Title)
	r.Year = yearPrefix(doc.PubDate)
	for _, a := range doc.Authors {
		if name := strings.TrimSpace(a.Name); name != "" {
			r.Authors = append(r.Authors, name)
		}
	}
	return r, nil
}

func (b *PubMedBackend) params() url.Values {
	v := url.Values{}
	if b.APIKey != "" {
		v.Set("api_key", b.APIKey)
	}
	return v
}

// E-utilities JSON structures.
type pubmedSearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

// pubmedSummaryResponse keeps documents raw: the result object mixes a
// "uids" array with one object per ID.
type pubmedSummaryResponse struct {
	Result map[string]json.RawMessage `json:"result"`
}

type pubmedDocSummary struct {
	Title   string         `json:"title"`
	PubDate string         `json:"pubdate"`
	Authors []pubmedAuthor `json:"authors"`
}

type pubmedAuthor struct {
	Name string `json:"name"`
}
