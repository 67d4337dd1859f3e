// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package types defines shared data structures for the essay-engine pipeline:
// the normalized PaperRecord produced by every search backend, the source and
// citation style selectors, per-record retrieval outcomes, and the stage
// configuration structs.
package types

import (
	"fmt"
	"strings"
)

// Source identifies the bibliographic provider a PaperRecord came from.
type Source string

const (
	SourceArxiv   Source = "arxiv"
	SourcePubMed  Source = "pubmed"
	SourceScholar Source = "scholar"
)

// Sources lists every supported provider in display order.
var Sources = []Source{SourceArxiv, SourcePubMed, SourceScholar}

// ParseSource maps a user-supplied journal name to a Source. Matching is
// case-insensitive, so "PUBMED", "PubMed" and "pubmed" are equivalent.
func ParseSource(s string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(s))) {
	case SourceArxiv:
		return SourceArxiv, nil
	case SourcePubMed:
		return SourcePubMed, nil
	case SourceScholar, "semantic_scholar", "semanticscholar":
		return SourceScholar, nil
	}
	return "", fmt.Errorf("unsupported journal %q: use arxiv, pubmed, or scholar", s)
}

// Style selects a citation formatting convention.
type Style string

const (
	StyleMLA Style = "mla"
	StyleAPA Style = "apa"
)

// ParseStyle maps a user-supplied style name to a Style, case-insensitively.
func ParseStyle(s string) (Style, error) {
	switch Style(strings.ToLower(strings.TrimSpace(s))) {
	case StyleMLA:
		return StyleMLA, nil
	case StyleAPA:
		return StyleAPA, nil
	}
	return "", fmt.Errorf("unsupported style %q: use mla or apa", s)
}

// PaperRecord is a candidate paper returned by a search backend. Backends map
// their provider-native shapes into this record; missing fields are left as
// empty strings (or a nil author list) so downstream formatting stays total.
// Records are not mutated after the fetch that created them.
type PaperRecord struct {
	// Title is the paper title as returned by the provider.
	Title string `json:"title" yaml:"title"`

	// Authors lists author display names in provider order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year. Providers returning a full date
	// contribute only the year; providers without a date leave it empty.
	Year string `json:"year" yaml:"year"`

	// URL is the landing page (or open-access PDF) for the paper.
	URL string `json:"url" yaml:"url"`

	// Source identifies the provider that produced this record.
	Source Source `json:"source" yaml:"source"`
}

// AuthorList returns the comma-joined author names used by citation styles.
func (p PaperRecord) AuthorList() string {
	return strings.Join(p.Authors, ", ")
}

// RetrievalOutcome records the full-text retrieval result for one record.
// Exactly one of Text or Err is meaningful: a non-nil Err means the record
// was dropped from the text pipeline.
type RetrievalOutcome struct {
	Record PaperRecord
	Text   string
	Err    error
}

// Succeeded reports whether text was retrieved for the record.
func (o RetrievalOutcome) Succeeded() bool {
	return o.Err == nil
}

// NoEssayMessage is shown in place of an essay when no document text could
// be retrieved for any fetched record.
const NoEssayMessage = "No essay generated due to errors in fetching or processing papers."
