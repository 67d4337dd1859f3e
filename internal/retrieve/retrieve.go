// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package retrieve downloads the full text behind a PaperRecord. PDF
// documents go through a pluggable Extractor; HTML pages contribute the
// text of their paragraphs.
package retrieve

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"mime"
	"net/http"

	"github.com/pdiddy/essay-engine/internal/httputil"
	"github.com/pdiddy/essay-engine/pkg/types"
)

// Stage names the retrieval step that failed.
type Stage string

const (
	StageResolve  Stage = "resolve"
	StageDownload Stage = "download"
	StageExtract  Stage = "extract"
)

// RetrievalError reports why text could not be obtained for a record.
type RetrievalError struct {
	Record types.PaperRecord
	Stage  Stage
	Err    error
}

func (e *RetrievalError) Error() string {
	return fmt.Sprintf("%s %q: %v", e.Stage, e.Record.Title, e.Err)
}

func (e *RetrievalError) Unwrap() error { return e.Err }

// Extractor turns a PDF document into plain text.
type Extractor interface {
	Extract(ctx context.Context, data []byte) (string, error)
}

// Retriever fetches full text for records. It holds no per-record state and
// is safe for concurrent use when its client and extractor are.
type Retriever struct {
	client *http.Client
	cfg    types.RetrievalConfig
	pdf    Extractor
}

// New returns a Retriever. A nil pdf extractor selects PDFExtractor.
func New(client *http.Client, cfg types.RetrievalConfig, pdf Extractor) *Retriever {
	if pdf == nil {
		pdf = PDFExtractor{}
	}
	if cfg.MaxDocumentBytes <= 0 {
		cfg.MaxDocumentBytes = types.DefaultMaxDocumentBytes
	}
	return &Retriever{client: client, cfg: cfg, pdf: pdf}
}

// Retrieve resolves, downloads and extracts the text of rec. Each record
// gets a single attempt; only HTTP 429 responses are retried with back-off.
// Failures are returned as *RetrievalError.
func (r *Retriever) Retrieve(ctx context.Context, rec types.PaperRecord) (string, error) {
	loc, err := Resolve(rec)
	if err != nil {
		return "", &RetrievalError{Record: rec, Stage: StageResolve, Err: err}
	}

	data, contentType, err := r.download(ctx, loc)
	if err != nil {
		return "", &RetrievalError{Record: rec, Stage: StageDownload, Err: err}
	}

	var text string
	if isPDF(loc, data, contentType) {
		text, err = r.pdf.Extract(ctx, data)
	} else {
		text, err = ParagraphText(bytes.NewReader(data))
	}
	if err != nil {
		return "", &RetrievalError{Record: rec, Stage: StageExtract, Err: err}
	}
	return text, nil
}

// RetrieveAll retrieves every record in order and returns one outcome per
// record. Progress and per-record failures are written to w; a failed
// record never stops the loop.
func (r *Retriever) RetrieveAll(ctx context.Context, records []types.PaperRecord, w io.Writer) []types.RetrievalOutcome {
	outcomes := make([]types.RetrievalOutcome, 0, len(records))
	ok := 0
	for _, rec := range records {
		text, err := r.Retrieve(ctx, rec)
		if err != nil {
			fmt.Fprintf(w, "failed:    %s (%v)\n", rec.Title, err)
		} else {
			fmt.Fprintf(w, "retrieved: %s (%d chars)\n", rec.Title, len(text))
			ok++
		}
		outcomes = append(outcomes, types.RetrievalOutcome{Record: rec, Text: text, Err: err})
	}
	fmt.Fprintf(w, "retrieval summary: %d retrieved, %d failed (total: %d)\n", ok, len(records)-ok, len(records))
	return outcomes
}

func (r *Retriever) download(ctx context.Context, loc Location) ([]byte, string, error) {
	header := http.Header{}
	if loc.Kind == KindPDF {
		header.Set("Accept", "application/pdf")
	} else {
		header.Set("Accept", "text/html,application/xhtml+xml")
	}

	resp, err := httputil.Get(ctx, r.client, loc.URL, r.cfg.UserAgent, header)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	data, err := httputil.ReadLimited(resp.Body, r.cfg.MaxDocumentBytes)
	if err != nil {
		return nil, "", fmt.Errorf("reading %s: %w", loc.URL, err)
	}
	return data, resp.Header.Get("Content-Type"), nil
}

var pdfMagic = []byte("%PDF-")

// isPDF reports whether a download should go through the PDF extractor:
// the location says so, the body starts with the PDF magic, or the server
// labels it application/pdf.
func isPDF(loc Location, data []byte, contentType string) bool {
	if loc.Kind == KindPDF || bytes.HasPrefix(data, pdfMagic) {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	return err == nil && mt == "application/pdf"
}
