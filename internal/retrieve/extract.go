// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"
)

// ErrNoText is returned when a document parses but yields no text.
var ErrNoText = errors.New("document contains no extractable text")

// PDFExtractor extracts text with the pure-Go ledongthuc/pdf reader.
type PDFExtractor struct{}

// Extract concatenates the plain text of every page in page order.
// Documents with zero pages or only empty pages yield ErrNoText.
func (PDFExtractor) Extract(_ context.Context, data []byte) (text string, err error) {
	// The reader panics on some malformed streams.
	defer func() {
		if rec := recover(); rec != nil {
			text, err = "", fmt.Errorf("parsing PDF: %v", rec)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parsing PDF: %w", err)
	}

	n := r.NumPage()
	if n == 0 {
		return "", fmt.Errorf("PDF has no pages: %w", ErrNoText)
	}

	var b strings.Builder
	for i := 1; i <= n; i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		s, err := p.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("page %d: %w", i, err)
		}
		b.WriteString(s)
	}

	if strings.TrimSpace(b.String()) == "" {
		return "", ErrNoText
	}
	return b.String(), nil
}

// ParagraphText returns the text of every <p> element in document order,
// joined with single spaces. A page without paragraph text yields ErrNoText.
func ParagraphText(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parsing HTML: %w", err)
	}

	var parts []string
	doc.Find("p").Each(func(_ int, s *goquery.Selection) {
		parts = append(parts, s.Text())
	})

	text := strings.Join(parts, " ")
	if strings.TrimSpace(text) == "" {
		return "", ErrNoText
	}
	return text, nil
}
