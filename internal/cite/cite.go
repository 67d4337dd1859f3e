// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package cite renders paper records as reference-list entries. Format
// produces MLA or APA strings; WriteCSL and BibTeX export the same records
// for reference managers.
package cite

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/pdiddy/essay-engine/pkg/types"
)

var (
	// ErrInvalidUTF8 marks a field that is not valid UTF-8.
	ErrInvalidUTF8 = errors.New("invalid UTF-8")
	// ErrLineBreak marks an author name containing a line break.
	ErrLineBreak = errors.New("author name contains a line break")
	// ErrUnknownStyle is reported for every record when the style is not
	// mla or apa.
	ErrUnknownStyle = errors.New("unknown citation style")
)

// FormatError reports a record that could not be rendered. Index is the
// record's position in the input list.
type FormatError struct {
	Index int
	Field string
	Err   error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("record %d: %s: %v", e.Index, e.Field, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Format renders one citation per record, in input order. Records that fail
// validation are reported to w as warnings and left out, so the result is
// never longer than records. Format has no other side effects.
func Format(records []types.PaperRecord, style types.Style, w io.Writer) []string {
	out := make([]string, 0, len(records))
	for i, rec := range records {
		s, err := formatOne(i, rec, style)
		if err != nil {
			fmt.Fprintf(w, "warning: skipping reference: %v\n", err)
			continue
		}
		out = append(out, s)
	}
	return out
}

func formatOne(i int, rec types.PaperRecord, style types.Style) (string, error) {
	if err := validate(i, rec); err != nil {
		return "", err
	}
	authors := rec.AuthorList()
	switch style {
	case types.StyleMLA:
		return fmt.Sprintf("%s. \"%s.\" %s, %s.", authors, rec.Title, rec.Year, rec.URL), nil
	case types.StyleAPA:
		return fmt.Sprintf("%s (%s). %s. Retrieved from %s", authors, rec.Year, rec.Title, rec.URL), nil
	}
	return "", &FormatError{Index: i, Field: "style", Err: fmt.Errorf("%w %q", ErrUnknownStyle, style)}
}

// validate checks every rendered field for invalid UTF-8 and every author
// for line breaks.
func validate(i int, rec types.PaperRecord) error {
	fields := []struct{ name, value string }{
		{"title", rec.Title},
		{"year", rec.Year},
		{"url", rec.URL},
	}
	for _, f := range fields {
		if !utf8.ValidString(f.value) {
			return &FormatError{Index: i, Field: f.name, Err: ErrInvalidUTF8}
		}
	}
	for _, a := range rec.Authors {
		if !utf8.ValidString(a) {
			return &FormatError{Index: i, Field: "authors", Err: ErrInvalidUTF8}
		}
		if strings.ContainsAny(a, "\r\n") {
			return &FormatError{Index: i, Field: "authors", Err: ErrLineBreak}
		}
	}
	return nil
}
