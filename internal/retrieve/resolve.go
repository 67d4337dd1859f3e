// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package retrieve

import (
	"errors"
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// Kind is the expected document format at a Location.
type Kind int

const (
	KindHTML Kind = iota
	KindPDF
)

func (k Kind) String() string {
	if k == KindPDF {
		return "pdf"
	}
	return "html"
}

// Location is where a record's full text is downloaded from.
type Location struct {
	URL  string
	Kind Kind
}

// arxivPDFBase is the arXiv PDF endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivPDFBase = "https://arxiv.org/pdf/"

// arxivAbsPattern matches an abstract page URL and captures the new-style
// identifier with its optional version ("2301.07041v2").
var arxivAbsPattern = regexp.MustCompile(`arxiv\.org/abs/(\d+\.\d+(?:v\d+)?)`)

// ErrNoURL is returned by Resolve for records without a URL.
var ErrNoURL = errors.New("record has no URL")

// Resolve maps a record to its document location:
//   - arXiv: the PDF derived from the abstract page identifier
//   - PubMed: the HTML article page
//   - Scholar and others: a PDF when the URL path ends in .pdf, else HTML
//
// The Kind is a first guess; Retrieve re-checks the downloaded bytes.
func Resolve(rec types.PaperRecord) (Location, error) {
	raw := strings.TrimSpace(rec.URL)
	if raw == "" {
		return Location{}, ErrNoURL
	}

	switch rec.Source {
	case types.SourceArxiv:
		m := arxivAbsPattern.FindStringSubmatch(raw)
		if m == nil {
			return Location{}, fmt.Errorf("arXiv identifier not found in %q", raw)
		}
		return Location{URL: arxivPDFBase + m[1] + ".pdf", Kind: KindPDF}, nil
	case types.SourcePubMed:
		return Location{URL: raw, Kind: KindHTML}, nil
	}

	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Location{}, fmt.Errorf("unsupported document URL %q", raw)
	}
	if strings.HasSuffix(strings.ToLower(u.Path), ".pdf") {
		return Location{URL: raw, Kind: KindPDF}, nil
	}
	return Location{URL: raw, Kind: KindHTML}, nil
}
