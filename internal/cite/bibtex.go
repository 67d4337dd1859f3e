// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package cite

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/pdiddy/essay-engine/pkg/types"
)

// BibTeX renders records as @article entries in input order.
func BibTeX(records []types.PaperRecord) string {
	keys := citationKeys(records)
	var b strings.Builder
	for i, r := range records {
		fmt.Fprintf(&b, "@article{%s,\n", keys[i])
		fmt.Fprintf(&b, "  title = {%s},\n", r.Title)
		if len(r.Authors) > 0 {
			fmt.Fprintf(&b, "  author = {%s},\n", strings.Join(r.Authors, " and "))
		}
		if r.Year != "" {
			fmt.Fprintf(&b, "  year = {%s},\n", r.Year)
		}
		if r.URL != "" {
			fmt.Fprintf(&b, "  url = {%s},\n", r.URL)
		}
		fmt.Fprintf(&b, "}\n\n")
	}
	return b.String()
}

// citationKeys derives an AuthorYear key per record, e.g. Smith2020.
// Collisions get a, b, ... z, aa, ab... suffixes in input order. Keys are
// unique across the whole list.
func citationKeys(records []types.PaperRecord) []string {
	keys := make([]string, len(records))
	seen := make(map[string]int)
	used := make(map[string]bool)
	for i, r := range records {
		base := keyBase(r)
		if base == "" {
			base = fmt.Sprintf("ref%d", i+1)
		}
		n := seen[base]
		key := base
		if n > 0 {
			key = base + keySuffix(n)
		}
		for used[key] {
			n++
			key = base + keySuffix(n)
		}
		seen[base] = n + 1
		used[key] = true
		keys[i] = key
	}
	return keys
}

// keySuffix maps 1, 2, ... 26, 27 to a, b, ... z, aa.
func keySuffix(n int) string {
	var b []byte
	for n > 0 {
		n--
		b = append([]byte{byte('a' + n%26)}, b...)
		n /= 26
	}
	return string(b)
}

func keyBase(r types.PaperRecord) string {
	var name string
	if len(r.Authors) > 0 {
		n := parseAuthorName(r.Authors[0])
		name = n.Family
		if name == "" {
			name = n.Literal
		}
	}
	var b strings.Builder
	for _, c := range name {
		if unicode.IsLetter(c) || unicode.IsDigit(c) {
			b.WriteRune(c)
		}
	}
	if y, ok := parseYear(r.Year); ok {
		fmt.Fprintf(&b, "%d", y)
	}
	return b.String()
}
