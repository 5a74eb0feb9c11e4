package search

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// partKind says how a query part matches.
type partKind int

const (
	// partTerm is a plain word, segmented by the analyzer.
	partTerm partKind = iota
	// partPhrase is a double-quoted section matched in order.
	partPhrase
	// partWildcard contains * or ? and matches file names only.
	partWildcard
)

type queryPart struct {
	text string
	kind partKind
}

// parseQuery splits a raw query into parts. The text is NFC-normalized
// first so composed and decomposed input segment the same way. Unclosed
// quotes run to the end of the string. Parts combine with AND.
func parseQuery(text string) []queryPart {
	text = norm.NFC.String(text)

	var parts []queryPart
	var buf strings.Builder
	inQuote := false

	flushWords := func() {
		for _, word := range strings.FieldsFunc(buf.String(), unicode.IsSpace) {
			kind := partTerm
			if strings.ContainsAny(word, "*?") {
				kind = partWildcard
			}
			parts = append(parts, queryPart{text: word, kind: kind})
		}
		buf.Reset()
	}
	flushPhrase := func() {
		phrase := strings.TrimSpace(buf.String())
		if phrase != "" {
			parts = append(parts, queryPart{text: phrase, kind: partPhrase})
		}
		buf.Reset()
	}

	for _, r := range text {
		switch {
		case r == '"' || r == '“' || r == '”':
			if inQuote {
				flushPhrase()
			} else {
				flushWords()
			}
			inQuote = !inQuote
		default:
			buf.WriteRune(r)
		}
	}
	if inQuote {
		flushPhrase()
	} else {
		flushWords()
	}

	return parts
}
