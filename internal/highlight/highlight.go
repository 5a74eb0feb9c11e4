// Package highlight maps matched terms back onto document text and cuts
// display fragments around them. The external analyzer reports terms, not
// offsets, so positions are recovered by scanning the original text.
package highlight

import (
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Span is a half-open byte range [Start, End) into the text it was
// computed against.
type Span struct {
	Start int `json:"start"`
	End   int `json:"end"`
}

// AlignTokens recovers byte offsets for analyzer tokens with a
// progressive case-insensitive scan. Tokens the analyzer synthesized or
// normalized away from the surface form are skipped. Tokens are assumed
// to arrive in document order, so the scan never moves backwards.
func AlignTokens(text string, tokens []string) []Span {
	if text == "" || len(tokens) == 0 {
		return nil
	}

	lower := strings.ToLower(text)
	spans := make([]Span, 0, len(tokens))
	offset := 0

	for _, token := range tokens {
		if token == "" || offset >= len(lower) {
			continue
		}
		needle := strings.ToLower(token)
		idx := strings.Index(lower[offset:], needle)
		if idx < 0 {
			continue
		}
		start := offset + idx
		end := start + len(needle)
		spans = append(spans, Span{Start: start, End: end})
		offset = end
	}

	return spans
}

// FindOccurrences returns every case-insensitive literal occurrence of
// each term, merged and sorted. Both text and terms are NFC-normalized
// before matching, so composed and decomposed spellings line up.
func FindOccurrences(text string, terms []string) []Span {
	if text == "" || len(terms) == 0 {
		return nil
	}

	// Indexed content is already NFC; normalizing here keeps the byte
	// offsets valid for text that arrived any other way.
	text = norm.NFC.String(text)
	lower := strings.ToLower(text)

	var spans []Span
	for _, term := range terms {
		needle := strings.ToLower(norm.NFC.String(term))
		if needle == "" {
			continue
		}
		offset := 0
		for offset < len(lower) {
			idx := strings.Index(lower[offset:], needle)
			if idx < 0 {
				break
			}
			start := offset + idx
			spans = append(spans, Span{Start: start, End: start + len(needle)})
			offset = start + len(needle)
		}
	}

	return MergeSpans(spans)
}

// MergeSpans sorts spans and merges overlapping or touching ones.
func MergeSpans(spans []Span) []Span {
	if len(spans) <= 1 {
		return spans
	}

	sort.Slice(spans, func(i, j int) bool {
		if spans[i].Start != spans[j].Start {
			return spans[i].Start < spans[j].Start
		}
		return spans[i].End < spans[j].End
	})

	merged := spans[:1]
	for _, s := range spans[1:] {
		last := &merged[len(merged)-1]
		if s.Start <= last.End {
			if s.End > last.End {
				last.End = s.End
			}
			continue
		}
		merged = append(merged, s)
	}
	return merged
}
