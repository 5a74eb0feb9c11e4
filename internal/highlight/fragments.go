package highlight

import "unicode/utf8"

const (
	// DefaultFragmentRunes is the approximate fragment length.
	DefaultFragmentRunes = 100

	// DefaultMaxFragments caps fragments per document.
	DefaultMaxFragments = 5
)

// Fragment is a display snippet cut from a document. Spans are byte
// ranges relative to Text; Offset is the byte position of Text within the
// original document.
type Fragment struct {
	Text   string `json:"text"`
	Offset int    `json:"offset"`
	Spans  []Span `json:"spans,omitempty"`
}

// Fragments cuts up to maxFragments non-overlapping snippets of roughly
// fragmentRunes runes, each containing at least one matched span. With no
// spans the head of the document is returned as a single fragment, so a
// hit always has something to show.
func Fragments(text string, spans []Span, fragmentRunes, maxFragments int) []Fragment {
	if text == "" {
		return nil
	}
	if fragmentRunes <= 0 {
		fragmentRunes = DefaultFragmentRunes
	}
	if maxFragments <= 0 {
		maxFragments = DefaultMaxFragments
	}

	spans = MergeSpans(spans)
	if len(spans) == 0 {
		end := forwardRunes(text, 0, fragmentRunes)
		return []Fragment{{Text: text[:end]}}
	}

	var frags []Fragment
	cursor := 0
	i := 0

	for i < len(spans) && len(frags) < maxFragments {
		s := spans[i]
		if s.End <= cursor {
			i++
			continue
		}

		// Lead with some context before the match.
		start := backRunes(text, s.Start, fragmentRunes/3)
		if start < cursor {
			start = cursor
		}
		end := forwardRunes(text, start, fragmentRunes)
		if end < s.End {
			end = s.End
		}

		frag := Fragment{Text: text[start:end], Offset: start}
		for i < len(spans) && spans[i].Start < end {
			cs := spans[i]
			if cs.End > end {
				cs.End = end
			}
			frag.Spans = append(frag.Spans, Span{Start: cs.Start - start, End: cs.End - start})
			if spans[i].End > end {
				break
			}
			i++
		}

		frags = append(frags, frag)
		cursor = end
	}

	return frags
}

// backRunes returns the byte offset n runes before pos. pos must be a
// rune boundary.
func backRunes(text string, pos, n int) int {
	for ; n > 0 && pos > 0; n-- {
		_, size := utf8.DecodeLastRuneInString(text[:pos])
		if size == 0 {
			break
		}
		pos -= size
	}
	return pos
}

// forwardRunes returns the byte offset n runes after pos. pos must be a
// rune boundary.
func forwardRunes(text string, pos, n int) int {
	for ; n > 0 && pos < len(text); n-- {
		_, size := utf8.DecodeRuneInString(text[pos:])
		if size == 0 {
			break
		}
		pos += size
	}
	return pos
}
