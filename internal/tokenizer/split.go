package tokenizer

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// fallbackRunLimit bounds token length when falling back to naive
// splitting, so unsegmented CJK runs still produce usable terms.
const fallbackRunLimit = 16

// TruncateRunes truncates s to at most max runes. A non-positive max
// yields the empty string.
func TruncateRunes(s string, max int) string {
	if max <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= max {
		return s
	}
	runes := []rune(s)
	return string(runes[:max])
}

// SplitTermBytes splits a term into chunks of at most maxBytes UTF-8
// bytes, always cutting at rune boundaries. Terms within the limit are
// returned unchanged.
func SplitTermBytes(term string, maxBytes int) []string {
	if maxBytes <= 0 || len(term) <= maxBytes {
		return []string{term}
	}

	var parts []string
	var b strings.Builder
	for _, r := range term {
		if b.Len() > 0 && b.Len()+utf8.RuneLen(r) > maxBytes {
			parts = append(parts, b.String())
			b.Reset()
		}
		b.WriteRune(r)
	}
	if b.Len() > 0 {
		parts = append(parts, b.String())
	}
	return parts
}

// FallbackTokens splits text without morphological analysis: whitespace
// separation (including the full-width space U+3000), with long
// unseparated runs cut into fixed-size rune windows.
func FallbackTokens(text string) []string {
	fields := strings.FieldsFunc(text, unicode.IsSpace)

	var tokens []string
	for _, f := range fields {
		if utf8.RuneCountInString(f) <= fallbackRunLimit {
			tokens = append(tokens, f)
			continue
		}
		runes := []rune(f)
		for i := 0; i < len(runes); i += fallbackRunLimit {
			end := i + fallbackRunLimit
			if end > len(runes) {
				end = len(runes)
			}
			tokens = append(tokens, string(runes[i:end]))
		}
	}
	return tokens
}

// postprocess enforces the per-term byte cap across a token list and
// drops empties.
func postprocess(tokens []string, maxTermBytes int) []string {
	rebuilt := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if tok == "" {
			continue
		}
		rebuilt = append(rebuilt, SplitTermBytes(tok, maxTermBytes)...)
	}
	return rebuilt
}

// sanitize removes delimiter collisions and carriage returns from text
// before it is framed onto the analyzer's stdin.
func sanitize(text string) string {
	text = strings.ReplaceAll(text, docDelimiter, " ")
	return strings.ReplaceAll(text, "\r", "")
}
