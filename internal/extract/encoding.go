package extract

import (
	"bytes"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	bomUTF8    = []byte{0xEF, 0xBB, 0xBF}
	bomUTF16BE = []byte{0xFE, 0xFF}
	bomUTF16LE = []byte{0xFF, 0xFE}
)

// DecodeToUTF8 converts raw file bytes to UTF-8 text.
//
// Detection order: BOM (UTF-8, UTF-16), valid UTF-8 as-is, then the legacy
// Japanese encodings Shift_JIS and EUC-JP, picking whichever decodes with
// fewer replacement characters. Undecodable bytes become U+FFFD rather
// than failing the file.
func DecodeToUTF8(data []byte) (string, error) {
	switch {
	case bytes.HasPrefix(data, bomUTF8):
		return strings.ToValidUTF8(string(data[len(bomUTF8):]), "�"), nil

	case bytes.HasPrefix(data, bomUTF16BE):
		return decodeWith(unicode.UTF16(unicode.BigEndian, unicode.ExpectBOM), data)

	case bytes.HasPrefix(data, bomUTF16LE):
		return decodeWith(unicode.UTF16(unicode.LittleEndian, unicode.ExpectBOM), data)
	}

	if utf8.Valid(data) {
		return string(data), nil
	}

	sjis, sjisErr := decodeWith(japanese.ShiftJIS, data)
	eucjp, eucErr := decodeWith(japanese.EUCJP, data)

	switch {
	case sjisErr != nil && eucErr != nil:
		return strings.ToValidUTF8(string(data), "�"), nil
	case sjisErr != nil:
		return eucjp, nil
	case eucErr != nil:
		return sjis, nil
	}

	if countReplacements(eucjp) < countReplacements(sjis) {
		return eucjp, nil
	}
	return sjis, nil
}

// decodeWith runs data through the encoding's decoder.
func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	out, _, err := transform.Bytes(enc.NewDecoder(), data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// countReplacements counts U+FFFD runes produced by a lossy decode.
func countReplacements(s string) int {
	return strings.Count(s, "�")
}

// Normalize applies Unicode NFC normalization.
// All indexed content and all query text pass through this, so composed
// and decomposed forms of the same character always match.
func Normalize(s string) string {
	return norm.NFC.String(s)
}
