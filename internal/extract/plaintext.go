package extract

import (
	"context"
	"fmt"
	"os"
	"strings"
)

// plainTextExtensions are handled by the plain text extractor.
var plainTextExtensions = map[string]bool{
	".txt": true, ".md": true, ".markdown": true, ".rst": true,
	".csv": true, ".tsv": true, ".log": true,
	".json": true, ".yaml": true, ".yml": true, ".toml": true,
	".xml": true, ".html": true, ".htm": true, ".ini": true,
	".go": true, ".py": true, ".js": true, ".ts": true, ".java": true,
	".c": true, ".h": true, ".cpp": true, ".hpp": true, ".cs": true,
	".rb": true, ".rs": true, ".sh": true, ".sql": true, ".php": true,
}

// PlainText extracts text files, decoding legacy Japanese encodings
// (Shift_JIS, EUC-JP) and UTF-16 into UTF-8.
type PlainText struct {
	// MaxBytes caps file size; larger files return ErrTooLarge. 0 = no cap.
	MaxBytes int64
}

// NewPlainText creates a plain text extractor with the given size cap.
func NewPlainText(maxBytes int64) *PlainText {
	return &PlainText{MaxBytes: maxBytes}
}

// Name implements Extractor.
func (p *PlainText) Name() string { return "plaintext" }

// CanHandle implements Extractor.
func (p *PlainText) CanHandle(ext string) bool {
	return plainTextExtensions[strings.ToLower(ext)]
}

// ExtractText implements Extractor.
func (p *PlainText) ExtractText(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	if p.MaxBytes > 0 {
		info, err := os.Stat(path)
		if err != nil {
			return "", fmt.Errorf("failed to stat %s: %w", path, err)
		}
		if info.Size() > p.MaxBytes {
			return "", ErrTooLarge
		}
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	text, err := DecodeToUTF8(data)
	if err != nil {
		return "", fmt.Errorf("failed to decode %s: %w", path, err)
	}

	return Normalize(text), nil
}
