// Package extract converts files into indexable plain text.
//
// Extractors are registered per file type. Extraction failures are soft:
// callers index the document with empty content so the filename remains
// searchable even when the body cannot be read.
package extract

import (
	"context"
	"fmt"
	"strings"
)

// ErrTooLarge is returned when a file exceeds the extractor's size cap.
var ErrTooLarge = fmt.Errorf("file too large to extract")

// Extractor converts one family of file types to plain text.
type Extractor interface {
	// Name identifies the extractor in logs.
	Name() string

	// CanHandle reports whether this extractor handles the extension
	// (lowercased, with leading dot).
	CanHandle(ext string) bool

	// ExtractText reads the file and returns its content as normalized
	// UTF-8 text.
	ExtractText(ctx context.Context, path string) (string, error)
}

// Registry dispatches extraction to the first extractor claiming a type.
type Registry struct {
	extractors []Extractor
}

// NewRegistry creates an empty extractor registry.
func NewRegistry() *Registry {
	return &Registry{}
}

// Register appends an extractor. Registration order is dispatch priority.
func (r *Registry) Register(e Extractor) {
	r.extractors = append(r.extractors, e)
}

// ForExt returns the extractor responsible for the extension, if any.
func (r *Registry) ForExt(ext string) (Extractor, bool) {
	ext = strings.ToLower(ext)
	for _, e := range r.extractors {
		if e.CanHandle(ext) {
			return e, true
		}
	}
	return nil, false
}

// ExtractText extracts content for the given path and extension.
// Returns an error if no extractor claims the extension.
func (r *Registry) ExtractText(ctx context.Context, path, ext string) (string, error) {
	e, ok := r.ForExt(ext)
	if !ok {
		return "", fmt.Errorf("no extractor for extension %q", ext)
	}
	return e.ExtractText(ctx, path)
}

// Handles reports whether any registered extractor claims the extension.
func (r *Registry) Handles(ext string) bool {
	_, ok := r.ForExt(ext)
	return ok
}
