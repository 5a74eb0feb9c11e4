// Package search turns user queries into Bleve requests against the
// document index and shapes the hits for display. Query terms come from
// the same external analyzer that produced the indexed terms, so both
// sides segment text identically.
package search

import (
	"time"

	"sagasu/internal/config"
	"sagasu/internal/highlight"
)

// Options tunes query execution and highlighting. Zero fields take the
// defaults below, which mirror the configuration defaults.
type Options struct {
	// MaxResults is the default and maximum number of hits per query.
	MaxResults int

	// MaxQueryTerms caps analyzed terms per query. Longer queries are
	// truncated, not rejected.
	MaxQueryTerms int

	// FileNameBoost weights matches on the file name over body matches.
	FileNameBoost float64

	// FragmentRunes is the approximate display fragment length.
	FragmentRunes int

	// MaxFragments caps highlight fragments per document.
	MaxFragments int

	// HighlightDocBytes bounds the content size re-tokenized for
	// highlighting. Larger documents fall back to literal matching.
	HighlightDocBytes int

	// CacheSize bounds the query-term LRU cache.
	CacheSize int
}

// OptionsFromConfig maps the search settings onto engine options.
func OptionsFromConfig(sc config.SearchConfig) Options {
	return Options{
		MaxResults:        sc.MaxResults,
		MaxQueryTerms:     sc.MaxQueryTerms,
		FileNameBoost:     sc.FilenameBoost,
		FragmentRunes:     sc.FragmentSize,
		MaxFragments:      sc.MaxFragments,
		HighlightDocBytes: sc.HighlightDocKB << 10,
		CacheSize:         sc.CacheSize,
	}
}

func (o Options) withDefaults() Options {
	if o.MaxResults <= 0 {
		o.MaxResults = 100
	}
	if o.MaxQueryTerms <= 0 {
		o.MaxQueryTerms = 64
	}
	if o.FileNameBoost <= 0 {
		o.FileNameBoost = 2.5
	}
	if o.FragmentRunes <= 0 {
		o.FragmentRunes = highlight.DefaultFragmentRunes
	}
	if o.MaxFragments <= 0 {
		o.MaxFragments = highlight.DefaultMaxFragments
	}
	if o.HighlightDocBytes <= 0 {
		o.HighlightDocBytes = 256 << 10
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 1000
	}
	return o
}

// Query is one search request.
type Query struct {
	// Text is the raw query string. Double-quoted sections are phrase
	// matches; words containing * or ? match against file names.
	Text string

	// FileTypes restricts hits to these extensions (with or without the
	// leading dot). Empty means all types.
	FileTypes []string

	// FolderPrefix restricts hits to paths under this prefix.
	FolderPrefix string

	// ModifiedAfter / ModifiedBefore bound the file modification time.
	ModifiedAfter  *time.Time
	ModifiedBefore *time.Time

	// MaxResults caps returned hits. Zero means the configured maximum.
	MaxResults int
}

// Result is one search hit.
type Result struct {
	Path         string               `json:"path"`
	Name         string               `json:"name"`
	Folder       string               `json:"folder"`
	Ext          string               `json:"ext"`
	Size         int64                `json:"size"`
	ModTime      time.Time            `json:"mod_time"`
	Score        float64              `json:"score"`
	MatchedTerms []string             `json:"matched_terms,omitempty"`
	Fragments    []highlight.Fragment `json:"fragments,omitempty"`
}
