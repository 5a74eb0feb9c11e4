// Package tokenizer bridges sagasu to an external morphological analyzer
// process. The long-lived streaming session feeds documents over stdin and
// reads one token per line, with a sentinel line terminating each document.
// When the process dies or misbehaves, tokenization degrades through a
// one-shot invocation down to naive whitespace splitting, so indexing
// never blocks on a broken analyzer.
package tokenizer

import (
	"context"
	"time"
)

// docDelimiter terminates one document's token stream on stdout, and one
// document's text on stdin. The analyzer script echoes it back after the
// last token of each document.
const docDelimiter = "---SUDACHI_DOC_END---"

// Analyzer produces index terms for text.
type Analyzer interface {
	// Tokenize analyzes a single document.
	Tokenize(ctx context.Context, text string) ([]string, error)

	// TokenizeBatch analyzes several documents in one round trip.
	// The result always has one token slice per input, in order.
	TokenizeBatch(ctx context.Context, texts []string) ([][]string, error)

	// Close terminates the analyzer process, if any.
	Close() error
}

// Config configures the analyzer session.
type Config struct {
	// Command is the analyzer command line. The streaming flag is
	// appended when spawning the long-lived session.
	Command []string

	// MaxTermBytes is the maximum UTF-8 byte length of one term.
	// Longer tokens are split at rune boundaries.
	MaxTermBytes int

	// MaxDocRunes caps the characters sent per document.
	MaxDocRunes int

	// OneShotTimeout bounds a single one-shot invocation.
	OneShotTimeout time.Duration
}

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.MaxTermBytes <= 0 {
		c.MaxTermBytes = 32768
	}
	if c.MaxDocRunes <= 0 {
		c.MaxDocRunes = 500_000
	}
	if c.OneShotTimeout <= 0 {
		c.OneShotTimeout = 30 * time.Second
	}
	return c
}
