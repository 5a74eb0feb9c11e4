// Package store persists searchable documents. The full-text index is a
// Bleve scorch index keyed by absolute file path; alongside it a SQLite
// catalog records per-file metadata so incremental updates can diff the
// filesystem against what was last indexed.
package store

import (
	"strings"
	"time"
)

// Field names used in the Bleve index.
const (
	FieldTerms    = "terms"
	FieldContent  = "content"
	FieldName     = "file_name"
	FieldPath     = "path"
	FieldFolder   = "folder"
	FieldExt      = "file_ext"
	FieldSize     = "file_size"
	FieldModified = "last_modified"
)

// Document is one indexable file. Terms carries the output of the
// external morphological analyzer; the index treats it as pre-tokenized
// and only lowercases it.
type Document struct {
	Path    string
	Folder  string
	Name    string
	Ext     string
	Size    int64
	ModTime time.Time
	Content string
	Terms   []string
}

// bleveFields flattens the document for indexing. Terms are joined with
// spaces so the whitespace analyzer recovers them one to one.
func (d *Document) bleveFields() map[string]interface{} {
	return map[string]interface{}{
		FieldTerms:    strings.Join(d.Terms, " "),
		FieldContent:  d.Content,
		FieldName:     d.Name,
		FieldPath:     d.Path,
		FieldFolder:   d.Folder,
		FieldExt:      d.Ext,
		FieldSize:     float64(d.Size),
		FieldModified: d.ModTime.UTC().Format(time.RFC3339),
	}
}
