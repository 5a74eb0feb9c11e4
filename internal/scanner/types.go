// Package scanner discovers indexable files under the configured target
// folders. It streams results as they are found, skipping binary files,
// oversized files, and system directories.
package scanner

import (
	"time"
)

// FileInfo contains metadata about a discovered file.
type FileInfo struct {
	Path    string    // Absolute path, used as the document identity
	Folder  string    // The target folder this file was found under
	Name    string    // Base name
	Ext     string    // Lowercased extension including the dot
	Size    int64     // File size in bytes
	ModTime time.Time // Last modification time
}

// ScanResult is returned from the scanner channel.
type ScanResult struct {
	File  *FileInfo
	Error error
}

// ScanOptions configures the scanner behavior.
type ScanOptions struct {
	// Folders are the root directories to scan.
	Folders []string

	// Extensions is the allow-list of file extensions (with leading dot).
	// Empty means any extension.
	Extensions []string

	// ExcludeDirs are additional directory names to skip.
	ExcludeDirs []string

	// MaxFileSize is the maximum file size to include in bytes (0 = 50MB default).
	MaxFileSize int64

	// FollowSymlinks enables following symbolic links (default: false).
	FollowSymlinks bool

	// SkipIgnoreFiles disables honoring .gitignore and .sagasuignore
	// patterns found at each folder root.
	SkipIgnoreFiles bool
}

// DefaultMaxFileSize is the default maximum file size (50MB).
const DefaultMaxFileSize = 50 * 1024 * 1024
