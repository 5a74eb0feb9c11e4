package scanner

import (
	"bytes"
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"sagasu/internal/ignore"
)

// defaultExcludeDirs are directory names never descended into.
var defaultExcludeDirs = []string{
	".git",
	".svn",
	".hg",
	"node_modules",
	"__pycache__",
	"$RECYCLE.BIN",
	"System Volume Information",
	".Trash",
	".Trashes",
	"lost+found",
	".sagasu",
}

// Scanner discovers indexable files under the configured folders.
type Scanner struct{}

// New creates a new Scanner instance.
func New() *Scanner {
	return &Scanner{}
}

// Scan discovers all indexable files under opts.Folders.
// It returns a channel of ScanResult that streams files as they are
// discovered. The channel is closed when scanning is complete.
func (s *Scanner) Scan(ctx context.Context, opts *ScanOptions) (<-chan ScanResult, error) {
	if opts == nil || len(opts.Folders) == 0 {
		return nil, fmt.Errorf("no folders to scan")
	}

	roots := make([]string, 0, len(opts.Folders))
	for _, folder := range opts.Folders {
		abs, err := filepath.Abs(folder)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve folder %s: %w", folder, err)
		}
		info, err := os.Stat(abs)
		if err != nil {
			return nil, fmt.Errorf("failed to stat folder %s: %w", abs, err)
		}
		if !info.IsDir() {
			return nil, fmt.Errorf("not a directory: %s", abs)
		}
		roots = append(roots, abs)
	}

	maxFileSize := opts.MaxFileSize
	if maxFileSize <= 0 {
		maxFileSize = DefaultMaxFileSize
	}

	allowed := buildExtensionSet(opts.Extensions)
	excluded := buildDirSet(opts.ExcludeDirs)

	results := make(chan ScanResult, 64)

	go func() {
		defer close(results)
		for _, root := range roots {
			s.scanRoot(ctx, root, opts, allowed, excluded, maxFileSize, results)
		}
	}()

	return results, nil
}

// CollectModTimes walks the folders and returns path -> modification time
// for every file that would be indexed. Used as the disk side of the
// incremental diff.
func (s *Scanner) CollectModTimes(ctx context.Context, opts *ScanOptions) (map[string]time.Time, error) {
	results, err := s.Scan(ctx, opts)
	if err != nil {
		return nil, err
	}

	modTimes := make(map[string]time.Time)
	for res := range results {
		if res.Error != nil {
			return nil, res.Error
		}
		modTimes[res.File.Path] = res.File.ModTime
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return modTimes, nil
}

// scanRoot performs the directory traversal for a single folder.
func (s *Scanner) scanRoot(ctx context.Context, root string, opts *ScanOptions, allowed map[string]bool, excluded map[string]bool, maxFileSize int64, results chan<- ScanResult) {
	matcher := ignore.NewMatcher()
	if !opts.SkipIgnoreFiles {
		m, err := ignore.LoadRoot(root)
		if err != nil {
			slog.Warn("ignore_file_unreadable",
				slog.String("folder", root),
				slog.String("error", err.Error()))
		} else {
			matcher = m
		}
	}

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		if err != nil {
			return nil // Skip entries we can't access
		}

		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = d.Name()
		}

		if d.IsDir() {
			if path == root {
				return nil
			}
			if s.shouldExcludeDir(d.Name(), excluded) || matcher.Match(rel, true) {
				return filepath.SkipDir
			}
			return nil
		}

		if d.Type()&fs.ModeSymlink != 0 && !opts.FollowSymlinks {
			return nil
		}

		if matcher.Match(rel, false) {
			return nil
		}

		ext := strings.ToLower(filepath.Ext(path))
		if len(allowed) > 0 && !allowed[ext] {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return nil
		}

		if info.Size() > maxFileSize {
			slog.Debug("skipping oversized file",
				slog.String("path", path),
				slog.Int64("size", info.Size()))
			return nil
		}

		if isBinaryFile(path) {
			return nil
		}

		fileInfo := &FileInfo{
			Path:    path,
			Folder:  root,
			Name:    d.Name(),
			Ext:     ext,
			Size:    info.Size(),
			ModTime: info.ModTime(),
		}

		select {
		case results <- ScanResult{File: fileInfo}:
		case <-ctx.Done():
			return ctx.Err()
		}

		return nil
	})

	if err != nil && err != context.Canceled {
		select {
		case results <- ScanResult{Error: err}:
		case <-ctx.Done():
		}
	}
}

// shouldExcludeDir checks if a directory name should be skipped.
func (s *Scanner) shouldExcludeDir(name string, excluded map[string]bool) bool {
	return excluded[name] || IsDefaultExcluded(name)
}

// IsDefaultExcluded reports whether a directory name is never descended
// into, regardless of configuration. The watcher applies the same rule.
func IsDefaultExcluded(name string) bool {
	for _, d := range defaultExcludeDirs {
		if name == d {
			return true
		}
	}
	return false
}

func buildExtensionSet(exts []string) map[string]bool {
	set := make(map[string]bool, len(exts))
	for _, e := range exts {
		set[strings.ToLower(e)] = true
	}
	return set
}

func buildDirSet(dirs []string) map[string]bool {
	set := make(map[string]bool, len(dirs))
	for _, d := range dirs {
		set[d] = true
	}
	return set
}

// isBinaryFile checks if a file is binary by looking for null bytes.
func isBinaryFile(path string) bool {
	f, err := os.Open(path)
	if err != nil {
		return false
	}
	defer func() { _ = f.Close() }()

	buf := make([]byte, 512)
	n, err := f.Read(buf)
	if err != nil {
		return false
	}

	return bytes.Contains(buf[:n], []byte{0})
}
