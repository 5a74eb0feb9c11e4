// Package index builds and maintains the search index. The manager owns
// the pipeline from filesystem scan through extraction and morphological
// analysis to the committed index, keeping the catalog in step so later
// runs can update incrementally.
package index

import (
	"context"
	stderrors "errors"
	"log/slog"
	"runtime"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"sagasu/internal/config"
	"sagasu/internal/errors"
	"sagasu/internal/extract"
	"sagasu/internal/scanner"
	"sagasu/internal/store"
	"sagasu/internal/tokenizer"
)

// ErrCancelled is returned when indexing is interrupted between batches.
// Work committed before the interruption stays committed.
var ErrCancelled = stderrors.New("indexing cancelled")

// Progress reports indexing progress. CurrentPath is empty on the final
// notification of a run.
type Progress struct {
	Processed   int
	Total       int
	CurrentPath string
	ErrorCount  int
}

// ProgressFunc receives progress updates during indexing.
type ProgressFunc func(Progress)

// Stats summarizes one indexing run.
type Stats struct {
	Indexed  int
	Deleted  int
	Errors   int
	Duration time.Duration
}

// Status describes the index at rest.
type Status struct {
	Documents  uint64         `json:"documents"`
	Catalogued int            `json:"catalogued"`
	Folders    map[string]int `json:"folders,omitempty"`
	Generation uint64         `json:"generation"`
	IndexPath  string         `json:"index_path"`
}

// Manager coordinates scanning, extraction, analysis and indexing.
type Manager struct {
	cfg        *config.Config
	index      *store.Index
	catalog    *store.Catalog
	analyzer   tokenizer.Analyzer
	scanner    *scanner.Scanner
	extractors *extract.Registry
	lock       *FileLock
}

// NewManager wires an index manager from its parts.
func NewManager(cfg *config.Config, idx *store.Index, cat *store.Catalog, analyzer tokenizer.Analyzer) *Manager {
	reg := extract.NewRegistry()
	reg.Register(extract.NewPlainText(cfg.MaxFileSizeBytes()))

	return &Manager{
		cfg:        cfg,
		index:      idx,
		catalog:    cat,
		analyzer:   analyzer,
		scanner:    scanner.New(),
		extractors: reg,
		lock:       NewFileLock(cfg.LockPath()),
	}
}

// RebuildAll drops the index and reindexes every configured folder.
func (m *Manager) RebuildAll(ctx context.Context, progress ProgressFunc) (*Stats, error) {
	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = m.lock.Unlock() }()

	start := time.Now()
	slog.Info("rebuild_started", slog.Int("folders", len(m.cfg.Folders)))

	if err := m.index.Reset(); err != nil {
		return nil, err
	}
	if err := m.catalog.Clear(ctx); err != nil {
		return nil, err
	}

	files, scanErrors, err := m.collectFiles(ctx)
	if err != nil {
		return nil, err
	}

	stats := &Stats{Errors: scanErrors}
	if err := m.indexFiles(ctx, files, len(files), stats, progress); err != nil {
		return nil, err
	}

	stats.Duration = time.Since(start)
	notify(progress, Progress{Processed: len(files), Total: len(files), ErrorCount: stats.Errors})
	slog.Info("rebuild_complete",
		slog.Int("indexed", stats.Indexed),
		slog.Int("errors", stats.Errors),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// UpdateIncremental diffs the filesystem against the catalog and indexes
// only new, changed and deleted files. Modification times compare at
// second precision.
func (m *Manager) UpdateIncremental(ctx context.Context, progress ProgressFunc) (*Stats, error) {
	if err := m.acquire(); err != nil {
		return nil, err
	}
	defer func() { _ = m.lock.Unlock() }()

	start := time.Now()

	known, err := m.catalog.PathModTimes(ctx)
	if err != nil {
		return nil, err
	}
	files, scanErrors, err := m.collectFiles(ctx)
	if err != nil {
		return nil, err
	}

	var toIndex []*scanner.FileInfo
	seen := make(map[string]struct{}, len(files))
	for _, f := range files {
		seen[f.Path] = struct{}{}
		prev, ok := known[f.Path]
		if !ok || !f.ModTime.Truncate(time.Second).Equal(prev.Truncate(time.Second)) {
			toIndex = append(toIndex, f)
		}
	}

	var removals []string
	for path := range known {
		if _, ok := seen[path]; !ok {
			removals = append(removals, path)
		}
	}
	sort.Strings(removals)

	slog.Info("update_started",
		slog.Int("changed", len(toIndex)),
		slog.Int("removed", len(removals)),
		slog.Int("unchanged", len(files)-len(toIndex)))

	stats := &Stats{Errors: scanErrors}
	if err := m.indexFiles(ctx, toIndex, len(toIndex), stats, progress); err != nil {
		return nil, err
	}

	if len(removals) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, ErrCancelled
		}
		if err := m.index.DeleteBatch(removals); err != nil {
			return nil, err
		}
		if err := m.index.Commit(ctx); err != nil {
			return nil, err
		}
		if err := m.catalog.Apply(ctx, nil, removals); err != nil {
			return nil, err
		}
		stats.Deleted = len(removals)
	}

	stats.Duration = time.Since(start)
	notify(progress, Progress{Processed: len(toIndex), Total: len(toIndex), ErrorCount: stats.Errors})
	slog.Info("update_complete",
		slog.Int("indexed", stats.Indexed),
		slog.Int("deleted", stats.Deleted),
		slog.Int("errors", stats.Errors),
		slog.Duration("duration", stats.Duration))
	return stats, nil
}

// Optimize merges index segments. Safe to run any time; it takes the
// write lock like an indexing run.
func (m *Manager) Optimize(ctx context.Context) error {
	if err := m.acquire(); err != nil {
		return err
	}
	defer func() { _ = m.lock.Unlock() }()

	return m.index.Optimize(ctx)
}

// Status reports document counts and index location.
func (m *Manager) Status(ctx context.Context) (*Status, error) {
	docs, err := m.index.Count()
	if err != nil {
		return nil, err
	}
	catalogued, err := m.catalog.Count(ctx)
	if err != nil {
		return nil, err
	}
	folders, err := m.catalog.FolderCounts(ctx)
	if err != nil {
		return nil, err
	}

	return &Status{
		Documents:  docs,
		Catalogued: catalogued,
		Folders:    folders,
		Generation: m.index.Generation(),
		IndexPath:  m.index.Path(),
	}, nil
}

// indexFiles processes files in batches: extract, analyze, upsert,
// commit, catalog. Each batch commits independently so a cancelled run
// keeps everything committed so far.
func (m *Manager) indexFiles(ctx context.Context, files []*scanner.FileInfo, total int, stats *Stats, progress ProgressFunc) error {
	if len(files) == 0 {
		return nil
	}

	batchSize := m.cfg.Indexing.BatchSize
	if batchSize <= 0 {
		batchSize = 48
	}

	for i := 0; i < len(files); i += batchSize {
		if err := ctx.Err(); err != nil {
			slog.Info("indexing_cancelled", slog.Int("processed", i), slog.Int("total", total))
			return ErrCancelled
		}

		end := min(i+batchSize, len(files))
		batch := files[i:end]

		// Extraction fans out to one worker per CPU; each goroutine
		// writes only its own slot, so texts keeps batch order.
		texts := make([]string, len(batch))
		extractErrs := make([]error, len(batch))
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(runtime.GOMAXPROCS(0))
		for j, f := range batch {
			notify(progress, Progress{
				Processed:   i + j,
				Total:       total,
				CurrentPath: f.Path,
				ErrorCount:  stats.Errors,
			})

			g.Go(func() error {
				text, err := m.extractors.ExtractText(gctx, f.Path, f.Ext)
				if err != nil {
					extractErrs[j] = err
					text = ""
				}
				texts[j] = tokenizer.TruncateRunes(text, m.cfg.Tokenizer.MaxDocChars)
				return nil
			})
		}
		_ = g.Wait()
		for j, f := range batch {
			if extractErrs[j] == nil {
				continue
			}
			// Extraction failures are soft: the file stays findable by
			// name, with empty content.
			stats.Errors++
			slog.Warn("extract_failed",
				slog.String("path", f.Path),
				slog.String("error", extractErrs[j].Error()))
		}

		termLists, err := m.analyzer.TokenizeBatch(ctx, texts)
		if err != nil {
			if ctx.Err() != nil {
				return ErrCancelled
			}
			return err
		}

		docs := make([]*store.Document, len(batch))
		entries := make([]store.CatalogEntry, len(batch))
		for j, f := range batch {
			docs[j] = &store.Document{
				Path:    f.Path,
				Folder:  f.Folder,
				Name:    f.Name,
				Ext:     f.Ext,
				Size:    f.Size,
				ModTime: f.ModTime,
				Content: texts[j],
				Terms:   termLists[j],
			}
			entries[j] = store.CatalogEntry{
				Path:     f.Path,
				Folder:   f.Folder,
				FileType: f.Ext,
				Size:     f.Size,
				ModTime:  f.ModTime,
			}
		}

		if err := m.index.UpsertBatch(docs); err != nil {
			return err
		}
		if err := m.index.Commit(ctx); err != nil {
			if ctx.Err() != nil {
				return ErrCancelled
			}
			return err
		}
		if err := m.catalog.Apply(ctx, entries, nil); err != nil {
			if ctx.Err() != nil {
				return ErrCancelled
			}
			return err
		}
		stats.Indexed += len(docs)
	}

	return nil
}

// collectFiles drains a full scan into memory so progress can report a
// total. Scan errors are counted, not fatal.
func (m *Manager) collectFiles(ctx context.Context) ([]*scanner.FileInfo, int, error) {
	results, err := m.scanner.Scan(ctx, m.scanOptions())
	if err != nil {
		return nil, 0, err
	}

	var files []*scanner.FileInfo
	errCount := 0
	for res := range results {
		if res.Error != nil {
			errCount++
			slog.Warn("scan_error", slog.String("error", res.Error.Error()))
			continue
		}
		files = append(files, res.File)
	}
	return files, errCount, nil
}

func (m *Manager) scanOptions() *scanner.ScanOptions {
	return &scanner.ScanOptions{
		Folders:     m.cfg.Folders,
		Extensions:  m.cfg.Indexing.Extensions,
		MaxFileSize: m.cfg.MaxFileSizeBytes(),
	}
}

// acquire takes the cross-process write lock.
func (m *Manager) acquire() error {
	ok, err := m.lock.TryLock()
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexLocked, err)
	}
	if !ok {
		return errors.New(errors.ErrCodeIndexLocked,
			"another sagasu process is writing this index", nil).
			WithSuggestion("wait for the other process to finish or check for a stale process")
	}
	return nil
}

// notify invokes a progress callback, containing any panic so a broken
// callback cannot abort indexing.
func notify(fn ProgressFunc, p Progress) {
	if fn == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			slog.Warn("progress_callback_panicked", slog.Any("panic", r))
		}
	}()
	fn(p)
}
