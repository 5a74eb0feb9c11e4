package store

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/keyword"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/standard"
	"github.com/blevesearch/bleve/v2/analysis/token/lowercase"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/single"
	"github.com/blevesearch/bleve/v2/analysis/tokenizer/whitespace"
	"github.com/blevesearch/bleve/v2/index/scorch"
	"github.com/blevesearch/bleve/v2/index/scorch/mergeplan"
	"github.com/blevesearch/bleve/v2/mapping"

	"sagasu/internal/errors"
)

const (
	// termsAnalyzerName splits on whitespace and lowercases. The terms
	// field is already tokenized by the external analyzer, so no further
	// segmentation happens here.
	termsAnalyzerName = "pretokenized"

	// keywordLCName treats the whole value as one lowercased token.
	keywordLCName = "keyword_lc"
)

// openRetry covers transient open failures, typically another process
// still releasing the index directory.
var openRetry = errors.RetryConfig{
	MaxRetries:   1,
	InitialDelay: 200 * time.Millisecond,
	MaxDelay:     200 * time.Millisecond,
	Multiplier:   1,
}

// Index wraps a Bleve index over Document values. Writes are buffered
// into a batch and become visible at Commit, which also bumps the
// generation counter that readers use to invalidate caches.
type Index struct {
	mu      sync.RWMutex
	index   bleve.Index
	path    string
	closed  bool
	pending *bleve.Batch

	generation atomic.Uint64
}

// validateIndexDir checks a Bleve index directory for obvious corruption
// before opening. A missing directory is fine, the index will be created.
func validateIndexDir(path string) error {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil
	}

	metaPath := filepath.Join(path, "index_meta.json")
	info, err := os.Stat(metaPath)
	if os.IsNotExist(err) {
		return fmt.Errorf("index_meta.json missing")
	}
	if err != nil {
		return fmt.Errorf("cannot stat index_meta.json: %w", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("index_meta.json is empty")
	}

	data, err := os.ReadFile(metaPath)
	if err != nil {
		return fmt.Errorf("cannot read index_meta.json: %w", err)
	}
	var meta map[string]interface{}
	if err := json.Unmarshal(data, &meta); err != nil {
		return fmt.Errorf("index_meta.json is corrupt: %w", err)
	}

	return nil
}

// isCorruptionError reports whether a Bleve open error indicates a
// damaged index rather than a transient problem.
func isCorruptionError(err error) bool {
	if err == nil {
		return false
	}
	if err == bleve.ErrorIndexMetaCorrupt {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "unexpected end of JSON") ||
		strings.Contains(msg, "error parsing mapping JSON") ||
		strings.Contains(msg, "failed to load segment") ||
		strings.Contains(msg, "error opening bolt") ||
		strings.Contains(msg, "no such file or directory")
}

// Open opens or creates the index at path. An empty path gives an
// in-memory index, used by tests. A corrupt on-disk index is cleared and
// recreated rather than failing startup; it just needs to be reindexed.
func Open(path string) (*Index, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInternal, err)
	}

	var idx bleve.Index
	if path == "" {
		idx, err = bleve.NewMemOnly(indexMapping)
	} else {
		if mkErr := os.MkdirAll(filepath.Dir(path), 0o755); mkErr != nil {
			return nil, errors.Wrap(errors.ErrCodeFilePermission, mkErr)
		}

		if validErr := validateIndexDir(path); validErr != nil {
			slog.Warn("index_corrupted",
				slog.String("path", path),
				slog.String("error", validErr.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, errors.New(errors.ErrCodeCorruptIndex,
					fmt.Sprintf("index corrupted at %s and cannot be cleared: %v", path, removeErr), validErr)
			}
			slog.Info("index_cleared", slog.String("path", path))
		}

		idx, err = bleve.Open(path)
		if err != nil && err != bleve.ErrorIndexPathDoesNotExist && !isCorruptionError(err) {
			// A concurrent writer holding the directory usually clears
			// quickly; retry before treating the failure as fatal.
			err = errors.Retry(context.Background(), openRetry, func() error {
				var openErr error
				idx, openErr = bleve.Open(path)
				return openErr
			})
		}
		if err == bleve.ErrorIndexPathDoesNotExist {
			idx, err = bleve.New(path, indexMapping)
		} else if err != nil && isCorruptionError(err) {
			slog.Warn("index_open_failed",
				slog.String("path", path),
				slog.String("error", err.Error()))
			if removeErr := os.RemoveAll(path); removeErr != nil {
				return nil, errors.New(errors.ErrCodeCorruptIndex,
					fmt.Sprintf("index corrupted at %s and cannot be cleared: %v", path, removeErr), err)
			}
			slog.Info("index_cleared", slog.String("path", path))
			idx, err = bleve.New(path, indexMapping)
		}
	}
	if err != nil {
		return nil, errors.New(errors.ErrCodeIndexFailed, "failed to open index", err)
	}

	i := &Index{index: idx, path: path}
	i.generation.Store(1)
	return i, nil
}

func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	m := bleve.NewIndexMapping()

	err := m.AddCustomAnalyzer(termsAnalyzerName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     whitespace.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add terms analyzer: %w", err)
	}

	err = m.AddCustomAnalyzer(keywordLCName, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     single.Name,
		"token_filters": []string{lowercase.Name},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to add keyword analyzer: %w", err)
	}

	terms := bleve.NewTextFieldMapping()
	terms.Analyzer = termsAnalyzerName
	terms.Store = false
	terms.IncludeTermVectors = true
	terms.IncludeInAll = false

	content := bleve.NewTextFieldMapping()
	content.Analyzer = standard.Name
	content.Store = true
	content.IncludeTermVectors = false
	content.IncludeInAll = false

	name := bleve.NewTextFieldMapping()
	name.Analyzer = keywordLCName
	name.Store = true
	name.IncludeInAll = false

	path := bleve.NewTextFieldMapping()
	path.Analyzer = keyword.Name
	path.Store = true
	path.IncludeInAll = false

	folder := bleve.NewTextFieldMapping()
	folder.Analyzer = keyword.Name
	folder.Store = true
	folder.IncludeInAll = false

	ext := bleve.NewTextFieldMapping()
	ext.Analyzer = keywordLCName
	ext.Store = true
	ext.IncludeInAll = false

	size := bleve.NewNumericFieldMapping()
	size.Store = true
	size.IncludeInAll = false

	modified := bleve.NewDateTimeFieldMapping()
	modified.Store = true
	modified.IncludeInAll = false

	doc := bleve.NewDocumentMapping()
	doc.AddFieldMappingsAt(FieldTerms, terms)
	doc.AddFieldMappingsAt(FieldContent, content)
	doc.AddFieldMappingsAt(FieldName, name)
	doc.AddFieldMappingsAt(FieldPath, path)
	doc.AddFieldMappingsAt(FieldFolder, folder)
	doc.AddFieldMappingsAt(FieldExt, ext)
	doc.AddFieldMappingsAt(FieldSize, size)
	doc.AddFieldMappingsAt(FieldModified, modified)

	m.DefaultMapping = doc
	m.DefaultAnalyzer = standard.Name

	return m, nil
}

// UpsertBatch buffers documents for indexing. They become searchable at
// the next Commit.
func (i *Index) UpsertBatch(docs []*Document) error {
	if len(docs) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errors.New(errors.ErrCodeIndexFailed, "index is closed", nil)
	}
	if i.pending == nil {
		i.pending = i.index.NewBatch()
	}
	for _, doc := range docs {
		if doc.Path == "" {
			return errors.New(errors.ErrCodeInvalidInput, "document has empty path", nil)
		}
		if err := i.pending.Index(doc.Path, doc.bleveFields()); err != nil {
			return errors.New(errors.ErrCodeIndexFailed,
				fmt.Sprintf("failed to index %s", doc.Path), err)
		}
	}
	return nil
}

// DeleteBatch buffers deletions, applied at the next Commit.
func (i *Index) DeleteBatch(paths []string) error {
	if len(paths) == 0 {
		return nil
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errors.New(errors.ErrCodeIndexFailed, "index is closed", nil)
	}
	if i.pending == nil {
		i.pending = i.index.NewBatch()
	}
	for _, p := range paths {
		i.pending.Delete(p)
	}
	return nil
}

// Commit applies all buffered writes atomically and advances the
// generation counter. A commit with nothing buffered is a no-op and does
// not advance the generation.
func (i *Index) Commit(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errors.New(errors.ErrCodeIndexFailed, "index is closed", nil)
	}
	if i.pending == nil || (i.pending.Size() == 0) {
		return nil
	}

	batch := i.pending
	i.pending = nil
	if err := i.index.Batch(batch); err != nil {
		return errors.New(errors.ErrCodeIndexFailed, "failed to execute batch", err)
	}
	i.generation.Add(1)
	return nil
}

// Pending returns the number of buffered, uncommitted operations.
func (i *Index) Pending() int {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.pending == nil {
		return 0
	}
	return i.pending.Size()
}

// Generation returns the commit generation. It changes whenever committed
// writes may have altered search results.
func (i *Index) Generation() uint64 {
	return i.generation.Load()
}

// Count returns the number of indexed documents.
func (i *Index) Count() (uint64, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()
	if i.closed {
		return 0, errors.New(errors.ErrCodeIndexFailed, "index is closed", nil)
	}
	return i.index.DocCount()
}

// Search executes a Bleve search request.
func (i *Index) Search(ctx context.Context, req *bleve.SearchRequest) (*bleve.SearchResult, error) {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return nil, errors.New(errors.ErrCodeSearchFailed, "index is closed", nil)
	}

	result, err := i.index.SearchInContext(ctx, req)
	if err != nil {
		return nil, errors.New(errors.ErrCodeSearchFailed, "search failed", err)
	}
	return result, nil
}

// Optimize merges scorch segments down to one. In-memory indexes have
// nothing to merge.
func (i *Index) Optimize(ctx context.Context) error {
	i.mu.RLock()
	defer i.mu.RUnlock()

	if i.closed {
		return errors.New(errors.ErrCodeIndexFailed, "index is closed", nil)
	}

	internal, err := i.index.Advanced()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err)
	}
	sc, ok := internal.(*scorch.Scorch)
	if !ok {
		return nil
	}

	slog.Info("index_optimize_started", slog.String("path", i.path))
	if err := sc.ForceMerge(ctx, &mergeplan.SingleSegmentMergePlanOptions); err != nil {
		return errors.New(errors.ErrCodeIndexFailed, "segment merge failed", err)
	}
	slog.Info("index_optimize_finished", slog.String("path", i.path))
	return nil
}

// Reset deletes everything and recreates an empty index at the same path.
func (i *Index) Reset() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return errors.New(errors.ErrCodeIndexFailed, "index is closed", nil)
	}

	if err := i.index.Close(); err != nil {
		return errors.Wrap(errors.ErrCodeIndexFailed, err)
	}

	indexMapping, err := buildIndexMapping()
	if err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err)
	}

	if i.path == "" {
		i.index, err = bleve.NewMemOnly(indexMapping)
	} else {
		if err := os.RemoveAll(i.path); err != nil {
			return errors.Wrap(errors.ErrCodeFilePermission, err)
		}
		i.index, err = bleve.New(i.path, indexMapping)
	}
	if err != nil {
		return errors.New(errors.ErrCodeIndexFailed, "failed to recreate index", err)
	}

	i.pending = nil
	i.generation.Add(1)
	return nil
}

// Path returns the on-disk location, empty for in-memory indexes.
func (i *Index) Path() string {
	return i.path
}

// Close releases the index. Buffered uncommitted writes are discarded.
func (i *Index) Close() error {
	i.mu.Lock()
	defer i.mu.Unlock()

	if i.closed {
		return nil
	}
	i.closed = true
	i.pending = nil
	return i.index.Close()
}
