package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // Pure Go SQLite driver (no CGO)

	"sagasu/internal/errors"
)

// Catalog records what the index currently holds: one row per file with
// its size and modification time at indexing. Incremental updates diff a
// fresh filesystem scan against it. Modification times are stored at
// second precision, which is the finest granularity some filesystems
// guarantee.
type Catalog struct {
	mu   sync.Mutex
	db   *sql.DB
	path string
}

// CatalogEntry is one catalogued file.
type CatalogEntry struct {
	Path      string
	Folder    string
	FileType  string
	Size      int64
	ModTime   time.Time
	IndexedAt time.Time
}

const catalogSchema = `
CREATE TABLE IF NOT EXISTS files (
    path       TEXT PRIMARY KEY,
    folder     TEXT NOT NULL,
    file_type  TEXT NOT NULL,
    size       INTEGER NOT NULL,
    mtime      INTEGER NOT NULL,
    indexed_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_files_folder ON files(folder);
`

// OpenCatalog opens or creates the catalog database. An empty path gives
// an in-memory catalog for tests.
func OpenCatalog(path string) (*Catalog, error) {
	dsn := ":memory:"
	if path != "" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFilePermission, err)
		}
		dsn = path
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, errors.New(errors.ErrCodeIndexFailed, "failed to open catalog", err)
	}

	// modernc.org/sqlite serializes writes; one connection avoids
	// table-lock churn and keeps :memory: databases coherent.
	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA temp_store = MEMORY",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, errors.New(errors.ErrCodeIndexFailed,
				fmt.Sprintf("failed to set %q", pragma), err)
		}
	}

	if _, err := db.Exec(catalogSchema); err != nil {
		_ = db.Close()
		return nil, errors.New(errors.ErrCodeIndexFailed, "failed to create catalog schema", err)
	}

	return &Catalog{db: db, path: path}, nil
}

// Apply records upserts and removals in a single transaction. The index
// manager calls this right after a successful index commit so catalog and
// index stay in step.
func (c *Catalog) Apply(ctx context.Context, upserts []CatalogEntry, removals []string) error {
	if len(upserts) == 0 && len(removals) == 0 {
		return nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(errors.ErrCodeIndexFailed, err)
	}
	defer func() { _ = tx.Rollback() }()

	if len(upserts) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT OR REPLACE INTO files (path, folder, file_type, size, mtime, indexed_at)
			VALUES (?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return errors.Wrap(errors.ErrCodeIndexFailed, err)
		}
		defer stmt.Close()

		for _, e := range upserts {
			indexedAt := e.IndexedAt
			if indexedAt.IsZero() {
				indexedAt = time.Now()
			}
			_, err := stmt.ExecContext(ctx, e.Path, e.Folder, e.FileType,
				e.Size, e.ModTime.Unix(), indexedAt.Unix())
			if err != nil {
				return errors.New(errors.ErrCodeIndexFailed,
					fmt.Sprintf("failed to catalog %s", e.Path), err)
			}
		}
	}

	if len(removals) > 0 {
		stmt, err := tx.PrepareContext(ctx, `DELETE FROM files WHERE path = ?`)
		if err != nil {
			return errors.Wrap(errors.ErrCodeIndexFailed, err)
		}
		defer stmt.Close()

		for _, p := range removals {
			if _, err := stmt.ExecContext(ctx, p); err != nil {
				return errors.New(errors.ErrCodeIndexFailed,
					fmt.Sprintf("failed to remove %s from catalog", p), err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(errors.ErrCodeIndexFailed, err)
	}
	return nil
}

// PathModTimes returns all catalogued paths with their recorded
// modification times, truncated to seconds.
func (c *Catalog) PathModTimes(ctx context.Context) (map[string]time.Time, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.QueryContext(ctx, `SELECT path, mtime FROM files`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexFailed, err)
	}
	defer rows.Close()

	result := make(map[string]time.Time)
	for rows.Next() {
		var path string
		var mtime int64
		if err := rows.Scan(&path, &mtime); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndexFailed, err)
		}
		result[path] = time.Unix(mtime, 0)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexFailed, err)
	}
	return result, nil
}

// Entry returns the catalogued metadata for one path, or nil if the path
// is not catalogued.
func (c *Catalog) Entry(ctx context.Context, path string) (*CatalogEntry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	row := c.db.QueryRowContext(ctx, `
		SELECT path, folder, file_type, size, mtime, indexed_at
		FROM files WHERE path = ?`, path)

	var e CatalogEntry
	var mtime, indexedAt int64
	err := row.Scan(&e.Path, &e.Folder, &e.FileType, &e.Size, &mtime, &indexedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexFailed, err)
	}
	e.ModTime = time.Unix(mtime, 0)
	e.IndexedAt = time.Unix(indexedAt, 0)
	return &e, nil
}

// Count returns the number of catalogued files.
func (c *Catalog) Count(ctx context.Context) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var n int
	if err := c.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM files`).Scan(&n); err != nil {
		return 0, errors.Wrap(errors.ErrCodeIndexFailed, err)
	}
	return n, nil
}

// FolderCounts returns the number of catalogued files per root folder.
func (c *Catalog) FolderCounts(ctx context.Context) (map[string]int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	rows, err := c.db.QueryContext(ctx, `SELECT folder, COUNT(*) FROM files GROUP BY folder`)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeIndexFailed, err)
	}
	defer rows.Close()

	result := make(map[string]int)
	for rows.Next() {
		var folder string
		var n int
		if err := rows.Scan(&folder, &n); err != nil {
			return nil, errors.Wrap(errors.ErrCodeIndexFailed, err)
		}
		result[folder] = n
	}
	return result, rows.Err()
}

// Clear drops every entry. Used before a full rebuild.
func (c *Catalog) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := c.db.ExecContext(ctx, `DELETE FROM files`); err != nil {
		return errors.Wrap(errors.ErrCodeIndexFailed, err)
	}
	return nil
}

// Close closes the database.
func (c *Catalog) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.db.Close()
}
