package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sagasu/internal/search"
)

func TestUpdatePicksUpChanges(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	path := filepath.Join(docs, "draft.txt")
	require.NoError(t, os.WriteFile(path, []byte("first version"), 0o644))
	writeTestConfig(t, dir, docs)

	_, err := execute(t, "-C", dir, "index", "-q")
	require.NoError(t, err)

	// Push the mtime forward a full second so the change is visible at
	// catalog resolution.
	require.NoError(t, os.WriteFile(path, []byte("second revision"), 0o644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	_, err = execute(t, "-C", dir, "update", "-q")
	require.NoError(t, err)

	out, err := execute(t, "-C", dir, "search", "revision", "--format", "json")
	require.NoError(t, err)

	var results []search.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	require.Len(t, results, 1)
	assert.Equal(t, "draft.txt", results[0].Name)
}

func TestUpdateRemovesDeletedFiles(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	keep := filepath.Join(docs, "keep.txt")
	gone := filepath.Join(docs, "gone.txt")
	require.NoError(t, os.WriteFile(keep, []byte("surviving text"), 0o644))
	require.NoError(t, os.WriteFile(gone, []byte("doomed text"), 0o644))
	writeTestConfig(t, dir, docs)

	_, err := execute(t, "-C", dir, "index", "-q")
	require.NoError(t, err)

	require.NoError(t, os.Remove(gone))
	_, err = execute(t, "-C", dir, "update", "-q")
	require.NoError(t, err)

	out, err := execute(t, "-C", dir, "search", "doomed", "--format", "json")
	require.NoError(t, err)

	var results []search.Result
	require.NoError(t, json.Unmarshal([]byte(out), &results))
	assert.Empty(t, results)
}
