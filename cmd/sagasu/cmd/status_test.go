package cmd

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sagasu/internal/index"
)

func TestStatusAfterIndex(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "a.txt"), []byte("alpha"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(docs, "b.txt"), []byte("beta"), 0o644))
	writeTestConfig(t, dir, docs)

	_, err := execute(t, "-C", dir, "index", "-q")
	require.NoError(t, err)

	out, err := execute(t, "-C", dir, "status", "--json")
	require.NoError(t, err)

	var status index.Status
	require.NoError(t, json.Unmarshal([]byte(out), &status))
	assert.Equal(t, uint64(2), status.Documents)
	assert.Equal(t, 2, status.Catalogued)
	assert.Contains(t, status.Folders, docs)
}

func TestStatusTextOutput(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir)

	out, err := execute(t, "-C", dir, "status")

	require.NoError(t, err)
	assert.Contains(t, out, "Documents: 0")
	assert.Contains(t, out, "Cataloged: 0")
}
