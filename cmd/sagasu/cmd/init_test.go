package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gopkg.in/yaml.v3"

	"sagasu/internal/config"
)

func TestInitWritesConfig(t *testing.T) {
	dir := t.TempDir()
	docs := filepath.Join(dir, "docs")
	require.NoError(t, os.MkdirAll(docs, 0o755))

	out, err := execute(t, "-C", dir, "init", "--folder", docs)

	require.NoError(t, err)
	assert.Contains(t, out, ".sagasu.yaml")

	data, err := os.ReadFile(filepath.Join(dir, ".sagasu.yaml"))
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Equal(t, []string{docs}, cfg.Folders)
	assert.NotEmpty(t, cfg.Tokenizer.Command)
}

func TestInitWithoutFoldersWritesTemplate(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, "-C", dir, "init")

	require.NoError(t, err)
	assert.Contains(t, out, "folders")

	data, err := os.ReadFile(filepath.Join(dir, ".sagasu.yaml"))
	require.NoError(t, err)

	var cfg config.Config
	require.NoError(t, yaml.Unmarshal(data, &cfg))
	assert.Empty(t, cfg.Folders)
	assert.Equal(t, 48, cfg.Indexing.BatchSize)
}

func TestInitRefusesOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir)

	_, err := execute(t, "-C", dir, "init")

	require.Error(t, err)
	assert.Contains(t, err.Error(), "already exists")
}

func TestInitForceOverwrites(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir)

	_, err := execute(t, "-C", dir, "init", "--force")

	require.NoError(t, err)
}

func TestInitForceBacksUpExistingConfig(t *testing.T) {
	dir := t.TempDir()
	writeTestConfig(t, dir)
	original, err := os.ReadFile(filepath.Join(dir, ".sagasu.yaml"))
	require.NoError(t, err)

	out, err := execute(t, "-C", dir, "init", "--force")
	require.NoError(t, err)
	assert.Contains(t, out, "Backed up existing config to")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var backup string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".sagasu.yaml.bak.") {
			backup = filepath.Join(dir, e.Name())
		}
	}
	require.NotEmpty(t, backup)

	data, err := os.ReadFile(backup)
	require.NoError(t, err)
	assert.Equal(t, string(original), string(data))
}
