package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
)

// maxBackups bounds how many timestamped copies of a config file are
// kept next to it.
const maxBackups = 3

const backupSuffix = ".bak"

// BackupConfig copies the config file at path to a timestamped sibling
// before the caller overwrites it, and prunes old copies down to
// maxBackups. Returns the backup path, or "" when there is nothing to
// back up.
func BackupConfig(path string) (string, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	timestamp := time.Now().Format("20060102-150405")
	backupPath := fmt.Sprintf("%s%s.%s", path, backupSuffix, timestamp)

	if err := os.WriteFile(backupPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	// Pruning is best-effort, the backup itself already succeeded.
	_ = pruneBackups(path)

	return backupPath, nil
}

// listBackups returns the backups of the config at path, newest first.
func listBackups(path string) ([]string, error) {
	dir := filepath.Dir(path)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list config directory: %w", err)
	}

	var backups []string
	prefix := filepath.Base(path) + backupSuffix + "."
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if strings.HasPrefix(entry.Name(), prefix) {
			backups = append(backups, filepath.Join(dir, entry.Name()))
		}
	}

	// The timestamp suffix sorts lexically, newest first after reversing.
	sort.Sort(sort.Reverse(sort.StringSlice(backups)))

	return backups, nil
}

// pruneBackups removes backups of the config at path beyond maxBackups,
// keeping the newest.
func pruneBackups(path string) error {
	backups, err := listBackups(path)
	if err != nil {
		return err
	}
	if len(backups) <= maxBackups {
		return nil
	}
	for _, backup := range backups[maxBackups:] {
		if err := os.Remove(backup); err != nil {
			continue
		}
	}
	return nil
}
