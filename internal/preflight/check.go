// Package preflight validates the environment before indexing: folder
// access, index directory writability, free disk space and the external
// analyzer command. The doctor command prints its results.
package preflight

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"time"

	"sagasu/internal/config"
)

// CheckStatus classifies one check result.
type CheckStatus int

const (
	// StatusPass indicates the check passed.
	StatusPass CheckStatus = iota
	// StatusWarn indicates a non-critical problem.
	StatusWarn
	// StatusFail indicates the check failed.
	StatusFail
)

// String returns the string representation of a CheckStatus.
func (s CheckStatus) String() string {
	switch s {
	case StatusPass:
		return "PASS"
	case StatusWarn:
		return "WARN"
	case StatusFail:
		return "FAIL"
	default:
		return "UNKNOWN"
	}
}

// CheckResult holds the outcome of a single check.
type CheckResult struct {
	Name     string      `json:"name"`
	Status   CheckStatus `json:"status"`
	Message  string      `json:"message"`
	Required bool        `json:"required"`
}

// IsCritical reports whether this is a required check that failed.
func (r CheckResult) IsCritical() bool {
	return r.Required && r.Status == StatusFail
}

// Checker runs environment checks for one configuration.
type Checker struct {
	cfg *config.Config
}

// New creates a Checker for the given configuration.
func New(cfg *config.Config) *Checker {
	return &Checker{cfg: cfg}
}

// RunAll runs every check and returns the results.
func (c *Checker) RunAll(ctx context.Context) []CheckResult {
	return []CheckResult{
		c.CheckFolders(),
		c.CheckIndexDir(),
		c.CheckDiskSpace(c.cfg.IndexDir),
		c.CheckTokenizer(ctx),
	}
}

// HasCriticalFailures reports whether any required check failed.
func HasCriticalFailures(results []CheckResult) bool {
	for _, r := range results {
		if r.IsCritical() {
			return true
		}
	}
	return false
}

// CheckFolders verifies every configured folder exists and is a directory.
func (c *Checker) CheckFolders() CheckResult {
	result := CheckResult{Name: "folders", Required: true}

	if len(c.cfg.Folders) == 0 {
		result.Status = StatusFail
		result.Message = "no folders configured"
		return result
	}

	for _, folder := range c.cfg.Folders {
		info, err := os.Stat(folder)
		if err != nil {
			result.Status = StatusFail
			result.Message = "cannot access " + folder
			return result
		}
		if !info.IsDir() {
			result.Status = StatusFail
			result.Message = folder + " is not a directory"
			return result
		}
	}

	result.Status = StatusPass
	result.Message = pluralize(len(c.cfg.Folders), "folder") + " accessible"
	return result
}

// CheckIndexDir verifies the index directory exists or can be created,
// and is writable.
func (c *Checker) CheckIndexDir() CheckResult {
	result := CheckResult{Name: "index_dir", Required: true}

	dir := c.cfg.IndexDir
	if err := os.MkdirAll(dir, 0o755); err != nil {
		result.Status = StatusFail
		result.Message = "cannot create " + dir
		return result
	}

	probe := filepath.Join(dir, ".preflight")
	if err := os.WriteFile(probe, []byte("ok"), 0o644); err != nil {
		result.Status = StatusFail
		result.Message = dir + " is not writable"
		return result
	}
	_ = os.Remove(probe)

	result.Status = StatusPass
	result.Message = dir + " is writable"
	return result
}

// CheckTokenizer verifies the analyzer command starts and produces
// tokens. A broken analyzer is a warning, not a failure, because
// indexing degrades to whitespace splitting.
func (c *Checker) CheckTokenizer(ctx context.Context) CheckResult {
	result := CheckResult{Name: "tokenizer", Required: false}

	command := c.cfg.Tokenizer.Command
	if len(command) == 0 {
		result.Status = StatusWarn
		result.Message = "no analyzer command configured, using whitespace splitting"
		return result
	}

	if _, err := exec.LookPath(command[0]); err != nil {
		result.Status = StatusWarn
		result.Message = command[0] + " not found, indexing falls back to whitespace splitting"
		return result
	}

	probeCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	cmd := exec.CommandContext(probeCtx, command[0], command[1:]...)
	cmd.Stdin = nil
	if err := cmd.Run(); err != nil {
		result.Status = StatusWarn
		result.Message = "analyzer probe failed: " + err.Error()
		return result
	}

	result.Status = StatusPass
	result.Message = "analyzer command works"
	return result
}

func pluralize(n int, word string) string {
	if n == 1 {
		return "1 " + word
	}
	return fmt.Sprintf("%d %ss", n, word)
}
