// Package version provides build and version information for sagasu.
package version

import (
	"fmt"
	"runtime"
)

// Version is the current version of sagasu.
// Set via ldflags at build time, or defaults to dev.
// Makefile sets: -X sagasu/pkg/version.Version=$(VERSION) from VERSION file
var Version = "dev"

// Build information set via ldflags at build time.
var (
	// Commit is the git commit hash.
	Commit = "unknown"

	// Date is the build date in RFC3339 format.
	Date = "unknown"

	// GoVersion is the Go version used to build the binary (set at runtime).
	GoVersion = runtime.Version()
)

// BuildInfo is structured version information for JSON output.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	Date      string `json:"date"`
	GoVersion string `json:"go_version"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// String returns a formatted version string with all build info.
func (b BuildInfo) String() string {
	return fmt.Sprintf(
		"sagasu version %s\n  git commit: %s\n  build time: %s\n  go version: %s\n  platform: %s/%s",
		b.Version, b.Commit, b.Date, b.GoVersion, b.OS, b.Arch,
	)
}

// String returns the full version string for the current build.
func String() string {
	return GetInfo().String()
}

// Short returns only the version number.
func Short() string {
	return Version
}

// GetInfo returns structured build information.
func GetInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		Date:      Date,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}
