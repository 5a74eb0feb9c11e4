// Package configs provides embedded configuration templates for sagasu.
//
// Templates are embedded at build time with go:embed so they ship with
// every build, whether installed from source or as a binary release.
//
// Configuration hierarchy (see internal/config.Load):
//  1. Hardcoded defaults (internal/config.NewConfig)
//  2. User config (~/.config/sagasu/config.yaml)
//  3. Project config (.sagasu.yaml)
//  4. Environment variables (SAGASU_*)
package configs

import _ "embed"

// ConfigTemplate is the commented starter configuration written by
// 'sagasu init' when no folders are passed on the command line.
//
//go:embed config.example.yaml
var ConfigTemplate string
