// Package logging provides file-based structured logging with rotation for
// sagasu. Logs are written as JSON lines to ~/.sagasu/logs/ and mirrored to
// stderr, using the text handler when stderr is a terminal.
package logging
