// Package logging provides file-based structured logging with rotation
// for askdoc. Logs are written as JSON to ~/.askdoc/logs/ so the
// interactive terminal session stays clean; nothing is written to
// stderr while the TUI owns the screen.
package logging
