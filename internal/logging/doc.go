// Package logging configures slog for textindex.
//
// Without --debug, logs go to stderr as text at the configured level.
// With --debug, JSON logs are also written to ~/.textindex/logs/textindex.log
// with size-based rotation, and `textindex logs` can tail them.
package logging
