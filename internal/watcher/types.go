package watcher

import (
	"context"
	"time"
)

// Operation represents a file system operation type.
type Operation int

const (
	// OpCreate indicates a new file or directory was created.
	OpCreate Operation = iota
	// OpModify indicates an existing file was modified.
	OpModify
	// OpDelete indicates a file or directory was deleted or renamed away.
	OpDelete
	// OpOverflow indicates events were dropped before they could be delivered.
	OpOverflow
)

// String returns a human-readable representation of the operation.
func (op Operation) String() string {
	switch op {
	case OpCreate:
		return "CREATE"
	case OpModify:
		return "MODIFY"
	case OpDelete:
		return "DELETE"
	case OpOverflow:
		return "OVERFLOW"
	default:
		return "UNKNOWN"
	}
}

// FileEvent represents a file system event.
type FileEvent struct {
	// Path is the absolute path of the changed entry.
	Path string

	// Dir is the registered directory the event was delivered to.
	Dir string

	// Operation is the type of file system operation.
	Operation Operation

	// Timestamp is when the event was received.
	Timestamp time.Time
}

// Indexer is the index mutation surface driven by change events.
type Indexer interface {
	IndexFile(ctx context.Context, path string) error
	ReIndexFile(ctx context.Context, path string) error
	RemoveFromIndex(path string) error
}

// Registrar maintains directory registrations on behalf of the processor.
type Registrar interface {
	// RegisterTree registers dir and every directory below it and returns
	// how many new registrations were made.
	RegisterTree(ctx context.Context, dir string) int

	// Unregister cancels every registration at or below path and returns
	// the cancelled directories.
	Unregister(path string) []string
}

// Options configures the watcher behavior.
type Options struct {
	// EventBufferSize bounds the pending events of one registration.
	// Events beyond it are dropped and reported as a single overflow.
	// Default: 1000
	EventBufferSize int

	// ErrorBufferSize is the size of the Errors channel buffer.
	// Default: 10
	ErrorBufferSize int

	// FollowSymlinks indexes symlinks to regular files found in new
	// directories. Default: false
	FollowSymlinks bool
}

// DefaultOptions returns the default watcher options.
func DefaultOptions() Options {
	return Options{
		EventBufferSize: 1000,
		ErrorBufferSize: 10,
	}
}

// WithDefaults returns options with defaults applied for zero values.
func (o Options) WithDefaults() Options {
	defaults := DefaultOptions()
	if o.EventBufferSize <= 0 {
		o.EventBufferSize = defaults.EventBufferSize
	}
	if o.ErrorBufferSize <= 0 {
		o.ErrorBufferSize = defaults.ErrorBufferSize
	}
	return o
}
