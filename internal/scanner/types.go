// Package scanner resolves user-supplied paths into the concrete regular
// files that get indexed and the directories that get watched.
//
// Resolution rules:
//   - a path that does not exist is dropped without error
//   - a directory expands recursively to every regular file below it
//   - a regular file resolves to itself
//   - anything else (device, socket, pipe) is rejected as invalid input
//
// All returned paths are absolute and cleaned.
package scanner

// Options configures the scanner behavior.
type Options struct {
	// FollowSymlinks includes symlinks found during a directory walk when
	// they point at a regular file. Symlinked directories are never entered.
	// Default: false.
	FollowSymlinks bool
}

// DefaultOptions returns the default scanner options.
func DefaultOptions() Options {
	return Options{}
}
