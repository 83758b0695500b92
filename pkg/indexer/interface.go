package indexer

import "context"

// Index defines the contract for a word-to-file index.
//
// Implementations must be thread-safe for concurrent use.
type Index interface {
	// IndexFile streams path line by line and adds it to the posting set
	// of every word token produces.
	//
	// Behavior:
	//   - Bounded memory: the file is never loaded whole
	//   - Concurrent calls for different paths are safe
	//   - A read failure leaves the file unindexed and returns an IO error
	//   - A concurrent RemoveFileFromIndex for the same path stops the scan
	IndexFile(ctx context.Context, path string, token Token) error

	// ReIndexFile removes path, indexes it again from current content and
	// runs cleanup. The steps are not atomic: a concurrent search may see
	// path missing from a word it still contains.
	ReIndexFile(ctx context.Context, path string, token Token) error

	// RemoveFileFromIndex removes path from every posting set. When path
	// names a directory, every indexed file below it is removed too.
	// Empty posting sets are left for CleanupIndex.
	RemoveFileFromIndex(path string)

	// SearchFiles returns a copy of the posting set of the lowercased word.
	// A miss returns an empty set, never nil.
	SearchFiles(word string) PathSet

	// CleanupIndex drops words whose posting set is empty. Idempotent.
	CleanupIndex()

	// Stats returns a snapshot of the index size.
	Stats() IndexStats
}

// IndexStats holds statistics about an index.
type IndexStats struct {
	// Words is the number of distinct words, including words whose posting
	// set is empty and not yet cleaned up.
	Words int `json:"words" yaml:"words"`

	// Files is the number of files currently owned by the index.
	Files int `json:"files" yaml:"files"`
}
