// Package indexer maintains an in-memory word-to-file index over text files.
//
// # Architecture
//
//	┌──────────────────┐
//	│ WatchingIndexer  │  (initial load + live filesystem changes)
//	└────────┬─────────┘
//	         │
//	┌────────▼─────────┐
//	│ TextFileIndexer  │  (path resolution, bulk indexing, validation)
//	└────────┬─────────┘
//	         │
//	┌────────▼─────────┐
//	│      Index       │  ← InvertedIndex
//	│   (interface)    │
//	└──────────────────┘
//
// Words are produced by splitting each line of a file with a [Token] and
// lowercasing the pieces. Each word maps to the set of absolute paths of the
// files that contain it.
//
// # Usage
//
//	x := indexer.NewTextFileIndexer()
//	if err := x.IndexFiles(ctx, []string{"./docs"}); err != nil {
//	    return err
//	}
//	paths, err := x.SearchFiles("test")
//
// # Consistency
//
// The index is eventually consistent. ReIndexFile removes a file's postings
// before reading the new content, so a concurrent search may briefly miss the
// file for a word it still contains. Searches never block on an in-flight
// scan for longer than one line.
//
// # Thread Safety
//
// All exported types are safe for concurrent use.
package indexer
