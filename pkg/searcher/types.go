package searcher

import "github.com/Aman-CERP/textindex/pkg/indexer"

// FileSearcher returns the candidate files for a word.
// *indexer.TextFileIndexer satisfies it.
type FileSearcher interface {
	SearchFiles(word string) (indexer.PathSet, error)
}

// Position locates one occurrence inside a file.
type Position struct {
	Line   int `json:"line" yaml:"line"`
	Column int `json:"column" yaml:"column"`
}

// PathWithPosition is a file and its occurrences in scan order: line
// ascending, then column ascending.
type PathWithPosition struct {
	Path      string     `json:"path" yaml:"path"`
	Positions []Position `json:"positions" yaml:"positions"`
}
