package indexer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
	"github.com/Aman-CERP/textindex/internal/textio"
)

// InvertedIndex maps lowercase words to the set of files containing them.
//
// Every scan of a file takes a fresh sequence number and records it as the
// owner of the path. Words of a line are only added while the scan still owns
// its path, checked under the same lock that removal takes, so a removal (or
// a newer scan) cancels an in-flight scan at the next line.
//
// InvertedIndex is safe for concurrent use.
type InvertedIndex struct {
	mu        sync.RWMutex
	words     map[string]PathSet
	fileWords map[string]map[string]struct{} // path -> words, for removal
	owners    map[string]uint64              // path -> owning scan
	seq       uint64
}

var _ Index = (*InvertedIndex)(nil)

// NewInvertedIndex creates an empty index.
func NewInvertedIndex() *InvertedIndex {
	return &InvertedIndex{
		words:     make(map[string]PathSet),
		fileWords: make(map[string]map[string]struct{}),
		owners:    make(map[string]uint64),
	}
}

// IndexFile streams path and adds it under every word token produces. Words
// path was indexed under before are replaced, never merged.
//
// A scan that loses ownership of path stops early and returns nil. On a read
// failure the postings of this scan are dropped and an IO error is returned.
func (x *InvertedIndex) IndexFile(ctx context.Context, path string, token Token) error {
	scan := x.claim(path)

	err := textio.EachFileLine(ctx, path, func(_ int, line string) bool {
		return x.addLine(path, scan, token.Split(line))
	})

	switch {
	case err == nil:
		return nil
	case errors.Is(err, textio.ErrStopped):
		slog.Debug("index scan superseded",
			slog.String("path", path))
		return nil
	case ctx.Err() != nil:
		x.release(path, scan)
		return ctx.Err()
	default:
		x.release(path, scan)
		if errors.Is(err, os.ErrNotExist) {
			return ierrors.New(ierrors.ErrCodeFileNotFound, "file not found: "+path, err).
				WithDetail("path", path)
		}
		return ierrors.IOError(path, err)
	}
}

// ReIndexFile replaces the postings of path with its current content.
func (x *InvertedIndex) ReIndexFile(ctx context.Context, path string, token Token) error {
	x.RemoveFileFromIndex(path)
	err := x.IndexFile(ctx, path, token)
	x.CleanupIndex()
	return err
}

// RemoveFileFromIndex removes path, and every indexed file below it when path
// is a directory. Prefix matching is done on whole path components, so
// removing /a/b keeps /a/bc.
func (x *InvertedIndex) RemoveFileFromIndex(path string) {
	if path == "" {
		return
	}
	path = filepath.Clean(path)
	prefix := path
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	x.mu.Lock()
	defer x.mu.Unlock()

	for p := range x.owners {
		if p == path || strings.HasPrefix(p, prefix) {
			x.removeLocked(p)
		}
	}
}

// SearchFiles returns a copy of the posting set of the lowercased word.
func (x *InvertedIndex) SearchFiles(word string) PathSet {
	key := strings.ToLower(word)

	x.mu.RLock()
	defer x.mu.RUnlock()

	set, ok := x.words[key]
	if !ok {
		return PathSet{}
	}
	return set.clone()
}

// CleanupIndex drops words whose posting set is empty.
func (x *InvertedIndex) CleanupIndex() {
	x.mu.Lock()
	defer x.mu.Unlock()

	for w, set := range x.words {
		if len(set) == 0 {
			delete(x.words, w)
		}
	}
}

// Stats returns a snapshot of the index size.
func (x *InvertedIndex) Stats() IndexStats {
	x.mu.RLock()
	defer x.mu.RUnlock()

	return IndexStats{
		Words: len(x.words),
		Files: len(x.owners),
	}
}

// claim makes a new scan the owner of path and returns its sequence number.
// Postings of earlier scans are dropped, so path only ever reflects the
// content of its latest scan. Words left without files by that are deleted.
func (x *InvertedIndex) claim(path string) uint64 {
	x.mu.Lock()
	defer x.mu.Unlock()

	for w := range x.fileWords[path] {
		if set, ok := x.words[w]; ok {
			delete(set, path)
			if len(set) == 0 {
				delete(x.words, w)
			}
		}
	}

	x.seq++
	x.owners[path] = x.seq
	x.fileWords[path] = make(map[string]struct{})
	return x.seq
}

// release drops path if scan still owns it.
func (x *InvertedIndex) release(path string, scan uint64) {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.owners[path] == scan {
		x.removeLocked(path)
	}
}

// addLine adds path under words. It reports false once scan no longer owns
// path, which stops the scan.
func (x *InvertedIndex) addLine(path string, scan uint64, words []string) bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.owners[path] != scan {
		return false
	}

	owned := x.fileWords[path]
	for _, w := range words {
		set, ok := x.words[w]
		if !ok {
			set = make(PathSet)
			x.words[w] = set
		}
		set[path] = struct{}{}
		owned[w] = struct{}{}
	}
	return true
}

// removeLocked deletes every trace of path. Caller holds x.mu.
func (x *InvertedIndex) removeLocked(path string) {
	for w := range x.fileWords[path] {
		if set, ok := x.words[w]; ok {
			delete(set, path)
		}
	}
	delete(x.fileWords, path)
	delete(x.owners, path)
}
