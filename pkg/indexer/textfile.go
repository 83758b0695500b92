package indexer

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"runtime"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
	"github.com/Aman-CERP/textindex/internal/scanner"
	"github.com/Aman-CERP/textindex/internal/telemetry"
)

// TextFileIndexer resolves user paths into regular files and feeds them to an
// Index. It is the mutation and query surface the watcher and the searcher
// use.
//
// Files are indexed independently: a failure on one file is logged and
// reported but never stops its siblings.
//
// TextFileIndexer is safe for concurrent use.
type TextFileIndexer struct {
	index   Index
	token   Token
	scanner *scanner.Scanner
	workers int
	metrics *telemetry.Metrics
}

// Option configures a TextFileIndexer.
type Option func(*TextFileIndexer)

// WithToken sets the word-boundary rule. Default: DefaultToken.
func WithToken(t Token) Option {
	return func(x *TextFileIndexer) {
		x.token = t
	}
}

// WithIndex sets the backing index. Default: a new InvertedIndex.
func WithIndex(idx Index) Option {
	return func(x *TextFileIndexer) {
		if idx != nil {
			x.index = idx
		}
	}
}

// WithWorkers bounds how many files IndexFiles reads in parallel.
// Values below 1 keep the default of GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(x *TextFileIndexer) {
		if n > 0 {
			x.workers = n
		}
	}
}

// WithMetrics records indexing telemetry.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(x *TextFileIndexer) {
		x.metrics = m
	}
}

// WithFollowSymlinks includes symlinks to regular files found while
// expanding directories.
func WithFollowSymlinks(follow bool) Option {
	return func(x *TextFileIndexer) {
		x.scanner = scanner.New(scanner.Options{FollowSymlinks: follow})
	}
}

// NewTextFileIndexer creates an indexer with the given options.
//
//	x := NewTextFileIndexer(WithToken(tok), WithWorkers(4))
func NewTextFileIndexer(opts ...Option) *TextFileIndexer {
	x := &TextFileIndexer{
		index:   NewInvertedIndex(),
		token:   DefaultToken(),
		scanner: scanner.New(scanner.DefaultOptions()),
		workers: runtime.GOMAXPROCS(0),
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

// Token returns the word-boundary rule.
func (x *TextFileIndexer) Token() Token {
	return x.token
}

// Metrics returns the telemetry sink, which may be nil.
func (x *TextFileIndexer) Metrics() *telemetry.Metrics {
	return x.metrics
}

// IndexFile indexes a single path: a regular file, or every regular file
// below a directory. A path that does not exist is ignored.
func (x *TextFileIndexer) IndexFile(ctx context.Context, path string) error {
	files, err := x.scanner.ResolvePath(ctx, path)
	if err != nil {
		return err
	}
	return x.indexAll(ctx, files)
}

// IndexFiles indexes every path of a collection. A nil collection is invalid
// input. Validation of all paths happens before any file is read.
func (x *TextFileIndexer) IndexFiles(ctx context.Context, paths []string) error {
	files, err := x.scanner.Resolve(ctx, paths)
	if err != nil {
		return err
	}

	start := time.Now()
	err = x.indexAll(ctx, files)
	slog.Info("indexed files",
		slog.Int("files", len(files)),
		slog.Duration("duration", time.Since(start)))
	return err
}

// ReIndexFile replaces the postings of the files path resolves to with their
// current content.
func (x *TextFileIndexer) ReIndexFile(ctx context.Context, path string) error {
	files, err := x.scanner.ResolvePath(ctx, path)
	if err != nil {
		return err
	}

	var errs []error
	for _, f := range files {
		if err := x.index.ReIndexFile(ctx, f, x.token); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if vanished(f, err) {
				continue
			}
			x.failed(f, err)
			errs = append(errs, err)
			continue
		}
		x.metrics.FileIndexed()
	}
	x.publishSize()
	return errors.Join(errs...)
}

// RemoveFromIndex removes path (or every file below it) and cleans up the
// words left without files. The path does not have to exist.
func (x *TextFileIndexer) RemoveFromIndex(path string) error {
	abs, err := scanner.Abs(path)
	if err != nil {
		return err
	}

	x.index.RemoveFileFromIndex(abs)
	x.index.CleanupIndex()
	x.metrics.FileRemoved()
	x.publishSize()

	slog.Debug("removed from index", slog.String("path", abs))
	return nil
}

// SearchFiles returns the files containing word. A blank word is invalid
// input; a miss returns an empty set.
func (x *TextFileIndexer) SearchFiles(word string) (PathSet, error) {
	if strings.TrimSpace(word) == "" {
		return nil, ierrors.New(ierrors.ErrCodeQueryEmpty, "search word must not be blank", nil)
	}
	return x.index.SearchFiles(word), nil
}

// CleanupIndex drops words whose posting set is empty.
func (x *TextFileIndexer) CleanupIndex() {
	x.index.CleanupIndex()
	x.publishSize()
}

// Stats returns a snapshot of the index size.
func (x *TextFileIndexer) Stats() IndexStats {
	return x.index.Stats()
}

// indexAll indexes files with at most x.workers in flight. Per-file failures
// are collected; only cancellation stops the batch.
func (x *TextFileIndexer) indexAll(ctx context.Context, files []string) error {
	if len(files) == 0 {
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(x.workers)

	var mu sync.Mutex
	var errs []error

	for _, f := range files {
		g.Go(func() error {
			if err := x.index.IndexFile(gctx, f, x.token); err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				if vanished(f, err) {
					return nil
				}
				x.failed(f, err)
				mu.Lock()
				errs = append(errs, err)
				mu.Unlock()
				return nil
			}
			x.metrics.FileIndexed()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	x.publishSize()
	return errors.Join(errs...)
}

// vanished reports whether err means path was deleted after it was resolved.
// Such a path is dropped like any other path that does not exist.
func vanished(path string, err error) bool {
	if !errors.Is(err, os.ErrNotExist) {
		return false
	}
	slog.Debug("file vanished before indexing", slog.String("path", path))
	return true
}

func (x *TextFileIndexer) failed(path string, err error) {
	attrs := append([]any{slog.String("path", path)}, ierrors.LogAttrs(err)...)
	slog.Warn("failed to index file", attrs...)
	x.metrics.IndexFailed(string(ierrors.GetCategory(err)))
}

func (x *TextFileIndexer) publishSize() {
	if x.metrics == nil {
		return
	}
	s := x.index.Stats()
	x.metrics.SetIndexSize(s.Words, s.Files)
}
