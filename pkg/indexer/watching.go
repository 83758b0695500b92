package indexer

import (
	"context"
	"log/slog"
	"sync"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
	"github.com/Aman-CERP/textindex/internal/watcher"
)

// WatchingIndexer indexes a set of paths once and then keeps the index in
// sync with filesystem changes below them. Searches are served by the
// wrapped TextFileIndexer.
type WatchingIndexer struct {
	*TextFileIndexer

	opts watcher.Options

	mu      sync.Mutex
	watcher *watcher.FileSystemWatcher
}

// NewWatchingIndexer wraps x. The watcher is created on StartWatching.
func NewWatchingIndexer(x *TextFileIndexer, opts watcher.Options) (*WatchingIndexer, error) {
	if x == nil {
		return nil, ierrors.ValidationError("watching indexer requires a text file indexer", nil)
	}
	return &WatchingIndexer{
		TextFileIndexer: x,
		opts:            opts.WithDefaults(),
	}, nil
}

// StartWatching registers paths for change notification, waits until the
// directories are registered, then runs the initial bulk index. Changes made
// during the bulk index are applied by the watch worker as they arrive.
//
// Validation errors are returned before anything starts. Per-file indexing
// failures of the bulk index are logged and returned after watching has
// started; watching keeps running. Cancelling ctx interrupts the session.
func (w *WatchingIndexer) StartWatching(ctx context.Context, paths []string) error {
	w.mu.Lock()
	if w.watcher != nil {
		w.mu.Unlock()
		return ierrors.WatchError(ierrors.ErrCodeWatchRunning, "already watching", nil)
	}

	fw, err := watcher.New(w.TextFileIndexer, w.opts, w.metrics)
	if err != nil {
		w.mu.Unlock()
		return err
	}
	if err := fw.Start(ctx, paths); err != nil {
		_ = fw.Stop()
		w.mu.Unlock()
		return err
	}
	w.watcher = fw
	w.mu.Unlock()

	select {
	case <-fw.Ready():
	case <-ctx.Done():
		return ctx.Err()
	}

	err = w.IndexFiles(ctx, paths)
	if err != nil {
		slog.Warn("initial index incomplete", ierrors.LogAttrs(err)...)
	}
	return err
}

// StopWatching ends the watch session. The index keeps its content and can
// still be searched; a new session may be started afterwards.
func (w *WatchingIndexer) StopWatching() error {
	w.mu.Lock()
	fw := w.watcher
	w.watcher = nil
	w.mu.Unlock()

	if fw == nil {
		return nil
	}
	return fw.Stop()
}

// Watcher returns the active watcher, or nil when not watching.
func (w *WatchingIndexer) Watcher() *watcher.FileSystemWatcher {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.watcher
}
