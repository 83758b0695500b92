package watcher

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
	"github.com/Aman-CERP/textindex/internal/scanner"
	"github.com/Aman-CERP/textindex/internal/telemetry"
)

// FileSystemWatcher watches directory trees with fsnotify and drives an
// Indexer from the changes. A watcher runs one session: it can be started
// once and stopped once.
type FileSystemWatcher struct {
	fsWatcher *fsnotify.Watcher
	registry  *Registry
	processor *EventProcessor
	scanner   *scanner.Scanner
	metrics   *telemetry.Metrics
	opts      Options

	errors chan error
	stopCh chan struct{}
	ready  chan struct{}
	done   chan struct{}

	mu          sync.Mutex
	started     bool
	stopped     bool
	closeOnce   sync.Once
	interrupted atomic.Bool
}

// Ensure FileSystemWatcher can register directories for its processor.
var _ Registrar = (*FileSystemWatcher)(nil)

// New creates a watcher that applies changes to indexer.
// metrics may be nil.
func New(indexer Indexer, opts Options, metrics *telemetry.Metrics) (*FileSystemWatcher, error) {
	if indexer == nil {
		return nil, ierrors.ValidationError("watcher requires an indexer", nil)
	}
	opts = opts.WithDefaults()

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, ierrors.WatchError(ierrors.ErrCodeWatchFailed, "create fsnotify watcher", err)
	}

	w := &FileSystemWatcher{
		fsWatcher: fsw,
		registry:  NewRegistry(opts.EventBufferSize),
		scanner:   scanner.New(scanner.Options{FollowSymlinks: opts.FollowSymlinks}),
		metrics:   metrics,
		opts:      opts,
		errors:    make(chan error, opts.ErrorBufferSize),
		stopCh:    make(chan struct{}),
		ready:     make(chan struct{}),
		done:      make(chan struct{}),
	}
	w.processor = NewEventProcessor(indexer, w, metrics)
	return w, nil
}

// Start validates paths, then registers their directories and runs the
// worker in the background. It returns as soon as the background goroutines
// are dispatched; Ready is closed once the initial registration is done.
//
// A nil collection or a path that is neither a regular file nor a directory
// is invalid input. Cancelling ctx interrupts the session.
func (w *FileSystemWatcher) Start(ctx context.Context, paths []string) error {
	dirs, err := w.scanner.WatchDirs(ctx, paths)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return ierrors.WatchError(ierrors.ErrCodeWatchRunning, "watcher already stopped", nil)
	}
	if w.started {
		return ierrors.WatchError(ierrors.ErrCodeWatchRunning, "watcher already started", nil)
	}
	w.started = true

	go w.run(ctx, dirs)
	return nil
}

// Stop ends the session. A batch that is being processed runs to completion;
// Done is closed once the background goroutines have exited.
// Safe to call multiple times.
func (w *FileSystemWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.closeWatcher()

	if !w.started {
		close(w.errors)
		close(w.done)
	}
	return nil
}

// Ready is closed once the directories passed to Start are registered.
func (w *FileSystemWatcher) Ready() <-chan struct{} {
	return w.ready
}

// Done is closed once the session has ended.
func (w *FileSystemWatcher) Done() <-chan struct{} {
	return w.done
}

// Errors returns the channel of non-fatal watch errors. The watcher keeps
// running after sending one; sends never block and are dropped when the
// buffer is full. The channel is closed when the session ends.
func (w *FileSystemWatcher) Errors() <-chan error {
	return w.errors
}

// Interrupted reports whether the session ended because its context was
// cancelled rather than through Stop.
func (w *FileSystemWatcher) Interrupted() bool {
	return w.interrupted.Load()
}

// Dirs returns the currently registered directories.
func (w *FileSystemWatcher) Dirs() []string {
	return w.registry.Dirs()
}

// RegisterTree registers dir and every directory below it.
func (w *FileSystemWatcher) RegisterTree(ctx context.Context, dir string) int {
	dirs, err := w.scanner.Subdirectories(ctx, dir)
	if err != nil {
		slog.Warn("failed to list directories to watch",
			slog.String("path", dir),
			slog.String("error", err.Error()))
		return 0
	}

	n := 0
	for _, d := range dirs {
		if w.register(d) {
			n++
		}
	}
	w.metrics.SetWatchedDirs(w.registry.Len())
	return n
}

// Unregister cancels every registration at or below path.
func (w *FileSystemWatcher) Unregister(path string) []string {
	dirs := w.registry.CancelUnder(path)
	for _, d := range dirs {
		// fsnotify drops watches of deleted directories on its own.
		_ = w.fsWatcher.Remove(d)
	}
	if len(dirs) > 0 {
		w.metrics.SetWatchedDirs(w.registry.Len())
	}
	return dirs
}

// register adds one directory. The registry entry exists before fsnotify
// starts delivering so no early event is dropped.
func (w *FileSystemWatcher) register(dir string) bool {
	if _, added := w.registry.Add(dir); !added {
		return false
	}

	if err := w.fsWatcher.Add(dir); err != nil {
		w.registry.CancelUnder(dir)
		werr := ierrors.WatchError(ierrors.ErrCodeWatchRegistration, "register directory "+dir, err).
			WithDetail("path", dir)
		slog.Warn("directory left unmonitored", ierrors.LogAttrs(werr)...)
		w.metrics.WatchRegistrationFailed()
		w.emitError(werr)
		return false
	}
	return true
}

func (w *FileSystemWatcher) run(ctx context.Context, dirs []string) {
	for _, d := range dirs {
		w.register(d)
	}
	w.metrics.SetWatchedDirs(w.registry.Len())
	slog.Info("watching directories",
		slog.Int("count", w.registry.Len()))
	close(w.ready)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		w.pump(ctx)
	}()
	go func() {
		defer wg.Done()
		w.work(ctx)
	}()
	wg.Wait()

	w.mu.Lock()
	w.closeWatcher()
	w.mu.Unlock()

	close(w.errors)
	close(w.done)
}

// pump routes fsnotify events into the registry.
func (w *FileSystemWatcher) pump(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case event, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			w.route(event)
		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			w.handleError(err)
		}
	}
}

// work processes signalled registrations until stopped or interrupted.
// Stop is observed between batches.
func (w *FileSystemWatcher) work(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			w.interrupted.Store(true)
			slog.Warn("watch session interrupted",
				slog.String("error_code", ierrors.ErrCodeWatchInterrupted),
				slog.String("error", ctx.Err().Error()))
			return
		case <-w.stopCh:
			slog.Info("watch session stopped")
			return
		case <-w.registry.Notify():
			if !w.drain(ctx) {
				return
			}
		}
	}
}

// drain processes every queued registration. It reports false once the
// session should end.
func (w *FileSystemWatcher) drain(ctx context.Context) bool {
	for {
		select {
		case <-w.stopCh:
			return false
		default:
		}
		if ctx.Err() != nil {
			w.interrupted.Store(true)
			return false
		}

		r, ok := w.registry.Next()
		if !ok {
			return true
		}
		events := w.registry.Poll(r)
		w.processor.Process(ctx, events)
		if !w.registry.Reset(r) {
			slog.Debug("registration cancelled while processing",
				slog.String("dir", r.Dir()))
		}
	}
}

// route converts one fsnotify event and delivers it to the registration of
// its directory. Chmod-only events are ignored.
func (w *FileSystemWatcher) route(event fsnotify.Event) {
	var op Operation
	switch {
	case event.Has(fsnotify.Create):
		op = OpCreate
	case event.Has(fsnotify.Write):
		op = OpModify
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		op = OpDelete
	default:
		return
	}

	ev := FileEvent{
		Path:      filepath.Clean(event.Name),
		Dir:       filepath.Dir(event.Name),
		Operation: op,
		Timestamp: time.Now(),
	}
	if w.registry.Deliver(ev) {
		return
	}

	// A watched root has no registered parent; its own removal is reported
	// to its own registration.
	if op == OpDelete {
		ev.Dir = ev.Path
		w.registry.Deliver(ev)
	}
}

func (w *FileSystemWatcher) handleError(err error) {
	if errors.Is(err, fsnotify.ErrEventOverflow) {
		slog.Warn("notification queue overflowed, index may be stale")
		w.metrics.WatchOverflow()
		w.emitError(ierrors.WatchError(ierrors.ErrCodeWatchOverflow, "change events dropped", err))
		return
	}

	slog.Warn("watcher error", slog.String("error", err.Error()))
	w.emitError(ierrors.WatchError(ierrors.ErrCodeWatchFailed, "watcher error", err))
}

// emitError sends err without blocking.
func (w *FileSystemWatcher) emitError(err error) {
	select {
	case <-w.done:
		return
	default:
	}
	select {
	case w.errors <- err:
	default:
	}
}

// closeWatcher releases the fsnotify watcher. Caller holds w.mu.
func (w *FileSystemWatcher) closeWatcher() {
	w.closeOnce.Do(func() {
		_ = w.fsWatcher.Close()
	})
}
