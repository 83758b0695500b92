package watcher

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
)

const (
	waitFor = 5 * time.Second
	tick    = 20 * time.Millisecond
)

func startWatcher(t *testing.T, ctx context.Context, idx Indexer, paths []string) *FileSystemWatcher {
	t.Helper()
	w, err := New(idx, DefaultOptions(), nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Stop() })

	require.NoError(t, w.Start(ctx, paths))
	select {
	case <-w.Ready():
	case <-time.After(waitFor):
		t.Fatal("watcher never became ready")
	}
	return w
}

func hasCall(idx *recordingIndexer, call string) func() bool {
	return func() bool {
		return slices.Contains(idx.Calls(), call)
	}
}

func TestNew_NilIndexer(t *testing.T) {
	_, err := New(nil, DefaultOptions(), nil)
	assert.True(t, ierrors.IsInvalidArgument(err))
}

func TestStart_NilPathsIsInvalid(t *testing.T) {
	w, err := New(&recordingIndexer{}, DefaultOptions(), nil)
	require.NoError(t, err)
	defer func() { _ = w.Stop() }()

	err = w.Start(context.Background(), nil)
	assert.True(t, ierrors.IsInvalidArgument(err))
}

func TestStart_RegistersTree(t *testing.T) {
	// Given: a directory with a nested sub-directory and a file elsewhere
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))
	other := t.TempDir()
	file := filepath.Join(other, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	// When: starting the watcher
	w := startWatcher(t, context.Background(), &recordingIndexer{}, []string{root, file})

	// Then: every directory and the file's parent are registered
	assert.ElementsMatch(t, []string{root, sub, other}, w.Dirs())
}

func TestStart_Twice(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, context.Background(), &recordingIndexer{}, []string{root})

	err := w.Start(context.Background(), []string{root})
	assert.Equal(t, ierrors.ErrCodeWatchRunning, ierrors.GetCode(err))
}

func TestWatcher_CreateModifyDelete(t *testing.T) {
	// Given: a watched empty directory
	root := t.TempDir()
	idx := &recordingIndexer{}
	startWatcher(t, context.Background(), idx, []string{root})
	file := filepath.Join(root, "a.txt")

	// When/Then: a created file is indexed
	require.NoError(t, os.WriteFile(file, []byte("hello"), 0o644))
	require.Eventually(t, hasCall(idx, "index "+file), waitFor, tick)

	// When/Then: a modified file is re-indexed
	f, err := os.OpenFile(file, os.O_APPEND|os.O_WRONLY, 0o644)
	require.NoError(t, err)
	_, err = f.WriteString(" world")
	require.NoError(t, err)
	require.NoError(t, f.Close())
	require.Eventually(t, hasCall(idx, "reindex "+file), waitFor, tick)

	// When/Then: a deleted file is removed
	require.NoError(t, os.Remove(file))
	require.Eventually(t, hasCall(idx, "remove "+file), waitFor, tick)
}

func TestWatcher_NewDirectoryIsWatched(t *testing.T) {
	// Given: a watched directory
	root := t.TempDir()
	idx := &recordingIndexer{}
	w := startWatcher(t, context.Background(), idx, []string{root})

	// When: a sub-directory is created
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.Eventually(t, func() bool { return slices.Contains(w.Dirs(), sub) }, waitFor, tick)

	// Then: files created inside it are indexed too
	file := filepath.Join(sub, "b.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	require.Eventually(t, hasCall(idx, "index "+file), waitFor, tick)

	// When: the sub-directory is deleted its registration is cancelled
	require.NoError(t, os.RemoveAll(sub))
	require.Eventually(t, func() bool { return !slices.Contains(w.Dirs(), sub) }, waitFor, tick)
	require.Eventually(t, hasCall(idx, "remove "+sub), waitFor, tick)
}

func TestWatcher_StopEndsSession(t *testing.T) {
	root := t.TempDir()
	w := startWatcher(t, context.Background(), &recordingIndexer{}, []string{root})

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "Stop is idempotent")

	select {
	case <-w.Done():
	case <-time.After(waitFor):
		t.Fatal("session did not end")
	}
	assert.False(t, w.Interrupted())

	// Errors is closed once the session ends.
	for range w.Errors() {
	}
}

func TestWatcher_ContextCancelInterrupts(t *testing.T) {
	root := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	w := startWatcher(t, ctx, &recordingIndexer{}, []string{root})

	cancel()

	select {
	case <-w.Done():
	case <-time.After(waitFor):
		t.Fatal("session did not end")
	}
	assert.True(t, w.Interrupted())
}

func TestWatcher_StopBeforeStart(t *testing.T) {
	w, err := New(&recordingIndexer{}, DefaultOptions(), nil)
	require.NoError(t, err)

	require.NoError(t, w.Stop())
	<-w.Done()

	err = w.Start(context.Background(), []string{t.TempDir()})
	assert.Equal(t, ierrors.ErrCodeWatchRunning, ierrors.GetCode(err))
}
