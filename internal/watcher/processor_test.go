package watcher

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Aman-CERP/textindex/internal/telemetry"
)

// recordingIndexer records the index mutations it receives.
type recordingIndexer struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (r *recordingIndexer) record(call string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, call)
	return r.err
}

func (r *recordingIndexer) IndexFile(_ context.Context, path string) error {
	return r.record("index " + path)
}

func (r *recordingIndexer) ReIndexFile(_ context.Context, path string) error {
	return r.record("reindex " + path)
}

func (r *recordingIndexer) RemoveFromIndex(path string) error {
	return r.record("remove " + path)
}

func (r *recordingIndexer) Calls() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.calls...)
}

// recordingRegistrar records registration changes.
type recordingRegistrar struct {
	registered   []string
	unregistered []string
}

func (r *recordingRegistrar) RegisterTree(_ context.Context, dir string) int {
	r.registered = append(r.registered, dir)
	return 1
}

func (r *recordingRegistrar) Unregister(path string) []string {
	r.unregistered = append(r.unregistered, path)
	return []string{path}
}

func TestProcessor_CreateFile(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	idx := &recordingIndexer{}
	reg := &recordingRegistrar{}
	p := NewEventProcessor(idx, reg, nil)

	p.Process(context.Background(), []FileEvent{{Path: file, Dir: dir, Operation: OpCreate}})

	assert.Equal(t, []string{"index " + file}, idx.Calls())
	assert.Empty(t, reg.registered)
}

func TestProcessor_CreateDirectoryRegistersBeforeIndexing(t *testing.T) {
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))

	idx := &recordingIndexer{}
	reg := &recordingRegistrar{}
	p := NewEventProcessor(idx, reg, nil)

	p.Process(context.Background(), []FileEvent{{Path: sub, Dir: dir, Operation: OpCreate}})

	assert.Equal(t, []string{sub}, reg.registered)
	assert.Equal(t, []string{"index " + sub}, idx.Calls())
}

func TestProcessor_ReplacedDirectoryIsRebuilt(t *testing.T) {
	// Given: a directory deleted and created again within one batch
	dir := t.TempDir()
	sub := filepath.Join(dir, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	batch := Coalesce([]FileEvent{
		{Path: sub, Dir: dir, Operation: OpDelete},
		{Path: sub, Dir: dir, Operation: OpCreate},
	})

	idx := &recordingIndexer{}
	reg := &recordingRegistrar{}
	p := NewEventProcessor(idx, reg, nil)

	// When: processing the merged event
	p.Process(context.Background(), batch)

	// Then: the old tree is dropped before the new one is watched and indexed
	assert.Equal(t, []string{sub}, reg.unregistered)
	assert.Equal(t, []string{sub}, reg.registered)
	assert.Equal(t, []string{"remove " + sub, "index " + sub}, idx.Calls())
}

func TestProcessor_ModifySkipsVanishedFile(t *testing.T) {
	// Given: a modify event for a file that was deleted right after
	dir := t.TempDir()
	gone := filepath.Join(dir, "gone.txt")
	kept := filepath.Join(dir, "kept.txt")
	require.NoError(t, os.WriteFile(kept, []byte("x"), 0o644))

	idx := &recordingIndexer{}
	p := NewEventProcessor(idx, &recordingRegistrar{}, nil)

	// When: processing the batch
	p.Process(context.Background(), []FileEvent{
		{Path: gone, Dir: dir, Operation: OpModify},
		{Path: kept, Dir: dir, Operation: OpModify},
	})

	// Then: only the existing file is re-indexed
	assert.Equal(t, []string{"reindex " + kept}, idx.Calls())
}

func TestProcessor_DeleteCancelsAndRemoves(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "old")

	idx := &recordingIndexer{}
	reg := &recordingRegistrar{}
	p := NewEventProcessor(idx, reg, nil)

	p.Process(context.Background(), []FileEvent{{Path: path, Dir: dir, Operation: OpDelete}})

	assert.Equal(t, []string{path}, reg.unregistered)
	assert.Equal(t, []string{"remove " + path}, idx.Calls())
}

func TestProcessor_FailuresDoNotStopBatch(t *testing.T) {
	dir := t.TempDir()
	a := filepath.Join(dir, "a.txt")
	b := filepath.Join(dir, "b.txt")
	require.NoError(t, os.WriteFile(a, []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("x"), 0o644))

	idx := &recordingIndexer{err: errors.New("disk on fire")}
	p := NewEventProcessor(idx, &recordingRegistrar{}, nil)

	p.Process(context.Background(), []FileEvent{
		{Path: a, Dir: dir, Operation: OpCreate},
		{Path: b, Dir: dir, Operation: OpCreate},
	})

	assert.Equal(t, []string{"index " + a, "index " + b}, idx.Calls())
}

func TestProcessor_OverflowIsCounted(t *testing.T) {
	m := telemetry.New()
	idx := &recordingIndexer{}
	p := NewEventProcessor(idx, &recordingRegistrar{}, m)

	p.Process(context.Background(), []FileEvent{{Path: "/w", Dir: "/w", Operation: OpOverflow}})

	assert.Empty(t, idx.Calls())
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WatchOverflows))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.WatchEvents.WithLabelValues("overflow")))
}

func TestProcessor_StopsOnCancelledContext(t *testing.T) {
	dir := t.TempDir()
	idx := &recordingIndexer{}
	p := NewEventProcessor(idx, &recordingRegistrar{}, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p.Process(ctx, []FileEvent{{Path: filepath.Join(dir, "x"), Dir: dir, Operation: OpDelete}})

	assert.Empty(t, idx.Calls())
}
