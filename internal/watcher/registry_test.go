package watcher

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func event(dir, name string, op Operation) FileEvent {
	return FileEvent{
		Path:      filepath.Join(dir, name),
		Dir:       dir,
		Operation: op,
		Timestamp: time.Now(),
	}
}

func TestRegistry_AddAssignsUniqueIDs(t *testing.T) {
	g := NewRegistry(10)

	a, added := g.Add("/w/a")
	require.True(t, added)
	b, added := g.Add("/w/b")
	require.True(t, added)
	again, added := g.Add("/w/a")

	assert.False(t, added)
	assert.Same(t, a, again)
	assert.NotEqual(t, a.ID(), b.ID())
	assert.Equal(t, "/w/a", a.Dir())
	assert.Equal(t, []string{"/w/a", "/w/b"}, g.Dirs())
}

func TestRegistry_DeliverUnregisteredDir(t *testing.T) {
	g := NewRegistry(10)
	assert.False(t, g.Deliver(event("/nowhere", "f.txt", OpCreate)))
}

func TestRegistry_FirstEventSignalsOnce(t *testing.T) {
	// Given: one registered directory
	g := NewRegistry(10)
	r, _ := g.Add("/w")

	// When: three events arrive before the worker runs
	require.True(t, g.Deliver(event("/w", "a", OpCreate)))
	require.True(t, g.Deliver(event("/w", "a", OpModify)))
	require.True(t, g.Deliver(event("/w", "b", OpDelete)))

	// Then: the registration is queued once with the batch in order, the
	// create and modify of "a" merged
	select {
	case <-g.Notify():
	default:
		t.Fatal("expected notification")
	}
	next, ok := g.Next()
	require.True(t, ok)
	assert.Same(t, r, next)
	_, ok = g.Next()
	assert.False(t, ok, "registration must be queued once")

	batch := g.Poll(next)
	require.Len(t, batch, 2)
	assert.Equal(t, filepath.Join("/w", "a"), batch[0].Path)
	assert.Equal(t, []Operation{OpCreate, OpDelete},
		[]Operation{batch[0].Operation, batch[1].Operation})
}

func TestRegistry_ResetRearms(t *testing.T) {
	g := NewRegistry(10)
	r, _ := g.Add("/w")

	g.Deliver(event("/w", "a", OpCreate))
	next, _ := g.Next()
	_ = g.Poll(next)

	// Reset with nothing pending returns to ready; the next event signals again.
	require.True(t, g.Reset(r))
	_, ok := g.Next()
	assert.False(t, ok)

	g.Deliver(event("/w", "b", OpCreate))
	next, ok = g.Next()
	require.True(t, ok)
	assert.Same(t, r, next)
}

func TestRegistry_ResetRequeuesWhenEventsArrived(t *testing.T) {
	g := NewRegistry(10)
	r, _ := g.Add("/w")

	g.Deliver(event("/w", "a", OpCreate))
	next, _ := g.Next()
	_ = g.Poll(next)

	// An event arrives while the batch is being processed.
	g.Deliver(event("/w", "b", OpModify))
	_, ok := g.Next()
	require.False(t, ok, "signalled registration is not queued twice")

	require.True(t, g.Reset(r))
	next, ok = g.Next()
	require.True(t, ok)
	assert.Len(t, g.Poll(next), 1)
}

func TestRegistry_WithoutResetNoFurtherSignals(t *testing.T) {
	g := NewRegistry(10)
	g.Add("/w")

	g.Deliver(event("/w", "a", OpCreate))
	next, _ := g.Next()
	_ = g.Poll(next)

	g.Deliver(event("/w", "b", OpCreate))
	_, ok := g.Next()
	assert.False(t, ok)
}

func TestRegistry_OverflowCollapsesToOneEvent(t *testing.T) {
	g := NewRegistry(2)
	g.Add("/w")

	for _, name := range []string{"a", "b", "c", "d"} {
		g.Deliver(event("/w", name, OpCreate))
	}

	next, ok := g.Next()
	require.True(t, ok)
	batch := g.Poll(next)
	require.Len(t, batch, 3)
	assert.Equal(t, OpOverflow, batch[2].Operation)
	assert.Equal(t, "/w", batch[2].Dir)
}

func TestRegistry_CancelUnder(t *testing.T) {
	// Given: a nested tree and a sibling sharing a name prefix
	g := NewRegistry(10)
	sub, _ := g.Add(filepath.Join("/w", "a", "sub"))
	g.Add(filepath.Join("/w", "a"))
	g.Add(filepath.Join("/w", "ab"))

	g.Deliver(event(filepath.Join("/w", "a", "sub"), "f", OpCreate))

	// When: cancelling the middle directory
	cancelled := g.CancelUnder(filepath.Join("/w", "a"))

	// Then: it and everything below are gone, the sibling stays
	assert.Equal(t, []string{filepath.Join("/w", "a"), filepath.Join("/w", "a", "sub")}, cancelled)
	assert.Equal(t, []string{filepath.Join("/w", "ab")}, g.Dirs())
	assert.False(t, g.Reset(sub))
	_, ok := g.Next()
	assert.False(t, ok, "cancelled registrations are skipped")
	assert.False(t, g.Deliver(event(filepath.Join("/w", "a"), "x", OpCreate)))
}

func TestOperationString(t *testing.T) {
	assert.Equal(t, "CREATE", OpCreate.String())
	assert.Equal(t, "MODIFY", OpModify.String())
	assert.Equal(t, "DELETE", OpDelete.String())
	assert.Equal(t, "OVERFLOW", OpOverflow.String())
	assert.Equal(t, "UNKNOWN", Operation(42).String())
}

func TestOptionsWithDefaults(t *testing.T) {
	opts := Options{}.WithDefaults()
	assert.Equal(t, DefaultOptions().EventBufferSize, opts.EventBufferSize)
	assert.Equal(t, DefaultOptions().ErrorBufferSize, opts.ErrorBufferSize)

	opts = Options{EventBufferSize: 5}.WithDefaults()
	assert.Equal(t, 5, opts.EventBufferSize)
}
