package watcher

import (
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

type regState int

const (
	stateReady regState = iota
	stateSignalled
	stateCancelled
)

// Registration is the watch handle of one directory.
type Registration struct {
	id       uint64
	dir      string
	state    regState
	pending  []FileEvent
	overflow bool
}

// ID returns the handle id. Ids are never reused within a Registry.
func (r *Registration) ID() uint64 { return r.id }

// Dir returns the registered directory.
func (r *Registration) Dir() string { return r.dir }

// Registry is the table of watched directories, shared by the event pump,
// the worker and the processor. All methods are safe for concurrent use.
type Registry struct {
	mu         sync.Mutex
	nextID     uint64
	byDir      map[string]*Registration
	queue      []*Registration
	notify     chan struct{}
	maxPending int
}

// NewRegistry creates an empty registry. A registration holds at most
// maxPending events between two polls.
func NewRegistry(maxPending int) *Registry {
	if maxPending <= 0 {
		maxPending = DefaultOptions().EventBufferSize
	}
	return &Registry{
		byDir:      make(map[string]*Registration),
		notify:     make(chan struct{}, 1),
		maxPending: maxPending,
	}
}

// Add registers dir. It returns the existing registration and false when
// dir is already registered.
func (g *Registry) Add(dir string) (*Registration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r, ok := g.byDir[dir]; ok {
		return r, false
	}
	g.nextID++
	r := &Registration{id: g.nextID, dir: dir, state: stateReady}
	g.byDir[dir] = r
	return r, true
}

// Deliver appends ev to the pending batch of the registration for ev.Dir.
// The first event on an idle registration signals it. Deliver reports false
// when ev.Dir is not registered.
func (g *Registry) Deliver(ev FileEvent) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	r, ok := g.byDir[ev.Dir]
	if !ok {
		return false
	}

	if len(r.pending) >= g.maxPending {
		if !r.overflow {
			r.overflow = true
			r.pending = append(r.pending, FileEvent{
				Path:      r.dir,
				Dir:       r.dir,
				Operation: OpOverflow,
				Timestamp: time.Now(),
			})
		}
	} else {
		r.pending = append(r.pending, ev)
	}

	if r.state == stateReady {
		r.state = stateSignalled
		g.enqueueLocked(r)
	}
	return true
}

// Next pops the next signalled registration.
func (g *Registry) Next() (*Registration, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for len(g.queue) > 0 {
		r := g.queue[0]
		g.queue[0] = nil
		g.queue = g.queue[1:]
		if r.state == stateSignalled {
			return r, true
		}
	}
	return nil, false
}

// Poll takes the pending batch of r in delivery order, with the events of
// each path merged by Coalesce.
func (g *Registry) Poll(r *Registration) []FileEvent {
	g.mu.Lock()
	events := r.pending
	r.pending = nil
	r.overflow = false
	g.mu.Unlock()

	return Coalesce(events)
}

// Reset re-arms r after its batch was processed. If events arrived in the
// meantime r is queued again. Reset reports false for a cancelled
// registration.
func (g *Registry) Reset(r *Registration) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if r.state == stateCancelled {
		return false
	}
	if len(r.pending) > 0 {
		r.state = stateSignalled
		g.enqueueLocked(r)
		return true
	}
	r.state = stateReady
	return true
}

// CancelUnder cancels every registration whose directory equals path or lies
// below it, and returns the cancelled directories.
func (g *Registry) CancelUnder(path string) []string {
	path = filepath.Clean(path)
	prefix := path
	if !strings.HasSuffix(prefix, string(filepath.Separator)) {
		prefix += string(filepath.Separator)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var cancelled []string
	for dir, r := range g.byDir {
		if dir == path || strings.HasPrefix(dir, prefix) {
			r.state = stateCancelled
			r.pending = nil
			delete(g.byDir, dir)
			cancelled = append(cancelled, dir)
		}
	}
	sort.Strings(cancelled)
	return cancelled
}

// Notify returns a channel that receives a value whenever a registration is
// queued. Several queued registrations may share one notification.
func (g *Registry) Notify() <-chan struct{} {
	return g.notify
}

// Len returns the number of live registrations.
func (g *Registry) Len() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.byDir)
}

// Dirs returns the registered directories in ascending order.
func (g *Registry) Dirs() []string {
	g.mu.Lock()
	defer g.mu.Unlock()

	dirs := make([]string, 0, len(g.byDir))
	for d := range g.byDir {
		dirs = append(dirs, d)
	}
	sort.Strings(dirs)
	return dirs
}

func (g *Registry) enqueueLocked(r *Registration) {
	g.queue = append(g.queue, r)
	select {
	case g.notify <- struct{}{}:
	default:
	}
}
