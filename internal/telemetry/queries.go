package telemetry

import (
	"sort"
	"strings"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// CircularBuffer is a fixed-capacity FIFO buffer.
type CircularBuffer[T any] struct {
	items    []T
	head     int // next write position
	size     int
	capacity int
	mu       sync.RWMutex
}

// NewCircularBuffer creates a new circular buffer with the given capacity.
func NewCircularBuffer[T any](capacity int) *CircularBuffer[T] {
	if capacity <= 0 {
		capacity = 100
	}
	return &CircularBuffer[T]{
		items:    make([]T, capacity),
		capacity: capacity,
	}
}

// Add adds an item to the buffer. If full, the oldest item is evicted.
func (b *CircularBuffer[T]) Add(item T) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.items[b.head] = item
	b.head = (b.head + 1) % b.capacity
	if b.size < b.capacity {
		b.size++
	}
}

// Items returns all items in FIFO order (oldest first).
func (b *CircularBuffer[T]) Items() []T {
	b.mu.RLock()
	defer b.mu.RUnlock()

	result := make([]T, b.size)
	if b.size < b.capacity {
		copy(result, b.items[:b.size])
	} else {
		copy(result, b.items[b.head:])
		copy(result[b.capacity-b.head:], b.items[:b.head])
	}
	return result
}

// Size returns the current number of items in the buffer.
func (b *CircularBuffer[T]) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// QueryLogConfig configures a QueryLog.
type QueryLogConfig struct {
	TopPatternsCapacity int // distinct patterns tracked (default: 100)
	EmptyCapacity       int // recent empty-result patterns kept (default: 50)
}

// DefaultQueryLogConfig returns sensible defaults.
func DefaultQueryLogConfig() QueryLogConfig {
	return QueryLogConfig{
		TopPatternsCapacity: 100,
		EmptyCapacity:       50,
	}
}

// PatternCount is a searched pattern and how often it was searched.
type PatternCount struct {
	Pattern string `json:"pattern" yaml:"pattern"`
	Count   int64  `json:"count" yaml:"count"`
}

// QuerySnapshot is an immutable view of a QueryLog.
type QuerySnapshot struct {
	Total        int64          `json:"total" yaml:"total"`
	EmptyResults int64          `json:"empty_results" yaml:"empty_results"`
	TopPatterns  []PatternCount `json:"top_patterns" yaml:"top_patterns"`
	RecentEmpty  []string       `json:"recent_empty" yaml:"recent_empty"`
	Since        time.Time      `json:"since" yaml:"since"`
}

// QueryLog keeps local, in-memory statistics about searched patterns.
// Nothing is persisted or reported anywhere.
type QueryLog struct {
	mu          sync.Mutex
	patterns    *lru.Cache[string, int64]
	recentEmpty *CircularBuffer[string]
	total       int64
	empty       int64
	since       time.Time
}

// NewQueryLog creates a query log.
func NewQueryLog(cfg QueryLogConfig) *QueryLog {
	if cfg.TopPatternsCapacity <= 0 {
		cfg.TopPatternsCapacity = 100
	}
	if cfg.EmptyCapacity <= 0 {
		cfg.EmptyCapacity = 50
	}

	// lru.New only fails for a non-positive size.
	patterns, _ := lru.New[string, int64](cfg.TopPatternsCapacity)

	return &QueryLog{
		patterns:    patterns,
		recentEmpty: NewCircularBuffer[string](cfg.EmptyCapacity),
		since:       time.Now(),
	}
}

// Record adds one search for pattern that matched in matches files.
// Patterns are case-folded the same way the index folds words.
func (q *QueryLog) Record(pattern string, matches int) {
	if q == nil {
		return
	}
	key := strings.ToLower(strings.TrimSpace(pattern))
	if key == "" {
		return
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	q.total++
	count, _ := q.patterns.Get(key)
	q.patterns.Add(key, count+1)

	if matches == 0 {
		q.empty++
		q.recentEmpty.Add(key)
	}
}

// Snapshot returns the current statistics with at most limit top patterns.
// A non-positive limit returns every tracked pattern.
func (q *QueryLog) Snapshot(limit int) QuerySnapshot {
	if q == nil {
		return QuerySnapshot{}
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	top := make([]PatternCount, 0, q.patterns.Len())
	for _, key := range q.patterns.Keys() {
		if count, ok := q.patterns.Peek(key); ok {
			top = append(top, PatternCount{Pattern: key, Count: count})
		}
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].Count != top[j].Count {
			return top[i].Count > top[j].Count
		}
		return top[i].Pattern < top[j].Pattern
	})
	if limit > 0 && len(top) > limit {
		top = top[:limit]
	}

	return QuerySnapshot{
		Total:        q.total,
		EmptyResults: q.empty,
		TopPatterns:  top,
		RecentEmpty:  q.recentEmpty.Items(),
		Since:        q.since,
	}
}
