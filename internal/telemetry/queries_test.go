package telemetry

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCircularBuffer(t *testing.T) {
	tests := []struct {
		name     string
		capacity int
		add      []int
		want     []int
	}{
		{name: "empty", capacity: 3, add: nil, want: []int{}},
		{name: "partial", capacity: 3, add: []int{1, 2}, want: []int{1, 2}},
		{name: "full", capacity: 3, add: []int{1, 2, 3}, want: []int{1, 2, 3}},
		{name: "wrapped", capacity: 3, add: []int{1, 2, 3, 4, 5}, want: []int{3, 4, 5}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := NewCircularBuffer[int](tt.capacity)
			for _, v := range tt.add {
				b.Add(v)
			}
			assert.Equal(t, tt.want, b.Items())
			assert.Equal(t, len(tt.want), b.Size())
		})
	}
}

func TestCircularBuffer_DefaultCapacity(t *testing.T) {
	b := NewCircularBuffer[string](0)
	for i := 0; i < 150; i++ {
		b.Add("x")
	}
	assert.Equal(t, 100, b.Size())
}

func TestQueryLog_TopPatterns(t *testing.T) {
	// Given: a log with repeated searches in mixed case
	q := NewQueryLog(DefaultQueryLogConfig())
	q.Record("File", 1)
	q.Record("file", 2)
	q.Record("test", 1)
	q.Record("  ", 0)

	// When: taking a snapshot
	snap := q.Snapshot(1)

	// Then: patterns are folded and ranked by count, blanks ignored
	assert.Equal(t, int64(3), snap.Total)
	assert.Equal(t, []PatternCount{{Pattern: "file", Count: 2}}, snap.TopPatterns)
	assert.Empty(t, snap.RecentEmpty)
}

func TestQueryLog_Eviction(t *testing.T) {
	q := NewQueryLog(QueryLogConfig{TopPatternsCapacity: 2, EmptyCapacity: 1})
	q.Record("a", 0)
	q.Record("b", 0)
	q.Record("c", 0)

	snap := q.Snapshot(0)
	assert.Len(t, snap.TopPatterns, 2)
	assert.Equal(t, []string{"c"}, snap.RecentEmpty)
	assert.Equal(t, int64(3), snap.EmptyResults)
}

func TestQueryLog_NilIsSafe(t *testing.T) {
	var q *QueryLog
	q.Record("x", 0)
	assert.Equal(t, QuerySnapshot{}, q.Snapshot(5))
}
