package searcher

import (
	"context"
	"log/slog"
	"runtime"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/errgroup"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
	"github.com/Aman-CERP/textindex/internal/telemetry"
	"github.com/Aman-CERP/textindex/internal/textio"
)

// DefaultTableCacheSize is the number of shift tables kept by default.
const DefaultTableCacheSize = 256

// BoyerMooreSearcher scans candidate files for exact pattern occurrences.
//
// BoyerMooreSearcher is safe for concurrent use.
type BoyerMooreSearcher struct {
	files     FileSearcher
	workers   int
	cacheSize int
	tables    *lru.Cache[string, *shiftTable]
	metrics   *telemetry.Metrics
}

// Option configures a BoyerMooreSearcher.
type Option func(*BoyerMooreSearcher)

// WithWorkers bounds how many candidate files are scanned in parallel.
// Values below 1 keep the default of GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(s *BoyerMooreSearcher) {
		if n > 0 {
			s.workers = n
		}
	}
}

// WithTableCacheSize sets how many shift tables are cached.
// Values below 1 keep DefaultTableCacheSize.
func WithTableCacheSize(n int) Option {
	return func(s *BoyerMooreSearcher) {
		if n > 0 {
			s.cacheSize = n
		}
	}
}

// WithMetrics records search telemetry.
func WithMetrics(m *telemetry.Metrics) Option {
	return func(s *BoyerMooreSearcher) {
		s.metrics = m
	}
}

// NewBoyerMooreSearcher creates a searcher over files.
func NewBoyerMooreSearcher(files FileSearcher, opts ...Option) (*BoyerMooreSearcher, error) {
	if files == nil {
		return nil, ierrors.ValidationError("searcher requires a file searcher", nil)
	}

	s := &BoyerMooreSearcher{
		files:     files,
		workers:   runtime.GOMAXPROCS(0),
		cacheSize: DefaultTableCacheSize,
	}
	for _, opt := range opts {
		opt(s)
	}

	tables, err := lru.New[string, *shiftTable](s.cacheSize)
	if err != nil {
		return nil, ierrors.InternalError("create shift table cache", err)
	}
	s.tables = tables

	return s, nil
}

// SearchPathWithPosition returns every candidate file of pattern with the
// positions of its exact occurrences, sorted by path.
//
// A blank pattern is invalid input. A candidate that cannot be read, or that
// holds the word only with different casing, is returned with no positions.
func (s *BoyerMooreSearcher) SearchPathWithPosition(ctx context.Context, pattern string) ([]PathWithPosition, error) {
	start := time.Now()

	results, candidates, err := s.search(ctx, pattern)

	matched := 0
	for _, r := range results {
		if len(r.Positions) > 0 {
			matched++
		}
	}
	s.metrics.ObserveSearch(pattern, candidates, matched, time.Since(start), err)

	slog.Debug("positional search complete",
		slog.String("pattern", pattern),
		slog.Int("candidates", candidates),
		slog.Int("matched", matched),
		slog.Duration("duration", time.Since(start)))

	return results, err
}

func (s *BoyerMooreSearcher) search(ctx context.Context, pattern string) ([]PathWithPosition, int, error) {
	if strings.TrimSpace(pattern) == "" {
		return nil, 0, ierrors.New(ierrors.ErrCodeQueryEmpty, "search pattern must not be blank", nil)
	}

	candidates, err := s.files.SearchFiles(pattern)
	if err != nil {
		return nil, 0, err
	}
	paths := candidates.Sorted()
	table := s.table(pattern)

	results := make([]PathWithPosition, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)

	for i, path := range paths {
		g.Go(func() error {
			positions, err := scanFile(gctx, path, table)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				attrs := append([]any{slog.String("path", path)}, ierrors.LogAttrs(err)...)
				slog.Warn("failed to scan candidate file", attrs...)
				positions = []Position{}
			}
			results[i] = PathWithPosition{Path: path, Positions: positions}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, len(paths), err
	}
	return results, len(paths), nil
}

// table returns the cached shift table of pattern, building it on a miss.
func (s *BoyerMooreSearcher) table(pattern string) *shiftTable {
	if t, ok := s.tables.Get(pattern); ok {
		return t
	}
	t := newShiftTable(pattern)
	s.tables.Add(pattern, t)
	return t
}

// scanFile streams path and collects every occurrence in scan order.
func scanFile(ctx context.Context, path string, table *shiftTable) ([]Position, error) {
	positions := []Position{}
	err := textio.EachFileLine(ctx, path, func(index int, line string) bool {
		for _, col := range table.scan([]rune(line)) {
			positions = append(positions, Position{Line: index, Column: col})
		}
		return true
	})
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, ierrors.IOError(path, err)
	}
	return positions, nil
}
