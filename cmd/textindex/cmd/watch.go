package cmd

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	ierrors "github.com/Aman-CERP/textindex/internal/errors"
	"github.com/Aman-CERP/textindex/internal/lock"
	"github.com/Aman-CERP/textindex/internal/output"
	"github.com/Aman-CERP/textindex/internal/telemetry"
	"github.com/Aman-CERP/textindex/internal/textio"
	"github.com/Aman-CERP/textindex/internal/watcher"
	"github.com/Aman-CERP/textindex/pkg/indexer"
	"github.com/Aman-CERP/textindex/pkg/searcher"
)

const metricsShutdownTimeout = 5 * time.Second

// watchOptions holds CLI flags for watch.
type watchOptions struct {
	metricsAddr string
	lockDir     string
	topPatterns int
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch [paths...]",
		Short: "Index paths, keep the index live and answer queries from stdin",
		Long: `Index the given paths, then watch them for changes and keep the index
up to date. Each line read from stdin is a pattern to locate; results are
printed as they are found.

Commands on stdin:
  :stats   print index and query statistics
  :quit    end the session

The session also ends at end of input or on interrupt. Only one watch
session may run per root at a time.`,
		Example: `  textindex watch docs/
  textindex watch . --metrics-addr 127.0.0.1:9464
  echo timeout | textindex watch logs/`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd, rootsOrCwd(args), opts)
		},
	}

	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (e.g. 127.0.0.1:9464)")
	cmd.Flags().StringVar(&opts.lockDir, "lock-dir", os.TempDir(), "Directory holding per-root session locks")
	cmd.Flags().IntVar(&opts.topPatterns, "top", 5, "Number of top patterns shown in query statistics")

	return cmd
}

func runWatch(cmd *cobra.Command, roots []string, opts watchOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	release, err := lockRoots(opts.lockDir, roots)
	if err != nil {
		return err
	}
	defer release()

	metrics := telemetry.New()
	if opts.metricsAddr != "" {
		addr, shutdown, err := serveMetrics(metrics, opts.metricsAddr)
		if err != nil {
			return err
		}
		defer shutdown()
		out.Statusf("📈", "Metrics: http://%s/metrics", addr)
	}

	x, err := newIndexer(cfg, metrics)
	if err != nil {
		return err
	}
	w, err := indexer.NewWatchingIndexer(x, watcher.Options{
		EventBufferSize: cfg.Watch.EventBufferSize,
		FollowSymlinks:  cfg.Index.FollowSymlinks,
	})
	if err != nil {
		return err
	}

	err = w.StartWatching(ctx, roots)
	defer func() {
		if err := w.StopWatching(); err != nil {
			slog.Warn("failed to stop watching", ierrors.LogAttrs(err)...)
		}
	}()
	switch {
	case err == nil:
	case ierrors.IsInvalidArgument(err), ierrors.GetCategory(err) == ierrors.CategoryWatch,
		errors.Is(err, context.Canceled):
		return err
	default:
		out.Warningf("%d files could not be indexed", countFailures(err))
	}

	s, err := newSearcher(cfg, w, metrics)
	if err != nil {
		return err
	}

	stats := w.Stats()
	out.Successf("Watching %d directories, %d files and %d words indexed",
		len(w.Watcher().Dirs()), stats.Files, stats.Words)
	out.Status("💡", "Type a pattern to search, :stats for statistics, :quit to exit")

	session := &querySession{
		out:      out,
		index:    w,
		searcher: s,
		metrics:  metrics,
		top:      opts.topPatterns,
	}
	return session.run(ctx, cmd, w.Watcher().Errors())
}

// querySession answers stdin queries against a live index.
type querySession struct {
	out      *output.Writer
	index    *indexer.WatchingIndexer
	searcher *searcher.BoyerMooreSearcher
	metrics  *telemetry.Metrics
	top      int
}

func (q *querySession) run(ctx context.Context, cmd *cobra.Command, watchErrs <-chan error) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		readErr <- textio.EachLine(ctx, cmd.InOrStdin(), func(_ int, line string) bool {
			select {
			case lines <- line:
				return true
			case <-ctx.Done():
				return false
			}
		})
		close(lines)
	}()

	for {
		select {
		case <-ctx.Done():
			q.out.Newline()
			q.printStats()
			return nil

		case err, ok := <-watchErrs:
			if !ok {
				watchErrs = nil
				continue
			}
			q.out.Warning(err.Error())

		case line, ok := <-lines:
			if !ok {
				q.printStats()
				err := <-readErr
				if err == nil || errors.Is(err, textio.ErrStopped) || ctx.Err() != nil {
					return nil
				}
				return fmt.Errorf("read queries: %w", err)
			}
			if q.handle(ctx, line) {
				q.printStats()
				return nil
			}
		}
	}
}

// handle answers one input line and reports whether the session should end.
func (q *querySession) handle(ctx context.Context, line string) bool {
	query := strings.TrimSpace(line)
	switch query {
	case "":
		return false
	case ":quit", ":q":
		return true
	case ":stats":
		q.printStats()
		return false
	}

	results, err := q.searcher.SearchPathWithPosition(ctx, query)
	if err != nil {
		q.out.Error(ierrors.FormatForCLI(err))
		return false
	}
	if len(results) == 0 {
		q.out.Statusf("", "No files contain %q", query)
		return false
	}
	q.out.Matches(results)
	return false
}

func (q *querySession) printStats() {
	stats := q.index.Stats()
	snap := q.metrics.Queries().Snapshot(q.top)

	q.out.Header("Index")
	q.out.KeyValue("Words", stats.Words)
	q.out.KeyValue("Files", stats.Files)
	q.out.Header("Queries")
	q.out.KeyValue("Total", snap.Total)
	q.out.KeyValue("Empty results", snap.EmptyResults)
	for _, p := range snap.TopPatterns {
		q.out.KeyValue(p.Pattern, p.Count)
	}
}

// lockRoots takes the session lock of every root. It fails if any root is
// already watched by another process.
func lockRoots(dir string, roots []string) (func(), error) {
	var held []*lock.FileLock
	release := func() {
		for _, l := range held {
			if err := l.Unlock(); err != nil {
				slog.Warn("failed to release lock", slog.String("path", l.Path()), slog.String("error", err.Error()))
			}
		}
	}

	for _, root := range roots {
		l, err := lock.ForRoot(dir, root)
		if err != nil {
			release()
			return nil, err
		}
		ok, err := l.TryLock()
		if err != nil {
			release()
			return nil, err
		}
		if !ok {
			release()
			return nil, ierrors.WatchError(ierrors.ErrCodeWatchRunning,
				"another watch session is running for "+root, nil).WithDetail("lock", l.Path())
		}
		held = append(held, l)
	}
	return release, nil
}

// serveMetrics serves the Prometheus registry on addr and returns the bound
// address and a shutdown function.
func serveMetrics(m *telemetry.Metrics, addr string) (string, func(), error) {
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, fmt.Errorf("listen on %s: %w", addr, err)
	}

	mux := http.NewServeMux()
	mux.Handle("GET /metrics", m.Handler())

	server := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("metrics server error", slog.String("error", err.Error()))
		}
	}()
	slog.Info("metrics listening", slog.String("addr", ln.Addr().String()))

	shutdown := func() {
		ctx, cancel := context.WithTimeout(context.Background(), metricsShutdownTimeout)
		defer cancel()
		if err := server.Shutdown(ctx); err != nil {
			slog.Error("metrics server shutdown error", slog.String("error", err.Error()))
		}
	}
	return ln.Addr().String(), shutdown, nil
}
