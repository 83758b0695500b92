package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/textindex/internal/config"
	ierrors "github.com/Aman-CERP/textindex/internal/errors"
	"github.com/Aman-CERP/textindex/internal/output"
	"github.com/Aman-CERP/textindex/internal/profiling"
	"github.com/Aman-CERP/textindex/internal/telemetry"
	"github.com/Aman-CERP/textindex/pkg/indexer"
)

func newIndexCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "index [paths...]",
		Short: "Index files and print index statistics",
		Long: `Index the given files and directories and print how many words and
files the index holds. Directories are indexed recursively; paths that do
not exist are skipped.

The index is not persisted. This command is useful to check what a path set
resolves to and how long indexing takes.`,
		Example: `  textindex index
  textindex index docs/ notes.txt
  textindex index --token "[,;\s]+" data/
  textindex index . --json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runIndex(cmd, rootsOrCwd(args), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output statistics as JSON")

	return cmd
}

// indexSummary is the JSON output of the index command.
type indexSummary struct {
	Roots     []string           `json:"roots"`
	Stats     indexer.IndexStats `json:"stats"`
	Failures  int                `json:"failures"`
	Duration  string             `json:"duration"`
	HeapBytes uint64             `json:"heap_bytes"`
}

func runIndex(cmd *cobra.Command, roots []string, jsonOutput bool) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	start := time.Now()
	x, failures, err := buildIndex(cmd.Context(), cfg, roots, telemetry.New(), out)
	if err != nil {
		return err
	}
	elapsed := time.Since(start).Round(time.Millisecond)

	stats := x.Stats()
	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(indexSummary{
			Roots:     roots,
			Stats:     stats,
			Failures:  failures,
			Duration:  elapsed.String(),
			HeapBytes: profiling.HeapInUse(),
		})
	}

	out.Successf("Indexed %d files in %s", stats.Files, elapsed)
	out.KeyValue("Words", stats.Words)
	out.KeyValue("Files", stats.Files)
	out.KeyValue("Token", x.Token().Pattern())
	out.KeyValue("Heap in use", profiling.FormatBytes(profiling.HeapInUse()))
	if failures > 0 {
		out.KeyValue("Failures", failures)
	}
	return nil
}

// buildIndex creates an indexer from cfg and indexes roots. Per-file failures
// are reported as warnings on out and counted; invalid input and
// cancellation are returned as errors.
func buildIndex(ctx context.Context, cfg *config.Config, roots []string, metrics *telemetry.Metrics, out *output.Writer) (*indexer.TextFileIndexer, int, error) {
	x, err := newIndexer(cfg, metrics)
	if err != nil {
		return nil, 0, err
	}

	err = x.IndexFiles(ctx, roots)
	failures := countFailures(err)
	switch {
	case err == nil:
	case ierrors.IsInvalidArgument(err), errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return nil, 0, err
	default:
		slog.Debug("index completed with failures", slog.Int("failures", failures))
		if out != nil {
			out.Warningf("%d files could not be indexed", failures)
		}
	}
	return x, failures, nil
}

// countFailures counts the per-file errors joined into err.
func countFailures(err error) int {
	if err == nil {
		return 0
	}
	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		return len(joined.Unwrap())
	}
	return 1
}
