package cmd

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/textindex/internal/logging"
)

// logsOptions holds CLI flags for logs.
type logsOptions struct {
	lines      int
	level      string
	file       string
	jsonOutput bool
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log entries",
		Long: `Show the last entries of the textindex log file.

The log file is written when a command runs with --debug.`,
		Example: `  textindex logs
  textindex logs -n 100 --level warn`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of entries to show")
	cmd.Flags().StringVar(&opts.level, "level", "debug", "Minimum level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.file, "file", "", "Path to log file")
	cmd.Flags().BoolVar(&opts.jsonOutput, "json", false, "Print raw JSON lines")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	if !logging.ValidLevel(opts.level) {
		return fmt.Errorf("invalid level %q: must be debug, info, warn or error", opts.level)
	}

	path, err := logging.FindLogFile(opts.file)
	if err != nil {
		return err
	}

	entries, err := logging.Tail(path, opts.lines, opts.level)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	for _, e := range entries {
		if opts.jsonOutput || !e.IsValid {
			_, _ = fmt.Fprintln(w, e.Raw)
			continue
		}
		_, _ = fmt.Fprintln(w, formatEntry(e))
	}
	return nil
}

// formatEntry renders an entry as "time LEVEL msg key=value ...".
func formatEntry(e logging.LogEntry) string {
	var sb strings.Builder
	if !e.Time.IsZero() {
		sb.WriteString(e.Time.Format("2006-01-02 15:04:05.000"))
		sb.WriteByte(' ')
	}
	sb.WriteString(fmt.Sprintf("%-5s %s", e.Level, e.Msg))

	keys := make([]string, 0, len(e.Attrs))
	for k := range e.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		v, err := json.Marshal(e.Attrs[k])
		if err != nil {
			continue
		}
		sb.WriteString(fmt.Sprintf(" %s=%s", k, v))
	}
	return sb.String()
}
