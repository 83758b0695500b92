package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/textindex/internal/output"
	"github.com/Aman-CERP/textindex/internal/telemetry"
)

func newFindCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "find <pattern> [paths...]",
		Short: "Locate a pattern inside indexed files",
		Long: `Index the given paths, then report every line and column where the
pattern occurs. Only files whose index contains the pattern as a word are
scanned; the scan itself is exact and case-sensitive.

Lines and columns are numbered from 0; columns count characters.`,
		Example: `  textindex find Error
  textindex find "timeout" logs/ --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFind(cmd, args[0], rootsOrCwd(args[1:]), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runFind(cmd *cobra.Command, pattern string, roots []string, jsonOutput bool) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	metrics := telemetry.New()
	x, _, err := buildIndex(cmd.Context(), cfg, roots, metrics, output.New(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	s, err := newSearcher(cfg, x, metrics)
	if err != nil {
		return err
	}

	results, err := s.SearchPathWithPosition(cmd.Context(), pattern)
	if err != nil {
		return err
	}

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}

	if len(results) == 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No files contain %q\n", pattern)
		return nil
	}
	out.Matches(results)
	return nil
}
