package cmd

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/textindex/internal/output"
	"github.com/Aman-CERP/textindex/internal/telemetry"
)

func newSearchCmd() *cobra.Command {
	var jsonOutput bool

	cmd := &cobra.Command{
		Use:   "search <word> [paths...]",
		Short: "List the files that contain a word",
		Long: `Index the given paths and list every file that contains the word.

Matching is on whole words as produced by the delimiter pattern, ignoring
case. Use 'textindex find' to locate a pattern inside files.`,
		Example: `  textindex search error
  textindex search timeout logs/ --json`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSearch(cmd, args[0], rootsOrCwd(args[1:]), jsonOutput)
		},
	}

	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output as JSON")

	return cmd
}

func runSearch(cmd *cobra.Command, word string, roots []string, jsonOutput bool) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	// Warnings go to stderr so stdout stays a clean path list.
	x, _, err := buildIndex(cmd.Context(), cfg, roots, telemetry.New(), output.New(cmd.ErrOrStderr()))
	if err != nil {
		return err
	}

	files, err := x.SearchFiles(word)
	if err != nil {
		return err
	}
	paths := files.Sorted()
	slog.Debug("search complete", slog.String("word", word), slog.Int("files", len(paths)))

	if jsonOutput {
		enc := json.NewEncoder(cmd.OutOrStdout())
		enc.SetIndent("", "  ")
		return enc.Encode(paths)
	}

	if len(paths) == 0 {
		_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "No files contain %q\n", word)
		return nil
	}
	out.Paths(paths)
	return nil
}
