// Package cmd provides the CLI commands for textindex.
package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/Aman-CERP/textindex/internal/config"
	"github.com/Aman-CERP/textindex/internal/logging"
	"github.com/Aman-CERP/textindex/internal/profiling"
	"github.com/Aman-CERP/textindex/internal/telemetry"
	"github.com/Aman-CERP/textindex/pkg/indexer"
	"github.com/Aman-CERP/textindex/pkg/searcher"
	"github.com/Aman-CERP/textindex/pkg/version"
)

// Global flags
var (
	debugMode      bool
	configFile     string
	tokenPattern   string
	loggingCleanup func()
)

// Profiling flags
var (
	profileOpts profiling.Options
	profiler    *profiling.Session
)

// NewRootCmd creates the root command for the textindex CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "textindex",
		Short: "Word index and positional search over text files",
		Long: `textindex builds an in-memory inverted index of the words in text files
and answers two kinds of queries: which files contain a word, and where
exactly a pattern occurs inside those files.

The index lives only as long as the process. Use 'textindex watch' to keep
an index in sync with the filesystem and query it interactively.`,
		Version:       version.Short(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("textindex version {{.Version}}\n")

	cmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "Enable debug logging to ~/.textindex/logs/")
	cmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (default: user and project config)")
	cmd.PersistentFlags().StringVar(&tokenPattern, "token", "", "Word delimiter pattern (overrides index.token)")

	cmd.PersistentFlags().StringVar(&profileOpts.CPU, "profile-cpu", "", "Write CPU profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Heap, "profile-mem", "", "Write memory profile to file")
	cmd.PersistentFlags().StringVar(&profileOpts.Trace, "profile-trace", "", "Write execution trace to file")

	cmd.PersistentPreRunE = startProfilingAndLogging
	cmd.PersistentPostRunE = stopProfilingAndLogging

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newSearchCmd())
	cmd.AddCommand(newFindCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newConfigCmd())
	cmd.AddCommand(newLogsCmd())
	cmd.AddCommand(newVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() error {
	return NewRootCmd().Execute()
}

// startProfilingAndLogging installs the default logger and starts any
// requested profiles. With --debug logs go to the rotating file and stderr at
// debug level, otherwise to stderr at the configured level.
func startProfilingAndLogging(_ *cobra.Command, _ []string) error {
	level := "warn"
	maxSize, maxFiles := 0, 0
	if cfg, err := loadConfig(); err == nil {
		level = cfg.Logging.Level
		maxSize, maxFiles = cfg.Logging.MaxSizeMB, cfg.Logging.MaxFiles
	}

	logCfg := logging.Config{Level: level}
	if debugMode {
		logCfg = logging.DebugConfig()
		logCfg.MaxSizeMB = maxSize
		logCfg.MaxFiles = maxFiles
	}

	cleanup, err := logging.SetupDefault(logCfg)
	if err != nil {
		return fmt.Errorf("failed to setup logging: %w", err)
	}
	loggingCleanup = cleanup

	if debugMode {
		slog.Debug("debug logging enabled",
			slog.String("log_file", logCfg.FilePath),
			slog.String("version", version.Short()))
	}

	if profileOpts.Enabled() {
		profiler, err = profiling.Start(profileOpts)
		if err != nil {
			return err
		}
	}
	return nil
}

// stopProfilingAndLogging writes pending profiles and closes the log file.
func stopProfilingAndLogging(_ *cobra.Command, _ []string) error {
	err := profiler.Stop()
	profiler = nil

	if loggingCleanup != nil {
		loggingCleanup()
		loggingCleanup = nil
	}
	return err
}

// loadConfig loads the configuration for the current directory, or from
// --config when given, and applies --token.
func loadConfig() (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if configFile != "" {
		cfg, err = config.LoadFile(configFile)
	} else {
		dir, wdErr := os.Getwd()
		if wdErr != nil {
			dir = "."
		}
		cfg, err = config.Load(dir)
	}
	if err != nil {
		return nil, err
	}

	if tokenPattern != "" {
		cfg.Index.Token = tokenPattern
	}
	return cfg, nil
}

// newIndexer builds a TextFileIndexer from cfg.
func newIndexer(cfg *config.Config, metrics *telemetry.Metrics) (*indexer.TextFileIndexer, error) {
	token, err := indexer.NewToken(cfg.Index.Token)
	if err != nil {
		return nil, err
	}
	return indexer.NewTextFileIndexer(
		indexer.WithToken(token),
		indexer.WithWorkers(cfg.Index.Workers),
		indexer.WithFollowSymlinks(cfg.Index.FollowSymlinks),
		indexer.WithMetrics(metrics),
	), nil
}

// newSearcher builds a BoyerMooreSearcher over files from cfg.
func newSearcher(cfg *config.Config, files searcher.FileSearcher, metrics *telemetry.Metrics) (*searcher.BoyerMooreSearcher, error) {
	return searcher.NewBoyerMooreSearcher(files,
		searcher.WithWorkers(cfg.Search.Workers),
		searcher.WithTableCacheSize(cfg.Search.TableCacheSize),
		searcher.WithMetrics(metrics),
	)
}

// rootsOrCwd returns args, or the current directory when args is empty.
func rootsOrCwd(args []string) []string {
	if len(args) == 0 {
		return []string{"."}
	}
	return args
}
