// Package cli provides the command-line interface for loql.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/dannyboland/loql/internal/browse"
	"github.com/dannyboland/loql/internal/cli/commands"
	"github.com/dannyboland/loql/internal/cli/config"
	"github.com/dannyboland/loql/internal/objstore"
	"github.com/dannyboland/loql/internal/tui"
	"github.com/spf13/cobra"
	"golang.org/x/term"
)

var cfgFile string

// Version information (set at build time).
var (
	Version   = "0.1.0"
	BuildDate = "unknown"
	GitCommit = "unknown"
)

// logCloser holds the log file opened by the root command, if any.
var logCloser io.Closer

// NewRootCmd creates and returns the root command.
func NewRootCmd() *cobra.Command {
	exec := &commands.ExecuteOptions{}

	rootCmd := &cobra.Command{
		Use:   "loql [path]",
		Short: "loql - query local data files with SQL",
		Long: `loql is a terminal client for exploring CSV, Parquet, JSON and Excel files
with SQL. Files are loaded into an in-memory DuckDB session as views.

path may be a file to load at startup, or a directory or s3:// prefix
to start browsing from.`,
		Version: Version,
		Args:    cobra.MaximumNArgs(1),
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// Skip config loading for help and completion commands
			if cmd.Name() == "help" || cmd.Name() == "completion" || cmd.Name() == "__complete" {
				return nil
			}

			cfg, err := config.LoadConfig(cfgFile, cmd.Flags())
			if err != nil {
				return err
			}

			logger, closer, err := newLogger(cfg.Log)
			if err != nil {
				return err
			}
			logCloser = closer
			logger.Debug("configuration loaded", "file", config.GetConfigFileUsed(), "command", cmd.Name())

			cmd.SetContext(config.WithLogger(cmd.Context(), logger))
			return nil
		},
		PersistentPostRun: func(_ *cobra.Command, _ []string) {
			closeLog()
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				exec.Path = args[0]
				if err := checkPath(exec.Path); err != nil {
					_ = cmd.Usage()
					return err
				}
			}
			if exec.SQL != "" {
				return runHeadless(cmd, exec)
			}
			return runInteractive(cmd, exec.Path)
		},
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Set version template
	rootCmd.SetVersionTemplate(`{{.Name}} {{.Version}}
Built with Go and DuckDB
`)

	// Global persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default: ./loql.yaml)")
	flags.Bool("clipboard", false, "Load the clipboard contents as a view named clipboard")
	flags.Int("max-rows", config.DefaultMaxRows, "Maximum number of rows to display")
	flags.Bool("row-lines", false, "Draw lines between result rows")
	flags.String("log", "", "Write debug logs to this file")
	flags.Bool("isolated", false, "Run the database in a separate worker process")
	flags.String("results-file", config.DefaultResultsFile, "File written when saving results")
	flags.String("theme", config.DefaultTheme, "Colour theme (auto|dark|light)")

	rootCmd.Flags().StringVarP(&exec.SQL, "execute", "e", "", "Run one statement, print the result and exit")
	rootCmd.Flags().StringVarP(&exec.Format, "format", "f", commands.FormatTable, "Output format for --execute (table|csv|json|md)")
	rootCmd.Flags().BoolVar(&exec.Save, "save", false, "With --execute, write all rows to the results file")

	_ = rootCmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return commands.Formats, cobra.ShellCompDirectiveNoFileComp
	})
	_ = rootCmd.RegisterFlagCompletionFunc("theme", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return []string{config.ThemeAuto, config.ThemeDark, config.ThemeLight}, cobra.ShellCompDirectiveNoFileComp
	})

	// Add subcommands
	rootCmd.AddCommand(commands.NewVersionCommand(Version))
	rootCmd.AddCommand(commands.NewReplCommand())
	rootCmd.AddCommand(commands.NewConfigCommand())
	rootCmd.AddCommand(commands.NewWorkerCommand())
	rootCmd.AddCommand(NewCompletionCommand())

	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	rootCmd := NewRootCmd()
	defer closeLog()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return err
	}
	return nil
}

// newLogger opens path for appending and returns a text logger writing to
// it. An empty path discards all output.
func newLogger(path string) (*slog.Logger, io.Closer, error) {
	if path == "" {
		return slog.New(slog.DiscardHandler), nil, nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600) //nolint:gosec // path is chosen by the user
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open log file: %w", err)
	}
	logger := slog.New(slog.NewTextHandler(f, &slog.HandlerOptions{Level: slog.LevelDebug}))
	return logger.With("pid", os.Getpid()), f, nil
}

func closeLog() {
	if logCloser != nil {
		_ = logCloser.Close()
		logCloser = nil
	}
}

// checkPath rejects local paths that do not exist. Remote paths are checked
// when they are used.
func checkPath(path string) error {
	if objstore.IsRemote(path) {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("path does not exist: %s", path)
		}
		return err
	}
	return nil
}

func runHeadless(cmd *cobra.Command, opts *commands.ExecuteOptions) error {
	cmdCtx, cleanup, err := commands.NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()
	return commands.RunExecute(cmd.Context(), cmd.OutOrStdout(), cmdCtx.Controller, *opts)
}

func runInteractive(cmd *cobra.Command, path string) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) { //nolint:gosec // fd fits in int
		return errors.New("loql needs a terminal; use --execute or the repl command when piping")
	}

	cmdCtx, cleanup, err := commands.NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	root, err := browse.Root(path)
	if err != nil {
		return err
	}

	browserOpts := []browse.Option{}
	if objstore.Available() {
		store, err := objstore.New(cmd.Context(), cmdCtx.Cfg.SessionOptions().ObjectStore, cmdCtx.Logger)
		if err != nil {
			cmdCtx.Logger.Warn("object storage browsing unavailable", "error", err)
		} else {
			browserOpts = append(browserOpts, browse.WithStore(store))
		}
	}

	startup := ""
	if path != "" && commands.IsLoadable(path) {
		startup = path
	}

	return tui.Run(cmd.Context(), tui.Options{
		Controller: cmdCtx.Controller,
		Browser:    browse.New(browserOpts...),
		Root:       root,
		Open:       startup,
		RowLines:   cmdCtx.Cfg.RowLines,
		Theme:      cmdCtx.Cfg.Theme,
		Clipboard:  cmdCtx.Cfg.Clipboard,
		Logger:     cmdCtx.Logger,
	})
}
