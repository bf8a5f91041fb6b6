package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/chzyer/readline"
	"github.com/dannyboland/loql/internal/catalog"
	"github.com/dannyboland/loql/internal/session"
	"github.com/dannyboland/loql/internal/sqltext"
	"github.com/spf13/cobra"
)

const (
	replPrompt     = "loql> "
	replContinue   = " ...> "
	replHelpString = `
Commands:
  .open <path>    Load a file as a view
  .tables         List views and tables
  .schema <name>  Show the columns of a view
  .save <sql>     Run a query and write every row to the results file
  .help           Show this help message
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Tab completion works for view names after .schema
`
)

// ReplOptions holds options for the repl command.
type ReplOptions struct {
	Format string
}

// NewReplCommand creates the repl command.
func NewReplCommand() *cobra.Command {
	opts := &ReplOptions{}

	cmd := &cobra.Command{
		Use:   "repl [path]",
		Short: "Start a line-oriented SQL shell",
		Long: `Start an interactive SQL shell on a fresh in-memory session.

The optional path is loaded as a view before the prompt appears.
History is kept in memory only.`,
		Example: `  loql repl sales.parquet
  loql repl --format md`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			r := newREPL(cmdCtx.Controller, cmd.OutOrStdout(), cmd.ErrOrStderr(), opts.Format)
			if len(args) > 0 {
				r.open(cmd.Context(), args[0])
			}
			return r.run(cmd.Context())
		},
	}

	cmd.Flags().StringVarP(&opts.Format, "format", "f", FormatTable, "Output format: table, json, csv, md")
	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return Formats, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

// repl is the state of one shell.
type repl struct {
	ctrl   session.Controller
	out    io.Writer
	errOut io.Writer
	format string

	buf strings.Builder

	mu    sync.Mutex
	views catalog.Snapshot
}

func newREPL(ctrl session.Controller, out, errOut io.Writer, format string) *repl {
	return &repl{ctrl: ctrl, out: out, errOut: errOut, format: format}
}

func (r *repl) run(ctx context.Context) error {
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          replPrompt,
		AutoComplete:    r.completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdout:          r.out,
		Stderr:          r.errOut,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	_, _ = fmt.Fprintln(r.out, "loql SQL shell. Type .help for commands, .quit to exit")
	_, _ = fmt.Fprintln(r.out)

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			r.buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		if quit := r.handleLine(ctx, line); quit {
			return nil
		}
		rl.SetPrompt(r.prompt())
	}
}

// prompt is the prompt for the next line.
func (r *repl) prompt() string {
	if r.buf.Len() > 0 {
		return replContinue
	}
	return replPrompt
}

// handleLine processes one input line and reports whether the shell should exit.
func (r *repl) handleLine(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if r.buf.Len() == 0 && strings.HasPrefix(line, ".") {
		return r.dotCommand(ctx, line)
	}

	// Accumulate multi-line SQL until a terminating semicolon
	r.buf.WriteString(line)
	r.buf.WriteString("\n")
	if !sqltext.Complete(r.buf.String()) {
		return false
	}

	text := r.buf.String()
	r.buf.Reset()
	for _, stmt := range sqltext.Split(text) {
		r.query(ctx, stmt, false)
	}
	return false
}

func (r *repl) dotCommand(ctx context.Context, line string) bool {
	command, rest, _ := strings.Cut(line, " ")
	rest = strings.TrimSpace(rest)

	switch strings.ToLower(command) {
	case ".quit", ".exit":
		return true
	case ".help":
		_, _ = fmt.Fprint(r.out, replHelpString+"\n")
	case ".open":
		if rest == "" {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .open <path>")
			return false
		}
		r.open(ctx, rest)
	case ".tables":
		resp, ok := r.do(ctx, session.CatalogRequest{})
		if ok {
			renderCatalog(r.out, resp.Catalog)
		}
	case ".schema":
		if rest == "" {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .schema <name>")
			return false
		}
		resp, ok := r.do(ctx, session.DescribeRequest{View: rest})
		if ok {
			renderColumns(r.out, resp.ViewName, resp.Columns)
		}
	case ".save":
		if rest == "" {
			_, _ = fmt.Fprintln(r.errOut, "Usage: .save <sql>")
			return false
		}
		r.query(ctx, strings.TrimSuffix(rest, ";"), true)
	default:
		_, _ = fmt.Fprintf(r.errOut, "Unknown command: %s (type .help for commands)\n", command)
	}
	return false
}

func (r *repl) open(ctx context.Context, path string) {
	resp, ok := r.do(ctx, session.OpenRequest{Path: path})
	if ok {
		_, _ = fmt.Fprintf(r.out, "Loaded %s as %s\n", path, resp.ViewName)
	}
}

func (r *repl) query(ctx context.Context, text string, save bool) {
	resp, ok := r.do(ctx, session.QueryRequest{Text: text, Save: save})
	if !ok {
		return
	}
	if err := RenderOutcome(r.out, resp.Outcome, r.format); err != nil {
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
	}
	_, _ = fmt.Fprintln(r.out)
}

// do runs req, records the catalog and prints errors. It reports whether
// the request succeeded.
func (r *repl) do(ctx context.Context, req session.Request) (session.Response, bool) {
	resp, err := r.ctrl.Do(ctx, req)
	if err != nil {
		_, _ = fmt.Fprintf(r.errOut, "Error: %v\n", err)
		return resp, false
	}
	if resp.Cancelled {
		_, _ = fmt.Fprintln(r.errOut, "Cancelled")
		return resp, false
	}

	r.mu.Lock()
	r.views = resp.Catalog
	r.mu.Unlock()

	if resp.Outcome.IsError() {
		_, _ = fmt.Fprintf(r.errOut, "Error: %s\n", resp.Outcome.Message)
		return resp, false
	}
	return resp, true
}

func (r *repl) viewNames(string) []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.views.Names()
}

// completer completes dot-commands and view names.
func (r *repl) completer() *readline.PrefixCompleter {
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".open"),
		readline.PcItem(".tables"),
		readline.PcItem(".schema", readline.PcItemDynamic(r.viewNames)),
		readline.PcItem(".save"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}
