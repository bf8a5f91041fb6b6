package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/dannyboland/loql/internal/objstore"
	"github.com/dannyboland/loql/internal/session"
)

// ExecuteOptions holds options for headless execution.
type ExecuteOptions struct {
	Path   string
	SQL    string
	Format string
	Save   bool
}

// RunExecute loads opts.Path when it names a file, runs opts.SQL and renders
// the outcome to w. Load and query failures are returned as errors.
func RunExecute(ctx context.Context, w io.Writer, ctrl session.Controller, opts ExecuteOptions) error {
	if IsLoadable(opts.Path) {
		resp, err := ctrl.Do(ctx, session.OpenRequest{Path: opts.Path})
		if err != nil {
			return err
		}
		if resp.Outcome.IsError() {
			return &OutcomeError{Outcome: resp.Outcome}
		}
	}

	resp, err := ctrl.Do(ctx, session.QueryRequest{Text: opts.SQL, Save: opts.Save})
	if err != nil {
		return err
	}
	if resp.Cancelled {
		return fmt.Errorf("query cancelled")
	}
	return RenderOutcome(w, resp.Outcome, opts.Format)
}

// IsLoadable reports whether path should be opened as a file at startup
// rather than used as a browse root.
func IsLoadable(path string) bool {
	if path == "" {
		return false
	}
	if objstore.IsRemote(path) {
		return path[len(path)-1] != '/'
	}
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
