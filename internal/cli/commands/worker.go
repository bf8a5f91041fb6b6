package commands

import (
	"fmt"
	"os"

	"github.com/dannyboland/loql/internal/cli/config"
	"github.com/dannyboland/loql/internal/session"
	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
)

// NewWorkerCommand creates the hidden command that hosts the database for
// --isolated sessions. It speaks JSON lines on stdin and stdout.
func NewWorkerCommand() *cobra.Command {
	var encoded string

	cmd := &cobra.Command{
		Use:    session.WorkerCommand,
		Short:  "Run a session worker (internal)",
		Hidden: true,
		Args:   cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := config.GetLogger(cmd.Context())
			out := cmd.OutOrStdout()

			var opts session.Options
			if err := json.Unmarshal([]byte(encoded), &opts); err != nil {
				err = fmt.Errorf("invalid worker options: %w", err)
				_ = session.ServeFatal(out, err)
				return err
			}

			sess, err := session.Open(cmd.Context(), opts, logger)
			if err != nil {
				_ = session.ServeFatal(out, err)
				return err
			}
			defer func() { _ = sess.Close() }()

			logger.Info("worker started", "pid", os.Getpid())
			return session.Serve(cmd.Context(), cmd.InOrStdin(), out, sess)
		},
	}

	cmd.Flags().StringVar(&encoded, "options", "{}", "Session options as JSON")
	return cmd
}
