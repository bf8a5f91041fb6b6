package commands

import (
	"context"
	"log/slog"

	"github.com/dannyboland/loql/internal/cli/config"
	"github.com/dannyboland/loql/internal/session"
	"github.com/spf13/cobra"
)

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg        *config.Config
	Logger     *slog.Logger
	Controller session.Controller
}

// NewCommandContext creates a CommandContext with a running session.
// Returns the context and a cleanup function that must be called (typically via defer).
func NewCommandContext(cmd *cobra.Command) (*CommandContext, func(), error) {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	ctrl, err := OpenController(cmd.Context(), cfg, logger)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {
		if err := ctrl.Close(); err != nil {
			logger.Warn("failed to close session", "error", err)
		}
	}

	return &CommandContext{
		Cfg:        cfg,
		Logger:     logger,
		Controller: ctrl,
	}, cleanup, nil
}

// OpenController starts the session described by cfg: in-process by
// default, or in a child worker process when cfg.Isolated is set.
func OpenController(ctx context.Context, cfg *config.Config, logger *slog.Logger) (session.Controller, error) {
	opts := cfg.SessionOptions()
	if !cfg.Isolated {
		return session.Open(ctx, opts, logger)
	}

	var extra []string
	if cfg.Log != "" {
		extra = append(extra, "--log", cfg.Log)
	}
	logger.Debug("starting isolated worker")
	return session.StartRemote(ctx, opts, extra, logger)
}

// getConfig returns the current configuration, or the defaults when no
// configuration has been loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Default()
}
