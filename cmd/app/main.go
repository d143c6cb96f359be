package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/zonecal/zonecal/internal/app"
	"github.com/zonecal/zonecal/internal/config"
)

func main() {
	cmd := &cli.Command{
		Name:  "zonecal",
		Usage: "Timezone-aware event scheduling API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "listen-addr",
				Sources: cli.EnvVars("ZONECAL_LISTEN_ADDR"),
				Usage:   "HTTP listen address",
			},
			&cli.StringFlag{
				Name:    "db-path",
				Sources: cli.EnvVars("ZONECAL_DB_PATH"),
				Usage:   "SQLite file path; empty keeps storage in memory",
			},
			&cli.StringFlag{
				Name:    "config",
				Sources: cli.EnvVars("ZONECAL_CONFIG"),
				Usage:   "Optional YAML config file path",
			},
			&cli.StringFlag{
				Name:    "log-level",
				Sources: cli.EnvVars("ZONECAL_LOG_LEVEL"),
				Usage:   "Log level: debug, info, warn, error",
			},
			&cli.StringFlag{
				Name:    "log-format",
				Sources: cli.EnvVars("ZONECAL_LOG_FORMAT"),
				Usage:   "Log format: json or text",
			},
			&cli.StringFlag{
				Name:    "default-timezone",
				Sources: cli.EnvVars("ZONECAL_DEFAULT_TIMEZONE"),
				Usage:   "IANA timezone assigned to new profiles",
			},
			&cli.IntFlag{
				Name:    "audit-retention",
				Sources: cli.EnvVars("ZONECAL_AUDIT_RETENTION"),
				Usage:   "Maximum audit log entries kept; 0 disables pruning",
			},
		},
		Action: run,
	}

	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, c *cli.Command) error {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	applyFlags(&cfg, c)
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := app.NewLogger(cfg.Log)

	server, closer, err := app.NewServer(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("create server: %w", err)
	}
	defer func() {
		if closeErr := closer.Close(); closeErr != nil {
			logger.Error("close resources", "err", closeErr)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Server.Addr)
		errCh <- server.ListenAndServe()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigCh)

	select {
	case <-ctx.Done():
		return shutdown(server, cfg, logger)
	case sig := <-sigCh:
		logger.Info("received signal", "signal", sig.String())
		return shutdown(server, cfg, logger)
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}

// applyFlags layers command-line flags (and their env fallbacks) on top of
// the file/env configuration. Only flags the caller actually set override.
func applyFlags(cfg *config.Config, c *cli.Command) {
	if c.IsSet("listen-addr") {
		cfg.Server.Addr = c.String("listen-addr")
	}
	if c.IsSet("db-path") {
		cfg.Storage.DBPath = c.String("db-path")
	}
	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("default-timezone") {
		cfg.Scheduling.DefaultTimezone = c.String("default-timezone")
	}
	if c.IsSet("audit-retention") {
		cfg.Audit.RetentionEntries = int(c.Int("audit-retention"))
	}
}

func shutdown(server *http.Server, cfg config.Config, logger *slog.Logger) error {
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	logger.Info("shutting down", "timeout", cfg.Server.ShutdownTimeout)
	return server.Shutdown(shutdownCtx)
}
