// Package app wires configuration, storage, services and the HTTP API
// into a runnable server.
package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/zonecal/zonecal/internal/adapters/httpapi"
	"github.com/zonecal/zonecal/internal/adapters/memory"
	sqliteadapter "github.com/zonecal/zonecal/internal/adapters/sqlite"
	"github.com/zonecal/zonecal/internal/adapters/sqlite/gormsqlite"
	"github.com/zonecal/zonecal/internal/config"
	"github.com/zonecal/zonecal/internal/core/ports"
	"github.com/zonecal/zonecal/internal/core/usecase"
	"github.com/zonecal/zonecal/migrations"
)

type resourceCloser struct {
	closers []io.Closer
}

func (r resourceCloser) Close() error {
	var firstErr error
	for _, c := range r.closers {
		if c == nil {
			continue
		}
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// NewServer builds the HTTP server and everything behind it. An empty
// Storage.DBPath selects the in-memory store, which enforces the audit cap
// inline; a SQLite path additionally runs migrations and starts the
// background retention loop. The returned closer shuts the retention loop
// and the database down in that order.
func NewServer(ctx context.Context, cfg config.Config, logger *slog.Logger) (*http.Server, io.Closer, error) {
	var (
		profileRepo ports.ProfileRepository
		eventRepo   ports.EventRepository
		auditRepo   ports.AuditLogRepository
		closers     []io.Closer
	)

	if cfg.Storage.DBPath == "" {
		store := memory.NewStore(cfg.Audit.RetentionEntries)
		profileRepo = memory.NewProfileRepository(store)
		eventRepo = memory.NewEventRepository(store)
		auditRepo = memory.NewAuditRepository(store)
		logger.Info("storage ready", "backend", "memory")
	} else {
		db, err := gormsqlite.Open(cfg.Storage.DBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("open sqlite: %w", err)
		}

		writeSQLDB, err := db.WriteSQLDB()
		if err != nil {
			_ = db.Close()
			return nil, nil, fmt.Errorf("resolve writer sql db: %w", err)
		}

		migrateCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()
		if err := migrations.Up(migrateCtx, writeSQLDB); err != nil {
			_ = db.Close()
			return nil, nil, err
		}

		profileRepo = sqliteadapter.NewProfileRepository(db)
		eventRepo = sqliteadapter.NewEventRepository(db)
		auditRepo = sqliteadapter.NewAuditRepository(db)

		retention := usecase.NewAuditRetention(auditRepo, logger, cfg.Audit.RetentionEntries, cfg.Audit.PruneInterval)
		retention.Start(context.Background())
		closers = append(closers, retention, db)
		logger.Info("storage ready", "backend", "sqlite", "path", cfg.Storage.DBPath)
	}

	profiles := usecase.NewProfileService(profileRepo, auditRepo, logger, cfg.Scheduling.DefaultTimezone)
	events := usecase.NewEventService(eventRepo, profileRepo, auditRepo, logger)
	audit := usecase.NewAuditService(auditRepo)

	handler := httpapi.NewHandler(profiles, events, audit, logger)

	server := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	return server, resourceCloser{closers: closers}, nil
}
