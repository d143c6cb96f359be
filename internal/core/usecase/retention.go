package usecase

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zonecal/zonecal/internal/core/ports"
)

// AuditRetention trims the audit log in the background so it holds at most
// keep entries, oldest removed first. A keep of zero disables pruning.
type AuditRetention struct {
	repo     ports.AuditLogRepository
	logger   *slog.Logger
	keep     int
	interval time.Duration

	mu     sync.Mutex
	cancel context.CancelFunc
	wg     sync.WaitGroup

	prunedTotal atomic.Int64
}

func NewAuditRetention(repo ports.AuditLogRepository, logger *slog.Logger, keep int, interval time.Duration) *AuditRetention {
	if interval <= 0 {
		interval = time.Minute
	}
	if keep < 0 {
		keep = 0
	}
	return &AuditRetention{repo: repo, logger: logger, keep: keep, interval: interval}
}

func (r *AuditRetention) Start(ctx context.Context) {
	if r.keep <= 0 {
		return
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.wg.Add(1)
	go r.loop(ctx)
}

func (r *AuditRetention) Close() error {
	r.mu.Lock()
	cancel := r.cancel
	r.cancel = nil
	r.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	r.wg.Wait()
	r.logger.Info("audit retention stopped", "pruned_total", r.PrunedTotal())
	return nil
}

func (r *AuditRetention) loop(ctx context.Context) {
	defer r.wg.Done()

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		r.pruneOnce(ctx)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (r *AuditRetention) pruneOnce(ctx context.Context) {
	removed, err := r.repo.Prune(ctx, r.keep)
	if err != nil {
		if ctx.Err() != nil {
			return
		}
		r.logger.Warn("prune audit log", "err", err)
		return
	}
	if removed > 0 {
		r.prunedTotal.Add(int64(removed))
		r.logger.Info("pruned audit log", "removed", removed, "keep", r.keep)
	}
}

// PrunedTotal reports how many entries the retention loop has removed since
// it started.
func (r *AuditRetention) PrunedTotal() int64 {
	return r.prunedTotal.Load()
}
