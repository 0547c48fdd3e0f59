package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/vasilyryabtsev/link-redirect-service/internal/repository"
)

// Reconciler runs the two periodic jobs: the expiry sweep that archives
// links past their expiration, and the stats flush that folds buffered
// redirect counts from the cache back into the store.
type Reconciler struct {
	repo          LinkRepository
	cache         RedirectCache
	location      *time.Location
	sweepInterval time.Duration
	flushInterval time.Duration
	logger        *zap.Logger
}

func NewReconciler(repo LinkRepository, cache RedirectCache, location *time.Location, sweepInterval, flushInterval time.Duration, logger *zap.Logger) *Reconciler {
	return &Reconciler{
		repo:          repo,
		cache:         cache,
		location:      location,
		sweepInterval: sweepInterval,
		flushInterval: flushInterval,
		logger:        logger,
	}
}

// Run drives both jobs on independent timers until ctx is cancelled.
func (r *Reconciler) Run(ctx context.Context) {
	sweep := time.NewTicker(r.sweepInterval)
	defer sweep.Stop()

	flush := time.NewTicker(r.flushInterval)
	defer flush.Stop()

	r.logger.Info("Reconciler started",
		zap.Duration("sweep_interval", r.sweepInterval),
		zap.Duration("flush_interval", r.flushInterval))

	for {
		select {
		case <-sweep.C:
			if err := r.ExpirySweep(ctx); err != nil {
				r.logger.Error("Expiry sweep failed", zap.Error(err))
			}
		case <-flush.C:
			if err := r.FlushStats(ctx); err != nil {
				r.logger.Error("Stats flush failed", zap.Error(err))
			}
		case <-ctx.Done():
			r.logger.Info("Reconciler stopped")
			return
		}
	}
}

// ExpirySweep archives and removes every link whose expiration is in the
// past. A failure on one link is logged and that link is left for the next
// sweep; the rest of the batch continues.
func (r *Reconciler) ExpirySweep(ctx context.Context) error {
	now := time.Now().In(r.location)

	expired, err := r.repo.SelectExpired(ctx, now)
	if err != nil {
		return fmt.Errorf("select expired links: %w", err)
	}

	for i := range expired {
		link := &expired[i]

		if err := r.repo.ArchiveLink(ctx, link, now); err != nil {
			r.logger.Error("Failed to archive expired link",
				zap.String("code", link.Code),
				zap.Error(err))
			continue
		}

		if err := r.cache.Forget(ctx, link.Code); err != nil {
			r.logger.Warn("Failed to invalidate cache entry for expired link",
				zap.String("code", link.Code),
				zap.Error(err))
		}

		r.logger.Info("Expired link archived",
			zap.String("code", link.Code),
			zap.Int64("usage_count", link.UsageCount))
	}

	return nil
}

// FlushStats drains the pending-hit counter into the store. Counts for
// codes that no longer resolve to a link are dropped. The drain is not
// transactional across entries: a crash mid-flush can double-count or lose
// hits for entries not yet written back.
func (r *Reconciler) FlushStats(ctx context.Context) error {
	counts, err := r.cache.PendingCounts(ctx)
	if err != nil {
		return fmt.Errorf("read pending counts: %w", err)
	}
	if len(counts) == 0 {
		return nil
	}

	now := time.Now().In(r.location)

	for code, count := range counts {
		link, err := r.repo.GetLinkByCode(ctx, code)
		if err != nil {
			if errors.Is(err, repository.ErrLinkNotFound) {
				// The link was deleted or archived; its buffered hits
				// die with it.
				continue
			}
			r.logger.Error("Failed to look up link during stats flush",
				zap.String("code", code),
				zap.Error(err))
			continue
		}

		if err := r.repo.AddUsage(ctx, link.ID, count, now); err != nil {
			r.logger.Error("Failed to write back buffered hits",
				zap.String("code", code),
				zap.Int64("count", count),
				zap.Error(err))
		}
	}

	if err := r.cache.ClearPending(ctx); err != nil {
		return fmt.Errorf("clear pending counts: %w", err)
	}

	return nil
}
