package jobs

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"dispatch/internal/core/ports"
)

// PresenceSweepJob evicts drivers whose presence went stale from the geo
// index. The durable store keeps the record (it is the audit trail of the
// driver's last known state); only the dispatch index forgets them.
type PresenceSweepJob struct {
	uowFactory ports.UnitOfWorkFactory
	geoIndex   ports.GeoIndex
	freshness  time.Duration
	schedule   string
	cron       *cron.Cron
	logger     *slog.Logger
}

// NewPresenceSweepJob creates the sweep. freshness mirrors the candidate
// selection cutoff so the index and the matching loop agree on staleness.
func NewPresenceSweepJob(
	uowFactory ports.UnitOfWorkFactory,
	geoIndex ports.GeoIndex,
	freshness time.Duration,
	schedule string,
	logger *slog.Logger,
) *PresenceSweepJob {
	return &PresenceSweepJob{
		uowFactory: uowFactory,
		geoIndex:   geoIndex,
		freshness:  freshness,
		schedule:   schedule,
		cron:       cron.New(cron.WithSeconds()),
		logger:     logger.With("component", "presence_sweep_job"),
	}
}

// Start begins the periodic sweep.
func (j *PresenceSweepJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()
		if err := j.sweep(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Presence sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Presence sweep job started", "schedule", j.schedule)
	return nil
}

// Stop stops the sweep.
func (j *PresenceSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Presence sweep job stopped")
}

func (j *PresenceSweepJob) sweep(ctx context.Context) error {
	uow := j.uowFactory.Create()
	if err := uow.Begin(ctx); err != nil {
		return err
	}

	defer func() {
		_ = uow.Rollback(ctx)
	}()

	cutoff := time.Now().UTC().Add(-j.freshness)

	stale, err := uow.PresenceRepository().GetAllStale(ctx, cutoff)
	if err != nil {
		return err
	}

	if err = uow.Commit(ctx); err != nil {
		return err
	}

	for _, presence := range stale {
		if err = j.geoIndex.Remove(ctx, presence.DriverID()); err != nil {
			j.logger.WarnContext(ctx, "failed to evict stale driver from geo index",
				"driver_id", presence.DriverID().String(),
				"error", err)
		}
	}

	if len(stale) > 0 {
		j.logger.InfoContext(ctx, "evicted stale drivers from geo index", "count", len(stale))
	}

	return nil
}
