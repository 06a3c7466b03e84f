package jobs

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"
)

// Requeuer is the sweep's entry point into the matching loop.
type Requeuer interface {
	RequeuePending(ctx context.Context) error
}

// RequeueSweepJob re-enters matching for orders stuck in pending and for
// offers whose deadline passed without a live timer. It is the safety net
// behind the in-process wakeups: after a crash or a dropped notification the
// next sweep picks the work back up.
type RequeueSweepJob struct {
	requeuer Requeuer
	schedule string
	cron     *cron.Cron
	logger   *slog.Logger
}

// NewRequeueSweepJob creates the sweep with a cron schedule in seconds
// resolution, e.g. "*/15 * * * * *" for every fifteen seconds.
func NewRequeueSweepJob(requeuer Requeuer, schedule string, logger *slog.Logger) *RequeueSweepJob {
	return &RequeueSweepJob{
		requeuer: requeuer,
		schedule: schedule,
		cron:     cron.New(cron.WithSeconds()),
		logger:   logger.With("component", "requeue_sweep_job"),
	}
}

// Start begins the periodic sweep.
func (j *RequeueSweepJob) Start() error {
	_, err := j.cron.AddFunc(j.schedule, func() {
		ctx := context.Background()
		if err := j.requeuer.RequeuePending(ctx); err != nil {
			j.logger.ErrorContext(ctx, "Requeue sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}

	j.cron.Start()
	j.logger.InfoContext(context.Background(), "Requeue sweep job started", "schedule", j.schedule)
	return nil
}

// Stop stops the sweep.
func (j *RequeueSweepJob) Stop() {
	j.cron.Stop()
	j.logger.InfoContext(context.Background(), "Requeue sweep job stopped")
}
