package jobs

import (
	"fmt"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	requeueSweepJob  *RequeueSweepJob
	presenceSweepJob *PresenceSweepJob
}

// NewJobManager creates a new job manager with all required jobs.
func NewJobManager(requeueSweepJob *RequeueSweepJob, presenceSweepJob *PresenceSweepJob) *JobManager {
	return &JobManager{
		requeueSweepJob:  requeueSweepJob,
		presenceSweepJob: presenceSweepJob,
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if err := jm.requeueSweepJob.Start(); err != nil {
		return fmt.Errorf("failed to start requeue sweep job: %w", err)
	}

	if err := jm.presenceSweepJob.Start(); err != nil {
		// Stop already started jobs if this one fails
		jm.requeueSweepJob.Stop()
		return fmt.Errorf("failed to start presence sweep job: %w", err)
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	jm.requeueSweepJob.Stop()
	jm.presenceSweepJob.Stop()
}
