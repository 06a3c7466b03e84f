// Package jobs provides scheduled background tasks for the dispatch engine.
//
// This package implements cron-based jobs using github.com/robfig/cron/v3
// to handle periodic operations required for order matching.
//
// # Available Jobs
//
// 1. RequeueSweepJob - Periodically re-enters matching for pending orders and
// expired offers, covering wakeups lost to crashes or restarts.
// 2. PresenceSweepJob - Periodically evicts stale driver presence from the
// geo index so unreachable drivers stop appearing as candidates.
//
// # Usage
//
// Jobs are managed through JobManager which provides a unified interface:
//
//	jobManager := jobs.NewJobManager(requeueJob, presenceJob)
//
//	if err := jobManager.StartAll(); err != nil {
//		log.Fatal("Failed to start jobs:", err)
//	}
//
//	defer jobManager.StopAll()
//
// # Error Handling
//
// Sweep failures are logged and retried on the next tick; a single failed
// sweep never takes the process down.
package jobs
