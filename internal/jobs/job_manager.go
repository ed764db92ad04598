package jobs

import (
	"fmt"
)

// JobManager coordinates all scheduled jobs in the application.
// Provides a unified interface to start and stop all background jobs.
type JobManager struct {
	outboxRelayJob  *OutboxRelayJob
	dailySummaryJob *DailySummaryJob
}

// NewJobManager creates a new job manager. A nil job is skipped.
func NewJobManager(outboxRelayJob *OutboxRelayJob, dailySummaryJob *DailySummaryJob) *JobManager {
	return &JobManager{
		outboxRelayJob:  outboxRelayJob,
		dailySummaryJob: dailySummaryJob,
	}
}

// StartAll starts all scheduled jobs.
// Returns an error if any job fails to start.
func (jm *JobManager) StartAll() error {
	if jm.outboxRelayJob != nil {
		if err := jm.outboxRelayJob.Start(); err != nil {
			return fmt.Errorf("failed to start outbox relay job: %w", err)
		}
	}

	if jm.dailySummaryJob != nil {
		if err := jm.dailySummaryJob.Start(); err != nil {
			// Stop already started jobs if this one fails
			if jm.outboxRelayJob != nil {
				jm.outboxRelayJob.Stop()
			}
			return fmt.Errorf("failed to start daily summary job: %w", err)
		}
	}

	return nil
}

// StopAll stops all scheduled jobs gracefully.
func (jm *JobManager) StopAll() {
	if jm.dailySummaryJob != nil {
		jm.dailySummaryJob.Stop()
	}
	if jm.outboxRelayJob != nil {
		jm.outboxRelayJob.Stop()
	}
}
