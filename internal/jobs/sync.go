package jobs

import (
	"context"
	"fmt"
)

// SyncScheduler runs jobs inline instead of enqueueing them. Used in tests
// and in single-process deployments that prefer immediate consistency over
// request latency (QUEUE_DRIVER=sync).
//
// The runner is bound after construction because the services that schedule
// jobs are also the ones that execute them.
type SyncScheduler struct {
	runner Runner
}

// NewSyncScheduler creates an unbound synchronous scheduler.
func NewSyncScheduler() *SyncScheduler {
	return &SyncScheduler{}
}

// Bind attaches the runner that will execute scheduled jobs.
func (s *SyncScheduler) Bind(runner Runner) {
	s.runner = runner
}

// Schedule executes the job immediately on the caller's goroutine.
func (s *SyncScheduler) Schedule(ctx context.Context, job Job) error {
	if s.runner == nil {
		return fmt.Errorf("sync scheduler: no runner bound")
	}
	return s.runner.Run(ctx, job)
}
