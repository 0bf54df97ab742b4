package engine

import (
	"context"
	"time"

	"croplearn/internal"
)

// Scheduler runs the nightly pass on a fixed interval with a generous timeout
// and a small fixed retry count on transient failures.
type Scheduler struct {
	orchestrator *Orchestrator
	interval     time.Duration
	timeout      time.Duration
	retries      int
	log          *internal.Logger
}

// NewScheduler creates a scheduler over an orchestrator.
func NewScheduler(orchestrator *Orchestrator, interval, timeout time.Duration, retries int, logger *internal.Logger) *Scheduler {
	if logger == nil {
		logger = internal.DefaultLogger
	}
	return &Scheduler{
		orchestrator: orchestrator,
		interval:     interval,
		timeout:      timeout,
		retries:      retries,
		log:          logger.Named("Scheduler"),
	}
}

// Run blocks until ctx is canceled, executing the batch pass every interval.
func (s *Scheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.log.Info("batch scheduler started, interval %s", s.interval)
	for {
		select {
		case <-ctx.Done():
			s.log.Info("batch scheduler stopped")
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// RunOnce executes one batch pass with the configured retry budget. The error
// of the final attempt is logged, not returned: a failed nightly pass leaves
// yesterday's dashboard standing and the next interval tries again.
func (s *Scheduler) RunOnce(ctx context.Context) {
	for attempt := 0; attempt <= s.retries; attempt++ {
		runCtx, cancel := context.WithTimeout(ctx, s.timeout)
		_, err := s.orchestrator.RunNightly(runCtx)
		cancel()

		if err == nil {
			return
		}
		if attempt < s.retries {
			s.log.Warn("nightly pass attempt %d failed, retrying: %v", attempt+1, err)
			continue
		}
		s.log.Error("nightly pass failed after %d attempts: %v", s.retries+1, err)
	}
}
