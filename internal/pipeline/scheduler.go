package pipeline

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"
	"github.com/ternarybob/arbor"
)

// Scheduler triggers whole pipeline runs on a cron schedule. It only
// schedules runs; ordering within a run stays with the orchestrator.
type Scheduler struct {
	cron         *cron.Cron
	orchestrator *Orchestrator
	logger       arbor.ILogger
}

// NewScheduler creates a scheduler for the given cron expression
// (six-field format with seconds).
func NewScheduler(schedule string, orchestrator *Orchestrator, logger arbor.ILogger) (*Scheduler, error) {
	s := &Scheduler{
		cron:         cron.New(cron.WithSeconds()),
		orchestrator: orchestrator,
		logger:       logger,
	}

	if _, err := s.cron.AddFunc(schedule, func() {
		s.logger.Info().Str("schedule", schedule).Msg("Scheduled pipeline run triggered")
		s.orchestrator.Run(context.Background())
	}); err != nil {
		return nil, fmt.Errorf("invalid pipeline schedule %q: %w", schedule, err)
	}

	return s, nil
}

// Start begins scheduling in the background.
func (s *Scheduler) Start() {
	s.cron.Start()
	s.logger.Info().Msg("Pipeline scheduler started")
}

// Stop stops the scheduler and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info().Msg("Pipeline scheduler stopped")
}
