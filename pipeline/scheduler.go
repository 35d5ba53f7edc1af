package pipeline

import (
	"context"
	"fmt"

	"github.com/robfig/cron/v3"

	"classic-hunt/config"
	"classic-hunt/utils"
)

// Scheduler wraps robfig/cron and drives the recurring scrape cycle and the
// daily email digest.
type Scheduler struct {
	cron     *cron.Cron
	pipeline *Pipeline
	specs    config.ScheduleSettings
	logger   *utils.Logger
}

// NewScheduler creates a Scheduler for the given pipeline.
func NewScheduler(p *Pipeline, specs config.ScheduleSettings, logger *utils.Logger) *Scheduler {
	return &Scheduler{
		cron:     cron.New(),
		pipeline: p,
		specs:    specs,
		logger:   logger,
	}
}

// Start registers both jobs and starts the scheduler. One scrape cycle runs
// immediately so the data is fresh without waiting for the first tick.
func (s *Scheduler) Start(ctx context.Context) error {
	if _, err := s.cron.AddFunc(s.specs.Scrape, func() { s.runScrape(ctx) }); err != nil {
		return fmt.Errorf("scheduler: scrape spec %q: %w", s.specs.Scrape, err)
	}
	if _, err := s.cron.AddFunc(s.specs.Email, func() { s.runEmail(ctx) }); err != nil {
		return fmt.Errorf("scheduler: email spec %q: %w", s.specs.Email, err)
	}

	s.cron.Start()
	s.logger.Info("[scheduler] Started (scrape: %s, email: %s)", s.specs.Scrape, s.specs.Email)

	go s.runScrape(ctx)
	return nil
}

// Stop shuts the scheduler down. Jobs already running finish on their own.
func (s *Scheduler) Stop() {
	s.cron.Stop()
	s.logger.Info("[scheduler] Stopped")
}

func (s *Scheduler) runScrape(ctx context.Context) {
	if err := s.pipeline.Run(ctx); err != nil {
		s.logger.Error("[scheduler] Scrape cycle: %v", err)
	}
}

func (s *Scheduler) runEmail(ctx context.Context) {
	if err := s.pipeline.SendEmail(ctx); err != nil {
		s.logger.Error("[scheduler] Email digest: %v", err)
	}
}
