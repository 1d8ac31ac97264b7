package scheduler

import (
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"pointmarket-backend/internal/jobs"
	"pointmarket-backend/internal/logger"
)

// Scheduler manages cron job scheduling
type Scheduler struct {
	cron *cron.Cron
	jobs *jobs.JobRunner
}

// NewScheduler creates a new scheduler with the provided job runner. A
// schedule expression that does not parse is a configuration error, not
// something to limp along without: the caller gets it back and should refuse
// to start.
func NewScheduler(jobRunner *jobs.JobRunner) (*Scheduler, error) {
	// Create cron with UTC timezone and seconds precision
	c := cron.New(
		cron.WithLocation(time.UTC),
		cron.WithSeconds(),
	)

	s := &Scheduler{
		cron: c,
		jobs: jobRunner,
	}

	if err := s.registerJobs(); err != nil {
		return nil, err
	}
	return s, nil
}

// registerJobs registers all scheduled jobs with the cron scheduler
func (s *Scheduler) registerJobs() error {
	cfg := s.jobs.Config().Scheduler

	if _, err := s.cron.AddFunc(cfg.ChargeSubscriptions, s.jobs.ChargeDueSubscriptions); err != nil {
		return fmt.Errorf("register ChargeDueSubscriptions (%q): %w", cfg.ChargeSubscriptions, err)
	}

	if _, err := s.cron.AddFunc(cfg.VerifyLedgerBalances, s.jobs.VerifyLedgerBalances); err != nil {
		return fmt.Errorf("register VerifyLedgerBalances (%q): %w", cfg.VerifyLedgerBalances, err)
	}

	if _, err := s.cron.AddFunc(cfg.TakeBalanceSnapshots, s.jobs.TakeBalanceSnapshots); err != nil {
		return fmt.Errorf("register TakeBalanceSnapshots (%q): %w", cfg.TakeBalanceSnapshots, err)
	}

	logger.Info("All cron jobs registered successfully")
	return nil
}

// Start begins the cron scheduler
func (s *Scheduler) Start() {
	logger.Info("Starting cron scheduler...")
	s.cron.Start()
	logger.Info("Cron scheduler started")
}

// Stop gracefully stops the cron scheduler
func (s *Scheduler) Stop() {
	logger.Info("Stopping cron scheduler...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	logger.Info("Cron scheduler stopped")
}
