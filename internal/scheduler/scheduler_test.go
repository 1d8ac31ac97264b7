package scheduler

import (
	"testing"

	"pointmarket-backend/internal/config"
	"pointmarket-backend/internal/jobs"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := &config.Config{
		Server:   config.ServerConfig{Port: 8080},
		Database: config.DatabaseConfig{Host: "localhost", User: "u", Database: "d"},
	}
	require.NoError(t, cfg.Validate())
	return cfg
}

func TestNewScheduler(t *testing.T) {
	t.Run("registers every job with the default schedules", func(t *testing.T) {
		cfg := testConfig(t)
		runner := jobs.NewJobRunner(nil, &jobs.Services{}, cfg)

		s, err := NewScheduler(runner)
		require.NoError(t, err)
		assert.Len(t, s.cron.Entries(), 3)
	})

	t.Run("refuses a schedule the cron parser rejects", func(t *testing.T) {
		cfg := testConfig(t)
		// Quartz's last-day-of-month token is not part of the cron dialect
		// this scheduler speaks.
		cfg.Scheduler.TakeBalanceSnapshots = "0 30 23 L * *"
		runner := jobs.NewJobRunner(nil, &jobs.Services{}, cfg)

		_, err := NewScheduler(runner)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "TakeBalanceSnapshots")
	})
}
