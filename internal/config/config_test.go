package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/robfig/cron/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfigFile(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const minimalConfig = `
server:
  host: 0.0.0.0
  port: 8080
database:
  host: localhost
  port: 5432
  user: pointmarket
  password: pointmarket
  database: pointmarket
  ssl_mode: disable
`

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	assert.Equal(t, int64(100), cfg.Points.MinChargeAmount)
	assert.Equal(t, int64(0), cfg.Points.CommissionRatePercent)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, 300, cfg.Redis.TTLSeconds)
	assert.NotEmpty(t, cfg.Scheduler.ChargeSubscriptions)
	assert.NotEmpty(t, cfg.Scheduler.VerifyLedgerBalances)
	assert.NotEmpty(t, cfg.Scheduler.TakeBalanceSnapshots)
}

// Every default schedule must be accepted by the same parser the scheduler
// uses (six fields, seconds first). A default that fails to parse would
// silently drop its job at registration time.
func TestDefaultSchedulesParse(t *testing.T) {
	cfg, err := Load(writeConfigFile(t, minimalConfig))
	require.NoError(t, err)

	parser := cron.NewParser(
		cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)

	schedules := map[string]string{
		"charge_subscriptions":   cfg.Scheduler.ChargeSubscriptions,
		"verify_ledger_balances": cfg.Scheduler.VerifyLedgerBalances,
		"take_balance_snapshots": cfg.Scheduler.TakeBalanceSnapshots,
	}
	for name, schedule := range schedules {
		_, err := parser.Parse(schedule)
		assert.NoError(t, err, "schedule %s = %q must parse", name, schedule)
	}
}

func TestValidate(t *testing.T) {
	t.Run("missing database host", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, `
server:
  port: 8080
database:
  user: pointmarket
  database: pointmarket
`))
		assert.Error(t, err)
	})

	t.Run("commission rate out of range", func(t *testing.T) {
		_, err := Load(writeConfigFile(t, minimalConfig+`
points:
  commission_rate_percent: 150
`))
		assert.Error(t, err)
	})
}
