package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkapoor/screener/sim"
)

func write(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Default().Validate())
}

func TestLoadYAML(t *testing.T) {
	t.Parallel()

	path := write(t, "config.yaml", `
account:
  equity: 500000
screen:
  min_market_cap_crore: 2000
  yearly_window_days: 252
  monthly_window_days: 30
  monthly_range_threshold: 0.8
simulation:
  entry_price_source: next_open
  max_holding_days: 20
data:
  dir: /tmp/data
journal:
  type: sqlite
  db_path: /tmp/j.db
`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)

	assert.InDelta(t, 500000, cfg.Account.Equity, 1e-9)
	assert.InDelta(t, 2000, cfg.Screen.MinMarketCapCrore, 1e-9)
	assert.Equal(t, "next_open", cfg.Simulation.EntryPriceSource)
	assert.Equal(t, 20, cfg.Simulation.MaxHoldingDays)
	assert.Equal(t, "sqlite", cfg.Journal.Type)

	// Unset fields keep their defaults.
	assert.InDelta(t, 0.02, cfg.Sizing.RiskPct, 1e-12)
	assert.InDelta(t, 0.10, cfg.Sizing.MaxPositionPct, 1e-12)
}

func TestLoadJSONFallback(t *testing.T) {
	t.Parallel()

	path := write(t, "config.json", `{
  "account": {"equity": 250000},
  "data": {"dir": "/tmp/data"},
  "journal": {"type": "none"}
}`)

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 250000, cfg.Account.Equity, 1e-9)
	assert.Equal(t, "none", cfg.Journal.Type)
}

func TestLoadRejectsGarbage(t *testing.T) {
	t.Parallel()

	path := write(t, "config.yaml", "{{{not config")
	_, err := LoadFromFile(path)
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("EQUITY", "750000")
	t.Setenv("LOG_LEVEL", "debug")
	t.Setenv("DATA_DIR", "/srv/bars")

	path := write(t, "config.yaml", "data:\n  dir: /tmp/data\n")

	cfg, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 750000, cfg.Account.Equity, 1e-9)
	assert.Equal(t, "debug", cfg.Logging.Level)
	assert.Equal(t, "/srv/bars", cfg.Data.Dir)
}

func TestEnvOverrideBadEquity(t *testing.T) {
	t.Setenv("EQUITY", "lots")

	cfg := Default()
	assert.Error(t, cfg.ApplyEnv())
}

func TestValidate(t *testing.T) {
	t.Parallel()

	cases := map[string]func(c *Config){
		"zero equity":       func(c *Config) { c.Account.Equity = 0 },
		"risk pct over 1":   func(c *Config) { c.Sizing.RiskPct = 1.5 },
		"bad entry source":  func(c *Config) { c.Simulation.EntryPriceSource = "open" },
		"negative holding":  func(c *Config) { c.Simulation.MaxHoldingDays = -1 },
		"no data dir":       func(c *Config) { c.Data.Dir = "" },
		"bad journal type":  func(c *Config) { c.Journal.Type = "parquet" },
		"csv missing files": func(c *Config) { c.Journal.Type = "csv"; c.Journal.TradesFile = "" },
		"sqlite no path":    func(c *Config) { c.Journal.Type = "sqlite"; c.Journal.DBPath = "" },
		"threshold over 1":  func(c *Config) { c.Screen.MonthlyRangeThreshold = 1.2 },
	}

	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveAndReloadYAML(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "config.yaml")

	cfg := Default()
	cfg.Account.Equity = 123456
	require.NoError(t, cfg.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.InDelta(t, 123456, got.Account.Equity, 1e-9)
}

func TestPipelineParams(t *testing.T) {
	t.Parallel()

	cfg := Default()
	cfg.Simulation.MaxHoldingDays = 15
	cfg.Data.MaxParallel = 8

	p := cfg.PipelineParams()
	assert.InDelta(t, 1000, p.Screen.MinMarketCapCrore, 1e-9)
	assert.InDelta(t, 0.02, p.Sizing.RiskPct, 1e-12)
	assert.Equal(t, sim.EntryClose, p.Sim.EntrySource)
	assert.Equal(t, 15, p.Sim.MaxHoldingDays)
	assert.Equal(t, 8, p.MaxParallel)
	assert.InDelta(t, cfg.Account.Equity, p.Equity, 1e-9)
}
