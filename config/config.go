// Package config loads and validates run configuration from YAML or JSON
// files, with a small set of environment overrides for deployment knobs.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rkapoor/screener/pipeline"
	"github.com/rkapoor/screener/risk"
	"github.com/rkapoor/screener/screen"
	"github.com/rkapoor/screener/sim"
)

// Config is the complete run configuration.
type Config struct {
	Account    AccountConfig    `json:"account" yaml:"account"`
	Screen     ScreenConfig     `json:"screen" yaml:"screen"`
	Sizing     SizingConfig     `json:"sizing" yaml:"sizing"`
	Simulation SimulationConfig `json:"simulation" yaml:"simulation"`
	Data       DataConfig       `json:"data" yaml:"data"`
	Journal    JournalConfig    `json:"journal" yaml:"journal"`
	Logging    LoggingConfig    `json:"logging" yaml:"logging"`
}

type AccountConfig struct {
	Equity float64 `json:"equity" yaml:"equity"`
}

type ScreenConfig struct {
	MinMarketCapCrore     float64 `json:"min_market_cap_crore" yaml:"min_market_cap_crore"`
	YearlyWindowDays      int     `json:"yearly_window_days" yaml:"yearly_window_days"`
	MonthlyWindowDays     int     `json:"monthly_window_days" yaml:"monthly_window_days"`
	MonthlyRangeThreshold float64 `json:"monthly_range_threshold" yaml:"monthly_range_threshold"`
}

type SizingConfig struct {
	RiskPct        float64 `json:"risk_pct" yaml:"risk_pct"`
	MaxPositionPct float64 `json:"max_position_pct" yaml:"max_position_pct"`
}

type SimulationConfig struct {
	EntryPriceSource string `json:"entry_price_source" yaml:"entry_price_source"` // close or next_open
	MaxHoldingDays   int    `json:"max_holding_days" yaml:"max_holding_days"`     // 0 disables the time exit
}

type DataConfig struct {
	Dir          string `json:"dir" yaml:"dir"`
	UniverseFile string `json:"universe_file,omitempty" yaml:"universe_file,omitempty"`
	FetchBaseURL string `json:"fetch_base_url,omitempty" yaml:"fetch_base_url,omitempty"`
	MaxParallel  int    `json:"max_parallel,omitempty" yaml:"max_parallel,omitempty"`
}

type JournalConfig struct {
	Type        string `json:"type" yaml:"type"` // "csv", "sqlite", or "none"
	TradesFile  string `json:"trades_file,omitempty" yaml:"trades_file,omitempty"`
	ScreensFile string `json:"screens_file,omitempty" yaml:"screens_file,omitempty"`
	DBPath      string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

type LoggingConfig struct {
	Level  string `json:"level" yaml:"level"`
	Pretty bool   `json:"pretty" yaml:"pretty"`
}

// LoadFromFile reads a config file, trying YAML first and falling back to
// JSON, then applies env overrides and validates.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.ApplyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// SaveToFile writes the config as YAML for .yaml/.yml paths, JSON otherwise.
func (c *Config) SaveToFile(path string) error {
	var (
		data []byte
		err  error
	)
	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// ApplyEnv overrides deployment knobs from the environment: EQUITY,
// LOG_LEVEL, and DATA_DIR.
func (c *Config) ApplyEnv() error {
	if v := os.Getenv("EQUITY"); v != "" {
		eq, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("EQUITY: %w", err)
		}
		c.Account.Equity = eq
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv("DATA_DIR"); v != "" {
		c.Data.Dir = v
	}
	return nil
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.Account.Equity <= 0 {
		return fmt.Errorf("account.equity must be positive")
	}
	if c.Screen.MinMarketCapCrore < 0 {
		return fmt.Errorf("screen.min_market_cap_crore must not be negative")
	}
	if c.Screen.YearlyWindowDays <= 0 || c.Screen.MonthlyWindowDays <= 0 {
		return fmt.Errorf("screen windows must be positive")
	}
	if c.Screen.MonthlyRangeThreshold < 0 || c.Screen.MonthlyRangeThreshold > 1 {
		return fmt.Errorf("screen.monthly_range_threshold must be in [0,1]")
	}
	if c.Sizing.RiskPct <= 0 || c.Sizing.RiskPct > 1 {
		return fmt.Errorf("sizing.risk_pct must be between 0 and 1")
	}
	if c.Sizing.MaxPositionPct <= 0 || c.Sizing.MaxPositionPct > 1 {
		return fmt.Errorf("sizing.max_position_pct must be between 0 and 1")
	}
	switch c.Simulation.EntryPriceSource {
	case string(sim.EntryClose), string(sim.EntryNextOpen):
	default:
		return fmt.Errorf("simulation.entry_price_source must be %q or %q",
			sim.EntryClose, sim.EntryNextOpen)
	}
	if c.Simulation.MaxHoldingDays < 0 {
		return fmt.Errorf("simulation.max_holding_days must not be negative")
	}
	if c.Data.Dir == "" {
		return fmt.Errorf("data.dir is required")
	}

	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.ScreensFile == "" {
			return fmt.Errorf("journal trades_file and screens_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite', or 'none'")
	}
	return nil
}

// PipelineParams converts the config into engine parameters.
func (c *Config) PipelineParams() pipeline.Params {
	return pipeline.Params{
		Screen: screen.Params{
			MinMarketCapCrore:     c.Screen.MinMarketCapCrore,
			YearlyWindowDays:      c.Screen.YearlyWindowDays,
			MonthlyWindowDays:     c.Screen.MonthlyWindowDays,
			MonthlyRangeThreshold: c.Screen.MonthlyRangeThreshold,
		},
		Sizing: risk.Params{
			RiskPct:        c.Sizing.RiskPct,
			MaxPositionPct: c.Sizing.MaxPositionPct,
		},
		Sim: sim.Config{
			EntrySource:    sim.EntrySource(c.Simulation.EntryPriceSource),
			MaxHoldingDays: c.Simulation.MaxHoldingDays,
		},
		Equity:      c.Account.Equity,
		MaxParallel: c.Data.MaxParallel,
	}
}

// Default returns a configuration with the standard screen parameters.
func Default() *Config {
	return &Config{
		Account: AccountConfig{Equity: 1_000_000},
		Screen: ScreenConfig{
			MinMarketCapCrore:     1000,
			YearlyWindowDays:      252,
			MonthlyWindowDays:     30,
			MonthlyRangeThreshold: 0.75,
		},
		Sizing: SizingConfig{
			RiskPct:        0.02,
			MaxPositionPct: 0.10,
		},
		Simulation: SimulationConfig{
			EntryPriceSource: string(sim.EntryClose),
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Journal: JournalConfig{
			Type:        "csv",
			TradesFile:  "./trades.csv",
			ScreensFile: "./screens.csv",
		},
		Logging: LoggingConfig{Level: "info", Pretty: true},
	}
}
