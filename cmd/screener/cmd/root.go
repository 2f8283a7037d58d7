package cmd

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/rkapoor/screener/config"
	"github.com/rkapoor/screener/internal/logging"
	"github.com/rkapoor/screener/journal"
	"github.com/rkapoor/screener/marketdata"
)

var rootCmd = &cobra.Command{
	Use:   "screener",
	Short: "An NSE equity screener and backtest engine",
	Long: `Screener finds large-cap stocks trading in the lower half of their
52-week range with near-term strength, sizes positions under dual risk
constraints, and replays the resulting setups against history.

Subcommands:
  screen    - Evaluate the universe on one date
  backtest  - Walk the screen forward over a date range
  fetch     - Mirror daily bar files from an HTTP source
  config    - Generate or validate configuration files
  version   - Print the version`,
	SilenceUsage: true,
}

var cfgPath string

// Execute runs the CLI.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	// .env is optional; missing files are not an error.
	_ = godotenv.Load()

	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "config file (YAML or JSON)")
}

// loadConfig reads the configured file, or defaults plus env overrides when
// no file was given, and builds the logger.
func loadConfig() (*config.Config, zerolog.Logger, error) {
	var (
		cfg *config.Config
		err error
	)
	if cfgPath != "" {
		cfg, err = config.LoadFromFile(cfgPath)
		if err != nil {
			return nil, zerolog.Nop(), err
		}
	} else {
		cfg = config.Default()
		if err := cfg.ApplyEnv(); err != nil {
			return nil, zerolog.Nop(), err
		}
	}

	log := logging.New(logging.Config{Level: cfg.Logging.Level, Pretty: cfg.Logging.Pretty})
	logging.SetGlobal(log)
	return cfg, log, nil
}

func loadUniverse(cfg *config.Config) (*marketdata.Universe, error) {
	if cfg.Data.UniverseFile == "" {
		return marketdata.DefaultUniverse(), nil
	}
	return marketdata.LoadUniverse(cfg.Data.UniverseFile)
}

// openJournal builds the configured journal backend. A nil journal with nil
// error means journaling is off.
func openJournal(cfg *config.Config) (journal.Journal, error) {
	switch cfg.Journal.Type {
	case "none":
		return nil, nil
	case "csv":
		return journal.NewCSV(cfg.Journal.TradesFile, cfg.Journal.ScreensFile)
	case "sqlite":
		return journal.NewSQLite(cfg.Journal.DBPath)
	default:
		return nil, fmt.Errorf("unknown journal type %q", cfg.Journal.Type)
	}
}
