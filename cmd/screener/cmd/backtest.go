package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkapoor/screener/config"
	"github.com/rkapoor/screener/journal"
	"github.com/rkapoor/screener/market"
	"github.com/rkapoor/screener/marketdata"
	"github.com/rkapoor/screener/pipeline"
	"github.com/rkapoor/screener/sim"
)

var backtestCmd = &cobra.Command{
	Use:   "backtest",
	Short: "Walk the screen forward over a date range",
	Long: `Re-screen every trading day in [from, to], simulate each qualifying
setup, journal the closed trades, and print the performance summary.

Example:
  screener backtest --config run.yaml --from 2022-01-01 --to 2023-12-31`,
	RunE: runBacktest,
}

var (
	btFrom string
	btTo   string
)

func init() {
	rootCmd.AddCommand(backtestCmd)

	backtestCmd.Flags().StringVar(&btFrom, "from", "", "start date (2006-01-02) (required)")
	backtestCmd.Flags().StringVar(&btTo, "to", "", "end date (2006-01-02) (required)")
	backtestCmd.MarkFlagRequired("from")
	backtestCmd.MarkFlagRequired("to")
}

func runBacktest(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	from, err := time.ParseInLocation(market.DateLayout, btFrom, time.UTC)
	if err != nil {
		return fmt.Errorf("bad --from: %w", err)
	}
	to, err := time.ParseInLocation(market.DateLayout, btTo, time.UTC)
	if err != nil {
		return fmt.Errorf("bad --to: %w", err)
	}

	universe, err := loadUniverse(cfg)
	if err != nil {
		return err
	}

	engine := &pipeline.Engine{
		Provider: marketdata.NewDir(cfg.Data.Dir),
		Caps:     universe,
		Params:   cfg.PipelineParams(),
		Log:      log,
	}

	res, err := engine.WalkForward(cmd.Context(), universe.Symbols(), from, to)
	if err != nil {
		return err
	}

	if err := journalTrades(cfg, res); err != nil {
		return err
	}

	printSummary(res)
	return nil
}

func journalTrades(cfg *config.Config, res pipeline.WalkForwardResult) error {
	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if j == nil {
		return nil
	}

	for _, t := range res.Trades {
		if err := j.RecordTrade(journal.NewTradeRecord(t)); err != nil {
			j.Close()
			return fmt.Errorf("journal trade %s: %w", t.Instrument, err)
		}
	}
	return j.Close()
}

func printSummary(res pipeline.WalkForwardResult) {
	s := res.Summary

	fmt.Printf("Backtest %s to %s\n\n", res.From.Format(market.DateLayout), res.To.Format(market.DateLayout))
	fmt.Printf("Trades:           %d (%d wins, %d losses)\n", s.TotalTrades, s.Wins, s.Losses)
	fmt.Printf("Win rate:         %.1f%%\n", s.WinRate*100)
	fmt.Printf("Total P&L:        %.2f\n", s.TotalPL)
	fmt.Printf("Avg win / loss:   %.2f / %.2f\n", s.AvgWin, s.AvgLoss)
	fmt.Printf("Expectancy:       %.2f per trade\n", s.Expectancy)
	if s.ProfitFactor > 0 {
		fmt.Printf("Profit factor:    %.2f\n", s.ProfitFactor)
	}
	fmt.Printf("Avg holding days: %.1f\n", s.AvgHoldingDays)
	fmt.Printf("Max loss streak:  %d\n", s.MaxConsecutiveLosses)

	if len(s.ExitReasons) > 0 {
		fmt.Println("\nExits:")
		for _, reason := range []sim.ExitReason{sim.ExitStop, sim.ExitTarget, sim.ExitTime, sim.ExitEndOfData} {
			if n := s.ExitReasons[reason]; n > 0 {
				fmt.Printf("  %-12s %d\n", reason, n)
			}
		}
	}

	if len(s.ByInstrument) > 0 {
		fmt.Println("\nBy instrument:")
		for _, inst := range s.ByInstrument {
			fmt.Printf("  %-12s trades=%d wins=%d pl=%.2f\n",
				inst.Instrument, inst.Trades, inst.Wins, inst.TotalPL)
		}
	}

	for _, f := range res.Failures {
		fmt.Printf("  skipped %s: %v\n", f.Instrument, f.Err)
	}
}
