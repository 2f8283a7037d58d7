package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkapoor/screener/config"
	"github.com/rkapoor/screener/journal"
	"github.com/rkapoor/screener/market"
	"github.com/rkapoor/screener/marketdata"
	"github.com/rkapoor/screener/pipeline"
)

var screenCmd = &cobra.Command{
	Use:   "screen",
	Short: "Evaluate the universe on one date",
	Long: `Screen every instrument in the universe as of a date, print the
qualifying setups with their sized plans, and journal the evaluations.

Example:
  screener screen --config run.yaml --date 2023-07-14`,
	RunE: runScreen,
}

var (
	screenDate string
	screenAll  bool
)

func init() {
	rootCmd.AddCommand(screenCmd)

	screenCmd.Flags().StringVarP(&screenDate, "date", "d", "", "as-of date (2006-01-02), default: latest bar per instrument")
	screenCmd.Flags().BoolVarP(&screenAll, "all", "a", false, "print every evaluation, not just qualifying ones")
}

func runScreen(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	universe, err := loadUniverse(cfg)
	if err != nil {
		return err
	}

	provider := marketdata.NewDir(cfg.Data.Dir)
	engine := &pipeline.Engine{
		Provider: provider,
		Caps:     universe,
		Params:   cfg.PipelineParams(),
		Log:      log,
	}

	asOf, err := resolveAsOf(provider, universe.Symbols())
	if err != nil {
		return err
	}

	res, err := engine.Run(cmd.Context(), universe.Symbols(), asOf)
	if err != nil {
		return err
	}

	if err := journalScreens(cfg, res); err != nil {
		return err
	}

	printScreenTable(res)
	return nil
}

// resolveAsOf parses --date, or falls back to the latest bar seen across the
// universe.
func resolveAsOf(provider *marketdata.Dir, symbols []string) (time.Time, error) {
	if screenDate != "" {
		return time.ParseInLocation(market.DateLayout, screenDate, time.UTC)
	}

	var latest time.Time
	for _, sym := range symbols {
		s, err := provider.Series(sym)
		if err != nil {
			continue
		}
		if last := s.Last().Date; last.After(latest) {
			latest = last
		}
	}
	if latest.IsZero() {
		return time.Time{}, fmt.Errorf("no data files found for any universe symbol")
	}
	return latest, nil
}

func journalScreens(cfg *config.Config, res pipeline.RunResult) error {
	j, err := openJournal(cfg)
	if err != nil {
		return err
	}
	if j == nil {
		return nil
	}

	for _, sc := range res.Screens {
		if err := j.RecordScreen(journal.NewScreenRecord(sc)); err != nil {
			j.Close()
			return fmt.Errorf("journal screen %s: %w", sc.Instrument, err)
		}
	}
	return j.Close()
}

func printScreenTable(res pipeline.RunResult) {
	fmt.Printf("Screen as of %s: %d evaluated, %d qualified, %d failed\n\n",
		res.AsOf.Format(market.DateLayout), len(res.Screens), len(res.Signals), len(res.Failures))

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "INSTRUMENT\tPRICE\t52W LOW\t52W HIGH\tMONTH POS\tQTY\tSTOP\tTARGET\tR:R")
	for _, sig := range res.Signals {
		sc, plan := sig.Screen, sig.Plan
		fmt.Fprintf(w, "%s\t%.2f\t%.2f\t%.2f\t%.2f\t%d\t%.2f\t%.2f\t%.2f\n",
			sc.Instrument, sc.CurrentPrice, sc.Low52W, sc.High52W,
			sc.MonthlyRangePos, plan.Quantity, plan.Stop, plan.Target, sc.RewardRisk())
	}
	w.Flush()

	if screenAll {
		fmt.Println()
		for _, sc := range res.Screens {
			if sc.Passed {
				continue
			}
			fmt.Printf("  %-12s cap=%t range=%t monthly=%t weekly=%t\n",
				sc.Instrument, sc.MarketCapOK, sc.RangeOK, sc.MonthlyOK, sc.WeeklyOK)
		}
	}

	for _, f := range res.Failures {
		fmt.Printf("  skipped %s: %v\n", f.Instrument, f.Err)
	}
}
