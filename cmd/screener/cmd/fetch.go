package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rkapoor/screener/marketdata"
)

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Mirror daily bar files from an HTTP source",
	Long: `Download per-symbol daily CSV files for the whole universe into the
configured data directory. Files already on disk are kept, so repeated runs
only fill gaps.

Example:
  screener fetch --config run.yaml --workers 8`,
	RunE: runFetch,
}

var (
	fetchBase    string
	fetchWorkers int
	fetchSleep   time.Duration
)

func init() {
	rootCmd.AddCommand(fetchCmd)

	fetchCmd.Flags().StringVarP(&fetchBase, "base", "b", "", "base URL serving <base>/<SYMBOL>.csv (default: config data.fetch_base_url)")
	fetchCmd.Flags().IntVarP(&fetchWorkers, "workers", "w", 4, "parallel downloads")
	fetchCmd.Flags().DurationVar(&fetchSleep, "sleep", 50*time.Millisecond, "polite delay per request")
}

func runFetch(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadConfig()
	if err != nil {
		return err
	}

	base := fetchBase
	if base == "" {
		base = cfg.Data.FetchBaseURL
	}
	if base == "" {
		return fmt.Errorf("no fetch base URL: set --base or data.fetch_base_url")
	}

	universe, err := loadUniverse(cfg)
	if err != nil {
		return err
	}

	f := &marketdata.Fetcher{
		Base:    base,
		OutDir:  cfg.Data.Dir,
		Workers: fetchWorkers,
		Sleep:   fetchSleep,
		Log:     log,
	}

	res, err := f.Fetch(cmd.Context(), universe.Symbols())
	if err != nil {
		return err
	}

	fmt.Printf("Done. fetched=%d skipped=%d missing=%d failed=%d\n",
		res.Fetched, res.Skipped, res.Missing, res.Failed)
	return nil
}
