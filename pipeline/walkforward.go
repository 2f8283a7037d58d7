package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/rkapoor/screener/risk"
	"github.com/rkapoor/screener/screen"
	"github.com/rkapoor/screener/sim"
	"github.com/rkapoor/screener/stats"
)

// WalkForwardResult collects every trade taken when re-screening each
// trading day over a date range.
type WalkForwardResult struct {
	From, To time.Time
	Trades   []sim.Trade // sorted by instrument, then entry date
	Summary  stats.Summary
	Failures []Failure
}

// WalkForward re-screens every instrument on each of its trading days in
// [from, to], taking at most one open position per instrument: while a
// trade is open, new signals for that instrument are skipped. Each trade is
// sized from the same starting equity, so results measure the setup rather
// than compounding.
func (e *Engine) WalkForward(ctx context.Context, symbols []string, from, to time.Time) (WalkForwardResult, error) {
	res := WalkForwardResult{From: from, To: to}
	if to.Before(from) {
		return res, fmt.Errorf("walk-forward: to %s before from %s",
			to.Format("2006-01-02"), from.Format("2006-01-02"))
	}

	ordered := append([]string(nil), symbols...)
	sort.Strings(ordered)

	type slot struct {
		trades  []sim.Trade
		failure *Failure
	}
	slots := make([]slot, len(ordered))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism())

	for i, sym := range ordered {
		i, sym := i, sym
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			trades, err := e.walkInstrument(sym, from, to)
			if err != nil {
				e.Log.Warn().Str("instrument", sym).Err(err).Msg("skipped")
				slots[i].failure = &Failure{Instrument: sym, Err: err}
				return nil
			}
			slots[i].trades = trades
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return WalkForwardResult{}, err
	}

	for _, s := range slots {
		if s.failure != nil {
			res.Failures = append(res.Failures, *s.failure)
			continue
		}
		res.Trades = append(res.Trades, s.trades...)
	}
	res.Summary = stats.Summarize(res.Trades)
	return res, nil
}

// walkInstrument scans one instrument's bars chronologically. After a trade
// opens, scanning resumes at the bar after its exit.
func (e *Engine) walkInstrument(sym string, from, to time.Time) ([]sim.Trade, error) {
	series, err := e.Provider.Series(sym)
	if err != nil {
		return nil, fmt.Errorf("load series: %w", err)
	}

	mcap, ok := e.Caps.MarketCap(sym)
	if !ok {
		return nil, fmt.Errorf("%s: %w", sym, ErrMissingMarketCap)
	}

	simulator := sim.New(e.Params.Sim)

	var trades []sim.Trade
	for idx := 0; idx < series.Len(); idx++ {
		date := series.At(idx).Date
		if date.Before(from) {
			continue
		}
		if date.After(to) {
			break
		}

		sc, err := screen.Evaluate(series, date, mcap, e.Params.Screen)
		if err != nil {
			if errors.Is(err, screen.ErrInsufficientData) {
				continue
			}
			return nil, fmt.Errorf("screen %s: %w", date.Format("2006-01-02"), err)
		}
		if !sc.Passed {
			continue
		}

		plan, err := risk.Size(sym, sc.Entry, sc.Stop, sc.Target, e.Params.Equity, e.Params.Sizing)
		if err != nil {
			return nil, fmt.Errorf("size %s: %w", date.Format("2006-01-02"), err)
		}
		if !plan.Viable() {
			continue
		}

		trade, err := simulator.Run(plan, series, idx)
		if err != nil {
			if errors.Is(err, sim.ErrNoForwardData) {
				break
			}
			return nil, fmt.Errorf("simulate %s: %w", date.Format("2006-01-02"), err)
		}
		trades = append(trades, trade)

		// One position per instrument: jump past the exit bar.
		exitIdx, ok := series.IndexOf(trade.ExitDate)
		if !ok {
			return nil, fmt.Errorf("exit date %s not in series", trade.ExitDate.Format("2006-01-02"))
		}
		idx = exitIdx
	}
	return trades, nil
}
