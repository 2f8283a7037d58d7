// Package pipeline composes the screen, sizing, and simulation stages over a
// universe of instruments. Instruments are evaluated in parallel; output
// ordering is by instrument symbol regardless of scheduling.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/rkapoor/screener/market"
	"github.com/rkapoor/screener/risk"
	"github.com/rkapoor/screener/screen"
	"github.com/rkapoor/screener/sim"
	"github.com/rkapoor/screener/stats"
)

// ErrMissingMarketCap marks an instrument absent from the market cap lookup.
var ErrMissingMarketCap = errors.New("missing market cap")

// SeriesProvider resolves an instrument symbol to its daily history.
type SeriesProvider interface {
	Series(instrument string) (*market.Series, error)
}

// MarketCapLookup resolves a symbol to its market cap in crore.
type MarketCapLookup interface {
	MarketCap(symbol string) (float64, bool)
}

// Params bundles the stage parameters of one run.
type Params struct {
	Screen screen.Params
	Sizing risk.Params
	Sim    sim.Config
	Equity float64

	// MaxParallel bounds concurrent instrument evaluation. Zero means
	// one goroutine per CPU.
	MaxParallel int
}

func DefaultParams() Params {
	return Params{
		Screen: screen.DefaultParams(),
		Sizing: risk.DefaultParams(),
		Sim:    sim.Config{EntrySource: sim.EntryClose},
		Equity: 1_000_000,
	}
}

// Failure reports one instrument that could not be evaluated. Failures never
// abort the run; they ride alongside the results.
type Failure struct {
	Instrument string
	Err        error
}

// Signal is a qualifying screen with its sized plan and, when forward data
// exists, the simulated trade.
type Signal struct {
	Screen screen.Result
	Plan   risk.Plan
	Trade  *sim.Trade
}

// RunResult is the outcome of screening one date across the universe.
type RunResult struct {
	AsOf     time.Time
	Screens  []screen.Result // every evaluated instrument, sorted by symbol
	Signals  []Signal        // qualifying subset, sorted by symbol
	Trades   []sim.Trade
	Summary  stats.Summary
	Failures []Failure
}

// Engine runs the screening pipeline. Construct it directly; the zero Log is
// usable but silent.
type Engine struct {
	Provider SeriesProvider
	Caps     MarketCapLookup
	Params   Params
	Log      zerolog.Logger
}

// Run screens every symbol as of the given date, sizes qualifying signals,
// and simulates them forward on the same history. Per-instrument errors are
// collected, not returned: the error return covers only context
// cancellation.
func (e *Engine) Run(ctx context.Context, symbols []string, asOf time.Time) (RunResult, error) {
	res := RunResult{AsOf: asOf}

	type slot struct {
		screen  *screen.Result
		signal  *Signal
		failure *Failure
	}
	slots := make([]slot, len(symbols))

	ordered := append([]string(nil), symbols...)
	sort.Strings(ordered)

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.parallelism())

	for i, sym := range ordered {
		i, sym := i, sym
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}

			sc, sig, err := e.evaluate(sym, asOf)
			if err != nil {
				e.Log.Warn().Str("instrument", sym).Err(err).Msg("skipped")
				slots[i].failure = &Failure{Instrument: sym, Err: err}
				return nil
			}
			slots[i].screen = sc
			slots[i].signal = sig
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return RunResult{}, err
	}

	for _, s := range slots {
		switch {
		case s.failure != nil:
			res.Failures = append(res.Failures, *s.failure)
		case s.screen != nil:
			res.Screens = append(res.Screens, *s.screen)
			if s.signal != nil {
				res.Signals = append(res.Signals, *s.signal)
				if s.signal.Trade != nil {
					res.Trades = append(res.Trades, *s.signal.Trade)
				}
			}
		}
	}
	res.Summary = stats.Summarize(res.Trades)
	return res, nil
}

// evaluate runs the stages for one instrument. A nil Signal with nil error
// means the screen did not qualify.
func (e *Engine) evaluate(sym string, asOf time.Time) (*screen.Result, *Signal, error) {
	series, err := e.Provider.Series(sym)
	if err != nil {
		return nil, nil, fmt.Errorf("load series: %w", err)
	}

	mcap, ok := e.Caps.MarketCap(sym)
	if !ok {
		return nil, nil, fmt.Errorf("%s: %w", sym, ErrMissingMarketCap)
	}

	sc, err := screen.Evaluate(series, asOf, mcap, e.Params.Screen)
	if err != nil {
		return nil, nil, fmt.Errorf("screen: %w", err)
	}
	if !sc.Passed {
		return &sc, nil, nil
	}

	plan, err := risk.Size(sym, sc.Entry, sc.Stop, sc.Target, e.Params.Equity, e.Params.Sizing)
	if err != nil {
		return nil, nil, fmt.Errorf("size: %w", err)
	}

	sig := &Signal{Screen: sc, Plan: plan}
	if !plan.Viable() {
		e.Log.Debug().Str("instrument", sym).Msg("signal sized to zero")
		return &sc, sig, nil
	}

	idx, ok := series.IndexAtOrBefore(asOf)
	if !ok {
		return nil, nil, fmt.Errorf("screen: %w", screen.ErrInsufficientData)
	}

	trade, err := sim.New(e.Params.Sim).Run(plan, series, idx)
	if err != nil {
		if errors.Is(err, sim.ErrNoForwardData) {
			return &sc, sig, nil
		}
		return nil, nil, fmt.Errorf("simulate: %w", err)
	}
	sig.Trade = &trade
	return &sc, sig, nil
}

func (e *Engine) parallelism() int {
	if e.Params.MaxParallel > 0 {
		return e.Params.MaxParallel
	}
	return runtime.NumCPU()
}
