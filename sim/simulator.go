// Package sim replays a sized position forward through daily bars until an
// exit condition fires. The simulator is deterministic: the same plan and
// series always produce the same trade.
package sim

import (
	"errors"
	"fmt"

	"github.com/rkapoor/screener/market"
	"github.com/rkapoor/screener/risk"
)

// ErrNoForwardData is returned when a position cannot be opened because the
// series has no bar for the configured entry.
var ErrNoForwardData = errors.New("sim: no forward data for entry")

// EntrySource selects the fill model for new positions. The choice applies
// uniformly across a run so backtests stay reproducible.
type EntrySource string

const (
	// EntryClose fills at the signal day's closing price.
	EntryClose EntrySource = "close"
	// EntryNextOpen fills at the next trading day's opening price.
	EntryNextOpen EntrySource = "next_open"
)

// Config holds the simulation parameters.
type Config struct {
	// EntrySource defaults to EntryClose when empty.
	EntrySource EntrySource
	// MaxHoldingDays closes a position at the bar close once it has been
	// held this many trading days. Zero disables the time exit.
	MaxHoldingDays int
}

// Simulator turns viable position plans into closed trades.
type Simulator struct {
	cfg Config
}

func New(cfg Config) *Simulator {
	if cfg.EntrySource == "" {
		cfg.EntrySource = EntryClose
	}
	return &Simulator{cfg: cfg}
}

// Run activates the plan at signalIdx (the index of the screening bar in
// the series) and advances day by day until an exit fires.
//
// Exit conditions are checked in fixed priority per bar:
//  1. day low <= stop  -> exit at the stop price (stop_hit)
//  2. day high >= target -> exit at the target price (target_hit)
//
// A gap-through day that breaches both resolves to the stop: the
// pessimistic assumption, same as the candle engine convention. When the
// series runs out the position closes at the last available close
// (end_of_data). A trade is never left open.
func (s *Simulator) Run(plan risk.Plan, series *market.Series, signalIdx int) (Trade, error) {
	if !plan.Viable() {
		return Trade{}, fmt.Errorf("sim: plan for %s has zero quantity", plan.Instrument)
	}
	if signalIdx < 0 || signalIdx >= series.Len() {
		return Trade{}, fmt.Errorf("sim: signal index %d out of range for %s",
			signalIdx, series.Instrument)
	}

	var (
		entryIdx   int
		entryPrice float64
	)
	switch s.cfg.EntrySource {
	case EntryNextOpen:
		entryIdx = signalIdx + 1
		if entryIdx >= series.Len() {
			return Trade{}, fmt.Errorf("%w: %s after %s", ErrNoForwardData,
				series.Instrument, series.At(signalIdx).Date.Format(market.DateLayout))
		}
		entryPrice = series.At(entryIdx).Open
	default:
		entryIdx = signalIdx
		entryPrice = series.At(signalIdx).Close
	}

	trade := Trade{
		Instrument: series.Instrument,
		EntryDate:  series.At(entryIdx).Date,
		EntryPrice: entryPrice,
		Quantity:   plan.Quantity,
	}

	// With a close fill the entry day's range is already behind us; exit
	// scanning starts the next day. An open fill is exposed to its own
	// day's range.
	scanFrom := entryIdx + 1
	if s.cfg.EntrySource == EntryNextOpen {
		scanFrom = entryIdx
	}

	for idx := scanFrom; idx < series.Len(); idx++ {
		bar := series.At(idx)

		if bar.Low <= plan.Stop {
			return s.close(trade, entryIdx, idx, plan.Stop, ExitStop, bar), nil
		}
		if bar.High >= plan.Target {
			return s.close(trade, entryIdx, idx, plan.Target, ExitTarget, bar), nil
		}
		if s.cfg.MaxHoldingDays > 0 && idx-entryIdx+1 >= s.cfg.MaxHoldingDays {
			return s.close(trade, entryIdx, idx, bar.Close, ExitTime, bar), nil
		}
	}

	// Data exhausted with the position still open.
	last := series.Len() - 1
	return s.close(trade, entryIdx, last, series.At(last).Close, ExitEndOfData, series.At(last)), nil
}

func (s *Simulator) close(t Trade, entryIdx, exitIdx int, price float64, reason ExitReason, bar market.Bar) Trade {
	t.ExitDate = bar.Date
	t.ExitPrice = price
	t.Reason = reason
	t.RealizedPL = (price - t.EntryPrice) * float64(t.Quantity)
	t.HoldingDays = exitIdx - entryIdx + 1
	return t
}
