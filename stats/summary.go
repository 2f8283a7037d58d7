// Package stats reduces closed trades to summary performance figures. The
// reduction is pure and idempotent: the same trade collection always yields
// the same summary.
package stats

import (
	"sort"

	"gonum.org/v1/gonum/stat"

	"github.com/rkapoor/screener/sim"
)

// InstrumentSummary is the per-instrument slice of the overall summary.
type InstrumentSummary struct {
	Instrument string
	Trades     int
	Wins       int
	TotalPL    float64
}

// Summary aggregates a finalized trade collection. A run with no trades
// produces the zero-valued summary, not an error.
type Summary struct {
	TotalTrades int
	Wins        int
	Losses      int

	WinRate float64 // wins / total, 0 for an empty collection
	AvgWin  float64 // mean P&L of winning trades
	AvgLoss float64 // mean P&L of losing trades (negative)
	TotalPL float64

	AvgHoldingDays float64
	ProfitFactor   float64 // gross profit / gross loss, 0 when no losses
	Expectancy     float64 // mean P&L per trade

	// MaxConsecutiveLosses is the longest losing streak in input order.
	MaxConsecutiveLosses int

	ExitReasons  map[sim.ExitReason]int
	ByInstrument []InstrumentSummary // sorted by instrument
}

// Summarize reduces trades to a Summary. Win means realized P&L > 0;
// break-even trades count toward totals but neither wins nor losses.
func Summarize(trades []sim.Trade) Summary {
	s := Summary{
		TotalTrades: len(trades),
		ExitReasons: map[sim.ExitReason]int{},
	}
	if len(trades) == 0 {
		return s
	}

	var (
		winPLs, lossPLs []float64
		holding         = make([]float64, 0, len(trades))
		grossProfit     float64
		grossLoss       float64
		lossStreak      int
		perInstrument   = map[string]*InstrumentSummary{}
	)

	for _, t := range trades {
		s.TotalPL += t.RealizedPL
		holding = append(holding, float64(t.HoldingDays))
		s.ExitReasons[t.Reason]++

		inst := perInstrument[t.Instrument]
		if inst == nil {
			inst = &InstrumentSummary{Instrument: t.Instrument}
			perInstrument[t.Instrument] = inst
		}
		inst.Trades++
		inst.TotalPL += t.RealizedPL

		switch {
		case t.RealizedPL > 0:
			s.Wins++
			inst.Wins++
			winPLs = append(winPLs, t.RealizedPL)
			grossProfit += t.RealizedPL
			lossStreak = 0
		case t.RealizedPL < 0:
			s.Losses++
			lossPLs = append(lossPLs, t.RealizedPL)
			grossLoss += -t.RealizedPL
			lossStreak++
			if lossStreak > s.MaxConsecutiveLosses {
				s.MaxConsecutiveLosses = lossStreak
			}
		default:
			lossStreak = 0
		}
	}

	s.WinRate = float64(s.Wins) / float64(s.TotalTrades)
	s.AvgHoldingDays = stat.Mean(holding, nil)
	s.Expectancy = s.TotalPL / float64(s.TotalTrades)
	if len(winPLs) > 0 {
		s.AvgWin = stat.Mean(winPLs, nil)
	}
	if len(lossPLs) > 0 {
		s.AvgLoss = stat.Mean(lossPLs, nil)
	}
	if grossLoss > 0 {
		s.ProfitFactor = grossProfit / grossLoss
	}

	s.ByInstrument = make([]InstrumentSummary, 0, len(perInstrument))
	for _, inst := range perInstrument {
		s.ByInstrument = append(s.ByInstrument, *inst)
	}
	sort.Slice(s.ByInstrument, func(i, j int) bool {
		return s.ByInstrument[i].Instrument < s.ByInstrument[j].Instrument
	})
	return s
}
