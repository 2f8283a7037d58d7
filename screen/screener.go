// Package screen evaluates the qualification filters that decide whether an
// instrument is a candidate for a long swing entry: market capitalization,
// position within the 52-week range, position within the trailing monthly
// range, and weekly momentum. Evaluation is a pure function of the price
// series and the supplied market cap; it performs no I/O.
package screen

import (
	"errors"
	"fmt"
	"time"

	"github.com/rkapoor/screener/market"
)

// ErrInsufficientData is returned when the series has no bar at or before
// the evaluation date, so no filter can be measured at all. Short lookback
// windows do not error; they degrade (see Result.Degraded).
var ErrInsufficientData = errors.New("screen: insufficient data")

// Params holds the screening thresholds. Zero values are not usable; start
// from DefaultParams.
type Params struct {
	MinMarketCapCrore     float64 // filter 1: market cap must exceed this (crore)
	YearlyWindowDays      int     // filter 2: trailing trading days for the 52w range
	MonthlyWindowDays     int     // filter 3: trailing calendar days for the monthly range
	MonthlyRangeThreshold float64 // filter 3: lower bound of acceptable range position
}

// DefaultParams mirrors the strategy's published rules: 1000 crore minimum
// cap, 252-day yearly window, 30-day monthly window, 75% monthly threshold.
func DefaultParams() Params {
	return Params{
		MinMarketCapCrore:     1000,
		YearlyWindowDays:      252,
		MonthlyWindowDays:     30,
		MonthlyRangeThreshold: 0.75,
	}
}

// Result is the verdict for one instrument on one date. All measured values
// are populated whether or not the instrument passed, so failed screens can
// still be inspected.
type Result struct {
	Instrument string
	AsOf       time.Time
	Passed     bool

	// Degraded marks a 52w window computed from fewer than
	// YearlyWindowDays bars. The filter still evaluates, at reduced
	// confidence.
	Degraded bool

	MarketCapCrore float64
	CurrentPrice   float64

	Low52W  float64
	High52W float64

	MonthlyLow  float64
	MonthlyHigh float64
	// MonthlyRangePos is (price-low)/(high-low) over the monthly window,
	// in [0,1]. Negative when the range is degenerate (high == low).
	MonthlyRangePos float64

	WeeklyMomentum bool

	// Individual filter verdicts, for diagnostics.
	MarketCapOK bool
	RangeOK     bool
	MonthlyOK   bool
	WeeklyOK    bool

	// Trade geometry for qualifying setups: enter at the screened price,
	// stop at the 52w low, target at the 52w high. Meaningful only when
	// Passed is true.
	Entry  float64
	Stop   float64
	Target float64
}

// RewardRisk returns the reward:risk ratio of the screened geometry, or 0
// when the risk side is degenerate.
func (r Result) RewardRisk() float64 {
	risk := r.Entry - r.Stop
	if risk <= 0 {
		return 0
	}
	return (r.Target - r.Entry) / risk
}

// Evaluate screens one instrument as of the last bar at or before asOf.
// A market cap of zero (or below) means "unknown" and fails the cap filter
// closed. Filters are AND-ed; Passed additionally requires reward:risk > 1,
// which the midpoint rule already implies except at the exact boundary.
func Evaluate(s *market.Series, asOf time.Time, marketCapCrore float64, p Params) (Result, error) {
	idx, ok := s.IndexAtOrBefore(asOf)
	if !ok {
		return Result{}, fmt.Errorf("%w: %s has no bars at or before %s",
			ErrInsufficientData, s.Instrument, asOf.Format(market.DateLayout))
	}

	bar := s.At(idx)
	res := Result{
		Instrument:      s.Instrument,
		AsOf:            bar.Date,
		MarketCapCrore:  marketCapCrore,
		CurrentPrice:    bar.Close,
		MonthlyRangePos: -1,
	}

	// Filter 1: market capitalization. Unknown caps fail closed.
	res.MarketCapOK = marketCapCrore > p.MinMarketCapCrore

	// Filter 2: price in the lower half of the 52-week range.
	yearly := s.TrailingBars(idx, p.YearlyWindowDays)
	res.Degraded = len(yearly) < p.YearlyWindowDays
	yr, _ := market.WindowRange(yearly)
	res.Low52W = yr.Low
	res.High52W = yr.High
	res.RangeOK = yr.Low <= bar.Close && bar.Close <= yr.Mid()

	// Filter 3: price in the upper band of the trailing monthly range.
	monthly := s.TrailingCalendar(idx, p.MonthlyWindowDays)
	if mr, ok := market.WindowRange(monthly); ok && mr.Width() > 0 {
		res.MonthlyLow = mr.Low
		res.MonthlyHigh = mr.High
		res.MonthlyRangePos = (bar.Close - mr.Low) / mr.Width()
		res.MonthlyOK = res.MonthlyRangePos >= p.MonthlyRangeThreshold &&
			res.MonthlyRangePos <= 1.0
	}
	// Degenerate or empty monthly range stays MonthlyOK=false.

	// Filter 4: weekly momentum. Green current week, or a higher high than
	// the previous week. Needs two weekly candles.
	weeks := market.ResampleWeekly(s.TrailingBars(idx, 3*5))
	if n := len(weeks); n >= 2 {
		cur, prev := weeks[n-1], weeks[n-2]
		res.WeeklyMomentum = cur.Green() || cur.High > prev.High
	}
	res.WeeklyOK = res.WeeklyMomentum

	res.Entry = bar.Close
	res.Stop = yr.Low
	res.Target = yr.High

	res.Passed = res.MarketCapOK && res.RangeOK && res.MonthlyOK && res.WeeklyOK &&
		res.RewardRisk() > 1
	return res, nil
}
