package market

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// ErrMalformedSeries is returned when price data fails validation at
// ingestion: empty input, non-monotonic dates, duplicate dates, or broken
// OHLC geometry.
// It is the only hard error in the data model; everything downstream assumes
// a Series that passed NewSeries.
var ErrMalformedSeries = errors.New("malformed price series")

// Series is an ordered daily OHLC history for a single instrument.
// Dates are strictly increasing and unique, and the series always holds at
// least one bar, so First and Last are total. The series is read-only after
// construction; the evaluation core never mutates it.
type Series struct {
	Instrument string
	bars       []Bar
}

// NewSeries validates bars and builds a Series. Bars must already be in
// chronological order; validation failures wrap ErrMalformedSeries.
func NewSeries(instrument string, bars []Bar) (*Series, error) {
	if instrument == "" {
		return nil, fmt.Errorf("%w: empty instrument", ErrMalformedSeries)
	}
	if len(bars) == 0 {
		return nil, fmt.Errorf("%w: %s: no bars", ErrMalformedSeries, instrument)
	}
	for i, b := range bars {
		if err := b.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrMalformedSeries, instrument, err)
		}
		if i > 0 && !bars[i-1].Date.Before(b.Date) {
			return nil, fmt.Errorf("%w: %s: dates not strictly increasing at %s",
				ErrMalformedSeries, instrument, b.Date.Format(DateLayout))
		}
	}
	return &Series{Instrument: instrument, bars: bars}, nil
}

func (s *Series) Len() int      { return len(s.bars) }
func (s *Series) At(i int) Bar  { return s.bars[i] }
func (s *Series) First() Bar    { return s.bars[0] }
func (s *Series) Last() Bar     { return s.bars[len(s.bars)-1] }
func (s *Series) Bars() []Bar   { return s.bars }

// IndexAtOrBefore returns the index of the last bar dated at or before t,
// and false when every bar is after t.
func (s *Series) IndexAtOrBefore(t time.Time) (int, bool) {
	i := sort.Search(len(s.bars), func(i int) bool {
		return s.bars[i].Date.After(t)
	})
	if i == 0 {
		return 0, false
	}
	return i - 1, true
}

// IndexOf returns the index of the bar dated exactly t.
func (s *Series) IndexOf(t time.Time) (int, bool) {
	i, ok := s.IndexAtOrBefore(t)
	if !ok || !s.bars[i].Date.Equal(t) {
		return 0, false
	}
	return i, true
}

// TrailingBars returns up to n bars ending at index end inclusive.
// Callers detect a short (degraded) window by comparing len to n.
func (s *Series) TrailingBars(end, n int) []Bar {
	if end < 0 || end >= len(s.bars) || n <= 0 {
		return nil
	}
	start := end - n + 1
	if start < 0 {
		start = 0
	}
	return s.bars[start : end+1]
}

// TrailingCalendar returns bars in the trailing `days` calendar days ending
// at index end inclusive: dates in (end.Date - days, end.Date].
func (s *Series) TrailingCalendar(end, days int) []Bar {
	if end < 0 || end >= len(s.bars) || days <= 0 {
		return nil
	}
	cutoff := s.bars[end].Date.AddDate(0, 0, -days)
	start := end
	for start > 0 && s.bars[start-1].Date.After(cutoff) {
		start--
	}
	return s.bars[start : end+1]
}
