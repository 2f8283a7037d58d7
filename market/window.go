package market

// Range holds the extremes of a window of bars.
type Range struct {
	Low  float64 // min of bar lows
	High float64 // max of bar highs
}

// Mid returns the midpoint of the range.
func (r Range) Mid() float64 {
	return (r.Low + r.High) / 2
}

// Width returns High - Low. A zero width marks a degenerate range.
func (r Range) Width() float64 {
	return r.High - r.Low
}

// WindowRange scans a slice of bars for the lowest low and highest high.
// The second return value is false for an empty window.
func WindowRange(bars []Bar) (Range, bool) {
	if len(bars) == 0 {
		return Range{}, false
	}
	r := Range{Low: bars[0].Low, High: bars[0].High}
	for _, b := range bars[1:] {
		if b.Low < r.Low {
			r.Low = b.Low
		}
		if b.High > r.High {
			r.High = b.High
		}
	}
	return r, true
}
