package market

import "time"

// Week is a weekly OHLC candle aggregated from daily bars.
type Week struct {
	Start  time.Time // Monday of the bucket
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Green reports whether the weekly candle closed above its open.
func (w Week) Green() bool {
	return w.Close > w.Open
}

// weekStart maps a date onto the Monday of its ISO week.
func weekStart(t time.Time) time.Time {
	wd := int(t.Weekday())
	if wd == 0 { // Sunday
		wd = 7
	}
	d := t.AddDate(0, 0, -(wd - 1))
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, d.Location())
}

// ResampleWeekly buckets daily bars into Monday-aligned weekly candles:
// first open, max high, min low, last close, summed volume. Input bars must
// be chronological (Series order guarantees this).
func ResampleWeekly(bars []Bar) []Week {
	var weeks []Week
	for _, b := range bars {
		ws := weekStart(b.Date)
		if len(weeks) == 0 || !weeks[len(weeks)-1].Start.Equal(ws) {
			weeks = append(weeks, Week{
				Start:  ws,
				Open:   b.Open,
				High:   b.High,
				Low:    b.Low,
				Close:  b.Close,
				Volume: b.Volume,
			})
			continue
		}
		w := &weeks[len(weeks)-1]
		if b.High > w.High {
			w.High = b.High
		}
		if b.Low < w.Low {
			w.Low = b.Low
		}
		w.Close = b.Close
		w.Volume += b.Volume
	}
	return weeks
}
