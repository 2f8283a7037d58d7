package market

import (
	"fmt"
	"time"
)

// Bar represents one trading day of OHLC data. Bars are value types and are
// never mutated once recorded in a Series.
type Bar struct {
	Date   time.Time
	Open   float64
	High   float64
	Low    float64
	Close  float64
	Volume float64
}

// Validate checks the OHLC geometry of a single bar:
// High >= max(Open, Close) >= min(Open, Close) >= Low >= 0.
func (b Bar) Validate() error {
	if b.Date.IsZero() {
		return fmt.Errorf("bar has zero date")
	}
	if b.Low < 0 {
		return fmt.Errorf("bar %s: negative low %.4f", b.Date.Format(DateLayout), b.Low)
	}
	if b.Open < b.Low || b.Close < b.Low {
		return fmt.Errorf("bar %s: open/close below low", b.Date.Format(DateLayout))
	}
	if b.Open > b.High || b.Close > b.High {
		return fmt.Errorf("bar %s: open/close above high", b.Date.Format(DateLayout))
	}
	if b.High < b.Low {
		return fmt.Errorf("bar %s: high %.4f below low %.4f", b.Date.Format(DateLayout), b.High, b.Low)
	}
	return nil
}

// Green reports whether the bar closed above its open.
func (b Bar) Green() bool {
	return b.Close > b.Open
}

// DateLayout is the canonical date format for daily bars.
const DateLayout = "2006-01-02"
