package sim

import "time"

// ExitReason explains why a simulated position closed. Every closed trade
// has exactly one.
type ExitReason string

const (
	ExitStop      ExitReason = "stop_hit"
	ExitTarget    ExitReason = "target_hit"
	ExitTime      ExitReason = "time_exit"
	ExitEndOfData ExitReason = "end_of_data"
)

// Trade is one completed round trip. The simulator only ever returns
// closed trades; a position is never left open.
type Trade struct {
	Instrument string

	EntryDate  time.Time
	EntryPrice float64
	ExitDate   time.Time
	ExitPrice  float64

	Quantity int64
	Reason   ExitReason

	RealizedPL  float64
	HoldingDays int // trading days between entry and exit, inclusive
}

// Win reports whether the trade realized a profit.
func (t Trade) Win() bool {
	return t.RealizedPL > 0
}
