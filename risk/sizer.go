// Package risk sizes long positions under two simultaneous constraints: a
// cap on the equity fraction lost if the stop is hit, and a cap on the
// equity fraction deployed into a single position.
package risk

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidRiskGeometry is returned when the entry/stop relationship cannot
// support a long position: stop at or above entry, or a non-positive entry.
var ErrInvalidRiskGeometry = errors.New("risk: invalid risk geometry")

// Constraint identifies which sizing rule bound the final quantity.
type Constraint string

const (
	ConstraintRisk     Constraint = "risk"     // 2%-rule quantity was smaller
	ConstraintPosition Constraint = "position" // 10%-rule quantity was smaller
	ConstraintEqual    Constraint = "equal"    // both rules agreed
)

// Params holds the sizing limits as fractions of portfolio equity.
type Params struct {
	RiskPct        float64 // max fraction of equity risked per trade
	MaxPositionPct float64 // max fraction of equity in one position
}

// DefaultParams returns the strategy's published limits: risk 2% of equity
// per trade, deploy at most 10% of equity per position.
func DefaultParams() Params {
	return Params{RiskPct: 0.02, MaxPositionPct: 0.10}
}

// Plan is a sized trade intent. Quantity 0 is a valid plan meaning "no
// trade": the screen passed but no whole-share position fits the limits.
type Plan struct {
	Instrument string

	Entry  float64
	Stop   float64
	Target float64

	Quantity      int64
	PositionValue float64
	MaxLoss       float64
	MaxProfit     float64

	// Binding records which constraint produced Quantity. Reporting
	// metadata only; nothing downstream branches on it.
	Binding Constraint
}

// Viable reports whether the plan opens an actual position.
func (p Plan) Viable() bool {
	return p.Quantity > 0
}

// Size computes the share quantity for a long setup.
//
//	qtyByRisk     = floor(equity * RiskPct / (entry - stop))
//	qtyByPosition = floor(equity * MaxPositionPct / entry)
//	quantity      = min(qtyByRisk, qtyByPosition)
//
// Fractional shares are not permitted; quantities floor toward zero and are
// never negative.
func Size(instrument string, entry, stop, target, equity float64, p Params) (Plan, error) {
	if entry <= 0 {
		return Plan{}, fmt.Errorf("%w: entry %.2f must be positive", ErrInvalidRiskGeometry, entry)
	}
	riskPerShare := entry - stop
	if riskPerShare <= 0 {
		return Plan{}, fmt.Errorf("%w: stop %.2f not below entry %.2f",
			ErrInvalidRiskGeometry, stop, entry)
	}
	if equity < 0 {
		equity = 0
	}

	qtyByRisk := int64(math.Floor(equity * p.RiskPct / riskPerShare))
	qtyByPosition := int64(math.Floor(equity * p.MaxPositionPct / entry))

	plan := Plan{
		Instrument: instrument,
		Entry:      entry,
		Stop:       stop,
		Target:     target,
	}

	switch {
	case qtyByRisk < qtyByPosition:
		plan.Quantity = qtyByRisk
		plan.Binding = ConstraintRisk
	case qtyByPosition < qtyByRisk:
		plan.Quantity = qtyByPosition
		plan.Binding = ConstraintPosition
	default:
		plan.Quantity = qtyByRisk
		plan.Binding = ConstraintEqual
	}
	if plan.Quantity < 0 {
		plan.Quantity = 0
	}

	q := float64(plan.Quantity)
	plan.PositionValue = q * entry
	plan.MaxLoss = q * riskPerShare
	plan.MaxProfit = q * (target - entry)
	return plan, nil
}
