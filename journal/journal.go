// Package journal persists screening evaluations and simulated trades so
// that runs can be compared after the fact. Two backends are provided:
// SQLite for querying and CSV for spreadsheet export.
package journal

import (
	"time"

	"github.com/rkapoor/screener/internal/id"
	"github.com/rkapoor/screener/screen"
	"github.com/rkapoor/screener/sim"
)

// TradeRecord is the persisted form of a closed simulated trade. The ID is
// assigned here, not by the simulator, so simulation output stays
// reproducible.
type TradeRecord struct {
	TradeID     string
	Instrument  string
	Quantity    int64
	EntryPrice  float64
	ExitPrice   float64
	EntryDate   time.Time
	ExitDate    time.Time
	RealizedPL  float64
	HoldingDays int
	Reason      string
}

// ScreenRecord captures one instrument evaluation on one date.
type ScreenRecord struct {
	ScreenID       string
	Instrument     string
	AsOf           time.Time
	Passed         bool
	Degraded       bool
	MarketCapCrore float64
	Price          float64
	YearLow        float64
	YearHigh       float64
	MonthRangePos  float64
	Entry          float64
	Stop           float64
	Target         float64
}

type Journal interface {
	RecordScreen(ScreenRecord) error
	RecordTrade(TradeRecord) error
	Close() error
}

// NewTradeRecord assigns a fresh ULID to a closed trade.
func NewTradeRecord(t sim.Trade) TradeRecord {
	return TradeRecord{
		TradeID:     id.New(),
		Instrument:  t.Instrument,
		Quantity:    t.Quantity,
		EntryPrice:  t.EntryPrice,
		ExitPrice:   t.ExitPrice,
		EntryDate:   t.EntryDate,
		ExitDate:    t.ExitDate,
		RealizedPL:  t.RealizedPL,
		HoldingDays: t.HoldingDays,
		Reason:      string(t.Reason),
	}
}

// NewScreenRecord assigns a fresh ULID to a screening result.
func NewScreenRecord(r screen.Result) ScreenRecord {
	return ScreenRecord{
		ScreenID:       id.New(),
		Instrument:     r.Instrument,
		AsOf:           r.AsOf,
		Passed:         r.Passed,
		Degraded:       r.Degraded,
		MarketCapCrore: r.MarketCapCrore,
		Price:          r.CurrentPrice,
		YearLow:        r.Low52W,
		YearHigh:       r.High52W,
		MonthRangePos:  r.MonthlyRangePos,
		Entry:          r.Entry,
		Stop:           r.Stop,
		Target:         r.Target,
	}
}
