package journal

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

type SQLite struct {
	db *sql.DB
}

func NewSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("journal schema: %w", err)
	}

	return &SQLite{db: db}, nil
}

func (j *SQLite) RecordTrade(t TradeRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO trades
		(trade_id, instrument, quantity, entry_price, exit_price, entry_date, exit_date, realized_pl, holding_days, reason)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		t.TradeID, t.Instrument, t.Quantity, t.EntryPrice, t.ExitPrice,
		t.EntryDate, t.ExitDate, t.RealizedPL, t.HoldingDays, t.Reason,
	)
	return err
}

func (j *SQLite) RecordScreen(r ScreenRecord) error {
	_, err := j.db.Exec(`
		INSERT INTO screens
		(screen_id, instrument, as_of, passed, degraded, market_cap_crore, price, year_low, year_high, month_range_pos, entry, stop, target)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		r.ScreenID, r.Instrument, r.AsOf, r.Passed, r.Degraded,
		r.MarketCapCrore, r.Price, r.YearLow, r.YearHigh,
		r.MonthRangePos, r.Entry, r.Stop, r.Target,
	)
	return err
}

func (j *SQLite) Close() error {
	return j.db.Close()
}
