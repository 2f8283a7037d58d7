package journal

import (
	"database/sql"
	"fmt"
	"time"
)

const tradeColumns = `trade_id, instrument, quantity, entry_price, exit_price, entry_date, exit_date, realized_pl, holding_days, reason`

// GetTrade returns a single trade record by ID.
func (j *SQLite) GetTrade(tradeID string) (TradeRecord, error) {
	row := j.db.QueryRow(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE trade_id = ?`, tradeID)

	rec, err := scanTrade(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return TradeRecord{}, fmt.Errorf("trade %q not found", tradeID)
		}
		return TradeRecord{}, err
	}
	return rec, nil
}

// ListTradesByInstrument returns the instrument's trades in exit order.
func (j *SQLite) ListTradesByInstrument(instrument string) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE instrument = ?
		ORDER BY exit_date ASC, trade_id ASC`, instrument)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// ListTradesClosedBetween returns trades whose exit_date is within [start, end).
func (j *SQLite) ListTradesClosedBetween(start, end time.Time) ([]TradeRecord, error) {
	rows, err := j.db.Query(`
		SELECT `+tradeColumns+`
		FROM trades
		WHERE exit_date >= ? AND exit_date < ?
		ORDER BY exit_date ASC, trade_id ASC`, start, end)
	if err != nil {
		return nil, err
	}
	return collectTrades(rows)
}

// CountTradesByReason returns how many trades closed for each exit reason.
func (j *SQLite) CountTradesByReason() (map[string]int, error) {
	rows, err := j.db.Query(`SELECT reason, COUNT(*) FROM trades GROUP BY reason`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]int{}
	for rows.Next() {
		var reason string
		var n int
		if err := rows.Scan(&reason, &n); err != nil {
			return nil, err
		}
		out[reason] = n
	}
	return out, rows.Err()
}

// ListPassedScreens returns qualifying screen records for a given date.
func (j *SQLite) ListPassedScreens(asOf time.Time) ([]ScreenRecord, error) {
	rows, err := j.db.Query(`
		SELECT screen_id, instrument, as_of, passed, degraded, market_cap_crore, price, year_low, year_high, month_range_pos, entry, stop, target
		FROM screens
		WHERE as_of = ? AND passed = 1
		ORDER BY instrument ASC`, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []ScreenRecord
	for rows.Next() {
		var rec ScreenRecord
		if err := rows.Scan(
			&rec.ScreenID, &rec.Instrument, &rec.AsOf, &rec.Passed, &rec.Degraded,
			&rec.MarketCapCrore, &rec.Price, &rec.YearLow, &rec.YearHigh,
			&rec.MonthRangePos, &rec.Entry, &rec.Stop, &rec.Target,
		); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTrade(row rowScanner) (TradeRecord, error) {
	var rec TradeRecord
	err := row.Scan(
		&rec.TradeID,
		&rec.Instrument,
		&rec.Quantity,
		&rec.EntryPrice,
		&rec.ExitPrice,
		&rec.EntryDate,
		&rec.ExitDate,
		&rec.RealizedPL,
		&rec.HoldingDays,
		&rec.Reason,
	)
	return rec, err
}

func collectTrades(rows *sql.Rows) ([]TradeRecord, error) {
	defer rows.Close()

	var out []TradeRecord
	for rows.Next() {
		rec, err := scanTrade(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
