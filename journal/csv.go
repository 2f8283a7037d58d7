package journal

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rkapoor/screener/market"
)

type CSVJournal struct {
	trades  *csv.Writer
	screens *csv.Writer
	tf, sf  *os.File
}

func NewCSV(tradesPath, screensPath string) (*CSVJournal, error) {
	tf, err := os.Create(tradesPath)
	if err != nil {
		return nil, err
	}
	sf, err := os.Create(screensPath)
	if err != nil {
		tf.Close()
		return nil, err
	}

	tw := csv.NewWriter(tf)
	sw := csv.NewWriter(sf)

	if err := tw.Write([]string{"trade_id", "instrument", "quantity", "entry_price", "exit_price", "entry_date", "exit_date", "realized_pl", "holding_days", "reason"}); err != nil {
		return nil, err
	}
	if err := sw.Write([]string{"screen_id", "instrument", "as_of", "passed", "degraded", "market_cap_crore", "price", "year_low", "year_high", "month_range_pos", "entry", "stop", "target"}); err != nil {
		return nil, err
	}

	tw.Flush()
	if err := tw.Error(); err != nil {
		return nil, err
	}
	sw.Flush()
	if err := sw.Error(); err != nil {
		return nil, err
	}

	return &CSVJournal{tw, sw, tf, sf}, nil
}

func (j *CSVJournal) RecordTrade(t TradeRecord) error {
	err := j.trades.Write([]string{
		t.TradeID,
		t.Instrument,
		strconv.FormatInt(t.Quantity, 10),
		f(t.EntryPrice),
		f(t.ExitPrice),
		t.EntryDate.Format(market.DateLayout),
		t.ExitDate.Format(market.DateLayout),
		f(t.RealizedPL),
		strconv.Itoa(t.HoldingDays),
		t.Reason,
	})
	if err != nil {
		return err
	}
	j.trades.Flush()
	return j.trades.Error()
}

func (j *CSVJournal) RecordScreen(r ScreenRecord) error {
	err := j.screens.Write([]string{
		r.ScreenID,
		r.Instrument,
		r.AsOf.Format(market.DateLayout),
		strconv.FormatBool(r.Passed),
		strconv.FormatBool(r.Degraded),
		f(r.MarketCapCrore),
		f(r.Price),
		f(r.YearLow),
		f(r.YearHigh),
		f(r.MonthRangePos),
		f(r.Entry),
		f(r.Stop),
		f(r.Target),
	})
	if err != nil {
		return err
	}
	j.screens.Flush()
	return j.screens.Error()
}

func (j *CSVJournal) Close() error {
	j.trades.Flush()
	if err := j.trades.Error(); err != nil {
		return err
	}
	j.screens.Flush()
	if err := j.screens.Error(); err != nil {
		return err
	}

	if err := j.tf.Close(); err != nil {
		return err
	}
	return j.sf.Close()
}

func f(x float64) string {
	return strconv.FormatFloat(x, 'f', 4, 64)
}
