package sim

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rkapoor/screener/market"
	"github.com/rkapoor/screener/risk"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// bar builds a single daily bar; successive calls in tests advance over
// weekdays only via mkSeries.
func mkSeries(t *testing.T, ohlc [][4]float64) *market.Series {
	t.Helper()
	bars := make([]market.Bar, 0, len(ohlc))
	d := day(2023, 3, 6) // a Monday
	for _, v := range ohlc {
		for d.Weekday() == time.Saturday || d.Weekday() == time.Sunday {
			d = d.AddDate(0, 0, 1)
		}
		bars = append(bars, market.Bar{
			Date: d, Open: v[0], High: v[1], Low: v[2], Close: v[3], Volume: 1,
		})
		d = d.AddDate(0, 0, 1)
	}
	s, err := market.NewSeries("TEST", bars)
	require.NoError(t, err)
	return s
}

func plan(qty int64, entry, stop, target float64) risk.Plan {
	return risk.Plan{
		Instrument: "TEST",
		Entry:      entry,
		Stop:       stop,
		Target:     target,
		Quantity:   qty,
	}
}

func TestRunStopHit(t *testing.T) {
	t.Parallel()

	s := mkSeries(t, [][4]float64{
		{100, 101, 99, 100}, // signal bar, entry at close 100
		{100, 102, 96, 97},  // next day trades through the 98 stop
	})

	tr, err := New(Config{}).Run(plan(10, 100, 98, 110), s, 0)
	require.NoError(t, err)

	assert.Equal(t, ExitStop, tr.Reason)
	assert.Equal(t, 98.0, tr.ExitPrice)
	assert.Equal(t, 100.0, tr.EntryPrice)
	assert.Equal(t, -20.0, tr.RealizedPL)
	assert.Equal(t, 2, tr.HoldingDays)
	assert.Equal(t, s.At(1).Date, tr.ExitDate)
}

func TestRunTargetHit(t *testing.T) {
	t.Parallel()

	s := mkSeries(t, [][4]float64{
		{100, 101, 99, 100},
		{101, 103, 100, 102},
		{103, 111, 102, 109}, // high reaches the 110 target
	})

	tr, err := New(Config{}).Run(plan(5, 100, 95, 110), s, 0)
	require.NoError(t, err)

	assert.Equal(t, ExitTarget, tr.Reason)
	assert.Equal(t, 110.0, tr.ExitPrice)
	assert.Equal(t, 50.0, tr.RealizedPL)
	assert.Equal(t, 3, tr.HoldingDays)
}

func TestRunGapThroughPrefersStop(t *testing.T) {
	t.Parallel()

	// One wild bar breaches both the stop and the target.
	s := mkSeries(t, [][4]float64{
		{100, 101, 99, 100},
		{100, 115, 90, 105}, // low 90 <= stop 95, high 115 >= target 110
	})

	tr, err := New(Config{}).Run(plan(10, 100, 95, 110), s, 0)
	require.NoError(t, err)

	assert.Equal(t, ExitStop, tr.Reason, "stop takes priority on gap-through bars")
	assert.Equal(t, 95.0, tr.ExitPrice)
}

func TestRunEndOfData(t *testing.T) {
	t.Parallel()

	s := mkSeries(t, [][4]float64{
		{100, 101, 99, 100},
		{100, 102, 99, 101},
		{101, 103, 100, 102}, // never reaches stop 90 or target 120
	})

	tr, err := New(Config{}).Run(plan(10, 100, 90, 120), s, 0)
	require.NoError(t, err)

	assert.Equal(t, ExitEndOfData, tr.Reason)
	assert.Equal(t, 102.0, tr.ExitPrice, "end_of_data exits at the last close")
	assert.Equal(t, s.Last().Date, tr.ExitDate)
	assert.Equal(t, 3, tr.HoldingDays)
	assert.Equal(t, 20.0, tr.RealizedPL)
}

func TestRunSignalOnLastBar(t *testing.T) {
	t.Parallel()

	s := mkSeries(t, [][4]float64{{100, 101, 99, 100}})

	tr, err := New(Config{}).Run(plan(1, 100, 90, 120), s, 0)
	require.NoError(t, err)

	assert.Equal(t, ExitEndOfData, tr.Reason)
	assert.Equal(t, 0.0, tr.RealizedPL)
	assert.Equal(t, 1, tr.HoldingDays)
	assert.False(t, tr.ExitDate.Before(tr.EntryDate))
}

func TestRunTimeExit(t *testing.T) {
	t.Parallel()

	ohlc := make([][4]float64, 10)
	for i := range ohlc {
		ohlc[i] = [4]float64{100, 101, 99, 100}
	}
	s := mkSeries(t, ohlc)

	tr, err := New(Config{MaxHoldingDays: 4}).Run(plan(10, 100, 90, 120), s, 0)
	require.NoError(t, err)

	assert.Equal(t, ExitTime, tr.Reason)
	assert.Equal(t, 4, tr.HoldingDays)
	assert.Equal(t, 100.0, tr.ExitPrice)
}

func TestRunNextOpenEntry(t *testing.T) {
	t.Parallel()

	s := mkSeries(t, [][4]float64{
		{100, 101, 99, 100},  // signal bar
		{104, 106, 94, 96},   // entry at open 104; same day's low hits the stop
	})

	tr, err := New(Config{EntrySource: EntryNextOpen}).Run(plan(10, 100, 95, 120), s, 0)
	require.NoError(t, err)

	assert.Equal(t, 104.0, tr.EntryPrice)
	assert.Equal(t, s.At(1).Date, tr.EntryDate)
	assert.Equal(t, ExitStop, tr.Reason)
	assert.Equal(t, 1, tr.HoldingDays)

	t.Run("no next bar", func(t *testing.T) {
		t.Parallel()
		short := mkSeries(t, [][4]float64{{100, 101, 99, 100}})
		_, err := New(Config{EntrySource: EntryNextOpen}).Run(plan(10, 100, 95, 120), short, 0)
		assert.ErrorIs(t, err, ErrNoForwardData)
	})
}

func TestRunRejectsNonViablePlan(t *testing.T) {
	t.Parallel()

	s := mkSeries(t, [][4]float64{{100, 101, 99, 100}})
	_, err := New(Config{}).Run(plan(0, 100, 90, 120), s, 0)
	assert.Error(t, err)
}

func TestRunDeterministic(t *testing.T) {
	t.Parallel()

	s := mkSeries(t, [][4]float64{
		{100, 101, 99, 100},
		{101, 109, 97, 105},
		{105, 121, 104, 118},
	})
	p := plan(7, 100, 98, 120)

	first, err := New(Config{}).Run(p, s, 0)
	require.NoError(t, err)
	second, err := New(Config{}).Run(p, s, 0)
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
