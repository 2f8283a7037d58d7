package journal

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCSVJournalWritesRows(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	tradesPath := filepath.Join(dir, "trades.csv")
	screensPath := filepath.Join(dir, "screens.csv")

	j, err := NewCSV(tradesPath, screensPath)
	require.NoError(t, err)

	exit := time.Date(2023, 7, 14, 0, 0, 0, 0, time.UTC)
	require.NoError(t, j.RecordTrade(TradeRecord{
		TradeID:     "T1",
		Instrument:  "TATASTEEL",
		Quantity:    10,
		EntryPrice:  100,
		ExitPrice:   125,
		EntryDate:   exit.AddDate(0, 0, -5),
		ExitDate:    exit,
		RealizedPL:  250,
		HoldingDays: 6,
		Reason:      "target_hit",
	}))
	require.NoError(t, j.RecordScreen(ScreenRecord{
		ScreenID: "S1", Instrument: "TATASTEEL",
		AsOf: exit, Passed: true, Price: 125,
	}))
	require.NoError(t, j.Close())

	tf, err := os.Open(tradesPath)
	require.NoError(t, err)
	defer tf.Close()

	rows, err := csv.NewReader(tf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "trade_id", rows[0][0])
	assert.Equal(t, "T1", rows[1][0])
	assert.Equal(t, "TATASTEEL", rows[1][1])
	assert.Equal(t, "10", rows[1][2])
	assert.Equal(t, "2023-07-14", rows[1][6])
	assert.Equal(t, "target_hit", rows[1][9])

	sf, err := os.Open(screensPath)
	require.NoError(t, err)
	defer sf.Close()

	srows, err := csv.NewReader(sf).ReadAll()
	require.NoError(t, err)
	require.Len(t, srows, 2)
	assert.Equal(t, "S1", srows[1][0])
	assert.Equal(t, "true", srows[1][3])
}
