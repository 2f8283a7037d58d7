package marketdata

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ulikunitz/xz"

	"github.com/rkapoor/screener/market"
)

const sampleCSV = `date,open,high,low,close,volume
2023-01-02,100,102,99,101,15000
2023-01-03,101,104,100,103,18000
2023-01-04,103,103.5,101,102,9000
`

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func writeXZ(t *testing.T, path, content string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	w, err := xz.NewWriter(f)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func TestLoadCSV(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "INFY.csv")
	writeFile(t, path, sampleCSV)

	s, err := LoadCSV(path, "INFY")
	require.NoError(t, err)

	assert.Equal(t, "INFY", s.Instrument)
	require.Equal(t, 3, s.Len())

	first := s.First()
	assert.True(t, first.Date.Equal(time.Date(2023, 1, 2, 0, 0, 0, 0, time.UTC)))
	assert.InDelta(t, 100, first.Open, 1e-9)
	assert.InDelta(t, 15000, first.Volume, 1e-9)
	assert.InDelta(t, 102, s.Last().Close, 1e-9)
}

func TestLoadCSVNoHeader(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "SBIN.csv")
	writeFile(t, path, "2023-01-02,50,52,49,51,100\n2023-01-03,51,53,50,52,200\n")

	s, err := LoadCSV(path, "SBIN")
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())
}

func TestLoadCSVCompressed(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "INFY.csv.xz")
	writeXZ(t, path, sampleCSV)

	s, err := LoadCSV(path, "INFY")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
	assert.InDelta(t, 102, s.Last().Close, 1e-9)
}

func writeZip(t *testing.T, path, entry, content string) {
	t.Helper()

	f, err := os.Create(path)
	require.NoError(t, err)

	zw := zip.NewWriter(f)
	w, err := zw.Create(entry)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())
}

func TestLoadCSVZipArchive(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "INFY.csv.zip")
	writeZip(t, path, "EQ_BHAV.CSV", sampleCSV)

	s, err := LoadCSV(path, "INFY")
	require.NoError(t, err)
	assert.Equal(t, 3, s.Len())
}

func TestLoadCSVZipWithoutCSVEntry(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "INFY.csv.zip")
	writeZip(t, path, "readme.txt", "nothing here")

	_, err := LoadCSV(path, "INFY")
	assert.ErrorContains(t, err, "no .csv entry")
}

func TestLoadCSVRejectsHeaderOnlyFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "EMPTY.csv")
	writeFile(t, path, "date,open,high,low,close,volume\n")

	_, err := LoadCSV(path, "EMPTY")
	assert.ErrorIs(t, err, market.ErrMalformedSeries)
}

func TestLoadCSVRejectsUnsortedDates(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "BAD.csv")
	writeFile(t, path, "2023-01-03,50,52,49,51,100\n2023-01-02,51,53,50,52,200\n")

	_, err := LoadCSV(path, "BAD")
	assert.Error(t, err)
}

func TestLoadCSVBadNumber(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "BAD.csv")
	writeFile(t, path, "2023-01-02,50,xx,49,51,100\n")

	_, err := LoadCSV(path, "BAD")
	assert.ErrorContains(t, err, "bad field")
}

func TestDirSeriesAndSymbols(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "INFY.csv"), sampleCSV)
	writeXZ(t, filepath.Join(dir, "SBIN.csv.xz"), "2023-01-02,50,52,49,51,100\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignore me")

	d := NewDir(dir)

	syms, err := d.Symbols()
	require.NoError(t, err)
	assert.Equal(t, []string{"INFY", "SBIN"}, syms)

	s, err := d.Series("SBIN")
	require.NoError(t, err)
	assert.Equal(t, 1, s.Len())

	again, err := d.Series("SBIN")
	require.NoError(t, err)
	assert.Same(t, s, again)

	_, err = d.Series("MISSING")
	assert.ErrorContains(t, err, "no data file")
}

func TestDirSeriesConcurrent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	symbols := []string{"INFY", "SBIN", "TATASTEEL", "WIPRO"}
	for _, sym := range symbols {
		writeFile(t, filepath.Join(dir, sym+".csv"), sampleCSV)
	}

	d := NewDir(dir)

	// The pipeline hits the cache from parallel goroutines; every call
	// must come back consistent.
	var wg sync.WaitGroup
	errs := make(chan error, 32*len(symbols))
	for i := 0; i < 32; i++ {
		for _, sym := range symbols {
			sym := sym
			wg.Add(1)
			go func() {
				defer wg.Done()
				s, err := d.Series(sym)
				if err != nil {
					errs <- err
					return
				}
				if s.Len() != 3 {
					errs <- fmt.Errorf("%s: got %d bars", sym, s.Len())
				}
			}()
		}
	}
	wg.Wait()
	close(errs)

	for err := range errs {
		assert.NoError(t, err)
	}

	for _, sym := range symbols {
		s, err := d.Series(sym)
		require.NoError(t, err)
		again, err := d.Series(sym)
		require.NoError(t, err)
		assert.Same(t, s, again)
	}
}
