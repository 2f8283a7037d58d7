// Package marketdata loads daily OHLCV history and universe metadata from
// disk. Series files are plain CSV, optionally xz-compressed, one file per
// instrument.
package marketdata

import (
	"archive/zip"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/ulikunitz/xz"

	"github.com/rkapoor/screener/market"
)

// LoadCSV reads one instrument's daily bars. Expected columns:
//
//	date,open,high,low,close,volume
//
// with date formatted 2006-01-02. A header row is allowed. Files ending in
// .xz are decompressed transparently; .zip archives (the format bhavcopy
// downloads ship in) are read from their first .csv entry.
func LoadCSV(path, instrument string) (*market.Series, error) {
	if strings.HasSuffix(path, ".zip") {
		return loadZip(path, instrument)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var rd io.Reader = f
	if strings.HasSuffix(path, ".xz") {
		xr, err := xz.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		rd = xr
	}

	return seriesFrom(rd, path, instrument)
}

func loadZip(path, instrument string) (*market.Series, error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	defer zr.Close()

	for _, zf := range zr.File {
		if !strings.HasSuffix(strings.ToLower(zf.Name), ".csv") {
			continue
		}
		rc, err := zf.Open()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", path, err)
		}
		s, err := seriesFrom(rc, path, instrument)
		rc.Close()
		return s, err
	}
	return nil, fmt.Errorf("%s: no .csv entry in archive", path)
}

func seriesFrom(rd io.Reader, path, instrument string) (*market.Series, error) {
	bars, err := readBars(rd)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	s, err := market.NewSeries(instrument, bars)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func readBars(rd io.Reader) ([]market.Bar, error) {
	r := csv.NewReader(rd)
	r.FieldsPerRecord = -1

	var (
		bars     []market.Bar
		sawFirst bool
	)
	for {
		row, err := r.Read()
		if err == io.EOF {
			return bars, nil
		}
		if err != nil {
			return nil, err
		}
		if len(row) == 0 {
			continue
		}

		// Allow a single header row.
		if !sawFirst {
			sawFirst = true
			if strings.EqualFold(strings.TrimSpace(row[0]), "date") {
				continue
			}
		}

		b, ok, err := parseBarRow(row)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		bars = append(bars, b)
	}
}

func parseBarRow(row []string) (market.Bar, bool, error) {
	// Need at least: date,open,high,low,close
	if len(row) < 5 {
		return market.Bar{}, false, nil
	}

	date, err := time.ParseInLocation(market.DateLayout, strings.TrimSpace(row[0]), time.UTC)
	if err != nil {
		return market.Bar{}, false, fmt.Errorf("bad date %q: %w", row[0], err)
	}

	vals := make([]float64, 4)
	for i := 0; i < 4; i++ {
		v, err := strconv.ParseFloat(strings.TrimSpace(row[i+1]), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad field %q: %w", row[i+1], err)
		}
		vals[i] = v
	}

	var volume float64
	if len(row) >= 6 && strings.TrimSpace(row[5]) != "" {
		volume, err = strconv.ParseFloat(strings.TrimSpace(row[5]), 64)
		if err != nil {
			return market.Bar{}, false, fmt.Errorf("bad volume %q: %w", row[5], err)
		}
	}

	return market.Bar{
		Date:   date,
		Open:   vals[0],
		High:   vals[1],
		Low:    vals[2],
		Close:  vals[3],
		Volume: volume,
	}, true, nil
}

// Dir serves series out of a directory laid out as <dir>/<SYMBOL>.csv or
// <dir>/<SYMBOL>.csv.xz. Loaded series are cached. Safe for concurrent use:
// the pipeline calls Series from parallel goroutines.
type Dir struct {
	root string

	mu    sync.Mutex
	cache map[string]*market.Series
}

func NewDir(root string) *Dir {
	return &Dir{root: root, cache: map[string]*market.Series{}}
}

// Series loads the instrument's history, preferring the uncompressed file
// when both exist.
func (d *Dir) Series(instrument string) (*market.Series, error) {
	d.mu.Lock()
	s, ok := d.cache[instrument]
	d.mu.Unlock()
	if ok {
		return s, nil
	}

	for _, name := range []string{instrument + ".csv", instrument + ".csv.xz", instrument + ".csv.zip"} {
		path := filepath.Join(d.root, name)
		if _, err := os.Stat(path); err != nil {
			continue
		}
		s, err := LoadCSV(path, instrument)
		if err != nil {
			return nil, err
		}
		d.mu.Lock()
		d.cache[instrument] = s
		d.mu.Unlock()
		return s, nil
	}
	return nil, fmt.Errorf("no data file for %s under %s", instrument, d.root)
}

// Symbols lists the instruments available in the directory, sorted.
func (d *Dir) Symbols() ([]string, error) {
	entries, err := os.ReadDir(d.root)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.TrimSuffix(strings.TrimSuffix(e.Name(), ".xz"), ".zip")
		if !strings.HasSuffix(name, ".csv") {
			continue
		}
		seen[strings.TrimSuffix(name, ".csv")] = true
	}

	out := make([]string, 0, len(seen))
	for sym := range seen {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out, nil
}
