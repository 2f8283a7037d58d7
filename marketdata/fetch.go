package marketdata

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// Fetcher mirrors per-symbol daily CSV files from an HTTP endpoint into a
// local data directory. Existing non-empty files are kept, so re-running a
// fetch only fills gaps.
type Fetcher struct {
	Base    string // endpoint serving <base>/<SYMBOL>.csv
	OutDir  string
	Workers int
	Sleep   time.Duration // polite delay per request
	Client  *http.Client
	Log     zerolog.Logger
}

// FetchResult tallies one fetch run.
type FetchResult struct {
	Fetched int
	Skipped int
	Missing int
	Failed  int
}

// Fetch downloads every symbol concurrently and returns the tally. Failures
// are counted and logged, not fatal, so one bad symbol cannot abort a
// universe-wide fetch.
func (f *Fetcher) Fetch(ctx context.Context, symbols []string) (FetchResult, error) {
	if f.Base == "" {
		return FetchResult{}, fmt.Errorf("fetch: no base URL")
	}
	workers := f.Workers
	if workers <= 0 {
		workers = 4
	}
	client := f.Client
	if client == nil {
		client = &http.Client{Timeout: 45 * time.Second}
	}
	if err := os.MkdirAll(f.OutDir, 0o755); err != nil {
		return FetchResult{}, err
	}

	var (
		jobCh = make(chan string)
		wg    sync.WaitGroup
		mu    sync.Mutex
		res   FetchResult
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sym := range jobCh {
				if f.Sleep > 0 {
					time.Sleep(f.Sleep)
				}

				url := strings.TrimRight(f.Base, "/") + "/" + sym + ".csv"
				dst := filepath.Join(f.OutDir, sym+".csv")

				downloaded, status, err := downloadIfMissing(ctx, client, url, dst)
				mu.Lock()
				switch {
				case err != nil:
					res.Failed++
					f.Log.Warn().Str("symbol", sym).Err(err).Msg("fetch failed")
				case status == http.StatusNotFound:
					res.Missing++
					f.Log.Debug().Str("symbol", sym).Msg("no data at source")
				case downloaded:
					res.Fetched++
					f.Log.Debug().Str("symbol", sym).Msg("fetched")
				default:
					res.Skipped++
				}
				mu.Unlock()
			}
		}()
	}

	for _, sym := range symbols {
		select {
		case jobCh <- sym:
		case <-ctx.Done():
			close(jobCh)
			wg.Wait()
			return res, ctx.Err()
		}
	}
	close(jobCh)
	wg.Wait()

	return res, nil
}

func downloadIfMissing(ctx context.Context, client *http.Client, url, dst string) (downloaded bool, status int, err error) {
	if st, err := os.Stat(dst); err == nil && st.Size() > 0 {
		return false, http.StatusOK, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false, 0, err
	}

	resp, err := client.Do(req)
	if err != nil {
		return false, 0, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, http.StatusNotFound, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return false, resp.StatusCode, fmt.Errorf("http status %d", resp.StatusCode)
	}

	tmp := dst + ".part"
	f, err := os.Create(tmp)
	if err != nil {
		return false, resp.StatusCode, err
	}
	_, copyErr := io.Copy(f, resp.Body)
	closeErr := f.Close()
	if copyErr != nil {
		_ = os.Remove(tmp)
		return false, resp.StatusCode, copyErr
	}
	if closeErr != nil {
		_ = os.Remove(tmp)
		return false, resp.StatusCode, closeErr
	}

	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return false, resp.StatusCode, err
	}
	return true, resp.StatusCode, nil
}
