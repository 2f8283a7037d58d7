package marketdata

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcherDownloadsAndSkips(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/INFY.csv":
			w.Write([]byte(sampleCSV))
		case "/SBIN.csv":
			w.Write([]byte("2023-01-02,50,52,49,51,100\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(srv.Close)

	dir := t.TempDir()
	// Already on disk, should not be re-fetched.
	writeFile(t, filepath.Join(dir, "SBIN.csv"), "existing\n")

	f := &Fetcher{
		Base:    srv.URL,
		OutDir:  dir,
		Workers: 2,
		Log:     zerolog.Nop(),
	}

	res, err := f.Fetch(context.Background(), []string{"INFY", "SBIN", "DELISTED"})
	require.NoError(t, err)

	assert.Equal(t, 1, res.Fetched)
	assert.Equal(t, 1, res.Skipped)
	assert.Equal(t, 1, res.Missing)
	assert.Zero(t, res.Failed)

	data, err := os.ReadFile(filepath.Join(dir, "INFY.csv"))
	require.NoError(t, err)
	assert.Equal(t, sampleCSV, string(data))

	// The skipped file keeps its original contents.
	data, err = os.ReadFile(filepath.Join(dir, "SBIN.csv"))
	require.NoError(t, err)
	assert.Equal(t, "existing\n", string(data))

	// No partial downloads left behind.
	matches, err := filepath.Glob(filepath.Join(dir, "*.part"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestFetcherServerError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	t.Cleanup(srv.Close)

	f := &Fetcher{Base: srv.URL, OutDir: t.TempDir(), Log: zerolog.Nop()}

	res, err := f.Fetch(context.Background(), []string{"INFY"})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Failed)
}

func TestFetcherRequiresBase(t *testing.T) {
	t.Parallel()

	f := &Fetcher{OutDir: t.TempDir(), Log: zerolog.Nop()}
	_, err := f.Fetch(context.Background(), []string{"INFY"})
	assert.Error(t, err)
}
