package fetch

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/wallthemes/internal/httpclient"
)

var packageBytes = []byte("PK\x03\x04 not really a zip but good enough")

func testClient() *httpclient.Client {
	cfg := httpclient.DefaultConfig()
	cfg.RetryAttempts = 0
	return httpclient.New(cfg)
}

func sha256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

func TestHTTPFetcher_ContentDisposition(t *testing.T) {
	modified := time.Date(2023, 5, 17, 8, 30, 0, 0, time.UTC)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Disposition", `attachment; filename="Mountain_Lake.ddw"`)
		w.Header().Set("Last-Modified", modified.Format(http.TimeFormat))
		w.Write(packageBytes)
	}))
	defer server.Close()

	dest := t.TempDir()
	pkg, err := NewHTTPFetcher(testClient(), 0, nil).Fetch(context.Background(), server.URL+"/download?id=7", dest)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "Mountain_Lake.ddw"), pkg.Path)
	assert.Equal(t, int64(len(packageBytes)), pkg.Size)
	assert.Equal(t, sha256Hex(packageBytes), pkg.Hash)
	assert.True(t, modified.Equal(pkg.LastModified))

	data, err := os.ReadFile(pkg.Path)
	require.NoError(t, err)
	assert.Equal(t, packageBytes, data)
}

func TestHTTPFetcher_URLPathFallback(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Last-Modified", "Wed, 21 Oct 2015 07:28:00 GMT")
		w.Write(packageBytes)
	}))
	defer server.Close()

	dest := t.TempDir()
	pkg, err := NewHTTPFetcher(testClient(), 0, nil).Fetch(context.Background(), server.URL+"/files/Desert%20Dunes.ddw", dest)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dest, "Desert Dunes.ddw"), pkg.Path)
	assert.Equal(t, 2015, pkg.LastModified.Year())
}

func TestHTTPFetcher_MissingLastModified(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(packageBytes)
	}))
	defer server.Close()

	fixed := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	f := NewHTTPFetcher(testClient(), 0, nil)
	f.now = func() time.Time { return fixed }

	pkg, err := f.Fetch(context.Background(), server.URL+"/theme.ddw", t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, fixed, pkg.LastModified)
}

func TestHTTPFetcher_BadExtension(t *testing.T) {
	tests := []struct {
		name        string
		disposition string
		path        string
	}{
		{"html landing page", "", "/themes/view/42"},
		{"zip attachment", `attachment; filename="theme.zip"`, "/theme.ddw"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tt.disposition != "" {
					w.Header().Set("Content-Disposition", tt.disposition)
				}
				w.Write([]byte("<html></html>"))
			}))
			defer server.Close()

			dest := t.TempDir()
			_, err := NewHTTPFetcher(testClient(), 0, nil).Fetch(context.Background(), server.URL+tt.path, dest)
			assert.ErrorIs(t, err, ErrBadExtension)

			entries, err := os.ReadDir(dest)
			require.NoError(t, err)
			assert.Empty(t, entries)
		})
	}
}

func TestHTTPFetcher_TooLarge(t *testing.T) {
	t.Run("declared length", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write(packageBytes)
		}))
		defer server.Close()

		_, err := NewHTTPFetcher(testClient(), 8, nil).Fetch(context.Background(), server.URL+"/t.ddw", t.TempDir())
		assert.ErrorIs(t, err, ErrTooLarge)
	})

	t.Run("streamed body", func(t *testing.T) {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusOK)
			w.Write(packageBytes)
			w.(http.Flusher).Flush()
			w.Write(packageBytes)
		}))
		defer server.Close()

		dest := t.TempDir()
		_, err := NewHTTPFetcher(testClient(), int64(len(packageBytes)), nil).Fetch(context.Background(), server.URL+"/t.ddw", dest)
		assert.ErrorIs(t, err, ErrTooLarge)
		assert.NoFileExists(t, filepath.Join(dest, "t.ddw"))
	})
}

func TestHTTPFetcher_HTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	_, err := NewHTTPFetcher(testClient(), 0, nil).Fetch(context.Background(), server.URL+"/gone.ddw", t.TempDir())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "404")
}

func TestHTTPFetcher_FileURL(t *testing.T) {
	src := filepath.Join(t.TempDir(), "lake.ddw")
	require.NoError(t, os.WriteFile(src, packageBytes, 0o644))
	modified := time.Date(2022, 11, 3, 10, 0, 0, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, modified, modified))

	dest := t.TempDir()
	pkg, err := NewHTTPFetcher(testClient(), 0, nil).Fetch(context.Background(), "file://"+filepath.ToSlash(src), dest)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(dest, "lake.ddw"), pkg.Path)
	assert.Equal(t, int64(len(packageBytes)), pkg.Size)
	assert.Equal(t, sha256Hex(packageBytes), pkg.Hash)
	assert.True(t, modified.Equal(pkg.LastModified))
	assert.FileExists(t, src)
}

func TestHTTPFetcher_FileURLErrors(t *testing.T) {
	dir := t.TempDir()
	zipPath := filepath.Join(dir, "lake.zip")
	require.NoError(t, os.WriteFile(zipPath, packageBytes, 0o644))
	bigPath := filepath.Join(dir, "big.ddw")
	require.NoError(t, os.WriteFile(bigPath, packageBytes, 0o644))

	fetcher := NewHTTPFetcher(testClient(), 8, nil)

	_, err := fetcher.Fetch(context.Background(), "file://"+filepath.ToSlash(zipPath), t.TempDir())
	assert.ErrorIs(t, err, ErrBadExtension)

	_, err = fetcher.Fetch(context.Background(), "file://"+filepath.ToSlash(bigPath), t.TempDir())
	assert.ErrorIs(t, err, ErrTooLarge)

	_, err = fetcher.Fetch(context.Background(), "file://"+filepath.ToSlash(filepath.Join(dir, "missing.ddw")), t.TempDir())
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestHTTPFetcher_InvalidURL(t *testing.T) {
	fetcher := NewHTTPFetcher(testClient(), 0, nil)

	for _, u := range []string{"", "example.com/lake.ddw", "ftp://example.com/lake.ddw"} {
		_, err := fetcher.Fetch(context.Background(), u, t.TempDir())
		assert.Error(t, err, u)
	}
}

func TestBaseName(t *testing.T) {
	tests := map[string]string{
		"theme.ddw":            "theme.ddw",
		"/a/b/theme.ddw":       "theme.ddw",
		`C:\Users\x\theme.ddw`: "theme.ddw",
		"../../etc/passwd":     "passwd",
		"Desert%20Dunes.ddw":   "Desert Dunes.ddw",
		"/":                    "",
		"":                     "",
	}
	for input, expected := range tests {
		assert.Equal(t, expected, baseName(input), "input %q", input)
	}
}
