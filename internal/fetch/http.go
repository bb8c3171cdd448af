package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/jmylchreest/wallthemes/internal/archive"
	"github.com/jmylchreest/wallthemes/internal/format"
	"github.com/jmylchreest/wallthemes/internal/httpclient"
	"github.com/jmylchreest/wallthemes/internal/storage"
	"github.com/jmylchreest/wallthemes/internal/urlutil"
)

// HTTPFetcher downloads packages with the retrying HTTP client.
type HTTPFetcher struct {
	client  *httpclient.Client
	maxSize int64
	logger  *slog.Logger
	now     func() time.Time
}

// NewHTTPFetcher creates an HTTPFetcher. A maxSize of zero disables the
// size limit.
func NewHTTPFetcher(client *httpclient.Client, maxSize int64, logger *slog.Logger) *HTTPFetcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPFetcher{
		client:  client,
		maxSize: maxSize,
		logger:  logger,
		now:     time.Now,
	}
}

// Fetch downloads rawURL into destDir. The file name comes from the
// Content-Disposition header, falling back to the last URL path segment.
// file:// URLs are copied from the local filesystem.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL, destDir string) (*Package, error) {
	if err := urlutil.ValidateURL(rawURL); err != nil {
		return nil, err
	}
	if urlutil.IsFileURL(rawURL) {
		return f.copyLocal(rawURL, destDir)
	}

	resp, err := f.client.Get(ctx, rawURL)
	if err != nil {
		return nil, fmt.Errorf("requesting package: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	filename := responseFilename(resp)
	if !archive.HasExtension(filename) {
		return nil, fmt.Errorf("%w: %q", ErrBadExtension, filename)
	}
	if f.maxSize > 0 && resp.ContentLength > f.maxSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, format.Bytes(resp.ContentLength))
	}

	lastModified, err := http.ParseTime(resp.Header.Get("Last-Modified"))
	if err != nil {
		lastModified = f.now()
		f.logger.Warn("missing or invalid Last-Modified header, using current time",
			slog.String("url", rawURL),
		)
	}

	sb, err := storage.NewSandbox(destDir)
	if err != nil {
		return nil, fmt.Errorf("preparing download directory: %w", err)
	}

	var body io.Reader = resp.Body
	if f.maxSize > 0 {
		body = io.LimitReader(resp.Body, f.maxSize+1)
	}
	if err := sb.AtomicWriteReader(filename, body); err != nil {
		return nil, fmt.Errorf("saving package: %w", err)
	}

	pkg, err := describe(filepath.Join(sb.BaseDir(), filename), lastModified)
	if err != nil {
		return nil, err
	}
	if f.maxSize > 0 && pkg.Size > f.maxSize {
		_ = sb.RemoveAll(filename)
		return nil, fmt.Errorf("%w: more than %s", ErrTooLarge, format.Bytes(f.maxSize))
	}

	f.logger.Debug("downloaded package",
		slog.String("file", filename),
		slog.String("size", format.Bytes(pkg.Size)),
		slog.Time("last_modified", pkg.LastModified),
	)
	return pkg, nil
}

// copyLocal copies the package a file:// URL points at. The file's
// modification time stands in for Last-Modified.
func (f *HTTPFetcher) copyLocal(rawURL, destDir string) (*Package, error) {
	src, err := urlutil.FilePathFromURL(rawURL)
	if err != nil {
		return nil, err
	}
	filename := baseName(src)
	if !archive.HasExtension(filename) {
		return nil, fmt.Errorf("%w: %q", ErrBadExtension, filename)
	}

	in, err := os.Open(src)
	if err != nil {
		return nil, fmt.Errorf("opening package: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return nil, fmt.Errorf("opening package: %w", err)
	}
	if f.maxSize > 0 && info.Size() > f.maxSize {
		return nil, fmt.Errorf("%w: %s", ErrTooLarge, format.Bytes(info.Size()))
	}

	sb, err := storage.NewSandbox(destDir)
	if err != nil {
		return nil, fmt.Errorf("preparing download directory: %w", err)
	}
	if err := sb.AtomicWriteReader(filename, in); err != nil {
		return nil, fmt.Errorf("saving package: %w", err)
	}

	f.logger.Debug("copied local package",
		slog.String("file", filename),
		slog.String("source", src),
	)
	return describe(filepath.Join(sb.BaseDir(), filename), info.ModTime())
}

// responseFilename resolves the download's base file name.
func responseFilename(resp *http.Response) string {
	if cd := resp.Header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil {
			if name := params["filename"]; name != "" {
				return baseName(name)
			}
		}
	}
	if resp.Request != nil && resp.Request.URL != nil {
		return baseName(resp.Request.URL.Path)
	}
	return ""
}

// baseName strips any directory components, including Windows separators
// that servers occasionally send.
func baseName(name string) string {
	if unescaped, err := url.PathUnescape(name); err == nil {
		name = unescaped
	}
	name = path.Base(strings.ReplaceAll(name, "\\", "/"))
	if name == "." || name == "/" {
		return ""
	}
	return name
}

// describe hashes the file at p.
func describe(p string, lastModified time.Time) (*Package, error) {
	hash, size, err := archive.Digest(p)
	if err != nil {
		return nil, err
	}
	return &Package{
		Path:         p,
		Size:         size,
		Hash:         hash,
		LastModified: lastModified,
	}, nil
}
