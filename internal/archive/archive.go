// Package archive opens and unpacks theme packages.
//
// A theme package is a zip archive with the .ddw extension. Besides the
// store and deflate methods, entries compressed with bzip2 (method 12) and
// xz (method 95) are accepted.
package archive

import (
	"archive/zip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/dsnet/compress/bzip2"
	"github.com/jmylchreest/wallthemes/internal/storage"
	"github.com/ulikunitz/xz"
)

// Extension is the file extension of a theme package.
const Extension = ".ddw"

// Zip compression method ids from the PKWARE APPNOTE.
const (
	MethodBzip2 uint16 = 12
	MethodXZ    uint16 = 95
)

// DefaultMaxEntrySize bounds the uncompressed size of a single entry.
const DefaultMaxEntrySize int64 = 256 << 20

// ErrEntryTooLarge is returned when an entry exceeds the configured limit.
var ErrEntryTooLarge = errors.New("archive entry too large")

// Open opens the package at p for reading. The returned reader is an fs.FS
// over the archive contents.
func Open(p string) (*zip.ReadCloser, error) {
	rc, err := zip.OpenReader(p)
	if err != nil {
		return nil, fmt.Errorf("opening archive: %w", err)
	}
	registerDecompressors(&rc.Reader)
	return rc, nil
}

func registerDecompressors(r *zip.Reader) {
	r.RegisterDecompressor(MethodBzip2, func(src io.Reader) io.ReadCloser {
		zr, err := bzip2.NewReader(src, nil)
		if err != nil {
			return io.NopCloser(errReader{err: err})
		}
		return zr
	})
	r.RegisterDecompressor(MethodXZ, func(src io.Reader) io.ReadCloser {
		zr, err := xz.NewReader(src)
		if err != nil {
			return io.NopCloser(errReader{err: err})
		}
		return io.NopCloser(zr)
	})
}

type errReader struct {
	err error
}

func (r errReader) Read([]byte) (int, error) {
	return 0, r.err
}

// Extractor unpacks packages into a sandboxed directory.
type Extractor struct {
	// MaxEntrySize bounds each entry's uncompressed size. Zero means
	// DefaultMaxEntrySize.
	MaxEntrySize int64
}

// Extract unpacks the package at src into destDir. Entries whose names would
// resolve outside destDir are rejected. It returns the number of files written.
func (e *Extractor) Extract(src, destDir string) (int, error) {
	rc, err := Open(src)
	if err != nil {
		return 0, err
	}
	defer rc.Close()

	sb, err := storage.NewSandbox(destDir)
	if err != nil {
		return 0, fmt.Errorf("preparing extraction directory: %w", err)
	}

	limit := e.MaxEntrySize
	if limit <= 0 {
		limit = DefaultMaxEntrySize
	}

	written := 0
	for _, f := range rc.File {
		name := path.Clean(strings.ReplaceAll(f.Name, "\\", "/"))
		if f.FileInfo().IsDir() {
			if err := sb.MkdirAll(name); err != nil {
				return written, fmt.Errorf("extracting %s: %w", f.Name, err)
			}
			continue
		}
		if err := extractFile(sb, f, name, limit); err != nil {
			return written, fmt.Errorf("extracting %s: %w", f.Name, err)
		}
		written++
	}
	return written, nil
}

func extractFile(sb *storage.Sandbox, f *zip.File, name string, limit int64) error {
	if f.UncompressedSize64 > uint64(limit) {
		return ErrEntryTooLarge
	}

	r, err := f.Open()
	if err != nil {
		return err
	}
	defer r.Close()

	out, err := sb.Create(name)
	if err != nil {
		return err
	}

	n, err := io.Copy(out, io.LimitReader(r, limit+1))
	closeErr := out.Close()
	if err != nil {
		return err
	}
	if closeErr != nil {
		return closeErr
	}
	if n > limit {
		return ErrEntryTooLarge
	}
	return nil
}

// Digest returns the sha256 hex digest and size of the file at p.
func Digest(p string) (string, int64, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", 0, fmt.Errorf("opening %s: %w", p, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, fmt.Errorf("hashing %s: %w", p, err)
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// HasExtension reports whether name carries the package extension.
func HasExtension(name string) bool {
	return path.Ext(name) == Extension
}
