// Package fetch downloads theme packages into a local directory.
//
// Two interchangeable implementations exist: HTTPFetcher downloads directly,
// ScriptFetcher delegates the download to an external program. Callers depend
// only on the Fetcher interface.
package fetch

import (
	"context"
	"errors"
	"time"
)

// ErrBadExtension is returned when the resolved file name is not a theme package.
var ErrBadExtension = errors.New("not a theme package")

// ErrTooLarge is returned when a download exceeds the configured size limit.
var ErrTooLarge = errors.New("package exceeds maximum size")

// Package describes a downloaded theme package.
type Package struct {
	// Path is the local file path of the package.
	Path string
	// Size is the file size in bytes.
	Size int64
	// Hash is the sha256 hex digest of the file.
	Hash string
	// LastModified is the source's last-modified time.
	LastModified time.Time
}

// Fetcher retrieves the package at url into destDir.
type Fetcher interface {
	Fetch(ctx context.Context, url, destDir string) (*Package, error)
}
