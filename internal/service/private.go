package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/jmylchreest/wallthemes/internal/archive"
	"github.com/jmylchreest/wallthemes/internal/catalog"
	"github.com/jmylchreest/wallthemes/internal/observability"
	"github.com/jmylchreest/wallthemes/internal/pipeline"
	"github.com/jmylchreest/wallthemes/internal/report"
	"github.com/jmylchreest/wallthemes/internal/sources"
)

// Private theme types.
const (
	ThemeTypeFree = "photos"
	ThemeTypePaid = "paid"
)

// freeMarker in a package's path marks it as a free pack.
const freeMarker = "free"

// freeDisplayPrefix is prepended to the display name of free packs.
const freeDisplayPrefix = "24 Hour "

// privatePattern matches packages anywhere below the private directory.
const privatePattern = "**/*" + archive.Extension

// Private catalogues the packages found below the private directory. Thumbnails
// are rendered straight from each archive and no previews are generated.
func (s *ThemeService) Private(ctx context.Context) (err error) {
	defer observability.TimedOperation(s.logger, "process private themes", &err)()

	paths, err := s.findPrivatePackages()
	if err != nil {
		return err
	}
	if len(paths) == 0 {
		s.collector.Errorf("No private themes found")
		return nil
	}

	urls, err := sources.LoadFile(s.opts.PrivateURLList)
	if err != nil {
		return err
	}
	for _, id := range urls.Duplicates {
		s.collector.Scope(id).Errorf("Theme is declared more than once in %s, using the last entry", filepath.Base(s.opts.PrivateURLList))
	}
	cat, err := catalog.Load(s.opts.CatalogPath)
	if err != nil {
		return err
	}
	runner, err := pipeline.NewPrivateFactory(s.opts.Dependencies).Create()
	if err != nil {
		return err
	}

	changed := 0
	for _, rel := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}

		id := strings.TrimSuffix(filepath.Base(rel), filepath.Ext(rel))
		rec, err := s.processPrivate(ctx, runner, id, rel, urls)
		if err != nil {
			if errors.Is(err, report.ErrAbort) && ctx.Err() == nil {
				continue
			}
			return err
		}
		cat.Upsert(id, rec)
		changed++
	}

	return s.saveCatalog(ctx, cat, changed)
}

// findPrivatePackages returns the package paths relative to the private
// directory, sorted.
func (s *ThemeService) findPrivatePackages() ([]string, error) {
	if _, err := os.Stat(s.opts.PrivateDir); errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	paths, err := doublestar.Glob(os.DirFS(s.opts.PrivateDir), privatePattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("searching %s: %w", s.opts.PrivateDir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

func (s *ThemeService) processPrivate(ctx context.Context, runner *pipeline.Runner, id, rel string, urls sources.Group) (catalog.Record, error) {
	scope := s.collector.Scope(id)
	p := filepath.Join(s.opts.PrivateDir, filepath.FromSlash(rel))
	s.logger.InfoContext(ctx, "processing private theme", slog.String("theme_id", id), slog.String("file", rel))

	entry, ok := urls.Lookup(id)
	if !ok || entry.PrimaryURL() == "" {
		return catalog.Record{}, scope.Fatalf("Theme is not listed in %s", filepath.Base(s.opts.PrivateURLList))
	}

	info, err := os.Stat(p)
	if err != nil {
		return catalog.Record{}, scope.Fatalf("Failed to read theme package %s: %v", filepath.Base(p), err)
	}
	hash, size, err := archive.Digest(p)
	if err != nil {
		return catalog.Record{}, scope.Fatalf("Failed to read theme package %s: %v", filepath.Base(p), err)
	}

	rc, err := archive.Open(p)
	if err != nil {
		return catalog.Record{}, scope.Fatalf("Failed to extract theme from %s", filepath.Base(p))
	}
	defer rc.Close()

	state := pipeline.NewState(id, rc, scope)
	state.ManifestName = id + ".json"
	if _, err := runner.Run(ctx, state); err != nil {
		return catalog.Record{}, err
	}

	themeType, displayName := ThemeTypePaid, state.Manifest.DisplayName
	if strings.Contains(rel, freeMarker) {
		themeType, displayName = ThemeTypeFree, freeDisplayPrefix+displayName
	}

	return catalog.Record{
		ThemeURL:     entry.PrimaryURL(),
		ThemeType:    themeType,
		DisplayName:  displayName,
		ImageCredits: state.Manifest.ImageCredits,
		FileHash:     hash,
		FileSize:     size,
		DateAdded:    catalog.FormatDate(info.ModTime()),
		ImageSize:    state.ImageSize,
	}, nil
}
