// Package service drives the three run modes: validating proposed themes,
// publishing accepted ones and cataloguing pre-downloaded private packages.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/jmylchreest/wallthemes/internal/archive"
	"github.com/jmylchreest/wallthemes/internal/catalog"
	"github.com/jmylchreest/wallthemes/internal/fetch"
	"github.com/jmylchreest/wallthemes/internal/format"
	"github.com/jmylchreest/wallthemes/internal/observability"
	"github.com/jmylchreest/wallthemes/internal/pipeline"
	"github.com/jmylchreest/wallthemes/internal/report"
	"github.com/jmylchreest/wallthemes/internal/sources"
	"github.com/jmylchreest/wallthemes/internal/storage"
)

// Options configures a ThemeService.
type Options struct {
	// CatalogPath is the theme database file.
	CatalogPath string
	// SourcesDir holds the per-group source lists.
	SourcesDir string
	// PrivateDir is searched for pre-downloaded packages.
	PrivateDir string
	// PrivateURLList is the source list private packages are looked up in.
	PrivateURLList string

	Workspace    *storage.Workspace
	Fetcher      fetch.Fetcher
	Extractor    *archive.Extractor
	Dependencies *pipeline.Dependencies

	// OutputFile receives step outputs (GITHUB_OUTPUT). Empty disables them.
	OutputFile string
}

// ThemeService runs the per-theme pipelines and maintains the catalog.
type ThemeService struct {
	opts      Options
	collector *report.Collector
	logger    *slog.Logger
}

// NewThemeService creates a new theme service recording errors on collector.
func NewThemeService(opts Options, collector *report.Collector) *ThemeService {
	if opts.Extractor == nil {
		opts.Extractor = &archive.Extractor{}
	}
	return &ThemeService{
		opts:      opts,
		collector: collector,
		logger:    slog.Default(),
	}
}

// WithLogger sets the logger for the service.
func (s *ThemeService) WithLogger(logger *slog.Logger) *ThemeService {
	s.logger = logger
	if s.opts.Dependencies != nil {
		s.opts.Dependencies.Logger = logger
	}
	return s
}

// WithOutputFile sets the file step outputs are appended to.
func (s *ThemeService) WithOutputFile(path string) *ThemeService {
	s.opts.OutputFile = path
	return s
}

// upsertFunc builds the catalog record for a processed candidate.
type upsertFunc func(c sources.Candidate, pkg *fetch.Package, state *pipeline.State) catalog.Record

// Validate checks every new or changed theme without writing anything.
func (s *ThemeService) Validate(ctx context.Context) error {
	return s.processCandidates(ctx, pipeline.NewValidateFactory, nil)
}

// Publish renders artifacts for every new or changed theme and records them
// in the catalog.
func (s *ThemeService) Publish(ctx context.Context) error {
	return s.processCandidates(ctx, pipeline.NewPublishFactory, publishedRecord)
}

func (s *ThemeService) processCandidates(ctx context.Context, newFactory func(*pipeline.Dependencies) *pipeline.Factory, upsert upsertFunc) (err error) {
	defer observability.TimedOperation(s.logger, "process candidates", &err)()

	cat, err := catalog.Load(s.opts.CatalogPath)
	if err != nil {
		return err
	}
	groups, err := sources.Load(s.opts.SourcesDir)
	if err != nil {
		return err
	}

	candidates := sources.Discover(groups, cat, s.collector)
	if len(candidates) == 0 {
		s.logger.InfoContext(ctx, "No new themes found")
		return nil
	}
	s.logger.InfoContext(ctx, "new themes found",
		slog.String("count", format.Number(int64(len(candidates)))),
		slog.String("theme_ids", strings.Join(sources.IDs(candidates), ", ")),
	)
	if err := s.setOutput("changed", "true"); err != nil {
		s.logger.WarnContext(ctx, "failed to write step output", slog.String("error", err.Error()))
	}

	runner, err := newFactory(s.opts.Dependencies).Create()
	if err != nil {
		return err
	}
	defer s.removeWorkspace(ctx)

	changed := 0
	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return err
		}

		pkg, state, err := s.processCandidate(ctx, runner, c)
		if err != nil {
			if errors.Is(err, report.ErrAbort) && ctx.Err() == nil {
				continue
			}
			return err
		}
		if upsert != nil {
			cat.Upsert(c.ID, upsert(c, pkg, state))
			changed++
		}
	}

	return s.saveCatalog(ctx, cat, changed)
}

// processCandidate fetches and unpacks one candidate and runs the pipeline
// over the extracted files. Problems with the theme are recorded on its
// scope and returned wrapping report.ErrAbort.
func (s *ThemeService) processCandidate(ctx context.Context, runner *pipeline.Runner, c sources.Candidate) (*fetch.Package, *pipeline.State, error) {
	scope := s.collector.Scope(c.ID)
	logger := observability.WithTheme(s.logger, c.ID)

	if err := s.opts.Workspace.Reset(); err != nil {
		return nil, nil, err
	}
	dir, err := s.opts.Workspace.Dir()
	if err != nil {
		return nil, nil, err
	}
	extractDir, err := s.opts.Workspace.ExtractPath()
	if err != nil {
		return nil, nil, err
	}

	logger.InfoContext(ctx, "downloading theme", slog.String("url", c.URL))
	pkg, err := s.opts.Fetcher.Fetch(ctx, c.URL, dir)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, nil, ctxErr
		}
		logger.DebugContext(ctx, "download failed", slog.String("error", err.Error()))
		if errors.Is(err, fetch.ErrBadExtension) {
			return nil, nil, scope.Fatalf("Theme URL is not a direct download link (must be a raw %s file)", archive.Extension)
		}
		return nil, nil, scope.Fatalf("Failed to download theme from %s", c.URL)
	}

	name := filepath.Base(pkg.Path)
	logger.InfoContext(ctx, "extracting theme",
		slog.String("file", name),
		slog.String("size", format.Bytes(pkg.Size)),
	)
	n, err := s.opts.Extractor.Extract(pkg.Path, extractDir)
	if err != nil {
		logger.DebugContext(ctx, "extraction failed", slog.String("error", err.Error()))
		return nil, nil, scope.Fatalf("Failed to extract theme from %s", name)
	}
	logger.DebugContext(ctx, "extracted theme", slog.Int("files", n))

	state := pipeline.NewState(c.ID, os.DirFS(extractDir), scope)
	if _, err := runner.Run(ctx, state); err != nil {
		return nil, nil, err
	}
	return pkg, state, nil
}

func publishedRecord(c sources.Candidate, pkg *fetch.Package, state *pipeline.State) catalog.Record {
	return catalog.Record{
		ThemeURL:     c.URL,
		ThemeType:    c.Group,
		DisplayName:  state.Manifest.DisplayName,
		ImageCredits: state.Manifest.ImageCredits,
		FileHash:     pkg.Hash,
		FileSize:     pkg.Size,
		DateAdded:    catalog.FormatDate(pkg.LastModified),
		ImageSize:    state.ImageSize,
		SunPhases:    state.SunPhases,
	}
}

// saveCatalog writes cat when at least one record changed.
func (s *ThemeService) saveCatalog(ctx context.Context, cat catalog.Catalog, changed int) error {
	if changed == 0 {
		return nil
	}
	if err := catalog.Save(s.opts.CatalogPath, cat); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "saved catalog",
		slog.String("path", s.opts.CatalogPath),
		slog.String("updated", format.Number(int64(changed))),
		slog.String("themes", format.Number(int64(len(cat)))),
	)
	return nil
}

func (s *ThemeService) removeWorkspace(ctx context.Context) {
	if err := s.opts.Workspace.Remove(); err != nil {
		s.logger.WarnContext(ctx, "failed to remove workspace", slog.String("error", err.Error()))
	}
}

// setOutput appends name=value to the step output file.
func (s *ThemeService) setOutput(name, value string) error {
	if s.opts.OutputFile == "" {
		return nil
	}
	f, err := os.OpenFile(s.opts.OutputFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(f, "%s=%s\n", name, value); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
