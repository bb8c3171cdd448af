package service

import (
	"fmt"
	"log/slog"
	"path/filepath"

	"github.com/jmylchreest/wallthemes/internal/archive"
	"github.com/jmylchreest/wallthemes/internal/config"
	"github.com/jmylchreest/wallthemes/internal/fetch"
	"github.com/jmylchreest/wallthemes/internal/httpclient"
	"github.com/jmylchreest/wallthemes/internal/observability"
	"github.com/jmylchreest/wallthemes/internal/pipeline"
	"github.com/jmylchreest/wallthemes/internal/report"
	"github.com/jmylchreest/wallthemes/internal/storage"
	"github.com/jmylchreest/wallthemes/internal/util"
	"github.com/jmylchreest/wallthemes/internal/version"
)

// NewFromConfig wires a ThemeService from cfg. Output directories are
// created on demand.
func NewFromConfig(cfg *config.Config, collector *report.Collector, logger *slog.Logger) (*ThemeService, error) {
	if logger == nil {
		logger = slog.Default()
	}

	workspace, err := newWorkspace(cfg.Workspace.Dir)
	if err != nil {
		return nil, err
	}
	thumbnails, err := storage.NewSandbox(cfg.Output.ThumbnailsDir)
	if err != nil {
		return nil, fmt.Errorf("opening thumbnails directory: %w", err)
	}
	previews, err := storage.NewSandbox(cfg.Output.PreviewsDir)
	if err != nil {
		return nil, fmt.Errorf("opening previews directory: %w", err)
	}

	fetcher, err := newFetcher(cfg.Fetch, logger)
	if err != nil {
		return nil, err
	}

	opts := Options{
		CatalogPath:    cfg.Catalog.Path,
		SourcesDir:     cfg.Sources.Dir,
		PrivateDir:     cfg.Private.Dir,
		PrivateURLList: cfg.Private.URLList,
		Workspace:      workspace,
		Fetcher:        fetcher,
		Extractor:      &archive.Extractor{MaxEntrySize: cfg.Archive.MaxEntrySize.Bytes()},
		Dependencies: &pipeline.Dependencies{
			Logger:     logger,
			Thumbnails: thumbnails,
			Previews:   previews,
			Validation: cfg.Validation,
			Artifacts:  cfg.Artifacts,
		},
	}
	return NewThemeService(opts, collector).WithLogger(logger), nil
}

// newWorkspace places the workspace below its parent directory so that
// resetting it can never touch anything else.
func newWorkspace(dir string) (*storage.Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving workspace: %w", err)
	}
	root, err := storage.NewSandbox(filepath.Dir(abs))
	if err != nil {
		return nil, fmt.Errorf("opening workspace parent: %w", err)
	}
	return storage.NewWorkspace(root, filepath.Base(abs)), nil
}

func newFetcher(cfg config.FetchConfig, logger *slog.Logger) (fetch.Fetcher, error) {
	logger = observability.WithComponent(logger, "fetch")
	if cfg.Method == config.FetchMethodScript {
		script, err := util.FindBinary(cfg.Script)
		if err != nil {
			return nil, fmt.Errorf("resolving download script: %w", err)
		}
		return fetch.NewScriptFetcher(script, logger), nil
	}

	httpCfg := httpclient.DefaultConfig()
	httpCfg.Timeout = cfg.Timeout
	httpCfg.RetryAttempts = cfg.RetryAttempts
	httpCfg.RetryDelay = cfg.RetryDelay
	httpCfg.UserAgent = version.UserAgent()
	httpCfg.Logger = logger
	return fetch.NewHTTPFetcher(httpclient.New(httpCfg), cfg.MaxPackageSize.Bytes(), logger), nil
}
