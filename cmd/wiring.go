package cmd

import (
	"fmt"
	"log/slog"

	"github.com/productlister/lister/internal/artifacts"
	"github.com/productlister/lister/internal/config"
	"github.com/productlister/lister/internal/gemini"
	"github.com/productlister/lister/internal/generative"
	"github.com/productlister/lister/internal/images"
	"github.com/productlister/lister/internal/listing"
	"github.com/productlister/lister/internal/models"
	"github.com/productlister/lister/internal/session"
	"github.com/productlister/lister/internal/storage"
)

// app bundles the stores and factories a command needs
type app struct {
	cfg       *config.Config
	catalog   *storage.CatalogStore
	artifacts artifacts.Store
}

func loadApp(opts *rootOptions) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	if opts.dataDir != "" {
		cfg.DataDir = opts.dataDir
	}
	if opts.artifactBackend != "" {
		cfg.ArtifactBackend = opts.artifactBackend
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	catalog, err := storage.Open(cfg.CatalogDir())
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	catalog.SetFallbackAPIKey(cfg.GeminiAPIKey)

	store, err := artifacts.Open(cfg.ArtifactBackend, cfg.ArtifactDir(), images.NewFetcher(cfg.FetchTimeout))
	if err != nil {
		return nil, fmt.Errorf("failed to open artifact store: %w", err)
	}

	slog.Debug("App initialized", "data_dir", cfg.DataDir, "artifact_backend", cfg.ArtifactBackend)
	return &app{cfg: cfg, catalog: catalog, artifacts: store}, nil
}

func (a *app) Close() error {
	return a.artifacts.Close()
}

func (a *app) newClient(settings models.Settings) *generative.Client {
	return generative.New(gemini.New(settings.GeminiAPIKey), generative.Options{
		Models:        a.cfg.Models,
		PreferQuality: settings.PreferQuality,
	})
}

func (a *app) editor() *session.Editor {
	return session.NewEditor(session.Options{
		Artifacts:    a.artifacts,
		Catalog:      a.catalog,
		NewGenerator: func(s models.Settings) session.Generator { return a.newClient(s) },
	})
}

func (a *app) listings() *listing.Service {
	return listing.NewService(a.catalog, a.artifacts, func(s models.Settings) listing.TextGenerator {
		return a.newClient(s)
	})
}

// closeApp closes the app, keeping the first error
func closeApp(a *app, err *error) {
	if cerr := a.Close(); cerr != nil {
		slog.Error("Failed to close app", "err", cerr)
		if *err == nil {
			*err = cerr
		}
	}
}
