// Package app wires configuration into the report service for the server and
// the CLI.
package app

import (
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesdash/internal/cache"
	"github.com/andresuchdata/salesdash/internal/config"
	"github.com/andresuchdata/salesdash/internal/division"
	"github.com/andresuchdata/salesdash/internal/report"
	"github.com/andresuchdata/salesdash/internal/repository/postgres"
	"github.com/andresuchdata/salesdash/internal/service"
	"github.com/andresuchdata/salesdash/internal/storage"
	"github.com/andresuchdata/salesdash/internal/upstream"
)

const (
	ModeHTTP     = "http"
	ModePostgres = "postgres"
)

// App holds the wired report service and what must be released on exit.
type App struct {
	ReportService  *service.ReportService
	ReferenceCache cache.ReferenceCache

	closers []func() error
}

// New builds the report service from cfg. The upstream mode picks between the
// provider's REST API and a direct read-only database connection.
func New(cfg *config.Config) (*App, error) {
	rules, err := division.LoadRules(cfg.Report.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load division rules: %w", err)
	}
	classifier := division.NewClassifier(rules)

	a := &App{}
	source, err := a.source(cfg)
	if err != nil {
		return nil, err
	}

	refCache, err := cache.NewReferenceCache(cfg.Cache, cfg.Upstream.BaseURL)
	if err != nil {
		log.Warn().Err(err).Msg("reference cache unavailable, continuing without it")
		refCache = cache.NewNoopReferenceCache()
	}
	a.ReferenceCache = refCache
	a.closers = append(a.closers, refCache.Close)

	a.ReportService = service.NewReportService(source, refCache, classifier, report.Config{
		ParetoLimit:              cfg.Report.ParetoLimit,
		InternalCustomerKeywords: cfg.Report.InternalCustomerKeywords,
	}, cfg.Upstream.PageSize)

	log.Info().
		Str("mode", cfg.Upstream.Mode).
		Strs("divisions", classifier.Divisions()).
		Bool("cache", cfg.Cache.Enabled).
		Msg("report service ready")
	return a, nil
}

func (a *App) source(cfg *config.Config) (upstream.Source, error) {
	switch cfg.Upstream.Mode {
	case "", ModeHTTP:
		return upstream.NewClient(upstream.ClientConfig{
			BaseURL:       cfg.Upstream.BaseURL,
			Token:         cfg.Upstream.Token,
			Timeout:       cfg.Upstream.Timeout(),
			PageSize:      cfg.Upstream.PageSize,
			MaxPages:      cfg.Upstream.MaxPages,
			MaxRetries:    cfg.Upstream.MaxRetries,
			RetryBackoff:  cfg.Upstream.RetryBackoff(),
			MaxConcurrent: cfg.Upstream.MaxConcurrent,
		}), nil
	case ModePostgres:
		db, err := postgres.NewDB(&cfg.Database, cfg.Upstream.MaxConcurrent)
		if err != nil {
			return nil, fmt.Errorf("connect provider database: %w", err)
		}
		a.closers = append(a.closers, db.Close)
		return postgres.NewCollectionReader(db, postgres.ReaderConfig{
			PageSize: cfg.Upstream.PageSize,
			MaxPages: cfg.Upstream.MaxPages,
			Timeout:  cfg.Upstream.Timeout(),
		}), nil
	default:
		return nil, fmt.Errorf("unknown upstream mode %q", cfg.Upstream.Mode)
	}
}

// Close releases connections opened by New.
func (a *App) Close() {
	for _, c := range a.closers {
		if err := c(); err != nil {
			log.Warn().Err(err).Msg("close failed")
		}
	}
}

// SnapshotStore returns a store backed by the configured bucket when one is
// set, and by the local snapshot directory otherwise.
func SnapshotStore(cfg config.StorageConfig) (*storage.SnapshotStore, error) {
	if cfg.Bucket != "" {
		client, err := storage.NewS3Client(storage.S3Config{
			Endpoint:  cfg.Endpoint,
			AccessKey: cfg.AccessKey,
			SecretKey: cfg.SecretKey,
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			UseSSL:    cfg.UseSSL,
		})
		if err != nil {
			return nil, err
		}
		return storage.NewSnapshotStore(client), nil
	}

	dir, err := storage.NewDirStorage(cfg.SnapshotDir)
	if err != nil {
		return nil, err
	}
	return storage.NewSnapshotStore(dir), nil
}
