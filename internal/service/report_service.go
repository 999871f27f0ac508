package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesdash/internal/cache"
	"github.com/andresuchdata/salesdash/internal/division"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/ingest"
	"github.com/andresuchdata/salesdash/internal/report"
	"github.com/andresuchdata/salesdash/internal/upstream"
)

var (
	ErrUnknownScope     = errors.New("unknown scope")
	ErrInvalidDateRange = errors.New("invalid date range")
)

const dateLayout = "2006-01-02"

// ReportService builds the manager dashboard. Every call fetches a fresh
// snapshot; nothing computed is kept between calls.
type ReportService struct {
	loader     *upstream.Loader
	classifier *division.Classifier
	cfg        report.Config
	pageSize   int
}

func NewReportService(source upstream.Source, refCache upstream.ReferenceCache, classifier *division.Classifier, cfg report.Config, pageSize int) *ReportService {
	if refCache == nil {
		refCache = cache.NewNoopReferenceCache()
	}
	return &ReportService{
		loader:     upstream.NewLoader(source, refCache),
		classifier: classifier,
		cfg:        cfg,
		pageSize:   pageSize,
	}
}

// Divisions lists the division names a scope may take, plus Overview.
func (s *ReportService) Divisions() []string {
	return append([]string{domain.ScopeOverview}, s.classifier.Divisions()...)
}

// Validate canonicalises the scope and checks the date window.
func (s *ReportService) Validate(params domain.ReportParams) (domain.ReportParams, error) {
	params.Scope = strings.TrimSpace(params.Scope)
	if params.IsOverview() {
		params.Scope = domain.ScopeOverview
	} else {
		canonical, ok := s.classifier.Lookup(params.Scope)
		if !ok {
			return params, fmt.Errorf("%w: %q", ErrUnknownScope, params.Scope)
		}
		params.Scope = canonical
	}

	params.DateFrom = strings.TrimSpace(params.DateFrom)
	params.DateTo = strings.TrimSpace(params.DateTo)
	for _, d := range []string{params.DateFrom, params.DateTo} {
		if d == "" {
			continue
		}
		if _, err := time.Parse(dateLayout, d); err != nil {
			return params, fmt.Errorf("%w: %q is not YYYY-MM-DD", ErrInvalidDateRange, d)
		}
	}
	if params.DateFrom != "" && params.DateTo != "" && params.DateFrom > params.DateTo {
		return params, fmt.Errorf("%w: %s is after %s", ErrInvalidDateRange, params.DateFrom, params.DateTo)
	}
	return params, nil
}

// Capture loads the raw collections a report over params would read.
func (s *ReportService) Capture(ctx context.Context, params domain.ReportParams) (*upstream.Snapshot, error) {
	params, err := s.Validate(params)
	if err != nil {
		return nil, err
	}
	return s.loader.Load(ctx, ingest.Plan(params, s.pageSize))
}

// BuildReport fetches every collection, then aggregates. A fatal fetch
// error aborts the whole build; no partial report is returned.
func (s *ReportService) BuildReport(ctx context.Context, params domain.ReportParams) (*domain.Report, error) {
	params, err := s.Validate(params)
	if err != nil {
		return nil, err
	}

	started := time.Now()
	snap, err := s.loader.Load(ctx, ingest.Plan(params, s.pageSize))
	if err != nil {
		return nil, fmt.Errorf("load collections: %w", err)
	}
	fetched := time.Since(started)

	out := s.BuildFromSnapshot(snap, params)

	log.Info().
		Str("scope", params.Scope).
		Str("date_from", params.DateFrom).
		Str("date_to", params.DateTo).
		Dur("fetch", fetched).
		Dur("total", time.Since(started)).
		Msg("report: built")

	return out, nil
}

// BuildFromSnapshot aggregates an already loaded snapshot. params must have
// passed Validate.
func (s *ReportService) BuildFromSnapshot(snap *upstream.Snapshot, params domain.ReportParams) *domain.Report {
	ds, stats := ingest.Decode(snap)
	for collection, n := range stats.Dropped {
		log.Warn().Str("collection", collection).Int("dropped", n).Msg("report: malformed records skipped")
	}
	return report.Build(ds, stats, s.classifier, s.cfg, params)
}
