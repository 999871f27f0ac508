package upstream

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// ReferenceCache holds short-lived copies of small reference collections.
type ReferenceCache interface {
	Get(ctx context.Context, collection string) ([]json.RawMessage, bool, error)
	Set(ctx context.Context, collection string, rows []json.RawMessage) error
}

// Loader fetches every collection of a plan concurrently.
type Loader struct {
	source Source
	cache  ReferenceCache
}

// NewLoader creates a Loader. cache may be nil.
func NewLoader(source Source, cache ReferenceCache) *Loader {
	return &Loader{source: source, cache: cache}
}

// Load issues all requests in parallel and waits for every one of them. The
// first fatal error cancels the remaining fetches and is returned as is.
func (l *Loader) Load(ctx context.Context, plan []Request) (*Snapshot, error) {
	started := time.Now()
	results := make([][]json.RawMessage, len(plan))

	g, gctx := errgroup.WithContext(ctx)
	for i, req := range plan {
		g.Go(func() error {
			rows, err := l.fetch(gctx, req)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	snap := NewSnapshot()
	for i, req := range plan {
		snap.Collections[req.Query.Collection] = results[i]
	}

	log.Debug().
		Int("collections", len(plan)).
		Dur("elapsed", time.Since(started)).
		Msg("upstream: load complete")

	return snap, nil
}

func (l *Loader) fetch(ctx context.Context, req Request) ([]json.RawMessage, error) {
	if !req.Reference {
		return l.source.FetchAllPages(ctx, req.Query)
	}

	collection := req.Query.Collection
	if l.cache != nil {
		rows, ok, err := l.cache.Get(ctx, collection)
		if err != nil {
			log.Warn().Err(err).Str("collection", collection).Msg("upstream: reference cache get failed")
		} else if ok {
			return rows, nil
		}
	}

	rows, err := l.source.FetchAll(ctx, req.Query)
	if err != nil {
		return nil, err
	}

	if l.cache != nil {
		if err := l.cache.Set(ctx, collection, rows); err != nil {
			log.Warn().Err(err).Str("collection", collection).Msg("upstream: reference cache set failed")
		}
	}
	return rows, nil
}
