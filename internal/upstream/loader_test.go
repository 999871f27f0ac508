package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	mu        sync.Mutex
	rows      map[string][]json.RawMessage
	failOn    string
	pageCalls []string
	allCalls  []string
}

func (f *fakeSource) FetchAllPages(ctx context.Context, q Query) ([]json.RawMessage, error) {
	f.mu.Lock()
	f.pageCalls = append(f.pageCalls, q.Collection)
	f.mu.Unlock()
	return f.result(ctx, q)
}

func (f *fakeSource) FetchAll(ctx context.Context, q Query) ([]json.RawMessage, error) {
	f.mu.Lock()
	f.allCalls = append(f.allCalls, q.Collection)
	f.mu.Unlock()
	return f.result(ctx, q)
}

func (f *fakeSource) result(ctx context.Context, q Query) ([]json.RawMessage, error) {
	if q.Collection == f.failOn {
		return nil, &FetchError{Collection: q.Collection, StatusCode: 500, Body: "boom", Attempts: 1}
	}
	return f.rows[q.Collection], nil
}

type mapCache struct {
	mu   sync.Mutex
	rows map[string][]json.RawMessage
	sets int
}

func (m *mapCache) Get(_ context.Context, collection string) ([]json.RawMessage, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	rows, ok := m.rows[collection]
	return rows, ok, nil
}

func (m *mapCache) Set(_ context.Context, collection string, rows []json.RawMessage) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rows[collection] = rows
	m.sets++
	return nil
}

func raw(s string) json.RawMessage { return json.RawMessage(s) }

func TestLoaderCollectsEveryRequest(t *testing.T) {
	src := &fakeSource{rows: map[string][]json.RawMessage{
		CollectionInvoices:  {raw(`{"id":1}`)},
		CollectionSuppliers: {raw(`{"id":"S1"}`), raw(`{"id":"S2"}`)},
	}}
	plan := []Request{
		{Query: Query{Collection: CollectionInvoices}},
		{Query: Query{Collection: CollectionSuppliers}, Reference: true},
	}

	snap, err := NewLoader(src, nil).Load(context.Background(), plan)
	require.NoError(t, err)

	assert.Len(t, snap.Rows(CollectionInvoices), 1)
	assert.Len(t, snap.Rows(CollectionSuppliers), 2)
	assert.Equal(t, []string{CollectionInvoices}, src.pageCalls)
	assert.Equal(t, []string{CollectionSuppliers}, src.allCalls)
}

func TestLoaderFailsFastOnFatalError(t *testing.T) {
	src := &fakeSource{failOn: CollectionReturns, rows: map[string][]json.RawMessage{}}
	plan := []Request{
		{Query: Query{Collection: CollectionInvoices}},
		{Query: Query{Collection: CollectionReturns}},
	}

	snap, err := NewLoader(src, nil).Load(context.Background(), plan)

	assert.Nil(t, snap)
	var fe *FetchError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, CollectionReturns, fe.Collection)
}

func TestLoaderUsesReferenceCache(t *testing.T) {
	src := &fakeSource{rows: map[string][]json.RawMessage{
		CollectionBrands: {raw(`{"id":"B1"}`)},
	}}
	cache := &mapCache{rows: map[string][]json.RawMessage{}}
	loader := NewLoader(src, cache)
	plan := []Request{{Query: Query{Collection: CollectionBrands}, Reference: true}}

	_, err := loader.Load(context.Background(), plan)
	require.NoError(t, err)
	snap, err := loader.Load(context.Background(), plan)
	require.NoError(t, err)

	assert.Len(t, snap.Rows(CollectionBrands), 1)
	assert.Len(t, src.allCalls, 1, "second load is served from cache")
	assert.Equal(t, 1, cache.sets)
}

func TestSnapshotAsSource(t *testing.T) {
	snap := NewSnapshot()
	snap.Collections[CollectionProducts] = []json.RawMessage{raw(`{"id":"P1"}`)}

	rows, err := snap.FetchAllPages(context.Background(), Query{Collection: CollectionProducts})
	require.NoError(t, err)
	assert.Len(t, rows, 1)

	rows, err = snap.FetchAll(context.Background(), Query{Collection: CollectionCustomers})
	require.NoError(t, err)
	assert.Empty(t, rows)
}
