package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesdash/internal/division"
	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/report"
	"github.com/andresuchdata/salesdash/internal/upstream"
)

// recordingSource serves a snapshot and remembers the queries it saw.
type recordingSource struct {
	*upstream.Snapshot
	queries []upstream.Query
}

func (r *recordingSource) FetchAllPages(ctx context.Context, q upstream.Query) ([]json.RawMessage, error) {
	r.queries = append(r.queries, q)
	return r.Snapshot.FetchAllPages(ctx, q)
}

func (r *recordingSource) FetchAll(ctx context.Context, q upstream.Query) ([]json.RawMessage, error) {
	r.queries = append(r.queries, q)
	return r.Snapshot.FetchAll(ctx, q)
}

func newService(source upstream.Source) *ReportService {
	return NewReportService(source, nil, division.NewClassifier(division.DefaultRules()), report.Config{ParetoLimit: 5}, 100)
}

func TestValidate(t *testing.T) {
	svc := newService(upstream.NewSnapshot())

	tests := []struct {
		name    string
		in      domain.ReportParams
		want    domain.ReportParams
		wantErr error
	}{
		{"empty scope is overview", domain.ReportParams{}, domain.ReportParams{Scope: "Overview"}, nil},
		{"overview any case", domain.ReportParams{Scope: " overview "}, domain.ReportParams{Scope: "Overview"}, nil},
		{"division canonicalised", domain.ReportParams{Scope: "FROZEN GOODS"}, domain.ReportParams{Scope: "Frozen Goods"}, nil},
		{"unknown scope", domain.ReportParams{Scope: "Pharmacy"}, domain.ReportParams{}, ErrUnknownScope},
		{"bad date", domain.ReportParams{DateFrom: "05-01-2024"}, domain.ReportParams{}, ErrInvalidDateRange},
		{"inverted range", domain.ReportParams{DateFrom: "2024-02-01", DateTo: "2024-01-31"}, domain.ReportParams{}, ErrInvalidDateRange},
		{
			"same day range",
			domain.ReportParams{DateFrom: "2024-01-31", DateTo: "2024-01-31"},
			domain.ReportParams{Scope: "Overview", DateFrom: "2024-01-31", DateTo: "2024-01-31"},
			nil,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := svc.Validate(tt.in)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuildReportFromSource(t *testing.T) {
	snap := upstream.NewSnapshot()
	snap.Collections[upstream.CollectionInvoices] = []json.RawMessage{
		json.RawMessage(`{"id":1,"invoice_date":"2024-01-05","salesman_id":9,"customer_code":"C1"}`),
	}
	snap.Collections[upstream.CollectionInvoiceLines] = []json.RawMessage{
		json.RawMessage(`{"invoice_id":1,"product_id":"P1","quantity":10,"total_amount":"1000"}`),
	}
	snap.Collections[upstream.CollectionProductSuppliers] = []json.RawMessage{
		json.RawMessage(`{"product_id":"P1","supplier_id":"S1"}`),
	}
	snap.Collections[upstream.CollectionSuppliers] = []json.RawMessage{
		json.RawMessage(`{"id":"S1","supplier_name":"Acme"}`),
	}

	got, err := newService(snap).BuildReport(context.Background(), domain.ReportParams{Scope: "overview", Diagnostics: true})
	require.NoError(t, err)

	assert.Equal(t, "Overview", got.Scope)
	assert.Equal(t, []domain.NameValue{{Name: "ACME", Value: 1000}}, got.SalesBySupplier)
	assert.Equal(t, 1, got.Diagnostics.Rows[upstream.CollectionInvoices])
}

func TestBuildFromSnapshotToleratesNonFiniteQuantities(t *testing.T) {
	snap := upstream.NewSnapshot()
	snap.Collections[upstream.CollectionProducts] = []json.RawMessage{
		json.RawMessage(`{"id":"P1","stock_qty":"Infinity"}`),
	}
	snap.Collections[upstream.CollectionInvoices] = []json.RawMessage{
		json.RawMessage(`{"id":1,"invoice_date":"2024-01-05"}`),
	}
	snap.Collections[upstream.CollectionInvoiceLines] = []json.RawMessage{
		json.RawMessage(`{"invoice_id":1,"product_id":"P1","quantity":"NaN","total_amount":250}`),
		json.RawMessage(`{"invoice_id":1,"product_id":"P1","quantity":4,"total_amount":100}`),
	}

	svc := newService(snap)
	params, err := svc.Validate(domain.ReportParams{})
	require.NoError(t, err)

	var got *domain.Report
	require.NotPanics(t, func() { got = svc.BuildFromSnapshot(snap, params) })
	assert.Equal(t, float64(4), got.GoodStock.TotalOutflow)
	assert.Equal(t, float64(0), got.GoodStock.TotalInflow)
	assert.Equal(t, []domain.NameValue{{Name: "P1", Value: 350}}, got.Pareto.Products)
}

func TestBuildReportStopsOnInvalidParams(t *testing.T) {
	src := &recordingSource{Snapshot: upstream.NewSnapshot()}
	_, err := newService(src).BuildReport(context.Background(), domain.ReportParams{Scope: "nope"})

	assert.True(t, errors.Is(err, ErrUnknownScope))
	assert.Empty(t, src.queries)
}

func TestBuildReportPropagatesFetchError(t *testing.T) {
	src := &failing{err: &upstream.FetchError{Collection: upstream.CollectionReturns, StatusCode: 500, Attempts: 1}}

	got, err := newService(src).BuildReport(context.Background(), domain.ReportParams{})

	assert.Nil(t, got)
	fe, ok := upstream.AsFetchError(err)
	require.True(t, ok)
	assert.Equal(t, upstream.CollectionReturns, fe.Collection)
}

func TestCaptureReturnsRawSnapshot(t *testing.T) {
	snap := upstream.NewSnapshot()
	snap.Collections[upstream.CollectionBrands] = []json.RawMessage{json.RawMessage(`{"id":"B1"}`)}

	got, err := newService(snap).Capture(context.Background(), domain.ReportParams{})
	require.NoError(t, err)
	assert.Len(t, got.Rows(upstream.CollectionBrands), 1)
	assert.Len(t, got.Collections, len(upstream.AllCollections))
}

type failing struct{ err error }

func (f *failing) FetchAllPages(context.Context, upstream.Query) ([]json.RawMessage, error) {
	return nil, f.err
}

func (f *failing) FetchAll(context.Context, upstream.Query) ([]json.RawMessage, error) {
	return nil, f.err
}
