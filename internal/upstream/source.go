// Package upstream reads collections from the headless data provider.
package upstream

import (
	"context"
	"encoding/json"
)

// Collection names as exposed by the provider.
const (
	CollectionInvoices         = "invoices"
	CollectionInvoiceLines     = "invoice_details"
	CollectionReturns          = "sales_returns"
	CollectionReturnLines      = "sales_return_details"
	CollectionProducts         = "products"
	CollectionProductSuppliers = "product_suppliers"
	CollectionSuppliers        = "suppliers"
	CollectionBrands           = "brands"
	CollectionSections         = "sections"
	CollectionSalesmen         = "salesmen"
	CollectionCustomers        = "customers"
)

// AllCollections lists every collection a report needs, in a stable order.
var AllCollections = []string{
	CollectionInvoices,
	CollectionInvoiceLines,
	CollectionReturns,
	CollectionReturnLines,
	CollectionProducts,
	CollectionProductSuppliers,
	CollectionSuppliers,
	CollectionBrands,
	CollectionSections,
	CollectionSalesmen,
	CollectionCustomers,
}

// Query describes one collection read.
type Query struct {
	Collection string
	Fields     []string
	// Filter holds provider parameters keyed by their full name,
	// e.g. "filter[date][_gte]".
	Filter   map[string]string
	PageSize int
}

// Source is the read contract the report depends on.
type Source interface {
	// FetchAllPages pages through a collection until a short page.
	FetchAllPages(ctx context.Context, q Query) ([]json.RawMessage, error)
	// FetchAll reads a small collection in one unbounded request.
	FetchAll(ctx context.Context, q Query) ([]json.RawMessage, error)
}

// Request is one entry of a load plan. Reference requests go through
// FetchAll and may be served from the reference cache.
type Request struct {
	Query     Query
	Reference bool
}
