package ingest

import "github.com/andresuchdata/salesdash/internal/ident"

// Wire shapes of the provider's collections. Every id and relation is an
// ident.Ref because the provider returns relations either as a bare id or as
// the expanded related record.

type productRecord struct {
	ID      ident.Ref `json:"id"`
	Parent  ident.Ref `json:"parent_id"`
	Name    Text      `json:"product_name"`
	Brand   ident.Ref `json:"product_brand"`
	Section ident.Ref `json:"product_section"`
	Stock   Quantity  `json:"stock_qty"`
}

type productSupplierRecord struct {
	Product  ident.Ref `json:"product_id"`
	Supplier ident.Ref `json:"supplier_id"`
}

type supplierRecord struct {
	ID   ident.Ref `json:"id"`
	Name Text      `json:"supplier_name"`
}

type brandRecord struct {
	ID   ident.Ref `json:"id"`
	Name Text      `json:"brand_name"`
}

type sectionRecord struct {
	ID   ident.Ref `json:"id"`
	Name Text      `json:"section_name"`
}

type salesmanRecord struct {
	ID   ident.Ref `json:"id"`
	Name Text      `json:"salesman_name"`
}

type customerRecord struct {
	Code ident.Ref `json:"customer_code"`
	Name Text      `json:"customer_name"`
}

type invoiceRecord struct {
	ID       ident.Ref `json:"id"`
	Date     Text      `json:"invoice_date"`
	Total    Amount    `json:"total_amount"`
	Salesman ident.Ref `json:"salesman_id"`
	Customer ident.Ref `json:"customer_code"`
}

type invoiceLineRecord struct {
	Invoice  ident.Ref `json:"invoice_id"`
	Product  ident.Ref `json:"product_id"`
	Total    Amount    `json:"total_amount"`
	Quantity Quantity  `json:"quantity"`
}

type returnRecord struct {
	Number ident.Ref `json:"return_number"`
	Date   Text      `json:"return_date"`
}

type returnLineRecord struct {
	Number   ident.Ref `json:"return_number"`
	Product  ident.Ref `json:"product_id"`
	Quantity Quantity  `json:"quantity"`
}

// Fields is the projection requested for each collection.
var Fields = map[string][]string{
	"products":             {"id", "parent_id", "product_name", "product_brand", "product_section", "stock_qty"},
	"product_suppliers":    {"product_id", "supplier_id"},
	"suppliers":            {"id", "supplier_name"},
	"brands":               {"id", "brand_name"},
	"sections":             {"id", "section_name"},
	"salesmen":             {"id", "salesman_name"},
	"customers":            {"customer_code", "customer_name"},
	"invoices":             {"id", "invoice_date", "total_amount", "salesman_id", "customer_code"},
	"invoice_details":      {"invoice_id", "product_id", "total_amount", "quantity"},
	"sales_returns":        {"return_number", "return_date"},
	"sales_return_details": {"return_number", "product_id", "quantity"},
}
