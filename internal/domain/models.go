// internal/domain/models.go
package domain

import "github.com/shopspring/decimal"

// Product is a catalog item. ParentID links variants to their family; it is
// a weak reference and may point at nothing or form a cycle.
type Product struct {
	ID          string
	ParentID    string
	Name        string
	NameUpper   string
	BrandID     string
	SectionID   string
	StockOnHand float64
}

// DisplayName falls back to the id for unnamed products.
func (p Product) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	return p.ID
}

// ProductSupplierLink maps a product to the supplier that delivers it.
type ProductSupplierLink struct {
	ProductID  string
	SupplierID string
}

// NamedEntity covers the id/name reference collections: suppliers, brands,
// sections and salesmen.
type NamedEntity struct {
	ID   string
	Name string
}

type Customer struct {
	Code        string
	DisplayName string
}

// Invoice is a sales header. Date is normalised to YYYY-MM-DD.
type Invoice struct {
	ID           string
	Date         string
	TotalAmount  decimal.Decimal
	SalesmanID   string
	CustomerCode string
}

type InvoiceLine struct {
	InvoiceID   string
	ProductID   string
	TotalAmount decimal.Decimal
	Quantity    float64
}

// Return is a sales return header keyed by its return number.
type Return struct {
	ReturnNumber string
	Date         string
}

type ReturnLine struct {
	ReturnNumber string
	ProductID    string
	Quantity     float64
}

// Dataset is one typed snapshot of every collection the report reads.
type Dataset struct {
	Products     []Product
	ProductLinks []ProductSupplierLink
	Suppliers    []NamedEntity
	Brands       []NamedEntity
	Sections     []NamedEntity
	Salesmen     []NamedEntity
	Customers    []Customer
	Invoices     []Invoice
	InvoiceLines []InvoiceLine
	Returns      []Return
	ReturnLines  []ReturnLine
}

// IngestStats counts decoded and dropped records per collection.
type IngestStats struct {
	Rows    map[string]int `json:"rows"`
	Dropped map[string]int `json:"dropped"`
}

func NewIngestStats() IngestStats {
	return IngestStats{
		Rows:    make(map[string]int),
		Dropped: make(map[string]int),
	}
}
