package domain

import "strings"

// ScopeOverview selects every division.
const ScopeOverview = "Overview"

// ReportParams are the inputs of one report build.
type ReportParams struct {
	Scope       string
	DateFrom    string // YYYY-MM-DD, inclusive, optional
	DateTo      string // YYYY-MM-DD, inclusive, optional
	Diagnostics bool
}

// IsOverview reports whether the scope matches every division.
func (p ReportParams) IsOverview() bool {
	return p.Scope == "" || strings.EqualFold(p.Scope, ScopeOverview)
}

// InWindow reports whether a YYYY-MM-DD date falls inside the requested range.
func (p ReportParams) InWindow(date string) bool {
	if p.DateFrom != "" && date < p.DateFrom {
		return false
	}
	if p.DateTo != "" && date > p.DateTo {
		return false
	}
	return true
}

type GoodStock struct {
	VelocityRate float64 `json:"velocityRate"`
	Status       string  `json:"status"`
	TotalOutflow float64 `json:"totalOutflow"`
	TotalInflow  float64 `json:"totalInflow"`
}

type BadStock struct {
	Accumulated int     `json:"accumulated"`
	Status      string  `json:"status"`
	TotalInflow float64 `json:"totalInflow"`
}

type TrendPoint struct {
	Date    string  `json:"date"`
	Outflow float64 `json:"outflow"`
	Inflow  float64 `json:"inflow"`
}

// NameValue is one ranked entry in a revenue list.
type NameValue struct {
	Name  string  `json:"name"`
	Value float64 `json:"value"`
}

type SalesmanShare struct {
	Name    string  `json:"name"`
	Amount  float64 `json:"amount"`
	Percent float64 `json:"percent"`
}

type SupplierBreakdown struct {
	Name       string          `json:"name"`
	TotalSales float64         `json:"totalSales"`
	Salesmen   []SalesmanShare `json:"salesmen"`
}

type DivisionBreakdown struct {
	Division string  `json:"division"`
	Outflow  float64 `json:"outflow"`
	Status   string  `json:"status"`
	Inflow   float64 `json:"inflow"`
}

type Pareto struct {
	Products  []NameValue `json:"products"`
	Customers []NameValue `json:"customers"`
}

type Diagnostics struct {
	Rows                   map[string]int `json:"rows"`
	Dropped                map[string]int `json:"dropped"`
	OrphanInvoiceLines     int            `json:"orphanInvoiceLines"`
	OrphanReturnLines      int            `json:"orphanReturnLines"`
	UnmappedLines          int            `json:"unmappedLines"`
	SampleUnmappedProducts []string       `json:"sampleUnmappedProducts"`
}

// Report is the manager dashboard payload.
type Report struct {
	Scope             string              `json:"scope"`
	GoodStock         GoodStock           `json:"goodStock"`
	BadStock          BadStock            `json:"badStock"`
	TrendData         []TrendPoint        `json:"trendData"`
	SalesBySupplier   []NameValue         `json:"salesBySupplier"`
	SalesBySalesman   []NameValue         `json:"salesBySalesman"`
	SupplierBreakdown []SupplierBreakdown `json:"supplierBreakdown"`
	DivisionBreakdown []DivisionBreakdown `json:"divisionBreakdown"`
	Pareto            Pareto              `json:"pareto"`
	Diagnostics       *Diagnostics        `json:"diagnostics,omitempty"`
}
