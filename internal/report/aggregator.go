package report

import (
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/salesdash/internal/catalog"
	"github.com/andresuchdata/salesdash/internal/division"
	"github.com/andresuchdata/salesdash/internal/domain"
)

const maxUnmappedSamples = 10

type trendBucket struct {
	outflow decimal.Decimal
	inflow  decimal.Decimal
}

// aggregator holds the accumulators of one report build. Nothing here
// outlives the build.
type aggregator struct {
	lookups    *catalog.Lookups
	hierarchy  *catalog.Hierarchy
	classifier *division.Classifier
	params     domain.ReportParams
	scope      string // canonical division, "" for overview

	divisionOf map[string]string

	divisionOutflow map[string]decimal.Decimal
	divisionInflow  map[string]decimal.Decimal

	trend      map[string]*trendBucket
	bySupplier map[string]decimal.Decimal
	bySalesman map[string]decimal.Decimal
	byCustomer map[string]decimal.Decimal
	byProduct  map[string]decimal.Decimal
	cross      map[string]map[string]decimal.Decimal // supplier -> salesman -> amount

	outflow     decimal.Decimal
	inflow      decimal.Decimal
	returnLines int
	onHand      decimal.Decimal

	orphanInvoiceLines int
	orphanReturnLines  int
	unmapped           int
	samples            []string
	sampled            map[string]struct{}
}

func newAggregator(lookups *catalog.Lookups, hierarchy *catalog.Hierarchy, classifier *division.Classifier, params domain.ReportParams, scope string) *aggregator {
	return &aggregator{
		lookups:         lookups,
		hierarchy:       hierarchy,
		classifier:      classifier,
		params:          params,
		scope:           scope,
		divisionOf:      make(map[string]string),
		divisionOutflow: make(map[string]decimal.Decimal),
		divisionInflow:  make(map[string]decimal.Decimal),
		trend:           make(map[string]*trendBucket),
		bySupplier:      make(map[string]decimal.Decimal),
		bySalesman:      make(map[string]decimal.Decimal),
		byCustomer:      make(map[string]decimal.Decimal),
		byProduct:       make(map[string]decimal.Decimal),
		cross:           make(map[string]map[string]decimal.Decimal),
		sampled:         make(map[string]struct{}),
	}
}

// divisionFor classifies a product once and memoizes the result. Unknown
// products are classified from their id alone.
func (a *aggregator) divisionFor(productID string) string {
	if d, ok := a.divisionOf[productID]; ok {
		return d
	}

	var subject division.Subject
	if p, ok := a.hierarchy.Product(productID); ok {
		subject.Name = p.NameUpper
		subject.Brand = a.lookups.Brands[p.BrandID]
		subject.Section = a.lookups.Sections[p.SectionID]
	}
	if supplier, ok := a.hierarchy.EffectiveSupplier(productID); ok {
		subject.Supplier = a.lookups.Suppliers[supplier]
	}

	d := a.classifier.Classify(subject)
	a.divisionOf[productID] = d
	return d
}

func (a *aggregator) inScope(div string) bool {
	return a.scope == "" || div == a.scope
}

func (a *aggregator) bucket(date string) *trendBucket {
	b, ok := a.trend[date]
	if !ok {
		b = &trendBucket{}
		a.trend[date] = b
	}
	return b
}

// stock sums on-hand quantity of the products in scope.
func (a *aggregator) stock(products []domain.Product) {
	seen := make(map[string]struct{}, len(products))
	for _, p := range products {
		if _, dup := seen[p.ID]; dup {
			continue
		}
		seen[p.ID] = struct{}{}
		if a.inScope(a.divisionFor(p.ID)) {
			a.onHand = a.onHand.Add(decimal.NewFromFloat(p.StockOnHand))
		}
	}
}

// invoices makes the single pass over invoice lines.
func (a *aggregator) invoices(headers []domain.Invoice, lines []domain.InvoiceLine) {
	byID := make(map[string]domain.Invoice, len(headers))
	for _, h := range headers {
		if _, dup := byID[h.ID]; !dup {
			byID[h.ID] = h
		}
	}

	for _, line := range lines {
		header, ok := byID[line.InvoiceID]
		if !ok {
			a.orphanInvoiceLines++
			continue
		}
		if !a.params.InWindow(header.Date) {
			continue
		}

		qty := decimal.NewFromFloat(line.Quantity)
		div := a.divisionFor(line.ProductID)
		a.divisionOutflow[div] = a.divisionOutflow[div].Add(qty)
		if !a.inScope(div) {
			continue
		}

		a.outflow = a.outflow.Add(qty)
		b := a.bucket(header.Date)
		b.outflow = b.outflow.Add(qty)

		productName := a.productName(line.ProductID)
		a.byProduct[productName] = a.byProduct[productName].Add(line.TotalAmount)

		supplierID, ok := a.hierarchy.EffectiveSupplier(line.ProductID)
		if !ok {
			a.unmapped++
			a.sample(productName)
			continue
		}

		supplier := a.lookups.SupplierName(supplierID)
		salesman := a.lookups.SalesmanName(header.SalesmanID)
		customer := a.lookups.CustomerName(header.CustomerCode)

		a.bySupplier[supplier] = a.bySupplier[supplier].Add(line.TotalAmount)
		a.bySalesman[salesman] = a.bySalesman[salesman].Add(line.TotalAmount)
		a.byCustomer[customer] = a.byCustomer[customer].Add(line.TotalAmount)

		row, ok := a.cross[supplier]
		if !ok {
			row = make(map[string]decimal.Decimal)
			a.cross[supplier] = row
		}
		row[salesman] = row[salesman].Add(line.TotalAmount)
	}
}

// returns makes the single pass over return lines. Returns only feed the
// inflow counters and the trend's inflow.
func (a *aggregator) returns(headers []domain.Return, lines []domain.ReturnLine) {
	dates := make(map[string]string, len(headers))
	for _, h := range headers {
		if _, dup := dates[h.ReturnNumber]; !dup {
			dates[h.ReturnNumber] = h.Date
		}
	}

	for _, line := range lines {
		date, ok := dates[line.ReturnNumber]
		if !ok {
			a.orphanReturnLines++
			continue
		}
		if !a.params.InWindow(date) {
			continue
		}

		qty := decimal.NewFromFloat(line.Quantity)
		div := a.divisionFor(line.ProductID)
		a.divisionInflow[div] = a.divisionInflow[div].Add(qty)
		if !a.inScope(div) {
			continue
		}

		a.inflow = a.inflow.Add(qty)
		a.returnLines++
		b := a.bucket(date)
		b.inflow = b.inflow.Add(qty)
	}
}

func (a *aggregator) productName(id string) string {
	if p, ok := a.hierarchy.Product(id); ok {
		return p.DisplayName()
	}
	return id
}

func (a *aggregator) sample(name string) {
	if len(a.samples) >= maxUnmappedSamples {
		return
	}
	if _, dup := a.sampled[name]; dup {
		return
	}
	a.sampled[name] = struct{}{}
	a.samples = append(a.samples, name)
}
