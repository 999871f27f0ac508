// Package report builds the manager dashboard from one typed dataset: a
// single aggregation pass followed by assembly of the response sections.
package report

import (
	"github.com/andresuchdata/salesdash/internal/catalog"
	"github.com/andresuchdata/salesdash/internal/division"
	"github.com/andresuchdata/salesdash/internal/domain"
)

const defaultParetoLimit = 10

// Config carries the assembly settings loaded at start-up.
type Config struct {
	ParetoLimit int
	// InternalCustomerKeywords hide house accounts from the customer Pareto;
	// matched case-insensitively against the customer name.
	InternalCustomerKeywords []string
}

// Build computes the report. The scope must be "Overview" or a division the
// classifier knows; any other scope matches nothing. Build is a pure
// function of its inputs.
func Build(ds *domain.Dataset, stats domain.IngestStats, classifier *division.Classifier, cfg Config, params domain.ReportParams) *domain.Report {
	if cfg.ParetoLimit <= 0 {
		cfg.ParetoLimit = defaultParetoLimit
	}

	scope := ""
	label := domain.ScopeOverview
	if !params.IsOverview() {
		if canonical, ok := classifier.Lookup(params.Scope); ok {
			scope, label = canonical, canonical
		} else {
			scope, label = params.Scope, params.Scope
		}
	}

	lookups := catalog.BuildLookups(ds)
	hierarchy := catalog.NewHierarchy(ds.Products, ds.ProductLinks)

	agg := newAggregator(lookups, hierarchy, classifier, params, scope)
	agg.stock(ds.Products)
	agg.invoices(ds.Invoices, ds.InvoiceLines)
	agg.returns(ds.Returns, ds.ReturnLines)

	out := assemble(agg, cfg, label)
	if params.Diagnostics {
		out.Diagnostics = diagnostics(agg, stats)
	}
	return out
}
