package report

import (
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/salesdash/internal/domain"
)

// Status labels.
const (
	StatusFastMoving = "Fast Moving"
	StatusModerate   = "Moderate"
	StatusSlowMoving = "Slow Moving"

	StatusCritical = "Critical"
	StatusWarning  = "Warning"
	StatusNormal   = "Normal"
)

var (
	hundred          = decimal.NewFromInt(100)
	criticalReturns  = decimal.RequireFromString("0.10")
	warningReturns   = decimal.RequireFromString("0.05")
	fastVelocity     = decimal.NewFromInt(60)
	moderateVelocity = decimal.NewFromInt(30)
)

func assemble(a *aggregator, cfg Config, label string) *domain.Report {
	velocity := velocityRate(a.outflow, a.onHand)
	returnRate := ratio(a.inflow, a.outflow)

	return &domain.Report{
		Scope: label,
		GoodStock: domain.GoodStock{
			VelocityRate: velocity.InexactFloat64(),
			Status:       velocityStatus(velocity),
			TotalOutflow: amount(a.outflow),
			TotalInflow:  amount(a.onHand),
		},
		BadStock: domain.BadStock{
			Accumulated: a.returnLines,
			Status:      returnStatus(returnRate),
			TotalInflow: amount(a.inflow),
		},
		TrendData:         trend(a.trend),
		SalesBySupplier:   ranked(a.bySupplier),
		SalesBySalesman:   ranked(a.bySalesman),
		SupplierBreakdown: supplierBreakdown(a.bySupplier, a.cross),
		DivisionBreakdown: divisionBreakdown(a),
		Pareto: domain.Pareto{
			Products:  top(ranked(a.byProduct), cfg.ParetoLimit),
			Customers: top(external(ranked(a.byCustomer), cfg.InternalCustomerKeywords), cfg.ParetoLimit),
		},
	}
}

// velocityRate is outflow / (outflow + on hand) as a whole percentage.
func velocityRate(outflow, onHand decimal.Decimal) decimal.Decimal {
	total := outflow.Add(onHand)
	if total.Sign() <= 0 {
		return decimal.Zero
	}
	return outflow.Div(total).Mul(hundred).Round(0)
}

func ratio(num, den decimal.Decimal) decimal.Decimal {
	if den.Sign() <= 0 {
		return decimal.Zero
	}
	return num.Div(den)
}

func velocityStatus(velocity decimal.Decimal) string {
	switch {
	case velocity.GreaterThanOrEqual(fastVelocity):
		return StatusFastMoving
	case velocity.GreaterThanOrEqual(moderateVelocity):
		return StatusModerate
	default:
		return StatusSlowMoving
	}
}

func returnStatus(rate decimal.Decimal) string {
	switch {
	case rate.GreaterThanOrEqual(criticalReturns):
		return StatusCritical
	case rate.GreaterThanOrEqual(warningReturns):
		return StatusWarning
	default:
		return StatusNormal
	}
}

func amount(d decimal.Decimal) float64 {
	return d.Round(2).InexactFloat64()
}

func trend(buckets map[string]*trendBucket) []domain.TrendPoint {
	out := make([]domain.TrendPoint, 0, len(buckets))
	for date, b := range buckets {
		out = append(out, domain.TrendPoint{Date: date, Outflow: amount(b.outflow), Inflow: amount(b.inflow)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out
}

type entry struct {
	name  string
	value decimal.Decimal
}

// sorted orders by value descending, then name ascending.
func sorted(m map[string]decimal.Decimal) []entry {
	out := make([]entry, 0, len(m))
	for name, v := range m {
		out = append(out, entry{name: name, value: v})
	}
	sort.Slice(out, func(i, j int) bool {
		if c := out[i].value.Cmp(out[j].value); c != 0 {
			return c > 0
		}
		return out[i].name < out[j].name
	})
	return out
}

func ranked(m map[string]decimal.Decimal) []domain.NameValue {
	entries := sorted(m)
	out := make([]domain.NameValue, 0, len(entries))
	for _, e := range entries {
		out = append(out, domain.NameValue{Name: e.name, Value: amount(e.value)})
	}
	return out
}

func top(list []domain.NameValue, n int) []domain.NameValue {
	if len(list) > n {
		return list[:n]
	}
	return list
}

// external drops house accounts. It runs before truncation so they cannot
// push real customers out of the top N.
func external(list []domain.NameValue, keywords []string) []domain.NameValue {
	upper := make([]string, 0, len(keywords))
	for _, k := range keywords {
		if k = strings.TrimSpace(k); k != "" {
			upper = append(upper, strings.ToUpper(k))
		}
	}
	if len(upper) == 0 {
		return list
	}

	out := make([]domain.NameValue, 0, len(list))
next:
	for _, nv := range list {
		name := strings.ToUpper(nv.Name)
		for _, k := range upper {
			if strings.Contains(name, k) {
				continue next
			}
		}
		out = append(out, nv)
	}
	return out
}

func supplierBreakdown(totals map[string]decimal.Decimal, cross map[string]map[string]decimal.Decimal) []domain.SupplierBreakdown {
	suppliers := sorted(totals)
	out := make([]domain.SupplierBreakdown, 0, len(suppliers))
	for _, s := range suppliers {
		salesmen := sorted(cross[s.name])
		shares := make([]domain.SalesmanShare, 0, len(salesmen))
		for _, sm := range salesmen {
			shares = append(shares, domain.SalesmanShare{
				Name:    sm.name,
				Amount:  amount(sm.value),
				Percent: ratio(sm.value, s.value).Mul(hundred).Round(1).InexactFloat64(),
			})
		}
		out = append(out, domain.SupplierBreakdown{
			Name:       s.name,
			TotalSales: amount(s.value),
			Salesmen:   shares,
		})
	}
	return out
}

// divisionBreakdown covers every division whatever the requested scope.
func divisionBreakdown(a *aggregator) []domain.DivisionBreakdown {
	divisions := a.classifier.Divisions()
	out := make([]domain.DivisionBreakdown, 0, len(divisions))
	for _, d := range divisions {
		outflow, inflow := a.divisionOutflow[d], a.divisionInflow[d]
		out = append(out, domain.DivisionBreakdown{
			Division: d,
			Outflow:  amount(outflow),
			Status:   returnStatus(ratio(inflow, outflow)),
			Inflow:   amount(inflow),
		})
	}
	return out
}

func diagnostics(a *aggregator, stats domain.IngestStats) *domain.Diagnostics {
	d := &domain.Diagnostics{
		Rows:                   make(map[string]int, len(stats.Rows)),
		Dropped:                make(map[string]int, len(stats.Dropped)),
		OrphanInvoiceLines:     a.orphanInvoiceLines,
		OrphanReturnLines:      a.orphanReturnLines,
		UnmappedLines:          a.unmapped,
		SampleUnmappedProducts: append([]string{}, a.samples...),
	}
	for k, v := range stats.Rows {
		d.Rows[k] = v
	}
	for k, v := range stats.Dropped {
		d.Dropped[k] = v
	}
	return d
}
