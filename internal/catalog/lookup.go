// Package catalog builds the per-report indexes over reference data: name
// lookups and the product family hierarchy.
package catalog

import (
	"strings"

	"github.com/andresuchdata/salesdash/internal/domain"
)

// Lookups maps ids to display names. Supplier, brand and section names are
// uppercased here, once, because division keywords match case-sensitively.
type Lookups struct {
	Suppliers map[string]string
	Brands    map[string]string
	Sections  map[string]string
	Salesmen  map[string]string
	Customers map[string]string
}

func BuildLookups(ds *domain.Dataset) *Lookups {
	l := &Lookups{
		Suppliers: named(ds.Suppliers, strings.ToUpper),
		Brands:    named(ds.Brands, strings.ToUpper),
		Sections:  named(ds.Sections, strings.ToUpper),
		Salesmen:  named(ds.Salesmen, nil),
		Customers: make(map[string]string, len(ds.Customers)),
	}
	for _, c := range ds.Customers {
		if c.Code == "" {
			continue
		}
		if _, dup := l.Customers[c.Code]; !dup {
			l.Customers[c.Code] = c.DisplayName
		}
	}
	return l
}

func named(entities []domain.NamedEntity, transform func(string) string) map[string]string {
	out := make(map[string]string, len(entities))
	for _, e := range entities {
		if e.ID == "" {
			continue
		}
		if _, dup := out[e.ID]; dup {
			continue
		}
		name := e.Name
		if transform != nil {
			name = transform(name)
		}
		out[e.ID] = name
	}
	return out
}

// SalesmanName returns the salesman's name or "UNASSIGNED".
func (l *Lookups) SalesmanName(id string) string {
	if name := l.Salesmen[id]; id != "" && name != "" {
		return name
	}
	return "UNASSIGNED"
}

// CustomerName falls back to the code, then to "UNKNOWN".
func (l *Lookups) CustomerName(code string) string {
	if name := l.Customers[code]; code != "" && name != "" {
		return name
	}
	if code != "" {
		return code
	}
	return "UNKNOWN"
}

// SupplierName falls back to the supplier id when the supplier has no name.
func (l *Lookups) SupplierName(id string) string {
	if name := l.Suppliers[id]; name != "" {
		return name
	}
	return strings.ToUpper(id)
}
