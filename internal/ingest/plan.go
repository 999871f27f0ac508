package ingest

import (
	"time"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/upstream"
)

// referenceCollections are small, slow-changing and read with one request.
var referenceCollections = map[string]bool{
	upstream.CollectionSuppliers: true,
	upstream.CollectionBrands:    true,
	upstream.CollectionSections:  true,
	upstream.CollectionSalesmen:  true,
	upstream.CollectionCustomers: true,
}

// dateFields is the path to each transactional collection's date, used to
// push the report window down to the provider.
var dateFields = map[string][]string{
	upstream.CollectionInvoices:     {"invoice_date"},
	upstream.CollectionInvoiceLines: {"invoice_id", "invoice_date"},
	upstream.CollectionReturns:      {"return_date"},
	upstream.CollectionReturnLines:  {"return_number", "return_date"},
}

// Plan lists the requests for one report build. The date window is only a
// hint to the provider; the aggregation re-checks it.
func Plan(params domain.ReportParams, pageSize int) []upstream.Request {
	plan := make([]upstream.Request, 0, len(upstream.AllCollections))
	for _, collection := range upstream.AllCollections {
		q := upstream.Query{
			Collection: collection,
			Fields:     Fields[collection],
			PageSize:   pageSize,
		}
		if path, ok := dateFields[collection]; ok {
			q.Filter = windowFilter(path, params.DateFrom, params.DateTo)
		}
		plan = append(plan, upstream.Request{Query: q, Reference: referenceCollections[collection]})
	}
	return plan
}

func windowFilter(path []string, from, to string) map[string]string {
	if from == "" && to == "" {
		return nil
	}

	prefix := "filter"
	for _, p := range path {
		prefix += "[" + p + "]"
	}

	filter := make(map[string]string, 2)
	if from != "" {
		filter[prefix+"[_gte]"] = from
	}
	if to != "" {
		// timestamps on the last day must still match
		if day, err := time.Parse("2006-01-02", to); err == nil {
			filter[prefix+"[_lt]"] = day.AddDate(0, 0, 1).Format("2006-01-02")
		} else {
			filter[prefix+"[_lte]"] = to
		}
	}
	return filter
}
