// Package ingest turns raw provider records into the typed dataset the
// report works on. Ambiguous id shapes stop here.
package ingest

import (
	"encoding/json"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/salesdash/internal/domain"
	"github.com/andresuchdata/salesdash/internal/upstream"
)

// Decode converts every collection of the snapshot. Records that do not
// decode or have no usable key are dropped and counted, never returned as
// errors.
func Decode(snap *upstream.Snapshot) (*domain.Dataset, domain.IngestStats) {
	d := &decoder{snap: snap, stats: domain.NewIngestStats()}
	ds := &domain.Dataset{}

	d.each(upstream.CollectionProducts, func(raw json.RawMessage) bool {
		var r productRecord
		if !d.unmarshal(raw, &r) {
			return false
		}
		id := r.ID.Resolve("product_id")
		if id == "" {
			return false
		}
		parent := r.Parent.Resolve("product_id")
		if parent == id {
			parent = ""
		}
		name := string(r.Name)
		ds.Products = append(ds.Products, domain.Product{
			ID:          id,
			ParentID:    parent,
			Name:        name,
			NameUpper:   strings.ToUpper(name),
			BrandID:     r.Brand.Resolve("brand_id"),
			SectionID:   r.Section.Resolve("section_id"),
			StockOnHand: float64(r.Stock),
		})
		return true
	})

	linked := make(map[string]struct{})
	d.each(upstream.CollectionProductSuppliers, func(raw json.RawMessage) bool {
		var r productSupplierRecord
		if !d.unmarshal(raw, &r) {
			return false
		}
		product := r.Product.Resolve("product_id")
		supplier := r.Supplier.Resolve("supplier_id")
		if product == "" || supplier == "" {
			return false
		}
		// first link per product wins; later ones are kept out silently
		if _, seen := linked[product]; seen {
			return true
		}
		linked[product] = struct{}{}
		ds.ProductLinks = append(ds.ProductLinks, domain.ProductSupplierLink{ProductID: product, SupplierID: supplier})
		return true
	})

	ds.Suppliers = d.named(upstream.CollectionSuppliers, func(raw json.RawMessage) (string, string, bool) {
		var r supplierRecord
		ok := d.unmarshal(raw, &r)
		return r.ID.Resolve("supplier_id"), string(r.Name), ok
	})
	ds.Brands = d.named(upstream.CollectionBrands, func(raw json.RawMessage) (string, string, bool) {
		var r brandRecord
		ok := d.unmarshal(raw, &r)
		return r.ID.Resolve("brand_id"), string(r.Name), ok
	})
	ds.Sections = d.named(upstream.CollectionSections, func(raw json.RawMessage) (string, string, bool) {
		var r sectionRecord
		ok := d.unmarshal(raw, &r)
		return r.ID.Resolve("section_id"), string(r.Name), ok
	})
	ds.Salesmen = d.named(upstream.CollectionSalesmen, func(raw json.RawMessage) (string, string, bool) {
		var r salesmanRecord
		ok := d.unmarshal(raw, &r)
		return r.ID.Resolve("salesman_id"), string(r.Name), ok
	})

	d.each(upstream.CollectionCustomers, func(raw json.RawMessage) bool {
		var r customerRecord
		if !d.unmarshal(raw, &r) {
			return false
		}
		code := r.Code.Resolve("customer_code")
		if code == "" {
			return false
		}
		ds.Customers = append(ds.Customers, domain.Customer{Code: code, DisplayName: string(r.Name)})
		return true
	})

	d.each(upstream.CollectionInvoices, func(raw json.RawMessage) bool {
		var r invoiceRecord
		if !d.unmarshal(raw, &r) {
			return false
		}
		id := r.ID.Resolve("invoice_id")
		date := NormalizeDate(string(r.Date))
		if id == "" || date == "" {
			return false
		}
		ds.Invoices = append(ds.Invoices, domain.Invoice{
			ID:           id,
			Date:         date,
			TotalAmount:  r.Total.Decimal,
			SalesmanID:   r.Salesman.Resolve("salesman_id"),
			CustomerCode: r.Customer.Resolve("customer_code"),
		})
		return true
	})

	d.each(upstream.CollectionInvoiceLines, func(raw json.RawMessage) bool {
		var r invoiceLineRecord
		if !d.unmarshal(raw, &r) {
			return false
		}
		invoice := r.Invoice.Resolve("invoice_id")
		product := r.Product.Resolve("product_id")
		if invoice == "" || product == "" {
			return false
		}
		ds.InvoiceLines = append(ds.InvoiceLines, domain.InvoiceLine{
			InvoiceID:   invoice,
			ProductID:   product,
			TotalAmount: r.Total.Decimal,
			Quantity:    float64(r.Quantity),
		})
		return true
	})

	d.each(upstream.CollectionReturns, func(raw json.RawMessage) bool {
		var r returnRecord
		if !d.unmarshal(raw, &r) {
			return false
		}
		number := r.Number.Resolve("return_number")
		date := NormalizeDate(string(r.Date))
		if number == "" || date == "" {
			return false
		}
		ds.Returns = append(ds.Returns, domain.Return{ReturnNumber: number, Date: date})
		return true
	})

	d.each(upstream.CollectionReturnLines, func(raw json.RawMessage) bool {
		var r returnLineRecord
		if !d.unmarshal(raw, &r) {
			return false
		}
		number := r.Number.Resolve("return_number")
		product := r.Product.Resolve("product_id")
		if number == "" || product == "" {
			return false
		}
		ds.ReturnLines = append(ds.ReturnLines, domain.ReturnLine{
			ReturnNumber: number,
			ProductID:    product,
			Quantity:     float64(r.Quantity),
		})
		return true
	})

	return ds, d.stats
}

type decoder struct {
	snap  *upstream.Snapshot
	stats domain.IngestStats
}

// each feeds every raw row of a collection to fn; a false return counts the
// row as dropped.
func (d *decoder) each(collection string, fn func(json.RawMessage) bool) {
	rows := d.snap.Rows(collection)
	d.stats.Rows[collection] = len(rows)

	dropped := 0
	for _, raw := range rows {
		if !fn(raw) {
			dropped++
		}
	}
	if dropped > 0 {
		d.stats.Dropped[collection] = dropped
		log.Debug().
			Str("collection", collection).
			Int("dropped", dropped).
			Int("rows", len(rows)).
			Msg("ingest: dropped malformed records")
	}
}

func (d *decoder) named(collection string, fn func(json.RawMessage) (string, string, bool)) []domain.NamedEntity {
	var out []domain.NamedEntity
	d.each(collection, func(raw json.RawMessage) bool {
		id, name, ok := fn(raw)
		if !ok || id == "" {
			return false
		}
		out = append(out, domain.NamedEntity{ID: id, Name: name})
		return true
	})
	return out
}

func (d *decoder) unmarshal(raw json.RawMessage, v any) bool {
	return json.Unmarshal(raw, v) == nil
}
