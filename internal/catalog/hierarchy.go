package catalog

import (
	"strconv"

	"github.com/andresuchdata/salesdash/internal/domain"
)

// Hierarchy resolves product family roots and the supplier attributed to
// each family. It memoizes per instance and is built once per report; it is
// not safe for concurrent use.
type Hierarchy struct {
	products map[string]domain.Product
	links    map[string]string // product -> direct supplier
	roots    map[string]string // memoized product -> root
	family   map[string]string // root -> family supplier
}

func NewHierarchy(products []domain.Product, links []domain.ProductSupplierLink) *Hierarchy {
	h := &Hierarchy{
		products: make(map[string]domain.Product, len(products)),
		links:    make(map[string]string, len(links)),
		roots:    make(map[string]string, len(products)),
		family:   make(map[string]string),
	}
	for _, p := range products {
		if p.ID == "" {
			continue
		}
		if _, dup := h.products[p.ID]; !dup {
			h.products[p.ID] = p
		}
	}
	for _, l := range links {
		if l.ProductID == "" || l.SupplierID == "" {
			continue
		}
		if _, dup := h.links[l.ProductID]; !dup {
			h.links[l.ProductID] = l.SupplierID
		}
	}

	// resolve in input order so cycle roots do not depend on map iteration
	for _, p := range products {
		h.Root(p.ID)
	}

	votes := make(map[string]map[string]int)
	for _, l := range links {
		supplier, ok := h.links[l.ProductID]
		if !ok || supplier != l.SupplierID {
			continue
		}
		root := h.Root(l.ProductID)
		if votes[root] == nil {
			votes[root] = make(map[string]int)
		}
		votes[root][supplier]++
	}
	for root, tally := range votes {
		if direct, ok := h.links[root]; ok {
			h.family[root] = direct
			continue
		}
		h.family[root] = winner(tally)
	}
	return h
}

// Product returns the known product for id.
func (h *Hierarchy) Product(id string) (domain.Product, bool) {
	p, ok := h.products[id]
	return p, ok
}

// Root walks parent pointers up to the family root. The walk stops at a
// missing parent, a parent that is not a known product, or a node already
// seen in this walk, so cycles and dangling references terminate. Unknown
// ids are their own root.
func (h *Hierarchy) Root(id string) string {
	if root, ok := h.roots[id]; ok {
		return root
	}
	if _, ok := h.products[id]; !ok {
		return id
	}

	var (
		path    []string
		visited = make(map[string]struct{})
		cur     = id
		root    string
	)
	for {
		if memo, ok := h.roots[cur]; ok {
			root = memo
			break
		}
		path = append(path, cur)
		visited[cur] = struct{}{}

		parent := h.products[cur].ParentID
		if parent == "" {
			root = cur
			break
		}
		if _, known := h.products[parent]; !known {
			root = cur
			break
		}
		if _, seen := visited[parent]; seen {
			root = cur
			break
		}
		cur = parent
	}

	for _, p := range path {
		h.roots[p] = root
	}
	return root
}

// FamilySupplier returns the supplier of a family: the root's own link when
// it has one, otherwise the most linked supplier among its members.
func (h *Hierarchy) FamilySupplier(root string) (string, bool) {
	s, ok := h.family[root]
	return s, ok && s != ""
}

// EffectiveSupplier attributes a product to its family's supplier. Every
// linked product votes for its own root, so a product with a link always
// lands in a family that has a supplier. false means unattributable.
func (h *Hierarchy) EffectiveSupplier(id string) (string, bool) {
	if id == "" {
		return "", false
	}
	return h.FamilySupplier(h.Root(id))
}

// winner picks the highest tally; equal tallies go to the lowest supplier id.
func winner(tally map[string]int) string {
	var (
		best  string
		count int
	)
	for supplier, n := range tally {
		if n > count || (n == count && lessID(supplier, best)) {
			best, count = supplier, n
		}
	}
	return best
}

// lessID compares ids numerically when both are integers, lexically otherwise.
func lessID(a, b string) bool {
	ai, errA := strconv.ParseInt(a, 10, 64)
	bi, errB := strconv.ParseInt(b, 10, 64)
	if errA == nil && errB == nil {
		return ai < bi
	}
	return a < b
}
