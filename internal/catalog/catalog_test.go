package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salesdash/internal/domain"
)

func products(pairs ...string) []domain.Product {
	var out []domain.Product
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.Product{ID: pairs[i], ParentID: pairs[i+1]})
	}
	return out
}

func links(pairs ...string) []domain.ProductSupplierLink {
	var out []domain.ProductSupplierLink
	for i := 0; i+1 < len(pairs); i += 2 {
		out = append(out, domain.ProductSupplierLink{ProductID: pairs[i], SupplierID: pairs[i+1]})
	}
	return out
}

func TestRootFollowsParentChain(t *testing.T) {
	h := NewHierarchy(products("A", "", "B", "A", "C", "B"), nil)

	assert.Equal(t, "A", h.Root("A"))
	assert.Equal(t, "A", h.Root("B"))
	assert.Equal(t, "A", h.Root("C"))
}

func TestRootTerminatesOnCycle(t *testing.T) {
	h := NewHierarchy(products("A", "B", "B", "A", "C", "A"), nil)

	root := h.Root("A")
	assert.Contains(t, []string{"A", "B"}, root)
	assert.Equal(t, root, h.Root("B"), "cycle members share one root")
	assert.Equal(t, root, h.Root("C"))

	again := NewHierarchy(products("A", "B", "B", "A", "C", "A"), nil)
	assert.Equal(t, root, again.Root("A"), "deterministic across builds")
}

func TestRootTerminatesOnSelfLoopAndDanglingParent(t *testing.T) {
	h := NewHierarchy(products("A", "A", "B", "MISSING"), nil)

	assert.Equal(t, "A", h.Root("A"))
	assert.Equal(t, "B", h.Root("B"))
	assert.Equal(t, "ZZZ", h.Root("ZZZ"), "unknown ids are their own root")
}

func TestEffectiveSupplierMajorityVote(t *testing.T) {
	h := NewHierarchy(
		products("ROOT", "", "V1", "ROOT", "V2", "ROOT"),
		links("ROOT", "S1", "V1", "S1", "V2", "S2"),
	)

	// S1, S1, S2 across the family
	for _, id := range []string{"ROOT", "V1", "V2"} {
		s, ok := h.EffectiveSupplier(id)
		require.True(t, ok)
		assert.Equal(t, "S1", s, id)
	}

	// no direct link on the root: pure vote
	h = NewHierarchy(
		products("ROOT", "", "V1", "ROOT", "V2", "ROOT", "V3", "ROOT"),
		links("V1", "S2", "V2", "S1", "V3", "S1"),
	)
	for _, id := range []string{"ROOT", "V1", "V2", "V3"} {
		s, ok := h.EffectiveSupplier(id)
		require.True(t, ok)
		assert.Equal(t, "S1", s, id)
	}
}

func TestEffectiveSupplierRootOverridesVote(t *testing.T) {
	h := NewHierarchy(
		products("ROOT", "", "V1", "ROOT", "V2", "ROOT"),
		links("V1", "S1", "V2", "S1", "ROOT", "S3"),
	)

	for _, id := range []string{"ROOT", "V1", "V2"} {
		s, ok := h.EffectiveSupplier(id)
		require.True(t, ok)
		assert.Equal(t, "S3", s, id)
	}
}

func TestEffectiveSupplierTieBreaksToLowestID(t *testing.T) {
	h := NewHierarchy(
		products("R", "", "A", "R", "B", "R"),
		links("A", "10", "B", "9"),
	)
	s, _ := h.EffectiveSupplier("R")
	assert.Equal(t, "9", s, "numeric ids compare as numbers")

	h = NewHierarchy(
		products("R", "", "A", "R", "B", "R"),
		links("A", "SUP-B", "B", "SUP-A"),
	)
	s, _ = h.EffectiveSupplier("A")
	assert.Equal(t, "SUP-A", s)
}

func TestEffectiveSupplierUnattributable(t *testing.T) {
	h := NewHierarchy(products("A", "", "B", "A"), links("X", "S9"))

	_, ok := h.EffectiveSupplier("B")
	assert.False(t, ok)
	_, ok = h.EffectiveSupplier("")
	assert.False(t, ok)

	s, ok := h.EffectiveSupplier("X")
	require.True(t, ok, "unknown product keeps its own link")
	assert.Equal(t, "S9", s)
}

func TestEffectiveSupplierIsAlwaysTheFamilySupplier(t *testing.T) {
	h := NewHierarchy(
		products("R", "", "A", "R", "B", "A", "C", "C", "D", "MISSING"),
		links("B", "S2", "A", "S1", "C", "S3", "D", "S4", "UNKNOWN", "S5"),
	)

	for _, id := range []string{"R", "A", "B", "C", "D", "UNKNOWN"} {
		family, ok := h.FamilySupplier(h.Root(id))
		require.True(t, ok, id)
		s, ok := h.EffectiveSupplier(id)
		require.True(t, ok, id)
		assert.Equal(t, family, s, id)
	}
}

func TestBuildLookupsUppercasesClassifierDimensions(t *testing.T) {
	l := BuildLookups(&domain.Dataset{
		Suppliers: []domain.NamedEntity{{ID: "S1", Name: "Acme Foods"}, {ID: "S1", Name: "dup"}, {ID: "", Name: "blank"}},
		Brands:    []domain.NamedEntity{{ID: "B1", Name: "Frosty"}},
		Sections:  []domain.NamedEntity{{ID: "X1", Name: "Frozen"}},
		Salesmen:  []domain.NamedEntity{{ID: "9", Name: "Budi"}},
		Customers: []domain.Customer{{Code: "C1", DisplayName: "Toko Makmur"}, {Code: "C2"}},
	})

	assert.Equal(t, map[string]string{"S1": "ACME FOODS"}, l.Suppliers)
	assert.Equal(t, "FROSTY", l.Brands["B1"])
	assert.Equal(t, "FROZEN", l.Sections["X1"])
	assert.Equal(t, "Budi", l.SalesmanName("9"))
	assert.Equal(t, "UNASSIGNED", l.SalesmanName("404"))
	assert.Equal(t, "UNASSIGNED", l.SalesmanName(""))
	assert.Equal(t, "Toko Makmur", l.CustomerName("C1"))
	assert.Equal(t, "C2", l.CustomerName("C2"))
	assert.Equal(t, "UNKNOWN", l.CustomerName(""))
	assert.Equal(t, "S7", l.SupplierName("s7"))
}
