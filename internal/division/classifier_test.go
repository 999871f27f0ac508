package division

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClassifyCascade(t *testing.T) {
	c := NewClassifier(DefaultRules())

	tests := []struct {
		name    string
		subject Subject
		want    string
		stage   string
	}{
		{"brand", Subject{Brand: "FIESTA"}, "Frozen Goods", "brand"},
		{"brand keyword in product name", Subject{Name: "INDOMIE GORENG 85G"}, "Dry Goods", "brand"},
		{"section", Subject{Section: "INDUSTRI UMUM"}, "Industrial", "section"},
		{"supplier", Subject{Name: "MIXED PACK", Supplier: "PT PETRO JAYA"}, "Industrial", "supplier"},
		{"name heuristic", Subject{Name: "CHICKEN NUGGET 500G"}, "Frozen Goods", "heuristic"},
		{"fuel heuristic", Subject{Name: "GAS LPG 3KG"}, "Industrial", "heuristic"},
		{"default", Subject{Name: "SABUN MANDI"}, "Others", "default"},
		{"empty subject", Subject{}, "Others", "default"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, stage := c.Explain(tt.subject)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.stage, stage)
			assert.Equal(t, tt.want, c.Classify(tt.subject))
		})
	}
}

func TestBrandBeatsSection(t *testing.T) {
	c := NewClassifier(DefaultRules())

	got := c.Classify(Subject{Brand: "KANZLER", Section: "GROCERY"})
	assert.Equal(t, "Frozen Goods", got)

	got = c.Classify(Subject{Brand: "UNKNOWN", Section: "GROCERY", Supplier: "COLD CHAIN"})
	assert.Equal(t, "Dry Goods", got, "section beats supplier")
}

func TestKeywordsAreCaseSensitiveOnSubject(t *testing.T) {
	c := NewClassifier(Rules{
		Divisions:       []DivisionRule{{Name: "Frozen Goods", BrandKeywords: []string{"fiesta"}}},
		DefaultDivision: "Others",
	})

	assert.Equal(t, "Frozen Goods", c.Classify(Subject{Brand: "FIESTA"}), "keywords are uppercased at compile time")
	assert.Equal(t, "Others", c.Classify(Subject{Brand: "fiesta"}), "subjects must arrive uppercased")
}

func TestEmptyKeywordNeverMatches(t *testing.T) {
	c := NewClassifier(Rules{
		Divisions:       []DivisionRule{{Name: "Dry Goods", BrandKeywords: []string{"", "  "}}},
		DefaultDivision: "Others",
	})
	assert.Equal(t, "Others", c.Classify(Subject{Brand: "ANY"}))
}

func TestDivisionsAndLookup(t *testing.T) {
	c := NewClassifier(DefaultRules())

	assert.Equal(t, []string{"Dry Goods", "Frozen Goods", "Industrial", "Franchise", "Others"}, c.Divisions())
	assert.Equal(t, "Others", c.Default())

	name, ok := c.Lookup("frozen goods")
	require.True(t, ok)
	assert.Equal(t, "Frozen Goods", name)
	_, ok = c.Lookup("Overview")
	assert.False(t, ok)
}

func TestLoadRules(t *testing.T) {
	rules, err := LoadRules(filepath.Join("..", "..", "configs", "divisions.yaml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultRules(), rules)

	rules, err = LoadRules("")
	require.NoError(t, err)
	assert.Equal(t, "Others", rules.DefaultDivision)

	_, err = LoadRules(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadRulesRejectsInvalidTables(t *testing.T) {
	tests := map[string]string{
		"no default":       "divisions: [{name: A}]\n",
		"unnamed division": "default_division: X\ndivisions: [{brand_keywords: [K]}]\n",
		"duplicate":        "default_division: X\ndivisions: [{name: A}, {name: a}]\n",
		"unknown supplier": "default_division: X\nsupplier_keywords: [{keyword: K, division: Nope}]\n",
		"bad field":        "default_division: X\nheuristics: [{field: brand, keywords: [K], division: X}]\n",
		"broken yaml":      "divisions: [\n",
	}
	for name, body := range tests {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "rules.yaml")
			require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

			_, err := LoadRules(path)
			assert.Error(t, err)
		})
	}
}
