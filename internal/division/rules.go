// Package division assigns products to business divisions with an ordered,
// data-driven rule cascade.
package division

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v2"
)

// Heuristic fields.
const (
	FieldName    = "name"
	FieldSection = "section"
)

// Rules is the classification table. It is loaded once at start-up and
// injected into the classifier.
type Rules struct {
	Divisions        []DivisionRule `yaml:"divisions"`
	SupplierKeywords []KeywordRule  `yaml:"supplier_keywords"`
	Heuristics       []Heuristic    `yaml:"heuristics"`
	DefaultDivision  string         `yaml:"default_division"`
}

type DivisionRule struct {
	Name            string   `yaml:"name"`
	BrandKeywords   []string `yaml:"brand_keywords"`
	SectionKeywords []string `yaml:"section_keywords"`
}

// KeywordRule maps a supplier name fragment to a division.
type KeywordRule struct {
	Keyword  string `yaml:"keyword"`
	Division string `yaml:"division"`
}

// Heuristic is a last-resort keyword check on the product name or section.
type Heuristic struct {
	Field    string   `yaml:"field"`
	Keywords []string `yaml:"keywords"`
	Division string   `yaml:"division"`
}

func DefaultRules() Rules {
	return Rules{
		Divisions: []DivisionRule{
			{
				Name:            "Dry Goods",
				BrandKeywords:   []string{"INDOMIE", "SEDAAP", "ABC", "SARIWANGI", "BIMOLI"},
				SectionKeywords: []string{"GROCERY", "SEMBAKO", "DRY", "BEVERAGE", "SNACK"},
			},
			{
				Name:            "Frozen Goods",
				BrandKeywords:   []string{"FIESTA", "SO GOOD", "CHAMP", "BERNARDI", "KANZLER"},
				SectionKeywords: []string{"FROZEN", "CHILLED", "ICE CREAM"},
			},
			{
				Name:            "Industrial",
				BrandKeywords:   []string{"PERTAMINA", "SHELL", "CASTROL"},
				SectionKeywords: []string{"INDUSTRI", "LUBRICANT", "CHEMICAL"},
			},
			{
				Name:            "Franchise",
				BrandKeywords:   []string{"FRANCHISE", "KEMITRAAN"},
				SectionKeywords: []string{"FRANCHISE", "OUTLET SUPPLY"},
			},
		},
		SupplierKeywords: []KeywordRule{
			{Keyword: "FROZEN", Division: "Frozen Goods"},
			{Keyword: "COLD", Division: "Frozen Goods"},
			{Keyword: "PETRO", Division: "Industrial"},
			{Keyword: "ENERGI", Division: "Industrial"},
			{Keyword: "FRANCHISE", Division: "Franchise"},
		},
		Heuristics: []Heuristic{
			{Field: FieldSection, Keywords: []string{"FROZEN"}, Division: "Frozen Goods"},
			{Field: FieldName, Keywords: []string{"NUGGET", "SOSIS", "SAUSAGE", "BAKSO", "DAGING", "FILLET"}, Division: "Frozen Goods"},
			{Field: FieldName, Keywords: []string{"LPG", "ELPIJI", "SOLAR", "BENSIN", "OLI MESIN"}, Division: "Industrial"},
		},
		DefaultDivision: "Others",
	}
}

// LoadRules reads a YAML rules file. An empty path yields DefaultRules.
func LoadRules(path string) (Rules, error) {
	if path == "" {
		return DefaultRules(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Rules{}, fmt.Errorf("read division rules: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return Rules{}, fmt.Errorf("parse division rules %s: %w", path, err)
	}
	if err := rules.Validate(); err != nil {
		return Rules{}, fmt.Errorf("invalid division rules %s: %w", path, err)
	}
	return rules, nil
}

// Validate rejects tables the classifier cannot honour.
func (r Rules) Validate() error {
	if strings.TrimSpace(r.DefaultDivision) == "" {
		return errors.New("default_division is required")
	}

	known := map[string]bool{strings.ToUpper(r.DefaultDivision): true}
	for i, d := range r.Divisions {
		name := strings.TrimSpace(d.Name)
		if name == "" {
			return fmt.Errorf("divisions[%d]: name is required", i)
		}
		if strings.EqualFold(name, r.DefaultDivision) {
			continue
		}
		if known[strings.ToUpper(name)] {
			return fmt.Errorf("divisions[%d]: duplicate division %q", i, name)
		}
		known[strings.ToUpper(name)] = true
	}

	for i, k := range r.SupplierKeywords {
		if !known[strings.ToUpper(k.Division)] {
			return fmt.Errorf("supplier_keywords[%d]: unknown division %q", i, k.Division)
		}
	}
	for i, h := range r.Heuristics {
		if h.Field != FieldName && h.Field != FieldSection {
			return fmt.Errorf("heuristics[%d]: field must be %q or %q", i, FieldName, FieldSection)
		}
		if !known[strings.ToUpper(h.Division)] {
			return fmt.Errorf("heuristics[%d]: unknown division %q", i, h.Division)
		}
	}
	return nil
}
