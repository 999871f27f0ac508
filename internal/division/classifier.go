package division

import "strings"

// Subject is what the classifier looks at. Every field must already be
// uppercase: the product name from ingestion, the rest from the lookups.
type Subject struct {
	Name     string
	Brand    string
	Section  string
	Supplier string
}

type rule struct {
	stage    string
	match    func(Subject) bool
	division string
}

// Classifier evaluates rules in order; the first match wins. It holds no
// mutable state and is safe for concurrent use.
type Classifier struct {
	rules     []rule
	divisions []string
	canonical map[string]string
	fallback  string
}

// NewClassifier compiles the rules into the cascade: brand keywords (brand or
// product name), section keywords, supplier keywords, name/section
// heuristics, then the default division. Rules are expected to be valid.
func NewClassifier(rules Rules) *Classifier {
	c := &Classifier{
		canonical: make(map[string]string),
		fallback:  strings.TrimSpace(rules.DefaultDivision),
	}
	for _, d := range rules.Divisions {
		name := strings.TrimSpace(d.Name)
		if _, dup := c.canonical[strings.ToUpper(name)]; dup || name == "" {
			continue
		}
		c.canonical[strings.ToUpper(name)] = name
		c.divisions = append(c.divisions, name)
	}
	if _, ok := c.canonical[strings.ToUpper(c.fallback)]; !ok {
		c.canonical[strings.ToUpper(c.fallback)] = c.fallback
		c.divisions = append(c.divisions, c.fallback)
	}

	for _, d := range rules.Divisions {
		if kw := keywords(d.BrandKeywords); len(kw) > 0 {
			c.add("brand", c.name(d.Name), func(s Subject) bool {
				return containsAny(s.Brand, kw) || containsAny(s.Name, kw)
			})
		}
	}
	for _, d := range rules.Divisions {
		if kw := keywords(d.SectionKeywords); len(kw) > 0 {
			c.add("section", c.name(d.Name), func(s Subject) bool {
				return containsAny(s.Section, kw)
			})
		}
	}
	for _, k := range rules.SupplierKeywords {
		if kw := keywords([]string{k.Keyword}); len(kw) > 0 {
			c.add("supplier", c.name(k.Division), func(s Subject) bool {
				return containsAny(s.Supplier, kw)
			})
		}
	}
	for _, h := range rules.Heuristics {
		kw := keywords(h.Keywords)
		if len(kw) == 0 {
			continue
		}
		switch h.Field {
		case FieldSection:
			c.add("heuristic", c.name(h.Division), func(s Subject) bool { return containsAny(s.Section, kw) })
		case FieldName:
			c.add("heuristic", c.name(h.Division), func(s Subject) bool { return containsAny(s.Name, kw) })
		}
	}
	return c
}

func (c *Classifier) add(stage, division string, match func(Subject) bool) {
	c.rules = append(c.rules, rule{stage: stage, match: match, division: division})
}

func (c *Classifier) name(division string) string {
	if canonical, ok := c.canonical[strings.ToUpper(strings.TrimSpace(division))]; ok {
		return canonical
	}
	return c.fallback
}

// Classify returns the division of a product.
func (c *Classifier) Classify(s Subject) string {
	division, _ := c.Explain(s)
	return division
}

// Explain also returns the cascade stage that decided, "default" when none
// matched.
func (c *Classifier) Explain(s Subject) (division, stage string) {
	for _, r := range c.rules {
		if r.match(s) {
			return r.division, r.stage
		}
	}
	return c.fallback, "default"
}

// Divisions lists the configured divisions in order, default last unless it
// was configured explicitly.
func (c *Classifier) Divisions() []string {
	out := make([]string, len(c.divisions))
	copy(out, c.divisions)
	return out
}

// Default is the catch-all division.
func (c *Classifier) Default() string {
	return c.fallback
}

// Lookup matches a division name case-insensitively.
func (c *Classifier) Lookup(name string) (string, bool) {
	canonical, ok := c.canonical[strings.ToUpper(strings.TrimSpace(name))]
	return canonical, ok
}

func keywords(in []string) []string {
	out := make([]string, 0, len(in))
	for _, k := range in {
		if strings.TrimSpace(k) == "" {
			continue
		}
		out = append(out, strings.ToUpper(k))
	}
	return out
}

func containsAny(value string, keywords []string) bool {
	if value == "" {
		return false
	}
	for _, k := range keywords {
		if strings.Contains(value, k) {
			return true
		}
	}
	return false
}
