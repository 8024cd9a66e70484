package matcher

import (
	"fmt"
	"strings"
)

// Category is one rule of the domain keyword table. A label that contains
// any of Tokens belongs to the category; catalog entries whose name contains
// a Preferred substring then score at least PreferredScore, and entries whose
// name contains a Keyword score at least KeywordScore.
type Category struct {
	Tag       string   `json:"tag" yaml:"tag"`
	Tokens    []string `json:"tokens" yaml:"tokens"`
	Keywords  []string `json:"keywords" yaml:"keywords"`
	Preferred []string `json:"preferred" yaml:"preferred"`
}

// Validate reports a category that can never match anything.
func (c Category) Validate() error {
	if c.Tag == "" {
		return fmt.Errorf("%w: missing tag", ErrInvalidCategory)
	}
	if len(normalizeAll(c.Tokens)) == 0 {
		return fmt.Errorf("%w: %s has no tokens", ErrInvalidCategory, c.Tag)
	}
	if len(normalizeAll(c.Keywords))+len(normalizeAll(c.Preferred)) == 0 {
		return fmt.Errorf("%w: %s has neither keywords nor preferred names", ErrInvalidCategory, c.Tag)
	}
	return nil
}

// normalized returns a copy with every string lowercased and trimmed.
func (c Category) normalized() Category {
	return Category{
		Tag:       c.Tag,
		Tokens:    normalizeAll(c.Tokens),
		Keywords:  normalizeAll(c.Keywords),
		Preferred: normalizeAll(c.Preferred),
	}
}

// hits reports whether the normalized label belongs to the category.
func (c Category) hits(label string) bool {
	return containsAny(label, c.Tokens)
}

// DefaultCategories is the built-in table. Tokens cover English and German
// labels since bills of quantities commonly arrive in either.
func DefaultCategories() []Category {
	return []Category{
		{
			Tag:       "precast_concrete",
			Tokens:    []string{"precast", "prefab", "fertigteil", "betonelement"},
			Keywords:  []string{"concrete", "beton"},
			Preferred: []string{"precast concrete", "betonfertigteil", "betonelement"},
		},
		{
			Tag:       "concrete",
			Tokens:    []string{"concrete", "beton"},
			Keywords:  []string{"concrete", "beton"},
			Preferred: []string{"ready-mix concrete", "hochbaubeton", "concrete c25/30", "concrete c30/37"},
		},
		{
			Tag:       "reinforcement",
			Tokens:    []string{"reinforcement", "reinforcing", "rebar", "bewehrung", "armierung"},
			Keywords:  []string{"reinforc", "rebar", "steel", "stahl"},
			Preferred: []string{"reinforcing steel", "bewehrungsstahl", "betonstahl"},
		},
		{
			Tag:       "masonry",
			Tokens:    []string{"masonry", "brick", "block", "mauerwerk", "backstein", "ziegel"},
			Keywords:  []string{"brick", "masonry", "block", "mauerstein", "backstein", "ziegel"},
			Preferred: []string{"clay brick", "backstein", "mauerziegel"},
		},
		{
			Tag:       "timber",
			Tokens:    []string{"timber", "wood", "lumber", "holz"},
			Keywords:  []string{"timber", "wood", "lumber", "holz"},
			Preferred: []string{"sawn timber", "glued laminated timber", "brettschichtholz", "schnittholz"},
		},
		{
			Tag:       "insulation",
			Tokens:    []string{"insulation", "dämmung", "daemmung", "mineral wool", "polystyrene", "polystyrol"},
			Keywords:  []string{"insulation", "dämm", "polystyrene", "polystyrol", "wool", "wolle"},
			Preferred: []string{"mineral wool", "steinwolle", "glaswolle", "expanded polystyrene"},
		},
		{
			Tag:       "glass",
			Tokens:    []string{"glass", "glazing", "glas", "verglasung"},
			Keywords:  []string{"glass", "glas"},
			Preferred: []string{"float glass", "flachglas", "insulating glazing", "isolierverglasung"},
		},
	}
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func normalizeAll(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if n := normalize(s); n != "" {
			out = append(out, n)
		}
	}
	return out
}

func containsAny(s string, subs []string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
