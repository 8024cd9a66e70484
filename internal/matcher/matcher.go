// Package matcher maps free-text material labels onto catalog entries.
//
// Scoring combines three passes over the catalog, in order:
//
//  1. exact name match (score 1.0);
//  2. the category table: a label containing a category token lifts entries
//     whose names contain the category's preferred names to 0.9 and entries
//     containing one of its keywords to 0.8;
//  3. a word-overlap fallback, consulted only when the first two passes
//     scored nothing.
//
// Scores from different rules combine by maximum. The highest-scoring entry
// wins; ties go to the entry that appears first in the catalog. A score of
// at least ConfidenceThreshold is a confident match.
package matcher

import (
	"fmt"
	"math"
	"strings"

	"github.com/rshade/boqlca/internal/catalog"
)

// Score constants.
const (
	ExactScore          = 1.0
	PreferredScore      = 0.9
	KeywordScore        = 0.8
	FallbackWordScore   = 0.3
	ConfidenceThreshold = 0.8
)

// FallbackPolicy decides how word-overlap scores are bounded.
type FallbackPolicy string

const (
	// FallbackCapped adds FallbackWordScore per overlapping word, capped at 1.0.
	FallbackCapped FallbackPolicy = "capped"

	// FallbackUncapped adds FallbackWordScore per overlapping word without a
	// bound, so long labels can exceed 1.0.
	FallbackUncapped FallbackPolicy = "uncapped"

	// FallbackNormalized scores the share of label words found in the name.
	FallbackNormalized FallbackPolicy = "normalized"
)

// ParseFallbackPolicy parses a policy name; "" selects FallbackCapped.
func ParseFallbackPolicy(s string) (FallbackPolicy, error) {
	switch FallbackPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case "", FallbackCapped:
		return FallbackCapped, nil
	case FallbackUncapped:
		return FallbackUncapped, nil
	case FallbackNormalized:
		return FallbackNormalized, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownPolicy, s)
	}
}

// Result is the outcome of matching one label.
type Result struct {
	// Best is the winning entry, nil when nothing scored above zero.
	Best *catalog.Entry

	// Score is the confidence heuristic of Best; 0 when Best is nil.
	Score float64

	// Candidates are the entries offered for manual override.
	Candidates []catalog.Entry

	// Categories lists the tags of the categories the label hit.
	Categories []string
}

// Confident reports whether the result clears ConfidenceThreshold.
func (r Result) Confident() bool {
	return r.Best != nil && r.Score >= ConfidenceThreshold
}

// Matcher scores labels against catalog entries. A Matcher is immutable
// after construction and safe for concurrent use.
type Matcher struct {
	categories []Category
	fallback   FallbackPolicy
}

// Option configures a Matcher.
type Option func(*Matcher)

// WithCategories replaces the built-in category table.
func WithCategories(categories []Category) Option {
	return func(m *Matcher) {
		m.categories = categories
	}
}

// WithFallbackPolicy selects the word-overlap policy.
func WithFallbackPolicy(p FallbackPolicy) Option {
	return func(m *Matcher) {
		m.fallback = p
	}
}

// New builds a Matcher. Invalid categories are rejected.
func New(opts ...Option) (*Matcher, error) {
	m := &Matcher{categories: DefaultCategories(), fallback: FallbackCapped}
	for _, opt := range opts {
		opt(m)
	}

	normalized := make([]Category, 0, len(m.categories))
	for _, c := range m.categories {
		if err := c.Validate(); err != nil {
			return nil, err
		}
		normalized = append(normalized, c.normalized())
	}
	m.categories = normalized

	if _, err := ParseFallbackPolicy(string(m.fallback)); err != nil {
		return nil, err
	}
	return m, nil
}

// Default returns a Matcher with the built-in table and capped fallback.
func Default() *Matcher {
	m, err := New()
	if err != nil {
		panic(fmt.Sprintf("default matcher: %v", err))
	}
	return m
}

// Categories returns a copy of the normalized category table.
func (m *Matcher) Categories() []Category {
	return append([]Category(nil), m.categories...)
}

// Match scores label against entries. An empty catalog yields a zero Result
// with no candidates; a label matching nothing yields a nil Best.
func (m *Matcher) Match(label string, entries []catalog.Entry) Result {
	if len(entries) == 0 {
		return Result{Candidates: []catalog.Entry{}}
	}

	norm := normalize(label)
	hit := m.hitCategories(norm)

	scores := make([]float64, len(entries))
	scored := false
	for i, e := range entries {
		name := e.NormalizedName()
		s := 0.0
		if norm != "" && name == norm {
			s = ExactScore
		}
		for _, c := range hit {
			switch {
			case containsAny(name, c.Preferred):
				s = math.Max(s, PreferredScore)
			case containsAny(name, c.Keywords):
				s = math.Max(s, KeywordScore)
			}
		}
		scores[i] = s
		if s > 0 {
			scored = true
		}
	}

	if !scored {
		m.fallbackScores(norm, entries, scores)
	}

	result := Result{Candidates: candidates(entries, hit)}
	for _, c := range hit {
		result.Categories = append(result.Categories, c.Tag)
	}

	best := -1
	for i, s := range scores {
		if s > 0 && (best < 0 || s > scores[best]) {
			best = i
		}
	}
	if best >= 0 {
		e := entries[best]
		result.Best = &e
		result.Score = scores[best]
	}
	return result
}

func (m *Matcher) hitCategories(label string) []Category {
	if label == "" {
		return nil
	}
	var hit []Category
	for _, c := range m.categories {
		if c.hits(label) {
			hit = append(hit, c)
		}
	}
	return hit
}

func (m *Matcher) fallbackScores(label string, entries []catalog.Entry, scores []float64) {
	words := strings.Fields(label)
	if len(words) == 0 {
		return
	}
	for i, e := range entries {
		name := e.NormalizedName()
		overlap := 0
		for _, w := range words {
			if strings.Contains(name, w) {
				overlap++
			}
		}
		if overlap == 0 {
			continue
		}
		switch m.fallback {
		case FallbackUncapped:
			scores[i] = FallbackWordScore * float64(overlap)
		case FallbackNormalized:
			scores[i] = float64(overlap) / float64(len(words))
		default:
			scores[i] = math.Min(1, FallbackWordScore*float64(overlap))
		}
	}
}

// candidates filters entries by the hit categories' keyword and preferred
// substrings. Without a category hit, or when the filter leaves nothing,
// the whole catalog is offered.
func candidates(entries []catalog.Entry, hit []Category) []catalog.Entry {
	if len(hit) == 0 {
		return append([]catalog.Entry(nil), entries...)
	}
	var out []catalog.Entry
	for _, e := range entries {
		name := e.NormalizedName()
		for _, c := range hit {
			if containsAny(name, c.Preferred) || containsAny(name, c.Keywords) {
				out = append(out, e)
				break
			}
		}
	}
	if len(out) == 0 {
		return append([]catalog.Entry(nil), entries...)
	}
	return out
}
