package matcher

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rshade/boqlca/internal/catalog"
)

func testCatalog() []catalog.Entry {
	return []catalog.Entry{
		{ID: "c1", Name: "Hochbaubeton (ohne Bewehrung)", Density: catalog.Float(2300)},
		{ID: "c2", Name: "Magerbeton", Density: catalog.Float(2200)},
		{ID: "p1", Name: "Betonfertigteil, normalfest", Density: catalog.Float(2400)},
		{ID: "s1", Name: "Bewehrungsstahl", Density: catalog.Float(7850)},
		{ID: "s2", Name: "Stahlblech, verzinkt", Density: catalog.Float(7850)},
		{ID: "t1", Name: "Brettschichtholz", Density: catalog.Float(470)},
		{ID: "t2", Name: "Holzfaserplatte, hart"},
		{ID: "g1", Name: "Flachglas, unbeschichtet", Density: catalog.Float(2500)},
	}
}

func TestMatchExact(t *testing.T) {
	m := Default()
	for _, label := range []string{"Magerbeton", "  magerbeton ", "MAGERBETON"} {
		t.Run(label, func(t *testing.T) {
			r := m.Match(label, testCatalog())
			require.NotNil(t, r.Best)
			assert.Equal(t, "c2", r.Best.ID)
			assert.InDelta(t, 1.0, r.Score, 1e-12)
			assert.True(t, r.Confident())
		})
	}
}

func TestMatchCategories(t *testing.T) {
	tests := []struct {
		name      string
		label     string
		wantID    string
		wantScore float64
	}{
		{name: "preferred concrete", label: "Beton C30/37", wantID: "c1", wantScore: PreferredScore},
		{name: "precast preferred", label: "Fertigteil Stütze", wantID: "p1", wantScore: PreferredScore},
		{name: "reinforcement preferred", label: "Bewehrung B500", wantID: "s1", wantScore: PreferredScore},
		{name: "timber preferred", label: "Holz Stütze", wantID: "t1", wantScore: PreferredScore},
		{name: "glass preferred", label: "Verglasung", wantID: "g1", wantScore: PreferredScore},
	}

	m := Default()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := m.Match(tt.label, testCatalog())
			require.NotNil(t, r.Best)
			assert.Equal(t, tt.wantID, r.Best.ID)
			assert.InDelta(t, tt.wantScore, r.Score, 1e-12)
			assert.True(t, r.Confident())
		})
	}
}

func TestMatchKeywordOnly(t *testing.T) {
	entries := []catalog.Entry{
		{ID: "x", Name: "Zement"},
		{ID: "k", Name: "Leichtbeton"},
	}
	r := Default().Match("Beton", entries)
	require.NotNil(t, r.Best)
	assert.Equal(t, "k", r.Best.ID)
	assert.InDelta(t, KeywordScore, r.Score, 1e-12)
}

func TestMatchScoresTakeMaximum(t *testing.T) {
	// The label hits both concrete and reinforcement; an entry scores the
	// maximum of the rules, never their sum.
	entries := []catalog.Entry{{ID: "a", Name: "Bewehrungsstahl"}, {ID: "b", Name: "Hochbaubeton"}}
	r := Default().Match("Stahlbeton mit Bewehrung", entries)
	require.NotNil(t, r.Best)
	assert.InDelta(t, PreferredScore, r.Score, 1e-12)
	assert.Equal(t, "a", r.Best.ID, "tie goes to first catalog entry")
	assert.ElementsMatch(t, []string{"concrete", "reinforcement"}, r.Categories)
}

func TestMatchNoMatch(t *testing.T) {
	r := Default().Match("Xylophon", testCatalog())
	assert.Nil(t, r.Best)
	assert.Zero(t, r.Score)
	assert.False(t, r.Confident())
	assert.Len(t, r.Candidates, len(testCatalog()), "no category hit offers the whole catalog")
}

func TestMatchEmptyCatalog(t *testing.T) {
	r := Default().Match("Beton", nil)
	assert.Nil(t, r.Best)
	assert.Zero(t, r.Score)
	assert.NotNil(t, r.Candidates)
	assert.Empty(t, r.Candidates)
}

func TestMatchFallbackPolicies(t *testing.T) {
	entries := []catalog.Entry{
		{ID: "a", Name: "Gipskartonplatte gelocht weiss"},
		{ID: "b", Name: "Gipsputz"},
	}
	label := "gips platte gelocht weiss"

	tests := []struct {
		policy    FallbackPolicy
		wantScore float64
	}{
		{policy: FallbackUncapped, wantScore: 1.2},
		{policy: FallbackCapped, wantScore: 1.0},
		{policy: FallbackNormalized, wantScore: 1.0},
	}
	for _, tt := range tests {
		t.Run(string(tt.policy), func(t *testing.T) {
			m, err := New(WithFallbackPolicy(tt.policy))
			require.NoError(t, err)
			r := m.Match(label, entries)
			require.NotNil(t, r.Best)
			assert.Equal(t, "a", r.Best.ID)
			assert.InDelta(t, tt.wantScore, r.Score, 1e-9)
		})
	}

	t.Run("partial overlap", func(t *testing.T) {
		r := Default().Match("gips wand", entries)
		require.NotNil(t, r.Best)
		assert.Equal(t, "a", r.Best.ID)
		assert.InDelta(t, FallbackWordScore, r.Score, 1e-9)
		assert.False(t, r.Confident())
	})
}

func TestMatchFallbackSkippedWhenCategoryScored(t *testing.T) {
	entries := []catalog.Entry{
		{ID: "a", Name: "Beton Wand Decke Boden"},
		{ID: "b", Name: "Leichtbeton"},
	}
	r := Default().Match("beton wand decke boden platte", entries)
	require.NotNil(t, r.Best)
	assert.InDelta(t, KeywordScore, r.Score, 1e-12)
	assert.Equal(t, "a", r.Best.ID)
}

func TestCandidatesFiltered(t *testing.T) {
	r := Default().Match("Beton", testCatalog())
	ids := make([]string, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		ids = append(ids, c.ID)
	}
	assert.Equal(t, []string{"c1", "c2", "p1"}, ids)
}

func TestCustomCategories(t *testing.T) {
	m, err := New(WithCategories([]Category{{
		Tag:       "screed",
		Tokens:    []string{"Estrich"},
		Preferred: []string{"Zementestrich"},
	}}))
	require.NoError(t, err)

	entries := []catalog.Entry{{ID: "a", Name: "Anhydritestrich"}, {ID: "b", Name: "Zementestrich"}}
	r := m.Match("Estrich 8cm", entries)
	require.NotNil(t, r.Best)
	assert.Equal(t, "b", r.Best.ID)
	assert.Len(t, m.Categories(), 1)
}

func TestNewRejectsInvalid(t *testing.T) {
	_, err := New(WithCategories([]Category{{Tag: "empty"}}))
	require.ErrorIs(t, err, ErrInvalidCategory)

	_, err = New(WithFallbackPolicy("fuzzy"))
	require.ErrorIs(t, err, ErrUnknownPolicy)

	p, err := ParseFallbackPolicy("")
	require.NoError(t, err)
	assert.Equal(t, FallbackCapped, p)
}
