package ops

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/symtab"
)

func acceptor(t *testing.T, tab *symtab.Table, in, out string) *fst.Graph {
	t.Helper()
	g := fst.NewWithTable(tab)
	g.AddTransition(0, fst.Transition{Target: 1, In: tab.MustIntern(in), Out: tab.MustIntern(out)}, true)
	require.NoError(t, g.SetFinal(1, 0))
	return g
}

func lookupStrings(t *testing.T, g *fst.Graph, tab *symtab.Table, input []string, opts LookupOptions) [][]string {
	t.Helper()
	ids := make([]uint32, len(input))
	for i, s := range input {
		ids[i] = tab.MustIntern(s)
	}
	hits, err := Lookup(context.Background(), g, ids, opts)
	require.NoError(t, err)

	var out [][]string
	for _, h := range hits {
		var ss []string
		for _, id := range h.Output {
			name, _ := tab.Lookup(id)
			ss = append(ss, name)
		}
		out = append(out, ss)
	}
	return out
}

func TestUnionAcceptsEither(t *testing.T) {
	tab := symtab.New()
	a := acceptor(t, tab, "a", "x")
	b := acceptor(t, tab, "c", "y")

	u, err := Union(a, b)
	require.NoError(t, err)

	assert.NotEmpty(t, lookupStrings(t, u, tab, []string{"a"}, LookupOptions{}))
	assert.NotEmpty(t, lookupStrings(t, u, tab, []string{"c"}, LookupOptions{}))
	assert.Empty(t, lookupStrings(t, u, tab, []string{"z"}, LookupOptions{}))
}

func TestConcatenationJoinsBoth(t *testing.T) {
	tab := symtab.New()
	a := acceptor(t, tab, "a", "x")
	b := acceptor(t, tab, "b", "y")

	c, err := Concatenation(a, b)
	require.NoError(t, err)

	results := lookupStrings(t, c, tab, []string{"a", "b"}, LookupOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, []string{"x", "y"}, results[0])
}

func TestKleeneStarAcceptsEmptyAndRepeats(t *testing.T) {
	tab := symtab.New()
	a := acceptor(t, tab, "a", "a")

	star := KleeneStar(a)

	assert.NotEmpty(t, lookupStrings(t, star, tab, []string{}, LookupOptions{}))
	assert.NotEmpty(t, lookupStrings(t, star, tab, []string{"a"}, LookupOptions{}))
	assert.NotEmpty(t, lookupStrings(t, star, tab, []string{"a", "a", "a"}, LookupOptions{}))
}

func TestKleenePlusRejectsEmpty(t *testing.T) {
	tab := symtab.New()
	a := acceptor(t, tab, "a", "a")

	plus := KleenePlus(a)

	assert.Empty(t, lookupStrings(t, plus, tab, []string{}, LookupOptions{}))
	assert.NotEmpty(t, lookupStrings(t, plus, tab, []string{"a"}, LookupOptions{}))
}

func TestDeterminizeMergesSharedPrefix(t *testing.T) {
	tab := symtab.New()
	g := fst.NewWithTable(tab)
	a := tab.MustIntern("a")
	b := tab.MustIntern("b")
	c := tab.MustIntern("c")
	// two branches both starting with a:a but diverging, nondeterministic
	// state 0 because there are two distinct a:a arcs out of it.
	g.AddTransition(0, fst.Transition{Target: 1, In: a, Out: a}, true)
	g.AddTransition(0, fst.Transition{Target: 2, In: a, Out: a}, true)
	g.AddTransition(1, fst.Transition{Target: 3, In: b, Out: b}, true)
	g.AddTransition(2, fst.Transition{Target: 3, In: c, Out: c}, true)
	require.NoError(t, g.SetFinal(3, 0))

	det, err := Determinize(context.Background(), g)
	require.NoError(t, err)
	ts, err := det.Transitions(0)
	require.NoError(t, err)
	assert.Len(t, ts, 1, "determinized start state should have exactly one a:a arc")

	assert.NotEmpty(t, lookupStrings(t, det, tab, []string{"a", "b"}, LookupOptions{}))
	assert.NotEmpty(t, lookupStrings(t, det, tab, []string{"a", "c"}, LookupOptions{}))
}

func TestMinimizePreservesLanguage(t *testing.T) {
	tab := symtab.New()
	a := acceptor(t, tab, "a", "a")
	star := KleeneStar(a)

	min, err := Minimize(context.Background(), star)
	require.NoError(t, err)
	assert.NotEmpty(t, lookupStrings(t, min, tab, []string{}, LookupOptions{}))
	assert.NotEmpty(t, lookupStrings(t, min, tab, []string{"a", "a"}, LookupOptions{}))
	assert.LessOrEqual(t, min.NumStates(), star.NumStates())
}

// TestComposeJoinsThroughSharedEpsilonlessTape reproduces spec.md §8
// scenario (d): A = "a":"x" weight 0.5, B = "x":"y" weight 0.25; composing
// through the shared a-output/b-input tape should yield exactly one
// accepting path "a":"y" at weight 0.75.
func TestComposeJoinsThroughSharedEpsilonlessTape(t *testing.T) {
	tab := symtab.New()
	a := fst.NewWithTable(tab)
	a.AddTransition(0, fst.Transition{Target: 1, In: tab.MustIntern("a"), Out: tab.MustIntern("x"), Weight: 0.5}, true)
	require.NoError(t, a.SetFinal(1, 0))

	b := fst.NewWithTable(tab)
	b.AddTransition(0, fst.Transition{Target: 1, In: tab.MustIntern("x"), Out: tab.MustIntern("y"), Weight: 0.25}, true)
	require.NoError(t, b.SetFinal(1, 0))

	composed, err := Compose(a, b, ComposeOptions{})
	require.NoError(t, err)

	hits := lookupStrings(t, composed, tab, []string{"a"}, LookupOptions{})
	require.Len(t, hits, 1)
	assert.Equal(t, []string{"y"}, hits[0])

	ids := []uint32{tab.MustIntern("a")}
	raw, err := Lookup(context.Background(), composed, ids, LookupOptions{})
	require.NoError(t, err)
	require.Len(t, raw, 1)
	assert.InDelta(t, 0.75, float64(raw[0].Weight), 1e-9)
}

// stringAcceptor builds the straight-line acceptor for s, one state per
// prefix, identity pairs throughout.
func stringAcceptor(t *testing.T, tab *symtab.Table, s string) *fst.Graph {
	t.Helper()
	g := fst.NewWithTable(tab)
	state := 0
	for _, r := range s {
		id := tab.MustIntern(string(r))
		g.AddTransition(state, fst.Transition{Target: state + 1, In: id, Out: id}, true)
		state++
	}
	require.NoError(t, g.SetFinal(state, 0))
	return g
}

// TestLookupBoundsEpsilonSelfLoop reproduces spec.md §8 scenario (f): a
// self-loop 0->0 on EPSILON:EPSILON weight 0.1, plus 0->1 on "a":"a", final
// 1. Looking up "a" with MaxEpsilonCycles=3 must return exactly the four
// paths representing the a-arc preceded by 0..3 epsilon loops, weights
// {0.0, 0.1, 0.2, 0.3}.
func TestLookupBoundsEpsilonSelfLoop(t *testing.T) {
	tab := symtab.New()
	g := fst.NewWithTable(tab)
	a := tab.MustIntern("a")
	g.AddTransition(0, fst.Transition{Target: 0, In: symtab.Epsilon, Out: symtab.Epsilon, Weight: 0.1}, true)
	g.AddTransition(0, fst.Transition{Target: 1, In: a, Out: a}, true)
	require.NoError(t, g.SetFinal(1, 0))

	hits, err := Lookup(context.Background(), g, []uint32{a}, LookupOptions{MaxEpsilonCycles: 3})
	require.NoError(t, err)
	require.Len(t, hits, 4)

	weights := make([]float64, len(hits))
	for i, h := range hits {
		weights[i] = float64(h.Weight)
	}
	assert.ElementsMatch(t, []float64{0.0, 0.1, 0.2, 0.3}, weights)
}

// TestMinimizeUnionOfStringsSharesPrefix reproduces spec.md §8 scenario (e):
// union(string_acceptor("ab"), string_acceptor("ac")) minimized must have
// exactly 4 states (initial, after-a, after-ab, after-ac), with after-ab and
// after-ac both final.
func TestMinimizeUnionOfStringsSharesPrefix(t *testing.T) {
	tab := symtab.New()
	ab := stringAcceptor(t, tab, "ab")
	ac := stringAcceptor(t, tab, "ac")

	u, err := Union(ab, ac)
	require.NoError(t, err)

	min, err := Minimize(context.Background(), u)
	require.NoError(t, err)

	assert.Equal(t, 4, min.NumStates())

	finals := 0
	for s := 0; s < min.NumStates(); s++ {
		if min.IsFinal(s) {
			finals++
		}
	}
	assert.Equal(t, 2, finals, "after-ab and after-ac should both be final")

	assert.NotEmpty(t, lookupStrings(t, min, tab, []string{"a", "b"}, LookupOptions{}))
	assert.NotEmpty(t, lookupStrings(t, min, tab, []string{"a", "c"}, LookupOptions{}))
	assert.Empty(t, lookupStrings(t, min, tab, []string{"a", "d"}, LookupOptions{}))
}

func TestLookupUnknownPassthrough(t *testing.T) {
	tab := symtab.New()
	g := fst.NewWithTable(tab)
	g.AddTransition(0, fst.Transition{Target: 0, In: symtab.Unknown, Out: symtab.Unknown}, true)
	require.NoError(t, g.SetFinal(0, 0))

	results := lookupStrings(t, g, tab, []string{"z"}, LookupOptions{})
	require.Len(t, results, 1)
	assert.Equal(t, []string{"z"}, results[0])
}

func TestSubtractExcludesOperand(t *testing.T) {
	tab := symtab.New()
	a := acceptor(t, tab, "a", "a")
	u, err := Union(a, acceptor(t, tab, "b", "b"))
	require.NoError(t, err)

	diff, err := Subtract(context.Background(), u, acceptor(t, tab, "b", "b"))
	require.NoError(t, err)

	assert.NotEmpty(t, lookupStrings(t, diff, tab, []string{"a"}, LookupOptions{}))
	assert.Empty(t, lookupStrings(t, diff, tab, []string{"b"}, LookupOptions{}))
}

func TestIsInfinitelyAmbiguousDetectsEpsilonCycle(t *testing.T) {
	tab := symtab.New()
	g := fst.NewWithTable(tab)
	g.AddTransition(0, fst.Transition{Target: 0, In: symtab.Epsilon, Out: symtab.Epsilon}, true)
	require.NoError(t, g.SetFinal(0, 0))

	ambiguous, err := IsInfinitelyAmbiguous(g)
	require.NoError(t, err)
	assert.True(t, ambiguous)
}

func TestIsInfinitelyAmbiguousFalseForAcyclic(t *testing.T) {
	tab := symtab.New()
	g := acceptor(t, tab, "a", "a")

	ambiguous, err := IsInfinitelyAmbiguous(g)
	require.NoError(t, err)
	assert.False(t, ambiguous)
}

func TestNBestOrdersByWeight(t *testing.T) {
	tab := symtab.New()
	g := fst.NewWithTable(tab)
	a := tab.MustIntern("a")
	b := tab.MustIntern("b")
	g.AddTransition(0, fst.Transition{Target: 1, In: a, Out: a, Weight: 5}, true)
	g.AddTransition(0, fst.Transition{Target: 2, In: b, Out: b, Weight: 1}, true)
	require.NoError(t, g.SetFinal(1, 0))
	require.NoError(t, g.SetFinal(2, 0))

	best := NBest(g, 2)
	require.Len(t, best, 2)
	assert.LessOrEqual(t, best[0].Weight, best[1].Weight)
	assert.Equal(t, fst.Weight(1), best[0].Weight)
}
