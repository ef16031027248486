package fst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/symtab"
)

func TestNewGraphHasReservedAlphabet(t *testing.T) {
	g := New()
	require.Equal(t, 1, g.NumStates())

	for _, id := range []uint32{symtab.Epsilon, symtab.Unknown, symtab.Identity, symtab.DefaultSym} {
		assert.True(t, g.HasSymbol(id))
	}
	assert.False(t, g.IsFinal(0))
}

func TestAddTransitionGrowsStatesAndAlphabet(t *testing.T) {
	g := New()
	a := g.table.MustIntern("a")
	b := g.table.MustIntern("b")

	g.AddTransition(0, Transition{Target: 3, In: a, Out: b, Weight: 1.5}, true)

	require.Equal(t, 4, g.NumStates())
	assert.True(t, g.HasSymbol(a))
	assert.True(t, g.HasSymbol(b))

	ts, err := g.Transitions(0)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, 3, ts[0].Target)
}

func TestAddTransitionNoAlphabetUpdate(t *testing.T) {
	g := New()
	a := g.table.MustIntern("a")

	g.AddTransition(0, Transition{Target: 1, In: a, Out: a, Weight: 0}, false)
	assert.False(t, g.HasSymbol(a))
}

func TestRemoveTransitionIgnoresWeight(t *testing.T) {
	g := New()
	a := g.table.MustIntern("a")

	g.AddTransition(0, Transition{Target: 1, In: a, Out: a, Weight: 1.0}, true)
	err := g.RemoveTransition(0, Transition{Target: 1, In: a, Out: a, Weight: 99.0}, false)
	require.NoError(t, err)

	ts, _ := g.Transitions(0)
	assert.Empty(t, ts)
}

func TestSetFinalAndUnset(t *testing.T) {
	g := New()
	require.NoError(t, g.SetFinal(0, 0.0))
	assert.True(t, g.IsFinal(0))
	w, ok := g.FinalWeight(0)
	assert.True(t, ok)
	assert.Equal(t, 0.0, w)

	g.UnsetFinal(0)
	assert.False(t, g.IsFinal(0))
	_, ok = g.FinalWeight(0)
	assert.False(t, ok)
}

func TestTransitionsOutOfBounds(t *testing.T) {
	g := New()
	_, err := g.Transitions(5)
	require.Error(t, err)
}

func TestPruneAlphabetRespectsUnknownIdentity(t *testing.T) {
	g := New()
	a := g.table.MustIntern("a")
	g.AddTransition(0, Transition{Target: 1, In: symtab.Unknown, Out: symtab.Unknown}, true)
	g.InsertSymbol(a) // unused by any transition

	g.PruneAlphabet(false)
	// should be a no-op because UNKNOWN appears in a transition
	assert.True(t, g.HasSymbol(a))
}

func TestPruneAlphabetForced(t *testing.T) {
	g := New()
	a := g.table.MustIntern("a")
	g.InsertSymbol(a)

	g.PruneAlphabet(true)
	assert.False(t, g.HasSymbol(a))
	assert.True(t, g.HasSymbol(symtab.Epsilon))
}

func TestSortArcs(t *testing.T) {
	g := New()
	a := g.table.MustIntern("a")
	b := g.table.MustIntern("b")

	g.AddTransition(0, Transition{Target: 1, In: b, Out: b}, true)
	g.AddTransition(0, Transition{Target: 1, In: a, Out: a}, true)

	g.SortArcs()
	ts, _ := g.Transitions(0)
	require.Len(t, ts, 2)
	assert.Equal(t, a, ts[0].In)
	assert.Equal(t, b, ts[1].In)
}

func TestCopyIsIndependent(t *testing.T) {
	g := New()
	a := g.table.MustIntern("a")
	g.AddTransition(0, Transition{Target: 1, In: a, Out: a}, true)
	g.SetFinal(1, 0)

	cp := g.Copy()
	cp.AddTransition(1, Transition{Target: 2, In: a, Out: a}, true)
	cp.SetFinal(2, 1.0)

	assert.Equal(t, 2, g.NumStates())
	assert.Equal(t, 3, cp.NumStates())
}

func TestPurgeFlag(t *testing.T) {
	g := New()
	flag := g.table.MustIntern("@P.CASE.NOM@")
	a := g.table.MustIntern("a")

	g.AddTransition(0, Transition{Target: 1, In: flag, Out: flag}, true)
	g.AddTransition(1, Transition{Target: 2, In: a, Out: a}, true)

	g.PurgeFlag("")

	ts, _ := g.Transitions(0)
	require.Len(t, ts, 1)
	assert.Equal(t, symtab.Epsilon, ts[0].In)
	assert.Equal(t, symtab.Epsilon, ts[0].Out)
	assert.False(t, g.HasSymbol(flag))
}

func TestValidateCatchesBadTarget(t *testing.T) {
	g := New()
	a := g.table.MustIntern("a")
	g.states[0] = append(g.states[0], Transition{Target: 99, In: a, Out: a})
	g.alpha[a] = struct{}{}

	err := g.Validate()
	require.Error(t, err)
}

func TestDistancesMinimum(t *testing.T) {
	g := New()
	a := g.table.MustIntern("a")
	g.AddTransition(0, Transition{Target: 1, In: a, Out: a}, true)
	g.AddTransition(0, Transition{Target: 2, In: a, Out: a}, true)
	g.AddTransition(2, Transition{Target: 1, In: a, Out: a}, true)

	buckets := g.Distances(true)
	assert.Contains(t, buckets[1], 1)
	assert.Contains(t, buckets[1], 2)
}
