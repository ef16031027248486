package ioformat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/symtab"
)

func TestWriteReadPrologRoundTrip(t *testing.T) {
	tab := symtab.New()
	g := fst.NewWithTable(tab)
	g.Name = "T1"
	g.AddTransition(0, fst.Transition{Target: 1, In: tab.MustIntern("a"), Out: tab.MustIntern("b"), Weight: 0.25}, true)
	g.AddTransition(1, fst.Transition{Target: 2, In: tab.MustIntern("c"), Out: tab.MustIntern("c")}, true)
	require.NoError(t, g.SetFinal(2, 0))

	var buf strings.Builder
	require.NoError(t, WriteProlog(&buf, g))

	back, err := ReadProlog(strings.NewReader(buf.String()), tab)
	require.NoError(t, err)
	require.Len(t, back, 1)

	g2 := back[0]
	assert.Equal(t, "T1", g2.Name)
	ts0, err := g2.Transitions(0)
	require.NoError(t, err)
	require.Len(t, ts0, 1)
	assert.Equal(t, 0.25, ts0[0].Weight)

	ts1, err := g2.Transitions(1)
	require.NoError(t, err)
	require.Len(t, ts1, 1)
	assert.Equal(t, ts1[0].In, ts1[0].Out) // identity shorthand round-trips

	_, ok := g2.FinalWeight(2)
	assert.True(t, ok)
}

func TestReadPrologEscapes(t *testing.T) {
	src := `network(T).
arc(T,0,1,"a\"b":"c\\d",0).
final(T,1,0).
`
	tab := symtab.New()
	graphs, err := ReadProlog(strings.NewReader(src), tab)
	require.NoError(t, err)
	require.Len(t, graphs, 1)

	ts, err := graphs[0].Transitions(0)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	inSym, _ := tab.Lookup(ts[0].In)
	outSym, _ := tab.Lookup(ts[0].Out)
	assert.Equal(t, `a"b`, inSym)
	assert.Equal(t, `c\d`, outSym)
}

func TestReadPrologMultipleTransducers(t *testing.T) {
	src := "network(A).\narc(A,0,1,\"x\",0).\nfinal(A,1,0).\n\nnetwork(B).\narc(B,0,1,\"y\",0).\nfinal(B,1,0).\n"
	tab := symtab.New()
	graphs, err := ReadProlog(strings.NewReader(src), tab)
	require.NoError(t, err)
	require.Len(t, graphs, 2)
	assert.Equal(t, "A", graphs[0].Name)
	assert.Equal(t, "B", graphs[1].Name)
}
