package ioformat

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/symtab"
)

func TestWriteReadBinaryRoundTrip(t *testing.T) {
	tab := symtab.New()
	g := fst.NewWithTable(tab)
	g.Name = "T1"
	g.AddTransition(0, fst.Transition{Target: 1, In: tab.MustIntern("a"), Out: tab.MustIntern("b"), Weight: 0.75}, true)
	require.NoError(t, g.SetFinal(1, 2.0))

	var buf bytes.Buffer
	require.NoError(t, WriteBinary(&buf, g))

	back, err := ReadBinary(&buf, tab)
	require.NoError(t, err)
	assert.Equal(t, g.NumStates(), back.NumStates())

	ts, err := back.Transitions(0)
	require.NoError(t, err)
	require.Len(t, ts, 1)
	assert.Equal(t, 1, ts[0].Target)
	assert.Equal(t, 0.75, ts[0].Weight)

	w, ok := back.FinalWeight(1)
	require.True(t, ok)
	assert.Equal(t, 2.0, w)
}

func TestReadBinaryRejectsBadMagic(t *testing.T) {
	buf := bytes.NewBufferString("NOPE!!!!!!!!!")
	_, err := ReadBinary(buf, symtab.New())
	assert.Error(t, err)
}
