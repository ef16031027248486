// Package ops implements the algebraic operator kernel (spec component C3):
// the construction, combination, and reduction operators over fst.Graph.
// Binary operators harmonize their operands first (fst/harmonize) so that
// UNKNOWN/IDENTITY wildcards never need special-casing past that point.
package ops

import (
	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/symtab"
	"github.com/tapeset/wfst/wfsterr"
)

func checkSameTable(a, b *fst.Graph) error {
	if a.Table() != b.Table() {
		return wfsterr.New("operands do not share a symbol table")
	}
	return nil
}

// appendGraph copies every state, transition, and final weight of src into
// dst, offsetting state indices by dst's current state count, and returns
// that offset (the index dst's copy of src's state 0 now sits at).
func appendGraph(dst, src *fst.Graph) int {
	offset := dst.NumStates()
	for i := 0; i < src.NumStates(); i++ {
		dst.AddState()
	}
	for s := 0; s < src.NumStates(); s++ {
		ts, _ := src.Transitions(s)
		for _, t := range ts {
			dst.AddTransition(offset+s, fst.Transition{
				Target: offset + t.Target,
				In:     t.In,
				Out:    t.Out,
				Weight: t.Weight,
			}, true)
		}
		if w, ok := src.FinalWeight(s); ok {
			dst.SetFinal(offset+s, w)
		}
	}
	return offset
}

const epsilon = symtab.Epsilon
