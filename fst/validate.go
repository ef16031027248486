package fst

import "github.com/tapeset/wfst/wfsterr"

// Validate checks the invariants from spec.md §3: every transition targets
// an existing state, every symbol used by a transition is in the alphabet,
// and every final state index is in range. It returns the first violation
// found, or nil if g is well-formed.
func (g *Graph) Validate() error {
	for s, ts := range g.states {
		for _, t := range ts {
			if t.Target < 0 || t.Target >= len(g.states) {
				return wfsterr.New("transition from state out of range", wfsterr.StateOutOfBounds(t.Target))
			}
			if !g.HasSymbol(t.In) {
				return wfsterr.Newf(nil, "state %d: input symbol id %d not in alphabet", s, t.In)
			}
			if !g.HasSymbol(t.Out) {
				return wfsterr.Newf(nil, "state %d: output symbol id %d not in alphabet", s, t.Out)
			}
		}
	}
	for s := range g.final {
		if s < 0 || s >= len(g.states) {
			return wfsterr.New("final state out of range", wfsterr.StateOutOfBounds(s))
		}
	}
	return nil
}
