package ops

import (
	"context"

	"github.com/tapeset/wfst/fst"
)

// Complement builds the acceptor recognizing every string over sigma that g
// does NOT accept. g is treated as a single-tape acceptor (every
// transition's input and output are expected to agree, e.g. the result of
// Project); weights are not meaningful for complement and the result is
// unweighted (every transition and final state has weight 0). This is the
// ¬[...] primitive the rule compiler's context formulas need (spec.md
// §4.5) and is not itself a named spec operator on weighted transducers.
//
// sigma is the alphabet the complement is relative to: it must be a
// superset of g's own alphabet, typically the rule compiler's declared
// symbol set, since "not in g" only makes sense against a fixed universe of
// symbols.
func Complement(ctx context.Context, g *fst.Graph, sigma []uint32) (*fst.Graph, error) {
	det, err := Determinize(ctx, g)
	if err != nil {
		return nil, err
	}
	complete, trap := completeOver(det, sigma)

	result := fst.NewWithTable(complete.Table())
	for i := 1; i < complete.NumStates(); i++ {
		result.AddState()
	}
	for s := 0; s < complete.NumStates(); s++ {
		ts, _ := complete.Transitions(s)
		for _, t := range ts {
			result.AddTransition(s, fst.Transition{Target: t.Target, In: t.In, Out: t.In, Weight: 0}, true)
		}
		if !complete.IsFinal(s) {
			result.SetFinal(s, 0)
		}
	}
	_ = trap
	return result, nil
}

// Subtract builds the acceptor recognizing strings a accepts but b does
// not: Intersect(a, Complement(b, sigma)) where sigma is the union of both
// operands' alphabets.
func Subtract(ctx context.Context, a, b *fst.Graph) (*fst.Graph, error) {
	if err := checkSameTable(a, b); err != nil {
		return nil, err
	}
	sigma := unionAlphabets(a, b)
	notB, err := Complement(ctx, b, sigma)
	if err != nil {
		return nil, err
	}
	return Intersect(a, notB)
}

func unionAlphabets(a, b *fst.Graph) []uint32 {
	set := map[uint32]struct{}{}
	for _, id := range a.Alphabet().Elements() {
		set[id] = struct{}{}
	}
	for _, id := range b.Alphabet().Elements() {
		set[id] = struct{}{}
	}
	out := make([]uint32, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	return out
}

// completeOver returns a copy of det with a trap state added so that every
// state has an outgoing transition for every symbol in sigma, and the trap
// state's index.
func completeOver(det *fst.Graph, sigma []uint32) (*fst.Graph, int) {
	result := det.Copy()
	trap := result.AddState() // non-final, self-loops on everything

	hasArc := func(s int, sym uint32) bool {
		ts, _ := result.Transitions(s)
		for _, t := range ts {
			if t.In == sym {
				return true
			}
		}
		return false
	}

	for _, sym := range sigma {
		result.AddTransition(trap, fst.Transition{Target: trap, In: sym, Out: sym}, true)
	}
	for s := 0; s < trap; s++ {
		for _, sym := range sigma {
			if !hasArc(s, sym) {
				result.AddTransition(s, fst.Transition{Target: trap, In: sym, Out: sym}, true)
			}
		}
	}
	return result, trap
}
