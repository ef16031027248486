// Package harmonize implements the alphabet-reconciliation protocol (spec
// component C4) that must run before any binary operation combines two
// graphs with potentially disjoint alphabets: it expands UNKNOWN and
// IDENTITY transitions to cover symbols newly visible from the peer graph.
package harmonize

import (
	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/symtab"
)

// Harmonize reconciles the alphabets of a and b and returns harmonized
// copies of both; the originals are left untouched (Graph is value-owned,
// per spec.md §3). After Harmonize, every UNKNOWN/IDENTITY transition in
// either result has been expanded to also cover the symbols newly
// introduced from the peer, so a downstream operator (intersect, compose,
// ...) can consume matching transitions without itself reasoning about
// wildcards.
//
// Harmonize preserves the language each graph recognized before the call
// (spec.md §8 property 2): it only adds transitions that UNKNOWN/IDENTITY
// already implied, made explicit now that the relevant symbols are known.
func Harmonize(a, b *fst.Graph) (*fst.Graph, *fst.Graph) {
	ac := a.Copy()
	bc := b.Copy()

	newForA := symbolsOnlyIn(bc, ac) // S_B\A
	newForB := symbolsOnlyIn(ac, bc) // S_A\B

	expand(ac, newForA)
	expand(bc, newForB)

	return ac, bc
}

// symbolsOnlyIn returns the symbol ids present in src's alphabet but not in
// dst's (excluding the four reserved symbols, which are members of every
// graph's alphabet by construction and so already cancel out of the
// difference).
func symbolsOnlyIn(src, dst *fst.Graph) []uint32 {
	srcAlpha := src.Alphabet()
	dstAlpha := dst.Alphabet()

	var out []uint32
	for _, id := range srcAlpha.Elements() {
		if !dstAlpha.Has(id) {
			out = append(out, id)
		}
	}
	return out
}

// expand walks every transition of g and, per spec.md §4.4 steps 1-3, adds
// the realized transitions implied by IDENTITY and UNKNOWN labels against
// the newly-visible symbols in newSyms. newSyms is also added to g's
// alphabet (step 1).
func expand(g *fst.Graph, newSyms []uint32) {
	if len(newSyms) == 0 {
		return
	}

	// Capture the pre-expansion alphabet (Σ_A in spec.md §4.4 step 3) before
	// adding newSyms to it, so the "c ∈ Σ_A" loop below ranges over g's
	// original symbols rather than the symbols just introduced from the
	// peer.
	origAlpha := g.Alphabet().Elements()

	for _, x := range newSyms {
		g.InsertSymbol(x)
	}

	// Collect additions first so we don't mutate a transition list while
	// ranging over the slice that AddTransition may reallocate underneath
	// TransitionsMut.
	type addition struct {
		src int
		t   fst.Transition
	}
	var toAdd []addition

	for s := 0; s <= g.GetMaxState(); s++ {
		ts, err := g.Transitions(s)
		if err != nil {
			continue
		}
		for _, t := range ts {
			switch {
			case t.In == symtab.Identity && t.Out == symtab.Identity:
				// step 2: IDENTITY:IDENTITY -> x:x for each new x
				for _, x := range newSyms {
					toAdd = append(toAdd, addition{s, fst.Transition{Target: t.Target, In: x, Out: x, Weight: t.Weight}})
				}

			case t.In == symtab.Unknown && t.Out == symtab.Unknown:
				// step 3, UNKNOWN:UNKNOWN case: every ordered pair of
				// distinct new symbols, plus new-x paired with every
				// existing alphabet symbol on the other tape.
				for _, x := range newSyms {
					for _, y := range newSyms {
						if x == y {
							continue
						}
						toAdd = append(toAdd, addition{s, fst.Transition{Target: t.Target, In: x, Out: y, Weight: t.Weight}})
					}
					for _, c := range origAlpha {
						if symtab.IsReserved(c) {
							continue
						}
						toAdd = append(toAdd, addition{s, fst.Transition{Target: t.Target, In: x, Out: c, Weight: t.Weight}})
						toAdd = append(toAdd, addition{s, fst.Transition{Target: t.Target, In: c, Out: x, Weight: t.Weight}})
					}
				}

			case t.In == symtab.Unknown && t.Out != symtab.Unknown:
				// UNKNOWN:c -> x:c for each new x
				for _, x := range newSyms {
					toAdd = append(toAdd, addition{s, fst.Transition{Target: t.Target, In: x, Out: t.Out, Weight: t.Weight}})
				}

			case t.Out == symtab.Unknown && t.In != symtab.Unknown:
				// c:UNKNOWN -> c:x for each new x
				for _, x := range newSyms {
					toAdd = append(toAdd, addition{s, fst.Transition{Target: t.Target, In: t.In, Out: x, Weight: t.Weight}})
				}
			}
		}
	}

	for _, add := range toAdd {
		g.AddTransition(add.src, add.t, true)
	}
}
