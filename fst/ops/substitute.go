package ops

import "github.com/tapeset/wfst/fst"

// SubstituteSymbol replaces every occurrence of oldSym with newSym on
// either tape, in place on a copy of g.
func SubstituteSymbol(g *fst.Graph, oldSym, newSym uint32) *fst.Graph {
	result := g.Copy()
	for s := 0; s <= result.GetMaxState(); s++ {
		ts, err := result.TransitionsMut(s)
		if err != nil {
			continue
		}
		for i := range *ts {
			if (*ts)[i].In == oldSym {
				(*ts)[i].In = newSym
			}
			if (*ts)[i].Out == oldSym {
				(*ts)[i].Out = newSym
			}
		}
	}
	result.InsertSymbol(newSym)
	result.PruneAlphabet(false)
	return result
}

// SymbolPair is an (input, output) label.
type SymbolPair struct{ In, Out uint32 }

// SubstitutePair replaces every transition labeled exactly oldPair with one
// labeled newPair, keeping its target and weight.
func SubstitutePair(g *fst.Graph, oldPair, newPair SymbolPair) *fst.Graph {
	result := g.Copy()
	for s := 0; s <= result.GetMaxState(); s++ {
		ts, err := result.TransitionsMut(s)
		if err != nil {
			continue
		}
		for i := range *ts {
			if (*ts)[i].In == oldPair.In && (*ts)[i].Out == oldPair.Out {
				(*ts)[i].In = newPair.In
				(*ts)[i].Out = newPair.Out
			}
		}
	}
	result.InsertSymbol(newPair.In)
	result.InsertSymbol(newPair.Out)
	result.PruneAlphabet(false)
	return result
}

// SubstitutePairToSet replaces every transition labeled oldPair with one
// parallel transition per pair in newPairs, all sharing the original target
// and weight — a fan-out substitution used for e.g. expanding a
// coarse-grained flag into its possible realizations.
func SubstitutePairToSet(g *fst.Graph, oldPair SymbolPair, newPairs []SymbolPair) *fst.Graph {
	result := g.Copy()
	for s := 0; s <= result.GetMaxState(); s++ {
		ts, err := result.Transitions(s)
		if err != nil {
			continue
		}
		var kept []fst.Transition
		var added []fst.Transition
		for _, t := range ts {
			if t.In == oldPair.In && t.Out == oldPair.Out {
				for _, np := range newPairs {
					added = append(added, fst.Transition{Target: t.Target, In: np.In, Out: np.Out, Weight: t.Weight})
				}
				continue
			}
			kept = append(kept, t)
		}
		if len(added) == 0 {
			continue
		}
		mut, _ := result.TransitionsMut(s)
		*mut = append(kept, added...)
	}
	for _, np := range newPairs {
		result.InsertSymbol(np.In)
		result.InsertSymbol(np.Out)
	}
	result.PruneAlphabet(false)
	return result
}

// SubstitutePairWithGraph splices sub in place of every transition labeled
// oldPair: each such transition is removed and replaced by an EPSILON arc
// into a fresh copy of sub, with sub's final states gaining an EPSILON arc
// (weighted by sub's former final weight plus the replaced transition's
// weight) to the original transition's target.
func SubstitutePairWithGraph(g *fst.Graph, oldPair SymbolPair, sub *fst.Graph) (*fst.Graph, error) {
	if err := checkSameTable(g, sub); err != nil {
		return nil, err
	}
	result := g.Copy()

	type hit struct {
		src, dst int
		w        fst.Weight
	}
	var hits []hit
	for s := 0; s <= result.GetMaxState(); s++ {
		ts, err := result.Transitions(s)
		if err != nil {
			continue
		}
		for _, t := range ts {
			if t.In == oldPair.In && t.Out == oldPair.Out {
				hits = append(hits, hit{s, t.Target, t.Weight})
			}
		}
	}
	if len(hits) == 0 {
		return result, nil
	}
	// RemoveTransition matches on target too, but we need to drop every
	// transition with this label regardless of target, so filter directly.
	for s := 0; s <= result.GetMaxState(); s++ {
		ts, err := result.TransitionsMut(s)
		if err != nil {
			continue
		}
		kept := (*ts)[:0]
		for _, t := range *ts {
			if t.In == oldPair.In && t.Out == oldPair.Out {
				continue
			}
			kept = append(kept, t)
		}
		*ts = kept
	}

	for _, h := range hits {
		subFinals := sub.FinalStates()
		offset := appendGraph(result, sub)
		result.AddTransition(h.src, fst.Transition{Target: offset, In: epsilon, Out: epsilon, Weight: h.w}, true)
		for _, f := range subFinals {
			fw, _ := sub.FinalWeight(f)
			result.AddTransition(offset+f, fst.Transition{Target: h.dst, In: epsilon, Out: epsilon, Weight: fw}, true)
			result.UnsetFinal(offset + f)
		}
	}
	return result, nil
}

// InsertFreely adds a self-loop transition labeled pair at every state,
// letting the symbol occur freely anywhere in a path (used to splice a flag
// diacritic, or an optional marker, into an existing transducer without
// rebuilding it).
func InsertFreely(g *fst.Graph, pair SymbolPair, weight fst.Weight) *fst.Graph {
	result := g.Copy()
	for s := 0; s <= result.GetMaxState(); s++ {
		result.AddTransition(s, fst.Transition{Target: s, In: pair.In, Out: pair.Out, Weight: weight}, true)
	}
	return result
}

// InsertGraphFreely splices a copy of ins as a freely-repeatable detour at
// every state: each state gains an EPSILON arc into a fresh copy of ins,
// whose final states gain an EPSILON arc (weighted by their former final
// weight) back to that same state.
func InsertGraphFreely(g *fst.Graph, ins *fst.Graph) (*fst.Graph, error) {
	if err := checkSameTable(g, ins); err != nil {
		return nil, err
	}
	result := g.Copy()
	n := result.NumStates()
	for s := 0; s < n; s++ {
		finals := ins.FinalStates()
		offset := appendGraph(result, ins)
		result.AddTransition(s, fst.Transition{Target: offset, In: epsilon, Out: epsilon}, true)
		for _, f := range finals {
			fw, _ := ins.FinalWeight(f)
			result.AddTransition(offset+f, fst.Transition{Target: s, In: epsilon, Out: epsilon, Weight: fw}, true)
			result.UnsetFinal(offset + f)
		}
	}
	return result, nil
}
