package ops

import (
	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/fst/harmonize"
)

// Union builds a new graph accepting the weighted union of a and b (spec.md
// §4.3): a fresh initial state with EPSILON arcs to harmonized copies of
// each operand's original start state.
func Union(a, b *fst.Graph) (*fst.Graph, error) {
	if err := checkSameTable(a, b); err != nil {
		return nil, err
	}
	ah, bh := harmonize.Harmonize(a, b)

	result := ah.Copy()
	offsetB := appendGraph(result, bh)

	result.PrependState()
	startA := 1 // ah's old state 0, shifted by PrependState
	startB := offsetB + 1

	result.AddTransition(0, fst.Transition{Target: startA, In: epsilon, Out: epsilon}, true)
	result.AddTransition(0, fst.Transition{Target: startB, In: epsilon, Out: epsilon}, true)
	return result, nil
}

// Concatenation builds a new graph accepting a followed by b: a's final
// states lose their final status and instead gain an EPSILON arc, weighted
// by their former final weight, to a harmonized copy of b's start state.
func Concatenation(a, b *fst.Graph) (*fst.Graph, error) {
	if err := checkSameTable(a, b); err != nil {
		return nil, err
	}
	ah, bh := harmonize.Harmonize(a, b)

	result := ah.Copy()
	finals := result.FinalStates()
	offsetB := appendGraph(result, bh)
	startB := offsetB

	for _, f := range finals {
		w, _ := result.FinalWeight(f)
		result.AddTransition(f, fst.Transition{Target: startB, In: epsilon, Out: epsilon, Weight: w}, true)
		result.UnsetFinal(f)
	}
	return result, nil
}

// KleeneStar builds a graph accepting zero or more repetitions of a (spec.md
// §4.3): a new initial state that is itself final (accepting the empty
// string), with an EPSILON arc to a's old start, and an EPSILON arc from
// every one of a's final states back to the new initial.
func KleeneStar(a *fst.Graph) *fst.Graph {
	return kleene(a, true)
}

// KleenePlus is KleeneStar without accepting the empty string: one or more
// repetitions of a.
func KleenePlus(a *fst.Graph) *fst.Graph {
	return kleene(a, false)
}

func kleene(a *fst.Graph, acceptEmpty bool) *fst.Graph {
	result := a.Copy()
	oldFinals := result.FinalStates()
	oldFinalWeights := make([]fst.Weight, len(oldFinals))
	for i, f := range oldFinals {
		w, _ := result.FinalWeight(f)
		oldFinalWeights[i] = w
	}

	result.PrependState()
	newStart := 0
	oldStart := 1

	if acceptEmpty {
		result.SetFinal(newStart, 0)
	}
	result.AddTransition(newStart, fst.Transition{Target: oldStart, In: epsilon, Out: epsilon}, true)
	for i, f := range oldFinals {
		shifted := f + 1
		result.AddTransition(shifted, fst.Transition{Target: newStart, In: epsilon, Out: epsilon, Weight: oldFinalWeights[i]}, true)
	}
	return result
}

// Reverse builds a graph accepting the reverse of every string a accepts,
// with each path's weight unchanged: every transition is flipped end for
// end, a's old final states become the new start's EPSILON targets
// (weighted by their former final weight), and a's old start becomes the
// sole new final state with weight 0.
func Reverse(a *fst.Graph) *fst.Graph {
	rev := fst.NewWithTable(a.Table())
	for i := 1; i < a.NumStates(); i++ {
		rev.AddState()
	}
	for s := 0; s < a.NumStates(); s++ {
		ts, _ := a.Transitions(s)
		for _, t := range ts {
			rev.AddTransition(t.Target, fst.Transition{Target: s, In: t.In, Out: t.Out, Weight: t.Weight}, true)
		}
	}
	rev.SetFinal(0, 0)

	oldFinals := a.FinalStates()
	oldFinalWeights := make([]fst.Weight, len(oldFinals))
	for i, f := range oldFinals {
		w, _ := a.FinalWeight(f)
		oldFinalWeights[i] = w
	}

	rev.PrependState()
	newStart := 0
	for i, f := range oldFinals {
		rev.AddTransition(newStart, fst.Transition{Target: f + 1, In: epsilon, Out: epsilon, Weight: oldFinalWeights[i]}, true)
	}
	return rev
}

// Invert swaps the input and output tapes of every transition.
func Invert(a *fst.Graph) *fst.Graph {
	result := a.Copy()
	for s := 0; s <= result.GetMaxState(); s++ {
		ts, err := result.TransitionsMut(s)
		if err != nil {
			continue
		}
		for i := range *ts {
			(*ts)[i].In, (*ts)[i].Out = (*ts)[i].Out, (*ts)[i].In
		}
	}
	return result
}

// Side selects a tape for Project.
type Side int

const (
	InputSide Side = iota
	OutputSide
)

// Project collapses a transducer to a single-tape acceptor over the chosen
// side, setting the other tape equal to it on every transition.
func Project(a *fst.Graph, side Side) *fst.Graph {
	result := a.Copy()
	for s := 0; s <= result.GetMaxState(); s++ {
		ts, err := result.TransitionsMut(s)
		if err != nil {
			continue
		}
		for i := range *ts {
			switch side {
			case InputSide:
				(*ts)[i].Out = (*ts)[i].In
			case OutputSide:
				(*ts)[i].In = (*ts)[i].Out
			}
		}
	}
	return result
}
