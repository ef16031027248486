package ops

import (
	"context"
	"sort"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/wfsterr"
)

// subsetEntry is one (original state, residual weight) pair inside a
// determinized macro-state.
type subsetEntry struct {
	state int
	w     fst.Weight
}

type subsetKey string

func keyOf(entries []subsetEntry) subsetKey {
	sorted := append([]subsetEntry(nil), entries...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].state < sorted[j].state })
	b := make([]byte, 0, len(sorted)*9)
	for _, e := range sorted {
		b = append(b, byte(e.state), byte(e.state>>8), byte(e.state>>16), byte(e.state>>24))
	}
	return subsetKey(b)
}

// Determinize converts g to an equivalent graph with no two transitions out
// of the same state sharing a symbol pair, via weighted subset construction
// (Mohri's algorithm): a determinized state is a set of (original state,
// residual weight) pairs; the residual absorbs the difference between each
// contributing original transition's weight and the minimum weight pushed
// onto the emitted transition, so no path's total weight changes.
//
// g is epsilon-removed first, since subset construction over EPSILON arcs
// doesn't terminate in the same simple form. Determinize is only guaranteed
// to terminate for graphs with the twins property; pathological inputs may
// produce a very large (but still finite, since symbol alphabets are
// finite) result, so ctx can be used to bail out early: once cancelled or
// past its deadline, Determinize stops expanding the subset queue and
// returns wfsterr.ErrCancelled instead of a partial result.
func Determinize(ctx context.Context, g *fst.Graph) (*fst.Graph, error) {
	src := EpsilonRemove(g)

	result := fst.NewWithTable(src.Table())
	startEntries := []subsetEntry{{0, 0}}
	ids := map[subsetKey]int{keyOf(startEntries): 0}
	queue := [][]subsetEntry{startEntries}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, wfsterr.Cancelled(err)
		}

		entries := queue[0]
		queue = queue[1:]
		dstID := ids[keyOf(entries)]

		finalW, isFinal := fst.Weight(0), false
		for _, e := range entries {
			if w, ok := src.FinalWeight(e.state); ok {
				total := e.w + w
				if !isFinal || total < finalW {
					finalW, isFinal = total, true
				}
			}
		}
		if isFinal {
			result.SetFinal(dstID, finalW)
		}

		// group candidate (target, weight) by symbol-pair label
		byLabel := map[[2]uint32][]subsetEntry{}
		for _, e := range entries {
			ts, _ := src.Transitions(e.state)
			for _, t := range ts {
				label := [2]uint32{t.In, t.Out}
				byLabel[label] = append(byLabel[label], subsetEntry{t.Target, e.w + t.Weight})
			}
		}

		for label, cands := range byLabel {
			minW := cands[0].w
			for _, c := range cands[1:] {
				if c.w < minW {
					minW = c.w
				}
			}
			merged := map[int]fst.Weight{}
			for _, c := range cands {
				residual := c.w - minW
				if existing, ok := merged[c.state]; !ok || residual < existing {
					merged[c.state] = residual
				}
			}
			next := make([]subsetEntry, 0, len(merged))
			for st, w := range merged {
				next = append(next, subsetEntry{st, w})
			}
			key := keyOf(next)
			nextID, ok := ids[key]
			if !ok {
				nextID = result.AddState()
				ids[key] = nextID
				queue = append(queue, next)
			}
			result.AddTransition(dstID, fst.Transition{Target: nextID, In: label[0], Out: label[1], Weight: minW}, true)
		}
	}
	return result, nil
}
