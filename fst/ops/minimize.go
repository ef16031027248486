package ops

import (
	"context"
	"fmt"
	"sort"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/wfsterr"
)

// Minimize reduces g to the fewest states recognizing the same weighted
// relation: it determinizes, pushes weight toward the final states so
// equivalent states carry identical local weight signatures, then merges
// states with indistinguishable future behavior by iterative partition
// refinement until a fixpoint (spec.md §4.3, "Minimize (Hopcroft with
// weight-pushing required first...)"). Unreachable states are dropped as a
// side effect of only emitting states reachable from the new start.
//
// ctx bounds both the determinize step and the partition-refinement loop;
// once cancelled or past its deadline, Minimize returns wfsterr.ErrCancelled
// instead of a partial result.
func Minimize(ctx context.Context, g *fst.Graph) (*fst.Graph, error) {
	det, err := Determinize(ctx, g)
	if err != nil {
		return nil, err
	}
	pushed := PushWeights(det, PushToFinal)
	return minimizePartition(ctx, pushed)
}

// signature is the per-state fingerprint partition refinement compares:
// finality, final weight, and for every outgoing label the (weight, target
// class) pair. Two states in the same class with identical signatures
// (after mapping targets to CURRENT class ids) are merged next round.
func minimizePartition(ctx context.Context, g *fst.Graph) (*fst.Graph, error) {
	n := g.NumStates()
	class := make([]int, n)
	for s := 0; s < n; s++ {
		if _, ok := g.FinalWeight(s); ok {
			class[s] = 1
		} else {
			class[s] = 0
		}
	}

	for {
		if err := ctx.Err(); err != nil {
			return nil, wfsterr.Cancelled(err)
		}
		sig := make([]string, n)
		for s := 0; s < n; s++ {
			ts, _ := g.Transitions(s)
			sorted := append([]fst.Transition(nil), ts...)
			sort.Slice(sorted, func(i, j int) bool {
				if sorted[i].In != sorted[j].In {
					return sorted[i].In < sorted[j].In
				}
				if sorted[i].Out != sorted[j].Out {
					return sorted[i].Out < sorted[j].Out
				}
				return class[sorted[i].Target] < class[sorted[j].Target]
			})
			s0 := fmt.Sprintf("c%d", class[s])
			if w, ok := g.FinalWeight(s); ok {
				s0 += fmt.Sprintf("|f%v", w)
			}
			for _, t := range sorted {
				s0 += fmt.Sprintf("|%d:%d>%d@%v", t.In, t.Out, class[t.Target], t.Weight)
			}
			sig[s] = s0
		}

		refined := map[string]int{}
		next := make([]int, n)
		for s := 0; s < n; s++ {
			id, ok := refined[sig[s]]
			if !ok {
				id = len(refined)
				refined[sig[s]] = id
			}
			next[s] = id
		}

		// Every signature is prefixed with the PREVIOUS class id, so
		// refinement only ever splits an old class, never merges two
		// states that were already in different classes: the partition
		// has reached its fixpoint exactly when a round produces no new
		// classes at all, regardless of how this round happens to have
		// renumbered them.
		stable := len(refined) == classCount(class)
		class = next
		if stable {
			break
		}
	}

	return rebuildFromPartition(g, class), nil
}

func classCount(class []int) int {
	seen := map[int]bool{}
	for _, c := range class {
		seen[c] = true
	}
	return len(seen)
}

func rebuildFromPartition(g *fst.Graph, class []int) *fst.Graph {
	result := fst.NewWithTable(g.Table())
	classOf0 := class[0]

	repID := map[int]int{classOf0: 0}
	order := []int{classOf0}
	for s := 0; s < g.NumStates(); s++ {
		c := class[s]
		if _, ok := repID[c]; !ok {
			repID[c] = result.AddState()
			order = append(order, c)
		}
	}

	seenTrans := map[[4]interface{}]bool{}
	for s := 0; s < g.NumStates(); s++ {
		src := repID[class[s]]
		if w, ok := g.FinalWeight(s); ok {
			result.SetFinal(src, w)
		}
		ts, _ := g.Transitions(s)
		for _, t := range ts {
			dst := repID[class[t.Target]]
			key := [4]interface{}{src, t.In, t.Out, dst}
			if seenTrans[key] {
				continue
			}
			seenTrans[key] = true
			result.AddTransition(src, fst.Transition{Target: dst, In: t.In, Out: t.Out, Weight: t.Weight}, true)
		}
	}
	return result
}
