package ops

import "github.com/tapeset/wfst/fst"

// EpsilonRemove eliminates EPSILON:EPSILON transitions by replacing them
// with the direct, weight-summed transitions they used to lead to: for each
// state, it computes the set of states reachable via EPSILON:EPSILON-only
// paths (the epsilon closure) together with the minimum-weight path to
// each, then re-targets every real (non-epsilon-pair) transition and final
// weight through that closure. Transitions with EPSILON on only one tape
// (e.g. a:EPSILON) are left untouched, since they carry information and are
// not redundant no-ops.
//
// Epsilon cycles are handled by bounding relaxation to NumStates() rounds
// (Bellman-Ford style), which is exact for nonnegative weights and simply
// converges to the least fixed point otherwise.
func EpsilonRemove(g *fst.Graph) *fst.Graph {
	closures := epsilonClosures(g)

	result := fst.NewWithTable(g.Table())
	for i := 1; i < g.NumStates(); i++ {
		result.AddState()
	}

	for s := 0; s < g.NumStates(); s++ {
		for c, wC := range closures[s] {
			if w, ok := g.FinalWeight(c); ok {
				total := wC + w
				if existing, has := result.FinalWeight(s); !has || total < existing {
					result.SetFinal(s, total)
				}
			}
			ts, _ := g.Transitions(c)
			for _, t := range ts {
				if t.In == epsilon && t.Out == epsilon {
					continue
				}
				result.AddTransition(s, fst.Transition{Target: t.Target, In: t.In, Out: t.Out, Weight: wC + t.Weight}, true)
			}
		}
	}
	return result
}

// epsilonClosures returns, for every state s, a map from reachable state
// (via EPSILON:EPSILON-only paths, including s itself with weight 0) to the
// minimum total weight of such a path.
func epsilonClosures(g *fst.Graph) []map[int]fst.Weight {
	n := g.NumStates()
	closures := make([]map[int]fst.Weight, n)
	for s := 0; s < n; s++ {
		closures[s] = map[int]fst.Weight{s: 0}
	}

	for round := 0; round < n+1; round++ {
		changed := false
		for s := 0; s < n; s++ {
			for c, wC := range closures[s] {
				ts, _ := g.Transitions(c)
				for _, t := range ts {
					if t.In != epsilon || t.Out != epsilon {
						continue
					}
					cand := wC + t.Weight
					if existing, ok := closures[s][t.Target]; !ok || cand < existing {
						closures[s][t.Target] = cand
						changed = true
					}
				}
			}
		}
		if !changed {
			break
		}
	}
	return closures
}
