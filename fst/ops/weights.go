package ops

import "github.com/tapeset/wfst/fst"

const inf = fst.Weight(1e18)

// PushDirection selects which endpoint PushWeights redistributes weight
// toward.
type PushDirection int

const (
	// PushToFinal moves weight toward the final states: every transition's
	// new weight is w + dist(target) - dist(source), where dist(s) is the
	// shortest remaining distance from s to acceptance. Since state 0 has
	// no separate "initial weight" slot in this graph model to absorb the
	// resulting constant shift, PushToFinal adds that constant back onto
	// state 0's own outgoing transitions (and its final weight, if any),
	// so every complete path's total weight is unchanged overall, not just
	// shifted by a constant, and canonicalizing equivalent states' local
	// weight signatures for Minimize.
	PushToFinal PushDirection = iota
	// PushToInitial moves weight toward the start: every transition's new
	// weight is w + dist(source) - dist(target), where dist(s) is the
	// shortest distance from state 0 to s. No compensation is needed here
	// since dist(0) = 0 anchors the telescoping exactly.
	PushToInitial
)

// PushWeights redistributes weight mass along every complete path without
// changing any path's total weight (spec.md §4.3).
func PushWeights(g *fst.Graph, dir PushDirection) *fst.Graph {
	result := g.Copy()
	switch dir {
	case PushToFinal:
		dist := distanceToFinal(g)
		d0 := dist[0]
		for s := 0; s <= result.GetMaxState(); s++ {
			ts, err := result.TransitionsMut(s)
			if err != nil {
				continue
			}
			for i := range *ts {
				t := (*ts)[i]
				nw := t.Weight + dist[t.Target] - dist[s]
				if s == 0 {
					nw += d0
				}
				(*ts)[i].Weight = nw
			}
			if w, ok := result.FinalWeight(s); ok {
				nw := w - dist[s]
				if s == 0 {
					nw += d0
				}
				result.SetFinal(s, nw)
			}
		}
	case PushToInitial:
		dist := distanceFromInitial(g)
		for s := 0; s <= result.GetMaxState(); s++ {
			ts, err := result.TransitionsMut(s)
			if err != nil {
				continue
			}
			for i := range *ts {
				t := (*ts)[i]
				(*ts)[i].Weight = t.Weight + dist[s] - dist[t.Target]
			}
			if w, ok := result.FinalWeight(s); ok {
				result.SetFinal(s, w+dist[s])
			}
		}
	}
	return result
}

// distanceToFinal computes, for every state, the shortest-path (tropical:
// min-plus) distance to acceptance: the minimum over all final states f
// reachable from s of (path weight to f) + finalWeight(f). A state with no
// path to any final state gets inf.
func distanceToFinal(g *fst.Graph) []fst.Weight {
	n := g.NumStates()
	dist := make([]fst.Weight, n)
	for s := range dist {
		dist[s] = inf
	}
	for s := 0; s < n; s++ {
		if w, ok := g.FinalWeight(s); ok {
			dist[s] = w
		}
	}
	for round := 0; round < n+1; round++ {
		changed := false
		for s := 0; s < n; s++ {
			ts, _ := g.Transitions(s)
			for _, t := range ts {
				if dist[t.Target] == inf {
					continue
				}
				cand := t.Weight + dist[t.Target]
				if cand < dist[s] {
					dist[s] = cand
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return dist
}

// distanceFromInitial computes, for every state, the shortest-path distance
// from state 0.
func distanceFromInitial(g *fst.Graph) []fst.Weight {
	n := g.NumStates()
	dist := make([]fst.Weight, n)
	for s := range dist {
		dist[s] = inf
	}
	dist[0] = 0
	for round := 0; round < n+1; round++ {
		changed := false
		for s := 0; s < n; s++ {
			if dist[s] == inf {
				continue
			}
			ts, _ := g.Transitions(s)
			for _, t := range ts {
				cand := dist[s] + t.Weight
				if cand < dist[t.Target] {
					dist[t.Target] = cand
					changed = true
				}
			}
		}
		if !changed {
			break
		}
	}
	return dist
}
