package ops

import (
	"container/heap"

	"github.com/tapeset/wfst/fst"
)

// NBestPath is one complete accepting path's labels and total weight.
type NBestPath struct {
	Labels []SymbolPair
	Weight fst.Weight
}

type nbestItem struct {
	state  int
	weight fst.Weight
	labels []SymbolPair
}

type nbestQueue []*nbestItem

func (q nbestQueue) Len() int            { return len(q) }
func (q nbestQueue) Less(i, j int) bool  { return q[i].weight < q[j].weight }
func (q nbestQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nbestQueue) Push(x interface{}) { *q = append(*q, x.(*nbestItem)) }
func (q *nbestQueue) Pop() interface{} {
	old := *q
	n := len(old)
	it := old[n-1]
	*q = old[:n-1]
	return it
}

// NBest returns the n lowest-weight complete accepting paths through g, in
// ascending weight order (spec.md §4.3). It is a best-first search over the
// whole graph rather than a fixed input, unlike Lookup, so it finds the
// globally cheapest strings the transducer can produce at all.
func NBest(g *fst.Graph, n int) []NBestPath {
	if n <= 0 {
		return nil
	}
	pq := &nbestQueue{}
	heap.Init(pq)
	heap.Push(pq, &nbestItem{state: 0})

	// visits bounds how many times a given state may be expanded across the
	// whole search, so a graph with cycles doesn't search forever: once a
	// state has produced n departures, further visits can't possibly beat
	// paths already queued from it with smaller weight (best-first order
	// guarantees we've already explored its cheapest continuations).
	visits := map[int]int{}

	var results []NBestPath
	for pq.Len() > 0 && len(results) < n {
		cur := heap.Pop(pq).(*nbestItem)

		if w, ok := g.FinalWeight(cur.state); ok {
			results = append(results, NBestPath{
				Labels: append([]SymbolPair(nil), cur.labels...),
				Weight: cur.weight + w,
			})
		}

		visits[cur.state]++
		if visits[cur.state] > n {
			continue
		}

		ts, _ := g.Transitions(cur.state)
		for _, t := range ts {
			heap.Push(pq, &nbestItem{
				state:  t.Target,
				weight: cur.weight + t.Weight,
				labels: append(append([]SymbolPair(nil), cur.labels...), SymbolPair{t.In, t.Out}),
			})
		}
	}
	return results
}
