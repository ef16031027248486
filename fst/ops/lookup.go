package ops

import (
	"container/heap"
	"context"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/symtab"
	"github.com/tapeset/wfst/wfsterr"
)

// LookupOptions bounds a Lookup search. Zero values mean "unbounded" except
// where noted.
type LookupOptions struct {
	// MaxResults stops the search after this many results are emitted. 0
	// means unlimited.
	MaxResults int
	// MaxWeight discards any partial path whose running weight already
	// exceeds it. A zero value means unlimited; use math.Inf(1) explicitly
	// if you mean "no results at all should be pruned by weight".
	MaxWeight fst.Weight
	// MaxEpsilonCycles bounds how many times a path may revisit the same
	// state via a run of EPSILON/flag transitions without consuming an
	// input symbol, guarding against the infinitely-ambiguous paths an
	// epsilon cycle can otherwise produce (spec.md's ErrInfiniteAmbiguity
	// case). 0 means a default of 5.
	MaxEpsilonCycles int
}

// LookupHit is one accepted output for a Lookup input.
type LookupHit struct {
	Output []uint32
	Weight fst.Weight
}

type lookupItem struct {
	state    int
	pos      int
	weight   fst.Weight
	out      []uint32
	flags    map[string]string
	epsSeen  map[int]int
	priority int // heap bookkeeping, unused for correctness
}

type lookupQueue []*lookupItem

func (q lookupQueue) Len() int            { return len(q) }
func (q lookupQueue) Less(i, j int) bool  { return q[i].weight < q[j].weight }
func (q lookupQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *lookupQueue) Push(x interface{}) { *q = append(*q, x.(*lookupItem)) }
func (q *lookupQueue) Pop() interface{} {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

func cloneFlags(m map[string]string) map[string]string {
	cp := make(map[string]string, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

func cloneEps(m map[int]int) map[int]int {
	cp := make(map[int]int, len(m))
	for k, v := range m {
		cp[k] = v
	}
	return cp
}

// Lookup runs input (a sequence of already-tokenized symbol ids) through g
// and returns accepted outputs in ascending weight order, best-first, up to
// opts.MaxResults (spec.md §4.3). UNKNOWN on an arc's input side matches any
// input symbol not in g's declared alphabet; IDENTITY matches any input
// symbol and copies it to the output. Flag diacritics (symtab.Table.
// ParseFlag) are evaluated against a per-path feature/value state instead of
// being matched as ordinary symbols, and are never consumed from input and
// never appear in output.
//
// ctx bounds the search: on a cyclic transducer with no epsilon-cycle bound
// reached yet, Lookup can otherwise run indefinitely against an adversarial
// input. Once ctx is cancelled or past its deadline, Lookup returns
// wfsterr.ErrCancelled and discards whatever hits it had accumulated.
func Lookup(ctx context.Context, g *fst.Graph, input []uint32, opts LookupOptions) ([]LookupHit, error) {
	maxEps := opts.MaxEpsilonCycles
	if maxEps == 0 {
		maxEps = 5
	}
	table := g.Table()
	known := g.Alphabet()

	pq := &lookupQueue{}
	heap.Init(pq)
	heap.Push(pq, &lookupItem{state: 0, pos: 0, flags: map[string]string{}, epsSeen: map[int]int{}})

	var hits []LookupHit
	for pq.Len() > 0 {
		if err := ctx.Err(); err != nil {
			return nil, wfsterr.Cancelled(err)
		}
		if opts.MaxResults > 0 && len(hits) >= opts.MaxResults {
			break
		}
		cur := heap.Pop(pq).(*lookupItem)
		if opts.MaxWeight != 0 && cur.weight > opts.MaxWeight {
			continue
		}

		if cur.pos == len(input) {
			if w, ok := g.FinalWeight(cur.state); ok {
				total := cur.weight + w
				if opts.MaxWeight == 0 || total <= opts.MaxWeight {
					hits = append(hits, LookupHit{Output: append([]uint32(nil), cur.out...), Weight: total})
				}
			}
		}

		ts, err := g.Transitions(cur.state)
		if err != nil {
			return nil, err
		}
		for _, t := range ts {
			if flag, ok := table.ParseFlag(t.In); ok && t.In == t.Out {
				newFlags, okApply := applyFlag(cur.flags, flag)
				if !okApply {
					continue
				}
				if cur.epsSeen[t.Target] >= maxEps {
					continue
				}
				eps := cloneEps(cur.epsSeen)
				eps[t.Target]++
				heap.Push(pq, &lookupItem{
					state: t.Target, pos: cur.pos, weight: cur.weight + t.Weight,
					out: cur.out, flags: newFlags, epsSeen: eps,
				})
				continue
			}

			if t.In == symtab.Epsilon {
				if cur.epsSeen[t.Target] >= maxEps {
					continue
				}
				eps := cloneEps(cur.epsSeen)
				eps[t.Target]++
				out := cur.out
				if t.Out != symtab.Epsilon {
					out = append(append([]uint32(nil), cur.out...), t.Out)
				}
				heap.Push(pq, &lookupItem{
					state: t.Target, pos: cur.pos, weight: cur.weight + t.Weight,
					out: out, flags: cur.flags, epsSeen: eps,
				})
				continue
			}

			if cur.pos >= len(input) {
				continue
			}
			sym := input[cur.pos]
			matched, outSym := matchInputArc(t, sym, known)
			if !matched {
				continue
			}
			out := cur.out
			if outSym != symtab.Epsilon {
				out = append(append([]uint32(nil), cur.out...), outSym)
			}
			heap.Push(pq, &lookupItem{
				state: t.Target, pos: cur.pos + 1, weight: cur.weight + t.Weight,
				out: out, flags: cur.flags, epsSeen: map[int]int{},
			})
		}
	}
	return hits, nil
}

func matchInputArc(t fst.Transition, sym uint32, known interface{ Has(uint32) bool }) (bool, uint32) {
	switch {
	case t.In == sym:
		if t.Out == symtab.Identity {
			return true, sym
		}
		if t.Out == symtab.Unknown {
			return true, sym
		}
		return true, t.Out
	case t.In == symtab.Identity:
		return true, sym
	case t.In == symtab.Unknown && !known.Has(sym):
		if t.Out == symtab.Unknown {
			return true, sym
		}
		return true, t.Out
	default:
		return false, 0
	}
}

// applyFlag evaluates a flag diacritic against the current per-feature
// state, per the six operators in spec.md's flag-diacritic section, and
// returns the possibly-updated state and whether the path may continue.
func applyFlag(state map[string]string, f symtab.Flag) (map[string]string, bool) {
	cur, has := state[f.Feature]
	switch f.Op {
	case symtab.FlagPositive:
		next := cloneFlags(state)
		if f.HasValue {
			next[f.Feature] = f.Value
		} else {
			next[f.Feature] = ""
		}
		return next, true
	case symtab.FlagNegative:
		next := cloneFlags(state)
		next[f.Feature] = "!" + f.Value
		return next, true
	case symtab.FlagRequire:
		if !has {
			return state, false
		}
		if f.HasValue && cur != f.Value {
			return state, false
		}
		return state, true
	case symtab.FlagDisallow:
		if !has {
			return state, true
		}
		if f.HasValue && cur != f.Value {
			return state, true
		}
		return state, false
	case symtab.FlagClear:
		next := cloneFlags(state)
		delete(next, f.Feature)
		return next, true
	case symtab.FlagUnify:
		if !has {
			next := cloneFlags(state)
			next[f.Feature] = f.Value
			return next, true
		}
		if cur == f.Value {
			return state, true
		}
		return state, false
	}
	return state, true
}

// IsInfinitelyAmbiguous reports whether g contains a cycle reachable from
// state 0 and able to reach a final state, made up entirely of transitions
// that consume no input symbol (EPSILON:x arcs and flag diacritics): such a
// cycle lets Lookup produce unboundedly many distinct accepting paths for
// the same input (spec.md's ErrInfiniteAmbiguity case).
func IsInfinitelyAmbiguous(g *fst.Graph) (bool, error) {
	table := g.Table()
	n := g.NumStates()
	noInputEdge := func(s int) []int {
		ts, _ := g.Transitions(s)
		var targets []int
		for _, t := range ts {
			if t.In == symtab.Epsilon {
				targets = append(targets, t.Target)
				continue
			}
			if _, ok := table.ParseFlag(t.In); ok && t.In == t.Out {
				targets = append(targets, t.Target)
			}
		}
		return targets
	}

	reachable := reachableFrom(g, 0, noInputEdge)
	canReachFinal := make([]bool, n)
	for s := 0; s < n; s++ {
		if canReach(g, s, noInputEdge, func(x int) bool { return g.IsFinal(x) }) {
			canReachFinal[s] = true
		}
	}

	const (
		white = 0
		gray  = 1
		black = 2
	)
	color := make([]int, n)
	var dfs func(s int) bool
	dfs = func(s int) bool {
		color[s] = gray
		for _, t := range noInputEdge(s) {
			if color[t] == gray {
				// t is on the current recursion stack, so s->...->t->s is a
				// cycle of zero-input-consumption transitions; it only
				// makes Lookup infinitely ambiguous if it can still reach
				// acceptance.
				if canReachFinal[t] {
					return true
				}
				continue
			}
			if color[t] == white {
				if dfs(t) {
					return true
				}
			}
		}
		color[s] = black
		return false
	}
	if reachable[0] && dfs(0) {
		return true, nil
	}
	return false, nil
}

func reachableFrom(g *fst.Graph, start int, edges func(int) []int) []bool {
	n := g.NumStates()
	seen := make([]bool, n)
	seen[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, t := range edges(s) {
			if !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}
	return seen
}

func canReach(g *fst.Graph, start int, edges func(int) []int, isTarget func(int) bool) bool {
	if isTarget(start) {
		return true
	}
	n := g.NumStates()
	seen := make([]bool, n)
	seen[start] = true
	queue := []int{start}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		for _, t := range edges(s) {
			if isTarget(t) {
				return true
			}
			if !seen[t] {
				seen[t] = true
				queue = append(queue, t)
			}
		}
	}
	return false
}
