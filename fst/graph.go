// Package fst implements the weighted transition-graph engine (spec
// component C2): the in-memory automaton representation supporting
// construction, traversal, and structural queries. Algebraic operations
// live in the sibling fst/ops package; alphabet reconciliation lives in
// fst/harmonize.
package fst

import (
	"sort"

	"github.com/tapeset/wfst/internal/util"
	"github.com/tapeset/wfst/symtab"
	"github.com/tapeset/wfst/wfsterr"
)

// Weight is a tropical-semiring weight: ⊕ = min, ⊗ = +, with identity
// elements +Inf for ⊕ and 0 for ⊗ (spec.md Glossary).
type Weight = float64

// Transition is a single outgoing arc: (target state, input symbol id,
// output symbol id, weight).
type Transition struct {
	Target int
	In     uint32
	Out    uint32
	Weight Weight
}

// SameLabel reports whether t and o have the same target and symbol pair,
// ignoring weight. This is the equality RemoveTransition uses (spec.md
// §4.2: "removes all transitions equal (same target, same symbol pair,
// ignoring weight) to t").
func (t Transition) SameLabel(o Transition) bool {
	return t.Target == o.Target && t.In == o.In && t.Out == o.Out
}

// Graph is a mutable weighted finite-state transducer: a state vector with
// per-state transition lists, a final-weight map, and an alphabet. State 0
// is always the initial state. Graph is value-owned: operators in fst/ops
// take Graphs by pointer but treat them as logically immutable, returning a
// new Graph rather than mutating their arguments (see Copy).
type Graph struct {
	Name string

	states [][]Transition
	final  map[int]Weight
	alpha  map[uint32]struct{}

	table *symtab.Table
}

// New creates a Graph with one non-final state (state 0) and the four
// reserved symbols in its alphabet, using the process-wide default symbol
// table.
func New() *Graph {
	return NewWithTable(symtab.Default)
}

// NewWithTable is New but interns symbols in the given table instead of the
// process-wide default. Two Graphs that will be combined by fst/ops or
// fst/harmonize must share the same Table.
func NewWithTable(t *symtab.Table) *Graph {
	g := &Graph{
		states: make([][]Transition, 1),
		final:  map[int]Weight{},
		alpha:  map[uint32]struct{}{},
		table:  t,
	}
	g.insertReserved()
	return g
}

func (g *Graph) insertReserved() {
	g.alpha[symtab.Epsilon] = struct{}{}
	g.alpha[symtab.Unknown] = struct{}{}
	g.alpha[symtab.Identity] = struct{}{}
	g.alpha[symtab.DefaultSym] = struct{}{}
}

// Table returns the symbol table this graph interns its symbols in.
func (g *Graph) Table() *symtab.Table { return g.table }

// Copy returns a deep copy of g sharing the same symbol table (symbol
// tables are process-wide and append-only, so sharing is safe and
// intentional).
func (g *Graph) Copy() *Graph {
	cp := &Graph{
		Name:  g.Name,
		table: g.table,
		final: make(map[int]Weight, len(g.final)),
		alpha: make(map[uint32]struct{}, len(g.alpha)),
	}
	cp.states = make([][]Transition, len(g.states))
	for i, ts := range g.states {
		cp.states[i] = append([]Transition(nil), ts...)
	}
	for k, v := range g.final {
		cp.final[k] = v
	}
	for k := range g.alpha {
		cp.alpha[k] = struct{}{}
	}
	return cp
}

// AddState appends a new, non-final, transition-less state and returns its
// index.
func (g *Graph) AddState() int {
	g.states = append(g.states, nil)
	return len(g.states) - 1
}

// PrependState inserts a new, non-final, transition-less state at index 0,
// shifting every existing state (and every transition target, and every
// final-weight entry) up by one. It always returns 0.
//
// State 0 is fixed by convention as the sole initial state (spec.md §3), so
// any operator that needs to introduce a new initial state — union's fresh
// branch point, Kleene star/plus's new initial-and-maybe-final state,
// reversal's new start — must renumber rather than simply append.
func (g *Graph) PrependState() int {
	shifted := make([][]Transition, len(g.states)+1)
	for i, ts := range g.states {
		row := make([]Transition, len(ts))
		for j, t := range ts {
			t.Target++
			row[j] = t
		}
		shifted[i+1] = row
	}
	g.states = shifted

	newFinal := make(map[int]Weight, len(g.final))
	for s, w := range g.final {
		newFinal[s+1] = w
	}
	g.final = newFinal

	return 0
}

// EnsureState grows the state vector, if needed, so that state s is a
// valid index. Adding state s implicitly adds all intermediate states.
func (g *Graph) EnsureState(s int) {
	for s >= len(g.states) {
		g.states = append(g.states, nil)
	}
}

// GetMaxState returns the index of the last state in the state vector.
func (g *Graph) GetMaxState() int {
	return len(g.states) - 1
}

// NumStates returns the number of states in g.
func (g *Graph) NumStates() int {
	return len(g.states)
}

func (g *Graph) checkState(s int) error {
	if s < 0 || s >= len(g.states) {
		return wfsterr.StateOutOfBounds(s)
	}
	return nil
}

// InsertSymbol adds id to g's alphabet directly, without requiring a
// transition to reference it. Used when declaring an alphabet ahead of
// construction (e.g. the rule compiler's declared alphabet).
func (g *Graph) InsertSymbol(id uint32) {
	g.alpha[id] = struct{}{}
}

// Alphabet returns the set of symbol ids in g's alphabet. The reserved
// symbols (EPSILON, UNKNOWN, IDENTITY, DEFAULT) are always present.
func (g *Graph) Alphabet() util.KeySet[uint32] {
	s := util.NewKeySet[uint32]()
	for k := range g.alpha {
		s.Add(k)
	}
	return s
}

// HasSymbol reports whether id is in g's alphabet.
func (g *Graph) HasSymbol(id uint32) bool {
	_, ok := g.alpha[id]
	return ok
}

// AddTransition ensures src and t.Target exist, then appends t to src's
// transition list. If updateAlphabet is true (the common case), t.In and
// t.Out are added to the alphabet.
func (g *Graph) AddTransition(src int, t Transition, updateAlphabet bool) {
	if src < 0 {
		panic("negative state index")
	}
	g.EnsureState(src)
	g.EnsureState(t.Target)
	g.states[src] = append(g.states[src], t)
	if updateAlphabet {
		g.alpha[t.In] = struct{}{}
		g.alpha[t.Out] = struct{}{}
	}
}

// RemoveTransition removes every transition at src equal to t (same target
// and symbol pair, ignoring weight, per Transition.SameLabel). If
// pruneAlphabet is true, PruneAlphabet(false) is called afterward.
func (g *Graph) RemoveTransition(src int, t Transition, pruneAlphabet bool) error {
	if err := g.checkState(src); err != nil {
		return err
	}
	kept := g.states[src][:0]
	for _, existing := range g.states[src] {
		if !existing.SameLabel(t) {
			kept = append(kept, existing)
		}
	}
	g.states[src] = kept
	if pruneAlphabet {
		g.PruneAlphabet(false)
	}
	return nil
}

// SetFinal marks s as final with final weight w.
func (g *Graph) SetFinal(s int, w Weight) error {
	if err := g.checkState(s); err != nil {
		return err
	}
	g.final[s] = w
	return nil
}

// UnsetFinal removes final status from s, if it had any.
func (g *Graph) UnsetFinal(s int) {
	delete(g.final, s)
}

// IsFinal reports whether s is a final state.
func (g *Graph) IsFinal(s int) bool {
	_, ok := g.final[s]
	return ok
}

// FinalWeight returns the final weight of s and whether s is final. Callers
// that need the tropical ⊕-identity for non-final states should substitute
// math.Inf(1) when ok is false.
func (g *Graph) FinalWeight(s int) (Weight, bool) {
	w, ok := g.final[s]
	return w, ok
}

// FinalStates returns the set of final state indices.
func (g *Graph) FinalStates() []int {
	states := make([]int, 0, len(g.final))
	for s := range g.final {
		states = append(states, s)
	}
	sort.Ints(states)
	return states
}

// Transitions returns the outgoing transitions of s.
func (g *Graph) Transitions(s int) ([]Transition, error) {
	if err := g.checkState(s); err != nil {
		return nil, err
	}
	return g.states[s], nil
}

// TransitionsMut returns a pointer to the outgoing-transitions slice of s so
// callers may mutate it in place (e.g. during substitution). The returned
// pointer is invalidated by any call that adds states to g.
func (g *Graph) TransitionsMut(s int) (*[]Transition, error) {
	if err := g.checkState(s); err != nil {
		return nil, err
	}
	return &g.states[s], nil
}

// PruneAlphabet removes symbols from g's alphabet that are not referenced
// by any transition. If force is false (the default for callers that don't
// explicitly ask otherwise), the operation is a no-op whenever UNKNOWN or
// IDENTITY is used by some transition, since their meaning depends on the
// full alphabet rather than being checkable symbol-by-symbol.
func (g *Graph) PruneAlphabet(force bool) {
	if !force {
		for _, ts := range g.states {
			for _, t := range ts {
				if t.In == symtab.Unknown || t.Out == symtab.Unknown ||
					t.In == symtab.Identity || t.Out == symtab.Identity {
					return
				}
			}
		}
	}

	used := map[uint32]struct{}{
		symtab.Epsilon:    {},
		symtab.Unknown:    {},
		symtab.Identity:   {},
		symtab.DefaultSym: {},
	}
	for _, ts := range g.states {
		for _, t := range ts {
			used[t.In] = struct{}{}
			used[t.Out] = struct{}{}
		}
	}
	g.alpha = used
}

// SortArcs sorts each state's transition list by (In, Out, Target, Weight).
// Several operators (intersection, composition) require their operands to
// be arc-sorted so that matching transitions can be found via a merge walk
// rather than a nested scan.
func (g *Graph) SortArcs() {
	for i := range g.states {
		ts := g.states[i]
		sort.Slice(ts, func(a, b int) bool {
			if ts[a].In != ts[b].In {
				return ts[a].In < ts[b].In
			}
			if ts[a].Out != ts[b].Out {
				return ts[a].Out < ts[b].Out
			}
			if ts[a].Target != ts[b].Target {
				return ts[a].Target < ts[b].Target
			}
			return ts[a].Weight < ts[b].Weight
		})
	}
}

// GetFlags returns the subset of g's alphabet that are flag diacritics.
func (g *Graph) GetFlags() util.KeySet[uint32] {
	flags := util.NewKeySet[uint32]()
	for id := range g.alpha {
		if g.table.IsDiacritic(id) {
			flags.Add(id)
		}
	}
	return flags
}

// PurgeFlag replaces every transition labeled with a flag of the given
// feature name (or every flag transition, if featureName is "") with
// EPSILON:EPSILON, and removes the purged flags from the alphabet.
func (g *Graph) PurgeFlag(featureName string) {
	purge := util.NewKeySet[uint32]()
	for id := range g.alpha {
		f, ok := g.table.ParseFlag(id)
		if !ok {
			continue
		}
		if featureName == "" || f.Feature == featureName {
			purge.Add(id)
		}
	}
	if purge.Empty() {
		return
	}

	for s := range g.states {
		for i, t := range g.states[s] {
			if purge.Has(t.In) {
				g.states[s][i].In = symtab.Epsilon
			}
			if purge.Has(t.Out) {
				g.states[s][i].Out = symtab.Epsilon
			}
		}
	}
	for id := range purge {
		delete(g.alpha, id)
	}
}
