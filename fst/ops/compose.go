package ops

import (
	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/fst/harmonize"
)

// composeFilter tracks which side most recently took an unmatched (epsilon
// on the connecting tape) step, to block the two equivalent epsilon paths
// that naive composition would otherwise produce for every real match
// (spec.md §4.3, "composition ... with epsilon filter").
type composeFilter int

const (
	filterBoth composeFilter = iota // either side may step alone
	filterA                         // A stepped alone last; B may not
	filterB                         // B stepped alone last; A may not
)

type composeState struct {
	qa, qb int
	filt   composeFilter
}

// ComposeOptions configures Compose.
type ComposeOptions struct {
	// FlagIsEpsilon treats flag diacritics on the connecting tape (a's
	// output / b's input) as if they were EPSILON for matching purposes,
	// so a flag emitted by a does not have to be explicitly consumed by a
	// transition in b. The flag symbol itself is still carried through
	// onto the result's labels.
	FlagIsEpsilon bool
}

// Compose builds the relational composition of a and b: a's output tape is
// matched against b's input tape. Operands are harmonized first so
// UNKNOWN/IDENTITY on the connecting tape are already expanded.
func Compose(a, b *fst.Graph, opts ComposeOptions) (*fst.Graph, error) {
	if err := checkSameTable(a, b); err != nil {
		return nil, err
	}
	ah, bh := harmonize.Harmonize(a, b)
	table := ah.Table()

	isConnEpsilon := func(sym uint32) bool {
		if sym == epsilon {
			return true
		}
		return opts.FlagIsEpsilon && table.IsDiacritic(sym)
	}

	result := fst.NewWithTable(table)
	start := composeState{0, 0, filterBoth}
	ids := map[composeState]int{start: 0}
	queue := []composeState{start}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		src := ids[cur]

		if wa, okA := ah.FinalWeight(cur.qa); okA {
			if wb, okB := bh.FinalWeight(cur.qb); okB {
				result.SetFinal(src, wa+wb)
			}
		}

		tsA, _ := ah.Transitions(cur.qa)
		tsB, _ := bh.Transitions(cur.qb)

		for _, ta := range tsA {
			for _, tb := range tsB {
				if ta.Out == tb.In && !isConnEpsilon(ta.Out) {
					dst := composeTarget(result, ids, &queue, composeState{ta.Target, tb.Target, filterBoth})
					result.AddTransition(src, fst.Transition{Target: dst, In: ta.In, Out: tb.Out, Weight: ta.Weight + tb.Weight}, true)
				}
			}
		}

		if cur.filt != filterB {
			for _, ta := range tsA {
				if isConnEpsilon(ta.Out) {
					dst := composeTarget(result, ids, &queue, composeState{ta.Target, cur.qb, filterA})
					// ta.Out is either a literal epsilon or a flag being
					// treated as one; a flag must survive onto the
					// result so a later Lookup can still evaluate it.
					result.AddTransition(src, fst.Transition{Target: dst, In: ta.In, Out: ta.Out, Weight: ta.Weight}, true)
				}
			}
		}
		if cur.filt != filterA {
			for _, tb := range tsB {
				if isConnEpsilon(tb.In) {
					dst := composeTarget(result, ids, &queue, composeState{cur.qa, tb.Target, filterB})
					result.AddTransition(src, fst.Transition{Target: dst, In: tb.In, Out: tb.Out, Weight: tb.Weight}, true)
				}
			}
		}
	}
	return result, nil
}

func composeTarget(result *fst.Graph, ids map[composeState]int, queue *[]composeState, s composeState) int {
	if id, ok := ids[s]; ok {
		return id
	}
	id := result.AddState()
	ids[s] = id
	*queue = append(*queue, s)
	return id
}
