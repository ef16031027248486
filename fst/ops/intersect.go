package ops

import (
	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/fst/harmonize"
)

// Intersect builds the product of a and b, keeping only synchronized moves:
// a transition survives only if both operands have one with the identical
// symbol pair out of the corresponding states, and weights combine by ⊗
// (tropical: addition). Operands are harmonized first so UNKNOWN/IDENTITY
// wildcards on either side have already been expanded into the concrete
// pairs the other operand can match, then arc-sorted so the per-state match
// is a merge walk rather than a nested scan (spec.md §4.3).
func Intersect(a, b *fst.Graph) (*fst.Graph, error) {
	if err := checkSameTable(a, b); err != nil {
		return nil, err
	}
	ah, bh := harmonize.Harmonize(a, b)
	ah.SortArcs()
	bh.SortArcs()

	result := fst.NewWithTable(ah.Table())
	pairID := map[[2]int]int{{0, 0}: 0}
	queue := [][2]int{{0, 0}}

	for len(queue) > 0 {
		pair := queue[0]
		queue = queue[1:]
		qa, qb := pair[0], pair[1]
		src := pairID[pair]

		if wa, okA := ah.FinalWeight(qa); okA {
			if wb, okB := bh.FinalWeight(qb); okB {
				result.SetFinal(src, wa+wb)
			}
		}

		tsA, _ := ah.Transitions(qa)
		tsB, _ := bh.Transitions(qb)
		i, j := 0, 0
		for i < len(tsA) && j < len(tsB) {
			ta, tb := tsA[i], tsB[j]
			switch {
			case labelLess(ta, tb):
				i++
			case labelLess(tb, ta):
				j++
			default:
				// find the full run of arcs sharing this label on each side
				runEndA := i
				for runEndA < len(tsA) && sameLabel(tsA[runEndA], ta) {
					runEndA++
				}
				runEndB := j
				for runEndB < len(tsB) && sameLabel(tsB[runEndB], tb) {
					runEndB++
				}
				for ii := i; ii < runEndA; ii++ {
					for jj := j; jj < runEndB; jj++ {
						dst := pairState(result, pairID, &queue, tsA[ii].Target, tsB[jj].Target)
						result.AddTransition(src, fst.Transition{
							Target: dst,
							In:     ta.In,
							Out:    ta.Out,
							Weight: tsA[ii].Weight + tsB[jj].Weight,
						}, true)
					}
				}
				i, j = runEndA, runEndB
			}
		}
	}
	return result, nil
}

func sameLabel(a, b fst.Transition) bool { return a.In == b.In && a.Out == b.Out }

func labelLess(a, b fst.Transition) bool {
	if a.In != b.In {
		return a.In < b.In
	}
	return a.Out < b.Out
}

func pairState(result *fst.Graph, ids map[[2]int]int, queue *[][2]int, qa, qb int) int {
	key := [2]int{qa, qb}
	if id, ok := ids[key]; ok {
		return id
	}
	id := result.AddState()
	ids[key] = id
	*queue = append(*queue, key)
	return id
}
