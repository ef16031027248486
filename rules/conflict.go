package rules

import (
	"context"
	"fmt"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/fst/ops"
	"github.com/tapeset/wfst/symtab"
	"github.com/tapeset/wfst/wfsterr"
)

// resolveConflicts groups => rules by center input symbol and checks every
// pair in a group for overlapping, differently-resulting contexts (spec.md
// §4.5's conflict detection). Non-=> rules never conflict with each other
// under this check; they pass through untouched.
//
// When resolve is false, a detected conflict is returned as
// wfsterr.ErrRuleConflict. When resolve is true, the more general rule (the
// one whose contexts are judged to carry fewer constraints) has the more
// specific rule's context subtracted from its own on the differing side, and
// a Warning records the narrowing.
func resolveConflicts(ctx context.Context, gs *GrammarSource, table *symtab.Table, sigma *sigmaGraphs, resolve bool) ([]Rule, []Warning, error) {
	var warnings []Warning
	rules := append([]Rule(nil), gs.Rules...)

	groups := map[uint32][]int{}
	for i, r := range rules {
		if r.Op != RightArrow {
			continue
		}
		for in := range centerInputs(r, table) {
			groups[in] = append(groups[in], i)
		}
	}

	for _, idxs := range groups {
		if len(idxs) < 2 {
			continue
		}
		for a := 0; a < len(idxs); a++ {
			for b := a + 1; b < len(idxs); b++ {
				i, j := idxs[a], idxs[b]
				if sameOutput(rules[i], rules[j]) {
					continue
				}
				overlap, err := contextsOverlap(ctx, rules[i], rules[j], gs, table, sigma)
				if err != nil {
					return nil, nil, err
				}
				if !overlap {
					continue
				}
				if !resolve {
					return nil, nil, wfsterr.New(fmt.Sprintf(
						"rules %q and %q conflict on overlapping contexts for the same center symbol",
						rules[i].Name, rules[j].Name), wfsterr.ErrRuleConflict)
				}
				general, specific := i, j
				if specificity(rules[j]) < specificity(rules[i]) {
					general, specific = j, i
				}
				narrowed, err := narrowContext(rules[general], rules[specific], gs, table, sigma)
				if err != nil {
					return nil, nil, err
				}
				rules[general] = narrowed
				warnings = append(warnings, Warning{Message: fmt.Sprintf(
					"rule %q narrowed to avoid conflict with more specific rule %q", rules[general].Name, rules[specific].Name)})
			}
		}
	}
	return rules, warnings, nil
}

func sameOutput(a, b Rule) bool {
	if len(a.Center) != len(b.Center) {
		return false
	}
	for i := range a.Center {
		if a.Center[i] != b.Center[i] {
			return false
		}
	}
	return true
}

// specificity is a rough measure of how constrained a rule's contexts are:
// the total count of non-empty (i.e. not "unconstrained") context sides
// across all of its contexts. A rule with more non-empty sides is judged
// more specific.
func specificity(r Rule) int {
	n := 0
	for _, c := range r.Contexts {
		if c.Left != "" {
			n++
		}
		if c.Right != "" {
			n++
		}
	}
	return n
}

// contextsOverlap reports whether any context of a and any context of b
// accept a common string, by building each context's (left, right) window
// acceptor and testing the intersection of the two languages for emptiness.
func contextsOverlap(ctx context.Context, a, b Rule, gs *GrammarSource, table *symtab.Table, sigma *sigmaGraphs) (bool, error) {
	for _, ca := range a.Contexts {
		for _, cb := range b.Contexts {
			wa, err := contextWindow(ctx, ca, gs, table, sigma)
			if err != nil {
				return false, err
			}
			wb, err := contextWindow(ctx, cb, gs, table, sigma)
			if err != nil {
				return false, err
			}
			inter, err := ops.Intersect(wa, wb)
			if err != nil {
				return false, err
			}
			if !languageIsEmpty(inter) {
				return true, nil
			}
		}
	}
	return false, nil
}

func contextWindow(ctx context.Context, c RuleContext, gs *GrammarSource, table *symtab.Table, sigma *sigmaGraphs) (*fst.Graph, error) {
	left, err := buildContextGraph(ctx, c.Left, gs, table, sigma.sigmaStar, sigma.pairs)
	if err != nil {
		return nil, err
	}
	right, err := buildContextGraph(ctx, c.Right, gs, table, sigma.sigmaStar, sigma.pairs)
	if err != nil {
		return nil, err
	}
	return ops.Concatenation(left, right)
}

func languageIsEmpty(g *fst.Graph) bool {
	n := g.NumStates()
	seen := make([]bool, n)
	seen[0] = true
	queue := []int{0}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if g.IsFinal(s) {
			return false
		}
		ts, _ := g.Transitions(s)
		for _, t := range ts {
			if !seen[t.Target] {
				seen[t.Target] = true
				queue = append(queue, t.Target)
			}
		}
	}
	return true
}

// narrowContext replaces general's context (on whichever side overlaps)
// with the complement of specific's corresponding side, restricting general
// to apply only where specific's own, narrower rule does not. This matches
// spec.md §8's worked conflict-resolution example: two rules sharing a
// center symbol, one constrained only on the left, the other on both sides;
// the less-constrained rule's unconstrained side is narrowed to exclude
// exactly the more specific rule's extra constraint.
func narrowContext(general, specific Rule, gs *GrammarSource, table *symtab.Table, sigma *sigmaGraphs) (Rule, error) {
	out := general
	out.Contexts = append([]RuleContext(nil), general.Contexts...)
	for gi, gc := range out.Contexts {
		for _, sc := range specific.Contexts {
			if gc.Right == "" && sc.Right != "" {
				out.Contexts[gi].Right = "¬(" + sc.Right + ")"
			}
			if gc.Left == "" && sc.Left != "" {
				out.Contexts[gi].Left = "¬(" + sc.Left + ")"
			}
		}
	}
	return out, nil
}
