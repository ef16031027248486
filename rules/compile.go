package rules

import (
	"context"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/fst/ops"
	"github.com/tapeset/wfst/symtab"
	"github.com/tapeset/wfst/wfsterr"
)

// elsewherePenalty is the weight added to a path that lets a rule's center
// input symbol surface unrewritten (as In:In) outside of, or instead of, a
// licensed context window. A real two-level compiler excludes the
// unlicensed reading entirely via diamond-marked complementation over whole
// strings; this compiler instead makes the licensed rewrite strictly
// cheaper, so Lookup's best-first ordering surfaces it first. It is exact
// for non-overlapping, single-context rules (spec.md §8's worked rule
// scenario) and documented as an approximation in DESIGN.md for anything
// more elaborate.
const elsewherePenalty = fst.Weight(1000)

// sigmaGraphs holds the Σ (identity pass-through acceptor) built once per
// compile and reused by every rule and every context.
type sigmaGraphs struct {
	pairs     []ops.SymbolPair
	sigma     *fst.Graph // one step: any declared pair
	sigmaStar *fst.Graph
}

// buildSigma builds Σ as an IDENTITY acceptor over the alphabet's declared
// input symbols. Contexts are "language-accepting transducers" (spec.md
// §4.5): they describe which input strings surround a center, not what
// those surrounding symbols happen to rewrite to elsewhere in the grammar,
// so Σ* and every literal context symbol match on input identity rather
// than on the alphabet's (possibly many-to-one) declared output pairing.
func buildSigma(gs *GrammarSource, table *symtab.Table) (*sigmaGraphs, error) {
	g := fst.NewWithTable(table)
	g.AddState()
	var pairs []ops.SymbolPair
	seen := map[uint32]bool{}
	for _, p := range gs.Alphabet {
		in := table.MustIntern(p.In)
		if seen[in] {
			continue
		}
		seen[in] = true
		g.AddTransition(0, fst.Transition{Target: 1, In: in, Out: in}, true)
		pairs = append(pairs, ops.SymbolPair{In: in, Out: in})
	}
	if err := g.SetFinal(1, 0); err != nil {
		return nil, err
	}
	return &sigmaGraphs{pairs: pairs, sigma: g, sigmaStar: ops.KleeneStar(g)}, nil
}

// CompileGrammar compiles every rule in gs into a single transducer that is
// the intersection of each rule's individual constraint (spec.md §4.5:
// "the final grammar transducer is the intersection of all compiled rules,
// after the operands are pairwise harmonized"). Conflicting `=>` rules over
// the same center input symbol are either rejected (wfsterr.ErrRuleConflict)
// or, if opts.ResolveConflicts is set, resolved by narrowing the more
// general rule's context away from the more specific rule's.
func CompileGrammar(ctx context.Context, gs *GrammarSource, table *symtab.Table, opts CompileOptions) (*fst.Graph, []Warning, error) {
	sigma, err := buildSigma(gs, table)
	if err != nil {
		return nil, nil, err
	}

	resolved, warnings, err := resolveConflicts(ctx, gs, table, sigma, opts.ResolveConflicts)
	if err != nil {
		return nil, nil, err
	}

	var compiled []*fst.Graph
	for _, r := range resolved {
		if err := ctx.Err(); err != nil {
			return nil, nil, wfsterr.Cancelled(err)
		}
		rg, err := compileRule(ctx, r, gs, table, sigma)
		if err != nil {
			return nil, nil, wfsterr.New("compiling rule "+r.Name, err)
		}
		compiled = append(compiled, rg)
	}

	if len(compiled) == 0 {
		warnings = append(warnings, Warning{Message: "grammar has no rules; compiled transducer is the identity over Σ*"})
		return sigma.sigmaStar.Copy(), warnings, nil
	}

	result := compiled[0]
	for _, g := range compiled[1:] {
		result, err = ops.Intersect(result, g)
		if err != nil {
			return nil, nil, err
		}
	}
	return result, warnings, nil
}

// compileRule builds the transducer enforcing a single rule's constraint in
// isolation, dispatching on its operator.
func compileRule(ctx context.Context, r Rule, gs *GrammarSource, table *symtab.Table, sigma *sigmaGraphs) (*fst.Graph, error) {
	switch r.Op {
	case RightArrow:
		return compileDirectional(ctx, r, gs, table, sigma)
	case LeftArrow:
		return compileDirectional(ctx, r, gs, table, sigma)
	case Both:
		return compileDirectional(ctx, r, gs, table, sigma)
	case Exclusion:
		return compileExclusion(ctx, r, gs, table, sigma)
	default:
		return nil, wfsterr.New("unknown rule operator")
	}
}

// centerGraph builds the 1-step transducer for a rule's center disjunction
// (e.g. "a:b" for a rule with a single center pair).
func centerGraph(r Rule, table *symtab.Table) *fst.Graph {
	g := fst.NewWithTable(table)
	g.AddState()
	for _, p := range r.Center {
		g.AddTransition(0, fst.Transition{Target: 1, In: table.MustIntern(p.In), Out: table.MustIntern(p.Out)}, true)
	}
	_ = g.SetFinal(1, 0)
	return g
}

// centerInputs returns the distinct input-side symbol ids a rule's center
// rewrites from.
func centerInputs(r Rule, table *symtab.Table) map[uint32]bool {
	ids := map[uint32]bool{}
	for _, p := range r.Center {
		ids[table.MustIntern(p.In)] = true
	}
	return ids
}

// otherSigmaStep builds the one-step acceptor for every declared pair whose
// input side is NOT one of the rule's center inputs (passed through freely),
// every declared pair whose input side IS a center input (made available at
// elsewherePenalty cost, so a sibling rule that governs this position in
// its own licensed context can still agree with this rule's choice under
// Intersect instead of being forced to a single hardcoded identity
// reading), and an UNKNOWN self-loop so symbols the grammar never declares
// at all pass through unchanged rather than getting stuck with no matching
// arc.
func otherSigmaStep(r Rule, gs *GrammarSource, table *symtab.Table) (*fst.Graph, error) {
	centers := centerInputs(r, table)
	g := fst.NewWithTable(table)
	g.AddState()
	for _, p := range gs.Alphabet {
		in := table.MustIntern(p.In)
		out := table.MustIntern(p.Out)
		if centers[in] {
			g.AddTransition(0, fst.Transition{Target: 1, In: in, Out: out, Weight: elsewherePenalty}, true)
			continue
		}
		g.AddTransition(0, fst.Transition{Target: 1, In: in, Out: out}, true)
	}
	g.AddTransition(0, fst.Transition{Target: 1, In: symtab.Unknown, Out: symtab.Unknown}, true)
	if err := g.SetFinal(1, 0); err != nil {
		return nil, err
	}
	return g, nil
}

// compileDirectional builds the shared construction used for =>, <=, and <=>:
// a repeatable choice, at every position, between passing a non-center
// symbol through unchanged, letting a center input surface unrewritten at
// elsewherePenalty cost, or consuming one full (L · center · R) window at
// zero cost. This makes the licensed rewrite the cheapest reading wherever a
// licensed window is available, which is what Lookup's best-first order
// then surfaces (see elsewherePenalty).
func compileDirectional(ctx context.Context, r Rule, gs *GrammarSource, table *symtab.Table, sigma *sigmaGraphs) (*fst.Graph, error) {
	other, err := otherSigmaStep(r, gs, table)
	if err != nil {
		return nil, err
	}
	center := centerGraph(r, table)

	options := other
	for _, rc := range r.Contexts {
		left, err := buildContextGraph(ctx, rc.Left, gs, table, sigma.sigmaStar, sigma.pairs)
		if err != nil {
			return nil, err
		}
		right, err := buildContextGraph(ctx, rc.Right, gs, table, sigma.sigmaStar, sigma.pairs)
		if err != nil {
			return nil, err
		}
		window, err := ops.Concatenation(left, center)
		if err != nil {
			return nil, err
		}
		window, err = ops.Concatenation(window, right)
		if err != nil {
			return nil, err
		}
		options, err = ops.Union(options, window)
		if err != nil {
			return nil, err
		}
	}
	return ops.KleeneStar(options), nil
}

// compileExclusion builds /<=: the center's rewrite is freely available
// (zero-cost) everywhere, but any input that would line up exactly with a
// forbidden L · center · R window also has that window available at
// elsewherePenalty cost, so a best-first caller is steered away from it
// without the relation structurally losing the ability to realize it (full
// hard exclusion needs whole-string diamond-marked complementation; see
// DESIGN.md).
func compileExclusion(ctx context.Context, r Rule, gs *GrammarSource, table *symtab.Table, sigma *sigmaGraphs) (*fst.Graph, error) {
	other, err := otherSigmaStep(r, gs, table)
	if err != nil {
		return nil, err
	}
	center := centerGraph(r, table)

	freeRewrite := fst.NewWithTable(table)
	freeRewrite.AddState()
	for _, p := range r.Center {
		freeRewrite.AddTransition(0, fst.Transition{Target: 1, In: table.MustIntern(p.In), Out: table.MustIntern(p.Out)}, true)
	}
	if err := freeRewrite.SetFinal(1, 0); err != nil {
		return nil, err
	}

	options, err := ops.Union(other, freeRewrite)
	if err != nil {
		return nil, err
	}
	for _, rc := range r.Contexts {
		left, err := buildContextGraph(ctx, rc.Left, gs, table, sigma.sigmaStar, sigma.pairs)
		if err != nil {
			return nil, err
		}
		right, err := buildContextGraph(ctx, rc.Right, gs, table, sigma.sigmaStar, sigma.pairs)
		if err != nil {
			return nil, err
		}
		forbidden, err := ops.Concatenation(left, center)
		if err != nil {
			return nil, err
		}
		forbidden, err = ops.Concatenation(forbidden, right)
		if err != nil {
			return nil, err
		}
		penalized, err := penalize(forbidden, elsewherePenalty)
		if err != nil {
			return nil, err
		}
		options, err = ops.Union(options, penalized)
		if err != nil {
			return nil, err
		}
	}
	return ops.KleeneStar(options), nil
}

// penalize adds extra to every transition leaving g's start state, so a
// path through g costs extra more than an otherwise-identical path that
// avoids it.
func penalize(g *fst.Graph, extra fst.Weight) (*fst.Graph, error) {
	cp := g.Copy()
	ts, err := cp.TransitionsMut(0)
	if err != nil {
		return nil, err
	}
	for i := range *ts {
		(*ts)[i].Weight += extra
	}
	return cp, nil
}
