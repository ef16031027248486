// Package rules implements the two-level rule compiler (spec component
// C5): grammar sources (declarative text or TOML) compile to a single
// transducer enforcing every rule's center/context constraint, after
// conflict detection (and, optionally, resolution) between rules that
// would otherwise disagree on the same input.
package rules

import "fmt"

// OperatorKind is a two-level rule's direction (spec.md §4.5).
type OperatorKind int

const (
	RightArrow OperatorKind = iota // =>   center may only occur in context
	LeftArrow                      // <=   center must occur in context
	Both                           // <=>  both directions
	Exclusion                      // /<=  center must not occur in context
)

func (k OperatorKind) String() string {
	switch k {
	case RightArrow:
		return "=>"
	case LeftArrow:
		return "<="
	case Both:
		return "<=>"
	case Exclusion:
		return "/<="
	default:
		return fmt.Sprintf("OperatorKind(%d)", int(k))
	}
}

// Pair is a symbol-pair literal as written in grammar source, e.g. "a:b" or
// the identity shorthand "a" (meaning a:a).
type Pair struct {
	In, Out string
}

// RuleContext is one (left, right) context a rule's center is licensed,
// required, or excluded in. Left/Right are context-regex source text
// (rules/context.go), parsed lazily at compile time so set references can
// be resolved against the grammar's declared Sets. An empty string means
// "unconstrained" (matches Σ* freely on that side).
type RuleContext struct {
	Left, Right string
}

// Rule is one named two-level rule: a center (a disjunction of symbol
// pairs), an operator, and one or more contexts.
type Rule struct {
	Name     string
	Center   []Pair
	Op       OperatorKind
	Contexts []RuleContext
}

// GrammarSource is the parsed form of a two-level grammar, produced by
// either ParseGrammarText or LoadGrammarTOML (spec.md §4.5).
type GrammarSource struct {
	Alphabet   []Pair
	Diacritics []string
	Sets       map[string][]Pair
	Rules      []Rule
}

// Warning is a non-fatal compilation note (e.g. a rule dropped as fully
// subsumed during conflict resolution, or an empty resulting grammar).
type Warning struct {
	Message string
}

// CompileOptions configures CompileGrammar.
type CompileOptions struct {
	// ResolveConflicts enables the automatic context-narrowing resolution
	// described in spec.md §4.5 instead of failing with ErrRuleConflict.
	ResolveConflicts bool
}
