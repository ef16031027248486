package rules

import (
	"context"
	"fmt"
	"strings"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/fst/ops"
	"github.com/tapeset/wfst/symtab"
	"github.com/tapeset/wfst/wfsterr"
)

// contextToken is one lexical unit of a context-regex: a literal symbol or
// pair reference, a set reference ($NAME), or one of the structural
// characters '(', ')', '[', ']', '|', '*', '?', '¬', '!'.
type contextToken struct {
	text string
}

func lexContext(src string) []contextToken {
	var toks []contextToken
	runes := []rune(src)
	i := 0
	flush := func(buf *strings.Builder) {
		if buf.Len() > 0 {
			toks = append(toks, contextToken{text: buf.String()})
			buf.Reset()
		}
	}
	var buf strings.Builder
	for i < len(runes) {
		r := runes[i]
		switch {
		case r == ' ' || r == '\t':
			flush(&buf)
		case strings.ContainsRune("()[]|*?¬!", r):
			flush(&buf)
			toks = append(toks, contextToken{text: string(r)})
		case r == '$':
			flush(&buf)
			buf.WriteRune(r)
		default:
			buf.WriteRune(r)
		}
		i++
	}
	flush(&buf)
	return toks
}

// contextParser builds an fst.Graph acceptor from context-regex source text,
// resolving literal symbols against gs.Alphabet and set references against
// gs.Sets.
type contextParser struct {
	ctx   context.Context
	toks  []contextToken
	pos   int
	gs    *GrammarSource
	table *symtab.Table
	sigma []ops.SymbolPair
}

func newContextParser(ctx context.Context, src string, gs *GrammarSource, table *symtab.Table, sigma []ops.SymbolPair) *contextParser {
	return &contextParser{ctx: ctx, toks: lexContext(src), gs: gs, table: table, sigma: sigma}
}

func (p *contextParser) peek() string {
	if p.pos >= len(p.toks) {
		return ""
	}
	return p.toks[p.pos].text
}

func (p *contextParser) next() string {
	t := p.peek()
	p.pos++
	return t
}

// parseExpr parses the full context regex: alternation of concatenations.
func (p *contextParser) parseExpr() (*fst.Graph, error) {
	g, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for p.peek() == "|" {
		p.next()
		rhs, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		g, err = ops.Union(g, rhs)
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (p *contextParser) parseTerm() (*fst.Graph, error) {
	g, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for {
		next := p.peek()
		if next == "" || next == "|" || next == ")" || next == "]" {
			break
		}
		rhs, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		g, err = ops.Concatenation(g, rhs)
		if err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (p *contextParser) parseFactor() (*fst.Graph, error) {
	g, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	switch p.peek() {
	case "*":
		p.next()
		return ops.KleeneStar(g), nil
	case "?":
		p.next()
		empty := fst.NewWithTable(p.table)
		_ = empty.SetFinal(0, 0)
		return ops.Union(g, empty)
	}
	return g, nil
}

func (p *contextParser) parseAtom() (*fst.Graph, error) {
	tok := p.next()
	switch tok {
	case "(", "[":
		closer := ")"
		if tok == "[" {
			closer = "]"
		}
		g, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if p.peek() != closer {
			return nil, wfsterr.New(fmt.Sprintf("context: expected %q", closer))
		}
		p.next()
		return g, nil
	case "¬", "!":
		operand, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		return ops.Complement(p.ctx, operand, sigmaIDs(p.sigma))
	case "":
		return nil, wfsterr.New("context: unexpected end of input")
	default:
		if strings.HasPrefix(tok, "$") {
			name := tok[1:]
			pairs, ok := p.gs.Sets[name]
			if !ok {
				return nil, wfsterr.New(fmt.Sprintf("context: undefined set %q", name))
			}
			return setAcceptor(pairs, p.table)
		}
		in, out, err := resolveLiteral(tok, p.gs, p.table)
		if err != nil {
			return nil, err
		}
		g := fst.NewWithTable(p.table)
		g.AddTransition(0, fst.Transition{Target: 1, In: in, Out: out}, true)
		_ = g.SetFinal(1, 0)
		return g, nil
	}
}

// resolveLiteral maps a bare context token to an interned symbol-pair. A
// context is a language-accepting matcher over the input tape (spec.md
// §4.5), so a plain symbol name always means its identity pair regardless
// of what the alphabet declares that symbol rewrites to elsewhere; an
// explicit "in:out" spelling is still honored for sets that carry genuine
// pairs (e.g. a $SET reused from a rule center).
func resolveLiteral(tok string, gs *GrammarSource, table *symtab.Table) (in, out uint32, err error) {
	if idx := strings.IndexByte(tok, ':'); idx >= 0 {
		in = table.MustIntern(tok[:idx])
		out = table.MustIntern(tok[idx+1:])
		return in, out, nil
	}
	id := table.MustIntern(tok)
	return id, id, nil
}

func setAcceptor(pairs []Pair, table *symtab.Table) (*fst.Graph, error) {
	g := fst.NewWithTable(table)
	g.AddState()
	for _, p := range pairs {
		g.AddTransition(0, fst.Transition{Target: 1, In: table.MustIntern(p.In), Out: table.MustIntern(p.Out)}, true)
	}
	_ = g.SetFinal(1, 0)
	return g, nil
}

func sigmaIDs(sigma []ops.SymbolPair) []uint32 {
	seen := map[uint32]bool{}
	var ids []uint32
	for _, p := range sigma {
		if !seen[p.In] {
			seen[p.In] = true
			ids = append(ids, p.In)
		}
	}
	return ids
}

// buildContextGraph parses a context-regex string into an acceptor over the
// grammar's alphabet. An empty string means "unconstrained": Σ*.
func buildContextGraph(ctx context.Context, src string, gs *GrammarSource, table *symtab.Table, sigmaStar *fst.Graph, sigma []ops.SymbolPair) (*fst.Graph, error) {
	if strings.TrimSpace(src) == "" {
		return sigmaStar.Copy(), nil
	}
	p := newContextParser(ctx, src, gs, table, sigma)
	g, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.pos != len(p.toks) {
		return nil, wfsterr.New(fmt.Sprintf("context: unexpected trailing token %q", p.peek()))
	}
	return g, nil
}
