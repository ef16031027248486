package ioformat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/symtab"
	"github.com/tapeset/wfst/wfsterr"
)

// WriteProlog writes every graph in gs to w in Prolog text format (spec.md
// §6): a `network(NAME).` fact, one `arc(NAME,Src,Tgt,"In":"Out",Weight).`
// per transition (using the identity-shorthand `arc(NAME,Src,Tgt,"Sym",W).`
// form when In==Out), and one `final(NAME,S,W).` per final state. A blank
// line separates consecutive transducers.
func WriteProlog(w io.Writer, gs ...*fst.Graph) error {
	bw := bufio.NewWriter(w)
	for i, g := range gs {
		if i > 0 {
			if _, err := fmt.Fprintln(bw); err != nil {
				return err
			}
		}
		if err := writePrologGraph(bw, g); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writePrologGraph(bw *bufio.Writer, g *fst.Graph) error {
	name := g.Name
	if name == "" {
		name = "T"
	}
	table := g.Table()
	if _, err := fmt.Fprintf(bw, "network(%s).\n", quotePrologAtom(name)); err != nil {
		return err
	}
	for s := 0; s < g.NumStates(); s++ {
		ts, err := g.Transitions(s)
		if err != nil {
			return err
		}
		for _, t := range ts {
			inSym, _ := table.Lookup(t.In)
			outSym, _ := table.Lookup(t.Out)
			if t.In == t.Out {
				if _, err := fmt.Fprintf(bw, "arc(%s,%d,%d,%s,%s).\n",
					quotePrologAtom(name), s, t.Target, prologQuoted(inSym), formatWeight(t.Weight)); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(bw, "arc(%s,%d,%d,%s:%s,%s).\n",
				quotePrologAtom(name), s, t.Target, prologQuoted(inSym), prologQuoted(outSym), formatWeight(t.Weight)); err != nil {
				return err
			}
		}
	}
	for _, s := range g.FinalStates() {
		w, _ := g.FinalWeight(s)
		if _, err := fmt.Fprintf(bw, "final(%s,%d,%s).\n", quotePrologAtom(name), s, formatWeight(w)); err != nil {
			return err
		}
	}
	return nil
}

func quotePrologAtom(s string) string {
	return s
}

func prologQuoted(s string) string {
	var b strings.Builder
	b.WriteByte('"')
	for _, r := range s {
		switch r {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		default:
			b.WriteRune(r)
		}
	}
	b.WriteByte('"')
	return b.String()
}

func prologUnquote(s string) (string, error) {
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return "", wfsterr.New("expected double-quoted symbol: " + s)
	}
	inner := s[1 : len(s)-1]
	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		if inner[i] == '\\' && i+1 < len(inner) {
			switch inner[i+1] {
			case '"':
				b.WriteByte('"')
				i++
				continue
			case '\\':
				b.WriteByte('\\')
				i++
				continue
			}
		}
		b.WriteByte(inner[i])
	}
	return b.String(), nil
}

// ReadProlog reads every transducer from r in Prolog text format, interning
// symbols in table. Transducers are recognized by their network(NAME). fact
// and terminated by a blank line or EOF. Malformed input yields a
// wfsterr.Error wrapping wfsterr.ErrNotValidProlog.
func ReadProlog(r io.Reader, table *symtab.Table) ([]*fst.Graph, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var graphs []*fst.Graph
	var g *fst.Graph
	lineNo := 0

	flush := func() {
		if g != nil {
			graphs = append(graphs, g)
			g = nil
		}
	}

	for sc.Scan() {
		lineNo++
		line := strings.TrimRight(sc.Text(), "\r")
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			flush()
			continue
		}
		if !strings.HasSuffix(trimmed, ".") {
			return nil, prologSyntaxErr(lineNo, line, "expected clause terminated by '.'")
		}
		clause := trimmed[:len(trimmed)-1]

		functor, args, err := splitPrologClause(clause)
		if err != nil {
			return nil, prologSyntaxErr(lineNo, line, err.Error())
		}

		switch functor {
		case "network":
			flush()
			if len(args) != 1 {
				return nil, prologSyntaxErr(lineNo, line, "network/1 expected")
			}
			g = fst.NewWithTable(table)
			g.Name = args[0]
		case "symbol":
			if g == nil || len(args) != 2 {
				return nil, prologSyntaxErr(lineNo, line, "symbol/2 outside a network")
			}
			sym, err := prologUnquote(args[1])
			if err != nil {
				return nil, prologSyntaxErr(lineNo, line, err.Error())
			}
			table.MustIntern(sym)
		case "arc":
			if g == nil || len(args) != 5 {
				return nil, prologSyntaxErr(lineNo, line, "arc/5 expected")
			}
			if err := applyPrologArc(g, args, table); err != nil {
				return nil, prologSyntaxErr(lineNo, line, err.Error())
			}
		case "final":
			if g == nil || len(args) != 3 {
				return nil, prologSyntaxErr(lineNo, line, "final/3 expected")
			}
			s, err := strconv.Atoi(args[1])
			if err != nil {
				return nil, prologSyntaxErr(lineNo, line, "expected state index")
			}
			w, err := strconv.ParseFloat(args[2], 64)
			if err != nil {
				return nil, prologSyntaxErr(lineNo, line, "expected final weight")
			}
			if err := g.SetFinal(s, w); err != nil {
				return nil, prologSyntaxErr(lineNo, line, err.Error())
			}
		default:
			return nil, prologSyntaxErr(lineNo, line, "unrecognized clause: "+functor)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, wfsterr.New("reading Prolog stream", err)
	}
	flush()
	return graphs, nil
}

func applyPrologArc(g *fst.Graph, args []string, table *symtab.Table) error {
	src, err := strconv.Atoi(args[1])
	if err != nil {
		return wfsterr.New("expected source state")
	}
	tgt, err := strconv.Atoi(args[2])
	if err != nil {
		return wfsterr.New("expected target state")
	}
	w, err := strconv.ParseFloat(args[4], 64)
	if err != nil {
		return wfsterr.New("expected arc weight")
	}

	label := args[3]
	var inSym, outSym string
	if idx := findPrologPairSplit(label); idx >= 0 {
		in, err := prologUnquote(label[:idx])
		if err != nil {
			return err
		}
		out, err := prologUnquote(label[idx+1:])
		if err != nil {
			return err
		}
		inSym, outSym = in, out
	} else {
		sym, err := prologUnquote(label)
		if err != nil {
			return err
		}
		inSym, outSym = sym, sym
	}

	inID := table.MustIntern(inSym)
	outID := table.MustIntern(outSym)
	g.AddTransition(src, fst.Transition{Target: tgt, In: inID, Out: outID, Weight: w}, true)
	return nil
}

// findPrologPairSplit finds the ':' separating "In":"Out" at the top level
// (outside either quoted symbol), or -1 if label is a single quoted symbol.
func findPrologPairSplit(label string) int {
	inQuote := false
	for i := 0; i < len(label); i++ {
		switch label[i] {
		case '"':
			inQuote = !inQuote
		case '\\':
			if inQuote {
				i++
			}
		case ':':
			if !inQuote {
				return i
			}
		}
	}
	return -1
}

// splitPrologClause splits "functor(a,b,c)" into its functor name and
// top-level comma-separated arguments, respecting quoted strings so commas
// inside a symbol don't split an argument early.
func splitPrologClause(clause string) (functor string, args []string, err error) {
	open := strings.IndexByte(clause, '(')
	if open < 0 || !strings.HasSuffix(clause, ")") {
		return "", nil, wfsterr.New("expected functor(args)")
	}
	functor = clause[:open]
	body := clause[open+1 : len(clause)-1]

	inQuote := false
	start := 0
	for i := 0; i < len(body); i++ {
		switch body[i] {
		case '"':
			inQuote = !inQuote
		case '\\':
			if inQuote {
				i++
			}
		case ',':
			if !inQuote {
				args = append(args, strings.TrimSpace(body[start:i]))
				start = i + 1
			}
		}
	}
	args = append(args, strings.TrimSpace(body[start:]))
	return functor, args, nil
}

func prologSyntaxErr(lineNo int, raw, msg string) error {
	se := wfsterr.NewSyntaxError(msg, lineNo, 0, raw)
	return wfsterr.New(se.FullMessage(), wfsterr.ErrNotValidProlog)
}
