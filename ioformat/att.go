// Package ioformat implements the external text and binary transducer
// formats (spec component C6, "external collaborators" surface): AT&T text,
// Prolog text, and a length-prefixed binary stream framing, plus a
// human-readable report renderer used by cmd/wfstctl. None of this package
// is part of the construction/operator API in fst and fst/ops; it only
// serializes and deserializes Graph values built through that API.
package ioformat

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/symtab"
	"github.com/tapeset/wfst/wfsterr"
)

// Reserved AT&T symbol encodings (spec.md §6).
const (
	attEpsilonLong  = "@_EPSILON_SYMBOL_@"
	attEpsilonShort = "@0@"
	attSpace        = "@_SPACE_@"
	attTab          = "@_TAB_@"
	attColon        = "@_COLON_@"
	attUnknown      = "@_UNKNOWN_SYMBOL_@"
	attIdentity     = "@_IDENTITY_SYMBOL_@"

	attSeparator = "--"
)

// attEncode maps an interned symbol string to its AT&T field encoding.
func attEncode(sym string) string {
	switch sym {
	case symtab.EpsilonSymbol:
		return attEpsilonLong
	case " ":
		return attSpace
	case "\t":
		return attTab
	case ":":
		return attColon
	case symtab.UnknownSymbol:
		return attUnknown
	case symtab.IdentitySymbol:
		return attIdentity
	default:
		return sym
	}
}

// attDecode is the inverse of attEncode; unrecognized fields pass through
// unchanged (an ordinary interned symbol spelled literally).
func attDecode(field string) string {
	switch field {
	case attEpsilonLong, attEpsilonShort:
		return symtab.EpsilonSymbol
	case attSpace:
		return " "
	case attTab:
		return "\t"
	case attColon:
		return ":"
	case attUnknown:
		return symtab.UnknownSymbol
	case attIdentity:
		return symtab.IdentitySymbol
	default:
		return field
	}
}

// WriteATT writes every graph in gs to w in AT&T text format (spec.md §6,
// wire-exact), separating multiple transducers with a line containing only
// "--". Transitions are written source-state order, then as they appear in
// each state's transition list; final states are written after a graph's
// transitions.
func WriteATT(w io.Writer, gs ...*fst.Graph) error {
	bw := bufio.NewWriter(w)
	for i, g := range gs {
		if i > 0 {
			if _, err := fmt.Fprintln(bw, attSeparator); err != nil {
				return err
			}
		}
		if err := writeATTGraph(bw, g); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeATTGraph(bw *bufio.Writer, g *fst.Graph) error {
	table := g.Table()
	for s := 0; s < g.NumStates(); s++ {
		ts, err := g.Transitions(s)
		if err != nil {
			return err
		}
		for _, t := range ts {
			inSym, _ := table.Lookup(t.In)
			outSym, _ := table.Lookup(t.Out)
			if t.Weight == 0 {
				if _, err := fmt.Fprintf(bw, "%d\t%d\t%s\t%s\n", s, t.Target, attEncode(inSym), attEncode(outSym)); err != nil {
					return err
				}
				continue
			}
			if _, err := fmt.Fprintf(bw, "%d\t%d\t%s\t%s\t%s\n", s, t.Target, attEncode(inSym), attEncode(outSym), formatWeight(t.Weight)); err != nil {
				return err
			}
		}
	}
	for _, s := range g.FinalStates() {
		w, _ := g.FinalWeight(s)
		if w == 0 {
			if _, err := fmt.Fprintf(bw, "%d\n", s); err != nil {
				return err
			}
			continue
		}
		if _, err := fmt.Fprintf(bw, "%d\t%s\n", s, formatWeight(w)); err != nil {
			return err
		}
	}
	return nil
}

func formatWeight(w fst.Weight) string {
	return strconv.FormatFloat(w, 'g', -1, 64)
}

// ReadATT reads every transducer from r in AT&T text format, interning
// symbols in table. Each transducer is built fresh with fst.NewWithTable;
// the returned slice preserves file order. Malformed input yields
// *wfsterr.SyntaxError wrapping wfsterr.ErrNotValidAtt.
func ReadATT(r io.Reader, table *symtab.Table) ([]*fst.Graph, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)

	var graphs []*fst.Graph
	g := fst.NewWithTable(table)
	hasContent := false
	lineNo := 0

	flush := func() {
		if hasContent {
			graphs = append(graphs, g)
		}
		g = fst.NewWithTable(table)
		hasContent = false
	}

	for sc.Scan() {
		lineNo++
		line := sc.Text()
		trimmed := strings.TrimRight(line, "\r")
		if trimmed == attSeparator {
			flush()
			continue
		}
		if strings.TrimSpace(trimmed) == "" {
			continue
		}
		fields := strings.Split(trimmed, "\t")
		hasContent = true
		if err := applyATTLine(g, fields, table, lineNo, line); err != nil {
			return nil, err
		}
	}
	if err := sc.Err(); err != nil {
		return nil, wfsterr.New("reading AT&T stream", err)
	}
	flush()
	return graphs, nil
}

func applyATTLine(g *fst.Graph, fields []string, table *symtab.Table, lineNo int, raw string) error {
	switch len(fields) {
	case 1:
		src, err := strconv.Atoi(fields[0])
		if err != nil {
			return attSyntaxErr(lineNo, raw, "expected state index")
		}
		return g.SetFinal(src, 0)
	case 2:
		src, err := strconv.Atoi(fields[0])
		if err != nil {
			return attSyntaxErr(lineNo, raw, "expected state index")
		}
		w, err := strconv.ParseFloat(fields[1], 64)
		if err != nil {
			return attSyntaxErr(lineNo, raw, "expected final weight")
		}
		return g.SetFinal(src, w)
	case 4, 5:
		src, err := strconv.Atoi(fields[0])
		if err != nil {
			return attSyntaxErr(lineNo, raw, "expected source state")
		}
		tgt, err := strconv.Atoi(fields[1])
		if err != nil {
			return attSyntaxErr(lineNo, raw, "expected target state")
		}
		inID := table.MustIntern(normalizeATT(attDecode(fields[2])))
		outID := table.MustIntern(normalizeATT(attDecode(fields[3])))
		weight := fst.Weight(0)
		if len(fields) == 5 {
			weight, err = strconv.ParseFloat(fields[4], 64)
			if err != nil {
				return attSyntaxErr(lineNo, raw, "expected transition weight")
			}
		}
		g.AddTransition(src, fst.Transition{Target: tgt, In: inID, Out: outID, Weight: weight}, true)
		return nil
	default:
		return attSyntaxErr(lineNo, raw, fmt.Sprintf("expected 1, 2, 4, or 5 tab-separated fields, got %d", len(fields)))
	}
}

func normalizeATT(s string) string {
	return norm.NFC.String(s)
}

func attSyntaxErr(lineNo int, raw, msg string) error {
	se := wfsterr.NewSyntaxError(msg, lineNo, 0, raw)
	return wfsterr.New(se.FullMessage(), wfsterr.ErrNotValidAtt)
}
