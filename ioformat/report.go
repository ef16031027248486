package ioformat

import (
	"fmt"
	"strconv"

	"github.com/dekarrin/rosed"

	"github.com/tapeset/wfst/fst"
)

// reportTableOpts renders headers on with no trailing blank line after the
// last row.
var reportTableOpts = rosed.Options{
	TableHeaders:             true,
	NoTrailingLineSeparators: true,
}

// StateTable renders a human-readable transition table for g, for use by
// cmd/wfstctl's "list"/"print" commands. Each row is one transition; final
// states are listed in a trailing section.
func StateTable(g *fst.Graph, width int) string {
	table := g.Table()
	data := [][]string{{"Src", "Tgt", "In", "Out", "Weight"}}
	for s := 0; s < g.NumStates(); s++ {
		ts, err := g.Transitions(s)
		if err != nil {
			continue
		}
		for _, t := range ts {
			inSym, _ := table.Lookup(t.In)
			outSym, _ := table.Lookup(t.Out)
			data = append(data, []string{
				strconv.Itoa(s),
				strconv.Itoa(t.Target),
				inSym,
				outSym,
				strconv.FormatFloat(t.Weight, 'g', -1, 64),
			})
		}
	}

	out := rosed.Edit("").InsertTableOpts(0, data, width, reportTableOpts).String()

	finals := g.FinalStates()
	if len(finals) == 0 {
		return out
	}
	finalData := [][]string{{"Final", "Weight"}}
	for _, s := range finals {
		w, _ := g.FinalWeight(s)
		finalData = append(finalData, []string{strconv.Itoa(s), strconv.FormatFloat(w, 'g', -1, 64)})
	}
	finalOut := rosed.Edit("").InsertTableOpts(0, finalData, width, reportTableOpts).String()
	return out + "\n\n" + finalOut
}

// AlphabetReport renders a sorted listing of g's declared alphabet symbols.
func AlphabetReport(g *fst.Graph, width int) string {
	table := g.Table()
	data := [][]string{{"ID", "Symbol"}}
	for id := range g.Alphabet() {
		sym, _ := table.Lookup(id)
		data = append(data, []string{strconv.FormatUint(uint64(id), 10), sym})
	}
	return rosed.Edit("").InsertTableOpts(0, data, width, reportTableOpts).String()
}

// SummaryLine renders one-line "N states, M arcs, K final" text, the kind
// of terse status cmd/wfstctl prints after a construction command completes.
func SummaryLine(g *fst.Graph) string {
	arcs := 0
	for s := 0; s < g.NumStates(); s++ {
		ts, _ := g.Transitions(s)
		arcs += len(ts)
	}
	return fmt.Sprintf("%d states, %d arcs, %d final", g.NumStates(), arcs, len(g.FinalStates()))
}
