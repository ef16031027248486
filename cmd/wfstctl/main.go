/*
Wfstctl starts an interactive lookup session against a compiled transducer.

It reads in a transducer file in one of the supported external formats and
starts a REPL that performs lookups against it, printing accepted output
strings and their weights to stdout until the user quits.

Usage:

	wfstctl [flags] FILE

The flags are:

	-v, --version
		Give the current version of wfstctl and then exit.

	-f, --format at&t|prolog|binary
		The encoding FILE is stored in. Defaults to "at&t".

	-e, --epsilon SYMBOL
		Treat SYMBOL as a literal spelling of epsilon in lookup input typed
		at the REPL prompt (not in FILE itself, which always uses the
		format's own reserved encodings). If not given, no spelling of
		epsilon is recognized in typed input.

	--verbose
		Print the transducer's alphabet and state count after loading.

	--quit-on-fail
		Exit immediately with code 3 on the first lookup that produces no
		results, instead of continuing the REPL.

Once a session has started, each line read is looked up as whitespace
separated symbols against the loaded transducer; each accepted output is
printed along with its weight. Type "QUIT" to exit the interpreter.

Exit codes: 0 success, 1 usage error, 2 parse error, 3 runtime error.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/dekarrin/rosed"
	"github.com/spf13/pflag"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/fst/ops"
	"github.com/tapeset/wfst/internal/input"
	"github.com/tapeset/wfst/internal/version"
	"github.com/tapeset/wfst/ioformat"
	"github.com/tapeset/wfst/symtab"
)

const (
	ExitSuccess = iota
	ExitUsageError
	ExitParseError
	ExitRuntimeError
)

var (
	flagVersion   = pflag.BoolP("version", "v", false, "Give the current version of wfstctl and then exit.")
	flagFormat    = pflag.StringP("format", "f", "at&t", "The encoding the transducer file is stored in: at&t, prolog, or binary.")
	flagEpsilon   = pflag.StringP("epsilon", "e", "", "Treat this symbol as a literal spelling of epsilon in typed lookup input.")
	flagVerbose   = pflag.Bool("verbose", false, "Print the transducer's alphabet and state count after loading.")
	flagQuitOnFail = pflag.Bool("quit-on-fail", false, "Exit immediately on the first lookup that produces no results.")
)

func main() {
	os.Exit(run())
}

func run() int {
	pflag.Parse()

	if *flagVersion {
		fmt.Printf("%s\n", version.Current)
		return ExitSuccess
	}

	args := pflag.Args()
	if len(args) != 1 {
		fmt.Fprintf(os.Stderr, "Exactly one transducer file is required\nDo -h for help.\n")
		return ExitUsageError
	}

	f, err := os.Open(args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitUsageError
	}
	defer f.Close()

	table := symtab.New()
	g, err := loadGraph(f, *flagFormat, table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitParseError
	}

	if *flagVerbose {
		fmt.Println(ioformat.SummaryLine(g))
		fmt.Println(ioformat.AlphabetReport(g, 80))
	}

	reader, closeReader, err := newReader()
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
		return ExitRuntimeError
	}
	defer closeReader()

	for {
		line, err := reader.ReadCommand()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return ExitSuccess
			}
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return ExitRuntimeError
		}

		if strings.EqualFold(strings.TrimSpace(line), "QUIT") {
			return ExitSuccess
		}

		hits, err := runLookup(context.Background(), g, table, line, *flagEpsilon)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %s\n", err.Error())
			return ExitRuntimeError
		}

		if len(hits) == 0 {
			fmt.Println("(no results)")
			if *flagQuitOnFail {
				return ExitRuntimeError
			}
			continue
		}

		printHits(hits, table)
	}
}

func loadGraph(r io.Reader, format string, table *symtab.Table) (*fst.Graph, error) {
	switch strings.ToLower(format) {
	case "at&t", "att":
		gs, err := ioformat.ReadATT(r, table)
		if err != nil {
			return nil, err
		}
		if len(gs) == 0 {
			return nil, fmt.Errorf("no transducer found in file")
		}
		return gs[0], nil
	case "prolog":
		gs, err := ioformat.ReadProlog(r, table)
		if err != nil {
			return nil, err
		}
		if len(gs) == 0 {
			return nil, fmt.Errorf("no transducer found in file")
		}
		return gs[0], nil
	case "binary":
		return ioformat.ReadBinary(r, table)
	default:
		return nil, fmt.Errorf("unknown format: %q", format)
	}
}

func runLookup(ctx context.Context, g *fst.Graph, table *symtab.Table, line string, epsilonSpelling string) ([]ops.LookupHit, error) {
	fields := strings.Fields(line)
	ids := make([]uint32, 0, len(fields))
	for _, f := range fields {
		if epsilonSpelling != "" && f == epsilonSpelling {
			ids = append(ids, symtab.Epsilon)
			continue
		}
		ids = append(ids, table.MustIntern(f))
	}

	return ops.Lookup(ctx, g, ids, ops.LookupOptions{})
}

var lookupTableOpts = rosed.Options{
	TableHeaders:             true,
	NoTrailingLineSeparators: true,
}

func printHits(hits []ops.LookupHit, table *symtab.Table) {
	data := [][]string{{"Output", "Weight"}}
	for _, hit := range hits {
		syms := make([]string, len(hit.Output))
		for j, id := range hit.Output {
			sym, _ := table.Lookup(id)
			syms[j] = sym
		}
		data = append(data, []string{strings.Join(syms, " "), formatWeight(hit.Weight)})
	}

	fmt.Println(rosed.Edit("").InsertTableOpts(0, data, 80, lookupTableOpts).String())
}

func formatWeight(w fst.Weight) string {
	return fmt.Sprintf("%g", float64(w))
}

func newReader() (commandReader, func() error, error) {
	fi, _ := os.Stdin.Stat()
	if (fi.Mode() & os.ModeCharDevice) != 0 {
		icr, err := input.NewInteractiveReader()
		if err != nil {
			return nil, nil, err
		}
		icr.SetPrompt("wfstctl> ")
		return icr, icr.Close, nil
	}

	dcr := input.NewDirectReader(os.Stdin)
	return dcr, dcr.Close, nil
}

type commandReader interface {
	ReadCommand() (string, error)
}
