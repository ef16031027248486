package ioformat

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/dekarrin/rezi"

	"github.com/tapeset/wfst/fst"
	"github.com/tapeset/wfst/symtab"
	"github.com/tapeset/wfst/wfsterr"
)

// Binary stream framing (spec.md §6): each transducer is preceded by a
// header (4-byte magic, 2-byte version, 4-byte header-payload length, then
// key=value pairs) followed by a REZI-framed body that round-trips a
// *fst.Graph.
const (
	binaryMagic          = "WFST"
	binaryVersionCurrent = uint16(1)
)

// graphCodec adapts a *fst.Graph to encoding.BinaryMarshaler /
// encoding.BinaryUnmarshaler so rezi.EncBinary/DecBinary can frame it: hand-
// rolled length-prefixed int/string/float primitives composed into a record
// format, rather than reflection-based struct encoding.
type graphCodec struct {
	g     *fst.Graph
	table *symtab.Table // used only for decode, where g starts nil
}

func (c graphCodec) MarshalBinary() ([]byte, error) {
	g := c.g
	var buf bytes.Buffer

	buf.Write(encBinaryInt(g.NumStates()))
	for s := 0; s < g.NumStates(); s++ {
		ts, err := g.Transitions(s)
		if err != nil {
			return nil, err
		}
		buf.Write(encBinaryInt(len(ts)))
		for _, t := range ts {
			inSym, _ := g.Table().Lookup(t.In)
			outSym, _ := g.Table().Lookup(t.Out)
			buf.Write(encBinaryInt(t.Target))
			buf.Write(encBinaryString(inSym))
			buf.Write(encBinaryString(outSym))
			buf.Write(encBinaryFloat(t.Weight))
		}
	}

	finals := g.FinalStates()
	buf.Write(encBinaryInt(len(finals)))
	for _, s := range finals {
		w, _ := g.FinalWeight(s)
		buf.Write(encBinaryInt(s))
		buf.Write(encBinaryFloat(w))
	}

	return buf.Bytes(), nil
}

func (c *graphCodec) UnmarshalBinary(data []byte) error {
	g := fst.NewWithTable(c.table)

	numStates, n, err := decBinaryInt(data)
	if err != nil {
		return wfsterr.New("decoding state count", err)
	}
	data = data[n:]
	for i := 0; i < numStates; i++ {
		g.EnsureState(i)
		numArcs, n, err := decBinaryInt(data)
		if err != nil {
			return wfsterr.New("decoding arc count", err)
		}
		data = data[n:]
		for a := 0; a < numArcs; a++ {
			target, n, err := decBinaryInt(data)
			if err != nil {
				return wfsterr.New("decoding arc target", err)
			}
			data = data[n:]
			inSym, n, err := decBinaryString(data)
			if err != nil {
				return wfsterr.New("decoding arc input symbol", err)
			}
			data = data[n:]
			outSym, n, err := decBinaryString(data)
			if err != nil {
				return wfsterr.New("decoding arc output symbol", err)
			}
			data = data[n:]
			weight, n, err := decBinaryFloat(data)
			if err != nil {
				return wfsterr.New("decoding arc weight", err)
			}
			data = data[n:]

			inID := c.table.MustIntern(inSym)
			outID := c.table.MustIntern(outSym)
			g.AddTransition(i, fst.Transition{Target: target, In: inID, Out: outID, Weight: weight}, true)
		}
	}

	numFinal, n, err := decBinaryInt(data)
	if err != nil {
		return wfsterr.New("decoding final-state count", err)
	}
	data = data[n:]
	for i := 0; i < numFinal; i++ {
		s, n, err := decBinaryInt(data)
		if err != nil {
			return wfsterr.New("decoding final state", err)
		}
		data = data[n:]
		w, n, err := decBinaryFloat(data)
		if err != nil {
			return wfsterr.New("decoding final weight", err)
		}
		data = data[n:]
		if err := g.SetFinal(s, w); err != nil {
			return err
		}
	}

	c.g = g
	return nil
}

func encBinaryInt(i int) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, uint64(int64(i)))
	return b
}

func decBinaryInt(data []byte) (int, int, error) {
	if len(data) < 8 {
		return 0, 0, fmt.Errorf("unexpected end of data reading int")
	}
	return int(int64(binary.BigEndian.Uint64(data[:8]))), 8, nil
}

func encBinaryFloat(w fst.Weight) []byte {
	b := make([]byte, 8)
	binary.BigEndian.PutUint64(b, math.Float64bits(w))
	return b
}

func decBinaryFloat(data []byte) (fst.Weight, int, error) {
	if len(data) < 8 {
		return 0, 0, fmt.Errorf("unexpected end of data reading weight")
	}
	return math.Float64frombits(binary.BigEndian.Uint64(data[:8])), 8, nil
}

func encBinaryString(s string) []byte {
	body := []byte(s)
	return append(encBinaryInt(len(body)), body...)
}

func decBinaryString(data []byte) (string, int, error) {
	length, n, err := decBinaryInt(data)
	if err != nil {
		return "", 0, err
	}
	data = data[n:]
	if len(data) < length {
		return "", 0, fmt.Errorf("unexpected end of data reading string")
	}
	return string(data[:length]), n + length, nil
}

// WriteBinary writes g to w framed per spec.md §6: a header (magic,
// version, key=value metadata) followed by a REZI-encoded body.
func WriteBinary(w io.Writer, g *fst.Graph) error {
	numArcs := 0
	for s := 0; s < g.NumStates(); s++ {
		ts, err := g.Transitions(s)
		if err != nil {
			return err
		}
		numArcs += len(ts)
	}

	name := g.Name
	if name == "" {
		name = "T"
	}
	header := []string{
		"name=" + name,
		"type=wfst",
		"number_of_states=" + strconv.Itoa(g.NumStates()),
		"number_of_arcs=" + strconv.Itoa(numArcs),
		"number_of_symbols=" + strconv.Itoa(g.Alphabet().Len()),
	}
	payload := strings.Join(header, "\n")

	if _, err := io.WriteString(w, binaryMagic); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, binaryVersionCurrent); err != nil {
		return err
	}
	if err := binary.Write(w, binary.BigEndian, uint32(len(payload))); err != nil {
		return err
	}
	if _, err := io.WriteString(w, payload); err != nil {
		return err
	}

	body := rezi.EncBinary(graphCodec{g: g})
	_, err := w.Write(body)
	return err
}

// ReadBinary reads one transducer from r, interning its symbols in table.
// Returns wfsterr.ErrUnsupportedFormat if the magic or version is not
// recognized.
func ReadBinary(r io.Reader, table *symtab.Table) (*fst.Graph, error) {
	magic := make([]byte, len(binaryMagic))
	if _, err := io.ReadFull(r, magic); err != nil {
		if err == io.EOF {
			return nil, wfsterr.ErrEndOfStream
		}
		return nil, wfsterr.New("reading binary magic", err)
	}
	if string(magic) != binaryMagic {
		return nil, wfsterr.New("unrecognized stream magic "+fmt.Sprintf("%q", magic), wfsterr.ErrUnsupportedFormat)
	}

	var version uint16
	if err := binary.Read(r, binary.BigEndian, &version); err != nil {
		return nil, wfsterr.New("reading binary version", err)
	}
	if version != binaryVersionCurrent {
		return nil, wfsterr.New(fmt.Sprintf("unsupported stream version %d", version), wfsterr.ErrUnsupportedFormat)
	}

	var headerLen uint32
	if err := binary.Read(r, binary.BigEndian, &headerLen); err != nil {
		return nil, wfsterr.New("reading header length", err)
	}
	headerBuf := make([]byte, headerLen)
	if _, err := io.ReadFull(r, headerBuf); err != nil {
		return nil, wfsterr.New("reading header payload", err)
	}
	// Header key=value pairs are metadata only; the body is
	// self-describing and is what gets decoded below.

	rest, err := io.ReadAll(r)
	if err != nil {
		return nil, wfsterr.New("reading binary body", err)
	}

	codec := &graphCodec{table: table}
	n, err := rezi.DecBinary(rest, codec)
	if err != nil {
		return nil, wfsterr.New("REZI decode", err)
	}
	if n != len(rest) {
		return nil, wfsterr.New(fmt.Sprintf("decoded byte count mismatch; consumed %d/%d bytes", n, len(rest)), wfsterr.ErrNotValidAtt)
	}
	return codec.g, nil
}
