// Package symtab implements the process-wide symbol table (spec component
// C1): a bidirectional, append-only mapping between symbol strings and
// compact integer ids, plus flag-diacritic recognition.
//
// Four reserved symbols are established at init time with fixed ids so that
// every Graph can rely on their identity without first consulting a Table:
// EPSILON, UNKNOWN, IDENTITY, and DEFAULT.
package symtab

import (
	"sync"

	"golang.org/x/text/unicode/norm"

	"github.com/tapeset/wfst/wfsterr"
)

// Reserved symbol ids. These are the same across every Table, since every
// Table pre-interns them in this order at construction.
const (
	Epsilon uint32 = iota
	Unknown
	Identity
	DefaultSym
)

// Reserved symbol strings, interned to the ids above.
const (
	EpsilonSymbol  = "EPSILON"
	UnknownSymbol  = "UNKNOWN"
	IdentitySymbol = "IDENTITY"
	DefaultSymbol  = "DEFAULT"
)

// Table is a process-wide append-only registry mapping symbol strings to
// ids. The zero value is not usable; create one with New.
//
// A single Table may be shared by many goroutines: Intern takes a write
// lock, Lookup and MaxID take a read lock, matching the single-writer
// discipline required by spec.md §5.
type Table struct {
	mu        sync.RWMutex
	bySym     map[string]uint32
	byID      []string
	diacritic map[uint32]*Flag // cache, nil until first ParseFlag attempt
	diaTried  map[uint32]bool

	features *childTable
	values   *childTable
}

// childTable interns flag feature/value names. It is simpler than Table
// since feature and value names have no reserved entries of their own.
type childTable struct {
	mu    sync.Mutex
	bySym map[string]uint32
	byID  []string
}

func newChildTable() *childTable {
	return &childTable{bySym: map[string]uint32{}}
}

func (c *childTable) intern(s string) uint32 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if id, ok := c.bySym[s]; ok {
		return id
	}
	id := uint32(len(c.byID))
	c.byID = append(c.byID, s)
	c.bySym[s] = id
	return id
}

func (c *childTable) lookup(id uint32) (string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if int(id) >= len(c.byID) {
		return "", false
	}
	return c.byID[id], true
}

// New creates a Table with the four reserved symbols pre-interned as ids
// 0..3, in the order EPSILON, UNKNOWN, IDENTITY, DEFAULT.
func New() *Table {
	t := &Table{
		bySym:     map[string]uint32{},
		diacritic: map[uint32]*Flag{},
		diaTried:  map[uint32]bool{},
		features:  newChildTable(),
		values:    newChildTable(),
	}
	for _, s := range []string{EpsilonSymbol, UnknownSymbol, IdentitySymbol, DefaultSymbol} {
		t.mustInternLocked(s)
	}
	return t
}

// Default is the process-wide symbol table used by packages that don't
// construct their own. Graphs built via the fst package package use this
// table unless constructed with an explicit Table (see fst.NewWithTable).
var Default = New()

func normalize(s string) string {
	return norm.NFC.String(s)
}

// Intern inserts s into the table if absent and returns its id. Interning is
// idempotent: interning the same string (after Unicode NFC normalization)
// twice returns the same id both times. Returns ErrEmptySymbol if s is "".
func (t *Table) Intern(s string) (uint32, error) {
	if s == "" {
		return 0, wfsterr.New("cannot intern empty symbol", wfsterr.ErrEmptySymbol)
	}
	s = normalize(s)

	t.mu.RLock()
	if id, ok := t.bySym[s]; ok {
		t.mu.RUnlock()
		return id, nil
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	return t.mustInternLocked(s), nil
}

func (t *Table) mustInternLocked(s string) uint32 {
	if id, ok := t.bySym[s]; ok {
		return id
	}
	id := uint32(len(t.byID))
	t.byID = append(t.byID, s)
	t.bySym[s] = id
	return id
}

// MustIntern is Intern but panics on failure (only possible failure is an
// empty string). It is intended for call sites interning compile-time
// constants, where an error would indicate a programmer mistake.
func (t *Table) MustIntern(s string) uint32 {
	id, err := t.Intern(s)
	if err != nil {
		panic(err.Error())
	}
	return id
}

// Lookup returns the symbol string for id and whether it exists.
func (t *Table) Lookup(id uint32) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(id) >= len(t.byID) {
		return "", false
	}
	return t.byID[id], true
}

// MaxID returns the highest id currently assigned. Since ids are assigned
// sequentially starting at 0, every id in [0, MaxID()] is valid.
func (t *Table) MaxID() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return uint32(len(t.byID)) - 1
}

// Len returns the number of interned symbols, including the four reserved
// ones.
func (t *Table) Len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.byID)
}

// IsReserved reports whether id is one of EPSILON, UNKNOWN, IDENTITY, or
// DEFAULT.
func IsReserved(id uint32) bool {
	return id == Epsilon || id == Unknown || id == Identity || id == DefaultSym
}
