package symtab

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/wfsterr"
)

func TestNewReservedIDs(t *testing.T) {
	tab := New()

	assert.Equal(t, uint32(0), Epsilon)
	assert.Equal(t, uint32(1), Unknown)
	assert.Equal(t, uint32(2), Identity)
	assert.Equal(t, uint32(3), DefaultSym)

	for _, tc := range []struct {
		id  uint32
		sym string
	}{
		{Epsilon, EpsilonSymbol},
		{Unknown, UnknownSymbol},
		{Identity, IdentitySymbol},
		{DefaultSym, DefaultSymbol},
	} {
		got, ok := tab.Lookup(tc.id)
		require.True(t, ok)
		assert.Equal(t, tc.sym, got)
	}
}

func TestInternIdempotent(t *testing.T) {
	tab := New()

	id1, err := tab.Intern("a")
	require.NoError(t, err)
	id2, err := tab.Intern("a")
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
	assert.Greater(t, id1, DefaultSym)
}

func TestInternEmptyFails(t *testing.T) {
	tab := New()

	_, err := tab.Intern("")
	require.Error(t, err)
	assert.True(t, errors.Is(err, wfsterr.ErrEmptySymbol))
}

func TestInternNormalizesUnicode(t *testing.T) {
	tab := New()

	// "e" + combining acute (NFD) vs precomposed "é" (NFC) should intern to
	// the same id.
	nfd := "é"
	nfc := "é"

	id1, err := tab.Intern(nfd)
	require.NoError(t, err)
	id2, err := tab.Intern(nfc)
	require.NoError(t, err)

	assert.Equal(t, id1, id2)
}

func TestMaxID(t *testing.T) {
	tab := New()
	before := tab.MaxID()

	id, err := tab.Intern("x")
	require.NoError(t, err)

	assert.Equal(t, before+1, tab.MaxID())
	assert.Equal(t, tab.MaxID(), id)
}

func TestParseFlagPositiveWithValue(t *testing.T) {
	f, ok := ParseFlag("@P.FEAT.VAL@")
	require.True(t, ok)
	assert.Equal(t, FlagPositive, f.Op)
	assert.Equal(t, "FEAT", f.Feature)
	assert.Equal(t, "VAL", f.Value)
	assert.True(t, f.HasValue)
}

func TestParseFlagClearNoValue(t *testing.T) {
	f, ok := ParseFlag("@C.FEAT@")
	require.True(t, ok)
	assert.Equal(t, FlagClear, f.Op)
	assert.Equal(t, "FEAT", f.Feature)
	assert.False(t, f.HasValue)
}

func TestParseFlagRejectsOrdinarySymbols(t *testing.T) {
	for _, sym := range []string{"a", "EPSILON", "@notaflag", "@X.FEAT@"} {
		_, ok := ParseFlag(sym)
		assert.False(t, ok, "expected %q to not parse as a flag", sym)
	}
}

func TestTableIsDiacriticCached(t *testing.T) {
	tab := New()
	id, err := tab.Intern("@R.CASE.NOM@")
	require.NoError(t, err)

	assert.True(t, tab.IsDiacritic(id))
	// second call should hit the cache path; behavior should be identical.
	assert.True(t, tab.IsDiacritic(id))

	ordinary, err := tab.Intern("a")
	require.NoError(t, err)
	assert.False(t, tab.IsDiacritic(ordinary))
	assert.False(t, tab.IsDiacritic(ordinary))
}
