package tunas

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/serr"
)

// singleArcATT is a minimal AT&T-format transducer accepting "a" and
// emitting "x" at weight 0.5.
const singleArcATT = "0\t1\ta\tx\t0.5\n1\n"

func TestCreateTransducerRejectsUnparsableData(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.CreateTransducer(ctx, owner, "broken", dao.FormatATT, []byte("not valid at all\tbogus\n"))
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func TestCreateTransducerRejectsBlankName(t *testing.T) {
	svc := newTestService()

	_, err := svc.CreateTransducer(context.Background(), uuid.New(), "", dao.FormatATT, []byte(singleArcATT))
	assert.ErrorIs(t, err, serr.ErrBadArgument)
}

func TestCreateTransducerRejectsDuplicateNameForOwner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.CreateTransducer(ctx, owner, "vowel-harmony", dao.FormatATT, []byte(singleArcATT))
	require.NoError(t, err)

	_, err = svc.CreateTransducer(ctx, owner, "vowel-harmony", dao.FormatATT, []byte(singleArcATT))
	assert.ErrorIs(t, err, serr.ErrAlreadyExists)
}

func TestGetTransducerRoundTripsWithCreate(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.CreateTransducer(ctx, owner, "vowel-harmony", dao.FormatATT, []byte(singleArcATT))
	require.NoError(t, err)

	found, err := svc.GetTransducer(ctx, owner, "vowel-harmony")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestGetTransducerNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.GetTransducer(context.Background(), uuid.New(), "nonexistent")
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func TestGetAllTransducersScopesByOwner(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	ownerA := uuid.New()
	ownerB := uuid.New()

	_, err := svc.CreateTransducer(ctx, ownerA, "a1", dao.FormatATT, []byte(singleArcATT))
	require.NoError(t, err)
	_, err = svc.CreateTransducer(ctx, ownerB, "b1", dao.FormatATT, []byte(singleArcATT))
	require.NoError(t, err)

	aTrs, err := svc.GetAllTransducers(ctx, ownerA)
	require.NoError(t, err)
	assert.Len(t, aTrs, 1)
	assert.Equal(t, "a1", aTrs[0].Name)
}

func TestDeleteTransducerRemovesIt(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	created, err := svc.CreateTransducer(ctx, owner, "vowel-harmony", dao.FormatATT, []byte(singleArcATT))
	require.NoError(t, err)

	deleted, err := svc.DeleteTransducer(ctx, owner, "vowel-harmony")
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = svc.GetTransducer(ctx, owner, "vowel-harmony")
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func TestLookupBySymbolOnStoredTransducer(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.CreateTransducer(ctx, owner, "vowel-harmony", dao.FormatATT, []byte(singleArcATT))
	require.NoError(t, err)

	results, err := svc.Lookup(ctx, owner, "vowel-harmony", "a", true, 0)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "x", results[0].Output)
	assert.InDelta(t, 0.5, results[0].Weight, 1e-9)
}

func TestLookupNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.Lookup(context.Background(), uuid.New(), "nonexistent", "a", true, 0)
	assert.ErrorIs(t, err, serr.ErrNotFound)
}

func TestLookupNoResultsForUnacceptedInput(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()
	owner := uuid.New()

	_, err := svc.CreateTransducer(ctx, owner, "vowel-harmony", dao.FormatATT, []byte(singleArcATT))
	require.NoError(t, err)

	results, err := svc.Lookup(ctx, owner, "vowel-harmony", "z", true, 0)
	require.NoError(t, err)
	assert.Empty(t, results)
}
