package inmem

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/server/dao"
)

func TestTransducersRepositoryCreateAssignsID(t *testing.T) {
	repo := NewTransducersRepository()
	owner := uuid.New()

	tr, err := repo.Create(context.Background(), dao.Transducer{OwnerID: owner, Name: "vowel-harmony", Format: dao.FormatATT, Data: []byte("0\n")})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, tr.ID)
	assert.False(t, tr.Created.IsZero())
}

func TestTransducersRepositoryCreateRejectsDuplicateNamePerOwner(t *testing.T) {
	repo := NewTransducersRepository()
	ctx := context.Background()
	owner := uuid.New()

	_, err := repo.Create(ctx, dao.Transducer{OwnerID: owner, Name: "vowel-harmony", Format: dao.FormatATT, Data: []byte("0\n")})
	require.NoError(t, err)

	_, err = repo.Create(ctx, dao.Transducer{OwnerID: owner, Name: "vowel-harmony", Format: dao.FormatATT, Data: []byte("0\n")})
	assert.ErrorIs(t, err, dao.ErrConstraintViolation)
}

func TestTransducersRepositoryAllowsSameNameAcrossOwners(t *testing.T) {
	repo := NewTransducersRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, dao.Transducer{OwnerID: uuid.New(), Name: "vowel-harmony", Format: dao.FormatATT, Data: []byte("0\n")})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.Transducer{OwnerID: uuid.New(), Name: "vowel-harmony", Format: dao.FormatATT, Data: []byte("0\n")})
	assert.NoError(t, err)
}

func TestTransducersRepositoryGetByOwnerAndName(t *testing.T) {
	repo := NewTransducersRepository()
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, dao.Transducer{OwnerID: owner, Name: "spellout", Format: dao.FormatBinary, Data: []byte{1, 2, 3}})
	require.NoError(t, err)

	found, err := repo.GetByOwnerAndName(ctx, owner, "spellout")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)

	_, err = repo.GetByOwnerAndName(ctx, owner, "nonexistent")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestTransducersRepositoryGetAllByOwnerExcludesOthers(t *testing.T) {
	repo := NewTransducersRepository()
	ctx := context.Background()
	ownerA := uuid.New()
	ownerB := uuid.New()

	_, err := repo.Create(ctx, dao.Transducer{OwnerID: ownerA, Name: "a1", Format: dao.FormatATT, Data: []byte("0\n")})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.Transducer{OwnerID: ownerA, Name: "a2", Format: dao.FormatATT, Data: []byte("0\n")})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.Transducer{OwnerID: ownerB, Name: "b1", Format: dao.FormatATT, Data: []byte("0\n")})
	require.NoError(t, err)

	aTrs, err := repo.GetAllByOwner(ctx, ownerA)
	require.NoError(t, err)
	require.Len(t, aTrs, 2)
	assert.Equal(t, "a1", aTrs[0].Name)
	assert.Equal(t, "a2", aTrs[1].Name)
}

func TestTransducersRepositoryUpdateRenameMovesIndex(t *testing.T) {
	repo := NewTransducersRepository()
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, dao.Transducer{OwnerID: owner, Name: "old-name", Format: dao.FormatATT, Data: []byte("0\n")})
	require.NoError(t, err)

	created.Name = "new-name"
	updated, err := repo.Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, "new-name", updated.Name)
	assert.True(t, updated.Modified.After(updated.Created) || updated.Modified.Equal(updated.Created))

	_, err = repo.GetByOwnerAndName(ctx, owner, "old-name")
	assert.ErrorIs(t, err, dao.ErrNotFound)
	_, err = repo.GetByOwnerAndName(ctx, owner, "new-name")
	assert.NoError(t, err)
}

func TestTransducersRepositoryDeleteRemovesFromIndex(t *testing.T) {
	repo := NewTransducersRepository()
	ctx := context.Background()
	owner := uuid.New()

	created, err := repo.Create(ctx, dao.Transducer{OwnerID: owner, Name: "doomed", Format: dao.FormatATT, Data: []byte("0\n")})
	require.NoError(t, err)

	_, err = repo.Delete(ctx, created.ID)
	require.NoError(t, err)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
	_, err = repo.GetByOwnerAndName(ctx, owner, "doomed")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}
