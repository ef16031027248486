package inmem

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/server/dao"
)

func TestAccountsRepositoryCreateAssignsID(t *testing.T) {
	repo := NewAccountsRepository()

	acc, err := repo.Create(context.Background(), dao.Account{Username: "alice", Password: "hash"})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, acc.ID)
	assert.Equal(t, "alice", acc.Username)
}

func TestAccountsRepositoryCreateRejectsDuplicateUsername(t *testing.T) {
	repo := NewAccountsRepository()
	ctx := context.Background()

	_, err := repo.Create(ctx, dao.Account{Username: "alice", Password: "hash"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, dao.Account{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, dao.ErrConstraintViolation)
}

func TestAccountsRepositoryGetByIDNotFound(t *testing.T) {
	repo := NewAccountsRepository()

	_, err := repo.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestAccountsRepositoryGetByUsernameRoundTrips(t *testing.T) {
	repo := NewAccountsRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.Account{Username: "bob", Password: "hash"})
	require.NoError(t, err)

	found, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestAccountsRepositoryUpdateRenamesIndex(t *testing.T) {
	repo := NewAccountsRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.Account{Username: "carol", Password: "hash"})
	require.NoError(t, err)

	created.Username = "carolyn"
	updated, err := repo.Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, "carolyn", updated.Username)

	_, err = repo.GetByUsername(ctx, "carol")
	assert.ErrorIs(t, err, dao.ErrNotFound)

	found, err := repo.GetByUsername(ctx, "carolyn")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestAccountsRepositoryUpdateRejectsNameCollision(t *testing.T) {
	repo := NewAccountsRepository()
	ctx := context.Background()

	dave, err := repo.Create(ctx, dao.Account{Username: "dave", Password: "hash"})
	require.NoError(t, err)
	_, err = repo.Create(ctx, dao.Account{Username: "erin", Password: "hash"})
	require.NoError(t, err)

	dave.Username = "erin"
	_, err = repo.Update(ctx, dave.ID, dave)
	assert.ErrorIs(t, err, dao.ErrConstraintViolation)
}

func TestAccountsRepositoryDeleteRemovesFromBothIndexes(t *testing.T) {
	repo := NewAccountsRepository()
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.Account{Username: "frank", Password: "hash"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
	_, err = repo.GetByUsername(ctx, "frank")
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestAccountsRepositoryGetAllSortsByID(t *testing.T) {
	repo := NewAccountsRepository()
	ctx := context.Background()

	for _, name := range []string{"gary", "holly", "ivan"} {
		_, err := repo.Create(ctx, dao.Account{Username: name, Password: "hash"})
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i := 1; i < len(all); i++ {
		assert.LessOrEqual(t, all[i-1].ID.String(), all[i].ID.String())
	}
}
