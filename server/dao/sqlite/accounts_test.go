package sqlite

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/server/dao"
)

func newTestAccountsDB(t *testing.T) *AccountsDB {
	t.Helper()
	file := filepath.Join(t.TempDir(), "accounts-test.db")
	repo, err := NewAccountsDBConn(file)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestAccountsDBCreateAndGetByID(t *testing.T) {
	repo := newTestAccountsDB(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.Account{Username: "alice", Password: "hash", Role: dao.Normal})
	require.NoError(t, err)
	assert.NotEqual(t, "", created.ID.String())

	found, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", found.Username)
	assert.Equal(t, dao.Normal, found.Role)
}

func TestAccountsDBCreateRejectsDuplicateUsername(t *testing.T) {
	repo := newTestAccountsDB(t)
	ctx := context.Background()

	_, err := repo.Create(ctx, dao.Account{Username: "alice", Password: "hash"})
	require.NoError(t, err)

	_, err = repo.Create(ctx, dao.Account{Username: "alice", Password: "other"})
	assert.ErrorIs(t, err, dao.ErrConstraintViolation)
}

func TestAccountsDBGetByUsername(t *testing.T) {
	repo := newTestAccountsDB(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.Account{Username: "bob", Password: "hash"})
	require.NoError(t, err)

	found, err := repo.GetByUsername(ctx, "bob")
	require.NoError(t, err)
	assert.Equal(t, created.ID, found.ID)
}

func TestAccountsDBUpdateChangesFields(t *testing.T) {
	repo := newTestAccountsDB(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.Account{Username: "carol", Password: "hash", Role: dao.Normal})
	require.NoError(t, err)

	created.Role = dao.Admin
	updated, err := repo.Update(ctx, created.ID, created)
	require.NoError(t, err)
	assert.Equal(t, dao.Admin, updated.Role)
}

func TestAccountsDBUpdateNotFound(t *testing.T) {
	repo := newTestAccountsDB(t)
	ctx := context.Background()

	phantom, err := repo.Create(ctx, dao.Account{Username: "deleteme", Password: "hash"})
	require.NoError(t, err)
	_, err = repo.Delete(ctx, phantom.ID)
	require.NoError(t, err)

	_, err = repo.Update(ctx, phantom.ID, phantom)
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestAccountsDBDeleteRemovesRow(t *testing.T) {
	repo := newTestAccountsDB(t)
	ctx := context.Background()

	created, err := repo.Create(ctx, dao.Account{Username: "dave", Password: "hash"})
	require.NoError(t, err)

	deleted, err := repo.Delete(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, deleted.ID)

	_, err = repo.GetByID(ctx, created.ID)
	assert.ErrorIs(t, err, dao.ErrNotFound)
}

func TestAccountsDBGetAllReturnsEveryRow(t *testing.T) {
	repo := newTestAccountsDB(t)
	ctx := context.Background()

	for _, name := range []string{"erin", "frank", "gary"} {
		_, err := repo.Create(ctx, dao.Account{Username: name, Password: "hash"})
		require.NoError(t, err)
	}

	all, err := repo.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 3)
}
