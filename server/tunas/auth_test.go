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

func TestLoginSucceedsWithCorrectPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAccount(ctx, "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	acc, err := svc.Login(ctx, "morgan", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, created.ID, acc.ID)
	assert.False(t, acc.LastLoginTime.IsZero())
}

func TestLoginFailsWithWrongPassword(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	_, err := svc.CreateAccount(ctx, "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	_, err = svc.Login(ctx, "morgan", "wrongpassword")
	assert.ErrorIs(t, err, serr.ErrBadCredentials)
}

func TestLoginFailsForUnknownUsername(t *testing.T) {
	svc := newTestService()

	_, err := svc.Login(context.Background(), "ghost", "hunter2")
	assert.ErrorIs(t, err, serr.ErrBadCredentials)
}

func TestLogoutUpdatesLastLogoutTime(t *testing.T) {
	svc := newTestService()
	ctx := context.Background()

	created, err := svc.CreateAccount(ctx, "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)
	before := created.LastLogoutTime

	loggedOut, err := svc.Logout(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, loggedOut.LastLogoutTime.After(before) || loggedOut.LastLogoutTime.Equal(before))
}

func TestLogoutNotFound(t *testing.T) {
	svc := newTestService()

	_, err := svc.Logout(context.Background(), uuid.New())
	assert.ErrorIs(t, err, serr.ErrNotFound)
}
