package token

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/dao/inmem"
)

var testSecret = []byte("unit-test-secret")

func TestGetExtractsBearerToken(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")

	tok, err := Get(req)
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)
}

func TestGetRejectsMissingHeader(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)

	_, err := Get(req)
	assert.Error(t, err)
}

func TestGetRejectsNonBearerScheme(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Basic abc.def.ghi")

	_, err := Get(req)
	assert.Error(t, err)
}

func TestGenerateAndValidateRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := inmem.NewDatastore()
	accounts := store.Accounts()

	acc, err := accounts.Create(ctx, dao.Account{Username: "morgan", Password: "hashed-pw"})
	require.NoError(t, err)

	tok, err := Generate(testSecret, acc)
	require.NoError(t, err)

	validated, err := Validate(ctx, tok, testSecret, accounts)
	require.NoError(t, err)
	assert.Equal(t, acc.ID, validated.ID)
}

func TestValidateRejectsTokenAfterLogout(t *testing.T) {
	ctx := context.Background()
	store := inmem.NewDatastore()
	accounts := store.Accounts()

	acc, err := accounts.Create(ctx, dao.Account{Username: "morgan", Password: "hashed-pw"})
	require.NoError(t, err)

	tok, err := Generate(testSecret, acc)
	require.NoError(t, err)

	acc.LastLogoutTime = time.Now().Add(time.Minute)
	_, err = accounts.Update(ctx, acc.ID, acc)
	require.NoError(t, err)

	_, err = Validate(ctx, tok, testSecret, accounts)
	assert.Error(t, err)
}

func TestValidateRejectsUnknownSubject(t *testing.T) {
	ctx := context.Background()
	store := inmem.NewDatastore()
	accounts := store.Accounts()

	acc, err := accounts.Create(ctx, dao.Account{Username: "morgan", Password: "hashed-pw"})
	require.NoError(t, err)

	tok, err := Generate(testSecret, acc)
	require.NoError(t, err)

	_, err = accounts.Delete(ctx, acc.ID)
	require.NoError(t, err)

	_, err = Validate(ctx, tok, testSecret, accounts)
	assert.Error(t, err)
}

func TestValidateRejectsWrongSecret(t *testing.T) {
	ctx := context.Background()
	store := inmem.NewDatastore()
	accounts := store.Accounts()

	acc, err := accounts.Create(ctx, dao.Account{Username: "morgan", Password: "hashed-pw"})
	require.NoError(t, err)

	tok, err := Generate(testSecret, acc)
	require.NoError(t, err)

	_, err = Validate(ctx, tok, []byte("some-other-secret"), accounts)
	assert.Error(t, err)
}
