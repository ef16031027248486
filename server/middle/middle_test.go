package middle

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/dao/inmem"
	"github.com/tapeset/wfst/server/token"
)

var testSecret = []byte("unit-test-secret")

func echoNext() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		loggedIn, _ := r.Context().Value(AuthLoggedIn).(bool)
		acc, _ := r.Context().Value(AuthUser).(dao.Account)
		w.Header().Set("X-Logged-In", boolStr(loggedIn))
		w.Header().Set("X-Username", acc.Username)
		w.WriteHeader(http.StatusOK)
	})
}

func boolStr(b bool) string {
	if b {
		return "true"
	}
	return "false"
}

func TestRequireAuthRejectsMissingToken(t *testing.T) {
	store := inmem.NewDatastore()
	h := RequireAuth(store.Accounts(), testSecret, 0)(echoNext())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestRequireAuthAllowsValidToken(t *testing.T) {
	store := inmem.NewDatastore()
	acc, err := store.Accounts().Create(context.Background(), dao.Account{Username: "morgan", Password: "hash"})
	require.NoError(t, err)

	tok, err := token.Generate(testSecret, acc)
	require.NoError(t, err)

	h := RequireAuth(store.Accounts(), testSecret, 0)(echoNext())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Logged-In"))
	assert.Equal(t, "morgan", rec.Header().Get("X-Username"))
}

func TestRequireAuthRejectsInvalidToken(t *testing.T) {
	store := inmem.NewDatastore()
	h := RequireAuth(store.Accounts(), testSecret, 0)(echoNext())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-real-token")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOptionalAuthAllowsMissingToken(t *testing.T) {
	store := inmem.NewDatastore()
	h := OptionalAuth(store.Accounts(), testSecret, 0)(echoNext())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "false", rec.Header().Get("X-Logged-In"))
}

func TestOptionalAuthPopulatesAccountWithValidToken(t *testing.T) {
	store := inmem.NewDatastore()
	acc, err := store.Accounts().Create(context.Background(), dao.Account{Username: "morgan", Password: "hash"})
	require.NoError(t, err)

	tok, err := token.Generate(testSecret, acc)
	require.NoError(t, err)

	h := OptionalAuth(store.Accounts(), testSecret, 0)(echoNext())

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer "+tok)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "true", rec.Header().Get("X-Logged-In"))
	assert.Equal(t, "morgan", rec.Header().Get("X-Username"))
}

func TestDontPanicRecoversAndWrites500(t *testing.T) {
	h := DontPanic()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	rec := httptest.NewRecorder()

	assert.NotPanics(t, func() {
		h.ServeHTTP(rec, req)
	})
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

