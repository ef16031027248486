package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/server/dao"
)

func accountRouter(a API) http.Handler {
	r := chi.NewRouter()
	r.Route(PathPrefix+"/accounts", func(r chi.Router) {
		r.Get("/", a.HTTPGetAllAccounts())
		r.Post("/", a.HTTPCreateAccount())
		r.Get("/{id}", a.HTTPGetAccount())
		r.Put("/{id}", a.HTTPUpdateAccount())
		r.Delete("/{id}", a.HTTPDeleteAccount())
	})
	return r
}

func TestHTTPGetAllAccountsForbiddenForNonAdmin(t *testing.T) {
	a := newTestAPI()
	router := accountRouter(a)

	requester, err := a.Backend.CreateAccount(context.Background(), "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, PathPrefix+"/accounts/", nil)
	req = withAuthContext(req, requester)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHTTPGetAllAccountsOKForAdmin(t *testing.T) {
	a := newTestAPI()
	router := accountRouter(a)
	ctx := context.Background()

	admin, err := a.Backend.CreateAccount(ctx, "root", "hunter2", "", dao.Admin)
	require.NoError(t, err)
	_, err = a.Backend.CreateAccount(ctx, "riley", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, PathPrefix+"/accounts/", nil)
	req = withAuthContext(req, admin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp []AccountModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Len(t, resp, 2)
}

func TestHTTPCreateAccountForbiddenForNonAdmin(t *testing.T) {
	a := newTestAPI()
	router := accountRouter(a)

	requester, err := a.Backend.CreateAccount(context.Background(), "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	body, _ := json.Marshal(AccountModel{Username: "newguy", Password: "hunter2"})
	req := httptest.NewRequest(http.MethodPost, PathPrefix+"/accounts/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withAuthContext(req, requester)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHTTPGetAccountSelfAllowed(t *testing.T) {
	a := newTestAPI()
	router := accountRouter(a)

	acc, err := a.Backend.CreateAccount(context.Background(), "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, PathPrefix+"/accounts/"+acc.ID.String(), nil)
	req = withAuthContext(req, acc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp AccountModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "morgan", resp.Username)
}

func TestHTTPGetAccountOtherForbiddenForNonAdmin(t *testing.T) {
	a := newTestAPI()
	router := accountRouter(a)
	ctx := context.Background()

	requester, err := a.Backend.CreateAccount(ctx, "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)
	target, err := a.Backend.CreateAccount(ctx, "riley", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, PathPrefix+"/accounts/"+target.ID.String(), nil)
	req = withAuthContext(req, requester)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHTTPDeleteAccountSelfSucceeds(t *testing.T) {
	a := newTestAPI()
	router := accountRouter(a)

	acc, err := a.Backend.CreateAccount(context.Background(), "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, PathPrefix+"/accounts/"+acc.ID.String(), nil)
	req = withAuthContext(req, acc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
