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

func loginRouter(a API) http.Handler {
	r := chi.NewRouter()
	r.Route(PathPrefix, func(r chi.Router) {
		r.Post("/login", a.HTTPCreateLogin())
		r.Delete("/login/{id}", a.HTTPDeleteLogin())
	})
	return r
}

func TestHTTPCreateLoginSucceeds(t *testing.T) {
	a := newTestAPI()
	router := loginRouter(a)

	created, err := a.Backend.CreateAccount(context.Background(), "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	body, _ := json.Marshal(LoginRequest{Username: "morgan", Password: "hunter2"})
	req := httptest.NewRequest(http.MethodPost, PathPrefix+"/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, created.ID.String(), resp.AccountID)
	assert.NotEmpty(t, resp.Token)
}

func TestHTTPCreateLoginRejectsBadPassword(t *testing.T) {
	a := newTestAPI()
	router := loginRouter(a)

	_, err := a.Backend.CreateAccount(context.Background(), "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	body, _ := json.Marshal(LoginRequest{Username: "morgan", Password: "wrongpassword"})
	req := httptest.NewRequest(http.MethodPost, PathPrefix+"/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHTTPCreateLoginRejectsMissingFields(t *testing.T) {
	a := newTestAPI()
	router := loginRouter(a)

	body, _ := json.Marshal(LoginRequest{Username: "", Password: ""})
	req := httptest.NewRequest(http.MethodPost, PathPrefix+"/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPDeleteLoginSelfSucceeds(t *testing.T) {
	a := newTestAPI()
	router := loginRouter(a)

	acc, err := a.Backend.CreateAccount(context.Background(), "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, PathPrefix+"/login/"+acc.ID.String(), nil)
	req = withAuthContext(req, acc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestHTTPDeleteLoginOfOtherAccountForbiddenForNonAdmin(t *testing.T) {
	a := newTestAPI()
	router := loginRouter(a)
	ctx := context.Background()

	requester, err := a.Backend.CreateAccount(ctx, "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)
	target, err := a.Backend.CreateAccount(ctx, "riley", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, PathPrefix+"/login/"+target.ID.String(), nil)
	req = withAuthContext(req, requester)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestHTTPDeleteLoginOfOtherAccountAllowedForAdmin(t *testing.T) {
	a := newTestAPI()
	router := loginRouter(a)
	ctx := context.Background()

	admin, err := a.Backend.CreateAccount(ctx, "root", "hunter2", "", dao.Admin)
	require.NoError(t, err)
	target, err := a.Backend.CreateAccount(ctx, "riley", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodDelete, PathPrefix+"/login/"+target.ID.String(), nil)
	req = withAuthContext(req, admin)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
}
