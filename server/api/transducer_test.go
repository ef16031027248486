package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/server/dao"
)

const singleArcATT = "0\t1\ta\tx\t0.5\n1\n"

func transducerRouter(a API) http.Handler {
	r := chi.NewRouter()
	r.Route(PathPrefix+"/transducers", func(r chi.Router) {
		r.Get("/", a.HTTPGetAllTransducers())
		r.Post("/", a.HTTPCreateTransducer())
		r.Get("/{name}", a.HTTPGetTransducer())
		r.Delete("/{name}", a.HTTPDeleteTransducer())
		r.Post("/{name}/lookup", a.HTTPLookup())
	})
	return r
}

func TestHTTPCreateTransducerSucceeds(t *testing.T) {
	a := newTestAPI()
	acc := dao.Account{ID: mustNewUUID(t), Username: "morgan"}
	router := transducerRouter(a)

	body, _ := json.Marshal(TransducerCreateRequest{
		Name:   "vowel-harmony",
		Format: "att",
		Data:   base64.StdEncoding.EncodeToString([]byte(singleArcATT)),
	})
	req := httptest.NewRequest(http.MethodPost, PathPrefix+"/transducers/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withAuthContext(req, acc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)

	var got TransducerModel
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "vowel-harmony", got.Name)
	assert.Equal(t, acc.ID.String(), got.OwnerID)
}

func TestHTTPCreateTransducerRejectsEmptyName(t *testing.T) {
	a := newTestAPI()
	acc := dao.Account{ID: mustNewUUID(t), Username: "morgan"}
	router := transducerRouter(a)

	body, _ := json.Marshal(TransducerCreateRequest{Format: "att", Data: ""})
	req := httptest.NewRequest(http.MethodPost, PathPrefix+"/transducers/", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req = withAuthContext(req, acc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestHTTPCreateTransducerRejectsDuplicateName(t *testing.T) {
	a := newTestAPI()
	acc := dao.Account{ID: mustNewUUID(t), Username: "morgan"}
	router := transducerRouter(a)

	body, _ := json.Marshal(TransducerCreateRequest{
		Name:   "vowel-harmony",
		Format: "att",
		Data:   base64.StdEncoding.EncodeToString([]byte(singleArcATT)),
	})

	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodPost, PathPrefix+"/transducers/", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		req = withAuthContext(req, acc)
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		if i == 0 {
			require.Equal(t, http.StatusCreated, rec.Code)
		} else {
			assert.Equal(t, http.StatusConflict, rec.Code)
		}
	}
}

func TestHTTPGetTransducerNotFound(t *testing.T) {
	a := newTestAPI()
	acc := dao.Account{ID: mustNewUUID(t), Username: "morgan"}
	router := transducerRouter(a)

	req := httptest.NewRequest(http.MethodGet, PathPrefix+"/transducers/nonexistent", nil)
	req = withAuthContext(req, acc)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHTTPLookupReturnsResults(t *testing.T) {
	a := newTestAPI()
	acc := dao.Account{ID: mustNewUUID(t), Username: "morgan"}
	router := transducerRouter(a)

	createBody, _ := json.Marshal(TransducerCreateRequest{
		Name:   "vowel-harmony",
		Format: "att",
		Data:   base64.StdEncoding.EncodeToString([]byte(singleArcATT)),
	})
	createReq := httptest.NewRequest(http.MethodPost, PathPrefix+"/transducers/", bytes.NewReader(createBody))
	createReq.Header.Set("Content-Type", "application/json")
	createReq = withAuthContext(createReq, acc)
	createRec := httptest.NewRecorder()
	router.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	lookupBody, _ := json.Marshal(LookupRequest{Input: "a", BySymbol: true})
	lookupReq := httptest.NewRequest(http.MethodPost, PathPrefix+"/transducers/vowel-harmony/lookup", bytes.NewReader(lookupBody))
	lookupReq.Header.Set("Content-Type", "application/json")
	lookupReq = withAuthContext(lookupReq, acc)

	lookupRec := httptest.NewRecorder()
	router.ServeHTTP(lookupRec, lookupReq)

	require.Equal(t, http.StatusOK, lookupRec.Code)
	var resp LookupResponse
	require.NoError(t, json.Unmarshal(lookupRec.Body.Bytes(), &resp))
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "x", resp.Results[0].Output)
	assert.InDelta(t, 0.5, resp.Results[0].Weight, 1e-9)
}

func TestHTTPDeleteTransducerRemovesIt(t *testing.T) {
	a := newTestAPI()
	acc := dao.Account{ID: mustNewUUID(t), Username: "morgan"}
	router := transducerRouter(a)

	createBody, _ := json.Marshal(TransducerCreateRequest{
		Name:   "vowel-harmony",
		Format: "att",
		Data:   base64.StdEncoding.EncodeToString([]byte(singleArcATT)),
	})
	createReq := httptest.NewRequest(http.MethodPost, PathPrefix+"/transducers/", bytes.NewReader(createBody))
	createReq.Header.Set("Content-Type", "application/json")
	createReq = withAuthContext(createReq, acc)
	createRec := httptest.NewRecorder()
	router.ServeHTTP(createRec, createReq)
	require.Equal(t, http.StatusCreated, createRec.Code)

	delReq := httptest.NewRequest(http.MethodDelete, PathPrefix+"/transducers/vowel-harmony", nil)
	delReq = withAuthContext(delReq, acc)
	delRec := httptest.NewRecorder()
	router.ServeHTTP(delRec, delReq)
	assert.Equal(t, http.StatusNoContent, delRec.Code)

	getReq := httptest.NewRequest(http.MethodGet, PathPrefix+"/transducers/vowel-harmony", nil)
	getReq = withAuthContext(getReq, acc)
	getRec := httptest.NewRecorder()
	router.ServeHTTP(getRec, getReq)
	assert.Equal(t, http.StatusNotFound, getRec.Code)
}
