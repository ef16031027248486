package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tapeset/wfst/server/dao"
)

func TestHTTPCreateTokenSucceeds(t *testing.T) {
	a := newTestAPI()
	a.Secret = []byte("test-secret")

	acc, err := a.Backend.CreateAccount(context.Background(), "morgan", "hunter2", "", dao.Normal)
	require.NoError(t, err)

	req := httptest.NewRequest(http.MethodPost, PathPrefix+"/tokens", nil)
	req = withAuthContext(req, acc)

	rec := httptest.NewRecorder()
	a.HTTPCreateToken()(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code)
	var resp LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, acc.ID.String(), resp.AccountID)
	assert.NotEmpty(t, resp.Token)
}
