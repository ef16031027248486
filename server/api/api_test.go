package api

import (
	"context"
	"net/http"
	"testing"

	"github.com/google/uuid"

	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/dao/inmem"
	"github.com/tapeset/wfst/server/middle"
	"github.com/tapeset/wfst/server/tunas"
)

func newTestAPI() API {
	return API{Backend: tunas.Service{DB: inmem.NewDatastore()}}
}

// withAuthContext stands in for middle.AuthHandler in tests that don't need
// to exercise token validation: it injects acc directly into req's context
// the way a successfully authenticated request would arrive at the handler.
func withAuthContext(req *http.Request, acc dao.Account) *http.Request {
	ctx := context.WithValue(req.Context(), middle.AuthUser, acc)
	return req.WithContext(ctx)
}

func mustNewUUID(t *testing.T) uuid.UUID {
	t.Helper()
	id, err := uuid.NewRandom()
	if err != nil {
		t.Fatalf("uuid.NewRandom: %v", err)
	}
	return id
}
