package api

import (
	"net/http"

	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/middle"
	"github.com/tapeset/wfst/server/result"
	"github.com/tapeset/wfst/server/token"
)

// HTTPCreateToken returns a HandlerFunc that creates a new token for the
// account the client is logged in as.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the logged-in account of the client making the request.
func (api API) HTTPCreateToken() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateToken)
}

func (api API) epCreateToken(req *http.Request) result.Result {
	acc := req.Context().Value(middle.AuthUser).(dao.Account)

	tok, err := token.Generate(api.Secret, acc)
	if err != nil {
		return result.InternalServerError("could not generate JWT: " + err.Error())
	}

	resp := LoginResponse{
		Token:     tok,
		AccountID: acc.ID.String(),
	}
	return result.Created(resp, "account '"+acc.Username+"' successfully created new token")
}
