package api

import (
	"encoding/base64"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/middle"
	"github.com/tapeset/wfst/server/result"
	"github.com/tapeset/wfst/server/serr"
)

// HTTPGetAllTransducers returns a HandlerFunc that retrieves all transducers
// owned by the logged-in account.
//
// The handler has requirements for the request context it receives, and if
// the requirements are not met it may return an HTTP-500. The context must
// contain the logged-in account of the client making the request.
func (api API) HTTPGetAllTransducers() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAllTransducers)
}

func (api API) epGetAllTransducers(req *http.Request) result.Result {
	acc := req.Context().Value(middle.AuthUser).(dao.Account)

	trs, err := api.Backend.GetAllTransducers(req.Context(), acc.ID)
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]TransducerModel, len(trs))
	for i := range trs {
		resp[i] = transducerToModel(trs[i])
	}

	return result.OK(resp, "account '%s' got all transducers", acc.Username)
}

// HTTPCreateTransducer returns a HandlerFunc that compiles and stores a new
// transducer owned by the logged-in account.
func (api API) HTTPCreateTransducer() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateTransducer)
}

func (api API) epCreateTransducer(req *http.Request) result.Result {
	acc := req.Context().Value(middle.AuthUser).(dao.Account)

	var createReq TransducerCreateRequest
	if err := parseJSON(req, &createReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if createReq.Name == "" {
		return result.BadRequest("name: property is empty or missing from request", "empty name")
	}

	format, err := dao.ParseFormat(createReq.Format)
	if err != nil {
		return result.BadRequest("format: "+err.Error(), "format: %s", err.Error())
	}

	data, err := base64.StdEncoding.DecodeString(createReq.Data)
	if err != nil {
		return result.BadRequest("data: not valid base64", "data: %s", err.Error())
	}

	newTr, err := api.Backend.CreateTransducer(req.Context(), acc.ID, createReq.Name, format, data)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict("a transducer with that name already exists", "transducer '%s' already exists for account '%s'", createReq.Name, acc.Username)
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	resp := transducerToModel(newTr)
	return result.Created(resp, "account '%s' created transducer '%s'", acc.Username, resp.Name)
}

// HTTPGetTransducer returns a HandlerFunc that retrieves a transducer owned
// by the logged-in account by name.
func (api API) HTTPGetTransducer() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetTransducer)
}

func (api API) epGetTransducer(req *http.Request) result.Result {
	acc := req.Context().Value(middle.AuthUser).(dao.Account)
	name := chi.URLParam(req, "name")

	tr, err := api.Backend.GetTransducer(req.Context(), acc.ID, name)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	resp := transducerToModel(tr)
	return result.OK(resp, "account '%s' got transducer '%s'", acc.Username, name)
}

// HTTPDeleteTransducer returns a HandlerFunc that deletes a transducer owned
// by the logged-in account by name.
func (api API) HTTPDeleteTransducer() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteTransducer)
}

func (api API) epDeleteTransducer(req *http.Request) result.Result {
	acc := req.Context().Value(middle.AuthUser).(dao.Account)
	name := chi.URLParam(req, "name")

	_, err := api.Backend.DeleteTransducer(req.Context(), acc.ID, name)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not delete transducer: " + err.Error())
	}

	return result.NoContent("account '%s' deleted transducer '%s'", acc.Username, name)
}

// HTTPLookup returns a HandlerFunc that runs a lookup of some input against a
// transducer owned by the logged-in account.
func (api API) HTTPLookup() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epLookup)
}

func (api API) epLookup(req *http.Request) result.Result {
	acc := req.Context().Value(middle.AuthUser).(dao.Account)
	name := chi.URLParam(req, "name")

	var lookupReq LookupRequest
	if err := parseJSON(req, &lookupReq); err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	hits, err := api.Backend.Lookup(req.Context(), acc.ID, name, lookupReq.Input, lookupReq.BySymbol, lookupReq.MaxResults)
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	resp := LookupResponse{Results: make([]LookupResultModel, len(hits))}
	for i, hit := range hits {
		resp.Results[i] = LookupResultModel{Output: hit.Output, Weight: hit.Weight}
	}

	return result.OK(resp, "account '%s' looked up %q against transducer '%s'", acc.Username, lookupReq.Input, name)
}

func transducerToModel(tr dao.Transducer) TransducerModel {
	return TransducerModel{
		URI:      PathPrefix + "/transducers/" + tr.Name,
		ID:       tr.ID.String(),
		Name:     tr.Name,
		OwnerID:  tr.OwnerID.String(),
		Format:   tr.Format.String(),
		Data:     base64.StdEncoding.EncodeToString(tr.Data),
		Created:  tr.Created.Format(time.RFC3339),
		Modified: tr.Modified.Format(time.RFC3339),
	}
}
