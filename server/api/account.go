package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/middle"
	"github.com/tapeset/wfst/server/result"
	"github.com/tapeset/wfst/server/serr"
)

// HTTPGetAllAccounts returns a HandlerFunc that retrieves all existing
// accounts. Only an admin account can call this endpoint.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the logged-in account of the client making the request.
func (api API) HTTPGetAllAccounts() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAllAccounts)
}

// GET /accounts: get all accounts (admin auth required).
func (api API) epGetAllAccounts(req *http.Request) result.Result {
	acc := req.Context().Value(middle.AuthUser).(dao.Account)

	if acc.Role != dao.Admin {
		return result.Forbidden("account '%s' (role %s): forbidden", acc.Username, acc.Role)
	}

	accounts, err := api.Backend.GetAllAccounts(req.Context())
	if err != nil {
		return result.InternalServerError(err.Error())
	}

	resp := make([]AccountModel, len(accounts))
	for i := range accounts {
		resp[i] = accountToModel(accounts[i])
	}

	return result.OK(resp, "account '%s' got all accounts", acc.Username)
}

// HTTPCreateAccount returns a HandlerFunc that creates a new account entity.
// Only an admin account can directly create new accounts.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the logged-in account of the client making the request.
func (api API) HTTPCreateAccount() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epCreateAccount)
}

func (api API) epCreateAccount(req *http.Request) result.Result {
	acc := req.Context().Value(middle.AuthUser).(dao.Account)

	if acc.Role != dao.Admin {
		return result.Forbidden("account '%s' (role %s) creation of new account: forbidden", acc.Username, acc.Role)
	}

	var createReq AccountModel
	err := parseJSON(req, &createReq)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}
	if createReq.Username == "" {
		return result.BadRequest("username: property is empty or missing from request", "empty username")
	}
	if createReq.Password == "" {
		return result.BadRequest("password: property is empty or missing from request", "empty password")
	}

	role := dao.Unverified
	if createReq.Role != "" {
		role, err = dao.ParseRole(createReq.Role)
		if err != nil {
			return result.BadRequest("role: "+err.Error(), "role: %s", err.Error())
		}
	}

	newAccount, err := api.Backend.CreateAccount(req.Context(), createReq.Username, createReq.Password, createReq.Email, role)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict("account with that username already exists", "account '%s' already exists", createReq.Username)
		} else if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError(err.Error())
	}

	resp := accountToModel(newAccount)
	return result.Created(resp, "account '%s' (%s) created", resp.Username, resp.ID)
}

// HTTPGetAccount returns a HandlerFunc that gets an existing account. All
// accounts may retrieve themselves, but only an admin account can retrieve
// details on other accounts.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the account being operated on and the logged-in account of the
// client making the request.
func (api API) HTTPGetAccount() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epGetAccount)
}

func (api API) epGetAccount(req *http.Request) result.Result {
	id := requireIDParam(req)
	acc := req.Context().Value(middle.AuthUser).(dao.Account)

	if id != acc.ID && acc.Role != dao.Admin {
		var otherStr string
		other, err := api.Backend.GetAccount(req.Context(), id.String())
		if err != nil {
			otherStr = fmt.Sprintf("%d", id)
		} else {
			otherStr = "'" + other.Username + "'"
		}

		return result.Forbidden("account '%s' (role %s) get account %s: forbidden", acc.Username, acc.Role, otherStr)
	}

	info, err := api.Backend.GetAccount(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		} else if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError("could not get account: " + err.Error())
	}

	resp := accountToModel(info)

	var otherStr string
	if id != acc.ID {
		otherStr = "account '" + info.Username + "'"
	} else {
		otherStr = "self"
	}

	return result.OK(resp, "account '%s' successfully got %s", acc.Username, otherStr)
}

// HTTPUpdateAccount returns a HandlerFunc that updates an existing account.
// Only updates to properties that are not auto-calculated are respected
// (e.g. trying to update the created time will have no effect). All accounts
// may update themselves, but only an admin account may update others.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the account being operated on and the logged-in account of the
// client making the request.
func (api API) HTTPUpdateAccount() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epUpdateAccount)
}

func (api API) epUpdateAccount(req *http.Request) result.Result {
	id := requireIDParam(req)
	acc := req.Context().Value(middle.AuthUser).(dao.Account)

	if id != acc.ID && acc.Role != dao.Admin {
		var otherStr string
		other, err := api.Backend.GetAccount(req.Context(), id.String())
		if err != nil {
			otherStr = fmt.Sprintf("%d", id)
		} else {
			otherStr = "'" + other.Username + "'"
		}

		return result.Forbidden("account '%s' (role %s) update account %s: forbidden", acc.Username, acc.Role, otherStr)
	}

	var updateReq AccountUpdateRequest
	err := parseJSON(req, &updateReq)
	if err != nil {
		return result.BadRequest(err.Error(), err.Error())
	}

	var updateRole dao.Role
	if updateReq.Role.Update {
		updateRole, err = dao.ParseRole(updateReq.Role.Value)
		if err != nil {
			return result.BadRequest(err.Error(), err.Error())
		}
	}

	existing, err := api.Backend.GetAccount(req.Context(), id.String())
	if err != nil {
		if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}

	newEmail := ""
	if existing.Email != nil {
		newEmail = existing.Email.Address
	}
	if updateReq.Email.Update {
		newEmail = updateReq.Email.Value
	}
	newID := existing.ID.String()
	if updateReq.ID.Update {
		newID = updateReq.ID.Value
	}
	newUsername := existing.Username
	if updateReq.Username.Update {
		newUsername = updateReq.Username.Value
	}
	newRole := existing.Role
	if updateReq.Role.Update {
		newRole = updateRole
	}

	updated, err := api.Backend.UpdateAccount(req.Context(), id.String(), newID, newUsername, newEmail, newRole)
	if err != nil {
		if errors.Is(err, serr.ErrAlreadyExists) {
			return result.Conflict(err.Error(), err.Error())
		} else if errors.Is(err, serr.ErrNotFound) {
			return result.NotFound()
		}
		return result.InternalServerError(err.Error())
	}
	if updateReq.Password.Update {
		updated, err = api.Backend.UpdatePassword(req.Context(), updated.ID.String(), updateReq.Password.Value)
		if err != nil {
			if errors.Is(err, serr.ErrNotFound) {
				return result.NotFound()
			}
			return result.InternalServerError(err.Error())
		}
	}

	resp := accountToModel(updated)
	return result.Created(resp, "account '%s' (%s) updated", resp.Username, resp.ID)
}

// HTTPDeleteAccount returns a HandlerFunc that deletes an account entity. All
// accounts may delete themselves, but only an admin account may delete
// another.
//
// The handler has requirements for the request context it receives, and if the
// requirements are not met it may return an HTTP-500. The context must contain
// the ID of the account being deleted and the logged-in account of the client
// making the request.
func (api API) HTTPDeleteAccount() http.HandlerFunc {
	return httpEndpoint(api.UnauthDelay, api.epDeleteAccount)
}

func (api API) epDeleteAccount(req *http.Request) result.Result {
	id := requireIDParam(req)
	acc := req.Context().Value(middle.AuthUser).(dao.Account)

	if id != acc.ID && acc.Role != dao.Admin {
		var otherStr string
		other, err := api.Backend.GetAccount(req.Context(), id.String())
		if err != nil {
			otherStr = fmt.Sprintf("%d", id)
		} else {
			otherStr = "'" + other.Username + "'"
		}

		return result.Forbidden("account '%s' (role %s) delete account %s: forbidden", acc.Username, acc.Role, otherStr)
	}

	deleted, err := api.Backend.DeleteAccount(req.Context(), id.String())
	if err != nil && !errors.Is(err, serr.ErrNotFound) {
		if errors.Is(err, serr.ErrBadArgument) {
			return result.BadRequest(err.Error(), err.Error())
		}
		return result.InternalServerError("could not delete account: " + err.Error())
	}

	var otherStr string
	if id != acc.ID {
		otherStr = "account '" + deleted.Username + "'"
	} else {
		otherStr = "self"
	}

	return result.NoContent("account '%s' successfully deleted %s", acc.Username, otherStr)
}

func accountToModel(acc dao.Account) AccountModel {
	resp := AccountModel{
		URI:            PathPrefix + "/accounts/" + acc.ID.String(),
		ID:             acc.ID.String(),
		Username:       acc.Username,
		Role:           acc.Role.String(),
		Created:        acc.Created.Format(time.RFC3339),
		Modified:       acc.Modified.Format(time.RFC3339),
		LastLogoutTime: acc.LastLogoutTime.Format(time.RFC3339),
		LastLoginTime:  acc.LastLoginTime.Format(time.RFC3339),
	}
	if acc.Email != nil {
		resp.Email = acc.Email.Address
	}
	return resp
}
