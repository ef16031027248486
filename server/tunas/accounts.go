package tunas

import (
	"context"
	"encoding/base64"
	"errors"
	"net/mail"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/tapeset/wfst/server/dao"
	"github.com/tapeset/wfst/server/serr"
)

// GetAllAccounts returns all accounts currently in persistence.
func (svc Service) GetAllAccounts(ctx context.Context) ([]dao.Account, error) {
	accounts, err := svc.DB.Accounts().GetAll(ctx)
	if err != nil {
		return nil, serr.WrapDB("", err)
	}

	return accounts, nil
}

// GetAccount returns the account with the given ID.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no account with that ID
// exists, it will match serr.ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB. Finally, if there
// is an issue with one of the arguments, it will match serr.ErrBadArgument.
func (svc Service) GetAccount(ctx context.Context, id string) (dao.Account, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Account{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	acc, err := svc.DB.Accounts().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Account{}, serr.ErrNotFound
		}
		return dao.Account{}, serr.WrapDB("could not get account", err)
	}

	return acc, nil
}

// CreateAccount creates a new account with the given username, password, and
// email combo. Returns the newly-created account as it exists after
// creation.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If an account with that
// username is already present, it will match serr.ErrAlreadyExists. If the
// error occured due to an unexpected problem with the DB, it will match
// serr.ErrDB. Finally, if one of the arguments is invalid, it will match
// serr.ErrBadArgument.
func (svc Service) CreateAccount(ctx context.Context, username, password, email string, role dao.Role) (dao.Account, error) {
	var err error
	if username == "" {
		return dao.Account{}, serr.New("username cannot be blank", err, serr.ErrBadArgument)
	}
	if password == "" {
		return dao.Account{}, serr.New("password cannot be blank", err, serr.ErrBadArgument)
	}

	var storedEmail *mail.Address
	if email != "" {
		storedEmail, err = mail.ParseAddress(email)
		if err != nil {
			return dao.Account{}, serr.New("email is not valid", err, serr.ErrBadArgument)
		}
	}

	_, err = svc.DB.Accounts().GetByUsername(ctx, username)
	if err == nil {
		return dao.Account{}, serr.New("an account with that username already exists", serr.ErrAlreadyExists)
	} else if !errors.Is(err, dao.ErrNotFound) {
		return dao.Account{}, serr.WrapDB("", err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return dao.Account{}, serr.New("password is too long", err, serr.ErrBadArgument)
		} else {
			return dao.Account{}, serr.New("password could not be encrypted", err)
		}
	}

	storedPass := base64.StdEncoding.EncodeToString(passHash)

	newAccount := dao.Account{
		Username: username,
		Password: storedPass,
		Email:    storedEmail,
		Role:     role,
	}

	acc, err := svc.DB.Accounts().Create(ctx, newAccount)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Account{}, serr.ErrAlreadyExists
		}
		return dao.Account{}, serr.WrapDB("could not create account", err)
	}

	return acc, nil
}

// UpdateAccount sets the properties of the account with the given ID to the
// properties given. All the given properties of the account will overwrite
// the existing ones. Returns the updated account.
//
// This function cannot be used to update the password. Use UpdatePassword for
// that.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If an account with that
// username or ID (if they are changing) is already present, it will match
// serr.ErrAlreadyExists. If no account with the given ID exists, it will
// match serr.ErrNotFound. If the error occured due to an unexpected problem
// with the DB, it will match serr.ErrDB. Finally, if one of the arguments is
// invalid, it will match serr.ErrBadArgument.
func (svc Service) UpdateAccount(ctx context.Context, curID, newID, username, email string, role dao.Role) (dao.Account, error) {
	var err error

	if username == "" {
		return dao.Account{}, serr.New("username cannot be blank", err, serr.ErrBadArgument)
	}

	var storedEmail *mail.Address
	if email != "" {
		storedEmail, err = mail.ParseAddress(email)
		if err != nil {
			return dao.Account{}, serr.New("email is not valid", err, serr.ErrBadArgument)
		}
	}

	uuidCurID, err := uuid.Parse(curID)
	if err != nil {
		return dao.Account{}, serr.New("current ID is not valid", serr.ErrBadArgument)
	}
	uuidNewID, err := uuid.Parse(newID)
	if err != nil {
		return dao.Account{}, serr.New("new ID is not valid", serr.ErrBadArgument)
	}

	daoAccount, err := svc.DB.Accounts().GetByID(ctx, uuidCurID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Account{}, serr.New("account not found", serr.ErrNotFound)
		}
	}

	if curID != newID {
		_, err := svc.DB.Accounts().GetByID(ctx, uuidNewID)
		if err == nil {
			return dao.Account{}, serr.New("an account with that ID already exists", serr.ErrAlreadyExists)
		} else if !errors.Is(err, dao.ErrNotFound) {
			return dao.Account{}, serr.WrapDB("", err)
		}
	}
	if daoAccount.Username != username {
		_, err := svc.DB.Accounts().GetByUsername(ctx, username)
		if err == nil {
			return dao.Account{}, serr.New("an account with that username already exists", serr.ErrAlreadyExists)
		} else if !errors.Is(err, dao.ErrNotFound) {
			return dao.Account{}, serr.WrapDB("", err)
		}
	}

	daoAccount.Email = storedEmail
	daoAccount.ID = uuidNewID
	daoAccount.Username = username
	daoAccount.Role = role

	updated, err := svc.DB.Accounts().Update(ctx, uuidCurID, daoAccount)
	if err != nil {
		if errors.Is(err, dao.ErrConstraintViolation) {
			return dao.Account{}, serr.New("an account with that ID/username already exists", serr.ErrAlreadyExists)
		} else if errors.Is(err, dao.ErrNotFound) {
			return dao.Account{}, serr.New("account not found", serr.ErrNotFound)
		}
		return dao.Account{}, serr.WrapDB("", err)
	}

	return updated, nil
}

// UpdatePassword sets the password of the account with the given ID to the
// new password. The new password cannot be empty. Returns the updated
// account.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no account with the given
// ID exists, it will match serr.ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB. Finally, if one
// of the arguments is invalid, it will match serr.ErrBadArgument.
func (svc Service) UpdatePassword(ctx context.Context, id, password string) (dao.Account, error) {
	if password == "" {
		return dao.Account{}, serr.New("password cannot be empty", serr.ErrBadArgument)
	}
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Account{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	existing, err := svc.DB.Accounts().GetByID(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Account{}, serr.New("no account with that ID exists", serr.ErrNotFound)
		}
		return dao.Account{}, serr.WrapDB("", err)
	}

	passHash, err := bcrypt.GenerateFromPassword([]byte(password), 14)
	if err != nil {
		if err == bcrypt.ErrPasswordTooLong {
			return dao.Account{}, serr.New("password is too long", err, serr.ErrBadArgument)
		} else {
			return dao.Account{}, serr.New("password could not be encrypted", err)
		}
	}

	storedPass := base64.StdEncoding.EncodeToString(passHash)

	existing.Password = storedPass

	updated, err := svc.DB.Accounts().Update(ctx, uuidID, existing)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Account{}, serr.New("no account with that ID exists", serr.ErrNotFound)
		}
		return dao.Account{}, serr.WrapDB("could not update account", err)
	}

	return updated, nil
}

// DeleteAccount deletes the account with the given ID, along with every
// transducer it owns. It returns the deleted account just after it was
// deleted.
//
// Transducer ownership is a foreign key in the sqlite backend's schema, but
// the inmem backend has no cascading-delete mechanism of its own, so owned
// transducers are removed explicitly here rather than relying on either
// backend to do it.
//
// The returned error, if non-nil, will return true for various calls to
// errors.Is depending on what caused the error. If no account with that ID
// exists, it will match serr.ErrNotFound. If the error occured due to an
// unexpected problem with the DB, it will match serr.ErrDB. Finally, if there
// is an issue with one of the arguments, it will match serr.ErrBadArgument.
func (svc Service) DeleteAccount(ctx context.Context, id string) (dao.Account, error) {
	uuidID, err := uuid.Parse(id)
	if err != nil {
		return dao.Account{}, serr.New("ID is not valid", serr.ErrBadArgument)
	}

	owned, err := svc.DB.Transducers().GetAllByOwner(ctx, uuidID)
	if err != nil {
		return dao.Account{}, serr.WrapDB("could not look up owned transducers", err)
	}
	for _, tr := range owned {
		if _, err := svc.DB.Transducers().Delete(ctx, tr.ID); err != nil {
			return dao.Account{}, serr.WrapDB("could not delete owned transducer", err)
		}
	}

	acc, err := svc.DB.Accounts().Delete(ctx, uuidID)
	if err != nil {
		if errors.Is(err, dao.ErrNotFound) {
			return dao.Account{}, serr.ErrNotFound
		}
		return dao.Account{}, serr.WrapDB("could not delete account", err)
	}

	return acc, nil
}
