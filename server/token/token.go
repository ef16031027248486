// Package token issues and validates the JWTs that authenticate requests to
// wfstd.
package token

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/tapeset/wfst/server/dao"
)

// Get extracts the bearer token from req's Authorization header.
func Get(req *http.Request) (string, error) {
	authHeader := strings.TrimSpace(req.Header.Get("Authorization"))

	if authHeader == "" {
		return "", fmt.Errorf("no authorization header present")
	}

	authParts := strings.SplitN(authHeader, " ", 2)
	if len(authParts) != 2 {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	scheme := strings.TrimSpace(strings.ToLower(authParts[0]))
	tok := strings.TrimSpace(authParts[1])

	if scheme != "bearer" {
		return "", fmt.Errorf("authorization header not in Bearer format")
	}

	return tok, nil
}

// Validate parses and verifies tok, looking up the signing account via db.
// The account's current password hash and LastLogoutTime are folded into the
// signing key, so a password change or a logout immediately invalidates any
// previously-issued token for that account.
func Validate(ctx context.Context, tok string, secret []byte, db dao.AccountRepository) (dao.Account, error) {
	var acc dao.Account

	_, err := jwt.Parse(tok, func(t *jwt.Token) (interface{}, error) {
		subj, err := t.Claims.GetSubject()
		if err != nil {
			return nil, fmt.Errorf("cannot get subject: %w", err)
		}

		id, err := uuid.Parse(subj)
		if err != nil {
			return nil, fmt.Errorf("cannot parse subject UUID: %w", err)
		}

		acc, err = db.GetByID(ctx, id)
		if err != nil {
			if err == dao.ErrNotFound {
				return nil, fmt.Errorf("subject does not exist")
			}
			return nil, fmt.Errorf("subject could not be validated")
		}

		return signingKey(secret, acc), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS512.Alg()}), jwt.WithIssuer("wfstd"), jwt.WithLeeway(time.Minute))

	if err != nil {
		return dao.Account{}, err
	}

	return acc, nil
}

// Generate issues a new bearer token for acc, signed so that it is
// automatically invalidated by a subsequent password change or logout.
func Generate(secret []byte, acc dao.Account) (string, error) {
	claims := &jwt.MapClaims{
		"iss":        "wfstd",
		"exp":        time.Now().Add(time.Hour).Unix(),
		"sub":        acc.ID.String(),
		"authorized": true,
	}
	tok := jwt.NewWithClaims(jwt.SigningMethodHS512, claims)

	tokStr, err := tok.SignedString(signingKey(secret, acc))
	if err != nil {
		return "", err
	}
	return tokStr, nil
}

func signingKey(secret []byte, acc dao.Account) []byte {
	var key []byte
	key = append(key, secret...)
	key = append(key, []byte(acc.Password)...)
	key = append(key, []byte(fmt.Sprintf("%d", acc.LastLogoutTime.Unix()))...)
	return key
}
