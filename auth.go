// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"golang.org/x/crypto/bcrypt"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 72 // bcrypt ignores anything longer
)

func hashPassword(pass string) (string, error) {
	bs, err := bcrypt.GenerateFromPassword([]byte(pass), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(bs), nil
}

// comparePassword returns nil only if pass matches hash.
func comparePassword(hash, pass string) error {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(pass))
}

func checkEmail(email string) error {
	if accounts.NormalizeEmail(email) == "" {
		return &fieldError{Field: "email", Message: "a valid email address is required"}
	}
	return nil
}

func checkPassword(pass string) error {
	if utf8.RuneCountInString(pass) < minPasswordLength {
		return &fieldError{Field: "password", Message: "must be at least 8 characters"}
	}
	if len(pass) > maxPasswordLength {
		return &fieldError{Field: "password", Message: "must be at most 72 bytes"}
	}
	return nil
}

func checkName(name string) error {
	if strings.TrimSpace(name) == "" {
		return &fieldError{Field: "name", Message: "is required"}
	}
	return nil
}

type accountKey struct{}

type bearerKey struct{}

// accountFrom returns the account requireAccount stored on ctx.
func accountFrom(ctx context.Context) *accounts.Account {
	a, _ := ctx.Value(accountKey{}).(*accounts.Account)
	return a
}

func bearerFrom(ctx context.Context) string {
	v, _ := ctx.Value(bearerKey{}).(string)
	return v
}

// gate resolves bearer tokens to active accounts.
type gate struct {
	sessions *sessions
	accounts accounts.Repository
}

// authenticate returns the active account a token belongs to. Unknown,
// revoked or expired tokens and deactivated accounts are all
// errInvalidToken.
func (g *gate) authenticate(ctx context.Context, token string) (*accounts.Account, error) {
	id, err := g.sessions.lookup(token)
	if err != nil {
		return nil, err
	}
	acct, err := g.accounts.LookupByID(ctx, id)
	if err != nil {
		if errors.Is(err, accounts.ErrNotFound) {
			return nil, errInvalidToken
		}
		return nil, err
	}
	if !acct.Active {
		return nil, errInvalidToken
	}
	return acct, nil
}

// require runs next only for requests carrying a valid bearer token.
// The account is available through accountFrom.
func (g *gate) require(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := extractBearer(r)
		acct, err := g.authenticate(r.Context(), token)
		if err != nil {
			authFailures.With("method", "bearer").Add(1)
			encodeError(w, err, "auth")
			return
		}
		authSuccesses.With("method", "bearer").Add(1)
		ctx := context.WithValue(r.Context(), accountKey{}, acct)
		ctx = context.WithValue(ctx, bearerKey{}, token)
		next(w, r.WithContext(ctx))
	}
}
