// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
	"github.com/naveen978980/Fishnet-app/pkg/ratelimit"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func addLoginRoutes(router *mux.Router, logger log.Logger, repo accounts.Repository, sess *sessions, limiter *ratelimit.Keyed) {
	router.Methods("POST").Path("/auth/login").HandlerFunc(loginRoute(logger, repo, sess, limiter))
}

func loginRoute(logger log.Logger, repo accounts.Repository, sess *sessions, limiter *ratelimit.Keyed) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if limiter != nil && !limiter.Allow(clientAddr(r)) {
			authFailures.With("method", "web").Add(1)
			encodeError(w, errRateLimited, "login")
			return
		}

		var login loginRequest
		if err := decodeBody(r, &login); err != nil {
			encodeError(w, err, "login")
			return
		}
		email := accounts.NormalizeEmail(login.Email)
		if email == "" || login.Password == "" {
			authFailures.With("method", "web").Add(1)
			encodeError(w, errInvalidCredentials, "login")
			return
		}

		// find user by email
		u, err := repo.LookupByEmail(r.Context(), email)
		if err != nil {
			if !errors.Is(err, accounts.ErrNotFound) {
				internalError(w, err, "login")
				return
			}
			// Mark this (and password check) as failure only because
			// the user is involved at this point. Otherwise it's their
			// developer's problem (i.e. bad json).
			authFailures.With("method", "web").Add(1)
			encodeError(w, errInvalidCredentials, "login")
			return
		}

		if err := comparePassword(u.PasswordHash, login.Password); err != nil {
			authFailures.With("method", "web").Add(1)
			logger.Log("login", fmt.Sprintf("account=%s failed: %v", u.ID, err))
			encodeError(w, errInvalidCredentials, "login")
			return
		}
		if !u.Active {
			authFailures.With("method", "web").Add(1)
			encodeError(w, errAccountDeactivated, "login")
			return
		}

		// success route, let's finish!
		authSuccesses.With("method", "web").Add(1)
		token, err := sess.issue(u.ID)
		if err != nil {
			internalError(w, err, "login")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{Token: token, Account: u})
	}
}

// clientAddr is the remote IP without its port.
func clientAddr(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
