// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
)

type passwordChangeRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

func addAccountRoutes(router *mux.Router, logger log.Logger, g *gate) {
	router.Methods("GET").Path("/auth/me").HandlerFunc(g.require(getAccountRoute()))
	router.Methods("PUT").Path("/auth/me").HandlerFunc(g.require(updateAccountRoute(logger, g.accounts)))
	router.Methods("DELETE").Path("/auth/me").HandlerFunc(g.require(deactivateAccountRoute(logger, g)))
	router.Methods("PUT").Path("/auth/password").HandlerFunc(g.require(changePasswordRoute(logger, g.accounts)))
}

func getAccountRoute() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, accountFrom(r.Context()))
	}
}

func updateAccountRoute(logger log.Logger, repo accounts.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var update accounts.ProfileUpdate
		if err := decodeBody(r, &update); err != nil {
			encodeError(w, err, "account")
			return
		}
		if update.Name != nil {
			if err := checkName(*update.Name); err != nil {
				encodeError(w, err, "account")
				return
			}
		}
		if update.Experience != nil && *update.Experience < 0 {
			encodeError(w, &fieldError{Field: "experience", Message: "can't be negative"}, "account")
			return
		}

		acct := *accountFrom(r.Context())
		if update.Apply(&acct) {
			// the unique index backs this up, but a lookup gives a
			// clean error for the common case
			if other, err := repo.LookupByLicense(r.Context(), acct.LicenseID); err == nil && other.ID != acct.ID {
				encodeError(w, accounts.ErrDuplicateLicense, "account")
				return
			} else if err != nil && !errors.Is(err, accounts.ErrNotFound) {
				internalError(w, err, "account")
				return
			}
		}
		if err := repo.UpdateProfile(r.Context(), &acct); err != nil {
			encodeError(w, err, "account")
			return
		}
		logger.Log("account", "updated profile", "account", acct.ID)
		writeJSON(w, http.StatusOK, &acct)
	}
}

func deactivateAccountRoute(logger log.Logger, g *gate) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		acct := accountFrom(r.Context())
		if err := g.accounts.Deactivate(r.Context(), acct.ID); err != nil {
			encodeError(w, err, "account")
			return
		}
		// other sessions stop working because authenticate checks the
		// active flag
		if err := g.sessions.revoke(bearerFrom(r.Context())); err != nil {
			logger.Log("account", "problem revoking session", "account", acct.ID, "error", err)
		}
		logger.Log("account", "deactivated", "account", acct.ID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "account deactivated"})
	}
}

func changePasswordRoute(logger log.Logger, repo accounts.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req passwordChangeRequest
		if err := decodeBody(r, &req); err != nil {
			encodeError(w, err, "password")
			return
		}
		acct := accountFrom(r.Context())
		if err := comparePassword(acct.PasswordHash, req.CurrentPassword); err != nil {
			authFailures.With("method", "password").Add(1)
			encodeError(w, errInvalidCredentials, "password")
			return
		}
		if err := checkPassword(req.NewPassword); err != nil {
			encodeError(w, err, "password")
			return
		}
		hash, err := hashPassword(req.NewPassword)
		if err != nil {
			internalError(w, err, "password")
			return
		}
		if err := repo.UpdatePassword(r.Context(), acct.ID, hash); err != nil {
			encodeError(w, err, "password")
			return
		}
		logger.Log("password", "changed", "account", acct.ID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "password updated"})
	}
}
