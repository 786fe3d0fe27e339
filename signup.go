// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
)

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`

	// misc profile information
	Phone        string `json:"phone"`
	LicenseID    string `json:"licenseId"`
	Region       string `json:"region"`
	BoatName     string `json:"boatName"`
	Experience   int    `json:"experience"`
	ProfilePhoto string `json:"profilePhoto"`
}

// sessionResponse is returned by register and login.
type sessionResponse struct {
	Token   string            `json:"token"`
	Account *accounts.Account `json:"account"`
}

func addSignupRoutes(router *mux.Router, logger log.Logger, repo accounts.Repository, sess *sessions, startingTokens int64) {
	router.Methods("POST").Path("/auth/register").HandlerFunc(signupRoute(logger, repo, sess, startingTokens))
}

func signupRoute(logger log.Logger, repo accounts.Repository, sess *sessions, startingTokens int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var signup signupRequest
		if err := decodeBody(r, &signup); err != nil {
			encodeError(w, err, "signup")
			return
		}
		if err := checkName(signup.Name); err != nil {
			encodeError(w, err, "signup")
			return
		}
		if err := checkEmail(signup.Email); err != nil {
			encodeError(w, err, "signup")
			return
		}
		if err := checkPassword(signup.Password); err != nil {
			encodeError(w, err, "signup")
			return
		}

		hash, err := hashPassword(signup.Password)
		if err != nil {
			internalError(w, err, "signup")
			return
		}

		now := time.Now().UTC()
		acct := &accounts.Account{
			ID:           uuid.NewString(),
			Name:         strings.TrimSpace(signup.Name),
			Email:        accounts.NormalizeEmail(signup.Email),
			PasswordHash: hash,
			Phone:        strings.TrimSpace(signup.Phone),
			LicenseID:    strings.TrimSpace(signup.LicenseID),
			Region:       strings.TrimSpace(signup.Region),
			BoatName:     strings.TrimSpace(signup.BoatName),
			Experience:   signup.Experience,
			ProfilePhoto: strings.TrimSpace(signup.ProfilePhoto),
			Role:         accounts.RoleFisherman,
			Active:       true,
			TokenBalance: startingTokens,
			TokenGrant:   startingTokens,
			CreatedAt:    now,
		}
		if acct.LicenseID == "" {
			acct.LicenseID = fmt.Sprintf("TN-FSH-%d", now.UnixNano())
		}
		if acct.Region == "" {
			acct.Region = accounts.DefaultRegion
		}
		if acct.Experience < 0 {
			acct.Experience = 0
		}

		if err := repo.Create(r.Context(), acct); err != nil {
			if errors.Is(err, accounts.ErrDuplicateEmail) || errors.Is(err, accounts.ErrDuplicateLicense) {
				signups.With("result", "duplicate").Add(1)
			}
			encodeError(w, err, "signup")
			return
		}
		signups.With("result", "ok").Add(1)
		logger.Log("signup", "created account", "account", acct.ID)

		token, err := sess.issue(acct.ID)
		if err != nil {
			internalError(w, err, "signup")
			return
		}
		writeJSON(w, http.StatusCreated, sessionResponse{Token: token, Account: acct})
	}
}
