// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"
)

func addLogoutRoutes(router *mux.Router, logger log.Logger, g *gate) {
	router.Methods("POST").Path("/auth/logout").HandlerFunc(g.require(logoutRoute(logger, g.sessions)))
}

func logoutRoute(logger log.Logger, sess *sessions) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := sess.revoke(bearerFrom(r.Context())); err != nil {
			internalError(w, err, "logout")
			return
		}
		logger.Log("logout", "revoked session", "account", accountFrom(r.Context()).ID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
	}
}
