// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/naveen978980/Fishnet-app/pkg/stats"
)

func addStatsRoutes(router *mux.Router, svc *stats.Service) {
	router.Methods("GET").Path("/stats").HandlerFunc(globalStatsRoute(svc))
	router.Methods("GET").Path("/stats/species").HandlerFunc(speciesStatsRoute(svc))
	router.Methods("GET").Path("/stats/account/{id}").HandlerFunc(accountStatsRoute(svc))
}

func globalStatsRoute(svc *stats.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		g, err := svc.Global(r.Context())
		if err != nil {
			encodeError(w, err, "stats")
			return
		}
		writeJSON(w, http.StatusOK, g)
	}
}

func speciesStatsRoute(svc *stats.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.BySpecies(r.Context())
		if err != nil {
			encodeError(w, err, "stats")
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func accountStatsRoute(svc *stats.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		out, err := svc.ForAccount(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			encodeError(w, err, "stats")
			return
		}
		writeJSON(w, http.StatusOK, out)
	}
}
