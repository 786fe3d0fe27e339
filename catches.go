// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"net/http"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/mux"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
	"github.com/naveen978980/Fishnet-app/pkg/catches"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

type catchPage struct {
	Count int              `json:"count"`
	Total int              `json:"total"`
	Page  int              `json:"page"`
	Pages int              `json:"pages"`
	Data  []catches.Record `json:"data"`
}

func addCatchRoutes(router *mux.Router, logger log.Logger, g *gate, svc *catches.Service) {
	router.Methods("POST").Path("/catches").HandlerFunc(g.require(createCatchRoute(logger, svc)))
	router.Methods("GET").Path("/catches").HandlerFunc(listCatchesRoute(svc))
	router.Methods("GET").Path("/catches/{id}").HandlerFunc(getCatchRoute(svc))
	router.Methods("PUT").Path("/catches/{id}").HandlerFunc(g.require(updateCatchRoute(logger, svc)))
	router.Methods("DELETE").Path("/catches/{id}").HandlerFunc(g.require(deleteCatchRoute(logger, svc)))
	router.Methods("POST").Path("/catches/{id}/verify").HandlerFunc(g.require(verifyCatchRoute(logger, svc)))
}

// catchOwner decides who a new record belongs to. The caller owns it
// by default; an empty ownerAccountId records it anonymously and only
// admins may record for someone else.
func catchOwner(caller *accounts.Account, requested *string) (*string, error) {
	if requested == nil {
		id := caller.ID
		return &id, nil
	}
	if *requested == "" {
		return nil, nil
	}
	if *requested != caller.ID && caller.Role != accounts.RoleAdmin {
		return nil, errForbidden
	}
	return requested, nil
}

func createCatchRoute(logger log.Logger, svc *catches.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var sub catches.Submission
		if err := decodeBody(r, &sub); err != nil {
			encodeError(w, err, "catches")
			return
		}
		owner, err := catchOwner(accountFrom(r.Context()), sub.OwnerID)
		if err != nil {
			encodeError(w, err, "catches")
			return
		}
		out, err := svc.Record(r.Context(), sub, owner)
		if err != nil {
			encodeError(w, err, "catches")
			return
		}
		writeJSON(w, http.StatusCreated, out)
	}
}

func listCatchesRoute(svc *catches.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		page := queryInt(r, "page", 1)
		limit := queryInt(r, "limit", defaultPageSize)
		if limit > maxPageSize {
			limit = maxPageSize
		}
		owner := q.Get("ownerAccountId")
		if owner == "" {
			owner = q.Get("userId")
		}
		species := q.Get("species")
		if species == "" {
			species = q.Get("fishType")
		}

		records, total, err := svc.List(r.Context(), catches.Filter{
			Species: species,
			OwnerID: owner,
			Limit:   limit,
			Offset:  (page - 1) * limit,
		})
		if err != nil {
			encodeError(w, err, "catches")
			return
		}
		if records == nil {
			records = []catches.Record{}
		}
		writeJSON(w, http.StatusOK, catchPage{
			Count: len(records),
			Total: total,
			Page:  page,
			Pages: (total + limit - 1) / limit,
			Data:  records,
		})
	}
}

func getCatchRoute(svc *catches.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Get(r.Context(), mux.Vars(r)["id"])
		if err != nil {
			encodeError(w, err, "catches")
			return
		}
		writeJSON(w, http.StatusOK, rec)
	}
}

func updateCatchRoute(logger log.Logger, svc *catches.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var edit catches.Edit
		if err := decodeBody(r, &edit); err != nil {
			encodeError(w, err, "catches")
			return
		}
		rec, err := svc.Edit(r.Context(), mux.Vars(r)["id"], edit, accountFrom(r.Context()))
		if err != nil {
			encodeError(w, err, "catches")
			return
		}
		logger.Log("catches", "edited", "id", rec.ID)
		writeJSON(w, http.StatusOK, rec)
	}
}

func deleteCatchRoute(logger log.Logger, svc *catches.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Delete(r.Context(), mux.Vars(r)["id"], accountFrom(r.Context()))
		if err != nil {
			encodeError(w, err, "catches")
			return
		}
		logger.Log("catches", "deleted", "id", rec.ID)
		writeJSON(w, http.StatusOK, map[string]string{"message": "catch deleted", "id": rec.ID})
	}
}

func verifyCatchRoute(logger log.Logger, svc *catches.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := svc.Verify(r.Context(), mux.Vars(r)["id"], accountFrom(r.Context()))
		if err != nil {
			encodeError(w, err, "catches")
			return
		}
		logger.Log("catches", "verified", "id", rec.ID, "by", accountFrom(r.Context()).ID)
		writeJSON(w, http.StatusOK, rec)
	}
}
