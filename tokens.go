// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/naveen978980/Fishnet-app/pkg/ledger"
)

type tokenRequest struct {
	Amount *json.Number `json:"amount"`
	Reason string       `json:"reason"`
}

type tokenResponse struct {
	Tokens int64 `json:"tokens"`
}

func addTokenRoutes(router *mux.Router, g *gate, svc *ledger.Service) {
	router.Methods("POST").Path("/tokens/earn").HandlerFunc(g.require(earnRoute(svc)))
	router.Methods("POST").Path("/tokens/spend").HandlerFunc(g.require(spendRoute(svc)))
	router.Methods("GET").Path("/tokens").HandlerFunc(g.require(balanceRoute(svc)))
	router.Methods("GET").Path("/tokens/history").HandlerFunc(g.require(historyRoute(svc)))
}

// readTokenRequest returns the amount and reason of an earn or spend.
// Amounts that aren't whole numbers are ledger.ErrInvalidAmount.
func readTokenRequest(r *http.Request, defaultReason string) (int64, string, error) {
	var req tokenRequest
	if err := decodeBody(r, &req); err != nil {
		return 0, "", err
	}
	if req.Amount == nil {
		return 0, "", ledger.ErrInvalidAmount
	}
	amount, err := req.Amount.Int64()
	if err != nil {
		return 0, "", ledger.ErrInvalidAmount
	}
	reason := strings.TrimSpace(req.Reason)
	if reason == "" {
		reason = defaultReason
	}
	return amount, reason, nil
}

func earnRoute(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, reason, err := readTokenRequest(r, "earned")
		if err != nil {
			encodeError(w, err, "tokens")
			return
		}
		balance, err := svc.Earn(r.Context(), accountFrom(r.Context()).ID, amount, reason)
		if err != nil {
			encodeError(w, err, "tokens")
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Tokens: balance})
	}
}

func spendRoute(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		amount, reason, err := readTokenRequest(r, "spent")
		if err != nil {
			encodeError(w, err, "tokens")
			return
		}
		balance, err := svc.Spend(r.Context(), accountFrom(r.Context()).ID, amount, reason)
		if err != nil {
			encodeError(w, err, "tokens")
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Tokens: balance})
	}
}

func balanceRoute(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		balance, err := svc.Balance(r.Context(), accountFrom(r.Context()).ID)
		if err != nil {
			encodeError(w, err, "tokens")
			return
		}
		writeJSON(w, http.StatusOK, tokenResponse{Tokens: balance})
	}
}

func historyRoute(svc *ledger.Service) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		entries, err := svc.History(r.Context(), accountFrom(r.Context()).ID, queryInt(r, "limit", 50))
		if err != nil {
			encodeError(w, err, "tokens")
			return
		}
		if entries == nil {
			entries = []ledger.Entry{}
		}
		writeJSON(w, http.StatusOK, map[string]interface{}{"count": len(entries), "data": entries})
	}
}
