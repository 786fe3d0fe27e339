// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/kit/log"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
	"github.com/naveen978980/Fishnet-app/pkg/catches"
	"github.com/naveen978980/Fishnet-app/pkg/ledger"
)

func TestHTTP__extractBearer(t *testing.T) {
	cases := []struct {
		header, expected string
	}{
		{"", ""},
		{"Bearer abc", "abc"},
		{"bearer  abc ", "abc"},
		{"Basic abc", ""},
		{"Bearer", ""},
	}
	for i := range cases {
		req, _ := http.NewRequest("GET", "http://example.com", nil)
		if cases[i].header != "" {
			req.Header.Set("Authorization", cases[i].header)
		}
		if v := extractBearer(req); v != cases[i].expected {
			t.Errorf("header=%q got %q", cases[i].header, v)
		}
	}
	if v := extractBearer(nil); v != "" {
		t.Errorf("got %q", v)
	}
}

func TestHTTP__classify(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{&catches.ValidationError{Field: "weight", Err: catches.ErrInvalidWeight}, http.StatusBadRequest, "invalid_weight"},
		{&fieldError{Field: "email", Message: "bad"}, http.StatusBadRequest, "invalid_email"},
		{&ledger.InsufficientBalanceError{Required: 60, Available: 40}, http.StatusBadRequest, "insufficient_balance"},
		{fmt.Errorf("wrapped: %w", accounts.ErrDuplicateEmail), http.StatusConflict, "duplicate_email"},
		{accounts.ErrDuplicateLicense, http.StatusConflict, "duplicate_license"},
		{errInvalidCredentials, http.StatusUnauthorized, "invalid_credentials"},
		{errAccountDeactivated, http.StatusUnauthorized, "account_deactivated"},
		{errInvalidToken, http.StatusUnauthorized, "invalid_token"},
		{catches.ErrForbidden, http.StatusForbidden, "forbidden"},
		{catches.ErrNotFound, http.StatusNotFound, "not_found"},
		{ledger.ErrAccountNotFound, http.StatusNotFound, "not_found"},
		{errRateLimited, http.StatusTooManyRequests, "rate_limited"},
		{errors.New("sqlite: disk I/O error"), http.StatusInternalServerError, "internal"},
	}
	for i := range cases {
		status, body, _ := classify(cases[i].err)
		if status != cases[i].status || body.Code != cases[i].code {
			t.Errorf("%v: got status=%d code=%q", cases[i].err, status, body.Code)
		}
	}

	_, body, _ := classify(&ledger.InsufficientBalanceError{Required: 60, Available: 40})
	if body.Details["available"] != int64(40) || body.Details["shortfall"] != int64(20) {
		t.Errorf("got %#v", body.Details)
	}
}

func TestHTTP__internalErrorHidesCause(t *testing.T) {
	w := httptest.NewRecorder()
	encodeError(w, errors.New("no such table: accounts"), "test")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("got %d", w.Code)
	}
	var body errorResponse
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatal(err)
	}
	if body.Error != "internal error" {
		t.Errorf("got %q", body.Error)
	}
}

func TestHTTP__recovery(t *testing.T) {
	h := logRequests(log.NewNopLogger())(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("got %d", w.Code)
	}
	if ct := w.Header().Get("Content-Type"); ct != "application/json; charset=utf-8" {
		t.Errorf("got %q", ct)
	}
}

func TestHTTP__queryInt(t *testing.T) {
	cases := []struct {
		query    string
		expected int
	}{
		{"", 50},
		{"limit=10", 10},
		{"limit=0", 50},
		{"limit=-3", 50},
		{"limit=ten", 50},
	}
	for i := range cases {
		req := httptest.NewRequest("GET", "/catches?"+cases[i].query, nil)
		if v := queryInt(req, "limit", 50); v != cases[i].expected {
			t.Errorf("query=%q got %d", cases[i].query, v)
		}
	}
}
