// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"runtime/debug"
	"strconv"
	"strings"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
	"github.com/naveen978980/Fishnet-app/pkg/catches"
	"github.com/naveen978980/Fishnet-app/pkg/ledger"
)

const (
	// maxReadBytes is the number of bytes to read
	// from a request body. It's intended to be used
	// with an io.LimitReader
	maxReadBytes = 1 * 1024 * 1024
)

var (
	errInvalidCredentials = errors.New("invalid email or password")
	errAccountDeactivated = errors.New("account is deactivated")
	errInvalidToken       = errors.New("invalid or expired token")
	errForbidden          = errors.New("not allowed")
	errRateLimited        = errors.New("too many attempts, try again later")
	errMalformedJSON      = errors.New("malformed JSON body")
)

// fieldError is a request field that failed validation outside the
// catch validator (registration, password changes, token amounts).
type fieldError struct {
	Field   string
	Message string
}

func (e *fieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// read consumes an io.Reader (wrapping with io.LimitReader)
// and returns either the resulting bytes or a non-nil error.
func read(r io.Reader) ([]byte, error) {
	r = io.LimitReader(r, maxReadBytes)
	return io.ReadAll(r)
}

// decodeBody reads a JSON request body into v. An empty or malformed
// body yields errMalformedJSON.
func decodeBody(r *http.Request, v interface{}) error {
	if r.Body == nil {
		return errMalformedJSON
	}
	bs, err := read(r.Body)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(bs, v); err != nil {
		return errMalformedJSON
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Log("http", fmt.Sprintf("problem encoding response: %v", err))
	}
}

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Error   string                 `json:"error"`
	Code    string                 `json:"code"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// classify maps err to an HTTP status and body. ok is false for errors
// the caller doesn't get to see.
func classify(err error) (status int, body errorResponse, ok bool) {
	var (
		verr  *catches.ValidationError
		ferr  *fieldError
		short *ledger.InsufficientBalanceError
	)
	switch {
	case errors.As(err, &verr):
		return http.StatusBadRequest, errorResponse{
			Error:   verr.Error(),
			Code:    verr.Code(),
			Details: map[string]interface{}{verr.Field: verr.Err.Error()},
		}, true
	case errors.As(err, &ferr):
		return http.StatusBadRequest, errorResponse{
			Error:   ferr.Error(),
			Code:    "invalid_" + ferr.Field,
			Details: map[string]interface{}{ferr.Field: ferr.Message},
		}, true
	case errors.As(err, &short):
		return http.StatusBadRequest, errorResponse{
			Error: short.Error(),
			Code:  "insufficient_balance",
			Details: map[string]interface{}{
				"required":  short.Required,
				"available": short.Available,
				"shortfall": short.Shortfall(),
			},
		}, true
	case errors.Is(err, errMalformedJSON):
		return http.StatusBadRequest, errorResponse{Error: err.Error(), Code: "malformed_json"}, true
	case errors.Is(err, ledger.ErrInvalidAmount):
		return http.StatusBadRequest, errorResponse{Error: "amount must be a positive integer", Code: "invalid_amount"}, true
	case errors.Is(err, ledger.ErrOverflow):
		return http.StatusBadRequest, errorResponse{Error: "balance would overflow", Code: "overflow"}, true
	case errors.Is(err, accounts.ErrDuplicateEmail):
		return http.StatusConflict, errorResponse{Error: "email already registered", Code: "duplicate_email"}, true
	case errors.Is(err, accounts.ErrDuplicateLicense):
		return http.StatusConflict, errorResponse{Error: "license id already registered", Code: "duplicate_license"}, true
	case errors.Is(err, ledger.ErrConflict):
		return http.StatusConflict, errorResponse{Error: "too many concurrent updates, try again", Code: "conflict"}, true
	case errors.Is(err, errInvalidCredentials):
		return http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "invalid_credentials"}, true
	case errors.Is(err, errAccountDeactivated):
		return http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "account_deactivated"}, true
	case errors.Is(err, errInvalidToken):
		return http.StatusUnauthorized, errorResponse{Error: err.Error(), Code: "invalid_token"}, true
	case errors.Is(err, errForbidden), errors.Is(err, catches.ErrForbidden):
		return http.StatusForbidden, errorResponse{Error: err.Error(), Code: "forbidden"}, true
	case errors.Is(err, catches.ErrNotFound):
		return http.StatusNotFound, errorResponse{Error: "catch not found", Code: "not_found"}, true
	case errors.Is(err, accounts.ErrNotFound), errors.Is(err, ledger.ErrAccountNotFound):
		return http.StatusNotFound, errorResponse{Error: "account not found", Code: "not_found"}, true
	case errors.Is(err, errRateLimited):
		return http.StatusTooManyRequests, errorResponse{Error: err.Error(), Code: "rate_limited"}, true
	}
	return http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"}, false
}

// encodeError JSON encodes the supplied error with the status its type
// maps to. Unclassified errors are logged under component and reported
// as a generic internal error.
func encodeError(w http.ResponseWriter, err error, component string) {
	if err == nil {
		return
	}
	status, body, ok := classify(err)
	if !ok {
		internalError(w, err, component)
		return
	}
	writeJSON(w, status, body)
}

func internalError(w http.ResponseWriter, err error, component string) {
	internalServerErrors.Add(1)
	logger.Log(component, err)
	writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
}

// extractBearer pulls the token out of an "Authorization: Bearer ..."
// header, returning "" when there isn't one.
func extractBearer(r *http.Request) string {
	if r == nil {
		return ""
	}
	h := strings.TrimSpace(r.Header.Get("Authorization"))
	if len(h) < 7 || !strings.EqualFold(h[:7], "bearer ") {
		return ""
	}
	return strings.TrimSpace(h[7:])
}

// queryInt reads a positive integer query parameter, returning def when
// it's absent or unusable.
func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return def
	}
	return n
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	if s.status == 0 {
		s.status = code
	}
	s.ResponseWriter.WriteHeader(code)
}

func (s *statusRecorder) Write(b []byte) (int, error) {
	if s.status == 0 {
		s.status = http.StatusOK
	}
	return s.ResponseWriter.Write(b)
}

// logRequests logs every request once it completes and turns panics
// into a 500 error body.
func logRequests(logger log.Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &statusRecorder{ResponseWriter: w}
			defer func() {
				if v := recover(); v != nil {
					internalServerErrors.Add(1)
					logger.Log("http", "panic", "method", r.Method, "path", r.URL.Path, "error", fmt.Sprintf("%v", v), "stack", string(debug.Stack()))
					if rec.status == 0 {
						writeJSON(rec, http.StatusInternalServerError, errorResponse{Error: "internal error", Code: "internal"})
					}
				}
				logger.Log("http", "request", "method", r.Method, "path", r.URL.Path, "status", rec.status, "took", time.Since(start))
			}()
			next.ServeHTTP(rec, r)
		})
	}
}

// withCORS lets the mobile and web clients call the API directly.
func withCORS(h http.Handler, origins []string) http.Handler {
	return handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedMethods([]string{"GET", "POST", "PUT", "DELETE", "OPTIONS"}),
		handlers.AllowedHeaders([]string{"Authorization", "Content-Type"}),
	)(h)
}
