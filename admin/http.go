// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package admin

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"
	"sort"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// CheckFunc reports nil when the dependency it watches is usable.
type CheckFunc func(ctx context.Context) error

// NewServer returns an admin server bound to addr (":9090" when empty).
func NewServer(addr string) *Server {
	if addr == "" {
		addr = ":9090"
	}
	timeout, _ := time.ParseDuration("45s")
	s := &Server{
		checks: make(map[string]CheckFunc),
	}
	s.svc = &http.Server{
		Addr:         addr,
		Handler:      s.handler(),
		ReadTimeout:  timeout,
		WriteTimeout: timeout,
		IdleTimeout:  timeout,
	}
	return s
}

// Server represents a holder around a net/http Server which
// is used for admin endpoints. (i.e. metrics, healthcheck)
type Server struct {
	svc *http.Server

	mu     sync.RWMutex
	checks map[string]CheckFunc
}

func (s *Server) BindAddress() string {
	return s.svc.Addr
}

// AddReadinessCheck registers a named check run on every GET /ready.
func (s *Server) AddReadinessCheck(name string, check CheckFunc) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.checks[name] = check
}

// Handler exposes the admin routes, mostly for tests.
func (s *Server) Handler() http.Handler {
	return s.svc.Handler
}

// Listen brings up the admin HTTP service. This call blocks.
func (s *Server) Listen() error {
	if s == nil || s.svc == nil {
		return nil
	}
	return s.svc.ListenAndServe()
}

// Shutdown unbinds the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s == nil || s.svc == nil {
		return nil
	}
	return s.svc.Shutdown(ctx)
}

func (s *Server) handler() http.Handler {
	r := mux.NewRouter()

	// prometheus metrics
	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())

	// probes
	r.Methods("GET").Path("/live").HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	r.Methods("GET").Path("/ready").HandlerFunc(s.ready)

	// add all pprof handlers we've configured
	r.HandleFunc("/debug/pprof/", pprof.Index)
	if pprofProfileEnabled("cmdline", pprofHandlers["cmdline"]) {
		r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	}
	if pprofProfileEnabled("profile", pprofHandlers["profile"]) {
		r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	}
	if pprofProfileEnabled("trace", pprofHandlers["trace"]) {
		r.HandleFunc("/debug/pprof/trace", pprof.Trace)
	}
	for k, add := range pprofHandlers {
		switch k {
		case "cmdline", "profile", "trace":
			continue
		}
		if pprofProfileEnabled(k, add) {
			r.Handle(fmt.Sprintf("/debug/pprof/%s", k), pprof.Handler(k))
		}
	}

	return r
}

func (s *Server) ready(w http.ResponseWriter, r *http.Request) {
	s.mu.RLock()
	names := make([]string, 0, len(s.checks))
	for name := range s.checks {
		names = append(names, name)
	}
	checks := make(map[string]CheckFunc, len(s.checks))
	for k, v := range s.checks {
		checks[k] = v
	}
	s.mu.RUnlock()
	sort.Strings(names)

	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := http.StatusOK
	results := make(map[string]string, len(names))
	for _, name := range names {
		if err := checks[name](ctx); err != nil {
			results[name] = err.Error()
			status = http.StatusServiceUnavailable
			continue
		}
		results[name] = "ok"
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(results)
}
