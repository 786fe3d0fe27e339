// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package admin

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestAdmin__probes(t *testing.T) {
	svc := NewServer("")
	if v := svc.BindAddress(); v != ":9090" {
		t.Errorf("got %q", v)
	}

	cases := []struct {
		path   string
		status int
	}{
		{"/live", http.StatusOK},
		{"/ready", http.StatusOK},
		{"/metrics", http.StatusOK},
		{"/debug/pprof/", http.StatusOK},
	}
	for i := range cases {
		w := httptest.NewRecorder()
		req := httptest.NewRequest("GET", cases[i].path, nil)
		svc.Handler().ServeHTTP(w, req)
		if w.Code != cases[i].status {
			t.Errorf("%s: got %d", cases[i].path, w.Code)
		}
	}
}

func TestAdmin__readiness(t *testing.T) {
	svc := NewServer(":0")
	svc.AddReadinessCheck("sqlite", func(context.Context) error { return nil })
	svc.AddReadinessCheck("sessions", func(context.Context) error { return errors.New("closed") })

	w := httptest.NewRecorder()
	svc.Handler().ServeHTTP(w, httptest.NewRequest("GET", "/ready", nil))
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("got %d", w.Code)
	}
	if body := w.Body.String(); !strings.Contains(body, `"sessions":"closed"`) || !strings.Contains(body, `"sqlite":"ok"`) {
		t.Errorf("got %s", body)
	}
}

func TestAdmin__pprofEnv(t *testing.T) {
	t.Setenv("PPROF_HEAP", "no")
	if pprofProfileEnabled("heap", true) {
		t.Error("expected heap disabled")
	}
	t.Setenv("PPROF_TRACE", "yes")
	if !pprofProfileEnabled("trace", false) {
		t.Error("expected trace enabled")
	}
	if !pprofProfileEnabled("goroutine", true) {
		t.Error("expected default")
	}
}
