// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestConfig__defaults(t *testing.T) {
	cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.env"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.HTTPAddr != ":8080" || cfg.AdminAddr != ":9090" {
		t.Errorf("got %#v", cfg)
	}
	if cfg.StartingTokens != 800 || cfg.CatchReward != 40 || !cfg.RequireLocation {
		t.Errorf("got %#v", cfg)
	}
	if cfg.SessionTTL != 720*time.Hour {
		t.Errorf("got %v", cfg.SessionTTL)
	}
	if cfg.SessionSecret == "" || cfg.ClientSecret == "" {
		t.Error("expected generated secrets")
	}
}

func TestConfig__envFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	body := "STARTING_TOKENS=500\nCATCH_REWARD_TOKENS=25\nSQLITE_DB_PATH=../../etc/passwd\nCORS_ORIGINS=https://a.app, https://b.app\n"
	if err := os.WriteFile(path, []byte(body), 0600); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		for _, k := range []string{"STARTING_TOKENS", "CATCH_REWARD_TOKENS", "SQLITE_DB_PATH", "CORS_ORIGINS"} {
			os.Unsetenv(k)
		}
	})

	cfg, err := loadConfig(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.StartingTokens != 500 || cfg.CatchReward != 25 {
		t.Errorf("got %#v", cfg)
	}
	if cfg.SqlitePath != "fishnet.db" {
		t.Errorf("got %q", cfg.SqlitePath)
	}
	if o := cfg.corsOrigins(); len(o) != 2 || o[1] != "https://b.app" {
		t.Errorf("got %v", o)
	}
}

func TestConfig__invalid(t *testing.T) {
	t.Setenv("CATCH_REWARD_TOKENS", "-1")
	if _, err := loadConfig(""); err == nil {
		t.Error("expected error")
	}
}
