// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
	"github.com/joho/godotenv"
)

type config struct {
	HTTPAddr  string `env:"HTTP_ADDR,default=:8080"`
	AdminAddr string `env:"ADMIN_ADDR,default=:9090"`

	SqlitePath    string `env:"SQLITE_DB_PATH,default=fishnet.db"`
	SessionDBPath string `env:"SESSION_DB_PATH,default=sessions.db"`
	ClientDBPath  string `env:"CLIENT_DB_PATH,default=clients.db"`

	// SessionSecret signs access tokens. A random one is used when empty,
	// which still works because tokens are looked up in the token store.
	SessionSecret string        `env:"SESSION_SECRET"`
	SessionTTL    time.Duration `env:"SESSION_TTL,default=720h"`
	ClientID      string        `env:"APP_CLIENT_ID,default=fishnet-mobile"`
	ClientSecret  string        `env:"APP_CLIENT_SECRET"`

	StartingTokens  int64 `env:"STARTING_TOKENS,default=800"`
	CatchReward     int64 `env:"CATCH_REWARD_TOKENS,default=40"`
	RequireLocation bool  `env:"REQUIRE_CATCH_LOCATION,default=true"`
	RecentCatches   int   `env:"RECENT_CATCHES,default=10"`

	LoginPerMinute int `env:"LOGIN_RATE_PER_MINUTE,default=60"`
	LoginBurst     int `env:"LOGIN_BURST,default=5"`

	CORSOrigins string `env:"CORS_ORIGINS,default=*"`
}

// loadConfig reads envFile (a missing file is fine) and then the
// process environment.
func loadConfig(envFile string) (*config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !isNotExist(err) {
			return nil, fmt.Errorf("problem loading %s: %v", envFile, err)
		}
	}

	var cfg config
	if err := envdecode.Decode(&cfg); err != nil && err != envdecode.ErrNoTargetFieldsAreSet {
		return nil, fmt.Errorf("problem reading environment: %v", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (cfg *config) validate() error {
	cfg.SqlitePath = cleanPath(cfg.SqlitePath, "fishnet.db")
	cfg.SessionDBPath = cleanPath(cfg.SessionDBPath, "sessions.db")
	cfg.ClientDBPath = cleanPath(cfg.ClientDBPath, "clients.db")

	if cfg.StartingTokens < 0 {
		return errors.New("STARTING_TOKENS can't be negative")
	}
	if cfg.CatchReward < 0 {
		return errors.New("CATCH_REWARD_TOKENS can't be negative")
	}
	if cfg.SessionTTL <= 0 {
		return errors.New("SESSION_TTL must be positive")
	}
	if cfg.SessionSecret == "" {
		cfg.SessionSecret = randomSecret()
	}
	if cfg.ClientSecret == "" {
		cfg.ClientSecret = randomSecret()
	}
	return nil
}

func (cfg *config) corsOrigins() []string {
	var out []string
	for _, o := range strings.Split(cfg.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			out = append(out, o)
		}
	}
	if len(out) == 0 {
		out = []string{"*"}
	}
	return out
}

// cleanPath falls back to def if path is empty or trying to escape.
// Don't filepath.Abs to avoid full-fs reads.
func cleanPath(path, def string) string {
	if path == "" || strings.Contains(path, "..") {
		return def
	}
	return path
}

func randomSecret() string {
	bs := make([]byte, 32)
	if _, err := rand.Read(bs); err != nil {
		panic(fmt.Sprintf("crypto/rand: %v", err))
	}
	return hex.EncodeToString(bs)
}

func isNotExist(err error) bool {
	return errors.Is(err, os.ErrNotExist)
}
