// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/go-kit/kit/log"
	kitprom "github.com/go-kit/kit/metrics/prometheus"
	stdprom "github.com/prometheus/client_golang/prometheus"
)

var (
	// migrations holds all our SQL migrations to be done (in order)
	migrations = []string{
		// accounts hold identity, profile, the token balance and cached stats
		`create table if not exists accounts(
  account_id text primary key,
  name text not null,
  email text not null unique,
  password_hash text not null,
  phone text not null default '',
  license_id text not null unique,
  region text not null default '',
  boat_name text not null default '',
  experience integer not null default 0,
  profile_photo text not null default '',
  role text not null default 'fisherman',
  verified integer not null default 0,
  active integer not null default 1,
  token_balance integer not null check (token_balance >= 0),
  token_grant integer not null default 0,
  total_catches integer not null default 0,
  total_weight real not null default 0,
  unique_species integer not null default 0,
  created_at integer not null,
  updated_at integer not null
);`,
		`create table if not exists catches(
  catch_id text primary key,
  species text not null,
  quantity integer not null check (quantity >= 1),
  weight real not null check (weight >= 0),
  length real,
  latitude real,
  longitude real,
  address text,
  weather_temperature real,
  weather_condition text,
  weather_wind_speed real,
  caught_at integer not null,
  client_date text not null default '',
  client_time text not null default '',
  notes text not null default '',
  owner_id text references accounts(account_id),
  owner_name text not null default '',
  verified integer not null default 0,
  created_at integer not null,
  updated_at integer not null
);`,
		`create index if not exists catches_owner_idx on catches(owner_id, caught_at);`,
		`create index if not exists catches_species_idx on catches(species);`,
		`create index if not exists catches_caught_at_idx on catches(caught_at);`,
		// ledger_entries is append only
		`create table if not exists ledger_entries(
  entry_id text primary key,
  account_id text not null references accounts(account_id),
  delta integer not null,
  reason text not null,
  balance integer not null check (balance >= 0),
  created_at integer not null
);`,
		`create index if not exists ledger_entries_account_idx on ledger_entries(account_id, created_at);`,
	}

	// Metrics
	connections = kitprom.NewGaugeFrom(stdprom.GaugeOpts{
		Name: "sqlite_connections",
		Help: "How many sqlite connections and what status they're in.",
	}, []string{"state"})
)

type promMetricCollector struct {
	interval time.Duration
}

func (p promMetricCollector) run(ctx context.Context, db *sql.DB) {
	if db == nil {
		return
	}
	interval := p.interval
	if interval <= 0 {
		interval = 10 * time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()

	for {
		stats := db.Stats()
		connections.With("state", "idle").Set(float64(stats.Idle))
		connections.With("state", "inuse").Set(float64(stats.InUse))
		connections.With("state", "open").Set(float64(stats.OpenConnections))

		select {
		case <-ctx.Done():
			return
		case <-t.C:
		}
	}
}

// sqliteDSN enables foreign keys, WAL and immediate write transactions
// so concurrent writers queue on the busy timeout instead of failing.
func sqliteDSN(path string) string {
	return fmt.Sprintf("file:%s?_busy_timeout=5000&_foreign_keys=1&_journal_mode=WAL&_txlock=immediate", path)
}

func createConnection(logger log.Logger, path string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", sqliteDSN(path))
	if err != nil {
		err = fmt.Errorf("problem opening sqlite3 file: %v", err)
		logger.Log("sqlite", err)
		return nil, err
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("problem connecting to sqlite3 file %s: %v", path, err)
	}
	return db, nil
}

// migrate runs our database migrations (defined at the top of this file)
// over a sqlite database it creates first.
// To configure where on disk the sqlite db is set SQLITE_DB_PATH.
//
// You use db like any other database/sql driver.
//
// https://github.com/mattn/go-sqlite3/blob/master/_example/simple/simple.go
func migrate(logger log.Logger, path string) (*sql.DB, error) {
	db, err := createConnection(logger, path)
	if err != nil {
		return nil, err
	}

	logger.Log("sqlite", fmt.Sprintf("migrating %s", path))
	for i := range migrations {
		row := migrations[i]
		res, err := db.Exec(row)
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("migration #%d [%s...] had problem: %v", i, row[:40], err)
		}
		n, err := res.RowsAffected()
		if err == nil {
			logger.Log("sqlite", fmt.Sprintf("migration #%d [%s...] changed %d rows", i, strings.Join(strings.Fields(row[:40]), " "), n))
		}
	}
	logger.Log("sqlite", "finished migrations")

	return db, nil
}

// uniqueViolation returns the "table.column" named by a UNIQUE
// constraint failure, or "" for any other error.
func uniqueViolation(err error) string {
	var serr sqlite3.Error
	if !errors.As(err, &serr) {
		return ""
	}
	if serr.Code != sqlite3.ErrConstraint {
		return ""
	}
	if serr.ExtendedCode != sqlite3.ErrConstraintUnique && serr.ExtendedCode != sqlite3.ErrConstraintPrimaryKey {
		return ""
	}
	// e.g. "UNIQUE constraint failed: accounts.email"
	msg := serr.Error()
	if idx := strings.LastIndex(msg, ": "); idx >= 0 {
		return strings.TrimSpace(msg[idx+2:])
	}
	return msg
}

func toUnixNano(t time.Time) int64 {
	return t.UTC().UnixNano()
}

func fromUnixNano(n int64) time.Time {
	return time.Unix(0, n).UTC()
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func floatPtr(n sql.NullFloat64) *float64 {
	if !n.Valid {
		return nil
	}
	v := n.Float64
	return &v
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
