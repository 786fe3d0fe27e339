// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
	"github.com/naveen978980/Fishnet-app/pkg/catches"
)

const catchColumns = `catch_id, species, quantity, weight, length, latitude, longitude, address,
  weather_temperature, weather_condition, weather_wind_speed, caught_at, client_date, client_time,
  notes, owner_id, owner_name, verified, created_at, updated_at`

type sqliteCatchRepository struct {
	db *sql.DB
}

var _ catches.Store = (*sqliteCatchRepository)(nil)

func newSqliteCatchRepository(db *sql.DB) *sqliteCatchRepository {
	return &sqliteCatchRepository{db: db}
}

// catchArgs flattens r in catchColumns order.
func catchArgs(r catches.Record) []interface{} {
	var (
		lat, lon  sql.NullFloat64
		address   sql.NullString
		temp, wnd sql.NullFloat64
		condition sql.NullString
		owner     sql.NullString
	)
	if r.Location != nil {
		lat = sql.NullFloat64{Float64: r.Location.Latitude, Valid: true}
		lon = sql.NullFloat64{Float64: r.Location.Longitude, Valid: true}
		address = sql.NullString{String: r.Location.Address, Valid: true}
	}
	if r.Weather != nil {
		temp = nullFloat(r.Weather.Temperature)
		wnd = nullFloat(r.Weather.WindSpeed)
		condition = sql.NullString{String: r.Weather.Condition, Valid: r.Weather.Condition != ""}
	}
	if r.OwnerID != nil {
		owner = sql.NullString{String: *r.OwnerID, Valid: true}
	}
	return []interface{}{
		r.ID, r.Species, r.Quantity, r.Weight, nullFloat(r.Length), lat, lon, address,
		temp, condition, wnd, toUnixNano(r.CaughtAt), r.Date, r.Time,
		r.Notes, owner, r.OwnerName, boolInt(r.Verified), toUnixNano(r.CreatedAt), toUnixNano(r.UpdatedAt),
	}
}

func scanCatch(row rowScanner) (catches.Record, error) {
	var (
		r                    catches.Record
		length, lat, lon     sql.NullFloat64
		address, condition   sql.NullString
		temp, wnd            sql.NullFloat64
		owner                sql.NullString
		verified             int
		caughtAt             int64
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&r.ID, &r.Species, &r.Quantity, &r.Weight, &length, &lat, &lon, &address,
		&temp, &condition, &wnd, &caughtAt, &r.Date, &r.Time,
		&r.Notes, &owner, &r.OwnerName, &verified, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return catches.Record{}, catches.ErrNotFound
		}
		return catches.Record{}, err
	}
	r.Length = floatPtr(length)
	if lat.Valid && lon.Valid {
		r.Location = &catches.Location{Latitude: lat.Float64, Longitude: lon.Float64, Address: address.String}
	}
	if temp.Valid || wnd.Valid || condition.Valid {
		r.Weather = &catches.Weather{Temperature: floatPtr(temp), WindSpeed: floatPtr(wnd), Condition: condition.String}
	}
	if owner.Valid {
		id := owner.String
		r.OwnerID = &id
	}
	r.Verified = verified == 1
	r.CaughtAt = fromUnixNano(caughtAt)
	r.CreatedAt = fromUnixNano(createdAt)
	r.UpdatedAt = fromUnixNano(updatedAt)
	return r, nil
}

func scanCatches(rows *sql.Rows) ([]catches.Record, error) {
	defer rows.Close()
	var out []catches.Record
	for rows.Next() {
		r, err := scanCatch(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *sqliteCatchRepository) Insert(ctx context.Context, r catches.Record) error {
	query := `insert into catches (` + catchColumns + `) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	if _, err := s.db.ExecContext(ctx, query, catchArgs(r)...); err != nil {
		return fmt.Errorf("insert catch: %w", err)
	}
	return nil
}

func (s *sqliteCatchRepository) Get(ctx context.Context, id string) (catches.Record, error) {
	query := `select ` + catchColumns + ` from catches where catch_id = ? limit 1;`
	r, err := scanCatch(s.db.QueryRowContext(ctx, query, id))
	if err != nil && err != catches.ErrNotFound {
		return r, fmt.Errorf("get catch: %w", err)
	}
	return r, err
}

func (s *sqliteCatchRepository) Update(ctx context.Context, r catches.Record) error {
	args := catchArgs(r)
	// everything but catch_id, then catch_id for the where clause
	args = append(args[1:], r.ID)
	query := `update catches set species = ?, quantity = ?, weight = ?, length = ?, latitude = ?, longitude = ?, address = ?,
  weather_temperature = ?, weather_condition = ?, weather_wind_speed = ?, caught_at = ?, client_date = ?, client_time = ?,
  notes = ?, owner_id = ?, owner_name = ?, verified = ?, created_at = ?, updated_at = ? where catch_id = ?;`
	res, err := s.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update catch: %w", err)
	}
	return expectOne(res, catches.ErrNotFound)
}

func (s *sqliteCatchRepository) Delete(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `delete from catches where catch_id = ?;`, id)
	if err != nil {
		return fmt.Errorf("delete catch: %w", err)
	}
	return expectOne(res, catches.ErrNotFound)
}

func (s *sqliteCatchRepository) List(ctx context.Context, f catches.Filter) ([]catches.Record, int, error) {
	var (
		where []string
		args  []interface{}
	)
	if f.Species != "" {
		where = append(where, "species = ? collate nocase")
		args = append(args, f.Species)
	}
	if f.OwnerID != "" {
		where = append(where, "owner_id = ?")
		args = append(args, f.OwnerID)
	}
	clause := ""
	if len(where) > 0 {
		clause = " where " + strings.Join(where, " and ")
	}

	var total int
	if err := s.db.QueryRowContext(ctx, `select count(*) from catches`+clause+`;`, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count catches: %w", err)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = -1 // sqlite: no limit
	}
	query := `select ` + catchColumns + ` from catches` + clause + ` order by caught_at desc, rowid desc limit ? offset ?;`
	rows, err := s.db.QueryContext(ctx, query, append(args, limit, f.Offset)...)
	if err != nil {
		return nil, 0, fmt.Errorf("list catches: %w", err)
	}
	out, err := scanCatches(rows)
	if err != nil {
		return nil, 0, fmt.Errorf("list catches: %w", err)
	}
	return out, total, nil
}

func (s *sqliteCatchRepository) All(ctx context.Context) ([]catches.Record, error) {
	rows, err := s.db.QueryContext(ctx, `select `+catchColumns+` from catches order by caught_at asc, rowid asc;`)
	if err != nil {
		return nil, fmt.Errorf("read catches: %w", err)
	}
	return scanCatches(rows)
}

func (s *sqliteCatchRepository) Recent(ctx context.Context, accountID string, limit int) ([]catches.Record, error) {
	query := `select ` + catchColumns + ` from catches where owner_id = ? order by caught_at desc, rowid desc limit ?;`
	rows, err := s.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("recent catches: %w", err)
	}
	return scanCatches(rows)
}

// Restat reads the owner's records and writes the tally inside one
// transaction. Write transactions are immediate (see sqliteDSN) so the
// snapshot can't change underneath the update.
func (s *sqliteCatchRepository) Restat(ctx context.Context, accountID string, tally func([]catches.Record) accounts.Stats) (accounts.Stats, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return accounts.Stats{}, fmt.Errorf("restat: begin: %w", err)
	}
	defer tx.Rollback()

	var exists int
	err = tx.QueryRowContext(ctx, `select 1 from accounts where account_id = ?;`, accountID).Scan(&exists)
	if err == sql.ErrNoRows {
		return accounts.Stats{}, accounts.ErrNotFound
	}
	if err != nil {
		return accounts.Stats{}, fmt.Errorf("restat: lookup account: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `select `+catchColumns+` from catches where owner_id = ? order by caught_at asc, rowid asc;`, accountID)
	if err != nil {
		return accounts.Stats{}, fmt.Errorf("restat: read catches: %w", err)
	}
	records, err := scanCatches(rows)
	if err != nil {
		return accounts.Stats{}, fmt.Errorf("restat: read catches: %w", err)
	}

	st := tally(records)
	_, err = tx.ExecContext(ctx, `update accounts set total_catches = ?, total_weight = ?, unique_species = ? where account_id = ?;`,
		st.TotalCatches, st.TotalWeight, st.UniqueSpecies, accountID)
	if err != nil {
		return accounts.Stats{}, fmt.Errorf("restat: write stats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return accounts.Stats{}, fmt.Errorf("restat: commit: %w", err)
	}
	return st, nil
}
