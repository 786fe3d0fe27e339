// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
)

const accountColumns = `account_id, name, email, password_hash, phone, license_id, region, boat_name,
  experience, profile_photo, role, verified, active, token_balance, token_grant,
  total_catches, total_weight, unique_species, created_at, updated_at`

type sqliteAccountRepository struct {
	db  *sql.DB
	now func() time.Time
}

var _ accounts.Repository = (*sqliteAccountRepository)(nil)

func newSqliteAccountRepository(db *sql.DB) *sqliteAccountRepository {
	return &sqliteAccountRepository{db: db, now: time.Now}
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanAccount(row rowScanner) (*accounts.Account, error) {
	var (
		a                    accounts.Account
		role                 string
		verified, active     int
		createdAt, updatedAt int64
	)
	err := row.Scan(
		&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.Phone, &a.LicenseID, &a.Region, &a.BoatName,
		&a.Experience, &a.ProfilePhoto, &role, &verified, &active, &a.TokenBalance, &a.TokenGrant,
		&a.Stats.TotalCatches, &a.Stats.TotalWeight, &a.Stats.UniqueSpecies, &createdAt, &updatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, accounts.ErrNotFound
		}
		return nil, err
	}
	a.Role = accounts.Role(role)
	a.Verified = verified == 1
	a.Active = active == 1
	a.CreatedAt = fromUnixNano(createdAt)
	a.UpdatedAt = fromUnixNano(updatedAt)
	return &a, nil
}

// duplicateError maps a UNIQUE failure on accounts to its typed error.
func duplicateError(err error) error {
	switch uniqueViolation(err) {
	case "accounts.email":
		return accounts.ErrDuplicateEmail
	case "accounts.license_id":
		return accounts.ErrDuplicateLicense
	}
	return nil
}

func (r *sqliteAccountRepository) Create(ctx context.Context, a *accounts.Account) error {
	now := r.now().UTC()
	if a.CreatedAt.IsZero() {
		a.CreatedAt = now
	}
	a.UpdatedAt = now
	if a.Role == "" {
		a.Role = accounts.RoleFisherman
	}

	query := `insert into accounts (` + accountColumns + `) values (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?);`
	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.Name, a.Email, a.PasswordHash, a.Phone, a.LicenseID, a.Region, a.BoatName,
		a.Experience, a.ProfilePhoto, string(a.Role), boolInt(a.Verified), boolInt(a.Active), a.TokenBalance, a.TokenGrant,
		a.Stats.TotalCatches, a.Stats.TotalWeight, a.Stats.UniqueSpecies, toUnixNano(a.CreatedAt), toUnixNano(a.UpdatedAt),
	)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("accounts: create: %w", err)
	}
	return nil
}

func (r *sqliteAccountRepository) lookup(ctx context.Context, where string, arg interface{}) (*accounts.Account, error) {
	query := `select ` + accountColumns + ` from accounts where ` + where + ` limit 1;`
	a, err := scanAccount(r.db.QueryRowContext(ctx, query, arg))
	if err != nil && err != accounts.ErrNotFound {
		return nil, fmt.Errorf("accounts: lookup: %w", err)
	}
	return a, err
}

func (r *sqliteAccountRepository) LookupByID(ctx context.Context, id string) (*accounts.Account, error) {
	return r.lookup(ctx, "account_id = ?", id)
}

func (r *sqliteAccountRepository) LookupByEmail(ctx context.Context, email string) (*accounts.Account, error) {
	return r.lookup(ctx, "email = ?", strings.ToLower(email))
}

func (r *sqliteAccountRepository) LookupByLicense(ctx context.Context, license string) (*accounts.Account, error) {
	return r.lookup(ctx, "license_id = ?", license)
}

func (r *sqliteAccountRepository) UpdateProfile(ctx context.Context, a *accounts.Account) error {
	a.UpdatedAt = r.now().UTC()
	query := `update accounts set name = ?, phone = ?, license_id = ?, region = ?, boat_name = ?,
  experience = ?, profile_photo = ?, updated_at = ? where account_id = ?;`
	res, err := r.db.ExecContext(ctx, query,
		a.Name, a.Phone, a.LicenseID, a.Region, a.BoatName, a.Experience, a.ProfilePhoto, toUnixNano(a.UpdatedAt), a.ID)
	if err != nil {
		if dup := duplicateError(err); dup != nil {
			return dup
		}
		return fmt.Errorf("accounts: update profile: %w", err)
	}
	return expectOne(res, accounts.ErrNotFound)
}

func (r *sqliteAccountRepository) UpdatePassword(ctx context.Context, id, hash string) error {
	query := `update accounts set password_hash = ?, updated_at = ? where account_id = ?;`
	res, err := r.db.ExecContext(ctx, query, hash, toUnixNano(r.now()), id)
	if err != nil {
		return fmt.Errorf("accounts: update password: %w", err)
	}
	return expectOne(res, accounts.ErrNotFound)
}

func (r *sqliteAccountRepository) Deactivate(ctx context.Context, id string) error {
	query := `update accounts set active = 0, updated_at = ? where account_id = ?;`
	res, err := r.db.ExecContext(ctx, query, toUnixNano(r.now()), id)
	if err != nil {
		return fmt.Errorf("accounts: deactivate: %w", err)
	}
	return expectOne(res, accounts.ErrNotFound)
}

// expectOne returns notFound when res touched no rows.
func expectOne(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
