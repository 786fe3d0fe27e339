// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/naveen978980/Fishnet-app/pkg/ledger"
)

type sqliteLedgerRepository struct {
	db *sql.DB
}

var _ ledger.Store = (*sqliteLedgerRepository)(nil)

func newSqliteLedgerRepository(db *sql.DB) *sqliteLedgerRepository {
	return &sqliteLedgerRepository{db: db}
}

func (s *sqliteLedgerRepository) Balance(ctx context.Context, accountID string) (int64, error) {
	var balance int64
	err := s.db.QueryRowContext(ctx, `select token_balance from accounts where account_id = ?;`, accountID).Scan(&balance)
	if err == sql.ErrNoRows {
		return 0, ledger.ErrAccountNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read balance: %w", err)
	}
	return balance, nil
}

// Swap guards the update on the balance it read earlier. Zero rows
// affected means someone else moved the balance first.
func (s *sqliteLedgerRepository) Swap(ctx context.Context, accountID string, old int64, entry ledger.Entry) (bool, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("swap: begin: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `update accounts set token_balance = ?, updated_at = ? where account_id = ? and token_balance = ?;`,
		entry.Balance, toUnixNano(entry.CreatedAt), accountID, old)
	if err != nil {
		return false, fmt.Errorf("swap: update balance: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("swap: update balance: %w", err)
	}
	if n == 0 {
		return false, nil
	}

	_, err = tx.ExecContext(ctx, `insert into ledger_entries (entry_id, account_id, delta, reason, balance, created_at) values (?, ?, ?, ?, ?, ?);`,
		entry.ID, accountID, entry.Delta, entry.Reason, entry.Balance, toUnixNano(entry.CreatedAt))
	if err != nil {
		return false, fmt.Errorf("swap: append entry: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("swap: commit: %w", err)
	}
	return true, nil
}

func (s *sqliteLedgerRepository) Entries(ctx context.Context, accountID string, limit int) ([]ledger.Entry, error) {
	if limit <= 0 {
		limit = -1
	}
	query := `select entry_id, account_id, delta, reason, balance, created_at from ledger_entries
  where account_id = ? order by created_at desc, rowid desc limit ?;`
	rows, err := s.db.QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("read entries: %w", err)
	}
	defer rows.Close()

	var out []ledger.Entry
	for rows.Next() {
		var (
			e         ledger.Entry
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.AccountID, &e.Delta, &e.Reason, &e.Balance, &createdAt); err != nil {
			return nil, fmt.Errorf("read entries: %w", err)
		}
		e.CreatedAt = fromUnixNano(createdAt)
		out = append(out, e)
	}
	return out, rows.Err()
}
