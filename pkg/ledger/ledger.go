// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package ledger adjusts account token balances.
//
// Every change is a compare-and-swap against the stored balance followed
// by an appended Entry, both committed together by the Store. Conflicting
// writers re-read and retry, so concurrent spends can't drive a balance
// below zero or lose an update.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	"github.com/google/uuid"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

var (
	ErrAccountNotFound = errors.New("ledger: account not found")
	ErrInvalidAmount   = errors.New("ledger: amount must be a positive integer")
	ErrOverflow        = errors.New("ledger: balance would overflow")

	// ErrConflict is returned after MaxRetries lost compare-and-swaps.
	ErrConflict = errors.New("ledger: too many concurrent balance updates")
)

// DefaultMaxRetries bounds the compare-and-swap loop.
const DefaultMaxRetries = 16

var (
	operations = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "ledger_operations",
		Help: "Count of ledger operations by kind and outcome",
	}, []string{"kind", "result"})
	casConflicts = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "ledger_cas_conflicts",
		Help: "Count of balance compare-and-swap conflicts that were retried",
	}, []string{})
)

// InsufficientBalanceError reports a spend that was refused. No balance
// change happens when it's returned.
type InsufficientBalanceError struct {
	Required  int64
	Available int64
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient tokens: need %d, have %d", e.Required, e.Available)
}

// Shortfall is how many more tokens the spend needed.
func (e *InsufficientBalanceError) Shortfall() int64 {
	return e.Required - e.Available
}

// Entry is one balance change. Delta is positive for earns and
// negative for spends; Balance is the value after the change.
type Entry struct {
	ID        string    `json:"id"`
	AccountID string    `json:"accountId"`
	Delta     int64     `json:"delta"`
	Reason    string    `json:"reason"`
	Balance   int64     `json:"balance"`
	CreatedAt time.Time `json:"createdAt"`
}

type Store interface {
	// Balance returns the current stored balance or ErrAccountNotFound.
	Balance(ctx context.Context, accountID string) (int64, error)

	// Swap sets the balance to entry.Balance only if it still equals old,
	// appending entry in the same transaction. A false return with a nil
	// error means another writer got there first.
	Swap(ctx context.Context, accountID string, old int64, entry Entry) (bool, error)

	// Entries lists the newest entries for an account first.
	Entries(ctx context.Context, accountID string, limit int) ([]Entry, error)
}

// Notifier is told about every committed entry. Delivery to devices
// happens elsewhere.
type Notifier interface {
	LedgerEntry(ctx context.Context, e Entry)
}

type Service struct {
	store    Store
	logger   log.Logger
	notifier Notifier

	MaxRetries int
	now        func() time.Time
}

func New(store Store, logger log.Logger, notifier Notifier) *Service {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Service{
		store:      store,
		logger:     logger,
		notifier:   notifier,
		MaxRetries: DefaultMaxRetries,
		now:        time.Now,
	}
}

// Earn adds amount to the account and returns the new balance.
func (s *Service) Earn(ctx context.Context, accountID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	e, err := s.apply(ctx, accountID, amount, reason)
	s.count("earn", err)
	if err != nil {
		return 0, err
	}
	return e.Balance, nil
}

// Spend removes amount from the account. If the balance can't cover it
// an *InsufficientBalanceError is returned and nothing changes.
func (s *Service) Spend(ctx context.Context, accountID string, amount int64, reason string) (int64, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	e, err := s.apply(ctx, accountID, -amount, reason)
	s.count("spend", err)
	if err != nil {
		return 0, err
	}
	return e.Balance, nil
}

func (s *Service) Balance(ctx context.Context, accountID string) (int64, error) {
	return s.store.Balance(ctx, accountID)
}

func (s *Service) History(ctx context.Context, accountID string, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = 50
	}
	if _, err := s.store.Balance(ctx, accountID); err != nil {
		return nil, err
	}
	return s.store.Entries(ctx, accountID, limit)
}

func (s *Service) apply(ctx context.Context, accountID string, delta int64, reason string) (Entry, error) {
	retries := s.MaxRetries
	if retries <= 0 {
		retries = DefaultMaxRetries
	}
	for attempt := 0; attempt < retries; attempt++ {
		current, err := s.store.Balance(ctx, accountID)
		if err != nil {
			return Entry{}, err
		}
		next, err := nextBalance(current, delta)
		if err != nil {
			return Entry{}, err
		}

		entry := Entry{
			ID:        uuid.NewString(),
			AccountID: accountID,
			Delta:     delta,
			Reason:    reason,
			Balance:   next,
			CreatedAt: s.now().UTC(),
		}
		ok, err := s.store.Swap(ctx, accountID, current, entry)
		if err != nil {
			return Entry{}, fmt.Errorf("ledger: swap balance: %w", err)
		}
		if !ok {
			casConflicts.Add(1)
			continue
		}

		s.logger.Log("ledger", "applied", "account", accountID, "delta", delta, "balance", next, "reason", reason)
		if s.notifier != nil {
			s.notifier.LedgerEntry(ctx, entry)
		}
		return entry, nil
	}
	s.logger.Log("ledger", "giving up after conflicts", "account", accountID, "attempts", retries)
	return Entry{}, ErrConflict
}

func nextBalance(current, delta int64) (int64, error) {
	if delta < 0 {
		if current < -delta {
			return 0, &InsufficientBalanceError{Required: -delta, Available: current}
		}
		return current + delta, nil
	}
	if current > math.MaxInt64-delta {
		return 0, ErrOverflow
	}
	return current + delta, nil
}

func (s *Service) count(kind string, err error) {
	result := "ok"
	var insufficient *InsufficientBalanceError
	switch {
	case err == nil:
	case errors.As(err, &insufficient):
		result = "insufficient"
	default:
		result = "error"
	}
	operations.With("kind", kind, "result", result).Add(1)
}
