// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package catches validates, stores and edits catch records and keeps
// each owner's derived statistics in step with what is stored.
package catches

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/go-kit/kit/metrics/prometheus"
	"github.com/google/uuid"
	stdprometheus "github.com/prometheus/client_golang/prometheus"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
)

var (
	ErrNotFound  = errors.New("catch not found")
	ErrForbidden = errors.New("not allowed to change this catch")
)

// DefaultReward is what the app has always paid for recording a catch.
const DefaultReward int64 = 40

// RewardReason is the ledger reason used for catch rewards.
const RewardReason = "recording catch"

var (
	recorded = prometheus.NewCounterFrom(stdprometheus.CounterOpts{
		Name: "catches_recorded",
		Help: "Count of catch submissions by outcome",
	}, []string{"result"})
)

// Filter narrows List. Zero values mean no filter.
type Filter struct {
	Species string
	OwnerID string
	Limit   int
	Offset  int
}

type Store interface {
	Insert(ctx context.Context, r Record) error
	Get(ctx context.Context, id string) (Record, error)
	Update(ctx context.Context, r Record) error
	Delete(ctx context.Context, id string) error

	// List returns one page, newest first, and the total matching.
	List(ctx context.Context, f Filter) ([]Record, int, error)

	// All returns every record. Used by the aggregation rollups.
	All(ctx context.Context) ([]Record, error)

	// Recent lists the newest records owned by accountID.
	Recent(ctx context.Context, accountID string, limit int) ([]Record, error)

	// Restat reads every record owned by accountID and stores tally's
	// result on the account within one transaction, so the stats always
	// match a single snapshot. accounts.ErrNotFound is returned for
	// unknown accounts.
	Restat(ctx context.Context, accountID string, tally func([]Record) accounts.Stats) (accounts.Stats, error)
}

// Rewarder pays the owner for a recorded catch.
type Rewarder interface {
	Earn(ctx context.Context, accountID string, amount int64, reason string) (int64, error)
}

type Notifier interface {
	CatchRecorded(ctx context.Context, r Record)
}

type Owners interface {
	LookupByID(ctx context.Context, id string) (*accounts.Account, error)
}

type Config struct {
	// Reward is paid to the owner of each new record. Zero disables it.
	Reward int64

	// RequireLocation rejects new records without coordinates.
	RequireLocation bool
}

type Service struct {
	store    Store
	owners   Owners
	rewarder Rewarder
	notifier Notifier
	logger   log.Logger
	cfg      Config

	now func() time.Time
}

func NewService(store Store, owners Owners, rewarder Rewarder, notifier Notifier, logger log.Logger, cfg Config) *Service {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Service{
		store:    store,
		owners:   owners,
		rewarder: rewarder,
		notifier: notifier,
		logger:   logger,
		cfg:      cfg,
		now:      time.Now,
	}
}

// Ingested is the outcome of a successful Record call.
type Ingested struct {
	Record Record `json:"catch"`

	// Tokens is the owner's balance after the reward, nil when no
	// reward was paid.
	Tokens *int64 `json:"tokens"`

	Stats *accounts.Stats `json:"stats,omitempty"`
}

// Record validates sub and stores it. ownerID may be nil for an
// anonymous record; an owner that doesn't resolve to an active account is
// stored as anonymous too. Validation failures return *ValidationError
// and nothing is written.
//
// The owner's stats recompute and reward happen after the record is
// committed. Their failures are logged and don't undo the record.
func (s *Service) Record(ctx context.Context, sub Submission, ownerID *string) (Ingested, error) {
	rec, err := Validate(sub, s.cfg.RequireLocation)
	if err != nil {
		recorded.With("result", "invalid").Add(1)
		return Ingested{}, err
	}

	var owner *accounts.Account
	if ownerID != nil && *ownerID != "" && s.owners != nil {
		owner, err = s.owners.LookupByID(ctx, *ownerID)
		switch {
		case errors.Is(err, accounts.ErrNotFound):
			owner = nil
		case err != nil:
			recorded.With("result", "error").Add(1)
			return Ingested{}, fmt.Errorf("catches: lookup owner: %w", err)
		}
		if owner != nil && !owner.Active {
			owner = nil
		}
	}

	now := s.now().UTC()
	rec.ID = uuid.NewString()
	rec.CaughtAt = now
	rec.CreatedAt = now
	rec.UpdatedAt = now
	if owner != nil {
		id := owner.ID
		rec.OwnerID = &id
		rec.OwnerName = owner.Name
	}

	if err := s.store.Insert(ctx, rec); err != nil {
		recorded.With("result", "error").Add(1)
		return Ingested{}, fmt.Errorf("catches: insert: %w", err)
	}
	recorded.With("result", "ok").Add(1)
	s.logger.Log("catches", "recorded", "id", rec.ID, "species", rec.Species, "owner", owner != nil)

	out := Ingested{Record: rec}
	if owner == nil {
		return out, nil
	}

	if stats, err := s.Recompute(ctx, owner.ID); err != nil {
		s.logger.Log("catches", "stats recompute failed", "account", owner.ID, "error", err)
	} else {
		out.Stats = &stats
	}

	if s.rewarder != nil && s.cfg.Reward > 0 {
		bal, err := s.rewarder.Earn(ctx, owner.ID, s.cfg.Reward, RewardReason)
		if err != nil {
			s.logger.Log("catches", "reward failed", "account", owner.ID, "error", err)
		} else {
			out.Tokens = &bal
		}
	}

	if s.notifier != nil {
		s.notifier.CatchRecorded(ctx, rec)
	}
	return out, nil
}

// Recompute rebuilds the account's stats from the catch store. Calling
// it again without intervening writes yields the same numbers.
func (s *Service) Recompute(ctx context.Context, accountID string) (accounts.Stats, error) {
	return s.store.Restat(ctx, accountID, Tally)
}

func (s *Service) Get(ctx context.Context, id string) (Record, error) {
	return s.store.Get(ctx, id)
}

func (s *Service) List(ctx context.Context, f Filter) ([]Record, int, error) {
	return s.store.List(ctx, f)
}

// Edit applies changes to a record owned by editor. Admins may edit any
// record, anonymous ones included.
func (s *Service) Edit(ctx context.Context, id string, edit Edit, editor *accounts.Account) (Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !mayChange(rec, editor) {
		return Record{}, ErrForbidden
	}

	// Only edits that name a location need to carry one; older records
	// without coordinates stay editable.
	updated, err := ApplyEdit(rec, edit, false)
	if err != nil {
		return Record{}, err
	}
	updated.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, updated); err != nil {
		return Record{}, fmt.Errorf("catches: update: %w", err)
	}
	s.restatOwner(ctx, updated)
	return updated, nil
}

// Delete removes a record. Rewards already paid for it are kept.
func (s *Service) Delete(ctx context.Context, id string, editor *accounts.Account) (Record, error) {
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	if !mayChange(rec, editor) {
		return Record{}, ErrForbidden
	}
	if err := s.store.Delete(ctx, id); err != nil {
		return Record{}, fmt.Errorf("catches: delete: %w", err)
	}
	s.restatOwner(ctx, rec)
	return rec, nil
}

// Verify marks a record as checked by a researcher or admin.
func (s *Service) Verify(ctx context.Context, id string, verifier *accounts.Account) (Record, error) {
	if verifier == nil || !verifier.Role.CanVerify() {
		return Record{}, ErrForbidden
	}
	rec, err := s.store.Get(ctx, id)
	if err != nil {
		return Record{}, err
	}
	rec.Verified = true
	rec.UpdatedAt = s.now().UTC()
	if err := s.store.Update(ctx, rec); err != nil {
		return Record{}, fmt.Errorf("catches: verify: %w", err)
	}
	return rec, nil
}

func (s *Service) restatOwner(ctx context.Context, rec Record) {
	if rec.OwnerID == nil {
		return
	}
	if _, err := s.Recompute(ctx, *rec.OwnerID); err != nil && !errors.Is(err, accounts.ErrNotFound) {
		s.logger.Log("catches", "stats recompute failed", "account", *rec.OwnerID, "error", err)
	}
}

func mayChange(rec Record, editor *accounts.Account) bool {
	if editor == nil {
		return false
	}
	if editor.Role == accounts.RoleAdmin {
		return true
	}
	return rec.OwnedBy(editor.ID)
}

// Tally derives account stats from records. Species are counted as
// distinct names after trimming.
func Tally(records []Record) accounts.Stats {
	species := make(map[string]struct{})
	var st accounts.Stats
	for i := range records {
		st.TotalCatches++
		st.TotalWeight += records[i].Weight
		species[records[i].Species] = struct{}{}
	}
	st.UniqueSpecies = len(species)
	return st
}
