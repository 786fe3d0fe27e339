// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package stats computes read-only rollups over the catch store.
//
// Species counts are the number of catch events; the summed quantity is
// reported alongside so "12 fish" style totals stay available.
package stats

import (
	"context"
	"fmt"
	"sort"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
	"github.com/naveen978980/Fishnet-app/pkg/catches"
)

// DefaultRecent is how many catches ForAccount returns by default.
const DefaultRecent = 10

type Global struct {
	TotalCatches  int     `json:"totalCatches"`
	TotalWeight   float64 `json:"totalWeight"`
	TotalQuantity int     `json:"totalQuantity"`
	AvgWeight     float64 `json:"avgWeight"`
	AvgQuantity   float64 `json:"avgQuantity"`
}

type Species struct {
	Species       string  `json:"species"`
	Count         int     `json:"count"`
	TotalWeight   float64 `json:"totalWeight"`
	TotalQuantity int     `json:"totalQuantity"`
	AvgWeight     float64 `json:"avgWeight"`
}

type AccountSummary struct {
	Profile accounts.PublicProfile `json:"profile"`
	Recent  []catches.Record       `json:"recentCatches"`
}

// Summarize rolls records up into global totals. An empty slice gives
// all zeros.
func Summarize(records []catches.Record) Global {
	var g Global
	for i := range records {
		g.TotalCatches++
		g.TotalWeight += records[i].Weight
		g.TotalQuantity += records[i].Quantity
	}
	if g.TotalCatches > 0 {
		g.AvgWeight = g.TotalWeight / float64(g.TotalCatches)
		g.AvgQuantity = float64(g.TotalQuantity) / float64(g.TotalCatches)
	}
	return g
}

// GroupBySpecies rolls records up per species, ordered by descending
// count with ties broken by ascending species name.
func GroupBySpecies(records []catches.Record) []Species {
	idx := make(map[string]int)
	out := make([]Species, 0)
	for i := range records {
		r := &records[i]
		n, ok := idx[r.Species]
		if !ok {
			n = len(out)
			idx[r.Species] = n
			out = append(out, Species{Species: r.Species})
		}
		out[n].Count++
		out[n].TotalWeight += r.Weight
		out[n].TotalQuantity += r.Quantity
	}
	for i := range out {
		out[i].AvgWeight = out[i].TotalWeight / float64(out[i].Count)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Count != out[j].Count {
			return out[i].Count > out[j].Count
		}
		return out[i].Species < out[j].Species
	})
	return out
}

type Source interface {
	All(ctx context.Context) ([]catches.Record, error)
	Recent(ctx context.Context, accountID string, limit int) ([]catches.Record, error)
}

type Recomputer interface {
	Recompute(ctx context.Context, accountID string) (accounts.Stats, error)
}

type Profiles interface {
	LookupByID(ctx context.Context, id string) (*accounts.Account, error)
}

type Service struct {
	source     Source
	recomputer Recomputer
	profiles   Profiles

	// RecentLimit caps ForAccount's recent catches.
	RecentLimit int
}

func NewService(source Source, recomputer Recomputer, profiles Profiles) *Service {
	return &Service{
		source:      source,
		recomputer:  recomputer,
		profiles:    profiles,
		RecentLimit: DefaultRecent,
	}
}

func (s *Service) Global(ctx context.Context) (Global, error) {
	records, err := s.source.All(ctx)
	if err != nil {
		return Global{}, fmt.Errorf("stats: read catches: %w", err)
	}
	return Summarize(records), nil
}

func (s *Service) BySpecies(ctx context.Context) ([]Species, error) {
	records, err := s.source.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("stats: read catches: %w", err)
	}
	return GroupBySpecies(records), nil
}

// ForAccount recomputes the account's stats before reading its profile,
// so the numbers returned always match the catch store.
func (s *Service) ForAccount(ctx context.Context, accountID string) (AccountSummary, error) {
	if _, err := s.recomputer.Recompute(ctx, accountID); err != nil {
		return AccountSummary{}, err
	}
	acct, err := s.profiles.LookupByID(ctx, accountID)
	if err != nil {
		return AccountSummary{}, err
	}
	limit := s.RecentLimit
	if limit <= 0 {
		limit = DefaultRecent
	}
	recent, err := s.source.Recent(ctx, accountID, limit)
	if err != nil {
		return AccountSummary{}, fmt.Errorf("stats: recent catches: %w", err)
	}
	if recent == nil {
		recent = []catches.Record{}
	}
	return AccountSummary{Profile: acct.Public(), Recent: recent}, nil
}
