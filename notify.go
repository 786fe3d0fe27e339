// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"

	"github.com/go-kit/kit/log"

	"github.com/naveen978980/Fishnet-app/pkg/catches"
	"github.com/naveen978980/Fishnet-app/pkg/ledger"
)

// logNotifier writes token and catch events to the log. Device push
// delivery hooks in here.
type logNotifier struct {
	logger log.Logger
}

func (n logNotifier) LedgerEntry(_ context.Context, e ledger.Entry) {
	verb := "earned"
	amount := e.Delta
	if amount < 0 {
		verb, amount = "spent", -amount
	}
	n.logger.Log("notify", fmt.Sprintf("%s %d tokens: %s", verb, amount, e.Reason), "account", e.AccountID, "balance", e.Balance)
}

func (n logNotifier) CatchRecorded(_ context.Context, r catches.Record) {
	owner := "anonymous"
	if r.OwnerID != nil {
		owner = *r.OwnerID
	}
	n.logger.Log("notify", fmt.Sprintf("catch recorded: %d x %s (%.2f kg)", r.Quantity, r.Species, r.Weight), "account", owner, "catch", r.ID)
}
