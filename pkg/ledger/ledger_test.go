// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package ledger

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memStore struct {
	mu       sync.Mutex
	balances map[string]int64
	entries  map[string][]Entry

	// beforeSwap runs outside the lock, letting tests interleave writers.
	beforeSwap func()
	// failSwaps makes the next n swaps report a conflict.
	failSwaps int
}

func newMemStore() *memStore {
	return &memStore{
		balances: make(map[string]int64),
		entries:  make(map[string][]Entry),
	}
}

func (m *memStore) Balance(_ context.Context, id string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.balances[id]
	if !ok {
		return 0, ErrAccountNotFound
	}
	return b, nil
}

func (m *memStore) Swap(_ context.Context, id string, old int64, e Entry) (bool, error) {
	if m.beforeSwap != nil {
		m.beforeSwap()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failSwaps > 0 {
		m.failSwaps--
		return false, nil
	}
	if m.balances[id] != old {
		return false, nil
	}
	m.balances[id] = e.Balance
	m.entries[id] = append(m.entries[id], e)
	return true, nil
}

func (m *memStore) Entries(_ context.Context, id string, limit int) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []Entry
	es := m.entries[id]
	for i := len(es) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, es[i])
	}
	return out, nil
}

type recordingNotifier struct {
	mu      sync.Mutex
	entries []Entry
}

func (n *recordingNotifier) LedgerEntry(_ context.Context, e Entry) {
	n.mu.Lock()
	n.entries = append(n.entries, e)
	n.mu.Unlock()
}

func TestLedger__EarnSpend(t *testing.T) {
	store := newMemStore()
	store.balances["acct"] = 800
	notifier := &recordingNotifier{}
	svc := New(store, nil, notifier)
	ctx := context.Background()

	bal, err := svc.Earn(ctx, "acct", 40, "recording catch")
	require.NoError(t, err)
	assert.Equal(t, int64(840), bal)

	bal, err = svc.Spend(ctx, "acct", 40, "viewing Tuna details")
	require.NoError(t, err)
	assert.Equal(t, int64(800), bal)

	history, err := svc.History(ctx, "acct", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, int64(-40), history[0].Delta)
	assert.Equal(t, "viewing Tuna details", history[0].Reason)
	assert.Equal(t, int64(40), history[1].Delta)
	assert.Equal(t, int64(840), history[1].Balance)

	require.Len(t, notifier.entries, 2)
	assert.NotEmpty(t, notifier.entries[0].ID)
}

func TestLedger__InvalidAmount(t *testing.T) {
	store := newMemStore()
	store.balances["acct"] = 100
	svc := New(store, nil, nil)

	for _, amount := range []int64{0, -5} {
		_, err := svc.Earn(context.Background(), "acct", amount, "x")
		assert.ErrorIs(t, err, ErrInvalidAmount)
		_, err = svc.Spend(context.Background(), "acct", amount, "x")
		assert.ErrorIs(t, err, ErrInvalidAmount)
	}
	assert.Equal(t, int64(100), store.balances["acct"])
}

func TestLedger__UnknownAccount(t *testing.T) {
	svc := New(newMemStore(), nil, nil)
	_, err := svc.Earn(context.Background(), "missing", 1, "x")
	assert.ErrorIs(t, err, ErrAccountNotFound)
	_, err = svc.History(context.Background(), "missing", 1)
	assert.ErrorIs(t, err, ErrAccountNotFound)
}

func TestLedger__InsufficientBalance(t *testing.T) {
	store := newMemStore()
	store.balances["acct"] = 30
	svc := New(store, nil, nil)

	_, err := svc.Spend(context.Background(), "acct", 31, "market")
	var insufficient *InsufficientBalanceError
	require.True(t, errors.As(err, &insufficient), "got %v", err)
	assert.Equal(t, int64(31), insufficient.Required)
	assert.Equal(t, int64(30), insufficient.Available)
	assert.Equal(t, int64(1), insufficient.Shortfall())

	assert.Equal(t, int64(30), store.balances["acct"])
	assert.Empty(t, store.entries["acct"])

	// spending the whole balance is fine
	bal, err := svc.Spend(context.Background(), "acct", 30, "market")
	require.NoError(t, err)
	assert.Equal(t, int64(0), bal)
}

func TestLedger__Overflow(t *testing.T) {
	store := newMemStore()
	store.balances["acct"] = math.MaxInt64 - 1
	svc := New(store, nil, nil)

	_, err := svc.Earn(context.Background(), "acct", 2, "x")
	assert.ErrorIs(t, err, ErrOverflow)
	bal, err := svc.Earn(context.Background(), "acct", 1, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(math.MaxInt64), bal)
}

func TestLedger__RetriesConflicts(t *testing.T) {
	store := newMemStore()
	store.balances["acct"] = 10
	store.failSwaps = 3
	svc := New(store, nil, nil)

	bal, err := svc.Earn(context.Background(), "acct", 5, "x")
	require.NoError(t, err)
	assert.Equal(t, int64(15), bal)

	store.failSwaps = 100
	svc.MaxRetries = 4
	_, err = svc.Earn(context.Background(), "acct", 5, "x")
	assert.ErrorIs(t, err, ErrConflict)
	assert.Equal(t, int64(15), store.balances["acct"])
}

// TestLedger__ConcurrentSpends races two spends of 60 against a balance
// of 100. Both have read the balance before either swaps.
func TestLedger__ConcurrentSpends(t *testing.T) {
	store := newMemStore()
	store.balances["acct"] = 100

	var calls int32
	var ready sync.WaitGroup
	ready.Add(2)
	store.beforeSwap = func() {
		// first two callers rendezvous, later retries pass through
		if atomic.AddInt32(&calls, 1) > 2 {
			return
		}
		ready.Done()
		ready.Wait()
	}
	svc := New(store, nil, nil)

	type result struct {
		bal int64
		err error
	}
	results := make(chan result, 2)
	for i := 0; i < 2; i++ {
		go func() {
			bal, err := svc.Spend(context.Background(), "acct", 60, "market")
			results <- result{bal, err}
		}()
	}

	var ok, failed int
	for i := 0; i < 2; i++ {
		r := <-results
		if r.err == nil {
			ok++
			assert.Equal(t, int64(40), r.bal)
			continue
		}
		failed++
		var insufficient *InsufficientBalanceError
		require.True(t, errors.As(r.err, &insufficient), "got %v", r.err)
		assert.Equal(t, int64(40), insufficient.Available)
		assert.Equal(t, int64(60), insufficient.Required)
	}
	assert.Equal(t, 1, ok)
	assert.Equal(t, 1, failed)
	assert.Equal(t, int64(40), store.balances["acct"])
	assert.Len(t, store.entries["acct"], 1)
}

func TestLedger__ConcurrentMixedOperations(t *testing.T) {
	const grant = 100
	store := newMemStore()
	store.balances["acct"] = grant
	svc := New(store, nil, nil)
	svc.MaxRetries = 1000

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			svc.Earn(context.Background(), "acct", 3, "earn")
		}()
		go func() {
			defer wg.Done()
			svc.Spend(context.Background(), "acct", 7, "spend")
		}()
	}
	wg.Wait()

	var sum int64
	for _, e := range store.entries["acct"] {
		require.GreaterOrEqual(t, e.Balance, int64(0))
		sum += e.Delta
	}
	assert.Equal(t, int64(grant)+sum, store.balances["acct"])
}

// TestLedger__SequenceInvariant checks balance == grant + sum(deltas)
// and non-negativity over random operation sequences.
func TestLedger__SequenceInvariant(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for round := 0; round < 25; round++ {
		grant := int64(rng.Intn(200))
		store := newMemStore()
		store.balances["acct"] = grant
		svc := New(store, nil, nil)

		var sum int64
		for i := 0; i < 100; i++ {
			amount := int64(rng.Intn(80) + 1)
			if rng.Intn(2) == 0 {
				_, err := svc.Earn(context.Background(), "acct", amount, "earn")
				require.NoError(t, err)
				sum += amount
			} else {
				before := store.balances["acct"]
				_, err := svc.Spend(context.Background(), "acct", amount, "spend")
				if amount > before {
					var insufficient *InsufficientBalanceError
					require.True(t, errors.As(err, &insufficient))
					assert.Equal(t, before, insufficient.Available)
					assert.Equal(t, before, store.balances["acct"])
				} else {
					require.NoError(t, err)
					sum -= amount
				}
			}
			require.GreaterOrEqual(t, store.balances["acct"], int64(0))
		}
		assert.Equal(t, grant+sum, store.balances["acct"])
	}
}
