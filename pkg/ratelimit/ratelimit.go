// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package ratelimit keeps one token bucket per key, typically a client
// address or an email being logged into.
package ratelimit

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

type entry struct {
	limiter *rate.Limiter
	seen    time.Time
}

type Keyed struct {
	mu      sync.Mutex
	buckets map[string]*entry

	limit rate.Limit
	burst int

	// Idle buckets older than this are dropped by Prune.
	idle time.Duration

	now func() time.Time
}

// New allows perMinute events per key, bursting up to burst. A perMinute
// of zero or less disables limiting.
func New(perMinute int, burst int, idle time.Duration) *Keyed {
	limit := rate.Inf
	if perMinute > 0 {
		limit = rate.Limit(float64(perMinute) / 60.0)
	}
	if burst <= 0 {
		burst = 1
	}
	if idle <= 0 {
		idle = 10 * time.Minute
	}
	return &Keyed{
		buckets: make(map[string]*entry),
		limit:   limit,
		burst:   burst,
		idle:    idle,
		now:     time.Now,
	}
}

// Allow reports whether key may proceed right now and consumes a token
// when it may.
func (k *Keyed) Allow(key string) bool {
	now := k.now()

	k.mu.Lock()
	e, ok := k.buckets[key]
	if !ok {
		e = &entry{limiter: rate.NewLimiter(k.limit, k.burst)}
		k.buckets[key] = e
	}
	e.seen = now
	k.mu.Unlock()

	return e.limiter.AllowN(now, 1)
}

// Prune removes idle buckets and returns how many were dropped.
func (k *Keyed) Prune() int {
	cutoff := k.now().Add(-k.idle)

	k.mu.Lock()
	defer k.mu.Unlock()

	n := 0
	for key, e := range k.buckets {
		if e.seen.Before(cutoff) {
			delete(k.buckets, key)
			n++
		}
	}
	return n
}

// Len is the number of tracked keys.
func (k *Keyed) Len() int {
	k.mu.Lock()
	defer k.mu.Unlock()
	return len(k.buckets)
}

// Run prunes every interval until ctx is done.
func (k *Keyed) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			k.Prune()
		}
	}
}
