// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package ratelimit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestKeyed__Allow(t *testing.T) {
	now := time.Unix(1000, 0)
	k := New(60, 2, time.Minute)
	k.now = func() time.Time { return now }

	assert.True(t, k.Allow("1.2.3.4"))
	assert.True(t, k.Allow("1.2.3.4"))
	assert.False(t, k.Allow("1.2.3.4"), "burst exhausted")

	// other keys have their own bucket
	assert.True(t, k.Allow("5.6.7.8"))

	// one per second refills
	now = now.Add(time.Second)
	assert.True(t, k.Allow("1.2.3.4"))
	assert.False(t, k.Allow("1.2.3.4"))
}

func TestKeyed__Disabled(t *testing.T) {
	k := New(0, 0, 0)
	for i := 0; i < 100; i++ {
		if !k.Allow("x") {
			t.Fatalf("blocked on attempt %d", i)
		}
	}
}

func TestKeyed__Prune(t *testing.T) {
	now := time.Unix(1000, 0)
	k := New(60, 1, time.Minute)
	k.now = func() time.Time { return now }

	k.Allow("a")
	now = now.Add(45 * time.Second)
	k.Allow("b")
	assert.Equal(t, 2, k.Len())

	now = now.Add(30 * time.Second)
	assert.Equal(t, 1, k.Prune())
	assert.Equal(t, 1, k.Len())
}
