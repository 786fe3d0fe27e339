// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package main

import (
	"errors"
	"strings"
	"testing"

	"github.com/naveen978980/Fishnet-app/pkg/accounts"
)

func TestSignup__email(t *testing.T) {
	cases := []struct {
		input string
		valid bool
	}{
		{"", false},
		{"test@fishnet.app", true},
		{"  Test@Fishnet.App ", true},
		{"no-at-sign", false},
		{"@fishnet.app", false},
		{"a@b@c", false},
	}
	for i := range cases {
		err := checkEmail(cases[i].input)
		if cases[i].valid && err == nil {
			continue // valid
		}
		if !cases[i].valid && err != nil {
			continue // known bad
		}
		t.Errorf("input=%q, err=%v", cases[i].input, err)
	}
}

func TestSignup__pass(t *testing.T) {
	cases := []struct {
		input string
		valid bool
	}{
		{"", false},
		{"short", false},
		{"superlongpassword", true},
		{strings.Repeat("x", 73), false},
	}
	for i := range cases {
		err := checkPassword(cases[i].input)
		if cases[i].valid && err == nil {
			continue // valid
		}
		if !cases[i].valid && err != nil {
			continue // known bad
		}
		t.Errorf("input=%q, err=%v", cases[i].input, err)
	}
}

func TestAuth__passwordHash(t *testing.T) {
	hash, err := hashPassword("kadal-raja-99")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "kadal-raja-99" || !strings.HasPrefix(hash, "$2") {
		t.Errorf("got %q", hash)
	}
	if err := comparePassword(hash, "kadal-raja-99"); err != nil {
		t.Error(err)
	}
	if err := comparePassword(hash, "kadal-raja-98"); err == nil {
		t.Error("expected mismatch")
	}
}

func TestAuth__catchOwner(t *testing.T) {
	fisherman := &accounts.Account{ID: "f", Role: accounts.RoleFisherman}
	admin := &accounts.Account{ID: "a", Role: accounts.RoleAdmin}
	str := func(s string) *string { return &s }

	owner, err := catchOwner(fisherman, nil)
	if err != nil || owner == nil || *owner != "f" {
		t.Errorf("owner=%v err=%v", owner, err)
	}
	owner, err = catchOwner(fisherman, str(""))
	if err != nil || owner != nil {
		t.Errorf("owner=%v err=%v", owner, err)
	}
	if _, err := catchOwner(fisherman, str("someone-else")); !errors.Is(err, errForbidden) {
		t.Errorf("got %v", err)
	}
	owner, err = catchOwner(admin, str("f"))
	if err != nil || *owner != "f" {
		t.Errorf("owner=%v err=%v", owner, err)
	}
}
