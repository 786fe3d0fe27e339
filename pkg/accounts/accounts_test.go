// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package accounts

import (
	"testing"
)

func TestAccounts__NormalizeEmail(t *testing.T) {
	cases := []struct {
		input, expected string
	}{
		{"john.doe@gmail.com", "john.doe@gmail.com"},
		{"John.Doe@Gmail.COM", "john.doe@gmail.com"},
		{"  a@x.com ", "a@x.com"},
		{"A@X.com", "a@x.com"},
		{"john+fishnet@gmail.com", "john+fishnet@gmail.com"},
		{"", ""},
		{"no-at-sign", ""},
		{"@x.com", ""},
		{"a@", ""},
		{"a@b@c", ""},
	}
	for i := range cases {
		if res := NormalizeEmail(cases[i].input); res != cases[i].expected {
			t.Errorf("input=%q got %q", cases[i].input, res)
		}
	}
}

func TestAccounts__ProfileUpdate(t *testing.T) {
	a := &Account{
		Name:      "Murugan",
		Region:    DefaultRegion,
		LicenseID: "TN-FSH-1",
	}

	name, boat, exp := "  Murugan K ", "Kadal Raja", 12
	changed := ProfileUpdate{Name: &name, BoatName: &boat, Experience: &exp}.Apply(a)
	if changed {
		t.Error("license shouldn't have changed")
	}
	if a.Name != "Murugan K" || a.BoatName != "Kadal Raja" || a.Experience != 12 {
		t.Errorf("got %#v", a)
	}
	if a.Region != DefaultRegion {
		t.Errorf("region changed: %q", a.Region)
	}

	same := "TN-FSH-1"
	if (ProfileUpdate{LicenseID: &same}).Apply(a) {
		t.Error("same license reported as changed")
	}
	empty := "  "
	if (ProfileUpdate{LicenseID: &empty}).Apply(a) || a.LicenseID != "TN-FSH-1" {
		t.Errorf("blank license applied: %q", a.LicenseID)
	}
	lic := "TN-FSH-2"
	if !(ProfileUpdate{LicenseID: &lic}).Apply(a) || a.LicenseID != "TN-FSH-2" {
		t.Errorf("got %q", a.LicenseID)
	}
}

func TestAccounts__Public(t *testing.T) {
	a := Account{ID: "id", Name: "n", Email: "a@x.com", Phone: "999", TokenBalance: 800, Role: RoleFisherman}
	p := a.Public()
	if p.ID != "id" || p.Name != "n" || p.Role != RoleFisherman {
		t.Errorf("got %#v", p)
	}
}

func TestAccounts__RoleCanVerify(t *testing.T) {
	cases := []struct {
		role Role
		ok   bool
	}{
		{RoleFisherman, false},
		{RoleResearcher, true},
		{RoleAdmin, true},
		{Role(""), false},
	}
	for i := range cases {
		if v := cases[i].role.CanVerify(); v != cases[i].ok {
			t.Errorf("role=%q got %v", cases[i].role, v)
		}
	}
}
