// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

// Package accounts holds the fisherman account model shared by the
// ledger, catch ingestion and aggregation packages.
package accounts

import (
	"context"
	"errors"
	"strings"
	"time"
)

var (
	ErrNotFound         = errors.New("account not found")
	ErrDuplicateEmail   = errors.New("email already registered")
	ErrDuplicateLicense = errors.New("license id already registered")
)

// DefaultRegion is applied when a registration doesn't name one.
const DefaultRegion = "Tamil Nadu Coast"

type Role string

const (
	RoleFisherman  Role = "fisherman"
	RoleResearcher Role = "researcher"
	RoleAdmin      Role = "admin"
)

// CanVerify reports if the role may mark catches as verified.
func (r Role) CanVerify() bool {
	return r == RoleResearcher || r == RoleAdmin
}

// Stats are derived from the catch store and never authoritative.
type Stats struct {
	TotalCatches  int     `json:"totalCatches"`
	TotalWeight   float64 `json:"totalWeight"`
	UniqueSpecies int     `json:"uniqueFishTypes"`
}

type Account struct {
	ID           string `json:"id"`
	Name         string `json:"name"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`

	Phone        string `json:"phone"`
	LicenseID    string `json:"licenseId"`
	Region       string `json:"region"`
	BoatName     string `json:"boatName"`
	Experience   int    `json:"experience"`
	ProfilePhoto string `json:"profilePhoto"`

	Role     Role `json:"role"`
	Verified bool `json:"verified"`
	Active   bool `json:"active"`

	// TokenBalance is only ever changed through the ledger.
	TokenBalance int64 `json:"tokens"`
	// TokenGrant is the balance the account was created with.
	TokenGrant int64 `json:"-"`

	Stats Stats `json:"stats"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// PublicProfile is the view of an account other fishermen may see.
type PublicProfile struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Region       string    `json:"region"`
	BoatName     string    `json:"boatName"`
	Experience   int       `json:"experience"`
	ProfilePhoto string    `json:"profilePhoto"`
	Role         Role      `json:"role"`
	Verified     bool      `json:"verified"`
	Stats        Stats     `json:"stats"`
	CreatedAt    time.Time `json:"createdAt"`
}

func (a Account) Public() PublicProfile {
	return PublicProfile{
		ID:           a.ID,
		Name:         a.Name,
		Region:       a.Region,
		BoatName:     a.BoatName,
		Experience:   a.Experience,
		ProfilePhoto: a.ProfilePhoto,
		Role:         a.Role,
		Verified:     a.Verified,
		Stats:        a.Stats,
		CreatedAt:    a.CreatedAt,
	}
}

// ProfileUpdate carries a partial profile edit. Nil fields are left alone.
type ProfileUpdate struct {
	Name         *string `json:"name"`
	Phone        *string `json:"phone"`
	LicenseID    *string `json:"licenseId"`
	Region       *string `json:"region"`
	BoatName     *string `json:"boatName"`
	Experience   *int    `json:"experience"`
	ProfilePhoto *string `json:"profilePhoto"`
}

// Apply copies the set fields of u onto a. It returns true if the
// license id changed, which callers need to re-check for uniqueness.
func (u ProfileUpdate) Apply(a *Account) (licenseChanged bool) {
	if u.Name != nil {
		a.Name = strings.TrimSpace(*u.Name)
	}
	if u.Phone != nil {
		a.Phone = strings.TrimSpace(*u.Phone)
	}
	if u.Region != nil {
		a.Region = strings.TrimSpace(*u.Region)
	}
	if u.BoatName != nil {
		a.BoatName = strings.TrimSpace(*u.BoatName)
	}
	if u.Experience != nil {
		a.Experience = *u.Experience
	}
	if u.ProfilePhoto != nil {
		a.ProfilePhoto = strings.TrimSpace(*u.ProfilePhoto)
	}
	if u.LicenseID != nil {
		lic := strings.TrimSpace(*u.LicenseID)
		if lic != "" && lic != a.LicenseID {
			a.LicenseID = lic
			return true
		}
	}
	return false
}

// NormalizeEmail lowercases and trims an email address so lookups are
// case-insensitive. An empty string is returned for anything that
// doesn't look like local@domain.
func NormalizeEmail(email string) string {
	email = strings.ToLower(strings.TrimSpace(email))
	parts := strings.Split(email, "@")
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return ""
	}
	return email
}

type Repository interface {
	// Create inserts a new account. ErrDuplicateEmail or
	// ErrDuplicateLicense are returned on conflicts.
	Create(ctx context.Context, a *Account) error

	LookupByID(ctx context.Context, id string) (*Account, error)

	// LookupByEmail expects an address passed through NormalizeEmail.
	LookupByEmail(ctx context.Context, email string) (*Account, error)

	LookupByLicense(ctx context.Context, license string) (*Account, error)

	// UpdateProfile writes the profile fields of a. The balance and
	// stats columns are never touched here.
	UpdateProfile(ctx context.Context, a *Account) error

	UpdatePassword(ctx context.Context, id, hash string) error

	Deactivate(ctx context.Context, id string) error
}
