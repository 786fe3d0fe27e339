// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package catches

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	Address   string  `json:"address"`
}

type Weather struct {
	Temperature *float64 `json:"temperature,omitempty"`
	Condition   string   `json:"condition,omitempty"`
	WindSpeed   *float64 `json:"windSpeed,omitempty"`
}

// Record is one logged fishing event.
type Record struct {
	ID       string   `json:"id"`
	Species  string   `json:"species"`
	Quantity int      `json:"quantity"`
	Weight   float64  `json:"weight"`
	Length   *float64 `json:"length,omitempty"`

	Location *Location `json:"location,omitempty"`
	Weather  *Weather  `json:"weather,omitempty"`

	// CaughtAt is server time at ingestion. Date and Time are what the
	// client suggested for display and are never used for ordering.
	CaughtAt time.Time `json:"caughtAt"`
	Date     string    `json:"date,omitempty"`
	Time     string    `json:"time,omitempty"`

	Notes string `json:"notes"`

	// OwnerID is nil for anonymous records.
	OwnerID   *string `json:"userId"`
	OwnerName string  `json:"userName,omitempty"`

	Verified bool `json:"verified"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// OwnedBy reports if the record belongs to accountID.
func (r Record) OwnedBy(accountID string) bool {
	return r.OwnerID != nil && *r.OwnerID == accountID
}

// Number accepts a JSON number or a numeric string, which is what
// mobile form fields tend to send.
type Number struct {
	raw string
	set bool
}

func NewNumber(v float64) *Number {
	return &Number{raw: strconv.FormatFloat(v, 'f', -1, 64), set: true}
}

func (n *Number) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*n = Number{}
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		*n = Number{raw: s, set: s != ""}
		return nil
	}
	var num json.Number
	if err := json.Unmarshal(b, &num); err != nil {
		return fmt.Errorf("not a number: %s", b)
	}
	*n = Number{raw: num.String(), set: true}
	return nil
}

func (n Number) MarshalJSON() ([]byte, error) {
	if !n.set {
		return []byte("null"), nil
	}
	return json.Marshal(n.raw)
}

// IsSet reports if a value was supplied at all.
func (n *Number) IsSet() bool {
	return n != nil && n.set
}

func (n *Number) Float() (float64, error) {
	return strconv.ParseFloat(n.raw, 64)
}

// Int parses whole numbers, accepting "3" and "3.0" but not "3.5".
func (n *Number) Int() (int, error) {
	if v, err := strconv.Atoi(n.raw); err == nil {
		return v, nil
	}
	f, err := strconv.ParseFloat(n.raw, 64)
	if err != nil {
		return 0, err
	}
	if f != float64(int(f)) {
		return 0, fmt.Errorf("%s is not a whole number", n.raw)
	}
	return int(f), nil
}

type LocationInput struct {
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Address   string   `json:"address"`
}

// Submission is the payload of a new catch.
type Submission struct {
	Species string `json:"species"`

	// FishType is the older name of Species, still sent by the app.
	FishType string  `json:"fishType"`
	Weight   *Number `json:"weight"`
	Quantity *Number `json:"quantity"`
	Length   *Number `json:"length"`

	Location *LocationInput `json:"location"`
	Weather  *Weather       `json:"weather"`

	Date  string `json:"date"`
	Time  string `json:"time"`
	Notes string `json:"notes"`

	OwnerID *string `json:"ownerAccountId"`
}

// Edit carries changes to an existing record. Nil fields are untouched.
type Edit struct {
	Species  *string        `json:"species"`
	FishType *string        `json:"fishType"`
	Weight   *Number        `json:"weight"`
	Quantity *Number        `json:"quantity"`
	Length   *Number        `json:"length"`
	Location *LocationInput `json:"location"`
	Weather  *Weather       `json:"weather"`
	Date     *string        `json:"date"`
	Time     *string        `json:"time"`
	Notes    *string        `json:"notes"`
}
