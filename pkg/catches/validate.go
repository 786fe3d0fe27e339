// Copyright 2018 The ACH Authors
// Use of this source code is governed by an Apache License
// license that can be found in the LICENSE file.

package catches

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	ErrMissingSpecies  = errors.New("species is required")
	ErrInvalidWeight   = errors.New("weight must be a number >= 0")
	ErrInvalidQuantity = errors.New("quantity must be a whole number >= 1")
	ErrInvalidLength   = errors.New("length must be a number >= 0")
	ErrMissingLocation = errors.New("location needs both latitude and longitude")
	ErrInvalidLocation = errors.New("location is out of range")
)

// ValidationError names the field a submission was rejected for.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}

// Code is a stable machine readable reason.
func (e *ValidationError) Code() string {
	switch e.Err {
	case ErrMissingSpecies:
		return "missing_species"
	case ErrInvalidWeight:
		return "invalid_weight"
	case ErrInvalidQuantity:
		return "invalid_quantity"
	case ErrInvalidLength:
		return "invalid_length"
	case ErrMissingLocation:
		return "missing_location"
	case ErrInvalidLocation:
		return "invalid_location"
	}
	return "invalid"
}

func invalid(field string, err error) error {
	return &ValidationError{Field: field, Err: err}
}

// Validate checks a submission in order: species, weight, quantity,
// length then location. The returned Record has no id or timestamps.
func Validate(sub Submission, requireLocation bool) (Record, error) {
	var rec Record

	species := sub.Species
	if strings.TrimSpace(species) == "" {
		species = sub.FishType
	}
	species = strings.TrimSpace(species)
	if species == "" {
		return rec, invalid("species", ErrMissingSpecies)
	}
	rec.Species = species

	weight, err := parseWeight(sub.Weight)
	if err != nil {
		return rec, err
	}
	rec.Weight = weight

	rec.Quantity = 1
	if sub.Quantity.IsSet() {
		q, err := parseQuantity(sub.Quantity)
		if err != nil {
			return rec, err
		}
		rec.Quantity = q
	}

	if sub.Length.IsSet() {
		l, err := parseLength(sub.Length)
		if err != nil {
			return rec, err
		}
		rec.Length = &l
	}

	loc, err := parseLocation(sub.Location, requireLocation)
	if err != nil {
		return rec, err
	}
	rec.Location = loc

	rec.Weather = sub.Weather
	rec.Date = strings.TrimSpace(sub.Date)
	rec.Time = strings.TrimSpace(sub.Time)
	rec.Notes = strings.TrimSpace(sub.Notes)
	return rec, nil
}

// ApplyEdit returns rec with the edit applied, validated by the same
// rules as a new submission. rec itself is left untouched.
func ApplyEdit(rec Record, edit Edit, requireLocation bool) (Record, error) {
	out := rec
	species := edit.Species
	if species == nil {
		species = edit.FishType
	}
	if species != nil {
		s := strings.TrimSpace(*species)
		if s == "" {
			return rec, invalid("species", ErrMissingSpecies)
		}
		out.Species = s
	}
	if edit.Weight != nil {
		w, err := parseWeight(edit.Weight)
		if err != nil {
			return rec, err
		}
		out.Weight = w
	}
	if edit.Quantity != nil {
		q, err := parseQuantity(edit.Quantity)
		if err != nil {
			return rec, err
		}
		out.Quantity = q
	}
	if edit.Length != nil {
		if edit.Length.IsSet() {
			l, err := parseLength(edit.Length)
			if err != nil {
				return rec, err
			}
			out.Length = &l
		} else {
			out.Length = nil
		}
	}
	if edit.Location != nil {
		loc, err := parseLocation(edit.Location, true)
		if err != nil {
			return rec, err
		}
		out.Location = loc
	} else if requireLocation && out.Location == nil {
		return rec, invalid("location", ErrMissingLocation)
	}
	if edit.Weather != nil {
		out.Weather = edit.Weather
	}
	if edit.Date != nil {
		out.Date = strings.TrimSpace(*edit.Date)
	}
	if edit.Time != nil {
		out.Time = strings.TrimSpace(*edit.Time)
	}
	if edit.Notes != nil {
		out.Notes = strings.TrimSpace(*edit.Notes)
	}
	return out, nil
}

func parseWeight(n *Number) (float64, error) {
	if !n.IsSet() {
		return 0, invalid("weight", ErrInvalidWeight)
	}
	w, err := n.Float()
	if err != nil || !finite(w) || w < 0 {
		return 0, invalid("weight", ErrInvalidWeight)
	}
	return w, nil
}

func parseQuantity(n *Number) (int, error) {
	if !n.IsSet() {
		return 0, invalid("quantity", ErrInvalidQuantity)
	}
	q, err := n.Int()
	if err != nil || q < 1 {
		return 0, invalid("quantity", ErrInvalidQuantity)
	}
	return q, nil
}

func parseLength(n *Number) (float64, error) {
	l, err := n.Float()
	if err != nil || !finite(l) || l < 0 {
		return 0, invalid("length", ErrInvalidLength)
	}
	return l, nil
}

func parseLocation(in *LocationInput, required bool) (*Location, error) {
	if in == nil {
		if required {
			return nil, invalid("location", ErrMissingLocation)
		}
		return nil, nil
	}
	if in.Latitude == nil || in.Longitude == nil {
		return nil, invalid("location", ErrMissingLocation)
	}
	lat, lon := *in.Latitude, *in.Longitude
	if !finite(lat) || !finite(lon) || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
		return nil, invalid("location", ErrInvalidLocation)
	}
	return &Location{
		Latitude:  lat,
		Longitude: lon,
		Address:   strings.TrimSpace(in.Address),
	}, nil
}

func finite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}
