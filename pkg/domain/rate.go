// Package domain holds the core value types and error taxonomy shared by the
// rate-fetching and conversion layers.
package domain

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// RateSnapshot is a point-in-time rate table for a single base currency.
// Treat it as immutable once constructed; a refresh produces a new snapshot
// rather than mutating an existing one. Currency codes are normalized to
// upper case on construction, so lookups through Rate are case-insensitive.
type RateSnapshot struct {
	Base  string             `json:"base"`
	AsOf  time.Time          `json:"as_of"`
	Rates map[string]float64 `json:"rates"`
}

// NewRateSnapshot validates and normalizes a rate table.
// Every rate must be strictly positive and finite.
func NewRateSnapshot(base string, asOf time.Time, rates map[string]float64) (*RateSnapshot, error) {
	base = strings.ToUpper(strings.TrimSpace(base))
	if base == "" {
		return nil, ErrInvalidCurrency
	}

	normalized := make(map[string]float64, len(rates))
	for code, rate := range rates {
		if rate <= 0 || math.IsNaN(rate) || math.IsInf(rate, 0) {
			return nil, fmt.Errorf("%w: rate %v for %s", ErrInvalidRate, rate, code)
		}
		normalized[strings.ToUpper(code)] = rate
	}

	return &RateSnapshot{
		Base:  base,
		AsOf:  asOf,
		Rates: normalized,
	}, nil
}

// Rate looks up the rate for a target currency, ignoring case.
func (s *RateSnapshot) Rate(code string) (float64, bool) {
	rate, ok := s.Rates[strings.ToUpper(code)]
	return rate, ok
}
