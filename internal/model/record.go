// Package model defines the core domain types for price benchmarking and
// recommendation.
package model

import "strings"

// PriceRecord represents one bottle listed at one venue, at its current
// menu price. Records are immutable once loaded; the engine never mutates
// the record set it is given.
type PriceRecord struct {
	Venue  string  `json:"venue"`
	Bottle string  `json:"bottle"`
	Type   string  `json:"type"`
	Price  float64 `json:"price"`
}

// NormalizedBottle returns the bottle name normalized for cross-venue
// matching. Venues list the same bottle with inconsistent casing and
// whitespace, so all bottle-keyed maps use this form.
func NormalizedBottle(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Key identifies a (venue, bottle) listing for duplicate resolution.
// When the same venue lists the same bottle twice, the later record wins.
func (r PriceRecord) Key() string {
	return r.Venue + "\x00" + NormalizedBottle(r.Bottle)
}
