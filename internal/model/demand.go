package model

import "time"

// DemandContext carries the contextual signals passed to the demand
// predictor alongside a candidate price. Fields beyond venue, bottle and
// type are opaque to the engine: they are forwarded to the predictor
// unchanged. DayOfWeek and Hour are pointers so that an explicit
// Monday-at-midnight context is distinguishable from an absent one.
type DemandContext struct {
	Venue          string  `json:"venue"`
	Bottle         string  `json:"bottle"`
	Type           string  `json:"type"`
	DayOfWeek      *int    `json:"day_of_week,omitempty"`
	Hour           *int    `json:"hour,omitempty"`
	IsWeekend      bool    `json:"is_weekend"`
	EventType      string  `json:"event_type"`
	InventoryLevel float64 `json:"inventory_level"`
}

// Weekday returns the day of week (Monday = 0), defaulting to Monday when
// unset.
func (c DemandContext) Weekday() int {
	if c.DayOfWeek == nil {
		return 0
	}
	return *c.DayOfWeek
}

// ClockHour returns the hour of day, defaulting to midnight when unset.
func (c DemandContext) ClockHour() int {
	if c.Hour == nil {
		return 0
	}
	return *c.Hour
}

// WithDefaults fills absent temporal fields from the supplied clock and
// applies the standard defaults for event type and inventory, matching the
// behavior of an interactive request that omits demand signals. Explicitly
// supplied values are never overwritten; IsWeekend is derived only when the
// day of week itself was absent.
func (c DemandContext) WithDefaults(now time.Time) DemandContext {
	out := c
	if out.DayOfWeek == nil {
		weekday := (int(now.Weekday()) + 6) % 7 // Monday = 0
		out.DayOfWeek = &weekday
		out.IsWeekend = weekday >= 4
	}
	if out.Hour == nil {
		hour := now.Hour()
		out.Hour = &hour
	}
	if out.EventType == "" {
		out.EventType = "regular"
	}
	if out.InventoryLevel == 0 {
		out.InventoryLevel = 1.0
	}
	return out
}
