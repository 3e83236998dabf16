package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedBottle(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{"lowercases", "Grey Goose", "grey goose"},
		{"trims whitespace", "  Don Julio 1942  ", "don julio 1942"},
		{"already normalized", "moet chandon", "moet chandon"},
		{"interior spaces kept", "ACE   OF SPADES", "ace   of spades"},
		{"empty", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NormalizedBottle(tt.in))
		})
	}
}

func TestPriceRecordKey(t *testing.T) {
	a := PriceRecord{Venue: "Skybar", Bottle: "Grey Goose", Price: 400}
	b := PriceRecord{Venue: "Skybar", Bottle: "  GREY GOOSE ", Price: 475}
	c := PriceRecord{Venue: "Velvet Room", Bottle: "Grey Goose", Price: 350}

	assert.Equal(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())

	// Venue and bottle never collide across the separator.
	d := PriceRecord{Venue: "Sky", Bottle: "bar grey goose"}
	assert.NotEqual(t, a.Key(), d.Key())
}

func TestDemandContextWithDefaults(t *testing.T) {
	// 2026-08-28 is a Friday.
	friday := time.Date(2026, 8, 28, 23, 15, 0, 0, time.UTC)

	out := DemandContext{}.WithDefaults(friday)
	assert.Equal(t, 4, out.Weekday())
	assert.Equal(t, 23, out.ClockHour())
	assert.True(t, out.IsWeekend)
	assert.Equal(t, "regular", out.EventType)
	assert.InDelta(t, 1.0, out.InventoryLevel, 0.001)

	// 2026-08-31 is a Monday.
	monday := time.Date(2026, 8, 31, 14, 0, 0, 0, time.UTC)
	out = DemandContext{}.WithDefaults(monday)
	assert.Equal(t, 0, out.Weekday())
	assert.Equal(t, 14, out.ClockHour())
	assert.False(t, out.IsWeekend)
}

func TestDemandContextWithDefaultsPreservesExplicit(t *testing.T) {
	day, hour := 2, 21
	in := DemandContext{
		Venue:          "Skybar",
		DayOfWeek:      &day,
		Hour:           &hour,
		EventType:      "DJ",
		InventoryLevel: 0.4,
	}
	out := in.WithDefaults(time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC))

	assert.Equal(t, 2, out.Weekday())
	assert.Equal(t, 21, out.ClockHour())
	assert.False(t, out.IsWeekend)
	assert.Equal(t, "DJ", out.EventType)
	assert.InDelta(t, 0.4, out.InventoryLevel, 0.001)
	assert.Equal(t, "Skybar", out.Venue)
}

func TestDemandContextWithDefaultsKeepsExplicitMondayMidnight(t *testing.T) {
	day, hour := 0, 0
	in := DemandContext{DayOfWeek: &day, Hour: &hour}

	// The clock says Friday night; the explicit context must win.
	out := in.WithDefaults(time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC))

	assert.Equal(t, 0, out.Weekday())
	assert.Equal(t, 0, out.ClockHour())
	assert.False(t, out.IsWeekend)
}

func TestRecommendationWithinGuardrails(t *testing.T) {
	rec := &Recommendation{RecommendedPrice: 325, MinPrice: 297.5, MaxPrice: 402.5}
	assert.True(t, rec.WithinGuardrails())

	rec.RecommendedPrice = 425
	assert.False(t, rec.WithinGuardrails())

	rec.RecommendedPrice = 297.5
	assert.True(t, rec.WithinGuardrails())
}

func TestPositioningSnapshotDefaults(t *testing.T) {
	s := &PositioningSnapshot{
		VPI: map[string]float64{"Skybar": 1.559},
		BPS: map[string]float64{"grey goose": 0.91},
	}

	assert.InDelta(t, 1.559, s.VenueVPI("Skybar"), 0.001)
	assert.InDelta(t, 1.0, s.VenueVPI("Pop-Up"), 0.001)
	assert.InDelta(t, 0.91, s.BottleBPS("  GREY GOOSE "), 0.001)
	assert.InDelta(t, 1.0, s.BottleBPS("Mystery Bottle"), 0.001)
}

func TestResolvedCostKnown(t *testing.T) {
	c := 140.0
	assert.True(t, ResolvedCost{Cost: &c, Source: CostSourceBottle}.Known())
	assert.False(t, ResolvedCost{Source: CostSourceUnknown}.Known())
}
