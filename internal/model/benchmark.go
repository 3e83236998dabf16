package model

// BenchmarkSnapshot holds the cross-venue market medians computed from one
// load of the record set. A snapshot is immutable after construction and is
// shared read-only by every downstream component, so no locking is needed
// during parallel recommendation.
type BenchmarkSnapshot struct {
	BottleMedians map[string]float64
	TypeMedians   map[string]float64
	GlobalMedian  float64
}

// BottleMedian looks up the cross-venue median for a bottle. The second
// return value is false when no venue carries the bottle.
func (s *BenchmarkSnapshot) BottleMedian(bottle string) (float64, bool) {
	m, ok := s.BottleMedians[NormalizedBottle(bottle)]
	return m, ok
}

// TypeMedian looks up the median price for a liquor type.
func (s *BenchmarkSnapshot) TypeMedian(bottleType string) (float64, bool) {
	m, ok := s.TypeMedians[bottleType]
	return m, ok
}

// PositioningSnapshot holds the derived positioning indices: the Venue
// Premium Index per venue and the Brand Premium Score per bottle. Like
// BenchmarkSnapshot it is recomputed wholesale on each load and never
// mutated afterwards.
type PositioningSnapshot struct {
	VPI map[string]float64
	BPS map[string]float64
}

// VenueVPI returns the Venue Premium Index for a venue, defaulting to 1.0
// (market-neutral) for venues absent from the record set.
func (s *PositioningSnapshot) VenueVPI(venue string) float64 {
	if vpi, ok := s.VPI[venue]; ok {
		return vpi
	}
	return 1.0
}

// BottleBPS returns the Brand Premium Score for a bottle, defaulting to 1.0
// when the bottle is unknown.
func (s *PositioningSnapshot) BottleBPS(bottle string) float64 {
	if bps, ok := s.BPS[NormalizedBottle(bottle)]; ok {
		return bps
	}
	return 1.0
}
