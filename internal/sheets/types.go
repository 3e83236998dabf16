package sheets

import (
	"time"

	"github.com/shopspring/decimal"
)

// RecommendationRow represents a single row in the Recommendations tab.
type RecommendationRow struct {
	Venue            string
	Bottle           string
	Type             string
	CurrentPrice     decimal.Decimal
	RecommendedPrice decimal.Decimal
	DeltaPct         decimal.Decimal
	Method           string
	Rationale        string
	MarginShortfall  bool
}

// VenueSummaryRow represents a single row in the Venue Summary tab.
type VenueSummaryRow struct {
	Venue      string
	VPI        decimal.Decimal
	PremiumPct decimal.Decimal
	Products   int
}

// TypeSummaryRow represents a single row in the Type Medians tab.
type TypeSummaryRow struct {
	Type        string
	MedianPrice decimal.Decimal
}

// ReportData holds all the data for the complete spreadsheet export.
type ReportData struct {
	GeneratedAt     time.Time
	GlobalMedian    decimal.Decimal
	Recommendations []RecommendationRow
	VenueSummary    []VenueSummaryRow
	TypeSummary     []TypeSummaryRow
}
