// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/pourcost/topshelf/internal/model"
)

// Storage defines the contract for the persistence layer. Only engine
// inputs are persisted: the price record set and the cost configuration.
// Recommendations themselves are computed on demand and never stored.
type Storage interface {
	// Price record operations
	SavePriceRecords(ctx context.Context, records []model.PriceRecord) error
	GetPriceRecords(ctx context.Context) ([]model.PriceRecord, error)
	GetPriceRecordsByVenue(ctx context.Context, venue string) ([]model.PriceRecord, error)
	GetVenues(ctx context.Context) ([]string, error)

	// Cost configuration operations
	SaveCostConfig(ctx context.Context, cfg *model.CostConfig) error
	GetCostConfig(ctx context.Context) (*model.CostConfig, error)

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}

// VenuePositioning is one row of the market-analysis view.
type VenuePositioning struct {
	Venue      string  `json:"venue"`
	VPI        float64 `json:"vpi"`
	PremiumPct float64 `json:"premium_pct"`
}

// TypeMedianEntry is one liquor type's median price in the market-analysis
// view.
type TypeMedianEntry struct {
	Type   string  `json:"type"`
	Median float64 `json:"median_price"`
}

// MarketAnalysis is the read-only projection of the positioning snapshot
// exposed to reporting and export consumers.
type MarketAnalysis struct {
	Venues       []VenuePositioning `json:"vpi"`
	TypeMedians  []TypeMedianEntry  `json:"type_medians"`
	GlobalMedian float64            `json:"global_median"`
}

// BulkStats summarizes a bulk recommendation run.
type BulkStats struct {
	Total            int
	DemandOptimized  int
	Benchmark        int
	PredictorFailed  int
	MarginShortfalls int
	Failed           int
	Duration         time.Duration
}
