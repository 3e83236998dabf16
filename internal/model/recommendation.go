package model

// Method identifies which strategy produced a recommended price.
type Method string

const (
	// MethodBenchmark means the price came from cross-venue market
	// benchmarking (market estimate scaled by the venue's VPI).
	MethodBenchmark Method = "benchmark"
	// MethodDemandOptimized means the price came from the demand-driven
	// grid search because it beat the current price's objective.
	MethodDemandOptimized Method = "demand_optimized"
)

// EstimateTier identifies which fallback tier supplied the market estimate.
type EstimateTier string

const (
	// TierBottle is the cross-venue median for the exact bottle.
	TierBottle EstimateTier = "bottle_median"
	// TierType is the median for the bottle's liquor type.
	TierType EstimateTier = "type_median"
	// TierGlobal is the global median across all records.
	TierGlobal EstimateTier = "global_median"
)

// Recommendation is a fully justified price recommendation for one
// (venue, bottle) pair. Recommendations are produced on demand and never
// persisted by the engine.
type Recommendation struct {
	Venue            string       `json:"venue"`
	Bottle           string       `json:"bottle"`
	Type             string       `json:"type"`
	CurrentPrice     float64      `json:"current_price"`
	RecommendedPrice float64      `json:"recommended_price"`
	DeltaPct         float64      `json:"delta_pct"`
	DeltaAbs         float64      `json:"delta_abs"`
	MarketEstimate   float64      `json:"market_estimate"`
	EstimateTier     EstimateTier `json:"estimate_tier"`
	VPI              float64      `json:"vpi"`
	MinPrice         float64      `json:"min_price"`
	MaxPrice         float64      `json:"max_price"`
	Method           Method       `json:"method"`
	Rationale        string       `json:"rationale"`

	// Cost-aware fields, present only when a cost was resolved.
	Cost            *float64 `json:"cost,omitempty"`
	Profit          *float64 `json:"profit,omitempty"`
	ProfitMarginPct *float64 `json:"profit_margin_pct,omitempty"`

	// MarginShortfall is set when the guardrail band cannot reach the
	// minimum margin; the recommendation is still emitted, never dropped.
	MarginShortfall bool `json:"margin_shortfall,omitempty"`

	// Demand-optimization diagnostics, present only for predictor-backed
	// recommendations.
	PredictedDemandCurrent *float64 `json:"predicted_demand_current,omitempty"`
	PredictedDemandOptimal *float64 `json:"predicted_demand_optimal,omitempty"`
	ObjectiveCurrent       *float64 `json:"objective_current,omitempty"`
	ObjectiveOptimal       *float64 `json:"objective_optimal,omitempty"`
}

// WithinGuardrails reports whether the recommended price honors the
// bounded change window.
func (r *Recommendation) WithinGuardrails() bool {
	return r.RecommendedPrice >= r.MinPrice && r.RecommendedPrice <= r.MaxPrice
}
