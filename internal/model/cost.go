package model

// CostSource indicates which tier of the cost configuration supplied a
// resolved cost.
type CostSource string

const (
	// CostSourceBottle means an explicit per-bottle cost was configured.
	CostSourceBottle CostSource = "bottle"
	// CostSourceType means the cost fell back to the type-level default.
	CostSourceType CostSource = "type"
	// CostSourceUnknown means no cost is configured for the product.
	CostSourceUnknown CostSource = "unknown"
)

// CostConfig holds the cost-of-goods configuration: explicit per-bottle
// costs, type-level default costs, optional per-type margin overrides, and
// the global minimum profit margin. Bottle keys are stored normalized.
type CostConfig struct {
	BottleCosts  map[string]float64 `json:"product_costs"`
	TypeCosts    map[string]float64 `json:"type_costs"`
	TypeMargins  map[string]float64 `json:"type_margins,omitempty"`
	MinMarginPct float64            `json:"min_profit_margin_pct"`
}

// ResolvedCost is the outcome of resolving a product against the cost
// configuration. Cost is nil when the product is unknown to the config;
// MinMarginPct is always populated (falling back to the global default).
type ResolvedCost struct {
	Cost         *float64
	MinMarginPct float64
	Source       CostSource
}

// Known reports whether a unit cost was resolved.
func (c ResolvedCost) Known() bool {
	return c.Cost != nil
}
