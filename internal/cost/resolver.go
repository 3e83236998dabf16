package cost

import (
	"fmt"

	"github.com/pourcost/topshelf/internal/model"
)

// Resolver maps a product to its unit cost and minimum-margin requirement.
// Resolution order: explicit bottle cost, then type-level default cost,
// then unknown. A Resolver is immutable and safe for concurrent use.
type Resolver struct {
	cfg *model.CostConfig
}

// NewResolver creates a resolver over a cost configuration. A nil config
// resolves every product to unknown with the default margin.
func NewResolver(cfg *model.CostConfig) *Resolver {
	return &Resolver{cfg: cfg}
}

// Resolve returns the cost entry for a product. Cost is nil when neither a
// bottle nor a type cost is configured; the minimum margin falls back to
// the per-type override, then the configured global, then the default.
func (r *Resolver) Resolve(bottle, bottleType string) model.ResolvedCost {
	resolved := model.ResolvedCost{
		MinMarginPct: r.minMargin(bottleType),
		Source:       model.CostSourceUnknown,
	}
	if r.cfg == nil {
		return resolved
	}

	if c, ok := r.cfg.BottleCosts[model.NormalizedBottle(bottle)]; ok {
		resolved.Cost = &c
		resolved.Source = model.CostSourceBottle
		return resolved
	}

	if c, ok := r.cfg.TypeCosts[bottleType]; ok {
		resolved.Cost = &c
		resolved.Source = model.CostSourceType
	}
	return resolved
}

func (r *Resolver) minMargin(bottleType string) float64 {
	if r.cfg == nil {
		return DefaultMinMarginPct
	}
	if m, ok := r.cfg.TypeMargins[bottleType]; ok {
		return m
	}
	if r.cfg.MinMarginPct > 0 {
		return r.cfg.MinMarginPct
	}
	return DefaultMinMarginPct
}

// Profit returns the absolute profit at a price for a known cost.
func Profit(price, cost float64) float64 {
	return price - cost
}

// ProfitMarginPct returns the profit margin as a fraction of price, e.g.
// 0.30 for a 30% margin. Non-positive prices yield zero.
func ProfitMarginPct(price, cost float64) float64 {
	if price <= 0 {
		return 0
	}
	return (price - cost) / price
}

// MinimumPriceForMargin returns the lowest price that achieves the given
// margin on the given cost: cost / (1 - margin). The margin must be below
// 1.0 or no finite price can satisfy it.
func MinimumPriceForMargin(cost, marginPct float64) (float64, error) {
	if marginPct >= 1.0 {
		return 0, fmt.Errorf("profit margin must be < 1.0: got %v", marginPct)
	}
	return cost / (1 - marginPct), nil
}
