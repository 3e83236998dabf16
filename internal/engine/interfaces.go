package engine

import (
	"github.com/pourcost/topshelf/internal/model"
)

// CostResolver defines the contract for mapping a product to its unit cost
// and minimum-margin requirement.
type CostResolver interface {
	Resolve(bottle, bottleType string) model.ResolvedCost
}

// Estimator defines the contract for the market-estimate fallback chain.
type Estimator interface {
	Estimate(bottle, bottleType string) (price float64, tier model.EstimateTier, ok bool)
}
