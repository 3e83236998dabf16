package market

import (
	"github.com/pourcost/topshelf/internal/model"
)

// Estimator is one tier of the market-estimate fallback chain. It reports
// the estimate for a product and whether this tier can supply one.
type Estimator interface {
	Estimate(bottle, bottleType string) (price float64, tier model.EstimateTier, ok bool)
}

// EstimatorFunc adapts a function to the Estimator interface.
type EstimatorFunc func(bottle, bottleType string) (float64, model.EstimateTier, bool)

// Estimate implements Estimator.
func (f EstimatorFunc) Estimate(bottle, bottleType string) (float64, model.EstimateTier, bool) {
	return f(bottle, bottleType)
}

// EstimateChain evaluates an ordered list of estimators until one yields a
// defined value. The standard chain is bottle median, then type median,
// then global median.
type EstimateChain struct {
	estimators []Estimator
}

// NewEstimateChain builds the standard fallback chain over a benchmark
// snapshot. The snapshot's global median is always defined for a non-empty
// record set, so the chain never fails to produce an estimate.
func NewEstimateChain(snapshot *model.BenchmarkSnapshot) *EstimateChain {
	return &EstimateChain{
		estimators: []Estimator{
			EstimatorFunc(func(bottle, _ string) (float64, model.EstimateTier, bool) {
				m, ok := snapshot.BottleMedian(bottle)
				return m, model.TierBottle, ok
			}),
			EstimatorFunc(func(_, bottleType string) (float64, model.EstimateTier, bool) {
				m, ok := snapshot.TypeMedian(bottleType)
				return m, model.TierType, ok
			}),
			EstimatorFunc(func(_, _ string) (float64, model.EstimateTier, bool) {
				return snapshot.GlobalMedian, model.TierGlobal, true
			}),
		},
	}
}

// Estimate returns the market price estimate for a product and the tier
// that supplied it.
func (c *EstimateChain) Estimate(bottle, bottleType string) (float64, model.EstimateTier, bool) {
	for _, e := range c.estimators {
		if price, tier, ok := e.Estimate(bottle, bottleType); ok {
			return price, tier, true
		}
	}
	return 0, "", false
}
