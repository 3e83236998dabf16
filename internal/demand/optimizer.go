package demand

import (
	"context"
	"fmt"
	"math"

	"github.com/pourcost/topshelf/internal/model"
)

// OptimizerConfig holds the knobs for the price grid search.
type OptimizerConfig struct {
	// SearchPct bounds the grid at current_price × (1 ± SearchPct). Kept
	// wider than the recommendation guardrail so the search can discover
	// prices the guardrail will later clamp.
	SearchPct float64
	// SearchStep is the price grid resolution in currency units.
	SearchStep float64
	// Tolerance is the objective band within which two candidates are
	// considered tied; ties go to the candidate closest to current price.
	Tolerance float64
}

// DefaultOptimizerConfig returns the default grid-search configuration.
func DefaultOptimizerConfig() OptimizerConfig {
	return OptimizerConfig{
		SearchPct:  0.30,
		SearchStep: 5,
		Tolerance:  1e-6,
	}
}

// Result reports the outcome of one price optimization.
type Result struct {
	OptimalPrice     float64
	OptimalDemand    float64
	OptimalObjective float64
	CurrentDemand    float64
	CurrentObjective float64
}

// Improvement is the objective gain of the optimal price over the current
// price.
func (r *Result) Improvement() float64 {
	return r.OptimalObjective - r.CurrentObjective
}

// Optimizer searches a discretized price range for the objective-maximizing
// price. The objective is profit (price − cost) × demand when the cost is
// known, revenue price × demand otherwise.
type Optimizer struct {
	predictor Predictor
	cfg       OptimizerConfig
}

// NewOptimizer creates an optimizer over a predictor. Zero config fields
// fall back to defaults.
func NewOptimizer(predictor Predictor, cfg OptimizerConfig) *Optimizer {
	def := DefaultOptimizerConfig()
	if cfg.SearchPct <= 0 {
		cfg.SearchPct = def.SearchPct
	}
	if cfg.SearchStep <= 0 {
		cfg.SearchStep = def.SearchStep
	}
	if cfg.Tolerance <= 0 {
		cfg.Tolerance = def.Tolerance
	}
	return &Optimizer{predictor: predictor, cfg: cfg}
}

// Optimize evaluates the price grid around currentPrice and returns the
// best candidate along with the objective at the current price, so the
// caller can compute an improvement delta. Any predictor failure aborts
// the search; the caller falls back to the benchmark method for this
// product only.
func (o *Optimizer) Optimize(ctx context.Context, currentPrice float64, unitCost *float64, dctx model.DemandContext) (*Result, error) {
	if currentPrice <= 0 {
		return nil, fmt.Errorf("current price must be positive: got %v", currentPrice)
	}

	objective := func(price, units float64) float64 {
		if unitCost != nil {
			return (price - *unitCost) * units
		}
		return price * units
	}

	currentDemand, err := o.predictor.Predict(ctx, currentPrice, dctx)
	if err != nil {
		return nil, err
	}

	result := &Result{
		OptimalPrice:     currentPrice,
		OptimalDemand:    currentDemand,
		OptimalObjective: objective(currentPrice, currentDemand),
		CurrentDemand:    currentDemand,
		CurrentObjective: objective(currentPrice, currentDemand),
	}

	low := currentPrice * (1 - o.cfg.SearchPct)
	high := currentPrice * (1 + o.cfg.SearchPct)

	// The epsilon absorbs float accumulation across the grid walk; a
	// candidate must never land above the configured window.
	eps := o.cfg.SearchStep * 1e-9
	for price := low; price <= high+eps; price += o.cfg.SearchStep {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		units, err := o.predictor.Predict(ctx, price, dctx)
		if err != nil {
			return nil, err
		}

		obj := objective(price, units)
		switch {
		case obj > result.OptimalObjective+o.cfg.Tolerance:
			result.OptimalPrice = price
			result.OptimalDemand = units
			result.OptimalObjective = obj
		case math.Abs(obj-result.OptimalObjective) <= o.cfg.Tolerance &&
			math.Abs(price-currentPrice) < math.Abs(result.OptimalPrice-currentPrice):
			// Tied objective: prefer the candidate closer to the current
			// price to minimize unnecessary churn.
			result.OptimalPrice = price
			result.OptimalDemand = units
			result.OptimalObjective = obj
		}
	}

	return result, nil
}
