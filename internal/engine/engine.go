// Package engine implements the recommendation orchestrator that combines
// market benchmarking with demand-driven price optimization.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/cost"
	"github.com/pourcost/topshelf/internal/demand"
	"github.com/pourcost/topshelf/internal/market"
	"github.com/pourcost/topshelf/internal/model"
)

// Config holds the policy knobs for the recommendation engine.
type Config struct {
	// MaxChangePct bounds a recommendation at current × (1 ± MaxChangePct).
	MaxChangePct float64
	// RoundingIncrement is the dollar increment recommendations round to.
	RoundingIncrement float64
	// SearchPct and SearchStep configure the optimizer's price grid; the
	// search window is deliberately wider than the guardrail band.
	SearchPct  float64
	SearchStep float64
	// ObjectiveTolerance is the minimum objective improvement before the
	// demand-optimized price is preferred over the benchmark target.
	ObjectiveTolerance float64
	// MarginTolerance is the slack applied when comparing a margin to the
	// floor, absorbing rounding noise.
	MarginTolerance float64
	// PredictorTimeout bounds one product's demand optimization; zero
	// means no timeout. On expiry the product falls back to the benchmark
	// method.
	PredictorTimeout time.Duration
	// Workers bounds bulk recommendation parallelism.
	Workers int
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{
		MaxChangePct:       0.15,
		RoundingIncrement:  25,
		SearchPct:          0.30,
		SearchStep:         5,
		ObjectiveTolerance: 1e-6,
		MarginTolerance:    1e-9,
		PredictorTimeout:   10 * time.Second,
		Workers:            4,
	}
}

// Engine produces price recommendations against one load of the record
// set. Snapshots are computed at construction and shared read-only, so an
// Engine is safe for concurrent use.
type Engine struct {
	snapshot    *model.BenchmarkSnapshot
	positioning *model.PositioningSnapshot
	estimates   Estimator
	costs       CostResolver
	predictor   demand.Predictor
	optimizer   *demand.Optimizer
	cfg         Config
}

// New builds an engine from a record set. The predictor is optional; when
// nil, every recommendation uses the benchmark method. The record set must
// be non-empty.
func New(records []model.PriceRecord, costs CostResolver, predictor demand.Predictor, cfg Config) (*Engine, error) {
	if cfg.MaxChangePct <= 0 {
		cfg.MaxChangePct = DefaultConfig().MaxChangePct
	}
	if cfg.RoundingIncrement <= 0 {
		cfg.RoundingIncrement = DefaultConfig().RoundingIncrement
	}
	if cfg.Workers <= 0 {
		cfg.Workers = DefaultConfig().Workers
	}
	if cfg.ObjectiveTolerance <= 0 {
		cfg.ObjectiveTolerance = DefaultConfig().ObjectiveTolerance
	}

	snapshot, err := market.ComputeBenchmarks(records)
	if err != nil {
		return nil, fmt.Errorf("failed to compute benchmarks: %w", err)
	}

	positioning, err := market.ComputePositioning(records, snapshot)
	if err != nil {
		return nil, fmt.Errorf("failed to compute positioning: %w", err)
	}

	if costs == nil {
		costs = cost.NewResolver(nil)
	}

	if predictor != nil {
		// Invalid demand (negative, NaN, Inf) must degrade the product to
		// the benchmark method, not leak into the objective.
		predictor = demand.Validate(predictor)
	}

	e := &Engine{
		snapshot:    snapshot,
		positioning: positioning,
		estimates:   market.NewEstimateChain(snapshot),
		costs:       costs,
		predictor:   predictor,
		cfg:         cfg,
	}

	if predictor != nil {
		e.optimizer = demand.NewOptimizer(predictor, demand.OptimizerConfig{
			SearchPct:  cfg.SearchPct,
			SearchStep: cfg.SearchStep,
			Tolerance:  cfg.ObjectiveTolerance,
		})
	}

	return e, nil
}

// Snapshot returns the benchmark snapshot the engine was built from.
func (e *Engine) Snapshot() *model.BenchmarkSnapshot {
	return e.snapshot
}

// Positioning returns the positioning snapshot the engine was built from.
func (e *Engine) Positioning() *model.PositioningSnapshot {
	return e.positioning
}

// Recommend produces a price recommendation for one (venue, bottle) pair.
// A predictor failure degrades this product to the benchmark method; it
// never fails the call.
func (e *Engine) Recommend(ctx context.Context, venue, bottle, bottleType string, currentPrice float64, dctx model.DemandContext) (*model.Recommendation, error) {
	if currentPrice <= 0 {
		return nil, fmt.Errorf("current price must be positive: got %v", currentPrice)
	}

	estimate, tier, ok := e.estimates.Estimate(bottle, bottleType)
	if !ok {
		return nil, fmt.Errorf("%w: no market estimate for %q", common.ErrInsufficientData, bottle)
	}

	vpi := e.positioning.VenueVPI(venue)
	benchmarkTarget := estimate * vpi

	rec := &model.Recommendation{
		Venue:          venue,
		Bottle:         bottle,
		Type:           bottleType,
		CurrentPrice:   currentPrice,
		MarketEstimate: estimate,
		EstimateTier:   tier,
		VPI:            vpi,
		Method:         model.MethodBenchmark,
		MinPrice:       currentPrice * (1 - e.cfg.MaxChangePct),
		MaxPrice:       currentPrice * (1 + e.cfg.MaxChangePct),
	}

	resolved := e.costs.Resolve(bottle, bottleType)
	rec.Cost = resolved.Cost

	target := benchmarkTarget
	if e.optimizer != nil {
		if optimized, used := e.optimize(ctx, rec, resolved, dctx); used {
			target = optimized
		}
	}

	e.applyGuardrails(rec, resolved, target)
	rec.DeltaAbs = round2(rec.RecommendedPrice - currentPrice)
	rec.DeltaPct = round1((rec.RecommendedPrice - currentPrice) / currentPrice * 100)
	rec.Rationale = e.rationale(rec, resolved)

	return rec, nil
}

// optimize runs the demand-driven grid search and reports whether its
// candidate should replace the benchmark target. Failures degrade to the
// benchmark method for this product only.
func (e *Engine) optimize(ctx context.Context, rec *model.Recommendation, resolved model.ResolvedCost, dctx model.DemandContext) (float64, bool) {
	if e.cfg.PredictorTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.cfg.PredictorTimeout)
		defer cancel()
	}

	result, err := e.optimizer.Optimize(ctx, rec.CurrentPrice, resolved.Cost, dctx)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, common.ErrPredictorUnavailable) {
			slog.Warn("Demand predictor unavailable, falling back to benchmark",
				"venue", rec.Venue,
				"bottle", rec.Bottle,
				"error", err)
			return 0, false
		}
		slog.Error("Demand optimization failed, falling back to benchmark",
			"venue", rec.Venue,
			"bottle", rec.Bottle,
			"error", err)
		return 0, false
	}

	rec.PredictedDemandCurrent = ptr(result.CurrentDemand)
	rec.ObjectiveCurrent = ptr(result.CurrentObjective)

	if result.Improvement() <= e.cfg.ObjectiveTolerance {
		// The demand model confirms the market-based recommendation.
		return 0, false
	}

	rec.Method = model.MethodDemandOptimized
	rec.PredictedDemandOptimal = ptr(result.OptimalDemand)
	rec.ObjectiveOptimal = ptr(result.OptimalObjective)
	return result.OptimalPrice, true
}

// applyGuardrails clamps the chosen target into the bounded change window,
// rounds it, and enforces the margin floor with a second clamp-and-round
// pass. The pass order (clamp, round, margin floor, clamp, round) is load
// bearing: reordering changes which edge cases trip the shortfall flag.
func (e *Engine) applyGuardrails(rec *model.Recommendation, resolved model.ResolvedCost, target float64) {
	price := clamp(target, rec.MinPrice, rec.MaxPrice)
	price = roundToIncrement(price, e.cfg.RoundingIncrement)
	price = clamp(price, rec.MinPrice, rec.MaxPrice)

	// No recommendation below one increment.
	if price < e.cfg.RoundingIncrement {
		price = e.cfg.RoundingIncrement
	}

	if resolved.Known() {
		floor, err := cost.MinimumPriceForMargin(*resolved.Cost, resolved.MinMarginPct)
		if err == nil && cost.ProfitMarginPct(price, *resolved.Cost) < resolved.MinMarginPct-e.cfg.MarginTolerance {
			price = clamp(floor, rec.MinPrice, rec.MaxPrice)
			price = roundToIncrement(price, e.cfg.RoundingIncrement)
			price = clamp(price, rec.MinPrice, rec.MaxPrice)

			if cost.ProfitMarginPct(price, *resolved.Cost) < resolved.MinMarginPct-e.cfg.MarginTolerance {
				// Guardrail band too narrow to reach profitability; emit
				// the best attainable price, flagged.
				rec.MarginShortfall = true
			}
		}

		margin := cost.ProfitMarginPct(price, *resolved.Cost)
		rec.Profit = ptr(round2(cost.Profit(price, *resolved.Cost)))
		rec.ProfitMarginPct = ptr(margin)
	}

	rec.RecommendedPrice = price
}

func clamp(v, low, high float64) float64 {
	return math.Max(low, math.Min(high, v))
}

// roundToIncrement rounds to the nearest increment, half away from zero.
func roundToIncrement(v, increment float64) float64 {
	return math.Round(v/increment) * increment
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func ptr(v float64) *float64 {
	return &v
}
