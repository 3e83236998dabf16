package engine

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pourcost/topshelf/internal/cost"
	"github.com/pourcost/topshelf/internal/model"
)

func marketRecords() []model.PriceRecord {
	return []model.PriceRecord{
		{Venue: "Skybar", Bottle: "Grey Goose", Type: "Vodka", Price: 425},
		{Venue: "Skybar", Bottle: "Don Julio 1942", Type: "Tequila", Price: 900},
		{Venue: "The Velvet Room", Bottle: "Grey Goose", Type: "Vodka", Price: 350},
	}
}

func newTestEngine(t *testing.T, records []model.PriceRecord, costs *model.CostConfig, predictor *MockPredictor) *Engine {
	t.Helper()

	var resolver CostResolver
	if costs != nil {
		resolver = cost.NewResolver(costs)
	}

	var eng *Engine
	var err error
	if predictor != nil {
		eng, err = New(records, resolver, predictor, DefaultConfig())
	} else {
		eng, err = New(records, resolver, nil, DefaultConfig())
	}
	require.NoError(t, err)
	return eng
}

func TestNewRequiresRecords(t *testing.T) {
	_, err := New(nil, nil, nil, DefaultConfig())
	assert.Error(t, err)
}

func TestRecommendBenchmarkMethod(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)

	// Velvet Room lists Grey Goose at 350. The cross-venue median is
	// 387.5 and the venue prices at 350/425 of market, so the target is
	// 387.5 × (350/425) ≈ 319, which rounds to 325 inside the ±15% band.
	rec, err := eng.Recommend(context.Background(), "The Velvet Room", "Grey Goose", "Vodka", 350, model.DemandContext{})
	require.NoError(t, err)

	assert.Equal(t, model.MethodBenchmark, rec.Method)
	assert.Equal(t, model.TierBottle, rec.EstimateTier)
	assert.InDelta(t, 387.5, rec.MarketEstimate, 0.001)
	assert.InDelta(t, 325, rec.RecommendedPrice, 0.001)
	assert.InDelta(t, -25, rec.DeltaAbs, 0.001)
	assert.InDelta(t, -7.1, rec.DeltaPct, 0.05)
	assert.True(t, rec.WithinGuardrails())
	assert.NotEmpty(t, rec.Rationale)
}

func TestRecommendUnknownVenueNeutralVPI(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)

	rec, err := eng.Recommend(context.Background(), "Brand New Venue", "Grey Goose", "Vodka", 387.5, model.DemandContext{})
	require.NoError(t, err)

	assert.InDelta(t, 1.0, rec.VPI, 0.001)
	// Target equals the estimate; 387.50 rounds half away from zero.
	assert.InDelta(t, 400, rec.RecommendedPrice, 0.001)
}

func TestRecommendEstimateFallback(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)

	// Unlisted bottle of a known type uses the type median.
	rec, err := eng.Recommend(context.Background(), "Skybar", "Belvedere", "Vodka", 400, model.DemandContext{})
	require.NoError(t, err)
	assert.Equal(t, model.TierType, rec.EstimateTier)
	assert.InDelta(t, 387.5, rec.MarketEstimate, 0.001)

	// Unknown type falls through to the global median.
	rec, err = eng.Recommend(context.Background(), "Skybar", "Clase Azul", "Mezcal", 400, model.DemandContext{})
	require.NoError(t, err)
	assert.Equal(t, model.TierGlobal, rec.EstimateTier)
	assert.InDelta(t, 425, rec.MarketEstimate, 0.001)
}

func TestRecommendRejectsNonPositivePrice(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)
	_, err := eng.Recommend(context.Background(), "Skybar", "Grey Goose", "Vodka", 0, model.DemandContext{})
	assert.Error(t, err)
}

func TestRecommendRaisesToMarginFloor(t *testing.T) {
	records := []model.PriceRecord{
		{Venue: "Solo", Bottle: "House Vodka", Type: "Vodka", Price: 180},
	}
	costs := &model.CostConfig{
		BottleCosts:  map[string]float64{"house vodka": 140},
		MinMarginPct: 0.30,
	}
	eng := newTestEngine(t, records, costs, nil)

	// Benchmark target is 180, which rounds to 175 with only a 20%
	// margin on a $140 cost. The floor 140/(1-0.30) = $200 sits inside
	// the ±15% band, so the price is raised to exactly 200.
	rec, err := eng.Recommend(context.Background(), "Solo", "House Vodka", "Vodka", 180, model.DemandContext{})
	require.NoError(t, err)

	assert.InDelta(t, 200, rec.RecommendedPrice, 0.001)
	assert.False(t, rec.MarginShortfall)
	require.NotNil(t, rec.ProfitMarginPct)
	assert.InDelta(t, 0.30, *rec.ProfitMarginPct, 1e-9)
	assert.True(t, rec.WithinGuardrails())
}

func TestRecommendMarginShortfallFlagged(t *testing.T) {
	records := []model.PriceRecord{
		{Venue: "Solo", Bottle: "Loss Leader", Type: "Vodka", Price: 100},
	}
	costs := &model.CostConfig{
		BottleCosts:  map[string]float64{"loss leader": 140},
		MinMarginPct: 0.30,
	}
	eng := newTestEngine(t, records, costs, nil)

	// The floor is $200 but the band tops out at $115. The best
	// attainable price is emitted with the shortfall flagged, never
	// silently dropped or violated upward.
	rec, err := eng.Recommend(context.Background(), "Solo", "Loss Leader", "Vodka", 100, model.DemandContext{})
	require.NoError(t, err)

	assert.True(t, rec.MarginShortfall)
	assert.True(t, rec.WithinGuardrails())
	assert.InDelta(t, 115, rec.RecommendedPrice, 0.001)
	require.NotNil(t, rec.ProfitMarginPct)
	assert.Less(t, *rec.ProfitMarginPct, 0.30)
	assert.Contains(t, rec.Rationale, "WARNING")
}

func TestRecommendGuardrailsNeverExceeded(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)

	// The Velvet Room's Don Julio listing would be pulled far up toward
	// the market median, but the band caps the move at +15%.
	rec, err := eng.Recommend(context.Background(), "The Velvet Room", "Don Julio 1942", "Tequila", 500, model.DemandContext{})
	require.NoError(t, err)

	assert.True(t, rec.WithinGuardrails())
	assert.LessOrEqual(t, rec.RecommendedPrice, 500*1.15)
	assert.GreaterOrEqual(t, rec.RecommendedPrice, 500*0.85)
}

func TestRecommendMinimumIncrementFloor(t *testing.T) {
	records := []model.PriceRecord{
		{Venue: "Solo", Bottle: "Rail Pour", Type: "Vodka", Price: 10},
	}
	eng := newTestEngine(t, records, nil, nil)

	rec, err := eng.Recommend(context.Background(), "Solo", "Rail Pour", "Vodka", 10, model.DemandContext{})
	require.NoError(t, err)

	// Rounding would send a $10 listing to $0; the increment is the hard
	// floor for any recommendation.
	assert.InDelta(t, 25, rec.RecommendedPrice, 0.001)
}

func TestRecommendDemandOptimizedPreferred(t *testing.T) {
	records := []model.PriceRecord{
		{Venue: "Solo", Bottle: "Grey Goose", Type: "Vodka", Price: 400},
	}
	predictor := &MockPredictor{DefaultDemand: 5}
	eng := newTestEngine(t, records, nil, predictor)

	// Flat demand means revenue rises with price, so the grid search
	// finds the top of its window and the demand method wins. The
	// guardrail then clamps 520 down to the band and rounds to 450.
	rec, err := eng.Recommend(context.Background(), "Solo", "Grey Goose", "Vodka", 400, model.DemandContext{})
	require.NoError(t, err)

	assert.Equal(t, model.MethodDemandOptimized, rec.Method)
	assert.InDelta(t, 450, rec.RecommendedPrice, 0.001)
	assert.True(t, rec.WithinGuardrails())
	require.NotNil(t, rec.ObjectiveCurrent)
	require.NotNil(t, rec.ObjectiveOptimal)
	assert.Greater(t, *rec.ObjectiveOptimal, *rec.ObjectiveCurrent)
	require.NotNil(t, rec.PredictedDemandCurrent)
	assert.Contains(t, rec.Rationale, "Demand-optimized")
}

func TestRecommendDemandConfirmsBenchmark(t *testing.T) {
	records := []model.PriceRecord{
		{Venue: "Solo", Bottle: "Grey Goose", Type: "Vodka", Price: 400},
	}
	// Constant-revenue curve: every candidate ties the current price, so
	// the improvement never clears the tolerance.
	predictor := &MockPredictor{
		Curve: func(price float64, _ model.DemandContext) float64 {
			return 2000 / price
		},
	}
	eng := newTestEngine(t, records, nil, predictor)

	rec, err := eng.Recommend(context.Background(), "Solo", "Grey Goose", "Vodka", 400, model.DemandContext{})
	require.NoError(t, err)

	assert.Equal(t, model.MethodBenchmark, rec.Method)
	// The diagnostics are still reported even when the benchmark wins.
	require.NotNil(t, rec.ObjectiveCurrent)
	assert.Nil(t, rec.ObjectiveOptimal)
}

func TestRecommendPredictorFailureFallsBack(t *testing.T) {
	records := []model.PriceRecord{
		{Venue: "Solo", Bottle: "Grey Goose", Type: "Vodka", Price: 400},
	}
	predictor := &MockPredictor{
		DefaultDemand: 5,
		FailFor:       map[string]error{"grey goose": errors.New("model server down")},
	}
	eng := newTestEngine(t, records, nil, predictor)

	rec, err := eng.Recommend(context.Background(), "Solo", "Grey Goose", "Vodka", 400,
		model.DemandContext{Bottle: "Grey Goose"})
	require.NoError(t, err)

	assert.Equal(t, model.MethodBenchmark, rec.Method)
	assert.Nil(t, rec.ObjectiveCurrent)
	assert.True(t, rec.WithinGuardrails())
}

func TestRecommendInvalidDemandFallsBack(t *testing.T) {
	tests := []struct {
		name  string
		units float64
	}{
		{"nan", math.NaN()},
		{"negative", -3},
		{"positive infinity", math.Inf(1)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			predictor := &MockPredictor{
				Curve: func(float64, model.DemandContext) float64 { return tt.units },
			}
			eng := newTestEngine(t, marketRecords(), nil, predictor)

			rec, err := eng.Recommend(context.Background(), "The Velvet Room", "Grey Goose", "Vodka", 350,
				model.DemandContext{Bottle: "Grey Goose"})
			require.NoError(t, err)

			// Garbage demand degrades to the benchmark method; it never
			// reaches the objective.
			assert.Equal(t, model.MethodBenchmark, rec.Method)
			assert.Nil(t, rec.ObjectiveCurrent)
			assert.Nil(t, rec.ObjectiveOptimal)
			assert.InDelta(t, 325, rec.RecommendedPrice, 0.001)

			// The recommendation stays serializable for the HTTP API.
			_, err = json.Marshal(rec)
			require.NoError(t, err)
		})
	}
}

func TestRecommendCostMarginsReported(t *testing.T) {
	costs := &model.CostConfig{
		BottleCosts:  map[string]float64{"grey goose": 140},
		MinMarginPct: 0.30,
	}
	eng := newTestEngine(t, marketRecords(), costs, nil)

	rec, err := eng.Recommend(context.Background(), "The Velvet Room", "Grey Goose", "Vodka", 350, model.DemandContext{})
	require.NoError(t, err)

	// 325 clears the $200 floor comfortably; margin facts are attached.
	assert.InDelta(t, 325, rec.RecommendedPrice, 0.001)
	require.NotNil(t, rec.Cost)
	assert.InDelta(t, 140, *rec.Cost, 0.001)
	require.NotNil(t, rec.Profit)
	assert.InDelta(t, 185, *rec.Profit, 0.001)
	require.NotNil(t, rec.ProfitMarginPct)
	assert.InDelta(t, 185.0/325, *rec.ProfitMarginPct, 0.001)
	assert.False(t, rec.MarginShortfall)
}

func TestMarketAnalysisSorted(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)

	analysis := eng.MarketAnalysis()
	assert.InDelta(t, 425, analysis.GlobalMedian, 0.001)

	require.Len(t, analysis.Venues, 2)
	assert.Equal(t, "Skybar", analysis.Venues[0].Venue)
	assert.Greater(t, analysis.Venues[0].VPI, analysis.Venues[1].VPI)

	require.Len(t, analysis.TypeMedians, 2)
	assert.Equal(t, "Tequila", analysis.TypeMedians[0].Type)
	assert.GreaterOrEqual(t, analysis.TypeMedians[0].Median, analysis.TypeMedians[1].Median)
}
