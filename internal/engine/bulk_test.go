package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pourcost/topshelf/internal/model"
)

func TestRequestsFromRecords(t *testing.T) {
	dctx := model.DemandContext{EventType: "DJ", Hour: intp(23)}
	requests := RequestsFromRecords(marketRecords(), dctx)

	require.Len(t, requests, 3)
	assert.Equal(t, "Skybar", requests[0].Venue)
	assert.Equal(t, "Grey Goose", requests[0].Bottle)
	assert.InDelta(t, 425, requests[0].CurrentPrice, 0.001)

	// The shared context is specialized per product.
	assert.Equal(t, "DJ", requests[0].Context.EventType)
	assert.Equal(t, "Grey Goose", requests[0].Context.Bottle)
	assert.Equal(t, "Skybar", requests[0].Context.Venue)
}

func TestBulkRecommendAllSucceed(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)

	requests := RequestsFromRecords(marketRecords(), model.DemandContext{})
	results, stats := eng.BulkRecommend(context.Background(), requests, BulkOptions{})

	require.Len(t, results, 3)
	for i, res := range results {
		require.NoError(t, res.Err)
		require.NotNil(t, res.Recommendation)
		// Results preserve request order.
		assert.Equal(t, requests[i].Bottle, res.Recommendation.Bottle)
		assert.True(t, res.Recommendation.WithinGuardrails())
	}

	assert.Equal(t, 3, stats.Total)
	assert.Equal(t, 3, stats.Benchmark)
	assert.Zero(t, stats.DemandOptimized)
	assert.Zero(t, stats.Failed)
	assert.Zero(t, stats.PredictorFailed)
}

func TestBulkRecommendPredictorFailureIsolated(t *testing.T) {
	predictor := &MockPredictor{
		DefaultDemand: 5,
		FailFor:       map[string]error{"don julio 1942": errors.New("model server down")},
	}
	eng := newTestEngine(t, marketRecords(), nil, predictor)

	requests := RequestsFromRecords(marketRecords(), model.DemandContext{})
	results, stats := eng.BulkRecommend(context.Background(), requests, BulkOptions{})

	require.Len(t, results, 3)
	for _, res := range results {
		// A predictor failure never fails the product, it degrades it.
		require.NoError(t, res.Err)
		require.NotNil(t, res.Recommendation)
	}

	assert.Equal(t, 1, stats.PredictorFailed)
	assert.Equal(t, 2, stats.DemandOptimized)
	assert.Equal(t, 1, stats.Benchmark)
	assert.Zero(t, stats.Failed)

	// The failed product fell back to the benchmark method.
	for _, res := range results {
		if model.NormalizedBottle(res.Recommendation.Bottle) == "don julio 1942" {
			assert.Equal(t, model.MethodBenchmark, res.Recommendation.Method)
			assert.Nil(t, res.Recommendation.ObjectiveCurrent)
		}
	}
}

func TestBulkRecommendBadRequestIsolated(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)

	requests := RequestsFromRecords(marketRecords(), model.DemandContext{})
	requests[1].CurrentPrice = 0

	results, stats := eng.BulkRecommend(context.Background(), requests, BulkOptions{})

	assert.Error(t, results[1].Err)
	assert.NoError(t, results[0].Err)
	assert.NoError(t, results[2].Err)
	assert.Equal(t, 1, stats.Failed)
	assert.Equal(t, 2, stats.Benchmark)
}

func TestBulkRecommendProgress(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)

	var calls int64
	var lastTotal int64
	requests := RequestsFromRecords(marketRecords(), model.DemandContext{})
	_, _ = eng.BulkRecommend(context.Background(), requests, BulkOptions{
		Workers: 2,
		Progress: func(_, total int) {
			atomic.AddInt64(&calls, 1)
			atomic.StoreInt64(&lastTotal, int64(total))
		},
	})

	assert.Equal(t, int64(3), atomic.LoadInt64(&calls))
	assert.Equal(t, int64(3), atomic.LoadInt64(&lastTotal))
}

func TestBulkRecommendCancelledContext(t *testing.T) {
	eng := newTestEngine(t, marketRecords(), nil, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	requests := RequestsFromRecords(marketRecords(), model.DemandContext{})
	results, stats := eng.BulkRecommend(ctx, requests, BulkOptions{})

	for _, res := range results {
		assert.ErrorIs(t, res.Err, context.Canceled)
	}
	assert.Equal(t, 3, stats.Failed)
}

func TestBulkRecommendMarginShortfallCounted(t *testing.T) {
	records := []model.PriceRecord{
		{Venue: "Solo", Bottle: "Loss Leader", Type: "Vodka", Price: 100},
		{Venue: "Solo", Bottle: "Healthy", Type: "Vodka", Price: 400},
	}
	costs := &model.CostConfig{
		BottleCosts:  map[string]float64{"loss leader": 140, "healthy": 100},
		MinMarginPct: 0.30,
	}
	eng := newTestEngine(t, records, costs, nil)

	requests := RequestsFromRecords(records, model.DemandContext{})
	_, stats := eng.BulkRecommend(context.Background(), requests, BulkOptions{})

	assert.Equal(t, 1, stats.MarginShortfalls)
}

func intp(v int) *int {
	return &v
}
