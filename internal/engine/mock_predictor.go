package engine

import (
	"context"
	"sync"

	"github.com/pourcost/topshelf/internal/model"
)

// MockPredictor is a test implementation of the demand predictor. It
// returns deterministic demand from a configurable curve and records every
// call for assertions.
type MockPredictor struct {
	// Curve maps a price to expected units; when nil, DefaultDemand is
	// returned for every price.
	Curve func(price float64, dctx model.DemandContext) float64
	// FailFor marks bottles (normalized) whose predictions fail.
	FailFor map[string]error
	// DefaultDemand is returned when no Curve is set.
	DefaultDemand float64

	calls []MockPredictCall
	mu    sync.Mutex
}

// MockPredictCall records one prediction request.
type MockPredictCall struct {
	Context model.DemandContext
	Price   float64
}

// NewMockPredictor creates a mock with a flat demand curve.
func NewMockPredictor() *MockPredictor {
	return &MockPredictor{DefaultDemand: 5}
}

// Predict implements the demand predictor contract.
func (m *MockPredictor) Predict(_ context.Context, price float64, dctx model.DemandContext) (float64, error) {
	m.mu.Lock()
	m.calls = append(m.calls, MockPredictCall{Price: price, Context: dctx})
	m.mu.Unlock()

	if err, ok := m.FailFor[model.NormalizedBottle(dctx.Bottle)]; ok {
		return 0, err
	}

	if m.Curve != nil {
		return m.Curve(price, dctx), nil
	}
	return m.DefaultDemand, nil
}

// Calls returns a copy of the recorded prediction requests.
func (m *MockPredictor) Calls() []MockPredictCall {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]MockPredictCall, len(m.calls))
	copy(out, m.calls)
	return out
}
