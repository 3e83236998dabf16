// Package demand defines the demand predictor contract and the price
// optimizer that searches for the objective-maximizing price.
package demand

import (
	"context"
	"fmt"
	"math"
	"sync"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/model"
)

// Predictor estimates expected unit demand at a candidate price. It must
// behave as a pure function of its inputs within one optimization run: the
// optimizer calls it repeatedly in a tight loop and assumes identical
// inputs yield identical outputs. Implementations must be safe for
// concurrent use, or be wrapped with Serialize before bulk recommendation.
type Predictor interface {
	Predict(ctx context.Context, price float64, dctx model.DemandContext) (float64, error)
}

// PredictorFunc adapts a function to the Predictor interface.
type PredictorFunc func(ctx context.Context, price float64, dctx model.DemandContext) (float64, error)

// Predict implements Predictor.
func (f PredictorFunc) Predict(ctx context.Context, price float64, dctx model.DemandContext) (float64, error) {
	return f(ctx, price, dctx)
}

// Serialize wraps a predictor that is not safe for concurrent use so that
// bulk recommendation can still parallelize the rest of the pipeline.
func Serialize(p Predictor) Predictor {
	var mu sync.Mutex
	return PredictorFunc(func(ctx context.Context, price float64, dctx model.DemandContext) (float64, error) {
		mu.Lock()
		defer mu.Unlock()
		return p.Predict(ctx, price, dctx)
	})
}

// Validate wraps a predictor so that invalid outputs (negative, NaN, Inf)
// surface as predictor-unavailable errors instead of corrupting the
// optimization objective.
func Validate(p Predictor) Predictor {
	return PredictorFunc(func(ctx context.Context, price float64, dctx model.DemandContext) (float64, error) {
		units, err := p.Predict(ctx, price, dctx)
		if err != nil {
			return 0, fmt.Errorf("%w: %v", common.ErrPredictorUnavailable, err)
		}
		if units < 0 || math.IsNaN(units) || math.IsInf(units, 0) {
			return 0, fmt.Errorf("%w: invalid demand %v at price %v", common.ErrPredictorUnavailable, units, price)
		}
		return units, nil
	})
}
