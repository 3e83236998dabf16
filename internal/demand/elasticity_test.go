package demand

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pourcost/topshelf/internal/model"
)

func predictAt(t *testing.T, p Predictor, price float64, dctx model.DemandContext) float64 {
	t.Helper()
	units, err := p.Predict(context.Background(), price, dctx)
	require.NoError(t, err)
	return units
}

func TestElasticityBaseDemandAtReferencePrice(t *testing.T) {
	p := NewElasticityPredictor(DefaultElasticityConfig())
	dctx := model.DemandContext{EventType: "regular", InventoryLevel: 1.0, Hour: intp(12)}

	assert.InDelta(t, 10.0, predictAt(t, p, 400, dctx), 0.001)
}

func TestElasticityDemandFallsWithPrice(t *testing.T) {
	p := NewElasticityPredictor(DefaultElasticityConfig())
	dctx := model.DemandContext{EventType: "regular", InventoryLevel: 1.0, Hour: intp(12)}

	cheap := predictAt(t, p, 300, dctx)
	expensive := predictAt(t, p, 500, dctx)
	assert.Greater(t, cheap, expensive)
}

func TestElasticityMultipliers(t *testing.T) {
	p := NewElasticityPredictor(DefaultElasticityConfig())
	base := model.DemandContext{EventType: "regular", InventoryLevel: 1.0, Hour: intp(12)}
	baseline := predictAt(t, p, 400, base)

	tests := []struct {
		name string
		dctx model.DemandContext
		want float64
	}{
		{
			name: "friday night",
			dctx: model.DemandContext{EventType: "regular", InventoryLevel: 1.0, Hour: intp(12), IsWeekend: true, DayOfWeek: intp(4)},
			want: baseline * 2.5,
		},
		{
			name: "sunday weekend rate",
			dctx: model.DemandContext{EventType: "regular", InventoryLevel: 1.0, Hour: intp(12), IsWeekend: true, DayOfWeek: intp(6)},
			want: baseline * 1.8,
		},
		{
			name: "late night",
			dctx: model.DemandContext{EventType: "regular", InventoryLevel: 1.0, Hour: intp(23)},
			want: baseline * 1.5,
		},
		{
			name: "early evening",
			dctx: model.DemandContext{EventType: "regular", InventoryLevel: 1.0, Hour: intp(20)},
			want: baseline * 1.2,
		},
		{
			name: "holiday",
			dctx: model.DemandContext{EventType: "holiday", InventoryLevel: 1.0, Hour: intp(12)},
			want: baseline * 1.5,
		},
		{
			name: "private event dampens",
			dctx: model.DemandContext{EventType: "private_event", InventoryLevel: 1.0, Hour: intp(12)},
			want: baseline * 0.8,
		},
		{
			name: "low inventory scarcity",
			dctx: model.DemandContext{EventType: "regular", InventoryLevel: 0.1, Hour: intp(12)},
			want: baseline * 1.1,
		},
		{
			name: "unknown event type is neutral",
			dctx: model.DemandContext{EventType: "arbitrary", InventoryLevel: 1.0, Hour: intp(12)},
			want: baseline,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, predictAt(t, p, 400, tt.dctx), 0.001)
		})
	}
}

func TestElasticityNonPositivePrice(t *testing.T) {
	p := NewElasticityPredictor(DefaultElasticityConfig())
	assert.Zero(t, predictAt(t, p, 0, model.DemandContext{}))
	assert.Zero(t, predictAt(t, p, -10, model.DemandContext{}))
}

func TestElasticityDeterministic(t *testing.T) {
	p := NewElasticityPredictor(DefaultElasticityConfig())
	dctx := model.DemandContext{EventType: "DJ", InventoryLevel: 0.5, Hour: intp(22), IsWeekend: true, DayOfWeek: intp(5)}

	first := predictAt(t, p, 375, dctx)
	second := predictAt(t, p, 375, dctx)
	assert.Equal(t, first, second)
}

func intp(v int) *int {
	return &v
}
