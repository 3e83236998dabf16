package demand

import (
	"context"
	"math"

	"github.com/pourcost/topshelf/internal/model"
)

// ElasticityConfig parameterizes the built-in constant-elasticity
// predictor.
type ElasticityConfig struct {
	// BaseDemand is the expected units at the reference price under
	// regular conditions.
	BaseDemand float64
	// ReferencePrice anchors the elasticity curve.
	ReferencePrice float64
	// Elasticity is the price elasticity of demand; bottle-service demand
	// typically sits around -1.8.
	Elasticity float64
	// EventMultipliers scales demand per event type; unknown event types
	// use 1.0.
	EventMultipliers map[string]float64
}

// DefaultElasticityConfig returns the reference curve fitted to observed
// venue sales patterns.
func DefaultElasticityConfig() ElasticityConfig {
	return ElasticityConfig{
		BaseDemand:     10.0,
		ReferencePrice: 400.0,
		Elasticity:     -1.8,
		EventMultipliers: map[string]float64{
			"regular":       1.0,
			"DJ":            1.3,
			"holiday":       1.5,
			"concert":       1.4,
			"private_event": 0.8,
		},
	}
}

// ElasticityPredictor is a deterministic constant-elasticity demand model.
// It exists so the engine works end-to-end without an external model
// server; a trained model supplied over the remote adapter supersedes it.
// Safe for concurrent use.
type ElasticityPredictor struct {
	cfg ElasticityConfig
}

// NewElasticityPredictor creates the built-in predictor. Zero config
// fields fall back to defaults.
func NewElasticityPredictor(cfg ElasticityConfig) *ElasticityPredictor {
	def := DefaultElasticityConfig()
	if cfg.BaseDemand <= 0 {
		cfg.BaseDemand = def.BaseDemand
	}
	if cfg.ReferencePrice <= 0 {
		cfg.ReferencePrice = def.ReferencePrice
	}
	if cfg.Elasticity == 0 {
		cfg.Elasticity = def.Elasticity
	}
	if cfg.EventMultipliers == nil {
		cfg.EventMultipliers = def.EventMultipliers
	}
	return &ElasticityPredictor{cfg: cfg}
}

// Predict implements Predictor.
func (p *ElasticityPredictor) Predict(_ context.Context, price float64, dctx model.DemandContext) (float64, error) {
	if price <= 0 {
		return 0, nil
	}

	units := p.cfg.BaseDemand * math.Pow(price/p.cfg.ReferencePrice, p.cfg.Elasticity)

	if dctx.IsWeekend {
		if day := dctx.Weekday(); day == 4 || day == 5 {
			units *= 2.5 // Friday and Saturday draw the strongest crowds.
		} else {
			units *= 1.8
		}
	}

	switch hour := dctx.ClockHour(); {
	case hour >= 22 || hour <= 2:
		units *= 1.5
	case hour >= 20:
		units *= 1.2
	}

	if mult, ok := p.cfg.EventMultipliers[dctx.EventType]; ok {
		units *= mult
	}

	// Scarcity nudges demand up slightly when stock runs low.
	if dctx.InventoryLevel > 0 && dctx.InventoryLevel < 0.2 {
		units *= 1.1
	}

	return units, nil
}
