// Package cost resolves unit costs and enforces minimum-margin constraints.
package cost

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/pourcost/topshelf/internal/model"
)

// DefaultMinMarginPct is the global minimum profit margin applied when the
// configuration does not override it.
const DefaultMinMarginPct = 0.30

// LoadConfig reads a cost configuration from a JSON file. Bottle keys are
// normalized on load so lookups match the benchmark maps.
func LoadConfig(path string) (*model.CostConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read cost config: %w", err)
	}

	var cfg model.CostConfig
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse cost config: %w", err)
	}

	normalized := make(map[string]float64, len(cfg.BottleCosts))
	for bottle, c := range cfg.BottleCosts {
		normalized[model.NormalizedBottle(bottle)] = c
	}
	cfg.BottleCosts = normalized

	if cfg.MinMarginPct == 0 {
		cfg.MinMarginPct = DefaultMinMarginPct
	}
	if cfg.MinMarginPct < 0 || cfg.MinMarginPct >= 1 {
		return nil, fmt.Errorf("min profit margin must be in [0, 1): got %v", cfg.MinMarginPct)
	}

	return &cfg, nil
}

// SaveConfig writes a cost configuration to a JSON file.
func SaveConfig(path string, cfg *model.CostConfig) error {
	data, err := json.MarshalIndent(cfg, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal cost config: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write cost config: %w", err)
	}
	return nil
}
