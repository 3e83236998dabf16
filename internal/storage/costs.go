package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/pourcost/topshelf/internal/cost"
	"github.com/pourcost/topshelf/internal/model"
)

// SaveCostConfig replaces the stored cost configuration. Bottle costs are
// keyed by normalized bottle name so lookups match the price records.
func (s *SQLiteStorage) SaveCostConfig(ctx context.Context, cfg *model.CostConfig) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if cfg == nil {
		return fmt.Errorf("%w: cfg", ErrNilParameter)
	}
	for bottle, c := range cfg.BottleCosts {
		if err := validateCostValue(c, "bottle cost for "+bottle); err != nil {
			return err
		}
	}
	for t, c := range cfg.TypeCosts {
		if err := validateCostValue(c, "type cost for "+t); err != nil {
			return err
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"bottle_costs", "type_costs"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("failed to clear %s: %w", table, err)
		}
	}

	for bottle, c := range cfg.BottleCosts {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO bottle_costs (bottle_normalized, cost) VALUES (?, ?)`,
			model.NormalizedBottle(bottle), c); err != nil {
			return fmt.Errorf("failed to insert bottle cost for %q: %w", bottle, err)
		}
	}

	// Type rows carry an optional cost and an optional margin override, so
	// write the union of both maps.
	types := make(map[string]struct{}, len(cfg.TypeCosts)+len(cfg.TypeMargins))
	for t := range cfg.TypeCosts {
		types[t] = struct{}{}
	}
	for t := range cfg.TypeMargins {
		types[t] = struct{}{}
	}
	for t := range types {
		var costVal, marginVal sql.NullFloat64
		if c, ok := cfg.TypeCosts[t]; ok {
			costVal = sql.NullFloat64{Float64: c, Valid: true}
		}
		if m, ok := cfg.TypeMargins[t]; ok {
			marginVal = sql.NullFloat64{Float64: m, Valid: true}
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO type_costs (type, cost, min_margin_pct) VALUES (?, ?, ?)`,
			t, costVal, marginVal); err != nil {
			return fmt.Errorf("failed to insert type cost for %q: %w", t, err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT OR REPLACE INTO cost_settings (id, min_margin_pct) VALUES (1, ?)`,
		cfg.MinMarginPct); err != nil {
		return fmt.Errorf("failed to save cost settings: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit cost config: %w", err)
	}
	return nil
}

// GetCostConfig loads the stored cost configuration. An empty store yields a
// config with no costs and the default minimum margin.
func (s *SQLiteStorage) GetCostConfig(ctx context.Context) (*model.CostConfig, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	cfg := &model.CostConfig{
		BottleCosts:  make(map[string]float64),
		TypeCosts:    make(map[string]float64),
		TypeMargins:  make(map[string]float64),
		MinMarginPct: cost.DefaultMinMarginPct,
	}

	rows, err := s.db.QueryContext(ctx, `SELECT bottle_normalized, cost FROM bottle_costs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query bottle costs: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var bottle string
		var c float64
		if err := rows.Scan(&bottle, &c); err != nil {
			return nil, fmt.Errorf("failed to scan bottle cost: %w", err)
		}
		cfg.BottleCosts[bottle] = c
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate bottle costs: %w", err)
	}

	typeRows, err := s.db.QueryContext(ctx, `SELECT type, cost, min_margin_pct FROM type_costs`)
	if err != nil {
		return nil, fmt.Errorf("failed to query type costs: %w", err)
	}
	defer func() { _ = typeRows.Close() }()
	for typeRows.Next() {
		var t string
		var costVal, marginVal sql.NullFloat64
		if err := typeRows.Scan(&t, &costVal, &marginVal); err != nil {
			return nil, fmt.Errorf("failed to scan type cost: %w", err)
		}
		if costVal.Valid {
			cfg.TypeCosts[t] = costVal.Float64
		}
		if marginVal.Valid {
			cfg.TypeMargins[t] = marginVal.Float64
		}
	}
	if err := typeRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate type costs: %w", err)
	}

	var minMargin float64
	err = s.db.QueryRowContext(ctx, `SELECT min_margin_pct FROM cost_settings WHERE id = 1`).Scan(&minMargin)
	switch {
	case err == sql.ErrNoRows:
		// keep the default
	case err != nil:
		return nil, fmt.Errorf("failed to query cost settings: %w", err)
	default:
		cfg.MinMarginPct = minMargin
	}

	return cfg, nil
}
