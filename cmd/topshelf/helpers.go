package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/pourcost/topshelf/internal/cost"
	"github.com/pourcost/topshelf/internal/demand"
	"github.com/pourcost/topshelf/internal/engine"
	"github.com/pourcost/topshelf/internal/service"
	"github.com/pourcost/topshelf/internal/storage"
)

// expandPath expands ~ and environment variables in a filesystem path.
func expandPath(path string) string {
	if strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			path = filepath.Join(home, path[2:])
		}
	}
	return os.ExpandEnv(path)
}

// initStorage opens the database and runs migrations.
func initStorage(ctx context.Context) (service.Storage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		dbPath = "$HOME/.local/share/topshelf/topshelf.db"
	}
	dbPath = expandPath(dbPath)

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	return store, nil
}

// engineConfig builds the engine policy from viper, starting from defaults.
func engineConfig() engine.Config {
	cfg := engine.DefaultConfig()
	if v := viper.GetFloat64("pricing.max_change_pct"); v > 0 {
		cfg.MaxChangePct = v
	}
	if v := viper.GetFloat64("pricing.rounding_increment"); v > 0 {
		cfg.RoundingIncrement = v
	}
	if v := viper.GetFloat64("pricing.search_pct"); v > 0 {
		cfg.SearchPct = v
	}
	if v := viper.GetFloat64("pricing.search_step"); v > 0 {
		cfg.SearchStep = v
	}
	if v := viper.GetInt("pricing.workers"); v > 0 {
		cfg.Workers = v
	}
	if v := viper.GetDuration("pricing.predictor_timeout"); v > 0 {
		cfg.PredictorTimeout = v
	}
	return cfg
}

// buildPredictor constructs the demand predictor selected by configuration.
// Returns nil when demand optimization is disabled, which is the default.
func buildPredictor() (demand.Predictor, func(), error) {
	kind := viper.GetString("demand.predictor")
	switch kind {
	case "", "none":
		return nil, func() {}, nil

	case "elasticity":
		return demand.NewElasticityPredictor(demand.DefaultElasticityConfig()), func() {}, nil

	case "remote":
		url := viper.GetString("demand.url")
		if url == "" {
			return nil, nil, fmt.Errorf("demand.url is required for the remote predictor")
		}
		remote, err := demand.NewRemotePredictor(demand.RemoteConfig{BaseURL: url})
		if err != nil {
			return nil, nil, err
		}
		cached := demand.NewCachedPredictor(demand.Validate(remote), 5*time.Minute)
		return cached, cached.Close, nil

	default:
		return nil, nil, fmt.Errorf("unknown demand predictor %q (use none, elasticity, or remote)", kind)
	}
}

// loadEngine assembles an engine from stored records and costs plus the
// configured predictor. The returned cleanup stops the predictor cache.
func loadEngine(ctx context.Context, store service.Storage) (*engine.Engine, func(), error) {
	records, err := store.GetPriceRecords(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load price records: %w", err)
	}
	if len(records) == 0 {
		return nil, nil, fmt.Errorf("no price records imported yet; run 'topshelf import' first")
	}

	costCfg, err := store.GetCostConfig(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load cost config: %w", err)
	}

	predictor, cleanup, err := buildPredictor()
	if err != nil {
		return nil, nil, err
	}

	eng, err := engine.New(records, cost.NewResolver(costCfg), predictor, engineConfig())
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	return eng, cleanup, nil
}
