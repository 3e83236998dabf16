package cost

import (
	"fmt"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/market"
	"github.com/pourcost/topshelf/internal/model"
)

// EstimateFromRecords seeds a cost configuration from observed prices,
// assuming current prices carry the given profit margin. Bottle costs come
// from each listing's price; type costs from the type median. This is a
// bootstrapping aid until real cost-of-goods data is supplied.
func EstimateFromRecords(records []model.PriceRecord, assumedMarginPct float64) (*model.CostConfig, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: no records to estimate costs from", common.ErrInsufficientData)
	}
	if assumedMarginPct <= 0 || assumedMarginPct >= 1 {
		return nil, fmt.Errorf("assumed margin must be in (0, 1): got %v", assumedMarginPct)
	}

	cfg := &model.CostConfig{
		BottleCosts:  make(map[string]float64),
		TypeCosts:    make(map[string]float64),
		MinMarginPct: DefaultMinMarginPct,
	}

	byType := make(map[string][]float64)
	for _, r := range records {
		if r.Price <= 0 {
			continue
		}
		bottle := model.NormalizedBottle(r.Bottle)
		if _, seen := cfg.BottleCosts[bottle]; !seen {
			cfg.BottleCosts[bottle] = r.Price * (1 - assumedMarginPct)
		}
		byType[r.Type] = append(byType[r.Type], r.Price)
	}

	for bottleType, prices := range byType {
		cfg.TypeCosts[bottleType] = market.Median(prices) * (1 - assumedMarginPct)
	}

	return cfg, nil
}
