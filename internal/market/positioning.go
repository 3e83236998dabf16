package market

import (
	"fmt"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/model"
)

// ComputePositioning derives the Venue Premium Index for every venue and
// the Brand Premium Score for every bottle from a benchmark snapshot.
//
//	VPI[v] = median(prices at v) / global_median
//	BPS[b] = bottle_median[b] / type_median[type(b)]
//
// Prices are constrained to be positive, so a zero global median should be
// impossible; if it occurs the benchmark is degenerate and positioning
// cannot be computed.
func ComputePositioning(records []model.PriceRecord, snapshot *model.BenchmarkSnapshot) (*model.PositioningSnapshot, error) {
	if snapshot == nil || len(records) == 0 {
		return nil, fmt.Errorf("%w: no records for positioning", common.ErrInsufficientData)
	}
	if snapshot.GlobalMedian <= 0 {
		return nil, fmt.Errorf("%w: global median is %v", common.ErrDegenerateBenchmark, snapshot.GlobalMedian)
	}

	byVenue := make(map[string][]float64)
	bottleTypes := make(map[string]string)
	for _, r := range records {
		byVenue[r.Venue] = append(byVenue[r.Venue], r.Price)
		bottle := model.NormalizedBottle(r.Bottle)
		if _, seen := bottleTypes[bottle]; !seen {
			bottleTypes[bottle] = r.Type
		}
	}

	positioning := &model.PositioningSnapshot{
		VPI: make(map[string]float64, len(byVenue)),
		BPS: make(map[string]float64, len(snapshot.BottleMedians)),
	}

	for venue, prices := range byVenue {
		positioning.VPI[venue] = Median(prices) / snapshot.GlobalMedian
	}

	for bottle, bottleMedian := range snapshot.BottleMedians {
		typeMedian, ok := snapshot.TypeMedians[bottleTypes[bottle]]
		if !ok || typeMedian <= 0 {
			// No usable type median; the bottle is its own reference.
			positioning.BPS[bottle] = 1.0
			continue
		}
		positioning.BPS[bottle] = bottleMedian / typeMedian
	}

	return positioning, nil
}
