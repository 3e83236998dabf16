// Package market computes cross-venue price benchmarks and the positioning
// indices derived from them.
package market

import (
	"fmt"
	"sort"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/model"
)

// ComputeBenchmarks derives the global median, the per-bottle cross-venue
// medians, and the per-type medians from one load of the record set. The
// record set is read-only and may arrive in any order. An empty record set
// is an error; a bottle or type with no records is simply absent from its
// map, never reported as zero.
func ComputeBenchmarks(records []model.PriceRecord) (*model.BenchmarkSnapshot, error) {
	if len(records) == 0 {
		return nil, fmt.Errorf("%w: record set is empty", common.ErrInsufficientData)
	}

	all := make([]float64, 0, len(records))
	byBottle := make(map[string][]float64)
	byType := make(map[string][]float64)

	for _, r := range records {
		all = append(all, r.Price)
		bottle := model.NormalizedBottle(r.Bottle)
		byBottle[bottle] = append(byBottle[bottle], r.Price)
		byType[r.Type] = append(byType[r.Type], r.Price)
	}

	snapshot := &model.BenchmarkSnapshot{
		GlobalMedian:  Median(all),
		BottleMedians: make(map[string]float64, len(byBottle)),
		TypeMedians:   make(map[string]float64, len(byType)),
	}
	for bottle, prices := range byBottle {
		snapshot.BottleMedians[bottle] = Median(prices)
	}
	for bottleType, prices := range byType {
		snapshot.TypeMedians[bottleType] = Median(prices)
	}

	return snapshot, nil
}

// Median returns the standard median of prices: the middle value for odd
// counts, the mean of the two middle values for even counts. The input
// slice is not modified. Median of an empty slice is undefined; callers
// must guard with a non-empty subset.
func Median(prices []float64) float64 {
	sorted := make([]float64, len(prices))
	copy(sorted, prices)
	sort.Float64s(sorted)

	n := len(sorted)
	if n%2 == 1 {
		return sorted[n/2]
	}
	return (sorted[n/2-1] + sorted[n/2]) / 2
}
