package engine

import (
	"sort"

	"github.com/pourcost/topshelf/internal/service"
)

// sortAnalysis orders the market-analysis view for stable presentation:
// venues by premium descending, type medians by price descending.
func sortAnalysis(analysis *service.MarketAnalysis) {
	sort.Slice(analysis.Venues, func(i, j int) bool {
		if analysis.Venues[i].VPI == analysis.Venues[j].VPI {
			return analysis.Venues[i].Venue < analysis.Venues[j].Venue
		}
		return analysis.Venues[i].VPI > analysis.Venues[j].VPI
	})
	sort.Slice(analysis.TypeMedians, func(i, j int) bool {
		if analysis.TypeMedians[i].Median == analysis.TypeMedians[j].Median {
			return analysis.TypeMedians[i].Type < analysis.TypeMedians[j].Type
		}
		return analysis.TypeMedians[i].Median > analysis.TypeMedians[j].Median
	})
}
