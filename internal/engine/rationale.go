package engine

import (
	"fmt"
	"strings"

	"github.com/pourcost/topshelf/internal/model"
)

// tierLabel describes the fallback tier that supplied the market estimate.
func tierLabel(tier model.EstimateTier) string {
	switch tier {
	case model.TierBottle:
		return "cross-venue bottle median"
	case model.TierType:
		return "type median"
	case model.TierGlobal:
		return "global market median"
	default:
		return string(tier)
	}
}

// rationale builds the human-readable justification for a recommendation:
// which estimate tier was used, which method won, and whether the margin
// floor adjusted the price.
func (e *Engine) rationale(rec *model.Recommendation, resolved model.ResolvedCost) string {
	var parts []string

	if rec.Method == model.MethodDemandOptimized && rec.ObjectiveOptimal != nil && rec.ObjectiveCurrent != nil {
		parts = append(parts, fmt.Sprintf(
			"Demand-optimized: predicted objective improvement of $%.2f over current price",
			*rec.ObjectiveOptimal-*rec.ObjectiveCurrent))
	} else {
		parts = append(parts, e.benchmarkReason(rec))
	}

	parts = append(parts, fmt.Sprintf("market estimate from %s ($%.0f), VPI %.3f",
		tierLabel(rec.EstimateTier), rec.MarketEstimate, rec.VPI))

	if resolved.Known() {
		if rec.MarginShortfall {
			parts = append(parts, fmt.Sprintf(
				"WARNING: guardrail band cannot reach the %.0f%% minimum margin (cost $%.2f)",
				resolved.MinMarginPct*100, *resolved.Cost))
		} else if rec.ProfitMarginPct != nil {
			parts = append(parts, fmt.Sprintf("margin %.1f%% at recommended price", *rec.ProfitMarginPct*100))
		}
	}

	return strings.Join(parts, "; ")
}

// benchmarkReason explains a benchmark-method recommendation in terms of
// market position and venue premium.
func (e *Engine) benchmarkReason(rec *model.Recommendation) string {
	deltaPct := (rec.RecommendedPrice - rec.CurrentPrice) / rec.CurrentPrice * 100

	if absFloat(deltaPct) < 1 {
		return fmt.Sprintf("Price is aligned with market (%s median $%.0f)",
			rec.Type, rec.MarketEstimate)
	}

	var reasons []string
	if rec.CurrentPrice < rec.MarketEstimate*0.9 {
		reasons = append(reasons, fmt.Sprintf("below market median for %s ($%.0f)", rec.Type, rec.MarketEstimate))
	} else if rec.CurrentPrice > rec.MarketEstimate*1.1 {
		reasons = append(reasons, fmt.Sprintf("above market median for %s ($%.0f)", rec.Type, rec.MarketEstimate))
	}

	if rec.VPI > 1.1 {
		reasons = append(reasons, fmt.Sprintf("venue typically prices %.0f%% above market", (rec.VPI-1)*100))
	} else if rec.VPI < 0.9 {
		reasons = append(reasons, fmt.Sprintf("venue typically prices %.0f%% below market", (1-rec.VPI)*100))
	}

	direction := "increase"
	if deltaPct < 0 {
		direction = "decrease"
	}

	if len(reasons) > 0 {
		return fmt.Sprintf("Recommend %s due to: %s", direction, strings.Join(reasons, ", "))
	}
	return fmt.Sprintf("Minor %s to align with market positioning", direction)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
