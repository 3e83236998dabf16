package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/pourcost/topshelf/internal/cli"
	"github.com/pourcost/topshelf/internal/model"
)

func recommendCmd() *cobra.Command {
	var (
		venue        string
		bottleType   string
		currentPrice float64
		eventType    string
	)

	cmd := &cobra.Command{
		Use:   "recommend <bottle>",
		Short: "Recommend a price for one bottle at one venue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRecommend(cmd, args[0], venue, bottleType, currentPrice, eventType)
		},
	}

	cmd.Flags().StringVar(&venue, "venue", "", "venue to price for (required)")
	cmd.Flags().StringVar(&bottleType, "type", "", "liquor type, used for cost and estimate fallback")
	cmd.Flags().Float64Var(&currentPrice, "price", 0, "current price (defaults to the stored listing)")
	cmd.Flags().StringVar(&eventType, "event", "", "event context for demand prediction (DJ, holiday, concert, private_event)")
	_ = cmd.MarkFlagRequired("venue")

	return cmd
}

func runRecommend(cmd *cobra.Command, bottle, venue, bottleType string, currentPrice float64, eventType string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	// Resolve the stored listing when price or type are not supplied.
	if currentPrice <= 0 || bottleType == "" {
		records, err := store.GetPriceRecordsByVenue(ctx, venue)
		if err != nil {
			return err
		}
		for _, r := range records {
			if model.NormalizedBottle(r.Bottle) == model.NormalizedBottle(bottle) {
				if currentPrice <= 0 {
					currentPrice = r.Price
				}
				if bottleType == "" {
					bottleType = r.Type
				}
				break
			}
		}
	}
	if currentPrice <= 0 {
		return fmt.Errorf("no listing for %q at %q; pass --price", bottle, venue)
	}

	eng, cleanup, err := loadEngine(ctx, store)
	if err != nil {
		return err
	}
	defer cleanup()

	dctx := model.DemandContext{
		Venue:     venue,
		Bottle:    bottle,
		Type:      bottleType,
		EventType: eventType,
	}.WithDefaults(time.Now())

	rec, err := eng.Recommend(ctx, venue, bottle, bottleType, currentPrice, dctx)
	if err != nil {
		return err
	}

	printRecommendation(rec)
	return nil
}

func printRecommendation(rec *model.Recommendation) {
	var lines []string
	lines = append(lines,
		fmt.Sprintf("Current:      %s", cli.FormatPrice(rec.CurrentPrice)),
		fmt.Sprintf("Recommended:  %s  (%s)", cli.BoldStyle.Render(cli.FormatPrice(rec.RecommendedPrice)), cli.FormatDelta(rec.DeltaPct)),
		fmt.Sprintf("Market:       %s via %s", cli.FormatPrice(rec.MarketEstimate), rec.EstimateTier),
		fmt.Sprintf("Venue index:  %.2f", rec.VPI),
		fmt.Sprintf("Method:       %s", rec.Method),
	)
	if rec.ProfitMarginPct != nil {
		lines = append(lines, fmt.Sprintf("Margin:       %.1f%%", *rec.ProfitMarginPct*100))
	}
	if rec.MarginShortfall {
		lines = append(lines, cli.FormatWarning("margin floor unreachable within guardrails"))
	}
	lines = append(lines, "", rec.Rationale)

	fmt.Println(cli.RenderBox(rec.Bottle+" @ "+rec.Venue, strings.Join(lines, "\n")))
}
