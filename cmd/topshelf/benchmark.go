package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pourcost/topshelf/internal/cli"
)

func benchmarkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "benchmark",
		Short: "Show market benchmarks and venue positioning",
		RunE:  runBenchmark,
	}
}

func runBenchmark(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	eng, cleanup, err := loadEngine(ctx, store)
	if err != nil {
		return err
	}
	defer cleanup()

	analysis := eng.MarketAnalysis()

	fmt.Println(cli.FormatTitle("Market Analysis"))
	fmt.Printf("Global median: %s\n\n", cli.FormatPrice(analysis.GlobalMedian))

	fmt.Println(cli.BoldStyle.Render("Venue positioning"))
	for _, v := range analysis.Venues {
		label := "at market"
		switch {
		case v.PremiumPct > 10:
			label = fmt.Sprintf("%.0f%% premium", v.PremiumPct)
		case v.PremiumPct < -10:
			label = fmt.Sprintf("%.0f%% discount", -v.PremiumPct)
		}
		fmt.Printf("  %-28s %5.2f  %s\n", v.Venue, v.VPI, cli.SubtleStyle.Render(label))
	}

	fmt.Println()
	fmt.Println(cli.BoldStyle.Render("Type medians"))
	for _, t := range analysis.TypeMedians {
		fmt.Printf("  %-28s %s\n", t.Type, cli.FormatPrice(t.Median))
	}

	fmt.Println()
	fmt.Println(cli.SubtleStyle.Render(strings.Repeat("─", 40)))
	return nil
}
