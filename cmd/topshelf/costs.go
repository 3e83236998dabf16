package main

import (
	"fmt"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/pourcost/topshelf/internal/cli"
	"github.com/pourcost/topshelf/internal/cost"
)

func costsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "costs",
		Short: "Manage bottle and type cost configuration",
	}

	cmd.AddCommand(costsLoadCmd())
	cmd.AddCommand(costsShowCmd())
	cmd.AddCommand(costsEstimateCmd())
	cmd.AddCommand(costsSetMarginCmd())

	return cmd
}

func costsLoadCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "load <file.json>",
		Short: "Load cost configuration from a JSON file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := cost.LoadConfig(args[0])
			if err != nil {
				return err
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			if err := store.SaveCostConfig(ctx, cfg); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Loaded %d bottle costs and %d type costs",
				len(cfg.BottleCosts), len(cfg.TypeCosts))))
			return nil
		},
	}
}

func costsShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the stored cost configuration",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cfg, err := store.GetCostConfig(ctx)
			if err != nil {
				return err
			}

			fmt.Println(cli.FormatTitle("Cost Configuration"))
			fmt.Printf("Minimum margin: %.0f%%\n\n", cfg.MinMarginPct*100)

			if len(cfg.BottleCosts) > 0 {
				fmt.Println(cli.BoldStyle.Render("Bottle costs"))
				for _, bottle := range sortedKeys(cfg.BottleCosts) {
					fmt.Printf("  %-32s %s\n", bottle, cli.FormatPrice(cfg.BottleCosts[bottle]))
				}
				fmt.Println()
			}

			if len(cfg.TypeCosts) > 0 || len(cfg.TypeMargins) > 0 {
				fmt.Println(cli.BoldStyle.Render("Type costs"))
				seen := make(map[string]bool)
				for t := range cfg.TypeCosts {
					seen[t] = true
				}
				for t := range cfg.TypeMargins {
					seen[t] = true
				}
				for _, t := range sortedKeys(seen) {
					line := fmt.Sprintf("  %-32s", t)
					if c, ok := cfg.TypeCosts[t]; ok {
						line += " " + cli.FormatPrice(c)
					}
					if m, ok := cfg.TypeMargins[t]; ok {
						line += fmt.Sprintf("  (min margin %.0f%%)", m*100)
					}
					fmt.Println(line)
				}
			}

			if len(cfg.BottleCosts) == 0 && len(cfg.TypeCosts) == 0 {
				fmt.Println(cli.SubtleStyle.Render("No costs configured; recommendations will skip margin checks."))
			}
			return nil
		},
	}
}

func costsEstimateCmd() *cobra.Command {
	var assumedMargin float64

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Seed cost configuration from current prices and an assumed margin",
		Long: `Derive approximate bottle and type costs by assuming every current
listing already earns the given margin. Useful as a starting point before
real cost data is available.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			records, err := store.GetPriceRecords(ctx)
			if err != nil {
				return err
			}

			cfg, err := cost.EstimateFromRecords(records, assumedMargin)
			if err != nil {
				return err
			}

			if err := store.SaveCostConfig(ctx, cfg); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Estimated costs for %d bottles and %d types (assumed %.0f%% margin)",
				len(cfg.BottleCosts), len(cfg.TypeCosts), assumedMargin*100)))
			return nil
		},
	}

	cmd.Flags().Float64Var(&assumedMargin, "margin", 0.70, "assumed margin on current prices")
	return cmd
}

func costsSetMarginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "set-margin <pct>",
		Short: "Set the global minimum profit margin (e.g. 0.30)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			margin, err := strconv.ParseFloat(args[0], 64)
			if err != nil || margin < 0 || margin >= 1 {
				return fmt.Errorf("margin must be a fraction in [0, 1): got %q", args[0])
			}

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			cfg, err := store.GetCostConfig(ctx)
			if err != nil {
				return err
			}
			cfg.MinMarginPct = margin

			if err := store.SaveCostConfig(ctx, cfg); err != nil {
				return err
			}

			fmt.Println(cli.FormatSuccess(fmt.Sprintf("Minimum margin set to %.0f%%", margin*100)))
			return nil
		},
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
