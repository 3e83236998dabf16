package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/pourcost/topshelf/internal/cli"
	"github.com/pourcost/topshelf/internal/engine"
	"github.com/pourcost/topshelf/internal/model"
	"github.com/pourcost/topshelf/internal/service"
	"github.com/pourcost/topshelf/internal/sheets"
)

func bulkCmd() *cobra.Command {
	var (
		venue          string
		eventType      string
		outPath        string
		exportToSheets bool
	)

	cmd := &cobra.Command{
		Use:   "bulk",
		Short: "Recommend prices for every stored listing",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBulk(cmd, venue, eventType, outPath, exportToSheets)
		},
	}

	cmd.Flags().StringVar(&venue, "venue", "", "limit the run to one venue")
	cmd.Flags().StringVar(&eventType, "event", "", "event context for demand prediction")
	cmd.Flags().StringVar(&outPath, "out", "", "write results as CSV to a file, or - for stdout")
	cmd.Flags().BoolVar(&exportToSheets, "sheets", false, "export results to Google Sheets")

	return cmd
}

func runBulk(cmd *cobra.Command, venue, eventType, outPath string, exportToSheets bool) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	var records []model.PriceRecord
	if venue != "" {
		records, err = store.GetPriceRecordsByVenue(ctx, venue)
	} else {
		records, err = store.GetPriceRecords(ctx)
	}
	if err != nil {
		return err
	}
	if len(records) == 0 {
		return fmt.Errorf("no listings to price; run 'topshelf import' first")
	}

	eng, cleanup, err := loadEngine(ctx, store)
	if err != nil {
		return err
	}
	defer cleanup()

	dctx := model.DemandContext{EventType: eventType}.WithDefaults(time.Now())
	requests := engine.RequestsFromRecords(records, dctx)

	bar := progressbar.NewOptions(len(requests),
		progressbar.OptionSetDescription("Pricing"),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)

	results, stats := eng.BulkRecommend(ctx, requests, engine.BulkOptions{
		Progress: func(done, _ int) {
			_ = bar.Set(done)
		},
	})
	_ = bar.Finish()

	recs := make([]model.Recommendation, 0, len(results))
	for _, res := range results {
		if res.Err != nil {
			fmt.Println(cli.FormatError(fmt.Sprintf("%s @ %s: %v", res.Request.Bottle, res.Request.Venue, res.Err)))
			continue
		}
		recs = append(recs, *res.Recommendation)
	}

	printBulkSummary(stats)

	if outPath != "" {
		if err := writeBulkCSV(outPath, recs); err != nil {
			return err
		}
		if outPath != "-" {
			fmt.Println(cli.FormatSuccess("Wrote " + outPath))
		}
	}

	if exportToSheets {
		if err := exportBulkToSheets(cmd, eng, store, recs); err != nil {
			return err
		}
	}

	return nil
}

func printBulkSummary(stats service.BulkStats) {
	fmt.Println(cli.FormatTitle("Bulk Recommendation Summary"))
	fmt.Printf("  Priced:            %d\n", stats.Total-stats.Failed)
	fmt.Printf("  Demand-optimized:  %d\n", stats.DemandOptimized)
	fmt.Printf("  Benchmark:         %d\n", stats.Benchmark)
	if stats.PredictorFailed > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("  Predictor failed:  %d", stats.PredictorFailed)))
	}
	if stats.MarginShortfalls > 0 {
		fmt.Println(cli.FormatWarning(fmt.Sprintf("  Margin shortfalls: %d", stats.MarginShortfalls)))
	}
	if stats.Failed > 0 {
		fmt.Println(cli.FormatError(fmt.Sprintf("  Failed:            %d", stats.Failed)))
	}
	fmt.Printf("  Duration:          %s\n", stats.Duration.Round(time.Millisecond))
}

func writeBulkCSV(path string, recs []model.Recommendation) error {
	var out io.Writer = os.Stdout
	if path != "-" {
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("failed to create %s: %w", path, err)
		}
		defer func() { _ = f.Close() }()
		out = f
	}

	w := csv.NewWriter(out)
	header := []string{"venue", "bottle", "type", "current_price", "recommended_price", "delta_pct", "method", "margin_shortfall", "rationale"}
	if err := w.Write(header); err != nil {
		return err
	}

	for _, rec := range recs {
		row := []string{
			rec.Venue,
			rec.Bottle,
			rec.Type,
			strconv.FormatFloat(rec.CurrentPrice, 'f', 2, 64),
			strconv.FormatFloat(rec.RecommendedPrice, 'f', 2, 64),
			strconv.FormatFloat(rec.DeltaPct, 'f', 1, 64),
			string(rec.Method),
			strconv.FormatBool(rec.MarginShortfall),
			rec.Rationale,
		}
		if err := w.Write(row); err != nil {
			return err
		}
	}

	w.Flush()
	return w.Error()
}

func exportBulkToSheets(cmd *cobra.Command, eng *engine.Engine, store service.Storage, recs []model.Recommendation) error {
	ctx := cmd.Context()

	cfg := sheets.DefaultConfig()
	if err := cfg.LoadFromEnv(); err != nil {
		return err
	}

	writer, err := sheets.NewWriter(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}

	records, err := store.GetPriceRecords(ctx)
	if err != nil {
		return err
	}
	perVenue := make(map[string]int)
	for _, r := range records {
		perVenue[r.Venue]++
	}

	data := sheets.BuildReportData(recs, eng.MarketAnalysis(), perVenue, time.Now())
	if err := writer.Write(ctx, data); err != nil {
		return err
	}

	fmt.Println(cli.FormatSuccess("Exported report to Google Sheets"))
	return nil
}
