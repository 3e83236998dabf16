package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/pourcost/topshelf/internal/engine"
	"github.com/pourcost/topshelf/internal/model"
	"github.com/pourcost/topshelf/internal/tui"
)

func reviewCmd() *cobra.Command {
	var (
		venue     string
		eventType string
	)

	cmd := &cobra.Command{
		Use:   "review",
		Short: "Browse recommendations interactively",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runReview(cmd, venue, eventType)
		},
	}

	cmd.Flags().StringVar(&venue, "venue", "", "limit the review to one venue")
	cmd.Flags().StringVar(&eventType, "event", "", "event context for demand prediction")

	return cmd
}

func runReview(cmd *cobra.Command, venue, eventType string) error {
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
		return fmt.Errorf("no listings to review; run 'topshelf import' first")
	}

	eng, cleanup, err := loadEngine(ctx, store)
	if err != nil {
		return err
	}
	defer cleanup()

	dctx := model.DemandContext{EventType: eventType}.WithDefaults(time.Now())
	results, _ := eng.BulkRecommend(ctx, engine.RequestsFromRecords(records, dctx), engine.BulkOptions{})

	recs := make([]model.Recommendation, 0, len(results))
	for _, res := range results {
		if res.Err == nil {
			recs = append(recs, *res.Recommendation)
		}
	}

	return tui.Run(recs)
}
