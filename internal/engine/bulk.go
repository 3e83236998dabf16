package engine

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pourcost/topshelf/internal/model"
	"github.com/pourcost/topshelf/internal/service"
)

// Request identifies one product to price in a bulk run.
type Request struct {
	Venue        string
	Bottle       string
	Type         string
	CurrentPrice float64
	Context      model.DemandContext
}

// BulkResult pairs a request with its outcome. Err is set only when the
// product's computation failed outright; predictor degradation is not an
// error, it shows up as Method == benchmark.
type BulkResult struct {
	Request        Request
	Recommendation *model.Recommendation
	Err            error
}

// BulkOptions configures a bulk recommendation run.
type BulkOptions struct {
	// Workers overrides the engine's configured parallelism when > 0.
	Workers int
	// Progress, when set, is called after each product completes.
	Progress func(done, total int)
}

// RequestsFromRecords builds one request per price record, all sharing the
// same demand context signals.
func RequestsFromRecords(records []model.PriceRecord, dctx model.DemandContext) []Request {
	requests := make([]Request, 0, len(records))
	for _, r := range records {
		c := dctx
		c.Venue = r.Venue
		c.Bottle = r.Bottle
		c.Type = r.Type
		requests = append(requests, Request{
			Venue:        r.Venue,
			Bottle:       r.Bottle,
			Type:         r.Type,
			CurrentPrice: r.Price,
			Context:      c,
		})
	}
	return requests
}

// BulkRecommend prices every request using a bounded worker pool. Products
// are independent, so failures are isolated: one bad product never aborts
// the batch. Results preserve request order.
func (e *Engine) BulkRecommend(ctx context.Context, requests []Request, opts BulkOptions) ([]BulkResult, service.BulkStats) {
	start := time.Now()

	workers := opts.Workers
	if workers <= 0 {
		workers = e.cfg.Workers
	}
	if workers > len(requests) && len(requests) > 0 {
		workers = len(requests)
	}

	results := make([]BulkResult, len(requests))
	workChan := make(chan int, len(requests))
	for i := range requests {
		workChan <- i
	}
	close(workChan)

	var done int64
	var wg sync.WaitGroup
	wg.Add(workers)

	for w := 0; w < workers; w++ {
		go func() {
			defer wg.Done()
			for idx := range workChan {
				select {
				case <-ctx.Done():
					results[idx] = BulkResult{Request: requests[idx], Err: ctx.Err()}
					continue
				default:
				}

				req := requests[idx]
				rec, err := e.Recommend(ctx, req.Venue, req.Bottle, req.Type, req.CurrentPrice, req.Context)
				results[idx] = BulkResult{Request: req, Recommendation: rec, Err: err}

				if err != nil {
					slog.Error("Failed to price product",
						"venue", req.Venue,
						"bottle", req.Bottle,
						"error", err)
				}

				if opts.Progress != nil {
					opts.Progress(int(atomic.AddInt64(&done, 1)), len(requests))
				}
			}
		}()
	}

	wg.Wait()

	stats := service.BulkStats{
		Total:    len(requests),
		Duration: time.Since(start),
	}
	for _, r := range results {
		switch {
		case r.Err != nil:
			stats.Failed++
		case r.Recommendation.Method == model.MethodDemandOptimized:
			stats.DemandOptimized++
		default:
			stats.Benchmark++
		}
		if r.Err == nil && r.Recommendation.MarginShortfall {
			stats.MarginShortfalls++
		}
		if r.Err == nil && e.predictor != nil && r.Recommendation.ObjectiveCurrent == nil {
			// The optimizer never reported, so the predictor failed or
			// timed out for this product.
			stats.PredictorFailed++
		}
	}

	slog.Info("Bulk recommendation complete",
		"total", stats.Total,
		"demand_optimized", stats.DemandOptimized,
		"benchmark", stats.Benchmark,
		"predictor_failed", stats.PredictorFailed,
		"margin_shortfalls", stats.MarginShortfalls,
		"failed", stats.Failed,
		"duration", stats.Duration)

	return results, stats
}

// MarketAnalysis projects the engine's snapshots into the read-only view
// exposed to reporting and export consumers.
func (e *Engine) MarketAnalysis() service.MarketAnalysis {
	analysis := service.MarketAnalysis{
		GlobalMedian: e.snapshot.GlobalMedian,
	}
	for venue, vpi := range e.positioning.VPI {
		analysis.Venues = append(analysis.Venues, service.VenuePositioning{
			Venue:      venue,
			VPI:        vpi,
			PremiumPct: (vpi - 1) * 100,
		})
	}
	for bottleType, median := range e.snapshot.TypeMedians {
		analysis.TypeMedians = append(analysis.TypeMedians, service.TypeMedianEntry{
			Type:   bottleType,
			Median: median,
		})
	}
	sortAnalysis(&analysis)
	return analysis
}
