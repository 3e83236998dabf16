package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strings"
	"time"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/engine"
	"github.com/pourcost/topshelf/internal/model"
)

type statusResponse struct {
	Status          string `json:"status"`
	PriceRecords    int    `json:"price_records"`
	Venues          int    `json:"venues"`
	DemandPredictor bool   `json:"demand_predictor"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	records, err := s.storage.GetPriceRecords(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	venues := make(map[string]struct{})
	for _, rec := range records {
		venues[rec.Venue] = struct{}{}
	}

	respondJSON(w, http.StatusOK, statusResponse{
		Status:          "ok",
		PriceRecords:    len(records),
		Venues:          len(venues),
		DemandPredictor: s.predictor != nil,
		UptimeSeconds:   int64(time.Since(s.startedAt).Seconds()),
	})
}

func (s *Server) handleVenues(w http.ResponseWriter, r *http.Request) {
	venues, err := s.storage.GetVenues(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if venues == nil {
		venues = []string{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"venues": venues})
}

func (s *Server) handleProducts(w http.ResponseWriter, r *http.Request) {
	var (
		records []model.PriceRecord
		err     error
	)
	if venue := strings.TrimSpace(r.URL.Query().Get("venue")); venue != "" {
		records, err = s.storage.GetPriceRecordsByVenue(r.Context(), venue)
	} else {
		records, err = s.storage.GetPriceRecords(r.Context())
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if records == nil {
		records = []model.PriceRecord{}
	}
	respondJSON(w, http.StatusOK, map[string]any{"products": records})
}

func (s *Server) handleMarketAnalysis(w http.ResponseWriter, r *http.Request) {
	eng, err := s.loadEngine(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, eng.MarketAnalysis())
}

type recommendationRequest struct {
	Venue        string              `json:"venue"`
	Bottle       string              `json:"bottle"`
	Type         string              `json:"type"`
	CurrentPrice float64             `json:"current_price"`
	Context      model.DemandContext `json:"context"`
}

func (s *Server) handleRecommendation(w http.ResponseWriter, r *http.Request) {
	var req recommendationRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Venue == "" || req.Bottle == "" {
		respondError(w, http.StatusBadRequest, fmt.Errorf("venue and bottle are required"))
		return
	}

	// Fall back to the stored listing when no current price is supplied.
	if req.CurrentPrice <= 0 {
		records, err := s.storage.GetPriceRecordsByVenue(r.Context(), req.Venue)
		if err != nil {
			respondError(w, http.StatusInternalServerError, err)
			return
		}
		for _, rec := range records {
			if model.NormalizedBottle(rec.Bottle) == model.NormalizedBottle(req.Bottle) {
				req.CurrentPrice = rec.Price
				if req.Type == "" {
					req.Type = rec.Type
				}
				break
			}
		}
		if req.CurrentPrice <= 0 {
			respondError(w, http.StatusNotFound,
				fmt.Errorf("no listing for %q at %q and no current_price supplied", req.Bottle, req.Venue))
			return
		}
	}

	eng, err := s.loadEngine(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}

	dctx := req.Context
	dctx.Venue = req.Venue
	dctx.Bottle = req.Bottle
	dctx.Type = req.Type
	dctx = dctx.WithDefaults(time.Now())

	rec, err := eng.Recommend(r.Context(), req.Venue, req.Bottle, req.Type, req.CurrentPrice, dctx)
	if err != nil {
		if errors.Is(err, common.ErrInsufficientData) {
			respondError(w, http.StatusNotFound, err)
			return
		}
		respondError(w, http.StatusInternalServerError, err)
		return
	}

	observeRecommendation(string(rec.Method))
	if s.predictor != nil && rec.ObjectiveCurrent == nil {
		predictorFailuresTotal.Inc()
	}

	respondJSON(w, http.StatusOK, rec)
}

type bulkRequest struct {
	Venue   string              `json:"venue"`
	Context model.DemandContext `json:"context"`
}

type bulkError struct {
	Venue  string `json:"venue"`
	Bottle string `json:"bottle"`
	Error  string `json:"error"`
}

func (s *Server) handleBulkRecommendations(w http.ResponseWriter, r *http.Request) {
	var req bulkRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}

	var (
		records []model.PriceRecord
		err     error
	)
	if req.Venue != "" {
		records, err = s.storage.GetPriceRecordsByVenue(r.Context(), req.Venue)
	} else {
		records, err = s.storage.GetPriceRecords(r.Context())
	}
	if err != nil {
		respondError(w, http.StatusInternalServerError, err)
		return
	}
	if len(records) == 0 {
		respondError(w, http.StatusNotFound, fmt.Errorf("no price records to recommend against"))
		return
	}

	eng, err := s.loadEngine(r.Context())
	if err != nil {
		respondEngineError(w, err)
		return
	}

	requests := engine.RequestsFromRecords(records, req.Context.WithDefaults(time.Now()))
	results, stats := eng.BulkRecommend(r.Context(), requests, engine.BulkOptions{})

	recommendations := make([]*model.Recommendation, 0, len(results))
	failures := make([]bulkError, 0)
	for _, res := range results {
		if res.Err != nil {
			failures = append(failures, bulkError{
				Venue:  res.Request.Venue,
				Bottle: res.Request.Bottle,
				Error:  res.Err.Error(),
			})
			continue
		}
		observeRecommendation(string(res.Recommendation.Method))
		recommendations = append(recommendations, res.Recommendation)
	}
	predictorFailuresTotal.Add(float64(stats.PredictorFailed))

	respondJSON(w, http.StatusOK, map[string]any{
		"recommendations": recommendations,
		"errors":          failures,
		"stats": map[string]any{
			"total":             stats.Total,
			"demand_optimized":  stats.DemandOptimized,
			"benchmark":         stats.Benchmark,
			"predictor_failed":  stats.PredictorFailed,
			"margin_shortfalls": stats.MarginShortfalls,
			"failed":            stats.Failed,
			"duration_ms":       stats.Duration.Milliseconds(),
		},
	})
}

type demandPredictionRequest struct {
	Price   float64             `json:"price"`
	Context model.DemandContext `json:"context"`
}

type demandPoint struct {
	Price            float64 `json:"price"`
	PredictedDemand  float64 `json:"predicted_demand"`
	ProjectedRevenue float64 `json:"projected_revenue"`
}

// handleDemandPrediction evaluates the predictor over a ladder from 70% to
// 130% of the given price in 5% steps.
func (s *Server) handleDemandPrediction(w http.ResponseWriter, r *http.Request) {
	if s.predictor == nil {
		respondError(w, http.StatusServiceUnavailable, fmt.Errorf("no demand predictor configured"))
		return
	}

	var req demandPredictionRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, err)
		return
	}
	if req.Price <= 0 {
		respondError(w, http.StatusBadRequest, fmt.Errorf("price must be positive"))
		return
	}

	dctx := req.Context.WithDefaults(time.Now())
	points := make([]demandPoint, 0, 13)
	for pct := 0.70; pct <= 1.30+1e-9; pct += 0.05 {
		price := math.Round(req.Price*pct*100) / 100
		units, err := s.predictor.Predict(r.Context(), price, dctx)
		if err != nil {
			predictorFailuresTotal.Inc()
			respondError(w, http.StatusBadGateway, fmt.Errorf("demand prediction failed: %w", err))
			return
		}
		points = append(points, demandPoint{
			Price:            price,
			PredictedDemand:  units,
			ProjectedRevenue: math.Round(price*units*100) / 100,
		})
	}

	respondJSON(w, http.StatusOK, map[string]any{"predictions": points})
}

func decodeJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid request body: %w", err)
	}
	return nil
}

func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func respondError(w http.ResponseWriter, status int, err error) {
	if status >= http.StatusInternalServerError {
		slog.Error("Request failed", "status", status, "error", err)
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

// respondEngineError distinguishes an empty record set from a real failure.
func respondEngineError(w http.ResponseWriter, err error) {
	if errors.Is(err, common.ErrInsufficientData) {
		respondError(w, http.StatusConflict, fmt.Errorf("no price records imported yet: %w", err))
		return
	}
	respondError(w, http.StatusInternalServerError, err)
}
