package demand

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/model"
	"github.com/pourcost/topshelf/internal/service"
)

// RemoteConfig holds configuration for a model-server predictor.
type RemoteConfig struct {
	// BaseURL is the model server address; predictions are requested from
	// BaseURL + "/predict".
	BaseURL string
	// Timeout bounds a single prediction request.
	Timeout time.Duration
	// MaxRetries and RetryDelay configure transient-failure retries.
	MaxRetries int
	RetryDelay time.Duration
}

// RemotePredictor queries an externally trained demand model over HTTP.
// The model technology is opaque; only the predict contract matters.
type RemotePredictor struct {
	httpClient *http.Client
	baseURL    string
	retryOpts  service.RetryOptions
}

// NewRemotePredictor creates a predictor backed by a model server.
func NewRemotePredictor(cfg RemoteConfig) (*RemotePredictor, error) {
	if cfg.BaseURL == "" {
		return nil, fmt.Errorf("%w: model server URL is required", common.ErrMissingConfig)
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 10 * time.Second
	}

	retryOpts := service.RetryOptions{
		MaxAttempts:  cfg.MaxRetries,
		InitialDelay: cfg.RetryDelay,
		MaxDelay:     30 * time.Second,
		Multiplier:   2.0,
	}
	if retryOpts.MaxAttempts == 0 {
		retryOpts.MaxAttempts = 3
	}
	if retryOpts.InitialDelay == 0 {
		retryOpts.InitialDelay = 250 * time.Millisecond
	}

	return &RemotePredictor{
		baseURL:   strings.TrimSuffix(cfg.BaseURL, "/"),
		retryOpts: retryOpts,
		httpClient: &http.Client{
			Timeout: timeout,
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}, nil
}

type predictRequest struct {
	Price float64 `json:"price"`
	model.DemandContext
}

type predictResponse struct {
	PredictedDemand float64 `json:"predicted_demand"`
}

// Predict implements Predictor.
func (p *RemotePredictor) Predict(ctx context.Context, price float64, dctx model.DemandContext) (float64, error) {
	var units float64

	err := common.WithRetry(ctx, func() error {
		var callErr error
		units, callErr = p.predict(ctx, price, dctx)
		return callErr
	}, p.retryOpts)

	if err != nil {
		return 0, fmt.Errorf("%w: %v", common.ErrPredictorUnavailable, err)
	}
	return units, nil
}

func (p *RemotePredictor) predict(ctx context.Context, price float64, dctx model.DemandContext) (float64, error) {
	body, err := json.Marshal(predictRequest{Price: price, DemandContext: dctx})
	if err != nil {
		return 0, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/predict", strings.NewReader(string(body)))
	if err != nil {
		return 0, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return 0, &common.RetryableError{Err: fmt.Errorf("request failed: %w", err), Retryable: true}
	}
	defer func() { _ = resp.Body.Close() }()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, fmt.Errorf("failed to read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		return 0, &common.RetryableError{
			Err:        common.ErrRateLimit,
			Retryable:  true,
			RetryAfter: retryAfterHint(resp.Header),
		}
	case resp.StatusCode >= 500:
		return 0, &common.RetryableError{
			Err:       fmt.Errorf("model server error (status %d): %s", resp.StatusCode, string(respBody)),
			Retryable: true,
		}
	case resp.StatusCode != http.StatusOK:
		return 0, &common.RetryableError{
			Err:       fmt.Errorf("model server error (status %d): %s", resp.StatusCode, string(respBody)),
			Retryable: false,
		}
	}

	var parsed predictResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return 0, fmt.Errorf("failed to parse response: %w", err)
	}

	return parsed.PredictedDemand, nil
}

// retryAfterHint parses an integer-seconds Retry-After header; HTTP-date
// values and garbage read as no hint.
func retryAfterHint(h http.Header) time.Duration {
	secs, err := strconv.Atoi(strings.TrimSpace(h.Get("Retry-After")))
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
