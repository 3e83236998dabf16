package demand

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pourcost/topshelf/internal/common"
	"github.com/pourcost/topshelf/internal/model"
)

func newTestRemote(t *testing.T, handler http.HandlerFunc) *RemotePredictor {
	t.Helper()
	ts := httptest.NewServer(handler)
	t.Cleanup(ts.Close)

	p, err := NewRemotePredictor(RemoteConfig{
		BaseURL:    ts.URL,
		Timeout:    2 * time.Second,
		MaxRetries: 3,
		RetryDelay: time.Millisecond,
	})
	require.NoError(t, err)
	return p
}

func TestRemotePredictorSuccess(t *testing.T) {
	p := newTestRemote(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/predict", r.URL.Path)

		var req struct {
			Price     float64 `json:"price"`
			Venue     string  `json:"venue"`
			EventType string  `json:"event_type"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.InDelta(t, 400, req.Price, 0.001)
		assert.Equal(t, "Skybar", req.Venue)

		_ = json.NewEncoder(w).Encode(map[string]float64{"predicted_demand": 7.5})
	})

	units, err := p.Predict(context.Background(), 400, model.DemandContext{Venue: "Skybar"})
	require.NoError(t, err)
	assert.InDelta(t, 7.5, units, 0.001)
}

func TestRemotePredictorRetriesServerErrors(t *testing.T) {
	var calls int32
	p := newTestRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		_ = json.NewEncoder(w).Encode(map[string]float64{"predicted_demand": 4})
	})

	units, err := p.Predict(context.Background(), 400, model.DemandContext{})
	require.NoError(t, err)
	assert.InDelta(t, 4, units, 0.001)
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestRemotePredictorDoesNotRetryClientErrors(t *testing.T) {
	var calls int32
	p := newTestRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadRequest)
	})

	_, err := p.Predict(context.Background(), 400, model.DemandContext{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPredictorUnavailable)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRemotePredictorExhaustedRetries(t *testing.T) {
	p := newTestRemote(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := p.Predict(context.Background(), 400, model.DemandContext{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrPredictorUnavailable)
}

func TestRemotePredictorRequiresURL(t *testing.T) {
	_, err := NewRemotePredictor(RemoteConfig{})
	require.Error(t, err)
	assert.ErrorIs(t, err, common.ErrMissingConfig)
}

func TestRemotePredictorThrottleCarriesHint(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	t.Cleanup(ts.Close)

	p, err := NewRemotePredictor(RemoteConfig{BaseURL: ts.URL})
	require.NoError(t, err)

	_, err = p.predict(context.Background(), 400, model.DemandContext{})
	var retryable *common.RetryableError
	require.ErrorAs(t, err, &retryable)
	assert.True(t, retryable.Retryable)
	assert.ErrorIs(t, err, common.ErrRateLimit)
	assert.Equal(t, 7*time.Second, retryable.RetryAfter)
}

func TestRetryAfterHint(t *testing.T) {
	tests := []struct {
		name  string
		value string
		want  time.Duration
	}{
		{"integer seconds", "7", 7 * time.Second},
		{"absent", "", 0},
		{"http date ignored", "Fri, 28 Aug 2026 23:00:00 GMT", 0},
		{"negative ignored", "-3", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := http.Header{}
			if tt.value != "" {
				h.Set("Retry-After", tt.value)
			}
			assert.Equal(t, tt.want, retryAfterHint(h))
		})
	}
}
