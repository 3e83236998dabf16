package demand

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pourcost/topshelf/internal/model"
)

func TestCachedPredictorHitsCache(t *testing.T) {
	calls := 0
	inner := PredictorFunc(func(_ context.Context, _ float64, _ model.DemandContext) (float64, error) {
		calls++
		return 5, nil
	})

	p := NewCachedPredictor(inner, time.Minute)
	defer p.Close()

	dctx := model.DemandContext{Venue: "Skybar", Bottle: "Grey Goose"}
	for i := 0; i < 3; i++ {
		units, err := p.Predict(context.Background(), 400, dctx)
		require.NoError(t, err)
		assert.InDelta(t, 5, units, 0.001)
	}
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, p.Size())
}

func TestCachedPredictorKeySensitivity(t *testing.T) {
	calls := 0
	inner := PredictorFunc(func(_ context.Context, _ float64, _ model.DemandContext) (float64, error) {
		calls++
		return 5, nil
	})

	p := NewCachedPredictor(inner, time.Minute)
	defer p.Close()

	base := model.DemandContext{Venue: "Skybar", Bottle: "Grey Goose", EventType: "regular"}
	_, _ = p.Predict(context.Background(), 400, base)

	// Different price misses.
	_, _ = p.Predict(context.Background(), 425, base)

	// Different event context misses.
	dj := base
	dj.EventType = "DJ"
	_, _ = p.Predict(context.Background(), 400, dj)

	// Same listing with different name casing hits.
	cased := base
	cased.Bottle = "  GREY GOOSE "
	_, _ = p.Predict(context.Background(), 400, cased)

	assert.Equal(t, 3, calls)
}

func TestCachedPredictorDoesNotCacheErrors(t *testing.T) {
	calls := 0
	inner := PredictorFunc(func(_ context.Context, _ float64, _ model.DemandContext) (float64, error) {
		calls++
		if calls == 1 {
			return 0, assertAnError
		}
		return 5, nil
	})

	p := NewCachedPredictor(inner, time.Minute)
	defer p.Close()

	_, err := p.Predict(context.Background(), 400, model.DemandContext{})
	require.Error(t, err)

	units, err := p.Predict(context.Background(), 400, model.DemandContext{})
	require.NoError(t, err)
	assert.InDelta(t, 5, units, 0.001)
	assert.Equal(t, 2, calls)
}

func TestCachedPredictorExpiry(t *testing.T) {
	calls := 0
	inner := PredictorFunc(func(_ context.Context, _ float64, _ model.DemandContext) (float64, error) {
		calls++
		return 5, nil
	})

	p := NewCachedPredictor(inner, 10*time.Millisecond)
	defer p.Close()

	_, _ = p.Predict(context.Background(), 400, model.DemandContext{})
	time.Sleep(25 * time.Millisecond)
	_, _ = p.Predict(context.Background(), 400, model.DemandContext{})

	assert.Equal(t, 2, calls)
}

func TestSerializeOneCallAtATime(t *testing.T) {
	var active, maxActive int
	var mu sync.Mutex
	inner := PredictorFunc(func(_ context.Context, _ float64, _ model.DemandContext) (float64, error) {
		mu.Lock()
		active++
		if active > maxActive {
			maxActive = active
		}
		mu.Unlock()

		time.Sleep(time.Millisecond)

		mu.Lock()
		active--
		mu.Unlock()
		return 5, nil
	})

	p := Serialize(inner)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = p.Predict(context.Background(), 400, model.DemandContext{})
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, maxActive)
}

var assertAnError = &testError{}

type testError struct{}

func (*testError) Error() string { return "transient failure" }
