package matrix

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"ridepool/internal/domain"
	"ridepool/internal/logging"
)

type memCache struct {
	mu      sync.Mutex
	entries map[string][][]float64
	getErr  error
}

func (c *memCache) GetMatrix(ctx context.Context, key string) ([][]float64, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.getErr != nil {
		return nil, false, c.getErr
	}
	m, ok := c.entries[key]
	return m, ok, nil
}

func (c *memCache) SetMatrix(ctx context.Context, key string, m [][]float64, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = m
	return nil
}

type countingOracle struct {
	calls int
	err   error
}

func (o *countingOracle) Matrix(ctx context.Context, points []domain.Point) ([][]float64, error) {
	o.calls++
	if o.err != nil {
		return nil, o.err
	}
	m := Degenerate(len(points))
	m[0][1] = 42
	return m, nil
}

func TestCachedOracle_ServesRepeatsFromCache(t *testing.T) {
	t.Parallel()

	next := &countingOracle{}
	cache := &memCache{entries: map[string][][]float64{}}
	oracle := NewCachedOracle(next, cache, time.Minute, logging.Discard())

	for i := 0; i < 3; i++ {
		m, err := oracle.Matrix(context.Background(), testPoints)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if m[0][1] != 42 {
			t.Errorf("unexpected matrix %v", m)
		}
	}
	if next.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", next.calls)
	}
}

func TestCachedOracle_CacheFailureFallsThrough(t *testing.T) {
	t.Parallel()

	next := &countingOracle{}
	cache := &memCache{entries: map[string][][]float64{}, getErr: errors.New("redis down")}
	oracle := NewCachedOracle(next, cache, time.Minute, logging.Discard())

	if _, err := oracle.Matrix(context.Background(), testPoints); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next.calls != 1 {
		t.Errorf("expected upstream call, got %d", next.calls)
	}
}

func TestCachedOracle_PropagatesUpstreamError(t *testing.T) {
	t.Parallel()

	next := &countingOracle{err: ErrUpstreamRejected}
	oracle := NewCachedOracle(next, &memCache{entries: map[string][][]float64{}}, time.Minute, logging.Discard())

	if _, err := oracle.Matrix(context.Background(), testPoints); !errors.Is(err, ErrUpstreamRejected) {
		t.Errorf("expected rejected, got %v", err)
	}
}

func TestCacheKey_OrderSensitive(t *testing.T) {
	t.Parallel()

	a := CacheKey(testPoints)
	b := CacheKey([]domain.Point{testPoints[1], testPoints[0], testPoints[2]})
	if a == b {
		t.Error("expected different keys for different point order")
	}
	if a != CacheKey(testPoints) {
		t.Error("expected stable key")
	}
}
