package matrix

import (
	"context"
	"crypto/sha1"
	"encoding/hex"
	"strconv"
	"time"

	"github.com/sirupsen/logrus"

	"ridepool/internal/domain"
	"ridepool/internal/observability"
)

// Cache stores matrices by key.
type Cache interface {
	GetMatrix(ctx context.Context, key string) ([][]float64, bool, error)
	SetMatrix(ctx context.Context, key string, m [][]float64, ttl time.Duration) error
}

// CachedOracle serves repeated point lists from a cache. Cache failures are
// logged and fall through to the wrapped oracle.
type CachedOracle struct {
	next   Oracle
	cache  Cache
	ttl    time.Duration
	logger logrus.FieldLogger
}

// NewCachedOracle wraps next with cache.
func NewCachedOracle(next Oracle, cache Cache, ttl time.Duration, logger logrus.FieldLogger) *CachedOracle {
	return &CachedOracle{next: next, cache: cache, ttl: ttl, logger: logger}
}

// Matrix returns a cached matrix for the exact same ordered point list, or asks the wrapped oracle.
func (c *CachedOracle) Matrix(ctx context.Context, points []domain.Point) ([][]float64, error) {
	if len(points) < 2 {
		return Degenerate(len(points)), nil
	}

	key := CacheKey(points)
	m, ok, err := c.cache.GetMatrix(ctx, key)
	if err != nil {
		c.logger.WithError(err).Warn("matrix cache read failed")
	}
	if ok && validateSquare(m, len(points)) == nil {
		observability.MatrixCacheHits.Inc()
		return m, nil
	}

	m, err = c.next.Matrix(ctx, points)
	if err != nil {
		return nil, err
	}

	if err := c.cache.SetMatrix(ctx, key, m, c.ttl); err != nil {
		c.logger.WithError(err).Warn("matrix cache write failed")
	}

	return m, nil
}

// CacheKey hashes the ordered coordinates at ~0.1m precision.
func CacheKey(points []domain.Point) string {
	h := sha1.New()
	for _, p := range points {
		h.Write([]byte(strconv.FormatFloat(p.Lat, 'f', 6, 64)))
		h.Write([]byte{','})
		h.Write([]byte(strconv.FormatFloat(p.Lng, 'f', 6, 64)))
		h.Write([]byte{';'})
	}
	return hex.EncodeToString(h.Sum(nil))
}

// Ensure CachedOracle implements Oracle.
var _ Oracle = (*CachedOracle)(nil)
