package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const matrixCachePrefix = "cache:matrix:"

// CacheStore handles duration matrix caching in Redis.
type CacheStore struct {
	client *redis.Client
}

// NewCacheStore creates a new CacheStore.
func NewCacheStore(client *redis.Client) *CacheStore {
	return &CacheStore{client: client}
}

// GetMatrix retrieves a matrix from cache. A miss returns ok=false and no error.
func (s *CacheStore) GetMatrix(ctx context.Context, key string) ([][]float64, bool, error) {
	data, err := s.client.Get(ctx, matrixCachePrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil // Cache miss
		}
		return nil, false, err
	}

	var m [][]float64
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false, err
	}
	return m, true, nil
}

// SetMatrix stores a matrix in cache.
func (s *CacheStore) SetMatrix(ctx context.Context, key string, m [][]float64, ttl time.Duration) error {
	data, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, matrixCachePrefix+key, data, ttl).Err()
}
