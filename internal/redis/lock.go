package redis

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const dispatchLockKey = "lock:dispatch:tick"

// releaseScript deletes the lock only when it is still held by the caller's token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// LockStore handles distributed locking in Redis.
type LockStore struct {
	client *redis.Client
}

// NewLockStore creates a new LockStore.
func NewLockStore(client *redis.Client) *LockStore {
	return &LockStore{client: client}
}

// AcquireDispatchLock attempts to take the cluster-wide dispatch lock.
// Returns a release token when the lock was acquired, or "" if another
// instance holds it.
func (s *LockStore) AcquireDispatchLock(ctx context.Context, ttl time.Duration) (string, error) {
	token := uuid.NewString()

	ok, err := s.client.SetNX(ctx, dispatchLockKey, token, ttl).Result()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", nil
	}

	return token, nil
}

// ReleaseDispatchLock releases the dispatch lock if token still owns it.
func (s *LockStore) ReleaseDispatchLock(ctx context.Context, token string) error {
	return releaseScript.Run(ctx, s.client, []string{dispatchLockKey}, token).Err()
}
