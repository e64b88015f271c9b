package redis

import (
	"context"
	"time"

	"ridepool/internal/domain"
)

// PositionStoreInterface defines the vehicle position operations used by
// tracking and vehicle selection.
type PositionStoreInterface interface {
	RecordPosition(ctx context.Context, vehicleID string, p domain.Point, at time.Time) error
	NearbyVehicles(ctx context.Context, center domain.Point, radiusKm float64) ([]VehiclePosition, error)
}

// LockStoreInterface defines the interface for the cluster-wide dispatch lock.
type LockStoreInterface interface {
	AcquireDispatchLock(ctx context.Context, ttl time.Duration) (string, error)
	ReleaseDispatchLock(ctx context.Context, token string) error
}

var (
	_ PositionStoreInterface = (*PositionStore)(nil)
	_ LockStoreInterface     = (*LockStore)(nil)
)
