package redis

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"ridepool/internal/domain"
)

const (
	positionsKey = "vehicles:positions"
	lastSeenKey  = "vehicles:last_seen"
)

// VehiclePosition is the last position reported by a vehicle's driver.
type VehiclePosition struct {
	VehicleID string
	Point     domain.Point
	SeenAt    time.Time // zero if the report time is unknown
}

// PositionStore keeps a GEO index of vehicle positions plus the time each
// vehicle last reported.
type PositionStore struct {
	client redis.Cmdable
	maxAge time.Duration
}

// NewPositionStore creates a new PositionStore. Positions older than maxAge
// are ignored by NearbyVehicles; zero keeps them forever.
func NewPositionStore(client redis.Cmdable, maxAge time.Duration) *PositionStore {
	return &PositionStore{client: client, maxAge: maxAge}
}

// RecordPosition indexes p under vehicleID and stamps the report time.
func (s *PositionStore) RecordPosition(ctx context.Context, vehicleID string, p domain.Point, at time.Time) error {
	pipe := s.client.TxPipeline()
	pipe.GeoAdd(ctx, positionsKey, &redis.GeoLocation{
		Name:      vehicleID,
		Longitude: p.Lng,
		Latitude:  p.Lat,
	})
	pipe.HSet(ctx, lastSeenKey, vehicleID, at.Unix())
	_, err := pipe.Exec(ctx)
	return err
}

// NearbyVehicles returns vehicles within radiusKm of center, nearest first.
func (s *PositionStore) NearbyVehicles(ctx context.Context, center domain.Point, radiusKm float64) ([]VehiclePosition, error) {
	results, err := s.client.GeoSearchLocation(ctx, positionsKey, &redis.GeoSearchLocationQuery{
		GeoSearchQuery: redis.GeoSearchQuery{
			Longitude:  center.Lng,
			Latitude:   center.Lat,
			Radius:     radiusKm,
			RadiusUnit: "km",
			Sort:       "ASC",
		},
		WithCoord: true,
	}).Result()
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}

	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.Name
	}
	seen, err := s.client.HMGet(ctx, lastSeenKey, ids...).Result()
	if err != nil {
		return nil, err
	}

	cutoff := time.Time{}
	if s.maxAge > 0 {
		cutoff = time.Now().Add(-s.maxAge)
	}

	positions := make([]VehiclePosition, 0, len(results))
	for i, r := range results {
		pos := VehiclePosition{
			VehicleID: r.Name,
			Point:     domain.Point{Lat: r.Latitude, Lng: r.Longitude},
			SeenAt:    parseUnix(seen[i]),
		}
		if !cutoff.IsZero() && (pos.SeenAt.IsZero() || pos.SeenAt.Before(cutoff)) {
			continue
		}
		positions = append(positions, pos)
	}
	return positions, nil
}

func parseUnix(v any) time.Time {
	s, ok := v.(string)
	if !ok {
		return time.Time{}
	}
	sec, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return time.Time{}
	}
	return time.Unix(sec, 0).UTC()
}
