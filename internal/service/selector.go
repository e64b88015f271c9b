package service

import (
	"context"

	"github.com/sirupsen/logrus"

	"ridepool/internal/domain"
	"ridepool/internal/redis"
	"ridepool/internal/repository"
)

// VehicleSelector picks the vehicle that will serve a batch. It returns
// ErrNoCapacity when no vehicle is IDLE.
type VehicleSelector interface {
	Select(ctx context.Context, depot domain.Point) (*domain.Vehicle, error)
}

// FirstIdleSelector takes the first IDLE vehicle in repository order.
type FirstIdleSelector struct {
	vehicles repository.VehicleRepository
}

// NewFirstIdleSelector creates a new FirstIdleSelector.
func NewFirstIdleSelector(vehicles repository.VehicleRepository) *FirstIdleSelector {
	return &FirstIdleSelector{vehicles: vehicles}
}

func (s *FirstIdleSelector) Select(ctx context.Context, _ domain.Point) (*domain.Vehicle, error) {
	idle, err := s.vehicles.ListIdle(ctx)
	if err != nil {
		return nil, err
	}
	if len(idle) == 0 {
		return nil, ErrNoCapacity
	}
	return idle[0], nil
}

// NearestIdleSelector prefers the IDLE vehicle whose driver last reported a
// fresh position closest to the depot. Vehicles without a known position, or a
// failing position store, fall back to first idle.
type NearestIdleSelector struct {
	vehicles  repository.VehicleRepository
	positions redis.PositionStoreInterface
	radiusKm  float64
	logger    logrus.FieldLogger
}

// NewNearestIdleSelector creates a new NearestIdleSelector.
func NewNearestIdleSelector(
	vehicles repository.VehicleRepository,
	positions redis.PositionStoreInterface,
	radiusKm float64,
	logger logrus.FieldLogger,
) *NearestIdleSelector {
	return &NearestIdleSelector{
		vehicles:  vehicles,
		positions: positions,
		radiusKm:  radiusKm,
		logger:    logger,
	}
}

func (s *NearestIdleSelector) Select(ctx context.Context, depot domain.Point) (*domain.Vehicle, error) {
	idle, err := s.vehicles.ListIdle(ctx)
	if err != nil {
		return nil, err
	}
	if len(idle) == 0 {
		return nil, ErrNoCapacity
	}

	nearby, err := s.positions.NearbyVehicles(ctx, depot, s.radiusKm)
	if err != nil {
		s.logger.WithError(err).Warn("position lookup failed, using first idle vehicle")
		return idle[0], nil
	}

	byID := make(map[string]*domain.Vehicle, len(idle))
	for _, v := range idle {
		byID[v.ID] = v
	}
	for _, pos := range nearby {
		if v, ok := byID[pos.VehicleID]; ok {
			return v, nil
		}
	}
	return idle[0], nil
}

var (
	_ VehicleSelector = (*FirstIdleSelector)(nil)
	_ VehicleSelector = (*NearestIdleSelector)(nil)
)
