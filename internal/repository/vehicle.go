package repository

import (
	"context"

	"ridepool/internal/domain"
)

// VehicleRepository defines the persistence operations for vehicles.
type VehicleRepository interface {
	// Create adds a new vehicle.
	Create(ctx context.Context, vehicle *domain.Vehicle) error

	// GetByID retrieves a vehicle by ID.
	GetByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// ListIdle returns IDLE vehicles in a stable order.
	ListIdle(ctx context.Context) ([]*domain.Vehicle, error)

	// LockByID retrieves a vehicle and holds a row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id string) (*domain.Vehicle, error)

	// UpdateStatus updates the status of a vehicle.
	UpdateStatus(ctx context.Context, id string, status domain.VehicleStatus) error
}
