package repository

import (
	"context"
	"time"

	"ridepool/internal/domain"
)

// RouteRepository defines the persistence operations for routes.
type RouteRepository interface {
	// Create persists a new route. Stops are stored through StopRepository.
	Create(ctx context.Context, route *domain.Route) error

	// GetByID retrieves a route by ID without its stops.
	GetByID(ctx context.Context, id string) (*domain.Route, error)

	// LockByID retrieves a route and holds a row lock until the surrounding
	// transaction ends.
	LockByID(ctx context.Context, id string) (*domain.Route, error)

	// GetLatestByVehicleID returns the most recently created route of a vehicle.
	// Returns nil if the vehicle never had one.
	GetLatestByVehicleID(ctx context.Context, vehicleID string) (*domain.Route, error)

	// MarkCompleted flips the route to COMPLETED.
	MarkCompleted(ctx context.Context, id string, at time.Time) error
}

// StopRepository defines the persistence operations for stops.
type StopRepository interface {
	// CreateBatch persists the stops of a route.
	CreateBatch(ctx context.Context, stops []*domain.Stop) error

	// GetByID retrieves a stop by ID.
	GetByID(ctx context.Context, id string) (*domain.Stop, error)

	// ListByRoute returns the stops of a route ordered by sequence.
	ListByRoute(ctx context.Context, routeID string) ([]*domain.Stop, error)

	// MarkCompleted sets completed_at on a pending stop.
	// Returns false if the stop was already completed.
	MarkCompleted(ctx context.Context, id string, at time.Time) (bool, error)

	// CountByRoute returns how many stops the route has and how many are completed.
	CountByRoute(ctx context.Context, routeID string) (total, completed int, err error)

	// RouteIDByRequest returns the route that holds the stops of a request.
	// Returns ErrNotFound if the request has not been placed on a route.
	RouteIDByRequest(ctx context.Context, requestID string) (string, error)

	// RiderIDsByRoute returns the distinct riders referenced by PICKUP/DROPOFF stops.
	RiderIDsByRoute(ctx context.Context, routeID string) ([]string, error)
}
