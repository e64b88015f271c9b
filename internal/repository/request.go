package repository

import (
	"context"

	"ridepool/internal/domain"
)

// RequestRepository defines the persistence operations for ride requests.
type RequestRepository interface {
	// Create persists a new request.
	Create(ctx context.Context, req *domain.Request) error

	// GetByID retrieves a request by ID.
	GetByID(ctx context.Context, id string) (*domain.Request, error)

	// ListPending returns PENDING requests, oldest first, at most limit rows.
	ListPending(ctx context.Context, limit int) ([]*domain.Request, error)

	// ListByRoute returns every request referenced by a stop of the route.
	ListByRoute(ctx context.Context, routeID string) ([]*domain.Request, error)

	// GetActiveByRiderID returns the latest ASSIGNED or IN_PROGRESS request of a rider.
	// Returns nil if the rider has none.
	GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Request, error)

	// Assign moves a PENDING request to ASSIGNED and records its ETAs.
	// Returns ErrConflict if the request is no longer PENDING.
	Assign(ctx context.Context, req *domain.Request) error

	// UpdateStatus sets the status of a request.
	UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error
}
