package postgres

import (
	"context"
	"database/sql"
	"errors"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

const requestColumns = `id, rider_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, status, pickup_eta, dropoff_eta, created_at`

// RequestRepository is a PostgreSQL implementation of repository.RequestRepository.
type RequestRepository struct {
	q Querier
}

// NewRequestRepository creates a new PostgreSQL request repository.
func NewRequestRepository(db *sql.DB) *RequestRepository {
	return &RequestRepository{q: db}
}

// NewRequestRepositoryWithTx creates a request repository using a transaction.
func NewRequestRepositoryWithTx(tx *sql.Tx) *RequestRepository {
	return &RequestRepository{q: tx}
}

// Create persists a new request.
func (r *RequestRepository) Create(ctx context.Context, req *domain.Request) error {
	query := `
		INSERT INTO ride_requests (id, rider_id, pickup_lat, pickup_lng, dropoff_lat, dropoff_lng, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := r.q.ExecContext(ctx, query,
		req.ID,
		req.RiderID,
		req.Pickup.Lat,
		req.Pickup.Lng,
		req.Dropoff.Lat,
		req.Dropoff.Lng,
		req.Status,
		req.CreatedAt,
	)
	return err
}

// GetByID retrieves a request by ID.
func (r *RequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE id = $1`

	req, err := scanRequest(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return req, nil
}

// ListPending returns PENDING requests, oldest first.
// Coordinates are read as nullable so malformed rows surface to the caller's
// validation instead of failing the whole scan.
func (r *RequestRepository) ListPending(ctx context.Context, limit int) ([]*domain.Request, error) {
	query := `SELECT ` + requestColumns + ` FROM ride_requests WHERE status = $1 ORDER BY created_at, id LIMIT $2`
	return r.list(ctx, query, domain.RequestStatusPending, limit)
}

// ListByRoute returns every request referenced by a stop of the route.
func (r *RequestRepository) ListByRoute(ctx context.Context, routeID string) ([]*domain.Request, error) {
	query := `
		SELECT ` + requestColumns + ` FROM ride_requests
		WHERE id IN (SELECT request_id FROM stops WHERE route_id = $1 AND request_id IS NOT NULL)
		ORDER BY created_at, id
	`
	return r.list(ctx, query, routeID)
}

// GetActiveByRiderID returns the latest ASSIGNED or IN_PROGRESS request of a rider.
// Returns nil if the rider has none.
func (r *RequestRepository) GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Request, error) {
	query := `
		SELECT ` + requestColumns + ` FROM ride_requests
		WHERE rider_id = $1 AND status IN ($2, $3)
		ORDER BY created_at DESC
		LIMIT 1
	`

	req, err := scanRequest(r.q.QueryRowContext(ctx, query, riderID, domain.RequestStatusAssigned, domain.RequestStatusInProgress))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return req, nil
}

// Assign moves a PENDING request to ASSIGNED and records its ETAs.
func (r *RequestRepository) Assign(ctx context.Context, req *domain.Request) error {
	query := `
		UPDATE ride_requests
		SET status = $1, pickup_eta = $2, dropoff_eta = $3
		WHERE id = $4 AND status = $5
	`

	result, err := r.q.ExecContext(ctx, query,
		domain.RequestStatusAssigned,
		nullTime(req.PickupETA),
		nullTime(req.DropoffETA),
		req.ID,
		domain.RequestStatusPending,
	)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrConflict
	}

	req.Status = domain.RequestStatusAssigned
	return nil
}

// UpdateStatus sets the status of a request.
func (r *RequestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	query := `UPDATE ride_requests SET status = $1 WHERE id = $2`

	result, err := r.q.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rowsAffected == 0 {
		return repository.ErrNotFound
	}

	return nil
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...any) ([]*domain.Request, error) {
	rows, err := r.q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var requests []*domain.Request
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, req)
	}

	return requests, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRequest(row rowScanner) (*domain.Request, error) {
	var req domain.Request
	var pickupLat, pickupLng, dropoffLat, dropoffLng sql.NullFloat64
	var pickupETA, dropoffETA sql.NullTime

	if err := row.Scan(
		&req.ID,
		&req.RiderID,
		&pickupLat,
		&pickupLng,
		&dropoffLat,
		&dropoffLng,
		&req.Status,
		&pickupETA,
		&dropoffETA,
		&req.CreatedAt,
	); err != nil {
		return nil, err
	}

	req.Pickup = pointFromNull(pickupLat, pickupLng)
	req.Dropoff = pointFromNull(dropoffLat, dropoffLng)
	if pickupETA.Valid {
		req.PickupETA = pickupETA.Time
	}
	if dropoffETA.Valid {
		req.DropoffETA = dropoffETA.Time
	}

	return &req, nil
}

// Ensure RequestRepository implements repository.RequestRepository.
var _ repository.RequestRepository = (*RequestRepository)(nil)
