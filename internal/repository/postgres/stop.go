package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

const stopColumns = `id, route_id, request_id, kind, lat, lng, sequence, eta, completed_at`

// StopRepository is a PostgreSQL implementation of repository.StopRepository.
type StopRepository struct {
	q Querier
}

// NewStopRepository creates a new PostgreSQL stop repository.
func NewStopRepository(db *sql.DB) *StopRepository {
	return &StopRepository{q: db}
}

// NewStopRepositoryWithTx creates a stop repository using a transaction.
func NewStopRepositoryWithTx(tx *sql.Tx) *StopRepository {
	return &StopRepository{q: tx}
}

// CreateBatch persists the stops of a route, one INSERT per stop.
func (r *StopRepository) CreateBatch(ctx context.Context, stops []*domain.Stop) error {
	query := `
		INSERT INTO stops (id, route_id, request_id, kind, lat, lng, sequence, eta, completed_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	for _, stop := range stops {
		var requestID sql.NullString
		if stop.RequestID != "" {
			requestID = sql.NullString{String: stop.RequestID, Valid: true}
		}

		if _, err := r.q.ExecContext(ctx, query,
			stop.ID,
			stop.RouteID,
			requestID,
			stop.Kind,
			stop.Location.Lat,
			stop.Location.Lng,
			stop.Sequence,
			stop.ETA,
			nullTime(stop.CompletedAt),
		); err != nil {
			return err
		}
	}

	return nil
}

// GetByID retrieves a stop by ID.
func (r *StopRepository) GetByID(ctx context.Context, id string) (*domain.Stop, error) {
	query := `SELECT ` + stopColumns + ` FROM stops WHERE id = $1`

	stop, err := scanStop(r.q.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return stop, nil
}

// ListByRoute returns the stops of a route ordered by sequence.
func (r *StopRepository) ListByRoute(ctx context.Context, routeID string) ([]*domain.Stop, error) {
	query := `SELECT ` + stopColumns + ` FROM stops WHERE route_id = $1 ORDER BY sequence`

	rows, err := r.q.QueryContext(ctx, query, routeID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stops []*domain.Stop
	for rows.Next() {
		stop, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}

	return stops, rows.Err()
}

// MarkCompleted sets completed_at on a pending stop.
func (r *StopRepository) MarkCompleted(ctx context.Context, id string, at time.Time) (bool, error) {
	query := `UPDATE stops SET completed_at = $1 WHERE id = $2 AND completed_at IS NULL`

	result, err := r.q.ExecContext(ctx, query, at, id)
	if err != nil {
		return false, err
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}

	return rowsAffected > 0, nil
}

// CountByRoute returns the total and completed stop counts of a route.
func (r *StopRepository) CountByRoute(ctx context.Context, routeID string) (int, int, error) {
	query := `SELECT COUNT(*), COUNT(completed_at) FROM stops WHERE route_id = $1`

	var total, completed int
	if err := r.q.QueryRowContext(ctx, query, routeID).Scan(&total, &completed); err != nil {
		return 0, 0, err
	}
	return total, completed, nil
}

// RouteIDByRequest returns the route that holds the stops of a request.
func (r *StopRepository) RouteIDByRequest(ctx context.Context, requestID string) (string, error) {
	query := `
		SELECT s.route_id
		FROM stops s
		JOIN routes rt ON rt.id = s.route_id
		WHERE s.request_id = $1
		ORDER BY rt.created_at DESC
		LIMIT 1
	`

	var routeID string
	if err := r.q.QueryRowContext(ctx, query, requestID).Scan(&routeID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", repository.ErrNotFound
		}
		return "", err
	}
	return routeID, nil
}

// RiderIDsByRoute returns the distinct riders referenced by PICKUP/DROPOFF stops.
func (r *StopRepository) RiderIDsByRoute(ctx context.Context, routeID string) ([]string, error) {
	query := `
		SELECT DISTINCT rr.rider_id
		FROM stops s
		JOIN ride_requests rr ON rr.id = s.request_id
		WHERE s.route_id = $1 AND s.kind IN ($2, $3)
		ORDER BY rr.rider_id
	`

	rows, err := r.q.QueryContext(ctx, query, routeID, domain.StopKindPickup, domain.StopKindDropoff)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var riderIDs []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		riderIDs = append(riderIDs, id)
	}

	return riderIDs, rows.Err()
}

func scanStop(row rowScanner) (*domain.Stop, error) {
	var stop domain.Stop
	var requestID sql.NullString
	var completedAt sql.NullTime

	if err := row.Scan(
		&stop.ID,
		&stop.RouteID,
		&requestID,
		&stop.Kind,
		&stop.Location.Lat,
		&stop.Location.Lng,
		&stop.Sequence,
		&stop.ETA,
		&completedAt,
	); err != nil {
		return nil, err
	}

	stop.RequestID = requestID.String
	if completedAt.Valid {
		stop.CompletedAt = completedAt.Time
	}

	return &stop, nil
}

// Ensure StopRepository implements repository.StopRepository.
var _ repository.StopRepository = (*StopRepository)(nil)
