package postgres

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

const routeColumns = `id, vehicle_id, status, total_duration_seconds, created_at, completed_at`

// RouteRepository is a PostgreSQL implementation of repository.RouteRepository.
type RouteRepository struct {
	q Querier
}

// NewRouteRepository creates a new PostgreSQL route repository.
func NewRouteRepository(db *sql.DB) *RouteRepository {
	return &RouteRepository{q: db}
}

// NewRouteRepositoryWithTx creates a route repository using a transaction.
func NewRouteRepositoryWithTx(tx *sql.Tx) *RouteRepository {
	return &RouteRepository{q: tx}
}

// Create persists a new route.
func (r *RouteRepository) Create(ctx context.Context, route *domain.Route) error {
	query := `
		INSERT INTO routes (id, vehicle_id, status, total_duration_seconds, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := r.q.ExecContext(ctx, query,
		route.ID,
		route.VehicleID,
		route.Status,
		int64(route.TotalDuration.Seconds()),
		route.CreatedAt,
	)
	return err
}

// GetByID retrieves a route by ID.
func (r *RouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id), repository.ErrNotFound)
}

// LockByID retrieves a route with SELECT ... FOR UPDATE.
func (r *RouteRepository) LockByID(ctx context.Context, id string) (*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = $1 FOR UPDATE`
	return r.scanOne(r.q.QueryRowContext(ctx, query, id), repository.ErrNotFound)
}

// GetLatestByVehicleID returns the most recently created route of a vehicle.
// Returns nil if none exists.
func (r *RouteRepository) GetLatestByVehicleID(ctx context.Context, vehicleID string) (*domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE vehicle_id = $1 ORDER BY created_at DESC LIMIT 1`
	return r.scanOne(r.q.QueryRowContext(ctx, query, vehicleID), nil)
}

// MarkCompleted flips the route to COMPLETED.
func (r *RouteRepository) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	query := `UPDATE routes SET status = $1, completed_at = $2 WHERE id = $3`

	result, err := r.q.ExecContext(ctx, query, domain.RouteStatusCompleted, at, id)
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

// scanOne scans a single route row. notFound is returned on sql.ErrNoRows;
// a nil notFound yields (nil, nil).
func (r *RouteRepository) scanOne(row *sql.Row, notFound error) (*domain.Route, error) {
	var route domain.Route
	var totalSeconds int64
	var completedAt sql.NullTime

	err := row.Scan(
		&route.ID,
		&route.VehicleID,
		&route.Status,
		&totalSeconds,
		&route.CreatedAt,
		&completedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notFound
		}
		return nil, err
	}

	route.TotalDuration = time.Duration(totalSeconds) * time.Second
	if completedAt.Valid {
		route.CompletedAt = completedAt.Time
	}

	return &route, nil
}

// Ensure RouteRepository implements repository.RouteRepository.
var _ repository.RouteRepository = (*RouteRepository)(nil)
