package postgres

import (
	"context"
	"database/sql"
	"math"
	"time"

	"ridepool/internal/domain"
)

// Querier is an interface satisfied by both *sql.DB and *sql.Tx.
type Querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Ensure interfaces are satisfied.
var (
	_ Querier = (*sql.DB)(nil)
	_ Querier = (*sql.Tx)(nil)
)

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}

// pointFromNull maps a NULL coordinate to NaN so that Point.Validate rejects it.
func pointFromNull(lat, lng sql.NullFloat64) domain.Point {
	p := domain.Point{Lat: math.NaN(), Lng: math.NaN()}
	if lat.Valid {
		p.Lat = lat.Float64
	}
	if lng.Valid {
		p.Lng = lng.Float64
	}
	return p
}
