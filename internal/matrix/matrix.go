// Package matrix provides travel-time matrices between sets of points.
package matrix

import (
	"context"
	"errors"
	"time"

	"ridepool/internal/domain"
	"ridepool/internal/observability"
)

var (
	// ErrUpstreamUnavailable is returned on transport failures, timeouts and 5xx answers.
	ErrUpstreamUnavailable = errors.New("duration oracle unavailable")

	// ErrUpstreamRejected is returned when the oracle refuses the request or answers with an unusable matrix.
	ErrUpstreamRejected = errors.New("duration oracle rejected request")
)

// Oracle returns an N×N matrix of travel seconds where m[i][j] is the time
// from points[i] to points[j]. The matrix is not assumed symmetric.
type Oracle interface {
	Matrix(ctx context.Context, points []domain.Point) ([][]float64, error)
}

// Degenerate returns the zero matrix used when fewer than two points are given.
func Degenerate(n int) [][]float64 {
	m := make([][]float64, n)
	for i := range m {
		m[i] = make([]float64, n)
	}
	return m
}

// observe records the latency of a provider call.
func observe(provider string, start time.Time, err error) {
	result := "ok"
	switch {
	case errors.Is(err, ErrUpstreamUnavailable):
		result = "unavailable"
	case errors.Is(err, ErrUpstreamRejected):
		result = "rejected"
	case err != nil:
		result = "error"
	}
	observability.MatrixLatency.WithLabelValues(provider, result).Observe(time.Since(start).Seconds())
}

// validateSquare checks that m is n×n with non-negative entries.
func validateSquare(m [][]float64, n int) error {
	if len(m) != n {
		return ErrUpstreamRejected
	}
	for _, row := range m {
		if len(row) != n {
			return ErrUpstreamRejected
		}
		for _, v := range row {
			if v < 0 {
				return ErrUpstreamRejected
			}
		}
	}
	return nil
}
