package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepool/internal/domain"
	"ridepool/internal/matrix"
	"ridepool/internal/repository"
	"ridepool/internal/service"
)

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error string `json:"error"`
}

// respondError sends an error response with the appropriate HTTP status code.
func respondError(c *gin.Context, err error) {
	code := mapErrorToHTTPStatus(err)
	c.JSON(code, ErrorResponse{Error: err.Error()})
}

// respondJSON sends a JSON response with the given status code.
func respondJSON(c *gin.Context, code int, data any) {
	c.JSON(code, data)
}

// mapErrorToHTTPStatus maps service/repository errors to HTTP status codes.
func mapErrorToHTTPStatus(err error) int {
	switch {
	// Not found errors
	case errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound

	// Validation errors - Bad Request
	case errors.Is(err, service.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidRiderID),
		errors.Is(err, service.ErrInvalidDriverID),
		errors.Is(err, service.ErrInvalidStopID),
		errors.Is(err, domain.ErrInvalidPoint):
		return http.StatusBadRequest

	// Conflict errors
	case errors.Is(err, service.ErrTickInProgress),
		errors.Is(err, service.ErrNoCapacity),
		errors.Is(err, repository.ErrConflict):
		return http.StatusConflict

	// Upstream errors
	case errors.Is(err, matrix.ErrUpstreamUnavailable),
		errors.Is(err, matrix.ErrUpstreamRejected):
		return http.StatusServiceUnavailable

	// Default to internal server error
	default:
		return http.StatusInternalServerError
	}
}
