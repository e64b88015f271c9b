package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridepool/internal/domain"
	"ridepool/internal/service"
)

// RouteHandler handles HTTP requests for routes and stops.
type RouteHandler struct {
	routeService *service.RouteService
}

// NewRouteHandler creates a new RouteHandler.
func NewRouteHandler(routeService *service.RouteService) *RouteHandler {
	return &RouteHandler{routeService: routeService}
}

// RouteResponse is the HTTP representation of a route.
type RouteResponse struct {
	ID                   string                `json:"id"`
	VehicleID            string                `json:"vehicle_id"`
	Status               string                `json:"status"`
	TotalDurationSeconds int64                 `json:"total_duration_seconds"`
	CreatedAt            time.Time             `json:"created_at"`
	CompletedAt          *time.Time            `json:"completed_at,omitempty"`
	Stops                []service.StopPayload `json:"stops,omitempty"`
}

// CompleteStopResponse is the HTTP response for completing a stop.
type CompleteStopResponse struct {
	StopID         string    `json:"stop_id"`
	RouteID        string    `json:"route_id"`
	CompletedAt    time.Time `json:"completed_at"`
	RouteCompleted bool      `json:"route_completed"`
}

// ActiveRequestResponse is the HTTP response for a rider's active request.
type ActiveRequestResponse struct {
	Request RequestResponse `json:"request"`
	Route   RouteResponse   `json:"route"`
}

// CompleteStop handles PATCH /v1/stops/:id/complete
func (h *RouteHandler) CompleteStop(c *gin.Context) {
	result, err := h.routeService.CompleteStop(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, CompleteStopResponse{
		StopID:         result.Stop.ID,
		RouteID:        result.Stop.RouteID,
		CompletedAt:    result.Stop.CompletedAt,
		RouteCompleted: result.RouteCompleted,
	})
}

// GetActiveRoute handles GET /v1/drivers/:id/active-route
func (h *RouteHandler) GetActiveRoute(c *gin.Context) {
	route, err := h.routeService.ActiveRoute(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRouteResponse(route))
}

// GetActiveRequest handles GET /v1/riders/:id/active-request
func (h *RouteHandler) GetActiveRequest(c *gin.Context) {
	trip, err := h.routeService.ActiveRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, ActiveRequestResponse{
		Request: toRequestResponse(trip.Request),
		Route:   toRouteResponse(trip.Route),
	})
}

func toRouteResponse(r *domain.Route) RouteResponse {
	return RouteResponse{
		ID:                   r.ID,
		VehicleID:            r.VehicleID,
		Status:               string(r.Status),
		TotalDurationSeconds: int64(r.TotalDuration.Seconds()),
		CreatedAt:            r.CreatedAt,
		CompletedAt:          optionalTime(r.CompletedAt),
		Stops:                service.StopPayloads(r.Stops),
	}
}
