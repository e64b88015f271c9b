package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ridepool/internal/domain"
	"ridepool/internal/service"
)

// RequestHandler handles HTTP requests for ride requests.
type RequestHandler struct {
	requestService *service.RequestService
}

// NewRequestHandler creates a new RequestHandler.
func NewRequestHandler(requestService *service.RequestService) *RequestHandler {
	return &RequestHandler{requestService: requestService}
}

// CreateRequestBody is the HTTP request body for requesting a ride.
type CreateRequestBody struct {
	RiderID string        `json:"rider_id"`
	Pickup  *domain.Point `json:"pickup"`
	Dropoff *domain.Point `json:"dropoff"`
}

// RequestResponse is the HTTP representation of a ride request.
type RequestResponse struct {
	ID         string       `json:"id"`
	RiderID    string       `json:"rider_id"`
	Pickup     domain.Point `json:"pickup"`
	Dropoff    domain.Point `json:"dropoff"`
	Status     string       `json:"status"`
	PickupETA  *time.Time   `json:"pickup_eta,omitempty"`
	DropoffETA *time.Time   `json:"dropoff_eta,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// CreateRequest handles POST /v1/requests
func (h *RequestHandler) CreateRequest(c *gin.Context) {
	var body CreateRequestBody
	if err := c.ShouldBindJSON(&body); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid request body"})
		return
	}
	if body.Pickup == nil || body.Dropoff == nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: "pickup and dropoff are required"})
		return
	}

	req, err := h.requestService.CreateRequest(c.Request.Context(), service.CreateRequestInput{
		RiderID: body.RiderID,
		Pickup:  *body.Pickup,
		Dropoff: *body.Dropoff,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusCreated, toRequestResponse(req))
}

// GetRequest handles GET /v1/requests/:id
func (h *RequestHandler) GetRequest(c *gin.Context) {
	req, err := h.requestService.GetRequest(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, toRequestResponse(req))
}

func toRequestResponse(r *domain.Request) RequestResponse {
	return RequestResponse{
		ID:         r.ID,
		RiderID:    r.RiderID,
		Pickup:     r.Pickup,
		Dropoff:    r.Dropoff,
		Status:     string(r.Status),
		PickupETA:  optionalTime(r.PickupETA),
		DropoffETA: optionalTime(r.DropoffETA),
		CreatedAt:  r.CreatedAt,
	}
}

func optionalTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
