package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"ridepool/internal/service"
)

// Ticker runs one dispatch cycle.
type Ticker interface {
	Tick(ctx context.Context) (*service.TickResult, error)
}

// DispatchHandler exposes the scheduler to operators.
type DispatchHandler struct {
	scheduler Ticker
}

// NewDispatchHandler creates a new DispatchHandler.
func NewDispatchHandler(scheduler Ticker) *DispatchHandler {
	return &DispatchHandler{scheduler: scheduler}
}

// Run handles POST /v1/dispatch/run. A tick that found no vehicle still
// answers 200 with its outcome.
func (h *DispatchHandler) Run(c *gin.Context) {
	result, err := h.scheduler.Tick(c.Request.Context())
	if err != nil && !errors.Is(err, service.ErrNoCapacity) {
		respondError(c, err)
		return
	}

	respondJSON(c, http.StatusOK, result)
}
