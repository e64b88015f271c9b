package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"ridepool/internal/domain"
	"ridepool/internal/repository"
)

// RequestService handles ride request intake.
type RequestService struct {
	requestRepo repository.RequestRepository
}

// NewRequestService creates a new RequestService.
func NewRequestService(requestRepo repository.RequestRepository) *RequestService {
	return &RequestService{requestRepo: requestRepo}
}

// CreateRequestInput contains the parameters for requesting a ride.
type CreateRequestInput struct {
	RiderID string
	Pickup  domain.Point
	Dropoff domain.Point
}

// CreateRequest stores a PENDING request for the next dispatch tick.
func (s *RequestService) CreateRequest(ctx context.Context, in CreateRequestInput) (*domain.Request, error) {
	if in.RiderID == "" {
		return nil, ErrInvalidRiderID
	}

	req := &domain.Request{
		ID:        uuid.New().String(),
		RiderID:   in.RiderID,
		Pickup:    in.Pickup,
		Dropoff:   in.Dropoff,
		Status:    domain.RequestStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidRequest, err)
	}

	if err := s.requestRepo.Create(ctx, req); err != nil {
		return nil, err
	}
	return req, nil
}

// GetRequest retrieves a request by ID.
func (s *RequestService) GetRequest(ctx context.Context, id string) (*domain.Request, error) {
	if id == "" {
		return nil, ErrInvalidRequest
	}
	return s.requestRepo.GetByID(ctx, id)
}
