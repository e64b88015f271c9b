package domain

import "time"

// RequestStatus represents the lifecycle state of a ride request.
type RequestStatus string

const (
	RequestStatusPending    RequestStatus = "PENDING"
	RequestStatusAssigned   RequestStatus = "ASSIGNED"
	RequestStatusInProgress RequestStatus = "IN_PROGRESS"
	RequestStatusCompleted  RequestStatus = "COMPLETED"
)

// Request is a ride a rider asked for: one pickup and one dropoff.
type Request struct {
	ID         string
	RiderID    string
	Pickup     Point
	Dropoff    Point
	Status     RequestStatus
	PickupETA  time.Time // zero until assigned
	DropoffETA time.Time // zero until assigned
	CreatedAt  time.Time
}

// Validate checks that both endpoints of the request are well-formed.
func (r *Request) Validate() error {
	if err := r.Pickup.Validate(); err != nil {
		return err
	}
	return r.Dropoff.Validate()
}

// TripDuration is the planned time between pickup and dropoff.
func (r *Request) TripDuration() time.Duration {
	if r.PickupETA.IsZero() || r.DropoffETA.IsZero() {
		return 0
	}
	return r.DropoffETA.Sub(r.PickupETA)
}
