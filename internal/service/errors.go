package service

import "errors"

var (
	// ErrNoCapacity is returned when no IDLE vehicle can take the batch.
	ErrNoCapacity = errors.New("no idle vehicle available")

	// ErrInvalidRequest is returned when a request has missing or malformed points.
	ErrInvalidRequest = errors.New("invalid ride request")

	// ErrPersistence wraps a failed dispatch or completion transaction.
	ErrPersistence = errors.New("persistence failure")

	// ErrTickInProgress is returned when a tick is attempted while another one runs.
	ErrTickInProgress = errors.New("dispatch tick already in progress")

	// ErrInvalidStopID is returned when stop ID is empty.
	ErrInvalidStopID = errors.New("invalid stop id")

	// ErrInvalidRiderID is returned when rider ID is empty.
	ErrInvalidRiderID = errors.New("invalid rider id")

	// ErrInvalidDriverID is returned when driver ID is empty.
	ErrInvalidDriverID = errors.New("invalid driver id")

	// ErrEmptyPlan is returned when a route would be committed without stops.
	ErrEmptyPlan = errors.New("route plan has no stops")
)
