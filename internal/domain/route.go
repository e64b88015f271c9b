package domain

import "time"

// RouteStatus represents the lifecycle state of a route.
type RouteStatus string

const (
	RouteStatusInProgress RouteStatus = "IN_PROGRESS"
	RouteStatusCompleted  RouteStatus = "COMPLETED"
)

// StopKind tells what happens at a stop.
type StopKind string

const (
	StopKindDepot    StopKind = "DEPOT"
	StopKindPickup   StopKind = "PICKUP"
	StopKindDropoff  StopKind = "DROPOFF"
	StopKindEndpoint StopKind = "ENDPOINT"
)

// HasRequest reports whether stops of this kind reference a ride request.
func (k StopKind) HasRequest() bool {
	return k == StopKindPickup || k == StopKindDropoff
}

// Route is the ordered plan a single vehicle executes for one dispatch cycle.
type Route struct {
	ID            string
	VehicleID     string
	Status        RouteStatus
	TotalDuration time.Duration
	CreatedAt     time.Time
	CompletedAt   time.Time
	Stops         []*Stop // ordered by Sequence when loaded
}

// Stop is one visit on a route. Sequence starts at 1 and is contiguous per route.
type Stop struct {
	ID          string
	RouteID     string
	RequestID   string // empty for DEPOT and ENDPOINT stops
	Kind        StopKind
	Location    Point
	Sequence    int
	ETA         time.Time
	CompletedAt time.Time // zero while pending
}

// Completed reports whether the stop has been visited.
func (s *Stop) Completed() bool {
	return !s.CompletedAt.IsZero()
}
