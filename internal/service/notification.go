package service

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"

	"ridepool/internal/domain"
	"ridepool/internal/realtime"
)

// Notification is a realtime event addressed to one identity.
type Notification struct {
	Event     string
	Recipient realtime.Identity
	Payload   any
	CreatedAt time.Time
}

// RouteAssignedPayload is pushed to a driver when a route is committed.
type RouteAssignedPayload struct {
	RouteID              string        `json:"routeId"`
	VehicleID            string        `json:"vehicleId"`
	TotalDurationSeconds int64         `json:"totalDurationSeconds"`
	Stops                []StopPayload `json:"stops"`
}

// StopPayload is the wire form of a stop.
type StopPayload struct {
	ID        string       `json:"id"`
	RequestID string       `json:"requestId,omitempty"`
	Kind      string       `json:"kind"`
	Location  domain.Point `json:"location"`
	Sequence  int          `json:"sequence"`
	ETA       time.Time    `json:"eta"`
	Completed bool         `json:"completed"`
}

// DriverLocationPayload is pushed to riders of a route when its driver moves.
type DriverLocationPayload struct {
	DriverID string  `json:"driverId"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
}

// NotificationService delivers realtime events through the connection registry.
type NotificationService struct {
	registry *realtime.Registry
	sender   realtime.Sender
	logger   logrus.FieldLogger
}

// NewNotificationService creates a new NotificationService.
func NewNotificationService(registry *realtime.Registry, sender realtime.Sender, logger logrus.FieldLogger) *NotificationService {
	return &NotificationService{
		registry: registry,
		sender:   sender,
		logger:   logger.WithField("component", "notification"),
	}
}

// NotifyRouteAssigned tells the driver of the route's vehicle about its new route.
// It reports whether the driver was connected.
func (s *NotificationService) NotifyRouteAssigned(ctx context.Context, route *domain.Route) bool {
	payload := RouteAssignedPayload{
		RouteID:              route.ID,
		VehicleID:            route.VehicleID,
		TotalDurationSeconds: int64(route.TotalDuration.Seconds()),
		Stops:                StopPayloads(route.Stops),
	}

	return s.send(ctx, Notification{
		Event:     realtime.EventNewRoute,
		Recipient: realtime.Identity{Role: realtime.RoleDriver, ID: route.VehicleID},
		Payload:   payload,
		CreatedAt: time.Now(),
	})
}

// NotifyDriverLocation pushes a driver position to every connected rider in
// riderIDs and returns how many received it.
func (s *NotificationService) NotifyDriverLocation(ctx context.Context, driverID string, p domain.Point, riderIDs []string) int {
	payload := DriverLocationPayload{DriverID: driverID, Lat: p.Lat, Lng: p.Lng}

	delivered := 0
	for _, riderID := range riderIDs {
		ok := s.send(ctx, Notification{
			Event:     realtime.EventDriverLocationUpdated,
			Recipient: realtime.Identity{Role: realtime.RoleRider, ID: riderID},
			Payload:   payload,
			CreatedAt: time.Now(),
		})
		if ok {
			delivered++
		}
	}
	return delivered
}

// send delivers a notification if its recipient has an open channel.
// A missing channel is the normal case between trips and only logged.
func (s *NotificationService) send(_ context.Context, n Notification) bool {
	log := s.logger.WithFields(logrus.Fields{"event": n.Event, "role": n.Recipient.Role, "recipient": n.Recipient.ID})

	channelID, ok := s.registry.Lookup(n.Recipient)
	if !ok {
		log.Debug("recipient not connected")
		return false
	}

	if err := s.sender.Send(channelID, n.Event, n.Payload); err != nil {
		if errors.Is(err, realtime.ErrNoChannel) {
			log.Debug("channel closed before delivery")
		} else {
			log.WithError(err).Warn("delivery failed")
		}
		return false
	}

	log.Debug("notification delivered")
	return true
}

// StopPayloads converts stops to their wire form.
func StopPayloads(stops []*domain.Stop) []StopPayload {
	out := make([]StopPayload, 0, len(stops))
	for _, st := range stops {
		out = append(out, StopPayload{
			ID:        st.ID,
			RequestID: st.RequestID,
			Kind:      string(st.Kind),
			Location:  st.Location,
			Sequence:  st.Sequence,
			ETA:       st.ETA,
			Completed: st.Completed(),
		})
	}
	return out
}
