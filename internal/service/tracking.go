package service

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"ridepool/internal/domain"
	"ridepool/internal/realtime"
	"ridepool/internal/redis"
	"ridepool/internal/repository"
)

// TrackingService relays driver positions to the riders on the driver's route.
type TrackingService struct {
	registry  *realtime.Registry
	routes    repository.RouteRepository
	stops     repository.StopRepository
	positions redis.PositionStoreInterface
	notifier  *NotificationService
	logger    logrus.FieldLogger
}

// NewTrackingService creates a new TrackingService. positions may be nil.
func NewTrackingService(
	registry *realtime.Registry,
	routes repository.RouteRepository,
	stops repository.StopRepository,
	positions redis.PositionStoreInterface,
	notifier *NotificationService,
	logger logrus.FieldLogger,
) *TrackingService {
	return &TrackingService{
		registry:  registry,
		routes:    routes,
		stops:     stops,
		positions: positions,
		notifier:  notifier,
		logger:    logger.WithField("component", "tracking"),
	}
}

// HandleLocation processes a location frame received on channelID and
// returns how many riders it reached. Frames from unknown or non-driver
// channels, drivers without an active route and routes without connected
// riders are dropped.
func (s *TrackingService) HandleLocation(ctx context.Context, channelID string, p domain.Point) (int, error) {
	id, ok := s.registry.IdentityOf(channelID)
	if !ok || id.Role != realtime.RoleDriver {
		s.logger.WithField("channel", channelID).Debug("location from unresolved channel dropped")
		return 0, nil
	}
	log := s.logger.WithField("driver", id.ID)

	if s.positions != nil {
		if err := s.positions.RecordPosition(ctx, id.ID, p, time.Now().UTC()); err != nil {
			log.WithError(err).Warn("failed to record vehicle position")
		}
	}

	route, err := s.routes.GetLatestByVehicleID(ctx, id.ID)
	if err != nil {
		return 0, err
	}
	if route == nil || route.Status != domain.RouteStatusInProgress {
		log.Debug("no active route, location dropped")
		return 0, nil
	}

	riderIDs, err := s.stops.RiderIDsByRoute(ctx, route.ID)
	if err != nil {
		return 0, err
	}

	delivered := s.notifier.NotifyDriverLocation(ctx, id.ID, p, riderIDs)
	if delivered == 0 {
		log.WithField("route", route.ID).Debug("no connected riders")
	}
	return delivered, nil
}

// OnLocation adapts HandleLocation to the gateway callback.
func (s *TrackingService) OnLocation(ctx context.Context, channelID string, p domain.Point) {
	if _, err := s.HandleLocation(ctx, channelID, p); err != nil {
		s.logger.WithError(err).WithField("channel", channelID).Warn("location fan-out failed")
	}
}
