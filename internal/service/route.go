package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"ridepool/internal/domain"
	"ridepool/internal/events"
	"ridepool/internal/observability"
	"ridepool/internal/repository"
)

// RouteService commits sequenced batches as routes and drives stop
// completion through to the end of a route.
type RouteService struct {
	txm       repository.TxManager
	repos     repository.Repositories
	depot     domain.Point
	publisher events.Publisher
	logger    logrus.FieldLogger
	now       func() time.Time
}

// NewRouteService creates a new RouteService. repos is used for reads outside
// of a transaction.
func NewRouteService(
	txm repository.TxManager,
	repos repository.Repositories,
	depot domain.Point,
	publisher events.Publisher,
	logger logrus.FieldLogger,
) *RouteService {
	return &RouteService{
		txm:       txm,
		repos:     repos,
		depot:     depot,
		publisher: publisher,
		logger:    logger.WithField("component", "route"),
		now:       func() time.Time { return time.Now().UTC() },
	}
}

// RoutePlan is a sequenced batch ready to be committed for one vehicle.
type RoutePlan struct {
	VehicleID string
	Requests  []*domain.Request
	Visits    []VisitPoint // sequencer output
	Durations [][]float64  // matrix over [depot, points...]
}

// StopCompletion is the result of completing a stop.
type StopCompletion struct {
	Stop           *domain.Stop
	Route          *domain.Route
	RouteCompleted bool
}

// RiderTrip is a rider's active request together with the route serving it.
type RiderTrip struct {
	Request *domain.Request
	Route   *domain.Route
}

// CommitRoute persists the route, its stops, the vehicle's ON_ROUTE status
// and the ASSIGNED requests in one transaction.
func (s *RouteService) CommitRoute(ctx context.Context, plan RoutePlan) (*domain.Route, error) {
	if len(plan.Visits) == 0 {
		return nil, ErrEmptyPlan
	}

	now := s.now()
	route, requests := s.buildRoute(plan, now)

	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		// Re-check the vehicle under a row lock.
		vehicle, err := repos.Vehicles.LockByID(ctx, plan.VehicleID)
		if err != nil {
			return err
		}
		if vehicle.Status != domain.VehicleStatusIdle {
			return ErrNoCapacity
		}

		if err := repos.Routes.Create(ctx, route); err != nil {
			return err
		}
		if err := repos.Stops.CreateBatch(ctx, route.Stops); err != nil {
			return err
		}
		if err := repos.Vehicles.UpdateStatus(ctx, vehicle.ID, domain.VehicleStatusOnRoute); err != nil {
			return err
		}
		for _, req := range requests {
			if err := repos.Requests.Assign(ctx, req); err != nil {
				return fmt.Errorf("assign request %s: %w", req.ID, err)
			}
		}
		return nil
	})
	if err != nil {
		if errors.Is(err, ErrNoCapacity) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: commit route: %w", ErrPersistence, err)
	}

	observability.RoutesCommitted.Inc()
	observability.RequestsAssigned.Add(float64(len(requests)))

	requestIDs := make([]string, 0, len(requests))
	for _, req := range requests {
		requestIDs = append(requestIDs, req.ID)
	}
	s.publish(ctx, events.Event{
		Type:       events.TypeRouteAssigned,
		RouteID:    route.ID,
		VehicleID:  route.VehicleID,
		RequestIDs: requestIDs,
		OccurredAt: now,
	})

	return route, nil
}

// buildRoute lays out the stops with ETAs accumulated along the matrix and
// returns copies of the requests carrying their pickup and dropoff ETAs.
func (s *RouteService) buildRoute(plan RoutePlan, now time.Time) (*domain.Route, []*domain.Request) {
	route := &domain.Route{
		ID:        uuid.New().String(),
		VehicleID: plan.VehicleID,
		Status:    domain.RouteStatusInProgress,
		CreatedAt: now,
	}

	// The depot is where the vehicle already is.
	route.Stops = append(route.Stops, &domain.Stop{
		ID:          uuid.New().String(),
		RouteID:     route.ID,
		Kind:        domain.StopKindDepot,
		Location:    s.depot,
		Sequence:    1,
		ETA:         now,
		CompletedAt: now,
	})

	byID := make(map[string]*domain.Request, len(plan.Requests))
	for _, r := range plan.Requests {
		req := *r
		req.Status = domain.RequestStatusAssigned
		byID[r.ID] = &req
	}

	var elapsed time.Duration
	prev := 0
	for i, v := range plan.Visits {
		elapsed += seconds(plan.Durations[prev][v.MatrixIndex])
		prev = v.MatrixIndex
		eta := now.Add(elapsed)

		route.Stops = append(route.Stops, &domain.Stop{
			ID:        uuid.New().String(),
			RouteID:   route.ID,
			RequestID: v.RequestID,
			Kind:      v.Kind,
			Location:  v.Location,
			Sequence:  i + 2,
			ETA:       eta,
		})

		if req, ok := byID[v.RequestID]; ok {
			if v.Kind == domain.StopKindPickup {
				req.PickupETA = eta
			} else {
				req.DropoffETA = eta
			}
		}
	}
	route.TotalDuration = elapsed

	requests := make([]*domain.Request, 0, len(plan.Requests))
	for _, r := range plan.Requests {
		requests = append(requests, byID[r.ID])
	}
	return route, requests
}

// CompleteStop marks a stop visited. A PICKUP moves its request to
// IN_PROGRESS. When it was the last open stop the route, its vehicle and
// every request on it are finished in the same transaction.
// Completing a stop twice is a no-op.
func (s *RouteService) CompleteStop(ctx context.Context, stopID string) (*StopCompletion, error) {
	if stopID == "" {
		return nil, ErrInvalidStopID
	}

	var (
		result   StopCompletion
		marked   bool
		finished bool
		riders   []string
	)

	err := s.txm.WithinTx(ctx, func(ctx context.Context, repos repository.Repositories) error {
		result, marked, finished, riders = StopCompletion{}, false, false, nil

		stop, err := repos.Stops.GetByID(ctx, stopID)
		if err != nil {
			return err
		}

		// Serialize completions on the same route before counting.
		route, err := repos.Routes.LockByID(ctx, stop.RouteID)
		if err != nil {
			return err
		}

		// Re-read under the lock; a concurrent completion may have won.
		stop, err = repos.Stops.GetByID(ctx, stopID)
		if err != nil {
			return err
		}
		result.Stop, result.Route = stop, route

		if stop.Completed() || route.Status == domain.RouteStatusCompleted {
			result.RouteCompleted = route.Status == domain.RouteStatusCompleted
			return nil
		}

		now := s.now()
		changed, err := repos.Stops.MarkCompleted(ctx, stop.ID, now)
		if err != nil {
			return err
		}
		if !changed {
			return nil
		}
		stop.CompletedAt = now
		marked = true

		if stop.Kind == domain.StopKindPickup {
			if err := repos.Requests.UpdateStatus(ctx, stop.RequestID, domain.RequestStatusInProgress); err != nil {
				return err
			}
		}

		total, completed, err := repos.Stops.CountByRoute(ctx, route.ID)
		if err != nil {
			return err
		}
		if completed < total {
			return nil
		}

		if err := repos.Routes.MarkCompleted(ctx, route.ID, now); err != nil {
			return err
		}
		if err := repos.Vehicles.UpdateStatus(ctx, route.VehicleID, domain.VehicleStatusIdle); err != nil {
			return err
		}
		requests, err := repos.Requests.ListByRoute(ctx, route.ID)
		if err != nil {
			return err
		}
		for _, req := range requests {
			if err := repos.Requests.UpdateStatus(ctx, req.ID, domain.RequestStatusCompleted); err != nil {
				return err
			}
			riders = append(riders, req.RiderID)
		}

		route.Status = domain.RouteStatusCompleted
		route.CompletedAt = now
		result.RouteCompleted = true
		finished = true
		return nil
	})
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: complete stop: %w", ErrPersistence, err)
	}

	if marked {
		observability.StopsCompleted.Inc()
	}
	if finished {
		observability.RoutesCompleted.Inc()
		s.logger.WithFields(logrus.Fields{"route": result.Route.ID, "vehicle": result.Route.VehicleID, "riders": len(riders)}).Info("route completed")
		s.publish(ctx, events.Event{
			Type:       events.TypeRouteCompleted,
			RouteID:    result.Route.ID,
			VehicleID:  result.Route.VehicleID,
			OccurredAt: result.Route.CompletedAt,
		})
	}

	return &result, nil
}

// ActiveRoute returns the most recent route of a driver's vehicle with its
// stops in order.
func (s *RouteService) ActiveRoute(ctx context.Context, driverID string) (*domain.Route, error) {
	if driverID == "" {
		return nil, ErrInvalidDriverID
	}

	route, err := s.repos.Routes.GetLatestByVehicleID(ctx, driverID)
	if err != nil {
		return nil, err
	}
	if route == nil {
		return nil, repository.ErrNotFound
	}

	route.Stops, err = s.repos.Stops.ListByRoute(ctx, route.ID)
	if err != nil {
		return nil, err
	}
	return route, nil
}

// ActiveRequest returns the rider's latest ASSIGNED or IN_PROGRESS request
// and the route serving it.
func (s *RouteService) ActiveRequest(ctx context.Context, riderID string) (*RiderTrip, error) {
	if riderID == "" {
		return nil, ErrInvalidRiderID
	}

	req, err := s.repos.Requests.GetActiveByRiderID(ctx, riderID)
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, repository.ErrNotFound
	}

	routeID, err := s.repos.Stops.RouteIDByRequest(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	route, err := s.repos.Routes.GetByID(ctx, routeID)
	if err != nil {
		return nil, err
	}
	route.Stops, err = s.repos.Stops.ListByRoute(ctx, route.ID)
	if err != nil {
		return nil, err
	}

	return &RiderTrip{Request: req, Route: route}, nil
}

func (s *RouteService) publish(ctx context.Context, e events.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WithError(err).WithField("type", e.Type).Warn("event not published")
	}
}

func seconds(v float64) time.Duration {
	return time.Duration(v * float64(time.Second))
}
