package service

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/sirupsen/logrus"

	"ridepool/internal/domain"
	"ridepool/internal/matrix"
	"ridepool/internal/observability"
	"ridepool/internal/redis"
	"ridepool/internal/repository"
)

// TickOutcome summarizes how a dispatch tick ended.
type TickOutcome string

const (
	TickNoOp              TickOutcome = "no_op"
	TickCommitted         TickOutcome = "committed"
	TickNoCapacity        TickOutcome = "no_capacity"
	TickUpstreamFailed    TickOutcome = "upstream_failed"
	TickPersistenceFailed TickOutcome = "persistence_failed"
	TickSkipped           TickOutcome = "skipped"
)

// TickResult describes one dispatch tick.
type TickResult struct {
	Outcome     TickOutcome `json:"outcome"`
	RouteID     string      `json:"route_id,omitempty"`
	VehicleID   string      `json:"vehicle_id,omitempty"`
	Assigned    []string    `json:"assigned,omitempty"`
	Unsequenced []string    `json:"unsequenced,omitempty"`
	Malformed   int         `json:"malformed"`
}

// SchedulerConfig holds the tick cadence and limits.
type SchedulerConfig struct {
	Interval    time.Duration
	TickTimeout time.Duration
	BatchSize   int
	LockTTL     time.Duration
}

// DispatchScheduler batches PENDING requests onto an idle vehicle at a fixed
// interval. Ticks never overlap.
type DispatchScheduler struct {
	requests repository.RequestRepository
	oracle   matrix.Oracle
	selector VehicleSelector
	routes   *RouteService
	notifier *NotificationService
	lock     redis.LockStoreInterface
	nrApp    *newrelic.Application
	depot    domain.Point
	cfg      SchedulerConfig
	logger   logrus.FieldLogger

	running atomic.Bool
}

// NewDispatchScheduler creates a new DispatchScheduler. lock and nrApp may be
// nil; without a lock ticks are only serialized within this process.
func NewDispatchScheduler(
	requests repository.RequestRepository,
	oracle matrix.Oracle,
	selector VehicleSelector,
	routes *RouteService,
	notifier *NotificationService,
	lock redis.LockStoreInterface,
	nrApp *newrelic.Application,
	depot domain.Point,
	cfg SchedulerConfig,
	logger logrus.FieldLogger,
) *DispatchScheduler {
	return &DispatchScheduler{
		requests: requests,
		oracle:   oracle,
		selector: selector,
		routes:   routes,
		notifier: notifier,
		lock:     lock,
		nrApp:    nrApp,
		depot:    depot,
		cfg:      cfg,
		logger:   logger.WithField("component", "scheduler"),
	}
}

// Run ticks every configured interval until ctx is cancelled.
func (s *DispatchScheduler) Run(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	s.logger.WithField("interval", s.cfg.Interval).Info("dispatch scheduler started")
	for {
		select {
		case <-ctx.Done():
			s.logger.Info("dispatch scheduler stopped")
			return
		case <-ticker.C:
			_, _ = s.Tick(ctx)
		}
	}
}

// Tick runs one dispatch cycle. It returns ErrTickInProgress without doing
// anything when another tick holds the guard.
func (s *DispatchScheduler) Tick(ctx context.Context) (*TickResult, error) {
	if !s.running.CompareAndSwap(false, true) {
		return s.skipped("tick already running in this process")
	}
	defer s.running.Store(false)

	start := time.Now()

	if s.nrApp != nil {
		txn := s.nrApp.StartTransaction("dispatch.tick")
		defer txn.End()
		ctx = newrelic.NewContext(ctx, txn)
	}

	ctx, cancel := context.WithTimeout(ctx, s.cfg.TickTimeout)
	defer cancel()

	if s.lock != nil {
		token, err := s.lock.AcquireDispatchLock(ctx, s.cfg.LockTTL)
		if err != nil {
			s.logger.WithError(err).Warn("dispatch lock unavailable")
			return s.skipped("dispatch lock unavailable")
		}
		if token == "" {
			return s.skipped("dispatch lock held by another instance")
		}
		defer func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
			defer cancel()
			if err := s.lock.ReleaseDispatchLock(releaseCtx, token); err != nil {
				s.logger.WithError(err).Warn("failed to release dispatch lock")
			}
		}()
	}

	result, err := s.tick(ctx)

	observability.TicksTotal.WithLabelValues(string(result.Outcome)).Inc()
	observability.TickDuration.Observe(time.Since(start).Seconds())

	log := s.logger.WithFields(logrus.Fields{
		"outcome":  result.Outcome,
		"assigned": len(result.Assigned),
		"duration": time.Since(start),
	})
	switch result.Outcome {
	case TickCommitted:
		log.WithFields(logrus.Fields{"route": result.RouteID, "vehicle": result.VehicleID}).Info("dispatch tick committed")
	case TickNoOp:
		log.Debug("dispatch tick found nothing to do")
	case TickNoCapacity:
		log.Warn("dispatch tick abandoned")
	default:
		newrelic.FromContext(ctx).NoticeError(err)
		log.WithError(err).Error("dispatch tick abandoned")
	}

	return result, err
}

func (s *DispatchScheduler) skipped(reason string) (*TickResult, error) {
	observability.TicksTotal.WithLabelValues(string(TickSkipped)).Inc()
	s.logger.Debug(reason)
	return &TickResult{Outcome: TickSkipped}, ErrTickInProgress
}

func (s *DispatchScheduler) tick(ctx context.Context) (*TickResult, error) {
	result := &TickResult{Outcome: TickNoOp}

	pending, err := s.requests.ListPending(ctx, s.cfg.BatchSize)
	if err != nil {
		result.Outcome = TickPersistenceFailed
		return result, fmt.Errorf("%w: list pending: %w", ErrPersistence, err)
	}

	valid := make([]*domain.Request, 0, len(pending))
	for _, r := range pending {
		if err := r.Validate(); err != nil {
			result.Malformed++
			observability.RequestsSkipped.Inc()
			s.logger.WithFields(logrus.Fields{"request": r.ID, "rider": r.RiderID}).
				WithError(fmt.Errorf("%w: %w", ErrInvalidRequest, err)).Warn("skipping malformed request")
			continue
		}
		valid = append(valid, r)
	}
	if len(valid) == 0 {
		return result, nil
	}

	points := visitPoints(valid)
	coords := make([]domain.Point, 0, len(points)+1)
	coords = append(coords, s.depot)
	for _, p := range points {
		coords = append(coords, p.Location)
	}

	seg := newrelic.FromContext(ctx).StartSegment("matrix")
	durations, err := s.oracle.Matrix(ctx, coords)
	seg.End()
	if err != nil {
		result.Outcome = TickUpstreamFailed
		return result, err
	}

	visits := Sequence(points, durations)
	if missing := Unsequenced(points, visits); len(missing) > 0 {
		visits, valid = dropRequests(visits, valid, missing)
		result.Unsequenced = missing
		observability.RequestsUnplanned.Add(float64(len(missing)))
		s.logger.WithField("requests", missing).Warn("requests left pending, sequencer stopped early")
	}
	if len(visits) == 0 {
		return result, nil
	}

	vehicle, err := s.selector.Select(ctx, s.depot)
	if err != nil {
		if errors.Is(err, ErrNoCapacity) {
			result.Outcome = TickNoCapacity
			return result, err
		}
		result.Outcome = TickPersistenceFailed
		return result, fmt.Errorf("%w: select vehicle: %w", ErrPersistence, err)
	}

	route, err := s.routes.CommitRoute(ctx, RoutePlan{
		VehicleID: vehicle.ID,
		Requests:  valid,
		Visits:    visits,
		Durations: durations,
	})
	if err != nil {
		if errors.Is(err, ErrNoCapacity) {
			result.Outcome = TickNoCapacity
		} else {
			result.Outcome = TickPersistenceFailed
		}
		return result, err
	}

	result.Outcome = TickCommitted
	result.RouteID = route.ID
	result.VehicleID = route.VehicleID
	for _, r := range valid {
		result.Assigned = append(result.Assigned, r.ID)
	}

	s.notifier.NotifyRouteAssigned(ctx, route)
	return result, nil
}

// dropRequests removes the visits and requests of the given ids.
func dropRequests(visits []VisitPoint, requests []*domain.Request, ids []string) ([]VisitPoint, []*domain.Request) {
	drop := make(map[string]bool, len(ids))
	for _, id := range ids {
		drop[id] = true
	}

	keptVisits := visits[:0:0]
	for _, v := range visits {
		if !drop[v.RequestID] {
			keptVisits = append(keptVisits, v)
		}
	}
	keptRequests := requests[:0:0]
	for _, r := range requests {
		if !drop[r.ID] {
			keptRequests = append(keptRequests, r)
		}
	}
	return keptVisits, keptRequests
}
