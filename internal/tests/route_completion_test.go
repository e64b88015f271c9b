package tests

import (
	"context"
	"errors"
	"sync"
	"testing"

	"ridepool/internal/domain"
	"ridepool/internal/events"
	"ridepool/internal/repository"
	"ridepool/internal/service"
)

// ──────────────────────────────────────────────
// 4. STOP COMPLETION AND ROUTE CASCADE
// ──────────────────────────────────────────────

// commitSingleRider commits a DEPOT, PICKUP, DROPOFF route for request A.
func commitSingleRider(t *testing.T, env *testEnv) *domain.Route {
	t.Helper()

	env.addVehicle("van-1", domain.VehicleStatusIdle)
	env.addTwoRiderBatch()

	route, err := env.routes.CommitRoute(context.Background(), service.RoutePlan{
		VehicleID: "van-1",
		Requests:  []*domain.Request{env.store.Request("A")},
		Visits: []service.VisitPoint{
			{RequestID: "A", Kind: domain.StopKindPickup, MatrixIndex: 1},
			{RequestID: "A", Kind: domain.StopKindDropoff, MatrixIndex: 2},
		},
		Durations: twoRiderMatrix,
	})
	if err != nil {
		t.Fatalf("commit failed: %v", err)
	}
	if len(route.Stops) != 3 {
		t.Fatalf("expected 3 stops, got %d", len(route.Stops))
	}
	return route
}

func TestCompleteStop_RouteCompletionCascade(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	route := commitSingleRider(t, env)
	pickup, dropoff := route.Stops[1], route.Stops[2]

	res, err := env.routes.CompleteStop(context.Background(), pickup.ID)
	if err != nil {
		t.Fatalf("complete pickup: %v", err)
	}
	if res.RouteCompleted {
		t.Error("route should not be completed after pickup")
	}
	if r := env.store.Route(route.ID); r.Status != domain.RouteStatusInProgress {
		t.Errorf("expected route IN_PROGRESS, got %s", r.Status)
	}
	if r := env.store.Request("A"); r.Status != domain.RequestStatusInProgress {
		t.Errorf("expected request IN_PROGRESS, got %s", r.Status)
	}

	res, err = env.routes.CompleteStop(context.Background(), dropoff.ID)
	if err != nil {
		t.Fatalf("complete dropoff: %v", err)
	}
	if !res.RouteCompleted {
		t.Error("route should be completed after the last stop")
	}

	r := env.store.Route(route.ID)
	if r.Status != domain.RouteStatusCompleted || r.CompletedAt.IsZero() {
		t.Errorf("expected route COMPLETED with timestamp, got %s %v", r.Status, r.CompletedAt)
	}
	if v := env.store.Vehicle("van-1"); v.Status != domain.VehicleStatusIdle {
		t.Errorf("expected vehicle IDLE, got %s", v.Status)
	}
	if req := env.store.Request("A"); req.Status != domain.RequestStatusCompleted {
		t.Errorf("expected request COMPLETED, got %s", req.Status)
	}

	completed := env.publisher.Events(events.TypeRouteCompleted)
	if len(completed) != 1 || completed[0].RouteID != route.ID {
		t.Errorf("expected one route.completed event, got %+v", completed)
	}
}

func TestCompleteStop_DropoffAloneDoesNotCompleteRequest(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	route := commitSingleRider(t, env)

	res, err := env.routes.CompleteStop(context.Background(), route.Stops[2].ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.RouteCompleted {
		t.Error("pickup still open, route must not complete")
	}
	if r := env.store.Request("A"); r.Status != domain.RequestStatusAssigned {
		t.Errorf("expected request to stay ASSIGNED, got %s", r.Status)
	}
}

func TestCompleteStop_IsIdempotent(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	route := commitSingleRider(t, env)
	pickup, dropoff := route.Stops[1], route.Stops[2]
	ctx := context.Background()

	first, err := env.routes.CompleteStop(ctx, pickup.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := env.routes.CompleteStop(ctx, pickup.ID)
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if !second.Stop.CompletedAt.Equal(first.Stop.CompletedAt) {
		t.Error("repeat completion must not move the completion time")
	}
	if r := env.store.Request("A"); r.Status != domain.RequestStatusInProgress {
		t.Errorf("expected request IN_PROGRESS, got %s", r.Status)
	}

	if _, err := env.routes.CompleteStop(ctx, dropoff.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := env.store.Route(route.ID)

	again, err := env.routes.CompleteStop(ctx, dropoff.ID)
	if err != nil {
		t.Fatalf("unexpected error on repeat: %v", err)
	}
	if !again.RouteCompleted {
		t.Error("repeat on a completed route should report it completed")
	}

	// The vehicle may already be on a new route; a repeat must not touch it.
	env.store.AddVehicle(&domain.Vehicle{ID: "van-1", Status: domain.VehicleStatusOnRoute})
	if _, err := env.routes.CompleteStop(ctx, pickup.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v := env.store.Vehicle("van-1"); v.Status != domain.VehicleStatusOnRoute {
		t.Errorf("repeat completion changed vehicle to %s", v.Status)
	}

	after := env.store.Route(route.ID)
	if !after.CompletedAt.Equal(before.CompletedAt) || after.Status != before.Status {
		t.Error("repeat completion changed the route")
	}
	if r := env.store.Request("A"); r.Status != domain.RequestStatusCompleted {
		t.Errorf("expected request COMPLETED, got %s", r.Status)
	}
	if n := len(env.publisher.Events(events.TypeRouteCompleted)); n != 1 {
		t.Errorf("expected exactly one route.completed event, got %d", n)
	}
}

func TestCompleteStop_UnknownStop(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)

	if _, err := env.routes.CompleteStop(context.Background(), "missing"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := env.routes.CompleteStop(context.Background(), ""); !errors.Is(err, service.ErrInvalidStopID) {
		t.Errorf("expected ErrInvalidStopID, got %v", err)
	}
}

func TestCompleteStop_CascadeFailureRollsBack(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	route := commitSingleRider(t, env)
	ctx := context.Background()

	if _, err := env.routes.CompleteStop(ctx, route.Stops[1].ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	env.store.MarkRouteCompletedError = ErrMockTimeout
	if _, err := env.routes.CompleteStop(ctx, route.Stops[2].ID); !errors.Is(err, service.ErrPersistence) {
		t.Fatalf("expected ErrPersistence, got %v", err)
	}

	r := env.store.Route(route.ID)
	if r.Status != domain.RouteStatusInProgress {
		t.Errorf("expected route IN_PROGRESS after rollback, got %s", r.Status)
	}
	if r.Stops[2].Completed() {
		t.Error("dropoff completion should be rolled back with the cascade")
	}

	// Retrying once the store recovers finishes the route.
	env.store.MarkRouteCompletedError = nil
	res, err := env.routes.CompleteStop(ctx, route.Stops[2].ID)
	if err != nil || !res.RouteCompleted {
		t.Fatalf("retry should complete the route: %+v %v", res, err)
	}
}

func TestCompleteStop_ConcurrentLastStops_CompleteRouteOnce(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	env.addVehicle("van-1", domain.VehicleStatusIdle)
	env.addTwoRiderBatch()

	result, err := env.scheduler.Tick(context.Background())
	if err != nil {
		t.Fatalf("tick failed: %v", err)
	}
	route := env.store.Route(result.RouteID)

	var open []string
	for _, st := range route.Stops {
		if !st.Completed() {
			open = append(open, st.ID)
		}
	}

	var wg sync.WaitGroup
	completions := make(chan bool, len(open))
	for _, id := range open {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			res, err := env.routes.CompleteStop(context.Background(), id)
			if err != nil {
				t.Errorf("complete %s: %v", id, err)
				return
			}
			completions <- res.RouteCompleted
		}(id)
	}
	wg.Wait()
	close(completions)

	if r := env.store.Route(route.ID); r.Status != domain.RouteStatusCompleted {
		t.Errorf("expected route COMPLETED, got %s", r.Status)
	}
	if n := len(env.publisher.Events(events.TypeRouteCompleted)); n != 1 {
		t.Errorf("expected exactly one route.completed event, got %d", n)
	}
	for _, id := range []string{"A", "B"} {
		if r := env.store.Request(id); r.Status != domain.RequestStatusCompleted {
			t.Errorf("request %s: expected COMPLETED, got %s", id, r.Status)
		}
	}
}

// ──────────────────────────────────────────────
// 5. ACTIVE ROUTE AND REQUEST VIEWS
// ──────────────────────────────────────────────

func TestActiveRoute_ReturnsLatestRouteWithStops(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	route := commitSingleRider(t, env)

	got, err := env.routes.ActiveRoute(context.Background(), "van-1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.ID != route.ID || len(got.Stops) != 3 {
		t.Errorf("unexpected route %+v", got)
	}
	for i, st := range got.Stops {
		if st.Sequence != i+1 {
			t.Errorf("stops out of order at %d: seq %d", i, st.Sequence)
		}
	}

	if _, err := env.routes.ActiveRoute(context.Background(), "van-9"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestActiveRequest_ReturnsRequestAndRoute(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	route := commitSingleRider(t, env)

	trip, err := env.routes.ActiveRequest(context.Background(), "rider-a")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if trip.Request.ID != "A" || trip.Route.ID != route.ID || len(trip.Route.Stops) != 3 {
		t.Errorf("unexpected trip %+v", trip)
	}

	// Rider B is still PENDING.
	if _, err := env.routes.ActiveRequest(context.Background(), "rider-b"); !errors.Is(err, repository.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
