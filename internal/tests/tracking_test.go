package tests

import (
	"context"
	"testing"

	"ridepool/internal/domain"
	"ridepool/internal/realtime"
	"ridepool/internal/service"
)

// ──────────────────────────────────────────────
// 6. LIVE TRACKING FAN-OUT
// ──────────────────────────────────────────────

func dispatchTwoRiders(t *testing.T, env *testEnv) {
	t.Helper()

	env.addVehicle("van-1", domain.VehicleStatusIdle)
	env.addTwoRiderBatch()
	if _, err := env.scheduler.Tick(context.Background()); err != nil {
		t.Fatalf("tick failed: %v", err)
	}
}

func TestTracking_FansOutToRidersOnRoute(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dispatchTwoRiders(t, env)

	env.connect(realtime.RoleDriver, "van-1", "ch-driver")
	env.connect(realtime.RoleRider, "rider-a", "ch-a")
	env.connect(realtime.RoleRider, "rider-b", "ch-b")
	env.connect(realtime.RoleRider, "rider-x", "ch-x") // not on the route

	p := domain.Point{Lat: 10.781, Lng: 106.701}
	delivered, err := env.tracking.HandleLocation(context.Background(), "ch-driver", p)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered != 2 {
		t.Errorf("expected 2 deliveries, got %d", delivered)
	}

	for _, ch := range []string{"ch-a", "ch-b"} {
		sent := env.sender.SentTo(ch)
		if len(sent) != 1 || sent[0].Event != realtime.EventDriverLocationUpdated {
			t.Fatalf("%s: expected one location frame, got %+v", ch, sent)
		}
		payload := sent[0].Payload.(service.DriverLocationPayload)
		if payload.DriverID != "van-1" || payload.Lat != p.Lat || payload.Lng != p.Lng {
			t.Errorf("%s: unexpected payload %+v", ch, payload)
		}
	}
	if len(env.sender.SentTo("ch-x")) != 0 {
		t.Error("rider not on the route must not receive the location")
	}

	if pos, ok := env.positions.Position("van-1"); !ok || pos.Point != p || pos.SeenAt.IsZero() {
		t.Errorf("vehicle position not recorded: %+v %v", pos, ok)
	}
}

func TestTracking_SkipsDisconnectedRiders(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dispatchTwoRiders(t, env)

	env.connect(realtime.RoleDriver, "van-1", "ch-driver")
	env.connect(realtime.RoleRider, "rider-a", "ch-a")

	delivered, err := env.tracking.HandleLocation(context.Background(), "ch-driver", domain.Point{Lat: 10.78, Lng: 106.70})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if delivered != 1 || len(env.sender.SentTo("ch-a")) != 1 {
		t.Errorf("expected only rider-a to be reached, delivered=%d", delivered)
	}
}

func TestTracking_DropsSilently(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		setup   func(env *testEnv)
		channel string
	}{
		{
			name:    "unknown channel",
			setup:   func(env *testEnv) {},
			channel: "ch-ghost",
		},
		{
			name: "rider channel",
			setup: func(env *testEnv) {
				env.connect(realtime.RoleRider, "rider-a", "ch-a")
			},
			channel: "ch-a",
		},
		{
			name: "driver without route",
			setup: func(env *testEnv) {
				env.addVehicle("van-1", domain.VehicleStatusIdle)
				env.connect(realtime.RoleDriver, "van-1", "ch-driver")
				env.connect(realtime.RoleRider, "rider-a", "ch-a")
			},
			channel: "ch-driver",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			tt.setup(env)

			delivered, err := env.tracking.HandleLocation(context.Background(), tt.channel, domain.Point{Lat: 10.78, Lng: 106.70})
			if err != nil {
				t.Fatalf("expected silent drop, got %v", err)
			}
			if delivered != 0 || len(env.sender.Sent()) != 0 {
				t.Errorf("expected nothing sent, got %d", len(env.sender.Sent()))
			}
		})
	}
}

func TestTracking_CompletedRouteStopsFanOut(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	route := commitSingleRider(t, env)
	for _, st := range route.Stops[1:] {
		if _, err := env.routes.CompleteStop(context.Background(), st.ID); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}

	env.connect(realtime.RoleDriver, "van-1", "ch-driver")
	env.connect(realtime.RoleRider, "rider-a", "ch-a")

	delivered, err := env.tracking.HandleLocation(context.Background(), "ch-driver", domain.Point{Lat: 10.78, Lng: 106.70})
	if err != nil || delivered != 0 {
		t.Errorf("expected no delivery after route completion, got %d %v", delivered, err)
	}
}

func TestTracking_PositionStoreErrorDoesNotBlockFanOut(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dispatchTwoRiders(t, env)
	env.positions.RecordError = ErrMockTimeout

	env.connect(realtime.RoleDriver, "van-1", "ch-driver")
	env.connect(realtime.RoleRider, "rider-a", "ch-a")

	delivered, err := env.tracking.HandleLocation(context.Background(), "ch-driver", domain.Point{Lat: 10.78, Lng: 106.70})
	if err != nil || delivered != 1 {
		t.Errorf("expected 1 delivery, got %d %v", delivered, err)
	}
}

func TestNotification_NewRouteSkippedWhenDriverOffline(t *testing.T) {
	t.Parallel()

	env := newTestEnv(t)
	dispatchTwoRiders(t, env)

	if len(env.sender.Sent()) != 0 {
		t.Error("offline driver must not be sent anything")
	}
	if env.store.CountRoutes() != 1 {
		t.Error("route must be committed even when the driver is offline")
	}
}
