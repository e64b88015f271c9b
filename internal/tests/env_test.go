package tests

import (
	"testing"
	"time"

	"ridepool/internal/domain"
	"ridepool/internal/logging"
	"ridepool/internal/realtime"
	"ridepool/internal/redis"
	"ridepool/internal/service"
)

var testDepot = domain.Point{Lat: 10.7769, Lng: 106.7009}

// testEnv wires the dispatch services over in-memory fakes.
type testEnv struct {
	store     *MockStore
	txm       *MockTxManager
	oracle    *MockOracle
	registry  *realtime.Registry
	sender    *MockSender
	publisher *MockPublisher
	positions *MockPositionStore
	lock      *MockLockStore

	requests  *service.RequestService
	routes    *service.RouteService
	notifier  *service.NotificationService
	tracking  *service.TrackingService
	scheduler *service.DispatchScheduler
}

func newTestEnv(t *testing.T) *testEnv {
	return buildTestEnv(t, false)
}

func newTestEnvWithLock(t *testing.T) *testEnv {
	return buildTestEnv(t, true)
}

func buildTestEnv(t *testing.T, withLock bool) *testEnv {
	t.Helper()

	logger := logging.Discard()
	env := &testEnv{
		store:     NewMockStore(),
		oracle:    &MockOracle{},
		registry:  realtime.NewRegistry(),
		sender:    NewMockSender(),
		publisher: NewMockPublisher(),
		positions: NewMockPositionStore(),
	}
	env.txm = NewMockTxManager(env.store)
	repos := env.store.Repositories()

	var lock redis.LockStoreInterface
	if withLock {
		env.lock = NewMockLockStore()
		lock = env.lock
	}

	env.requests = service.NewRequestService(repos.Requests)
	env.routes = service.NewRouteService(env.txm, repos, testDepot, env.publisher, logger)
	env.notifier = service.NewNotificationService(env.registry, env.sender, logger)
	env.tracking = service.NewTrackingService(env.registry, repos.Routes, repos.Stops, env.positions, env.notifier, logger)
	env.scheduler = service.NewDispatchScheduler(
		repos.Requests,
		env.oracle,
		service.NewFirstIdleSelector(repos.Vehicles),
		env.routes,
		env.notifier,
		lock,
		nil,
		testDepot,
		service.SchedulerConfig{
			Interval:    time.Hour,
			TickTimeout: 5 * time.Second,
			BatchSize:   50,
			LockTTL:     time.Minute,
		},
		logger,
	)
	return env
}

func (e *testEnv) addVehicle(id string, status domain.VehicleStatus) {
	e.store.AddVehicle(&domain.Vehicle{ID: id, Name: "Van " + id, Status: status})
}

func (e *testEnv) addPending(id, riderID string, pickup, dropoff domain.Point) {
	e.store.AddRequest(&domain.Request{
		ID:        id,
		RiderID:   riderID,
		Pickup:    pickup,
		Dropoff:   dropoff,
		Status:    domain.RequestStatusPending,
		CreatedAt: time.Now(),
	})
}

// addTwoRiderBatch seeds requests A and B with the two-rider matrix.
func (e *testEnv) addTwoRiderBatch() {
	e.addPending("A", "rider-a", domain.Point{Lat: 10.78, Lng: 106.70}, domain.Point{Lat: 10.80, Lng: 106.72})
	e.addPending("B", "rider-b", domain.Point{Lat: 10.77, Lng: 106.69}, domain.Point{Lat: 10.79, Lng: 106.73})
	e.oracle.Durations = twoRiderMatrix
}

func (e *testEnv) connect(role realtime.Role, id, channelID string) {
	e.registry.Register(realtime.Identity{Role: role, ID: id}, channelID)
}
