package tests

import (
	"context"
	"errors"
	"math"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"ridepool/internal/domain"
	"ridepool/internal/events"
	"ridepool/internal/matrix"
	"ridepool/internal/realtime"
	"ridepool/internal/redis"
	"ridepool/internal/repository"
)

// ──────────────────────────────────────────────
// MOCK STORE
// ──────────────────────────────────────────────

// MockStore is an in-memory persistence store shared by the mock
// repositories. MockTxManager serializes transactions over it and restores
// a snapshot when a transaction fails.
type MockStore struct {
	mu   sync.RWMutex
	txMu sync.Mutex

	requests     map[string]*domain.Request
	requestOrder []string
	vehicles     map[string]*domain.Vehicle
	vehicleOrder []string
	routes       map[string]*domain.Route
	routeOrder   []string
	stops        map[string]*domain.Stop

	// Error injection
	ListPendingError         error
	AssignError              error
	CreateStopsError         error
	UpdateVehicleStatusError error
	MarkRouteCompletedError  error
}

// NewMockStore creates an empty store.
func NewMockStore() *MockStore {
	return &MockStore{
		requests: make(map[string]*domain.Request),
		vehicles: make(map[string]*domain.Vehicle),
		routes:   make(map[string]*domain.Route),
		stops:    make(map[string]*domain.Stop),
	}
}

// Repositories returns repositories reading and writing this store.
func (s *MockStore) Repositories() repository.Repositories {
	return repository.Repositories{
		Requests: &MockRequestRepository{s: s},
		Vehicles: &MockVehicleRepository{s: s},
		Routes:   &MockRouteRepository{s: s},
		Stops:    &MockStopRepository{s: s},
	}
}

// AddRequest adds a request to the store.
func (s *MockStore) AddRequest(req *domain.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *req
	if _, ok := s.requests[req.ID]; !ok {
		s.requestOrder = append(s.requestOrder, req.ID)
	}
	s.requests[req.ID] = &cp
}

// AddVehicle adds a vehicle to the store.
func (s *MockStore) AddVehicle(v *domain.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := *v
	if _, ok := s.vehicles[v.ID]; !ok {
		s.vehicleOrder = append(s.vehicleOrder, v.ID)
	}
	s.vehicles[v.ID] = &cp
}

// Request returns a copy of a request for assertions.
func (s *MockStore) Request(id string) *domain.Request {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.requests[id]
	if !ok {
		return nil
	}
	cp := *r
	return &cp
}

// Vehicle returns a copy of a vehicle for assertions.
func (s *MockStore) Vehicle(id string) *domain.Vehicle {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return nil
	}
	cp := *v
	return &cp
}

// Route returns a copy of a route with its stops for assertions.
func (s *MockStore) Route(id string) *domain.Route {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.routes[id]
	if !ok {
		return nil
	}
	cp := *r
	cp.Stops = s.stopsOf(id)
	return &cp
}

// CountRoutes returns the number of routes.
func (s *MockStore) CountRoutes() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.routes)
}

// CountStops returns the number of stops.
func (s *MockStore) CountStops() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.stops)
}

// stopsOf returns copies of a route's stops by sequence. Caller holds mu.
func (s *MockStore) stopsOf(routeID string) []*domain.Stop {
	var out []*domain.Stop
	for _, st := range s.stops {
		if st.RouteID == routeID {
			cp := *st
			out = append(out, &cp)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out
}

type storeSnapshot struct {
	requests     map[string]domain.Request
	requestOrder []string
	vehicles     map[string]domain.Vehicle
	vehicleOrder []string
	routes       map[string]domain.Route
	routeOrder   []string
	stops        map[string]domain.Stop
}

func (s *MockStore) snapshot() storeSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := storeSnapshot{
		requests:     make(map[string]domain.Request, len(s.requests)),
		requestOrder: append([]string(nil), s.requestOrder...),
		vehicles:     make(map[string]domain.Vehicle, len(s.vehicles)),
		vehicleOrder: append([]string(nil), s.vehicleOrder...),
		routes:       make(map[string]domain.Route, len(s.routes)),
		routeOrder:   append([]string(nil), s.routeOrder...),
		stops:        make(map[string]domain.Stop, len(s.stops)),
	}
	for k, v := range s.requests {
		snap.requests[k] = *v
	}
	for k, v := range s.vehicles {
		snap.vehicles[k] = *v
	}
	for k, v := range s.routes {
		snap.routes[k] = *v
	}
	for k, v := range s.stops {
		snap.stops[k] = *v
	}
	return snap
}

func (s *MockStore) restore(snap storeSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.requests = make(map[string]*domain.Request, len(snap.requests))
	for k, v := range snap.requests {
		v := v
		s.requests[k] = &v
	}
	s.vehicles = make(map[string]*domain.Vehicle, len(snap.vehicles))
	for k, v := range snap.vehicles {
		v := v
		s.vehicles[k] = &v
	}
	s.routes = make(map[string]*domain.Route, len(snap.routes))
	for k, v := range snap.routes {
		v := v
		s.routes[k] = &v
	}
	s.stops = make(map[string]*domain.Stop, len(snap.stops))
	for k, v := range snap.stops {
		v := v
		s.stops[k] = &v
	}
	s.requestOrder = snap.requestOrder
	s.vehicleOrder = snap.vehicleOrder
	s.routeOrder = snap.routeOrder
}

// ──────────────────────────────────────────────
// MOCK TX MANAGER
// ──────────────────────────────────────────────

// MockTxManager runs transactions one at a time over a MockStore.
type MockTxManager struct {
	store *MockStore

	// Counters
	TxCount       int32
	RollbackCount int32

	// Error injection
	BeginError error
}

// NewMockTxManager creates a new mock transaction manager.
func NewMockTxManager(store *MockStore) *MockTxManager {
	return &MockTxManager{store: store}
}

func (m *MockTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	if m.BeginError != nil {
		return m.BeginError
	}

	m.store.txMu.Lock()
	defer m.store.txMu.Unlock()
	atomic.AddInt32(&m.TxCount, 1)

	snap := m.store.snapshot()
	if err := fn(ctx, m.store.Repositories()); err != nil {
		m.store.restore(snap)
		atomic.AddInt32(&m.RollbackCount, 1)
		return err
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK REQUEST REPOSITORY
// ──────────────────────────────────────────────

// MockRequestRepository is a mock implementation of RequestRepository.
type MockRequestRepository struct {
	s *MockStore
}

func (m *MockRequestRepository) Create(ctx context.Context, req *domain.Request) error {
	m.s.AddRequest(req)
	return nil
}

func (m *MockRequestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	if r := m.s.Request(id); r != nil {
		return r, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockRequestRepository) ListPending(ctx context.Context, limit int) ([]*domain.Request, error) {
	if m.s.ListPendingError != nil {
		return nil, m.s.ListPendingError
	}
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []*domain.Request
	for _, id := range m.s.requestOrder {
		r := m.s.requests[id]
		if r.Status != domain.RequestStatusPending {
			continue
		}
		cp := *r
		out = append(out, &cp)
		if limit > 0 && len(out) == limit {
			break
		}
	}
	return out, nil
}

func (m *MockRequestRepository) ListByRoute(ctx context.Context, routeID string) ([]*domain.Request, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []*domain.Request
	for _, st := range m.s.stopsOf(routeID) {
		if st.RequestID == "" || seen[st.RequestID] {
			continue
		}
		seen[st.RequestID] = true
		if r, ok := m.s.requests[st.RequestID]; ok {
			cp := *r
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockRequestRepository) GetActiveByRiderID(ctx context.Context, riderID string) (*domain.Request, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var latest *domain.Request
	for _, id := range m.s.requestOrder {
		r := m.s.requests[id]
		if r.RiderID != riderID {
			continue
		}
		if r.Status == domain.RequestStatusAssigned || r.Status == domain.RequestStatusInProgress {
			cp := *r
			latest = &cp
		}
	}
	return latest, nil
}

func (m *MockRequestRepository) Assign(ctx context.Context, req *domain.Request) error {
	if m.s.AssignError != nil {
		return m.s.AssignError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	r, ok := m.s.requests[req.ID]
	if !ok || r.Status != domain.RequestStatusPending {
		return repository.ErrConflict
	}
	r.Status = domain.RequestStatusAssigned
	r.PickupETA = req.PickupETA
	r.DropoffETA = req.DropoffETA
	return nil
}

func (m *MockRequestRepository) UpdateStatus(ctx context.Context, id string, status domain.RequestStatus) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	r, ok := m.s.requests[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK VEHICLE REPOSITORY
// ──────────────────────────────────────────────

// MockVehicleRepository is a mock implementation of VehicleRepository.
type MockVehicleRepository struct {
	s *MockStore
}

func (m *MockVehicleRepository) Create(ctx context.Context, v *domain.Vehicle) error {
	m.s.AddVehicle(v)
	return nil
}

func (m *MockVehicleRepository) GetByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	if v := m.s.Vehicle(id); v != nil {
		return v, nil
	}
	return nil, repository.ErrNotFound
}

func (m *MockVehicleRepository) ListIdle(ctx context.Context) ([]*domain.Vehicle, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var out []*domain.Vehicle
	for _, id := range m.s.vehicleOrder {
		v := m.s.vehicles[id]
		if v.Status == domain.VehicleStatusIdle {
			cp := *v
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (m *MockVehicleRepository) LockByID(ctx context.Context, id string) (*domain.Vehicle, error) {
	return m.GetByID(ctx, id)
}

func (m *MockVehicleRepository) UpdateStatus(ctx context.Context, id string, status domain.VehicleStatus) error {
	if m.s.UpdateVehicleStatusError != nil {
		return m.s.UpdateVehicleStatusError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	v, ok := m.s.vehicles[id]
	if !ok {
		return repository.ErrNotFound
	}
	v.Status = status
	return nil
}

// ──────────────────────────────────────────────
// MOCK ROUTE REPOSITORY
// ──────────────────────────────────────────────

// MockRouteRepository is a mock implementation of RouteRepository.
type MockRouteRepository struct {
	s *MockStore
}

func (m *MockRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	cp := *route
	cp.Stops = nil
	m.s.routes[route.ID] = &cp
	m.s.routeOrder = append(m.s.routeOrder, route.ID)
	return nil
}

func (m *MockRouteRepository) GetByID(ctx context.Context, id string) (*domain.Route, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	r, ok := m.s.routes[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

func (m *MockRouteRepository) LockByID(ctx context.Context, id string) (*domain.Route, error) {
	return m.GetByID(ctx, id)
}

func (m *MockRouteRepository) GetLatestByVehicleID(ctx context.Context, vehicleID string) (*domain.Route, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for i := len(m.s.routeOrder) - 1; i >= 0; i-- {
		r := m.s.routes[m.s.routeOrder[i]]
		if r.VehicleID == vehicleID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, nil
}

func (m *MockRouteRepository) MarkCompleted(ctx context.Context, id string, at time.Time) error {
	if m.s.MarkRouteCompletedError != nil {
		return m.s.MarkRouteCompletedError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	r, ok := m.s.routes[id]
	if !ok {
		return repository.ErrNotFound
	}
	r.Status = domain.RouteStatusCompleted
	r.CompletedAt = at
	return nil
}

// ──────────────────────────────────────────────
// MOCK STOP REPOSITORY
// ──────────────────────────────────────────────

// MockStopRepository is a mock implementation of StopRepository.
type MockStopRepository struct {
	s *MockStore
}

func (m *MockStopRepository) CreateBatch(ctx context.Context, stops []*domain.Stop) error {
	if m.s.CreateStopsError != nil {
		return m.s.CreateStopsError
	}
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	for _, st := range stops {
		for _, existing := range m.s.stops {
			if existing.RouteID == st.RouteID && existing.Sequence == st.Sequence {
				return ErrMockDBConstraint
			}
		}
		cp := *st
		m.s.stops[st.ID] = &cp
	}
	return nil
}

func (m *MockStopRepository) GetByID(ctx context.Context, id string) (*domain.Stop, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	st, ok := m.s.stops[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *st
	return &cp, nil
}

func (m *MockStopRepository) ListByRoute(ctx context.Context, routeID string) ([]*domain.Stop, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()
	return m.s.stopsOf(routeID), nil
}

func (m *MockStopRepository) MarkCompleted(ctx context.Context, id string, at time.Time) (bool, error) {
	m.s.mu.Lock()
	defer m.s.mu.Unlock()

	st, ok := m.s.stops[id]
	if !ok || st.Completed() {
		return false, nil
	}
	st.CompletedAt = at
	return true, nil
}

func (m *MockStopRepository) CountByRoute(ctx context.Context, routeID string) (int, int, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	var total, completed int
	for _, st := range m.s.stops {
		if st.RouteID != routeID {
			continue
		}
		total++
		if st.Completed() {
			completed++
		}
	}
	return total, completed, nil
}

func (m *MockStopRepository) RouteIDByRequest(ctx context.Context, requestID string) (string, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	for i := len(m.s.routeOrder) - 1; i >= 0; i-- {
		routeID := m.s.routeOrder[i]
		for _, st := range m.s.stops {
			if st.RouteID == routeID && st.RequestID == requestID {
				return routeID, nil
			}
		}
	}
	return "", repository.ErrNotFound
}

func (m *MockStopRepository) RiderIDsByRoute(ctx context.Context, routeID string) ([]string, error) {
	m.s.mu.RLock()
	defer m.s.mu.RUnlock()

	seen := make(map[string]bool)
	var out []string
	for _, st := range m.s.stops {
		if st.RouteID != routeID || !st.Kind.HasRequest() {
			continue
		}
		r, ok := m.s.requests[st.RequestID]
		if !ok || seen[r.RiderID] {
			continue
		}
		seen[r.RiderID] = true
		out = append(out, r.RiderID)
	}
	sort.Strings(out)
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK DURATION ORACLE
// ──────────────────────────────────────────────

// MockOracle returns a fixed matrix, or one derived from point distances
// when Durations is nil.
type MockOracle struct {
	mu        sync.Mutex
	Durations [][]float64

	// Counters
	CallCount int32

	// Error injection
	Err error

	// MaxPoints, when set, rejects larger point lists like a routing
	// engine's table size limit.
	MaxPoints int

	// Block, when set, is waited on before answering.
	Block chan struct{}
}

func (m *MockOracle) Matrix(ctx context.Context, points []domain.Point) ([][]float64, error) {
	atomic.AddInt32(&m.CallCount, 1)
	if m.Block != nil {
		select {
		case <-m.Block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if m.Err != nil {
		return nil, m.Err
	}
	if m.MaxPoints > 0 && len(points) > m.MaxPoints {
		return nil, matrix.ErrUpstreamRejected
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Durations != nil {
		return m.Durations, nil
	}

	out := make([][]float64, len(points))
	for i := range points {
		out[i] = make([]float64, len(points))
		for j := range points {
			dLat := points[i].Lat - points[j].Lat
			dLng := points[i].Lng - points[j].Lng
			// Roughly one minute per kilometre.
			out[i][j] = math.Round(math.Sqrt(dLat*dLat+dLng*dLng) * 111 * 60)
		}
	}
	return out, nil
}

// ──────────────────────────────────────────────
// MOCK REALTIME SENDER
// ──────────────────────────────────────────────

// SentMessage is a frame recorded by MockSender.
type SentMessage struct {
	ChannelID string
	Event     string
	Payload   any
}

// MockSender records every frame it is asked to deliver.
type MockSender struct {
	mu   sync.Mutex
	sent []SentMessage

	// Error injection
	SendError error
}

// NewMockSender creates a new mock sender.
func NewMockSender() *MockSender {
	return &MockSender{}
}

func (m *MockSender) Send(channelID, event string, payload any) error {
	if m.SendError != nil {
		return m.SendError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, SentMessage{ChannelID: channelID, Event: event, Payload: payload})
	return nil
}

// Sent returns the recorded frames.
func (m *MockSender) Sent() []SentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]SentMessage(nil), m.sent...)
}

// SentTo returns the frames delivered to channelID.
func (m *MockSender) SentTo(channelID string) []SentMessage {
	var out []SentMessage
	for _, msg := range m.Sent() {
		if msg.ChannelID == channelID {
			out = append(out, msg)
		}
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK EVENT PUBLISHER
// ──────────────────────────────────────────────

// MockPublisher records published domain events.
type MockPublisher struct {
	mu     sync.Mutex
	events []events.Event

	// Error injection
	PublishError error
}

// NewMockPublisher creates a new mock publisher.
func NewMockPublisher() *MockPublisher {
	return &MockPublisher{}
}

func (m *MockPublisher) Publish(ctx context.Context, e events.Event) error {
	if m.PublishError != nil {
		return m.PublishError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, e)
	return nil
}

func (m *MockPublisher) Close() error { return nil }

// Events returns the recorded events of the given type.
func (m *MockPublisher) Events(eventType string) []events.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []events.Event
	for _, e := range m.events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// ──────────────────────────────────────────────
// MOCK POSITION STORE
// ──────────────────────────────────────────────

// MockPositionStore is a mock implementation of PositionStore.
type MockPositionStore struct {
	mu        sync.RWMutex
	positions map[string]redis.VehiclePosition

	// Counters
	RecordCallCount int32

	// Error injection
	RecordError error
	NearbyError error
}

// NewMockPositionStore creates a new mock position store.
func NewMockPositionStore() *MockPositionStore {
	return &MockPositionStore{
		positions: make(map[string]redis.VehiclePosition),
	}
}

func (m *MockPositionStore) RecordPosition(ctx context.Context, vehicleID string, p domain.Point, at time.Time) error {
	atomic.AddInt32(&m.RecordCallCount, 1)
	if m.RecordError != nil {
		return m.RecordError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.positions[vehicleID] = redis.VehiclePosition{VehicleID: vehicleID, Point: p, SeenAt: at}
	return nil
}

// NearbyVehicles returns every stored vehicle within radiusKm, nearest first.
func (m *MockPositionStore) NearbyVehicles(ctx context.Context, center domain.Point, radiusKm float64) ([]redis.VehiclePosition, error) {
	if m.NearbyError != nil {
		return nil, m.NearbyError
	}
	m.mu.RLock()
	defer m.mu.RUnlock()

	dist := func(v redis.VehiclePosition) float64 {
		dLat, dLng := v.Point.Lat-center.Lat, v.Point.Lng-center.Lng
		return math.Sqrt(dLat*dLat+dLng*dLng) * 111
	}

	var out []redis.VehiclePosition
	for _, v := range m.positions {
		if dist(v) <= radiusKm {
			out = append(out, v)
		}
	}
	sort.Slice(out, func(i, j int) bool { return dist(out[i]) < dist(out[j]) })
	return out, nil
}

// Position returns a stored position for assertions.
func (m *MockPositionStore) Position(vehicleID string) (redis.VehiclePosition, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.positions[vehicleID]
	return v, ok
}

// ──────────────────────────────────────────────
// MOCK LOCK STORE
// ──────────────────────────────────────────────

// MockLockStore is a mock implementation of LockStore.
type MockLockStore struct {
	mu     sync.Mutex
	token  string
	expiry time.Time
	seq    int

	// Counters
	AcquireCallCount int32
	ReleaseCallCount int32

	// Error injection
	AcquireError error
}

// NewMockLockStore creates a new mock lock store.
func NewMockLockStore() *MockLockStore {
	return &MockLockStore{}
}

func (m *MockLockStore) AcquireDispatchLock(ctx context.Context, ttl time.Duration) (string, error) {
	atomic.AddInt32(&m.AcquireCallCount, 1)
	if m.AcquireError != nil {
		return "", m.AcquireError
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiry) {
		return "", nil // Lock still held.
	}
	m.seq++
	m.token = "token-" + strconv.Itoa(m.seq)
	m.expiry = time.Now().Add(ttl)
	return m.token, nil
}

func (m *MockLockStore) ReleaseDispatchLock(ctx context.Context, token string) error {
	atomic.AddInt32(&m.ReleaseCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	if token == m.token {
		m.token = ""
	}
	return nil
}

// HoldByOther simulates another instance holding the lock.
func (m *MockLockStore) HoldByOther(ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.token = "other-instance"
	m.expiry = time.Now().Add(ttl)
}

// IsLocked reports whether the lock is currently held.
func (m *MockLockStore) IsLocked() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token != "" && time.Now().Before(m.expiry)
}

// ──────────────────────────────────────────────
// HELPER ERRORS
// ──────────────────────────────────────────────

var (
	ErrMockDBConstraint = errors.New("mock: unique constraint violation")
	ErrMockTimeout      = errors.New("mock: operation timeout")
)

// Ensure mocks implement interfaces.
var (
	_ repository.TxManager         = (*MockTxManager)(nil)
	_ repository.RequestRepository = (*MockRequestRepository)(nil)
	_ repository.VehicleRepository = (*MockVehicleRepository)(nil)
	_ repository.RouteRepository   = (*MockRouteRepository)(nil)
	_ repository.StopRepository    = (*MockStopRepository)(nil)
	_ redis.PositionStoreInterface = (*MockPositionStore)(nil)
	_ redis.LockStoreInterface     = (*MockLockStore)(nil)
	_ events.Publisher             = (*MockPublisher)(nil)
	_ realtime.Sender              = (*MockSender)(nil)
)
