package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"ridepool/internal/domain"
	"ridepool/internal/observability"
)

// Event names exchanged with clients.
const (
	EventNewRoute              = "new_route"
	EventDriverLocationUpdated = "driver_location_updated"
	EventUpdateLocation        = "update_location"
)

const writeWait = 5 * time.Second

// ErrNoChannel is returned when sending to a channel that is not connected.
var ErrNoChannel = errors.New("realtime: channel not connected")

// Sender delivers an event to a single connected channel.
type Sender interface {
	Send(channelID, event string, payload any) error
}

// LocationFunc receives a location frame together with the channel it came on.
type LocationFunc func(ctx context.Context, channelID string, p domain.Point)

// Message is the envelope of every frame in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

type outbound struct {
	Event string `json:"event"`
	Data  any    `json:"data"`
}

type session struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

func (s *session) write(v any) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_ = s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteJSON(v)
}

// Gateway owns the websocket connections and routes frames between clients
// and the rest of the service.
type Gateway struct {
	registry *Registry
	upgrader websocket.Upgrader
	logger   logrus.FieldLogger

	mu       sync.RWMutex
	sessions map[string]*session

	onLocation   LocationFunc
	frameTimeout time.Duration
}

// NewGateway creates a Gateway backed by registry. Each inbound frame is
// handled under frameTimeout; zero leaves it unbounded.
func NewGateway(registry *Registry, frameTimeout time.Duration, logger logrus.FieldLogger) *Gateway {
	return &Gateway{
		registry: registry,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		logger:       logger.WithField("component", "realtime"),
		sessions:     make(map[string]*session),
		frameTimeout: frameTimeout,
	}
}

// OnDriverLocation sets the callback for update_location frames. It must be
// called before the gateway starts serving.
func (g *Gateway) OnDriverLocation(fn LocationFunc) {
	g.onLocation = fn
}

// Send writes an event frame to channelID.
func (g *Gateway) Send(channelID, event string, payload any) error {
	g.mu.RLock()
	s, ok := g.sessions[channelID]
	g.mu.RUnlock()
	if !ok {
		observability.RealtimeMessages.WithLabelValues(event, "no_channel").Inc()
		return ErrNoChannel
	}

	if err := s.write(outbound{Event: event, Data: payload}); err != nil {
		observability.RealtimeMessages.WithLabelValues(event, "error").Inc()
		return err
	}
	observability.RealtimeMessages.WithLabelValues(event, "sent").Inc()
	return nil
}

// ServeHTTP upgrades the request and runs the connection until it closes.
// The identity claim comes from the driverId or userId query parameter;
// connections without one are rejected.
func (g *Gateway) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id, ok := identityFromQuery(r)

	conn, err := g.upgrader.Upgrade(w, r, nil)
	if err != nil {
		g.logger.WithError(err).Warn("websocket upgrade failed")
		return
	}

	if !ok {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "driverId or userId required"),
			time.Now().Add(writeWait))
		conn.Close()
		return
	}

	channelID := uuid.New().String()
	g.mu.Lock()
	g.sessions[channelID] = &session{conn: conn}
	g.mu.Unlock()
	g.registry.Register(id, channelID)
	observability.RealtimeConnections.Inc()

	log := g.logger.WithFields(logrus.Fields{"channel": channelID, "role": id.Role, "identity": id.ID})
	log.Info("client connected")

	defer func() {
		g.registry.Remove(channelID)
		g.mu.Lock()
		delete(g.sessions, channelID)
		g.mu.Unlock()
		conn.Close()
		observability.RealtimeConnections.Dec()
		log.Info("client disconnected")
	}()

	for {
		var msg Message
		if err := conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.WithError(err).Debug("read failed")
			}
			return
		}
		g.dispatch(r.Context(), channelID, msg, log)
	}
}

func (g *Gateway) dispatch(ctx context.Context, channelID string, msg Message, log logrus.FieldLogger) {
	switch msg.Event {
	case EventUpdateLocation:
		var p domain.Point
		if err := json.Unmarshal(msg.Data, &p); err != nil || p.Validate() != nil {
			log.Debug("ignoring malformed location update")
			return
		}
		if g.onLocation == nil {
			return
		}
		if g.frameTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, g.frameTimeout)
			defer cancel()
		}
		g.onLocation(ctx, channelID, p)
	default:
		log.WithField("event", msg.Event).Debug("ignoring unknown event")
	}
}

func identityFromQuery(r *http.Request) (Identity, bool) {
	q := r.URL.Query()
	if v := q.Get("driverId"); v != "" {
		return Identity{Role: RoleDriver, ID: v}, true
	}
	if v := q.Get("userId"); v != "" {
		return Identity{Role: RoleRider, ID: v}, true
	}
	return Identity{}, false
}

var _ Sender = (*Gateway)(nil)
