// Package realtime keeps track of connected drivers and riders and pushes
// events to them over websockets.
package realtime

import "sync"

// Role tells whether an identity belongs to a driver or a rider.
type Role string

const (
	RoleDriver Role = "driver"
	RoleRider  Role = "rider"
)

// Identity is the claim a client presented when it connected.
type Identity struct {
	Role Role
	ID   string
}

// Registry maps identities to their active channel and back. It is safe for
// concurrent use. State is process-local and rebuilt as clients reconnect.
type Registry struct {
	mu       sync.RWMutex
	drivers  map[string]string   // driver id -> channel id
	riders   map[string]string   // rider id -> channel id
	channels map[string]Identity // channel id -> identity
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		drivers:  make(map[string]string),
		riders:   make(map[string]string),
		channels: make(map[string]Identity),
	}
}

func (r *Registry) forward(role Role) map[string]string {
	if role == RoleDriver {
		return r.drivers
	}
	return r.riders
}

// Register binds identity to channelID. A reconnecting identity replaces its
// previous channel (last write wins).
func (r *Registry) Register(id Identity, channelID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	fwd := r.forward(id.Role)
	if old, ok := fwd[id.ID]; ok && old != channelID {
		delete(r.channels, old)
	}
	if prev, ok := r.channels[channelID]; ok && prev != id {
		if r.forward(prev.Role)[prev.ID] == channelID {
			delete(r.forward(prev.Role), prev.ID)
		}
	}

	fwd[id.ID] = channelID
	r.channels[channelID] = id
}

// Remove drops whichever identity currently holds channelID and returns it.
// ok is false when the channel was not registered or was already superseded.
func (r *Registry) Remove(channelID string) (Identity, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id, ok := r.channels[channelID]
	if !ok {
		return Identity{}, false
	}
	delete(r.channels, channelID)

	fwd := r.forward(id.Role)
	if fwd[id.ID] == channelID {
		delete(fwd, id.ID)
	}
	return id, true
}

// Lookup returns the channel of an identity.
func (r *Registry) Lookup(id Identity) (string, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ch, ok := r.forward(id.Role)[id.ID]
	return ch, ok
}

// LookupMany returns the channels of the given identities that are connected,
// in input order, skipping absent ones.
func (r *Registry) LookupMany(role Role, ids []string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fwd := r.forward(role)
	channels := make([]string, 0, len(ids))
	for _, id := range ids {
		if ch, ok := fwd[id]; ok {
			channels = append(channels, ch)
		}
	}
	return channels
}

// IdentityOf resolves the identity holding channelID.
func (r *Registry) IdentityOf(channelID string) (Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	id, ok := r.channels[channelID]
	return id, ok
}

// Len returns the number of registered channels.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
