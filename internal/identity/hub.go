package identity

import (
	"sync"
	"time"
)

// EventKind names a principal lifecycle change.
type EventKind string

const (
	EventLogin   EventKind = "login"
	EventLogout  EventKind = "logout"
	EventExpired EventKind = "expired"
	EventUpdated EventKind = "updated"
)

// Event is published whenever the principal bound to a session changes.
type Event struct {
	Kind        EventKind `json:"kind"`
	SessionID   string    `json:"session_id"`
	PrincipalID string    `json:"principal_id"`
	Origin      string    `json:"origin,omitempty"`
	At          time.Time `json:"at"`
}

// Hub fans principal events out to subscribers. The Store is its only
// writer; any number of readers may subscribe.
type Hub struct {
	mu     sync.RWMutex
	nextID int
	subs   map[int]func(Event)
	relay  func(Event)
}

// NewHub constructs an empty Hub.
func NewHub() *Hub {
	return &Hub{subs: make(map[int]func(Event))}
}

// Subscribe registers fn and returns a function that removes it.
func (h *Hub) Subscribe(fn func(Event)) func() {
	h.mu.Lock()
	id := h.nextID
	h.nextID++
	h.subs[id] = fn
	h.mu.Unlock()
	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Publish delivers ev to local subscribers and to the relay, if any.
func (h *Hub) Publish(ev Event) {
	h.deliver(ev)
	h.mu.RLock()
	relay := h.relay
	h.mu.RUnlock()
	if relay != nil {
		relay(ev)
	}
}

// SetRelay installs a function receiving every locally published event,
// used to forward events to other portal instances.
func (h *Hub) SetRelay(fn func(Event)) {
	h.mu.Lock()
	h.relay = fn
	h.mu.Unlock()
}

// deliver notifies local subscribers only.
func (h *Hub) deliver(ev Event) {
	h.mu.RLock()
	subs := make([]func(Event), 0, len(h.subs))
	for _, fn := range h.subs {
		subs = append(subs, fn)
	}
	h.mu.RUnlock()
	for _, fn := range subs {
		fn(ev)
	}
}
