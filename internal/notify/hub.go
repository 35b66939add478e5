// Package notify fans wizard session events out to live subscribers.
package notify

import (
	"log/slog"
	"sync"
	"time"
)

// Event types
const (
	EventSnapshot  = "snapshot"
	EventEstimate  = "estimate"
	EventNotice    = "notice"
	EventSubmitted = "submitted"
	EventClosed    = "closed"
)

// Event is one message delivered to subscribers of a session
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"session_id"`
	Data      interface{} `json:"data,omitempty"`
	Time      time.Time   `json:"time"`
}

// Subscription receives the events of one session until closed
type Subscription struct {
	C <-chan Event

	ch        chan Event
	hub       *Hub
	sessionID string
	closed    bool // guarded by hub.mu
}

// Close detaches the subscription and closes its channel
func (s *Subscription) Close() {
	s.hub.remove(s)
}

// Hub routes events by session id. Publishing never blocks: a subscriber
// whose buffer is full misses the event.
type Hub struct {
	mu     sync.Mutex
	subs   map[string]map[*Subscription]struct{}
	buffer int
}

// NewHub creates a hub with the given per-subscriber buffer
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 16
	}
	return &Hub{
		subs:   make(map[string]map[*Subscription]struct{}),
		buffer: buffer,
	}
}

// Subscribe registers a subscriber for a session
func (h *Hub) Subscribe(sessionID string) *Subscription {
	ch := make(chan Event, h.buffer)
	sub := &Subscription{C: ch, ch: ch, hub: h, sessionID: sessionID}

	h.mu.Lock()
	defer h.mu.Unlock()
	set, ok := h.subs[sessionID]
	if !ok {
		set = make(map[*Subscription]struct{})
		h.subs[sessionID] = set
	}
	set[sub] = struct{}{}
	return sub
}

// Publish delivers an event to every subscriber of its session
func (h *Hub) Publish(sessionID, eventType string, data interface{}) {
	ev := Event{Type: eventType, SessionID: sessionID, Data: data, Time: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		select {
		case sub.ch <- ev:
		default:
			slog.Warn("dropping event for slow subscriber", "session_id", sessionID, "type", eventType)
		}
	}
}

// CloseSession sends a closed event and detaches every subscriber of a session
func (h *Hub) CloseSession(sessionID string) {
	ev := Event{Type: EventClosed, SessionID: sessionID, Time: time.Now().UTC()}

	h.mu.Lock()
	defer h.mu.Unlock()
	for sub := range h.subs[sessionID] {
		select {
		case sub.ch <- ev:
		default:
		}
		if !sub.closed {
			sub.closed = true
			close(sub.ch)
		}
	}
	delete(h.subs, sessionID)
}

// Subscribers returns the number of subscribers of a session
func (h *Hub) Subscribers(sessionID string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subs[sessionID])
}

func (h *Hub) remove(sub *Subscription) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if sub.closed {
		return
	}
	sub.closed = true
	if set, ok := h.subs[sub.sessionID]; ok {
		delete(set, sub)
		if len(set) == 0 {
			delete(h.subs, sub.sessionID)
		}
	}
	close(sub.ch)
}
