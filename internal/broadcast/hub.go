// Package broadcast fans accepted poll mutations out to every connected
// viewer. Delivery is best-effort: the mutation that triggered an event
// has already committed, so nothing here blocks, retries, or reports
// failure upstream.
package broadcast

import (
	"log/slog"
	"sync"
)

// Event pairs an event kind with the full poll snapshot it describes.
type Event struct {
	Kind    string `json:"event"`
	Payload any    `json:"payload"`
}

const subscriberBuffer = 16

type Hub struct {
	mu   sync.RWMutex
	subs map[chan Event]struct{}
}

func NewHub() *Hub {
	return &Hub{subs: make(map[chan Event]struct{})}
}

// Subscribe registers a viewer and returns its event channel plus a
// cancel func. Cancel is safe to call more than once.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	ch := make(chan Event, subscriberBuffer)

	h.mu.Lock()
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, ch)
			h.mu.Unlock()
			close(ch)
		})
	}
	return ch, cancel
}

// Publish delivers the event to every current subscriber. A subscriber
// whose buffer is full misses this event rather than stalling the rest.
func (h *Hub) Publish(event string, payload any) {
	ev := Event{Kind: event, Payload: payload}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for ch := range h.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("subscriber lagging, event dropped", "event", event)
		}
	}
}

// Subscribers reports the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
