package server

import (
	"encoding/json"
	"sync"
)

// Event types sent over /api/events
const (
	EventConnected = "connected"
	EventConsole   = "console"
	EventProgress  = "progress"
	EventComplete  = "complete"
	EventError     = "error"
)

// subscriberBuffer is the number of events a slow client may fall behind by
const subscriberBuffer = 64

// SSEEvent represents one server-sent event
type SSEEvent struct {
	Type string `json:"type"`
	Data string `json:"data"` // JSON-encoded payload
}

// eventHub fans events out to every connected stream. Publishing never
// blocks: a subscriber whose buffer is full misses the event.
type eventHub struct {
	mu          sync.Mutex
	subscribers map[chan SSEEvent]struct{}
}

func newEventHub() *eventHub {
	return &eventHub{subscribers: make(map[chan SSEEvent]struct{})}
}

func (h *eventHub) subscribe() chan SSEEvent {
	ch := make(chan SSEEvent, subscriberBuffer)
	h.mu.Lock()
	h.subscribers[ch] = struct{}{}
	h.mu.Unlock()
	return ch
}

func (h *eventHub) unsubscribe(ch chan SSEEvent) {
	h.mu.Lock()
	delete(h.subscribers, ch)
	h.mu.Unlock()
}

// count returns the number of connected streams
func (h *eventHub) count() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

func (h *eventHub) publish(event SSEEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for ch := range h.subscribers {
		select {
		case ch <- event:
		default:
			// Subscriber is behind, skip
		}
	}
}

// publishJSON encodes v and publishes it as eventType
func (h *eventHub) publishJSON(eventType string, v interface{}) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	h.publish(SSEEvent{Type: eventType, Data: string(data)})
}
