// Package events is the in-process notification fabric: routing outcomes,
// provider lifecycle changes, and idle alerts flow through one Hub that the
// API's SSE endpoint and the watch TUI subscribe to.
package events

import (
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"
)

// Event types published by the routing engine and provider registry.
const (
	TypeItemRouted      = "item.routed"
	TypeItemUnrouted    = "item.unrouted"
	TypeActionFailed    = "action.failed"
	TypeProviderIdle    = "provider.idle"
	TypeProviderUpdated = "provider.updated"
	TypeSchemeSaved     = "scheme.saved"
)

// ItemRouted is the payload for item.routed and item.unrouted.
type ItemRouted struct {
	ItemID   string `json:"item_id"`
	Provider string `json:"provider"`
	Scheme   string `json:"scheme"`
	Actions  int    `json:"actions"`
	Failed   int    `json:"failed"`
}

// ActionFailed is the payload for action.failed.
type ActionFailed struct {
	ItemID string `json:"item_id"`
	Rule   string `json:"rule"`
	Desk   string `json:"desk"`
	Stage  string `json:"stage"`
	Error  string `json:"error"`
}

// ProviderIdle is the payload for provider.idle.
type ProviderIdle struct {
	Provider       string    `json:"provider"`
	LastItemUpdate time.Time `json:"last_item_update"`
}

type Event struct {
	ID   int64           `json:"id"`
	Type string          `json:"type"`
	At   time.Time       `json:"at"`
	Data json.RawMessage `json:"data"`
}

// Hub is an in-memory pub/sub with a ring buffer so late subscribers can
// catch up on recent history.
type Hub struct {
	nextID atomic.Int64

	mu    sync.Mutex
	ring  []Event
	start int
	size  int

	subs      map[int]chan Event
	nextSubID int
}

func NewHub(capacity int) *Hub {
	if capacity <= 0 {
		capacity = 256
	}
	return &Hub{
		ring: make([]Event, capacity),
		subs: make(map[int]chan Event),
	}
}

// Publish fans the event out to all subscribers and records it in the ring.
// Slow subscribers lose events rather than blocking the publisher.
func (h *Hub) Publish(eventType string, payload any) {
	data := json.RawMessage("{}")
	if payload != nil {
		if b, err := json.Marshal(payload); err == nil {
			data = b
		}
	}

	ev := Event{
		ID:   h.nextID.Add(1),
		Type: eventType,
		At:   time.Now().UTC(),
		Data: data,
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.pushLocked(ev)
	for _, ch := range h.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

// Subscribe registers a listener. The returned cancel func must be called to
// release the subscription.
func (h *Hub) Subscribe() (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	ch := make(chan Event, 128)
	h.subs[id] = ch

	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if c, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Since returns buffered events with ID greater than lastID, oldest first.
// lastID 0 returns the whole buffer.
func (h *Hub) Since(lastID int64) []Event {
	h.mu.Lock()
	defer h.mu.Unlock()

	out := make([]Event, 0, h.size)
	for i := 0; i < h.size; i++ {
		ev := h.ring[(h.start+i)%len(h.ring)]
		if ev.ID > lastID {
			out = append(out, ev)
		}
	}
	return out
}

func (h *Hub) pushLocked(ev Event) {
	capacity := len(h.ring)
	if capacity == 0 {
		return
	}
	if h.size < capacity {
		h.ring[(h.start+h.size)%capacity] = ev
		h.size++
		return
	}
	h.ring[h.start] = ev
	h.start = (h.start + 1) % capacity
}
