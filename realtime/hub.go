package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"kittenboard/core"
)

// Observer is a handle for one connected realtime subscriber.
type Observer struct {
	ID     int
	Joined time.Time
}

// Hub fans domain events out to all registered observers. Delivery is
// best-effort per observer: a full or dead channel never blocks the
// broadcast for the rest.
type Hub struct {
	mu   sync.RWMutex
	subs map[int]chan core.Event
	meta map[int]Observer
	next int
}

func NewHub() *Hub {
	return &Hub{subs: map[int]chan core.Event{}, meta: map[int]Observer{}}
}

// Subscribe registers a new observer with the given channel buffer and
// returns its handle plus the receive channel. The caller owns keeping the
// channel drained; Broadcast drops rather than blocks.
func (h *Hub) Subscribe(buffer int) (Observer, <-chan core.Event) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.next++
	obs := Observer{ID: h.next, Joined: time.Now().UTC()}
	ch := make(chan core.Event, buffer)
	h.subs[obs.ID] = ch
	h.meta[obs.ID] = obs
	return obs, ch
}

// Unsubscribe removes an observer and closes its channel. Calling it twice,
// or with an unknown id, is a no-op: disconnects race with other cleanup.
func (h *Hub) Unsubscribe(id int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if ch, ok := h.subs[id]; ok {
		delete(h.subs, id)
		delete(h.meta, id)
		close(ch)
	}
}

// Broadcast delivers ev to every registered observer. Sends never block, so
// the read lock is held for the whole loop; Unsubscribe cannot close a
// channel mid-send.
func (h *Hub) Broadcast(_ context.Context, ev core.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			slog.Debug("dropped realtime event for slow observer", "observer", id, "event", ev.Type)
		}
	}
}

// Send pushes ev to a single observer, used for the on-connect snapshot
// that must not reach anyone else. Unknown ids are a no-op.
func (h *Hub) Send(id int, ev core.Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ch, ok := h.subs[id]
	if !ok {
		return
	}
	select {
	case ch <- ev:
	default:
		slog.Debug("dropped realtime event for slow observer", "observer", id, "event", ev.Type)
	}
}

// Len reports the number of live observers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// MarshalJSON is a helper to convert events to JSON bytes for WebSocket/SSE.
func MarshalJSON(ev core.Event) []byte {
	b, _ := json.Marshal(ev)
	return b
}
