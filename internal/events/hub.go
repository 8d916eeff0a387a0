package events

import (
	"sync"
	"sync/atomic"

	"github.com/vanpelt/agentdeck/internal/logger"
)

// DefaultBuffer is the per-subscriber queue length used by NewHub(0).
const DefaultBuffer = 256

// Hub fans events out to subscribers. Publish never blocks: a subscriber
// whose queue is full misses the event, so one slow observer cannot stall
// a session's reader.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uint64]*subscription
	nextID uint64
	buffer int
}

type subscription struct {
	sessionID string
	ch        chan Event
	dropped   atomic.Uint64
}

// NewHub returns a Hub with the given per-subscriber buffer.
func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Hub{
		subs:   make(map[uint64]*subscription),
		buffer: buffer,
	}
}

// Publish delivers e to every matching subscriber.
func (h *Hub) Publish(e Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, sub := range h.subs {
		if sub.sessionID != "" && sub.sessionID != e.SessionID {
			continue
		}
		select {
		case sub.ch <- e:
		default:
			sub.dropped.Add(1)
			logger.Debugf("⚠️ Dropping %s event for session %s: subscriber queue full", e.Type, e.SessionID)
		}
	}
}

// Subscribe registers for events of sessionID, or of every session when
// sessionID is empty. The returned cancel func closes the channel and is
// safe to call more than once.
func (h *Hub) Subscribe(sessionID string) (<-chan Event, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.nextID++
	id := h.nextID
	sub := &subscription{sessionID: sessionID, ch: make(chan Event, h.buffer)}
	h.subs[id] = sub

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, id)
			h.mu.Unlock()
			close(sub.ch)
		})
	}
	return sub.ch, cancel
}

// Subscribers returns the number of live subscriptions.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
