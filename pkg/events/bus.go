package events

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// recentPerLead bounds the per-lead ring of retained events served by the
// API. Older events are dropped silently.
const recentPerLead = 100

// Bus is the process-wide event emitter. Safe for concurrent use.
//
// Emit appends to a bounded per-lead ring and fans out to subscribers via
// buffered channels. A full subscriber channel drops the event for that
// subscriber rather than blocking the emitting request.
type Bus struct {
	mu     sync.RWMutex
	recent map[string][]Event // leadID → bounded ring of recent events
	subs   []chan Event
	closed bool
}

// NewBus creates an event bus.
func NewBus() *Bus {
	return &Bus{recent: make(map[string][]Event)}
}

// Emit publishes an event. Never blocks and never returns an error:
// event delivery is best-effort by contract.
func (b *Bus) Emit(kind Kind, leadID string, payload map[string]any) {
	if !kind.IsValid() {
		slog.Error("Dropping event with unknown kind", "kind", kind, "lead_id", leadID)
		return
	}
	ev := Event{
		ID:        uuid.New().String(),
		Kind:      kind,
		LeadID:    leadID,
		Timestamp: time.Now(),
		Payload:   payload,
	}

	b.mu.Lock()
	if b.closed {
		b.mu.Unlock()
		return
	}
	ring := append(b.recent[leadID], ev)
	if len(ring) > recentPerLead {
		ring = ring[len(ring)-recentPerLead:]
	}
	b.recent[leadID] = ring
	subs := make([]chan Event, len(b.subs))
	copy(subs, b.subs)
	b.mu.Unlock()

	for _, ch := range subs {
		select {
		case ch <- ev:
		default:
			// Subscriber is behind; drop rather than stall the request path.
		}
	}
}

// Subscribe registers a new subscriber and returns its channel. The channel
// is buffered; subscribers that fall behind miss events.
func (b *Bus) Subscribe() <-chan Event {
	ch := make(chan Event, 256)
	b.mu.Lock()
	b.subs = append(b.subs, ch)
	b.mu.Unlock()
	return ch
}

// Recent returns the retained events for a lead, oldest first.
func (b *Bus) Recent(leadID string) []Event {
	b.mu.RLock()
	defer b.mu.RUnlock()
	ring := b.recent[leadID]
	out := make([]Event, len(ring))
	copy(out, ring)
	return out
}

// DropLead discards the retained ring for a lead. Called after eviction so
// the recent-events map does not grow unboundedly.
func (b *Bus) DropLead(leadID string) {
	b.mu.Lock()
	delete(b.recent, leadID)
	b.mu.Unlock()
}

// Close closes all subscriber channels. Emit becomes a no-op.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for _, ch := range b.subs {
		close(ch)
	}
	b.subs = nil
}
