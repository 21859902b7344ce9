package session

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/propertyline/leadflow/pkg/config"
	"github.com/propertyline/leadflow/pkg/events"
	"github.com/propertyline/leadflow/pkg/models"
)

// entry pairs a session with its lock. The per-session mutex serializes
// Update closures for one lead while leaving other leads untouched.
type entry struct {
	mu      sync.Mutex
	session *Session
}

// Store manages lead sessions in memory with idle-TTL eviction.
//
// Expired sessions are evicted lazily on access and proactively by the
// background sweeper. Both paths emit a session-evicted event.
type Store struct {
	cfg *config.SessionConfig
	bus *events.Bus
	now func() time.Time

	mu      sync.RWMutex
	entries map[string]*entry

	cancel context.CancelFunc
	done   chan struct{}
}

// StoreOption customizes Store construction.
type StoreOption func(*Store)

// WithClock injects the time source for TTL tests.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a session store.
func NewStore(cfg *config.SessionConfig, bus *events.Bus, opts ...StoreOption) *Store {
	s := &Store{
		cfg:     cfg,
		bus:     bus,
		now:     time.Now,
		entries: make(map[string]*entry),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Update runs fn against the session for leadID under its lock, creating
// the session first when absent or expired. fn may mutate freely; the
// store refreshes the activity timestamp afterwards. Returns a snapshot
// taken after fn ran.
func (s *Store) Update(leadID string, fn func(*Session)) *models.SessionSnapshot {
	e := s.acquire(leadID, true)
	defer e.mu.Unlock()

	fn(e.session)
	e.session.lastActivity = s.now()
	return e.session.snapshot()
}

// GetOrCreate ensures a live session exists for leadID and returns its
// snapshot. Equivalent to an Update with an empty mutation.
func (s *Store) GetOrCreate(leadID string) *models.SessionSnapshot {
	return s.Update(leadID, func(*Session) {})
}

// Snapshot returns a read-only copy of the session, or false when no live
// session exists. Reading does not refresh the TTL.
func (s *Store) Snapshot(leadID string) (*models.SessionSnapshot, bool) {
	e := s.acquire(leadID, false)
	if e == nil {
		return nil, false
	}
	defer e.mu.Unlock()
	return e.session.snapshot(), true
}

// List returns snapshots of every live session.
func (s *Store) List() []*models.SessionSnapshot {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	out := make([]*models.SessionSnapshot, 0, len(ids))
	for _, id := range ids {
		if snap, ok := s.Snapshot(id); ok {
			out = append(out, snap)
		}
	}
	return out
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// acquire returns the locked entry for leadID. Expired sessions are evicted
// first. When create is false and no live session exists, returns nil.
func (s *Store) acquire(leadID string, create bool) *entry {
	for {
		s.mu.Lock()
		e, ok := s.entries[leadID]
		if !ok {
			if !create {
				s.mu.Unlock()
				return nil
			}
			now := s.now()
			e = &entry{session: &Session{
				LeadID:       leadID,
				CreatedAt:    now,
				lastActivity: now,
			}}
			s.entries[leadID] = e
			s.mu.Unlock()
			e.mu.Lock()
			return e
		}
		s.mu.Unlock()

		e.mu.Lock()
		if s.expired(e.session) {
			s.evict(leadID, e)
			e.mu.Unlock()
			if !create {
				return nil
			}
			continue
		}
		// Entry may have been evicted and replaced between the map read
		// and taking the session lock; re-check identity.
		s.mu.RLock()
		current := s.entries[leadID]
		s.mu.RUnlock()
		if current != e {
			e.mu.Unlock()
			continue
		}
		return e
	}
}

func (s *Store) expired(sess *Session) bool {
	return s.now().Sub(sess.lastActivity) > s.cfg.TTL
}

// evict removes the entry from the map and emits session-evicted. Caller
// holds the entry lock.
func (s *Store) evict(leadID string, e *entry) {
	s.mu.Lock()
	if s.entries[leadID] == e {
		delete(s.entries, leadID)
	}
	s.mu.Unlock()

	slog.Info("Session evicted",
		"lead_id", leadID,
		"idle", s.now().Sub(e.session.lastActivity).Round(time.Second),
		"messages", len(e.session.History))
	s.bus.Emit(events.KindSessionEvicted, leadID, map[string]any{
		"messages":    len(e.session.History),
		"current_bot": e.session.CurrentBot,
	})
	s.bus.DropLead(leadID)
}

// Start launches the background eviction sweeper.
func (s *Store) Start(ctx context.Context) {
	if s.cancel != nil {
		return
	}
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})

	go s.run(ctx)

	slog.Info("Session store started",
		"ttl", s.cfg.TTL,
		"sweep_interval", s.cfg.SweepInterval)
}

// Stop signals the sweeper to exit and waits for it to finish.
func (s *Store) Stop() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
	slog.Info("Session store stopped")
}

func (s *Store) run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(s.cfg.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep()
		}
	}
}

// Sweep evicts every expired session. Returns the number evicted.
func (s *Store) Sweep() int {
	s.mu.RLock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.mu.RUnlock()

	evicted := 0
	for _, id := range ids {
		s.mu.RLock()
		e, ok := s.entries[id]
		s.mu.RUnlock()
		if !ok {
			continue
		}
		e.mu.Lock()
		if s.expired(e.session) {
			s.evict(id, e)
			evicted++
		}
		e.mu.Unlock()
	}
	if evicted > 0 {
		slog.Info("Session sweep completed", "evicted", evicted)
	}
	return evicted
}
