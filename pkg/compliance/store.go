package compliance

import (
	"context"
	"sync"
)

// Store is the keyed registry of per-phone compliance records.
//
// The Gate serializes all operations per phone, so implementations only
// need to be safe for concurrent access across distinct phones. Opt-out
// state must survive a process restart when a durable implementation is
// configured; counters may be conservatively re-initialized at zero.
type Store interface {
	// Get returns the record for a phone, or a fresh zero record when none
	// exists. Never returns nil with a nil error.
	Get(ctx context.Context, phone string) (*Record, error)

	// Put upserts the record for a phone.
	Put(ctx context.Context, rec *Record) error
}

// MemoryStore is the in-process Store used in tests and single-node dev
// deployments without Redis.
type MemoryStore struct {
	mu      sync.RWMutex
	records map[string]Record
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]Record)}
}

// Get returns a copy of the stored record, or a zero record.
func (s *MemoryStore) Get(_ context.Context, phone string) (*Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if rec, ok := s.records[phone]; ok {
		out := rec
		return &out, nil
	}
	return &Record{Phone: phone}, nil
}

// Put stores a copy of the record.
func (s *MemoryStore) Put(_ context.Context, rec *Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records[rec.Phone] = *rec
	return nil
}
