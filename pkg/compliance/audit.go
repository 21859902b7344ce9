package compliance

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
)

// AuditStore appends immutable compliance audit entries. Append failures
// are logged by the Gate but never fail the compliance decision itself:
// the audit trail is evidence, not a gate.
type AuditStore interface {
	Append(ctx context.Context, entry AuditEntry) error
	// RecentByPhone returns up to limit entries for a phone, newest first.
	RecentByPhone(ctx context.Context, phone string, limit int) ([]AuditEntry, error)
}

// MemoryAudit is the in-process audit store for tests and dev.
type MemoryAudit struct {
	mu      sync.RWMutex
	entries []AuditEntry
}

// NewMemoryAudit creates an empty in-memory audit store.
func NewMemoryAudit() *MemoryAudit {
	return &MemoryAudit{}
}

// Append stores the entry, assigning ID and timestamp when unset.
func (a *MemoryAudit) Append(_ context.Context, entry AuditEntry) error {
	if entry.ID == "" {
		entry.ID = uuid.New().String()
	}
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = time.Now()
	}
	a.mu.Lock()
	a.entries = append(a.entries, entry)
	a.mu.Unlock()
	return nil
}

// RecentByPhone returns up to limit entries for a phone, newest first.
func (a *MemoryAudit) RecentByPhone(_ context.Context, phone string, limit int) ([]AuditEntry, error) {
	a.mu.RLock()
	defer a.mu.RUnlock()
	var out []AuditEntry
	for i := len(a.entries) - 1; i >= 0 && len(out) < limit; i-- {
		if a.entries[i].Phone == phone {
			out = append(out, a.entries[i])
		}
	}
	return out, nil
}

// All returns a copy of every entry, oldest first. Test helper.
func (a *MemoryAudit) All() []AuditEntry {
	a.mu.RLock()
	defer a.mu.RUnlock()
	out := make([]AuditEntry, len(a.entries))
	copy(out, a.entries)
	return out
}
