package ledger

import (
	"context"
	"sync"

	"github.com/google/uuid"
)

type inMemoryLedger struct {
	mu       sync.RWMutex
	contacts map[string][]Contact
}

// NewInMemory creates a concurrency-safe in-memory ledger useful for unit tests.
func NewInMemory() Ledger {
	return &inMemoryLedger{contacts: make(map[string][]Contact)}
}

func (l *inMemoryLedger) ReplaceAll(_ context.Context, ownerUserID string, entries []Entry) (int, error) {
	next := make([]Contact, 0, len(entries))
	for i, e := range entries {
		next = append(next, Contact{
			ID:          uuid.NewString(),
			OwnerUserID: ownerUserID,
			Position:    i,
			Name:        e.Name,
			Phone:       e.Phone,
		})
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if len(next) == 0 {
		delete(l.contacts, ownerUserID)
		return 0, nil
	}
	l.contacts[ownerUserID] = next
	return len(next), nil
}

func (l *inMemoryLedger) List(_ context.Context, ownerUserID string) ([]Contact, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	stored := l.contacts[ownerUserID]
	out := make([]Contact, len(stored))
	copy(out, stored)
	return out, nil
}
