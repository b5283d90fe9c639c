package ledger

import (
	"context"
	"testing"
)

// Seed is a test helper that stores contacts for an owner directly, bypassing
// ownership checks. A failing store fails the test.
func Seed(tb testing.TB, l Ledger, ownerUserID string, entries ...Entry) {
	tb.Helper()
	if entries == nil {
		entries = []Entry{}
	}
	if _, err := l.ReplaceAll(context.Background(), ownerUserID, entries); err != nil {
		tb.Fatalf("seed contacts for %s: %v", ownerUserID, err)
	}
}

// Count returns how many contacts the in-memory ledger holds across all owners.
func Count(l Ledger) int {
	mem, ok := l.(*inMemoryLedger)
	if !ok {
		return -1
	}
	mem.mu.RLock()
	defer mem.mu.RUnlock()
	total := 0
	for _, list := range mem.contacts {
		total += len(list)
	}
	return total
}
