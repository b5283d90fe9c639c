package alerts

import (
	"context"
	"sort"
	"sync"
)

type memoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	log    []Alert
}

// NewMemoryRepository constructs an in-memory alert log for tests.
func NewMemoryRepository() Repository {
	return &memoryRepository{}
}

func (r *memoryRepository) Append(_ context.Context, alert Alert) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	alert.ID = r.nextID
	r.log = append(r.log, alert)
	return alert.ID, nil
}

func (r *memoryRepository) Recent(_ context.Context, limit int) ([]Alert, error) {
	r.mu.RLock()
	out := make([]Alert, len(r.log))
	copy(out, r.log)
	r.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Timestamp != out[j].Timestamp {
			return out[i].Timestamp > out[j].Timestamp
		}
		return out[i].ID > out[j].ID
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
