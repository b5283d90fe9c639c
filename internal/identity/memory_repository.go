package identity

import (
	"context"
	"sync"

	"github.com/safeline/safeline/internal/apperror"
)

type memoryRepository struct {
	mu      sync.RWMutex
	byEmail map[string]User
	byID    map[string]User
}

// NewMemoryRepository builds an in-memory user store for tests and local runs.
func NewMemoryRepository() Repository {
	return &memoryRepository{byEmail: make(map[string]User), byID: make(map[string]User)}
}

func (r *memoryRepository) Create(_ context.Context, user User) error {
	if !user.complete() {
		return errIncompleteUser
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[user.Email]; exists {
		return apperror.ErrDuplicateEmail
	}
	r.byEmail[user.Email] = user
	r.byID[user.ID] = user
	return nil
}

func (r *memoryRepository) FindByEmail(_ context.Context, email string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byEmail[email]
	if !ok {
		return User{}, apperror.ErrNotFound
	}
	return user, nil
}

func (r *memoryRepository) FindByID(_ context.Context, id string) (User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.byID[id]
	if !ok {
		return User{}, apperror.ErrNotFound
	}
	return user, nil
}
