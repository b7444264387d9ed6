package accountrepo

import (
	"context"
	"sync"

	"github.com/yanqian/suncare/internal/domain/auth"
)

// MemoryRepository provides an in-memory account store for tests/dev.
type MemoryRepository struct {
	mu         sync.RWMutex
	accounts   map[string]auth.Account
	emailIndex map[string]string
}

// NewMemoryRepository constructs a new in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		accounts:   make(map[string]auth.Account),
		emailIndex: make(map[string]string),
	}
}

// Create stores the account record.
func (r *MemoryRepository) Create(_ context.Context, account auth.Account) (auth.Account, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.emailIndex[account.Email]; exists {
		return auth.Account{}, auth.ErrEmailExists
	}
	r.accounts[account.ID] = account
	r.emailIndex[account.Email] = account.ID
	return account, nil
}

// GetByEmail returns an account by email.
func (r *MemoryRepository) GetByEmail(_ context.Context, email string) (auth.Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if id, ok := r.emailIndex[email]; ok {
		return r.accounts[id], true, nil
	}
	return auth.Account{}, false, nil
}

// GetByID fetches by ID.
func (r *MemoryRepository) GetByID(_ context.Context, id string) (auth.Account, bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	account, ok := r.accounts[id]
	return account, ok, nil
}

// Delete removes the account and its email index entry.
func (r *MemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if account, ok := r.accounts[id]; ok {
		delete(r.emailIndex, account.Email)
		delete(r.accounts, id)
	}
	return nil
}

var _ auth.Repository = (*MemoryRepository)(nil)
