package auth

import (
	"context"
	"strings"
	"sync"

	"github.com/OssamaKing555/Beatrix-Media-Hub-sub001/internal/platform/httpx"
)

// Repository resolves back-office accounts.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*User, error)
}

// MemoryRepository is the seeded in-memory account store. Accounts are
// fixed for the process lifetime; there is no registration flow.
type MemoryRepository struct {
	mu    sync.RWMutex
	users map[string]User
}

// NewMemoryRepository indexes the seed accounts by lowercased email.
func NewMemoryRepository(seed []User) *MemoryRepository {
	users := make(map[string]User, len(seed))
	for _, u := range seed {
		users[strings.ToLower(u.Email)] = u
	}
	return &MemoryRepository{users: users}
}

// FindByEmail resolves an account case-insensitively.
func (r *MemoryRepository) FindByEmail(_ context.Context, email string) (*User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	user, ok := r.users[strings.ToLower(email)]
	if !ok {
		return nil, httpx.ErrNotFound
	}
	return &user, nil
}
