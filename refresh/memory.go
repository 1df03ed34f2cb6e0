package refresh

import (
	"context"
	"sync"
	"time"
)

type memoryEntry struct {
	owner     int64
	expiresAt time.Time
}

// MemoryRegistry is an in-process [Registry]. Expired entries are dropped
// lazily on access. It is meant for tests and single-process development.
type MemoryRegistry struct {
	mu      sync.Mutex
	now     func() time.Time
	entries map[string]memoryEntry
}

// NewMemoryRegistry returns an empty registry. A nil clock means time.Now.
func NewMemoryRegistry(now func() time.Time) *MemoryRegistry {
	if now == nil {
		now = time.Now
	}
	return &MemoryRegistry{
		now:     now,
		entries: make(map[string]memoryEntry),
	}
}

// live returns the entry for key if it has not expired. Callers hold mu.
func (m *MemoryRegistry) live(key string, now time.Time) (memoryEntry, bool) {
	e, ok := m.entries[key]
	if !ok {
		return memoryEntry{}, false
	}
	if !now.Before(e.expiresAt) {
		delete(m.entries, key)
		return memoryEntry{}, false
	}
	return e, true
}

func (m *MemoryRegistry) Save(ctx context.Context, token string, userID int64, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	if token == "" {
		return ErrEmptyToken
	}
	if ttl <= 0 {
		return ErrInvalidTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[KeyFor("", token)] = memoryEntry{owner: userID, expiresAt: m.now().Add(ttl)}
	return nil
}

func (m *MemoryRegistry) Exists(ctx context.Context, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.live(KeyFor("", token), m.now())
	return ok, nil
}

func (m *MemoryRegistry) RemainingTTL(ctx context.Context, token string) (time.Duration, error) {
	if err := ctx.Err(); err != nil {
		return 0, unavailable(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	now := m.now()
	e, ok := m.live(KeyFor("", token), now)
	if !ok {
		return 0, ErrNotFound
	}
	return e.expiresAt.Sub(now), nil
}

func (m *MemoryRegistry) Delete(ctx context.Context, token string) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, unavailable(err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := KeyFor("", token)
	_, ok := m.live(key, m.now())
	delete(m.entries, key)
	return ok, nil
}

func (m *MemoryRegistry) Rename(ctx context.Context, oldToken, newToken string, userID int64) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	if oldToken == "" || newToken == "" {
		return ErrEmptyToken
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	oldKey := KeyFor("", oldToken)
	e, ok := m.live(oldKey, m.now())
	if !ok {
		return ErrNotFound
	}
	if e.owner != userID {
		return ErrOwnerMismatch
	}
	delete(m.entries, oldKey)
	m.entries[KeyFor("", newToken)] = e
	return nil
}

func (m *MemoryRegistry) Ping(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return unavailable(err)
	}
	return nil
}

// Len reports the number of stored entries, expired or not.
func (m *MemoryRegistry) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}
