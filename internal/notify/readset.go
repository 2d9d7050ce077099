// Package notify holds the durable read-set behind the notification
// tracker: the per-user set of ticket ids whose activity the user has
// already seen.
package notify

import (
	"context"
	"sync"
)

// ReadSetStore is the persistence port for per-user read sets. Keys are
// scoped by user id so switching accounts never leaks one user's read set
// into another's view.
type ReadSetStore interface {
	// Add inserts ticketID into the user's read set and reports whether it
	// was newly added.
	Add(ctx context.Context, userID, ticketID string) (bool, error)
	Contains(ctx context.Context, userID, ticketID string) (bool, error)
	Clear(ctx context.Context, userID string) error
}

// MemoryReadSet is a map-backed store used in tests and as a fallback when
// Redis is unavailable.
type MemoryReadSet struct {
	mu   sync.Mutex
	sets map[string]map[string]struct{}
}

// NewMemoryReadSet builds an empty store.
func NewMemoryReadSet() *MemoryReadSet {
	return &MemoryReadSet{sets: make(map[string]map[string]struct{})}
}

func (m *MemoryReadSet) Add(_ context.Context, userID, ticketID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[userID]
	if !ok {
		set = make(map[string]struct{})
		m.sets[userID] = set
	}
	if _, exists := set[ticketID]; exists {
		return false, nil
	}
	set[ticketID] = struct{}{}
	return true, nil
}

func (m *MemoryReadSet) Contains(_ context.Context, userID, ticketID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	set, ok := m.sets[userID]
	if !ok {
		return false, nil
	}
	_, exists := set[ticketID]
	return exists, nil
}

func (m *MemoryReadSet) Clear(_ context.Context, userID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sets, userID)
	return nil
}
