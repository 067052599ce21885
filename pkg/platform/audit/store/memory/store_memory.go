package memory

import (
	"context"
	"sync"

	id "agrifund/pkg/domain"
	audit "agrifund/pkg/platform/audit"
)

// InMemoryStore keeps the decision trail in process memory. Used in
// development and as the assertion point in tests.
type InMemoryStore struct {
	mu     sync.RWMutex
	events map[id.NotificationID][]audit.Event
}

// NewInMemoryStore constructs an empty store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{events: make(map[id.NotificationID][]audit.Event)}
}

func (s *InMemoryStore) Append(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events[event.NotificationID] = append(s.events[event.NotificationID], event)
	return nil
}

func (s *InMemoryStore) ListByNotification(_ context.Context, nid id.NotificationID) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]audit.Event{}, s.events[nid]...), nil
}

// ListAll returns every event across notifications.
func (s *InMemoryStore) ListAll(_ context.Context) ([]audit.Event, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var all []audit.Event
	for _, evs := range s.events {
		all = append(all, evs...)
	}
	return all, nil
}

// Clear drops all events.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = make(map[id.NotificationID][]audit.Event)
}
