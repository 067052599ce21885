package store

import (
	"context"
	"sync"

	"agrifund/internal/notification/models"
	id "agrifund/pkg/domain"
	"agrifund/pkg/platform/sentinel"
)

// InMemory keeps the notification log in process memory. It favors clarity
// over performance and is the default backend for development and tests.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.NotificationID]*models.Notification
	ordered []id.NotificationID // creation order
}

// NewInMemory constructs an empty in-memory notification store.
func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.NotificationID]*models.Notification)}
}

func (s *InMemory) Append(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[n.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[n.ID] = n.Clone()
	s.ordered = append(s.ordered, n.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, nid id.NotificationID) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if n, ok := s.byID[nid]; ok {
		return n.Clone(), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) ListByTargetRole(_ context.Context, role id.Role) ([]*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []*models.Notification
	for _, nid := range s.ordered {
		if n := s.byID[nid]; n.TargetRole == role {
			out = append(out, n.Clone())
		}
	}
	return out, nil
}

func (s *InMemory) Execute(_ context.Context, nid id.NotificationID, validate func(*models.Notification) error, mutate func(*models.Notification)) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	n, ok := s.byID[nid]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(n); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(n)
	}
	return n.Clone(), nil
}

func (s *InMemory) FindApprovedApplication(_ context.Context, schemeID id.SchemeID, role id.Role) (*models.Notification, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, nid := range s.ordered {
		n := s.byID[nid]
		app, ok := n.Payload.(*models.SchemeApplicationPayload)
		if !ok {
			continue
		}
		if app.SchemeID == schemeID && app.ApplicantRole == role && app.Status == models.ApplicationApproved {
			return n.Clone(), nil
		}
	}
	return nil, sentinel.ErrNotFound
}
