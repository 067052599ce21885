package store

import (
	"context"
	"sync"

	"agrifund/internal/registry/models"
	id "agrifund/pkg/domain"
	"agrifund/pkg/platform/sentinel"
)

// InMemory keeps applicant records in process memory.
type InMemory struct {
	mu      sync.RWMutex
	byID    map[id.TenantID]*models.Applicant
	ordered []id.TenantID // creation order
}

// NewInMemory constructs an empty in-memory applicant store.
func NewInMemory() *InMemory {
	return &InMemory{byID: make(map[id.TenantID]*models.Applicant)}
}

func clone(a *models.Applicant) *models.Applicant {
	cp := *a
	return &cp
}

func (s *InMemory) Create(_ context.Context, a *models.Applicant) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.byID[a.ID]; exists {
		return sentinel.ErrAlreadyUsed
	}
	s.byID[a.ID] = clone(a)
	s.ordered = append(s.ordered, a.ID)
	return nil
}

func (s *InMemory) FindByID(_ context.Context, tenantID id.TenantID) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.byID[tenantID]; ok {
		return clone(a), nil
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindActiveByCategory(_ context.Context, category id.Role) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	// Most recent non-unverified record wins; a rejected applicant has no
	// active identity until resubmission.
	for i := len(s.ordered) - 1; i >= 0; i-- {
		a := s.byID[s.ordered[i]]
		if a.Category == category && a.Status != models.StatusUnverified {
			return clone(a), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) FindLatestByCategory(_ context.Context, category id.Role) (*models.Applicant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := len(s.ordered) - 1; i >= 0; i-- {
		a := s.byID[s.ordered[i]]
		if a.Category == category {
			return clone(a), nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemory) Execute(_ context.Context, tenantID id.TenantID, validate func(*models.Applicant) error, mutate func(*models.Applicant)) (*models.Applicant, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.byID[tenantID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	if validate != nil {
		if err := validate(a); err != nil {
			return nil, err
		}
	}
	if mutate != nil {
		mutate(a)
	}
	return clone(a), nil
}
