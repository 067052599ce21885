// Package store persists applicant registration records.
package store

import (
	"context"

	"agrifund/internal/registry/models"
	id "agrifund/pkg/domain"
)

// Store is the applicant registry's persistence surface.
type Store interface {
	// Create adds a new applicant record.
	Create(ctx context.Context, a *models.Applicant) error

	// FindByID returns a copy of one record, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, tenantID id.TenantID) (*models.Applicant, error)

	// FindActiveByCategory returns the category's current active record:
	// the most recently created record that is not unverified. Returns
	// sentinel.ErrNotFound when the category has none.
	FindActiveByCategory(ctx context.Context, category id.Role) (*models.Applicant, error)

	// FindLatestByCategory returns the category's most recently created
	// record regardless of status. A rejected record remains the role's
	// feed identity until a new registration supersedes it. Returns
	// sentinel.ErrNotFound when the category has none.
	FindLatestByCategory(ctx context.Context, category id.Role) (*models.Applicant, error)

	// Execute atomically runs validate then mutate against one record while
	// holding the store's lock, returning the mutated copy.
	Execute(ctx context.Context, tenantID id.TenantID, validate func(*models.Applicant) error, mutate func(*models.Applicant)) (*models.Applicant, error)
}
