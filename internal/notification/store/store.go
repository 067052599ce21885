// Package store persists notification records. Implementations share one
// narrow interface so consumers never touch ambient global state and tests
// can substitute the in-memory variant.
package store

import (
	"context"

	"agrifund/internal/notification/models"
	id "agrifund/pkg/domain"
)

// Store is the notification log's mutation and query surface.
type Store interface {
	// Append adds a new record. The caller assigns ID and ReceivedAt.
	Append(ctx context.Context, n *models.Notification) error

	// FindByID returns a copy of one record, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, nid id.NotificationID) (*models.Notification, error)

	// ListByTargetRole returns copies of all records addressed to role,
	// unfiltered by tenant, in creation order.
	ListByTargetRole(ctx context.Context, role id.Role) ([]*models.Notification, error)

	// Execute atomically runs validate then mutate against one record while
	// holding the store's lock, returning the mutated copy. Validation
	// failure aborts with no mutation.
	Execute(ctx context.Context, nid id.NotificationID, validate func(*models.Notification) error, mutate func(*models.Notification)) (*models.Notification, error)

	// FindApprovedApplication returns the scheme application holding
	// approved status for the (scheme, role) pair, or sentinel.ErrNotFound.
	FindApprovedApplication(ctx context.Context, schemeID id.SchemeID, role id.Role) (*models.Notification, error)
}
