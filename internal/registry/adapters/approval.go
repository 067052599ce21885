// Package adapters bridges the registry service into collaborator seams
// defined by other modules.
package adapters

import (
	"context"

	"agrifund/internal/approval"
	"agrifund/internal/registry/models"
	"agrifund/internal/registry/service"
)

// StatusUpdater translates approval decisions into registry status changes.
type StatusUpdater struct {
	registry *service.Service
}

// NewStatusUpdater wraps the registry service for the approval engine.
func NewStatusUpdater(registry *service.Service) *StatusUpdater {
	return &StatusUpdater{registry: registry}
}

// ApplyDecision implements approval.StatusUpdater. Approval verifies the
// applicant; rejection marks the record unverified and stores the reason so
// the applicant can re-register.
func (u *StatusUpdater) ApplyDecision(ctx context.Context, update approval.StatusUpdate) error {
	status := models.StatusVerified
	opts := service.UpdateStatusOpts{}
	if !update.Verified {
		status = models.StatusUnverified
		opts.RejectionReason = update.RejectionReason
	}
	_, err := u.registry.UpdateStatus(ctx, update.TenantID, status, opts)
	return err
}
