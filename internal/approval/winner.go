package approval

import (
	"context"
	"errors"

	"agrifund/internal/notification/store"
	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
	"agrifund/pkg/platform/sentinel"
)

// WinnerChecker enforces the single-winner constraint: for every
// (scheme, role-category) pair, at most one application may hold approved
// status. Only the four single-winner categories are ever checked.
//
// The check-then-act sequence is race-free within one process because every
// decision runs to completion inside one handler invocation; it is not
// arbitrated across concurrently running portal instances.
type WinnerChecker struct {
	store store.Store
}

// NewWinnerChecker constructs the checker over the notification store.
func NewWinnerChecker(s store.Store) *WinnerChecker {
	return &WinnerChecker{store: s}
}

// Check returns nil when approving candidate would keep the invariant: no
// approved application exists for the pair, or the existing one is the
// candidate itself (re-approval). Otherwise it returns a conflict error
// naming the current winner.
func (c *WinnerChecker) Check(ctx context.Context, schemeID id.SchemeID, role id.Role, candidate id.NotificationID) error {
	existing, err := c.store.FindApprovedApplication(ctx, schemeID, role)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil
	}
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to check approved applications")
	}
	if existing.ID == candidate {
		return nil
	}
	return dErrors.Newf(dErrors.CodeConflict,
		"scheme %s already has an approved %s application (%s)",
		schemeID, role.Display(), existing.ID)
}
