// Package models defines the notification aggregate and its payload union.
package models

import (
	"time"

	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
)

// LifecycleStatus tracks what happened to a notification after delivery.
// It starts unset, moves to read when opened, and settles on a decision
// outcome. Transitions past a terminal value are not guarded; the authority
// may re-decide a notification to correct a mistake.
type LifecycleStatus string

const (
	LifecycleUnset    LifecycleStatus = ""
	LifecycleRead     LifecycleStatus = "read"
	LifecycleApproved LifecycleStatus = "approved"
	LifecycleRejected LifecycleStatus = "rejected"
	LifecycleIgnored  LifecycleStatus = "ignored"
)

// ApplicantSnapshot denormalizes applicant display fields at submission
// time. Never mutated after creation.
type ApplicantSnapshot struct {
	Name        string `json:"name,omitempty"`
	CompanyName string `json:"company_name,omitempty"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	DocumentURL string `json:"document_url,omitempty"`
}

// Notification is one entry in the portal's notification log.
//
// Invariants:
//   - TargetRole is fixed at creation; routing never changes it
//   - ReceivedAt is immutable; it drives recency ordering
//   - Viewed moves false→true exactly once (setting it again is a no-op)
//   - Payload is exactly one union variant, or nil for a bare notice
type Notification struct {
	ID         id.NotificationID `json:"id"`
	Origin     string            `json:"origin"` // sender display label
	TargetRole id.Role           `json:"target_role"`
	Message    string            `json:"message"`
	ReceivedAt time.Time         `json:"received_at"`
	Viewed     bool              `json:"viewed"`
	Lifecycle  LifecycleStatus   `json:"lifecycle,omitempty"`
	Applicant  ApplicantSnapshot `json:"applicant,omitempty"`
	Payload    Payload           `json:"-"` // serialized via the kind envelope
}

// NewNotification builds a notification addressed to targetRole.
func NewNotification(nid id.NotificationID, origin string, targetRole id.Role, message string, now time.Time) (*Notification, error) {
	if nid.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "notification id must be set")
	}
	if !targetRole.IsValid() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "invalid target role: %q", targetRole)
	}
	if message == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "notification message cannot be empty")
	}
	return &Notification{
		ID:         nid,
		Origin:     origin,
		TargetRole: targetRole,
		Message:    message,
		ReceivedAt: now,
	}, nil
}

// MarkViewed sets the viewed flag and advances the lifecycle from unset to
// read. Idempotent: re-opening is a no-op.
func (n *Notification) MarkViewed() {
	n.Viewed = true
	if n.Lifecycle == LifecycleUnset {
		n.Lifecycle = LifecycleRead
	}
}

// TenantID returns the applicant tenant the notification is scoped to, if
// its payload carries one. The feed projection uses this as the
// multi-tenancy boundary for non-authority viewers.
func (n *Notification) TenantID() (id.TenantID, bool) {
	switch p := n.Payload.(type) {
	case *RegistrationPayload:
		return p.ApplicantID, !p.ApplicantID.IsNil()
	case *RegistrationResponsePayload:
		return p.ApplicantID, !p.ApplicantID.IsNil()
	case *SchemeApplicationPayload:
		return p.ApplicantID, !p.ApplicantID.IsNil()
	case *SchemeResponsePayload:
		return p.ApplicantID, !p.ApplicantID.IsNil()
	default:
		return id.TenantID{}, false
	}
}

// Clone returns a deep copy so store reads never alias store internals.
func (n *Notification) Clone() *Notification {
	cp := *n
	if n.Payload != nil {
		cp.Payload = n.Payload.clone()
	}
	return &cp
}
