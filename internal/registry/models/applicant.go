// Package models defines the applicant registration aggregate.
package models

import (
	"strings"
	"time"

	notifmodels "agrifund/internal/notification/models"
	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
)

// RegistrationStatus is the verification state of an applicant record.
type RegistrationStatus string

const (
	// StatusPending: submitted, awaiting the authority's decision.
	StatusPending RegistrationStatus = "pending"
	// StatusVerified: approved; the applicant has full portal access.
	StatusVerified RegistrationStatus = "verified"
	// StatusUnverified: rejected; the applicant must resubmit.
	StatusUnverified RegistrationStatus = "unverified"
)

// IsValid reports whether the status is one of the fixed values.
func (s RegistrationStatus) IsValid() bool {
	switch s {
	case StatusPending, StatusVerified, StatusUnverified:
		return true
	}
	return false
}

// Applicant is one applicant-category registration record: the "tenant" of a
// portal session.
//
// Invariants:
//   - Category is one of the nine applicant roles, never the authority
//   - Name is non-empty
//   - RejectionReason is set only while Status is unverified
//   - PendingNotificationID back-references the registration notification
//     awaiting review and is cleared by any decision
type Applicant struct {
	ID                    id.TenantID        `json:"id"`
	Category              id.Role            `json:"category"`
	Name                  string             `json:"name"`
	CompanyName           string             `json:"company_name,omitempty"`
	Email                 string             `json:"email,omitempty"`
	Phone                 string             `json:"phone,omitempty"`
	DocumentURL           string             `json:"document_url,omitempty"`
	Status                RegistrationStatus `json:"status"`
	RejectionReason       string             `json:"rejection_reason,omitempty"`
	PendingNotificationID id.NotificationID  `json:"pending_notification_id,omitempty"`
	CreatedAt             time.Time          `json:"created_at"`
	UpdatedAt             time.Time          `json:"updated_at"`
}

// NewApplicant constructs a pending applicant record.
func NewApplicant(tenantID id.TenantID, category id.Role, name string, now time.Time) (*Applicant, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "applicant name cannot be empty")
	}
	if !category.IsValid() || category.IsAuthority() {
		return nil, dErrors.Newf(dErrors.CodeInvariantViolation, "invalid applicant category: %q", category)
	}
	return &Applicant{
		ID:        tenantID,
		Category:  category,
		Name:      name,
		Status:    StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// IsVerified reports whether the applicant holds full portal access.
func (a *Applicant) IsVerified() bool { return a.Status == StatusVerified }

// ApplyVerification marks the applicant verified and clears any rejection
// residue and the pending notification back-reference.
func (a *Applicant) ApplyVerification(now time.Time) {
	a.Status = StatusVerified
	a.RejectionReason = ""
	a.PendingNotificationID = id.NotificationID{}
	a.UpdatedAt = now
}

// ApplyRejection marks the applicant unverified with the given reason and
// clears the pending notification back-reference.
func (a *Applicant) ApplyRejection(reason string, now time.Time) {
	a.Status = StatusUnverified
	a.RejectionReason = strings.TrimSpace(reason)
	a.PendingNotificationID = id.NotificationID{}
	a.UpdatedAt = now
}

// Snapshot returns the denormalized display fields carried on notifications
// at submission time.
func (a *Applicant) Snapshot() notifmodels.ApplicantSnapshot {
	return notifmodels.ApplicantSnapshot{
		Name:        a.Name,
		CompanyName: a.CompanyName,
		Email:       a.Email,
		Phone:       a.Phone,
		DocumentURL: a.DocumentURL,
	}
}
