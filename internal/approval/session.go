// Package approval implements the notification review workflow: the
// per-review session state machine, the decision engine, and the
// single-winner constraint on scheme applications.
package approval

import (
	"strings"
	"time"

	"agrifund/internal/notification/models"
	id "agrifund/pkg/domain"
	dErrors "agrifund/pkg/domain-errors"
)

// Decision is the reviewer's choice.
type Decision string

const (
	DecisionUnset   Decision = ""
	DecisionApprove Decision = "approve"
	DecisionReject  Decision = "reject"
)

// ParseDecision validates a decision value.
func ParseDecision(s string) (Decision, error) {
	switch Decision(s) {
	case DecisionApprove:
		return DecisionApprove, nil
	case DecisionReject:
		return DecisionReject, nil
	default:
		return "", dErrors.Newf(dErrors.CodeBadRequest, "decision must be approve or reject, got %q", s)
	}
}

// State names the review session's position in the workflow.
type State string

const (
	StateClosed              State = "closed"
	StateOpen                State = "open"
	StateDecisionPending     State = "decision_pending"
	StateConfirmationPending State = "confirmation_pending"
	StateResolved            State = "resolved"
)

// Session is one reviewer's pass over one notification.
//
// State machine:
//
//	Closed → Open:                   notification selected, draft reset
//	Open → DecisionPending:          reviewer picked approve/reject
//	DecisionPending → ConfirmationPending: submission passed validation;
//	                                 every decision requires explicit
//	                                 confirmation before it is applied
//	ConfirmationPending → Resolved:  confirmed, engine ran
//	ConfirmationPending → Open:      cancelled; decision reset, remarks kept
//	ConfirmationPending → DecisionPending: engine aborted (conflict); the
//	                                 draft survives so the reviewer can act
//	                                 differently
//
// The draft is ephemeral and never persisted.
type Session struct {
	ID             id.SessionID
	NotificationID id.NotificationID
	State          State
	Decision       Decision
	Remarks        string
	OpenedAt       time.Time
}

// NewSession opens a review session for a notification with a fresh draft.
func NewSession(sid id.SessionID, nid id.NotificationID, now time.Time) *Session {
	return &Session{
		ID:             sid,
		NotificationID: nid,
		State:          StateOpen,
		Decision:       DecisionUnset,
		OpenedAt:       now,
	}
}

// CanSubmit validates a decision submission against the notification under
// review. The blocking rule: rejecting a registration requires non-blank,
// trimmed remarks. This is enforced before confirmation can be reached.
func (s *Session) CanSubmit(decision Decision, remarks string, n *models.Notification) error {
	if s.State != StateOpen && s.State != StateDecisionPending {
		return dErrors.Newf(dErrors.CodeConflict, "cannot submit a decision from state %q", s.State)
	}
	if decision != DecisionApprove && decision != DecisionReject {
		return dErrors.New(dErrors.CodeBadRequest, "a decision is required")
	}
	if decision == DecisionReject {
		if _, ok := n.Payload.(*models.RegistrationPayload); ok {
			if strings.TrimSpace(remarks) == "" {
				return dErrors.New(dErrors.CodeValidation, "a rejection reason is required")
			}
		}
	}
	return nil
}

// ApplySubmit records the draft and advances to ConfirmationPending. The
// draft is preserved across the transition, not discarded.
func (s *Session) ApplySubmit(decision Decision, remarks string) {
	s.Decision = decision
	s.Remarks = remarks
	s.State = StateConfirmationPending
}

// MarkDecisionPending parks the session at DecisionPending after a failed
// validation, mirroring the modal staying open for correction.
func (s *Session) MarkDecisionPending() {
	if s.State == StateOpen {
		s.State = StateDecisionPending
	}
}

// CanConfirm checks the session is awaiting confirmation.
func (s *Session) CanConfirm() error {
	if s.State != StateConfirmationPending {
		return dErrors.Newf(dErrors.CodeConflict, "cannot confirm from state %q", s.State)
	}
	return nil
}

// ApplyResolve terminates the session after the engine ran.
func (s *Session) ApplyResolve() {
	s.State = StateResolved
}

// ApplyConflict returns the session to DecisionPending with the draft
// intact after the engine aborted the decision.
func (s *Session) ApplyConflict() {
	s.State = StateDecisionPending
}

// CanCancel checks a confirmation is pending.
func (s *Session) CanCancel() error {
	if s.State != StateConfirmationPending {
		return dErrors.Newf(dErrors.CodeConflict, "cannot cancel from state %q", s.State)
	}
	return nil
}

// ApplyCancel returns to Open, resetting the decision but keeping remarks.
func (s *Session) ApplyCancel() {
	s.Decision = DecisionUnset
	s.State = StateOpen
}
