// Package audit captures the decision trail. Events are emitted from the
// approval engine and fanned out to stores or a Kafka topic; they are
// observational only and never gate the business operation.
package audit

import (
	"context"
	"time"

	id "agrifund/pkg/domain"
)

// Action names what the authority did.
type Action string

const (
	ActionRegistrationDecided      Action = "registration_decided"
	ActionSchemeApplicationDecided Action = "scheme_application_decided"
	ActionNotificationAcknowledged Action = "notification_acknowledged"
	ActionNotificationResolved     Action = "notification_resolved"
)

// Event is one decision-trail entry. Keep it transport-agnostic so stores
// and sinks can fan out.
type Event struct {
	Timestamp      time.Time         `json:"timestamp"`
	Action         Action            `json:"action"`
	ActorRole      id.Role           `json:"actor_role"`
	NotificationID id.NotificationID `json:"notification_id"`
	TenantID       id.TenantID       `json:"tenant_id,omitempty"`
	SchemeID       id.SchemeID       `json:"scheme_id,omitempty"`
	Decision       string            `json:"decision,omitempty"`
	Reason         string            `json:"reason,omitempty"`
	RequestID      string            `json:"request_id,omitempty"`
}

// Store persists events for later inspection.
type Store interface {
	Append(ctx context.Context, event Event) error
	ListByNotification(ctx context.Context, nid id.NotificationID) ([]Event, error)
}

// Publisher emits events to an external sink. Implementations must be safe
// for concurrent use; a nil Publisher is treated as disabled everywhere.
type Publisher interface {
	Emit(ctx context.Context, event Event) error
	Close() error
}
