// Package domain holds shared domain primitives: strongly typed identifiers
// and the portal role enumeration. Keeping these in one leaf package lets
// every module agree on types without import cycles.
package domain

import (
	"github.com/google/uuid"

	dErrors "agrifund/pkg/domain-errors"
)

// Typed IDs prevent accidental cross-assignment between entity identifiers.
// All IDs are UUIDs under the hood; parsing enforces validity at trust
// boundaries so the rest of the code can assume well-formed values.
type (
	// NotificationID identifies one notification record.
	NotificationID uuid.UUID

	// TenantID identifies one applicant registration record (the "tenant"
	// of a role-segmented portal session).
	TenantID uuid.UUID

	// SchemeID identifies one funding scheme.
	SchemeID uuid.UUID

	// SessionID identifies one review session held by the authority.
	SessionID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be empty")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.Wrap(err, dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

// ParseNotificationID validates and returns a NotificationID.
func ParseNotificationID(s string) (NotificationID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return NotificationID{}, err
	}
	return NotificationID(u), nil
}

// ParseTenantID validates and returns a TenantID.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(u), nil
}

// ParseSchemeID validates and returns a SchemeID.
func ParseSchemeID(s string) (SchemeID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SchemeID{}, err
	}
	return SchemeID(u), nil
}

// ParseSessionID validates and returns a SessionID.
func ParseSessionID(s string) (SessionID, error) {
	u, err := parseUUID(s)
	if err != nil {
		return SessionID{}, err
	}
	return SessionID(u), nil
}

// NewNotificationID returns a fresh random NotificationID.
func NewNotificationID() NotificationID { return NotificationID(uuid.New()) }

// NewTenantID returns a fresh random TenantID.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// NewSchemeID returns a fresh random SchemeID.
func NewSchemeID() SchemeID { return SchemeID(uuid.New()) }

// NewSessionID returns a fresh random SessionID.
func NewSessionID() SessionID { return SessionID(uuid.New()) }

func (n NotificationID) String() string { return uuid.UUID(n).String() }
func (t TenantID) String() string       { return uuid.UUID(t).String() }
func (s SchemeID) String() string       { return uuid.UUID(s).String() }
func (s SessionID) String() string      { return uuid.UUID(s).String() }

func (n NotificationID) IsNil() bool { return uuid.UUID(n) == uuid.Nil }
func (t TenantID) IsNil() bool       { return uuid.UUID(t) == uuid.Nil }
func (s SchemeID) IsNil() bool       { return uuid.UUID(s) == uuid.Nil }
func (s SessionID) IsNil() bool      { return uuid.UUID(s) == uuid.Nil }

// MarshalText lets typed IDs round-trip through JSON object values and map
// keys without custom codecs on every model.
func (n NotificationID) MarshalText() ([]byte, error) { return []byte(n.String()), nil }
func (t TenantID) MarshalText() ([]byte, error)       { return []byte(t.String()), nil }
func (s SchemeID) MarshalText() ([]byte, error)       { return []byte(s.String()), nil }
func (s SessionID) MarshalText() ([]byte, error)      { return []byte(s.String()), nil }

func (n *NotificationID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*n = NotificationID(u)
	return nil
}

func (t *TenantID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*t = TenantID(u)
	return nil
}

func (s *SchemeID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*s = SchemeID(u)
	return nil
}

func (s *SessionID) UnmarshalText(b []byte) error {
	u, err := uuid.Parse(string(b))
	if err != nil {
		return err
	}
	*s = SessionID(u)
	return nil
}
