package models

import (
	"encoding/json"
	"fmt"

	id "agrifund/pkg/domain"
)

// PayloadKind discriminates the payload union.
type PayloadKind string

const (
	KindRegistration         PayloadKind = "registration"
	KindRegistrationResponse PayloadKind = "registration_response"
	KindSchemeApplication    PayloadKind = "scheme_application"
	KindSchemeResponse       PayloadKind = "scheme_response"
)

// Payload is the sealed union of notification shapes. A notification is
// registration-shaped or scheme-application-shaped or bare (nil payload),
// never ambiguous between the parsers.
type Payload interface {
	Kind() PayloadKind
	clone() Payload
}

// ApplicationStatus is the review status of a scheme application.
type ApplicationStatus string

const (
	ApplicationPending  ApplicationStatus = "pending"
	ApplicationApproved ApplicationStatus = "approved"
	ApplicationRejected ApplicationStatus = "rejected"
)

// RegistrationForm is the multi-step form capture submitted with a
// registration. Opaque to the approval engine; rendered by the review UI.
type RegistrationForm struct {
	Steps map[string]map[string]string `json:"steps,omitempty"`
}

func (f *RegistrationForm) clone() *RegistrationForm {
	if f == nil {
		return nil
	}
	cp := &RegistrationForm{Steps: make(map[string]map[string]string, len(f.Steps))}
	for step, fields := range f.Steps {
		inner := make(map[string]string, len(fields))
		for k, v := range fields {
			inner[k] = v
		}
		cp.Steps[step] = inner
	}
	return cp
}

// RegistrationPayload marks a new-entity sign-up awaiting the authority's
// verify/reject decision. One payload type covers all nine applicant
// categories via Category.
type RegistrationPayload struct {
	Category    id.Role           `json:"category"`
	ApplicantID id.TenantID       `json:"applicant_id"`
	Form        *RegistrationForm `json:"form,omitempty"`
}

func (p *RegistrationPayload) Kind() PayloadKind { return KindRegistration }
func (p *RegistrationPayload) clone() Payload {
	cp := *p
	cp.Form = p.Form.clone()
	return &cp
}

// RegistrationResponsePayload is the authority's answer to a registration,
// addressed back to the applicant role and back-linked to the original
// notification.
type RegistrationResponsePayload struct {
	Category              id.Role           `json:"category"`
	ApplicantID           id.TenantID       `json:"applicant_id"`
	RelatedNotificationID id.NotificationID `json:"related_notification_id"`
	Approved              bool              `json:"approved"`
}

func (p *RegistrationResponsePayload) Kind() PayloadKind { return KindRegistrationResponse }
func (p *RegistrationResponsePayload) clone() Payload {
	cp := *p
	return &cp
}

// SchemeApplicationPayload marks an applicant's request to participate in a
// funding scheme. Status is the only mutable field; the winner check queries
// it across the store.
type SchemeApplicationPayload struct {
	SchemeID      id.SchemeID       `json:"scheme_id"`
	SchemeName    string            `json:"scheme_name"`
	ApplicantRole id.Role           `json:"applicant_role"`
	ApplicantID   id.TenantID       `json:"applicant_id"`
	Status        ApplicationStatus `json:"status"`
}

func (p *SchemeApplicationPayload) Kind() PayloadKind { return KindSchemeApplication }
func (p *SchemeApplicationPayload) clone() Payload {
	cp := *p
	return &cp
}

// SchemeResponsePayload is the authority's answer to a scheme application.
// MirrorRegistrationResponse lets the fund-provider portal render the
// response through the same path as registration responses.
type SchemeResponsePayload struct {
	SchemeID                   id.SchemeID       `json:"scheme_id"`
	SchemeName                 string            `json:"scheme_name"`
	ApplicantRole              id.Role           `json:"applicant_role"`
	ApplicantID                id.TenantID       `json:"applicant_id"`
	RelatedNotificationID      id.NotificationID `json:"related_notification_id"`
	Approved                   bool              `json:"approved"`
	Instruction                string            `json:"instruction,omitempty"`
	MirrorRegistrationResponse bool              `json:"mirror_registration_response,omitempty"`
}

func (p *SchemeResponsePayload) Kind() PayloadKind { return KindSchemeResponse }
func (p *SchemeResponsePayload) clone() Payload {
	cp := *p
	return &cp
}

// payloadEnvelope is the persisted form: a kind tag plus the raw variant.
type payloadEnvelope struct {
	Kind PayloadKind     `json:"kind"`
	Data json.RawMessage `json:"data"`
}

// notificationAlias strips Notification's methods so the custom codecs can
// reuse the standard struct encoding without recursing.
type notificationAlias Notification

// notificationJSON is the wire/storage form of Notification; the payload
// travels inside a tagged envelope.
type notificationJSON struct {
	notificationAlias
	PayloadEnvelope *payloadEnvelope `json:"payload,omitempty"`
}

// MarshalJSON encodes the notification with its payload in a kind envelope.
func (n *Notification) MarshalJSON() ([]byte, error) {
	out := notificationJSON{notificationAlias: notificationAlias(*n)}
	if n.Payload != nil {
		data, err := json.Marshal(n.Payload)
		if err != nil {
			return nil, err
		}
		out.PayloadEnvelope = &payloadEnvelope{Kind: n.Payload.Kind(), Data: data}
	}
	return json.Marshal(out)
}

// UnmarshalJSON decodes the envelope back into the right payload variant.
// Unknown kinds are an error, not silently dropped: a store holding data a
// newer version wrote must not reinterpret it as a bare notification.
func (n *Notification) UnmarshalJSON(b []byte) error {
	var in notificationJSON
	if err := json.Unmarshal(b, &in); err != nil {
		return err
	}
	*n = Notification(in.notificationAlias)
	if in.PayloadEnvelope == nil {
		n.Payload = nil
		return nil
	}
	p, err := DecodePayload(in.PayloadEnvelope.Kind, in.PayloadEnvelope.Data)
	if err != nil {
		return err
	}
	n.Payload = p
	return nil
}

// DecodePayload resolves a kind tag to its payload variant and decodes the
// raw data into it. Unknown kinds are an error, never a silent drop.
func DecodePayload(kind PayloadKind, data json.RawMessage) (Payload, error) {
	var p Payload
	switch kind {
	case KindRegistration:
		p = &RegistrationPayload{}
	case KindRegistrationResponse:
		p = &RegistrationResponsePayload{}
	case KindSchemeApplication:
		p = &SchemeApplicationPayload{}
	case KindSchemeResponse:
		p = &SchemeResponsePayload{}
	default:
		return nil, fmt.Errorf("unknown payload kind: %q", kind)
	}
	if err := json.Unmarshal(data, p); err != nil {
		return nil, err
	}
	return p, nil
}
