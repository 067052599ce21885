package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "agrifund/pkg/domain"
)

func newTestNotification(t *testing.T, payload Payload) *Notification {
	t.Helper()
	n, err := NewNotification(id.NewNotificationID(), id.RoleProducer.Display(), id.RoleAuthority, "registration submitted", time.Date(2026, 4, 1, 12, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	n.Payload = payload
	return n
}

func TestNotificationJSONCarriesKindEnvelope(t *testing.T) {
	n := newTestNotification(t, &RegistrationPayload{
		Category:    id.RoleProducer,
		ApplicantID: id.NewTenantID(),
		Form: &RegistrationForm{
			Steps: map[string]map[string]string{
				"contact": {"name": "Ada", "phone": "0800-000"},
				"farm":    {"crop": "rice"},
			},
		},
	})

	data, err := json.Marshal(n)
	require.NoError(t, err)

	var raw map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &raw))
	require.Contains(t, raw, "payload")

	var envelope struct {
		Kind string `json:"kind"`
	}
	require.NoError(t, json.Unmarshal(raw["payload"], &envelope))
	assert.Equal(t, "registration", envelope.Kind)
}

func TestNotificationRoundTripPerKind(t *testing.T) {
	tenant := id.NewTenantID()
	scheme := id.NewSchemeID()
	related := id.NewNotificationID()

	cases := map[string]Payload{
		"registration": &RegistrationPayload{
			Category:    id.RoleProducer,
			ApplicantID: tenant,
			Form:        &RegistrationForm{Steps: map[string]map[string]string{"contact": {"name": "Ada"}}},
		},
		"registration response": &RegistrationResponsePayload{
			Category:              id.RoleFundProvider,
			ApplicantID:           tenant,
			RelatedNotificationID: related,
			Approved:              true,
		},
		"scheme application": &SchemeApplicationPayload{
			SchemeID:      scheme,
			SchemeName:    "Dry Season Rice 2026",
			ApplicantRole: id.RolePFI,
			ApplicantID:   tenant,
			Status:        ApplicationPending,
		},
		"scheme response": &SchemeResponsePayload{
			SchemeID:                   scheme,
			SchemeName:                 "Dry Season Rice 2026",
			ApplicantRole:              id.RoleFundProvider,
			ApplicantID:                tenant,
			RelatedNotificationID:      related,
			Approved:                   true,
			Instruction:                "Proceed to pay the approved PFI branch for this scheme.",
			MirrorRegistrationResponse: true,
		},
		"bare": nil,
	}

	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			n := newTestNotification(t, payload)

			data, err := json.Marshal(n)
			require.NoError(t, err)

			var back Notification
			require.NoError(t, json.Unmarshal(data, &back))

			assert.Equal(t, n.ID, back.ID)
			assert.Equal(t, n.Message, back.Message)
			if payload == nil {
				assert.Nil(t, back.Payload)
			} else {
				assert.Equal(t, payload, back.Payload)
			}
		})
	}
}

func TestUnmarshalRejectsUnknownKind(t *testing.T) {
	n := newTestNotification(t, nil)
	data, err := json.Marshal(n)
	require.NoError(t, err)

	var doc map[string]json.RawMessage
	require.NoError(t, json.Unmarshal(data, &doc))
	doc["payload"] = json.RawMessage(`{"kind":"telegram","data":{}}`)
	tampered, err := json.Marshal(doc)
	require.NoError(t, err)

	var back Notification
	err = json.Unmarshal(tampered, &back)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown payload kind")
}

func TestCloneIsolatesPayload(t *testing.T) {
	n := newTestNotification(t, &RegistrationPayload{
		Category:    id.RoleProducer,
		ApplicantID: id.NewTenantID(),
		Form:        &RegistrationForm{Steps: map[string]map[string]string{"contact": {"name": "Ada"}}},
	})

	cp := n.Clone()
	cp.Payload.(*RegistrationPayload).Form.Steps["contact"]["name"] = "Eve"

	assert.Equal(t, "Ada", n.Payload.(*RegistrationPayload).Form.Steps["contact"]["name"])
}

func TestMarkViewedLifecycle(t *testing.T) {
	n := newTestNotification(t, nil)
	require.False(t, n.Viewed)
	require.Equal(t, LifecycleUnset, n.Lifecycle)

	n.MarkViewed()
	assert.True(t, n.Viewed)
	assert.Equal(t, LifecycleRead, n.Lifecycle)

	// A later lifecycle state survives re-viewing.
	n.Lifecycle = LifecycleApproved
	n.MarkViewed()
	assert.True(t, n.Viewed)
	assert.Equal(t, LifecycleApproved, n.Lifecycle)
}
