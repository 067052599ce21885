//go:build go1.18

package domain

import (
	"testing"

	"github.com/google/uuid"
)

// FuzzParseNotificationID checks that parsing never panics on arbitrary
// input and returns either a usable ID or an error, never both.
func FuzzParseNotificationID(f *testing.F) {
	f.Add("")
	f.Add("550e8400-e29b-41d4-a716-446655440000")
	f.Add("00000000-0000-0000-0000-000000000000")
	f.Add("not-a-uuid")
	f.Add("'; DROP TABLE notifications;--")
	f.Add(string([]byte{0x00, 0x01, 0x02}))
	f.Add("550e8400-e29b-41d4-a716-446655440000\x00suffix")

	f.Fuzz(func(t *testing.T, input string) {
		nid, err := ParseNotificationID(input)

		if err == nil {
			if nid.IsNil() {
				t.Errorf("parse accepted %q but produced a nil ID", input)
			}
			// A successful parse must survive a round trip.
			reparsed, rerr := ParseNotificationID(nid.String())
			if rerr != nil {
				t.Errorf("round trip of %q failed: %v", input, rerr)
			}
			if reparsed != nid {
				t.Errorf("round trip of %q changed the ID", input)
			}
		} else if nid != NotificationID(uuid.Nil) {
			t.Errorf("parse of %q errored but returned a non-zero ID", input)
		}
	})
}
