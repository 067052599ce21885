package approval

import (
	"fmt"

	id "agrifund/pkg/domain"
)

// postApprovalInstruction is the fixed per-role instruction attached to an
// approved scheme application response.
var postApprovalInstruction = map[id.Role]string{
	id.RoleFundProvider: "Proceed to pay the approved PFI branch for this scheme.",
	id.RolePFI:          "Prepare to receive and disburse scheme funds.",
	id.RoleAnchor:       "You will receive payments under this scheme.",
	id.RoleLeadFirm:     "You will receive payments under this scheme.",
	id.RoleProducer:     "You will receive payments under this scheme.",
}

// registrationApprovedMessage templates the response for a verified
// registration.
func registrationApprovedMessage(category id.Role) string {
	return fmt.Sprintf(
		"Your %s registration has been approved. You now have full access to the portal.",
		category.Display(),
	)
}

// registrationRejectedMessage templates the response for a rejected
// registration, embedding the trimmed reason.
func registrationRejectedMessage(category id.Role, reason string) string {
	return fmt.Sprintf(
		"Your %s registration has been rejected. Reason: %s. Please correct your submission and register again.",
		category.Display(), reason,
	)
}

// schemeApprovedMessage templates the response for an approved scheme
// application.
func schemeApprovedMessage(schemeName, instruction string) string {
	msg := fmt.Sprintf("Your application to scheme %q has been approved.", schemeName)
	if instruction != "" {
		msg += " " + instruction
	}
	return msg
}

// schemeRejectedMessage templates the response for a rejected scheme
// application.
func schemeRejectedMessage(schemeName, reason string) string {
	msg := fmt.Sprintf("Your application to scheme %q has been rejected.", schemeName)
	if reason != "" {
		msg += " Reason: " + reason + "."
	}
	return msg
}
