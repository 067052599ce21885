package domain

import (
	"strings"

	dErrors "agrifund/pkg/domain-errors"
)

// Role is a portal role. One coordinating authority plus nine
// applicant/beneficiary categories.
type Role string

const (
	RoleAuthority             Role = "authority"
	RoleFundProvider          Role = "fund-provider"
	RoleInsuranceCompany      Role = "insurance-company"
	RoleCooperativeGroup      Role = "cooperative-group"
	RoleExtensionOrganization Role = "extension-organization"
	RolePFI                   Role = "pfi"
	RoleAnchor                Role = "anchor"
	RoleLeadFirm              Role = "lead-firm"
	RoleProducer              Role = "producer"
	RoleResearcher            Role = "researcher"
)

var roleDisplay = map[Role]string{
	RoleAuthority:             "Scheme Coordinating Authority",
	RoleFundProvider:          "Fund Provider",
	RoleInsuranceCompany:      "Insurance Company",
	RoleCooperativeGroup:      "Cooperative Group",
	RoleExtensionOrganization: "Extension Organization",
	RolePFI:                   "Participating Financial Institution",
	RoleAnchor:                "Anchor",
	RoleLeadFirm:              "Lead Firm",
	RoleProducer:              "Producer",
	RoleResearcher:            "Researcher",
}

// ParseRole validates and returns a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := roleDisplay[r]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role: %q", s)
	}
	return r, nil
}

// RoleForDisplay resolves a human display label back to its role. The
// approval engine needs this because scheme applications carry the sender's
// display label, not the enum value.
func RoleForDisplay(label string) (Role, bool) {
	label = strings.TrimSpace(label)
	for r, d := range roleDisplay {
		if strings.EqualFold(d, label) {
			return r, true
		}
	}
	return "", false
}

func (r Role) String() string { return string(r) }

// Display returns the human-readable label for the role.
func (r Role) Display() string { return roleDisplay[r] }

// IsAuthority reports whether this is the coordinating authority role.
func (r Role) IsAuthority() bool { return r == RoleAuthority }

// IsValid reports whether the role is one of the fixed enum values.
func (r Role) IsValid() bool {
	_, ok := roleDisplay[r]
	return ok
}

// ApplicantRoles returns the nine non-authority roles in a stable order.
func ApplicantRoles() []Role {
	return []Role{
		RoleFundProvider,
		RoleInsuranceCompany,
		RoleCooperativeGroup,
		RoleExtensionOrganization,
		RolePFI,
		RoleAnchor,
		RoleLeadFirm,
		RoleProducer,
		RoleResearcher,
	}
}

// singleWinnerRoles are the beneficiary categories for which at most one
// scheme application may hold an approved status per scheme.
var singleWinnerRoles = map[Role]struct{}{
	RolePFI:      {},
	RoleAnchor:   {},
	RoleLeadFirm: {},
	RoleProducer: {},
}

// IsSingleWinner reports whether the role competes for a single approved
// application slot per scheme.
func (r Role) IsSingleWinner() bool {
	_, ok := singleWinnerRoles[r]
	return ok
}

// portalPrefixes maps each role to its fixed portal path prefix. Prefixes
// are disjoint by construction, so at most one role matches a given path.
var portalPrefixes = []struct {
	prefix string
	role   Role
}{
	{"/portal/authority", RoleAuthority},
	{"/portal/fund-provider", RoleFundProvider},
	{"/portal/insurance-company", RoleInsuranceCompany},
	{"/portal/cooperative-group", RoleCooperativeGroup},
	{"/portal/extension-organization", RoleExtensionOrganization},
	{"/portal/pfi", RolePFI},
	{"/portal/anchor", RoleAnchor},
	{"/portal/lead-firm", RoleLeadFirm},
	{"/portal/producer", RoleProducer},
	{"/portal/researcher", RoleResearcher},
}

// RoleForPath resolves the acting role from a request path by
// longest-prefix match. Returns false when no portal prefix matches;
// downstream consumers treat that as "no identity" and render nothing.
func RoleForPath(path string) (Role, bool) {
	best := ""
	var bestRole Role
	for _, p := range portalPrefixes {
		if !strings.HasPrefix(path, p.prefix) {
			continue
		}
		// A prefix match must end at a path boundary so /portal/pfi does
		// not claim /portal/pfi-something.
		rest := path[len(p.prefix):]
		if rest != "" && rest[0] != '/' {
			continue
		}
		if len(p.prefix) > len(best) {
			best = p.prefix
			bestRole = p.role
		}
	}
	if best == "" {
		return "", false
	}
	return bestRole, true
}
