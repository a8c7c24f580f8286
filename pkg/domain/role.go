package domain

import dErrors "bloodline/pkg/domain-errors"

// Role is the acting role attached to a pre-authenticated caller.
// Invariant: the value must be one of the supported roles.
//
// Usage: construct via ParseRole at trust boundaries (token claims, request
// headers); direct casting bypasses validation.
type Role string

// Supported roles. The mapping to workflow permissions lives in the status
// registry, not here.
const (
	// RoleMember is a donor/requester using the member app surface.
	RoleMember Role = "member"
	// RoleNurse performs donations and post-donation monitoring.
	RoleNurse Role = "nurse"
	// RoleManager approves registrations and runs fulfillment/distribution.
	RoleManager Role = "manager"
	// RoleAdmin may perform administrative overrides such as cancellation.
	RoleAdmin Role = "admin"
)

var validRoles = map[Role]bool{
	RoleMember:  true,
	RoleNurse:   true,
	RoleManager: true,
	RoleAdmin:   true,
}

// ParseRole constructs a Role from external input.
// Errors: CodeInvalidInput when the value is empty or unsupported.
func ParseRole(s string) (Role, error) {
	if s == "" {
		return "", dErrors.New(dErrors.CodeInvalidInput, "role cannot be empty")
	}
	r := Role(s)
	if !validRoles[r] {
		return "", dErrors.New(dErrors.CodeInvalidInput, "invalid role")
	}
	return r, nil
}

// IsValid checks if the role is one of the supported enum values.
func (r Role) IsValid() bool {
	return validRoles[r]
}

// String returns the string representation of the role.
func (r Role) String() string {
	return string(r)
}
