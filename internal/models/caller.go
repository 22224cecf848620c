package models

import "github.com/google/uuid"

type Role string

const (
	RoleMember Role = "member"
	RoleStaff  Role = "staff"
	RoleAdmin  Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleMember, RoleStaff, RoleAdmin:
		return true
	}
	return false
}

// Privileged roles may act on any member's bookings.
func (r Role) Privileged() bool {
	return r == RoleStaff || r == RoleAdmin
}

// Caller is the identity the auth gateway attached to the request.
type Caller struct {
	MemberID uuid.UUID
	Role     Role
}

// CanActFor reports whether the caller may read or change memberID's bookings.
// A member caller without an id acts for nobody.
func (c Caller) CanActFor(memberID uuid.UUID) bool {
	if c.Role.Privileged() {
		return true
	}
	return c.MemberID != uuid.Nil && c.MemberID == memberID
}
