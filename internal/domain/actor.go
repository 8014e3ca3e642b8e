package domain

import (
	"github.com/google/uuid"
)

// Role is the single role a user holds in the back office
type Role string

const (
	RoleAdmin      Role = "Admin"
	RoleManager    Role = "Manager"
	RoleSales      Role = "Sales"
	RoleTechnician Role = "Technician"
	RoleNotAssign  Role = "NOT_ASSIGN"
)

// AllRoles lists every role in display order
var AllRoles = []Role{RoleAdmin, RoleManager, RoleSales, RoleTechnician, RoleNotAssign}

// IsValid checks if the role is a known value
func (r Role) IsValid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleSales, RoleTechnician, RoleNotAssign:
		return true
	}
	return false
}

// Actor is the authenticated caller. Every authorization decision receives
// one explicitly; nothing reads it from global state.
type Actor struct {
	ID           uuid.UUID
	Role         Role
	DepartmentID *uuid.UUID
	Email        string
	DisplayName  string
}

// SystemActorID identifies calls made with the integration API key
var SystemActorID = uuid.Nil

// IsSystem reports whether the actor is the API key integration identity
func (a Actor) IsSystem() bool {
	return a.ID == SystemActorID && a.Role == RoleAdmin
}

// SameDepartment reports whether both departments are set and equal
func SameDepartment(a, b *uuid.UUID) bool {
	if a == nil || b == nil {
		return false
	}
	return *a == *b
}

// Identity is what the identity provider asserts about a caller before it is
// matched to a stored user.
type Identity struct {
	Subject     string
	Email       string
	DisplayName string
}
