// Package entity contains the core business objects of the project.
package entity

import "github.com/google/uuid"

// Role represents the type of role an account can have in the system.
type Role string

const (
	// RoleCustomer indicates a regular shopping customer.
	RoleCustomer Role = "customer"
	// RoleSupplier indicates a supplier account.
	RoleSupplier Role = "supplier"
	// RoleAdmin indicates an administrator.
	RoleAdmin Role = "admin"
	// RoleSuperAdmin indicates a super administrator.
	RoleSuperAdmin Role = "superadmin"
)

// String returns the string representation of the Role.
func (r Role) String() string {
	return string(r)
}

// IsValid checks if the Role is a valid value.
func (r Role) IsValid() bool {
	switch r {
	case RoleCustomer, RoleSupplier, RoleAdmin, RoleSuperAdmin:
		return true
	default:
		return false
	}
}

// IsStaff reports whether the role may bypass ownership checks.
func (r Role) IsStaff() bool {
	return r == RoleAdmin || r == RoleSuperAdmin
}

// Principal is the acting identity resolved by the delivery layer and
// passed explicitly into every operation, instead of re-querying roles
// from a mutable relation per request.
type Principal struct {
	ID   uuid.UUID
	Role Role
}

// IsAdmin reports whether the principal may act on resources it does not own.
func (p Principal) IsAdmin() bool {
	return p.Role.IsStaff()
}
