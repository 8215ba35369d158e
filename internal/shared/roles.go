package shared

import (
	"fmt"
	"strings"
)

// Role is the closed set of account roles.
type Role string

const (
	// RoleIntern uploads documents and belongs to a batch.
	RoleIntern Role = "INTERN"
	// RoleMentor guides a batch.
	RoleMentor Role = "MENTOR"
	// RoleHR administers accounts.
	RoleHR Role = "HR"
	// RoleCEO administers accounts.
	RoleCEO Role = "CEO"
)

// AllRoles lists every role in display order.
func AllRoles() []Role {
	return []Role{RoleIntern, RoleMentor, RoleHR, RoleCEO}
}

// ParseRole normalises raw input into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleIntern, RoleMentor, RoleHR, RoleCEO:
		return true
	default:
		return false
	}
}

// IsAdmin reports whether r may manage accounts and documents.
func (r Role) IsAdmin() bool {
	switch r {
	case RoleHR, RoleCEO:
		return true
	default:
		return false
	}
}

// TakesBatch reports whether accounts with role r may reference a batch.
func (r Role) TakesBatch() bool {
	switch r {
	case RoleIntern, RoleMentor:
		return true
	default:
		return false
	}
}

func (r Role) String() string { return string(r) }
