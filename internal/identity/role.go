package identity

import (
	"fmt"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Role is the authorization role carried by a Principal.
type Role string

const (
	RoleSuperAdmin       Role = "SUPER_ADMIN"
	RoleSuperAgencyAdmin Role = "SUPER_AGENCY_ADMIN"
	RoleAgencyAdmin      Role = "AGENCY_ADMIN"
	RoleBranchAdmin      Role = "BRANCH_ADMIN"
	RoleBranchUser       Role = "BRANCH_USER"
	RoleSupport          Role = "SUPPORT"
)

var allRoles = []Role{
	RoleSuperAdmin,
	RoleSuperAgencyAdmin,
	RoleAgencyAdmin,
	RoleBranchAdmin,
	RoleBranchUser,
	RoleSupport,
}

// AllRoles returns every known role in declaration order.
func AllRoles() []Role {
	out := make([]Role, len(allRoles))
	copy(out, allRoles)
	return out
}

// ParseRole normalises raw input into a Role.
func ParseRole(raw string) (Role, error) {
	role := Role(strings.ToUpper(strings.TrimSpace(raw)))
	if !role.Valid() {
		return "", fmt.Errorf("identity: unknown role %q", raw)
	}
	return role, nil
}

// Valid reports whether r is one of the declared roles.
func (r Role) Valid() bool {
	for _, known := range allRoles {
		if r == known {
			return true
		}
	}
	return false
}

// Label renders the role for display, e.g. "Branch Admin".
func (r Role) Label() string {
	return cases.Title(language.English).String(strings.ReplaceAll(strings.ToLower(string(r)), "_", " "))
}

func (r Role) String() string {
	return string(r)
}

// RoleSet is an ordered set of roles. An empty set means unrestricted where
// the caller documents it so.
type RoleSet []Role

// Roles builds a RoleSet.
func Roles(roles ...Role) RoleSet {
	return RoleSet(roles)
}

// Has reports whether role is a member of the set.
func (s RoleSet) Has(role Role) bool {
	for _, r := range s {
		if r == role {
			return true
		}
	}
	return false
}

// Empty reports whether the set has no members.
func (s RoleSet) Empty() bool {
	return len(s) == 0
}

// Except returns every declared role that is not in exclude.
func Except(exclude ...Role) RoleSet {
	skip := RoleSet(exclude)
	out := make(RoleSet, 0, len(allRoles))
	for _, r := range allRoles {
		if !skip.Has(r) {
			out = append(out, r)
		}
	}
	return out
}
