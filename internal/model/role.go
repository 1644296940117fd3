package model

import "strings"

// Role is the canonical member category used by every layer of the engine.
// Storage keeps a human-readable label per role; the translation between the
// two lives in Label and RoleFromLabel and nowhere else.
type Role string

const (
	RoleAdmin      Role = "ADMIN"      // facility administrator
	RolePrincipal  Role = "PRINCIPAL"  // account holder
	RoleDependent  Role = "DEPENDENT"  // family member under a principal
	RoleIndividual Role = "INDIVIDUAL" // independent private swimmer
)

// Roles lists every valid role in a stable order.
var Roles = []Role{RoleAdmin, RolePrincipal, RoleDependent, RoleIndividual}

// Valid reports whether r is one of the closed set of roles.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RolePrincipal, RoleDependent, RoleIndividual:
		return true
	}
	return false
}

// Privileged reports whether the role may book privileged hours.
func (r Role) Privileged() bool {
	return r == RoleAdmin || r == RolePrincipal
}

// Label returns the category label persisted in the members and
// reservations tables.
func (r Role) Label() string {
	switch r {
	case RoleAdmin:
		return "Administrador"
	case RolePrincipal:
		return "Principal"
	case RoleDependent:
		return "Dependiente"
	default:
		return "Individual"
	}
}

// RoleFromLabel maps a stored category label (or a role code) back to the
// canonical role. Unknown values fall back to RoleIndividual.
func RoleFromLabel(label string) Role {
	v := strings.ToUpper(strings.TrimSpace(label))
	switch {
	case strings.Contains(v, "ADMIN"):
		return RoleAdmin
	case strings.Contains(v, "PRINCIPAL"):
		return RolePrincipal
	case strings.Contains(v, "DEPENDENT"), strings.Contains(v, "DEPENDIENTE"):
		return RoleDependent
	}
	return RoleIndividual
}

// ParseRole accepts only canonical role codes.
func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToUpper(strings.TrimSpace(s)))
	return r, r.Valid()
}
