package auth

import "fmt"

// Role is a closed enumeration of account privilege levels.
type Role string

// Platform roles, ordered by privilege.
const (
	// RoleUser is the base role with no administrative access.
	RoleUser Role = "USER"
	// RoleAdmin may manage users and logs.
	RoleAdmin Role = "ADMIN"
	// RoleDeveloper may additionally manage tokens and platform settings.
	RoleDeveloper Role = "DEVELOPER"
	// RoleOwner holds every privilege.
	RoleOwner Role = "OWNER"
)

// roleRank is the single privilege-ordering table. Every comparison in the
// authorization engine goes through it.
var roleRank = map[Role]int{
	RoleUser:      0,
	RoleAdmin:     1,
	RoleDeveloper: 2,
	RoleOwner:     3,
}

// Valid reports whether the role is one of the enumerated values.
func (r Role) Valid() bool {
	_, ok := roleRank[r]
	return ok
}

// Rank returns the privilege rank of the role, -1 for unknown roles.
func (r Role) Rank() int {
	rank, ok := roleRank[r]
	if !ok {
		return -1
	}
	return rank
}

// AtLeast reports whether the role has at least the privilege of other.
// Unknown roles never satisfy any requirement.
func (r Role) AtLeast(other Role) bool {
	if !r.Valid() || !other.Valid() {
		return false
	}
	return r.Rank() >= other.Rank()
}

// Outranks reports whether the role has strictly higher privilege than other.
func (r Role) Outranks(other Role) bool {
	if !r.Valid() || !other.Valid() {
		return false
	}
	return r.Rank() > other.Rank()
}

// ParseRole validates a role string.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if !role.Valid() {
		return "", fmt.Errorf("unknown role %q", s)
	}
	return role, nil
}
