package identity

import "strings"

// Role is the tag carried in the token's "type" claim.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleTrainer Role = "trainer"
)

// Roles lists every role in the order login probes them.
var Roles = []Role{RoleAdmin, RoleTrainer}

func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleTrainer
}

// Table returns the table that holds identities of this role.
func (r Role) Table() string {
	switch r {
	case RoleAdmin:
		return "admins"
	case RoleTrainer:
		return "trainers"
	}
	return ""
}

func (r Role) String() string { return string(r) }

func ParseRole(s string) (Role, bool) {
	r := Role(strings.ToLower(strings.TrimSpace(s)))
	return r, r.Valid()
}
