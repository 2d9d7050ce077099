package domain

// Role enumerates the copropriété escalation chain plus the two
// privileged roles.
type Role string

const (
	RolePending         Role = "pending"
	RoleProprietaire    Role = "proprietaire"
	RoleConseilSyndical Role = "conseil_syndical"
	RoleSyndic          Role = "syndicat_copropriete"
	RoleASL             Role = "asl"
	RoleSuperadmin      Role = "superadmin"
)

// chainRank orders the four chain roles; privileged roles sit outside it.
var chainRank = map[Role]int{
	RoleProprietaire:    0,
	RoleConseilSyndical: 1,
	RoleSyndic:          2,
	RoleASL:             3,
}

// escalationChain lists the chain in ascending order.
var escalationChain = []Role{RoleProprietaire, RoleConseilSyndical, RoleSyndic, RoleASL}

// IsPrivileged reports whether the role sees and may address everything.
func (r Role) IsPrivileged() bool {
	return r == RoleASL || r == RoleSuperadmin
}

// InChain reports whether the role participates in the escalation chain.
func (r Role) InChain() bool {
	_, ok := chainRank[r]
	return ok
}

// Outranks reports strict ordering between two chain roles. It returns
// false when either role is outside the chain.
func (r Role) Outranks(other Role) bool {
	a, ok := chainRank[r]
	if !ok {
		return false
	}
	b, ok := chainRank[other]
	if !ok {
		return false
	}
	return a > b
}

// AllowedDestinations returns the recipient roles a source role may address
// when creating or transferring a ticket. Chain roles may only address the
// next role up; ASL and superadmin may address any chain role. Pending (and
// any unknown role) may address nothing.
func AllowedDestinations(source Role) []Role {
	if source.IsPrivileged() {
		dests := make([]Role, len(escalationChain))
		copy(dests, escalationChain)
		return dests
	}
	rank, ok := chainRank[source]
	if !ok || rank >= len(escalationChain)-1 {
		return nil
	}
	return []Role{escalationChain[rank+1]}
}

// CanAddress reports whether source may set target as a ticket recipient.
func CanAddress(source, target Role) bool {
	for _, dest := range AllowedDestinations(source) {
		if dest == target {
			return true
		}
	}
	return false
}
