package entitlement

import "github.com/engtoolshub/engtools-backend/internal/models"

// roleRanks orders the paid tiers. Admin is deliberately absent: it is a
// bypass, not a rank, and every check handles it explicitly.
var roleRanks = map[string]int{
	models.RoleBasic:  0,
	models.RoleTool:   1,
	models.RoleMaster: 2,
}

// RoleRank returns the position of a role in the E-BASIC < E-TOOL < E-MASTER
// order, or -1 for unknown roles (including admin).
func RoleRank(role string) int {
	if r, ok := roleRanks[role]; ok {
		return r
	}
	return -1
}

// RoleAtLeast reports whether userRole satisfies the required tier. Admin
// always satisfies; unknown user roles never do.
func RoleAtLeast(userRole, required string) bool {
	if userRole == models.RoleAdmin {
		return true
	}
	ur, rr := RoleRank(userRole), RoleRank(required)
	if ur < 0 || rr < 0 {
		return false
	}
	return ur >= rr
}

// NextRole returns the next tier on the escalation ladder
// (E-BASIC -> E-TOOL -> E-MASTER). E-MASTER and unknown roles map to
// themselves.
func NextRole(role string) string {
	switch role {
	case models.RoleBasic:
		return models.RoleTool
	case models.RoleTool:
		return models.RoleMaster
	default:
		return role
	}
}
