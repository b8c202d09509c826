package entitlement

import (
	"testing"

	"github.com/engtoolshub/engtools-backend/internal/models"
)

func TestRoleAtLeast(t *testing.T) {
	cases := []struct {
		userRole string
		required string
		want     bool
	}{
		{models.RoleBasic, models.RoleBasic, true},
		{models.RoleBasic, models.RoleTool, false},
		{models.RoleBasic, models.RoleMaster, false},
		{models.RoleTool, models.RoleBasic, true},
		{models.RoleTool, models.RoleTool, true},
		{models.RoleTool, models.RoleMaster, false},
		{models.RoleMaster, models.RoleBasic, true},
		{models.RoleMaster, models.RoleTool, true},
		{models.RoleMaster, models.RoleMaster, true},
		{models.RoleAdmin, models.RoleMaster, true},
		{models.RoleAdmin, models.RoleBasic, true},
		{"garbage", models.RoleBasic, false},
		{models.RoleMaster, "garbage", false},
	}

	for _, tc := range cases {
		if got := RoleAtLeast(tc.userRole, tc.required); got != tc.want {
			t.Errorf("RoleAtLeast(%q, %q) = %v, want %v", tc.userRole, tc.required, got, tc.want)
		}
	}
}

// Master-level tools must be reachable by exactly E-MASTER and admin.
func TestMasterToolAccessProperty(t *testing.T) {
	tool := &models.Tool{AccessLevel: models.RoleMaster}
	for _, role := range []string{models.RoleBasic, models.RoleTool, models.RoleMaster, models.RoleAdmin} {
		user := &models.User{Role: role}
		want := role == models.RoleMaster || role == models.RoleAdmin
		if got := HasToolAccess(user, tool); got != want {
			t.Errorf("role %s: HasToolAccess = %v, want %v", role, got, want)
		}
	}
}

func TestNextRole(t *testing.T) {
	if got := NextRole(models.RoleBasic); got != models.RoleTool {
		t.Errorf("NextRole(E-BASIC) = %s", got)
	}
	if got := NextRole(models.RoleTool); got != models.RoleMaster {
		t.Errorf("NextRole(E-TOOL) = %s", got)
	}
	if got := NextRole(models.RoleMaster); got != models.RoleMaster {
		t.Errorf("NextRole(E-MASTER) = %s", got)
	}
}

func TestNormalizeCPF(t *testing.T) {
	cases := map[string]string{
		"123.456.789-09": "12345678909",
		"12345678909":    "12345678909",
		" 111 222 ":      "111222",
		"abc":            "",
		"":               "",
	}
	for in, want := range cases {
		if got := NormalizeCPF(in); got != want {
			t.Errorf("NormalizeCPF(%q) = %q, want %q", in, got, want)
		}
	}
}
