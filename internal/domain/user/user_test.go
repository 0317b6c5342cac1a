package user

import "testing"

func TestRoleCapabilities(t *testing.T) {
	cases := []struct {
		role Role
		cap  Capability
		want bool
	}{
		{RoleAdmin, CapViewOwnCases, true},
		{RoleAdmin, CapViewTeamCases, true},
		{RoleAdmin, CapManageCatalog, true},
		{RoleAdmin, CapManageUsers, true},

		{RoleSupervisor, CapViewTeamCases, true},
		{RoleSupervisor, CapViewOwnCases, false},
		{RoleSupervisor, CapManageCatalog, false},
		{RoleSupervisor, CapManageUsers, false},

		{RoleSurveyor, CapViewOwnCases, true},
		{RoleSurveyor, CapViewTeamCases, false},
		{RoleSurveyor, CapManageCatalog, false},
		{RoleSurveyor, CapManageUsers, false},

		{Role("GUEST"), CapViewOwnCases, false},
	}
	for _, c := range cases {
		if got := c.role.Can(c.cap); got != c.want {
			t.Errorf("%s.Can(%s) = %v, want %v", c.role, c.cap, got, c.want)
		}
	}
}
