package policy

import (
	"testing"

	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/stretchr/testify/assert"
)

func TestAllow(t *testing.T) {
	tests := []struct {
		role   model.Role
		action Action
		want   bool
	}{
		{model.RoleAdmin, ActionReadNote, true},
		{model.RoleAdmin, ActionListNotes, true},
		{model.RoleAdmin, ActionCreateNote, true},
		{model.RoleAdmin, ActionUpdateNote, true},
		{model.RoleAdmin, ActionDeleteNote, true},
		{model.RoleAdmin, ActionInviteUser, true},
		{model.RoleAdmin, ActionUpgradeTenantPlan, true},

		{model.RoleMember, ActionReadNote, true},
		{model.RoleMember, ActionListNotes, true},
		{model.RoleMember, ActionCreateNote, true},
		{model.RoleMember, ActionUpdateNote, true},
		{model.RoleMember, ActionDeleteNote, true},
		{model.RoleMember, ActionInviteUser, false},
		{model.RoleMember, ActionUpgradeTenantPlan, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.role)+"/"+string(tt.action), func(t *testing.T) {
			assert.Equal(t, tt.want, Allow(tt.role, tt.action))
		})
	}
}

func TestAllow_UnknownRole_CannotMutate(t *testing.T) {
	for _, role := range []model.Role{"", "Admin", "admin", "OWNER", "GUEST"} {
		assert.False(t, Allow(role, ActionCreateNote), "role %q", role)
		assert.False(t, Allow(role, ActionUpdateNote), "role %q", role)
		assert.False(t, Allow(role, ActionDeleteNote), "role %q", role)
		assert.False(t, Allow(role, ActionInviteUser), "role %q", role)
		assert.False(t, Allow(role, ActionUpgradeTenantPlan), "role %q", role)
	}
}

func TestAllow_UnknownAction_IsDenied(t *testing.T) {
	for _, role := range []model.Role{model.RoleAdmin, model.RoleMember, "OWNER"} {
		assert.False(t, Allow(role, Action("deleteTenant")))
		assert.False(t, Allow(role, Action("")))
	}
}

func TestAllow_IsTotalOverDefinedActions(t *testing.T) {
	roles := []model.Role{model.RoleAdmin, model.RoleMember, "", "OWNER"}
	for _, role := range roles {
		for _, action := range Actions() {
			// 同じ入力には常に同じ結果を返す
			assert.Equal(t, Allow(role, action), Allow(role, action))
		}
	}
	assert.Len(t, Actions(), 7)
}
