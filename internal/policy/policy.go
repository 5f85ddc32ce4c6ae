// Package policy はロールと操作の組から許可・拒否を決める認可ポリシーを提供する。
// I/Oを持たない純粋関数のみで構成する。
package policy

import "github.com/hitoshi/tenantnotes/internal/model"

// Action はテナント内で行われる操作の種別。
type Action string

const (
	ActionReadNote          Action = "readNote"
	ActionListNotes         Action = "listNotes"
	ActionCreateNote        Action = "createNote"
	ActionUpdateNote        Action = "updateNote"
	ActionDeleteNote        Action = "deleteNote"
	ActionInviteUser        Action = "inviteUser"
	ActionUpgradeTenantPlan Action = "upgradeTenantPlan"
)

// Actions は定義済みの全操作を返す。
func Actions() []Action {
	return []Action{
		ActionReadNote,
		ActionListNotes,
		ActionCreateNote,
		ActionUpdateNote,
		ActionDeleteNote,
		ActionInviteUser,
		ActionUpgradeTenantPlan,
	}
}

// Allow はroleがactionを実行できるかを返す。
// テナントの一致はtenancy.Binderが保証済みであることを前提とする。
// 未定義の操作は常に拒否する。
func Allow(role model.Role, action Action) bool {
	switch action {
	case ActionReadNote, ActionListNotes:
		// テナントにバインドされた利用者であれば参照できる
		return true
	case ActionCreateNote, ActionUpdateNote, ActionDeleteNote:
		return role == model.RoleAdmin || role == model.RoleMember
	case ActionInviteUser, ActionUpgradeTenantPlan:
		return role == model.RoleAdmin
	default:
		return false
	}
}
