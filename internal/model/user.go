// Package model はドメインモデルを定義する。
package model

import "time"

// Role はテナント内でのユーザーの権限を表す。
// ADMIN と MEMBER の2値のみを取る閉じた列挙型として扱う。
type Role string

const (
	// RoleAdmin はテナント管理者。招待とプラン変更が可能。
	RoleAdmin Role = "ADMIN"
	// RoleMember は一般メンバー。ノートの作成・更新・削除が可能。
	RoleMember Role = "MEMBER"
)

// IsValid は定義済みのロールかどうかを返す。
func (r Role) IsValid() bool {
	return r == RoleAdmin || r == RoleMember
}

// ParseRole は文字列をRoleに変換する。未定義のロールの場合はfalseを返す。
// 表記揺れ（"Admin" 等）は受け付けない。
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	if !r.IsValid() {
		return "", false
	}
	return r, true
}

// User はテナントに所属するユーザーを表す。
// Emailは全テナントを通じて一意。所属テナントは生涯変わらない。
type User struct {
	ID           string
	TenantID     string
	Email        string
	PasswordHash string
	Role         Role
	CreatedAt    time.Time
}
