package model

import "time"

// Note はテナントに属するノートを表す。
type Note struct {
	ID        string
	TenantID  string
	Title     string
	Content   string
	CreatedBy string // 作成したユーザーのID
	CreatedAt time.Time
	UpdatedAt time.Time
}

// NoteUpdate はノートの部分更新内容を表す。nilのフィールドは変更しない。
type NoteUpdate struct {
	Title   *string
	Content *string
}
