package model

import "time"

// Plan はテナントの契約プランを表す。
type Plan string

const (
	// PlanFree はノート数に上限があるプラン。
	PlanFree Plan = "FREE"
	// PlanPro はノート数が無制限のプラン。
	PlanPro Plan = "PRO"
)

// DefaultFreeNoteLimit はFREEプランのデフォルトのノート上限数。
const DefaultFreeNoteLimit = 3

// Tenant はユーザーとノートを所有する組織を表す。
// SlugはURLで使用され、全テナントで一意。
type Tenant struct {
	ID        string
	Slug      string
	Name      string
	Plan      Plan
	NoteLimit *int // nilは無制限
	CreatedAt time.Time
}

// Unlimited はノート数が無制限かどうかを返す。
func (t *Tenant) Unlimited() bool {
	return t.NoteLimit == nil
}
