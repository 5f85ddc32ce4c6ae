// Package seed はYAMLフィクスチャからテナントとユーザーを投入する。
// 投入は冪等で、既存のテナント・ユーザーは変更しない。
package seed

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"

	"gopkg.in/yaml.v2"

	"github.com/hitoshi/tenantnotes/internal/auth"
	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/hitoshi/tenantnotes/internal/repository"
)

//go:embed seed.yaml
var defaultFixture []byte

// Fixture は投入データ全体。
type Fixture struct {
	Tenants []TenantFixture `yaml:"tenants"`
}

// TenantFixture はテナント1件分の投入データ。
type TenantFixture struct {
	Slug      string        `yaml:"slug"`
	Name      string        `yaml:"name"`
	Plan      string        `yaml:"plan"`
	NoteLimit *int          `yaml:"note_limit"`
	Users     []UserFixture `yaml:"users"`
}

// UserFixture はユーザー1件分の投入データ。
type UserFixture struct {
	Email    string `yaml:"email"`
	Role     string `yaml:"role"`
	Password string `yaml:"password"`
}

// Result は投入件数。
type Result struct {
	Tenants      int
	UsersCreated int
	UsersSkipped int
}

// Load はフィクスチャを読み込む。pathが空の場合は組み込みのフィクスチャを使う。
func Load(path string) (*Fixture, error) {
	data := defaultFixture
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
		data = b
	}
	return Parse(data)
}

// Parse はYAMLをFixtureに変換し、内容を検証する。
func Parse(data []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("failed to parse seed file: %w", err)
	}
	if err := f.validate(); err != nil {
		return nil, err
	}
	return &f, nil
}

func (f *Fixture) validate() error {
	for i, t := range f.Tenants {
		if t.Slug == "" || t.Name == "" {
			return fmt.Errorf("tenants[%d]: slug and name are required", i)
		}
		if t.Plan != "" && t.Plan != string(model.PlanFree) && t.Plan != string(model.PlanPro) {
			return fmt.Errorf("tenants[%d]: invalid plan %q", i, t.Plan)
		}
		for j, u := range t.Users {
			if u.Email == "" || u.Password == "" {
				return fmt.Errorf("tenants[%d].users[%d]: email and password are required", i, j)
			}
			if _, ok := model.ParseRole(u.Role); !ok {
				return fmt.Errorf("tenants[%d].users[%d]: invalid role %q", i, j, u.Role)
			}
		}
	}
	return nil
}

// Seeder はFixtureをリポジトリへ投入する。
type Seeder struct {
	tenants repository.TenantRepository
	users   repository.UserRepository
	hasher  auth.PasswordHasher
}

// NewSeeder はSeederを生成する。
func NewSeeder(tenants repository.TenantRepository, users repository.UserRepository, hasher auth.PasswordHasher) *Seeder {
	return &Seeder{tenants: tenants, users: users, hasher: hasher}
}

// Apply はFixtureを投入する。何度実行しても結果は同じになる。
func (s *Seeder) Apply(ctx context.Context, f *Fixture) (*Result, error) {
	res := &Result{}
	for _, tf := range f.Tenants {
		t, err := s.tenants.Upsert(ctx, tenantFrom(tf))
		if err != nil {
			return nil, fmt.Errorf("failed to upsert tenant %s: %w", tf.Slug, err)
		}
		res.Tenants++

		for _, uf := range tf.Users {
			hash, err := s.hasher.Hash(uf.Password)
			if err != nil {
				return nil, err
			}
			role, _ := model.ParseRole(uf.Role)
			created, err := s.users.CreateIfAbsent(ctx, &model.User{
				TenantID:     t.ID,
				Email:        uf.Email,
				PasswordHash: hash,
				Role:         role,
			})
			if err != nil {
				return nil, fmt.Errorf("failed to create user %s: %w", uf.Email, err)
			}
			if created {
				res.UsersCreated++
			} else {
				res.UsersSkipped++
			}
		}

		slog.Info("tenant seeded", slog.String("slug", t.Slug), slog.String("tenant_id", t.ID))
	}
	return res, nil
}

func tenantFrom(tf TenantFixture) *model.Tenant {
	plan := model.Plan(tf.Plan)
	if plan == "" {
		plan = model.PlanFree
	}
	limit := tf.NoteLimit
	if plan == model.PlanPro {
		limit = nil
	} else if limit == nil {
		n := model.DefaultFreeNoteLimit
		limit = &n
	}
	return &model.Tenant{
		Slug:      tf.Slug,
		Name:      tf.Name,
		Plan:      plan,
		NoteLimit: limit,
	}
}
