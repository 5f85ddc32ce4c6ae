package auth

import (
	"context"
	"errors"
	"testing"

	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// --- モック定義 ---

type mockUserFinder struct {
	findByEmailFn func(ctx context.Context, email string) (*model.User, error)
}

func (m *mockUserFinder) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	return m.findByEmailFn(ctx, email)
}

type mockHasher struct {
	hashFn  func(password string) (string, error)
	checkFn func(password, hash string) bool
}

func (m *mockHasher) Hash(password string) (string, error) {
	if m.hashFn != nil {
		return m.hashFn(password)
	}
	return "hashed:" + password, nil
}

func (m *mockHasher) Check(password, hash string) bool {
	if m.checkFn != nil {
		return m.checkFn(password, hash)
	}
	return hash == "hashed:"+password
}

type mockIssuer struct {
	issueFn func(id Identity) (string, error)
}

func (m *mockIssuer) Issue(id Identity) (string, error) {
	return m.issueFn(id)
}

func acmeAdmin() *model.User {
	return &model.User{
		ID:           "user-1",
		TenantID:     "tenant-acme",
		Email:        "admin@acme.test",
		PasswordHash: "hashed:password",
		Role:         model.RoleAdmin,
	}
}

func assertAPIErrorCode(t *testing.T, err error, code string) {
	t.Helper()
	var apiErr *model.APIError
	require.True(t, errors.As(err, &apiErr), "error should be *model.APIError, got %v", err)
	assert.Equal(t, code, apiErr.Code)
}

func TestService_Login_Success(t *testing.T) {
	var issued Identity
	svc := NewService(
		&mockUserFinder{findByEmailFn: func(_ context.Context, email string) (*model.User, error) {
			assert.Equal(t, "admin@acme.test", email)
			return acmeAdmin(), nil
		}},
		&mockHasher{},
		&mockIssuer{issueFn: func(id Identity) (string, error) {
			issued = id
			return "signed-token", nil
		}},
	)

	res, err := svc.Login(context.Background(), " admin@acme.test ", "password")
	require.NoError(t, err)
	assert.Equal(t, "signed-token", res.Token)
	assert.Equal(t, Identity{
		UserID:   "user-1",
		TenantID: "tenant-acme",
		Role:     model.RoleAdmin,
		Email:    "admin@acme.test",
	}, issued)
	assert.Equal(t, issued, res.Claims)
}

func TestService_Login_MissingInput(t *testing.T) {
	svc := NewService(
		&mockUserFinder{findByEmailFn: func(context.Context, string) (*model.User, error) {
			t.Fatal("store should not be queried")
			return nil, nil
		}},
		&mockHasher{},
		&mockIssuer{issueFn: func(Identity) (string, error) { return "", nil }},
	)

	for _, in := range [][2]string{{"", "password"}, {"admin@acme.test", ""}, {"  ", "x"}} {
		_, err := svc.Login(context.Background(), in[0], in[1])
		assertAPIErrorCode(t, err, model.ErrCodeValidation)
	}
}

func TestService_Login_UnknownUser_IsInvalidCredentials(t *testing.T) {
	checked := false
	svc := NewService(
		&mockUserFinder{findByEmailFn: func(context.Context, string) (*model.User, error) {
			return nil, nil
		}},
		&mockHasher{checkFn: func(string, string) bool {
			checked = true
			return false
		}},
		&mockIssuer{issueFn: func(Identity) (string, error) {
			t.Fatal("token should not be issued")
			return "", nil
		}},
	)

	_, err := svc.Login(context.Background(), "nobody@acme.test", "password")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
	assert.True(t, checked, "password check should run even for unknown users")
}

func TestService_Login_WrongPassword_IsInvalidCredentials(t *testing.T) {
	svc := NewService(
		&mockUserFinder{findByEmailFn: func(context.Context, string) (*model.User, error) {
			return acmeAdmin(), nil
		}},
		&mockHasher{},
		&mockIssuer{issueFn: func(Identity) (string, error) {
			t.Fatal("token should not be issued")
			return "", nil
		}},
	)

	_, err := svc.Login(context.Background(), "admin@acme.test", "wrong")
	assertAPIErrorCode(t, err, model.ErrCodeInvalidCredentials)
}

func TestService_Login_StoreError_IsStoreUnavailable(t *testing.T) {
	svc := NewService(
		&mockUserFinder{findByEmailFn: func(context.Context, string) (*model.User, error) {
			return nil, errors.New("connection refused")
		}},
		&mockHasher{},
		&mockIssuer{issueFn: func(Identity) (string, error) { return "", nil }},
	)

	_, err := svc.Login(context.Background(), "admin@acme.test", "password")
	assertAPIErrorCode(t, err, model.ErrCodeStoreUnavailable)
}

func TestService_Login_IssueError_IsInternal(t *testing.T) {
	svc := NewService(
		&mockUserFinder{findByEmailFn: func(context.Context, string) (*model.User, error) {
			return acmeAdmin(), nil
		}},
		&mockHasher{},
		&mockIssuer{issueFn: func(Identity) (string, error) {
			return "", errors.New("sign failed")
		}},
	)

	_, err := svc.Login(context.Background(), "admin@acme.test", "password")
	require.Error(t, err)
	var apiErr *model.APIError
	assert.False(t, errors.As(err, &apiErr))
}
