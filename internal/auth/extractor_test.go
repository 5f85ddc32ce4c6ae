package auth

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/tenantnotes/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestExtractor(t *testing.T) (*Extractor, *TokenCodec, *fixedClock) {
	t.Helper()
	clock := &fixedClock{t: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	codec := newTestCodec(t, clock)
	return NewExtractor(codec, nil), codec, clock
}

func issue(t *testing.T, codec *TokenCodec, id Identity) string {
	t.Helper()
	token, err := codec.Issue(id)
	require.NoError(t, err)
	return token
}

func TestExtractor_BearerHeader(t *testing.T) {
	ex, codec, _ := newTestExtractor(t)
	token := issue(t, codec, testIdentity())

	for _, scheme := range []string{"Bearer", "bearer", "BEARER", "bEaReR"} {
		h := http.Header{}
		h.Set("Authorization", scheme+" "+token)

		claims, ok := ex.Extract(h)
		require.True(t, ok, "scheme %q", scheme)
		assert.Equal(t, "user-1", claims.UserID)
	}
}

func TestExtractor_HeaderNameIsCaseInsensitive(t *testing.T) {
	ex, codec, _ := newTestExtractor(t)
	token := issue(t, codec, testIdentity())

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("AUTHORIZATION", "Bearer "+token)

	_, ok := ex.FromRequest(req)
	assert.True(t, ok)
}

func TestExtractor_TokenCookie(t *testing.T) {
	ex, codec, _ := newTestExtractor(t)
	token := issue(t, codec, testIdentity())

	req := httptest.NewRequest(http.MethodGet, "/notes", nil)
	req.AddCookie(&http.Cookie{Name: "other", Value: "x"})
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: token})

	claims, ok := ex.FromRequest(req)
	require.True(t, ok)
	assert.Equal(t, "tenant-acme", claims.TenantID)
}

func TestExtractor_URLEncodedCookie(t *testing.T) {
	ex, codec, _ := newTestExtractor(t)
	token := issue(t, codec, testIdentity())

	encoded := strings.ReplaceAll(token, ".", "%2E")
	require.NotEqual(t, token, encoded)

	h := http.Header{}
	h.Set("Cookie", "token="+encoded)

	claims, ok := ex.Extract(h)
	require.True(t, ok)
	assert.Equal(t, "user-1", claims.UserID)
}

func TestExtractor_UndecodableCookie_FallsBackToRawValue(t *testing.T) {
	ex := NewExtractor(&stubVerifier{
		verifyFn: func(token string) (ClaimSet, error) {
			if token == "raw%zzvalue" {
				return ClaimSet{UserID: "u", TenantID: "t"}, nil
			}
			return ClaimSet{}, ErrTokenMalformed
		},
	}, nil)

	h := http.Header{}
	h.Set("Cookie", "token=raw%zzvalue")

	claims, ok := ex.Extract(h)
	require.True(t, ok)
	assert.Equal(t, "u", claims.UserID)
}

func TestExtractor_BearerTakesPrecedenceOverCookie(t *testing.T) {
	ex, codec, _ := newTestExtractor(t)
	headerToken := issue(t, codec, Identity{UserID: "from-header", TenantID: "t1", Role: model.RoleMember})
	cookieToken := issue(t, codec, Identity{UserID: "from-cookie", TenantID: "t2", Role: model.RoleAdmin})

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer "+headerToken)
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: cookieToken})

	claims, ok := ex.FromRequest(req)
	require.True(t, ok)
	assert.Equal(t, "from-header", claims.UserID)
}

func TestExtractor_InvalidBearer_DoesNotFallBackToCookie(t *testing.T) {
	ex, codec, _ := newTestExtractor(t)
	cookieToken := issue(t, codec, testIdentity())

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	req.Header.Set("Authorization", "Bearer garbage")
	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: cookieToken})

	_, ok := ex.FromRequest(req)
	assert.False(t, ok)
}

func TestExtractor_NonBearerAuthorization_UsesCookie(t *testing.T) {
	ex, codec, _ := newTestExtractor(t)
	cookieToken := issue(t, codec, testIdentity())

	for _, authz := range []string{"Basic dXNlcjpwYXNz", "Bearer", "Bearer a b", "Token abc"} {
		req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
		req.Header.Set("Authorization", authz)
		req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: cookieToken})

		_, ok := ex.FromRequest(req)
		assert.True(t, ok, "authorization %q", authz)
	}
}

func TestExtractor_NoToken(t *testing.T) {
	ex, _, _ := newTestExtractor(t)

	req := httptest.NewRequest(http.MethodGet, "/api/notes", nil)
	_, ok := ex.FromRequest(req)
	assert.False(t, ok)

	req.AddCookie(&http.Cookie{Name: TokenCookieName, Value: ""})
	_, ok = ex.FromRequest(req)
	assert.False(t, ok)
}

func TestExtractor_ExpiredToken_IsNoIdentity(t *testing.T) {
	ex, codec, clock := newTestExtractor(t)
	token := issue(t, codec, testIdentity())

	clock.t = clock.t.Add(TokenTTL)

	h := http.Header{}
	h.Set("Authorization", "Bearer "+token)
	_, ok := ex.Extract(h)
	assert.False(t, ok)
}

// stubVerifier はTokenVerifierのテスト用実装。
type stubVerifier struct {
	verifyFn func(token string) (ClaimSet, error)
}

func (s *stubVerifier) Verify(token string) (ClaimSet, error) {
	return s.verifyFn(token)
}
