package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/hitoshi/tenantnotes/internal/model"
)

// TokenTTL はアイデンティティトークンの有効期間。
// Cookieの Max-Age（28800秒）と一致させる。
const TokenTTL = 8 * time.Hour

// トークン検証失敗の理由。
// 呼び出し側の制御フローでは区別せず、ログ出力にのみ使用する。
var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenMalformed = fmt.Errorf("%w: malformed", ErrInvalidToken)
	ErrTokenSignature = fmt.Errorf("%w: signature mismatch", ErrInvalidToken)
	ErrTokenExpired   = fmt.Errorf("%w: expired", ErrInvalidToken)
	ErrTokenClaims    = fmt.Errorf("%w: missing claims", ErrInvalidToken)
)

// Identity はトークン発行時に埋め込むユーザー情報。
type Identity struct {
	UserID   string
	TenantID string
	Role     model.Role
	Email    string
}

// ClaimSet は検証済みトークンから取り出したクレーム。
type ClaimSet struct {
	UserID    string
	TenantID  string
	Role      model.Role
	Email     string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// tokenClaims はJWTのペイロード。キー名は既存クライアントと互換のcamelCase。
type tokenClaims struct {
	UserID   string `json:"userId"`
	TenantID string `json:"tenantId"`
	Role     string `json:"role"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// TokenVerifier はトークン検証のみを必要とするコンポーネント向けのインターフェース。
type TokenVerifier interface {
	Verify(token string) (ClaimSet, error)
}

// TokenCodecOption はTokenCodecの生成オプション。
type TokenCodecOption func(*TokenCodec)

// WithLeeway は有効期限判定に許容するクロックスキューを設定する。デフォルトは0。
func WithLeeway(d time.Duration) TokenCodecOption {
	return func(c *TokenCodec) {
		c.leeway = d
	}
}

// WithClock は現在時刻の取得関数を差し替える。テスト用。
func WithClock(now func() time.Time) TokenCodecOption {
	return func(c *TokenCodec) {
		c.now = now
	}
}

// TokenCodec はHS256署名付きのアイデンティティトークンを発行・検証する。
// 署名鍵はプロセス起動時に一度だけ設定され、以後変更されない。
// 複数のgoroutineから同時に使用してよい。
type TokenCodec struct {
	secret []byte
	ttl    time.Duration
	leeway time.Duration
	now    func() time.Time
	parser *jwt.Parser
}

// NewTokenCodec はTokenCodecを生成する。
// 署名鍵が空の場合は設定ミスとしてエラーを返す。
func NewTokenCodec(secret []byte, opts ...TokenCodecOption) (*TokenCodec, error) {
	if len(secret) == 0 {
		return nil, fmt.Errorf("token signing secret must not be empty")
	}

	c := &TokenCodec{
		secret: append([]byte(nil), secret...),
		ttl:    TokenTTL,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.parser = jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(c.leeway),
		jwt.WithTimeFunc(c.now),
		jwt.WithStrictDecoding(),
	)

	return c, nil
}

// Issue は指定されたユーザー情報を埋め込んだトークンを発行する。
// 有効期間は発行時刻から8時間。
func (c *TokenCodec) Issue(id Identity) (string, error) {
	if id.UserID == "" || id.TenantID == "" {
		return "", fmt.Errorf("user ID and tenant ID are required")
	}

	now := c.now()
	claims := tokenClaims{
		UserID:   id.UserID,
		TenantID: id.TenantID,
		Role:     string(id.Role),
		Email:    id.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(c.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return signed, nil
}

// Verify はトークンの署名と有効期限を検証し、クレームを返す。
// 失敗時はErrInvalidTokenをラップしたエラーを返す。panicはしない。
func (c *TokenCodec) Verify(token string) (ClaimSet, error) {
	claims := &tokenClaims{}
	_, err := c.parser.ParseWithClaims(token, claims, func(t *jwt.Token) (interface{}, error) {
		return c.secret, nil
	})
	if err != nil {
		return ClaimSet{}, classifyParseError(err)
	}

	if claims.UserID == "" || claims.TenantID == "" {
		return ClaimSet{}, ErrTokenClaims
	}

	cs := ClaimSet{
		UserID:   claims.UserID,
		TenantID: claims.TenantID,
		Role:     model.Role(claims.Role),
		Email:    claims.Email,
	}
	if claims.IssuedAt != nil {
		cs.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		cs.ExpiresAt = claims.ExpiresAt.Time
	}
	return cs, nil
}

// classifyParseError はjwtライブラリのエラーを検証失敗の理由に分類する。
func classifyParseError(err error) error {
	switch {
	case errors.Is(err, jwt.ErrTokenExpired):
		return ErrTokenExpired
	case errors.Is(err, jwt.ErrTokenSignatureInvalid), errors.Is(err, jwt.ErrTokenUnverifiable):
		return ErrTokenSignature
	default:
		return fmt.Errorf("%w: %v", ErrTokenMalformed, err)
	}
}

// compile-time interface check
var _ TokenVerifier = (*TokenCodec)(nil)
