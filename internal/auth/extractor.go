package auth

import (
	"errors"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
)

// TokenCookieName はアイデンティティトークンを保持するCookieの名前。
const TokenCookieName = "token"

// Extractor はリクエストヘッダーからトークンを取り出し、検証済みのクレームに変換する。
//
// 取り出し順序（最初に見つかったものを採用）:
//  1. Authorization: Bearer <token>（スキームは大文字小文字を区別しない）
//  2. Cookie "token"（URLデコードに失敗した場合は生の値を使う）
//
// 候補トークンの検証に失敗した場合は「アイデンティティなし」を返す。
// 失敗理由（不正形式・期限切れ等）はログにのみ出力し、呼び出し側には区別させない。
type Extractor struct {
	verifier TokenVerifier
	logger   *slog.Logger
}

// NewExtractor はExtractorを生成する。loggerがnilの場合はslog.Default()を使う。
func NewExtractor(verifier TokenVerifier, logger *slog.Logger) *Extractor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Extractor{verifier: verifier, logger: logger}
}

// Extract はヘッダーからクレームを取り出す。有効なアイデンティティが無い場合はfalseを返す。
// http.Headerはキーが正規化されているため、ヘッダー名の大文字小文字は区別されない。
func (e *Extractor) Extract(h http.Header) (ClaimSet, bool) {
	token, source := candidateToken(h)
	if token == "" {
		return ClaimSet{}, false
	}

	claims, err := e.verifier.Verify(token)
	if err != nil {
		e.logger.Debug("token rejected",
			slog.String("source", source),
			slog.String("reason", rejectReason(err)),
		)
		return ClaimSet{}, false
	}
	return claims, true
}

// FromRequest はリクエストからクレームを取り出す。
func (e *Extractor) FromRequest(r *http.Request) (ClaimSet, bool) {
	return e.Extract(r.Header)
}

// candidateToken は検証対象のトークンとその取得元を返す。
// Bearer形式のAuthorizationヘッダーがあれば、検証結果に関わらずそれを採用する。
func candidateToken(h http.Header) (string, string) {
	if authz := h.Get("Authorization"); authz != "" {
		parts := strings.Split(authz, " ")
		if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") && parts[1] != "" {
			return parts[1], "bearer"
		}
	}

	// Cookieヘッダーの解析はnet/httpに任せる
	req := http.Request{Header: h}
	cookie, err := req.Cookie(TokenCookieName)
	if err != nil || cookie.Value == "" {
		return "", ""
	}
	if decoded, err := url.PathUnescape(cookie.Value); err == nil {
		return decoded, "cookie"
	}
	return cookie.Value, "cookie"
}

// rejectReason はログ出力用の失敗理由を返す。
func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrTokenExpired):
		return "expired"
	case errors.Is(err, ErrTokenSignature):
		return "signature"
	case errors.Is(err, ErrTokenClaims):
		return "claims"
	default:
		return "malformed"
	}
}
