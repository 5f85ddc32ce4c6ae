// Package model はドメインモデルを定義する。
package model

import (
	"errors"
	"fmt"
)

// APIError は認可層・サービス層からハンドラーへ返す型付きエラー。
// Messageはそのままレスポンスの {"error": ...} に使われるため、
// 内部情報（どのクレームで検証が失敗したか等）を含めてはならない。
type APIError struct {
	Code    string // エラーコード。HTTPステータスへのマッピングに使う
	Message string // ユーザー向けメッセージ
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeForbidden          = "FORBIDDEN"
	ErrCodeTenantNotFound     = "TENANT_NOT_FOUND"
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeStoreUnavailable   = "STORE_UNAVAILABLE"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeUpgradeForbidden   = "UPGRADE_FORBIDDEN"
	ErrCodeNoteLimitReached   = "NOTE_LIMIT_REACHED"
	ErrCodeNoteNotFound       = "NOTE_NOT_FOUND"
	ErrCodeUserExists         = "USER_EXISTS"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を表す。
// リポジトリ層が返し、サービス層でUSER_EXISTSに変換する。
var ErrDuplicateEmail = errors.New("email already exists")

// ErrCreatorNotFound はノート作成者のユーザーが既に存在しないことを表す。
var ErrCreatorNotFound = errors.New("note creator does not exist")

// NewUnauthorizedError はトークンが無い・無効・期限切れの場合のエラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{Code: ErrCodeUnauthorized, Message: "Unauthorized"}
}

// NewForbiddenError はテナント不一致または権限不足のエラーを生成する。
func NewForbiddenError() *APIError {
	return &APIError{Code: ErrCodeForbidden, Message: "Forbidden"}
}

// NewTenantNotFoundError はトークンが参照するテナントが存在しない場合のエラーを生成する。
func NewTenantNotFoundError() *APIError {
	return &APIError{Code: ErrCodeTenantNotFound, Message: "Tenant not found"}
}

// NewValidationError はリクエストボディが不正な場合のエラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{Code: ErrCodeValidation, Message: message}
}

// NewStoreUnavailableError はデータストアへの問い合わせが失敗した場合のエラーを生成する。
// 「テナントが存在しない」とは区別して扱う。
func NewStoreUnavailableError() *APIError {
	return &APIError{Code: ErrCodeStoreUnavailable, Message: "Service unavailable"}
}

// NewInvalidCredentialsError はログイン時の認証失敗エラーを生成する。
// メールアドレスが存在しない場合とパスワード不一致の場合を区別しない。
func NewInvalidCredentialsError() *APIError {
	return &APIError{Code: ErrCodeInvalidCredentials, Message: "Invalid credentials"}
}

// NewUpgradeForbiddenError は管理者以外がプラン変更を試みた場合のエラーを生成する。
func NewUpgradeForbiddenError() *APIError {
	return &APIError{Code: ErrCodeUpgradeForbidden, Message: "Only Admins can upgrade"}
}

// NewNoteLimitReachedError はテナントのノート上限に達した場合のエラーを生成する。
func NewNoteLimitReachedError() *APIError {
	return &APIError{Code: ErrCodeNoteLimitReached, Message: "Note limit reached"}
}

// NewNoteNotFoundError はノートが存在しない、または他テナントのノートの場合のエラーを生成する。
func NewNoteNotFoundError() *APIError {
	return &APIError{Code: ErrCodeNoteNotFound, Message: "Not found"}
}

// NewUserExistsError は招待先メールアドレスが既に登録済みの場合のエラーを生成する。
func NewUserExistsError() *APIError {
	return &APIError{Code: ErrCodeUserExists, Message: "User already exists"}
}
