// Package security はユーザー入力の無害化を提供する。
//
// ノートのタイトルと本文はプレーンテキストとして保存する。
// 入力に含まれるHTMLタグはbluemondayの許可リストなしポリシーで除去し、
// エスケープされた文字はテキストとして復元する。
package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer はユーザー入力をプレーンテキストに変換するインターフェース。
type TextSanitizer interface {
	// SanitizeText はHTMLタグを除去したテキストを返す。
	// 前後の空白は取り除く。同一入力に対して常に同一出力を返す（冪等）。
	SanitizeText(raw string) string
}

// plainTextSanitizer はTextSanitizerの実装。
// bluemondayのポリシーはスレッドセーフに共有できる。
type plainTextSanitizer struct {
	policy *bluemonday.Policy
}

// NewPlainTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
// script、styleなどの要素は中身ごと除去される。
func NewPlainTextSanitizer() *plainTextSanitizer {
	return &plainTextSanitizer{
		policy: bluemonday.StrictPolicy(),
	}
}

// SanitizeText はHTMLタグを除去したテキストを返す。
func (s *plainTextSanitizer) SanitizeText(raw string) string {
	if raw == "" {
		return ""
	}
	cleaned := s.policy.Sanitize(raw)
	return strings.TrimSpace(html.UnescapeString(cleaned))
}

// compile-time interface check
var _ TextSanitizer = (*plainTextSanitizer)(nil)
