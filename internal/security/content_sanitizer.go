// Package security は出品コンテンツのサニタイズ機能を提供する。
//
// 商品のタイトルと説明文は出品者が自由入力するため、保存前に
// bluemondayの許可リストベースのポリシーでサニタイズする。
// タイトルはプレーンテキストのみ、説明文は限定的な整形タグのみ許可する。
package security

import (
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// ListingSanitizer は出品コンテンツのサニタイズ機能のインターフェースを定義する。
// 商品の作成・更新時に使用される。
type ListingSanitizer interface {
	// SanitizeTitle はタイトルから全てのHTMLタグを除去し、プレーンテキストを返す。
	// 同一入力に対して常に同一出力を返す（冪等）。
	SanitizeTitle(raw string) string

	// SanitizeDescription は説明文をサニタイズして安全なHTMLを返す。
	// 許可タグ（p, br, ul, ol, li, strong, em, code）のみを通過させ、
	// script, iframe, styleタグおよびon*イベント属性を除去する。
	// 空文字列の入力には空文字列を返す。
	SanitizeDescription(raw string) string
}

// listingSanitizer はListingSanitizerの実装。
// bluemondayのポリシーを保持し、スレッドセーフにサニタイズ処理を行う。
type listingSanitizer struct {
	title       *bluemonday.Policy
	description *bluemonday.Policy
}

// インターフェース実装の確認
var _ ListingSanitizer = (*listingSanitizer)(nil)

// NewListingSanitizer はListingSanitizerの新しいインスタンスを生成する。
// タイトル用には全タグを除去するStrictPolicy、説明文用には
// 整形タグのみ許可するカスタムポリシーを構築する。
func NewListingSanitizer() *listingSanitizer {
	desc := bluemonday.NewPolicy()

	// 整形タグのみ許可する。リンクと画像は許可しない
	// （クライアントが商品画像を別フィールドで扱うため、本文への埋め込みは不要）。
	// script, iframe, style等は許可リストに含めないことで自動的に除去される。
	desc.AllowElements(
		"p", "br", "ul", "ol", "li",
		"strong", "em", "code",
	)

	return &listingSanitizer{
		title:       bluemonday.StrictPolicy(),
		description: desc,
	}
}

// SanitizeTitle はタイトルから全てのHTMLタグを除去する。
func (s *listingSanitizer) SanitizeTitle(raw string) string {
	return strings.TrimSpace(s.title.Sanitize(raw))
}

// SanitizeDescription は説明文から許可外のタグと属性を除去する。
func (s *listingSanitizer) SanitizeDescription(raw string) string {
	if raw == "" {
		return ""
	}
	return s.description.Sanitize(raw)
}
