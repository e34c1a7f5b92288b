package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, commerce, event, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeMissingCredential   = "MISSING_CREDENTIAL"
	ErrCodeSignatureInvalid    = "SIGNATURE_INVALID"
	ErrCodeTokenExpired        = "TOKEN_EXPIRED"
	ErrCodeTokenRevoked        = "TOKEN_REVOKED"
	ErrCodeSubjectGone         = "SUBJECT_GONE"
	ErrCodeInsufficientRole    = "INSUFFICIENT_ROLE"
	ErrCodeRevocationStoreDown = "REVOCATION_STORE_UNAVAILABLE"
	ErrCodeBrokerUnavailable   = "BROKER_UNAVAILABLE"
	ErrCodeConsumerApplyFailed = "CONSUMER_APPLY_FAILED"
	ErrCodeInvalidCredentials  = "INVALID_CREDENTIALS"
	ErrCodeUserExists          = "USER_EXISTS"
	ErrCodeUserNotFound        = "USER_NOT_FOUND"
	ErrCodeAddressNotFound     = "ADDRESS_NOT_FOUND"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodeInvalidRequest      = "INVALID_REQUEST"
)

// NewMissingCredentialError は認証情報未提示エラーを生成する。
func NewMissingCredentialError() *APIError {
	return &APIError{
		Code:     ErrCodeMissingCredential,
		Message:  "認証情報が提示されていません。",
		Category: "auth",
		Action:   "ログインしてから再度お試しください。",
	}
}

// NewSignatureInvalidError は署名不正エラーを生成する。
func NewSignatureInvalidError() *APIError {
	return &APIError{
		Code:     ErrCodeSignatureInvalid,
		Message:  "認証トークンの署名が不正です。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewTokenExpiredError はトークン期限切れエラーを生成する。
func NewTokenExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenExpired,
		Message:  "認証トークンの有効期限が切れています。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewTokenRevokedError は失効済みトークンエラーを生成する。
func NewTokenRevokedError() *APIError {
	return &APIError{
		Code:     ErrCodeTokenRevoked,
		Message:  "認証トークンは無効化されています。",
		Category: "auth",
		Action:   "ログインし直してください。",
	}
}

// NewSubjectGoneError はアカウント消滅エラーを生成する。
func NewSubjectGoneError() *APIError {
	return &APIError{
		Code:     ErrCodeSubjectGone,
		Message:  "このトークンに対応するアカウントは存在しません。",
		Category: "auth",
		Action:   "新しくアカウントを登録してください。",
	}
}

// NewInsufficientRoleError は権限不足エラーを生成する。
// 認証失敗（401系）とは区別される403相当のエラー。
func NewInsufficientRoleError() *APIError {
	return &APIError{
		Code:     ErrCodeInsufficientRole,
		Message:  "この操作を行う権限がありません。",
		Category: "auth",
		Action:   "必要な役割を持つアカウントでログインしてください。",
	}
}

// NewRevocationStoreUnavailableError は失効ストア未到達エラーを生成する。
// fail-closedポリシーにより拒否として扱う。
func NewRevocationStoreUnavailableError() *APIError {
	return &APIError{
		Code:     ErrCodeRevocationStoreDown,
		Message:  "認証状態を確認できませんでした。",
		Category: "auth",
		Action:   "しばらく待ってから再度お試しください。",
	}
}

// NewBrokerUnavailableError はイベントブローカー未到達エラーを生成する。
func NewBrokerUnavailableError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeBrokerUnavailable,
		Message:  fmt.Sprintf("イベントの発行に失敗しました: %s", reason),
		Category: "event",
		Action:   "システム管理者に連絡してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
// emailの存在有無を区別させないため、メッセージは固定とする。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません。",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewUserExistsError はユーザー重複エラーを生成する。
func NewUserExistsError() *APIError {
	return &APIError{
		Code:     ErrCodeUserExists,
		Message:  "このメールアドレスは既に登録されています。",
		Category: "validation",
		Action:   "ログインするか、別のメールアドレスを使用してください。",
	}
}

// NewUserNotFoundError はユーザー未検出エラーを生成する。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "ユーザーが見つかりません。",
		Category: "auth",
		Action:   "先にアカウントを登録してください。",
	}
}

// NewAddressNotFoundError は住所未検出エラーを生成する。
func NewAddressNotFoundError(addressID string) *APIError {
	return &APIError{
		Code:     ErrCodeAddressNotFound,
		Message:  fmt.Sprintf("指定された住所が見つかりません: %s", addressID),
		Category: "validation",
		Action:   "住所IDを確認してください。",
	}
}

// NewProductNotFoundError は商品未検出エラーを生成する。
func NewProductNotFoundError(productID string) *APIError {
	return &APIError{
		Code:     ErrCodeProductNotFound,
		Message:  fmt.Sprintf("指定された商品が見つかりません: %s", productID),
		Category: "commerce",
		Action:   "商品IDを確認してください。",
	}
}

// NewOrderNotFoundError は注文未検出エラーを生成する。
func NewOrderNotFoundError(orderID string) *APIError {
	return &APIError{
		Code:     ErrCodeOrderNotFound,
		Message:  fmt.Sprintf("指定された注文が見つかりません: %s", orderID),
		Category: "commerce",
		Action:   "注文IDを確認してください。",
	}
}

// NewPaymentNotFoundError は支払い未検出エラーを生成する。
func NewPaymentNotFoundError(orderID string) *APIError {
	return &APIError{
		Code:     ErrCodePaymentNotFound,
		Message:  fmt.Sprintf("指定された注文の支払いが見つかりません: %s", orderID),
		Category: "commerce",
		Action:   "注文IDを確認してください。",
	}
}

// NewInvalidRequestError はリクエスト不正エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("リクエストが不正です: %s", reason),
		Category: "validation",
		Action:   "入力内容を確認してください。",
	}
}
