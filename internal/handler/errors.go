package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/hitoshi/ichiba/internal/middleware"
	"github.com/hitoshi/ichiba/internal/model"
)

// handleServiceError はサービス層のエラーをHTTPレスポンスに変換する。
// APIError以外のエラーは詳細をログに残し、一般的な500レスポンスを返す。
func handleServiceError(w http.ResponseWriter, err error) {
	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		slog.Error("unexpected service error", slog.String("error", err.Error()))
		middleware.WriteInternalServerError(w)
		return
	}
	middleware.WriteErrorResponse(w, statusForCode(apiErr.Code), apiErr)
}

// statusForCode はエラーコードをHTTPステータスに対応付ける。
func statusForCode(code string) int {
	switch code {
	case model.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case model.ErrCodeUserExists:
		return http.StatusConflict
	case model.ErrCodeInvalidCredentials,
		model.ErrCodeMissingCredential,
		model.ErrCodeSignatureInvalid,
		model.ErrCodeTokenExpired,
		model.ErrCodeTokenRevoked,
		model.ErrCodeSubjectGone:
		return http.StatusUnauthorized
	case model.ErrCodeInsufficientRole:
		return http.StatusForbidden
	case model.ErrCodeUserNotFound,
		model.ErrCodeAddressNotFound,
		model.ErrCodeProductNotFound,
		model.ErrCodeOrderNotFound,
		model.ErrCodePaymentNotFound:
		return http.StatusNotFound
	case model.ErrCodeRevocationStoreDown,
		model.ErrCodeBrokerUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// writeInvalidBody はリクエストボディ解析失敗の統一レスポンスを書き込む。
func writeInvalidBody(w http.ResponseWriter) {
	middleware.WriteErrorResponse(w, http.StatusBadRequest, &model.APIError{
		Code:     model.ErrCodeInvalidRequest,
		Message:  "リクエストボディの解析に失敗しました。",
		Category: "validation",
		Action:   "正しいJSON形式でリクエストしてください。",
	})
}
