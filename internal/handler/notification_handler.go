package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/ichiba/internal/guard"
	"github.com/hitoshi/ichiba/internal/middleware"
	"github.com/hitoshi/ichiba/internal/model"
)

// NotificationServiceInterface はnotificationハンドラーが必要とするサービスインターフェース。
type NotificationServiceInterface interface {
	ListByUserID(ctx context.Context, userID string) ([]*model.Notification, error)
}

// NotificationHandler は通知のHTTPハンドラー。
type NotificationHandler struct {
	service NotificationServiceInterface
}

// NewNotificationHandler はNotificationHandlerを生成する。
func NewNotificationHandler(service NotificationServiceInterface) *NotificationHandler {
	return &NotificationHandler{service: service}
}

// notificationListResponse は通知一覧のレスポンス。
type notificationListResponse struct {
	Notifications []*model.Notification `json:"notifications"`
}

// List は認証済みユーザーの通知一覧を返す。
// GET /api/notifications
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	notifications, err := h.service.ListByUserID(r.Context(), claims.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, notificationListResponse{Notifications: notifications})
}
