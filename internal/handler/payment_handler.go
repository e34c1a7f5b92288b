package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ichiba/internal/guard"
	"github.com/hitoshi/ichiba/internal/middleware"
	"github.com/hitoshi/ichiba/internal/model"
)

// PaymentServiceInterface はpaymentハンドラーが必要とするサービスインターフェース。
type PaymentServiceInterface interface {
	Pay(ctx context.Context, userID, orderID, method string) (*model.Payment, error)
	GetByOrder(ctx context.Context, userID, orderID string) (*model.Payment, error)
	ListByUser(ctx context.Context, userID string) ([]*model.Payment, error)
}

// PaymentHandler は支払いのHTTPハンドラー。
type PaymentHandler struct {
	service PaymentServiceInterface
}

// NewPaymentHandler はPaymentHandlerを生成する。
func NewPaymentHandler(service PaymentServiceInterface) *PaymentHandler {
	return &PaymentHandler{service: service}
}

// payRequest は支払いリクエストのボディ。
type payRequest struct {
	OrderID string `json:"orderId"`
	Method  string `json:"method"`
}

// paymentListResponse は支払い一覧のレスポンス。
type paymentListResponse struct {
	Payments []*model.Payment `json:"payments"`
}

// Pay は注文の支払いを記録する。
// POST /api/payments
func (h *PaymentHandler) Pay(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	var req payRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	payment, err := h.service.Pay(r.Context(), claims.Subject, req.OrderID, req.Method)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, payment)
}

// GetByOrder は注文の支払い記録を返す。
// GET /api/payments/orders/{orderId}
func (h *PaymentHandler) GetByOrder(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	payment, err := h.service.GetByOrder(r.Context(), claims.Subject, chi.URLParam(r, "orderId"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, payment)
}

// ListByUser はユーザーの支払い一覧を返す。
// GET /api/payments
func (h *PaymentHandler) ListByUser(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	payments, err := h.service.ListByUser(r.Context(), claims.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, paymentListResponse{Payments: payments})
}
