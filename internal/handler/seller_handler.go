package handler

import (
	"context"
	"net/http"

	"github.com/hitoshi/ichiba/internal/guard"
	"github.com/hitoshi/ichiba/internal/middleware"
	"github.com/hitoshi/ichiba/internal/model"
)

// SellerServiceInterface はsellerハンドラーが必要とするサービスインターフェース。
type SellerServiceInterface interface {
	Profile(ctx context.Context, userID string) (*model.SellerProjection, error)
	ListProducts(ctx context.Context, sellerID string) ([]*model.Product, error)
}

// SellerHandler は出品者向けのHTTPハンドラー。
type SellerHandler struct {
	service SellerServiceInterface
}

// NewSellerHandler はSellerHandlerを生成する。
func NewSellerHandler(service SellerServiceInterface) *SellerHandler {
	return &SellerHandler{service: service}
}

// sellerProfileResponse は出品者プロフィールのレスポンス。
// 射影が未到達の場合はprojectedがfalseになる。
type sellerProfileResponse struct {
	Projected bool                    `json:"projected"`
	Profile   *model.SellerProjection `json:"profile,omitempty"`
}

// Profile は出品者自身の射影プロフィールを返す。
// イベントの反映前は未到達として返す（結果整合の遅延はエラーではない）。
// GET /api/seller/profile
func (h *SellerHandler) Profile(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	profile, err := h.service.Profile(r.Context(), claims.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, sellerProfileResponse{
		Projected: profile != nil,
		Profile:   profile,
	})
}

// ListProducts は出品者自身の商品一覧を返す。
// GET /api/seller/products
func (h *SellerHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	products, err := h.service.ListProducts(r.Context(), claims.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, productListResponse{Products: products})
}
