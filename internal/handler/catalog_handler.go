package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ichiba/internal/catalog"
	"github.com/hitoshi/ichiba/internal/guard"
	"github.com/hitoshi/ichiba/internal/middleware"
	"github.com/hitoshi/ichiba/internal/model"
)

// CatalogServiceInterface はcatalogハンドラーが必要とするサービスインターフェース。
type CatalogServiceInterface interface {
	CreateProduct(ctx context.Context, sellerID string, in catalog.ProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, id string) (*model.Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]*model.Product, error)
	UpdateProduct(ctx context.Context, sellerID, productID string, in catalog.ProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, sellerID, productID string) error
}

// CatalogHandler は商品カタログのHTTPハンドラー。
type CatalogHandler struct {
	service CatalogServiceInterface
}

// NewCatalogHandler はCatalogHandlerを生成する。
func NewCatalogHandler(service CatalogServiceInterface) *CatalogHandler {
	return &CatalogHandler{service: service}
}

// productListResponse は商品一覧のレスポンス。
type productListResponse struct {
	Products []*model.Product `json:"products"`
}

// CreateProduct は商品を出品する。出品者役割が必要。
// POST /api/catalog/products
func (h *CatalogHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	var in catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeInvalidBody(w)
		return
	}

	product, err := h.service.CreateProduct(r.Context(), claims.Subject, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, product)
}

// GetProduct は商品詳細を返す。
// GET /api/catalog/products/{id}
func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	product, err := h.service.GetProduct(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, product)
}

// ListProducts は商品一覧をページネーション付きで返す。
// GET /api/catalog/products?limit=50&offset=0
func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))

	products, err := h.service.ListProducts(r.Context(), limit, offset)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, productListResponse{Products: products})
}

// UpdateProduct は自分の商品を更新する。
// PUT /api/catalog/products/{id}
func (h *CatalogHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	var in catalog.ProductInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeInvalidBody(w)
		return
	}

	product, err := h.service.UpdateProduct(r.Context(), claims.Subject, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, product)
}

// DeleteProduct は自分の商品を取り下げる。
// DELETE /api/catalog/products/{id}
func (h *CatalogHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	if err := h.service.DeleteProduct(r.Context(), claims.Subject, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
