// Package handler はHTTPハンドラーを提供する。
package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ichiba/internal/guard"
	"github.com/hitoshi/ichiba/internal/identity"
	"github.com/hitoshi/ichiba/internal/middleware"
	"github.com/hitoshi/ichiba/internal/model"
)

// IdentityServiceInterface はidentityハンドラーが必要とするサービスインターフェース。
type IdentityServiceInterface interface {
	Register(ctx context.Context, in identity.RegisterInput) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	Logout(ctx context.Context, credential string) error
	Me(ctx context.Context, userID string) (*model.User, error)
	AddAddress(ctx context.Context, userID string, in identity.AddressInput) (*model.Address, error)
	UpdateAddress(ctx context.Context, userID, addressID string, in identity.AddressInput) (*model.Address, error)
	DeleteAddress(ctx context.Context, userID, addressID string) error
	ListAddresses(ctx context.Context, userID string) ([]model.Address, error)
}

// IdentityHandlerConfig はidentityハンドラーの設定。
type IdentityHandlerConfig struct {
	CookieDomain string
	CookieSecure bool
	TokenMaxAge  int // トークンCookieの有効期間（秒）
}

// IdentityHandler はユーザー登録・認証・住所管理のHTTPハンドラー。
type IdentityHandler struct {
	service IdentityServiceInterface
	config  IdentityHandlerConfig
}

// NewIdentityHandler はIdentityHandlerを生成する。
func NewIdentityHandler(service IdentityServiceInterface, config IdentityHandlerConfig) *IdentityHandler {
	return &IdentityHandler{
		service: service,
		config:  config,
	}
}

// loginRequest はログインリクエストのボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// authResponse は登録・ログイン成功時のレスポンス。
// トークンはCookieに加えてボディでも返す（websocket等のヘッダー利用のため）。
type authResponse struct {
	User  *model.User `json:"user"`
	Token string      `json:"token"`
}

// setTokenCookie はセッショントークンをHTTP Only Cookieとして設定する。
func (h *IdentityHandler) setTokenCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     guard.TokenCookieName,
		Value:    token,
		Path:     "/",
		Domain:   h.config.CookieDomain,
		MaxAge:   h.config.TokenMaxAge,
		HttpOnly: true,
		Secure:   h.config.CookieSecure,
		SameSite: http.SameSiteStrictMode,
	})
}

// cookieConfig はDENY時のCookie破棄設定を返す。
func (h *IdentityHandler) cookieConfig() guard.CookieConfig {
	return guard.CookieConfig{
		Domain: h.config.CookieDomain,
		Secure: h.config.CookieSecure,
	}
}

// Register は新規ユーザーを登録する。
// POST /api/identity/register
func (h *IdentityHandler) Register(w http.ResponseWriter, r *http.Request) {
	var in identity.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeInvalidBody(w)
		return
	}

	user, token, err := h.service.Register(r.Context(), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setTokenCookie(w, token)
	middleware.WriteJSON(w, http.StatusCreated, authResponse{User: user, Token: token})
}

// Login はemailとパスワードで認証しトークンを発行する。
// POST /api/identity/login
func (h *IdentityHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidBody(w)
		return
	}

	user, token, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.setTokenCookie(w, token)
	middleware.WriteJSON(w, http.StatusOK, authResponse{User: user, Token: token})
}

// Logout は提示されたトークンを失効させ、Cookieを破棄する。
// 失効登録に失敗した場合はCookieを保持したままエラーを返す
// （ログアウト成功と偽らない）。
// POST /api/identity/logout
func (h *IdentityHandler) Logout(w http.ResponseWriter, r *http.Request) {
	credential := guard.ExtractCredential(r)

	if err := h.service.Logout(r.Context(), credential); err != nil {
		handleServiceError(w, err)
		return
	}

	guard.ClearTokenCookie(w, h.cookieConfig())
	w.WriteHeader(http.StatusNoContent)
}

// Me は認証済みユーザー自身の集約を返す。
// GET /api/identity/me
func (h *IdentityHandler) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	user, err := h.service.Me(r.Context(), claims.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, user)
}

// AddAddress はユーザー集約配下に住所を追加する。
// POST /api/identity/addresses
func (h *IdentityHandler) AddAddress(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	var in identity.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeInvalidBody(w)
		return
	}

	addr, err := h.service.AddAddress(r.Context(), claims.Subject, in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, addr)
}

// UpdateAddress は指定住所を更新する。
// PUT /api/identity/addresses/{id}
func (h *IdentityHandler) UpdateAddress(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	var in identity.AddressInput
	if err := json.NewDecoder(r.Body).Decode(&in); err != nil {
		writeInvalidBody(w)
		return
	}

	addr, err := h.service.UpdateAddress(r.Context(), claims.Subject, chi.URLParam(r, "id"), in)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, addr)
}

// DeleteAddress は指定住所を削除する。
// DELETE /api/identity/addresses/{id}
func (h *IdentityHandler) DeleteAddress(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	if err := h.service.DeleteAddress(r.Context(), claims.Subject, chi.URLParam(r, "id")); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListAddresses はユーザーの住所一覧を返す。
// GET /api/identity/addresses
func (h *IdentityHandler) ListAddresses(w http.ResponseWriter, r *http.Request) {
	claims, err := guard.ClaimsFromContext(r.Context())
	if err != nil {
		middleware.WriteErrorResponse(w, http.StatusUnauthorized, model.NewMissingCredentialError())
		return
	}

	addresses, err := h.service.ListAddresses(r.Context(), claims.Subject)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	middleware.WriteJSON(w, http.StatusOK, addresses)
}
