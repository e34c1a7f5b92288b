package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/hitoshi/ichiba/internal/guard"
	"github.com/hitoshi/ichiba/internal/identity"
	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/revocation"
	"github.com/hitoshi/ichiba/internal/token"
)

// mockIdentityService はIdentityServiceInterfaceの関数フィールド型モック。
type mockIdentityService struct {
	registerFn      func(ctx context.Context, in identity.RegisterInput) (*model.User, string, error)
	loginFn         func(ctx context.Context, email, password string) (*model.User, string, error)
	logoutFn        func(ctx context.Context, credential string) error
	meFn            func(ctx context.Context, userID string) (*model.User, error)
	addAddressFn    func(ctx context.Context, userID string, in identity.AddressInput) (*model.Address, error)
	updateAddressFn func(ctx context.Context, userID, addressID string, in identity.AddressInput) (*model.Address, error)
	deleteAddressFn func(ctx context.Context, userID, addressID string) error
	listAddressesFn func(ctx context.Context, userID string) ([]model.Address, error)
}

func (m *mockIdentityService) Register(ctx context.Context, in identity.RegisterInput) (*model.User, string, error) {
	return m.registerFn(ctx, in)
}
func (m *mockIdentityService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	return m.loginFn(ctx, email, password)
}
func (m *mockIdentityService) Logout(ctx context.Context, credential string) error {
	return m.logoutFn(ctx, credential)
}
func (m *mockIdentityService) Me(ctx context.Context, userID string) (*model.User, error) {
	return m.meFn(ctx, userID)
}
func (m *mockIdentityService) AddAddress(ctx context.Context, userID string, in identity.AddressInput) (*model.Address, error) {
	return m.addAddressFn(ctx, userID, in)
}
func (m *mockIdentityService) UpdateAddress(ctx context.Context, userID, addressID string, in identity.AddressInput) (*model.Address, error) {
	return m.updateAddressFn(ctx, userID, addressID, in)
}
func (m *mockIdentityService) DeleteAddress(ctx context.Context, userID, addressID string) error {
	return m.deleteAddressFn(ctx, userID, addressID)
}
func (m *mockIdentityService) ListAddresses(ctx context.Context, userID string) ([]model.Address, error) {
	return m.listAddressesFn(ctx, userID)
}

// newTestRouterConfig はテスト用のルーター設定と発行器を返す。
func newTestRouterConfig(t *testing.T) (RouterConfig, *token.Issuer) {
	t.Helper()
	issuer := token.NewIssuer("test-secret")
	g := guard.New(issuer, revocation.NewMemoryStore(), guard.Config{})
	return RouterConfig{
		Logger:            slog.New(slog.NewJSONHandler(io.Discard, nil)),
		CORSAllowedOrigin: "http://localhost:3000",
		Guard:             g,
		CookieCfg:         guard.CookieConfig{},
	}, issuer
}

func issueTestToken(t *testing.T, issuer *token.Issuer, subjectID string, role model.Role) string {
	t.Helper()
	tok, err := issuer.Issue(subjectID, "Test User", role, time.Hour)
	if err != nil {
		t.Fatalf("failed to issue token: %v", err)
	}
	return tok
}

func decodeErrorBody(t *testing.T, body io.Reader) map[string]string {
	t.Helper()
	var got map[string]string
	if err := json.NewDecoder(body).Decode(&got); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return got
}

func TestRegister_SetsCookieAndReturnsCreated(t *testing.T) {
	cfg, _ := newTestRouterConfig(t)
	svc := &mockIdentityService{
		registerFn: func(ctx context.Context, in identity.RegisterInput) (*model.User, string, error) {
			return &model.User{ID: "u-1", Email: in.Email}, "issued-token", nil
		},
	}
	router := NewIdentityRouter(cfg, NewIdentityHandler(svc, IdentityHandlerConfig{TokenMaxAge: 3600}))

	body := bytes.NewBufferString(`{"email":"taro@example.com","password":"password123","fullName":"Taro"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/identity/register", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var resp authResponse
	if err := json.NewDecoder(w.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Token != "issued-token" {
		t.Errorf("token = %q, want issued-token", resp.Token)
	}

	cookieSet := false
	for _, c := range w.Result().Cookies() {
		if c.Name == guard.TokenCookieName && c.Value == "issued-token" && c.HttpOnly {
			cookieSet = true
		}
	}
	if !cookieSet {
		t.Error("token cookie should be set as HTTP Only")
	}
}

func TestRegister_InvalidJSON(t *testing.T) {
	cfg, _ := newTestRouterConfig(t)
	router := NewIdentityRouter(cfg, NewIdentityHandler(&mockIdentityService{}, IdentityHandlerConfig{}))

	req := httptest.NewRequest(http.MethodPost, "/api/identity/register", strings.NewReader("{not json"))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want %d", w.Code, http.StatusBadRequest)
	}
}

func TestRegister_DuplicateEmail_Conflict(t *testing.T) {
	cfg, _ := newTestRouterConfig(t)
	svc := &mockIdentityService{
		registerFn: func(ctx context.Context, in identity.RegisterInput) (*model.User, string, error) {
			return nil, "", model.NewUserExistsError()
		},
	}
	router := NewIdentityRouter(cfg, NewIdentityHandler(svc, IdentityHandlerConfig{}))

	body := bytes.NewBufferString(`{"email":"taro@example.com","password":"password123","fullName":"Taro"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/identity/register", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want %d", w.Code, http.StatusConflict)
	}
	if got := decodeErrorBody(t, w.Body); got["code"] != model.ErrCodeUserExists {
		t.Errorf("code = %q, want %q", got["code"], model.ErrCodeUserExists)
	}
}

func TestLogin_InvalidCredentials_Unauthorized(t *testing.T) {
	cfg, _ := newTestRouterConfig(t)
	svc := &mockIdentityService{
		loginFn: func(ctx context.Context, email, password string) (*model.User, string, error) {
			return nil, "", model.NewInvalidCredentialsError()
		},
	}
	router := NewIdentityRouter(cfg, NewIdentityHandler(svc, IdentityHandlerConfig{}))

	body := bytes.NewBufferString(`{"email":"taro@example.com","password":"wrong"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/identity/login", body)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if got := decodeErrorBody(t, w.Body); got["code"] != model.ErrCodeInvalidCredentials {
		t.Errorf("code = %q, want %q", got["code"], model.ErrCodeInvalidCredentials)
	}
}

func TestLogout_ClearsCookie(t *testing.T) {
	cfg, issuer := newTestRouterConfig(t)
	var revokedCredential string
	svc := &mockIdentityService{
		logoutFn: func(ctx context.Context, credential string) error {
			revokedCredential = credential
			return nil
		},
	}
	router := NewIdentityRouter(cfg, NewIdentityHandler(svc, IdentityHandlerConfig{}))

	tok := issueTestToken(t, issuer, "u-1", model.RoleUser)
	req := httptest.NewRequest(http.MethodPost, "/api/identity/logout", nil)
	req.AddCookie(&http.Cookie{Name: guard.TokenCookieName, Value: tok})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNoContent {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusNoContent)
	}
	if revokedCredential != tok {
		t.Error("presented credential should be passed to the service")
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == guard.TokenCookieName && c.Value == "" && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("token cookie should be cleared")
	}
}

// 失効登録に失敗した場合はCookieを保持したままエラーを返すこと
func TestLogout_StoreFailure_KeepsCookie(t *testing.T) {
	cfg, issuer := newTestRouterConfig(t)
	svc := &mockIdentityService{
		logoutFn: func(ctx context.Context, credential string) error {
			return model.NewRevocationStoreUnavailableError()
		},
	}
	router := NewIdentityRouter(cfg, NewIdentityHandler(svc, IdentityHandlerConfig{}))

	tok := issueTestToken(t, issuer, "u-1", model.RoleUser)
	req := httptest.NewRequest(http.MethodPost, "/api/identity/logout", nil)
	req.AddCookie(&http.Cookie{Name: guard.TokenCookieName, Value: tok})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("status = %d, want %d", w.Code, http.StatusServiceUnavailable)
	}
	for _, c := range w.Result().Cookies() {
		if c.Name == guard.TokenCookieName {
			t.Error("cookie should not be touched when revocation fails")
		}
	}
}

func TestMe_WithValidToken(t *testing.T) {
	cfg, issuer := newTestRouterConfig(t)
	svc := &mockIdentityService{
		meFn: func(ctx context.Context, userID string) (*model.User, error) {
			return &model.User{ID: userID, Email: "taro@example.com"}, nil
		},
	}
	router := NewIdentityRouter(cfg, NewIdentityHandler(svc, IdentityHandlerConfig{}))

	tok := issueTestToken(t, issuer, "u-1", model.RoleUser)
	req := httptest.NewRequest(http.MethodGet, "/api/identity/me", nil)
	req.AddCookie(&http.Cookie{Name: guard.TokenCookieName, Value: tok})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var user model.User
	if err := json.NewDecoder(w.Body).Decode(&user); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if user.ID != "u-1" {
		t.Errorf("user ID = %q, want u-1", user.ID)
	}
}

// 認証情報なしのアクセスは401となり、Cookieが破棄されること
func TestMe_WithoutCredential_DeniedAndCookieCleared(t *testing.T) {
	cfg, _ := newTestRouterConfig(t)
	router := NewIdentityRouter(cfg, NewIdentityHandler(&mockIdentityService{}, IdentityHandlerConfig{}))

	req := httptest.NewRequest(http.MethodGet, "/api/identity/me", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
	if got := decodeErrorBody(t, w.Body); got["code"] != model.ErrCodeMissingCredential {
		t.Errorf("code = %q, want %q", got["code"], model.ErrCodeMissingCredential)
	}

	cleared := false
	for _, c := range w.Result().Cookies() {
		if c.Name == guard.TokenCookieName && c.MaxAge < 0 {
			cleared = true
		}
	}
	if !cleared {
		t.Error("token cookie should be cleared on denial")
	}
}

func TestAddAddress_WithValidToken(t *testing.T) {
	cfg, issuer := newTestRouterConfig(t)
	svc := &mockIdentityService{
		addAddressFn: func(ctx context.Context, userID string, in identity.AddressInput) (*model.Address, error) {
			return &model.Address{ID: "addr-1", Street: in.Street, City: in.City}, nil
		},
	}
	router := NewIdentityRouter(cfg, NewIdentityHandler(svc, IdentityHandlerConfig{}))

	tok := issueTestToken(t, issuer, "u-1", model.RoleUser)
	body := bytes.NewBufferString(`{"street":"1-2-3","city":"Shibuya","pincode":"1500001","country":"JP"}`)
	req := httptest.NewRequest(http.MethodPost, "/api/identity/addresses", body)
	req.AddCookie(&http.Cookie{Name: guard.TokenCookieName, Value: tok})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}
}

func TestDeleteAddress_NotFound(t *testing.T) {
	cfg, issuer := newTestRouterConfig(t)
	svc := &mockIdentityService{
		deleteAddressFn: func(ctx context.Context, userID, addressID string) error {
			return model.NewAddressNotFoundError(addressID)
		},
	}
	router := NewIdentityRouter(cfg, NewIdentityHandler(svc, IdentityHandlerConfig{}))

	tok := issueTestToken(t, issuer, "u-1", model.RoleUser)
	req := httptest.NewRequest(http.MethodDelete, "/api/identity/addresses/addr-gone", nil)
	req.AddCookie(&http.Cookie{Name: guard.TokenCookieName, Value: tok})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
