package guard

import (
	"net/http"
	"strings"

	"github.com/hitoshi/ichiba/internal/middleware"
	"github.com/hitoshi/ichiba/internal/model"
)

// TokenCookieName はセッショントークンを運ぶCookie名。
const TokenCookieName = "token"

// CookieConfig はDENY時のCookie破棄に必要な設定。
type CookieConfig struct {
	Domain string
	Secure bool
}

// ExtractCredential はリクエストから認証情報を取り出す。
// Cookie「token」を優先し、なければAuthorization: Bearerヘッダーを使用する。
// どちらも無い場合は空文字列を返す。
func ExtractCredential(r *http.Request) string {
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}
	if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
		return strings.TrimPrefix(auth, "Bearer ")
	}
	return ""
}

// ClearTokenCookie はクライアントのトークンCookieを破棄する。
// DENY時に再送させないための明示的な契約。
func ClearTokenCookie(w http.ResponseWriter, cfg CookieConfig) {
	http.SetCookie(w, &http.Cookie{
		Name:     TokenCookieName,
		Value:    "",
		Path:     "/",
		Domain:   cfg.Domain,
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   cfg.Secure,
		SameSite: http.SameSiteStrictMode,
	})
}

// Middleware はゲート判定をHTTPミドルウェアとして返す。
// ALLOW時はクレームをリクエストコンテキストに注入して後続に渡す。
// DENY時はトークンCookieを破棄し、理由に応じた401/403を返す。
func (g *Guard) Middleware(cookieCfg CookieConfig) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			decision := g.Check(r.Context(), ExtractCredential(r))
			if !decision.Allowed {
				WriteDenial(w, decision.Reason, cookieCfg)
				return
			}

			ctx := ContextWithClaims(r.Context(), decision.Claims)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// WriteDenial はDENY判定をHTTPレスポンスとして書き込む。
// Cookie破棄はヘッダー書き込み前に行う必要がある。
func WriteDenial(w http.ResponseWriter, reason Reason, cookieCfg CookieConfig) {
	ClearTokenCookie(w, cookieCfg)
	apiErr, status := DenialResponse(reason)
	middleware.WriteErrorResponse(w, status, apiErr)
}

// DenialResponse はDENY理由を統一エラーフォーマットとHTTPステータスに対応付ける。
// 役割不足のみ403で、その他の認証失敗は401。
func DenialResponse(reason Reason) (*model.APIError, int) {
	switch reason {
	case ReasonRevoked:
		return model.NewTokenRevokedError(), http.StatusUnauthorized
	case ReasonSignatureInvalid:
		return model.NewSignatureInvalidError(), http.StatusUnauthorized
	case ReasonExpired:
		return model.NewTokenExpiredError(), http.StatusUnauthorized
	case ReasonSubjectGone:
		return model.NewSubjectGoneError(), http.StatusUnauthorized
	case ReasonInsufficientRole:
		return model.NewInsufficientRoleError(), http.StatusForbidden
	case ReasonStoreUnavailable:
		return model.NewRevocationStoreUnavailableError(), http.StatusUnauthorized
	default:
		return model.NewMissingCredentialError(), http.StatusUnauthorized
	}
}
