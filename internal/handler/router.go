package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/ichiba/internal/guard"
	"github.com/hitoshi/ichiba/internal/middleware"
)

// RouterConfig は各サービスのルーター構築に共通の依存関係。
// サービスはプロセスごとに1つ起動し、それぞれが自分のルーターを持つ。
type RouterConfig struct {
	Logger            *slog.Logger
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter

	// Guard は認証が必要なルートのゲート。
	Guard     *guard.Guard
	CookieCfg guard.CookieConfig

	// Metrics がnilでない場合、HTTPステータスとレイテンシを記録する。
	Metrics middleware.HTTPMetricsRecorder
	// MetricsHandler がnilでない場合、/metricsでPrometheusスクレイプを受ける。
	MetricsHandler http.Handler
}

// SubjectFromContext はゲート通過後のコンテキストから主体IDを取り出す。
// ロギング・レート制限ミドルウェアのSubjectExtractorとして使用する。
func SubjectFromContext(ctx context.Context) (string, error) {
	claims, err := guard.ClaimsFromContext(ctx)
	if err != nil {
		return "", err
	}
	return claims.Subject, nil
}

// newBaseRouter は全サービス共通のミドルウェアとヘルスチェックを構成する。
//
// ミドルウェアスタックの実行順序:
//
//	Recovery → CORS → Logging
//
// ゲートとレート制限は認証が必要なルートのグループにのみ適用する。
func newBaseRouter(cfg RouterConfig) chi.Router {
	r := chi.NewRouter()

	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewCORSMiddleware(cfg.CORSAllowedOrigin))
	r.Use(middleware.NewLoggingMiddleware(cfg.Logger, SubjectFromContext))
	if cfg.Metrics != nil {
		r.Use(middleware.NewMetricsMiddleware(cfg.Metrics))
	}

	r.Get("/health", HealthCheck)
	if cfg.MetricsHandler != nil {
		r.Handle("/metrics", cfg.MetricsHandler)
	}

	return r
}

// HealthCheck は死活監視用のエンドポイント。
// GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	middleware.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// guarded は認証・レート制限つきのルートグループを構成する。
func guarded(r chi.Router, cfg RouterConfig, register func(r chi.Router)) {
	r.Group(func(r chi.Router) {
		r.Use(cfg.Guard.Middleware(cfg.CookieCfg))
		if cfg.RateLimiter != nil {
			r.Use(cfg.RateLimiter.Middleware())
		}
		register(r)
	})
}

// NewIdentityRouter はidentityサービスのルーターを構築する。
// 登録・ログイン・ログアウトはゲートの外、その他は認証必須。
func NewIdentityRouter(cfg RouterConfig, h *IdentityHandler) http.Handler {
	r := newBaseRouter(cfg)

	r.Route("/api/identity", func(r chi.Router) {
		r.Post("/register", h.Register)
		r.Post("/login", h.Login)
		// ログアウトは期限切れ間近のトークンでも受理するためゲートの外に置く
		r.Post("/logout", h.Logout)
	})

	guarded(r, cfg, func(r chi.Router) {
		r.Route("/api/identity", func(r chi.Router) {
			r.Get("/me", h.Me)

			r.Route("/addresses", func(r chi.Router) {
				r.Get("/", h.ListAddresses)
				r.Post("/", h.AddAddress)
				r.Put("/{id}", h.UpdateAddress)
				r.Delete("/{id}", h.DeleteAddress)
			})
		})
	})

	return r
}

// CatalogRouterConfig はcatalogルーターの追加依存。
// 書き込み系ルートは出品者役割を要求する別ゲートを通す。
type CatalogRouterConfig struct {
	RouterConfig
	SellerGuard *guard.Guard
}

// NewCatalogRouter はcatalogサービスのルーターを構築する。
// 閲覧は認証不要、出品・更新は出品者役割が必要。
func NewCatalogRouter(cfg CatalogRouterConfig, h *CatalogHandler) http.Handler {
	r := newBaseRouter(cfg.RouterConfig)

	r.Route("/api/catalog/products", func(r chi.Router) {
		r.Get("/", h.ListProducts)
		r.Get("/{id}", h.GetProduct)

		r.Group(func(r chi.Router) {
			r.Use(cfg.SellerGuard.Middleware(cfg.CookieCfg))
			if cfg.RateLimiter != nil {
				r.Use(cfg.RateLimiter.Middleware())
			}
			r.Post("/", h.CreateProduct)
			r.Put("/{id}", h.UpdateProduct)
			r.Delete("/{id}", h.DeleteProduct)
		})
	})

	return r
}

// NewCartRouter はcartサービスのルーターを構築する。全ルート認証必須。
func NewCartRouter(cfg RouterConfig, h *CartHandler) http.Handler {
	r := newBaseRouter(cfg)

	guarded(r, cfg, func(r chi.Router) {
		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", h.GetCart)
			r.Delete("/", h.Clear)
			r.Post("/items", h.AddItem)
			r.Delete("/items/{productId}", h.RemoveItem)
		})
	})

	return r
}

// NewOrderRouter はorderサービスのルーターを構築する。全ルート認証必須。
func NewOrderRouter(cfg RouterConfig, h *OrderHandler) http.Handler {
	r := newBaseRouter(cfg)

	guarded(r, cfg, func(r chi.Router) {
		r.Route("/api/orders", func(r chi.Router) {
			r.Post("/", h.Checkout)
			r.Get("/", h.ListOrders)
			r.Get("/{id}", h.GetOrder)
		})
	})

	return r
}

// NewPaymentRouter はpaymentサービスのルーターを構築する。全ルート認証必須。
func NewPaymentRouter(cfg RouterConfig, h *PaymentHandler) http.Handler {
	r := newBaseRouter(cfg)

	guarded(r, cfg, func(r chi.Router) {
		r.Route("/api/payments", func(r chi.Router) {
			r.Post("/", h.Pay)
			r.Get("/", h.ListByUser)
			r.Get("/orders/{orderId}", h.GetByOrder)
		})
	})

	return r
}

// NewNotificationRouter はnotificationサービスのルーターを構築する。全ルート認証必須。
func NewNotificationRouter(cfg RouterConfig, h *NotificationHandler) http.Handler {
	r := newBaseRouter(cfg)

	guarded(r, cfg, func(r chi.Router) {
		r.Get("/api/notifications", h.List)
	})

	return r
}

// NewAgentRouter はagentサービスのルーターを構築する。
// ゲート判定はwebsocketハンドシェイク内で行うため、ミドルウェアは適用しない。
func NewAgentRouter(cfg RouterConfig, wsHandler http.HandlerFunc) http.Handler {
	r := newBaseRouter(cfg)

	r.Get("/api/agent/ws", wsHandler)

	return r
}

// NewSellerRouter はsellerサービスのルーターを構築する。
// 全ルートで出品者役割が必要（cfg.Guardに役割ゲートを設定すること）。
func NewSellerRouter(cfg RouterConfig, h *SellerHandler) http.Handler {
	r := newBaseRouter(cfg)

	guarded(r, cfg, func(r chi.Router) {
		r.Route("/api/seller", func(r chi.Router) {
			r.Get("/profile", h.Profile)
			r.Get("/products", h.ListProducts)
		})
	})

	return r
}
