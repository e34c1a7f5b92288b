package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/ichiba/internal/agent"
	"github.com/hitoshi/ichiba/internal/cart"
	"github.com/hitoshi/ichiba/internal/catalog"
	"github.com/hitoshi/ichiba/internal/config"
	"github.com/hitoshi/ichiba/internal/database"
	"github.com/hitoshi/ichiba/internal/event"
	"github.com/hitoshi/ichiba/internal/guard"
	"github.com/hitoshi/ichiba/internal/handler"
	"github.com/hitoshi/ichiba/internal/identity"
	"github.com/hitoshi/ichiba/internal/logger"
	"github.com/hitoshi/ichiba/internal/metrics"
	"github.com/hitoshi/ichiba/internal/middleware"
	"github.com/hitoshi/ichiba/internal/model"
	"github.com/hitoshi/ichiba/internal/notification"
	"github.com/hitoshi/ichiba/internal/order"
	"github.com/hitoshi/ichiba/internal/payment"
	"github.com/hitoshi/ichiba/internal/repository"
	"github.com/hitoshi/ichiba/internal/revocation"
	"github.com/hitoshi/ichiba/internal/security"
	"github.com/hitoshi/ichiba/internal/seller"
	"github.com/hitoshi/ichiba/internal/token"
	"github.com/hitoshi/ichiba/internal/worker/cleanup"
)

// Init はアプリケーションの初期化を行う。
// 環境変数からConfigを読み込み、サービス名つきのJSON構造化ログをセットアップする。
// writerが指定された場合はログ出力先としてそのwriterを使用する。
func Init(w io.Writer, service string) (*config.Config, error) {
	// 設定読み込み前にログを使えるようにする
	logger.SetupDefault(w, service)

	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return cfg, nil
}

// Run はアプリケーションのメインエントリーポイント。
// コマンドライン引数からサブコマンドを解析し、対応するサービスを起動する。
// 1プロセスにつき1サービス。argsにはos.Args[1:]を渡す。
func Run(w io.Writer, args []string) error {
	cmd := ParseCommand(args)

	// healthcheck は軽量サブコマンドのため、フル初期化をスキップする
	if cmd == CommandHealthcheck {
		port := os.Getenv("SERVER_PORT")
		if port == "" {
			port = "8080"
		}
		return runHealthcheck(port)
	}

	cfg, err := Init(w, string(cmd))
	if err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	slog.Info("starting service",
		slog.String("command", string(cmd)),
		slog.String("port", cfg.ServerPort),
	)

	switch cmd {
	case CommandMigrate:
		return runMigrate(cfg)
	case CommandAgent:
		return runAgent(cfg)
	default:
		return runService(cfg, cmd)
	}
}

// newRouterConfig は全サービス共通のルーター依存を構成する。
func newRouterConfig(cfg *config.Config, collector *metrics.Collector, registry *prometheus.Registry) handler.RouterConfig {
	return handler.RouterConfig{
		Logger:            slog.Default(),
		CORSAllowedOrigin: cfg.CORSAllowedOrigin,
		RateLimiter: middleware.NewRateLimiter(
			middleware.NewRateLimiterConfig(cfg.RateLimitGeneral),
			handler.SubjectFromContext,
		),
		CookieCfg: guard.CookieConfig{
			Domain: cfg.CookieDomain,
			Secure: cfg.CookieSecure,
		},
		Metrics:        collector,
		MetricsHandler: metrics.SetupMetricsRoute(registry),
	}
}

// runService はHTTPサービスを起動する。
// DB・失効ストアへ接続し、サービスごとの依存関係をワイヤリングする。
// identityはイベント発行、notification/sellerはイベント消費のため
// 追加でブローカーへ接続する。
func runService(cfg *config.Config, cmd Command) error {
	ctx := context.Background()

	db, err := database.Open(cfg.DatabaseURL)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	redisClient, err := revocation.Open(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to revocation store: %w", err)
	}
	defer redisClient.Close()

	slog.Info("database and revocation store connected")

	revocations := revocation.NewRedisStore(redisClient)
	issuer := token.NewIssuer(cfg.JWTSecret)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	routerCfg := newRouterConfig(cfg, collector, registry)

	var router http.Handler
	var stopConsumers func()

	switch cmd {
	case CommandIdentity:
		bus, err := event.Connect(ctx, cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to event bus: %w", err)
		}
		defer bus.Close()

		publisher := event.NewPublisher(bus).WithMetrics(collector)
		svc := identity.NewService(
			repository.NewPostgresUserRepo(db),
			issuer, revocations, publisher, cfg.TokenTTL,
		).WithMetrics(collector)

		// identityのみ主体の存在確認を行う（削除済みアカウントのトークンを拒否する）
		routerCfg.Guard = guard.New(issuer, revocations, guard.Config{
			SubjectFinder: svc,
			Metrics:       collector,
		})

		h := handler.NewIdentityHandler(svc, handler.IdentityHandlerConfig{
			CookieDomain: cfg.CookieDomain,
			CookieSecure: cfg.CookieSecure,
			TokenMaxAge:  int(cfg.TokenTTL.Seconds()),
		})
		router = handler.NewIdentityRouter(routerCfg, h)

	case CommandCatalog:
		svc := catalog.NewService(
			repository.NewPostgresProductRepo(db),
			security.NewListingSanitizer(),
		)
		sellerGuard := guard.New(issuer, revocations, guard.Config{
			AcceptedRoles: []model.Role{model.RoleSeller},
			Metrics:       collector,
		})
		router = handler.NewCatalogRouter(handler.CatalogRouterConfig{
			RouterConfig: routerCfg,
			SellerGuard:  sellerGuard,
		}, handler.NewCatalogHandler(svc))

	case CommandCart:
		svc := cart.NewService(
			repository.NewPostgresCartRepo(db),
			repository.NewPostgresProductRepo(db),
		)
		routerCfg.Guard = guard.New(issuer, revocations, guard.Config{Metrics: collector})
		router = handler.NewCartRouter(routerCfg, handler.NewCartHandler(svc))

	case CommandOrder:
		svc := order.NewService(
			repository.NewPostgresOrderRepo(db),
			repository.NewPostgresCartRepo(db),
			repository.NewPostgresProductRepo(db),
		)
		routerCfg.Guard = guard.New(issuer, revocations, guard.Config{Metrics: collector})
		router = handler.NewOrderRouter(routerCfg, handler.NewOrderHandler(svc))

	case CommandPayment:
		svc := payment.NewService(
			repository.NewPostgresPaymentRepo(db),
			repository.NewPostgresOrderRepo(db),
		)
		routerCfg.Guard = guard.New(issuer, revocations, guard.Config{Metrics: collector})
		router = handler.NewPaymentRouter(routerCfg, handler.NewPaymentHandler(svc))

	case CommandNotification:
		bus, err := event.Connect(ctx, cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to event bus: %w", err)
		}
		defer bus.Close()

		svc := notification.NewService(repository.NewPostgresNotificationRepo(db))
		consumer := event.NewConsumer(
			bus, "notification-user-created",
			model.SubjectNotificationUserCreated,
			svc.ApplyUserCreated,
		).WithMetrics(collector)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start consumer: %w", err)
		}

		// 保持期間を超えた通知は日次で削除する
		cleanupCtx, cancelCleanup := context.WithCancel(ctx)
		go cleanup.NewCleanupJob(db, slog.Default()).Start(cleanupCtx)
		stopConsumers = func() {
			cancelCleanup()
			consumer.Stop()
		}

		routerCfg.Guard = guard.New(issuer, revocations, guard.Config{Metrics: collector})
		router = handler.NewNotificationRouter(routerCfg, handler.NewNotificationHandler(svc))

	case CommandSeller:
		bus, err := event.Connect(ctx, cfg.NATSURL)
		if err != nil {
			return fmt.Errorf("failed to connect to event bus: %w", err)
		}
		defer bus.Close()

		svc := seller.NewService(
			repository.NewPostgresSellerProjectionRepo(db),
			repository.NewPostgresProductRepo(db),
		)
		consumer := event.NewConsumer(
			bus, "seller-projection-user-created",
			model.SubjectSellerProjectionUserCreated,
			svc.ApplyUserCreated,
		).WithMetrics(collector)
		if err := consumer.Start(ctx); err != nil {
			return fmt.Errorf("failed to start consumer: %w", err)
		}
		stopConsumers = consumer.Stop

		routerCfg.Guard = guard.New(issuer, revocations, guard.Config{
			AcceptedRoles: []model.Role{model.RoleSeller},
			Metrics:       collector,
		})
		router = handler.NewSellerRouter(routerCfg, handler.NewSellerHandler(svc))

	default:
		return fmt.Errorf("unknown service command: %s", cmd)
	}

	return serveHTTP(cfg, router, stopConsumers)
}

// runAgent はwebsocketゲートウェイを起動する。
// 状態を持たないため、DBには接続しない（失効ストアとトークン検証のみ）。
func runAgent(cfg *config.Config) error {
	ctx := context.Background()

	redisClient, err := revocation.Open(ctx, cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("failed to connect to revocation store: %w", err)
	}
	defer redisClient.Close()

	revocations := revocation.NewRedisStore(redisClient)
	issuer := token.NewIssuer(cfg.JWTSecret)

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector(registry)

	routerCfg := newRouterConfig(cfg, collector, registry)

	gd := guard.New(issuer, revocations, guard.Config{Metrics: collector})
	gateway := agent.New(gd, routerCfg.CookieCfg, cfg.CORSAllowedOrigin, nil)

	router := handler.NewAgentRouter(routerCfg, gateway.HandleWS)
	return serveHTTP(cfg, router, nil)
}

// serveHTTP はHTTPサーバーを起動し、SIGINT/SIGTERMでグレースフルに停止する。
// stopConsumers がnilでない場合、サーバー停止後にイベント消費を止める。
func serveHTTP(cfg *config.Config, router http.Handler, stopConsumers func()) error {
	server := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		slog.Info("HTTP server starting", slog.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server listen error", slog.String("error", err.Error()))
		}
	}()

	<-stop
	slog.Info("shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown failed: %w", err)
	}

	if stopConsumers != nil {
		stopConsumers()
	}

	slog.Info("server stopped gracefully")
	return nil
}

// runMigrate はデータベースマイグレーションを実行する。
// すべての未適用マイグレーションを順番に適用する。
func runMigrate(cfg *config.Config) error {
	slog.Info("running database migrations",
		slog.String("database_url", maskDatabaseURL(cfg.DatabaseURL)),
	)

	if err := database.RunMigrations(cfg.DatabaseURL); err != nil {
		return fmt.Errorf("migration failed: %w", err)
	}

	slog.Info("database migrations completed successfully")
	return nil
}

// runHealthcheck はヘルスチェックを実行する。
// distroless環境でのDockerヘルスチェック用サブコマンド。
// /health エンドポイントにHTTPリクエストを送り、結果を返す。
func runHealthcheck(port string) error {
	url := fmt.Sprintf("http://localhost:%s/health", port)
	client := &http.Client{Timeout: 5 * time.Second}

	resp, err := client.Get(url)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("health check returned status %d", resp.StatusCode)
	}

	return nil
}

// maskDatabaseURL はデータベースURLの認証情報をマスクする。
func maskDatabaseURL(url string) string {
	if len(url) > 20 {
		return url[:12] + "***@..."
	}
	return "***"
}
