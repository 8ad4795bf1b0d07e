package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"portfolio-backend/config"
	_ "portfolio-backend/docs" // Important for Swagger
	"portfolio-backend/internal/delivery/http/middleware"
	v1 "portfolio-backend/internal/delivery/http/v1"
	"portfolio-backend/internal/domain"
	"portfolio-backend/internal/observability/metrics"
	"portfolio-backend/internal/repository/mongodb"
	"portfolio-backend/internal/repository/postgres"
	"portfolio-backend/internal/usecase"
	"portfolio-backend/pkg/captcha"
	"portfolio-backend/pkg/database"
	"portfolio-backend/pkg/email"
	"portfolio-backend/pkg/i18n"
	"portfolio-backend/pkg/logger"
	redisclient "portfolio-backend/pkg/redis"
	"portfolio-backend/pkg/security"
	"portfolio-backend/pkg/validation"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

// @title           Portfolio Contact API
// @version         1.0
// @description     Contact form backend for the portfolio site.
// @host            localhost:8080
// @BasePath        /v1
func main() {
	// 1. Load Config
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// 2. Setup Logger
	zlog := logger.New(cfg.LogLevel, cfg.AppEnv)
	defer func() { _ = zlog.Sync() }()
	zlog.Info("Starting portfolio backend", zap.String("port", cfg.Port), zap.String("store", cfg.StoreDriver))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	// 3. Setup Submission Store
	startCtx, cancelStart := context.WithTimeout(context.Background(), 15*time.Second)
	repo, closeStore, err := openStore(startCtx, cfg)
	cancelStart()
	if err != nil {
		zlog.Error("Failed to connect to submission store", zap.Error(err))
		os.Exit(1)
	}
	defer closeStore()

	// 4. Setup Redis (optional)
	redisCtx, cancelRedis := context.WithTimeout(context.Background(), 5*time.Second)
	rdb, err := redisclient.New(redisCtx, redisclient.Config{URL: cfg.UpstashRedisURL, Password: cfg.UpstashRedisPassword})
	cancelRedis()
	switch {
	case errors.Is(err, redisclient.ErrNotConfigured):
		rdb = nil
	case err != nil:
		zlog.Warn("Redis unavailable - rate limiting will use in-memory fallback", zap.Error(err))
		rdb = nil
	}
	var redisCheck func(context.Context) error
	if rdb != nil {
		defer rdb.Close()
		redisCheck = func(ctx context.Context) error {
			return redisclient.HealthCheck(ctx, rdb)
		}
	}

	// 5. Setup Collaborators
	catalog, err := i18n.Load()
	if err != nil {
		zlog.Error("Failed to load message catalog", zap.Error(err))
		os.Exit(1)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	contactMetrics := metrics.NewContactMetrics(registry)

	secLog := security.NewSecurityLogger(zlog, "portfolio-backend")
	defer func() { _ = secLog.Sync() }()

	verifier := captcha.NewTurnstileVerifier(captcha.Config{
		SecretKey: cfg.TurnstileSecretKey,
		VerifyURL: cfg.TurnstileVerifyURL,
		Timeout:   cfg.CaptchaTimeout,
	}, nil, zlog)
	if !verifier.IsConfigured() {
		zlog.Warn("Turnstile not configured - contact submissions will fail verification")
	}

	notifier := newNotifier(cfg, zlog)

	// 6. Setup UseCases
	contactUC := usecase.NewContactUsecase(usecase.ContactDeps{
		Validator:      validation.NewContactValidator(validation.NewValidator(), catalog),
		Verifier:       verifier,
		Repository:     repo,
		Notifier:       notifier,
		Catalog:        catalog,
		Metrics:        contactMetrics,
		SecurityLogger: secLog,
		Logger:         zlog,
		StoreTimeout:   cfg.StoreTimeout,
	})

	// 7. Setup Router
	rlConfig := middleware.ContactRateLimitConfig(cfg.RateLimitContactLimit, cfg.RateLimitWindow())
	rlConfig.Message = v1.LocalizedRateLimitMessage(catalog)

	router := v1.NewRouter(v1.RouterDeps{
		ContactUC:   contactUC,
		Catalog:     catalog,
		RateLimiter: middleware.NewRateLimiter(rlConfig, rdb, secLog),
		RedisCheck:  redisCheck,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.AllowedOrigins,
			PreviewSuffix:  cfg.PreviewSuffix,
			Production:     cfg.IsProduction(),
		},
		Logger:  zlog,
		Metrics: promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
	})

	// 8. Start Server
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zlog.Error("Listen failed", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	zlog.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		zlog.Error("Server forced to shutdown", zap.Error(err))
	}

	zlog.Info("Server exiting")
}

// openStore connects the configured submission store and returns its close function.
func openStore(ctx context.Context, cfg *config.Config) (domain.SubmissionRepository, func(), error) {
	switch cfg.StoreDriver {
	case config.StoreMongo:
		client, err := database.NewMongoConnection(ctx, cfg.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = client.Disconnect(ctx)
		}
		return mongodb.NewContactRepository(client.Database(cfg.MongoDatabase), cfg.MongoCollection), closeFn, nil
	case config.StorePostgres:
		pool, err := database.NewPostgresConnection(ctx, cfg.DBUrl, database.DefaultPoolConfig())
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewContactRepository(pool), pool.Close, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// newNotifier returns nil when owner notifications are disabled.
func newNotifier(cfg *config.Config, zlog *zap.Logger) domain.ContactNotifier {
	var sender email.Sender
	switch cfg.NotifyProvider {
	case config.NotifySMTP:
		smtpSender := email.NewSMTPSender(email.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUsername,
			Password: cfg.SMTPPassword,
			From:     cfg.ContactEmailFrom,
		})
		if !smtpSender.IsConfigured() {
			zlog.Warn("SMTP not fully configured - owner notifications will fail")
		}
		sender = smtpSender
	case config.NotifySendGrid:
		sender = email.NewSendGridSender(email.SendGridConfig{
			APIKey:    cfg.SendGridAPIKey,
			FromEmail: cfg.ContactEmailFrom,
		})
	default:
		return nil
	}
	return email.NewContactNotifier(sender, cfg.ContactEmailTo, zlog)
}
