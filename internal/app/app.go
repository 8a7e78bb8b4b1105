// Package app wires configuration, storage and modules into a running
// HTTP application.
package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/podnotes/server/internal/module/entitlement"
	"github.com/podnotes/server/internal/module/notes"
	"github.com/podnotes/server/internal/module/payment"
	paymentprovider "github.com/podnotes/server/internal/module/payment/provider"
	"github.com/podnotes/server/internal/module/quota"
	sharedcache "github.com/podnotes/server/internal/shared/cache"
	"github.com/podnotes/server/internal/shared/config"
	"github.com/podnotes/server/internal/shared/database"
	"github.com/podnotes/server/internal/shared/events"
	"github.com/podnotes/server/internal/shared/logger"
	"github.com/podnotes/server/internal/shared/metrics"
	"github.com/podnotes/server/internal/shared/middleware"
)

// App holds the assembled application.
type App struct {
	config    *config.Config
	db        *gorm.DB
	redis     redis.UniversalClient
	router    *gin.Engine
	logger    *logger.Logger
	zapLogger *zap.Logger
	metrics   *metrics.Metrics

	eventBus *events.Bus

	entitlementStore *entitlement.Store
	quotaGate        *quota.Gate
	notesHandler     *notes.Handler
	paymentHandler   *payment.Handler
	webhookHandler   *payment.WebhookHandler
	paymentService   *payment.Service
}

// New creates a new application instance.
func New(cfg *config.Config) (*App, error) {
	log := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
	})

	zapLog, err := logger.NewZapLogger(&logger.ZapConfig{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		return nil, fmt.Errorf("init zap logger: %w", err)
	}

	app := &App{
		config:    cfg,
		logger:    log,
		zapLogger: zapLog,
	}

	db, err := database.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("init database: %w", err)
	}
	app.db = db

	if err := db.AutoMigrate(
		&entitlement.UsageRecord{},
		&payment.Plan{},
		&payment.CheckoutSession{},
		&payment.WebhookEvent{},
	); err != nil {
		return nil, fmt.Errorf("migrate database: %w", err)
	}

	// Redis is optional; without it quota counts live only in Postgres.
	if cfg.Redis.Address != "" {
		redisClient, err := sharedcache.NewRedisClient(&cfg.Redis)
		if err != nil {
			zapLog.Warn("redis connection failed, counter mirror disabled", zap.Error(err))
		} else {
			app.redis = redisClient
		}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	app.metrics = metrics.New(registry)

	if err := app.initModules(); err != nil {
		return nil, fmt.Errorf("init modules: %w", err)
	}

	app.router = app.setupRouter(registry)

	return app, nil
}

// initModules builds the entitlement, quota, notes and payment modules.
func (a *App) initModules() error {
	a.eventBus = events.NewBus(a.zapLogger)

	entitlementRepo := entitlement.NewRepository(a.db)
	counters := entitlement.NewCounterCache(a.redis)
	a.entitlementStore = entitlement.NewStore(entitlementRepo, counters, a.zapLogger, a.metrics)

	a.quotaGate = quota.NewGate(a.entitlementStore, a.config.Quota.FreeLimit, a.zapLogger, a.metrics)

	generator := notes.NewOpenAIClient(&a.config.OpenAI, a.zapLogger)
	notesService := notes.NewService(generator, a.quotaGate, a.zapLogger, a.metrics)
	a.notesHandler = notes.NewHandler(notesService, a.config.OpenAI.APIKey != "")

	stripeProvider := paymentprovider.NewStripeProvider(&paymentprovider.StripeConfig{
		APIKey:        a.config.Stripe.APIKey,
		WebhookSecret: a.config.Stripe.WebhookSecret,
	})
	paymentRepo := payment.NewRepository(a.db)
	a.paymentService = payment.NewService(paymentRepo, stripeProvider, a.eventBus, &payment.ServiceConfig{
		SuccessURL: a.config.Stripe.SuccessURL,
		CancelURL:  a.config.Stripe.CancelURL,
	}, a.zapLogger, a.metrics)
	a.paymentHandler = payment.NewHandler(a.paymentService)
	a.webhookHandler = payment.NewWebhookHandler(a.paymentService, a.zapLogger)

	if err := a.paymentService.SeedPlans(context.Background(), a.config.Stripe.PriceIDs); err != nil {
		return fmt.Errorf("seed plans: %w", err)
	}

	a.registerEventHandlers()
	return nil
}

// registerEventHandlers registers all domain event handlers.
func (a *App) registerEventHandlers() {
	a.eventBus.Register(entitlement.NewEventHandler(a.entitlementStore, a.zapLogger))
}

// setupRouter creates and configures the Gin router.
func (a *App) setupRouter(gatherer prometheus.Gatherer) *gin.Engine {
	if a.config.Log.Level == "debug" {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(middleware.Recovery(a.logger))
	r.Use(middleware.RequestID())
	r.Use(middleware.Logging(a.logger))
	r.Use(middleware.CORS(middleware.DefaultCORSConfig()))
	r.Use(middleware.Metrics(a.metrics))

	identity := middleware.NewIdentityResolver(
		a.config.Identity.TokenSecret,
		a.config.Identity.TokenExpiry,
		a.config.Identity.CookieName,
	)
	r.Use(identity.Middleware())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := r.Group("/api")
	a.notesHandler.RegisterRoutes(api)
	a.paymentHandler.RegisterRoutes(r, api)

	webhooks := r.Group("/webhooks")
	a.webhookHandler.RegisterRoutes(webhooks)

	if a.config.Server.StaticDir != "" {
		r.NoRoute(staticFileHandler(a.config.Server.StaticDir))
	}

	return r
}

// Router returns the HTTP router.
func (a *App) Router() *gin.Engine {
	return a.router
}

// Stop releases application resources.
func (a *App) Stop() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.zapLogger.Warn("redis close failed", zap.Error(err))
		}
	}
	if err := database.Close(a.db); err != nil {
		a.zapLogger.Warn("database close failed", zap.Error(err))
	}
	_ = a.zapLogger.Sync()
}
