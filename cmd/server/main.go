package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	payablesapp "github.com/erp/payables/internal/application/payables"
	"github.com/erp/payables/internal/infrastructure/cache"
	"github.com/erp/payables/internal/infrastructure/config"
	"github.com/erp/payables/internal/infrastructure/event"
	"github.com/erp/payables/internal/infrastructure/logger"
	"github.com/erp/payables/internal/infrastructure/persistence"
	"github.com/erp/payables/internal/infrastructure/scheduler"
	"github.com/erp/payables/internal/interfaces/http/handler"
	"github.com/erp/payables/internal/interfaces/http/middleware"
	"github.com/erp/payables/internal/interfaces/http/router"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger
	log, err := logger.New(&logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = logger.Sync(log)
	}()

	log.Info("Starting Payables API",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
	)

	// Database connection with zap-backed GORM logger
	gormLog := logger.NewGormLogger(log, logger.MapGormLogLevel(cfg.Log.Level))
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	log.Info("Database connected successfully")

	// Repositories
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	paymentRepo := persistence.NewGormPaymentRepository(db.DB)
	receiptRepo := persistence.NewGormReceiptRepository(db.DB)
	reservationStore := persistence.NewGormReservationStore(db.DB)
	supplierRepo := cache.NewSupplierRepository(
		persistence.NewGormSupplierRepository(db.DB),
		cfg.RefData, cfg.Redis, log,
	)
	refData := cache.NewReferenceData(
		persistence.NewGormSupplierSiteRepository(db.DB),
		persistence.NewGormInventoryItemRepository(db.DB),
		persistence.NewGormTaxRateRepository(db.DB),
		cfg.RefData, cfg.Redis, log,
	)

	// Event bus with an audit-log subscriber
	eventBus := event.NewInMemoryEventBus(log)
	eventBus.Subscribe(event.NewAuditLogHandler(log))
	if err := eventBus.Start(context.Background()); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	defer func() {
		_ = eventBus.Stop(context.Background())
	}()

	// Application services
	invoiceService := payablesapp.NewInvoiceService(invoiceRepo, receiptRepo, supplierRepo)
	invoiceService.SetEventPublisher(eventBus)
	invoiceService.SetReferenceData(refData.Sites, refData.Items, refData.TaxRates)
	paymentService := payablesapp.NewPaymentService(paymentRepo, invoiceRepo, supplierRepo, reservationStore)
	paymentService.SetEventPublisher(eventBus)
	paymentService.SetTransactionManager(persistence.NewGormTransactionManager(db.DB))

	// Background sweep of abandoned draft payments
	sweeperCfg := scheduler.DraftSweeperConfig{
		Enabled:     cfg.Sweeper.Enabled,
		Interval:    cfg.Sweeper.Interval,
		DraftMaxAge: cfg.Sweeper.DraftMaxAge,
		BatchSize:   cfg.Sweeper.BatchSize,
	}
	sweeper := scheduler.NewDraftSweeper(sweeperCfg, paymentRepo, paymentService, log)
	sweeper.Start(context.Background())
	defer sweeper.Stop()

	// Handlers
	invoiceHandler := handler.NewInvoiceHandler(invoiceService)
	paymentHandler := handler.NewPaymentHandler(paymentService)
	referenceHandler := handler.NewReferenceHandler(supplierRepo, refData.Sites, refData.TaxRates)
	systemHandler := handler.NewSystemHandler(db)

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	middleware.SetupValidator()

	engine := gin.New()

	if len(cfg.HTTP.TrustedProxies) > 0 {
		if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
			log.Warn("Failed to set trusted proxies", zap.Error(err))
		}
	}

	// Middleware stack, outermost first: request ID, panic recovery,
	// request logging, security headers, CORS, tenant extraction.
	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log))
	engine.Use(logger.GinMiddleware(log))
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	if len(cfg.HTTP.CORSAllowOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	}
	if len(cfg.HTTP.CORSAllowMethods) > 0 {
		corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	}
	if len(cfg.HTTP.CORSAllowHeaders) > 0 {
		corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	}
	engine.Use(middleware.CORSWithConfig(corsConfig))
	engine.Use(middleware.Tenant())

	// Health endpoint outside API versioning, for load balancers
	engine.GET("/health", systemHandler.Health)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))
	r.Register(router.PayablesRoutes(invoiceHandler, paymentHandler, referenceHandler)).
		Register(router.SystemRoutes(systemHandler))
	r.Setup()

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
