package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	billingapp "github.com/stoptime/backend/internal/application/billing"
	"github.com/stoptime/backend/internal/domain/shared"
	"github.com/stoptime/backend/internal/infrastructure/cache"
	"github.com/stoptime/backend/internal/infrastructure/config"
	"github.com/stoptime/backend/internal/infrastructure/event"
	"github.com/stoptime/backend/internal/infrastructure/logger"
	"github.com/stoptime/backend/internal/infrastructure/migration"
	"github.com/stoptime/backend/internal/infrastructure/persistence"
	"github.com/stoptime/backend/internal/infrastructure/printing"
	"github.com/stoptime/backend/internal/infrastructure/storage"
	"github.com/stoptime/backend/internal/infrastructure/telemetry"
	"github.com/stoptime/backend/internal/interfaces/http/handler"
	"github.com/stoptime/backend/internal/interfaces/http/middleware"
	"github.com/stoptime/backend/internal/interfaces/http/router"
	"go.uber.org/zap"
)

var version = "dev"

//	@title			Stoptime API
//	@version		1.0
//	@description	Time tracking and invoicing for freelancers
//	@BasePath		/api/v1

func main() {
	provider, err := config.NewProvider(nil)
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}
	cfg := provider.Current()

	log, err := logger.New(&logger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	defer func() {
		_ = log.Sync()
	}()

	provider.SetLogger(log.Named("config"))
	provider.OnReload(func(next *config.Config) {
		log.SetLevel(next.Log.Level)
	})
	provider.Watch()

	log.Info("Starting Stoptime",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Telemetry
	tracerProvider, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meterProvider, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ExportInterval:    cfg.Telemetry.MetricsInterval,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	logsProvider, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	log = log.Tee(logsProvider.Core(cfg.Telemetry.ServiceName, log.LevelEnabler()))
	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Telemetry.ProfilingEnabled,
		ServerAddress:     cfg.Telemetry.ProfilingServer,
		ApplicationName:   cfg.Telemetry.ServiceName,
		ProfileTypes:      cfg.Telemetry.ProfileTypes,
		BasicAuthUser:     cfg.Telemetry.ProfilingBasicUser,
		BasicAuthPassword: cfg.Telemetry.ProfilingBasicPass,
	}, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize profiling", zap.Error(err))
	}
	if profiler.IsEnabled() {
		tracerProvider.EnableSpanProfiles()
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = tracerProvider.Shutdown(shutdownCtx)
		_ = meterProvider.Shutdown(shutdownCtx)
		_ = logsProvider.Shutdown(shutdownCtx)
		_ = profiler.Stop()
	}()

	// Database
	gormLog := logger.NewGormLogger(log.Logger, logger.MapGormLogLevel(cfg.Log.Level), cfg.Telemetry.DBSlowQueryThresh)
	db, err := persistence.NewDatabaseWithCustomLogger(&cfg.Database, gormLog)
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if err := migrateSchema(db, &cfg.Database, log.Logger); err != nil {
		log.Fatal("Failed to migrate database", zap.Error(err))
	}
	log.Info("Database ready", zap.String("driver", db.Driver()))

	dbSystem := "postgresql"
	if db.Driver() == "sqlite" {
		dbSystem = "sqlite"
	}
	if err := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBSystem:        dbSystem,
	}, log.Logger).Register(db.DB); err != nil {
		log.Fatal("Failed to register database tracing", zap.Error(err))
	}
	dbMetrics, err := telemetry.RegisterDBMetrics(db.DB, meterProvider, telemetry.DBMetricsConfig{
		Enabled:            cfg.Telemetry.MetricsEnabled,
		SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
	}, log.Logger)
	if err != nil {
		log.Fatal("Failed to register database metrics", zap.Error(err))
	}
	if dbMetrics != nil {
		dbMetrics.StartPoolStatsCollection(ctx)
		defer dbMetrics.Stop()
	}

	// Repositories and services
	customerRepo := persistence.NewGormCustomerRepository(db.DB)
	taskRepo := persistence.NewGormTaskRepository(db.DB)
	entryRepo := persistence.NewGormTimeEntryRepository(db.DB)
	invoiceRepo := persistence.NewGormInvoiceRepository(db.DB)
	companyRepo := persistence.NewGormCompanyInfoRepository(db.DB)
	txScope := persistence.NewGormTransactionScope(db.DB)
	clock := shared.SystemClock{}

	eventBus := event.NewInMemoryEventBus(log.Named("events"), event.WithHandlerTimeout(5*time.Second))
	if meterProvider.IsEnabled() {
		billingMetrics, err := telemetry.NewBillingMetrics(meterProvider.Meter("stoptime.billing"), log.Logger)
		if err != nil {
			log.Fatal("Failed to create billing metrics", zap.Error(err))
		}
		eventBus.Subscribe(billingapp.NewMetricsEventHandler(billingMetrics, log.Logger))
	}
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}

	customerService := billingapp.NewCustomerService(customerRepo, txScope, provider, clock, log.Logger)
	taskService := billingapp.NewTaskService(customerRepo, taskRepo, txScope, provider, clock, log.Logger)
	timelineService := billingapp.NewTimelineService(taskRepo, entryRepo, provider, clock, log.Logger)
	companyService := billingapp.NewCompanyService(companyRepo, txScope, clock, log.Logger)
	companyService.SetEventPublisher(eventBus)
	invoiceService := billingapp.NewInvoiceService(billingapp.InvoiceServiceConfig{
		CustomerRepo:   customerRepo,
		TaskRepo:       taskRepo,
		EntryRepo:      entryRepo,
		InvoiceRepo:    invoiceRepo,
		CompanyRepo:    companyRepo,
		TxScope:        txScope,
		Settings:       provider,
		Clock:          clock,
		EventPublisher: eventBus,
		Logger:         log.Logger,
	})

	// Documents
	store, err := newDocumentStore(ctx, cfg.Documents, log.Logger)
	if err != nil {
		log.Fatal("Failed to initialize document storage", zap.Error(err))
	}
	templates, err := printing.NewTemplateEngine(printing.WithLocale(cfg.Documents.Locale))
	if err != nil {
		log.Fatal("Failed to load invoice templates", zap.Error(err))
	}
	chrome := printing.NewChromedpRenderer(&printing.ChromedpConfig{
		DefaultTimeout: cfg.Documents.RenderTimeout,
		ExecPath:       cfg.Documents.ChromePath,
		RemoteURL:      cfg.Documents.ChromeURL,
		NoSandbox:      cfg.Documents.NoSandbox,
		Logger:         log.Named("chromedp"),
	})
	defer func() {
		_ = chrome.Close()
	}()
	printer := printing.NewInvoicePrinter(templates, chrome,
		printing.WithRenderTimeout(cfg.Documents.RenderTimeout),
		printing.WithPrinterLogger(log.Logger),
	)
	documentService := billingapp.NewDocumentService(invoiceService, printer, store, log.Logger)

	// HTTP
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

	engine.Use(middleware.RequestID())
	engine.Use(logger.Recovery(log.Logger))
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     cfg.Telemetry.Enabled,
		SkipPaths:   []string{"/health", "/ready"},
	})...)
	engine.Use(logger.GinMiddleware(log.Logger))
	engine.Use(middleware.ProfileLabels(cfg.Telemetry.ProfilingEnabled))
	engine.Use(middleware.HTTPMetrics(middleware.HTTPMetricsConfig{
		MeterProvider: meterProvider,
		Enabled:       cfg.Telemetry.MetricsEnabled,
		Logger:        log.Logger,
	}))
	engine.Use(middleware.Secure())
	engine.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:  cfg.HTTP.CORSAllowOrigins,
		AllowMethods:  cfg.HTTP.CORSAllowMethods,
		AllowHeaders:  cfg.HTTP.CORSAllowHeaders,
		ExposeHeaders: []string{"X-Request-ID", "X-RateLimit-Limit", "X-RateLimit-Remaining", "Location", "Content-Disposition"},
		MaxAge:        12 * time.Hour,
	}))
	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))
	engine.Use(middleware.Timeout(cfg.HTTP.RequestTimeout))

	documentLimiter := middleware.NewRateLimiter(cfg.HTTP.DocumentRateBurst, cfg.HTTP.DocumentRateWindow)
	go documentLimiter.Run(ctx)

	checks := map[string]handler.HealthChecker{"database": db}
	var guards router.Guards
	guards.Documents = middleware.RateLimit(documentLimiter)
	if cfg.Idempotency.Enabled {
		keys, err := newIdempotencyStore(ctx, cfg.Idempotency)
		if err != nil {
			log.Fatal("Failed to initialize idempotency store", zap.Error(err))
		}
		defer func() {
			_ = keys.Close()
		}()
		if checker, ok := keys.(handler.HealthChecker); ok {
			checks["idempotency"] = checker
		}
		guards.InvoiceCreate = middleware.Idempotency(middleware.IdempotencyConfig{
			Store:  keys,
			TTL:    cfg.Idempotency.TTL,
			Logger: log.Logger,
		})
		log.Info("Invoice creation idempotency enabled", zap.String("backend", cfg.Idempotency.Backend))
	}

	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, checks)
	handlers := router.Handlers{
		Customers:   handler.NewCustomerHandler(customerService, taskService, invoiceService),
		Tasks:       handler.NewTaskHandler(taskService),
		TimeEntries: handler.NewTimeEntryHandler(timelineService),
		Invoices:    handler.NewInvoiceHandler(invoiceService, documentService),
		Company:     handler.NewCompanyHandler(companyService),
		System:      systemHandler,
	}
	router.RegisterProbes(engine, systemHandler)
	router.NewAPI(engine, router.WithVersion("v1")).
		Add(router.BillingGroups(handlers, guards)...).
		Setup()

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
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	// SIGHUP reloads the configuration without restarting
	hup := make(chan os.Signal, 1)
	signal.Notify(hup, syscall.SIGHUP)
	defer signal.Stop(hup)

	for running := true; running; {
		select {
		case <-hup:
			if err := provider.Reload(); err != nil {
				log.Error("Configuration reload failed", zap.Error(err))
			}
		case <-ctx.Done():
			running = false
		}
	}
	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Error("Error stopping event bus", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}

// migrateSchema applies the versioned migrations on postgres. SQLite
// deployments are single-user and use the model definitions directly.
func migrateSchema(db *persistence.Database, cfg *config.DatabaseConfig, log *zap.Logger) error {
	if db.Driver() == "sqlite" {
		return db.AutoMigrate()
	}
	m, _, err := migration.Open(cfg.DSN(), log.Named("migrate"))
	if err != nil {
		return err
	}
	defer func() {
		_ = m.Close()
	}()
	return m.Up()
}

// newIdempotencyStore returns the configured store for Idempotency-Key claims
func newIdempotencyStore(ctx context.Context, cfg config.IdempotencyConfig) (shared.IdempotencyStore, error) {
	if cfg.Backend == "redis" {
		store, err := cache.NewRedisIdempotencyStore(ctx, cache.RedisConfig{
			Addr:     cfg.Redis.Addr(),
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			return nil, err
		}
		return store, nil
	}
	return cache.NewInMemoryIdempotencyStore(), nil
}

// newDocumentStore returns the configured store for rendered invoices
func newDocumentStore(ctx context.Context, cfg config.DocumentsConfig, log *zap.Logger) (billingapp.DocumentStore, error) {
	if cfg.Backend == "s3" {
		store, err := storage.NewS3DocumentStore(ctx, &cfg.S3, log)
		if err != nil {
			return nil, err
		}
		if err := store.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return store, nil
	}
	store, err := printing.NewFileSystemStorage(&printing.FileSystemStorageConfig{
		BasePath: cfg.BasePath,
		Logger:   log,
	})
	if err != nil {
		return nil, err
	}
	return store, nil
}
