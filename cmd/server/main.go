package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/catalogrecon/backend/internal/bootstrap"
	"github.com/catalogrecon/backend/internal/infrastructure/config"
	"github.com/catalogrecon/backend/internal/infrastructure/logger"
	"github.com/catalogrecon/backend/internal/infrastructure/telemetry"
	"github.com/catalogrecon/backend/internal/interfaces/http/handler"
	"github.com/catalogrecon/backend/internal/interfaces/http/middleware"
	"github.com/catalogrecon/backend/internal/interfaces/http/router"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

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
	defer logger.Sync(log)

	log.Info("Starting catalog reconciliation server",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	tracerProvider, err := telemetry.NewTracerProvider(context.Background(), cfg.Telemetry, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}

	metrics := telemetry.NewRegistry()
	service, err := bootstrap.NewService(cfg, log, metrics)
	if err != nil {
		log.Fatal("Failed to build analysis service", zap.Error(err))
	}

	results, err := bootstrap.NewResultStore(cfg, log)
	if err != nil {
		log.Fatal("Failed to create result store", zap.Error(err))
	}
	if results != nil {
		defer results.Close()
	}
	archiveCtx, archiveCancel := context.WithTimeout(context.Background(), 30*time.Second)
	archiver, err := bootstrap.NewArchiver(archiveCtx, cfg, log)
	archiveCancel()
	if err != nil {
		log.Fatal("Failed to set up report archive", zap.Error(err))
	}

	if cfg.App.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	engine := gin.New()
	if err := engine.SetTrustedProxies(cfg.HTTP.TrustedProxies); err != nil {
		log.Fatal("Invalid trusted proxies", zap.Error(err))
	}
	engine.MaxMultipartMemory = 32 << 20

	middleware.SetupValidator()
	httpMetrics := middleware.NewHTTPMetrics(telemetry.Namespace, telemetry.HTTPDurationBuckets)
	metrics.MustRegister(httpMetrics.Collectors()...)

	// Middleware order:
	// 1. RequestID - Generate/propagate request ID
	// 2. Tracing - Start the request span and tag it
	// 3. Logger - Log requests with request and trace IDs
	// 4. Recovery - Catch panics and log them with the request logger
	// 5. Metrics - Count and time requests
	// 6. Security - Add security headers
	// 7. CORS - Handle cross-origin requests
	// 8. BodyLimit - Limit request body size
	engine.Use(middleware.RequestID())
	engine.Use(middleware.Tracing(middleware.TracingConfig{
		ServiceName: cfg.Telemetry.ServiceName,
		Enabled:     tracerProvider.IsEnabled(),
	}))
	engine.Use(middleware.SpanAttributes())
	engine.Use(logger.GinMiddleware(log))
	engine.Use(logger.Recovery(log))
	engine.Use(httpMetrics.Middleware())
	engine.Use(middleware.Secure())

	corsConfig := middleware.DefaultCORSConfig()
	corsConfig.AllowOrigins = cfg.HTTP.CORSAllowOrigins
	corsConfig.AllowMethods = cfg.HTTP.CORSAllowMethods
	corsConfig.AllowHeaders = cfg.HTTP.CORSAllowHeaders
	engine.Use(middleware.CORSWithConfig(corsConfig))

	engine.Use(middleware.BodyLimit(cfg.HTTP.MaxBodySize))

	strategies, err := bootstrap.NewStrategies(cfg)
	if err != nil {
		log.Fatal("Failed to build strategy registry", zap.Error(err))
	}
	systemOpts := []handler.SystemOption{handler.WithStrategies(strategies)}
	if p, ok := results.(interface{ Ping(context.Context) error }); ok {
		systemOpts = append(systemOpts, handler.WithHealthCheck("results", p.Ping))
	}
	if archiver != nil {
		systemOpts = append(systemOpts, handler.WithHealthCheck("archive", archiver.Ping))
	}
	systemHandler := handler.NewSystemHandler(cfg.App.Name, version, systemOpts...)
	engine.GET("/health", systemHandler.Health)
	engine.GET("/metrics", gin.WrapH(metrics.Handler()))

	var handlerOpts []handler.AnalysisOption
	if results != nil {
		handlerOpts = append(handlerOpts, handler.WithResultStore(results))
	}
	if archiver != nil {
		handlerOpts = append(handlerOpts, handler.WithArchiver(archiver))
	}
	analysisHandler := handler.NewAnalysisHandler(service, handler.AnalysisDefaults{
		ShippingPerUnit: cfg.Pipeline.ShippingPerUnit,
		MiscPerUnit:     cfg.Pipeline.MiscPerUnit,
		Budget:          decimal.NewFromFloat(cfg.Pipeline.DefaultBudget),
	}, handlerOpts...)

	r := router.NewRouter(engine, router.WithAPIVersion("v1"))

	analysisRoutes := router.NewDomainGroup("analysis", "/analyses")
	analysisRoutes.Use(middleware.Timeout(cfg.HTTP.AnalysisTimeout))
	analysisRoutes.POST("", analysisHandler.Analyze)
	analysisRoutes.GET("/:id", analysisHandler.GetAnalysis)
	analysisRoutes.GET("/:id/report", analysisHandler.GetReport)
	analysisRoutes.GET("/:id/order", analysisHandler.GetOrder)

	columnRoutes := router.NewDomainGroup("columns", "/columns")
	columnRoutes.POST("/detect", analysisHandler.DetectColumns)
	columnRoutes.GET("/patterns", analysisHandler.Patterns)

	systemRoutes := router.NewDomainGroup("system", "/system")
	systemRoutes.GET("/info", systemHandler.GetSystemInfo)

	r.Register(analysisRoutes, columnRoutes, systemRoutes)
	for _, route := range r.Setup() {
		log.Debug("Route registered",
			zap.String("group", route.Group),
			zap.String("method", route.Method),
			zap.String("path", route.Path),
		)
	}

	// The write timeout must outlast the slowest analysis
	writeTimeout := cfg.HTTP.WriteTimeout
	if floor := cfg.HTTP.AnalysisTimeout + 30*time.Second; writeTimeout < floor {
		writeTimeout = floor
	}
	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   writeTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
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
	if err := tracerProvider.Shutdown(ctx); err != nil {
		log.Warn("Tracer provider shutdown failed", zap.Error(err))
	}

	log.Info("Server exited gracefully")
}
