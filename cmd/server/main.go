// Maturity Diagnostic - Server Entry Point
//
// This is the main entry point for the technology maturity diagnostic
// service. It initializes all dependencies and starts the HTTP server.
package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/maturity-diagnostic/internal/ai"
	"github.com/maturity-diagnostic/internal/auth"
	"github.com/maturity-diagnostic/internal/config"
	"github.com/maturity-diagnostic/internal/content"
	"github.com/maturity-diagnostic/internal/handler"
	"github.com/maturity-diagnostic/internal/logger"
	"github.com/maturity-diagnostic/internal/notify"
	"github.com/maturity-diagnostic/internal/render"
	"github.com/maturity-diagnostic/internal/rules"
	"github.com/maturity-diagnostic/internal/service"
	"github.com/maturity-diagnostic/internal/store"
	"go.uber.org/zap"
)

func main() {
	// Load .env file if it exists (development)
	_ = godotenv.Load()

	// Determine if we're in development mode
	isDev := os.Getenv("GIN_MODE") != "release"

	// Initialize logger
	zapLogger, err := logger.New(isDev, "diagnostic-server")
	if err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}
	defer zapLogger.Sync()

	zapLogger.Info("starting maturity diagnostic server",
		zap.Bool("development", isDev),
	)

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		zapLogger.Fatal("failed to load configuration", zap.Error(err))
	}

	zapLogger.Info("configuration loaded",
		zap.String("port", cfg.Server.Port),
		zap.String("store_backend", cfg.Store.Backend),
		zap.String("auth_state_backend", cfg.AuthState.Backend),
		zap.String("enrichment_provider", string(cfg.Enrichment.Provider)),
		zap.Bool("email_enabled", cfg.Email.Enabled),
		zap.Bool("admin_configured", cfg.Admin.Configured()),
	)

	ctx := context.Background()
	catalog := content.Default()

	// Record store
	recordStore, err := store.New(ctx, cfg.Store, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to open record store", zap.Error(err))
	}

	// Admin auth state
	var authState auth.State
	switch cfg.AuthState.Backend {
	case config.BackendRedis:
		redisState, err := auth.NewRedisState(cfg.AuthState, zapLogger)
		if err != nil {
			zapLogger.Fatal("failed to connect auth state", zap.Error(err))
		}
		defer redisState.Close()
		authState = redisState
	default:
		zapLogger.Warn("admin auth state is process-local; lockouts and sessions are not shared between instances")
		authState = auth.NewMemoryState(time.Now)
	}
	gate := auth.NewGate(authState, cfg.Admin, zapLogger)

	// Collaborators
	enricher, err := ai.NewClient(cfg.Enrichment, catalog, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to create enrichment client", zap.Error(err))
	}
	if cfg.Enrichment.Provider == config.EnrichmentMock {
		zapLogger.Warn("running in mock mode - enrichment text is simulated")
	}

	sender, err := notify.New(cfg.Email, cfg.App, catalog, zapLogger)
	if err != nil {
		zapLogger.Fatal("failed to create e-mail sender", zap.Error(err))
	}

	renderer := render.NewPDFRenderer(catalog, zapLogger)
	page, err := render.NewResultPage(catalog)
	if err != nil {
		zapLogger.Fatal("failed to parse result page template", zap.Error(err))
	}

	// Initialize diagnostics service
	assembler := service.NewAssembler(catalog, rules.NewEngine(catalog, zapLogger))
	diagnostics := service.NewDiagnostics(
		assembler,
		recordStore,
		renderer,
		sender,
		enricher,
		cfg.App,
		cfg.Dispatch,
		zapLogger,
	)
	if pinger, ok := authState.(interface{ Ping(context.Context) error }); ok {
		diagnostics.AddReadinessCheck("auth_state", true, pinger.Ping)
	}

	// Setup Gin router
	if !isDev {
		gin.SetMode(gin.ReleaseMode)
	}

	router, err := handler.NewRouter(handler.RouterDeps{
		Diagnostics:    diagnostics,
		Gate:           gate,
		Catalog:        catalog,
		Page:           page,
		TrustedProxies: cfg.Server.TrustedProxies,
		CORSOrigins:    cfg.Server.CORSAllowOrigins,
		Logger:         zapLogger,
	})
	if err != nil {
		zapLogger.Fatal("failed to build router", zap.Error(err))
	}

	// Create HTTP server
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	// Start server in goroutine
	go func() {
		zapLogger.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			zapLogger.Fatal("server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLogger.Info("shutting down server...")

	// Give the server 10 seconds to finish processing
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLogger.Error("server forced to shutdown", zap.Error(err))
	}

	// Background deliveries get what is left of the shutdown budget
	if err := diagnostics.Drain(shutdownCtx); err != nil {
		zapLogger.Warn("pending deliveries abandoned", zap.Error(err))
	}

	if err := recordStore.Close(); err != nil {
		zapLogger.Warn("failed to close record store", zap.Error(err))
	}

	zapLogger.Info("server stopped")
}
