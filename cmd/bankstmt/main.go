package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"bankstmt/internal/api"
	"bankstmt/internal/api/handlers"
	"bankstmt/internal/repository"
	"bankstmt/internal/service"
	"bankstmt/pkg/config"
	"bankstmt/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting bank statement extractor")

	if cfg.Anthropic.APIKey == "" {
		// The UI still serves without a credential; every extraction attempt
		// will fail until one is configured.
		appLogger.Warn("ANTHROPIC_API_KEY is not set, extraction requests will fail")
	}

	// Session store
	stmtRepo := repository.NewStatementRepository(cfg.Session.TTL, appLogger)
	defer stmtRepo.Close()

	// Services
	renderService := service.NewRenderService(appLogger)
	extractionService := service.NewExtractionService(&cfg.Anthropic, appLogger)
	parseService := service.NewParseService(appLogger)
	exportService := service.NewExportService(appLogger)
	stmtService := service.NewStatementService(stmtRepo, renderService, extractionService, parseService, exportService, appLogger)

	// Handlers and router
	stmtHandler := handlers.NewStatementHandler(stmtService, cfg.Server.MaxUploadSize, appLogger)
	app := api.SetupRouter(stmtHandler, cfg.Server.MaxUploadSize, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
