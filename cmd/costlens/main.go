package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"costlens/internal/api"
	"costlens/internal/api/handlers"
	"costlens/internal/events"
	"costlens/internal/repository"
	"costlens/internal/service"
	"costlens/internal/store"
	"costlens/pkg/auth"
	"costlens/pkg/config"
	"costlens/pkg/logger"

	"go.uber.org/zap"
)

// @title costlens API
// @version 1.0
// @description AWS cost dashboard backend: CSV ingest, analysis, dashboard views and cost Q&A.

// @host localhost:5000
// @BasePath /

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize global logger
	if err := logger.Init(cfg.Logger.Level, cfg.Logger.Format); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	appLogger := logger.Get()
	appLogger.Info("Starting costlens service",
		zap.String("workspace", cfg.Workspace.Driver),
		zap.String("analysis", cfg.Analysis.Mode),
		zap.String("llm", cfg.LLM.Provider),
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Workspace
	workspace, err := repository.NewWorkspace(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to open workspace", zap.Error(err))
	}
	defer workspace.Close()

	// LLM (optional)
	llm, err := service.NewLLM(ctx, &cfg.LLM, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize LLM", zap.Error(err))
	}
	if llm != nil {
		defer llm.Close()
	} else {
		appLogger.Info("No LLM configured, questions are answered from canned insights")
	}

	// Anomaly alerts (optional)
	var publisher events.Publisher
	if cfg.AMQP.URL != "" {
		amqpClient, err := events.NewClient(cfg.AMQP.URL, cfg.AMQP.ExchangeName, cfg.AMQP.QueueName, appLogger)
		if err != nil {
			appLogger.Fatal("Failed to connect to AMQP broker", zap.Error(err))
		}
		defer amqpClient.Close()
		publisher = events.NewAMQPPublisher(amqpClient, appLogger)
	}

	// Cost Explorer (optional)
	var costExplorer service.CostExplorerAPI
	if cfg.AWS.CostExplorerEnabled {
		ce, err := service.NewCostExplorerClient(ctx, cfg.AWS.Region)
		if err != nil {
			appLogger.Fatal("Failed to initialize Cost Explorer client", zap.Error(err))
		}
		costExplorer = ce
	}

	// Services
	st := store.New(appLogger)
	analyzer := service.NewAnalyzer(&cfg.Analysis, appLogger)

	responder := service.NewKeywordResponder(service.ResponderDelay(cfg.Analysis.MockDelays))

	uploadService := service.NewUploadService(workspace, analyzer, st, publisher, cfg.Workspace.DefaultTable, appLogger)
	importService := service.NewCostExplorerService(costExplorer, uploadService, cfg.AWS.MaxImportDays, appLogger)
	assistantService := service.NewAssistantService(llm, workspace, responder, appLogger)
	dashboardService := service.NewDashboardService(st, &cfg.Analysis, appLogger)
	chatService := service.NewChatService(st, assistantService, appLogger)

	// Handlers
	h := api.Handlers{
		Upload:    handlers.NewUploadHandler(uploadService, importService, appLogger),
		Assistant: handlers.NewAssistantHandler(assistantService, workspace, appLogger),
		Dashboard: handlers.NewDashboardHandler(dashboardService, appLogger),
		Chat:      handlers.NewChatHandler(chatService, appLogger),
	}

	// Operator auth (optional)
	var jwtManager *auth.JWTManager
	if cfg.JWT.Enabled() {
		jwtManager = auth.NewJWTManager(cfg.JWT.SecretKey, cfg.JWT.Expiration, cfg.JWT.RefreshExp)
		h.Auth = handlers.NewAuthHandler(service.NewAuthService(jwtManager, cfg.JWT.AdminPasswordHash, appLogger), appLogger)
	} else {
		appLogger.Warn("Operator auth is disabled, set JWT_SECRET_KEY and ADMIN_PASSWORD_HASH to enable it")
	}

	// Setup router
	app := api.SetupRouter(h, jwtManager, api.RouterConfig{
		BodyLimitMB:  cfg.Server.BodyLimitMB,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		AccessLog:    true,
	}, appLogger)

	// Start server
	go func() {
		addr := ":" + cfg.Server.Port
		appLogger.Info("Server starting", zap.String("address", addr))
		if err := app.Listen(addr); err != nil {
			appLogger.Fatal("Server failed", zap.Error(err))
		}
	}()

	// Wait for interrupt signal
	<-ctx.Done()

	appLogger.Info("Shutting down server")
	if err := app.Shutdown(); err != nil {
		appLogger.Error("Server shutdown error", zap.Error(err))
	}
}
