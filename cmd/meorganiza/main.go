package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	chathandler "github.com/meorganiza/meorganiza-api/internal/chat/handler"
	chatinfra "github.com/meorganiza/meorganiza-api/internal/chat/infra"
	chatservice "github.com/meorganiza/meorganiza-api/internal/chat/service"
	"github.com/meorganiza/meorganiza-api/internal/config"
	"github.com/meorganiza/meorganiza-api/internal/domain"
	"github.com/meorganiza/meorganiza-api/internal/finance"
	"github.com/meorganiza/meorganiza-api/internal/handler"
	"github.com/meorganiza/meorganiza-api/internal/infra/cache"
	"github.com/meorganiza/meorganiza-api/internal/infra/client"
	"github.com/meorganiza/meorganiza-api/internal/infra/observability"
	"github.com/meorganiza/meorganiza-api/internal/infra/resilience"
	"github.com/meorganiza/meorganiza-api/internal/infra/supabase"
	"github.com/meorganiza/meorganiza-api/internal/service"

	"go.uber.org/zap"
)

func main() {
	// --- Load .env file (for local development) ---
	_ = config.LoadDotEnv(".env")

	// --- Config ---
	cfg := config.Load()

	// --- Logger ---
	logger := observability.NewLogger(cfg.LogLevel)
	defer logger.Sync()

	logger.Info("configuration loaded",
		zap.Int("port", cfg.Port),
		zap.String("log_level", cfg.LogLevel),
		zap.Duration("http_timeout", cfg.HTTPTimeout),
		zap.Duration("cache_ttl", cfg.CacheTTL),
		zap.Int("max_retries", cfg.MaxRetries),
		zap.Duration("initial_backoff", cfg.InitialBackoff),
		zap.Duration("jwt_access_ttl", cfg.JWTAccessTTL),
		zap.Duration("jwt_refresh_ttl", cfg.JWTRefreshTTL),
		zap.Int("bill_due_soon_days", cfg.BillDueSoonDays),
	)

	if cfg.SupabaseURL == "" {
		logger.Fatal("SUPABASE_URL is required")
	}

	// --- Tracing ---
	shutdown, err := observability.InitTracer(cfg.OTLPEndpoint, "meorganiza-api")
	if err != nil {
		logger.Fatal("failed to init tracer", zap.Error(err))
	}
	defer shutdown(context.Background())

	// --- Metrics ---
	metrics := observability.NewMetrics()

	// --- Caches ---
	bankCache := cache.New[[]domain.Bank](cfg.CacheTTL)
	portfolioCache := cache.New[*finance.PortfolioSummary](cfg.CacheTTL)

	// --- Resilience ---
	resilienceCfg := resilience.Config{
		MaxRetries:     cfg.MaxRetries,
		InitialBackoff: cfg.InitialBackoff,
		MaxConcurrency: cfg.MaxConcurrency,
	}
	storeCB := resilience.NewCircuitBreaker("supabase")
	agentCB := resilience.NewCircuitBreaker("agent-api")
	agentBulkhead := resilience.NewBulkhead(cfg.MaxConcurrency)

	// --- Clients ---
	httpClient := &http.Client{Timeout: cfg.HTTPTimeout}

	store := supabase.NewClient(
		httpClient,
		cfg.SupabaseURL,
		cfg.SupabaseAnonKey,
		cfg.SupabaseServiceKey,
		storeCB,
		resilienceCfg,
		logger,
	)
	agentClient := client.NewAgentClient(httpClient, cfg.AgentAPIURL, agentCB, resilienceCfg, agentBulkhead)

	// --- Services ---
	authSvc := service.NewAuthService(store, cfg, logger)
	accountsSvc := service.NewAccountsService(store, bankCache, metrics, logger)
	categoriesSvc := service.NewCategoriesService(store, logger)
	transactionsSvc := service.NewTransactionsService(store, store, store, metrics, logger)
	cardsSvc := service.NewCardsService(store, store, logger)
	billsSvc := service.NewBillsService(store, store, store, metrics, logger, cfg.BillDueSoonDays)
	debtsSvc := service.NewDebtsService(store, store, store, metrics, logger)
	investmentsSvc := service.NewInvestmentsService(store, portfolioCache, metrics, logger)
	invoicesSvc := service.NewInvoicesService(store, store, store, metrics, logger)
	reportsSvc := service.NewReportsService(store, store, store, store, metrics, logger, cfg.BillDueSoonDays)
	assistantSvc := service.NewAssistantService(agentClient, store, store, store, store, store, metrics, logger)

	// --- Chat ---
	meteredAgent := chatinfra.NewMeteredAgentCaller(agentClient, metrics)
	snapshotStrategy := chatservice.NewSnapshotStrategy(meteredAgent, assistantSvc, logger)
	chatSvc := chatservice.NewChatService(meteredAgent, []chatservice.ChatStrategy{snapshotStrategy}, logger)
	chatHandler := chathandler.NewChatHandler(chatSvc, logger)

	// --- Router ---
	router := handler.NewRouter(handler.Services{
		Auth:         authSvc,
		Accounts:     accountsSvc,
		Categories:   categoriesSvc,
		Transactions: transactionsSvc,
		Cards:        cardsSvc,
		Bills:        billsSvc,
		Debts:        debtsSvc,
		Investments:  investmentsSvc,
		Invoices:     invoicesSvc,
		Reports:      reportsSvc,
		Assistant:    assistantSvc,
	}, chatHandler, metrics, logger)

	// --- Server ---
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// --- Graceful shutdown ---
	go func() {
		logger.Info("server starting", zap.Int("port", cfg.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("server shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Fatal("server forced shutdown", zap.Error(err))
	}

	logger.Info("server stopped")
}
