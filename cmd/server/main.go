package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"budgetledger/internal/config"
	"budgetledger/internal/database"
	"budgetledger/internal/handlers"
	"budgetledger/internal/middleware"
	"budgetledger/internal/repositories"
	"budgetledger/internal/services"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	cfg := config.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	db, err := database.Initialize(cfg)
	if err != nil {
		log.Fatalf("database: %v", err)
	}

	// Repositories
	transactionRepo := repositories.NewTransactionRepository(db)
	budgetRepo := repositories.NewBudgetPreferenceRepository(db)
	categoryRepo := repositories.NewCategoryRepository(db)
	auditRepo := repositories.NewAuditLogRepository(db)

	// Services
	metrics := services.NewPrometheusMetrics()
	circuitBreaker := services.NewCircuitBreaker(services.DefaultCircuitBreakerConfig())
	auditLogger := services.NewAuditLogger(logger, auditRepo)
	categoryResolver := services.NewCategoryResolver(categoryRepo)
	transactionService := services.NewTransactionService(transactionRepo, categoryResolver, auditLogger, metrics, circuitBreaker, logger)
	budgetService := services.NewBudgetService(budgetRepo, auditLogger, metrics, circuitBreaker, logger)

	// Handlers
	transactionHandler := handlers.NewTransactionHandler(transactionService)
	budgetHandler := handlers.NewBudgetHandler(budgetService)
	healthHandler := handlers.NewHealthCheckHandler(db)

	e := echo.New()
	e.HideBanner = true
	e.Validator = handlers.NewValidator()

	e.Use(middleware.RequestID())
	e.Use(middleware.PanicRecovery())
	e.Use(echomw.CORSWithConfig(echomw.CORSConfig{
		AllowOrigins: cfg.Server.CORSAllowOrigins,
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAuthorization},
	}))
	e.Use(middleware.RateLimiterWithConfig(cfg.Security.RateLimitPerSecond, cfg.Security.RateLimitBurst))

	e.GET("/health", healthHandler.HealthCheck)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api/v1", middleware.RequireAuth([]byte(cfg.JWT.Secret)))

	api.POST("/transactions/income", transactionHandler.CreateIncome)
	api.POST("/transactions/expenses", transactionHandler.CreateExpense)
	api.GET("/transactions", transactionHandler.ListTransactions)
	api.GET("/transactions/:id", transactionHandler.GetTransaction)
	api.GET("/transactions/:id/distributions", transactionHandler.GetDistributionGroup)
	api.PATCH("/transactions/:id", transactionHandler.UpdateTransaction)
	api.DELETE("/transactions/:id", transactionHandler.DeleteTransaction)

	api.GET("/budget", budgetHandler.GetBudget)
	api.PUT("/budget", budgetHandler.UpdateBudget)

	srv := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      e,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		logger.Info("server listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal("server shutdown:", err)
	}
	logger.Info("server stopped")
}
