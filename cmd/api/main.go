package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	"github.com/abhinavaxid/finance-tracker/internal/config"
	"github.com/abhinavaxid/finance-tracker/internal/database"
	"github.com/abhinavaxid/finance-tracker/internal/handlers"
	"github.com/abhinavaxid/finance-tracker/internal/logger"
	"github.com/abhinavaxid/finance-tracker/internal/middleware"
	"github.com/abhinavaxid/finance-tracker/internal/scheduler"
	"github.com/abhinavaxid/finance-tracker/internal/services"
	"github.com/abhinavaxid/finance-tracker/internal/validator"

	_ "github.com/abhinavaxid/finance-tracker/internal/docs" // Import swagger docs
)

// @title           Finance Tracker API
// @version         1.0
// @description     Personal finance tracker with intent-driven transaction entry, recurring transactions, budgets with threshold alerts, and spending insights.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

func main() {
	logger.Init(os.Getenv("APP_ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	dbManager, err := database.NewManager(appConfig)
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}

	if err := dbManager.RunMigrations(); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	validator.Register()

	// Initialize services
	db := dbManager.DB()
	userService := services.NewUserService(db)
	categoryService := services.NewCategoryService(db)
	notificationService := services.NewNotificationService(db)
	budgetService := services.NewBudgetService(db, notificationService)
	transactionService := services.NewTransactionService(db, budgetService)
	recurringService := services.NewRecurringService(db, transactionService, notificationService)
	intentService := services.NewIntentService(categoryService, transactionService)
	insightService := services.NewInsightService(db, userService)
	auditService := services.NewAuditService(db)

	// Initialize handlers
	authHandler := handlers.NewAuthHandler(userService)
	categoryHandler := handlers.NewCategoryHandler(categoryService, auditService)
	transactionHandler := handlers.NewTransactionHandler(transactionService, auditService)
	budgetHandler := handlers.NewBudgetHandler(budgetService, auditService)
	recurringHandler := handlers.NewRecurringHandler(recurringService, auditService)
	intentHandler := handlers.NewIntentHandler(intentService, auditService)
	notificationHandler := handlers.NewNotificationHandler(notificationService)
	insightHandler := handlers.NewInsightHandler(insightService)

	// Initialize Gin router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.RequestLogging())
	router.Use(middleware.ErrorHandler())

	// CORS middleware
	router.Use(func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	})

	// Swagger documentation
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Health check endpoint
	router.GET("/api/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	// API v1 group
	v1 := router.Group("/api/v1")

	// Public routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	// User profile
	protected.GET("/profile", authHandler.GetProfile)
	protected.POST("/auth/logout", authHandler.Logout)

	// Category routes
	categories := protected.Group("/categories")
	categories.POST("", categoryHandler.CreateCategory)
	categories.GET("", categoryHandler.GetCategories)
	categories.GET("/:id", categoryHandler.GetCategory)
	categories.PUT("/:id", categoryHandler.UpdateCategory)
	categories.POST("/:id/deactivate", categoryHandler.DeactivateCategory)

	// Transaction routes
	transactions := protected.Group("/transactions")
	transactions.POST("", transactionHandler.CreateTransaction)
	transactions.GET("", transactionHandler.GetTransactions)
	transactions.GET("/:id", transactionHandler.GetTransaction)
	transactions.DELETE("/:id", transactionHandler.DeleteTransaction)

	// Budget routes
	budgets := protected.Group("/budgets")
	budgets.POST("", budgetHandler.CreateBudget)
	budgets.GET("", budgetHandler.GetBudgets)
	budgets.GET("/status", budgetHandler.GetBudgetStatus)
	budgets.GET("/:id", budgetHandler.GetBudget)
	budgets.PUT("/:id", budgetHandler.UpdateBudget)
	budgets.POST("/:id/recalculate", budgetHandler.RecalculateBudget)
	budgets.DELETE("/:id", budgetHandler.DeleteBudget)

	// Recurring transaction routes
	recurring := protected.Group("/recurring")
	recurring.POST("", recurringHandler.CreateRecurring)
	recurring.GET("", recurringHandler.GetRecurring)
	recurring.GET("/due", recurringHandler.GetDueRecurring)
	recurring.GET("/:id", recurringHandler.GetRecurringByID)
	recurring.PUT("/:id", recurringHandler.UpdateRecurring)
	recurring.POST("/:id/deactivate", recurringHandler.DeactivateRecurring)
	recurring.DELETE("/:id", recurringHandler.DeleteRecurring)

	// Intent dispatch
	protected.POST("/intent/transactions", intentHandler.DispatchIntent)

	// Notification routes
	notifications := protected.Group("/notifications")
	notifications.GET("", notificationHandler.GetNotifications)
	notifications.POST("/:id/read", notificationHandler.MarkNotificationRead)

	// Insight routes
	insights := protected.Group("/insights")
	insights.GET("", insightHandler.GetInsights)
	insights.POST("/generate", insightHandler.GenerateInsights)
	insights.POST("/:id/dismiss", insightHandler.DismissInsight)

	// Background jobs run in-process; the worker binary exists for
	// deployments that want them out of the request path.
	jobCtx, stopJobs := context.WithCancel(context.Background())
	defer stopJobs()
	jobs := scheduler.New(recurringService, budgetService, insightService, appConfig)
	jobs.Start(jobCtx)

	srv := &http.Server{
		Addr:    ":" + appConfig.Port,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting finance-tracker server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return err
	case sig := <-sigCh:
		log.Infof("Shutdown signal received: %s", sig)
	}

	stopJobs()
	jobs.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	log.Info("Server stopped")
	return nil
}
