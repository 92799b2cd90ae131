package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/abhinavaxid/finance-tracker/internal/config"
	"github.com/abhinavaxid/finance-tracker/internal/database"
	"github.com/abhinavaxid/finance-tracker/internal/logger"
	"github.com/abhinavaxid/finance-tracker/internal/scheduler"
	"github.com/abhinavaxid/finance-tracker/internal/services"
)

// Standalone background worker. Runs the same jobs as the in-process
// scheduler in cmd/api, for deployments that keep sweeps off the API
// instances. Sweeps are safe to run from both at once.
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

	db := dbManager.DB()
	userService := services.NewUserService(db)
	notificationService := services.NewNotificationService(db)
	budgetService := services.NewBudgetService(db, notificationService)
	transactionService := services.NewTransactionService(db, budgetService)
	recurringService := services.NewRecurringService(db, transactionService, notificationService)
	insightService := services.NewInsightService(db, userService)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	jobs := scheduler.New(recurringService, budgetService, insightService, appConfig)
	jobs.Start(ctx)

	log.Infow("Worker started",
		"recurring_interval", appConfig.RecurringSweepInterval,
		"budget_alert_interval", appConfig.BudgetAlertSweepInterval,
		"insight_interval", appConfig.InsightInterval)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	sig := <-sigCh
	log.Infof("Shutdown signal received: %s", sig)

	cancel()
	jobs.Wait()
	log.Info("Worker stopped")
	return nil
}
