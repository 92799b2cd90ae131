package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/abhinavaxid/finance-tracker/internal/config"
	"github.com/abhinavaxid/finance-tracker/internal/logger"
	"github.com/abhinavaxid/finance-tracker/internal/services"
)

// Scheduler runs the periodic background jobs: materializing due recurring
// transactions, sweeping budget alert states, and generating insights.
// Each job runs on its own ticker and fires once at startup.
type Scheduler struct {
	recurring services.RecurringServicer
	budgets   services.BudgetServicer
	insights  services.InsightServicer
	cfg       *config.Config

	wg sync.WaitGroup
}

func New(recurring services.RecurringServicer, budgets services.BudgetServicer, insights services.InsightServicer, cfg *config.Config) *Scheduler {
	return &Scheduler{
		recurring: recurring,
		budgets:   budgets,
		insights:  insights,
		cfg:       cfg,
	}
}

// Start launches all job loops. They stop when ctx is cancelled.
func (s *Scheduler) Start(ctx context.Context) {
	s.runLoop(ctx, "recurring-sweep", s.cfg.RecurringSweepInterval, func() {
		count, err := s.recurring.ProcessDue()
		if err != nil {
			logger.Get().Errorw("Recurring sweep failed", "error", err)
			return
		}
		logger.Get().Infow("Recurring sweep complete", "transactions_created", count)
	})

	s.runLoop(ctx, "budget-alert-sweep", s.cfg.BudgetAlertSweepInterval, func() {
		count, err := s.budgets.CheckAlerts()
		if err != nil {
			logger.Get().Errorw("Budget alert sweep failed", "error", err)
			return
		}
		logger.Get().Infow("Budget alert sweep complete", "alerts_dispatched", count)
	})

	s.runLoop(ctx, "insight-generation", s.cfg.InsightInterval, func() {
		count, err := s.insights.GenerateAll()
		if err != nil {
			logger.Get().Errorw("Insight generation failed", "error", err)
			return
		}
		logger.Get().Infow("Insight generation complete", "insights_created", count)
	})
}

// Wait blocks until all job loops have exited.
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) runLoop(ctx context.Context, name string, interval time.Duration, job func()) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		logger.Get().Infow("Background job started", "job", name, "interval", interval)

		// Run once immediately so a freshly started instance catches up
		// without waiting a full interval.
		job()

		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				logger.Get().Infow("Background job stopped", "job", name)
				return
			case <-ticker.C:
				job()
			}
		}
	}()
}
