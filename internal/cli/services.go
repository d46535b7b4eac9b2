package cli

import (
	"time"

	"walletgenie/internal/cache"
	"walletgenie/internal/config"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/services"
	"walletgenie/internal/store"
)

// cleanupInterval is how often expired memo entries are dropped.
const cleanupInterval = time.Minute

// Services is the command layer wired to one store.
type Services struct {
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService

	// Caches owns the memo cleanup loop; call Caches.Stop on shutdown.
	Caches       *cache.Manager
	CategoryMemo *cache.Memo[core.CategorySet]
	TxMemo       *cache.Memo[[]core.Transaction]
}

// BuildServices wires the services over st. pub may be nil.
func BuildServices(cfg *config.Config, st store.Store, pub services.EventPublisher, logger *log.Logger) *Services {
	catMemo := cache.NewMemo[core.CategorySet](cfg.CacheSize, cfg.CacheTTL)
	txMemo := cache.NewMemo[[]core.Transaction](cfg.CacheSize, cfg.CacheTTL)

	manager := cache.NewManager()
	manager.Register(catMemo)
	manager.Register(txMemo)

	clock := core.SystemClock{}
	cats := services.NewCategoryService(st, cfg.MaxCategories, catMemo, logger)
	txs := services.NewTransactionService(services.TransactionServiceConfig{
		Repo:       st,
		Categories: cats,
		Publisher:  pub,
		Clock:      clock,
		BatchSize:  cfg.DeleteBatchSize,
		Memo:       txMemo,
		Logger:     logger,
	})

	return &Services{
		Categories:   cats,
		Transactions: txs,
		Budgets:      services.NewBudgetService(st, cats, txs, pub, clock, logger),
		Goals:        services.NewGoalService(st, clock, logger),
		Caches:       manager,
		CategoryMemo: catMemo,
		TxMemo:       txMemo,
	}
}

// StartCleanup begins the periodic memo cleanup.
func (s *Services) StartCleanup() {
	s.Caches.StartCleanup(cleanupInterval)
}
