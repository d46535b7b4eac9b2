package services

import (
	"context"

	"walletgenie/internal/amqp"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/store"
)

// TransactionSource yields a user's full history. The returned slice is
// shared and must not be modified.
type TransactionSource interface {
	All(ctx context.Context, userID string) ([]core.Transaction, error)
}

type BudgetService struct {
	repo   store.BudgetRepository
	cats   CategoryLister
	txs    TransactionSource
	pub    EventPublisher
	clock  core.Clock
	logger *log.Logger
}

func NewBudgetService(repo store.BudgetRepository, cats CategoryLister, txs TransactionSource, pub EventPublisher, clock core.Clock, logger *log.Logger) *BudgetService {
	if clock == nil {
		clock = core.SystemClock{}
	}
	return &BudgetService{
		repo:   repo,
		cats:   cats,
		txs:    txs,
		pub:    pub,
		clock:  clock,
		logger: componentLogger(logger, log.ComponentBudget),
	}
}

// Get returns the stored budget, or an empty one when the user has none.
// Spent is always zero; call RecomputeActuals before presenting it.
func (s *BudgetService) Get(ctx context.Context, userID string) (core.Budget, error) {
	b, _, err := s.repo.GetBudget(ctx, userID)
	if err != nil {
		return core.NewBudget(), storeErr("get budget", err)
	}
	if b.Allocations == nil {
		b.Allocations = map[string]core.BudgetAllocation{}
	}
	return b, nil
}

// RecomputeActuals derives Spent for asOf's month from the transaction
// history. The budget universe is the user's expense categories, or the
// default list when the user has none.
func (s *BudgetService) RecomputeActuals(ctx context.Context, userID string, b core.Budget, asOf core.Date) (core.Budget, error) {
	set, err := s.cats.List(ctx, userID)
	if err != nil {
		return b, err
	}
	universe := set.Expense
	if len(universe) == 0 {
		universe = core.DefaultExpenseCategories
	}
	txs, err := s.txs.All(ctx, userID)
	if err != nil {
		return b, err
	}
	return core.ApplyActuals(b, universe, txs, asOf), nil
}

// Save persists b with a fresh LastUpdated stamp and returns what was stored.
func (s *BudgetService) Save(ctx context.Context, userID string, b core.Budget) (core.Budget, error) {
	if err := b.Validate(); err != nil {
		return b, err
	}
	b = b.Clone()
	b.LastUpdated = s.clock.Now().UTC()
	if err := s.repo.SaveBudget(ctx, userID, b); err != nil {
		return b, storeErr("save budget", err)
	}

	s.logger.InfoContext(ctx, "Budget saved",
		log.FieldUserID, userID,
		"monthly_income_cents", b.MonthlyIncome.Cents,
		log.FieldCount, len(b.Allocations))
	publish(ctx, s.pub, s.logger, amqp.NewEvent(amqp.BudgetSaved, userID, ""))
	return b, nil
}

// Overview loads the budget, recomputes actuals for asOf and summarizes it.
func (s *BudgetService) Overview(ctx context.Context, userID string, asOf core.Date) (core.Budget, core.Summary, error) {
	b, err := s.Get(ctx, userID)
	if err != nil {
		return b, core.Summary{}, err
	}
	b, err = s.RecomputeActuals(ctx, userID, b, asOf)
	if err != nil {
		return b, core.Summary{}, err
	}
	return b, core.Summarize(b), nil
}

// Today is the service clock's current date.
func (s *BudgetService) Today() core.Date {
	return core.Today(s.clock)
}
