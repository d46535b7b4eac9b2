// Package store declares the document-store ports the services depend on.
// Every method is scoped by user ID; records of different users never mix.
package store

import (
	"context"

	"walletgenie/internal/core"
)

// Ports for outbound adapters.
type (
	CategoryRepository interface {
		// ListCategories returns empty lists, not an error, for an unknown user.
		ListCategories(ctx context.Context, userID string) (core.CategorySet, error)
		AddCategory(ctx context.Context, userID string, kind core.Kind, name string) error
		// DeleteCategory fails with core.ErrNotFound when name is absent.
		DeleteCategory(ctx context.Context, userID string, kind core.Kind, name string) error
	}

	TransactionRepository interface {
		AddTransaction(ctx context.Context, userID string, t core.Transaction) error
		// AddTransactions writes all records or none.
		AddTransactions(ctx context.Context, userID string, txs []core.Transaction) error
		GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error)
		// ListTransactions returns records in insertion order.
		ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error)
		DeleteTransaction(ctx context.Context, userID, id string) error
		// DeleteTransactions removes ids in one atomic commit and reports how
		// many existed.
		DeleteTransactions(ctx context.Context, userID string, ids []string) (int, error)
	}

	BudgetRepository interface {
		// GetBudget never returns a stored spent snapshot; Spent is always zero.
		GetBudget(ctx context.Context, userID string) (core.Budget, bool, error)
		SaveBudget(ctx context.Context, userID string, b core.Budget) error
	}

	GoalRepository interface {
		AddGoal(ctx context.Context, userID string, g core.Goal) error
		GetGoal(ctx context.Context, userID, id string) (core.Goal, error)
		ListGoals(ctx context.Context, userID string) ([]core.Goal, error)
		UpdateGoalProgress(ctx context.Context, userID, id string, current core.Money, onTrack bool) error
		DeleteGoal(ctx context.Context, userID, id string) error
	}

	Pinger interface {
		Ping(ctx context.Context) error
	}

	// Store is the full set of ports a backend provides.
	Store interface {
		CategoryRepository
		TransactionRepository
		BudgetRepository
		GoalRepository
		Pinger
	}
)
