package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"walletgenie/internal/core"

	_ "modernc.org/sqlite"
)

const timeLayout = time.RFC3339Nano

type SQLiteRepository struct {
	db *sql.DB
}

func NewSQLiteRepository(dbPath string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}
	// SQLite allows a single writer; serialize through one connection.
	db.SetMaxOpenConns(1)

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	return &SQLiteRepository{db: db}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

func (r *SQLiteRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

// ListCategories implements store.CategoryRepository
func (r *SQLiteRepository) ListCategories(ctx context.Context, userID string) (core.CategorySet, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT kind, name FROM categories WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return core.CategorySet{}, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	set := core.CategorySet{Expense: []string{}, Income: []string{}}
	for rows.Next() {
		var kind, name string
		if err := rows.Scan(&kind, &name); err != nil {
			return core.CategorySet{}, fmt.Errorf("scan category: %w", err)
		}
		if core.Kind(kind) == core.Income {
			set.Income = append(set.Income, name)
		} else {
			set.Expense = append(set.Expense, name)
		}
	}
	return set, rows.Err()
}

func (r *SQLiteRepository) AddCategory(ctx context.Context, userID string, kind core.Kind, name string) error {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO categories (user_id, kind, name) VALUES (?, ?, ?) ON CONFLICT DO NOTHING`,
		userID, string(kind), name)
	if err != nil {
		return fmt.Errorf("insert category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrAlreadyExists
	}
	return nil
}

func (r *SQLiteRepository) DeleteCategory(ctx context.Context, userID string, kind core.Kind, name string) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM categories WHERE user_id = ? AND kind = ? AND name = ?`,
		userID, string(kind), name)
	if err != nil {
		return fmt.Errorf("delete category: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

const insertTransaction = `INSERT INTO transactions
	(id, user_id, description, amount_cents, date, kind, category, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTx(ctx context.Context, db execer, userID string, t core.Transaction) error {
	res, err := db.ExecContext(ctx, insertTransaction,
		t.ID, userID, t.Description, t.Amount.Cents, t.Date.String(),
		string(t.Kind), t.Category, t.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrAlreadyExists
	}
	return nil
}

// AddTransaction implements store.TransactionRepository
func (r *SQLiteRepository) AddTransaction(ctx context.Context, userID string, t core.Transaction) error {
	if err := insertTx(ctx, r.db, userID, t); err != nil {
		return err
	}
	slog.DebugContext(ctx, "Transaction saved to SQLite",
		"id", t.ID,
		"user_id", userID,
		"amount_cents", t.Amount.Cents,
		"date", t.Date.String())
	return nil
}

// AddTransactions writes txs in one SQL transaction.
func (r *SQLiteRepository) AddTransactions(ctx context.Context, userID string, txs []core.Transaction) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		for _, t := range txs {
			if err := insertTx(ctx, tx, userID, t); err != nil {
				return err
			}
		}
		return nil
	})
}

const selectTransaction = `SELECT id, description, amount_cents, date, kind, category, created_at FROM transactions`

func (r *SQLiteRepository) GetTransaction(ctx context.Context, userID, id string) (core.Transaction, error) {
	row := r.db.QueryRowContext(ctx, selectTransaction+` WHERE user_id = ? AND id = ?`, userID, id)
	t, err := scanTransaction(row)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Transaction{}, core.ErrNotFound
	}
	return t, err
}

func (r *SQLiteRepository) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	rows, err := r.db.QueryContext(ctx, selectTransaction+` WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list transactions: %w", err)
	}
	defer rows.Close()

	var out []core.Transaction
	for rows.Next() {
		t, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanTransaction(s scanner) (core.Transaction, error) {
	var (
		t                  core.Transaction
		date, kind, create string
	)
	if err := s.Scan(&t.ID, &t.Description, &t.Amount.Cents, &date, &kind, &t.Category, &create); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("scan transaction: %w", err)
	}
	d, err := core.ParseDate(date)
	if err != nil {
		return t, fmt.Errorf("transaction %s: stored date %q: %w", t.ID, date, err)
	}
	t.Date = d
	t.Kind = core.Kind(kind)
	t.CreatedAt, _ = time.Parse(timeLayout, create)
	return t, nil
}

func (r *SQLiteRepository) DeleteTransaction(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM transactions WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

// DeleteTransactions removes ids in a single commit.
func (r *SQLiteRepository) DeleteTransactions(ctx context.Context, userID string, ids []string) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	var deleted int64
	err := r.inTx(ctx, func(tx *sql.Tx) error {
		args := make([]any, 0, len(ids)+1)
		args = append(args, userID)
		for _, id := range ids {
			args = append(args, id)
		}
		q := `DELETE FROM transactions WHERE user_id = ? AND id IN (?` + strings.Repeat(",?", len(ids)-1) + `)`
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return fmt.Errorf("delete transactions: %w", err)
		}
		deleted, _ = res.RowsAffected()
		return nil
	})
	return int(deleted), err
}

// GetBudget implements store.BudgetRepository. The spent snapshot column is
// deliberately not selected.
func (r *SQLiteRepository) GetBudget(ctx context.Context, userID string) (core.Budget, bool, error) {
	b := core.NewBudget()
	var updated string
	err := r.db.QueryRowContext(ctx,
		`SELECT monthly_income_cents, last_updated FROM budgets WHERE user_id = ?`, userID,
	).Scan(&b.MonthlyIncome.Cents, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return b, false, nil
	}
	if err != nil {
		return b, false, fmt.Errorf("get budget: %w", err)
	}
	b.LastUpdated, _ = time.Parse(timeLayout, updated)

	rows, err := r.db.QueryContext(ctx,
		`SELECT category, allocated_cents, recommended_fraction FROM budget_allocations WHERE user_id = ?`, userID)
	if err != nil {
		return b, false, fmt.Errorf("get allocations: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var a core.BudgetAllocation
		if err := rows.Scan(&a.Category, &a.Allocated.Cents, &a.RecommendedFraction); err != nil {
			return b, false, fmt.Errorf("scan allocation: %w", err)
		}
		b.Allocations[a.Category] = a
	}
	return b, true, rows.Err()
}

// SaveBudget replaces the user's budget and allocations atomically.
func (r *SQLiteRepository) SaveBudget(ctx context.Context, userID string, b core.Budget) error {
	return r.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx, `INSERT INTO budgets (user_id, monthly_income_cents, last_updated)
			VALUES (?, ?, ?)
			ON CONFLICT (user_id) DO UPDATE SET
				monthly_income_cents = excluded.monthly_income_cents,
				last_updated = excluded.last_updated`,
			userID, b.MonthlyIncome.Cents, b.LastUpdated.UTC().Format(timeLayout))
		if err != nil {
			return fmt.Errorf("upsert budget: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM budget_allocations WHERE user_id = ?`, userID); err != nil {
			return fmt.Errorf("clear allocations: %w", err)
		}
		for name, a := range b.Allocations {
			_, err := tx.ExecContext(ctx, `INSERT INTO budget_allocations
				(user_id, category, allocated_cents, recommended_fraction, spent_snapshot_cents)
				VALUES (?, ?, ?, ?, ?)`,
				userID, name, a.Allocated.Cents, a.RecommendedFraction, a.Spent.Cents)
			if err != nil {
				return fmt.Errorf("insert allocation %s: %w", name, err)
			}
		}
		return nil
	})
}

// AddGoal implements store.GoalRepository
func (r *SQLiteRepository) AddGoal(ctx context.Context, userID string, g core.Goal) error {
	res, err := r.db.ExecContext(ctx, `INSERT INTO goals
		(id, user_id, name, target_cents, current_cents, deadline, category, on_track, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?) ON CONFLICT (id) DO NOTHING`,
		g.ID, userID, g.Name, g.Target.Cents, g.Current.Cents, g.Deadline.String(),
		string(g.Category), g.OnTrack, g.CreatedAt.UTC().Format(timeLayout))
	if err != nil {
		return fmt.Errorf("insert goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrAlreadyExists
	}
	return nil
}

const selectGoal = `SELECT id, name, target_cents, current_cents, deadline, category, on_track, created_at FROM goals`

func (r *SQLiteRepository) GetGoal(ctx context.Context, userID, id string) (core.Goal, error) {
	g, err := scanGoal(r.db.QueryRowContext(ctx, selectGoal+` WHERE user_id = ? AND id = ?`, userID, id))
	if errors.Is(err, sql.ErrNoRows) {
		return core.Goal{}, core.ErrNotFound
	}
	return g, err
}

func (r *SQLiteRepository) ListGoals(ctx context.Context, userID string) ([]core.Goal, error) {
	rows, err := r.db.QueryContext(ctx, selectGoal+` WHERE user_id = ? ORDER BY seq`, userID)
	if err != nil {
		return nil, fmt.Errorf("list goals: %w", err)
	}
	defer rows.Close()
	var out []core.Goal
	for rows.Next() {
		g, err := scanGoal(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, g)
	}
	return out, rows.Err()
}

func scanGoal(s scanner) (core.Goal, error) {
	var (
		g                           core.Goal
		deadline, category, created string
	)
	if err := s.Scan(&g.ID, &g.Name, &g.Target.Cents, &g.Current.Cents, &deadline, &category, &g.OnTrack, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return g, err
		}
		return g, fmt.Errorf("scan goal: %w", err)
	}
	d, err := core.ParseDate(deadline)
	if err != nil {
		return g, fmt.Errorf("goal %s: stored deadline %q: %w", g.ID, deadline, err)
	}
	g.Deadline = d
	g.Category = core.GoalCategory(category)
	g.CreatedAt, _ = time.Parse(timeLayout, created)
	return g, nil
}

func (r *SQLiteRepository) UpdateGoalProgress(ctx context.Context, userID, id string, current core.Money, onTrack bool) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE goals SET current_cents = ?, on_track = ? WHERE user_id = ? AND id = ?`,
		current.Cents, onTrack, userID, id)
	if err != nil {
		return fmt.Errorf("update goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) DeleteGoal(ctx context.Context, userID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM goals WHERE user_id = ? AND id = ?`, userID, id)
	if err != nil {
		return fmt.Errorf("delete goal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (r *SQLiteRepository) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
