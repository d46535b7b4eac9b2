package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"walletgenie/internal/core"
)

func tx(id string) core.Transaction {
	return core.Transaction{
		ID:          id,
		Description: "t",
		Amount:      core.Money{Cents: 100},
		Date:        core.NewDate(2025, 1, 1),
		Kind:        core.Expense,
		Category:    "Food",
	}
}

func TestCategoriesPerUser(t *testing.T) {
	ctx := context.Background()
	s := New()

	set, err := s.ListCategories(ctx, "nobody")
	if err != nil || len(set.Expense) != 0 || len(set.Income) != 0 {
		t.Fatalf("unknown user: %+v %v", set, err)
	}

	if err := s.AddCategory(ctx, "u1", core.Expense, "Food"); err != nil {
		t.Fatal(err)
	}
	if err := s.AddCategory(ctx, "u1", core.Expense, "Food"); !errors.Is(err, core.ErrAlreadyExists) {
		t.Fatalf("duplicate accepted: %v", err)
	}
	if err := s.AddCategory(ctx, "u1", core.Income, "Food"); err != nil {
		t.Fatalf("kinds are separate lists: %v", err)
	}

	other, _ := s.ListCategories(ctx, "u2")
	if len(other.Expense) != 0 {
		t.Fatalf("categories leaked across users")
	}

	if err := s.DeleteCategory(ctx, "u1", core.Expense, "Rent"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteCategory(ctx, "u1", core.Expense, "Food"); err != nil {
		t.Fatal(err)
	}
	set, _ = s.ListCategories(ctx, "u1")
	if len(set.Expense) != 0 || len(set.Income) != 1 {
		t.Fatalf("after delete: %+v", set)
	}
}

func TestTransactionsKeepInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	for _, id := range []string{"a", "b", "c"} {
		if err := s.AddTransaction(ctx, "u", tx(id)); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.AddTransactions(ctx, "u", []core.Transaction{tx("d"), tx("a")}); !errors.Is(err, core.ErrAlreadyExists) {
		t.Fatalf("batch with duplicate accepted: %v", err)
	}
	list, _ := s.ListTransactions(ctx, "u")
	if len(list) != 3 || list[0].ID != "a" || list[2].ID != "c" {
		t.Fatalf("list = %+v", list)
	}

	n, err := s.DeleteTransactions(ctx, "u", []string{"a", "c", "zzz"})
	if err != nil || n != 2 {
		t.Fatalf("deleted %d, %v", n, err)
	}
	if _, err := s.GetTransaction(ctx, "u", "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteTransaction(ctx, "u", "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if n, _ := s.DeleteTransactions(ctx, "empty", []string{"x"}); n != 0 {
		t.Fatalf("unknown user deleted %d", n)
	}
}

func TestBudgetNeverReturnsSpent(t *testing.T) {
	ctx := context.Background()
	s := New()
	if _, found, err := s.GetBudget(ctx, "u"); found || err != nil {
		t.Fatalf("expected no budget")
	}
	b := core.NewBudget()
	b.MonthlyIncome = core.Money{Cents: 1000}
	b.Allocations["Food"] = core.BudgetAllocation{Category: "Food", Allocated: core.Money{Cents: 500}, Spent: core.Money{Cents: 400}}
	if err := b.SetRecommendedFraction("Food", 0.25); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveBudget(ctx, "u", b); err != nil {
		t.Fatal(err)
	}
	got, found, err := s.GetBudget(ctx, "u")
	if !found || err != nil {
		t.Fatalf("budget missing: %v", err)
	}
	food := got.Allocations["Food"]
	if food.Allocated.Cents != 500 || food.Spent.Cents != 0 || food.RecommendedFraction != 0.25 {
		t.Fatalf("allocation = %+v", got.Allocations["Food"])
	}
}

func TestGoals(t *testing.T) {
	ctx := context.Background()
	s := New()
	g := core.Goal{ID: "g1", Name: "Car", Target: core.Money{Cents: 1000}}
	if err := s.AddGoal(ctx, "u", g); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateGoalProgress(ctx, "u", "g1", core.Money{Cents: 1000}, true); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetGoal(ctx, "u", "g1")
	if err != nil || got.Current.Cents != 1000 || !got.OnTrack || got.Name != "Car" {
		t.Fatalf("goal = %+v, %v", got, err)
	}
	if err := s.UpdateGoalProgress(ctx, "u", "missing", core.Money{}, false); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if err := s.DeleteGoal(ctx, "u", "g1"); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteGoal(ctx, "u", "g1"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestNewFromFilesSeedsAndDedupe(t *testing.T) {
	dir := t.TempDir()
	s := NewFromFiles(dir, "local")
	set, _ := s.ListCategories(context.Background(), "local")
	if len(set.Expense) != 0 {
		t.Fatalf("expected empty lists when files are missing")
	}

	mustWrite := func(name, content string) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
			t.Fatalf("write %s: %v", name, err)
		}
	}
	mustWrite("expense_categories.txt", "# header\nFood\nRent\nFood\n\n")
	mustWrite("income_categories.txt", "Salary\n")

	s = NewFromFiles(dir, "local")
	set, _ = s.ListCategories(context.Background(), "local")
	if len(set.Expense) != 2 || set.Expense[0] != "Food" || set.Expense[1] != "Rent" {
		t.Fatalf("unexpected expense categories: %v", set.Expense)
	}
	if len(set.Income) != 1 || set.Income[0] != "Salary" {
		t.Fatalf("unexpected income categories: %v", set.Income)
	}
	other, _ := s.ListCategories(context.Background(), "someone")
	if len(other.Expense) != 0 {
		t.Fatalf("seed applies to the seed user only")
	}
}
