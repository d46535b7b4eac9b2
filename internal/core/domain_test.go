package core

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestParseDate(t *testing.T) {
	d, err := ParseDate("2025-03-09")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d != NewDate(2025, 3, 9) {
		t.Fatalf("got %v", d)
	}
	if d.String() != "2025-03-09" {
		t.Fatalf("round trip: %s", d.String())
	}

	for _, bad := range []string{"03/09/2025", "2025-13-01", "", "yesterday"} {
		if _, err := ParseDate(bad); !errors.Is(err, ErrInvalidDate) {
			t.Errorf("ParseDate(%q) expected ErrInvalidDate, got %v", bad, err)
		}
	}
}

func TestDateHelpers(t *testing.T) {
	a := NewDate(2025, 1, 31)
	if got := a.DaysUntil(NewDate(2025, 3, 1)); got != 29 {
		t.Fatalf("DaysUntil = %d", got)
	}
	if got := a.DaysUntil(NewDate(2025, 1, 1)); got != -30 {
		t.Fatalf("DaysUntil backwards = %d", got)
	}
	if !a.SameMonth(NewDate(2025, 1, 1)) || a.SameMonth(NewDate(2024, 1, 31)) {
		t.Fatalf("SameMonth mismatch")
	}
	local := time.Date(2025, 6, 1, 23, 30, 0, 0, time.FixedZone("X", 5*3600))
	if DateOf(local) != NewDate(2025, 6, 1) {
		t.Fatalf("DateOf should keep the local calendar day")
	}
}

func TestParseKind(t *testing.T) {
	for in, want := range map[string]Kind{"Expense": Expense, "INCOME": Income, " expense ": Expense} {
		got, err := ParseKind(in)
		if err != nil || got != want {
			t.Errorf("ParseKind(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseKind("All"); !IsValidation(err) {
		t.Errorf("All is not a storable kind")
	}
}

func TestParseGoalCategory(t *testing.T) {
	for _, in := range []string{"Debt Repayment", "debt_repayment", "DEBT REPAYMENT"} {
		got, err := ParseGoalCategory(in)
		if err != nil || got != GoalDebtRepayment {
			t.Errorf("ParseGoalCategory(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseGoalCategory("Vacation"); !errors.Is(err, ErrInvalidGoalCategory) {
		t.Errorf("expected invalid goal category, got %v", err)
	}
}

func TestNewTransactionValidate(t *testing.T) {
	good := NewTransaction{
		Description: "groceries",
		Amount:      Money{Cents: 1250},
		Date:        NewDate(2025, 1, 1),
		Kind:        Expense,
		Category:    "Food",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	tests := []struct {
		name string
		mut  func(*NewTransaction)
		want error
	}{
		{"empty description", func(n *NewTransaction) { n.Description = "  " }, ErrEmptyDescription},
		{"long description", func(n *NewTransaction) { n.Description = strings.Repeat("x", 201) }, ErrDescriptionTooLong},
		{"zero amount", func(n *NewTransaction) { n.Amount = Money{} }, ErrInvalidAmount},
		{"negative amount", func(n *NewTransaction) { n.Amount = Money{Cents: -1} }, ErrInvalidAmount},
		{"zero date", func(n *NewTransaction) { n.Date = Date{} }, ErrInvalidDate},
		{"bad kind", func(n *NewTransaction) { n.Kind = "transfer" }, ErrInvalidKind},
		{"no category", func(n *NewTransaction) { n.Category = "" }, ErrEmptyCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			n := good
			tt.mut(&n)
			err := n.Validate()
			if !errors.Is(err, tt.want) || !errors.Is(err, ErrValidation) {
				t.Fatalf("got %v, want %v", err, tt.want)
			}
		})
	}
}

func TestNewGoalValidate(t *testing.T) {
	good := NewGoal{
		Name:     "Car",
		Target:   Money{Cents: 100000},
		Deadline: NewDate(2026, 1, 1),
		Category: GoalPurchase,
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	bad := []NewGoal{
		{Target: good.Target, Deadline: good.Deadline, Category: good.Category},
		{Name: "x", Deadline: good.Deadline, Category: good.Category},
		{Name: "x", Target: good.Target, Current: Money{Cents: -1}, Deadline: good.Deadline, Category: good.Category},
		{Name: "x", Target: good.Target, Category: good.Category},
		{Name: "x", Target: good.Target, Deadline: good.Deadline, Category: "vacation"},
	}
	for i, g := range bad {
		if err := g.Validate(); !IsValidation(err) {
			t.Errorf("case %d expected validation error, got %v", i, err)
		}
	}
}

func TestCategorySet(t *testing.T) {
	s := CategorySet{Expense: []string{"Food"}, Income: []string{"Salary"}}
	if !s.Contains(Expense, "Food") || s.Contains(Expense, "food") || s.Contains(Income, "Food") {
		t.Fatalf("Contains must be exact and per kind")
	}
	c := s.Clone()
	c.Expense[0] = "Changed"
	if s.Expense[0] != "Food" {
		t.Fatalf("Clone must not alias")
	}
}
