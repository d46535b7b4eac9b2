package core

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	Expense Kind = "expense"
	Income  Kind = "income"
)

const (
	GoalSavings       GoalCategory = "savings"
	GoalInvestment    GoalCategory = "investment"
	GoalPurchase      GoalCategory = "purchase"
	GoalDebtRepayment GoalCategory = "debt_repayment"
	GoalEmergencyFund GoalCategory = "emergency_fund"
)

// OtherCategory is the form choice that unlocks a free-text category.
const OtherCategory = "Others"

// SavingsCategory is the allocation the savings recommendation looks at.
const SavingsCategory = "Savings"

const maxDescriptionLen = 200

// DefaultExpenseCategories is the budget universe for users who never configured categories.
var DefaultExpenseCategories = []string{
	"Housing", "Transportation", "Food", "Utilities",
	"Healthcare", "Savings", "Entertainment", "Other",
}

type (
	Kind         string
	GoalCategory string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	Session struct {
		UserID string
	}

	Category struct {
		Name string
		Kind Kind
	}

	// CategorySet holds a user's category names per kind, in insertion order.
	CategorySet struct {
		Expense []string
		Income  []string
	}

	Transaction struct {
		ID          string
		Description string
		Amount      Money
		Date        Date
		Kind        Kind
		Category    string
		CreatedAt   time.Time
	}

	// NewTransaction is the user's input before the category is resolved.
	NewTransaction struct {
		Description    string
		Amount         Money
		Date           Date
		Kind           Kind
		Category       string
		CustomCategory string
	}

	Goal struct {
		ID        string
		Name      string
		Target    Money
		Current   Money
		Deadline  Date
		Category  GoalCategory
		OnTrack   bool
		CreatedAt time.Time
	}

	NewGoal struct {
		Name     string
		Target   Money
		Current  Money
		Deadline Date
		Category GoalCategory
	}
)

var (
	ErrValidation         = errors.New("validation failed")
	ErrNotFound           = errors.New("not found")
	ErrAlreadyExists      = errors.New("already exists")
	ErrLimitReached       = errors.New("limit reached")
	ErrBackendUnavailable = errors.New("backend unavailable")

	ErrInvalidDate         = errors.New("invalid date")
	ErrInvalidAmount       = errors.New("invalid amount")
	ErrInvalidKind         = errors.New("invalid kind")
	ErrEmptyDescription    = errors.New("empty description")
	ErrDescriptionTooLong  = errors.New("description too long (max 200 characters)")
	ErrEmptyCategory       = errors.New("empty category")
	ErrUnknownCategory     = errors.New("unknown category")
	ErrEmptyName           = errors.New("empty name")
	ErrInvalidGoalCategory = errors.New("invalid goal category")
	ErrInvalidFraction     = errors.New("recommended fraction must be between 0 and 1")
	ErrConfirmation        = errors.New("confirmation text does not match")
)

// Invalid marks err as a validation failure for field. Both ErrValidation and
// err stay reachable through errors.Is.
func Invalid(field string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrValidation, field, err)
}

// IsValidation reports whether err is a user input problem.
func IsValidation(err error) bool {
	return errors.Is(err, ErrValidation)
}

// ParseKind accepts "expense" or "income" in any case.
func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case Expense:
		return Expense, nil
	case Income:
		return Income, nil
	}
	return "", Invalid("kind", ErrInvalidKind)
}

func (k Kind) Valid() bool {
	return k == Expense || k == Income
}

func (k Kind) Label() string {
	switch k {
	case Expense:
		return "Expense"
	case Income:
		return "Income"
	}
	return string(k)
}

// GoalCategories lists the goal categories in display order.
func GoalCategories() []GoalCategory {
	return []GoalCategory{GoalSavings, GoalInvestment, GoalPurchase, GoalDebtRepayment, GoalEmergencyFund}
}

// ParseGoalCategory accepts either the stored value or the display label.
func ParseGoalCategory(s string) (GoalCategory, error) {
	s = strings.TrimSpace(s)
	for _, c := range GoalCategories() {
		if strings.EqualFold(s, string(c)) || strings.EqualFold(s, c.Label()) {
			return c, nil
		}
	}
	return "", Invalid("category", ErrInvalidGoalCategory)
}

func (c GoalCategory) Valid() bool {
	switch c {
	case GoalSavings, GoalInvestment, GoalPurchase, GoalDebtRepayment, GoalEmergencyFund:
		return true
	}
	return false
}

func (c GoalCategory) Label() string {
	switch c {
	case GoalSavings:
		return "Savings"
	case GoalInvestment:
		return "Investment"
	case GoalPurchase:
		return "Purchase"
	case GoalDebtRepayment:
		return "Debt Repayment"
	case GoalEmergencyFund:
		return "Emergency Fund"
	}
	return string(c)
}

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date in t's own location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return NewDate(y, int(m), d)
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD).
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(time.DateOnly, strings.TrimSpace(s))
	if err != nil {
		return Date{}, Invalid("date", ErrInvalidDate)
	}
	return Date{Time: t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	return d.Format(time.DateOnly)
}

func (d Date) Validate() error {
	if d.IsZero() {
		return Invalid("date", ErrInvalidDate)
	}
	return nil
}

// SameMonth reports whether d and o fall in the same calendar month and year.
func (d Date) SameMonth(o Date) bool {
	return d.Year() == o.Year() && d.Month() == o.Month()
}

// DaysUntil returns the whole days from d to o; negative when o is earlier.
func (d Date) DaysUntil(o Date) int {
	return int(o.Time.Sub(d.Time).Hours() / 24)
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return Invalid("amount", ErrInvalidAmount)
	}
	return nil
}

func (m Money) Add(o Money) Money { return Money{Cents: m.Cents + o.Cents} }
func (m Money) Sub(o Money) Money { return Money{Cents: m.Cents - o.Cents} }

// Validate checks the user-entered fields only; category membership is the
// transaction service's concern.
func (t NewTransaction) Validate() error {
	if strings.TrimSpace(t.Description) == "" {
		return Invalid("description", ErrEmptyDescription)
	}
	if len(t.Description) > maxDescriptionLen {
		return Invalid("description", ErrDescriptionTooLong)
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if !t.Kind.Valid() {
		return Invalid("kind", ErrInvalidKind)
	}
	if strings.TrimSpace(t.Category) == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	return nil
}

func (t Transaction) Validate() error {
	return NewTransaction{
		Description: t.Description,
		Amount:      t.Amount,
		Date:        t.Date,
		Kind:        t.Kind,
		Category:    t.Category,
	}.Validate()
}

func (g NewGoal) Validate() error {
	if strings.TrimSpace(g.Name) == "" {
		return Invalid("name", ErrEmptyName)
	}
	if err := g.Target.Validate(); err != nil {
		return Invalid("target", ErrInvalidAmount)
	}
	if g.Current.Cents < 0 {
		return Invalid("current", ErrInvalidAmount)
	}
	if err := g.Deadline.Validate(); err != nil {
		return Invalid("deadline", ErrInvalidDate)
	}
	if !g.Category.Valid() {
		return Invalid("category", ErrInvalidGoalCategory)
	}
	return nil
}

// Names returns the category list for kind.
func (s CategorySet) Names(kind Kind) []string {
	if kind == Income {
		return s.Income
	}
	return s.Expense
}

// Contains is an exact, case-sensitive lookup.
func (s CategorySet) Contains(kind Kind, name string) bool {
	for _, n := range s.Names(kind) {
		if n == name {
			return true
		}
	}
	return false
}

// Clone returns a deep copy so callers may not alias cached slices.
func (s CategorySet) Clone() CategorySet {
	return CategorySet{
		Expense: append([]string{}, s.Expense...),
		Income:  append([]string{}, s.Income...),
	}
}
