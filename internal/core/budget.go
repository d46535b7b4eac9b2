package core

import (
	"math"
	"sort"
	"strings"
	"time"
)

// Risk is the per-category budget state. It is recomputed on every read and
// never stored.
type Risk int

const (
	WithinBudget Risk = iota
	NearLimit
	Exceeded
	Unbudgeted
)

func (r Risk) String() string {
	switch r {
	case WithinBudget:
		return "within_budget"
	case NearLimit:
		return "near_limit"
	case Exceeded:
		return "exceeded"
	case Unbudgeted:
		return "unbudgeted"
	}
	return "unknown"
}

type (
	BudgetAllocation struct {
		Category            string
		Allocated           Money
		RecommendedFraction float64
		// Spent is derived from transactions by ApplyActuals. Stores may keep
		// a snapshot for history but never hand it back.
		Spent Money
	}

	Budget struct {
		MonthlyIncome Money
		Allocations   map[string]BudgetAllocation
		LastUpdated   time.Time
	}
)

// NewBudget returns the zero-valued budget used when none is stored.
func NewBudget() Budget {
	return Budget{Allocations: map[string]BudgetAllocation{}}
}

// Clone deep-copies the allocation map.
func (b Budget) Clone() Budget {
	out := b
	out.Allocations = make(map[string]BudgetAllocation, len(b.Allocations))
	for k, v := range b.Allocations {
		out.Allocations[k] = v
	}
	return out
}

// Categories returns the allocation names sorted alphabetically.
func (b Budget) Categories() []string {
	names := make([]string, 0, len(b.Allocations))
	for k := range b.Allocations {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}

// SetAllocation changes the in-memory allocation for category. Nothing is
// persisted until the budget is saved.
func (b *Budget) SetAllocation(category string, amount Money) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	if amount.Cents < 0 {
		return Invalid("allocation", ErrInvalidAmount)
	}
	if b.Allocations == nil {
		b.Allocations = map[string]BudgetAllocation{}
	}
	a := b.Allocations[category]
	a.Category = category
	a.Allocated = amount
	b.Allocations[category] = a
	return nil
}

// SetRecommendedFraction records the advised share of income for category.
// fraction must lie in [0, 1].
func (b *Budget) SetRecommendedFraction(category string, fraction float64) error {
	category = strings.TrimSpace(category)
	if category == "" {
		return Invalid("category", ErrEmptyCategory)
	}
	if math.IsNaN(fraction) || fraction < 0 || fraction > 1 {
		return Invalid("recommended "+category, ErrInvalidFraction)
	}
	if b.Allocations == nil {
		b.Allocations = map[string]BudgetAllocation{}
	}
	a := b.Allocations[category]
	a.Category = category
	a.RecommendedFraction = fraction
	b.Allocations[category] = a
	return nil
}

// SetIncome changes the in-memory monthly income.
func (b *Budget) SetIncome(amount Money) error {
	if amount.Cents < 0 {
		return Invalid("monthly_income", ErrInvalidAmount)
	}
	b.MonthlyIncome = amount
	return nil
}

func (b Budget) Validate() error {
	if b.MonthlyIncome.Cents < 0 {
		return Invalid("monthly_income", ErrInvalidAmount)
	}
	for name, a := range b.Allocations {
		if strings.TrimSpace(name) == "" {
			return Invalid("category", ErrEmptyCategory)
		}
		if a.Allocated.Cents < 0 {
			return Invalid("allocation", ErrInvalidAmount)
		}
		if math.IsNaN(a.RecommendedFraction) || a.RecommendedFraction < 0 || a.RecommendedFraction > 1 {
			return Invalid("recommended_fraction", ErrInvalidFraction)
		}
	}
	return nil
}

// ApplyActuals returns a copy of b whose Spent values are the expense totals
// for asOf's calendar month. Every name in categories missing from the budget
// is added with a zero allocation. The input is left untouched, so applying
// twice yields the same result.
func ApplyActuals(b Budget, categories []string, txs []Transaction, asOf Date) Budget {
	out := b.Clone()
	for _, name := range categories {
		if _, ok := out.Allocations[name]; !ok {
			out.Allocations[name] = BudgetAllocation{Category: name}
		}
	}

	spent := make(map[string]int64, len(out.Allocations))
	for _, t := range txs {
		if t.Kind != Expense || !t.Date.SameMonth(asOf) {
			continue
		}
		spent[t.Category] += t.Amount.Cents
	}

	for name, a := range out.Allocations {
		a.Category = name
		a.Spent = Money{Cents: spent[name]}
		out.Allocations[name] = a
	}
	return out
}

// Classify maps an allocation and its spend onto a Risk. Thresholds are
// spent >= allocated for Exceeded and spent >= 90% of allocated for NearLimit.
func Classify(allocated, spent Money) Risk {
	if allocated.Cents <= 0 {
		if spent.Cents > 0 {
			return Unbudgeted
		}
		return WithinBudget
	}
	switch {
	case spent.Cents >= allocated.Cents:
		return Exceeded
	case spent.Cents*10 >= allocated.Cents*9:
		return NearLimit
	default:
		return WithinBudget
	}
}
