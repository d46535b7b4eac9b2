package core

import (
	"fmt"
	"math"
	"sort"
)

// Percent is a ratio expressed in percent. Valid is false when the
// denominator was zero; such values render as "N/A".
type Percent struct {
	Value float64
	Valid bool
}

func (p Percent) String() string {
	if !p.Valid {
		return "N/A"
	}
	return fmt.Sprintf("%.1f%%", p.Value)
}

// PercentOfIncome returns x as a share of income.
func PercentOfIncome(x, income Money) Percent {
	return percentOf(x.Cents, income.Cents)
}

func percentOf(num, den int64) Percent {
	if den <= 0 {
		return Percent{}
	}
	return Percent{Value: float64(num) / float64(den) * 100, Valid: true}
}

const (
	RecOverIncome     = "over_income"
	RecUnderAllocated = "under_allocated"
	RecLowSavings     = "low_savings"
)

// Recommendation is advisory text attached to a summary; it is never stored.
type Recommendation struct {
	Code    string
	Message string
}

// CategoryStatus is one row of the budget table.
type CategoryStatus struct {
	Name      string
	Allocated Money
	Spent     Money
	Remaining Money
	// Progress is spent as a share of allocated; N/A when nothing is
	// allocated.
	Progress Percent
	Risk     Risk

	RecommendedFraction float64
	// Recommended is RecommendedFraction of the monthly income.
	Recommended Money
}

type Summary struct {
	MonthlyIncome   Money
	TotalBudgeted   Money
	TotalSpent      Money
	Remaining       Money
	Unallocated     Money
	BudgetedPct     Percent
	SpentPct        Percent
	RemainingPct    Percent
	Rows            []CategoryStatus
	Recommendations []Recommendation
}

// Summarize derives the aggregate view of a budget. Callers must pass a
// budget whose actuals were just recomputed.
func Summarize(b Budget) Summary {
	s := Summary{MonthlyIncome: b.MonthlyIncome}
	for _, name := range b.Categories() {
		a := b.Allocations[name]
		s.TotalBudgeted = s.TotalBudgeted.Add(a.Allocated)
		s.TotalSpent = s.TotalSpent.Add(a.Spent)

		row := CategoryStatus{
			Name:                name,
			Allocated:           a.Allocated,
			Spent:               a.Spent,
			Remaining:           a.Allocated.Sub(a.Spent),
			Progress:            percentOf(a.Spent.Cents, a.Allocated.Cents),
			Risk:                Classify(a.Allocated, a.Spent),
			RecommendedFraction: a.RecommendedFraction,
			Recommended:         Money{Cents: int64(math.Round(a.RecommendedFraction * float64(b.MonthlyIncome.Cents)))},
		}
		s.Rows = append(s.Rows, row)
	}
	s.Remaining = s.TotalBudgeted.Sub(s.TotalSpent)
	s.Unallocated = b.MonthlyIncome.Sub(s.TotalBudgeted)
	s.BudgetedPct = PercentOfIncome(s.TotalBudgeted, b.MonthlyIncome)
	s.SpentPct = PercentOfIncome(s.TotalSpent, b.MonthlyIncome)
	s.RemainingPct = PercentOfIncome(s.Remaining, b.MonthlyIncome)
	s.Recommendations = Recommend(b, s.TotalBudgeted)
	return s
}

// Recommend applies the three advisory rules.
func Recommend(b Budget, totalBudgeted Money) []Recommendation {
	income := b.MonthlyIncome.Cents
	var recs []Recommendation
	if totalBudgeted.Cents > income {
		recs = append(recs, Recommendation{
			Code:    RecOverIncome,
			Message: "Your total budget exceeds your monthly income. Consider reducing some allocations.",
		})
	}
	if totalBudgeted.Cents*10 < income*9 {
		recs = append(recs, Recommendation{
			Code:    RecUnderAllocated,
			Message: "You have significant unallocated income. Consider allocating it to savings or investments.",
		})
	}
	if b.Allocations[SavingsCategory].Allocated.Cents*10 < income {
		recs = append(recs, Recommendation{
			Code:    RecLowSavings,
			Message: "Consider allocating at least 10% of your income to savings.",
		})
	}
	return recs
}

// Warnings returns the rows that are near or over their limit.
func (s Summary) Warnings() []CategoryStatus {
	var out []CategoryStatus
	for _, r := range s.Rows {
		if r.Risk == NearLimit || r.Risk == Exceeded || r.Risk == Unbudgeted {
			out = append(out, r)
		}
	}
	return out
}

// CategoryAmount represents an amount aggregated by category name.
type CategoryAmount struct {
	Name   string
	Amount Money
}

// MonthTotals is the dashboard view of one calendar month.
type MonthTotals struct {
	Year       int
	Month      int
	Income     Money
	Expense    Money
	Balance    Money
	Count      int
	ByCategory []CategoryAmount
}

// TotalMonth aggregates txs for the given month. ByCategory holds expenses
// only, largest first.
func TotalMonth(txs []Transaction, year, month int) MonthTotals {
	mt := MonthTotals{Year: year, Month: month}
	ref := NewDate(year, month, 1)
	byCat := map[string]int64{}
	for _, t := range txs {
		if !t.Date.SameMonth(ref) {
			continue
		}
		mt.Count++
		switch t.Kind {
		case Income:
			mt.Income = mt.Income.Add(t.Amount)
		case Expense:
			mt.Expense = mt.Expense.Add(t.Amount)
			byCat[t.Category] += t.Amount.Cents
		}
	}
	mt.Balance = mt.Income.Sub(mt.Expense)
	for name, cents := range byCat {
		mt.ByCategory = append(mt.ByCategory, CategoryAmount{Name: name, Amount: Money{Cents: cents}})
	}
	sort.Slice(mt.ByCategory, func(i, j int) bool {
		if mt.ByCategory[i].Amount.Cents != mt.ByCategory[j].Amount.Cents {
			return mt.ByCategory[i].Amount.Cents > mt.ByCategory[j].Amount.Cents
		}
		return mt.ByCategory[i].Name < mt.ByCategory[j].Name
	})
	return mt
}
