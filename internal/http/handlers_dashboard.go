package http

import (
	"net/http"

	"golang.org/x/sync/errgroup"

	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/middleware/session"
)

type categoryBar struct {
	Name   string
	Amount core.Money
	Width  int
}

type dashboardView struct {
	Month    MonthParams
	Prev     MonthParams
	Next     MonthParams
	Totals   core.MonthTotals
	Bars     []categoryBar
	Budget   core.Summary
	Warnings []core.CategoryStatus
	Goals    core.GoalStats
}

// handleDashboardPartial loads the month totals, the budget summary and the
// goal stats concurrently.
func (s *Server) handleDashboardPartial(w http.ResponseWriter, r *http.Request) {
	userID := session.UserID(r)
	month := ParseMonthParams(r.URL.Query(), s.budgets.Today())

	var (
		totals  core.MonthTotals
		summary core.Summary
		goals   []core.Goal
	)
	g, ctx := errgroup.WithContext(r.Context())
	g.Go(func() error {
		var err error
		totals, err = s.transactions.Totals(ctx, userID, month.Year, month.Month)
		return err
	})
	g.Go(func() error {
		var err error
		_, summary, err = s.budgets.Overview(ctx, userID, month.FirstDay())
		return err
	})
	g.Go(func() error {
		var err error
		goals, err = s.goals.List(ctx, userID)
		return err
	})
	if err := g.Wait(); err != nil {
		s.respondError(w, r, err, log.OpRead)
		return
	}

	s.render(w, r, "dashboard.html", dashboardView{
		Month:    month,
		Prev:     month.Prev(),
		Next:     month.Next(),
		Totals:   totals,
		Bars:     categoryBars(totals.ByCategory),
		Budget:   summary,
		Warnings: summary.Warnings(),
		Goals:    core.SummarizeGoals(goals, s.goals.Today()),
	})
}

// categoryBars scales each category to the largest one.
func categoryBars(amounts []core.CategoryAmount) []categoryBar {
	var largest int64
	for _, a := range amounts {
		largest = max(largest, a.Amount.Cents)
	}
	bars := make([]categoryBar, 0, len(amounts))
	for _, a := range amounts {
		bar := categoryBar{Name: a.Name, Amount: a.Amount}
		if largest > 0 {
			bar.Width = barWidth(float64(a.Amount.Cents) / float64(largest))
		}
		bars = append(bars, bar)
	}
	return bars
}
