package http

import (
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/middleware/session"
)

// Per-category fields of the budget form: alloc_<category> is an amount,
// rec_<category> the recommended share of income in percent.
const (
	allocPrefix = "alloc_"
	recPrefix   = "rec_"
)

type budgetView struct {
	Month       MonthParams
	Prev        MonthParams
	Next        MonthParams
	Summary     core.Summary
	Warnings    []core.CategoryStatus
	LastUpdated string
}

func (s *Server) handleBudgetPartial(w http.ResponseWriter, r *http.Request) {
	month := ParseMonthParams(r.URL.Query(), s.budgets.Today())
	b, summary, err := s.budgets.Overview(r.Context(), session.UserID(r), month.FirstDay())
	if err != nil {
		s.respondError(w, r, err, log.OpRead)
		return
	}

	view := budgetView{
		Month:    month,
		Prev:     month.Prev(),
		Next:     month.Next(),
		Summary:  summary,
		Warnings: summary.Warnings(),
	}
	if !b.LastUpdated.IsZero() {
		view.LastUpdated = b.LastUpdated.Format(time.DateTime)
	}
	s.render(w, r, "budget.html", view)
}

// applyBudgetForm copies monthly_income and every alloc_<category> and
// rec_<category> field into b. Fields are applied in name order so the first
// error is stable. An empty rec_ field keeps the stored recommendation.
func applyBudgetForm(b *core.Budget, p *RequestBodyParser) error {
	income, err := parseNonNegativeAmount("monthly_income", p.Get("monthly_income"))
	if err != nil {
		return err
	}
	if err := b.SetIncome(income); err != nil {
		return err
	}

	values := p.Values()
	for _, k := range prefixedKeys(values, allocPrefix) {
		category := sanitizeInput(strings.TrimPrefix(k, allocPrefix))
		amount, err := parseNonNegativeAmount("allocation "+category, values.Get(k))
		if err != nil {
			return err
		}
		if err := b.SetAllocation(category, amount); err != nil {
			return err
		}
	}
	for _, k := range prefixedKeys(values, recPrefix) {
		raw := sanitizeInput(values.Get(k))
		if raw == "" {
			continue
		}
		category := sanitizeInput(strings.TrimPrefix(k, recPrefix))
		fraction, err := parsePercentFraction(raw)
		if err != nil {
			return core.Invalid("recommended "+category, core.ErrInvalidFraction)
		}
		if err := b.SetRecommendedFraction(category, fraction); err != nil {
			return err
		}
	}
	return nil
}

func prefixedKeys(values url.Values, prefix string) []string {
	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys
}

// handleSaveBudget stores the edited budget together with the actuals of the
// month being viewed.
func (s *Server) handleSaveBudget(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	ctx := r.Context()
	userID := session.UserID(r)
	month := ParseMonthParams(p.Values(), s.budgets.Today())

	b, err := s.budgets.Get(ctx, userID)
	if err != nil {
		s.respondError(w, r, err, log.OpRead)
		return
	}
	if err := applyBudgetForm(&b, p); err != nil {
		s.respondError(w, r, err, log.OpValidate)
		return
	}
	if b, err = s.budgets.RecomputeActuals(ctx, userID, b, month.FirstDay()); err != nil {
		s.respondError(w, r, err, log.OpUpdate)
		return
	}
	if _, err := s.budgets.Save(ctx, userID, b); err != nil {
		s.respondError(w, r, err, log.OpUpdate)
		return
	}
	s.metrics.budgetsSaved.Add(1)

	NewHTMXResponse().
		TriggerBudgetChanged().
		TriggerSuccessNotification(fmt.Sprintf("Budget saved (income %s)", b.MonthlyIncome.Format(s.currency.Symbol))).
		Write(w)
}
