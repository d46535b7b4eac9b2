package http

import (
	"fmt"
	"net/http"

	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/middleware/session"
)

type categoriesView struct {
	Expense     []string
	Income      []string
	Max         int
	ExpenseFull bool
	IncomeFull  bool
	Other       string
}

func (s *Server) handleCategoriesPartial(w http.ResponseWriter, r *http.Request) {
	set, err := s.categories.List(r.Context(), session.UserID(r))
	if err != nil {
		s.respondError(w, r, err, log.OpList)
		return
	}
	limit := s.categories.Max()
	view := categoriesView{
		Expense:     set.Expense,
		Income:      set.Income,
		Max:         limit,
		ExpenseFull: len(set.Expense) >= limit,
		IncomeFull:  len(set.Income) >= limit,
		Other:       core.OtherCategory,
	}
	// The add-transaction form embeds the same list as a select.
	if r.URL.Query().Get("view") == "select" {
		s.render(w, r, "category_select.html", view)
		return
	}
	s.render(w, r, "categories.html", view)
}

// categoryForm reads the kind and name fields shared by add and delete.
func categoryForm(p *RequestBodyParser) (core.Kind, string, error) {
	kind, err := core.ParseKind(p.Get("kind"))
	if err != nil {
		return "", "", err
	}
	return kind, p.Get("name"), nil
}

func (s *Server) handleAddCategory(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	kind, name, err := categoryForm(p)
	if err == nil {
		err = s.categories.Add(r.Context(), session.UserID(r), kind, name)
	}
	if err != nil {
		s.respondError(w, r, err, log.OpCreate)
		return
	}
	s.metrics.categoryChanges.Add(1)

	NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerBudgetChanged().
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("Added %s category %q", kind, name)).
		Write(w)
}

func (s *Server) handleDeleteCategory(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	kind, name, err := categoryForm(p)
	if err == nil {
		err = s.categories.Delete(r.Context(), session.UserID(r), kind, name)
	}
	if err != nil {
		s.respondError(w, r, err, log.OpDelete)
		return
	}
	s.metrics.categoryChanges.Add(1)

	NewHTMXResponse().
		TriggerCategoriesChanged().
		TriggerBudgetChanged().
		TriggerSuccessNotification(fmt.Sprintf("Deleted %s category %q", kind, name)).
		Write(w)
}
