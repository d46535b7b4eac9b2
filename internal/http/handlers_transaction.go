package http

import (
	"encoding/csv"
	"fmt"
	"html/template"
	"net/http"
	"net/url"
	"strings"

	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/middleware/session"
)

// confirmPhrase must be typed to delete the whole history.
const confirmPhrase = "DELETE"

type transactionsView struct {
	Items        []core.Transaction
	Filter       filterView
	Categories   core.CategorySet
	Other        string
	Today        string
	TotalIncome  core.Money
	TotalExpense core.Money
	ExportURL    template.URL
}

type filterView struct {
	Type     string
	Category string
	From     string
	To       string
	Q        string
}

func (s *Server) handleTransactionsPartial(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	userID := session.UserID(r)

	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, log.OpList)
		return
	}
	items, err := s.transactions.List(ctx, userID, filter)
	if err != nil {
		s.respondError(w, r, err, log.OpList)
		return
	}
	cats, err := s.categories.List(ctx, userID)
	if err != nil {
		s.respondError(w, r, err, log.OpList)
		return
	}

	view := transactionsView{
		Items:      items,
		Categories: cats,
		Other:      core.OtherCategory,
		Today:      s.transactions.Today().String(),
		Filter: filterView{
			Type:     string(filter.Kind),
			Category: filter.Category,
			From:     filter.From.String(),
			To:       filter.To.String(),
			Q:        filter.Search,
		},
		ExportURL: exportURL(filter),
	}
	for _, t := range items {
		if t.Kind == core.Income {
			view.TotalIncome = view.TotalIncome.Add(t.Amount)
		} else {
			view.TotalExpense = view.TotalExpense.Add(t.Amount)
		}
	}
	s.render(w, r, "transactions.html", view)
}

// exportURL links to the CSV of the filter being viewed. Every value is
// query-encoded.
func exportURL(f core.TransactionFilter) template.URL {
	q := url.Values{}
	if f.Kind != "" {
		q.Set("type", string(f.Kind))
	}
	if f.Category != "" {
		q.Set("category", f.Category)
	}
	if !f.From.IsZero() {
		q.Set("from", f.From.String())
	}
	if !f.To.IsZero() {
		q.Set("to", f.To.String())
	}
	if f.Search != "" {
		q.Set("q", f.Search)
	}
	if len(q) == 0 {
		return "/transactions.csv"
	}
	return template.URL("/transactions.csv?" + q.Encode())
}

// parseNewTransaction maps the add form. An empty date means today.
func (s *Server) parseNewTransaction(p *RequestBodyParser) (core.NewTransaction, error) {
	var n core.NewTransaction

	kind, err := core.ParseKind(p.Get("type"))
	if err != nil {
		return n, err
	}
	amount, err := parseAmount("amount", p.Get("amount"))
	if err != nil {
		return n, err
	}
	date := s.transactions.Today()
	if v := p.Get("date"); v != "" {
		if date, err = core.ParseDate(v); err != nil {
			return n, err
		}
	}

	return core.NewTransaction{
		Description:    p.Get("description"),
		Amount:         amount,
		Date:           date,
		Kind:           kind,
		Category:       p.Get("category"),
		CustomCategory: p.Get("custom_category"),
	}, nil
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	n, err := s.parseNewTransaction(p)
	if err != nil {
		s.respondError(w, r, err, log.OpCreate)
		return
	}
	if _, err := s.transactions.Add(r.Context(), session.UserID(r), n); err != nil {
		s.respondError(w, r, err, log.OpCreate)
		return
	}
	s.metrics.transactionsAdded.Add(1)

	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerBudgetChanged().
		TriggerFormReset().
		TriggerSuccessNotification(fmt.Sprintf("%s of %s recorded", n.Kind.Label(), n.Amount.Format(s.currency.Symbol))).
		Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	id := p.Get("id")
	if id == "" {
		s.respondError(w, r, core.Invalid("id", core.ErrEmptyName), log.OpDelete)
		return
	}
	if err := s.transactions.Delete(r.Context(), session.UserID(r), id); err != nil {
		s.respondError(w, r, err, log.OpDelete)
		return
	}
	s.metrics.transactionsDeleted.Add(1)

	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerBudgetChanged().
		TriggerSuccessNotification("Transaction deleted").
		Write(w)
}

func (s *Server) handleDeleteAllTransactions(w http.ResponseWriter, r *http.Request) {
	p := parseBody(w, r)
	if p == nil {
		return
	}
	if p.Get("confirm") != confirmPhrase {
		s.respondError(w, r, core.Invalid("confirm", core.ErrConfirmation), log.OpPurge)
		return
	}
	n, err := s.transactions.DeleteAll(r.Context(), session.UserID(r))
	if err != nil {
		s.respondError(w, r, err, log.OpPurge)
		return
	}
	s.metrics.purges.Add(1)

	msg := "No transactions to delete"
	if n > 0 {
		msg = fmt.Sprintf("Deleted %d transactions", n)
	}
	NewHTMXResponse().
		TriggerTransactionsChanged().
		TriggerBudgetChanged().
		TriggerFormReset().
		TriggerSuccessNotification(msg).
		Write(w)
}

var csvHeader = []string{"Date", "Type", "Category", "Description", "Amount"}

// csvText keeps spreadsheet applications from evaluating free text as a
// formula by prefixing cells that start with a formula trigger with a quote.
func csvText(s string) string {
	if s != "" && strings.ContainsRune("=+-@\t\r", rune(s[0])) {
		return "'" + s
	}
	return s
}

// handleExportCSV downloads the filtered listing in the same order as the
// table.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	filter, err := ParseTransactionFilter(r.URL.Query())
	if err != nil {
		s.respondError(w, r, err, log.OpExport)
		return
	}
	items, err := s.transactions.List(r.Context(), session.UserID(r), filter)
	if err != nil {
		s.respondError(w, r, err, log.OpExport)
		return
	}

	name := fmt.Sprintf("walletgenie-transactions-%s.csv", s.transactions.Today())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", name))

	cw := csv.NewWriter(w)
	_ = cw.Write(csvHeader)
	for _, t := range items {
		_ = cw.Write([]string{t.Date.String(), t.Kind.Label(), csvText(t.Category), csvText(t.Description), t.Amount.Decimal()})
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		log.FromContext(r.Context()).WarnContext(r.Context(), "CSV export interrupted", log.FieldError, err)
	}
}
