package http

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"walletgenie/internal/cache"
	"walletgenie/internal/config"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/services"
	"walletgenie/internal/store"
	"walletgenie/internal/store/memory"
)

var today = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

// brokenStore fails transaction listing and pings.
type brokenStore struct {
	*memory.Store
}

var errDisk = errors.New("disk on fire")

func (b brokenStore) ListTransactions(context.Context, string) ([]core.Transaction, error) {
	return nil, errDisk
}

func (b brokenStore) Ping(context.Context) error { return errDisk }

type testEnv struct {
	t     *testing.T
	srv   *Server
	store *memory.Store
	goals *services.GoalService
}

func newTestEnv(t *testing.T, mutate func(*Deps)) *testEnv {
	t.Helper()
	return newTestEnvWith(t, memory.New(), nil, mutate)
}

// newTestEnvWith routes transactions and pings through repo when it is set.
func newTestEnvWith(t *testing.T, st *memory.Store, repo store.Store, mutate func(*Deps)) *testEnv {
	t.Helper()
	if repo == nil {
		repo = st
	}
	clock := core.FixedClock{T: today}
	logger := log.New(log.Config{Output: io.Discard})

	catMemo := cache.NewMemo[core.CategorySet](64, time.Minute)
	txMemo := cache.NewMemo[[]core.Transaction](64, time.Minute)
	cats := services.NewCategoryService(st, 10, catMemo, logger)
	txs := services.NewTransactionService(services.TransactionServiceConfig{
		Repo:       repo,
		Categories: cats,
		Clock:      clock,
		BatchSize:  2,
		Memo:       txMemo,
		Logger:     logger,
	})
	goals := services.NewGoalService(st, clock, logger)

	deps := Deps{
		Categories:    cats,
		Transactions:  txs,
		Budgets:       services.NewBudgetService(st, cats, txs, nil, clock, logger),
		Goals:         goals,
		Store:         repo,
		Logger:        logger,
		Caches:        cache.NewManager(),
		CacheSizes:    map[string]Sizer{"categories": catMemo, "transactions": txMemo},
		DefaultUserID: "local",
		ValidUserID:   config.ValidUserID,
	}
	if mutate != nil {
		mutate(&deps)
	}
	srv := NewServer(":0", deps)
	t.Cleanup(func() { _ = srv.Shutdown(context.Background()) })
	return &testEnv{t: t, srv: srv, store: st, goals: goals}
}

func (e *testEnv) get(target string) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) post(target string, form url.Values) *httptest.ResponseRecorder {
	return e.postAs("", target, form)
}

func (e *testEnv) postAs(userID, target string, form url.Values) *httptest.ResponseRecorder {
	e.t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) seedCategory(kind core.Kind, name string) {
	e.t.Helper()
	if err := e.store.AddCategory(context.Background(), "local", kind, name); err != nil {
		e.t.Fatal(err)
	}
}

func (e *testEnv) seedTransactions(txs ...core.Transaction) {
	e.t.Helper()
	if err := e.store.AddTransactions(context.Background(), "local", txs); err != nil {
		e.t.Fatal(err)
	}
}

func tx(id string, kind core.Kind, cat, desc string, cents int64, day int) core.Transaction {
	return core.Transaction{
		ID:          id,
		Kind:        kind,
		Category:    cat,
		Description: desc,
		Amount:      core.Money{Cents: cents},
		Date:        core.NewDate(2025, 3, day),
		CreatedAt:   today,
	}
}

func assertStatus(t *testing.T, rec *httptest.ResponseRecorder, want int) {
	t.Helper()
	if rec.Code != want {
		t.Fatalf("status = %d, want %d; body: %s", rec.Code, want, rec.Body.String())
	}
}

func assertContains(t *testing.T, s string, wants ...string) {
	t.Helper()
	for _, want := range wants {
		if !strings.Contains(s, want) {
			t.Errorf("missing %q in:\n%s", want, s)
		}
	}
}

func TestPagesRender(t *testing.T) {
	env := newTestEnv(t, nil)

	paths := []string{
		"/", "/ui/categories", "/ui/categories?view=select", "/ui/transactions",
		"/ui/budget", "/ui/goals", "/ui/dashboard",
	}
	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			rec := env.get(path)
			assertStatus(t, rec, http.StatusOK)
			if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
				t.Errorf("Content-Type = %q", ct)
			}
			if rec.Header().Get("X-Frame-Options") != "DENY" {
				t.Error("security headers missing")
			}
			if rec.Header().Get("X-Request-ID") == "" {
				t.Error("X-Request-ID missing")
			}
		})
	}

	assertContains(t, env.get("/").Body.String(), "WalletGenie", "local", "2025-03-15")
}

func TestUnknownRouteAndMethod(t *testing.T) {
	env := newTestEnv(t, nil)

	assertStatus(t, env.get("/nope"), http.StatusNotFound)
	assertStatus(t, env.get("/transactions/delete-all"), http.StatusMethodNotAllowed)
}

func TestStaticAssets(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.get("/static/app.js")
	assertStatus(t, rec, http.StatusOK)
	if cc := rec.Header().Get("Cache-Control"); !strings.Contains(cc, "max-age=3600") {
		t.Errorf("Cache-Control = %q", cc)
	}
}

func TestHealthAndReady(t *testing.T) {
	t.Run("healthy", func(t *testing.T) {
		env := newTestEnv(t, nil)
		assertStatus(t, env.get("/healthz"), http.StatusOK)
		rec := env.get("/readyz")
		assertStatus(t, rec, http.StatusOK)
		assertContains(t, rec.Body.String(), `"status":"ready"`)
	})

	t.Run("store down", func(t *testing.T) {
		st := memory.New()
		env := newTestEnvWith(t, st, brokenStore{st}, nil)
		rec := env.get("/readyz")
		assertStatus(t, rec, http.StatusServiceUnavailable)
		assertContains(t, rec.Body.String(), `"store":"unavailable"`)
	})
}

func TestCategoryCommands(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.post("/categories", url.Values{"kind": {"expense"}, "name": {" Food "}})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), EventCategoriesChanged, EventBudgetChanged, EventFormReset)
	assertContains(t, env.get("/ui/categories").Body.String(), "Food")

	tests := []struct {
		name   string
		target string
		form   url.Values
		status int
		notify string
	}{
		{"duplicate", "/categories", url.Values{"kind": {"expense"}, "name": {"Food"}}, http.StatusConflict, "error"},
		{"empty name", "/categories", url.Values{"kind": {"expense"}, "name": {"  "}}, http.StatusUnprocessableEntity, "error"},
		{"bad kind", "/categories", url.Values{"kind": {"transfer"}, "name": {"Rent"}}, http.StatusUnprocessableEntity, "error"},
		{"delete missing", "/categories/delete", url.Values{"kind": {"income"}, "name": {"Food"}}, http.StatusOK, "info"},
		{"delete", "/categories/delete", url.Values{"kind": {"expense"}, "name": {"Food"}}, http.StatusOK, "success"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.post(tt.target, tt.form)
			assertStatus(t, rec, tt.status)
			assertContains(t, rec.Header().Get("HX-Trigger"), fmt.Sprintf(`"type":%q`, tt.notify))
		})
	}
}

func TestCategoryLimit(t *testing.T) {
	env := newTestEnv(t, nil)

	for i := 0; i < 10; i++ {
		assertStatus(t, env.post("/categories", url.Values{"kind": {"income"}, "name": {fmt.Sprintf("Source %d", i)}}), http.StatusOK)
	}
	rec := env.post("/categories", url.Values{"kind": {"income"}, "name": {"One more"}})
	assertStatus(t, rec, http.StatusConflict)
	assertContains(t, rec.Body.String(), "limit reached")

	body := env.get("/ui/categories").Body.String()
	assertContains(t, body, `value="income" disabled`)
}

func TestAddTransaction(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCategory(core.Expense, "Food")

	rec := env.post("/transactions", url.Values{
		"type": {"expense"}, "amount": {"12,50"}, "date": {"2025-03-10"},
		"description": {"Lunch"}, "category": {"Food"},
	})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), EventTransactionsChanged, EventBudgetChanged, EventFormReset, "₹12.50")

	rec = env.post("/transactions", url.Values{
		"type": {"expense"}, "amount": {"30"}, "description": {"Gift"},
		"category": {core.OtherCategory}, "custom_category": {"Presents"},
	})
	assertStatus(t, rec, http.StatusOK)

	body := env.get("/ui/transactions").Body.String()
	assertContains(t, body, "Lunch", "₹12.50", "2025-03-10", "Presents", "2025-03-15")

	tests := []struct {
		name string
		form url.Values
		want string
	}{
		{"suggestion", url.Values{"type": {"expense"}, "amount": {"5"}, "description": {"x"}, "category": {"Fod"}}, "did you mean"},
		{"bad amount", url.Values{"type": {"expense"}, "amount": {"abc"}, "description": {"x"}, "category": {"Food"}}, "invalid amount"},
		{"zero amount", url.Values{"type": {"expense"}, "amount": {"0"}, "description": {"x"}, "category": {"Food"}}, "invalid amount"},
		{"empty description", url.Values{"type": {"expense"}, "amount": {"5"}, "description": {" "}, "category": {"Food"}}, "empty description"},
		{"bad date", url.Values{"type": {"expense"}, "amount": {"5"}, "description": {"x"}, "category": {"Food"}, "date": {"15/03/2025"}}, "invalid date"},
		{"others without text", url.Values{"type": {"expense"}, "amount": {"5"}, "description": {"x"}, "category": {core.OtherCategory}}, "empty category"},
		{"wrong kind category", url.Values{"type": {"income"}, "amount": {"5"}, "description": {"x"}, "category": {"Food"}}, "unknown category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.post("/transactions", tt.form)
			assertStatus(t, rec, http.StatusUnprocessableEntity)
			assertContains(t, rec.Body.String(), tt.want)
		})
	}
}

func TestTransactionListingFilters(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTransactions(
		tx("t1", core.Expense, "Food", "Groceries", 5000, 1),
		tx("t2", core.Expense, "Food", "Lunch", 1250, 10),
		tx("t3", core.Income, "Salary", "March pay", 100000, 5),
	)

	body := env.get("/ui/transactions?type=income").Body.String()
	assertContains(t, body, "March pay", "/transactions.csv?type=income")
	if strings.Contains(body, "Groceries") {
		t.Error("expense shown under income filter")
	}

	body = env.get("/ui/transactions?q=LUNCH").Body.String()
	if !strings.Contains(body, "Lunch") || strings.Contains(body, "Groceries") {
		t.Errorf("search filter not applied:\n%s", body)
	}

	body = env.get("/ui/transactions").Body.String()
	if strings.Index(body, "Lunch") > strings.Index(body, "Groceries") {
		t.Error("listing not ordered by date descending")
	}

	assertStatus(t, env.get("/ui/transactions?from=yesterday"), http.StatusUnprocessableEntity)
}

func TestExportCSV(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTransactions(
		tx("t1", core.Expense, "Food", "Groceries", 5000, 1),
		tx("t2", core.Expense, "Food", "Lunch, with team", 1250, 10),
		tx("t3", core.Income, "Salary", "March pay", 100000, 5),
		tx("t4", core.Expense, "Food", "=HYPERLINK(\"http://x\")", 300, 2),
		tx("t5", core.Expense, "Food", "@SUM(A1)", 200, 3),
		tx("t6", core.Expense, "Food", "-2+3", 100, 4),
	)

	rec := env.get("/transactions.csv?category=Food")
	assertStatus(t, rec, http.StatusOK)
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	assertContains(t, rec.Header().Get("Content-Disposition"), "walletgenie-transactions-2025-03-15.csv")

	rows, err := csv.NewReader(rec.Body).ReadAll()
	if err != nil {
		t.Fatal(err)
	}
	want := [][]string{
		csvHeader,
		{"2025-03-10", "Expense", "Food", "Lunch, with team", "12.50"},
		{"2025-03-04", "Expense", "Food", "'-2+3", "1.00"},
		{"2025-03-03", "Expense", "Food", "'@SUM(A1)", "2.00"},
		{"2025-03-02", "Expense", "Food", "'=HYPERLINK(\"http://x\")", "3.00"},
		{"2025-03-01", "Expense", "Food", "Groceries", "50.00"},
	}
	if fmt.Sprint(rows) != fmt.Sprint(want) {
		t.Errorf("rows = %v, want %v", rows, want)
	}
}

func TestCSVText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"", ""},
		{"Groceries", "Groceries"},
		{"=1+1", "'=1+1"},
		{"+1", "'+1"},
		{"-1", "'-1"},
		{"@cmd", "'@cmd"},
		{"\tx", "'\tx"},
		{"a=b", "a=b"},
	}
	for _, tt := range tests {
		if got := csvText(tt.in); got != tt.want {
			t.Errorf("csvText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDeleteTransaction(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTransactions(tx("t1", core.Expense, "Food", "Groceries", 5000, 1))

	rec := env.post("/transactions/delete", url.Values{"id": {"t1"}})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), EventTransactionsChanged, `"type":"success"`)

	rec = env.post("/transactions/delete", url.Values{"id": {"t1"}})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), `"type":"info"`)

	assertStatus(t, env.post("/transactions/delete", url.Values{}), http.StatusUnprocessableEntity)
}

func TestDeleteAllTransactions(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedTransactions(
		tx("t1", core.Expense, "Food", "a", 100, 1),
		tx("t2", core.Expense, "Food", "b", 100, 2),
		tx("t3", core.Expense, "Food", "c", 100, 3),
	)

	rec := env.post("/transactions/delete-all", url.Values{"confirm": {"delete"}})
	assertStatus(t, rec, http.StatusUnprocessableEntity)
	assertContains(t, rec.Body.String(), "confirmation")

	rec = env.post("/transactions/delete-all", url.Values{"confirm": {"DELETE"}})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), "Deleted 3 transactions")

	rec = env.post("/transactions/delete-all", url.Values{"confirm": {"DELETE"}})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), "No transactions to delete")
}

func TestBudget(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCategory(core.Expense, "Food")
	env.seedCategory(core.Expense, "Rent")
	env.seedTransactions(
		tx("t1", core.Expense, "Food", "Groceries", 48000, 3),
		tx("t2", core.Expense, "Rent", "Feb rent", 90000, 3),
	)

	body := env.get("/ui/budget?year=2025&month=3").Body.String()
	assertContains(t, body, "N/A", "March 2025", "Unbudgeted spending", `name="alloc_Food"`, `name="rec_Food"`)
	if strings.Contains(body, "0.0%") {
		t.Errorf("spend without allocation must not render a 0.0%% progress:\n%s", body)
	}

	rec := env.post("/budget", url.Values{
		"year": {"2025"}, "month": {"3"},
		"monthly_income": {"1000"}, "alloc_Food": {"500"}, "alloc_Rent": {"900"},
		"rec_Food": {"12.5"}, "rec_Rent": {""},
	})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), EventBudgetChanged, "₹1,000.00")

	body = env.get("/ui/budget?year=2025&month=3").Body.String()
	assertContains(t, body, "₹1,000.00", "Near limit", "Over budget", "Last saved", "over_income",
		"96.0%", "Recommended: ₹125.00 (12.5% of income)", `value="12.5"`, "Recommended: ₹0.00 (0% of income)")

	body = env.get("/ui/budget?year=2025&month=2").Body.String()
	assertContains(t, body, "February 2025", "Within budget")

	// An empty rec_ field keeps the stored recommendation.
	rec = env.post("/budget", url.Values{
		"year": {"2025"}, "month": {"3"},
		"monthly_income": {"2000"}, "alloc_Food": {"500"}, "alloc_Rent": {"900"}, "rec_Food": {""},
	})
	assertStatus(t, rec, http.StatusOK)
	body = env.get("/ui/budget?year=2025&month=3").Body.String()
	assertContains(t, body, "Recommended: ₹250.00 (12.5% of income)")

	tests := []struct {
		name string
		form url.Values
	}{
		{"negative allocation", url.Values{"monthly_income": {"1000"}, "alloc_Food": {"-5"}}},
		{"bad income", url.Values{"monthly_income": {"lots"}}},
		{"empty category", url.Values{"monthly_income": {"1000"}, "alloc_ ": {"5"}}},
		{"recommended above 100", url.Values{"monthly_income": {"1000"}, "rec_Food": {"150"}}},
		{"negative recommended", url.Values{"monthly_income": {"1000"}, "rec_Food": {"-1"}}},
		{"recommended not a number", url.Values{"monthly_income": {"1000"}, "rec_Food": {"lots"}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assertStatus(t, env.post("/budget", tt.form), http.StatusUnprocessableEntity)
		})
	}
}

func TestGoals(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.post("/goals", url.Values{
		"name": {"Car"}, "target": {"100"}, "current": {"50"},
		"deadline": {"2025-12-31"}, "category": {"purchase"},
	})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), EventGoalsChanged, EventFormReset)

	body := env.get("/ui/goals").Body.String()
	assertContains(t, body, "Car", "Purchase", "/day", "50.0%")

	goals, err := env.goals.List(context.Background(), "local")
	if err != nil || len(goals) != 1 {
		t.Fatalf("goals = %v, %v", goals, err)
	}
	id := goals[0].ID

	rec = env.post("/goals/progress", url.Values{"id": {id}, "current": {"100"}})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), "reached")
	assertContains(t, env.get("/ui/goals").Body.String(), `class="ok">On track`)

	assertStatus(t, env.post("/goals", url.Values{"name": {"X"}, "target": {"10"}, "deadline": {"2025-12-31"}, "category": {"yacht"}}), http.StatusUnprocessableEntity)
	assertStatus(t, env.post("/goals", url.Values{"name": {"X"}, "target": {"0"}, "deadline": {"2025-12-31"}, "category": {"savings"}}), http.StatusUnprocessableEntity)
	assertStatus(t, env.post("/goals/progress", url.Values{"id": {id}, "current": {"-1"}}), http.StatusUnprocessableEntity)

	assertStatus(t, env.post("/goals/delete", url.Values{"id": {id}}), http.StatusOK)
	rec = env.post("/goals/delete", url.Values{"id": {id}})
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Header().Get("HX-Trigger"), `"type":"info"`)
}

func TestGoalStatsFollowProjection(t *testing.T) {
	env := newTestEnv(t, nil)
	stale := core.Goal{
		ID:       "g1",
		Name:     "Trip",
		Target:   core.Money{Cents: 100000},
		Current:  core.Money{Cents: 20000},
		Deadline: core.NewDate(2025, 3, 1),
		Category: core.GoalPurchase,
		OnTrack:  true,
	}
	if err := env.store.AddGoal(context.Background(), "local", stale); err != nil {
		t.Fatal(err)
	}

	body := env.get("/ui/goals").Body.String()
	assertContains(t, body, "Deadline passed", "<dt>On track</dt><dd>0</dd>")

	body = env.get("/ui/dashboard?year=2025&month=3").Body.String()
	assertContains(t, body, "0 of 1 on track")
}

func TestDashboard(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCategory(core.Expense, "Food")
	env.seedTransactions(
		tx("t1", core.Expense, "Food", "Groceries", 48000, 3),
		tx("t2", core.Income, "Salary", "Pay", 100000, 1),
		core.Transaction{ID: "t3", Kind: core.Expense, Category: "Food", Description: "Old", Amount: core.Money{Cents: 999}, Date: core.NewDate(2025, 2, 28)},
	)

	body := env.get("/ui/dashboard?year=2025&month=3").Body.String()
	assertContains(t, body, "March 2025", "₹1,000.00", "₹480.00", "₹520.00", "Food", "0 of 0 on track")
	if strings.Contains(body, "₹9.99") {
		t.Error("February expense counted in March")
	}
}

func TestBackendUnavailable(t *testing.T) {
	st := memory.New()
	env := newTestEnvWith(t, st, brokenStore{st}, nil)

	rec := env.get("/ui/transactions")
	assertStatus(t, rec, http.StatusServiceUnavailable)
	assertContains(t, rec.Body.String(), "temporarily unavailable")
	assertStatus(t, env.get("/ui/dashboard"), http.StatusServiceUnavailable)
}

func TestSessionIsolation(t *testing.T) {
	env := newTestEnv(t, nil)

	assertStatus(t, env.postAs("alice", "/categories", url.Values{"kind": {"expense"}, "name": {"Yoga"}}), http.StatusOK)

	req := httptest.NewRequest(http.MethodGet, "/ui/categories", nil)
	req.Header.Set("X-User-ID", "bob")
	rec := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)
	if strings.Contains(rec.Body.String(), "Yoga") {
		t.Error("bob sees alice's category")
	}

	req = httptest.NewRequest(http.MethodGet, "/ui/categories", nil)
	req.AddCookie(&http.Cookie{Name: "wg_user", Value: "alice"})
	rec = httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)
	assertContains(t, rec.Body.String(), "Yoga")
}

func TestRateLimitMutations(t *testing.T) {
	env := newTestEnv(t, func(d *Deps) { d.RateLimitPerMinute = 2 })
	form := url.Values{"confirm": {"DELETE"}}

	assertStatus(t, env.post("/transactions/delete-all", form), http.StatusOK)
	assertStatus(t, env.post("/transactions/delete-all", form), http.StatusOK)

	rec := env.post("/transactions/delete-all", form)
	assertStatus(t, rec, http.StatusTooManyRequests)
	if rec.Header().Get("Retry-After") == "" {
		t.Error("Retry-After missing")
	}
	assertStatus(t, env.get("/ui/transactions"), http.StatusOK)
}

func TestMetrics(t *testing.T) {
	env := newTestEnv(t, nil)
	env.seedCategory(core.Expense, "Food")

	env.post("/transactions", url.Values{"type": {"expense"}, "amount": {"1"}, "description": {"x"}, "category": {"Food"}})
	env.get("/ui/transactions")

	rec := env.get("/metrics")
	assertStatus(t, rec, http.StatusOK)
	assertContains(t, rec.Body.String(),
		"walletgenie_transactions_added_total 1",
		"walletgenie_http_requests_total 2",
		"walletgenie_cache_entries_transactions 1",
		"# TYPE walletgenie_uptime_seconds gauge",
	)
}

func TestClassifyError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		msg    string
	}{
		{"validation", core.Invalid("amount", core.ErrInvalidAmount), http.StatusUnprocessableEntity, "amount: invalid amount"},
		{"not found", fmt.Errorf("delete: %w", core.ErrNotFound), http.StatusOK, "no longer exists"},
		{"exists", fmt.Errorf("category %q: %w", "Food", core.ErrAlreadyExists), http.StatusConflict, `category "Food": already exists`},
		{"limit", core.ErrLimitReached, http.StatusConflict, "limit reached"},
		{"backend", fmt.Errorf("list: %w: %w", core.ErrBackendUnavailable, errDisk), http.StatusServiceUnavailable, "temporarily unavailable"},
		{"timeout", context.DeadlineExceeded, http.StatusServiceUnavailable, "temporarily unavailable"},
		{"other", errDisk, http.StatusInternalServerError, "Something went wrong"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, msg := classifyError(tt.err)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if !strings.Contains(msg, tt.msg) {
				t.Errorf("msg = %q, want it to contain %q", msg, tt.msg)
			}
			if strings.Contains(msg, errDisk.Error()) {
				t.Errorf("internal error leaked: %q", msg)
			}
		})
	}
}
