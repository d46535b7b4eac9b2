package http

import (
	"context"
	"html/template"
	"io/fs"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"walletgenie/internal/cache"
	"walletgenie/internal/log"
	"walletgenie/internal/middleware/ratelimit"
	"walletgenie/internal/middleware/security"
	"walletgenie/internal/middleware/session"
	"walletgenie/internal/middleware/trace"
	"walletgenie/internal/services"
	"walletgenie/internal/store"
	appweb "walletgenie/web"
)

// Sizer reports the number of live entries of a cache, for /metrics.
type Sizer interface {
	Size() int
}

// Deps are the collaborators the server routes requests to.
type Deps struct {
	Categories   *services.CategoryService
	Transactions *services.TransactionService
	Budgets      *services.BudgetService
	Goals        *services.GoalService
	Store        store.Pinger

	Logger *log.Logger
	// Caches is stopped on shutdown. CacheSizes feeds /metrics.
	Caches     *cache.Manager
	CacheSizes map[string]Sizer

	Currency           Currency
	DefaultUserID      string
	ValidUserID        func(string) bool
	RateLimitPerMinute int
	TrustedProxies     []string
}

type Server struct {
	http.Server
	templates *template.Template
	logger    *log.Logger

	categories   *services.CategoryService
	transactions *services.TransactionService
	budgets      *services.BudgetService
	goals        *services.GoalService
	pinger       store.Pinger

	detector    *security.Detector
	rateLimiter *ratelimit.Limiter
	trace       *trace.Middleware
	sessions    *session.Resolver
	caches      *cache.Manager
	cacheSizes  map[string]Sizer

	currency     Currency
	metrics      appMetrics
	started      time.Time
	shutdownOnce sync.Once
}

// appMetrics counts successful commands by kind.
type appMetrics struct {
	transactionsAdded   atomic.Int64
	transactionsDeleted atomic.Int64
	purges              atomic.Int64
	categoryChanges     atomic.Int64
	budgetsSaved        atomic.Int64
	goalChanges         atomic.Int64
	errors              atomic.Int64
}

// NewServer configures routes, templates and middleware, returning a
// ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	currency := deps.Currency
	if currency.Symbol == "" {
		currency = Currency{Symbol: "₹", Code: "INR"}
	}

	s := &Server{
		logger:       logger,
		categories:   deps.Categories,
		transactions: deps.Transactions,
		budgets:      deps.Budgets,
		goals:        deps.Goals,
		pinger:       deps.Store,
		detector:     security.NewDetector(),
		rateLimiter:  ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: deps.RateLimitPerMinute}),
		sessions:     session.NewResolver(deps.DefaultUserID, deps.ValidUserID, logger),
		caches:       deps.Caches,
		cacheSizes:   deps.CacheSizes,
		currency:     currency,
		started:      time.Now(),
	}
	for _, cidr := range deps.TrustedProxies {
		if err := s.detector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}
	s.trace = trace.NewMiddleware(trace.Config{
		Logger:      logger,
		ExtractIP:   s.detector.ExtractClientIP,
		ResolveUser: session.UserID,
	})

	t, err := template.New("").Funcs(s.templateFuncs()).ParseFS(appweb.TemplatesFS, "templates/*.html")
	if err != nil {
		logger.Warn("Failed parsing templates", log.FieldError, err)
	}
	s.templates = t

	mux := http.NewServeMux()
	s.routes(mux)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	var h http.Handler = mux
	h = s.rateLimiter.Middleware(s.detector.ExtractClientIP, s.handleRateLimited)(h)
	h = s.trace.Middleware(h)
	h = s.sessions.Middleware(h)
	h = s.detector.Middleware(logger)(h)
	h = headers.Middleware(h)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	if sub, err := fs.Sub(appweb.StaticFS, "static"); err == nil {
		static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
		mux.Handle("GET /static/", security.StaticAssetMiddleware(3600)(static))
	} else {
		s.logger.Warn("Failed to mount embedded static FS", log.FieldError, err)
	}

	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("GET /ui/categories", s.handleCategoriesPartial)
	mux.HandleFunc("POST /categories", s.handleAddCategory)
	mux.HandleFunc("POST /categories/delete", s.handleDeleteCategory)

	mux.HandleFunc("GET /ui/transactions", s.handleTransactionsPartial)
	mux.HandleFunc("GET /transactions.csv", s.handleExportCSV)
	mux.HandleFunc("POST /transactions", s.handleAddTransaction)
	mux.HandleFunc("POST /transactions/delete", s.handleDeleteTransaction)
	mux.HandleFunc("POST /transactions/delete-all", s.handleDeleteAllTransactions)

	mux.HandleFunc("GET /ui/budget", s.handleBudgetPartial)
	mux.HandleFunc("POST /budget", s.handleSaveBudget)

	mux.HandleFunc("GET /ui/goals", s.handleGoalsPartial)
	mux.HandleFunc("POST /goals", s.handleAddGoal)
	mux.HandleFunc("POST /goals/progress", s.handleGoalProgress)
	mux.HandleFunc("POST /goals/delete", s.handleDeleteGoal)

	mux.HandleFunc("GET /ui/dashboard", s.handleDashboardPartial)
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	log.FromContext(r.Context()).Warn("Rate limit exceeded",
		log.FieldClientIP, s.detector.ExtractClientIP(r),
		log.FieldPath, r.URL.Path)
	msg := "Too many requests. Please wait a moment and try again."
	ErrorResponse(http.StatusTooManyRequests, msg).TriggerErrorNotification(msg).Write(w)
}

// Shutdown stops background workers, then drains the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.caches != nil {
			s.caches.Stop()
		}
		s.rateLimiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}
