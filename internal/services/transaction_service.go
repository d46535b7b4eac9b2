package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/agnivade/levenshtein"
	"github.com/google/uuid"

	"walletgenie/internal/amqp"
	"walletgenie/internal/cache"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/store"
)

const (
	transactionsQuery = "transactions"
	// suggestDistance is the largest edit distance offered as "did you mean".
	suggestDistance = 2
)

// CategoryLister is the read side of CategoryService.
type CategoryLister interface {
	List(ctx context.Context, userID string) (core.CategorySet, error)
}

type TransactionService struct {
	repo      store.TransactionRepository
	cats      CategoryLister
	pub       EventPublisher
	clock     core.Clock
	batchSize int
	memo      *cache.Memo[[]core.Transaction]
	logger    *log.Logger
	newID     func() string
}

type TransactionServiceConfig struct {
	Repo       store.TransactionRepository
	Categories CategoryLister
	Publisher  EventPublisher // optional
	Clock      core.Clock
	BatchSize  int
	Memo       *cache.Memo[[]core.Transaction] // optional
	Logger     *log.Logger
}

func NewTransactionService(cfg TransactionServiceConfig) *TransactionService {
	clock := cfg.Clock
	if clock == nil {
		clock = core.SystemClock{}
	}
	batch := cfg.BatchSize
	if batch < 1 {
		batch = 1
	}
	return &TransactionService{
		repo:      cfg.Repo,
		cats:      cfg.Categories,
		pub:       cfg.Publisher,
		clock:     clock,
		batchSize: batch,
		memo:      cfg.Memo,
		logger:    componentLogger(cfg.Logger, log.ComponentTransaction),
		newID:     uuid.NewString,
	}
}

// Add validates n, resolves its category and persists it. It returns the new
// transaction ID.
func (s *TransactionService) Add(ctx context.Context, userID string, n core.NewTransaction) (string, error) {
	n.Description = strings.TrimSpace(n.Description)
	n.Category = strings.TrimSpace(n.Category)
	if err := n.Validate(); err != nil {
		return "", err
	}
	category, err := s.resolveCategory(ctx, userID, n)
	if err != nil {
		return "", err
	}

	t := core.Transaction{
		ID:          s.newID(),
		Description: n.Description,
		Amount:      n.Amount,
		Date:        n.Date,
		Kind:        n.Kind,
		Category:    category,
		CreatedAt:   s.clock.Now().UTC(),
	}
	if err := s.repo.AddTransaction(ctx, userID, t); err != nil {
		return "", storeErr("add transaction", err)
	}
	s.invalidate(userID)

	s.logger.InfoContext(ctx, "Transaction added", log.NewFields().
		WithUser(userID).
		WithTransaction(t.ID, string(t.Kind), t.Category, t.Amount.Cents).
		ToSlice()...)

	publish(ctx, s.pub, s.logger, amqp.NewEvent(amqp.TransactionCreated, userID, t.ID))
	return t.ID, nil
}

func (s *TransactionService) resolveCategory(ctx context.Context, userID string, n core.NewTransaction) (string, error) {
	if n.Category == core.OtherCategory {
		custom := strings.TrimSpace(n.CustomCategory)
		if custom == "" {
			return "", core.Invalid("custom_category", core.ErrEmptyCategory)
		}
		return custom, nil
	}

	set, err := s.cats.List(ctx, userID)
	if err != nil {
		return "", err
	}
	if set.Contains(n.Kind, n.Category) {
		return n.Category, nil
	}
	if hint := suggest(n.Category, set.Names(n.Kind)); hint != "" {
		return "", core.Invalid("category", fmt.Errorf("%w %q (did you mean %q?)", core.ErrUnknownCategory, n.Category, hint))
	}
	return "", core.Invalid("category", fmt.Errorf("%w %q", core.ErrUnknownCategory, n.Category))
}

// suggest returns the closest candidate within suggestDistance, ignoring case.
func suggest(name string, candidates []string) string {
	best, bestDist := "", suggestDistance+1
	lower := strings.ToLower(name)
	for _, c := range candidates {
		if d := levenshtein.ComputeDistance(lower, strings.ToLower(c)); d < bestDist {
			best, bestDist = c, d
		}
	}
	return best
}

// All returns every transaction of the user in insertion order, memoized.
func (s *TransactionService) All(ctx context.Context, userID string) ([]core.Transaction, error) {
	load := func(ctx context.Context) ([]core.Transaction, error) {
		txs, err := s.repo.ListTransactions(ctx, userID)
		return txs, storeErr("list transactions", err)
	}
	if s.memo == nil {
		return load(ctx)
	}
	return s.memo.Get(ctx, userID, transactionsQuery, load)
}

// List applies f to the user's transactions, newest first.
func (s *TransactionService) List(ctx context.Context, userID string, f core.TransactionFilter) ([]core.Transaction, error) {
	all, err := s.All(ctx, userID)
	if err != nil {
		return nil, err
	}
	return f.Apply(all), nil
}

func (s *TransactionService) Delete(ctx context.Context, userID, id string) error {
	if err := s.repo.DeleteTransaction(ctx, userID, id); err != nil {
		return storeErr(fmt.Sprintf("delete transaction %s", id), err)
	}
	s.invalidate(userID)

	s.logger.InfoContext(ctx, "Transaction deleted",
		log.FieldUserID, userID,
		log.FieldTransactionID, id)
	publish(ctx, s.pub, s.logger, amqp.NewEvent(amqp.TransactionDeleted, userID, id))
	return nil
}

// DeleteAll removes every transaction of the user, one atomic commit per
// chunk of batchSize records. It returns how many were removed; running it
// on an empty history returns 0.
func (s *TransactionService) DeleteAll(ctx context.Context, userID string) (int, error) {
	txs, err := s.repo.ListTransactions(ctx, userID)
	if err != nil {
		return 0, storeErr("list transactions", err)
	}
	if len(txs) == 0 {
		return 0, nil
	}

	ids := make([]string, len(txs))
	for i, t := range txs {
		ids[i] = t.ID
	}

	total := 0
	defer func() {
		if total > 0 {
			s.invalidate(userID)
		}
	}()
	for start := 0; start < len(ids); start += s.batchSize {
		end := min(start+s.batchSize, len(ids))
		n, err := s.repo.DeleteTransactions(ctx, userID, ids[start:end])
		total += n
		if err != nil {
			return total, storeErr(fmt.Sprintf("delete batch %d-%d", start, end), err)
		}
	}

	s.logger.InfoContext(ctx, "Transactions purged",
		log.FieldUserID, userID,
		log.FieldCount, total,
		log.FieldOperation, log.OpPurge)

	ev := amqp.NewEvent(amqp.TransactionsPurged, userID, "")
	ev.Count = total
	publish(ctx, s.pub, s.logger, ev)
	return total, nil
}

// Import stores pre-built records, for example from a CSV history. Category
// membership is not enforced; IDs and creation times are filled when absent.
// Records are written in chunks of batchSize, each chunk atomically.
func (s *TransactionService) Import(ctx context.Context, userID string, txs []core.Transaction) (int, error) {
	now := s.clock.Now().UTC()
	prepared := make([]core.Transaction, len(txs))
	for i, t := range txs {
		t.Description = strings.TrimSpace(t.Description)
		t.Category = strings.TrimSpace(t.Category)
		if err := t.Validate(); err != nil {
			return 0, fmt.Errorf("record %d: %w", i+1, err)
		}
		if t.ID == "" {
			t.ID = s.newID()
		}
		if t.CreatedAt.IsZero() {
			t.CreatedAt = now
		}
		prepared[i] = t
	}

	written := 0
	defer func() {
		if written > 0 {
			s.invalidate(userID)
		}
	}()
	for start := 0; start < len(prepared); start += s.batchSize {
		end := min(start+s.batchSize, len(prepared))
		if err := s.repo.AddTransactions(ctx, userID, prepared[start:end]); err != nil {
			return written, storeErr(fmt.Sprintf("import batch %d-%d", start, end), err)
		}
		written = end
	}

	for _, t := range prepared {
		publish(ctx, s.pub, s.logger, amqp.NewEvent(amqp.TransactionCreated, userID, t.ID))
	}
	s.logger.InfoContext(ctx, "Transactions imported",
		log.FieldUserID, userID,
		log.FieldCount, written,
		log.FieldOperation, log.OpImport)
	return written, nil
}

// Get returns one transaction.
func (s *TransactionService) Get(ctx context.Context, userID, id string) (core.Transaction, error) {
	t, err := s.repo.GetTransaction(ctx, userID, id)
	return t, storeErr("get transaction", err)
}

// Totals aggregates one calendar month for the dashboard.
func (s *TransactionService) Totals(ctx context.Context, userID string, year, month int) (core.MonthTotals, error) {
	all, err := s.All(ctx, userID)
	if err != nil {
		return core.MonthTotals{}, err
	}
	return core.TotalMonth(all, year, month), nil
}

// Today is the default date for new transactions.
func (s *TransactionService) Today() core.Date {
	return core.Today(s.clock)
}

func (s *TransactionService) invalidate(userID string) {
	if s.memo != nil {
		s.memo.Invalidate(userID)
	}
}
