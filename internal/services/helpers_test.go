package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"walletgenie/internal/amqp"
	"walletgenie/internal/cache"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/store"
	"walletgenie/internal/store/memory"
)

var today = time.Date(2025, 3, 15, 10, 0, 0, 0, time.UTC)

func quietLogger() *log.Logger {
	return log.New(log.Config{Output: io.Discard})
}

type fakePublisher struct {
	mu     sync.Mutex
	events []*amqp.Event
	err    error
}

func (p *fakePublisher) PublishEvent(_ context.Context, ev *amqp.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return p.err
}

func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, len(p.events))
	for i, ev := range p.events {
		out[i] = ev.Type
	}
	return out
}

// failingStore wraps the memory store and fails selected operations.
type failingStore struct {
	*memory.Store
	failList   bool
	failDelete int // fail the n-th DeleteTransactions call (1-based)
	deletes    int
}

var errDisk = errors.New("disk on fire")

func (f *failingStore) ListTransactions(ctx context.Context, userID string) ([]core.Transaction, error) {
	if f.failList {
		return nil, errDisk
	}
	return f.Store.ListTransactions(ctx, userID)
}

func (f *failingStore) DeleteTransactions(ctx context.Context, userID string, ids []string) (int, error) {
	f.deletes++
	if f.deletes == f.failDelete {
		return 0, errDisk
	}
	return f.Store.DeleteTransactions(ctx, userID, ids)
}

type fixture struct {
	store *memory.Store
	pub   *fakePublisher
	cats  *CategoryService
	txs   *TransactionService
	bud   *BudgetService
	goals *GoalService
}

func newFixture(batch int) *fixture {
	st := memory.New()
	return newFixtureWith(st, st, batch)
}

func newFixtureWith(st *memory.Store, txRepo store.TransactionRepository, batch int) *fixture {
	clock := core.FixedClock{T: today}
	logger := quietLogger()
	pub := &fakePublisher{}
	cats := NewCategoryService(st, 10, cache.NewMemo[core.CategorySet](64, time.Minute), logger)
	txs := NewTransactionService(TransactionServiceConfig{
		Repo:       txRepo,
		Categories: cats,
		Publisher:  pub,
		Clock:      clock,
		BatchSize:  batch,
		Memo:       cache.NewMemo[[]core.Transaction](64, time.Minute),
		Logger:     logger,
	})
	n := 0
	txs.newID = func() string { n++; return fmt.Sprintf("tx-%d", n) }
	return &fixture{
		store: st,
		pub:   pub,
		cats:  cats,
		txs:   txs,
		bud:   NewBudgetService(st, cats, txs, pub, clock, logger),
		goals: NewGoalService(st, clock, logger),
	}
}
