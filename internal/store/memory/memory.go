// Package memory is an in-process store used for development and tests.
package memory

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"walletgenie/internal/core"
)

type userData struct {
	expenseCats []string
	incomeCats  []string
	txs         []core.Transaction
	budget      *core.Budget
	goals       []core.Goal
}

type Store struct {
	mu    sync.Mutex
	users map[string]*userData
}

func New() *Store {
	return &Store{users: map[string]*userData{}}
}

// NewFromFiles seeds seedUser's categories from expense_categories.txt and
// income_categories.txt under base. Missing files leave the lists empty.
func NewFromFiles(base, seedUser string) *Store {
	s := New()
	exp, inc := SeedCategories(base)
	if seedUser != "" && (len(exp) > 0 || len(inc) > 0) {
		u := s.user(seedUser)
		u.expenseCats = exp
		u.incomeCats = inc
	}
	return s
}

// user returns the record for id, creating it. Callers hold s.mu.
func (s *Store) user(id string) *userData {
	u, ok := s.users[id]
	if !ok {
		u = &userData{}
		s.users[id] = u
	}
	return u
}

func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) ListCategories(_ context.Context, userID string) (core.CategorySet, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return core.CategorySet{Expense: []string{}, Income: []string{}}, nil
	}
	return core.CategorySet{Expense: u.expenseCats, Income: u.incomeCats}.Clone(), nil
}

func (s *Store) AddCategory(_ context.Context, userID string, kind core.Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	list := u.cats(kind)
	for _, n := range *list {
		if n == name {
			return core.ErrAlreadyExists
		}
	}
	*list = append(*list, name)
	return nil
}

func (s *Store) DeleteCategory(_ context.Context, userID string, kind core.Kind, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return core.ErrNotFound
	}
	list := u.cats(kind)
	for i, n := range *list {
		if n == name {
			*list = append((*list)[:i:i], (*list)[i+1:]...)
			return nil
		}
	}
	return core.ErrNotFound
}

func (u *userData) cats(kind core.Kind) *[]string {
	if kind == core.Income {
		return &u.incomeCats
	}
	return &u.expenseCats
}

func (s *Store) AddTransaction(_ context.Context, userID string, t core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for _, existing := range u.txs {
		if existing.ID == t.ID {
			return core.ErrAlreadyExists
		}
	}
	u.txs = append(u.txs, t)
	return nil
}

func (s *Store) AddTransactions(_ context.Context, userID string, txs []core.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	seen := make(map[string]struct{}, len(u.txs)+len(txs))
	for _, t := range u.txs {
		seen[t.ID] = struct{}{}
	}
	for _, t := range txs {
		if _, dup := seen[t.ID]; dup {
			return core.ErrAlreadyExists
		}
		seen[t.ID] = struct{}{}
	}
	u.txs = append(u.txs, txs...)
	return nil
}

func (s *Store) GetTransaction(_ context.Context, userID, id string) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if u, ok := s.users[userID]; ok {
		for _, t := range u.txs {
			if t.ID == id {
				return t, nil
			}
		}
	}
	return core.Transaction{}, core.ErrNotFound
}

func (s *Store) ListTransactions(_ context.Context, userID string) ([]core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return append([]core.Transaction(nil), u.txs...), nil
}

func (s *Store) DeleteTransaction(ctx context.Context, userID, id string) error {
	n, err := s.DeleteTransactions(ctx, userID, []string{id})
	if err != nil {
		return err
	}
	if n == 0 {
		return core.ErrNotFound
	}
	return nil
}

func (s *Store) DeleteTransactions(_ context.Context, userID string, ids []string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || len(ids) == 0 {
		return 0, nil
	}
	drop := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		drop[id] = struct{}{}
	}
	kept := u.txs[:0:0]
	for _, t := range u.txs {
		if _, ok := drop[t.ID]; !ok {
			kept = append(kept, t)
		}
	}
	n := len(u.txs) - len(kept)
	u.txs = kept
	return n, nil
}

func (s *Store) GetBudget(_ context.Context, userID string) (core.Budget, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok || u.budget == nil {
		return core.NewBudget(), false, nil
	}
	b := u.budget.Clone()
	for name, a := range b.Allocations {
		a.Spent = core.Money{}
		b.Allocations[name] = a
	}
	return b, true, nil
}

func (s *Store) SaveBudget(_ context.Context, userID string, b core.Budget) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	saved := b.Clone()
	s.user(userID).budget = &saved
	return nil
}

func (s *Store) AddGoal(_ context.Context, userID string, g core.Goal) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.user(userID)
	for _, existing := range u.goals {
		if existing.ID == g.ID {
			return core.ErrAlreadyExists
		}
	}
	u.goals = append(u.goals, g)
	return nil
}

func (s *Store) GetGoal(_ context.Context, userID, id string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if i, u := s.goalIndex(userID, id); i >= 0 {
		return u.goals[i], nil
	}
	return core.Goal{}, core.ErrNotFound
}

func (s *Store) ListGoals(_ context.Context, userID string) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[userID]
	if !ok {
		return nil, nil
	}
	return append([]core.Goal(nil), u.goals...), nil
}

func (s *Store) UpdateGoalProgress(_ context.Context, userID, id string, current core.Money, onTrack bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, u := s.goalIndex(userID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	u.goals[i].Current = current
	u.goals[i].OnTrack = onTrack
	return nil
}

func (s *Store) DeleteGoal(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, u := s.goalIndex(userID, id)
	if i < 0 {
		return core.ErrNotFound
	}
	u.goals = append(u.goals[:i:i], u.goals[i+1:]...)
	return nil
}

func (s *Store) goalIndex(userID, id string) (int, *userData) {
	u, ok := s.users[userID]
	if !ok {
		return -1, nil
	}
	for i, g := range u.goals {
		if g.ID == id {
			return i, u
		}
	}
	return -1, u
}

// SeedCategories reads the expense and income seed lists under base. Blank
// lines and lines starting with # are skipped.
func SeedCategories(base string) (expense, income []string) {
	return readLines(filepath.Join(base, "expense_categories.txt")),
		readLines(filepath.Join(base, "income_categories.txt"))
}

func readLines(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return nil
	}
	defer f.Close()
	var out []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return dedupe(out)
}

// dedupe drops repeats and keeps first-seen order.
func dedupe(in []string) []string {
	seen := map[string]struct{}{}
	out := make([]string, 0, len(in))
	for _, v := range in {
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	return out
}
