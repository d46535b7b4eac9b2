package core

import (
	"sort"
	"strings"
)

// TransactionFilter narrows a listing. Zero values mean "all".
type TransactionFilter struct {
	Kind     Kind
	Category string
	From     Date
	To       Date
	Search   string
}

// Match reports whether t passes every set criterion. From and To are inclusive.
func (f TransactionFilter) Match(t Transaction) bool {
	if f.Kind != "" && t.Kind != f.Kind {
		return false
	}
	if f.Category != "" && t.Category != f.Category {
		return false
	}
	if !f.From.IsZero() && t.Date.Before(f.From.Time) {
		return false
	}
	if !f.To.IsZero() && t.Date.After(f.To.Time) {
		return false
	}
	if f.Search != "" && !strings.Contains(strings.ToLower(t.Description), strings.ToLower(f.Search)) {
		return false
	}
	return true
}

// Apply filters txs and orders the result by date descending. txs is expected
// in insertion order; equal dates keep that order.
func (f TransactionFilter) Apply(txs []Transaction) []Transaction {
	out := make([]Transaction, 0, len(txs))
	for _, t := range txs {
		if f.Match(t) {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date.Time)
	})
	return out
}

// Key is a stable representation used for memoization.
func (f TransactionFilter) Key() string {
	return strings.Join([]string{
		string(f.Kind), f.Category, f.From.String(), f.To.String(), strings.ToLower(f.Search),
	}, "|")
}
