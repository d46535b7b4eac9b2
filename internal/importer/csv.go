// Package importer reads transaction histories from CSV.
package importer

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"walletgenie/internal/core"
)

var required = []string{"date", "type", "category", "description", "amount"}

// ErrMissingColumn is returned when the header lacks a required column.
var ErrMissingColumn = errors.New("missing column")

// Options tune ReadCSV.
type Options struct {
	// DefaultCategory fills rows whose category cell is empty. When blank,
	// such rows are rejected.
	DefaultCategory string
}

// Result holds the parsed records and one error per rejected line.
type Result struct {
	Transactions []core.Transaction
	Errors       []error
}

// ReadCSV parses a history with a header row naming date, type, category,
// description and amount in any order and case. That is the layout the
// transaction export writes. Bad rows are reported in Result.Errors and
// skipped; only an unreadable header fails the whole read.
func ReadCSV(r io.Reader, opts Options) (Result, error) {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return Result{}, nil
	}
	if err != nil {
		return Result{}, fmt.Errorf("read header: %w", err)
	}
	cols, err := columns(header)
	if err != nil {
		return Result{}, err
	}

	var res Result
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			res.Errors = append(res.Errors, err)
			continue
		}
		if blank(rec) {
			continue
		}
		line, _ := cr.FieldPos(0)
		t, err := parseRecord(rec, cols, opts)
		if err != nil {
			res.Errors = append(res.Errors, fmt.Errorf("line %d: %w", line, err))
			continue
		}
		res.Transactions = append(res.Transactions, t)
	}
	return res, nil
}

func columns(header []string) (map[string]int, error) {
	cols := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(h, "\ufeff")))
		if _, dup := cols[h]; !dup {
			cols[h] = i
		}
	}
	var missing []string
	for _, name := range required {
		if _, ok := cols[name]; !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrMissingColumn, strings.Join(missing, ", "))
	}
	return cols, nil
}

func parseRecord(rec []string, cols map[string]int, opts Options) (core.Transaction, error) {
	cell := func(name string) string {
		i := cols[name]
		if i >= len(rec) {
			return ""
		}
		return strings.TrimSpace(rec[i])
	}

	date, err := core.ParseDate(cell("date"))
	if err != nil {
		return core.Transaction{}, err
	}
	kind, err := core.ParseKind(cell("type"))
	if err != nil {
		return core.Transaction{}, err
	}
	cents, err := core.ParseDecimalToCents(cell("amount"))
	if err != nil {
		return core.Transaction{}, err
	}
	category := unquoteFormula(cell("category"))
	if category == "" {
		category = opts.DefaultCategory
	}

	t := core.Transaction{
		Description: unquoteFormula(cell("description")),
		Amount:      core.Money{Cents: cents},
		Date:        date,
		Kind:        kind,
		Category:    category,
	}
	if err := t.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return t, nil
}

// unquoteFormula drops the quote the export puts in front of cells that
// start with a formula trigger.
func unquoteFormula(s string) string {
	if len(s) > 1 && s[0] == '\'' && strings.ContainsRune("=+-@\t\r", rune(s[1])) {
		return s[1:]
	}
	return s
}

func blank(rec []string) bool {
	for _, f := range rec {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
