package http

import (
	"html/template"
	"strconv"
	"strings"
	"time"

	"walletgenie/internal/core"
)

// Currency is the display currency for every rendered amount.
type Currency struct {
	Symbol string
	Code   string
}

// sanitizeInput strips control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// parseAmount reads a positive decimal amount field.
func parseAmount(field, s string) (core.Money, error) {
	cents, err := core.ParseDecimalToCents(s)
	if err != nil {
		return core.Money{}, core.Invalid(field, core.ErrInvalidAmount)
	}
	return core.Money{Cents: cents}, nil
}

// parseNonNegativeAmount treats an empty field as zero.
func parseNonNegativeAmount(field, s string) (core.Money, error) {
	if strings.TrimSpace(s) == "" {
		return core.Money{}, nil
	}
	cents, err := core.ParseNonNegativeCents(s)
	if err != nil {
		return core.Money{}, core.Invalid(field, core.ErrInvalidAmount)
	}
	return core.Money{Cents: cents}, nil
}

// barWidth scales progress (a fraction) to a 0-100 bar width.
func barWidth(progress float64) int {
	w := int(progress*100 + 0.5)
	switch {
	case w < 0:
		return 0
	case w > 100:
		return 100
	}
	return w
}

// barPercent is barWidth for a Percent; N/A draws an empty bar.
func barPercent(p core.Percent) int {
	if !p.Valid {
		return 0
	}
	return barWidth(p.Value / 100)
}

// parsePercentFraction reads a percent such as "12.5" (or "12,5") as a
// fraction. Range checks are left to the budget.
func parsePercentFraction(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, err
	}
	return v / 100, nil
}

// fractionPercent renders a fraction as a percent without trailing zeros,
// e.g. 0.125 -> "12.5".
func fractionPercent(f float64) string {
	s := strconv.FormatFloat(f*100, 'f', 2, 64)
	s = strings.TrimRight(s, "0")
	return strings.TrimSuffix(s, ".")
}

func formatPercent(fraction float64) string {
	return strconv.FormatFloat(fraction*100, 'f', 1, 64) + "%"
}

func riskLabel(r core.Risk) string {
	switch r {
	case core.NearLimit:
		return "Near limit"
	case core.Exceeded:
		return "Over budget"
	case core.Unbudgeted:
		return "Unbudgeted spending"
	}
	return "Within budget"
}

func (s *Server) templateFuncs() template.FuncMap {
	return template.FuncMap{
		"money": func(m core.Money) string { return m.Format(s.currency.Symbol) },
		"pct":   formatPercent,
		"bar":   barWidth,
		"fill":  barPercent,
		"share": fractionPercent,
		"risk":  riskLabel,
		"monthName": func(m int) string {
			if m < 1 || m > 12 {
				return ""
			}
			return time.Month(m).String()
		},
	}
}
