package http

// Request parsing shared by the handlers: month selectors, listing filters
// and a body parser that accepts both form posts and JSON.

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"walletgenie/internal/core"
)

const maxBodyBytes = 1 << 20

// MonthParams holds parsed year/month values from request parameters.
type MonthParams struct {
	Year  int
	Month int
}

// ParseMonthParams reads year and month from query, falling back to today's
// month for anything missing or out of range.
func ParseMonthParams(query url.Values, today core.Date) MonthParams {
	params := MonthParams{
		Year:  today.Year(),
		Month: int(today.Month()),
	}

	if v := strings.TrimSpace(query.Get("year")); v != "" {
		if y, err := strconv.Atoi(v); err == nil && y >= 1900 && y <= 9999 {
			params.Year = y
		}
	}
	if v := strings.TrimSpace(query.Get("month")); v != "" {
		if m, err := strconv.Atoi(v); err == nil && m >= 1 && m <= 12 {
			params.Month = m
		}
	}

	return params
}

// FirstDay is the asOf date used to recompute actuals for the month.
func (p MonthParams) FirstDay() core.Date {
	return core.NewDate(p.Year, p.Month, 1)
}

func (p MonthParams) Prev() MonthParams {
	d := p.FirstDay().AddDate(0, -1, 0)
	return MonthParams{Year: d.Year(), Month: int(d.Month())}
}

func (p MonthParams) Next() MonthParams {
	d := p.FirstDay().AddDate(0, 1, 0)
	return MonthParams{Year: d.Year(), Month: int(d.Month())}
}

// ParseTransactionFilter maps the listing query (type, category, from, to, q)
// to a filter. "all" and "All" select everything.
func ParseTransactionFilter(query url.Values) (core.TransactionFilter, error) {
	var f core.TransactionFilter

	switch kind := strings.TrimSpace(query.Get("type")); strings.ToLower(kind) {
	case "", "all":
	default:
		k, err := core.ParseKind(kind)
		if err != nil {
			return f, err
		}
		f.Kind = k
	}

	if cat := sanitizeInput(query.Get("category")); cat != "" && !strings.EqualFold(cat, "all") {
		f.Category = cat
	}

	var err error
	if v := strings.TrimSpace(query.Get("from")); v != "" {
		if f.From, err = core.ParseDate(v); err != nil {
			return f, core.Invalid("from", core.ErrInvalidDate)
		}
	}
	if v := strings.TrimSpace(query.Get("to")); v != "" {
		if f.To, err = core.ParseDate(v); err != nil {
			return f, core.Invalid("to", core.ErrInvalidDate)
		}
	}

	f.Search = sanitizeInput(query.Get("q"))
	return f, nil
}

// RequestBodyParser handles different content types for request body parsing.
// It supports both JSON and form-encoded data, commonly used with HTMX.
type RequestBodyParser struct {
	body        []byte
	contentType string
	jsonData    map[string]any
	formData    url.Values
	parsed      bool
	err         error
}

var errBodyTooLarge = errors.New("request body too large")

// NewRequestBodyParser reads at most maxBodyBytes of the body once.
func NewRequestBodyParser(r *http.Request) *RequestBodyParser {
	p := &RequestBodyParser{
		contentType: r.Header.Get("Content-Type"),
	}
	if r.Body == nil {
		return p
	}

	p.body, p.err = io.ReadAll(io.LimitReader(r.Body, maxBodyBytes+1))
	if p.err == nil && len(p.body) > maxBodyBytes {
		p.err = errBodyTooLarge
	}
	return p
}

// Parse attempts to parse the body as JSON or form data.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true

	if p.err != nil {
		return p.err
	}

	if len(p.body) == 0 {
		p.formData = url.Values{}
		return nil
	}

	if p.body[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(p.body, &p.jsonData); err != nil {
			p.err = err
			return err
		}
		return nil
	}

	p.formData, p.err = url.ParseQuery(string(p.body))
	return p.err
}

// Get returns a sanitized string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return sanitizeInput(stringValue(val))
		}
		return ""
	}
	if p.formData != nil {
		return sanitizeInput(p.formData.Get(key))
	}
	return ""
}

// Values flattens the parsed data into url.Values, for handlers that read
// dynamic field names.
func (p *RequestBodyParser) Values() url.Values {
	if p.jsonData != nil {
		out := make(url.Values, len(p.jsonData))
		for k, v := range p.jsonData {
			out.Set(k, stringValue(v))
		}
		return out
	}
	if p.formData != nil {
		return p.formData
	}
	return url.Values{}
}

func (p *RequestBodyParser) ContentType() string {
	return p.contentType
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseBody parses r and writes a 400 on failure. The returned parser is nil
// when the response has already been written.
func parseBody(w http.ResponseWriter, r *http.Request) *RequestBodyParser {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		BadRequestError("Invalid request body").TriggerErrorNotification("Invalid request body").Write(w)
		return nil
	}
	return p
}
