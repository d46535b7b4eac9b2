// Package google mirrors transactions into a Google Sheets worksheet, one row
// per transaction keyed by its ID and user.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/oauth2"
	goauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"walletgenie/internal/config"
	"walletgenie/internal/core"
	"walletgenie/internal/log"
	"walletgenie/internal/worker"
)

var _ worker.Exporter = (*Client)(nil)

// Header is written on the first export into an empty sheet.
var Header = []any{"ID", "User", "Date", "Kind", "Category", "Description", "Amount"}

const lastColumn = "G"

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
	logger        *log.Logger
}

// NewFromConfig authenticates with a service account when one is configured
// and falls back to a stored OAuth token otherwise.
func NewFromConfig(ctx context.Context, cfg *config.Config, logger *log.Logger) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.GoogleSpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	sheetName := strings.TrimSpace(cfg.GoogleSheetName)
	if sheetName == "" {
		sheetName = "Transactions"
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentSheets)

	svc, err := newSheetsService(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetName:     sheetName,
		logger:        logger,
	}, nil
}

func newSheetsService(ctx context.Context, cfg *config.Config, logger *log.Logger) (*gsheet.Service, error) {
	saJSON, err := inlineOrFile(cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, fmt.Errorf("service account: %w", err)
	}
	if len(saJSON) > 0 {
		logger.InfoContext(ctx, "Using service account credentials", "credentials_size", len(saJSON))
		return gsheet.NewService(ctx,
			goption.WithCredentialsJSON(saJSON),
			goption.WithScopes(gsheet.SpreadsheetsScope))
	}

	tokenJSON, err := inlineOrFile(cfg.GoogleOAuthTokenJSON, cfg.GoogleOAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}
	if len(tokenJSON) == 0 {
		return nil, errors.New("missing credentials (set GOOGLE_SERVICE_ACCOUNT_JSON/_FILE or GOOGLE_OAUTH_CLIENT_* and GOOGLE_OAUTH_TOKEN_*)")
	}
	oc, err := OAuthConfig(cfg)
	if err != nil {
		return nil, err
	}
	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("oauth token: %w", err)
	}

	logger.InfoContext(ctx, "Using OAuth token credentials", "token_valid", tok.Valid())
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	return gsheet.NewService(ctx, goption.WithHTTPClient(oc.Client(ctx, &tok)))
}

// OAuthConfig builds the installed-app OAuth client for the Sheets scope
// from GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE.
func OAuthConfig(cfg *config.Config) (*oauth2.Config, error) {
	clientJSON, err := inlineOrFile(cfg.GoogleOAuthClientJSON, cfg.GoogleOAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("oauth client: %w", err)
	}
	if len(clientJSON) == 0 {
		return nil, errors.New("missing OAuth client (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}
	oc, err := goauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("oauth config: %w", err)
	}
	return oc, nil
}

// inlineOrFile prefers inline JSON and reads path otherwise. Both empty
// yields nil.
func inlineOrFile(inline, path string) ([]byte, error) {
	if s := strings.TrimSpace(inline); s != "" {
		return []byte(s), nil
	}
	if path = strings.TrimSpace(path); path == "" {
		return nil, nil
	}
	return os.ReadFile(path)
}

// newHTTPClientWithPooling is the base transport under the OAuth client.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		DialContext:           dialer.DialContext,
		MaxIdleConns:          20,
		MaxIdleConnsPerHost:   10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ForceAttemptHTTP2:     true,
	}
	return &http.Client{Transport: transport, Timeout: 60 * time.Second}
}

// ExportTransaction writes t's row. A row already holding the same user and
// ID is overwritten, so redelivered events do not duplicate rows.
func (c *Client) ExportTransaction(ctx context.Context, userID string, t core.Transaction) error {
	keys, err := c.readKeys(ctx)
	if err != nil {
		return err
	}
	row := [][]any{transactionRow(userID, t)}

	if existing := findRows(keys, userID, t.ID); len(existing) > 0 {
		rng := rowRange(c.sheetName, existing[0])
		_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: row}).
			ValueInputOption("USER_ENTERED").Context(ctx).Do()
		if err != nil {
			return fmt.Errorf("update %s: %w", rng, err)
		}
		return nil
	}

	if len(keys) == 0 {
		row = append([][]any{Header}, row...)
	}
	rng := fmt.Sprintf("%s!A:%s", quoteSheet(c.sheetName), lastColumn)
	_, err = c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, &gsheet.ValueRange{Values: row}).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", c.sheetName, err)
	}
	return nil
}

// RemoveTransaction clears the row of one transaction. A missing row is not
// an error.
func (c *Client) RemoveTransaction(ctx context.Context, userID, id string) error {
	keys, err := c.readKeys(ctx)
	if err != nil {
		return err
	}
	_, err = c.clearRows(ctx, findRows(keys, userID, id))
	return err
}

// RemoveUserTransactions clears every row owned by userID.
func (c *Client) RemoveUserTransactions(ctx context.Context, userID string) (int, error) {
	keys, err := c.readKeys(ctx)
	if err != nil {
		return 0, err
	}
	return c.clearRows(ctx, findRows(keys, userID, ""))
}

func (c *Client) readKeys(ctx context.Context) ([][]any, error) {
	rng := fmt.Sprintf("%s!A:B", quoteSheet(c.sheetName))
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}
	return resp.Values, nil
}

// clearRows blanks the given rows in one request. Cleared rows stay in place
// and are skipped by later lookups.
func (c *Client) clearRows(ctx context.Context, rows []int) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	ranges := make([]string, len(rows))
	for i, r := range rows {
		ranges[i] = rowRange(c.sheetName, r)
	}
	_, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, &gsheet.BatchClearValuesRequest{Ranges: ranges}).
		Context(ctx).Do()
	if err != nil {
		return 0, fmt.Errorf("clear %d rows in %s: %w", len(rows), c.sheetName, err)
	}
	c.logger.DebugContext(ctx, "Rows cleared", log.FieldCount, len(rows))
	return len(rows), nil
}

func transactionRow(userID string, t core.Transaction) []any {
	return []any{t.ID, userID, t.Date.String(), string(t.Kind), t.Category, t.Description, t.Amount.Decimal()}
}

// findRows returns the 1-based sheet rows whose ID and user columns match.
// An empty id matches every row of the user. The header row never matches.
func findRows(values [][]any, userID, id string) []int {
	var out []int
	for i, row := range values {
		if len(row) < 2 {
			continue
		}
		rowID := strings.TrimSpace(fmt.Sprint(row[0]))
		rowUser := strings.TrimSpace(fmt.Sprint(row[1]))
		if rowID == "" || rowUser != userID {
			continue
		}
		if id != "" && rowID != id {
			continue
		}
		out = append(out, i+1)
	}
	return out
}

func rowRange(sheet string, row int) string {
	return fmt.Sprintf("%s!A%d:%s%d", quoteSheet(sheet), row, lastColumn, row)
}

// quoteSheet wraps a sheet name for A1 notation.
func quoteSheet(name string) string {
	return "'" + strings.ReplaceAll(name, "'", "''") + "'"
}
