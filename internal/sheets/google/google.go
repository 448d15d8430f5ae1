package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"brastech/internal/log"
	"brastech/internal/services"
	ports "brastech/internal/sheets"
)

// Tab names, one per exported collection.
const (
	TransactionsTab = "Transações"
	ClientsTab      = "Clientes"
	UsersTab        = "Usuários"
	BackupTab       = "Backup"
)

var ErrMissingSpreadsheetID = errors.New("missing spreadsheet id")

type Config struct {
	SpreadsheetID   string
	CredentialsFile string
	// CredentialsJSON takes precedence over CredentialsFile.
	CredentialsJSON string
}

// Client mirrors snapshots into a Google spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	logger        *log.Logger
}

var _ ports.SnapshotWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
// Without explicit credentials it falls back to GOOGLE_APPLICATION_CREDENTIALS.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	creds, err := loadCredentials(cfg)
	if err != nil {
		return nil, err
	}
	return NewWithOptions(ctx, cfg.SpreadsheetID, logger,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// NewWithOptions builds the client from raw API options. Tests point it at
// a local endpoint.
func NewWithOptions(ctx context.Context, spreadsheetID string, logger *log.Logger, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, ErrMissingSpreadsheetID
	}
	if logger == nil {
		logger = log.Default(log.ComponentSheets)
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

func loadCredentials(cfg Config) ([]byte, error) {
	if js := strings.TrimSpace(cfg.CredentialsJSON); js != "" {
		return []byte(js), nil
	}
	path := strings.TrimSpace(cfg.CredentialsFile)
	if path == "" {
		path = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	if path == "" {
		return nil, errors.New("missing service account credentials (set GOOGLE_CREDENTIALS_JSON, GOOGLE_CREDENTIALS_FILE or GOOGLE_APPLICATION_CREDENTIALS)")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read service account file: %w", err)
	}
	return b, nil
}

// WriteSnapshot replaces the content of every tab with the snapshot.
// Missing tabs are created first.
func (c *Client) WriteSnapshot(ctx context.Context, snap services.Snapshot) error {
	if c.svc == nil {
		return errors.New("sheets service not initialized")
	}

	tables := []struct {
		tab  string
		rows [][]any
	}{
		{TransactionsTab, transactionRows(snap.Transactions)},
		{ClientsTab, clientRows(snap.Clients)},
		{UsersTab, userRows(snap.Users)},
		{BackupTab, backupRows(snap)},
	}

	tabs := make([]string, len(tables))
	for i, t := range tables {
		tabs[i] = t.tab
	}
	if err := c.ensureTabs(ctx, tabs); err != nil {
		return err
	}

	clearReq := &gsheet.BatchClearValuesRequest{}
	updateReq := &gsheet.BatchUpdateValuesRequest{ValueInputOption: "RAW"}
	for _, t := range tables {
		clearReq.Ranges = append(clearReq.Ranges, tabRange(t.tab, "A:Z"))
		updateReq.Data = append(updateReq.Data, &gsheet.ValueRange{
			Range:  tabRange(t.tab, "A1"),
			Values: t.rows,
		})
	}

	if _, err := c.svc.Spreadsheets.Values.BatchClear(c.spreadsheetID, clearReq).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clear tabs: %w", err)
	}
	resp, err := c.svc.Spreadsheets.Values.BatchUpdate(c.spreadsheetID, updateReq).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("write tabs: %w", err)
	}

	c.logger.InfoContext(ctx, "Snapshot written to Google Sheets",
		"transactions", len(snap.Transactions),
		"clients", len(snap.Clients),
		"users", len(snap.Users),
		"updated_cells", resp.TotalUpdatedCells)
	return nil
}

func (c *Client) ensureTabs(ctx context.Context, tabs []string) error {
	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet: %w", err)
	}
	have := make(map[string]bool, len(ss.Sheets))
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			have[sh.Properties.Title] = true
		}
	}

	var reqs []*gsheet.Request
	for _, tab := range tabs {
		if !have[tab] {
			reqs = append(reqs, &gsheet.Request{
				AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: tab}},
			})
		}
	}
	if len(reqs) == 0 {
		return nil
	}
	_, err = c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, &gsheet.BatchUpdateSpreadsheetRequest{Requests: reqs}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("create tabs: %w", err)
	}
	c.logger.InfoContext(ctx, "Created missing tabs", "count", len(reqs))
	return nil
}

// tabRange quotes the tab name so accented titles survive A1 notation.
func tabRange(tab, cells string) string {
	return fmt.Sprintf("'%s'!%s", strings.ReplaceAll(tab, "'", "''"), cells)
}
