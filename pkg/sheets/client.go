package sheets

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/angelmondragon/freightquote-backend/pkg/config"
	"github.com/angelmondragon/freightquote-backend/pkg/gcp"
	"github.com/angelmondragon/freightquote-backend/pkg/logger"
	gsheets "google.golang.org/api/sheets/v4"
)

const (
	valueInputOption  = "USER_ENTERED"
	insertDataOption  = "INSERT_ROWS"
	defaultTimeout    = 20 * time.Second
	defaultGridColumn = 40
)

var errClientNotInitialized = errors.New("sheets client not initialized")

// Store is the tabular datastore surface used by the quotation flows.
type Store interface {
	EnsureWorksheet(ctx context.Context, spreadsheetID, title string, headers []string) (bool, error)
	AppendRow(ctx context.Context, spreadsheetID, title string, row []string) error
	ReadAll(ctx context.Context, spreadsheetID, title string) ([][]string, error)
}

type backend interface {
	titles(ctx context.Context, spreadsheetID string) ([]string, error)
	addSheet(ctx context.Context, spreadsheetID, title string, columns int) error
	appendValues(ctx context.Context, spreadsheetID, rng string, rows [][]any) error
	getValues(ctx context.Context, spreadsheetID, rng string) ([][]any, error)
}

// Client talks to the Google Sheets v4 API.
type Client struct {
	api     backend
	timeout time.Duration
}

// NewClient builds the Sheets service using the GCP credentials.
func NewClient(ctx context.Context, gcpCfg config.GCPConfig, cfg config.SheetsConfig, logg *logger.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.QuotationsSpreadsheetID) == "" || strings.TrimSpace(cfg.TimeSpreadsheetID) == "" {
		return nil, fmt.Errorf("quotations and time spreadsheet ids are required")
	}
	svc, err := gsheets.NewService(ctx, gcp.ClientOptions(gcpCfg, gsheets.SpreadsheetsScope)...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}
	if logg != nil {
		logg.Info(ctx, "sheets client initialized")
	}
	return &Client{api: &serviceBackend{svc: svc}, timeout: cfg.RequestTimeout}, nil
}

// EnsureWorksheet creates the worksheet with a header row when it is missing.
// It reports whether the worksheet was created.
func (c *Client) EnsureWorksheet(ctx context.Context, spreadsheetID, title string, headers []string) (bool, error) {
	if c == nil || c.api == nil {
		return false, errClientNotInitialized
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	existing, err := c.api.titles(ctx, spreadsheetID)
	if err != nil {
		return false, gcp.Classify(err, "listing worksheets")
	}
	for _, name := range existing {
		if name == title {
			return false, nil
		}
	}

	columns := len(headers)
	if columns < defaultGridColumn {
		columns = defaultGridColumn
	}
	if err := c.api.addSheet(ctx, spreadsheetID, title, columns); err != nil {
		return false, gcp.Classify(err, fmt.Sprintf("creating worksheet %q", title))
	}
	if len(headers) > 0 {
		if err := c.api.appendValues(ctx, spreadsheetID, A1(title), [][]any{toCells(headers)}); err != nil {
			return true, gcp.Classify(err, fmt.Sprintf("writing headers to %q", title))
		}
	}
	return true, nil
}

// AppendRow appends a single row after the last populated row.
func (c *Client) AppendRow(ctx context.Context, spreadsheetID, title string, row []string) error {
	if c == nil || c.api == nil {
		return errClientNotInitialized
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	if err := c.api.appendValues(ctx, spreadsheetID, A1(title), [][]any{toCells(row)}); err != nil {
		return gcp.Classify(err, fmt.Sprintf("appending row to %q", title))
	}
	return nil
}

// ReadAll returns every populated row of the worksheet as formatted strings.
// A missing worksheet reads as empty.
func (c *Client) ReadAll(ctx context.Context, spreadsheetID, title string) ([][]string, error) {
	if c == nil || c.api == nil {
		return nil, errClientNotInitialized
	}
	ctx, cancel := c.withTimeout(ctx)
	defer cancel()

	existing, err := c.api.titles(ctx, spreadsheetID)
	if err != nil {
		return nil, gcp.Classify(err, "listing worksheets")
	}
	if !slices.Contains(existing, title) {
		return [][]string{}, nil
	}
	values, err := c.api.getValues(ctx, spreadsheetID, quoteTitle(title))
	if err != nil {
		return nil, gcp.Classify(err, fmt.Sprintf("reading %q", title))
	}
	rows := make([][]string, 0, len(values))
	for _, raw := range values {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func (c *Client) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := c.timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return context.WithTimeout(ctx, timeout)
}

// A1 returns the anchor range of a worksheet.
func A1(title string) string {
	return quoteTitle(title) + "!A1"
}

func quoteTitle(title string) string {
	return "'" + strings.ReplaceAll(title, "'", "''") + "'"
}

func toCells(row []string) []any {
	cells := make([]any, len(row))
	for i, value := range row {
		cells[i] = value
	}
	return cells
}

type serviceBackend struct {
	svc *gsheets.Service
}

func (b *serviceBackend) titles(ctx context.Context, spreadsheetID string) ([]string, error) {
	resp, err := b.svc.Spreadsheets.Get(spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	titles := make([]string, 0, len(resp.Sheets))
	for _, sheet := range resp.Sheets {
		if sheet.Properties != nil {
			titles = append(titles, sheet.Properties.Title)
		}
	}
	return titles, nil
}

func (b *serviceBackend) addSheet(ctx context.Context, spreadsheetID, title string, columns int) error {
	req := &gsheets.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheets.Request{{
			AddSheet: &gsheets.AddSheetRequest{
				Properties: &gsheets.SheetProperties{
					Title: title,
					GridProperties: &gsheets.GridProperties{
						RowCount:    1000,
						ColumnCount: int64(columns),
					},
				},
			},
		}},
	}
	_, err := b.svc.Spreadsheets.BatchUpdate(spreadsheetID, req).Context(ctx).Do()
	return err
}

func (b *serviceBackend) appendValues(ctx context.Context, spreadsheetID, rng string, rows [][]any) error {
	_, err := b.svc.Spreadsheets.Values.Append(spreadsheetID, rng, &gsheets.ValueRange{Values: rows}).
		ValueInputOption(valueInputOption).
		InsertDataOption(insertDataOption).
		Context(ctx).
		Do()
	return err
}

func (b *serviceBackend) getValues(ctx context.Context, spreadsheetID, rng string) ([][]any, error) {
	resp, err := b.svc.Spreadsheets.Values.Get(spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, err
	}
	return resp.Values, nil
}
