package google

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"golang.org/x/sync/errgroup"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"vulekamali/internal/core"
	"vulekamali/internal/log"
	ports "vulekamali/internal/sheets"
)

// Ensure interface conformance
var _ ports.SnapshotSource = (*Client)(nil)

// Config selects the workbook and the financial-year tabs to read.
type Config struct {
	SpreadsheetID      string
	SheetPrefix        string
	FinancialYears     []string
	ServiceAccountFile string
	ServiceAccountJSON string
	// Concurrency bounds how many tabs are fetched at once.
	Concurrency int
}

// Client reads quarterly report rows from a workbook with one tab per
// financial year, named "<prefix> <slug>" (e.g. "IRM 2019-20").
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	prefix        string
	years         []core.FinancialYear
	concurrency   int
	logger        *log.Logger
}

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, logger *log.Logger) (*Client, error) {
	credentialsJSON, err := readCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(credentialsJSON),
		goption.WithScopes(gsheet.SpreadsheetsReadonlyScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return NewWithService(svc, cfg, logger)
}

// NewWithService wraps an existing Sheets service.
func NewWithService(svc *gsheet.Service, cfg Config, logger *log.Logger) (*Client, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet id")
	}
	if len(cfg.FinancialYears) == 0 {
		return nil, errors.New("no financial years configured")
	}
	years := make([]core.FinancialYear, 0, len(cfg.FinancialYears))
	for _, s := range cfg.FinancialYears {
		fy, err := core.ParseFinancialYear(s)
		if err != nil {
			return nil, fmt.Errorf("financial year tab: %w", err)
		}
		years = append(years, fy)
	}
	prefix := strings.TrimSpace(cfg.SheetPrefix)
	if prefix == "" {
		prefix = "IRM"
	}
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &Client{
		svc:           svc,
		spreadsheetID: cfg.SpreadsheetID,
		prefix:        prefix,
		years:         years,
		concurrency:   concurrency,
		logger:        logger.WithComponent(log.ComponentSheets),
	}, nil
}

// readCredentials prefers inline JSON over a credentials file.
func readCredentials(cfg Config) ([]byte, error) {
	switch {
	case strings.TrimSpace(cfg.ServiceAccountJSON) != "":
		return []byte(cfg.ServiceAccountJSON), nil
	case strings.TrimSpace(cfg.ServiceAccountFile) != "":
		data, err := os.ReadFile(cfg.ServiceAccountFile)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// TabName returns the tab holding a financial year's reports.
func (c *Client) TabName(fy core.FinancialYear) string {
	return c.prefix + " " + fy.Slug()
}

// FetchSnapshotRows reads every configured tab and returns the parsed rows in
// tab order. Rows that fail to parse are logged and skipped; a tab that cannot
// be read fails the whole fetch.
func (c *Client) FetchSnapshotRows(ctx context.Context) ([]ports.ImportRow, error) {
	if c.svc == nil {
		return nil, errors.New("sheets service not initialized")
	}

	results := make([][]ports.ImportRow, len(c.years))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.concurrency)
	for i, fy := range c.years {
		g.Go(func() error {
			rows, err := c.readTab(gctx, fy)
			if err != nil {
				return err
			}
			results[i] = rows
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var out []ports.ImportRow
	for _, rows := range results {
		out = append(out, rows...)
	}
	return out, nil
}

func (c *Client) readTab(ctx context.Context, fy core.FinancialYear) ([]ports.ImportRow, error) {
	tab := c.TabName(fy)
	rng := fmt.Sprintf("'%s'!A:AZ", tab)
	resp, err := c.svc.Spreadsheets.Values.Get(c.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", rng, err)
	}

	rows, skipped := parseSheet(resp.Values, fy, tab)
	for _, err := range skipped {
		c.logger.WarnContext(ctx, "Skipping sheet row", log.FieldError, err)
	}
	c.logger.InfoContext(ctx, "Read financial year tab",
		"tab", tab,
		log.FieldRows, len(rows),
		"skipped", len(skipped))
	return rows, nil
}

// parseSheet converts a values matrix whose first row is a header into import
// rows. Blank rows are ignored; rows that fail to parse are returned as
// errors. The tab's financial year fills rows that do not name one.
func parseSheet(values [][]interface{}, fy core.FinancialYear, tab string) ([]ports.ImportRow, []error) {
	if len(values) == 0 {
		return nil, nil
	}
	header := toStrings(values[0])
	keys := make([]string, len(header))
	for i, h := range header {
		keys[i] = ports.NormalizeHeader(h)
	}

	var rows []ports.ImportRow
	var skipped []error
	for i := 1; i < len(values); i++ {
		cells := toStrings(values[i])
		if isBlank(cells) {
			continue
		}
		fields := make(map[string]string, len(keys))
		for j, key := range keys {
			if key == "" || j >= len(cells) {
				continue
			}
			fields[key] = cells[j]
		}
		if fields[ports.ColFinancialYear] == "" {
			fields[ports.ColFinancialYear] = fy.Slug()
		}

		ref := fmt.Sprintf("%s!%d", tab, i+1)
		row, err := ports.ParseRow(fields)
		if err != nil {
			skipped = append(skipped, fmt.Errorf("%s: %w", ref, err))
			continue
		}
		row.Ref = ref
		rows = append(rows, row)
	}
	return rows, skipped
}

func toStrings(in []interface{}) []string {
	out := make([]string, len(in))
	for i, v := range in {
		out[i] = strings.TrimSpace(fmt.Sprint(v))
	}
	return out
}

func isBlank(cells []string) bool {
	for _, c := range cells {
		if c != "" {
			return false
		}
	}
	return true
}
