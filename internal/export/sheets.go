package export

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"payoff/internal/engine"
	"payoff/internal/log"
)

// SheetsConfig selects the spreadsheet and the service account used to reach it.
type SheetsConfig struct {
	SpreadsheetID      string
	SheetName          string // tab prefix, default "Payoff"
	ServiceAccountJSON string
	ServiceAccountFile string
}

// SheetsClient writes schedules to a Google spreadsheet, one tab per export.
type SheetsClient struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetPrefix   string
	logger        *log.Logger
}

var _ ScheduleWriter = (*SheetsClient)(nil)

// NewSheetsClient creates a Sheets client from service account credentials.
// GOOGLE_APPLICATION_CREDENTIALS is used when neither JSON nor file is set.
func NewSheetsClient(ctx context.Context, cfg SheetsConfig, logger *log.Logger) (*SheetsClient, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}
	if logger == nil {
		logger = log.Discard()
	}
	logger = logger.WithComponent(log.ComponentExport)

	creds, err := serviceAccountCredentials(cfg)
	if err != nil {
		return nil, err
	}
	svc, err := gsheet.NewService(ctx,
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	prefix := strings.TrimSpace(cfg.SheetName)
	if prefix == "" {
		prefix = "Payoff"
	}
	logger.InfoContext(ctx, "Google Sheets exporter ready", "spreadsheet_id", cfg.SpreadsheetID, "sheet_prefix", prefix)
	return &SheetsClient{svc: svc, spreadsheetID: cfg.SpreadsheetID, sheetPrefix: prefix, logger: logger}, nil
}

func serviceAccountCredentials(cfg SheetsConfig) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}
	switch {
	case inline != "":
		return []byte(inline), nil
	case file != "":
		b, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return b, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// WriteSchedule adds a new tab named "<prefix> <title>" and fills it with the
// summary block followed by the month-by-month schedule.
func (c *SheetsClient) WriteSchedule(ctx context.Context, title string, res *engine.Result) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	sheet := sheetTitle(c.sheetPrefix, title)

	add := &gsheet.BatchUpdateSpreadsheetRequest{Requests: []*gsheet.Request{{
		AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: sheet}},
	}}}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, add).Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("add sheet %q: %w", sheet, err)
	}

	values := toValues(sheetGrid(res))
	rng := fmt.Sprintf("'%s'!A1", sheet)
	vr := &gsheet.ValueRange{Values: values}
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("write %s: %w", rng, err)
	}

	ref := fmt.Sprintf("'%s'!A1:H%d", sheet, len(values))
	c.logger.InfoContext(ctx, "Schedule exported", log.FieldSheetsRef, ref, log.FieldMonths, res.Summary.Months)
	return ref, nil
}

// sheetGrid lays out the summary rows, a blank line, then the schedule.
func sheetGrid(res *engine.Result) [][]string {
	grid := [][]string{SummaryHeader}
	grid = append(grid, SummaryRows(res.Summary)...)
	grid = append(grid, []string{})
	grid = append(grid, ScheduleHeader)
	return append(grid, ScheduleRows(res)...)
}

func toValues(grid [][]string) [][]any {
	out := make([][]any, len(grid))
	for i, row := range grid {
		cells := make([]any, len(row))
		for j, v := range row {
			cells[j] = v
		}
		out[i] = cells
	}
	return out
}

// sheetTitle strips characters Sheets rejects in tab names.
func sheetTitle(prefix, title string) string {
	r := strings.NewReplacer("'", "", "[", "(", "]", ")", "*", "", "?", "", "/", "-", "\\", "-", ":", "-")
	name := strings.TrimSpace(r.Replace(prefix + " " + title))
	if len(name) > 100 {
		name = name[:100]
	}
	return name
}
