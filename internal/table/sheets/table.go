// Package sheets implements the record table on top of a Google Sheets range.
package sheets

import (
	"context"
	"fmt"
	"strings"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Config identifies the spreadsheet range.
type Config struct {
	SpreadsheetID   string
	Range           string
	CredentialsFile string
	// HeaderRows leading rows are excluded from ReadAll.
	HeaderRows int
}

// Table reads and appends rows through the Sheets v4 values API.
type Table struct {
	values     *sheets.SpreadsheetsValuesService
	id         string
	rng        string
	headerRows int
}

// New connects to the Sheets API. Extra options are appended after the
// credentials, so tests can point the client at a fake endpoint.
func New(ctx context.Context, cfg Config, opts ...option.ClientOption) (*Table, error) {
	if strings.TrimSpace(cfg.SpreadsheetID) == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}
	if strings.TrimSpace(cfg.Range) == "" {
		return nil, fmt.Errorf("range is required")
	}
	if cfg.HeaderRows < 0 {
		return nil, fmt.Errorf("header rows must be >= 0")
	}
	clientOpts := []option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}
	if cfg.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	clientOpts = append(clientOpts, opts...)

	svc, err := sheets.NewService(ctx, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Table{
		values:     svc.Spreadsheets.Values,
		id:         cfg.SpreadsheetID,
		rng:        cfg.Range,
		headerRows: cfg.HeaderRows,
	}, nil
}

// ReadAll returns every data row of the range as strings.
func (t *Table) ReadAll(ctx context.Context) ([][]string, error) {
	resp, err := t.values.Get(t.id, t.rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", t.rng, err)
	}
	if len(resp.Values) <= t.headerRows {
		return nil, nil
	}
	rows := make([][]string, 0, len(resp.Values)-t.headerRows)
	for _, raw := range resp.Values[t.headerRows:] {
		row := make([]string, len(raw))
		for i, cell := range raw {
			row[i] = fmt.Sprint(cell)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// Append adds row after the last row of the range. Values are stored raw so
// dates and URLs are not reinterpreted by the sheet.
func (t *Table) Append(ctx context.Context, row []string) error {
	cells := make([]interface{}, len(row))
	for i, v := range row {
		cells[i] = v
	}
	_, err := t.values.Append(t.id, t.rng, &sheets.ValueRange{Values: [][]interface{}{cells}}).
		ValueInputOption("RAW").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("append to %s: %w", t.rng, err)
	}
	return nil
}
