package sheets

import (
	"context"
	"fmt"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Values reads and writes cell ranges in A1 notation
type Values interface {
	// Get returns the rows of a range; trailing empty rows and cells are omitted
	Get(ctx context.Context, rng string) ([][]interface{}, error)
	// Update overwrites a range with the given rows
	Update(ctx context.Context, rng string, rows [][]interface{}) error
}

// GoogleValues implements Values against the Google Sheets API
type GoogleValues struct {
	service       *sheets.Service
	spreadsheetID string
}

// NewGoogleValues creates a Sheets client for one spreadsheet. Credentials
// come from opts, or Application Default Credentials when none are given.
func NewGoogleValues(ctx context.Context, spreadsheetID string, opts ...option.ClientOption) (*GoogleValues, error) {
	if spreadsheetID == "" {
		return nil, fmt.Errorf("spreadsheet id is required")
	}

	opts = append([]option.ClientOption{option.WithScopes(sheets.SpreadsheetsScope)}, opts...)
	service, err := sheets.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("creating sheets service: %w", err)
	}

	return &GoogleValues{
		service:       service,
		spreadsheetID: spreadsheetID,
	}, nil
}

// Get reads a range
func (g *GoogleValues) Get(ctx context.Context, rng string) ([][]interface{}, error) {
	resp, err := g.service.Spreadsheets.Values.Get(g.spreadsheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", rng, err)
	}
	return resp.Values, nil
}

// Update writes a range, letting Sheets parse values as if typed by a user
func (g *GoogleValues) Update(ctx context.Context, rng string, rows [][]interface{}) error {
	_, err := g.service.Spreadsheets.Values.Update(g.spreadsheetID, rng, &sheets.ValueRange{
		Values: rows,
	}).ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("writing %s: %w", rng, err)
	}
	return nil
}
