package sheets

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/zombor/receipt-bot/internal/invoice"
)

// Layout describes where invoices live in the spreadsheet. Columns are
// A1 letters.
type Layout struct {
	Sheet    string
	StartRow int

	Description string
	Amount      string
	Date        string
	Category    string
	Payment     string
	Essential   string

	// The lookahead columns decide which rows are already used
	LookaheadFrom string
	LookaheadTo   string
}

// DefaultLayout is the layout of the household budget spreadsheet
func DefaultLayout() Layout {
	return Layout{
		Sheet:         "JANEIRO",
		StartRow:      22,
		Description:   "L",
		Amount:        "M",
		Date:          "N",
		Category:      "O",
		Payment:       "P",
		Essential:     "Q",
		LookaheadFrom: "M",
		LookaheadTo:   "O",
	}
}

func (l Layout) lookaheadRange() string {
	return fmt.Sprintf("%s!%s%d:%s", l.Sheet, l.LookaheadFrom, l.StartRow, l.LookaheadTo)
}

func (l Layout) cell(column string, row int) string {
	return fmt.Sprintf("%s!%s%d", l.Sheet, column, row)
}

// Ledger appends invoices to the spreadsheet
type Ledger struct {
	values Values
	layout Layout
}

// NewLedger creates a Ledger
func NewLedger(values Values, layout Layout) *Ledger {
	return &Ledger{
		values: values,
		layout: layout,
	}
}

// FindInsertionRow returns the row after the last row of the lookahead
// range holding any non-blank cell, or the start row when none does. Gaps
// before the last used row are not reused.
func (l *Ledger) FindInsertionRow(ctx context.Context) (int, error) {
	rows, err := l.values.Get(ctx, l.layout.lookaheadRange())
	if err != nil {
		return 0, fmt.Errorf("reading used rows: %w", err)
	}

	lastUsed := -1
	for i, row := range rows {
		if hasValue(row) {
			lastUsed = i
		}
	}

	return l.layout.StartRow + lastUsed + 1, nil
}

func hasValue(row []interface{}) bool {
	for _, cell := range row {
		if cell == nil {
			continue
		}
		if strings.TrimSpace(fmt.Sprint(cell)) != "" {
			return true
		}
	}
	return false
}

// WriteRow writes the six invoice fields into row, one cell per call.
// A failure part way leaves the earlier cells written; writing the same
// invoice again overwrites them with identical values.
func (l *Ledger) WriteRow(ctx context.Context, row int, inv *invoice.Invoice) error {
	cells := []struct {
		column string
		value  string
	}{
		{l.layout.Amount, invoice.Value(inv.Amount)},
		{l.layout.Date, invoice.Value(inv.Date)},
		{l.layout.Payment, inv.PaymentTag()},
		{l.layout.Category, inv.CategoryTag()},
		{l.layout.Description, invoice.Value(inv.Description)},
		{l.layout.Essential, invoice.Value(inv.Essential)},
	}

	for _, c := range cells {
		rng := l.layout.cell(c.column, row)
		if err := l.values.Update(ctx, rng, [][]interface{}{{c.value}}); err != nil {
			return fmt.Errorf("writing invoice to row %d: %w", row, err)
		}
	}
	return nil
}

// Record finds the insertion row and writes the invoice there
func (l *Ledger) Record(ctx context.Context, inv *invoice.Invoice) error {
	row, err := l.FindInsertionRow(ctx)
	if err != nil {
		return err
	}

	if err := l.WriteRow(ctx, row, inv); err != nil {
		return err
	}

	slog.Info("Invoice recorded", "sheet", l.layout.Sheet, "row", row)
	return nil
}
