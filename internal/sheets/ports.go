// Package sheets defines the outbound ports used to mirror ledger entries
// into an external spreadsheet.
package sheets

import (
	"context"

	"ecobank/internal/core"
)

// Ports for outbound adapters.
type (
	// EntryExporter appends one ledger entry as a row and returns a
	// reference to where it landed.
	EntryExporter interface {
		AppendEntry(ctx context.Context, e core.Entry) (rowRef string, err error)
	}
)

// Header is the column layout of an exported ledger sheet.
var Header = []string{"Timestamp", "Username", "Type", "Amount", "Description"}

// Row renders e in Header order.
func Row(e core.Entry) []any {
	return []any{e.Timestamp.String(), e.Username, string(e.Kind), e.Amount, e.Description}
}
