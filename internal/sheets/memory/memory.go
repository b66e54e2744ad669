package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"ecobank/internal/core"
	"ecobank/internal/sheets"
)

var _ sheets.EntryExporter = (*Exporter)(nil)

// Exporter keeps exported rows in memory. It backs the worker when no
// spreadsheet is configured.
type Exporter struct {
	mu   sync.Mutex
	rows [][]any
}

func New() *Exporter {
	return &Exporter{}
}

// AppendEntry stores the row and returns a synthetic row reference.
func (x *Exporter) AppendEntry(ctx context.Context, e core.Entry) (string, error) {
	if err := e.Transaction.Validate(); err != nil {
		return "", err
	}
	x.mu.Lock()
	x.rows = append(x.rows, sheets.Row(e))
	ref := fmt.Sprintf("mem:%d", len(x.rows))
	x.mu.Unlock()

	slog.InfoContext(ctx, "Ledger entry exported to memory",
		"ref", ref,
		"username", e.Username,
		"type", e.Kind,
		"amount", e.Amount)
	return ref, nil
}

// Rows returns a copy of every exported row.
func (x *Exporter) Rows() [][]any {
	x.mu.Lock()
	defer x.mu.Unlock()
	out := make([][]any, len(x.rows))
	for i, r := range x.rows {
		out[i] = append([]any(nil), r...)
	}
	return out
}
