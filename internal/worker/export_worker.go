// Package worker turns ledger events into spreadsheet rows.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"ecobank/internal/amqp"
	"ecobank/internal/cache"
	"ecobank/internal/metrics"
	"ecobank/internal/sheets"
)

const (
	dedupeSize = 10_000
	dedupeTTL  = 24 * time.Hour
)

// ExportWorker appends every recorded transaction to an exporter. Events
// already exported by this process are skipped by ID, so a redelivered
// message does not produce a second row. Events without an ID are always
// exported.
type ExportWorker struct {
	exporter sheets.EntryExporter
	exported *cache.LRUCache[string]
}

func NewExportWorker(exporter sheets.EntryExporter) *ExportWorker {
	return &ExportWorker{
		exporter: exporter,
		exported: cache.NewLRUCache[string](dedupeSize, dedupeTTL),
	}
}

// Cache exposes the dedupe cache so callers can register it for cleanup.
func (w *ExportWorker) Cache() cache.Cleaner { return w.exported }

// HandleEvent is an amqp.Handler.
func (w *ExportWorker) HandleEvent(ctx context.Context, event *amqp.LedgerEvent) error {
	entry, ok := event.Entry()
	if !ok {
		slog.InfoContext(ctx, "Ignoring ledger event without transaction",
			"kind", event.Kind,
			"username", event.Username)
		metrics.RecordExport("skipped")
		return nil
	}

	if event.ID != "" {
		if ref, seen := w.exported.Get(event.ID); seen {
			slog.InfoContext(ctx, "Event already exported, skipping",
				"event_id", event.ID,
				"username", entry.Username,
				"ref", ref)
			metrics.RecordExport("skipped")
			return nil
		}
	}

	ref, err := w.exporter.AppendEntry(ctx, entry)
	if err != nil {
		metrics.RecordExport("failed")
		return fmt.Errorf("export entry for %s: %w", entry.Username, err)
	}

	if event.ID != "" {
		w.exported.Set(event.ID, ref)
	}
	metrics.RecordExport("exported")
	slog.InfoContext(ctx, "Successfully exported ledger entry",
		"event_id", event.ID,
		"username", entry.Username,
		"type", entry.Kind,
		"ref", ref)
	return nil
}
