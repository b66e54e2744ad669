package services

import (
	"context"
	"log/slog"

	"ecobank/internal/amqp"
)

// EventPublisher receives ledger events after they are persisted.
// *amqp.Client satisfies it.
type EventPublisher interface {
	Publish(ctx context.Context, event *amqp.LedgerEvent) error
}

// publish never fails the caller: the document is already saved.
func publish(ctx context.Context, p EventPublisher, event *amqp.LedgerEvent) {
	if p == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event", "kind", event.Kind)
		return
	}
	if err := p.Publish(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"kind", event.Kind,
			"username", event.Username,
			"error", err)
	}
}
