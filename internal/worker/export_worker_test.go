package worker

import (
	"context"
	"errors"
	"testing"

	"ecobank/internal/amqp"
	"ecobank/internal/core"
	"ecobank/internal/sheets/memory"
)

type flakyExporter struct {
	failures int
	calls    int
	inner    *memory.Exporter
}

func (f *flakyExporter) AppendEntry(ctx context.Context, e core.Entry) (string, error) {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return "", errors.New("quota exceeded")
	}
	return f.inner.AppendEntry(ctx, e)
}

func recorded(t *testing.T, amount float64) *amqp.LedgerEvent {
	t.Helper()
	ts, err := core.ParseTimestamp("2025-08-09 10:00:00")
	if err != nil {
		t.Fatal(err)
	}
	return amqp.NewTransactionRecorded("alice", core.Transaction{
		Kind: core.Spent, Amount: amount, Description: "coffee", Timestamp: ts,
	})
}

func TestHandleEvent_ExportsTransaction(t *testing.T) {
	exp := memory.New()
	w := NewExportWorker(exp)

	if err := w.HandleEvent(context.Background(), recorded(t, 3.5)); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	rows := exp.Rows()
	if len(rows) != 1 || rows[0][1] != "alice" || rows[0][3] != 3.5 {
		t.Fatalf("unexpected rows %v", rows)
	}
}

func TestHandleEvent_SkipsRegistrations(t *testing.T) {
	exp := memory.New()
	w := NewExportWorker(exp)
	if err := w.HandleEvent(context.Background(), amqp.NewUserRegistered("bob")); err != nil {
		t.Fatalf("HandleEvent: %v", err)
	}
	if len(exp.Rows()) != 0 {
		t.Fatal("registration must not export a row")
	}
}

func TestHandleEvent_DedupesRedelivery(t *testing.T) {
	exp := memory.New()
	w := NewExportWorker(exp)
	ctx := context.Background()

	event := recorded(t, 2)
	for i := 0; i < 3; i++ {
		if err := w.HandleEvent(ctx, event); err != nil {
			t.Fatalf("delivery %d: %v", i, err)
		}
	}
	if err := w.HandleEvent(ctx, recorded(t, 4)); err != nil {
		t.Fatal(err)
	}
	if n := len(exp.Rows()); n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
}

func TestHandleEvent_IdenticalEntriesExportSeparately(t *testing.T) {
	tests := []struct {
		name   string
		events func(t *testing.T) []*amqp.LedgerEvent
		want   int
	}{
		{
			name: "two appends with the same content",
			events: func(t *testing.T) []*amqp.LedgerEvent {
				return []*amqp.LedgerEvent{recorded(t, 2), recorded(t, 2)}
			},
			want: 2,
		},
		{
			name: "same event redelivered after decoding",
			events: func(t *testing.T) []*amqp.LedgerEvent {
				e := recorded(t, 2)
				body, err := e.ToJSON()
				if err != nil {
					t.Fatal(err)
				}
				back, err := amqp.LedgerEventFromJSON(body)
				if err != nil {
					t.Fatal(err)
				}
				return []*amqp.LedgerEvent{e, back}
			},
			want: 1,
		},
		{
			name: "events without id are never deduped",
			events: func(t *testing.T) []*amqp.LedgerEvent {
				e := recorded(t, 2)
				e.ID = ""
				return []*amqp.LedgerEvent{e, e}
			},
			want: 2,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			exp := memory.New()
			w := NewExportWorker(exp)
			for i, e := range tt.events(t) {
				if err := w.HandleEvent(context.Background(), e); err != nil {
					t.Fatalf("event %d: %v", i, err)
				}
			}
			if n := len(exp.Rows()); n != tt.want {
				t.Fatalf("expected %d rows, got %d", tt.want, n)
			}
		})
	}
}

func TestHandleEvent_FailureIsRetryable(t *testing.T) {
	exp := &flakyExporter{failures: 1, inner: memory.New()}
	w := NewExportWorker(exp)
	ctx := context.Background()

	event := recorded(t, 1)
	if err := w.HandleEvent(ctx, event); err == nil {
		t.Fatal("expected error from failing exporter")
	}
	// The failed event was not marked as exported, so the retry goes through.
	if err := w.HandleEvent(ctx, event); err != nil {
		t.Fatalf("retry: %v", err)
	}
	if exp.calls != 2 || len(exp.inner.Rows()) != 1 {
		t.Fatalf("calls=%d rows=%d", exp.calls, len(exp.inner.Rows()))
	}
	if w.Cache() == nil {
		t.Fatal("expected dedupe cache")
	}
}
