package memory

import (
	"context"
	"errors"
	"testing"

	"ecobank/internal/core"
)

func TestExporterAppendAndRows(t *testing.T) {
	ts, _ := core.ParseTimestamp("2025-02-03 04:05:06")
	x := New()

	ref, err := x.AppendEntry(context.Background(), core.Entry{
		Username:    "alice",
		Transaction: core.Transaction{Kind: core.Received, Amount: 20, Description: "gift", Timestamp: ts},
	})
	if err != nil || ref != "mem:1" {
		t.Fatalf("unexpected append: ref=%q err=%v", ref, err)
	}

	rows := x.Rows()
	if len(rows) != 1 {
		t.Fatalf("expected one row, got %d", len(rows))
	}
	want := []any{"2025-02-03 04:05:06", "alice", "Received", 20.0, "gift"}
	for i := range want {
		if rows[0][i] != want[i] {
			t.Fatalf("column %d = %v, want %v", i, rows[0][i], want[i])
		}
	}

	rows[0][1] = "mallory"
	if x.Rows()[0][1] != "alice" {
		t.Fatal("Rows must return a copy")
	}
}

func TestExporterRejectsInvalidEntry(t *testing.T) {
	x := New()
	_, err := x.AppendEntry(context.Background(), core.Entry{
		Username:    "alice",
		Transaction: core.Transaction{Kind: core.Spent, Amount: 0},
	})
	if !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if len(x.Rows()) != 0 {
		t.Fatal("invalid entry must not be stored")
	}
}
