// Package services holds the account and ledger operations over one
// shared, persisted document.
package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ecobank/internal/core"
	"ecobank/internal/metrics"
	"ecobank/internal/storage"
)

// Book owns the in-memory document of one process and is its only writer.
// Mutations run on a copy that replaces the live document only after the
// repository accepted it, so a failed save leaves nothing half applied.
type Book struct {
	mu   sync.RWMutex
	doc  *core.Document
	repo storage.Repository
}

// OpenBook loads the document from repo. Any load error is a storage error
// and callers should treat it as fatal.
func OpenBook(ctx context.Context, repo storage.Repository) (*Book, error) {
	doc, err := repo.Load(ctx)
	if err != nil {
		return nil, err
	}
	doc.Normalize()

	slog.InfoContext(ctx, "Ledger book opened", "users", len(doc.Users))
	return &Book{doc: doc, repo: repo}, nil
}

// Snapshot returns a deep copy of the current document.
func (b *Book) Snapshot() *core.Document {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.doc.Clone()
}

// read runs fn against the live document under the read lock. fn must not
// retain or modify anything it is given.
func (b *Book) read(fn func(doc *core.Document) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fn(b.doc)
}

// update applies fn to a copy of the document, saves the copy and makes it
// live. If fn or the save fails the live document is untouched.
func (b *Book) update(ctx context.Context, fn func(doc *core.Document) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	next := b.doc.Clone()
	if err := fn(next); err != nil {
		return err
	}

	start := time.Now()
	err := b.repo.Save(ctx, next)
	metrics.ObserveSave(time.Since(start), err)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to persist document", "error", err)
		return fmt.Errorf("persist document: %w", err)
	}

	b.doc = next
	return nil
}

// Flush saves the live document as is.
func (b *Book) Flush(ctx context.Context) error {
	return b.update(ctx, func(*core.Document) error { return nil })
}

func (b *Book) Close() error {
	return b.repo.Close()
}
