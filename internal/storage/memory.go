package storage

import (
	"context"
	"sync"

	"ecobank/internal/core"
)

// MemoryRepository keeps the encoded document in memory. Saves go through
// the same encoder as the file repository so tests see the real format.
type MemoryRepository struct {
	mu    sync.Mutex
	data  []byte
	saves int
}

func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{}
}

func (r *MemoryRepository) Load(_ context.Context) (*core.Document, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.data == nil {
		return core.NewDocument(), nil
	}
	doc, err := DecodeDocument(r.data)
	if err != nil {
		return nil, &Error{Op: "load", Location: "memory", Err: err}
	}
	return doc, nil
}

func (r *MemoryRepository) Save(_ context.Context, doc *core.Document) error {
	data, err := EncodeDocument(doc)
	if err != nil {
		return &Error{Op: "save", Location: "memory", Err: err}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.data = data
	r.saves++
	return nil
}

// Saves returns how many times Save succeeded.
func (r *MemoryRepository) Saves() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.saves
}

func (r *MemoryRepository) Close() error { return nil }
