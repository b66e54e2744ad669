// Package storage persists the ledger document.
//
// Every repository loads and saves the whole document. A repository with no
// persisted state yet returns the bootstrap document from Load.
package storage

import (
	"context"
	"fmt"

	"ecobank/internal/core"
)

// Repository is the persistence port used by the services layer.
type Repository interface {
	// Load returns the persisted document, or the bootstrap document when
	// nothing has been persisted yet.
	Load(ctx context.Context) (*core.Document, error)

	// Save overwrites the persisted document with doc.
	Save(ctx context.Context, doc *core.Document) error

	Close() error
}

// Error reports a storage failure. Callers treat it as fatal at startup.
type Error struct {
	Op       string // "load" or "save"
	Location string
	Err      error
}

func (e *Error) Error() string {
	return fmt.Sprintf("storage %s %s: %v", e.Op, e.Location, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// validate rejects documents whose shape would break the services layer.
// Unknown transaction kinds are tolerated so older files still load; they
// simply contribute nothing to any total.
func validate(doc *core.Document) error {
	for name, u := range doc.Users {
		if name == "" {
			return fmt.Errorf("empty username key")
		}
		if u == nil {
			return fmt.Errorf("user %q is null", name)
		}
		if !u.Role.Valid() {
			return fmt.Errorf("user %q has invalid role %q", name, u.Role)
		}
	}
	return nil
}
