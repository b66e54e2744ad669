package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"ecobank/internal/core"
)

const (
	snapshotPrefix = "ecobank-"
	snapshotSuffix = ".json"
	snapshotLayout = "20060102T150405"
)

// WriteSnapshot writes doc to a timestamped file in dir and returns its path.
func WriteSnapshot(ctx context.Context, dir string, doc *core.Document, at time.Time) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", &Error{Op: "snapshot", Location: dir, Err: err}
	}
	path := filepath.Join(dir, snapshotPrefix+at.Format(snapshotLayout)+snapshotSuffix)
	if err := NewFileRepository(path).Save(ctx, doc); err != nil {
		return "", err
	}
	return path, nil
}

// ListSnapshots returns snapshot paths in dir, oldest first.
func ListSnapshots(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &Error{Op: "snapshot", Location: dir, Err: err}
	}

	var names []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, snapshotPrefix) || !strings.HasSuffix(name, snapshotSuffix) {
			continue
		}
		names = append(names, name)
	}
	// The layout sorts lexically in time order.
	sort.Strings(names)

	paths := make([]string, len(names))
	for i, n := range names {
		paths[i] = filepath.Join(dir, n)
	}
	return paths, nil
}

// PruneSnapshots deletes all but the newest keep snapshots and returns the
// removed paths. keep <= 0 disables pruning.
func PruneSnapshots(dir string, keep int) ([]string, error) {
	if keep <= 0 {
		return nil, nil
	}
	paths, err := ListSnapshots(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) <= keep {
		return nil, nil
	}

	stale := paths[:len(paths)-keep]
	for _, p := range stale {
		if err := os.Remove(p); err != nil {
			return nil, &Error{Op: "snapshot", Location: p, Err: fmt.Errorf("remove: %w", err)}
		}
	}
	return stale, nil
}
