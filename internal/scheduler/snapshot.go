// Package scheduler runs periodic maintenance jobs on a cron schedule.
package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"

	"ecobank/internal/storage"
)

// SnapshotJob copies the persisted document into a directory of
// timestamped files and prunes the oldest ones.
type SnapshotJob struct {
	repo   storage.Repository
	dir    string
	retain int
	now    func() time.Time
}

func NewSnapshotJob(repo storage.Repository, dir string, retain int) *SnapshotJob {
	return &SnapshotJob{repo: repo, dir: dir, retain: retain, now: time.Now}
}

// Result describes one snapshot run.
type Result struct {
	Path    string
	Users   int
	Pruned  []string
	Elapsed time.Duration
}

// Run takes one snapshot. The document is reloaded from the repository each
// time so the copy reflects what other processes have saved.
func (j *SnapshotJob) Run(ctx context.Context) (Result, error) {
	start := j.now()

	doc, err := j.repo.Load(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("load document: %w", err)
	}
	path, err := storage.WriteSnapshot(ctx, j.dir, doc, start)
	if err != nil {
		return Result{}, fmt.Errorf("write snapshot: %w", err)
	}
	pruned, err := storage.PruneSnapshots(j.dir, j.retain)
	if err != nil {
		return Result{Path: path, Users: len(doc.Users)}, fmt.Errorf("prune snapshots: %w", err)
	}

	res := Result{
		Path:    path,
		Users:   len(doc.Users),
		Pruned:  pruned,
		Elapsed: j.now().Sub(start),
	}
	slog.InfoContext(ctx, "Snapshot written",
		"path", res.Path,
		"users", res.Users,
		"pruned", len(res.Pruned))
	return res, nil
}

// Start runs the job on schedule (standard five-field cron or a descriptor
// such as "@daily") until ctx is done. Failed runs are logged and retried
// at the next tick.
func (j *SnapshotJob) Start(ctx context.Context, schedule string) error {
	sched, err := cron.ParseStandard(schedule)
	if err != nil {
		return fmt.Errorf("parse schedule %q: %w", schedule, err)
	}

	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	c.Schedule(sched, cron.FuncJob(func() {
		if _, err := j.Run(ctx); err != nil {
			slog.ErrorContext(ctx, "Snapshot failed", "error", err)
		}
	}))
	c.Start()

	slog.InfoContext(ctx, "Snapshot schedule started",
		"schedule", schedule,
		"next_run", sched.Next(j.now()).Format(time.RFC3339))

	<-ctx.Done()
	<-c.Stop().Done()
	return nil
}
