package jobs

import (
	"context"
	"fmt"
)

// SnapshotPersister defines the interface for retrying snapshot persistence
type SnapshotPersister interface {
	PersistSnapshot(ctx context.Context) error
}

// SnapshotWorker retries index snapshot saves that failed during a rebuild,
// so artifact storage outages do not permanently lose the persisted index.
type SnapshotWorker struct {
	persister SnapshotPersister
}

// NewSnapshotWorker creates a new SnapshotWorker instance
func NewSnapshotWorker(persister SnapshotPersister) *SnapshotWorker {
	return &SnapshotWorker{persister: persister}
}

// ProcessJobs implements the JobProcessor interface
func (w *SnapshotWorker) ProcessJobs(ctx context.Context) error {
	if err := w.persister.PersistSnapshot(ctx); err != nil {
		return fmt.Errorf("snapshot persistence retry failed: %w", err)
	}
	return nil
}
