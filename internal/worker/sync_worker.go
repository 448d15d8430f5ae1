package worker

import (
	"context"
	"fmt"
	"sync"
	"time"

	"brastech/internal/amqp"
	"brastech/internal/log"
	"brastech/internal/services"
	"brastech/internal/sheets"
)

// Snapshotter produces a full backup of the store.
type Snapshotter interface {
	Snapshot(ctx context.Context) (services.Snapshot, error)
}

// SyncWorker mirrors the store into a SnapshotWriter whenever a
// transaction changes. Each sync rewrites everything, so an event older
// than the last completed snapshot is already covered and is skipped.
type SyncWorker struct {
	exporter Snapshotter
	writer   sheets.SnapshotWriter
	logger   *log.Logger
	now      func() time.Time

	mu       sync.Mutex
	syncedAt time.Time
}

func NewSyncWorker(exporter Snapshotter, writer sheets.SnapshotWriter, logger *log.Logger) *SyncWorker {
	if logger == nil {
		logger = log.Default(log.ComponentSheets)
	}
	return &SyncWorker{
		exporter: exporter,
		writer:   writer,
		logger:   logger.WithComponent(log.ComponentSheets),
		now:      time.Now,
	}
}

// HandleEvent processes a single change event from AMQP.
func (w *SyncWorker) HandleEvent(ctx context.Context, ev *amqp.TransactionEvent) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.syncedAt.IsZero() && ev.Timestamp.Before(w.syncedAt) {
		w.logger.DebugContext(ctx, "Event already covered by last snapshot",
			log.FieldTxID, ev.ID,
			"kind", ev.Kind,
			"synced_at", w.syncedAt.Format(time.RFC3339Nano))
		return nil
	}

	w.logger.InfoContext(ctx, "Processing change event", log.FieldTxID, ev.ID, "kind", ev.Kind)
	return w.syncLocked(ctx)
}

// StartupSync pushes a full snapshot before consuming events. It recovers
// changes made while the worker was down.
func (w *SyncWorker) StartupSync(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.logger.InfoContext(ctx, "Running startup sync")
	return w.syncLocked(ctx)
}

func (w *SyncWorker) syncLocked(ctx context.Context) error {
	started := w.now()
	snap, err := w.exporter.Snapshot(ctx)
	if err != nil {
		return fmt.Errorf("export snapshot: %w", err)
	}
	if err := w.writer.WriteSnapshot(ctx, snap); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	w.syncedAt = started
	w.logger.InfoContext(ctx, "Snapshot synced",
		"transactions", len(snap.Transactions),
		"duration_ms", w.now().Sub(started).Milliseconds())
	return nil
}

// LastSync returns when the last successful snapshot was started.
func (w *SyncWorker) LastSync() time.Time {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.syncedAt
}
