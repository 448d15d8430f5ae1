package memory

import (
	"context"
	"sync"

	"brastech/internal/services"
	"brastech/internal/sheets"
)

// Writer keeps the last snapshot in memory. It stands in for Google Sheets
// when no spreadsheet is configured.
type Writer struct {
	mu     sync.Mutex
	last   services.Snapshot
	writes int
}

var _ sheets.SnapshotWriter = (*Writer)(nil)

func New() *Writer {
	return &Writer{}
}

func (w *Writer) WriteSnapshot(ctx context.Context, snap services.Snapshot) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.last = snap
	w.writes++
	return nil
}

// Last returns the most recent snapshot and how many were written.
func (w *Writer) Last() (services.Snapshot, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.last, w.writes
}
