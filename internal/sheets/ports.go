package sheets

import (
	"context"

	"brastech/internal/services"
)

// SnapshotWriter publishes a full backup to an outbound sink.
// Every call replaces what the sink held before.
type SnapshotWriter interface {
	WriteSnapshot(ctx context.Context, snap services.Snapshot) error
}
