package inventory

import "context"

// SnapshotSource loads the immutable install-base snapshot a pipeline run
// consumes: all inventory records plus the account dimension.
type SnapshotSource interface {
	LoadSnapshot(ctx context.Context) (*Snapshot, error)
}
