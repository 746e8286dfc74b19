package canvas

import "fmt"

// SnapshotRestoreError reports a snapshot that could not be decoded back onto
// the surface. Restores are best effort: the caller treats this as a missed
// frame, not a fatal condition.
type SnapshotRestoreError struct {
	Err error
}

func (e *SnapshotRestoreError) Error() string {
	return fmt.Sprintf("failed to restore snapshot: %v", e.Err)
}

func (e *SnapshotRestoreError) Unwrap() error {
	return e.Err
}
