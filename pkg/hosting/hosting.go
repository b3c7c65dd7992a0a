// Package hosting mirrors a published repository snapshot to a durable
// hosting target. Pushes are additive: files are created or overwritten
// under the snapshot's namespace, and objects outside the pushed set are
// never deleted, so package versions from earlier releases keep coexisting.
package hosting

import (
	"context"
	"errors"
	"fmt"
	"os"
)

// ErrSnapshotMissing indicates the local public directory does not exist,
// meaning no successful publish has produced a snapshot to sync.
var ErrSnapshotMissing = errors.New("local snapshot directory not found")

// Target is a destination for a snapshot's public directory tree.
type Target interface {
	// Name identifies the target in output, e.g. "gs://bucket".
	Name() string
	// Push mirrors localDir into the target, overwriting existing files
	// and never deleting anything it did not write.
	Push(ctx context.Context, localDir string) error
}

// Sync mirrors localDir to the target. A missing localDir is a fatal
// precondition failure; transfer errors are surfaced verbatim.
func Sync(ctx context.Context, localDir string, target Target) error {
	info, err := os.Stat(localDir)
	if err != nil {
		return fmt.Errorf("%w: %s", ErrSnapshotMissing, localDir)
	}
	if !info.IsDir() {
		return fmt.Errorf("%w: %s is not a directory", ErrSnapshotMissing, localDir)
	}

	if err := target.Push(ctx, localDir); err != nil {
		return fmt.Errorf("syncing %s to %s: %w", localDir, target.Name(), err)
	}
	return nil
}
