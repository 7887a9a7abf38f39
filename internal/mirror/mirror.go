// Package mirror pushes journal snapshots to an off-machine copy so run
// history survives the loss of the local data directory.
package mirror

import "context"

// Mirror stores named snapshot files remotely.
type Mirror interface {
	// Push uploads the file at localPath under the given name, replacing any
	// previous snapshot with that name.
	Push(ctx context.Context, localPath, name string) error

	// Fetch downloads the named snapshot to destPath.
	Fetch(ctx context.Context, name, destPath string) error

	// Name identifies the backend for logs.
	Name() string
}
