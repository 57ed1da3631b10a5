package ports

import (
	"context"
	"iter"
)

// WatchOp represents the type of file system operation.
type WatchOp uint8

const (
	// OpCreate indicates a file or directory was created.
	OpCreate WatchOp = iota
	// OpWrite indicates a file was modified.
	OpWrite
	// OpRemove indicates a file or directory was removed.
	OpRemove
	// OpRename indicates a file or directory was renamed.
	OpRename
)

// WatchEvent represents a file system event from the watcher.
type WatchEvent struct {
	// Path is the absolute path of the file or directory that changed.
	Path string
	// Operation is the type of change that occurred.
	Operation WatchOp
}

// Watcher observes file system changes under watched directories. The gateway
// uses it to invalidate cached analyses when a loaded checkpoint changes on
// disk.
type Watcher interface {
	// Start begins delivering events. Add may be called before or after.
	Start(ctx context.Context) error

	// Add watches one directory (non-recursive).
	Add(dir string) error

	// Stop stops the watcher and releases all resources.
	Stop() error

	// Events returns an iterator of file system events.
	Events() iter.Seq[WatchEvent]
}
