package ports

import (
	"context"
	"iter"
)

// WatchEvent describes a change to a watched file.
type WatchEvent struct {
	// Path is the file that changed.
	Path string
}

// Watcher observes the specification inputs (config file, manifest) for changes.
//
//go:generate mockgen -source=watcher.go -destination=mocks/mock_watcher.go -package=mocks
type Watcher interface {
	// Start begins watching the given files.
	Start(ctx context.Context, paths []string) error

	// Stop stops the watcher and releases all resources.
	Stop() error

	// Events returns an iterator of debounce-worthy file change events.
	// The iterator terminates when the watcher is stopped or the context is
	// canceled.
	Events() iter.Seq[WatchEvent]
}
