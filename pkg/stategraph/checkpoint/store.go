// Package checkpoint persists conversation threads so runs can span
// process restarts, be resumed after cancellation, and continue across
// invocations.
package checkpoint

import (
	"context"
	"errors"
	"time"
)

// Store persists one checkpoint per thread, latest-wins.
// Implementations must be safe for concurrent use.
type Store interface {
	// Save stores the checkpoint for a thread, overwriting any previous
	// one.
	Save(ctx context.Context, threadID string, data []byte) error

	// Load retrieves the latest checkpoint for a thread.
	// Returns ErrNotFound if the thread has never been saved.
	Load(ctx context.Context, threadID string) ([]byte, error)

	// List returns metadata for every stored thread, most recently
	// updated first. Returns an empty slice (not an error) when the
	// store is empty.
	List(ctx context.Context) ([]Info, error)

	// Delete removes a thread's checkpoint.
	// Returns nil if the thread doesn't exist.
	Delete(ctx context.Context, threadID string) error

	// Close releases any resources (connections, files).
	Close() error
}

// Info provides thread metadata without loading full state.
type Info struct {
	ThreadID  string
	Sequence  int64
	UpdatedAt time.Time
	Size      int64
}

// Sentinel errors for checkpoint operations.
var (
	// ErrNotFound indicates a thread has no stored checkpoint.
	ErrNotFound = errors.New("checkpoint not found")

	// ErrStoreClosed indicates the store has been closed.
	ErrStoreClosed = errors.New("checkpoint store closed")

	// ErrEmptyThreadID indicates a store operation with an empty thread
	// key.
	ErrEmptyThreadID = errors.New("thread ID cannot be empty")

	// ErrUnsupportedVersion indicates a checkpoint written by a newer
	// format version.
	ErrUnsupportedVersion = errors.New("unsupported checkpoint version")
)
