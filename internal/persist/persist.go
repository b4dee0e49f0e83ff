// Package persist stores board snapshots and their op logs for the host.
package persist

import (
	"context"
	"errors"

	"SyncBoard/internal/ot"
	"SyncBoard/internal/state"
)

// ErrNotFound is returned by Load for a board that was never written.
var ErrNotFound = errors.New("board not found")

// ErrVersionConflict means an op was already stored for that version.
var ErrVersionConflict = errors.New("board version already written")

// Board is a stored snapshot. Version counts the ops applied to reach Doc.
type Board struct {
	ID      string
	Version int64
	Doc     state.Document
}

// Store is the host's durable board state.
type Store interface {
	Load(ctx context.Context, id string) (Board, error)
	// Append records ops applied on top of version base and the resulting
	// snapshot, which becomes version base+1.
	Append(ctx context.Context, id string, base int64, ops []ot.Op, doc state.Document) error
	// OpsSince returns the op batches applied at versions from, from+1, ...
	OpsSince(ctx context.Context, id string, from int64) ([][]ot.Op, error)
	Close() error
}
