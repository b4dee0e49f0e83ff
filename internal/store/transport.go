package store

import (
	"SyncBoard/internal/ot"
	"SyncBoard/internal/state"
)

// Collection is the document collection boards live in.
const Collection = "boards"

// Connection hands out document handles. One handle per document per connection.
type Connection interface {
	Get(collection, id string) DocumentHandle
}

// DocumentHandle is a subscription to one shared document. Every callback is
// delivered on the session thread.
type DocumentHandle interface {
	// Subscribe fetches the snapshot and starts receiving ops; cb reports the outcome.
	Subscribe(cb func(error))
	// Snapshot returns the current local copy of the document once subscribed.
	Snapshot() (state.Document, bool)
	// SubmitOp applies ops locally right away, echoing them to OnOp handlers
	// with local set, then sends them. cb fires on acknowledgement or rejection.
	SubmitOp(ops []ot.Op, cb func(error))
	// OnOp registers a handler for applied ops and returns its remover.
	OnOp(fn func(ops []ot.Op, local bool)) (remove func())
	// Pause stops sending queued ops.
	Pause()
	Unsubscribe()
	Destroy()
	// WhenNothingPending calls cb once no submitted op is waiting for the host.
	WhenNothingPending(cb func())
}
