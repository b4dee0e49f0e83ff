package net

import (
	"fmt"

	"SyncBoard/internal/event"
	"SyncBoard/internal/ot"
	"SyncBoard/internal/state"
)

// batch is a group of op components submitted together, with the callbacks
// of every SubmitOp folded into it.
type batch struct {
	ops []ot.Op
	cbs []func(error)
	seq uint64
}

type opEvent struct {
	ops   []ot.Op
	local bool
}

// Doc is a subscription to one board. Local ops are applied immediately and
// sent one batch at a time; ops from the host are transformed against whatever
// is still unacknowledged before they are applied.
type Doc struct {
	conn       *Connection
	collection string
	id         string

	wantSub    bool
	subscribed bool
	paused     bool
	destroyed  bool
	// resyncing is set between losing the host and the next snapshot.
	resyncing  bool
	// diverged means local ops were applied that the host may never have seen.
	diverged   bool
	subCBs     []func(error)

	version  int64
	lines    []state.Line
	inflight *batch
	pending  []*batch
	idle     []func()

	ops event.Emitter[opEvent]
}

func newDoc(c *Connection, collection, id string) *Doc {
	return &Doc{conn: c, collection: collection, id: id}
}

// Version is the host version the local copy is based on.
func (d *Doc) Version() int64 { return d.version }

func (d *Doc) Subscribe(cb func(error)) {
	if d.destroyed {
		d.fail(cb, ErrDestroyed)
		return
	}
	if d.subscribed {
		if cb != nil {
			d.conn.dispatch.Post(func() { cb(nil) })
		}
		return
	}
	if cb != nil {
		d.subCBs = append(d.subCBs, cb)
	}
	if !d.wantSub {
		d.wantSub = true
		if d.conn.connected {
			d.sendSubscribe()
		}
	}
}

func (d *Doc) Snapshot() (state.Document, bool) {
	if !d.subscribed {
		return state.Document{}, false
	}
	return state.Document{Lines: state.CloneLines(d.lines)}, true
}

func (d *Doc) SubmitOp(ops []ot.Op, cb func(error)) {
	switch {
	case d.destroyed:
		d.fail(cb, ErrDestroyed)
		return
	case !d.subscribed:
		d.fail(cb, ErrNotSubscribed)
		return
	}

	next, err := ot.Apply(d.lines, ops)
	if err != nil {
		d.fail(cb, err)
		return
	}
	d.lines = next

	ops = append([]ot.Op(nil), ops...)
	if n := len(d.pending); n > 0 {
		last := d.pending[n-1]
		last.ops = append(last.ops, ops...)
		last.cbs = append(last.cbs, cb)
	} else {
		d.pending = append(d.pending, &batch{ops: ops, cbs: []func(error){cb}})
	}

	d.emit(ops, true)
	d.flush()
}

func (d *Doc) OnOp(fn func(ops []ot.Op, local bool)) func() {
	h := d.ops.On(func(e opEvent) { fn(e.ops, e.local) })
	return h.Remove
}

func (d *Doc) Pause() { d.paused = true }

// Resume restarts sending after Pause.
func (d *Doc) Resume() {
	d.paused = false
	d.flush()
}

func (d *Doc) Unsubscribe() {
	if !d.wantSub {
		return
	}
	d.wantSub = false
	d.subscribed = false
	if d.conn.connected {
		d.conn.send(Message{Type: MsgUnsubscribe, Collection: d.collection, Board: d.id})
	}
}

// Destroy detaches the document from its connection. Batches that were never
// sent fail with ErrDestroyed; one already in flight still settles.
func (d *Doc) Destroy() {
	if d.destroyed {
		return
	}
	d.destroyed = true
	d.conn.forget(d)

	unsent := d.pending
	d.pending = nil
	for _, b := range unsent {
		b.settle(ErrDestroyed)
	}
	d.checkIdle()
}

func (d *Doc) WhenNothingPending(cb func()) {
	d.idle = append(d.idle, cb)
	d.checkIdle()
}

func (d *Doc) hasPending() bool {
	return d.inflight != nil || len(d.pending) > 0
}

func (d *Doc) checkIdle() {
	if d.hasPending() || len(d.idle) == 0 {
		return
	}
	idle := d.idle
	d.idle = nil
	for _, cb := range idle {
		d.conn.dispatch.Post(cb)
	}
}

func (d *Doc) fail(cb func(error), err error) {
	if cb != nil {
		d.conn.dispatch.Post(func() { cb(err) })
	}
}

func (d *Doc) emit(ops []ot.Op, local bool) {
	if d.destroyed || len(ops) == 0 {
		return
	}
	d.ops.Emit(opEvent{ops: ops, local: local})
}

func (d *Doc) sendSubscribe() {
	d.conn.send(Message{Type: MsgSubscribe, Collection: d.collection, Board: d.id})
}

func (d *Doc) flush() {
	if d.paused || d.destroyed || d.resyncing || !d.subscribed || d.inflight != nil || len(d.pending) == 0 || !d.conn.connected {
		return
	}
	b := d.pending[0]
	d.pending = d.pending[1:]
	b.seq = d.conn.nextSeq()
	d.inflight = b
	d.conn.inflight[b.seq] = d
	d.conn.send(Message{Type: MsgSubmit, Collection: d.collection, Board: d.id, Version: d.version, Seq: b.seq, Ops: b.ops})
}

func (d *Doc) onOpen() {
	if d.wantSub {
		d.sendSubscribe()
	}
}

// onClose fails everything unacknowledged: the host may or may not have
// applied it, so only a fresh snapshot can tell.
func (d *Doc) onClose() {
	failed := d.pending
	if d.inflight != nil {
		failed = append([]*batch{d.inflight}, failed...)
	}
	d.inflight, d.pending = nil, nil
	if len(failed) > 0 {
		d.diverged = true
	}
	if d.subscribed {
		d.resyncing = true
	}
	for _, b := range failed {
		b.settle(ErrDisconnected)
	}
	d.checkIdle()
}

func (d *Doc) onSnapshot(msg Message) {
	if !d.wantSub || d.destroyed {
		return
	}
	lines := []state.Line{}
	if msg.Snapshot != nil && msg.Snapshot.Lines != nil {
		lines = msg.Snapshot.Lines
	}

	if !d.subscribed {
		d.lines = lines
		d.version = msg.Version
		d.subscribed = true
		cbs := d.subCBs
		d.subCBs = nil
		for _, cb := range cbs {
			cb(nil)
		}
		d.flush()
		return
	}

	if !d.resyncing {
		return
	}
	// Resubscribed after losing the host: anything sent before was settled by
	// onClose, so unless nothing moved the host copy replaces ours.
	d.resyncing = false
	if msg.Version == d.version && !d.diverged {
		d.flush()
		return
	}
	old := d.lines
	d.lines = lines
	d.version = msg.Version
	d.diverged = false
	if len(lines) == 0 {
		d.emit([]ot.Op{ot.ClearAllOp(old)}, false)
	} else {
		d.emit([]ot.Op{ot.ReplaceAllOp(old, lines)}, false)
	}

	// queued while offline on top of a copy that no longer exists
	stale := d.pending
	d.pending = nil
	for _, b := range stale {
		b.settle(ErrDisconnected)
	}
	d.checkIdle()
}

func (d *Doc) onOp(msg Message) {
	if !d.subscribed || d.destroyed {
		return
	}
	switch {
	case msg.Version < d.version:
		return
	case msg.Version > d.version:
		d.conn.logger.Printf("board %s: op for version %d while at %d, resubscribing", d.id, msg.Version, d.version)
		if d.inflight != nil {
			delete(d.conn.inflight, d.inflight.seq)
		}
		d.onClose()
		d.sendSubscribe()
		return
	}

	ops := msg.Ops
	if d.inflight != nil {
		d.inflight.ops, ops = ot.TransformX(d.inflight.ops, ops, ot.Left)
	}
	for _, b := range d.pending {
		b.ops, ops = ot.TransformX(b.ops, ops, ot.Left)
	}

	next, err := ot.Apply(d.lines, ops)
	if err != nil {
		d.conn.logger.Printf("board %s: op at version %d does not apply: %v", d.id, msg.Version, err)
	} else {
		d.lines = next
	}
	d.version++
	d.emit(ops, false)
}

func (d *Doc) onAck(msg Message) {
	b := d.inflight
	if b == nil || b.seq != msg.Seq {
		d.conn.logger.Printf("board %s: unexpected ack %d", d.id, msg.Seq)
		return
	}
	d.inflight = nil
	d.version = msg.Version + 1
	b.settle(nil)
	d.flush()
	d.checkIdle()
}

// onReject fails the rejected batch and everything queued behind it, which
// was built on top of it.
func (d *Doc) onReject(msg Message) {
	b := d.inflight
	if b == nil || b.seq != msg.Seq {
		d.conn.logger.Printf("board %s: unexpected reject %d", d.id, msg.Seq)
		return
	}
	err := fmt.Errorf("%w: %s", ErrRejected, msg.Error)
	failed := append([]*batch{b}, d.pending...)
	d.inflight, d.pending = nil, nil
	d.diverged = true
	for _, f := range failed {
		f.settle(err)
	}
	d.checkIdle()
}

func (d *Doc) onError(msg Message) {
	cbs := d.subCBs
	d.subCBs = nil
	d.wantSub = false
	err := fmt.Errorf("subscribe %s: %s", d.id, msg.Error)
	for _, cb := range cbs {
		cb(err)
	}
}

func (b *batch) settle(err error) {
	for _, cb := range b.cbs {
		if cb != nil {
			cb(err)
		}
	}
}
