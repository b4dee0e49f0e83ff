// Package store mirrors a board's shared line collection locally and bridges
// local edits to the transport.
package store

import (
	"errors"
	"fmt"
	"io"
	"log"

	"SyncBoard/internal/event"
	"SyncBoard/internal/ot"
	"SyncBoard/internal/state"
	"SyncBoard/internal/undo"
)

// ErrNotReady is returned for edits made while no document is loaded.
var ErrNotReady = errors.New("board is not loaded")

// ChangeKind says how the line collection changed.
type ChangeKind int

const (
	LineAdded ChangeKind = iota
	LineRemoved
	LineReplaced
	LineMoved
	LinesReplaced
	LinesCleared
)

func (k ChangeKind) String() string {
	switch k {
	case LineAdded:
		return "added"
	case LineRemoved:
		return "removed"
	case LineReplaced:
		return "replaced"
	case LineMoved:
		return "moved"
	case LinesReplaced:
		return "replaced-all"
	default:
		return "cleared"
	}
}

// Change describes one structural change so renderers can update incrementally.
// Only LinesReplaced and LinesCleared require a full redraw.
type Change struct {
	Kind     ChangeKind
	Index    int
	NewIndex int
	Line     state.Line
	OldLine  state.Line
	Lines    []state.Line
	Local    bool
}

// Store is the synced line collection of one board.
type Store struct {
	conn    Connection
	boardID string
	history *undo.Manager
	logger  *log.Logger

	doc      DocumentHandle
	removeOp func()
	lines    []state.Line

	// Loaded fires on every (re)load. Register through OnLoaded to also get
	// the current lines when the board is loaded already.
	Loaded event.Emitter[[]state.Line]
	// Changed fires for every structural change, local or remote.
	Changed event.Emitter[Change]
	// Errors fires as soon as the store detects a desync and starts resyncing.
	Errors event.Emitter[error]
}

// New creates a store for boardID. Call Load to subscribe.
func New(conn Connection, boardID string, history *undo.Manager, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Store{
		conn:    conn,
		boardID: boardID,
		history: history,
		logger:  logger,
	}
}

// Load subscribes to the board. Loaded fires once the snapshot is available.
func (s *Store) Load() {
	doc := s.conn.Get(Collection, s.boardID)

	doc.Subscribe(func(err error) {
		if err != nil {
			s.logger.Printf("subscribe to %s failed: %v", s.boardID, err)
			s.Errors.Emit(fmt.Errorf("subscribe %s: %w", s.boardID, err))
			return
		}

		snapshot, ok := doc.Snapshot()
		if !ok {
			s.logger.Printf("subscribed to %s without a snapshot", s.boardID)
			return
		}

		s.doc = doc
		s.lines = state.CloneLines(snapshot.Lines)
		s.removeOp = doc.OnOp(s.handleOp)
		s.logger.Printf("board %s loaded with %d lines", s.boardID, len(s.lines))
		s.Loaded.Emit(s.Lines())
	})
}

// OnLoaded registers fn for the initial snapshot and every reload after a resync.
// When the board is loaded already fn gets the current mirror right away.
func (s *Store) OnLoaded(fn func([]state.Line)) event.Handle {
	if s.doc != nil {
		fn(s.Lines())
	}
	return s.Loaded.On(fn)
}

// OnError registers fn for desync notifications.
func (s *Store) OnError(fn func(error)) event.Handle {
	return s.Errors.On(fn)
}

// OnChange registers fn for structural changes.
func (s *Store) OnChange(fn func(Change)) event.Handle {
	return s.Changed.On(fn)
}

// Ready reports whether a document is loaded and accepting edits.
func (s *Store) Ready() bool { return s.doc != nil }

// Lines returns a copy of the local mirror. It never blocks.
func (s *Store) Lines() []state.Line {
	return state.CloneLines(s.lines)
}

// AddLine appends line on top of the board and records it for undo.
func (s *Store) AddLine(line state.Line) error {
	if s.doc == nil {
		return ErrNotReady
	}
	if err := line.Validate(); err != nil {
		return err
	}
	line = line.Clone()

	s.submit([]ot.Op{ot.InsertOp(len(s.lines), line)})

	// Undo looks the line up by id: remote edits may have shifted it since.
	// Redo only puts back what undo took away.
	removedAt := -1
	s.history.Register(
		func() { removedAt = s.removeLine(line.ID) },
		func() {
			if removedAt >= 0 {
				s.insertLine(removedAt, line)
				removedAt = -1
			}
		},
	)
	return nil
}

// ClearAll removes every line; undo restores exactly the lines that were cleared.
func (s *Store) ClearAll() error {
	if s.doc == nil {
		return ErrNotReady
	}
	old := s.Lines()
	if len(old) == 0 {
		return nil
	}
	s.submit([]ot.Op{ot.ClearAllOp(old)})

	s.history.Register(
		func() {
			if s.doc != nil {
				s.submit([]ot.Op{ot.ReplaceAllOp(s.lines, old)})
			}
		},
		func() {
			if s.doc != nil {
				s.submit([]ot.Op{ot.ClearAllOp(s.lines)})
			}
		},
	)
	return nil
}

// removeLine deletes the line with the given id wherever it currently is and
// returns the index it was removed from, or -1 when it is gone already.
func (s *Store) removeLine(id string) int {
	if s.doc == nil {
		return -1
	}
	i := state.IndexOf(s.lines, id)
	if i < 0 {
		s.logger.Printf("undo: line %s no longer on board %s", id, s.boardID)
		return -1
	}
	s.submit([]ot.Op{ot.DeleteOp(i, s.lines[i])})
	return i
}

// insertLine puts line back at index i, or on top when i is past the end.
func (s *Store) insertLine(i int, line state.Line) {
	if s.doc == nil || state.IndexOf(s.lines, line.ID) >= 0 {
		return
	}
	if i > len(s.lines) {
		i = len(s.lines)
	}
	s.submit([]ot.Op{ot.InsertOp(i, line)})
}

func (s *Store) submit(ops []ot.Op) {
	doc := s.doc
	doc.SubmitOp(ops, func(err error) {
		// the handle was torn down while this was in flight
		if s.doc != doc {
			return
		}
		if err != nil {
			s.desync(fmt.Errorf("submit %v: %w", ops, err))
		}
	})
}

func (s *Store) handleOp(ops []ot.Op, local bool) {
	for _, op := range ops {
		if s.doc == nil {
			return
		}
		if op.Path.Key != state.LinesKey {
			continue
		}

		before := s.lines
		after, err := ot.Apply(before, []ot.Op{op})
		if err != nil {
			s.desync(fmt.Errorf("apply %s: %w", op, err))
			return
		}
		s.lines = after
		s.Changed.Emit(describe(op, before, after, local))
	}
}

func describe(op ot.Op, before, after []state.Line, local bool) Change {
	i := op.Path.Index
	switch op.Kind() {
	case ot.Insert:
		return Change{Kind: LineAdded, Index: i, Line: after[i].Clone(), Local: local}
	case ot.Delete:
		return Change{Kind: LineRemoved, Index: i, Line: before[i].Clone(), Local: local}
	case ot.Replace:
		return Change{Kind: LineReplaced, Index: i, Line: after[i].Clone(), OldLine: before[i].Clone(), Local: local}
	case ot.Move:
		return Change{Kind: LineMoved, Index: i, NewIndex: *op.MoveTo, Line: before[i].Clone(), Local: local}
	case ot.ReplaceAll:
		return Change{Kind: LinesReplaced, Lines: state.CloneLines(after), Local: local}
	default:
		return Change{Kind: LinesCleared, Local: local}
	}
}

// desync drops the current handle and resubscribes from scratch once nothing
// submitted on it is still in flight.
func (s *Store) desync(err error) {
	doc := s.doc
	if doc == nil {
		return
	}
	s.logger.Printf("board %s out of sync, resubscribing: %v", s.boardID, err)

	s.doc = nil
	s.lines = nil
	s.Errors.Emit(err)

	doc.Pause()
	if s.removeOp != nil {
		s.removeOp()
		s.removeOp = nil
	}
	doc.Unsubscribe()
	doc.Destroy()
	doc.WhenNothingPending(s.Load)
}

// Close releases the document handle.
func (s *Store) Close() {
	doc := s.doc
	if doc == nil {
		return
	}
	s.doc = nil
	if s.removeOp != nil {
		s.removeOp()
		s.removeOp = nil
	}
	doc.Unsubscribe()
	doc.Destroy()
}
