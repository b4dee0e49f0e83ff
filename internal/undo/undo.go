// Package undo keeps the paired undo/redo history of a drawing session.
package undo

import "SyncBoard/internal/event"

type entry struct {
	undo func()
	redo func()
}

// Manager is a two-stack undo history. The closures it stores are the exact
// inverse of the edit that was committed, not a recomputation from current state.
type Manager struct {
	undoStack []entry
	redoStack []entry

	// CanUndoChanged fires only when the undo stack flips between empty and non-empty.
	CanUndoChanged event.Emitter[bool]
	// CanRedoChanged fires only when the redo stack flips between empty and non-empty.
	CanRedoChanged event.Emitter[bool]
}

// New returns an empty history.
func New() *Manager {
	return &Manager{}
}

// CanUndo reports whether Undo would do anything.
func (m *Manager) CanUndo() bool { return len(m.undoStack) > 0 }

// CanRedo reports whether Redo would do anything.
func (m *Manager) CanRedo() bool { return len(m.redoStack) > 0 }

// Register records a freshly committed edit and forgets everything that could be redone.
func (m *Manager) Register(undoFn, redoFn func()) {
	couldUndo, couldRedo := m.CanUndo(), m.CanRedo()

	m.undoStack = append(m.undoStack, entry{undo: undoFn, redo: redoFn})
	m.redoStack = nil

	m.notify(couldUndo, couldRedo)
}

// Undo reverts the most recent edit.
func (m *Manager) Undo() {
	if !m.CanUndo() {
		return
	}
	couldUndo, couldRedo := m.CanUndo(), m.CanRedo()

	e := m.undoStack[len(m.undoStack)-1]
	m.undoStack = m.undoStack[:len(m.undoStack)-1]
	e.undo()
	m.redoStack = append(m.redoStack, e)

	m.notify(couldUndo, couldRedo)
}

// Redo re-applies the most recently undone edit.
func (m *Manager) Redo() {
	if !m.CanRedo() {
		return
	}
	couldUndo, couldRedo := m.CanUndo(), m.CanRedo()

	e := m.redoStack[len(m.redoStack)-1]
	m.redoStack = m.redoStack[:len(m.redoStack)-1]
	e.redo()
	m.undoStack = append(m.undoStack, e)

	m.notify(couldUndo, couldRedo)
}

func (m *Manager) notify(couldUndo, couldRedo bool) {
	if m.CanUndo() != couldUndo {
		m.CanUndoChanged.Emit(m.CanUndo())
	}
	if m.CanRedo() != couldRedo {
		m.CanRedoChanged.Emit(m.CanRedo())
	}
}
