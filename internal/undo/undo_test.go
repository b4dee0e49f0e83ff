package undo

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	undo []bool
	redo []bool
}

func watch(m *Manager) *recorder {
	r := &recorder{}
	m.CanUndoChanged.On(func(v bool) { r.undo = append(r.undo, v) })
	m.CanRedoChanged.On(func(v bool) { r.redo = append(r.redo, v) })
	return r
}

func TestUndoRedoRunsPairedClosures(t *testing.T) {
	m := New()
	var log []string
	m.Register(func() { log = append(log, "undo a") }, func() { log = append(log, "redo a") })
	m.Register(func() { log = append(log, "undo b") }, func() { log = append(log, "redo b") })

	m.Undo()
	m.Undo()
	m.Undo()
	m.Redo()

	assert.Equal(t, []string{"undo b", "undo a", "redo a"}, log)
	assert.True(t, m.CanUndo())
	assert.True(t, m.CanRedo())
}

func TestRegisterClearsRedo(t *testing.T) {
	m := New()
	redone := false
	m.Register(func() {}, func() { redone = true })
	m.Undo()
	require.True(t, m.CanRedo())

	m.Register(func() {}, func() {})
	assert.False(t, m.CanRedo())

	m.Redo()
	assert.False(t, redone)
}

func TestNotificationsOnlyOnTransitions(t *testing.T) {
	m := New()
	r := watch(m)

	m.Register(func() {}, func() {})
	m.Register(func() {}, func() {})
	assert.Equal(t, []bool{true}, r.undo)
	assert.Empty(t, r.redo)

	m.Undo()
	assert.Equal(t, []bool{true}, r.undo)
	assert.Equal(t, []bool{true}, r.redo)

	m.Undo()
	assert.Equal(t, []bool{true, false}, r.undo)
	assert.Equal(t, []bool{true}, r.redo)

	m.Undo()
	assert.Equal(t, []bool{true, false}, r.undo)

	m.Redo()
	m.Redo()
	assert.Equal(t, []bool{true, false, true}, r.undo)
	assert.Equal(t, []bool{true, false}, r.redo)
}

func TestRegisterAfterUndoNotifiesRedoEmptied(t *testing.T) {
	m := New()
	m.Register(func() {}, func() {})
	m.Undo()
	r := watch(m)

	m.Register(func() {}, func() {})
	assert.Equal(t, []bool{true}, r.undo)
	assert.Equal(t, []bool{false}, r.redo)
}
