package persist

import (
	"context"
	"fmt"
	"sync"

	"SyncBoard/internal/ot"
	"SyncBoard/internal/state"
)

type memBoard struct {
	board Board
	log   [][]ot.Op
}

// Memory keeps boards for the lifetime of the process.
type Memory struct {
	mu     sync.RWMutex
	boards map[string]*memBoard
}

// NewMemory returns an empty store.
func NewMemory() *Memory {
	return &Memory{boards: make(map[string]*memBoard)}
}

func (m *Memory) Load(ctx context.Context, id string) (Board, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards[id]
	if !ok {
		return Board{}, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	out := b.board
	out.Doc = state.Document{Lines: state.CloneLines(b.board.Doc.Lines)}
	return out, nil
}

func (m *Memory) Append(ctx context.Context, id string, base int64, ops []ot.Op, doc state.Document) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.boards[id]
	if !ok {
		b = &memBoard{board: Board{ID: id}}
		m.boards[id] = b
	}
	if base != b.board.Version {
		return fmt.Errorf("%s at %d, append at %d: %w", id, b.board.Version, base, ErrVersionConflict)
	}
	b.log = append(b.log, append([]ot.Op(nil), ops...))
	b.board.Version = base + 1
	b.board.Doc = state.Document{Lines: state.CloneLines(doc.Lines)}
	return nil
}

func (m *Memory) OpsSince(ctx context.Context, id string, from int64) ([][]ot.Op, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	b, ok := m.boards[id]
	if !ok {
		return nil, fmt.Errorf("%s: %w", id, ErrNotFound)
	}
	if from < 0 || from > int64(len(b.log)) {
		return nil, fmt.Errorf("%s: no ops from version %d", id, from)
	}
	return append([][]ot.Op(nil), b.log[from:]...), nil
}

func (m *Memory) Close() error { return nil }
