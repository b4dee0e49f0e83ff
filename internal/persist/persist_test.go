package persist

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/ot"
	"SyncBoard/internal/state"
)

func testLine(id string) state.Line {
	return state.Line{
		ID:            id,
		StrokeColor:   "#112233",
		StrokeWidth:   3,
		CompositeMode: state.CompositeDraw,
		Points:        []state.Point{{X: 1, Y: 1}, {X: 2, Y: 2}},
		Smoothed:      true,
	}
}

func stores(t *testing.T) map[string]Store {
	t.Helper()
	db, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "boards", "boards.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return map[string]Store{"memory": NewMemory(), "sqlite": db}
}

func TestLoadMissingBoard(t *testing.T) {
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := s.Load(context.Background(), "nope")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestAppendAndLoad(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			first := []ot.Op{ot.InsertOp(0, testLine("A"))}
			doc := state.Document{Lines: []state.Line{testLine("A")}}
			require.NoError(t, s.Append(ctx, "b", 0, first, doc))

			second := []ot.Op{ot.InsertOp(1, testLine("B"))}
			doc.Lines = append(doc.Lines, testLine("B"))
			require.NoError(t, s.Append(ctx, "b", 1, second, doc))

			b, err := s.Load(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, int64(2), b.Version)
			assert.Equal(t, doc, b.Doc)

			log, err := s.OpsSince(ctx, "b", 1)
			require.NoError(t, err)
			require.Len(t, log, 1)
			assert.Equal(t, "B", log[0][0].Insert.ID)

			all, err := s.OpsSince(ctx, "b", 0)
			require.NoError(t, err)
			assert.Len(t, all, 2)
		})
	}
}

func TestAppendRejectsStaleVersion(t *testing.T) {
	ctx := context.Background()
	for name, s := range stores(t) {
		t.Run(name, func(t *testing.T) {
			doc := state.NewDocument()
			require.NoError(t, s.Append(ctx, "b", 0, nil, doc))
			err := s.Append(ctx, "b", 0, nil, doc)
			assert.ErrorIs(t, err, ErrVersionConflict)

			b, err := s.Load(ctx, "b")
			require.NoError(t, err)
			assert.Equal(t, int64(1), b.Version)
			assert.NotNil(t, b.Doc.Lines)
		})
	}
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "boards.db")

	db, err := OpenSQLite(ctx, path)
	require.NoError(t, err)
	doc := state.Document{Lines: []state.Line{testLine("A")}}
	require.NoError(t, db.Append(ctx, "b", 0, []ot.Op{ot.InsertOp(0, testLine("A"))}, doc))
	require.NoError(t, db.Close())

	db, err = OpenSQLite(ctx, path)
	require.NoError(t, err)
	defer db.Close()

	b, err := db.Load(ctx, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), b.Version)
	assert.Equal(t, doc, b.Doc)
}
