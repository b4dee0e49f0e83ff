package net

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SyncBoard/internal/loop"
	"SyncBoard/internal/ot"
	"SyncBoard/internal/persist"
	"SyncBoard/internal/state"
	"SyncBoard/internal/store"
	"SyncBoard/internal/undo"
)

type harness struct {
	storage *persist.Memory
	hub     *Hub
	addr    string
	loop    *loop.Loop
}

func newHarness(t *testing.T, storage *persist.Memory) *harness {
	t.Helper()
	if storage == nil {
		storage = persist.NewMemory()
	}
	hub := NewHub(storage, nil)
	srv := httptest.NewServer(hub.Handler())
	t.Cleanup(srv.Close)
	t.Cleanup(hub.Close)

	l := loop.New(time.Millisecond)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		_ = l.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return &harness{
		storage: storage,
		hub:     hub,
		addr:    strings.TrimPrefix(srv.URL, "http://"),
		loop:    l,
	}
}

// do runs fn on the loop and waits for it.
func (h *harness) do(fn func()) {
	done := make(chan struct{})
	h.loop.Post(func() {
		defer close(done)
		fn()
	})
	<-done
}

func (h *harness) client(t *testing.T) (*Connection, *store.Store) {
	t.Helper()
	conn := Connect(h.addr, h.loop, nil)
	t.Cleanup(conn.Close)
	s := store.New(conn, "b", undo.New(), nil)
	h.do(s.Load)
	require.Eventually(t, func() bool {
		var ready bool
		h.do(func() { ready = s.Ready() })
		return ready
	}, 5*time.Second, 10*time.Millisecond)
	return conn, s
}

func (h *harness) lines(s *store.Store) []string {
	var ids []string
	h.do(func() { ids = lineIDs(s.Lines()) })
	return ids
}

func (h *harness) dial(t *testing.T) *websocket.Conn {
	t.Helper()
	ws, _, err := websocket.DefaultDialer.Dial("ws://"+h.addr+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { ws.Close() })
	return ws
}

func seed(t *testing.T, storage *persist.Memory, lines ...state.Line) {
	t.Helper()
	ops := make([]ot.Op, len(lines))
	for i, l := range lines {
		ops[i] = ot.InsertOp(i, l)
	}
	require.NoError(t, storage.Append(context.Background(), "b", 0, ops, state.Document{Lines: lines}))
}

func readType(t *testing.T, ws *websocket.Conn, typ MessageType) Message {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		var msg Message
		require.NoError(t, ws.ReadJSON(&msg))
		if msg.Type == typ {
			return msg
		}
	}
}

func TestHubRelaysBetweenClients(t *testing.T) {
	h := newHarness(t, nil)
	_, s1 := h.client(t)
	_, s2 := h.client(t)
	assert.Equal(t, 2, h.hub.Peers())

	h.do(func() { assert.NoError(t, s1.AddLine(testLine("A"))) })
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual([]string{"A"}, h.lines(s2))
	}, 5*time.Second, 10*time.Millisecond)

	board, err := h.storage.Load(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), board.Version)
	assert.Equal(t, []string{"A"}, lineIDs(board.Doc.Lines))
}

func TestConcurrentInsertsConverge(t *testing.T) {
	storage := persist.NewMemory()
	seed(t, storage, testLine("A"), testLine("B"))
	h := newHarness(t, storage)
	_, s1 := h.client(t)
	conn2, s2 := h.client(t)

	h.do(func() {
		assert.NoError(t, s1.AddLine(testLine("C")))
		conn2.Get(store.Collection, "b").SubmitOp([]ot.Op{ot.InsertOp(1, testLine("D"))}, nil)
	})

	want := []string{"A", "D", "B", "C"}
	require.Eventually(t, func() bool {
		return assert.ObjectsAreEqual(want, h.lines(s1)) && assert.ObjectsAreEqual(want, h.lines(s2))
	}, 5*time.Second, 10*time.Millisecond)

	board, err := storage.Load(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, want, lineIDs(board.Doc.Lines))
	assert.Equal(t, int64(3), board.Version)
}

func TestHubSnapshotAndAck(t *testing.T) {
	h := newHarness(t, nil)
	ws := h.dial(t)

	require.NoError(t, ws.WriteJSON(Message{Type: MsgSubscribe, Collection: store.Collection, Board: "b"}))
	snap := readType(t, ws, MsgSnapshot)
	assert.Equal(t, int64(0), snap.Version)
	require.NotNil(t, snap.Snapshot)
	assert.Empty(t, snap.Snapshot.Lines)

	require.NoError(t, ws.WriteJSON(Message{Type: MsgSubmit, Collection: store.Collection, Board: "b", Version: 0, Seq: 7, Ops: []ot.Op{ot.InsertOp(0, testLine("A"))}}))
	ack := readType(t, ws, MsgAck)
	assert.Equal(t, uint64(7), ack.Seq)
	assert.Equal(t, int64(0), ack.Version)
}

func TestHubTransformsLateSubmit(t *testing.T) {
	storage := persist.NewMemory()
	seed(t, storage, testLine("A"), testLine("B"))
	h := newHarness(t, storage)
	ws := h.dial(t)

	require.NoError(t, ws.WriteJSON(Message{Type: MsgSubscribe, Board: "b"}))
	readType(t, ws, MsgSnapshot)

	// based on the empty board, before A and B were committed
	require.NoError(t, ws.WriteJSON(Message{Type: MsgSubmit, Board: "b", Version: 0, Seq: 1, Ops: []ot.Op{ot.InsertOp(0, testLine("X"))}}))
	ack := readType(t, ws, MsgAck)
	assert.Equal(t, int64(1), ack.Version)

	board, err := storage.Load(context.Background(), "b")
	require.NoError(t, err)
	assert.Equal(t, []string{"X", "A", "B"}, lineIDs(board.Doc.Lines))
}

func TestHubRejects(t *testing.T) {
	h := newHarness(t, nil)
	ws := h.dial(t)

	require.NoError(t, ws.WriteJSON(Message{Type: MsgSubmit, Board: "b", Seq: 1, Ops: []ot.Op{ot.InsertOp(0, testLine("A"))}}))
	rej := readType(t, ws, MsgReject)
	assert.Equal(t, uint64(1), rej.Seq)
	assert.Contains(t, rej.Error, ErrNotSubscribed.Error())

	require.NoError(t, ws.WriteJSON(Message{Type: MsgSubscribe, Board: "b"}))
	readType(t, ws, MsgSnapshot)

	require.NoError(t, ws.WriteJSON(Message{Type: MsgSubmit, Board: "b", Version: 5, Seq: 2, Ops: []ot.Op{ot.InsertOp(0, testLine("A"))}}))
	assert.Equal(t, uint64(2), readType(t, ws, MsgReject).Seq)

	require.NoError(t, ws.WriteJSON(Message{Type: MsgSubmit, Board: "b", Version: 0, Seq: 3, Ops: []ot.Op{ot.DeleteOp(2, testLine("A"))}}))
	assert.Equal(t, uint64(3), readType(t, ws, MsgReject).Seq)

	require.NoError(t, ws.WriteJSON(Message{Type: MsgSubscribe, Collection: "notes", Board: "b"}))
	assert.Contains(t, readType(t, ws, MsgError).Error, "notes")

	_, err := h.storage.Load(context.Background(), "b")
	assert.ErrorIs(t, err, persist.ErrNotFound)
}

func TestFetchSnapshot(t *testing.T) {
	storage := persist.NewMemory()
	seed(t, storage, testLine("A"), testLine("B"))
	h := newHarness(t, storage)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	doc, version, err := FetchSnapshot(ctx, h.addr, "b")
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)
	assert.Equal(t, []string{"A", "B"}, lineIDs(doc.Lines))
}
