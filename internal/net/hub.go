package net

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SyncBoard/internal/ot"
	"SyncBoard/internal/persist"
	"SyncBoard/internal/state"
	"SyncBoard/internal/store"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 20
	sendBuffer     = 256
	// maxLogInMemory bounds the per-board op history kept for transforming
	// late submits. Older history is read back from storage.
	maxLogInMemory = 1024
)

// Storage is where the hub keeps boards between runs.
type Storage interface {
	Load(ctx context.Context, id string) (persist.Board, error)
	Append(ctx context.Context, id string, base int64, ops []ot.Op, doc state.Document) error
	OpsSince(ctx context.Context, id string, from int64) ([][]ot.Op, error)
}

type board struct {
	mu          sync.Mutex
	id          string
	version     int64
	lines       []state.Line
	log         [][]ot.Op
	logStart    int64
	subscribers map[*peer]bool
}

// Hub is the host side of the sync protocol: it serializes every op on a
// board, transforms late submits against what was committed since, and relays
// the result to every other subscriber.
type Hub struct {
	storage  Storage
	logger   *log.Logger
	upgrader websocket.Upgrader

	mu     sync.Mutex
	boards map[string]*board
	peers  map[*peer]bool
}

// NewHub creates a hub on top of storage.
func NewHub(storage Storage, logger *log.Logger) *Hub {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Hub{
		storage: storage,
		logger:  logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// boards are shared on the local network by link; any origin may join
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		boards: make(map[string]*board),
		peers:  make(map[*peer]bool),
	}
}

// Handler serves the websocket endpoint at /ws.
func (h *Hub) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", h.ServeWS)
	return mux
}

// Peers returns the number of connected clients.
func (h *Hub) Peers() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.peers)
}

// Close drops every client.
func (h *Hub) Close() {
	h.mu.Lock()
	peers := make([]*peer, 0, len(h.peers))
	for p := range h.peers {
		peers = append(peers, p)
	}
	h.mu.Unlock()
	for _, p := range peers {
		p.conn.Close()
	}
}

// ServeWS upgrades the request and serves the client until it disconnects.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Printf("upgrade %s: %v", r.RemoteAddr, err)
		return
	}
	p := &peer{
		hub:    h,
		conn:   conn,
		addr:   r.RemoteAddr,
		send:   make(chan Message, sendBuffer),
		boards: make(map[string]*board),
	}

	h.mu.Lock()
	h.peers[p] = true
	h.mu.Unlock()
	h.logger.Printf("client connected from %s", p.addr)

	go p.writePump()
	p.readPump(context.WithoutCancel(r.Context()))
	h.remove(p)
}

func (h *Hub) remove(p *peer) {
	h.mu.Lock()
	delete(h.peers, p)
	h.mu.Unlock()

	for _, b := range p.subscriptions() {
		b.mu.Lock()
		delete(b.subscribers, p)
		b.mu.Unlock()
	}
	p.close()
	p.conn.Close()
	h.logger.Printf("client %s disconnected", p.addr)
}

// board returns the live state of id, loading it from storage or creating an
// empty board on first use.
func (h *Hub) board(ctx context.Context, id string) (*board, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if b, ok := h.boards[id]; ok {
		return b, nil
	}

	b := &board{id: id, lines: []state.Line{}, subscribers: make(map[*peer]bool)}
	stored, err := h.storage.Load(ctx, id)
	switch {
	case errors.Is(err, persist.ErrNotFound):
		h.logger.Printf("creating board %s", id)
	case err != nil:
		return nil, fmt.Errorf("load board %s: %w", id, err)
	default:
		b.version = stored.Version
		b.lines = stored.Doc.Lines
		h.logger.Printf("loaded board %s at version %d with %d lines", id, b.version, len(b.lines))
	}
	b.logStart = b.version
	h.boards[id] = b
	return b, nil
}

func (h *Hub) handle(ctx context.Context, p *peer, msg Message) {
	if msg.Collection != "" && msg.Collection != store.Collection {
		p.enqueue(Message{Type: MsgError, Collection: msg.Collection, Board: msg.Board, Error: "unknown collection " + msg.Collection})
		return
	}
	msg.Collection = store.Collection

	switch msg.Type {
	case MsgSubscribe:
		h.subscribe(ctx, p, msg)
	case MsgUnsubscribe:
		if b := p.unsubscribe(msg.Board); b != nil {
			b.mu.Lock()
			delete(b.subscribers, p)
			b.mu.Unlock()
		}
	case MsgSubmit:
		b := p.subscription(msg.Board)
		if b == nil {
			p.enqueue(reject(msg, ErrNotSubscribed))
			return
		}
		h.submit(ctx, b, p, msg)
	default:
		p.enqueue(Message{Type: MsgError, Board: msg.Board, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
	}
}

func (h *Hub) subscribe(ctx context.Context, p *peer, msg Message) {
	if msg.Board == "" {
		p.enqueue(Message{Type: MsgError, Collection: msg.Collection, Error: "subscribe without a board id"})
		return
	}
	b, err := h.board(ctx, msg.Board)
	if err != nil {
		h.logger.Printf("subscribe %s: %v", p.addr, err)
		p.enqueue(Message{Type: MsgError, Collection: msg.Collection, Board: msg.Board, Error: err.Error()})
		return
	}

	// The snapshot is queued under the board lock so no op can be relayed
	// to this peer ahead of it.
	b.mu.Lock()
	b.subscribers[p] = true
	doc := state.Document{Lines: state.CloneLines(b.lines)}
	p.enqueue(Message{Type: MsgSnapshot, Collection: msg.Collection, Board: b.id, Version: b.version, Snapshot: &doc})
	b.mu.Unlock()

	p.subscribe(b)
}

func (h *Hub) submit(ctx context.Context, b *board, p *peer, msg Message) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if msg.Version < 0 || msg.Version > b.version {
		p.enqueue(reject(msg, fmt.Errorf("base version %d unknown, board is at %d", msg.Version, b.version)))
		return
	}

	concurrent, err := h.since(ctx, b, msg.Version)
	if err != nil {
		h.logger.Printf("board %s: %v", b.id, err)
		p.enqueue(reject(msg, err))
		return
	}
	ops := msg.Ops
	for _, committed := range concurrent {
		ops, _ = ot.TransformX(ops, committed, ot.Left)
	}

	next, err := ot.Apply(b.lines, ops)
	if err != nil {
		h.logger.Printf("board %s: rejecting op from %s: %v", b.id, p.addr, err)
		p.enqueue(reject(msg, err))
		return
	}
	if err := h.storage.Append(ctx, b.id, b.version, ops, state.Document{Lines: next}); err != nil {
		h.logger.Printf("board %s: persist version %d: %v", b.id, b.version+1, err)
		p.enqueue(reject(msg, err))
		return
	}

	base := b.version
	b.lines = next
	b.version++
	b.log = append(b.log, ops)
	if over := len(b.log) - maxLogInMemory; over > 0 {
		b.log = append([][]ot.Op(nil), b.log[over:]...)
		b.logStart += int64(over)
	}

	p.enqueue(Message{Type: MsgAck, Collection: msg.Collection, Board: b.id, Version: base, Seq: msg.Seq})
	relay := Message{Type: MsgOp, Collection: msg.Collection, Board: b.id, Version: base, Ops: ops}
	for sub := range b.subscribers {
		if sub != p {
			sub.enqueue(relay)
		}
	}
}

// since returns the op batches committed at versions from..current.
func (h *Hub) since(ctx context.Context, b *board, from int64) ([][]ot.Op, error) {
	if from >= b.logStart {
		return b.log[from-b.logStart:], nil
	}
	ops, err := h.storage.OpsSince(ctx, b.id, from)
	if err != nil {
		return nil, fmt.Errorf("read ops since %d: %w", from, err)
	}
	if int64(len(ops)) != b.version-from {
		return nil, fmt.Errorf("storage has %d ops since %d, expected %d", len(ops), from, b.version-from)
	}
	return ops, nil
}

func reject(msg Message, err error) Message {
	return Message{Type: MsgReject, Collection: msg.Collection, Board: msg.Board, Seq: msg.Seq, Error: err.Error()}
}

// peer is one websocket client of the hub.
type peer struct {
	hub  *Hub
	conn *websocket.Conn
	addr string

	mu     sync.Mutex
	send   chan Message
	closed bool
	boards map[string]*board
}

func (p *peer) enqueue(msg Message) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return
	}
	select {
	case p.send <- msg:
	default:
		// too slow to keep up; it will resync when it reconnects
		p.hub.logger.Printf("client %s send buffer full, dropping it", p.addr)
		p.closed = true
		close(p.send)
	}
}

func (p *peer) close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		p.closed = true
		close(p.send)
	}
}

func (p *peer) subscribe(b *board) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.boards[b.id] = b
}

func (p *peer) unsubscribe(id string) *board {
	p.mu.Lock()
	defer p.mu.Unlock()
	b := p.boards[id]
	delete(p.boards, id)
	return b
}

func (p *peer) subscription(id string) *board {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.boards[id]
}

func (p *peer) subscriptions() []*board {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]*board, 0, len(p.boards))
	for _, b := range p.boards {
		out = append(out, b)
	}
	return out
}

func (p *peer) readPump(ctx context.Context) {
	p.conn.SetReadLimit(maxMessageSize)
	_ = p.conn.SetReadDeadline(time.Now().Add(pongWait))
	p.conn.SetPongHandler(func(string) error {
		return p.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		if err := p.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				p.hub.logger.Printf("read from %s: %v", p.addr, err)
			}
			return
		}
		p.hub.handle(ctx, p, msg)
	}
}

func (p *peer) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		p.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-p.send:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = p.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := p.conn.WriteJSON(msg); err != nil {
				p.hub.logger.Printf("write to %s: %v", p.addr, err)
				return
			}
		case <-ticker.C:
			_ = p.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := p.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
