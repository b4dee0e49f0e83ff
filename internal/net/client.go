package net

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"SyncBoard/internal/event"
	"SyncBoard/internal/store"
)

const (
	minBackoff = 250 * time.Millisecond
	maxBackoff = 5 * time.Second
)

var (
	_ store.Connection     = (*Connection)(nil)
	_ store.DocumentHandle = (*Doc)(nil)
)

// Dispatcher runs callbacks on the session thread. loop.Scheduler satisfies it.
type Dispatcher interface {
	Post(fn func())
}

// Connection is the client side of the sync protocol. It keeps one websocket to
// the host open, reconnecting with backoff, and hands out document handles.
// Apart from Close, its methods must be called on the dispatcher's thread.
type Connection struct {
	url      string
	dispatch Dispatcher
	logger   *log.Logger
	dialer   *websocket.Dialer

	cancel context.CancelFunc
	done   chan struct{}
	wsMu   sync.Mutex
	ws     *websocket.Conn

	// session thread only
	out       chan Message
	outStop   chan struct{}
	connected bool
	seq       uint64
	docs      map[string]*Doc
	inflight  map[uint64]*Doc

	// Status fires true when the socket opens and false when it drops.
	Status event.Emitter[bool]
}

// Connect starts connecting to the host at addr (host:port) in the background.
func Connect(addr string, dispatch Dispatcher, logger *log.Logger) *Connection {
	c := newConnection("ws://"+addr+"/ws", dispatch, logger)
	ctx, cancel := context.WithCancel(context.Background())
	c.cancel = cancel
	go c.run(ctx)
	return c
}

func newConnection(url string, dispatch Dispatcher, logger *log.Logger) *Connection {
	if logger == nil {
		logger = log.New(io.Discard, "", 0)
	}
	return &Connection{
		url:      url,
		dispatch: dispatch,
		logger:   logger,
		dialer:   &websocket.Dialer{HandshakeTimeout: 5 * time.Second},
		done:     make(chan struct{}),
		docs:     make(map[string]*Doc),
		inflight: make(map[uint64]*Doc),
	}
}

// Get returns the handle of a document, creating it on first use.
func (c *Connection) Get(collection, id string) store.DocumentHandle {
	return c.doc(collection, id)
}

func (c *Connection) doc(collection, id string) *Doc {
	key := collection + "/" + id
	if d, ok := c.docs[key]; ok {
		return d
	}
	d := newDoc(c, collection, id)
	c.docs[key] = d
	return d
}

// Connected reports whether the socket is currently open.
func (c *Connection) Connected() bool { return c.connected }

// Close stops reconnecting and closes the socket. Safe from any goroutine.
func (c *Connection) Close() {
	if c.cancel == nil {
		return
	}
	c.cancel()
	c.wsMu.Lock()
	if c.ws != nil {
		c.ws.Close()
	}
	c.wsMu.Unlock()
	<-c.done
}

func (c *Connection) run(ctx context.Context) {
	defer close(c.done)

	backoff := minBackoff
	for {
		ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			c.logger.Printf("dial %s: %v, retrying in %v", c.url, err, backoff)
			select {
			case <-ctx.Done():
				return
			case <-time.After(backoff):
			}
			backoff = min(backoff*2, maxBackoff)
			continue
		}
		backoff = minBackoff

		c.wsMu.Lock()
		c.ws = ws
		c.wsMu.Unlock()
		if ctx.Err() != nil {
			ws.Close()
			return
		}
		c.serve(ctx, ws)

		c.wsMu.Lock()
		c.ws = nil
		c.wsMu.Unlock()
	}
}

func (c *Connection) serve(ctx context.Context, ws *websocket.Conn) {
	out := make(chan Message, sendBuffer)
	stop := make(chan struct{})
	c.dispatch.Post(func() { c.opened(out, stop) })
	go writePump(ws, out, stop, c.logger)

	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			if ctx.Err() == nil {
				c.logger.Printf("connection to %s lost: %v", c.url, err)
			}
			break
		}
		c.dispatch.Post(func() { c.route(msg) })
	}

	close(stop)
	ws.Close()
	c.dispatch.Post(c.closed)
}

func writePump(ws *websocket.Conn, out <-chan Message, stop <-chan struct{}, logger *log.Logger) {
	for {
		select {
		case msg := <-out:
			_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := ws.WriteJSON(msg); err != nil {
				logger.Printf("write %s: %v", msg.Type, err)
				ws.Close()
				return
			}
		case <-stop:
			return
		}
	}
}

func (c *Connection) opened(out chan Message, stop chan struct{}) {
	c.out, c.outStop = out, stop
	c.connected = true
	c.logger.Printf("connected to %s", c.url)
	c.Status.Emit(true)
	for _, d := range c.docs {
		d.onOpen()
	}
}

func (c *Connection) closed() {
	c.out, c.outStop = nil, nil
	c.connected = false
	c.Status.Emit(false)

	affected := make(map[*Doc]bool, len(c.docs)+len(c.inflight))
	for _, d := range c.docs {
		affected[d] = true
	}
	for _, d := range c.inflight {
		affected[d] = true
	}
	c.inflight = make(map[uint64]*Doc)
	for d := range affected {
		d.onClose()
	}
}

func (c *Connection) route(msg Message) {
	switch msg.Type {
	case MsgAck, MsgReject:
		d, ok := c.inflight[msg.Seq]
		if !ok {
			c.logger.Printf("%s for unknown submit %d", msg.Type, msg.Seq)
			return
		}
		delete(c.inflight, msg.Seq)
		if msg.Type == MsgAck {
			d.onAck(msg)
		} else {
			d.onReject(msg)
		}
	case MsgSnapshot, MsgOp, MsgError:
		d, ok := c.docs[msg.Collection+"/"+msg.Board]
		if !ok {
			return
		}
		switch msg.Type {
		case MsgSnapshot:
			d.onSnapshot(msg)
		case MsgOp:
			d.onOp(msg)
		default:
			d.onError(msg)
		}
	default:
		c.logger.Printf("unexpected %q message", msg.Type)
	}
}

// send queues msg for the writer. It reports false when there is no socket.
func (c *Connection) send(msg Message) bool {
	if c.out == nil {
		return false
	}
	select {
	case c.out <- msg:
		return true
	case <-c.outStop:
		return false
	}
}

func (c *Connection) nextSeq() uint64 {
	c.seq++
	return c.seq
}

func (c *Connection) forget(d *Doc) {
	key := d.collection + "/" + d.id
	if c.docs[key] == d {
		delete(c.docs, key)
	}
}
