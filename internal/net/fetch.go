package net

import (
	"context"
	"fmt"
	"time"

	"github.com/gorilla/websocket"

	"SyncBoard/internal/state"
	"SyncBoard/internal/store"
)

// FetchSnapshot reads the current lines of a board from the host at addr
// without staying subscribed.
func FetchSnapshot(ctx context.Context, addr, board string) (state.Document, int64, error) {
	dialer := websocket.Dialer{HandshakeTimeout: 5 * time.Second}
	ws, _, err := dialer.DialContext(ctx, "ws://"+addr+"/ws", nil)
	if err != nil {
		return state.Document{}, 0, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer ws.Close()

	if deadline, ok := ctx.Deadline(); ok {
		_ = ws.SetReadDeadline(deadline)
		_ = ws.SetWriteDeadline(deadline)
	}
	stop := context.AfterFunc(ctx, func() { ws.Close() })
	defer stop()

	if err := ws.WriteJSON(Message{Type: MsgSubscribe, Collection: store.Collection, Board: board}); err != nil {
		return state.Document{}, 0, fmt.Errorf("subscribe %s: %w", board, err)
	}
	for {
		var msg Message
		if err := ws.ReadJSON(&msg); err != nil {
			if ctx.Err() != nil {
				return state.Document{}, 0, ctx.Err()
			}
			return state.Document{}, 0, fmt.Errorf("read snapshot of %s: %w", board, err)
		}
		switch msg.Type {
		case MsgSnapshot:
			doc := state.NewDocument()
			if msg.Snapshot != nil && msg.Snapshot.Lines != nil {
				doc.Lines = msg.Snapshot.Lines
			}
			_ = ws.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return doc, msg.Version, nil
		case MsgError:
			return state.Document{}, 0, fmt.Errorf("subscribe %s: %s", board, msg.Error)
		}
	}
}
