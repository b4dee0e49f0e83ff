package net

import (
	"errors"

	"SyncBoard/internal/ot"
	"SyncBoard/internal/state"
)

var (
	// ErrDisconnected fails ops that were queued or in flight when the socket dropped.
	ErrDisconnected = errors.New("disconnected from host")
	// ErrNotSubscribed is returned for ops on a document that has no snapshot yet.
	ErrNotSubscribed = errors.New("document is not subscribed")
	// ErrDestroyed is returned for calls on a destroyed document.
	ErrDestroyed = errors.New("document destroyed")
	// ErrRejected wraps the host's reason for refusing an op.
	ErrRejected = errors.New("op rejected by host")
)

// MessageType names a wire message.
type MessageType string

const (
	MsgSubscribe   MessageType = "subscribe"
	MsgUnsubscribe MessageType = "unsubscribe"
	MsgSnapshot    MessageType = "snapshot"
	MsgSubmit      MessageType = "submit"
	MsgAck         MessageType = "ack"
	MsgReject      MessageType = "reject"
	MsgOp          MessageType = "op"
	MsgError       MessageType = "error"
)

// Message is the single JSON envelope exchanged over the websocket.
//
// Version is always the version an op batch applies on top of: a submit's base,
// an ack's or op's applied-at version, a snapshot's current version.
type Message struct {
	Type       MessageType     `json:"type"`
	Collection string          `json:"c,omitempty"`
	Board      string          `json:"d,omitempty"`
	Version    int64           `json:"v"`
	Seq        uint64          `json:"seq,omitempty"`
	Ops        []ot.Op         `json:"ops,omitempty"`
	Snapshot   *state.Document `json:"data,omitempty"`
	Error      string          `json:"error,omitempty"`
}
