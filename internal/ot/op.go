// Package ot is the operation vocabulary shared by board clients and the host:
// insert, remove, replace and move single lines, or replace or clear them all.
package ot

import (
	"encoding/json"
	"errors"
	"fmt"

	"SyncBoard/internal/state"
)

var (
	// ErrIndexOutOfRange means an op addressed a position the document does not have.
	ErrIndexOutOfRange = errors.New("op index out of range")
	// ErrInvalidOp means an op is malformed or its payload contradicts the document.
	ErrInvalidOp = errors.New("invalid op")
)

// Path addresses either a whole collection ([key]) or one element ([key, index]).
type Path struct {
	Key      string
	Index    int
	HasIndex bool
}

// At returns the path of element i of the line collection.
func At(i int) Path { return Path{Key: state.LinesKey, Index: i, HasIndex: true} }

// Whole returns the path of the line collection itself.
func Whole() Path { return Path{Key: state.LinesKey} }

func (p Path) MarshalJSON() ([]byte, error) {
	if p.HasIndex {
		return json.Marshal([]any{p.Key, p.Index})
	}
	return json.Marshal([]any{p.Key})
}

func (p *Path) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: path: %v", ErrInvalidOp, err)
	}
	if len(raw) == 0 || len(raw) > 2 {
		return fmt.Errorf("%w: path has %d components", ErrInvalidOp, len(raw))
	}
	*p = Path{}
	if err := json.Unmarshal(raw[0], &p.Key); err != nil {
		return fmt.Errorf("%w: path key: %v", ErrInvalidOp, err)
	}
	if len(raw) == 2 {
		if err := json.Unmarshal(raw[1], &p.Index); err != nil {
			return fmt.Errorf("%w: path index: %v", ErrInvalidOp, err)
		}
		p.HasIndex = true
	}
	return nil
}

// Op is one component of an operation. Which fields are set decides its Kind.
type Op struct {
	Path       Path          `json:"p"`
	Insert     *state.Line   `json:"li,omitempty"`
	Delete     *state.Line   `json:"ld,omitempty"`
	MoveTo     *int          `json:"lm,omitempty"`
	ReplaceAll *[]state.Line `json:"oi,omitempty"`
	DeleteAll  *[]state.Line `json:"od,omitempty"`
}

// Kind classifies an op component.
type Kind int

const (
	Invalid Kind = iota
	Insert
	Delete
	Replace
	Move
	ReplaceAll
	ClearAll
)

func (k Kind) String() string {
	switch k {
	case Insert:
		return "insert"
	case Delete:
		return "delete"
	case Replace:
		return "replace"
	case Move:
		return "move"
	case ReplaceAll:
		return "replace-all"
	case ClearAll:
		return "clear-all"
	default:
		return "invalid"
	}
}

// Kind reports what the op does.
func (o Op) Kind() Kind {
	if o.Path.HasIndex {
		switch {
		case o.Insert != nil && o.Delete != nil:
			return Replace
		case o.Insert != nil:
			return Insert
		case o.Delete != nil:
			return Delete
		case o.MoveTo != nil:
			return Move
		}
		return Invalid
	}
	switch {
	case o.ReplaceAll != nil && len(*o.ReplaceAll) > 0:
		return ReplaceAll
	case o.ReplaceAll != nil || o.DeleteAll != nil:
		return ClearAll
	}
	return Invalid
}

// InsertOp inserts line at index i.
func InsertOp(i int, line state.Line) Op {
	l := line.Clone()
	return Op{Path: At(i), Insert: &l}
}

// DeleteOp removes line, which must currently sit at index i.
func DeleteOp(i int, line state.Line) Op {
	l := line.Clone()
	return Op{Path: At(i), Delete: &l}
}

// ReplaceOp swaps old, at index i, for line.
func ReplaceOp(i int, old, line state.Line) Op {
	o, n := old.Clone(), line.Clone()
	return Op{Path: At(i), Delete: &o, Insert: &n}
}

// MoveOp moves the line at from so that it ends up at index to.
func MoveOp(from, to int) Op {
	t := to
	return Op{Path: At(from), MoveTo: &t}
}

// ReplaceAllOp swaps the whole collection for lines.
func ReplaceAllOp(old, lines []state.Line) Op {
	o, n := state.CloneLines(old), state.CloneLines(lines)
	return Op{Path: Whole(), DeleteAll: &o, ReplaceAll: &n}
}

// ClearAllOp removes every line.
func ClearAllOp(old []state.Line) Op {
	o := state.CloneLines(old)
	return Op{Path: Whole(), DeleteAll: &o}
}

func (o Op) String() string {
	switch o.Kind() {
	case Insert:
		return fmt.Sprintf("insert %s@%d", o.Insert.ID, o.Path.Index)
	case Delete:
		return fmt.Sprintf("delete %s@%d", o.Delete.ID, o.Path.Index)
	case Replace:
		return fmt.Sprintf("replace %s->%s@%d", o.Delete.ID, o.Insert.ID, o.Path.Index)
	case Move:
		return fmt.Sprintf("move %d->%d", o.Path.Index, *o.MoveTo)
	case ReplaceAll:
		return fmt.Sprintf("replace-all %d lines", len(*o.ReplaceAll))
	case ClearAll:
		return "clear-all"
	}
	return "invalid op"
}
