package ot

import "SyncBoard/internal/state"

// Side breaks ties between two ops that target the same position.
type Side int

const (
	// Left keeps its position on a tie and wins conflicting writes.
	Left Side = iota
	Right
)

// Opposite returns the other side.
func (s Side) Opposite() Side {
	if s == Left {
		return Right
	}
	return Left
}

// Transform rewrites op, which was created concurrently with other, so that it
// can be applied after other. It reports false when op has become a no-op.
//
// Index ops issued before a whole-collection replace or clear are dropped.
// Concurrent deletes of the same line collapse into one. A replace whose
// target was deleted turns into an insert, and the delete is dropped.
func Transform(op, other Op, side Side) (Op, bool) {
	if op.Path.Key != other.Path.Key {
		return op, true
	}
	opKind, otherKind := op.Kind(), other.Kind()

	if otherKind == ReplaceAll || otherKind == ClearAll {
		if opKind != ReplaceAll && opKind != ClearAll {
			return op, false
		}
		if side == Right {
			return op, false
		}
		op = cloneOp(op)
		current := []state.Line{}
		if other.ReplaceAll != nil {
			current = append(current, (*other.ReplaceAll)...)
		}
		op.DeleteAll = &current
		return op, true
	}
	if opKind == ReplaceAll || opKind == ClearAll {
		return op, true
	}

	op = cloneOp(op)
	j := other.Path.Index

	switch otherKind {
	case Insert:
		switch opKind {
		case Insert:
			if op.Path.Index > j || (op.Path.Index == j && side == Right) {
				op.Path.Index++
			}
		case Delete, Replace:
			if op.Path.Index >= j {
				op.Path.Index++
			}
		case Move:
			if op.Path.Index >= j {
				op.Path.Index++
			}
			if *op.MoveTo >= j {
				*op.MoveTo++
			}
		}

	case Delete:
		switch opKind {
		case Insert:
			if op.Path.Index > j {
				op.Path.Index--
			}
		case Delete:
			if op.Path.Index == j {
				return op, false
			}
			if op.Path.Index > j {
				op.Path.Index--
			}
		case Replace:
			if op.Path.Index == j {
				op.Delete = nil
			} else if op.Path.Index > j {
				op.Path.Index--
			}
		case Move:
			if op.Path.Index == j {
				return op, false
			}
			if op.Path.Index > j {
				op.Path.Index--
			}
			if *op.MoveTo > j {
				*op.MoveTo--
			}
		}

	case Replace:
		if op.Path.Index != j {
			break
		}
		switch opKind {
		case Delete:
			return op, false
		case Replace:
			if side == Right {
				return op, false
			}
			l := other.Insert.Clone()
			op.Delete = &l
		}

	case Move:
		from, to := j, *other.MoveTo
		switch opKind {
		case Insert:
			op.Path.Index = moveGap(op.Path.Index, from, to, side)
		case Delete, Replace:
			op.Path.Index = moveElement(op.Path.Index, from, to)
		case Move:
			if op.Path.Index == from {
				if side == Right {
					return op, false
				}
				op.Path.Index = to
				break
			}
			op.Path.Index = moveElement(op.Path.Index, from, to)
			*op.MoveTo = moveElement(*op.MoveTo, from, to)
		}
	}
	return op, true
}

// moveElement is where the element at i ends up after the element at from moved to to.
func moveElement(i, from, to int) int {
	if i == from {
		return to
	}
	if i > from {
		i--
	}
	if i >= to {
		i++
	}
	return i
}

// moveGap is where an insertion point lands after the element at from moved to to.
func moveGap(g, from, to int, side Side) int {
	if g > from {
		g--
	}
	if g > to || (g == to && side == Right) {
		g++
	}
	return g
}

// TransformX transforms two concurrent op lists against each other. ops is
// transformed with side, others with the opposite side, so that applying
// ops then others' gives the same document as others then ops'.
func TransformX(ops, others []Op, side Side) ([]Op, []Op) {
	var othersOut []Op
	for _, other := range others {
		current, live := other, true
		next := make([]Op, 0, len(ops))
		for _, op := range ops {
			if !live {
				next = append(next, op)
				continue
			}
			transformed, keep := Transform(op, current, side)
			current, live = Transform(current, op, side.Opposite())
			if keep {
				next = append(next, transformed)
			}
		}
		ops = next
		if live {
			othersOut = append(othersOut, current)
		}
	}
	return ops, othersOut
}

func cloneOp(o Op) Op {
	c := o
	if o.Insert != nil {
		l := o.Insert.Clone()
		c.Insert = &l
	}
	if o.Delete != nil {
		l := o.Delete.Clone()
		c.Delete = &l
	}
	if o.MoveTo != nil {
		t := *o.MoveTo
		c.MoveTo = &t
	}
	return c
}
