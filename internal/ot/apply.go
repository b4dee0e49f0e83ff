package ot

import (
	"fmt"

	"SyncBoard/internal/state"
)

// Apply returns the result of applying ops to lines in order. The input slice is
// never modified. Ops on other document keys are ignored.
func Apply(lines []state.Line, ops []Op) ([]state.Line, error) {
	out := append([]state.Line(nil), lines...)
	for i, op := range ops {
		var err error
		out, err = applyOne(out, op)
		if err != nil {
			return lines, fmt.Errorf("component %d (%s): %w", i, op, err)
		}
	}
	return out, nil
}

func applyOne(lines []state.Line, op Op) ([]state.Line, error) {
	if op.Path.Key != state.LinesKey {
		return lines, nil
	}

	i := op.Path.Index
	switch op.Kind() {
	case Insert:
		if i < 0 || i > len(lines) {
			return nil, fmt.Errorf("%w: insert at %d of %d", ErrIndexOutOfRange, i, len(lines))
		}
		if err := op.Insert.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOp, err)
		}
		lines = append(lines, state.Line{})
		copy(lines[i+1:], lines[i:])
		lines[i] = op.Insert.Clone()
		return lines, nil

	case Delete:
		if err := checkElement(lines, i, op.Delete.ID); err != nil {
			return nil, err
		}
		return append(lines[:i], lines[i+1:]...), nil

	case Replace:
		if err := checkElement(lines, i, op.Delete.ID); err != nil {
			return nil, err
		}
		if err := op.Insert.Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidOp, err)
		}
		lines[i] = op.Insert.Clone()
		return lines, nil

	case Move:
		to := *op.MoveTo
		if i < 0 || i >= len(lines) || to < 0 || to >= len(lines) {
			return nil, fmt.Errorf("%w: move %d->%d of %d", ErrIndexOutOfRange, i, to, len(lines))
		}
		line := lines[i]
		lines = append(lines[:i], lines[i+1:]...)
		lines = append(lines, state.Line{})
		copy(lines[to+1:], lines[to:])
		lines[to] = line
		return lines, nil

	case ReplaceAll:
		for _, l := range *op.ReplaceAll {
			if err := l.Validate(); err != nil {
				return nil, fmt.Errorf("%w: %v", ErrInvalidOp, err)
			}
		}
		return state.CloneLines(*op.ReplaceAll), nil

	case ClearAll:
		return []state.Line{}, nil
	}
	return nil, fmt.Errorf("%w: %+v", ErrInvalidOp, op)
}

func checkElement(lines []state.Line, i int, id string) error {
	if i < 0 || i >= len(lines) {
		return fmt.Errorf("%w: element %d of %d", ErrIndexOutOfRange, i, len(lines))
	}
	if lines[i].ID != id {
		return fmt.Errorf("%w: line at %d is %s, op expected %s", ErrInvalidOp, i, lines[i].ID, id)
	}
	return nil
}
